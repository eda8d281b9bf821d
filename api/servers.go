package api

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

type Server struct {
	ID         int64             `json:"id" yaml:"id"`
	Name       string            `json:"name" yaml:"name"`
	Status     string            `json:"status" yaml:"status"`
	ServerType string            `json:"server_type" yaml:"server_type"`
	Image      string            `json:"image" yaml:"image"`
	Location   string            `json:"location" yaml:"location"`
	PublicIPv4 string            `json:"public_ipv4,omitempty" yaml:"public_ipv4,omitempty"`
	Labels     map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Created    time.Time         `json:"created" yaml:"created"`
}

type ServerCreateOpts struct {
	Name       string            `json:"name"`
	ServerType string            `json:"server_type"`
	Image      string            `json:"image"`
	Location   string            `json:"location,omitempty"`
	Labels     map[string]string `json:"labels,omitempty"`
	UserData   string            `json:"user_data,omitempty"`
	SSHKeys    []string          `json:"ssh_keys,omitempty"`
}

type ServerUpdateOpts struct {
	Name   string            `json:"name,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

type serverResponse struct {
	Server Server `json:"server"`
}

type serverListResponse struct {
	Servers []Server `json:"servers"`
	Meta    Meta     `json:"meta"`
}

type ServerClient struct {
	client *Client
}

func serverPath(id int64) string {
	return "/servers/" + strconv.FormatInt(id, 10)
}

// List returns a single page of servers.
func (c *ServerClient) List(ctx context.Context, opts ListOpts) ([]Server, Meta, error) {
	var body serverListResponse
	if _, err := c.client.do(ctx, http.MethodGet, "/servers", opts.Values(), nil, &body); err != nil {
		return nil, Meta{}, err
	}

	return body.Servers, body.Meta, nil
}

// All returns every server, following pagination from opts.Page.
func (c *ServerClient) All(ctx context.Context, opts ListOpts) ([]Server, error) {
	return All[Server](ctx, c.List, opts)
}

func (c *ServerClient) Get(ctx context.Context, id int64) (Server, error) {
	var body serverResponse
	_, err := c.client.do(ctx, http.MethodGet, serverPath(id), nil, nil, &body)

	return body.Server, err
}

func (c *ServerClient) Create(ctx context.Context, opts ServerCreateOpts) (Server, error) {
	var body serverResponse
	_, err := c.client.do(ctx, http.MethodPost, "/servers", nil, opts, &body)

	return body.Server, err
}

func (c *ServerClient) Update(ctx context.Context, id int64, opts ServerUpdateOpts) (Server, error) {
	var body serverResponse
	_, err := c.client.do(ctx, http.MethodPut, serverPath(id), nil, opts, &body)

	return body.Server, err
}

func (c *ServerClient) Delete(ctx context.Context, id int64) error {
	_, err := c.client.do(ctx, http.MethodDelete, serverPath(id), nil, nil, nil)

	return err
}

func (c *ServerClient) action(ctx context.Context, id int64, name string) (Action, error) {
	var body actionResponse
	_, err := c.client.do(ctx, http.MethodPost, serverPath(id)+"/actions/"+name, nil, nil, &body)

	return body.Action, err
}

func (c *ServerClient) PowerOn(ctx context.Context, id int64) (Action, error) {
	return c.action(ctx, id, "poweron")
}

func (c *ServerClient) PowerOff(ctx context.Context, id int64) (Action, error) {
	return c.action(ctx, id, "poweroff")
}

func (c *ServerClient) Reboot(ctx context.Context, id int64) (Action, error) {
	return c.action(ctx, id, "reboot")
}
