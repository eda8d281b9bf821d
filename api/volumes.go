package api

import (
	"context"
	"net/http"
	"strconv"
	"time"
)

type Volume struct {
	ID       int64             `json:"id" yaml:"id"`
	Name     string            `json:"name" yaml:"name"`
	Size     int               `json:"size" yaml:"size"`
	Status   string            `json:"status" yaml:"status"`
	Location string            `json:"location" yaml:"location"`
	Server   *int64            `json:"server" yaml:"server"`
	Format   string            `json:"format,omitempty" yaml:"format,omitempty"`
	Labels   map[string]string `json:"labels,omitempty" yaml:"labels,omitempty"`
	Created  time.Time         `json:"created" yaml:"created"`
}

type VolumeCreateOpts struct {
	Name     string            `json:"name"`
	Size     int               `json:"size"`
	Location string            `json:"location,omitempty"`
	Server   *int64            `json:"server,omitempty"`
	Format   string            `json:"format,omitempty"`
	Labels   map[string]string `json:"labels,omitempty"`
}

type VolumeUpdateOpts struct {
	Name   string            `json:"name,omitempty"`
	Labels map[string]string `json:"labels,omitempty"`
}

type volumeResponse struct {
	Volume Volume `json:"volume"`
}

type volumeListResponse struct {
	Volumes []Volume `json:"volumes"`
	Meta    Meta     `json:"meta"`
}

type attachRequest struct {
	Server int64 `json:"server"`
}

type VolumeClient struct {
	client *Client
}

func volumePath(id int64) string {
	return "/volumes/" + strconv.FormatInt(id, 10)
}

func (c *VolumeClient) List(ctx context.Context, opts ListOpts) ([]Volume, Meta, error) {
	var body volumeListResponse
	if _, err := c.client.do(ctx, http.MethodGet, "/volumes", opts.Values(), nil, &body); err != nil {
		return nil, Meta{}, err
	}

	return body.Volumes, body.Meta, nil
}

func (c *VolumeClient) All(ctx context.Context, opts ListOpts) ([]Volume, error) {
	return All[Volume](ctx, c.List, opts)
}

func (c *VolumeClient) Get(ctx context.Context, id int64) (Volume, error) {
	var body volumeResponse
	_, err := c.client.do(ctx, http.MethodGet, volumePath(id), nil, nil, &body)

	return body.Volume, err
}

func (c *VolumeClient) Create(ctx context.Context, opts VolumeCreateOpts) (Volume, error) {
	var body volumeResponse
	_, err := c.client.do(ctx, http.MethodPost, "/volumes", nil, opts, &body)

	return body.Volume, err
}

func (c *VolumeClient) Update(ctx context.Context, id int64, opts VolumeUpdateOpts) (Volume, error) {
	var body volumeResponse
	_, err := c.client.do(ctx, http.MethodPut, volumePath(id), nil, opts, &body)

	return body.Volume, err
}

func (c *VolumeClient) Delete(ctx context.Context, id int64) error {
	_, err := c.client.do(ctx, http.MethodDelete, volumePath(id), nil, nil, nil)

	return err
}

func (c *VolumeClient) Attach(ctx context.Context, id int64, serverID int64) (Action, error) {
	var body actionResponse
	_, err := c.client.do(ctx, http.MethodPost, volumePath(id)+"/actions/attach", nil, attachRequest{Server: serverID}, &body)

	return body.Action, err
}

func (c *VolumeClient) Detach(ctx context.Context, id int64) (Action, error) {
	var body actionResponse
	_, err := c.client.do(ctx, http.MethodPost, volumePath(id)+"/actions/detach", nil, nil, &body)

	return body.Action, err
}
