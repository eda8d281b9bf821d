package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/seventv/cloudctl/api"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/logger"
	"github.com/seventv/cloudctl/types"
	"github.com/seventv/cloudctl/utils"
)

var idArg = ArgSpec{Name: "id", Kind: OptInt, Help: "Resource ID"}

var listOptions = []OptionSpec{
	{Name: "page", Kind: OptInt, Hint: "n", Help: "Page to fetch", Validate: check(types.RangeValidator("page", 1, 1<<30))},
	{Name: "per-page", Kind: OptInt, Hint: "n", Help: "Items per page", Validate: check(types.RangeValidator("per-page", 1, constants.MaxPerPage))},
	{Name: "all", Kind: OptBool, Help: "Fetch every page"},
	{Name: "label", Short: "l", Kind: OptList, Hint: "k=v[,k=v]", Help: "Filter by labels", Validate: check(types.LabelValidator("label"))},
	{Name: "sort", Kind: OptString, Hint: "field[:asc|:desc]", Help: "Sort order"},
}

var labelOption = OptionSpec{Name: "label", Short: "l", Kind: OptList, Hint: "k=v[,k=v]", Help: "Labels to set", Validate: check(types.LabelValidator("label"))}

func listOpts(c *Context) (api.ListOpts, error) {
	page, err := c.Int("page", 1)
	if err != nil {
		return api.ListOpts{}, err
	}

	perPage, err := c.Int("per-page", c.Profile.PerPage)
	if err != nil {
		return api.ListOpts{}, err
	}

	return api.ListOpts{
		Page:          page,
		PerPage:       perPage,
		LabelSelector: strings.Join(c.List("label"), ","),
		Sort:          c.String("sort"),
	}, nil
}

// pageHint tells table readers how to reach the next page.
func pageHint(c *Context, meta api.Meta) {
	if c.Printer.Format != "table" || meta.Pagination == nil || meta.Pagination.NextPage == nil {
		return
	}

	p := meta.Pagination
	if p.LastPage != nil {
		logger.Infof("page %d of %d, use --page %d or --all for more", p.Page, *p.LastPage, *p.NextPage)
		return
	}

	logger.Infof("page %d, use --page %d or --all for more", p.Page, *p.NextPage)
}

func init() {
	register(
		&Command{
			Path:     []string{"servers", "list"},
			Summary:  "List servers",
			Options:  listOptions,
			ReadOnly: true,
			Run: func(c *Context) error {
				client, err := c.API()
				if err != nil {
					return err
				}

				opts, err := listOpts(c)
				if err != nil {
					return err
				}

				var (
					servers []api.Server
					meta    api.Meta
				)

				done := c.Spin("Fetching servers")
				if c.Flag("all") {
					servers, err = client.Servers.All(c, opts)
				} else {
					servers, meta, err = client.Servers.List(c, opts)
				}
				done(err)
				if err != nil {
					return err
				}

				if servers == nil {
					servers = []api.Server{}
				}

				if err := c.Printer.Print(servers, serverTable(servers)); err != nil {
					return err
				}

				pageHint(c, meta)

				return nil
			},
		},
		&Command{
			Path:     []string{"servers", "get"},
			Summary:  "Show a server",
			Args:     []ArgSpec{idArg},
			ReadOnly: true,
			Run: func(c *Context) error {
				id, err := c.ID("id")
				if err != nil {
					return err
				}

				client, err := c.API()
				if err != nil {
					return err
				}

				done := c.Spin("Fetching server")
				server, err := client.Servers.Get(c, id)
				done(err)
				if err != nil {
					return err
				}

				return c.Printer.Print(server, serverDetail(server))
			},
		},
		&Command{
			Path:    []string{"servers", "create"},
			Summary: "Create a server",
			Options: []OptionSpec{
				{Name: "name", Kind: OptString, Required: true, Hint: "name", Help: "Server name", Validate: check(types.NameValidator("name"))},
				{Name: "type", Kind: OptString, Required: true, Hint: "type", Help: "Server type, e.g. cx21"},
				{Name: "image", Kind: OptString, Required: true, Hint: "image", Help: "Image to boot, e.g. ubuntu-24.04"},
				{Name: "location", Kind: OptString, Hint: "location", Help: "Location to create the server in"},
				labelOption,
				{Name: "ssh-key", Kind: OptList, Hint: "key[,key]", Help: "SSH keys to install"},
				{Name: "user-data-file", Kind: OptString, Hint: "path|-", Help: "Cloud-init user data, --user-data-file=- reads stdin", Validate: check(types.PathValidator("user-data-file", true))},
			},
			Run: func(c *Context) error {
				opts := api.ServerCreateOpts{
					Name:       c.String("name"),
					ServerType: c.String("type"),
					Image:      c.String("image"),
					Location:   c.String("location"),
				}

				if c.Has("label") {
					opts.Labels = c.Labels("label")
				}

				for _, key := range c.List("ssh-key") {
					for _, k := range strings.Split(key, ",") {
						if k = strings.TrimSpace(k); k != "" {
							opts.SSHKeys = append(opts.SSHKeys, k)
						}
					}
				}

				if path := c.String("user-data-file"); path != "" {
					data, err := utils.ReadFile(path, c.App.Streams.In)
					if err != nil {
						return types.InvalidValue("--user-data-file", path, err)
					}
					opts.UserData = string(data)
				}

				client, err := c.API()
				if err != nil {
					return err
				}

				done := c.Spin(fmt.Sprintf("Creating server %s", opts.Name))
				server, err := client.Servers.Create(c, opts)
				done(err)
				if err != nil {
					return err
				}

				return c.Printer.Print(server, serverDetail(server))
			},
		},
		&Command{
			Path:    []string{"servers", "update"},
			Summary: "Rename or relabel a server",
			Args:    []ArgSpec{idArg},
			Options: []OptionSpec{
				{Name: "name", Kind: OptString, Hint: "name", Help: "New server name", Validate: check(types.NameValidator("name"))},
				labelOption,
			},
			Run: func(c *Context) error {
				id, err := c.ID("id")
				if err != nil {
					return err
				}

				if !c.Has("name") && !c.Has("label") {
					return types.MissingOption("--name or --label")
				}

				opts := api.ServerUpdateOpts{Name: c.String("name")}
				if c.Has("label") {
					opts.Labels = c.Labels("label")
				}

				client, err := c.API()
				if err != nil {
					return err
				}

				server, err := client.Servers.Update(c, id, opts)
				if err != nil {
					return err
				}

				return c.Printer.Print(server, serverDetail(server))
			},
		},
		&Command{
			Path:        []string{"servers", "delete"},
			Summary:     "Delete a server",
			Args:        []ArgSpec{idArg},
			Destructive: true,
			Run: func(c *Context) error {
				id, err := c.ID("id")
				if err != nil {
					return err
				}

				if err := c.Confirm(fmt.Sprintf("delete server %d", id)); err != nil {
					return err
				}

				client, err := c.API()
				if err != nil {
					return err
				}

				done := c.Spin(fmt.Sprintf("Deleting server %d", id))
				err = client.Servers.Delete(c, id)
				done(err)
				if err != nil {
					return err
				}

				d := deleted{Resource: "server", ID: id, Deleted: true}
				return c.Printer.Print(d, d.table())
			},
		},
		serverAction("poweron", "Power on a server", false, (*api.ServerClient).PowerOn),
		serverAction("poweroff", "Cut power to a server", true, (*api.ServerClient).PowerOff),
		serverAction("reboot", "Reboot a server", false, (*api.ServerClient).Reboot),
	)
}

func serverAction(name string, summary string, destructive bool, action func(*api.ServerClient, context.Context, int64) (api.Action, error)) *Command {
	return &Command{
		Path:        []string{"servers", name},
		Summary:     summary,
		Args:        []ArgSpec{idArg},
		Destructive: destructive,
		Run: func(c *Context) error {
			id, err := c.ID("id")
			if err != nil {
				return err
			}

			if destructive {
				if err := c.Confirm(fmt.Sprintf("%s server %d", name, id)); err != nil {
					return err
				}
			}

			client, err := c.API()
			if err != nil {
				return err
			}

			done := c.Spin(fmt.Sprintf("Sending %s to server %d", name, id))
			a, err := action(client.Servers, c, id)
			done(err)
			if err != nil {
				return err
			}

			return c.Printer.Print(a, actionDetail(a))
		},
	}
}
