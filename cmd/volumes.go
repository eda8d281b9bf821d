package cmd

import (
	"fmt"

	"github.com/seventv/cloudctl/api"
	"github.com/seventv/cloudctl/types"
)

var volumeFilesystems = []string{"ext4", "xfs"}

func init() {
	register(
		&Command{
			Path:     []string{"volumes", "list"},
			Summary:  "List volumes",
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
					volumes []api.Volume
					meta    api.Meta
				)

				done := c.Spin("Fetching volumes")
				if c.Flag("all") {
					volumes, err = client.Volumes.All(c, opts)
				} else {
					volumes, meta, err = client.Volumes.List(c, opts)
				}
				done(err)
				if err != nil {
					return err
				}

				if volumes == nil {
					volumes = []api.Volume{}
				}

				if err := c.Printer.Print(volumes, volumeTable(volumes)); err != nil {
					return err
				}

				pageHint(c, meta)

				return nil
			},
		},
		&Command{
			Path:     []string{"volumes", "get"},
			Summary:  "Show a volume",
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

				done := c.Spin("Fetching volume")
				volume, err := client.Volumes.Get(c, id)
				done(err)
				if err != nil {
					return err
				}

				return c.Printer.Print(volume, volumeDetail(volume))
			},
		},
		&Command{
			Path:    []string{"volumes", "create"},
			Summary: "Create a volume",
			Options: []OptionSpec{
				{Name: "name", Kind: OptString, Required: true, Hint: "name", Help: "Volume name", Validate: check(types.NameValidator("name"))},
				{Name: "size", Kind: OptInt, Required: true, Hint: "GB", Help: "Size in GB", Validate: check(types.RangeValidator("size", 10, 10240))},
				{Name: "location", Kind: OptString, Hint: "location", Help: "Location to create the volume in"},
				{Name: "server", Kind: OptInt, Hint: "id", Help: "Server to attach the volume to", Validate: check(types.IDValidator("server"))},
				{Name: "filesystem", Kind: OptString, Hint: "ext4|xfs", Enum: volumeFilesystems, Help: "Format the volume", Validate: check(types.OneOfValidator("filesystem", volumeFilesystems...))},
				labelOption,
			},
			Run: func(c *Context) error {
				size, err := c.Int("size", 0)
				if err != nil {
					return err
				}

				opts := api.VolumeCreateOpts{
					Name:     c.String("name"),
					Size:     size,
					Location: c.String("location"),
					Format:   c.String("filesystem"),
				}

				if c.Has("label") {
					opts.Labels = c.Labels("label")
				}

				if c.Has("server") {
					server, err := c.Int("server", 0)
					if err != nil {
						return err
					}
					id := int64(server)
					opts.Server = &id
				}

				if opts.Server == nil && opts.Location == "" {
					return types.MissingOption("--location or --server")
				}

				client, err := c.API()
				if err != nil {
					return err
				}

				done := c.Spin(fmt.Sprintf("Creating volume %s", opts.Name))
				volume, err := client.Volumes.Create(c, opts)
				done(err)
				if err != nil {
					return err
				}

				return c.Printer.Print(volume, volumeDetail(volume))
			},
		},
		&Command{
			Path:    []string{"volumes", "update"},
			Summary: "Rename or relabel a volume",
			Args:    []ArgSpec{idArg},
			Options: []OptionSpec{
				{Name: "name", Kind: OptString, Hint: "name", Help: "New volume name", Validate: check(types.NameValidator("name"))},
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

				opts := api.VolumeUpdateOpts{Name: c.String("name")}
				if c.Has("label") {
					opts.Labels = c.Labels("label")
				}

				client, err := c.API()
				if err != nil {
					return err
				}

				volume, err := client.Volumes.Update(c, id, opts)
				if err != nil {
					return err
				}

				return c.Printer.Print(volume, volumeDetail(volume))
			},
		},
		&Command{
			Path:        []string{"volumes", "delete"},
			Summary:     "Delete a volume",
			Args:        []ArgSpec{idArg},
			Destructive: true,
			Run: func(c *Context) error {
				id, err := c.ID("id")
				if err != nil {
					return err
				}

				if err := c.Confirm(fmt.Sprintf("delete volume %d", id)); err != nil {
					return err
				}

				client, err := c.API()
				if err != nil {
					return err
				}

				done := c.Spin(fmt.Sprintf("Deleting volume %d", id))
				err = client.Volumes.Delete(c, id)
				done(err)
				if err != nil {
					return err
				}

				d := deleted{Resource: "volume", ID: id, Deleted: true}
				return c.Printer.Print(d, d.table())
			},
		},
		&Command{
			Path:    []string{"volumes", "attach"},
			Summary: "Attach a volume to a server",
			Args:    []ArgSpec{idArg},
			Options: []OptionSpec{
				{Name: "server", Kind: OptInt, Required: true, Hint: "id", Help: "Server to attach to", Validate: check(types.IDValidator("server"))},
			},
			Run: func(c *Context) error {
				id, err := c.ID("id")
				if err != nil {
					return err
				}

				server, err := c.Int("server", 0)
				if err != nil {
					return err
				}

				client, err := c.API()
				if err != nil {
					return err
				}

				done := c.Spin(fmt.Sprintf("Attaching volume %d to server %d", id, server))
				action, err := client.Volumes.Attach(c, id, int64(server))
				done(err)
				if err != nil {
					return err
				}

				return c.Printer.Print(action, actionDetail(action))
			},
		},
		&Command{
			Path:    []string{"volumes", "detach"},
			Summary: "Detach a volume from its server",
			Args:    []ArgSpec{idArg},
			Run: func(c *Context) error {
				id, err := c.ID("id")
				if err != nil {
					return err
				}

				client, err := c.API()
				if err != nil {
					return err
				}

				done := c.Spin(fmt.Sprintf("Detaching volume %d", id))
				action, err := client.Volumes.Detach(c, id)
				done(err)
				if err != nil {
					return err
				}

				return c.Printer.Print(action, actionDetail(action))
			},
		},
	)
}
