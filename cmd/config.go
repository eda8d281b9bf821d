package cmd

import (
	"fmt"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/seventv/cloudctl/config"
	"github.com/seventv/cloudctl/logger"
	"github.com/seventv/cloudctl/types"
	"github.com/seventv/cloudctl/utils"
)

type profileView struct {
	Name     string `json:"name" yaml:"name"`
	Path     string `json:"path" yaml:"path"`
	Endpoint string `json:"endpoint" yaml:"endpoint"`
	Token    string `json:"token,omitempty" yaml:"token,omitempty"`
	Format   string `json:"format" yaml:"format"`
	Timeout  string `json:"timeout" yaml:"timeout"`
	Retries  int    `json:"retries" yaml:"retries"`
	PerPage  int    `json:"per_page" yaml:"per_page"`
}

func newProfileView(name string, path string, p config.Profile) profileView {
	p = p.Redacted()

	return profileView{
		Name:     name,
		Path:     path,
		Endpoint: p.Endpoint,
		Token:    p.Token,
		Format:   p.Format,
		Timeout:  p.Timeout.String(),
		Retries:  p.RetryCount(),
		PerPage:  p.PerPage,
	}
}

func (v profileView) table() kvTable {
	return kvTable{
		{"Profile", v.Name},
		{"Config", v.Path},
		{"Endpoint", v.Endpoint},
		{"Token", orDash(v.Token)},
		{"Format", v.Format},
		{"Timeout", v.Timeout},
		{"Retries", fmt.Sprint(v.Retries)},
		{"Per page", fmt.Sprint(v.PerPage)},
	}
}

func init() {
	register(
		&Command{
			Path:        []string{"config", "show"},
			Summary:     "Show the resolved profile",
			ReadOnly:    true,
			OwnsProfile: true,
			Run: func(c *Context) error {
				file, err := c.App.Config()
				if err != nil {
					return err
				}

				if _, ok := file.Profiles[c.ProfileName]; !ok && c.Has("profile") {
					logger.Warnf("profile %s is not in %s, showing defaults", c.ProfileName, file.Path())
				}

				v := newProfileView(c.ProfileName, file.Path(), c.Profile)
				return c.Printer.Print(v, v.table())
			},
		},
		&Command{
			Path:    []string{"config", "set"},
			Summary: "Set a profile key",
			Args: []ArgSpec{
				{Name: "key", Help: "One of: " + strings.Join(config.Keys, ", "), Validate: check(types.OneOfValidator("key", config.Keys...))},
				{Name: "value", Optional: true, Help: "New value, prompted for when omitted"},
			},
			Local:       true,
			OwnsProfile: true,
			Run: func(c *Context) error {
				file, err := c.App.Config()
				if err != nil {
					return err
				}

				key := strings.ToLower(c.Arg("key"))

				value, ok := c.Args["value"]
				if !ok {
					if !c.Interactive {
						return types.MissingOption("<value>")
					}

					p := utils.PromptMessage[string]{Label: key}
					if key == "token" {
						p.Mask = '*'
						p.HideEntered = true
					}

					v, err := utils.Prompt(c.Terminal(), p)
					if err != nil {
						return err
					}
					value = []string{v}
				}

				if err := file.Set(c.ProfileName, key, value[0]); err != nil {
					return err
				}
				if file.ActiveProfile == "" {
					file.ActiveProfile = c.ProfileName
				}

				if err := file.Save(); err != nil {
					return err
				}

				logger.Infof("set %s on profile %s", key, c.ProfileName)

				return nil
			},
		},
		&Command{
			Path:    []string{"config", "use"},
			Summary: "Switch the active profile",
			Args: []ArgSpec{
				{Name: "name", Optional: true, Help: "Profile to activate", Validate: check(types.NameValidator("name"))},
			},
			Local:       true,
			OwnsProfile: true,
			Run: func(c *Context) error {
				file, err := c.App.Config()
				if err != nil {
					return err
				}

				name := c.Arg("name")
				if name == "" {
					if !c.Interactive {
						return types.MissingOption("<name>")
					}

					names := file.ProfileNames()
					if len(names) == 0 {
						return errors.New(types.ErrCodeConfig, "no profiles configured").
							WithContext("path", file.Path())
					}

					options := make([]types.Selectable, 0, len(names))
					for _, n := range names {
						options = append(options, types.ProfileSelectable{
							Name:     n,
							Endpoint: file.Profiles[n].Endpoint,
							Active:   n == file.ActiveProfile,
						})
					}

					idx, err := utils.Selector(c.Terminal(), "Profile", "Select a profile", len(options) > 5, options)
					if err != nil {
						return err
					}
					name = names[idx]
				}

				if err := file.Use(name); err != nil {
					return err
				}

				if err := file.Save(); err != nil {
					return err
				}

				logger.Infof("switched to profile %s", name)

				return nil
			},
		},
		&Command{
			Path:        []string{"config", "path"},
			Summary:     "Print the config file location",
			ReadOnly:    true,
			Local:       true,
			OwnsProfile: true,
			Run: func(c *Context) error {
				file, err := c.App.Config()
				if err != nil {
					return err
				}

				_, err = fmt.Fprintln(c.App.Streams.Out, file.Path())
				return err
			},
		},
	)
}
