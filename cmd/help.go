package cmd

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/fatih/color"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/types"
)

func (o OptionSpec) usage() string {
	s := "--" + o.Name
	if o.Short != "" {
		s = "-" + o.Short + ", " + s
	}
	if o.Kind != OptBool {
		hint := o.Hint
		if hint == "" {
			hint = "value"
		}
		s += " <" + hint + ">"
	}

	return s
}

func (a ArgSpec) usage() string {
	s := "<" + a.Name + ">"
	if a.Variadic {
		s = "<" + a.Name + "...>"
	}
	if a.Optional {
		s = "[" + strings.Trim(s, "<>") + "]"
	}

	return s
}

func (c *Command) Usage() string {
	parts := []string{constants.AppName, c.Name()}
	for _, a := range c.Args {
		parts = append(parts, a.usage())
	}
	for _, o := range c.Options {
		if o.Required {
			parts = append(parts, o.usage())
		}
	}
	if len(c.Options) > 0 {
		parts = append(parts, "[options]")
	}

	return strings.Join(parts, " ")
}

func printOptions(tw io.Writer, title string, opts []OptionSpec) {
	if len(opts) == 0 {
		return
	}

	fmt.Fprintf(tw, "\n%s\n", color.New(color.Bold).Sprint(title))
	for _, o := range opts {
		help := o.Help
		if o.Required {
			help += " (required)"
		}
		fmt.Fprintf(tw, "  %s\t%s\n", o.usage(), help)
	}
}

func printUsage(out io.Writer) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "%s %s\n\n", color.CyanString(constants.AppName), color.New(color.Faint).Sprint(constants.Version))
	fmt.Fprintf(tw, "Usage: %s <command> [subcommand] [args] [options]\n", constants.AppName)
	fmt.Fprintf(tw, "\n%s\n", color.New(color.Bold).Sprint("Commands:"))

	for _, c := range commands {
		fmt.Fprintf(tw, "  %s\t%s\n", c.Name(), c.Summary)
	}

	printOptions(tw, "Global options:", globalOptions)
}

func printCommandUsage(out io.Writer, c *Command) {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	fmt.Fprintf(tw, "%s\n\nUsage: %s\n", c.Summary, c.Usage())

	if len(c.Args) > 0 {
		fmt.Fprintf(tw, "\n%s\n", color.New(color.Bold).Sprint("Arguments:"))
		for _, a := range c.Args {
			fmt.Fprintf(tw, "  %s\t%s\n", a.usage(), a.Help)
		}
	}

	printOptions(tw, "Options:", c.Options)
	printOptions(tw, "Global options:", globalOptions)
}

func printGroupUsage(out io.Writer, group string) bool {
	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	defer tw.Flush()

	found := false
	for _, c := range commands {
		if c.Path[0] != group {
			continue
		}
		if !found {
			fmt.Fprintf(tw, "Usage: %s %s <subcommand> [args] [options]\n\n%s\n", constants.AppName, group, color.New(color.Bold).Sprint("Subcommands:"))
			found = true
		}
		fmt.Fprintf(tw, "  %s\t%s\n", c.Name(), c.Summary)
	}

	return found
}

func init() {
	register(
		&Command{
			Path:    []string{"help"},
			Summary: "Show help for a command",
			Args: []ArgSpec{
				{Name: "command", Optional: true, Variadic: true, Help: "Command path, e.g. servers list"},
			},
			ReadOnly:    true,
			Local:       true,
			OwnsProfile: true,
			Run: func(c *Context) error {
				path := c.Args["command"]
				if len(path) == 0 {
					printUsage(c.App.Streams.Out)
					return nil
				}

				if cmd := findCommand(path); cmd != nil {
					printCommandUsage(c.App.Streams.Out, cmd)
					return nil
				}

				if len(path) == 1 && printGroupUsage(c.App.Streams.Out, path[0]) {
					return nil
				}

				return types.UnknownCommand(strings.Join(path, " "), suggestions(path)...)
			},
		},
		&Command{
			Path:        []string{"version"},
			Summary:     "Print the version",
			ReadOnly:    true,
			Local:       true,
			OwnsProfile: true,
			Run: func(c *Context) error {
				if c.Printer.Format != "table" {
					v := map[string]string{"name": constants.AppName, "version": constants.Version}
					return c.Printer.Print(v, nil)
				}

				_, err := fmt.Fprintf(c.App.Streams.Out, "%s %s\n", constants.AppName, constants.Version)
				return err
			},
		},
	)
}
