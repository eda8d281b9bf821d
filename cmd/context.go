package cmd

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/seventv/cloudctl/api"
	"github.com/seventv/cloudctl/argparse"
	"github.com/seventv/cloudctl/config"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/types"
	"github.com/seventv/cloudctl/utils"
	"github.com/spf13/cast"
)

// Context is everything a command handler needs for one invocation.
type Context struct {
	context.Context

	App         *App
	Command     *Command
	Options     argparse.Options
	Args        map[string][]string
	ProfileName string
	Profile     config.Profile
	Client      types.Future[*api.Client]
	Printer     *Printer
	Interactive bool
}

func (c *Context) names(name string) []string {
	return c.Command.optionNames(name)
}

func (c *Context) String(name string) string {
	v, _ := argparse.GetOption(c.Options, c.names(name))
	return v
}

func (c *Context) Has(name string) bool {
	for _, n := range c.names(name) {
		if _, ok := c.Options[n]; ok {
			return true
		}
	}

	return false
}

func (c *Context) Flag(name string) bool {
	return flagSet(c.Options, c.names(name))
}

func (c *Context) Int(name string, def int) (int, error) {
	return argparse.GetInt(c.Options, c.names(name), def)
}

func (c *Context) List(name string) []string {
	return argparse.GetList(c.Options, c.names(name))
}

func (c *Context) Labels(name string) map[string]string {
	return utils.ParseLabels(c.List(name)...)
}

// Arg returns the first value of a positional argument.
func (c *Context) Arg(name string) string {
	if v := c.Args[name]; len(v) > 0 {
		return v[0]
	}

	return ""
}

func (c *Context) ID(name string) (int64, error) {
	raw := c.Arg(name)

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id < 1 {
		return 0, types.InvalidValue("<"+name+">", raw, types.ErrInvalidID)
	}

	return id, nil
}

func (c *Context) API() (*api.Client, error) {
	return c.Client.Get()
}

func (c *Context) Terminal() utils.Terminal {
	return utils.Terminal{In: c.App.Streams.In, Out: c.App.Streams.Err}
}

// Confirm asks before a destructive action unless --yes was given.
func (c *Context) Confirm(action string) error {
	if c.Flag("yes") {
		return nil
	}

	if !c.Interactive {
		return types.ConfirmationRequired(action)
	}

	ok, err := utils.Confirm(c.Terminal(), strings.ToUpper(action[:1])+action[1:])
	if err != nil {
		return err
	}
	if !ok {
		return types.Aborted()
	}

	return nil
}

// Spin shows a spinner while a table is being fetched for a terminal. The
// returned func takes the outcome of the call.
func (c *Context) Spin(text string) func(err error) {
	if c.Printer.Format != "table" || !constants.InTerm() {
		return func(error) {}
	}

	s := utils.StartSpinner(text)
	return func(err error) {
		s.Stop(err)
	}
}

func flagSet(opts argparse.Options, names []string) bool {
	if argparse.HasFlag(opts, names) {
		return true
	}

	if v, ok := argparse.GetOption(opts, names); ok {
		b, err := cast.ToBoolE(v)
		return err == nil && b
	}

	return false
}

func checkValue(spec OptionSpec, v argparse.Value) error {
	name := "--" + spec.Name

	var items []string
	switch spec.Kind {
	case OptBool:
		if v.IsFlag() {
			return nil
		}
		if v.Kind == argparse.KindString {
			if _, err := cast.ToBoolE(v.Str); err != nil {
				return types.InvalidValue(name, v.Str, fmt.Errorf("must be true or false"))
			}
			return nil
		}
		return types.InvalidValue(name, v.String(), fmt.Errorf("must be true or false"))
	case OptList:
		switch v.Kind {
		case argparse.KindList:
			items = v.List
		case argparse.KindString:
			items = []string{v.Str}
		}
	default:
		if v.Kind == argparse.KindString {
			items = []string{v.Str}
		}
	}

	if v.IsFlag() {
		return types.InvalidValue(name, "", fmt.Errorf("requires a value"))
	}
	if items == nil {
		return types.InvalidValue(name, v.String(), fmt.Errorf("takes a single value"))
	}

	for _, item := range items {
		if spec.Kind == OptInt {
			if _, err := cast.ToIntE(item); err != nil {
				return types.InvalidValue(name, item, fmt.Errorf("must be an integer"))
			}
		}
		if spec.Validate != nil {
			if err := spec.Validate(item); err != nil {
				return types.InvalidValue(name, item, err)
			}
		}
	}

	return nil
}

// checkInvocation validates options and positionals against the command's
// specs and returns the positionals by argument name.
func checkInvocation(cmd *Command, opts argparse.Options, positional []string) (map[string][]string, error) {
	keys := make([]string, 0, len(opts))
	for key := range opts {
		keys = append(keys, key)
	}
	sort.Strings(keys)

	for _, key := range keys {
		v := opts[key]
		spec, ok := cmd.option(key)
		if !ok {
			spec, ok = globalOption(key)
		}
		if !ok {
			if len(key) == 1 {
				return nil, types.UnknownOption("-" + key)
			}
			return nil, types.UnknownOption("--" + key)
		}

		if err := checkValue(spec, v); err != nil {
			return nil, err
		}
	}

	for _, spec := range cmd.Options {
		if !spec.Required {
			continue
		}

		present := false
		for _, n := range spec.names() {
			if _, ok := opts[n]; ok {
				present = true
			}
		}
		if !present {
			return nil, types.MissingOption("--" + spec.Name)
		}
	}

	args := map[string][]string{}
	rest := positional
	for _, spec := range cmd.Args {
		if len(rest) == 0 {
			if !spec.Optional {
				return nil, types.MissingOption("<" + spec.Name + ">")
			}
			continue
		}

		take := rest[:1]
		if spec.Variadic {
			take = rest
		}
		rest = rest[len(take):]

		for _, v := range take {
			if spec.Kind == OptInt {
				if err := types.IDValidator(spec.Name).Validate(v); err != nil {
					return nil, types.InvalidValue("<"+spec.Name+">", v, types.ErrInvalidID)
				}
			}
			if spec.Validate != nil {
				if err := spec.Validate(v); err != nil {
					return nil, types.InvalidValue("<"+spec.Name+">", v, err)
				}
			}
		}

		args[spec.Name] = append([]string{}, take...)
	}

	if len(rest) > 0 {
		return nil, types.UnexpectedArgs(rest)
	}

	return args, nil
}
