package cmd

import (
	"bytes"
	"context"
	"strings"

	"github.com/seventv/cloudctl/argparse"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/mcpadapter"
)

var paramKinds = map[OptKind]mcpadapter.Kind{
	OptString: mcpadapter.KindString,
	OptBool:   mcpadapter.KindBool,
	OptInt:    mcpadapter.KindInt,
	OptList:   mcpadapter.KindList,
}

func toolParams(c *Command) []mcpadapter.Param {
	params := make([]mcpadapter.Param, 0, len(c.Args)+len(c.Options))

	for _, a := range c.Args {
		params = append(params, mcpadapter.Param{
			Name:       a.Name,
			Kind:       paramKinds[a.Kind],
			Required:   !a.Optional,
			Positional: true,
			Help:       a.Help,
		})
	}

	for _, o := range c.Options {
		params = append(params, mcpadapter.Param{
			Name:     o.Name,
			Kind:     paramKinds[o.Kind],
			Required: o.Required,
			Help:     o.Help,
			Enum:     o.Enum,
		})
	}

	return params
}

// toolRunner runs a command for an MCP client. Output is always JSON and
// confirmations are granted up front since the agent already decided to call
// the tool.
func (a *App) toolRunner(opts argparse.Options) func(ctx context.Context, inv argparse.Invocation) (string, error) {
	return func(ctx context.Context, inv argparse.Invocation) (string, error) {
		out := &bytes.Buffer{}

		child := a.child(Streams{In: strings.NewReader(""), Out: out, Err: a.Streams.Err}, opts)
		child.Interactive = false
		delete(child.globals, "o")
		child.globals["format"] = argparse.String("json")
		child.globals["yes"] = argparse.Flag()

		if err := child.Dispatch(ctx, inv); err != nil {
			return "", err
		}

		return out.String(), nil
	}
}

// mcpTools exposes every remote command as a tool.
func (a *App) mcpTools(opts argparse.Options) []mcpadapter.Tool {
	run := a.toolRunner(opts)

	tools := []mcpadapter.Tool{}
	for _, c := range commands {
		if c.Local {
			continue
		}

		tools = append(tools, mcpadapter.Tool{
			Name:        c.ToolName(),
			Description: c.Summary + ". Usage: " + c.Usage(),
			Command:     c.Path,
			Params:      toolParams(c),
			ReadOnly:    c.ReadOnly,
			Destructive: c.Destructive,
			Run:         run,
		})
	}

	return tools
}

func init() {
	register(
		&Command{
			Path:    []string{"mcp", "serve"},
			Summary: "Serve the commands as MCP tools",
			Options: []OptionSpec{
				{Name: "http", Kind: OptString, Hint: "addr", Help: "Listen on addr with the streamable HTTP transport instead of stdio"},
			},
			Local: true,
			Run: func(c *Context) error {
				adapter, err := mcpadapter.New(constants.AppName, constants.Version, c.App.mcpTools(c.Options))
				if err != nil {
					return err
				}

				if addr := c.String("http"); addr != "" {
					return adapter.ServeHTTP(c, addr)
				}

				return adapter.ServeStdio()
			},
		},
	)
}
