package mcpadapter

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/agilira/go-errors"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/seventv/cloudctl/argparse"
	"github.com/seventv/cloudctl/logger"
	"github.com/seventv/cloudctl/types"
	"github.com/xeipuuv/gojsonschema"
)

type Kind int

const (
	KindString Kind = iota
	KindBool
	KindInt
	KindList
)

type Param struct {
	Name       string
	Kind       Kind
	Required   bool
	Positional bool
	Help       string
	Enum       []string
}

// Tool describes one command exposed to MCP clients. Run receives the
// invocation built from the call arguments and returns the JSON output.
type Tool struct {
	Name        string
	Description string
	Command     []string
	Params      []Param
	ReadOnly    bool
	Destructive bool
	Run         func(ctx context.Context, inv argparse.Invocation) (string, error)
}

type registered struct {
	tool   Tool
	raw    json.RawMessage
	schema *gojsonschema.Schema
}

type Adapter struct {
	srv   *server.MCPServer
	tools map[string]*registered
}

func New(name string, version string, tools []Tool) (*Adapter, error) {
	a := &Adapter{
		srv:   server.NewMCPServer(name, version, server.WithToolCapabilities(false)),
		tools: map[string]*registered{},
	}

	for _, t := range tools {
		raw, err := Schema(t)
		if err != nil {
			return nil, errors.Wrap(err, types.ErrCodeInvalidValue, "failed to build schema").
				WithContext("tool", t.Name)
		}

		schema, err := gojsonschema.NewSchema(gojsonschema.NewBytesLoader(raw))
		if err != nil {
			return nil, errors.Wrap(err, types.ErrCodeInvalidValue, "failed to compile schema").
				WithContext("tool", t.Name)
		}

		r := &registered{tool: t, raw: raw, schema: schema}
		a.tools[t.Name] = r

		tool := mcp.NewToolWithRawSchema(t.Name, t.Description, raw)
		tool.Annotations = mcp.ToolAnnotation{
			Title:           strings.Join(t.Command, " "),
			ReadOnlyHint:    mcp.ToBoolPtr(t.ReadOnly),
			DestructiveHint: mcp.ToBoolPtr(t.Destructive),
			OpenWorldHint:   mcp.ToBoolPtr(true),
		}

		a.srv.AddTool(tool, a.handler(r))
	}

	return a, nil
}

func (a *Adapter) Server() *server.MCPServer {
	return a.srv
}

func (a *Adapter) Tools() []string {
	names := make([]string, 0, len(a.tools))
	for name := range a.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Schema returns the raw input schema registered for a tool.
func (a *Adapter) Schema(name string) (json.RawMessage, bool) {
	r, ok := a.tools[name]
	if !ok {
		return nil, false
	}

	return r.raw, true
}

func (a *Adapter) handler(r *registered) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		return a.call(ctx, r, req.GetArguments())
	}
}

// Call runs a tool by name the same way an MCP client request would.
func (a *Adapter) Call(ctx context.Context, name string, args map[string]any) (*mcp.CallToolResult, error) {
	r, ok := a.tools[name]
	if !ok {
		return nil, fmt.Errorf("unknown tool: %s", name)
	}

	return a.call(ctx, r, args)
}

func (a *Adapter) call(ctx context.Context, r *registered, args map[string]any) (*mcp.CallToolResult, error) {
	if args == nil {
		args = map[string]any{}
	}

	logger.Debugf("mcp call %s %v", r.tool.Name, args)

	result, err := r.schema.Validate(gojsonschema.NewGoLoader(args))
	if err != nil {
		return mcp.NewToolResultError("Validation error: " + err.Error()), nil
	}
	if !result.Valid() {
		msgs := make([]string, 0, len(result.Errors()))
		for _, e := range result.Errors() {
			msgs = append(msgs, "- "+e.String())
		}

		return mcp.NewToolResultError("Invalid arguments:\n" + strings.Join(msgs, "\n")), nil
	}

	inv, err := Invocation(r.tool, args)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	out, err := r.tool.Run(ctx, inv)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return mcp.NewToolResultText(strings.TrimSpace(out)), nil
}

func (a *Adapter) ServeStdio() error {
	return server.ServeStdio(a.srv)
}

// ServeHTTP serves the streamable HTTP transport on addr until ctx is done.
func (a *Adapter) ServeHTTP(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           server.NewStreamableHTTPServer(a.srv),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.ListenAndServe()
	}()

	logger.Infof("MCP server listening on %s", addr)

	select {
	case err := <-errCh:
		if err == http.ErrServerClosed {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	}
}
