package cmd

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/seventv/cloudctl/argparse"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/mcpadapter"
	"github.com/seventv/cloudctl/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommands_Registered(t *testing.T) {
	names := []string{}
	for _, c := range Commands() {
		names = append(names, c.Name())
	}

	for _, expected := range []string{
		"servers list", "servers get", "servers create", "servers update", "servers delete",
		"servers poweron", "servers poweroff", "servers reboot",
		"volumes list", "volumes get", "volumes create", "volumes update", "volumes delete",
		"volumes attach", "volumes detach",
		"config show", "config set", "config use", "config path",
		"mcp serve", "shell", "version", "help",
	} {
		assert.Contains(t, names, expected)
	}

	assert.Equal(t, "servers", names[0][:7])
	assert.Equal(t, "help", names[len(names)-1])
}

func TestHoistSwitches(t *testing.T) {
	testCases := []struct {
		name     string
		tokens   []string
		expected []string
	}{
		{
			name:     "leading debug",
			tokens:   []string{"--debug", "servers", "list"},
			expected: []string{"servers", "list", "--debug"},
		},
		{
			name:     "short yes before positional",
			tokens:   []string{"servers", "delete", "-y", "12"},
			expected: []string{"servers", "delete", "12", "-y"},
		},
		{
			name:     "value options stay",
			tokens:   []string{"--format", "json", "servers", "list"},
			expected: []string{"--format", "json", "servers", "list"},
		},
		{
			name:     "explicit value is not hoisted",
			tokens:   []string{"--all=true", "servers", "list"},
			expected: []string{"--all=true", "servers", "list"},
		},
		{
			name:     "empty",
			tokens:   []string{},
			expected: []string{},
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.expected, hoistSwitches(tc.tokens))
		})
	}
}

func TestLookup(t *testing.T) {
	testCases := []struct {
		name       string
		args       []string
		command    string
		positional []string
		err        string
	}{
		{
			name:       "two token command",
			args:       []string{"servers", "get", "12"},
			command:    "servers get",
			positional: []string{"12"},
		},
		{
			name:       "single token command with argument",
			args:       []string{"help", "servers", "list"},
			command:    "help",
			positional: []string{"servers", "list"},
		},
		{
			name:       "single token command",
			args:       []string{"version"},
			command:    "version",
			positional: []string{},
		},
		{
			name: "group only",
			args: []string{"servers"},
			err:  types.ErrCodeUnknownCommand,
		},
		{
			name: "command without arguments takes no second token",
			args: []string{"version", "now"},
			err:  types.ErrCodeUnknownCommand,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			cmd, positional, err := lookup(argparse.Parse(tc.args))
			if tc.err != "" {
				require.Error(t, err)
				assert.Equal(t, tc.err, types.ErrorCode(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.command, cmd.Name())
			assert.Equal(t, tc.positional, positional)
		})
	}
}

func TestSuggestions(t *testing.T) {
	assert.Contains(t, suggestions([]string{"volumes", "resize"}), "volumes attach")
	assert.NotContains(t, suggestions([]string{"volumes", "resize"}), "servers list")

	groups := suggestions([]string{"network"})
	assert.Contains(t, groups, "servers")
	assert.Contains(t, groups, "config")
}

func TestCheckInvocation(t *testing.T) {
	cmd := findCommand([]string{"volumes", "attach"})
	require.NotNil(t, cmd)

	testCases := []struct {
		name       string
		args       []string
		expected   map[string][]string
		err        string
	}{
		{
			name:     "valid",
			args:     []string{"volumes", "attach", "5", "--server", "1", "-o", "json"},
			expected: map[string][]string{"id": {"5"}},
		},
		{
			name: "missing positional",
			args: []string{"volumes", "attach", "--server", "1"},
			err:  types.ErrCodeMissingOption,
		},
		{
			name: "missing required option",
			args: []string{"volumes", "attach", "5"},
			err:  types.ErrCodeMissingOption,
		},
		{
			name: "bad id",
			args: []string{"volumes", "attach", "0x10", "--server", "1"},
			err:  types.ErrCodeInvalidValue,
		},
		{
			name: "bad option value",
			args: []string{"volumes", "attach", "5", "--server", "abc"},
			err:  types.ErrCodeInvalidValue,
		},
		{
			name: "unknown option",
			args: []string{"volumes", "attach", "5", "--server", "1", "--force"},
			err:  types.ErrCodeInvalidValue,
		},
		{
			name: "too many positionals",
			args: []string{"volumes", "attach", "5", "6", "--server", "1"},
			err:  types.ErrCodeUnexpectedArgs,
		},
		{
			name:     "bool global with explicit value",
			args:     []string{"volumes", "attach", "5", "--server", "1", "--yes=true"},
			expected: map[string][]string{"id": {"5"}},
		},
		{
			name: "bool global with junk value",
			args: []string{"volumes", "attach", "5", "--server", "1", "--yes=maybe"},
			err:  types.ErrCodeInvalidValue,
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			inv := argparse.Parse(tc.args)

			args, err := checkInvocation(cmd, inv.Options, inv.Positional)
			if tc.err != "" {
				require.Error(t, err)
				assert.Equal(t, tc.err, types.ErrorCode(err))
				assert.True(t, types.IsUsageError(err))
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, args)
		})
	}
}

func TestCheckValue_List(t *testing.T) {
	spec := labelOption

	assert.NoError(t, checkValue(spec, argparse.String("env=prod,team=core")))
	assert.NoError(t, checkValue(spec, argparse.List("env=prod", "team=core")))
	assert.Error(t, checkValue(spec, argparse.List("env=prod", "team")))
	assert.Error(t, checkValue(spec, argparse.Flag()))
}

func TestFlagSet(t *testing.T) {
	opts := argparse.Options{
		"all":   argparse.Flag(),
		"yes":   argparse.String("true"),
		"debug": argparse.String("0"),
		"label": argparse.List("a=b"),
	}

	assert.True(t, flagSet(opts, []string{"all"}))
	assert.True(t, flagSet(opts, []string{"yes", "y"}))
	assert.False(t, flagSet(opts, []string{"debug"}))
	assert.False(t, flagSet(opts, []string{"label"}))
	assert.False(t, flagSet(opts, []string{"missing"}))
}

func TestUsage(t *testing.T) {
	assert.Equal(t, "cloudctl volumes attach <id> --server <id> [options]", findCommand([]string{"volumes", "attach"}).Usage())
	assert.Equal(t, "cloudctl help [command...]", findCommand([]string{"help"}).Usage())
	assert.Equal(t, "cloudctl config set <key> [value]", findCommand([]string{"config", "set"}).Usage())
}

func TestToolParams(t *testing.T) {
	params := toolParams(findCommand([]string{"volumes", "attach"}))

	assert.Equal(t, []mcpadapter.Param{
		{Name: "id", Kind: mcpadapter.KindInt, Required: true, Positional: true, Help: "Resource ID"},
		{Name: "server", Kind: mcpadapter.KindInt, Required: true, Help: "Server to attach to"},
	}, params)
}

func toolText(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()

	require.NotNil(t, res)
	require.Len(t, res.Content, 1)

	text, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)

	return text.Text
}

func TestMCPTools(t *testing.T) {
	api := newFakeAPI(t)
	ta := newTestApp(t)

	adapter, err := mcpadapter.New(constants.AppName, constants.Version, ta.mcpTools(argparse.Options{
		"endpoint": argparse.String(api.URL),
		"token":    argparse.String("agent-token"),
		"debug":    argparse.Flag(),
	}))
	require.NoError(t, err)

	tools := adapter.Tools()
	assert.Contains(t, tools, "servers_list")
	assert.Contains(t, tools, "volumes_attach")
	assert.Contains(t, tools, "config_show")
	for _, local := range []string{"shell", "mcp_serve", "config_set", "config_use", "config_path", "help", "version"} {
		assert.NotContains(t, tools, local)
	}

	res, err := adapter.Call(context.Background(), "servers_list", map[string]any{"per-page": 1, "all": true})
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))

	var servers []map[string]any
	require.NoError(t, json.Unmarshal([]byte(toolText(t, res)), &servers))
	assert.Len(t, servers, 2)
	assert.Equal(t, "Bearer agent-token", api.Last().Auth)

	res, err = adapter.Call(context.Background(), "servers_delete", map[string]any{"id": 2})
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))
	assert.Equal(t, "DELETE", api.Last().Method)
	assert.JSONEq(t, `{"resource": "server", "id": 2, "deleted": true}`, toolText(t, res))

	res, err = adapter.Call(context.Background(), "servers_get", map[string]any{"id": 7})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(t, res), "server not found")

	res, err = adapter.Call(context.Background(), "volumes_attach", map[string]any{"id": 5})
	require.NoError(t, err)
	assert.True(t, res.IsError)
	assert.Contains(t, toolText(t, res), "server")

	res, err = adapter.Call(context.Background(), "volumes_attach", map[string]any{"id": 5, "server": 1})
	require.NoError(t, err)
	require.False(t, res.IsError, toolText(t, res))
	assert.Equal(t, "/volumes/5/actions/attach", api.Last().Path)

	assert.Empty(t, ta.out.String())
}

func TestShell_RunLine(t *testing.T) {
	api := newFakeAPI(t)
	ta := newTestApp(t)
	opts := argparse.Options{"endpoint": argparse.String(api.URL)}

	testCases := []struct {
		name     string
		line     string
		cont     bool
		out      string
		errOut   string
		apiCalls int
	}{
		{
			name:     "command",
			line:     "servers get 1",
			cont:     true,
			out:      "web-1",
			apiCalls: 1,
		},
		{
			name:     "program name prefix",
			line:     "cloudctl servers list -o json",
			cont:     true,
			out:      `"web-2"`,
			apiCalls: 1,
		},
		{
			name:   "quoted arguments",
			line:   `servers update 1 --name "web 1"`,
			cont:   true,
			errOut: "invalid value for --name",
		},
		{
			name:   "unterminated quote",
			line:   `servers get "1`,
			cont:   true,
			errOut: "invalid value for line",
		},
		{
			name:   "usage error keeps the shell open",
			line:   "servers frobnicate",
			cont:   true,
			errOut: "unknown command",
		},
		{
			name:   "nested shell",
			line:   "shell",
			cont:   true,
			errOut: "already in a shell",
		},
		{
			name: "blank",
			line: "   ",
			cont: true,
		},
		{
			name: "comment",
			line: "# servers delete 1",
			cont: true,
		},
		{
			name: "exit",
			line: "exit",
		},
		{
			name: "quit",
			line: " quit ",
		},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			ta.out.Reset()
			ta.errOut.Reset()
			before := len(api.Calls())

			assert.Equal(t, tc.cont, ta.runLine(context.Background(), opts, tc.line))
			assert.Equal(t, tc.apiCalls, len(api.Calls())-before)

			if tc.out != "" {
				assert.Contains(t, ta.out.String(), tc.out)
			}
			if tc.errOut != "" {
				assert.Contains(t, ta.errOut.String(), tc.errOut)
			}
		})
	}
}

func TestShell_Completer(t *testing.T) {
	top := map[string][]string{}
	for _, child := range completer().GetChildren() {
		name := strings.TrimSpace(string(child.GetName()))
		for _, sub := range child.GetChildren() {
			top[name] = append(top[name], strings.TrimSpace(string(sub.GetName())))
		}
		if _, ok := top[name]; !ok {
			top[name] = nil
		}
	}

	assert.Contains(t, top["servers"], "poweroff")
	assert.Contains(t, top["volumes"], "detach")
	assert.Contains(t, top["config"], "use")
	assert.Contains(t, top, "shell")
	assert.Contains(t, top, "exit")
}
