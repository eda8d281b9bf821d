package cmd

import (
	"sort"
	"strings"

	"github.com/seventv/cloudctl/argparse"
	"github.com/seventv/cloudctl/config"
	"github.com/seventv/cloudctl/types"
)

type OptKind int

const (
	OptString OptKind = iota
	OptBool
	OptInt
	OptList
)

type OptionSpec struct {
	Name     string
	Short    string
	Kind     OptKind
	Required bool
	Help     string
	Hint     string
	Enum     []string
	Validate func(string) error
}

func (o OptionSpec) names() []string {
	if o.Short == "" {
		return []string{o.Name}
	}

	return []string{o.Name, o.Short}
}

type ArgSpec struct {
	Name     string
	Kind     OptKind
	Optional bool
	Variadic bool
	Help     string
	Validate func(string) error
}

type Command struct {
	Path        []string
	Summary     string
	Args        []ArgSpec
	Options     []OptionSpec
	ReadOnly    bool
	Destructive bool
	// Local commands are not exposed as MCP tools.
	Local bool
	// OwnsProfile commands read --profile themselves and may name a profile
	// that does not exist yet.
	OwnsProfile bool
	Run         func(c *Context) error
}

func (c *Command) Name() string {
	return strings.Join(c.Path, " ")
}

func (c *Command) ToolName() string {
	return strings.Join(c.Path, "_")
}

func (c *Command) option(key string) (OptionSpec, bool) {
	for _, o := range c.Options {
		if o.Name == key || (o.Short != "" && o.Short == key) {
			return o, true
		}
	}

	return OptionSpec{}, false
}

func (c *Command) optionNames(name string) []string {
	if o, ok := c.option(name); ok {
		return o.names()
	}
	if o, ok := globalOption(name); ok {
		return o.names()
	}

	return []string{name}
}

func check[T any](v types.Validator[T]) func(string) error {
	return func(s string) error {
		_, err := types.Check(v, s)
		return err
	}
}

var globalOptions = []OptionSpec{
	{Name: "debug", Kind: OptBool, Help: "Enable debug logging"},
	{Name: "no-color", Kind: OptBool, Help: "Disable coloured output"},
	{Name: "profile", Kind: OptString, Hint: "name", Help: "Config profile to use", Validate: check(types.NameValidator("profile"))},
	{Name: "endpoint", Kind: OptString, Hint: "url", Help: "API endpoint", Validate: check(types.UrlValidator("endpoint"))},
	{Name: "token", Kind: OptString, Hint: "token", Help: "API token"},
	{Name: "format", Short: "o", Kind: OptString, Hint: "table|json|yaml", Enum: config.Formats, Help: "Output format", Validate: check(types.OneOfValidator("format", config.Formats...))},
	{Name: "timeout", Kind: OptString, Hint: "duration", Help: "Request timeout, e.g. 30s", Validate: check(types.PositiveDurationValidator("timeout"))},
	{Name: "retries", Kind: OptInt, Hint: "n", Help: "Retries for failed requests", Validate: check(types.RangeValidator("retries", 0, 10))},
	{Name: "yes", Short: "y", Kind: OptBool, Help: "Skip confirmation prompts"},
	{Name: "help", Short: "h", Kind: OptBool, Help: "Show help"},
	{Name: "version", Kind: OptBool, Help: "Print the version"},
}

// inheritedGlobals are carried from a shell or MCP server into the commands it runs.
var inheritedGlobals = []string{"profile", "endpoint", "token", "timeout", "retries", "format", "o"}

func globalOption(key string) (OptionSpec, bool) {
	for _, o := range globalOptions {
		if o.Name == key || (o.Short != "" && o.Short == key) {
			return o, true
		}
	}

	return OptionSpec{}, false
}

var commands []*Command

func register(cmds ...*Command) {
	commands = append(commands, cmds...)
	sort.SliceStable(commands, func(i, j int) bool {
		return groupRank(commands[i].Path[0]) < groupRank(commands[j].Path[0]) ||
			(groupRank(commands[i].Path[0]) == groupRank(commands[j].Path[0]) && commands[i].Path[0] < commands[j].Path[0])
	})
}

var groupOrder = []string{"servers", "volumes", "config", "mcp", "shell", "version", "help"}

func groupRank(name string) int {
	for i, g := range groupOrder {
		if g == name {
			return i
		}
	}

	return len(groupOrder)
}

// Commands returns the registered command table in display order.
func Commands() []*Command {
	return commands
}

func findCommand(path []string) *Command {
	for _, c := range commands {
		if equalPath(c.Path, path) {
			return c
		}
	}

	return nil
}

func equalPath(a []string, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}

	return true
}

func suggestions(path []string) []string {
	var out []string
	if len(path) > 0 {
		for _, c := range commands {
			if c.Path[0] == path[0] {
				out = append(out, c.Name())
			}
		}
	}
	if len(out) > 0 {
		return out
	}

	seen := map[string]bool{}
	for _, c := range commands {
		if !seen[c.Path[0]] {
			seen[c.Path[0]] = true
			out = append(out, c.Path[0])
		}
	}

	return out
}

// lookup resolves the command path of inv. A two-token path that only names
// a single-token command hands its second token to the positionals.
func lookup(inv argparse.Invocation) (*Command, []string, error) {
	if c := findCommand(inv.Command); c != nil {
		return c, inv.Positional, nil
	}

	if len(inv.Command) == 2 {
		if c := findCommand(inv.Command[:1]); c != nil && len(c.Args) > 0 {
			return c, append([]string{inv.Command[1]}, inv.Positional...), nil
		}
	}

	return nil, nil, types.UnknownCommand(inv.Path(), suggestions(inv.Command)...)
}

// switches returns every boolean option name, long and short, across the
// global options and the command table.
func switches() map[string]bool {
	out := map[string]bool{}
	add := func(o OptionSpec) {
		if o.Kind != OptBool {
			return
		}
		out["--"+o.Name] = true
		if o.Short != "" {
			out["-"+o.Short] = true
		}
	}

	for _, o := range globalOptions {
		add(o)
	}
	for _, c := range commands {
		for _, o := range c.Options {
			add(o)
		}
	}

	return out
}

// hoistSwitches moves bare boolean switches to the end of the vector so the
// parser's value lookahead can never bind a command or positional to them.
// "--debug servers list" then parses the same as "servers list --debug".
func hoistSwitches(tokens []string) []string {
	known := switches()

	out := make([]string, 0, len(tokens))
	var hoisted []string
	for _, tok := range tokens {
		if known[tok] {
			hoisted = append(hoisted, tok)
			continue
		}
		out = append(out, tok)
	}

	return append(out, hoisted...)
}
