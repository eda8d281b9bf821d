package argparse

import (
	"strings"
	"unicode/utf8"
)

const maxCommandDepth = 2

// Parse classifies every token of args into the command path, a positional
// argument, an option name or an option value. It never fails: shapes it does
// not recognise fall back to plain tokens or flags.
//
// args must not contain the program name.
func Parse(args []string) Invocation {
	inv := Invocation{
		Command:    []string{},
		Positional: []string{},
		Options:    Options{},
	}

	for i := 0; i < len(args); {
		arg := args[i]

		switch {
		case len(arg) > 2 && strings.HasPrefix(arg, "--"):
			name := arg[2:]
			if key, value, ok := strings.Cut(name, "="); ok {
				inv.Options[key] = String(value)
				i++
				continue
			}

			i += inv.lookahead(name, args, i)

		case len(arg) > 1 && arg[0] == '-' && arg[1] != '-':
			cluster := arg[1:]
			if utf8.RuneCountInString(cluster) == 1 {
				i += inv.lookahead(cluster, args, i)
				continue
			}

			// bundled shorthands are always bare flags
			for _, c := range cluster {
				inv.Options[string(c)] = Flag()
			}
			i++

		default:
			// includes "-" and "--"
			if len(inv.Command) < maxCommandDepth {
				inv.Command = append(inv.Command, arg)
			} else {
				inv.Positional = append(inv.Positional, arg)
			}
			i++
		}
	}

	return inv
}

// lookahead binds the token after args[i] to name when it does not look like
// another option and returns how many tokens were consumed.
func (inv *Invocation) lookahead(name string, args []string, i int) int {
	if i+1 < len(args) && !strings.HasPrefix(args[i+1], "-") {
		inv.Options[name] = String(args[i+1])
		return 2
	}

	inv.Options[name] = Flag()
	return 1
}
