package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/agilira/go-errors"
	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/seventv/cloudctl/argparse"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/logger"
	"github.com/seventv/cloudctl/types"
	"github.com/seventv/cloudctl/utils"
)

// completer builds prefix completion over the command table.
func completer() *readline.PrefixCompleter {
	groups := map[string][]readline.PrefixCompleterInterface{}
	order := []string{}

	for _, c := range commands {
		name := c.Path[0]
		if _, ok := groups[name]; !ok {
			order = append(order, name)
			groups[name] = nil
		}
		if len(c.Path) > 1 {
			groups[name] = append(groups[name], readline.PcItem(c.Path[1]))
		}
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(order)+2)
	for _, name := range order {
		items = append(items, readline.PcItem(name, groups[name]...))
	}
	items = append(items, readline.PcItem("exit"), readline.PcItem("quit"))

	return readline.NewPrefixCompleter(items...)
}

type nopReadCloser struct {
	io.Reader
}

func (nopReadCloser) Close() error { return nil }

func shellConfig(a *App) *readline.Config {
	cfg := &readline.Config{
		Prompt:          color.CyanString(constants.AppName) + "> ",
		HistoryLimit:    1000,
		AutoComplete:    completer(),
		InterruptPrompt: "^C",
		EOFPrompt:       "exit",
		Stdout:          a.Streams.Err,
		Stderr:          a.Streams.Err,
	}

	if rc, ok := a.Streams.In.(io.ReadCloser); ok {
		cfg.Stdin = rc
	} else if a.Streams.In != nil {
		cfg.Stdin = nopReadCloser{a.Streams.In}
	}

	if !a.Interactive {
		cfg.FuncIsTerminal = func() bool { return false }
	}

	path := historyPath(a)
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		logger.Debugf("history disabled: %v", err)
	} else {
		cfg.HistoryFile = path
	}

	return cfg
}

// runLine executes one shell line. It returns false when the shell should exit.
func (a *App) runLine(ctx context.Context, opts argparse.Options, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" || strings.HasPrefix(line, "#") {
		return true
	}

	tokens, err := utils.SplitLine(line)
	if err != nil {
		logger.Error(types.InvalidValue("line", line, err))
		return true
	}

	if len(tokens) > 0 && tokens[0] == constants.AppName {
		tokens = tokens[1:]
	}
	if len(tokens) == 0 {
		return true
	}

	switch tokens[0] {
	case "exit", "quit":
		return false
	case "shell":
		logger.Warn("already in a shell")
		return true
	}

	child := a.child(a.Streams, opts)
	child.inShell = true

	code := child.Run(ctx, tokens)
	logger.Debugf("exit code %d", code)

	return true
}

func init() {
	register(
		&Command{
			Path:    []string{"shell"},
			Summary: "Start an interactive shell",
			Local:   true,
			Run: func(c *Context) error {
				if c.App.inShell {
					return errors.New(types.ErrCodeInvalidValue, "already in a shell")
				}

				rl, err := readline.NewEx(shellConfig(c.App))
				if err != nil {
					return err
				}
				defer rl.Close()

				fmt.Fprintf(c.App.Streams.Err, "%s %s, type 'help' for commands and 'exit' to leave\n", constants.AppName, constants.Version)

				for {
					if c.Err() != nil {
						return c.Err()
					}

					line, err := rl.Readline()
					if stderrors.Is(err, readline.ErrInterrupt) {
						continue
					}
					if stderrors.Is(err, io.EOF) {
						return nil
					}
					if err != nil {
						return err
					}

					if !c.App.runLine(c, c.Options, line) {
						return nil
					}
				}
			},
		},
	)
}
