package cmd

import (
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/seventv/cloudctl/api"
	"github.com/seventv/cloudctl/argparse"
	"github.com/seventv/cloudctl/config"
	"github.com/seventv/cloudctl/constants"
	"github.com/seventv/cloudctl/logger"
	"github.com/seventv/cloudctl/types"
	"github.com/spf13/cast"
)

type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

func StdStreams() Streams {
	return Streams{In: os.Stdin, Out: color.Output, Err: color.Error}
}

// App holds the state shared by every command run in one process.
type App struct {
	Streams Streams
	Getenv  func(string) string
	// ConfigPath overrides the config file location.
	ConfigPath  string
	Interactive bool
	HTTPClient  *http.Client

	config  types.Future[*config.File]
	inShell bool
	// globals are options inherited from a parent shell or MCP server.
	globals argparse.Options
}

func NewApp(streams Streams) *App {
	a := &App{
		Streams:     streams,
		Getenv:      os.Getenv,
		Interactive: constants.Interactive() && !constants.StdinUsed(),
	}
	a.config = types.FutureFromFuncErr(func() (*config.File, error) {
		return config.Load(a.configPath())
	})

	return a
}

// child returns an app sharing the config and streams of a, carrying opts as
// inherited global options.
func (a *App) child(streams Streams, opts argparse.Options) *App {
	c := *a
	c.Streams = streams
	c.globals = argparse.Options{}
	for k, v := range a.globals {
		c.globals[k] = v
	}
	for _, name := range inheritedGlobals {
		if v, ok := opts[name]; ok {
			c.globals[name] = v
		}
	}

	return &c
}

func (a *App) configPath() string {
	if a.ConfigPath != "" {
		return a.ConfigPath
	}
	if a.Getenv != nil {
		if p := a.Getenv(constants.EnvConfig); p != "" {
			return p
		}
	}

	return config.DefaultPath()
}

func (a *App) Config() (*config.File, error) {
	return a.config.Get()
}

// Execute runs one command line and returns the process exit code.
func Execute(ctx context.Context, tokens []string, streams Streams) int {
	return NewApp(streams).Run(ctx, tokens)
}

func (a *App) Run(ctx context.Context, tokens []string) int {
	if a.Streams.Err != color.Error && a.Streams.Err != os.Stderr {
		logger.SetOutput(a.Streams.Err)
	}

	inv := argparse.Parse(hoistSwitches(tokens))
	logger.Debugf("invocation: %s %v %v", inv.Path(), inv.Positional, inv.Options)

	return a.report(ctx, a.Dispatch(ctx, inv))
}

func (a *App) Dispatch(ctx context.Context, inv argparse.Invocation) error {
	opts := argparse.Options{}
	for k, v := range a.globals {
		opts[k] = v
	}
	for k, v := range inv.Options {
		opts[k] = v
	}
	inv.Options = opts

	if flagSet(opts, []string{"debug"}) {
		logger.SetDebug(true)
	}
	if flagSet(opts, []string{"no-color"}) || (a.Getenv != nil && a.Getenv(constants.EnvNoColor) != "") {
		logger.SetNoColor(true)
	}

	if len(inv.Command) == 0 {
		if flagSet(opts, []string{"version"}) {
			fmt.Fprintf(a.Streams.Out, "%s %s\n", constants.AppName, constants.Version)
			return nil
		}

		printUsage(a.Streams.Out)
		return nil
	}

	help := flagSet(opts, []string{"help", "h"})

	cmd, positional, err := lookup(inv)
	if err != nil {
		if help && len(inv.Command) == 1 && printGroupUsage(a.Streams.Out, inv.Command[0]) {
			return nil
		}
		return err
	}

	if help {
		printCommandUsage(a.Streams.Out, cmd)
		return nil
	}

	args, err := checkInvocation(cmd, opts, positional)
	if err != nil {
		return err
	}

	return a.invoke(ctx, cmd, opts, args)
}

func (a *App) invoke(ctx context.Context, cmd *Command, opts argparse.Options, args map[string][]string) error {
	file, err := a.Config()
	if err != nil {
		return err
	}

	flags, err := profileFlags(opts)
	if err != nil {
		return err
	}

	requested, _ := argparse.GetOption(opts, []string{"profile"})
	name, profile, err := file.Resolve(config.Sources{
		Profile: requested,
		Getenv:  a.Getenv,
		Flags:   flags,
	})
	if err != nil && !(cmd.OwnsProfile && types.HasCode(err, types.ErrCodeConfig)) {
		return err
	}

	profile.Format = strings.ToLower(profile.Format)
	if err := types.OneOfValidator("format", config.Formats...).Validate(profile.Format); err != nil {
		return types.InvalidValue("format", profile.Format, err)
	}

	c := &Context{
		Context:     ctx,
		App:         a,
		Command:     cmd,
		Options:     opts,
		Args:        args,
		ProfileName: name,
		Profile:     profile,
		Printer:     &Printer{Format: profile.Format, Out: a.Streams.Out},
		Interactive: a.Interactive,
	}
	c.Client = types.FutureFromFunc(func() *api.Client {
		client := api.NewClient(api.Config{
			Endpoint:   profile.Endpoint,
			Token:      profile.Token,
			Timeout:    profile.Timeout,
			MaxRetries: profile.RetryCount(),
			HTTPClient: a.HTTPClient,
		})

		if profile.Token == "" {
			logger.Warnf("no API token for %s (profile %s), set one with: %s config set token", client.Endpoint(), name, constants.AppName)
		}

		return client
	})

	logger.Debugf("running %s with profile %s (%s)", cmd.Name(), name, profile.Endpoint)

	start := time.Now()
	err = cmd.Run(c)
	logger.Debugf("%s finished in %s", cmd.Name(), since(start))

	return err
}

// profileFlags collects the command-line overrides of the resolved profile.
func profileFlags(opts argparse.Options) (config.Profile, error) {
	p := config.Profile{}

	p.Endpoint, _ = argparse.GetOption(opts, []string{"endpoint"})
	p.Token, _ = argparse.GetOption(opts, []string{"token"})
	p.Format, _ = argparse.GetOption(opts, []string{"format", "o"})

	if raw, ok := argparse.GetOption(opts, []string{"timeout"}); ok {
		d, err := cast.ToDurationE(raw)
		if err != nil {
			return p, types.InvalidValue("--timeout", raw, err)
		}
		p.Timeout = d
	}

	if raw, ok := argparse.GetOption(opts, []string{"retries"}); ok {
		i, err := cast.ToIntE(raw)
		if err != nil {
			return p, types.InvalidValue("--retries", raw, err)
		}
		p.Retries = config.IntPtr(i)
	}

	return p, nil
}

func isAborted(ctx context.Context, err error) bool {
	return types.HasCode(err, types.ErrCodeAborted) ||
		stderrors.Is(err, context.Canceled) ||
		(ctx.Err() != nil && stderrors.Is(ctx.Err(), context.Canceled))
}

func (a *App) report(ctx context.Context, err error) int {
	if err == nil {
		return constants.ExitOK
	}

	if isAborted(ctx, err) {
		logger.Warn("aborted")
		return constants.ExitAborted
	}

	logger.Error(err)

	if types.IsUsageError(err) {
		if !a.inShell {
			logger.Infof("run '%s help' for usage", constants.AppName)
		}
		return constants.ExitUsage
	}

	return constants.ExitError
}

func historyPath(a *App) string {
	return filepath.Join(filepath.Dir(a.configPath()), "history")
}

func since(start time.Time) string {
	return time.Since(start).Round(time.Millisecond).String()
}
