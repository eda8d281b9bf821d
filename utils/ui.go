package utils

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/fatih/color"
	"github.com/manifoldco/promptui"
	"github.com/seventv/cloudctl/types"
	"go.uber.org/zap"
)

// Terminal is where prompts read from and draw to. Nil fields fall back to
// the process stdin and stdout.
type Terminal struct {
	In  io.Reader
	Out io.Writer
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }

func (t Terminal) stdin() io.ReadCloser {
	if t.In == nil {
		return nil
	}
	if rc, ok := t.In.(io.ReadCloser); ok {
		return rc
	}

	return io.NopCloser(t.In)
}

func (t Terminal) stdout() io.WriteCloser {
	if t.Out == nil {
		return nil
	}
	if wc, ok := t.Out.(io.WriteCloser); ok {
		return wc
	}

	return nopWriteCloser{t.Out}
}

func promptError(err error) error {
	if errors.Is(err, promptui.ErrInterrupt) || errors.Is(err, promptui.ErrEOF) || errors.Is(err, promptui.ErrAbort) {
		return types.Aborted()
	}

	return err
}

func Selector(term Terminal, short string, labelLong string, search bool, options []types.Selectable) (int, error) {
	type selection struct {
		Label    string
		Selected string
		Details  string
		idx      int

		Match func(input string) bool
	}

	items := make([]selection, 0, len(options))

	for idx, s := range options {
		items = append(items, selection{
			Label:    s.Label(),
			Selected: s.Selected(),
			Details:  s.Details(),
			Match:    s.Match,
			idx:      idx,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].Selected < items[j].Selected
	})

	selected := fmt.Sprintf(`{{ "%s:" | faint }} {{ .Selected }}`, short)
	if short == "" {
		selected = ""
	}

	prompt := promptui.Select{
		Label:        labelLong,
		Items:        items,
		HideSelected: short == "",
		HideHelp:     !search,
		Stdin:        term.stdin(),
		Stdout:       term.stdout(),
		Templates: &promptui.SelectTemplates{
			Label:    "{{ .Label }}",
			Active:   "➔ {{ .Label }}",
			Inactive: "  {{ .Label }}",
			Selected: selected,
			Details:  "{{ .Details }}",
		},
	}

	if search {
		prompt.Searcher = func(input string, index int) bool {
			return items[index].Match(input)
		}
	}

	i, _, err := prompt.Run()
	if err != nil {
		return -1, promptError(err)
	}

	return items[i].idx, nil
}

type PromptMessage[T comparable] struct {
	Label       string
	HideEntered bool
	Mask        rune
	Validate    types.Validator[T]
	Default     string
}

func Prompt[T comparable](term Terminal, p PromptMessage[T]) (string, error) {
	prompt := promptui.Prompt{
		Label:       p.Label,
		Default:     p.Default,
		HideEntered: p.HideEntered,
		Mask:        p.Mask,
		Stdin:       term.stdin(),
		Stdout:      term.stdout(),
	}

	if p.Validate != nil {
		prompt.Validate = func(s string) error {
			_, err := types.Check(p.Validate, s)
			return err
		}
	}

	result, err := prompt.Run()
	if err != nil {
		return "", promptError(err)
	}

	return result, nil
}

// Confirm asks a yes/no question that defaults to no.
func Confirm(term Terminal, label string) (bool, error) {
	prompt := promptui.Prompt{
		Label:       label,
		IsConfirm:   true,
		HideEntered: true,
		Stdin:       term.stdin(),
		Stdout:      term.stdout(),
		Templates: &promptui.PromptTemplates{
			Confirm: "{{ . }}? [y/N]: ",
		},
	}

	v, err := prompt.Run()

	// a declined confirm prompt is reported as ErrAbort
	if errors.Is(err, promptui.ErrAbort) {
		zap.S().Infof("%s? : %s", color.New(color.Faint).Sprint(label), "N")
		return false, nil
	}
	if err != nil {
		return false, promptError(err)
	}

	zap.S().Infof("%s? : %s", color.New(color.Faint).Sprint(label), strings.ToUpper(OrStr(v, "y")))

	return true, nil
}
