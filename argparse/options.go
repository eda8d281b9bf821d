package argparse

import (
	"strings"

	"github.com/seventv/cloudctl/types"
	"github.com/spf13/cast"
)

func (o Options) lookup(names []string) (Value, bool) {
	for _, name := range names {
		if v, ok := o[name]; ok {
			return v, true
		}
	}

	return Value{}, false
}

// GetOption returns the string stored under the first of names present in
// opts. Flags and lists are skipped in favour of def. ok is false when there
// is neither a string value nor a default.
func GetOption(opts Options, names []string, def ...string) (string, bool) {
	if v, ok := opts.lookup(names); ok && v.Kind == KindString {
		return v.Str, true
	}

	if len(def) > 0 {
		return def[0], true
	}

	return "", false
}

// HasFlag reports whether the first of names present in opts is a bare flag.
// An option given an explicit value is not a flag.
func HasFlag(opts Options, names []string) bool {
	v, ok := opts.lookup(names)
	return ok && v.Kind == KindFlag
}

// GetList returns a list value as is and a string value as a one-element
// list. Flags and missing options give nil.
func GetList(opts Options, names []string) []string {
	v, ok := opts.lookup(names)
	if !ok {
		return nil
	}

	switch v.Kind {
	case KindList:
		return v.List
	case KindString:
		return []string{v.Str}
	}

	return nil
}

// GetInt converts the string under names to an int, returning def when the
// option is absent.
func GetInt(opts Options, names []string, def int) (int, error) {
	raw, ok := GetOption(opts, names)
	if !ok {
		return def, nil
	}

	i, err := cast.ToIntE(strings.TrimSpace(raw))
	if err != nil {
		return def, types.InvalidValue("--"+names[0], raw, err)
	}

	return i, nil
}
