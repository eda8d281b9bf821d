package argparse

import "strings"

// Kind tells which field of a Value is set.
type Kind int

const (
	KindFlag Kind = iota
	KindString
	KindList
)

func (k Kind) String() string {
	switch k {
	case KindFlag:
		return "flag"
	case KindString:
		return "string"
	case KindList:
		return "list"
	}

	return "unknown"
}

// Value is a single option value. The zero value is a bare flag.
type Value struct {
	Kind Kind
	Str  string
	List []string
}

// Flag is the value of an option given without one.
func Flag() Value {
	return Value{Kind: KindFlag}
}

// String wraps an explicit option value.
func String(s string) Value {
	return Value{Kind: KindString, Str: s}
}

// List holds several values; the parser never builds one, tool calls do.
func List(items ...string) Value {
	if items == nil {
		items = []string{}
	}

	return Value{Kind: KindList, List: items}
}

func (v Value) IsFlag() bool {
	return v.Kind == KindFlag
}

func (v Value) String() string {
	switch v.Kind {
	case KindFlag:
		return "true"
	case KindList:
		return "[" + strings.Join(v.List, ", ") + "]"
	}

	return v.Str
}

// Options maps option names, without dashes, to their values.
type Options map[string]Value

// Invocation is the result of parsing one argument vector.
type Invocation struct {
	Command    []string
	Positional []string
	Options    Options
}

func (i Invocation) Path() string {
	return strings.Join(i.Command, " ")
}
