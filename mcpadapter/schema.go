package mcpadapter

import (
	"encoding/json"
	"fmt"

	"github.com/seventv/cloudctl/argparse"
	"github.com/spf13/cast"
)

func property(p Param) map[string]any {
	prop := map[string]any{}

	switch p.Kind {
	case KindBool:
		prop["type"] = "boolean"
	case KindInt:
		prop["type"] = "integer"
	case KindList:
		prop["type"] = "array"
		prop["items"] = map[string]any{"type": "string"}
	default:
		prop["type"] = "string"
	}

	if p.Help != "" {
		prop["description"] = p.Help
	}
	if len(p.Enum) > 0 {
		prop["enum"] = p.Enum
	}

	return prop
}

// Schema builds the JSON schema for a tool's arguments. Option names are
// used as-is, so "per-page" stays "per-page".
func Schema(t Tool) (json.RawMessage, error) {
	props := map[string]any{}
	required := []string{}

	for _, p := range t.Params {
		if _, ok := props[p.Name]; ok {
			return nil, fmt.Errorf("duplicate parameter %q", p.Name)
		}

		props[p.Name] = property(p)
		if p.Required {
			required = append(required, p.Name)
		}
	}

	schema := map[string]any{
		"type":                 "object",
		"properties":           props,
		"additionalProperties": false,
	}
	if len(required) > 0 {
		schema["required"] = required
	}

	return json.Marshal(schema)
}

func stringValue(name string, v any) (string, error) {
	switch x := v.(type) {
	case string:
		return x, nil
	case float64:
		if x != float64(int64(x)) {
			return cast.ToStringE(x)
		}
		return cast.ToStringE(int64(x))
	case json.Number:
		return x.String(), nil
	}

	s, err := cast.ToStringE(v)
	if err != nil {
		return "", fmt.Errorf("argument %s: %w", name, err)
	}

	return s, nil
}

// Invocation converts validated tool arguments into the invocation the
// command dispatcher consumes: strings and numbers become string values,
// true becomes a flag, false is dropped and arrays become lists. Positional
// parameters fill positional slots in declaration order.
func Invocation(t Tool, args map[string]any) (argparse.Invocation, error) {
	inv := argparse.Invocation{
		Command:    append([]string{}, t.Command...),
		Positional: []string{},
		Options:    argparse.Options{},
	}

	missing := ""
	for _, p := range t.Params {
		v, ok := args[p.Name]
		if !ok || v == nil {
			if p.Positional && missing == "" {
				missing = p.Name
			}
			continue
		}

		if p.Positional {
			if missing != "" {
				return inv, fmt.Errorf("argument %s requires %s", p.Name, missing)
			}

			s, err := stringValue(p.Name, v)
			if err != nil {
				return inv, err
			}
			inv.Positional = append(inv.Positional, s)
			continue
		}

		switch x := v.(type) {
		case bool:
			if x {
				inv.Options[p.Name] = argparse.Flag()
			}
		case []any:
			items, err := cast.ToStringSliceE(x)
			if err != nil {
				return inv, fmt.Errorf("argument %s: %w", p.Name, err)
			}
			inv.Options[p.Name] = argparse.List(items...)
		case []string:
			inv.Options[p.Name] = argparse.List(x...)
		default:
			s, err := stringValue(p.Name, v)
			if err != nil {
				return inv, err
			}
			inv.Options[p.Name] = argparse.String(s)
		}
	}

	return inv, nil
}
