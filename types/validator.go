package types

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cast"
)

var (
	NameRegex  = regexp.MustCompile(`^[a-z0-9]([-a-z0-9]*[a-z0-9])?$`)
	LabelRegex = regexp.MustCompile(`^[a-zA-Z0-9]([-a-zA-Z0-9_./]*[a-zA-Z0-9])?$`)
)

var converters = map[string]func(string) (any, error){}

func RegisterConverter[T any](zero T, converter func(string) (T, error)) {
	converters[fmt.Sprintf("%T", zero)] = func(s string) (any, error) {
		return converter(s)
	}
}

func init() {
	RegisterConverter("", func(s string) (string, error) {
		return s, nil
	})
	RegisterConverter(int(0), func(s string) (int, error) {
		return cast.ToIntE(strings.TrimSpace(s))
	})
	RegisterConverter(int64(0), func(s string) (int64, error) {
		return cast.ToInt64E(strings.TrimSpace(s))
	})
	RegisterConverter(false, func(s string) (bool, error) {
		return cast.ToBoolE(s)
	})
	RegisterConverter(time.Duration(0), func(s string) (time.Duration, error) {
		return cast.ToDurationE(s)
	})
}

type Validator[T any] interface {
	Validate(T) error
	Convert(string) (T, error)
}

type ValidatorFunction[T any] func(T) error

func (v ValidatorFunction[T]) Validate(val T) error {
	return v(val)
}

func (v ValidatorFunction[T]) Convert(val string) (T, error) {
	var zero T

	converter, ok := converters[fmt.Sprintf("%T", zero)]
	if !ok {
		return zero, fmt.Errorf("no converter for %T", zero)
	}

	ret, err := converter(val)
	if err != nil {
		return zero, err
	}

	return ret.(T), nil
}

// Check converts raw and validates the result in one step.
func Check[T any](v Validator[T], raw string) (T, error) {
	val, err := v.Convert(raw)
	if err != nil {
		return val, err
	}

	return val, v.Validate(val)
}

func MultiValidator[T any](validators ...Validator[T]) Validator[T] {
	return ValidatorFunction[T](func(item T) error {
		for _, validator := range validators {
			if err := validator.Validate(item); err != nil {
				if errors.Is(err, ErrValidtorStopValidation) {
					return nil
				}

				return err
			}
		}

		return nil
	})
}

func OptionalEmptyValidator[T comparable]() Validator[T] {
	return ValidatorFunction[T](func(s T) error {
		var a T

		if s == a {
			return ErrValidtorStopValidation
		}

		return nil
	})
}

func NameValidator(name string) Validator[string] {
	if name == "" {
		name = "name"
	}

	return ValidatorFunction[string](func(s string) error {
		if s == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}

		if NameRegex.MatchString(s) {
			return nil
		}

		return fmt.Errorf("%s %s", name, ErrInvalidName.Error())
	})
}

func UrlValidator(name string) Validator[string] {
	if name == "" {
		name = "url"
	}

	return ValidatorFunction[string](func(s string) error {
		if s == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}

		u, err := url.Parse(s)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return fmt.Errorf("%s %s", name, ErrInvalidURL.Error())
		}

		return nil
	})
}

func IDValidator(name string) Validator[string] {
	if name == "" {
		name = "id"
	}

	return ValidatorFunction[string](func(s string) error {
		id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
		if err != nil || id <= 0 {
			return fmt.Errorf("%s %s", name, ErrInvalidID.Error())
		}

		return nil
	})
}

func OneOfValidator(name string, allowed ...string) Validator[string] {
	return ValidatorFunction[string](func(s string) error {
		for _, a := range allowed {
			if strings.EqualFold(strings.TrimSpace(s), a) {
				return nil
			}
		}

		return fmt.Errorf("%s must be one of: %s", name, strings.Join(allowed, ", "))
	})
}

func RangeValidator(name string, min int, max int) Validator[int] {
	return ValidatorFunction[int](func(i int) error {
		if i < min || i > max {
			return fmt.Errorf("%s must be between %d and %d", name, min, max)
		}

		return nil
	})
}

func PositiveDurationValidator(name string) Validator[time.Duration] {
	return ValidatorFunction[time.Duration](func(d time.Duration) error {
		if d <= 0 {
			return fmt.Errorf("%s must be a positive duration", name)
		}

		return nil
	})
}

// LabelValidator accepts a comma separated list of key=value pairs.
func LabelValidator(name string) Validator[string] {
	return ValidatorFunction[string](func(s string) error {
		for _, pair := range strings.Split(s, ",") {
			k, v, ok := strings.Cut(pair, "=")
			if !ok || !LabelRegex.MatchString(k) {
				return fmt.Errorf("%s must be key=value pairs, got %q", name, pair)
			}
			if v != "" && !LabelRegex.MatchString(v) {
				return fmt.Errorf("%s has an invalid value for key %q", name, k)
			}
		}

		return nil
	})
}

func PathValidator(name string, allowStdIn bool) Validator[string] {
	if name == "" {
		name = "path"
	}

	return ValidatorFunction[string](func(s string) error {
		if s == "" {
			return fmt.Errorf("%s cannot be empty", name)
		}

		if s == "-" {
			if allowStdIn {
				return nil
			}
			return fmt.Errorf("%s cannot be stdin", name)
		}

		st, err := os.Stat(s)
		if err != nil {
			return fmt.Errorf("%s must be a valid path", name)
		}
		if st.IsDir() {
			return fmt.Errorf("%s must be a file", name)
		}

		return nil
	})
}
