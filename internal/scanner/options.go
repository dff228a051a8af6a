package scanner

import (
	"context"
	"strconv"
	"strings"

	"github.com/buemura/zapx/internal/zap"
)

// Option is one "set option" call derived from a configuration key. Options
// built from absent or invalid values are skipped.
type Option struct {
	Name  string
	skip  bool
	apply func(ctx context.Context, s OptionSetter) (string, error)
}

// IntOption sets an Integer option. nil and negative values mean "unset".
func IntOption(name string, v *int) Option {
	if v == nil || *v < 0 {
		return Option{Name: name, skip: true}
	}
	n := *v
	return Option{Name: name, apply: func(ctx context.Context, s OptionSetter) (string, error) {
		return s.SetOptionInteger(ctx, name, n)
	}}
}

// BoolOption sets a Boolean option. nil means "unset".
func BoolOption(name string, v *bool) Option {
	if v == nil {
		return Option{Name: name, skip: true}
	}
	b := *v
	return Option{Name: name, apply: func(ctx context.Context, s OptionSetter) (string, error) {
		return s.SetOptionBoolean(ctx, name, b)
	}}
}

// StringOption sets a String option. nil and empty values mean "unset".
func StringOption(name string, v *string) Option {
	if v == nil || *v == "" {
		return Option{Name: name, skip: true}
	}
	str := *v
	return Option{Name: name, apply: func(ctx context.Context, s OptionSetter) (string, error) {
		return s.SetOptionString(ctx, name, str)
	}}
}

// ApplyOptions issues every non-skipped option in order and stops at the
// first one the engine does not acknowledge with OK. It returns the names of
// the options that were applied.
func ApplyOptions(ctx context.Context, module string, s OptionSetter, opts []Option) ([]string, error) {
	var applied []string
	for _, o := range opts {
		if o.skip {
			continue
		}
		res, err := o.apply(ctx, s)
		if err != nil {
			return applied, &OptionError{Module: module, Option: o.Name, Err: err}
		}
		if res != zap.ResultOK {
			return applied, &OptionError{Module: module, Option: o.Name, Result: res}
		}
		applied = append(applied, o.Name)
	}
	return applied, nil
}

// ParseHandle validates a job handle returned by a start call. The engine
// answers with a decimal string; anything else is a failed start.
func ParseHandle(module, raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	id, err := strconv.Atoi(raw)
	if err != nil || id < 0 {
		return -1, &StartError{Module: module, Result: raw}
	}
	return id, nil
}

// TargetURL picks the section's url, falling back to the caller's.
func TargetURL(sectionURL, fallback string) (string, bool) {
	if sectionURL != "" {
		return sectionURL, true
	}
	return fallback, false
}
