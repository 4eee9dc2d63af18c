package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/fwojciec/pagecheck"
	"gopkg.in/yaml.v3"
)

// LoadConfig reads a YAML file of flag defaults. Keys are flag names, with
// hyphens or underscores. List flags accept a single value or a list.
// Flags given on the command line take precedence.
//
//	depth: 2
//	exclusions:
//	  - /api/
//	  - /changelog
//	disable_browser_sandbox: true
func LoadConfig(r io.Reader) (kong.Resolver, error) {
	values := map[string]any{}
	if err := yaml.NewDecoder(r).Decode(&values); err != nil && err != io.EOF {
		return nil, pagecheck.Errorf(pagecheck.EINVALID, "invalid config file: %v", err)
	}

	normalized := make(map[string]any, len(values))
	for key, value := range values {
		normalized[strings.ReplaceAll(key, "_", "-")] = value
	}

	var resolver kong.ResolverFunc = func(_ *kong.Context, _ *kong.Path, flag *kong.Flag) (any, error) {
		value, ok := normalized[flag.Name]
		if !ok {
			return nil, nil
		}
		if _, isList := value.([]any); isList || flag.IsSlice() {
			return strings.Join(configStrings(value), ","), nil
		}
		return fmt.Sprint(value), nil
	}
	return resolver, nil
}

// configStrings returns a scalar or list value as strings.
func configStrings(value any) []string {
	if s, ok := value.(string); ok {
		return []string{s}
	}
	var out []string
	for _, item := range pagecheck.ToSlice[any](value) {
		out = append(out, fmt.Sprint(item))
	}
	return out
}
