// Package template expands ${...} placeholders in scenario step arguments:
// scenario variables, ${env:VAR} environment lookups and built-in function
// calls such as ${uuid()}.
package template

import (
	"errors"
	"fmt"
	"os"
	"regexp"
	"strings"

	"stepchain/internal/core"
)

// placeholder matches ${var}, ${env:VAR} and ${fn(args)}.
var placeholder = regexp.MustCompile(`\$\{([^}]+)\}`)

// Substitute expands every placeholder in text. All lookup failures are
// joined into one error.
func Substitute(text string, vars core.Variables) (string, error) {
	if !strings.Contains(text, "${") {
		return text, nil
	}

	var errs []error
	out := placeholder.ReplaceAllStringFunc(text, func(match string) string {
		expr := strings.TrimSpace(match[2 : len(match)-1])

		if name, ok := strings.CutPrefix(expr, "env:"); ok {
			if val, ok := os.LookupEnv(name); ok {
				return val
			}
			errs = append(errs, fmt.Errorf("env var %q not set", name))
			return match
		}

		if val, isCall, err := call(expr); isCall {
			if err != nil {
				errs = append(errs, err)
				return match
			}
			return val
		}

		if vars != nil {
			if val, ok := vars.Get(expr); ok {
				return fmt.Sprint(val)
			}
		}
		errs = append(errs, fmt.Errorf("variable %q not found", expr))
		return match
	})

	if len(errs) > 0 {
		return "", errors.Join(errs...)
	}
	return out, nil
}

// SubstituteArgs expands placeholders in the string elements of args.
// Other values are passed through. The input slice is not modified.
func SubstituteArgs(args []any, vars core.Variables) ([]any, error) {
	if len(args) == 0 {
		return args, nil
	}

	out := make([]any, len(args))
	var errs []error
	for i, arg := range args {
		s, ok := arg.(string)
		if !ok {
			out[i] = arg
			continue
		}
		expanded, err := Substitute(s, vars)
		if err != nil {
			errs = append(errs, fmt.Errorf("argument %d: %w", i+1, err))
			continue
		}
		out[i] = expanded
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return out, nil
}

// References lists the scenario variable names text refers to. Environment
// lookups and function calls are skipped.
func References(text string) []string {
	var names []string
	for _, m := range placeholder.FindAllStringSubmatch(text, -1) {
		expr := strings.TrimSpace(m[1])
		if strings.HasPrefix(expr, "env:") {
			continue
		}
		if _, isCall, _ := call(expr); isCall {
			continue
		}
		names = append(names, expr)
	}
	return names
}
