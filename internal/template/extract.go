package template

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tidwall/gjson"

	"stepchain/internal/core"
)

// Extract stores values from a JSON document into vars. Each rule maps a
// variable name to a JSONPath expression ($.user.name, $.items[0].id,
// $.items[*].id). All missing paths are reported together.
func Extract(data []byte, rules map[string]string, vars core.Variables) error {
	if len(rules) == 0 {
		return nil
	}
	if !gjson.ValidBytes(data) {
		return errors.New("invalid JSON data")
	}

	var errs []error
	for name, path := range rules {
		value := gjson.GetBytes(data, gjsonPath(path))
		if !value.Exists() {
			errs = append(errs, fmt.Errorf("path %q not found for variable %q", path, name))
			continue
		}
		vars.Set(name, value.Value())
	}
	return errors.Join(errs...)
}

// gjsonPath converts JSONPath to gjson syntax: $.a[0].b becomes a.0.b and
// [*] becomes .#.
func gjsonPath(path string) string {
	path = strings.TrimPrefix(path, "$")
	path = strings.TrimPrefix(path, ".")

	var sb strings.Builder
	for i := 0; i < len(path); i++ {
		if path[i] != '[' {
			sb.WriteByte(path[i])
			continue
		}
		end := strings.IndexByte(path[i:], ']')
		if end < 0 {
			sb.WriteString(path[i:])
			break
		}
		index := path[i+1 : i+end]
		if index == "*" {
			index = "#"
		}
		sb.WriteByte('.')
		sb.WriteString(index)
		i += end
	}
	return sb.String()
}
