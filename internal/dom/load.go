package dom

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/tidwall/gjson"
	"gopkg.in/yaml.v3"
)

// LoadPage reads a page fixture, choosing the decoder by file extension.
func LoadPage(path string) (*Page, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading page fixture: %w", err)
	}
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return LoadPageYAML(data)
	default:
		return LoadPageJSON(data)
	}
}

// LoadPageJSON parses a fixture of the form
//
//	{"elements": [{"id": "save", "tag": "button", "class": "primary wide"}]}
//
// "classes" may be given as an array or "class" as a space separated string.
func LoadPageJSON(data []byte) (*Page, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid JSON in page fixture")
	}

	elements := gjson.GetBytes(data, "elements")
	if !elements.Exists() {
		return nil, fmt.Errorf("page fixture has no %q array", "elements")
	}
	if !elements.IsArray() {
		return nil, fmt.Errorf("page fixture %q must be an array", "elements")
	}

	var nodes []*Node
	var err error
	elements.ForEach(func(key, v gjson.Result) bool {
		n := &Node{
			ID:        v.Get("id").String(),
			Tag:       v.Get("tag").String(),
			Hidden:    v.Get("hidden").Bool(),
			Focusable: v.Get("focusable").Bool(),
			Value:     v.Get("value").String(),
		}
		if visible := v.Get("visible"); visible.Exists() {
			n.Hidden = !visible.Bool()
		}
		for _, c := range v.Get("classes").Array() {
			n.Classes = append(n.Classes, c.String())
		}
		n.Classes = append(n.Classes, strings.Fields(v.Get("class").String())...)
		if n.Tag == "" && n.ID == "" {
			err = fmt.Errorf("element %d needs a tag or an id", key.Int())
			return false
		}
		nodes = append(nodes, n)
		return true
	})
	if err != nil {
		return nil, err
	}
	return NewPage(nodes...), nil
}

// LoadPageYAML parses the YAML form of a page fixture.
func LoadPageYAML(data []byte) (*Page, error) {
	var doc struct {
		Elements []*Node `yaml:"elements"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing page fixture: %w", err)
	}
	for i, n := range doc.Elements {
		if n == nil || (n.Tag == "" && n.ID == "") {
			return nil, fmt.Errorf("element %d needs a tag or an id", i)
		}
	}
	return NewPage(doc.Elements...), nil
}
