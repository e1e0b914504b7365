package dom

import (
	"fmt"
	"strings"
)

// selector is a compound simple selector: tag, #id and any number of
// .class parts, e.g. "button#save.primary".
type selector struct {
	tag     string
	id      string
	classes []string
}

func parseSelector(s string) (selector, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return selector{}, fmt.Errorf("empty selector")
	}
	if strings.ContainsAny(s, " >+~[]:,") {
		return selector{}, fmt.Errorf("unsupported selector %q", s)
	}

	var sel selector
	i := strings.IndexAny(s, "#.")
	if i == -1 {
		sel.tag = s
		return sel, nil
	}
	sel.tag = s[:i]
	rest := s[i:]
	for rest != "" {
		kind := rest[0]
		rest = rest[1:]
		end := strings.IndexAny(rest, "#.")
		if end == -1 {
			end = len(rest)
		}
		part := rest[:end]
		rest = rest[end:]
		if part == "" {
			return selector{}, fmt.Errorf("malformed selector %q", s)
		}
		switch kind {
		case '#':
			if sel.id != "" {
				return selector{}, fmt.Errorf("selector %q has more than one id", s)
			}
			sel.id = part
		case '.':
			sel.classes = append(sel.classes, part)
		}
	}
	return sel, nil
}

func (s selector) matches(n *Node) bool {
	if s.tag != "" && !strings.EqualFold(s.tag, n.Tag) {
		return false
	}
	if s.id != "" && s.id != n.ID {
		return false
	}
	for _, c := range s.classes {
		if !n.HasClass(c) {
			return false
		}
	}
	return true
}
