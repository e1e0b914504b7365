package dom

import (
	"fmt"
	"slices"
	"sync"
)

// Node is an element of an in-memory Page.
type Node struct {
	ID        string   `yaml:"id" json:"id"`
	Tag       string   `yaml:"tag" json:"tag"`
	Classes   []string `yaml:"classes" json:"classes"`
	Hidden    bool     `yaml:"hidden" json:"hidden"`
	Focusable bool     `yaml:"focusable" json:"focusable"`
	Value     string   `yaml:"value" json:"value"`
}

// HasClass reports whether the node carries class c.
func (n *Node) HasClass(c string) bool {
	return slices.Contains(n.Classes, c)
}

// Selector implements Element.
func (n *Node) Selector() string {
	sel := n.Tag
	if n.ID != "" {
		sel += "#" + n.ID
	}
	for _, c := range n.Classes {
		sel += "." + c
	}
	return sel
}

// Event is a simulated event recorded by a Page.
type Event struct {
	Target string
	Name   string
	Opts   map[string]any
}

// Page is an in-memory Document and Input. Elements are matched in
// insertion order. Safe for concurrent use so tests can mutate the page
// while a scenario polls it.
type Page struct {
	mu      sync.Mutex
	nodes   []*Node
	events  []Event
	focused *Node
}

var (
	_ Document = (*Page)(nil)
	_ Input    = (*Page)(nil)
)

// NewPage creates a page holding nodes.
func NewPage(nodes ...*Node) *Page {
	return &Page{nodes: nodes}
}

// Append adds a node to the end of the page.
func (p *Page) Append(n *Node) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.nodes = append(p.nodes, n)
}

// Remove detaches every node matching selector and returns how many were
// removed.
func (p *Page) Remove(selector string) int {
	sel, err := parseSelector(selector)
	if err != nil {
		return 0
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	before := len(p.nodes)
	p.nodes = slices.DeleteFunc(p.nodes, sel.matches)
	return before - len(p.nodes)
}

// SetHidden toggles the visibility of every node matching selector.
func (p *Page) SetHidden(selector string, hidden bool) {
	sel, err := parseSelector(selector)
	if err != nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		if sel.matches(n) {
			n.Hidden = hidden
		}
	}
}

// Locate implements Document. Malformed selectors match nothing.
func (p *Page) Locate(selector string) (Element, bool) {
	sel, err := parseSelector(selector)
	if err != nil {
		return nil, false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	for _, n := range p.nodes {
		if sel.matches(n) {
			return n, true
		}
	}
	return nil, false
}

// Visible implements Document. Detached nodes are never visible.
func (p *Page) Visible(el Element) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.attached(el)
	return ok && !n.Hidden
}

// Simulate implements Input.
func (p *Page) Simulate(el Element, event string, opts map[string]any) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.attached(el)
	if !ok {
		return fmt.Errorf("simulate %s: element %s is detached", event, describe(el))
	}
	p.events = append(p.events, Event{Target: n.Selector(), Name: event, Opts: opts})
	return nil
}

// SetValue implements Input.
func (p *Page) SetValue(el Element, value string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.attached(el)
	if !ok {
		return fmt.Errorf("set value: element %s is detached", describe(el))
	}
	n.Value = value
	return nil
}

// Focus implements Input.
func (p *Page) Focus(el Element) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	n, ok := p.attached(el)
	if !ok {
		return fmt.Errorf("focus: element %s is detached", describe(el))
	}
	if !n.Focusable {
		return fmt.Errorf("focus: element %s is not focusable", n.Selector())
	}
	p.focused = n
	return nil
}

// Value returns the current value of the first node matching selector.
func (p *Page) Value(selector string) (string, bool) {
	el, ok := p.Locate(selector)
	if !ok {
		return "", false
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	return el.(*Node).Value, true
}

// Focused returns the selector of the focused node, if any.
func (p *Page) Focused() string {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.focused == nil {
		return ""
	}
	return p.focused.Selector()
}

// Events returns a copy of the simulated events recorded so far.
func (p *Page) Events() []Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	return slices.Clone(p.events)
}

// EventNames returns the names of the recorded events in order.
func (p *Page) EventNames() []string {
	events := p.Events()
	names := make([]string, len(events))
	for i, e := range events {
		names[i] = e.Name
	}
	return names
}

func (p *Page) attached(el Element) (*Node, bool) {
	n, ok := el.(*Node)
	if !ok || n == nil {
		return nil, false
	}
	return n, slices.Contains(p.nodes, n)
}

func describe(el Element) string {
	if el == nil {
		return "<nil>"
	}
	return el.Selector()
}
