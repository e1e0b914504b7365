// Package dom defines the element query and input simulation capabilities
// that DOM-oriented steps consume, plus an in-memory Page that implements
// both for tests and the CLI.
package dom

// Element is an opaque handle returned by a Document.
type Element interface {
	Selector() string
}

// Document locates elements and reports their visibility.
type Document interface {
	Locate(selector string) (Element, bool)
	Visible(el Element) bool
}

// Input simulates user interaction with located elements.
type Input interface {
	Simulate(el Element, event string, opts map[string]any) error
	SetValue(el Element, value string) error
	Focus(el Element) error
}

// Standard simulated event names.
const (
	EventMouseDown = "mousedown"
	EventMouseUp   = "mouseup"
	EventClick     = "click"
	EventKeyDown   = "keydown"
	EventKeyUp     = "keyup"
	EventKeyPress  = "keypress"
)
