package vdom

import "fmt"

// HandlerID is an opaque reference to an event handler owned by the host.
type HandlerID uint64

// EventDescriptor describes one attached event listener.
type EventDescriptor struct {
	PreventDefault  bool
	StopPropagation bool
	Handler         HandlerID
}

// Equal reports whether two descriptors have the same options and handler.
func (e EventDescriptor) Equal(other EventDescriptor) bool {
	return e == other
}

// String returns a compact representation used in logs and test output.
func (e EventDescriptor) String() string {
	return fmt.Sprintf("{prevent:%t stop:%t handler:%d}", e.PreventDefault, e.StopPropagation, e.Handler)
}

// EventOption configures an EventDescriptor built with On.
type EventOption func(*EventDescriptor)

// PreventDefault sets the prevent-default flag.
func PreventDefault() EventOption {
	return func(e *EventDescriptor) { e.PreventDefault = true }
}

// StopPropagation sets the stop-propagation flag.
func StopPropagation() EventOption {
	return func(e *EventDescriptor) { e.StopPropagation = true }
}
