package vdom

import "fmt"

// StyleAttr is a style key/value pair passed to El.
type StyleAttr struct {
	Key   string
	Value string
}

// Style creates a style entry for El.
func Style(key, value string) StyleAttr {
	return StyleAttr{Key: key, Value: value}
}

// EventAttr is an event listener passed to El.
type EventAttr struct {
	Name string
	Desc EventDescriptor
}

// On creates an event listener for El.
func On(name string, handler HandlerID, opts ...EventOption) EventAttr {
	desc := EventDescriptor{Handler: handler}
	for _, opt := range opts {
		opt(&desc)
	}
	return EventAttr{Name: name, Desc: desc}
}

// El creates an element and applies args to it in order.
// Arguments can be: nil, StyleAttr, []StyleAttr, EventAttr, ID, []ID, or
// string (appended as a text child). Any other type panics.
func (a *Arena) El(tag string, args ...any) ID {
	id := a.Element(tag)
	for _, arg := range args {
		switch v := arg.(type) {
		case nil:
			// Allows conditional arguments.
		case StyleAttr:
			a.SetStyle(id, v.Key, v.Value)
		case []StyleAttr:
			for _, s := range v {
				a.SetStyle(id, s.Key, s.Value)
			}
		case EventAttr:
			a.SetEvent(id, v.Name, v.Desc)
		case ID:
			if v != None {
				a.AppendChild(id, v)
			}
		case []ID:
			for _, c := range v {
				a.AppendChild(id, c)
			}
		case string:
			a.AppendChild(id, a.Text(v))
		default:
			panic(fmt.Sprintf("vdom: unsupported El argument %T", arg))
		}
	}
	return id
}

// Textf creates a text node from a format string.
func (a *Arena) Textf(format string, args ...any) ID {
	return a.Text(fmt.Sprintf(format, args...))
}
