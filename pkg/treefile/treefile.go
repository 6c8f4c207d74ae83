// Package treefile loads node trees described in JSON or YAML into an arena.
//
//	tag: ul
//	style:
//	  color: red
//	events:
//	  click: {handler: 3, preventDefault: true}
//	children:
//	  - text: Item 1
//	  - tag: li
//	    children:
//	      - text: Item 2
//
// A node is either an element (tag, optional style, events and children) or
// a text leaf (text, no children). A node with both a tag and text is an
// element whose payload is the text, like a text node with a custom tag.
package treefile

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vango-dev/vdiff/internal/errors"
	"github.com/vango-dev/vdiff/pkg/vdom"
	"gopkg.in/yaml.v3"
)

// MaxDepth is the deepest nesting a tree file may use.
const MaxDepth = 256

// Node is one node of a tree file.
type Node struct {
	Tag      string            `json:"tag,omitempty" yaml:"tag,omitempty"`
	Text     *string           `json:"text,omitempty" yaml:"text,omitempty"`
	Style    map[string]string `json:"style,omitempty" yaml:"style,omitempty"`
	Events   map[string]Event  `json:"events,omitempty" yaml:"events,omitempty"`
	Children []*Node           `json:"children,omitempty" yaml:"children,omitempty"`

	line, column int
}

// Event is an event listener of a tree file node.
type Event struct {
	Handler         uint64 `json:"handler" yaml:"handler"`
	PreventDefault  bool   `json:"preventDefault,omitempty" yaml:"preventDefault,omitempty"`
	StopPropagation bool   `json:"stopPropagation,omitempty" yaml:"stopPropagation,omitempty"`
}

// UnmarshalYAML records the node's position for error reporting.
func (n *Node) UnmarshalYAML(value *yaml.Node) error {
	type plain Node
	if err := value.Decode((*plain)(n)); err != nil {
		return err
	}
	n.line, n.column = value.Line, value.Column
	return nil
}

// Format is a tree file encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatOf returns the format implied by a file name.
func FormatOf(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// Parse decodes and validates a tree. file is used in error locations and
// may be empty.
func Parse(data []byte, format Format, file string) (*Node, error) {
	var root Node
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &root)
	case FormatJSON:
		err = json.Unmarshal(data, &root)
	default:
		return nil, errors.New("E501").WithDetail("Unknown tree format " + string(format))
	}
	if err != nil {
		e := errors.New("E200").Wrap(err)
		if file != "" {
			e.Detail = "Failed to parse " + filepath.Base(file) + "."
		}
		return nil, e
	}
	if err := root.validate(file, 1); err != nil {
		return nil, err
	}
	return &root, nil
}

// Load reads, decodes and validates a tree file.
func Load(path string) (*Node, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.New("E200").WithDetail("Cannot read " + path).Wrap(err)
	}
	return Parse(data, FormatOf(path), path)
}

// LoadInto loads a tree file and builds it in a.
func LoadInto(a *vdom.Arena, path string) (vdom.ID, error) {
	n, err := Load(path)
	if err != nil {
		return vdom.None, err
	}
	return n.Build(a), nil
}

func (n *Node) validate(file string, depth int) error {
	fail := func(code, suggestion string) error {
		e := errors.New(code).WithSuggestion(suggestion)
		if file != "" && n.line > 0 {
			e.WithLocation(file, n.line, n.column)
		}
		return e
	}

	if depth > MaxDepth {
		return fail("E204", "Flatten the tree")
	}
	if n.Text != nil && len(n.Children) > 0 {
		return fail("E202", "Move the text into a child text node")
	}
	if n.Text == nil && n.Tag == "" {
		return fail("E201", `Add a "tag" or a "text" field`)
	}
	for _, name := range sortedNames(n.Events) {
		if name == "" || n.Events[name].Handler == 0 {
			return fail("E203", "Give every event a name and a handler id above 0")
		}
	}
	for _, c := range n.Children {
		if c == nil {
			return fail("E201", "Remove the empty child entry")
		}
		if err := c.validate(file, depth+1); err != nil {
			return err
		}
	}
	return nil
}

// Build creates the tree in a and returns its root. The node must have been
// validated (Parse and Load do).
func (n *Node) Build(a *vdom.Arena) vdom.ID {
	var id vdom.ID
	switch {
	case n.Text != nil && n.Tag == "":
		id = a.Text(*n.Text)
	case n.Text != nil:
		id = a.Element(n.Tag)
		a.SetText(id, *n.Text)
	default:
		id = a.Element(n.Tag)
	}
	for k, v := range n.Style {
		a.SetStyle(id, k, v)
	}
	for name, ev := range n.Events {
		a.SetEvent(id, name, vdom.EventDescriptor{
			PreventDefault:  ev.PreventDefault,
			StopPropagation: ev.StopPropagation,
			Handler:         vdom.HandlerID(ev.Handler),
		})
	}
	for _, c := range n.Children {
		a.AppendChild(id, c.Build(a))
	}
	return id
}

// FromArena converts the tree at id back into a tree file node.
func FromArena(a *vdom.Arena, id vdom.ID) *Node {
	src := a.Node(id)
	if src == nil {
		return nil
	}
	n := &Node{}
	if !src.IsText() || src.Tag() != vdom.TextTag {
		n.Tag = src.Tag()
	}
	if src.IsText() {
		text := src.Text()
		n.Text = &text
	}
	for _, k := range src.StyleKeys() {
		if n.Style == nil {
			n.Style = make(map[string]string)
		}
		n.Style[k], _ = src.Style(k)
	}
	for _, name := range src.EventNames() {
		if n.Events == nil {
			n.Events = make(map[string]Event)
		}
		e, _ := src.Event(name)
		n.Events[name] = Event{
			Handler:         uint64(e.Handler),
			PreventDefault:  e.PreventDefault,
			StopPropagation: e.StopPropagation,
		}
	}
	for _, c := range src.Children() {
		n.Children = append(n.Children, FromArena(a, c))
	}
	return n
}

func sortedNames(m map[string]Event) []string {
	names := make([]string, 0, len(m))
	for k := range m {
		names = append(names, k)
	}
	sort.Strings(names)
	return names
}
