// Package layout defines the declarative description of a window's visual
// tree, loaded at runtime from a bundled YAML resource.
package layout

import (
	"errors"
	"fmt"
)

// Kind identifies the type of a layout node.
type Kind string

const (
	KindVBox      Kind = "vbox"
	KindHBox      Kind = "hbox"
	KindBorder    Kind = "border"
	KindSplit     Kind = "split"
	KindTabs      Kind = "tabs"
	KindCard      Kind = "card"
	KindLabel     Kind = "label"
	KindButton    Kind = "button"
	KindEntry     Kind = "entry"
	KindCheck     Kind = "check"
	KindSelect    Kind = "select"
	KindSeparator Kind = "separator"
	KindSpacer    Kind = "spacer"
	KindProgress  Kind = "progress"
)

// Orientation of a split container.
type Orientation string

const (
	Horizontal Orientation = "horizontal"
	Vertical   Orientation = "vertical"
)

var (
	// ErrNotFound is returned when the layout resource does not exist.
	ErrNotFound = errors.New("layout resource not found")
	// ErrInvalid is returned when the resource cannot be parsed or validated.
	ErrInvalid = errors.New("invalid layout")
)

// Document is a parsed layout resource.
type Document struct {
	// Width and Height are the initial window size. Zero means "let the toolkit decide".
	Width  float32
	Height float32
	Root   *Node
}

// Node is one element of the layout tree.
type Node struct {
	Kind Kind
	// ID lets code look up the built widget. Optional, unique within a document.
	ID string
	// Text is the label/button caption, card or tab title, or entry content.
	Text string
	// Subtitle is used by cards.
	Subtitle    string
	Placeholder string
	Options     []string
	Orientation Orientation
	// Offset is the initial split position in [0,1]. Nil keeps the toolkit default.
	Offset *float64

	Children []*Node

	// Border regions.
	Top    *Node
	Bottom *Node
	Left   *Node
	Right  *Node
	Center *Node
}

// isContainer reports whether the node kind holds Children.
func (k Kind) isContainer() bool {
	switch k {
	case KindVBox, KindHBox, KindTabs:
		return true
	}
	return false
}

func (k Kind) valid() bool {
	switch k {
	case KindVBox, KindHBox, KindBorder, KindSplit, KindTabs, KindCard,
		KindLabel, KindButton, KindEntry, KindCheck, KindSelect,
		KindSeparator, KindSpacer, KindProgress:
		return true
	}
	return false
}

// Walk visits n and all of its descendants depth-first. Returning false stops the walk.
func (n *Node) Walk(fn func(*Node) bool) bool {
	if n == nil {
		return true
	}
	if !fn(n) {
		return false
	}
	for _, child := range n.regions() {
		if !child.Walk(fn) {
			return false
		}
	}
	for _, child := range n.Children {
		if !child.Walk(fn) {
			return false
		}
	}
	return true
}

func (n *Node) regions() []*Node {
	var out []*Node
	for _, r := range []*Node{n.Top, n.Bottom, n.Left, n.Right, n.Center} {
		if r != nil {
			out = append(out, r)
		}
	}
	return out
}

// Find returns the node with the given ID, or nil.
func (d *Document) Find(id string) *Node {
	if d == nil || id == "" {
		return nil
	}
	var found *Node
	d.Root.Walk(func(n *Node) bool {
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the document.
func (d *Document) Count() int {
	if d == nil {
		return 0
	}
	count := 0
	d.Root.Walk(func(*Node) bool {
		count++
		return true
	})
	return count
}

// Validate checks node kinds, container shapes and ID uniqueness.
func (d *Document) Validate() error {
	if d.Root == nil {
		return fmt.Errorf("%w: missing root node", ErrInvalid)
	}
	if d.Width < 0 || d.Height < 0 {
		return fmt.Errorf("%w: negative window size", ErrInvalid)
	}

	ids := make(map[string]bool)
	var err error
	d.Root.Walk(func(n *Node) bool {
		err = validateNode(n, ids)
		return err == nil
	})
	return err
}

func validateNode(n *Node, ids map[string]bool) error {
	if !n.Kind.valid() {
		return fmt.Errorf("%w: unknown node kind %q", ErrInvalid, n.Kind)
	}
	if n.ID != "" {
		if ids[n.ID] {
			return fmt.Errorf("%w: duplicate id %q", ErrInvalid, n.ID)
		}
		ids[n.ID] = true
	}
	if len(n.Children) > 0 && !n.Kind.isContainer() && n.Kind != KindSplit && n.Kind != KindCard {
		return fmt.Errorf("%w: %s node %q cannot have children", ErrInvalid, n.Kind, n.ID)
	}
	if len(n.regions()) > 0 && n.Kind != KindBorder {
		return fmt.Errorf("%w: only border nodes have regions, got %s", ErrInvalid, n.Kind)
	}

	switch n.Kind {
	case KindSplit:
		if len(n.Children) != 2 {
			return fmt.Errorf("%w: split needs exactly 2 children, got %d", ErrInvalid, len(n.Children))
		}
		if n.Orientation != "" && n.Orientation != Horizontal && n.Orientation != Vertical {
			return fmt.Errorf("%w: unknown split orientation %q", ErrInvalid, n.Orientation)
		}
		if n.Offset != nil && (*n.Offset < 0 || *n.Offset > 1) {
			return fmt.Errorf("%w: split offset %v out of range [0,1]", ErrInvalid, *n.Offset)
		}
	case KindCard:
		if len(n.Children) > 1 {
			return fmt.Errorf("%w: card takes at most 1 child, got %d", ErrInvalid, len(n.Children))
		}
	case KindTabs:
		for _, child := range n.Children {
			if child.Text == "" {
				return fmt.Errorf("%w: every tab needs a text title", ErrInvalid)
			}
		}
	}
	return nil
}
