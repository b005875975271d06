package presentation

import (
	"fmt"

	"fyne.io/fyne/v2"
	"fyne.io/fyne/v2/container"
	fynelayout "fyne.io/fyne/v2/layout"
	"fyne.io/fyne/v2/widget"

	"tsanomaly/domain/layout"
)

// View is a built layout: the root canvas object plus widgets indexed by node ID.
type View struct {
	Root    fyne.CanvasObject
	widgets map[string]fyne.CanvasObject
}

// Widget returns the object built for the node with the given ID, or nil.
func (v *View) Widget(id string) fyne.CanvasObject {
	return v.widgets[id]
}

// Label returns the label with the given ID, or nil if absent or of another kind.
func (v *View) Label(id string) *widget.Label {
	l, _ := v.widgets[id].(*widget.Label)
	return l
}

// ProgressBar returns the progress bar with the given ID, or nil.
func (v *View) ProgressBar(id string) *widget.ProgressBar {
	p, _ := v.widgets[id].(*widget.ProgressBar)
	return p
}

// Build turns a layout document into Fyne objects.
func Build(doc *layout.Document) (*View, error) {
	if doc == nil || doc.Root == nil {
		return nil, fmt.Errorf("%w: empty document", layout.ErrInvalid)
	}

	v := &View{widgets: make(map[string]fyne.CanvasObject)}
	root, err := v.build(doc.Root)
	if err != nil {
		return nil, err
	}
	v.Root = root
	return v, nil
}

func (v *View) build(n *layout.Node) (fyne.CanvasObject, error) {
	obj, err := v.buildNode(n)
	if err != nil {
		return nil, err
	}
	if n.ID != "" {
		v.widgets[n.ID] = obj
	}
	return obj, nil
}

func (v *View) buildNode(n *layout.Node) (fyne.CanvasObject, error) {
	switch n.Kind {
	case layout.KindVBox:
		children, err := v.buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		return container.NewVBox(children...), nil

	case layout.KindHBox:
		children, err := v.buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		return container.NewHBox(children...), nil

	case layout.KindBorder:
		return v.buildBorder(n)

	case layout.KindSplit:
		children, err := v.buildAll(n.Children)
		if err != nil {
			return nil, err
		}
		if len(children) != 2 {
			return nil, fmt.Errorf("%w: split needs exactly 2 children", layout.ErrInvalid)
		}
		var split *container.Split
		if n.Orientation == layout.Vertical {
			split = container.NewVSplit(children[0], children[1])
		} else {
			split = container.NewHSplit(children[0], children[1])
		}
		if n.Offset != nil {
			split.SetOffset(*n.Offset)
		}
		return split, nil

	case layout.KindTabs:
		tabs := container.NewAppTabs()
		for _, child := range n.Children {
			obj, err := v.build(child)
			if err != nil {
				return nil, err
			}
			tabs.Append(container.NewTabItem(child.Text, obj))
		}
		return tabs, nil

	case layout.KindCard:
		var content fyne.CanvasObject
		if len(n.Children) > 0 {
			obj, err := v.build(n.Children[0])
			if err != nil {
				return nil, err
			}
			content = obj
		}
		return widget.NewCard(n.Text, n.Subtitle, content), nil

	case layout.KindLabel:
		return widget.NewLabel(n.Text), nil

	case layout.KindButton:
		return widget.NewButton(n.Text, nil), nil

	case layout.KindEntry:
		entry := widget.NewEntry()
		entry.SetPlaceHolder(n.Placeholder)
		entry.SetText(n.Text)
		return entry, nil

	case layout.KindCheck:
		return widget.NewCheck(n.Text, nil), nil

	case layout.KindSelect:
		sel := widget.NewSelect(n.Options, nil)
		if n.Placeholder != "" {
			sel.PlaceHolder = n.Placeholder
		}
		return sel, nil

	case layout.KindSeparator:
		return widget.NewSeparator(), nil

	case layout.KindSpacer:
		return fynelayout.NewSpacer(), nil

	case layout.KindProgress:
		return widget.NewProgressBar(), nil

	default:
		return nil, fmt.Errorf("%w: unknown node kind %q", layout.ErrInvalid, n.Kind)
	}
}

func (v *View) buildAll(nodes []*layout.Node) ([]fyne.CanvasObject, error) {
	objs := make([]fyne.CanvasObject, 0, len(nodes))
	for _, n := range nodes {
		obj, err := v.build(n)
		if err != nil {
			return nil, err
		}
		objs = append(objs, obj)
	}
	return objs, nil
}

func (v *View) buildBorder(n *layout.Node) (fyne.CanvasObject, error) {
	region := func(r *layout.Node) (fyne.CanvasObject, error) {
		if r == nil {
			return nil, nil
		}
		return v.build(r)
	}

	top, err := region(n.Top)
	if err != nil {
		return nil, err
	}
	bottom, err := region(n.Bottom)
	if err != nil {
		return nil, err
	}
	left, err := region(n.Left)
	if err != nil {
		return nil, err
	}
	right, err := region(n.Right)
	if err != nil {
		return nil, err
	}
	center, err := region(n.Center)
	if err != nil {
		return nil, err
	}

	if center == nil {
		return container.NewBorder(top, bottom, left, right), nil
	}
	return container.NewBorder(top, bottom, left, right, center), nil
}
