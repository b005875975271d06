package layout

import (
	"errors"
	"fmt"
	"io/fs"
	"sync"

	"gopkg.in/yaml.v3"
)

// yamlDocument is the YAML structure for layout resources.
type yamlDocument struct {
	Window struct {
		Width  float32 `yaml:"width"`
		Height float32 `yaml:"height"`
	} `yaml:"window"`
	Root *yamlNode `yaml:"root"`
}

type yamlNode struct {
	Kind        string      `yaml:"kind"`
	ID          string      `yaml:"id"`
	Text        string      `yaml:"text"`
	Subtitle    string      `yaml:"subtitle"`
	Placeholder string      `yaml:"placeholder"`
	Options     []string    `yaml:"options"`
	Orientation string      `yaml:"orientation"`
	Offset      *float64    `yaml:"offset"`
	Children    []*yamlNode `yaml:"children"`
	Top         *yamlNode   `yaml:"top"`
	Bottom      *yamlNode   `yaml:"bottom"`
	Left        *yamlNode   `yaml:"left"`
	Right       *yamlNode   `yaml:"right"`
	Center      *yamlNode   `yaml:"center"`
}

// Loader reads layout documents and caches them by path.
type Loader struct {
	cache map[string]*Document
	mu    sync.RWMutex
}

// NewLoader creates a new layout loader.
func NewLoader() *Loader {
	return &Loader{cache: make(map[string]*Document)}
}

// Load reads, parses and validates the layout at path. A missing file yields
// an error wrapping ErrNotFound.
func (l *Loader) Load(fsys fs.FS, path string) (*Document, error) {
	l.mu.RLock()
	doc, ok := l.cache[path]
	l.mu.RUnlock()
	if ok {
		return doc, nil
	}

	if fsys == nil {
		return nil, fmt.Errorf("%w: %s: no resource filesystem", ErrNotFound, path)
	}

	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("failed to read layout file %s: %w", path, err)
	}

	doc, err = Parse(data)
	if err != nil {
		return nil, fmt.Errorf("layout file %s: %w", path, err)
	}

	l.mu.Lock()
	l.cache[path] = doc
	l.mu.Unlock()

	return doc, nil
}

// Forget drops a cached document so the next Load re-reads it.
func (l *Loader) Forget(path string) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.cache, path)
}

// Parse decodes and validates a YAML layout document.
func Parse(data []byte) (*Document, error) {
	var yd yamlDocument
	if err := yaml.Unmarshal(data, &yd); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalid, err)
	}

	doc := &Document{
		Width:  yd.Window.Width,
		Height: yd.Window.Height,
		Root:   convertYAMLNode(yd.Root),
	}
	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}

// convertYAMLNode converts a YAML node tree to domain Nodes.
func convertYAMLNode(yn *yamlNode) *Node {
	if yn == nil {
		return nil
	}

	n := &Node{
		Kind:        Kind(yn.Kind),
		ID:          yn.ID,
		Text:        yn.Text,
		Subtitle:    yn.Subtitle,
		Placeholder: yn.Placeholder,
		Options:     yn.Options,
		Orientation: Orientation(yn.Orientation),
		Offset:      yn.Offset,
		Top:         convertYAMLNode(yn.Top),
		Bottom:      convertYAMLNode(yn.Bottom),
		Left:        convertYAMLNode(yn.Left),
		Right:       convertYAMLNode(yn.Right),
		Center:      convertYAMLNode(yn.Center),
	}

	if len(yn.Children) > 0 {
		n.Children = make([]*Node, 0, len(yn.Children))
		for _, child := range yn.Children {
			if child == nil {
				continue
			}
			n.Children = append(n.Children, convertYAMLNode(child))
		}
	}

	return n
}
