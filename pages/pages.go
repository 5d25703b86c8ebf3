package pages

import (
	"errors"
	"fmt"

	"github.com/figharvest/figharvest/core"
)

// ErrPageTreeCycle is returned when a /Kids entry points back at an ancestor
var ErrPageTreeCycle = errors.New("page tree cycle")

// ObjectResolver resolves indirect references
type ObjectResolver interface {
	Resolve(obj core.Object) (core.Object, error)
	ResolveReference(ref core.IndirectRef) (core.Object, error)
}

// Catalog is the document catalog, the root of the object graph
type Catalog struct {
	dict     core.Dict
	resolver ObjectResolver
}

// NewCatalog wraps a catalog dictionary
func NewCatalog(dict core.Dict, resolver ObjectResolver) *Catalog {
	return &Catalog{dict: dict, resolver: resolver}
}

// Pages returns the root node of the page tree
func (c *Catalog) Pages() (core.Dict, error) {
	obj := c.dict.Get("Pages")
	if obj == nil {
		return nil, fmt.Errorf("catalog missing /Pages entry")
	}
	resolved, err := c.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("resolve /Pages: %w", err)
	}
	dict, ok := resolved.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid /Pages type: %T", resolved)
	}
	return dict, nil
}

// Version returns the /Version entry, which overrides the header version
// of documents updated incrementally. It is empty when absent.
func (c *Catalog) Version() string {
	name, _ := c.dict.GetName("Version")
	return string(name)
}

// PageTree flattens the page tree into document order on first use.
type PageTree struct {
	root     core.Dict
	resolver ObjectResolver
	pages    []*Page
	loaded   bool
}

// NewPageTree creates a page tree from its root /Pages dictionary
func NewPageTree(root core.Dict, resolver ObjectResolver) *PageTree {
	return &PageTree{root: root, resolver: resolver}
}

// Count returns the number of page leaves found by walking the tree. The
// root /Count is ignored.
func (t *PageTree) Count() (int, error) {
	if err := t.load(); err != nil {
		return 0, err
	}
	return len(t.pages), nil
}

// GetPage returns the page at index (0-based)
func (t *PageTree) GetPage(index int) (*Page, error) {
	if err := t.load(); err != nil {
		return nil, err
	}
	if index < 0 || index >= len(t.pages) {
		return nil, fmt.Errorf("page index %d out of range [0, %d)", index, len(t.pages))
	}
	return t.pages[index], nil
}

func (t *PageTree) load() error {
	if t.loaded {
		return nil
	}
	if err := t.walk(t.root, nil, map[int]bool{}); err != nil {
		return fmt.Errorf("traverse page tree: %w", err)
	}
	t.loaded = true
	return nil
}

// walk visits node depth first. ancestors holds the /Pages nodes above it,
// nearest first, for attribute inheritance.
func (t *PageTree) walk(node core.Dict, ancestors []core.Dict, visiting map[int]bool) error {
	typ, _ := node.GetName("Type")
	kidsObj := node.Get("Kids")

	// leaves without /Type are common enough to accept
	if typ == "Page" || (typ == "" && kidsObj == nil) {
		t.pages = append(t.pages, NewPage(node, t.resolver, ancestors...))
		return nil
	}
	if kidsObj == nil {
		return fmt.Errorf("%s node missing /Kids", typ)
	}

	resolved, err := t.resolver.Resolve(kidsObj)
	if err != nil {
		return fmt.Errorf("resolve /Kids: %w", err)
	}
	kids, ok := resolved.(core.Array)
	if !ok {
		return fmt.Errorf("invalid /Kids type: %T", resolved)
	}

	chain := append([]core.Dict{node}, ancestors...)
	for i, kid := range kids {
		ref, isRef := kid.(core.IndirectRef)
		if isRef {
			if visiting[ref.Number] {
				return fmt.Errorf("kid %d (%s): %w", i, ref, ErrPageTreeCycle)
			}
			visiting[ref.Number] = true
		}
		obj, err := t.resolver.Resolve(kid)
		if err != nil {
			return fmt.Errorf("resolve kid %d: %w", i, err)
		}
		dict, ok := obj.(core.Dict)
		if !ok {
			return fmt.Errorf("invalid kid %d type: %T", i, obj)
		}
		if err := t.walk(dict, chain, visiting); err != nil {
			return err
		}
		if isRef {
			delete(visiting, ref.Number)
		}
	}
	return nil
}

// Page is one leaf of the page tree
type Page struct {
	dict      core.Dict
	inherited []core.Dict // ancestor /Pages nodes, nearest first
	resolver  ObjectResolver
}

// NewPage creates a page from its dictionary and its ancestors, nearest
// first.
func NewPage(dict core.Dict, resolver ObjectResolver, ancestors ...core.Dict) *Page {
	return &Page{dict: dict, inherited: ancestors, resolver: resolver}
}

// attr looks up an inheritable attribute on the page, then its ancestors
func (p *Page) attr(key string) (core.Object, error) {
	obj := p.dict.Get(key)
	for i := 0; obj == nil && i < len(p.inherited); i++ {
		obj = p.inherited[i].Get(key)
	}
	if obj == nil {
		return nil, nil
	}
	return p.resolver.Resolve(obj)
}

// MediaBox returns the inheritable media box [llx lly urx ury]
func (p *Page) MediaBox() ([]float64, error) {
	box, err := p.box("MediaBox")
	if err != nil {
		return nil, err
	}
	if box == nil {
		return nil, fmt.Errorf("MediaBox not found")
	}
	return box, nil
}

// CropBox returns the visible region, defaulting to the media box. A crop
// box reaching outside the media box is intersected with it.
func (p *Page) CropBox() ([]float64, error) {
	media, err := p.MediaBox()
	if err != nil {
		return nil, err
	}
	crop, err := p.box("CropBox")
	if err != nil || crop == nil {
		return media, nil
	}
	clipped := []float64{
		max(crop[0], media[0]), max(crop[1], media[1]),
		min(crop[2], media[2]), min(crop[3], media[3]),
	}
	if clipped[0] >= clipped[2] || clipped[1] >= clipped[3] {
		return media, nil
	}
	return clipped, nil
}

// box reads a rectangle attribute, normalizing corner order. It returns
// nil without error when the attribute is absent.
func (p *Page) box(name string) ([]float64, error) {
	obj, err := p.attr(name)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", name, err)
	}
	if obj == nil {
		return nil, nil
	}
	arr, ok := obj.(core.Array)
	if !ok || len(arr) != 4 {
		return nil, fmt.Errorf("invalid %s: %v", name, obj)
	}
	var v [4]float64
	for i, elem := range arr {
		switch n := elem.(type) {
		case core.Int:
			v[i] = float64(n)
		case core.Real:
			v[i] = float64(n)
		default:
			return nil, fmt.Errorf("invalid %s element type: %T", name, elem)
		}
	}
	return []float64{min(v[0], v[2]), min(v[1], v[3]), max(v[0], v[2]), max(v[1], v[3])}, nil
}

// Resources returns the inheritable resource dictionary
func (p *Page) Resources() (core.Dict, error) {
	obj, err := p.attr("Resources")
	if err != nil {
		return nil, fmt.Errorf("resolve Resources: %w", err)
	}
	if obj == nil {
		return nil, fmt.Errorf("resources not found")
	}
	dict, ok := obj.(core.Dict)
	if !ok {
		return nil, fmt.Errorf("invalid Resources type: %T", obj)
	}
	return dict, nil
}

// Contents returns the page's content streams in drawing order, or nil for
// a page without content.
func (p *Page) Contents() ([]core.Object, error) {
	obj := p.dict.Get("Contents")
	if obj == nil {
		return nil, nil
	}
	resolved, err := p.resolver.Resolve(obj)
	if err != nil {
		return nil, fmt.Errorf("resolve Contents: %w", err)
	}

	switch v := resolved.(type) {
	case *core.Stream:
		return []core.Object{v}, nil
	case core.Array:
		streams := make([]core.Object, len(v))
		for i, elem := range v {
			if streams[i], err = p.resolver.Resolve(elem); err != nil {
				return nil, fmt.Errorf("resolve Contents[%d]: %w", i, err)
			}
		}
		return streams, nil
	case core.Null:
		return nil, nil
	default:
		return nil, fmt.Errorf("invalid Contents type: %T", resolved)
	}
}

// Rotate returns the inheritable display rotation in degrees clockwise,
// normalized to 0, 90, 180 or 270.
func (p *Page) Rotate() int {
	obj, err := p.attr("Rotate")
	if err != nil {
		return 0
	}
	n, ok := obj.(core.Int)
	if !ok {
		return 0
	}
	r := int(n) % 360
	if r < 0 {
		r += 360
	}
	return r / 90 * 90
}

// Width returns the media box width
func (p *Page) Width() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[2] - box[0], nil
}

// Height returns the media box height
func (p *Page) Height() (float64, error) {
	box, err := p.MediaBox()
	if err != nil {
		return 0, err
	}
	return box[3] - box[1], nil
}
