// Package location models the location hierarchy that identifier prefixes
// are derived from, and resolves the nearest prefix by walking up the tree.
package location

import "context"

// PrefixAttributeType is the attribute type carrying a location's prefix.
const PrefixAttributeType = "Prefix"

// Attribute is a typed value attached to a location.
type Attribute struct {
	TypeName string
	Value    string
	Retired  bool
}

// Node is one location in the hierarchy. Parent returns nil at the root.
type Node interface {
	Attributes() []Attribute
	Parent() Node
}

// Location is the in-memory Node implementation used by the repository layer.
type Location struct {
	ID             int64
	Name           string
	Attrs          []Attribute
	ParentLocation *Location
}

// NewLocation creates a location with the given attributes.
func NewLocation(name string, attrs ...Attribute) *Location {
	return &Location{Name: name, Attrs: attrs}
}

// AddChild sets l as the parent of child.
func (l *Location) AddChild(child *Location) {
	child.ParentLocation = l
}

// AddAttribute appends an active attribute.
func (l *Location) AddAttribute(typeName, value string) {
	l.Attrs = append(l.Attrs, Attribute{TypeName: typeName, Value: value})
}

// Attributes returns the active (non-retired) attributes in insertion order.
func (l *Location) Attributes() []Attribute {
	if l == nil {
		return nil
	}
	active := make([]Attribute, 0, len(l.Attrs))
	for _, a := range l.Attrs {
		if !a.Retired {
			active = append(active, a)
		}
	}
	return active
}

// Parent returns the parent location, or nil for a root.
func (l *Location) Parent() Node {
	if l == nil || l.ParentLocation == nil {
		return nil
	}
	return l.ParentLocation
}

type ctxKey struct{}

// WithCurrentLocation stores the caller's current location in the context.
func WithCurrentLocation(ctx context.Context, node Node) context.Context {
	return context.WithValue(ctx, ctxKey{}, node)
}

// CurrentLocation returns the location stored by WithCurrentLocation.
func CurrentLocation(ctx context.Context) (Node, bool) {
	node, ok := ctx.Value(ctxKey{}).(Node)
	if !ok || node == nil {
		return nil, false
	}
	return node, true
}
