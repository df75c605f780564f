package location

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrPrefixNotFound      = errors.New("no location prefix could be found up the location tree")
	ErrNoLocationInContext = errors.New("no location found in current context")
)

// ResolvePrefix returns the first non-blank value of an attribute named
// attributeType (case-insensitive) on node or its nearest ancestor. A blank
// value does not stop the walk.
func ResolvePrefix(node Node, attributeType string) (string, error) {
	for current := node; current != nil; current = current.Parent() {
		for _, attr := range current.Attributes() {
			if !strings.EqualFold(attr.TypeName, attributeType) {
				continue
			}
			if strings.TrimSpace(attr.Value) != "" {
				return attr.Value, nil
			}
		}
	}
	return "", fmt.Errorf("%w: attribute type %q", ErrPrefixNotFound, attributeType)
}

// LookupAttribute scans a single node for an attribute whose type name is
// exactly typeName. It does not climb the tree. When several attributes
// match, the first one in attribute order wins; OpenMRS keeps the last.
func LookupAttribute(node Node, typeName string) (string, bool) {
	if node == nil {
		return "", false
	}
	for _, attr := range node.Attributes() {
		if attr.TypeName == typeName {
			return attr.Value, true
		}
	}
	return "", false
}
