package forge

import "fmt"

// Mask is a structural no-op object used by the renderer: its presence in
// a Tree's children marks a deletion overlay rather than file content, and
// it carries no fields of its own.
type Mask struct{}

func (m Mask) Kind() Kind { return KindMask }

func (m Mask) Encode() []byte { return nil }

func decodeMask(body []byte) (Object, error) {
	if len(body) != 0 {
		return nil, fmt.Errorf("forge: mask object must have an empty body, got %d bytes", len(body))
	}
	return Mask{}, nil
}
