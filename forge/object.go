package forge

import (
	"fmt"

	"github.com/forgepkg/forge/digest"
)

// Kind tags the variant of an Object, and is the first byte of its
// canonical encoding so that Decode can dispatch without looking at the
// digest that names it.
type Kind byte

const (
	KindBlob Kind = iota + 1
	KindTree
	KindManifest
	KindLayer
	KindPlatform
	KindMask
)

func (k Kind) String() string {
	switch k {
	case KindBlob:
		return "blob"
	case KindTree:
		return "tree"
	case KindManifest:
		return "manifest"
	case KindLayer:
		return "layer"
	case KindPlatform:
		return "platform"
	case KindMask:
		return "mask"
	default:
		return fmt.Sprintf("unknown(%d)", byte(k))
	}
}

// Object is the graph-level tagged variant described by spec.md §3: Blob,
// Tree, Manifest, Layer, Platform, or Mask. Every Object has a canonical
// byte encoding; its digest is the hash of that encoding, so
// digest(decode(encode(x))) == digest(x) always holds.
type Object interface {
	Kind() Kind
	// Encode returns the canonical byte representation of the object,
	// not including the leading Kind byte -- Digest and the graph store
	// both prepend it themselves so encoders don't have to.
	Encode() []byte
}

// Digest computes the content digest of o: the hash of its Kind byte
// followed by its canonical encoding. Two Objects with equal digests are
// guaranteed byte-identical encodings, and vice versa.
func Digest(o Object) digest.Digest {
	return digest.FromBytes(append([]byte{byte(o.Kind())}, o.Encode()...))
}

// decodeFunc decodes an Object's body (the encoding with the leading Kind
// byte already stripped).
type decodeFunc func(body []byte) (Object, error)

var decoders = map[Kind]decodeFunc{}

// registerKind installs the decoder for a Kind. Called from init() in
// this package only -- the vocabulary is closed, unlike distribution's
// manifest media types, which third-party packages register themselves.
func registerKind(k Kind, fn decodeFunc) {
	decoders[k] = fn
}

func init() {
	registerKind(KindBlob, decodeBlob)
	registerKind(KindTree, decodeTree)
	registerKind(KindManifest, decodeManifestObject)
	registerKind(KindLayer, decodeLayer)
	registerKind(KindPlatform, decodePlatform)
	registerKind(KindMask, decodeMask)
}

// Decode parses raw, the full encoding including its leading Kind byte,
// into the matching Object variant.
func Decode(raw []byte) (Object, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("forge: empty object encoding")
	}
	kind := Kind(raw[0])
	fn, ok := decoders[kind]
	if !ok {
		return nil, fmt.Errorf("forge: unknown object kind %d", raw[0])
	}
	return fn(raw[1:])
}

// Marshal returns o's full encoding, including its leading Kind byte --
// the exact bytes that Digest hashes and that the object graph stores.
func Marshal(o Object) []byte {
	return append([]byte{byte(o.Kind())}, o.Encode()...)
}
