package forge

import (
	"io/fs"
	"testing"

	"github.com/forgepkg/forge/digest"
)

func TestObjectRoundTrip(t *testing.T) {
	payload := digest.FromBytes([]byte("hello world"))
	cases := []Object{
		Blob{PayloadDigest: payload, Size: 11},
		Tree{Children: []TreeChild{
			{Name: "a.txt", Mode: 0o644, Kind: EntryBlob, Digest: payload},
			{Name: "sub", Mode: fs.ModeDir | 0o755, Kind: EntryTree, Digest: digest.FromBytes([]byte("sub"))},
		}},
		ManifestObject{Root: digest.FromBytes([]byte("root"))},
		Layer{ManifestDigest: digest.FromBytes([]byte("layer"))},
		Platform{Layers: []digest.Digest{
			digest.FromBytes([]byte("base")),
			digest.FromBytes([]byte("overlay")),
		}},
		Mask{},
	}

	for _, want := range cases {
		raw := Marshal(want)
		got, err := Decode(raw)
		if err != nil {
			t.Fatalf("Decode(%v): %v", want.Kind(), err)
		}
		if Digest(got) != Digest(want) {
			t.Fatalf("%v: digest(decode(encode(x))) != digest(x)", want.Kind())
		}
		if got.Kind() != want.Kind() {
			t.Fatalf("Kind() = %v, want %v", got.Kind(), want.Kind())
		}
	}
}

func TestObjectEncodingIsDeterministic(t *testing.T) {
	tree := Tree{Children: []TreeChild{
		{Name: "a", Mode: 0o644, Kind: EntryBlob, Digest: digest.FromBytes([]byte("a"))},
		{Name: "b", Mode: 0o644, Kind: EntryBlob, Digest: digest.FromBytes([]byte("b"))},
	}}
	d1 := Digest(tree)
	d2 := Digest(Tree{Children: append([]TreeChild(nil), tree.Children...)})
	if d1 != d2 {
		t.Fatalf("identical trees produced different digests: %s != %s", d1, d2)
	}
}

func TestDecodeUnknownKind(t *testing.T) {
	if _, err := Decode([]byte{0xff}); err == nil {
		t.Fatalf("expected an error decoding an unregistered kind byte")
	}
}

func TestDecodeMaskRejectsTrailingBytes(t *testing.T) {
	raw := Marshal(Mask{})
	raw = append(raw, 0x01)
	if _, err := Decode(raw); err == nil {
		t.Fatalf("expected trailing bytes after a mask body to be rejected")
	}
}
