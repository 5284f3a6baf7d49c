package inmemory

import (
	"bytes"
	"io/ioutil"
	"testing"

	"github.com/forgepkg/forge/storagedriver"
)

func TestPutGetContent(t *testing.T) {
	d := New()
	if err := d.PutContent("/a/b", []byte("hello")); err != nil {
		t.Fatal(err)
	}
	got, err := d.GetContent("/a/b")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello" {
		t.Fatalf("GetContent = %q", got)
	}
}

func TestGetContentMissing(t *testing.T) {
	d := New()
	if _, err := d.GetContent("/nope"); err == nil {
		t.Fatalf("expected PathNotFoundError")
	} else if _, ok := err.(storagedriver.PathNotFoundError); !ok {
		t.Fatalf("expected PathNotFoundError, got %T: %v", err, err)
	}
}

func TestWriteStreamThenReadStream(t *testing.T) {
	d := New()
	n, err := d.WriteStream("/x", 0, bytes.NewReader([]byte("hello world")))
	if err != nil {
		t.Fatal(err)
	}
	if n != int64(len("hello world")) {
		t.Fatalf("WriteStream returned %d", n)
	}

	rc, err := d.ReadStream("/x", 6)
	if err != nil {
		t.Fatal(err)
	}
	defer rc.Close()
	got, err := ioutil.ReadAll(rc)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "world" {
		t.Fatalf("ReadStream(offset=6) = %q", got)
	}
}

func TestWriteStreamResumesAtOffset(t *testing.T) {
	d := New()
	if _, err := d.WriteStream("/x", 0, bytes.NewReader([]byte("hello"))); err != nil {
		t.Fatal(err)
	}
	if _, err := d.WriteStream("/x", 5, bytes.NewReader([]byte(" world"))); err != nil {
		t.Fatal(err)
	}
	got, err := d.GetContent("/x")
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "hello world" {
		t.Fatalf("GetContent = %q", got)
	}
}

func TestStatDistinguishesFileAndDir(t *testing.T) {
	d := New()
	if err := d.PutContent("/a/b/c", []byte("x")); err != nil {
		t.Fatal(err)
	}

	fi, err := d.Stat("/a/b/c")
	if err != nil {
		t.Fatal(err)
	}
	if fi.IsDir() {
		t.Fatalf("expected file, got dir")
	}

	fi, err = d.Stat("/a/b")
	if err != nil {
		t.Fatal(err)
	}
	if !fi.IsDir() {
		t.Fatalf("expected dir, got file")
	}
}

func TestListReturnsDirectDescendants(t *testing.T) {
	d := New()
	for _, p := range []string{"/a/1", "/a/2", "/a/b/3"} {
		if err := d.PutContent(p, []byte("x")); err != nil {
			t.Fatal(err)
		}
	}

	got, err := d.List("/a")
	if err != nil {
		t.Fatal(err)
	}
	want := []string{"/a/1", "/a/2", "/a/b"}
	if len(got) != len(want) {
		t.Fatalf("List(/a) = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("List(/a) = %v, want %v", got, want)
		}
	}
}

func TestMoveAndDelete(t *testing.T) {
	d := New()
	if err := d.PutContent("/a", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := d.Move("/a", "/b"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetContent("/a"); err == nil {
		t.Fatalf("expected /a gone after Move")
	}
	if _, err := d.GetContent("/b"); err != nil {
		t.Fatal(err)
	}

	if err := d.Delete("/b"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetContent("/b"); err == nil {
		t.Fatalf("expected /b gone after Delete")
	}
}
