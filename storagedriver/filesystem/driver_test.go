package filesystem

import (
	"bytes"
	"io/ioutil"
	"os"
	"testing"

	"github.com/forgepkg/forge/storagedriver"
)

func newTestDriver(t *testing.T) *Driver {
	t.Helper()
	dir, err := ioutil.TempDir("", "forge-filesystem-driver")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return New(dir)
}

func TestPutGetContent(t *testing.T) {
	d := newTestDriver(t)
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
	d := newTestDriver(t)
	if _, err := d.GetContent("/nope"); err == nil {
		t.Fatalf("expected PathNotFoundError")
	} else if _, ok := err.(storagedriver.PathNotFoundError); !ok {
		t.Fatalf("expected PathNotFoundError, got %T: %v", err, err)
	}
}

func TestWriteStreamResumesAtOffset(t *testing.T) {
	d := newTestDriver(t)
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

func TestStatReportsSizeAndKind(t *testing.T) {
	d := newTestDriver(t)
	if err := d.PutContent("/a/b/c", []byte("xyz")); err != nil {
		t.Fatal(err)
	}

	fi, err := d.Stat("/a/b/c")
	if err != nil {
		t.Fatal(err)
	}
	if fi.IsDir() || fi.Size() != 3 {
		t.Fatalf("Stat(/a/b/c) = %+v", fi)
	}

	fi, err = d.Stat("/a/b")
	if err != nil {
		t.Fatal(err)
	}
	if !fi.IsDir() {
		t.Fatalf("expected /a/b to be a directory")
	}
}

func TestMoveAndDelete(t *testing.T) {
	d := newTestDriver(t)
	if err := d.PutContent("/a", []byte("x")); err != nil {
		t.Fatal(err)
	}
	if err := d.Move("/a", "/nested/b"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetContent("/a"); err == nil {
		t.Fatalf("expected /a gone after Move")
	}
	if _, err := d.GetContent("/nested/b"); err != nil {
		t.Fatal(err)
	}

	if err := d.Delete("/nested/b"); err != nil {
		t.Fatal(err)
	}
	if _, err := d.GetContent("/nested/b"); err == nil {
		t.Fatalf("expected /nested/b gone after Delete")
	}
}
