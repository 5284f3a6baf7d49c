package forgeerr

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsMatchesKind(t *testing.T) {
	err := UnknownObjectError("sha256:abc")
	if !Is(err, UnknownObject) {
		t.Fatalf("expected Is(err, UnknownObject) to hold")
	}
	if Is(err, UnknownReference) {
		t.Fatalf("expected Is(err, UnknownReference) to be false")
	}
}

func TestIsSeesThroughWrapping(t *testing.T) {
	err := fmt.Errorf("while loading: %w", PackageNotFoundError("mypkg/1.0.0"))
	if !Is(err, PackageNotFound) {
		t.Fatalf("expected Is to see through fmt.Errorf wrapping")
	}
}

func TestStorageErrorUnwrapsCause(t *testing.T) {
	cause := errors.New("disk full")
	err := StorageWriteError("PutContent", "/objects/ab/cd", cause)
	if !errors.Is(err, cause) {
		t.Fatalf("expected errors.Is to find the wrapped cause")
	}
}

func TestReasonDetailRoundTrips(t *testing.T) {
	err := IncompatibleReasonError(ReasonMissingComponent, "docs")
	detail, ok := ReasonDetail(err)
	if !ok {
		t.Fatalf("expected ReasonDetail to extract the structured reason")
	}
	if detail.Reason != ReasonMissingComponent || detail.Detail != "docs" {
		t.Fatalf("ReasonDetail = %+v", detail)
	}
}

func TestReasonDetailRejectsOtherKinds(t *testing.T) {
	if _, ok := ReasonDetail(UnknownObjectError("sha256:abc")); ok {
		t.Fatalf("expected ReasonDetail to reject a non-IncompatibleReason error")
	}
}
