package errors

import (
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	cause := fmt.Errorf("disk full")
	err := Wrap(CodeStorageQuota, cause, "persist records")

	if err.Code() != CodeStorageQuota {
		t.Fatalf("expected storage quota code, got %s", err.Code())
	}
	if err.Unwrap() != cause {
		t.Fatal("expected cause to be preserved")
	}
	if got := err.Error(); got != "persist records: disk full" {
		t.Fatalf("unexpected message %q", got)
	}
}

func TestAsFindsTypedError(t *testing.T) {
	inner := New(CodeOffline, "no connectivity")
	wrapped := fmt.Errorf("outer: %w", inner)

	typed := As(wrapped)
	if typed == nil {
		t.Fatal("expected typed error in chain")
	}
	if typed.Code() != CodeOffline {
		t.Fatalf("unexpected code %s", typed.Code())
	}
	if !Is(wrapped, CodeOffline) {
		t.Fatal("expected Is to match code through wrapping")
	}
}

func TestMetadataForUnknownCodeFallsBack(t *testing.T) {
	meta := MetadataFor(Code("BOGUS"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal fallback, got %d", meta.HTTPStatus)
	}
}

func TestDumpCollectsChain(t *testing.T) {
	err := Wrap(CodeDependency, fmt.Errorf("socket closed"), "upload batch")
	dump := Dump(err)

	if dump.Code != CodeDependency {
		t.Fatalf("unexpected code %s", dump.Code)
	}
	if len(dump.Chain) != 2 {
		t.Fatalf("expected 2 chain entries, got %d", len(dump.Chain))
	}
}
