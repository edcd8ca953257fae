package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"
)

func TestWrapPreservesCause(t *testing.T) {
	t.Parallel()

	cause := stdErrors.New("socket closed")
	err := Wrap(CodeDependency, cause, "toggle wishlist")

	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped cause to be findable")
	}
	if err.Code() != CodeDependency {
		t.Fatalf("unexpected code %s", err.Code())
	}
}

func TestAsFindsTypedErrorThroughWrapping(t *testing.T) {
	t.Parallel()

	inner := New(CodeLoginRequired, "wishlist requires a signed-in session")
	outer := fmt.Errorf("handling toggle: %w", inner)

	typed := As(outer)
	if typed == nil {
		t.Fatal("expected typed error")
	}
	if typed.Code() != CodeLoginRequired {
		t.Fatalf("unexpected code %s", typed.Code())
	}
}

func TestMetadataForUnknownCodeFallsBackToInternal(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(Code("SOMETHING_ELSE"))
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
}

func TestLoginRequiredMapsToUnauthorizedStatus(t *testing.T) {
	t.Parallel()

	meta := MetadataFor(CodeLoginRequired)
	if meta.HTTPStatus != http.StatusUnauthorized {
		t.Fatalf("unexpected status %d", meta.HTTPStatus)
	}
	if !meta.DetailsAllowed {
		t.Fatal("login-required responses carry redirect details")
	}
}
