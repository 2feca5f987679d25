package db

import (
	"errors"
	"fmt"
	"testing"
)

func TestError_UnwrapsSentinelAndCause(t *testing.T) {
	cause := errors.New("idx: no such index")
	err := fmt.Errorf("search documents: %w",
		&Error{Op: OpSearch, Err: fmt.Errorf("%w: %w", ErrIndexNotFound, cause)})

	if !errors.Is(err, ErrIndexNotFound) {
		t.Error("expected ErrIndexNotFound in chain")
	}
	if !errors.Is(err, cause) {
		t.Error("expected backend cause in chain")
	}

	var dbErr *Error
	if !errors.As(err, &dbErr) || dbErr.Op != OpSearch {
		t.Fatalf("expected *Error with op %s, got %v", OpSearch, err)
	}
	if got, want := dbErr.Error(), "FT.SEARCH: db: index not found: idx: no such index"; got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}
