package errors

import (
	stderrors "errors"
	"fmt"
	"testing"
)

func TestClassifyHTTPError_Categories(t *testing.T) {
	t.Parallel()
	cases := []struct {
		status int
		want   ErrorCategory
	}{
		{400, Irrecoverable}, {401, Irrecoverable}, {409, Irrecoverable},
		{408, Recoverable}, {429, Recoverable}, {500, Recoverable}, {503, Recoverable},
	}
	for _, c := range cases {
		got := NewHTTPError(c.status, "", "login").Category
		if got != c.want {
			t.Fatalf("status %d: got %s want %s", c.status, got, c.want)
		}
	}
}

func TestIsIrrecoverable_SeesThroughWrapping(t *testing.T) {
	t.Parallel()
	err := fmt.Errorf("write: %w", Permanent(stderrors.New("bad value")))
	if !IsIrrecoverable(err) {
		t.Fatal("expected wrapped permanent error to be irrecoverable")
	}
	if IsIrrecoverable(NewNetworkError("login", stderrors.New("refused"))) {
		t.Fatal("network errors must stay recoverable")
	}
	if IsIrrecoverable(stderrors.New("plain")) {
		t.Fatal("unclassified errors are recoverable")
	}
}

func TestWrap_MatchesBothSentinelAndCause(t *testing.T) {
	t.Parallel()
	cause := NewHTTPError(401, `{"detail":"bad credentials"}`, "login")
	err := Wrap(ErrAuthentication, cause)
	if !stderrors.Is(err, ErrAuthentication) {
		t.Fatal("expected ErrAuthentication")
	}
	var ce *ClassifiedError
	if !stderrors.As(err, &ce) || ce.StatusCode != 401 {
		t.Fatalf("expected classified cause, got %v", err)
	}
	if Wrap(ErrPersistence, nil) != nil {
		t.Fatal("wrapping nil must stay nil")
	}
}

func TestNotFoundAndValidation(t *testing.T) {
	t.Parallel()
	if !stderrors.Is(NotFound("ticket", "t1"), ErrNotFound) {
		t.Fatal("expected ErrNotFound")
	}
	if err := Validation("priority %q", "asap"); !stderrors.Is(err, ErrValidation) || err.Error() != `validation error: priority "asap"` {
		t.Fatalf("unexpected validation error: %v", err)
	}
}
