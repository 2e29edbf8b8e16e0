package realmauth

import (
	"errors"
	"strings"
	"testing"
	"time"
)

func TestUserMessageFixedStrings(t *testing.T) {
	cases := []struct {
		err  error
		want string
	}{
		{ErrSubdomainTooShort, msgSubdomainTooShort},
		{ErrWrongRealm, msgWrongRealm},
		{ErrAccountDeactivated, msgAccountDeactivated},
		{ErrPasswordResetRequired, msgPasswordResetNeeded},
		{ErrPasswordTooWeak, msgPasswordTooWeak},
		{ErrResetTokenInvalid, msgResetTokenInvalid},
	}

	for _, tc := range cases {
		if got := UserMessage(tc.err); got != tc.want {
			t.Fatalf("UserMessage(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
}

func TestUserMessageRateLimitedIncludesSeconds(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 90 * time.Second}
	msg := UserMessage(err)
	if !strings.Contains(msg, "90 seconds") {
		t.Fatalf("expected retry seconds in message, got %q", msg)
	}
}

func TestUserMessageRateLimitedRoundsUp(t *testing.T) {
	err := &RateLimitedError{RetryAfter: 300 * time.Millisecond}
	if err.RetryAfterSeconds() != 1 {
		t.Fatalf("sub-second wait must round up to 1, got %d", err.RetryAfterSeconds())
	}
}

func TestUserMessageHidesInternals(t *testing.T) {
	fault := internalFault("identity lookup", errors.New("pq: connection refused"))
	msg := UserMessage(fault)
	if msg != msgInternal {
		t.Fatalf("internal fault must map to generic message, got %q", msg)
	}
	if strings.Contains(msg, "connection refused") {
		t.Fatal("internal detail leaked into user message")
	}
}

func TestInternalFaultErrorUnwraps(t *testing.T) {
	cause := errors.New("boom")
	fault := internalFault("op", cause)

	if !errors.Is(fault, ErrInternalFault) {
		t.Fatal("expected ErrInternalFault match")
	}
	if !errors.Is(fault, cause) {
		t.Fatal("expected cause to unwrap")
	}
}
