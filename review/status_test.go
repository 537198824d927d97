package review

import (
	"errors"
	"testing"
)

func TestFromFlagsTieBreak(t *testing.T) {
	cases := []struct {
		complete, revision, ready bool
		want                      Status
	}{
		{false, false, false, StatusBlank},
		{false, false, true, StatusReadyReview},
		{false, true, false, StatusRevisionNeeded},
		{true, false, false, StatusComplete},
		// legacy records could carry several flags at once
		{true, true, true, StatusComplete},
		{false, true, true, StatusRevisionNeeded},
		{true, false, true, StatusComplete},
	}
	for _, c := range cases {
		if got := FromFlags(c.complete, c.revision, c.ready); got != c.want {
			t.Fatalf("FromFlags(%v,%v,%v) = %s, want %s", c.complete, c.revision, c.ready, got, c.want)
		}
	}
}

func TestFlagsRoundTrip(t *testing.T) {
	for _, s := range []Status{StatusBlank, StatusReadyReview, StatusRevisionNeeded, StatusComplete} {
		if got := FromFlags(s.Flags()); got != s {
			t.Fatalf("round trip of %s gave %s", s, got)
		}
	}
}

func TestSubmitForReview(t *testing.T) {
	if got, err := StatusBlank.SubmitForReview(); err != nil || got != StatusReadyReview {
		t.Fatalf("submit from blank: got %s, err %v", got, err)
	}
	if got, err := StatusRevisionNeeded.SubmitForReview(); err != nil || got != StatusReadyReview {
		t.Fatalf("resubmit after revision: got %s, err %v", got, err)
	}
	if _, err := StatusReadyReview.SubmitForReview(); !errors.Is(err, ErrAlreadySubmitted) {
		t.Fatalf("expected ErrAlreadySubmitted, got %v", err)
	}
	if _, err := StatusComplete.SubmitForReview(); !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("expected ErrAlreadyComplete, got %v", err)
	}
}

func TestWithdraw(t *testing.T) {
	if got, err := StatusReadyReview.Withdraw(); err != nil || got != StatusBlank {
		t.Fatalf("withdraw: got %s, err %v", got, err)
	}
	for _, s := range []Status{StatusBlank, StatusRevisionNeeded, StatusComplete} {
		if _, err := s.Withdraw(); !errors.Is(err, ErrNotSubmitted) {
			t.Fatalf("withdraw from %s: expected ErrNotSubmitted, got %v", s, err)
		}
	}
}

func TestTeacherTransitions(t *testing.T) {
	for _, s := range []Status{StatusBlank, StatusReadyReview, StatusRevisionNeeded} {
		if got, err := s.MarkComplete(); err != nil || got != StatusComplete {
			t.Fatalf("complete from %s: got %s, err %v", s, got, err)
		}
		if got, err := s.RequestRevision(); err != nil || got != StatusRevisionNeeded {
			t.Fatalf("revise from %s: got %s, err %v", s, got, err)
		}
	}
	if _, err := StatusComplete.MarkComplete(); !errors.Is(err, ErrAlreadyComplete) {
		t.Fatalf("expected ErrAlreadyComplete, got %v", err)
	}
	// an approval can be walked back into a revision request
	if got, err := StatusComplete.RequestRevision(); err != nil || got != StatusRevisionNeeded {
		t.Fatalf("revise from complete: got %s, err %v", got, err)
	}
	if got, err := StatusComplete.Reopen(); err != nil || got != StatusBlank {
		t.Fatalf("reopen: got %s, err %v", got, err)
	}
	if _, err := StatusReadyReview.Reopen(); !errors.Is(err, ErrNotComplete) {
		t.Fatalf("expected ErrNotComplete, got %v", err)
	}
}
