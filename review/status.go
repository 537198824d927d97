package review

import "errors"

// Status is the review state of one (student, section, group) combination.
// The legacy storage modeled this as three independent booleans; a single
// enumerated status makes invalid combinations unrepresentable.
type Status string

const (
	StatusBlank          Status = "blank"
	StatusReadyReview    Status = "ready_review"
	StatusRevisionNeeded Status = "revision_needed"
	StatusComplete       Status = "complete"
)

var (
	ErrAlreadySubmitted = errors.New("submission is already waiting for review")
	ErrAlreadyComplete  = errors.New("submission is already marked complete")
	ErrNotSubmitted     = errors.New("no submission is waiting for review")
	ErrNotComplete      = errors.New("submission is not marked complete")
)

func (s Status) Valid() bool {
	switch s {
	case StatusBlank, StatusReadyReview, StatusRevisionNeeded, StatusComplete:
		return true
	}
	return false
}

// Flags returns the legacy wire triplet (isComplete, revisionNeeded, readyReview).
func (s Status) Flags() (isComplete, revisionNeeded, readyReview bool) {
	switch s {
	case StatusComplete:
		return true, false, false
	case StatusRevisionNeeded:
		return false, true, false
	case StatusReadyReview:
		return false, false, true
	}
	return false, false, false
}

// FromFlags maps a legacy flag triplet to a Status. Old records could carry
// more than one flag set true; the tie-break order is
// complete > revision_needed > ready_review > blank.
func FromFlags(isComplete, revisionNeeded, readyReview bool) Status {
	switch {
	case isComplete:
		return StatusComplete
	case revisionNeeded:
		return StatusRevisionNeeded
	case readyReview:
		return StatusReadyReview
	}
	return StatusBlank
}

// SubmitForReview is the student action. Allowed from blank (including after a
// withdrawal) and from revision_needed, since a revision request expects the
// student to edit and resubmit.
func (s Status) SubmitForReview() (Status, error) {
	switch s {
	case StatusReadyReview:
		return s, ErrAlreadySubmitted
	case StatusComplete:
		return s, ErrAlreadyComplete
	}
	return StatusReadyReview, nil
}

// Withdraw returns a pending submission to blank so the student can keep editing.
func (s Status) Withdraw() (Status, error) {
	if s != StatusReadyReview {
		return s, ErrNotSubmitted
	}
	return StatusBlank, nil
}

// MarkComplete is the teacher accept action, allowed from any non-complete state.
func (s Status) MarkComplete() (Status, error) {
	if s == StatusComplete {
		return s, ErrAlreadyComplete
	}
	return StatusComplete, nil
}

// RequestRevision is the teacher reject action. Allowed from any state,
// including complete: a teacher can walk back an earlier approval.
func (s Status) RequestRevision() (Status, error) {
	return StatusRevisionNeeded, nil
}

// Reopen clears a completed review back to blank.
func (s Status) Reopen() (Status, error) {
	if s != StatusComplete {
		return s, ErrNotComplete
	}
	return StatusBlank, nil
}
