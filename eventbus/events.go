package eventbus

import "context"

type CountEventType string

const (
	// a comment was created / read / resolved somewhere; badge tallies shift
	CountEventCommentCreated  CountEventType = "CommentCreated"
	CountEventCommentRead     CountEventType = "CommentRead"
	CountEventCommentResolved CountEventType = "CommentResolved"
	// a review record changed status; pending-review tallies shift
	CountEventReviewChanged CountEventType = "ReviewChanged"
)

// CountEvent is a small delta broadcast so every surface holding an aggregate
// count for the same (vertical, student, section) stays consistent.
type CountEvent struct {
	Type      CountEventType
	Vertical  string
	StudentID uint
	SectionID uint
	Delta     int
}

type CountEventHandler = Handler[CountEvent]
type CountEventBus = Bus[CountEventType, CountEvent]

func NewCountEventBus() *CountEventBus {
	return NewBus[CountEventType, CountEvent]()
}

// Counts is the process-wide bus instance the controllers publish to.
var Counts = NewCountEventBus()

func PublishCount(ctx context.Context, event CountEvent) {
	// subscriber failures only mean a stale badge until the next re-fetch
	_ = Counts.Publish(ctx, event.Type, event)
}
