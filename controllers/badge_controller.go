package controllers

import (
	"context"
	"net/http"
	"strconv"
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/spdteam/dashboard-server/config"
	"github.com/spdteam/dashboard-server/eventbus"
	"github.com/spdteam/dashboard-server/middleware"
	"github.com/spdteam/dashboard-server/models"
	"github.com/spdteam/dashboard-server/review"
)

// The badge registry is the server-side home of the counts every sibling
// surface (navigation, list pages, detail sheets) displays. A key's tally is
// primed from the database on first read and then adjusted by bus deltas, so
// independent views never drift apart within a session. Nothing here is
// durable; a restart just re-primes from source of truth.

type badgeKey struct {
	Vertical  string
	StudentID uint
	SectionID uint
}

type badgeCounts struct {
	UnreadComments int `json:"unread_comments"`
	PendingReviews int `json:"pending_reviews"`
}

type badgeRegistry struct {
	mu      sync.Mutex
	tallies map[badgeKey]badgeCounts
}

var badges = &badgeRegistry{tallies: make(map[badgeKey]badgeCounts)}

var badgeUnsubs []func()

func initBadges() {
	badges.mu.Lock()
	badges.tallies = make(map[badgeKey]badgeCounts)
	badges.mu.Unlock()

	// re-subscribing on re-init keeps tests from stacking handlers
	for _, unsub := range badgeUnsubs {
		unsub()
	}
	badgeUnsubs = nil

	apply := func(ctx context.Context, event eventbus.CountEvent) error {
		badges.apply(event)
		return nil
	}
	for _, t := range []eventbus.CountEventType{
		eventbus.CountEventCommentCreated,
		eventbus.CountEventCommentRead,
		eventbus.CountEventReviewChanged,
	} {
		badgeUnsubs = append(badgeUnsubs, eventbus.Counts.Subscribe(t, apply))
	}
}

func (b *badgeRegistry) apply(event eventbus.CountEvent) {
	key := badgeKey{event.Vertical, event.StudentID, event.SectionID}

	b.mu.Lock()
	defer b.mu.Unlock()

	counts, ok := b.tallies[key]
	if !ok {
		// unprimed keys recompute from the database on their next read
		return
	}
	switch event.Type {
	case eventbus.CountEventCommentCreated, eventbus.CountEventCommentRead:
		counts.UnreadComments += event.Delta
		if counts.UnreadComments < 0 {
			counts.UnreadComments = 0
		}
	case eventbus.CountEventReviewChanged:
		counts.PendingReviews += event.Delta
		if counts.PendingReviews < 0 {
			counts.PendingReviews = 0
		}
	}
	b.tallies[key] = counts
}

func (b *badgeRegistry) get(key badgeKey) badgeCounts {
	b.mu.Lock()
	if counts, ok := b.tallies[key]; ok {
		b.mu.Unlock()
		return counts
	}
	b.mu.Unlock()

	counts := primeBadgeCounts(key)

	b.mu.Lock()
	b.tallies[key] = counts
	b.mu.Unlock()
	return counts
}

func primeBadgeCounts(key badgeKey) badgeCounts {
	var unread, pending int64

	config.DB.Model(&models.Comment{}).
		Where("vertical = ? AND students_id = ? AND section_id = ? AND is_read = ?",
			key.Vertical, key.StudentID, key.SectionID, false).
		Count(&unread)

	config.DB.Model(&models.ReviewRecord{}).
		Where("vertical = ? AND students_id = ? AND section_id = ? AND status = ?",
			key.Vertical, key.StudentID, key.SectionID, review.StatusReadyReview).
		Count(&pending)

	return badgeCounts{UnreadComments: int(unread), PendingReviews: int(pending)}
}

/* ========== GET /api/:vertical/badges ========== */

// GetBadges returns per-section unread-comment and pending-review counts for
// one student across the vertical.
func GetBadges(c *gin.Context) {
	u := c.MustGet(middleware.CtxUser).(models.User)
	vertical := c.Param("vertical")

	studentID, err := strconv.Atoi(c.Query("students_id"))
	if err != nil || studentID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"message": "students_id is required"})
		return
	}
	if !u.IsTeacher() && uint(studentID) != u.ID {
		c.JSON(http.StatusForbidden, gin.H{"message": "Students can only read their own badges"})
		return
	}

	var sections []models.Section
	if err := config.DB.Where("vertical = ?", vertical).Order("sort_order ASC, id ASC").Find(&sections).Error; err != nil {
		c.JSON(http.StatusOK, gin.H{"badges": []gin.H{}})
		return
	}

	out := []gin.H{}
	for _, section := range sections {
		counts := badges.get(badgeKey{vertical, uint(studentID), section.ID})
		out = append(out, gin.H{
			"section_id":      section.ID,
			"unread_comments": counts.UnreadComments,
			"pending_reviews": counts.PendingReviews,
		})
	}

	c.JSON(http.StatusOK, gin.H{"badges": out})
}
