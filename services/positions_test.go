package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"queue-system/models"
)

func TestRecomputePositions(t *testing.T) {
	now := time.Now()
	entries := []*models.Entry{
		{ID: "a", Status: models.StatusCompleted, JoinedAt: now},
		{ID: "b", Status: models.StatusWaiting, JoinedAt: now.Add(time.Second)},
		{ID: "c", Status: models.StatusServing, JoinedAt: now.Add(2 * time.Second)},
		{ID: "d", Status: models.StatusWaiting, JoinedAt: now.Add(3 * time.Second)},
		{ID: "e", Status: models.StatusCancelled, JoinedAt: now.Add(4 * time.Second)},
		{ID: "f", Status: models.StatusWaiting, JoinedAt: now.Add(5 * time.Second)},
	}

	RecomputePositions(entries, 5)

	assert.Equal(t, 1, entries[1].Position)
	assert.Equal(t, 5, entries[1].EstimatedWait)
	assert.Equal(t, 2, entries[3].Position)
	assert.Equal(t, 10, entries[3].EstimatedWait)
	assert.Equal(t, 3, entries[5].Position)
	assert.Equal(t, 15, entries[5].EstimatedWait)

	// non-waiting entries carry no position
	for _, i := range []int{0, 2, 4} {
		assert.Equal(t, 0, entries[i].Position)
		assert.Equal(t, 0, entries[i].EstimatedWait)
	}
}

func TestRecomputePositions_Empty(t *testing.T) {
	assert.NotPanics(t, func() {
		RecomputePositions(nil, 5)
		RecomputePositions([]*models.Entry{}, 5)
	})
}

func TestRecomputePositions_Deterministic(t *testing.T) {
	entries := []*models.Entry{
		{ID: "a", Status: models.StatusWaiting},
		{ID: "b", Status: models.StatusWaiting},
	}

	RecomputePositions(entries, 7)
	RecomputePositions(entries, 7)

	assert.Equal(t, 1, entries[0].Position)
	assert.Equal(t, 7, entries[0].EstimatedWait)
	assert.Equal(t, 2, entries[1].Position)
	assert.Equal(t, 14, entries[1].EstimatedWait)
}
