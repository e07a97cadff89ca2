package services

import "queue-system/models"

// RecomputePositions reassigns position and estimated wait for every entry.
// Waiting entries get a contiguous 1..N sequence in join order and an
// estimate of position * avgServiceMinutes; everything else carries no
// position. This is the only code path allowed to write either field, and
// it must run after every mutation to the collection.
func RecomputePositions(entries []*models.Entry, avgServiceMinutes int) {
	position := 1
	for _, entry := range entries {
		if entry.Status == models.StatusWaiting {
			entry.Position = position
			entry.EstimatedWait = position * avgServiceMinutes
			position++
		} else {
			entry.Position = 0
			entry.EstimatedWait = 0
		}
	}
}
