package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Stats is a read-only projection over the entry collection. It is
// recomputed on demand and never mutated independently.
type Stats struct {
	TotalWaiting       int             `json:"total_waiting"`
	AverageServiceTime int             `json:"average_service_time"`
	ObservedServiceAvg decimal.Decimal `json:"observed_service_minutes"`
	ServedToday        int             `json:"served_today"`
	CurrentlyServing   *Entry          `json:"currently_serving,omitempty"`
	Paused             bool            `json:"paused"`
	LastUpdated        time.Time       `json:"last_updated"`
}

// ObservedAverage converts accumulated service seconds into minutes with
// one decimal place. Returns zero when nothing has been completed yet.
func ObservedAverage(totalSeconds int64, completed int64) decimal.Decimal {
	if completed == 0 {
		return decimal.Zero
	}
	return decimal.NewFromInt(totalSeconds).
		Div(decimal.NewFromInt(completed * 60)).
		Round(1)
}
