package entities

import (
	"time"

	"github.com/shopspring/decimal"
)

// PrepStation is a kitchen station profile supplied by the caller.
type PrepStation struct {
	ID         string   `json:"id" yaml:"id"`
	Name       string   `json:"name" yaml:"name"`
	Categories []string `json:"categories,omitempty" yaml:"categories,omitempty"`
}

// Handles reports whether the station prepares items of category.
func (s PrepStation) Handles(category string) bool {
	for _, c := range s.Categories {
		if c == category {
			return true
		}
	}
	return false
}

// PrepTask is a scheduled labour block for one demand item.
type PrepTask struct {
	ID           string          `json:"id" yaml:"id"`
	DemandItemID string          `json:"demand_item_id" yaml:"demand_item_id"`
	StationID    string          `json:"station_id" yaml:"station_id"`
	Qty          decimal.Decimal `json:"qty" yaml:"qty"`
	Unit         string          `json:"unit" yaml:"unit"`
	Start        time.Time       `json:"start" yaml:"start"`
	End          time.Time       `json:"end" yaml:"end"`
	LaborHours   float64         `json:"labor_hours" yaml:"labor_hours"`
	OvertimeRisk float64         `json:"overtime_risk" yaml:"overtime_risk"`
}

// SameSchedule reports whether two versions of a task would produce the same work.
func (t PrepTask) SameSchedule(other PrepTask) bool {
	return t.DemandItemID == other.DemandItemID &&
		t.StationID == other.StationID &&
		t.Qty.Equal(other.Qty) &&
		t.Start.Equal(other.Start) &&
		t.End.Equal(other.End)
}
