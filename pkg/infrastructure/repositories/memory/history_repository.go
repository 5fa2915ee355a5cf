package memory

import (
	"sort"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/repositories"
)

// HistoryRepository provides in-memory historical sample storage
type HistoryRepository struct {
	byItem map[string][]entities.HistoricalDemandSample
	count  int
}

// NewHistoryRepository creates a new in-memory history repository
func NewHistoryRepository() *HistoryRepository {
	return &HistoryRepository{
		byItem: make(map[string][]entities.HistoricalDemandSample),
	}
}

// Verify interface compliance
var _ repositories.HistoryRepository = (*HistoryRepository)(nil)

// LoadSamples loads samples into the repository
func (r *HistoryRepository) LoadSamples(samples []entities.HistoricalDemandSample) error {
	for _, s := range samples {
		r.byItem[s.ItemID] = append(r.byItem[s.ItemID], s)
		r.count++
	}
	for itemID := range r.byItem {
		list := r.byItem[itemID]
		sort.SliceStable(list, func(i, j int) bool {
			return list[i].ServiceDate.Before(list[j].ServiceDate)
		})
	}
	return nil
}

// GetSamples returns an item's samples, oldest first
func (r *HistoryRepository) GetSamples(itemID string) ([]entities.HistoricalDemandSample, error) {
	return append([]entities.HistoricalDemandSample(nil), r.byItem[itemID]...), nil
}

// HasSamples reports whether any sample was loaded
func (r *HistoryRepository) HasSamples() bool {
	return r.count > 0
}
