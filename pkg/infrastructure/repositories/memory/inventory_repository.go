package memory

import (
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/repositories"
)

// InventoryRepository provides in-memory inventory snapshot storage
type InventoryRepository struct {
	snapshots []entities.InventorySnapshotItem
	byItem    map[string]int
}

// NewInventoryRepository creates a new in-memory inventory repository
func NewInventoryRepository(expectedItems int) *InventoryRepository {
	return &InventoryRepository{
		snapshots: make([]entities.InventorySnapshotItem, 0, expectedItems),
		byItem:    make(map[string]int, expectedItems),
	}
}

// Verify interface compliance
var _ repositories.InventoryRepository = (*InventoryRepository)(nil)

// LoadSnapshots loads inventory counts into the repository. When an item is
// counted more than once, the most recent count wins.
func (r *InventoryRepository) LoadSnapshots(items []entities.InventorySnapshotItem) error {
	for _, item := range items {
		r.AddSnapshot(item)
	}
	return nil
}

// AddSnapshot adds one count to the repository
func (r *InventoryRepository) AddSnapshot(item entities.InventorySnapshotItem) {
	if idx, exists := r.byItem[item.ItemID]; exists {
		if !item.LastCountedAt.Before(r.snapshots[idx].LastCountedAt) {
			r.snapshots[idx] = item
		}
		return
	}
	r.byItem[item.ItemID] = len(r.snapshots)
	r.snapshots = append(r.snapshots, item)
}

// GetSnapshot returns the latest count for an item
func (r *InventoryRepository) GetSnapshot(itemID string) (entities.InventorySnapshotItem, bool) {
	idx, exists := r.byItem[itemID]
	if !exists {
		return entities.InventorySnapshotItem{}, false
	}
	return r.snapshots[idx], true
}

// GetAllSnapshots returns every item's latest count
func (r *InventoryRepository) GetAllSnapshots() ([]entities.InventorySnapshotItem, error) {
	return append([]entities.InventorySnapshotItem(nil), r.snapshots...), nil
}
