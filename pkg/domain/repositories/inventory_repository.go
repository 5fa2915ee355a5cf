package repositories

import "github.com/vsinha/prepcommittee/pkg/domain/entities"

// InventoryRepository provides access to point-in-time inventory counts
type InventoryRepository interface {
	// GetSnapshot returns the count for an item; ok is false when the item was never counted.
	GetSnapshot(itemID string) (item entities.InventorySnapshotItem, ok bool)
	GetAllSnapshots() ([]entities.InventorySnapshotItem, error)
	LoadSnapshots(items []entities.InventorySnapshotItem) error
}
