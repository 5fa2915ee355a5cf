package services

import (
	"fmt"
	"sort"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
)

// InputSnapshot is the caller data a committee run consumes.
type InputSnapshot struct {
	Demand          []entities.DemandItem
	Inventory       []entities.InventorySnapshotItem
	Catalog         []entities.SupplierOption
	History         []entities.HistoricalDemandSample
	CartTemplates   []entities.CartTemplate
	PrepStations    []entities.PrepStation
	LockedPrepTasks []entities.PrepTask
}

// InputValidator checks caller snapshots for inconsistencies. Findings are
// warnings: the engine still plans, and planning gaps surface as issues.
type InputValidator struct{}

// NewInputValidator creates a new input validator
func NewInputValidator() *InputValidator {
	return &InputValidator{}
}

// ValidationResult contains the results of input validation
type ValidationResult struct {
	DuplicateDemandIDs   []string `json:"duplicate_demand_ids,omitempty" yaml:"duplicate_demand_ids,omitempty"`
	UnsourcedItems       []string `json:"unsourced_items,omitempty" yaml:"unsourced_items,omitempty"`
	UnknownCatalogItems  []string `json:"unknown_catalog_items,omitempty" yaml:"unknown_catalog_items,omitempty"`
	UnknownInventoryRows []string `json:"unknown_inventory_rows,omitempty" yaml:"unknown_inventory_rows,omitempty"`
	IneligibleOptions    []string `json:"ineligible_options,omitempty" yaml:"ineligible_options,omitempty"`
	Warnings             []string `json:"warnings" yaml:"warnings"`
}

// HasWarnings reports whether anything was found.
func (r *ValidationResult) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// Validate performs all consistency checks on a snapshot.
func (v *InputValidator) Validate(in InputSnapshot) *ValidationResult {
	result := &ValidationResult{}

	demandIDs := make(map[string]bool, len(in.Demand))
	for _, d := range in.Demand {
		if demandIDs[d.ID] {
			result.DuplicateDemandIDs = append(result.DuplicateDemandIDs, d.ID)
		}
		demandIDs[d.ID] = true
	}

	sourced := make(map[string]bool)
	unknownCatalog := make(map[string]bool)
	for _, opt := range in.Catalog {
		if !opt.Eligible() {
			result.IneligibleOptions = append(result.IneligibleOptions, opt.ID)
			continue
		}
		sourced[opt.ItemID] = true
		if !demandIDs[opt.ItemID] {
			unknownCatalog[opt.ItemID] = true
		}
	}
	result.UnknownCatalogItems = sortedKeys(unknownCatalog)

	for id := range demandIDs {
		if !sourced[id] {
			result.UnsourcedItems = append(result.UnsourcedItems, id)
		}
	}
	sort.Strings(result.UnsourcedItems)

	for _, row := range in.Inventory {
		if !demandIDs[row.ItemID] {
			result.UnknownInventoryRows = append(result.UnknownInventoryRows, row.ItemID)
		}
	}

	if len(result.DuplicateDemandIDs) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("duplicate demand ids: %v", result.DuplicateDemandIDs))
	}
	if len(result.UnsourcedItems) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("demand items without an eligible supplier: %v", result.UnsourcedItems))
	}
	if len(result.IneligibleOptions) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("ineligible supplier options ignored: %v", result.IneligibleOptions))
	}
	if len(result.UnknownCatalogItems) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("catalog rows for items nobody demands: %v", result.UnknownCatalogItems))
	}
	if len(result.UnknownInventoryRows) > 0 {
		result.Warnings = append(result.Warnings, fmt.Sprintf("inventory rows for items nobody demands: %v", result.UnknownInventoryRows))
	}

	return result
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
