// Package planner builds the committee's first proposal from demand,
// inventory and supplier catalog snapshots.
package planner

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/application/services/shared"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/domain/services"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/logging"
	"github.com/vsinha/prepcommittee/pkg/infrastructure/repositories/memory"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// Config holds the planner's scheduling heuristics
type Config struct {
	// PrepLeadHours is how long before service every prep task starts. The
	// fixed offset is a placeholder until prep duration and shelf life drive it.
	PrepLeadHours float64
	// OvertimeThresholdHours is the labour a task absorbs before overtime risk starts.
	OvertimeThresholdHours float64
	// OvertimeSaturationHours is the labour at which overtime risk reaches 1.
	OvertimeSaturationHours float64
	// DefaultStation is used when the caller supplies no prep stations.
	DefaultStation string
	// GateOffsets is how long before service each quality gate is due.
	GateOffsets map[entities.QualityStage]time.Duration
}

// DefaultConfig returns the planner heuristics used in production.
func DefaultConfig() Config {
	return Config{
		PrepLeadHours:           6,
		OvertimeThresholdHours:  4,
		OvertimeSaturationHours: 8,
		DefaultStation:          "main",
		GateOffsets: map[entities.QualityStage]time.Duration{
			entities.StagePrep:     3 * time.Hour,
			entities.StageHolding:  2 * time.Hour,
			entities.StageDispatch: 1 * time.Hour,
			entities.StageService:  0,
		},
	}
}

// Planner is the agent that proposes the initial operations plan
type Planner struct {
	config Config
	ids    services.IDSource
	logger logging.Logger
}

// New creates a planner with default configuration
func New(ids services.IDSource, logger logging.Logger) *Planner {
	return NewWithConfig(DefaultConfig(), ids, logger)
}

// NewWithConfig creates a planner with custom configuration
func NewWithConfig(config Config, ids services.IDSource, logger logging.Logger) *Planner {
	if ids == nil {
		ids = util.NewIDGenerator()
	}
	return &Planner{
		config: config,
		ids:    ids,
		logger: logging.With(logger, "agent", string(entities.AgentPlanner)),
	}
}

// Propose builds the initial proposal. Items that cannot be sourced are
// planned with no purchase; they surface later as critique issues.
func (p *Planner) Propose(
	ctx context.Context,
	inputs *dto.CommitteeInputs,
	cctx entities.CommitteeContext,
) (*entities.CommitteeProposal, error) {
	if inputs == nil {
		return nil, fmt.Errorf("committee inputs cannot be nil")
	}
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("planning cancelled: %w", err)
	}

	catalog := memory.NewCatalogRepository(len(inputs.Catalog))
	if err := catalog.LoadOptions(inputs.Catalog); err != nil {
		return nil, fmt.Errorf("failed to index catalog: %w", err)
	}
	inventory := memory.NewInventoryRepository(len(inputs.Inventory))
	if err := inventory.LoadSnapshots(inputs.Inventory); err != nil {
		return nil, fmt.Errorf("failed to index inventory: %w", err)
	}

	createdAt := cctx.GeneratedAt
	proposal := &entities.CommitteeProposal{
		ID:          p.ids.UniqueID("proposal"),
		GeneratedAt: createdAt,
		GeneratedBy: entities.AgentPlanner,
	}

	// Pass 1: plan every demand item independently
	for _, demand := range inputs.Demand {
		options, err := catalog.GetEligibleOptions(demand.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to read catalog for %s: %w", demand.ID, err)
		}
		var snapshot *entities.InventorySnapshotItem
		if snap, ok := inventory.GetSnapshot(demand.ID); ok {
			snapshot = &snap
		}
		item := PlanItem(demand, options, snapshot, cctx.Policy.Constraints.OverOrderBuffer, createdAt, p.logger)
		proposal.Items = append(proposal.Items, item)

		if !item.HasSupplier() && item.ResidualShortfall.IsPositive() {
			proposal.Notes = append(proposal.Notes, p.note(entities.SeverityWarning, createdAt,
				fmt.Sprintf("%s has no eligible supplier; %s %s uncovered", item.ID, item.ResidualShortfall, item.Unit)))
		}
	}

	// Pass 2: group purchases into draft orders per supplier
	proposal.PurchaseOrders = p.assembleOrders(proposal.Items, createdAt)

	// Pass 3: schedule prep work
	proposal.PrepTasks = p.assembleTasks(proposal.Items, inputs.PrepStations, cctx)

	// Pass 4: kit carts and schedule their quality gates
	proposal.Carts, proposal.QualityGates = p.assembleCarts(proposal.Items, inputs.CartTemplates, cctx)

	spend := util.SumDecimalBy(proposal.PurchaseOrders, func(po entities.CommitteePurchaseOrder) decimal.Decimal { return po.Total })
	proposal.Notes = append(proposal.Notes, p.note(entities.SeverityInfo, createdAt,
		fmt.Sprintf("planned %d items into %d purchase orders, %d prep tasks and %d carts; spend %s",
			len(proposal.Items), len(proposal.PurchaseOrders), len(proposal.PrepTasks), len(proposal.Carts), spend.StringFixed(2))))

	p.logger.Info("proposal generated",
		"proposal", proposal.ID,
		"items", len(proposal.Items),
		"orders", len(proposal.PurchaseOrders),
		"spend", spend.StringFixed(2))

	return proposal, nil
}

// PlanItem plans one demand item from its eligible supplier options and
// inventory count. It depends on nothing else, so items can be planned in
// any order.
func PlanItem(
	demand entities.DemandItem,
	options []entities.SupplierOption,
	snapshot *entities.InventorySnapshotItem,
	overOrderBuffer float64,
	createdAt time.Time,
	logger logging.Logger,
) entities.DemandPlanItem {
	logger = logging.With(logger, "item", demand.ID)

	demand.RequiredQty = util.NonNegative(logger, "required_qty", demand.RequiredQty)
	demand.PrepMinutesPerUnit = util.SanitizeFloat(logger, "prep_minutes_per_unit", demand.PrepMinutesPerUnit, 0, 0, math.MaxFloat64)

	onHand := decimal.Zero
	switch {
	case demand.OnHandQty.Valid:
		onHand = demand.OnHandQty.Decimal
	case snapshot != nil:
		onHand = snapshot.OnHandQty
	}
	onHand = util.NonNegative(logger, "on_hand_qty", onHand)

	baseline := entities.DefaultUnderOrderRisk
	if demand.UnderOrderRisk != nil {
		baseline = util.SanitizeFloat(logger, "under_order_risk", *demand.UnderOrderRisk, entities.DefaultUnderOrderRisk, 0, 1)
	}

	item := entities.DemandPlanItem{
		DemandItem:      demand,
		TargetQty:       services.TargetQty(demand.RequiredQty, overOrderBuffer),
		EffectiveOnHand: onHand,
		BaselineRisk:    baseline,
		UnitCost:        decimal.Zero,
		PackSize:        decimal.Zero,
		MinimumOrderQty: decimal.Zero,
	}
	shortfall := util.DecimalMax(item.TargetQty.Sub(onHand), decimal.Zero)

	supplier := shared.SelectSupplier(options)
	if supplier != nil {
		item.VendorID = supplier.VendorID
		item.VendorName = supplier.VendorName
		item.Currency = supplier.Currency
		item.SupplierOption = supplier.ID
		item.UnitCost = supplier.UnitCost
		item.PackSize = supplier.PackSize
		item.MinimumOrderQty = supplier.MinimumOrderQty
		item.LeadTimeDays = supplier.LeadTimeDays
		item.PlannedPurchaseQty = services.ApplyLotSizing(shortfall, supplier.PackSize, supplier.MinimumOrderQty)
		if item.PlannedPurchaseQty.IsPositive() {
			item.ExpectedArrival = createdAt.Add(util.Days(supplier.LeadTimeDays))
		}
	} else if shortfall.IsPositive() {
		logger.Warn("no eligible supplier, item left unpurchased", "shortfall", shortfall.String())
	}

	item.ShelfLifeHours = effectiveShelfLife(demand, supplier, snapshot, item.PlannedPurchaseQty.IsPositive(), logger)
	if item.UnitCost.IsZero() && snapshot != nil {
		item.UnitCost = snapshot.UnitCost
	}

	return services.RecomputePlanItem(item)
}

func effectiveShelfLife(
	demand entities.DemandItem,
	supplier *entities.SupplierOption,
	snapshot *entities.InventorySnapshotItem,
	purchased bool,
	logger logging.Logger,
) *float64 {
	var source *float64
	switch {
	case demand.ShelfLifeHours != nil:
		source = demand.ShelfLifeHours
	case purchased && supplier != nil && supplier.ShelfLifeHours != nil:
		source = supplier.ShelfLifeHours
	case snapshot != nil && snapshot.ShelfLifeHours != nil:
		source = snapshot.ShelfLifeHours
	case supplier != nil && supplier.ShelfLifeHours != nil:
		source = supplier.ShelfLifeHours
	}
	if source == nil {
		return nil
	}
	hours := util.SanitizeFloat(logger, "shelf_life_hours", *source, 0, 0, math.MaxFloat64)
	return &hours
}

func (p *Planner) assembleOrders(items []entities.DemandPlanItem, createdAt time.Time) []entities.CommitteePurchaseOrder {
	var orders []entities.CommitteePurchaseOrder
	byVendor := make(map[string]int)

	for _, item := range items {
		if !item.PlannedPurchaseQty.IsPositive() || !item.HasSupplier() {
			continue
		}
		idx, exists := byVendor[item.VendorID]
		if !exists {
			orders = append(orders, entities.CommitteePurchaseOrder{
				ID:         p.ids.UniqueID("po"),
				VendorID:   item.VendorID,
				VendorName: item.VendorName,
				Status:     entities.PODraft,
				Currency:   item.Currency,
				CreatedAt:  createdAt,
			})
			idx = len(orders) - 1
			byVendor[item.VendorID] = idx
		}
		orders[idx].Lines = append(orders[idx].Lines, services.NewPurchaseOrderLine(p.ids.UniqueID("line"), item))
	}

	for i := range orders {
		orders[i].Recalculate()
	}
	return orders
}

func (p *Planner) assembleTasks(
	items []entities.DemandPlanItem,
	stations []entities.PrepStation,
	cctx entities.CommitteeContext,
) []entities.PrepTask {
	tasks := make([]entities.PrepTask, 0, len(items))
	for _, item := range items {
		laborHours := item.PrepMinutesPerUnit * item.RequiredQty.InexactFloat64() / 60
		windowHours := math.Max(1, math.Ceil(laborHours))
		start := serviceStart(item, cctx).Add(-util.Hours(p.config.PrepLeadHours))

		stationID := p.config.DefaultStation
		if station, ok := shared.SelectStation(stations, item.Category); ok {
			stationID = station.ID
		}

		tasks = append(tasks, entities.PrepTask{
			ID:           p.ids.UniqueID("task"),
			DemandItemID: item.ID,
			StationID:    stationID,
			Qty:          item.RequiredQty,
			Unit:         item.Unit,
			Start:        start,
			End:          start.Add(util.Hours(windowHours)),
			LaborHours:   laborHours,
			OvertimeRisk: p.OvertimeRisk(laborHours),
		})
	}
	return tasks
}

// OvertimeRisk rises linearly once labour exceeds the threshold and
// saturates at 1.
func (p *Planner) OvertimeRisk(laborHours float64) float64 {
	span := p.config.OvertimeSaturationHours - p.config.OvertimeThresholdHours
	if span <= 0 {
		if laborHours > p.config.OvertimeThresholdHours {
			return 1
		}
		return 0
	}
	return util.Clamp01((laborHours - p.config.OvertimeThresholdHours) / span)
}

func (p *Planner) assembleCarts(
	items []entities.DemandPlanItem,
	templates []entities.CartTemplate,
	cctx entities.CommitteeContext,
) ([]entities.CartPlan, []entities.QualityGate) {
	if len(templates) == 0 {
		return nil, nil
	}

	carts := make([]entities.CartPlan, len(templates))
	for i, t := range templates {
		carts[i] = entities.CartPlan{
			ID:            p.ids.UniqueID("cart"),
			TemplateID:    t.ID,
			Name:          t.Name,
			Outlet:        t.Outlet,
			Capacity:      t.Capacity,
			DemandItemIDs: []string{},
			Status:        entities.CartDraft,
		}
	}
	for _, item := range items {
		idx := shared.SelectCartTemplate(templates, item.Outlet)
		carts[idx].DemandItemIDs = append(carts[idx].DemandItemIDs, item.ID)
	}

	var gates []entities.QualityGate
	for _, cart := range carts {
		worst := services.CartWorstRisk(cart, items)
		due := cartServiceStart(cart, items, cctx)
		for _, stage := range entities.QualityStages {
			gates = append(gates, entities.QualityGate{
				ID:         p.ids.UniqueID("gate"),
				CartPlanID: cart.ID,
				Stage:      stage,
				DueAt:      due.Add(-p.config.GateOffsets[stage]),
				RiskScore:  services.GateRisk(stage, worst),
			})
		}
	}
	return carts, gates
}

func (p *Planner) note(severity entities.Severity, at time.Time, msg string) entities.CommitteeNote {
	return entities.CommitteeNote{
		ID:       p.ids.UniqueID("note"),
		Agent:    entities.AgentPlanner,
		Severity: severity,
		Message:  msg,
		At:       at,
	}
}

// serviceStart is the run's service date, falling back to the item's own deadline.
func serviceStart(item entities.DemandPlanItem, cctx entities.CommitteeContext) time.Time {
	if !cctx.ServiceDate.IsZero() {
		return cctx.ServiceDate
	}
	if !item.NeededBy.IsZero() {
		return item.NeededBy
	}
	return cctx.GeneratedAt
}

func cartServiceStart(cart entities.CartPlan, items []entities.DemandPlanItem, cctx entities.CommitteeContext) time.Time {
	if !cctx.ServiceDate.IsZero() {
		return cctx.ServiceDate
	}
	var earliest time.Time
	for _, id := range cart.DemandItemIDs {
		for _, item := range items {
			if item.ID == id && !item.NeededBy.IsZero() && (earliest.IsZero() || item.NeededBy.Before(earliest)) {
				earliest = item.NeededBy
			}
		}
	}
	if earliest.IsZero() {
		return cctx.GeneratedAt
	}
	return earliest
}
