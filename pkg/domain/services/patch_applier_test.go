package services

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/util"
)

var patchTime = time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

func carrotProposal() *entities.CommitteeProposal {
	item := RecomputePlanItem(entities.DemandPlanItem{
		DemandItem:         entities.DemandItem{ID: "carrots", Name: "Carrots", RequiredQty: d("50"), Unit: "kg"},
		TargetQty:          d("51"),
		EffectiveOnHand:    d("10"),
		PlannedPurchaseQty: d("45"),
		BaselineRisk:       0.08,
		VendorID:           "veg-co",
		UnitCost:           d("2"),
		PackSize:           d("5"),
		MinimumOrderQty:    d("10"),
		LeadTimeDays:       2,
	})
	po := entities.CommitteePurchaseOrder{
		ID: "po-1", VendorID: "veg-co", Status: entities.PODraft, CreatedAt: patchTime,
		Lines: []entities.PurchaseOrderLine{NewPurchaseOrderLine("line-1", item)},
	}
	po.Recalculate()
	return &entities.CommitteeProposal{
		ID:             "proposal-1",
		GeneratedAt:    patchTime,
		Items:          []entities.DemandPlanItem{item},
		PurchaseOrders: []entities.CommitteePurchaseOrder{po},
		PrepTasks: []entities.PrepTask{{
			ID: "task-1", DemandItemID: "carrots",
			Start: patchTime.Add(4 * time.Hour), End: patchTime.Add(6 * time.Hour),
		}},
	}
}

func patchFor(op entities.PatchOp) entities.CommitteePatch {
	issue := entities.CommitteeIssue{ID: "issue-1", Agent: entities.AgentRisk}
	return entities.NewPatch("patch-1", issue, "test", op)
}

func TestPatchApplier_AdjustDemandKeepsOrderInSync(t *testing.T) {
	original := carrotProposal()
	applier := NewPatchApplier(util.NewIDGenerator())

	revised, outcomes := applier.Apply(original, []entities.CommitteePatch{
		patchFor(entities.AdjustDemandRecommendation{ItemID: "carrots", PlannedPurchaseQty: d("50")}),
	}, patchTime)

	require.Len(t, outcomes, 1)
	assert.True(t, outcomes[0].Applied)
	assert.NotSame(t, original, revised)
	assert.Equal(t, original.ID, revised.ParentID)
	assert.Equal(t, 1, revised.Revision)

	assert.True(t, revised.Items[0].RecommendedQty.Equal(d("60")))
	assert.True(t, revised.PurchaseOrders[0].Lines[0].Qty.Equal(d("50")))
	assert.True(t, revised.PurchaseOrders[0].Total.Equal(d("100")))
	assert.Empty(t, PurchaseSufficiency(revised))

	// original snapshot untouched
	assert.True(t, original.Items[0].PlannedPurchaseQty.Equal(d("45")))
	assert.True(t, original.PurchaseOrders[0].Lines[0].Qty.Equal(d("45")))
}

func TestPatchApplier_ZeroLineRemovesOrder(t *testing.T) {
	applier := NewPatchApplier(util.NewIDGenerator())
	revised, outcomes := applier.Apply(carrotProposal(), []entities.CommitteePatch{
		patchFor(entities.AdjustPOLineQty{OrderID: "po-1", LineID: "line-1", Qty: decimal.Zero}),
	}, patchTime)

	require.True(t, outcomes[0].Applied)
	assert.Empty(t, revised.PurchaseOrders)
	assert.True(t, revised.Items[0].PlannedPurchaseQty.IsZero())
	assert.True(t, revised.Items[0].ResidualShortfall.Equal(d("41")))
	assert.Empty(t, PurchaseSufficiency(revised))
}

func TestPatchApplier_NoteAndReschedule(t *testing.T) {
	applier := NewPatchApplier(util.NewIDGenerator())
	newStart := patchTime.Add(2 * time.Hour)
	revised, outcomes := applier.Apply(carrotProposal(), []entities.CommitteePatch{
		patchFor(entities.AddNote{Severity: entities.SeverityInfo, Message: "check supplier"}),
		patchFor(entities.ReschedulePrepTask{TaskID: "task-1", Start: newStart, End: patchTime.Add(6 * time.Hour)}),
	}, patchTime)

	require.Len(t, outcomes, 2)
	assert.True(t, outcomes[0].Applied)
	assert.True(t, outcomes[1].Applied)
	require.Len(t, revised.Notes, 1)
	assert.Equal(t, entities.AgentRisk, revised.Notes[0].Agent)
	assert.True(t, revised.PrepTasks[0].Start.Equal(newStart))
}

func TestPatchApplier_RejectsInvalidPatches(t *testing.T) {
	original := carrotProposal()
	applier := NewPatchApplier(util.NewIDGenerator())

	revised, outcomes := applier.Apply(original, []entities.CommitteePatch{
		patchFor(entities.AdjustDemandRecommendation{ItemID: "leeks", PlannedPurchaseQty: d("5")}),
		patchFor(entities.AdjustPOLineQty{OrderID: "po-1", LineID: "line-1", Qty: d("-1")}),
		patchFor(entities.ReschedulePrepTask{TaskID: "task-1", Start: patchTime, End: patchTime}),
		{ID: "empty"},
	}, patchTime)

	require.Len(t, outcomes, 4)
	for _, o := range outcomes {
		assert.False(t, o.Applied, o.PatchID)
		assert.NotEmpty(t, o.Reason)
	}
	assert.Same(t, original, revised, "nothing applied means no new revision")
}
