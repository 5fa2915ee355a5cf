package output

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
)

// CSV file names written by the csv format.
const (
	PurchaseOrdersCSV = "purchase_orders.csv"
	PrepTasksCSV      = "prep_tasks.csv"
	DemandPlanCSV     = "demand_plan.csv"
)

// writeCSVFiles writes the final proposal as CSV tables and reports the
// paths on w.
func writeCSVFiles(result *dto.CommitteeRunResult, config Config, w io.Writer) error {
	if err := ensureDir(config.OutputDir); err != nil {
		return err
	}
	p := result.Decision.FinalProposal
	if p == nil {
		return fmt.Errorf("decision carries no final proposal")
	}

	tables := []struct {
		name string
		rows [][]string
	}{
		{DemandPlanCSV, demandPlanRows(p)},
		{PurchaseOrdersCSV, purchaseOrderRows(p)},
		{PrepTasksCSV, prepTaskRows(p)},
	}
	for _, t := range tables {
		path := outputPath(config.OutputDir, t.name)
		if err := writeCSV(path, t.rows); err != nil {
			return fmt.Errorf("failed to write %s: %w", t.name, err)
		}
		fmt.Fprintf(w, "wrote %s\n", path)
	}
	return nil
}

func writeCSV(path string, rows [][]string) error {
	file, err := os.Create(path)
	if err != nil {
		return err
	}
	writer := csv.NewWriter(file)
	if err := writer.WriteAll(rows); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

func demandPlanRows(p *entities.CommitteeProposal) [][]string {
	rows := [][]string{{
		"item_id", "required_qty", "effective_on_hand", "planned_purchase_qty",
		"recommended_qty", "residual_shortfall", "adjusted_risk", "vendor_id",
	}}
	for _, item := range p.Items {
		rows = append(rows, []string{
			item.ID,
			item.RequiredQty.String(),
			item.EffectiveOnHand.String(),
			item.PlannedPurchaseQty.String(),
			item.RecommendedQty.String(),
			item.ResidualShortfall.String(),
			strconv.FormatFloat(item.AdjustedRisk, 'f', 4, 64),
			item.VendorID,
		})
	}
	return rows
}

func purchaseOrderRows(p *entities.CommitteeProposal) [][]string {
	rows := [][]string{{"order_id", "vendor_id", "line_id", "item_id", "qty", "unit", "unit_cost", "line_cost", "expected_date"}}
	for _, po := range p.PurchaseOrders {
		for _, line := range po.Lines {
			rows = append(rows, []string{
				po.ID, po.VendorID, line.ID, line.ItemID,
				line.Qty.String(), line.Unit, line.UnitCost.String(), line.LineCost.String(),
				line.ExpectedDate.Format("2006-01-02"),
			})
		}
	}
	return rows
}

func prepTaskRows(p *entities.CommitteeProposal) [][]string {
	rows := [][]string{{"task_id", "demand_item_id", "station_id", "qty", "start", "end", "labor_hours", "overtime_risk"}}
	for _, task := range p.PrepTasks {
		rows = append(rows, []string{
			task.ID, task.DemandItemID, task.StationID, task.Qty.String(),
			task.Start.Format("2006-01-02T15:04:05Z07:00"), task.End.Format("2006-01-02T15:04:05Z07:00"),
			strconv.FormatFloat(task.LaborHours, 'f', 2, 64),
			strconv.FormatFloat(task.OvertimeRisk, 'f', 4, 64),
		})
	}
	return rows
}
