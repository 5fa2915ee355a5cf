package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vsinha/prepcommittee/pkg/application/dto"
	"github.com/vsinha/prepcommittee/pkg/domain/entities"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	headStyle  = lipgloss.NewStyle().Bold(true)
	mutedStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	boxStyle   = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)

	statusStyles = map[entities.DecisionStatus]lipgloss.Style{
		entities.DecisionApproved:         lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#3FB950")),
		entities.DecisionNeedsHumanReview: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#D29922")),
		entities.DecisionBlocked:          lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#FF6B6B")),
	}
	severityStyles = map[entities.Severity]lipgloss.Style{
		entities.SeverityInfo:     mutedStyle,
		entities.SeverityWarning:  lipgloss.NewStyle().Foreground(lipgloss.Color("#D29922")),
		entities.SeverityCritical: lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B")),
	}
)

func status(s entities.DecisionStatus) string {
	if style, ok := statusStyles[s]; ok {
		return style.Render(strings.ToUpper(string(s)))
	}
	return string(s)
}

func severity(s entities.Severity) string {
	label := fmt.Sprintf("%-8s", s)
	if style, ok := severityStyles[s]; ok {
		return style.Render(label)
	}
	return label
}

func writeText(w io.Writer, result *dto.CommitteeRunResult, config Config) error {
	var b strings.Builder
	d := result.Decision

	summary := []string{
		titleStyle.Render("Prep committee decision"),
		fmt.Sprintf("Run:       %s", result.RunID),
		fmt.Sprintf("Mode:      %s", result.Context.Mode),
		fmt.Sprintf("Status:    %s", status(d.Status)),
		fmt.Sprintf("Spend:     %s (%+.1f%% vs planner)", d.Metrics.TotalSpend.StringFixed(2), d.SpendDeltaPct*100),
		fmt.Sprintf("Stockout:  %.2f", d.Metrics.StockoutProbability),
		fmt.Sprintf("Waste:     %s", d.Metrics.ProjectedWasteCost.StringFixed(2)),
		fmt.Sprintf("Overtime:  %.1fh", d.Metrics.OvertimeHours),
		fmt.Sprintf("Score:     %.4f", d.Metrics.Score),
		fmt.Sprintf("Quorum:    %d/%d (%.2f, need %.2f)", len(d.Tally.Approvals), len(d.Tally.Voters), d.Tally.Ratio, d.Tally.Quorum),
	}
	b.WriteString(boxStyle.Render(strings.Join(summary, "\n")))
	b.WriteString("\n\n")

	if len(d.Reasons) > 0 {
		b.WriteString(headStyle.Render("Reasons") + "\n")
		for _, reason := range d.Reasons {
			fmt.Fprintf(&b, "  - %s\n", reason)
		}
		b.WriteString("\n")
	}

	if p := d.FinalProposal; p != nil {
		writeItems(&b, p)
		writeOrders(&b, p)
		writeTasks(&b, p)
	}
	writeCritiques(&b, d.Critiques)

	if len(d.AppliedPatches) > 0 {
		fmt.Fprintf(&b, "%s %s\n\n", headStyle.Render("Applied patches:"), strings.Join(d.AppliedPatches, ", "))
	}
	if config.Audit {
		writeAudit(&b, result.Audit)
	}

	_, err := io.WriteString(w, b.String())
	return err
}

func writeItems(b *strings.Builder, p *entities.CommitteeProposal) {
	if len(p.Items) == 0 {
		return
	}
	b.WriteString(headStyle.Render("Demand plan") + "\n")
	fmt.Fprintf(b, "%-14s %10s %10s %10s %10s %10s %6s  %s\n",
		"Item", "Required", "On hand", "Purchase", "Recommend", "Shortfall", "Risk", "Vendor")
	for _, item := range p.Items {
		vendor := item.VendorID
		if vendor == "" {
			vendor = mutedStyle.Render("(unsourced)")
		}
		fmt.Fprintf(b, "%-14s %10s %10s %10s %10s %10s %6.2f  %s\n",
			item.ID,
			item.RequiredQty.String(),
			item.EffectiveOnHand.String(),
			item.PlannedPurchaseQty.String(),
			item.RecommendedQty.String(),
			item.ResidualShortfall.String(),
			item.AdjustedRisk,
			vendor)
	}
	b.WriteString("\n")
}

func writeOrders(b *strings.Builder, p *entities.CommitteeProposal) {
	if len(p.PurchaseOrders) == 0 {
		return
	}
	b.WriteString(headStyle.Render("Purchase orders") + "\n")
	for _, po := range p.PurchaseOrders {
		fmt.Fprintf(b, "  %s  %s  total %s %s  expected %s\n",
			po.ID, po.VendorID, po.Total.StringFixed(2), po.Currency, po.ExpectedDate.Format("2006-01-02"))
		for _, line := range po.Lines {
			fmt.Fprintf(b, "    %-14s %8s %-4s @ %s\n", line.ItemID, line.Qty.String(), line.Unit, line.UnitCost.StringFixed(2))
		}
	}
	b.WriteString("\n")
}

func writeTasks(b *strings.Builder, p *entities.CommitteeProposal) {
	if len(p.PrepTasks) == 0 {
		return
	}
	b.WriteString(headStyle.Render("Prep schedule") + "\n")
	for _, task := range p.PrepTasks {
		fmt.Fprintf(b, "  %-14s %-14s %s - %s  %5.1fh  overtime %.2f\n",
			task.DemandItemID, task.StationID,
			task.Start.Format("Jan 02 15:04"), task.End.Format("15:04"),
			task.LaborHours, task.OvertimeRisk)
	}
	b.WriteString("\n")
}

func writeCritiques(b *strings.Builder, critiques []entities.CommitteeCritique) {
	if len(critiques) == 0 {
		return
	}
	b.WriteString(headStyle.Render("Critiques") + "\n")
	for _, c := range critiques {
		verdict := "approve"
		if !c.Approve {
			verdict = "reject"
		}
		if c.Failed {
			verdict = "failed"
		}
		fmt.Fprintf(b, "  %s: %s (score %.4f)\n", c.Agent, verdict, c.Metrics.Score)
		for _, issue := range c.Issues {
			blocking := ""
			if issue.Blocking {
				blocking = " [blocking]"
			}
			fmt.Fprintf(b, "    %s %s%s\n", severity(issue.Severity), issue.Message, blocking)
		}
	}
	b.WriteString("\n")
}

func writeAudit(b *strings.Builder, audit []dto.AuditEntry) {
	if len(audit) == 0 {
		return
	}
	b.WriteString(headStyle.Render("Audit trail") + "\n")
	for _, entry := range audit {
		proposal := ""
		if entry.Proposal != nil {
			proposal = entry.Proposal.ID
		}
		line := fmt.Sprintf("  #%d %-9s %-22s score %.4f", entry.Iteration, entry.Stage, proposal, entry.Metrics.Score)
		if entry.Status != "" {
			line += " " + string(entry.Status)
		}
		b.WriteString(line + "\n")
	}
	b.WriteString("\n")
}
