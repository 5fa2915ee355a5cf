package decision

import (
	"fmt"

	"github.com/vsinha/prepcommittee/pkg/domain/entities"
	"github.com/vsinha/prepcommittee/pkg/util"
)

// ValidateHardConstraints checks p against policy alone: the shelf-life
// floor, the under-order risk ceiling and the T-24 lock. Agent votes play no
// part, so consensus cannot override a violation.
func ValidateHardConstraints(
	p *entities.CommitteeProposal,
	cctx entities.CommitteeContext,
	locked []entities.PrepTask,
) entities.HardConstraintResult {
	result := entities.HardConstraintResult{Violations: []entities.ConstraintViolation{}}
	constraints := cctx.Policy.Constraints

	for _, item := range p.Items {
		if hours, ok := item.ShelfLife(); ok && constraints.EnforceShelfLife && hours < constraints.MinShelfLifeHours {
			result.Violations = append(result.Violations, entities.ConstraintViolation{
				Rule:     entities.RuleShelfLife,
				TargetID: item.ID,
				Message:  fmt.Sprintf("shelf life %.0fh below %.0fh floor", hours, constraints.MinShelfLifeHours),
			})
		}
		if item.AdjustedRisk > constraints.MaxUnderOrderRisk {
			result.Violations = append(result.Violations, entities.ConstraintViolation{
				Rule:     entities.RuleUnderOrderRisk,
				TargetID: item.ID,
				Message:  fmt.Sprintf("under-order risk %.2f above %.2f", item.AdjustedRisk, constraints.MaxUnderOrderRisk),
			})
		}
	}

	if constraints.EnforceT24Lock && !cctx.ServiceDate.IsZero() {
		lockStart := cctx.ServiceDate.Add(-util.Hours(constraints.T24LockHours))
		for _, task := range p.PrepTasks {
			if task.Start.Before(lockStart) || task.Start.After(cctx.ServiceDate) {
				continue
			}
			for _, prior := range locked {
				if prior.DemandItemID == task.DemandItemID && !task.SameSchedule(prior) {
					result.Violations = append(result.Violations, entities.ConstraintViolation{
						Rule:     entities.RuleT24Lock,
						TargetID: task.ID,
						Message:  fmt.Sprintf("prep for %s differs from its locked version", task.DemandItemID),
					})
					break
				}
			}
		}
	}

	result.Passed = len(result.Violations) == 0
	return result
}
