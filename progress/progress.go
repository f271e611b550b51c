// Package progress derives dashboard status, percentage and wizard guidance
// from a case. Everything here is a pure function of its input.
package progress

import (
	"fmt"
	"math"

	"e7-casework/gate"
	"e7-casework/review"
	"e7-casework/shared"
)

// Input is a case together with the required and active document sets of
// both roles, already evaluated against the case flags. Uploads outside the
// active sets are ignored.
type Input struct {
	Case              *shared.Case
	ForeignerRequired []shared.DocumentRequirement
	CompanyRequired   []shared.DocumentRequirement
	ForeignerActive   []shared.DocumentRequirement
	CompanyActive     []shared.DocumentRequirement
}

func (in Input) required(role shared.Role) []shared.DocumentRequirement {
	if role == shared.RoleCompany {
		return in.CompanyRequired
	}
	return in.ForeignerRequired
}

func (in Input) active(role shared.Role) []shared.DocumentRequirement {
	if role == shared.RoleCompany {
		return in.CompanyActive
	}
	return in.ForeignerActive
}

func (in Input) satisfied(role shared.Role) bool {
	return gate.Satisfied(in.Case.Party(role), in.required(role))
}

// counts returns how many required documents exist across both roles, how
// many are present and how many are confirmed.
func (in Input) counts() (total, present, confirmed int) {
	for _, role := range shared.Roles {
		p := in.Case.Party(role)
		for _, req := range in.required(role) {
			total++
			switch review.Status(p, req.ID) {
			case shared.ReviewNotSubmitted:
			case shared.ReviewConfirmed:
				present++
				confirmed++
			default:
				present++
			}
		}
	}
	return total, present, confirmed
}

// revisionOutstanding looks at active documents only. A revision left on a
// conditional document whose condition was cleared no longer holds the
// case.
func (in Input) revisionOutstanding() bool {
	for _, role := range shared.Roles {
		p := in.Case.Party(role)
		for _, req := range in.active(role) {
			if review.Status(p, req.ID) == shared.ReviewRevisionRequested {
				return true
			}
		}
	}
	return false
}

// DeriveStatus computes the case status. Precedence: completed, revision,
// ready, writing, collecting. The wizard step is not consulted: writing
// follows from both roles being satisfied, whichever step the agent is on.
func DeriveStatus(in Input) shared.CaseStatus {
	c := in.Case
	if c.Completed {
		return shared.StatusCompleted
	}
	if in.revisionOutstanding() {
		return shared.StatusRevision
	}
	total, _, confirmed := in.counts()
	if c.Generated.Ready() && confirmed == total {
		return shared.StatusReady
	}
	if in.satisfied(shared.RoleForeigner) && in.satisfied(shared.RoleCompany) {
		return shared.StatusWriting
	}
	return shared.StatusCollecting
}

// DerivePercent computes progress in [0,100] as four equally weighted
// phases: required documents present, required documents confirmed,
// documents generated, final step reached. It never decreases when a
// document is uploaded or confirmed, or when the step advances.
func DerivePercent(in Input) int {
	total, present, confirmed := in.counts()
	collection, reviewed := 1.0, 1.0
	if total > 0 {
		collection = float64(present) / float64(total)
		reviewed = float64(confirmed) / float64(total)
	}
	pct := 25*collection + 25*reviewed
	if in.Case.Generated.Ready() {
		pct += 25
	}
	if in.Case.CurrentStep == shared.StepExport || in.Case.Completed {
		pct += 25
	}
	return int(math.Round(pct))
}

// StepActivation says which wizard steps the agent may open and which one
// the case is waiting on.
type StepActivation struct {
	Step1       bool        `json:"step1"`
	Step2       bool        `json:"step2"`
	Step3       bool        `json:"step3"`
	Step4       bool        `json:"step4"`
	Recommended shared.Step `json:"recommendedStep"`
}

// Enabled reports whether step may be opened.
func (a StepActivation) Enabled(step shared.Step) bool {
	switch step {
	case shared.StepForeignerDocuments:
		return a.Step1
	case shared.StepCompanyDocuments:
		return a.Step2
	case shared.StepDrafting:
		return a.Step3
	case shared.StepExport:
		return a.Step4
	default:
		return false
	}
}

// Activation computes wizard step availability. Collection steps are
// always open; drafting opens once both roles are satisfied; export opens
// once documents have been generated.
func Activation(in Input) StepActivation {
	generated := in.Case.Generated.Ready()
	return StepActivation{
		Step1:       true,
		Step2:       true,
		Step3:       in.satisfied(shared.RoleForeigner) && in.satisfied(shared.RoleCompany),
		Step4:       generated,
		Recommended: RecommendedStep(in),
	}
}

// RecommendedStep is the first step that still needs work.
func RecommendedStep(in Input) shared.Step {
	switch {
	case !in.satisfied(shared.RoleForeigner):
		return shared.StepForeignerDocuments
	case !in.satisfied(shared.RoleCompany):
		return shared.StepCompanyDocuments
	case !in.Case.Generated.Ready():
		return shared.StepDrafting
	default:
		return shared.StepExport
	}
}

// StepProgress is the short dashboard label describing where a case stands,
// for example "foreigner documents 3/4".
func StepProgress(in Input) string {
	if in.Case.Completed {
		return "completed"
	}
	switch step := RecommendedStep(in); step {
	case shared.StepForeignerDocuments, shared.StepCompanyDocuments:
		role := shared.RoleForeigner
		if step == shared.StepCompanyDocuments {
			role = shared.RoleCompany
		}
		required := in.required(role)
		missing := gate.Missing(in.Case.Party(role), required)
		return fmt.Sprintf("%s documents %d/%d", role, len(required)-len(missing), len(required))
	case shared.StepDrafting:
		return "drafting documents"
	default:
		return "ready to export"
	}
}
