package casework

import (
	"time"

	"e7-casework/gate"
	"e7-casework/progress"
	"e7-casework/review"
	"e7-casework/shared"
)

// Summary is one dashboard row.
type Summary struct {
	ID            string            `json:"id"`
	ForeignerName string            `json:"foreignerName"`
	CompanyName   string            `json:"companyName"`
	VisaType      string            `json:"visaType"`
	Status        shared.CaseStatus `json:"status"`
	Progress      int               `json:"progress"`
	StepProgress  string            `json:"stepProgress"`
	CurrentStep   shared.Step       `json:"currentStep"`
	LastUpdated   time.Time         `json:"lastUpdated"`
}

func summarize(in progress.Input) Summary {
	c := in.Case
	return Summary{
		ID:            c.ID,
		ForeignerName: c.ForeignerName,
		CompanyName:   c.CompanyName,
		VisaType:      c.VisaType,
		Status:        progress.DeriveStatus(in),
		Progress:      progress.DerivePercent(in),
		StepProgress:  progress.StepProgress(in),
		CurrentStep:   c.CurrentStep,
		LastUpdated:   c.LastUpdated,
	}
}

// DocumentMeta describes an upload without its content.
type DocumentMeta struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// RequirementState is a requirement joined with its upload and review.
type RequirementState struct {
	shared.DocumentRequirement
	Document     *DocumentMeta        `json:"document,omitempty"`
	ReviewStatus shared.ReviewStatus  `json:"reviewStatus"`
	Revision     *shared.RevisionInfo `json:"revision,omitempty"`
}

// Overview is the agent's view of one case.
type Overview struct {
	Case         shared.Case                        `json:"case"`
	Status       shared.CaseStatus                  `json:"status"`
	Progress     int                                `json:"progress"`
	StepProgress string                             `json:"stepProgress"`
	Activation   progress.StepActivation            `json:"activation"`
	Requirements map[shared.Role][]RequirementState `json:"requirements"`
}

// UploadPage is what a submitter sees behind a valid link. It carries no
// other role's data and no document content.
type UploadPage struct {
	Role          shared.Role        `json:"role"`
	ForeignerName string             `json:"foreignerName"`
	CompanyName   string             `json:"companyName"`
	VisaType      string             `json:"visaType"`
	Requirements  []RequirementState `json:"requirements"`
	Submission    shared.Submission  `json:"submission"`
	CanSubmit     bool               `json:"canSubmit"`
	Missing       []string           `json:"missing,omitempty"`
}

func (s *Service) requirementStates(c *shared.Case, role shared.Role) ([]RequirementState, error) {
	reqs, err := s.catalog.List(c, role)
	if err != nil {
		return nil, err
	}
	party := c.Party(role)
	out := make([]RequirementState, 0, len(reqs))
	for _, req := range reqs {
		state := RequirementState{
			DocumentRequirement: req,
			ReviewStatus:        review.Status(party, req.ID),
			Revision:            review.Revision(party, req.ID),
		}
		if rec, ok := party.Docs[req.ID]; ok {
			state.Document = &DocumentMeta{
				Name:       rec.Name,
				Size:       rec.Size,
				MimeType:   rec.MimeType,
				UploadedAt: rec.UploadedAt,
			}
		}
		out = append(out, state)
	}
	return out, nil
}

func (s *Service) uploadPage(c *shared.Case, role shared.Role) (UploadPage, error) {
	states, err := s.requirementStates(c, role)
	if err != nil {
		return UploadPage{}, err
	}
	required, err := s.catalog.Required(c, role)
	if err != nil {
		return UploadPage{}, err
	}
	party := c.Party(role)
	missing := gate.Missing(party, required)
	return UploadPage{
		Role:          role,
		ForeignerName: c.ForeignerName,
		CompanyName:   c.CompanyName,
		VisaType:      c.VisaType,
		Requirements:  states,
		Submission:    party.Submission,
		CanSubmit:     len(missing) == 0,
		Missing:       missing,
	}, nil
}
