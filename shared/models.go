package shared

import "time"

// Role identifies one of the two submitting parties of a case.
type Role string

const (
	RoleForeigner Role = "foreigner"
	RoleCompany   Role = "company"
)

// Roles lists both submitting parties in display order.
var Roles = []Role{RoleForeigner, RoleCompany}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleForeigner || r == RoleCompany
}

// ParseRole converts a path segment or form value into a Role.
func ParseRole(s string) (Role, bool) {
	r := Role(s)
	return r, r.Valid()
}

// CaseStatus is the dashboard-level status of a case. It is derived, never
// set directly, except for the terminal completed flag.
type CaseStatus string

const (
	StatusCollecting CaseStatus = "collecting"
	StatusWriting    CaseStatus = "writing"
	StatusRevision   CaseStatus = "revision"
	StatusReady      CaseStatus = "ready"
	StatusCompleted  CaseStatus = "completed"
)

// Step is the wizard stage the agent is on.
type Step int

const (
	StepForeignerDocuments Step = 1
	StepCompanyDocuments   Step = 2
	StepDrafting           Step = 3
	StepExport             Step = 4
)

// Valid reports whether s is one of the four wizard stages.
func (s Step) Valid() bool {
	return s >= StepForeignerDocuments && s <= StepExport
}

// ReviewStatus is the agent's per-document judgment.
type ReviewStatus string

const (
	ReviewNotSubmitted      ReviewStatus = "not_submitted"
	ReviewSubmitted         ReviewStatus = "submitted"
	ReviewConfirmed         ReviewStatus = "confirmed"
	ReviewRevisionRequested ReviewStatus = "revision_requested"
	ReviewResubmitted       ReviewStatus = "resubmitted"
)

// DocumentRecord is one uploaded file. Content is base64 so the whole case
// serializes as a single JSON value.
type DocumentRecord struct {
	Name       string    `json:"name"`
	Size       int64     `json:"size"`
	MimeType   string    `json:"mimeType"`
	Content    string    `json:"content"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// RevisionInfo is attached to a document while a revision is outstanding.
type RevisionInfo struct {
	Note        string     `json:"note"`
	RequestedAt time.Time  `json:"requestedAt"`
	SentAt      *time.Time `json:"sentAt,omitempty"`
}

// DocumentReview holds the review state of one uploaded document.
type DocumentReview struct {
	Status      ReviewStatus  `json:"status"`
	Revision    *RevisionInfo `json:"revision,omitempty"`
	ConfirmedAt *time.Time    `json:"confirmedAt,omitempty"`
}

// Submission records a role's one-way "my documents are complete" action.
type Submission struct {
	IsSubmitted bool       `json:"isSubmitted"`
	SubmittedAt *time.Time `json:"submittedAt,omitempty"`
}

// Condition names understood by CaseFlags.
const (
	FlagIsCorporation = "is_corporation"
)

// DocumentRequirement describes a document a role is expected to submit.
type DocumentRequirement struct {
	ID          string `json:"id" yaml:"id"`
	Title       string `json:"title" yaml:"title"`
	Description string `json:"description" yaml:"description"`
	Required    bool   `json:"required" yaml:"required"`
	Conditional bool   `json:"conditional" yaml:"conditional"`
	Condition   string `json:"condition,omitempty" yaml:"condition,omitempty"`
	Custom      bool   `json:"custom,omitempty" yaml:"-"`
}

// CaseFlags are case-level facts that conditional requirements depend on.
type CaseFlags struct {
	IsCorporation bool `json:"isCorporation"`
}

// Enabled evaluates a named condition. Unknown conditions are false.
func (f CaseFlags) Enabled(condition string) bool {
	switch condition {
	case FlagIsCorporation:
		return f.IsCorporation
	default:
		return false
	}
}

// Party is everything a case holds for one submitting role: uploads, the
// agent's review of them, the submission flag and the per-case requirement
// selection.
type Party struct {
	Docs         map[string]DocumentRecord `json:"docs"`
	Reviews      map[string]DocumentReview `json:"reviews"`
	Submission   Submission                `json:"submission"`
	OptionalDocs []string                  `json:"optionalDocs,omitempty"`
	CustomDocs   []DocumentRequirement     `json:"customDocs,omitempty"`
}

// NewParty returns a Party with its maps allocated.
func NewParty() Party {
	return Party{
		Docs:    map[string]DocumentRecord{},
		Reviews: map[string]DocumentReview{},
	}
}

// Normalize allocates maps dropped by a JSON round trip.
func (p *Party) Normalize() {
	if p.Docs == nil {
		p.Docs = map[string]DocumentRecord{}
	}
	if p.Reviews == nil {
		p.Reviews = map[string]DocumentReview{}
	}
}

// HasDocument reports whether a record is present for docID.
func (p *Party) HasDocument(docID string) bool {
	_, ok := p.Docs[docID]
	return ok
}

// Tokens are the two upload-link tokens issued at case creation.
type Tokens struct {
	ForeignerToken string `json:"foreignerToken"`
	CompanyToken   string `json:"companyToken"`
}

// For returns the token of the given role.
func (t Tokens) For(role Role) string {
	if role == RoleCompany {
		return t.CompanyToken
	}
	return t.ForeignerToken
}

// FormData is the agent-entered input to document drafting.
type FormData struct {
	CompanyName   string `json:"companyName"`
	Industry      string `json:"industry"`
	EmployeeCount string `json:"employeeCount"`
	Address       string `json:"address"`
	JobTitle      string `json:"jobTitle"`
	JobSummary    string `json:"jobSummary"`
	HiringReason  string `json:"hiringReason"`
	Salary        string `json:"salary"`
	WorkHours     string `json:"workHours"`
	Dormitory     string `json:"dormitory"`
	ForeignerName string `json:"foreignerName"`
	Nationality   string `json:"nationality"`
	Major         string `json:"major"`
}

// GeneratedDocuments are the drafted employment-justification texts.
type GeneratedDocuments struct {
	EmploymentReason string    `json:"employmentReason"`
	JobDescription   string    `json:"jobDescription"`
	Version          int       `json:"version"`
	GeneratedAt      time.Time `json:"generatedAt"`
}

// Ready reports whether both texts exist. A nil receiver is not ready.
func (g *GeneratedDocuments) Ready() bool {
	return g != nil && g.EmploymentReason != "" && g.JobDescription != ""
}

// Case is one visa application pairing a foreign worker and an employer.
type Case struct {
	ID             string `json:"id"`
	ForeignerName  string `json:"foreignerName"`
	CompanyName    string `json:"companyName"`
	VisaType       string `json:"visaType"`
	ForeignerPhone string `json:"foreignerPhone,omitempty"`
	CompanyPhone   string `json:"companyPhone,omitempty"`

	// Status is a snapshot of the derived status, refreshed on every write.
	Status      CaseStatus `json:"status"`
	CurrentStep Step       `json:"currentStep"`
	Completed   bool       `json:"completed"`
	CompletedAt *time.Time `json:"completedAt,omitempty"`

	CreatedAt   time.Time `json:"createdAt"`
	LastUpdated time.Time `json:"lastUpdated"`

	Flags     CaseFlags `json:"flags"`
	Tokens    Tokens    `json:"tokens"`
	Foreigner Party     `json:"foreigner"`
	Company   Party     `json:"company"`

	FormData      *FormData           `json:"formData,omitempty"`
	Generated     *GeneratedDocuments `json:"generatedDocs,omitempty"`
	Memo          string              `json:"memo,omitempty"`
	MemoUpdatedAt *time.Time          `json:"memoUpdatedAt,omitempty"`
}

// Party returns the party record of role. Unknown roles yield nil.
func (c *Case) Party(role Role) *Party {
	switch role {
	case RoleForeigner:
		return &c.Foreigner
	case RoleCompany:
		return &c.Company
	default:
		return nil
	}
}

// Normalize repairs nil maps after decoding.
func (c *Case) Normalize() {
	c.Foreigner.Normalize()
	c.Company.Normalize()
}
