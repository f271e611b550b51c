package shared

import "time"

// LifecyclePhase is the phase reported by the case lifecycle workflow.
type LifecyclePhase string

const (
	PhaseCollecting LifecyclePhase = "COLLECTING"
	PhaseReviewing  LifecyclePhase = "REVIEWING"
	PhaseExporting  LifecyclePhase = "EXPORTING"
	PhaseCompleted  LifecyclePhase = "COMPLETED"
)

// CaseWorkflowRequest is the input to CaseLifecycleWorkflow.
type CaseWorkflowRequest struct {
	CaseID           string        `json:"caseId"`
	ForeignerName    string        `json:"foreignerName"`
	CompanyName      string        `json:"companyName"`
	ForeignerPhone   string        `json:"foreignerPhone"`
	CompanyPhone     string        `json:"companyPhone"`
	ReminderInterval time.Duration `json:"reminderInterval"`
	MaxReminders     int           `json:"maxReminders"`
}

// Phone returns the contact number on file for role.
func (r CaseWorkflowRequest) Phone(role Role) string {
	if role == RoleCompany {
		return r.CompanyPhone
	}
	return r.ForeignerPhone
}

// ReminderRequest is the input to the SendReminder activity.
type ReminderRequest struct {
	CaseID   string `json:"caseId"`
	Role     Role   `json:"role"`
	Phone    string `json:"phone"`
	Sequence int    `json:"sequence"`
}

// RevisionNotice asks the submitter of one document to replace it.
type RevisionNotice struct {
	CaseID      string    `json:"caseId"`
	Role        Role      `json:"role"`
	DocumentID  string    `json:"documentId"`
	Note        string    `json:"note"`
	Phone       string    `json:"phone"`
	RequestedAt time.Time `json:"requestedAt"`
}

// LifecycleStatus is returned by the lifecycle query handler.
type LifecycleStatus struct {
	Phase              LifecyclePhase `json:"phase"`
	ForeignerSubmitted bool           `json:"foreignerSubmitted"`
	CompanySubmitted   bool           `json:"companySubmitted"`
	RemindersSent      int            `json:"remindersSent"`
	NoticesSent        int            `json:"noticesSent"`
}

// ExportResult is the output of the ExportCasePackage activity.
type ExportResult struct {
	CaseID   string `json:"caseId"`
	Filename string `json:"filename"`
	Size     int    `json:"size"`
	Location string `json:"location,omitempty"`
}

// CompletionNotice tells a submitter that their case package was filed.
type CompletionNotice struct {
	CaseID string `json:"caseId"`
	Role   Role   `json:"role"`
	Phone  string `json:"phone"`
}
