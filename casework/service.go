// Package casework is the application service behind the agent dashboard and
// the submitter upload pages. It composes the case store, token service,
// requirement catalog, review state machine, submission gate and progress
// aggregator.
package casework

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"

	"e7-casework/caseerr"
	"e7-casework/casestore"
	"e7-casework/catalog"
	"e7-casework/drafting"
	"e7-casework/progress"
	"e7-casework/shared"
	"e7-casework/storage"
	"e7-casework/tokens"
)

// DefaultVisaType is used when a case is created without one.
const DefaultVisaType = "E-7"

// DefaultMaxUploadBytes caps a single uploaded file.
const DefaultMaxUploadBytes = 10 << 20

// Deps wires a Service.
type Deps struct {
	Repo     storage.CaseRepository
	Index    storage.TokenIndex
	Catalog  *catalog.Catalog
	Drafter  *drafting.Drafter
	Notifier Notifier
	Logger   *zap.Logger

	Clock  func() time.Time
	Random io.Reader

	PublicOrigin     string
	MaxUploadBytes   int64
	ReminderInterval time.Duration
	MaxReminders     int
}

// Service implements every casework operation.
type Service struct {
	store    *casestore.Store
	tokens   *tokens.Service
	catalog  *catalog.Catalog
	drafter  *drafting.Drafter
	notifier Notifier
	logger   *zap.Logger

	origin           string
	maxUploadBytes   int64
	reminderInterval time.Duration
	maxReminders     int

	uploads casestore.KeyedMutex
}

// New builds a Service. Repo and Index are required; everything else has a
// default.
func New(d Deps) *Service {
	s := &Service{
		catalog:          d.Catalog,
		drafter:          d.Drafter,
		notifier:         d.Notifier,
		logger:           d.Logger,
		origin:           strings.TrimRight(d.PublicOrigin, "/"),
		maxUploadBytes:   d.MaxUploadBytes,
		reminderInterval: d.ReminderInterval,
		maxReminders:     d.MaxReminders,
	}
	if s.catalog == nil {
		s.catalog = catalog.Default()
	}
	if s.drafter == nil {
		s.drafter = drafting.Default()
	}
	if s.notifier == nil {
		s.notifier = NopNotifier{}
	}
	if s.logger == nil {
		s.logger = zap.NewNop()
	}
	if s.maxUploadBytes <= 0 {
		s.maxUploadBytes = DefaultMaxUploadBytes
	}
	if s.reminderInterval <= 0 {
		s.reminderInterval = shared.DefaultReminderInterval
	}
	if s.maxReminders <= 0 {
		s.maxReminders = shared.DefaultMaxReminders
	}

	storeOpts := []casestore.Option{casestore.WithStatus(s.deriveStatus)}
	if d.Clock != nil {
		storeOpts = append(storeOpts, casestore.WithClock(d.Clock))
	}
	s.store = casestore.New(d.Repo, storeOpts...)

	var tokenOpts []tokens.Option
	if d.Random != nil {
		tokenOpts = append(tokenOpts, tokens.WithRandom(d.Random))
	}
	s.tokens = tokens.NewService(d.Index, tokenOpts...)
	return s
}

// Catalog exposes the requirement catalog in use.
func (s *Service) Catalog() *catalog.Catalog {
	return s.catalog
}

// NewCase is the agent input for CreateCase.
type NewCase struct {
	ForeignerName  string `json:"foreignerName"`
	CompanyName    string `json:"companyName"`
	VisaType       string `json:"visaType"`
	ForeignerPhone string `json:"foreignerPhone"`
	CompanyPhone   string `json:"companyPhone"`
	IsCorporation  bool   `json:"isCorporation"`
}

// CreateCase registers a case, issues both upload tokens and starts the
// case lifecycle.
func (s *Service) CreateCase(ctx context.Context, in NewCase) (shared.Case, error) {
	foreigner := catalog.CleanText(in.ForeignerName)
	company := catalog.CleanText(in.CompanyName)
	if foreigner == "" || company == "" {
		return shared.Case{}, caseerr.New(caseerr.CodeInvalidInput, "foreigner and company names are required")
	}
	visaType := catalog.CleanText(in.VisaType)
	if visaType == "" {
		visaType = DefaultVisaType
	}

	id := ulid.Make().String()
	issued, err := s.tokens.Issue(ctx, id)
	if err != nil {
		return shared.Case{}, fmt.Errorf("issue tokens: %w", err)
	}
	c, err := s.store.Create(ctx, shared.Case{
		ID:             id,
		ForeignerName:  foreigner,
		CompanyName:    company,
		VisaType:       visaType,
		ForeignerPhone: strings.TrimSpace(in.ForeignerPhone),
		CompanyPhone:   strings.TrimSpace(in.CompanyPhone),
		CurrentStep:    shared.StepForeignerDocuments,
		Flags:          shared.CaseFlags{IsCorporation: in.IsCorporation},
		Tokens:         issued,
		Foreigner:      shared.NewParty(),
		Company:        shared.NewParty(),
	})
	if err != nil {
		if rerr := s.tokens.Revoke(ctx, issued); rerr != nil {
			s.logger.Warn("revoke tokens of failed case", zap.String("case_id", id), zap.Error(rerr))
		}
		return shared.Case{}, err
	}

	s.logger.Info("case created", zap.String("case_id", id), zap.String("visa_type", visaType))
	s.notify("case created", id, s.notifier.CaseCreated(ctx, shared.CaseWorkflowRequest{
		CaseID:           id,
		ForeignerName:    c.ForeignerName,
		CompanyName:      c.CompanyName,
		ForeignerPhone:   c.ForeignerPhone,
		CompanyPhone:     c.CompanyPhone,
		ReminderInterval: s.reminderInterval,
		MaxReminders:     s.maxReminders,
	}))
	return c, nil
}

// GetCase returns the full case record.
func (s *Service) GetCase(ctx context.Context, caseID string) (shared.Case, error) {
	return s.store.Get(ctx, caseID)
}

// ListCases returns dashboard summaries, most recently updated first.
func (s *Service) ListCases(ctx context.Context) ([]Summary, error) {
	cases, err := s.store.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]Summary, 0, len(cases))
	for i := range cases {
		in, err := s.input(&cases[i])
		if err != nil {
			return nil, err
		}
		out = append(out, summarize(in))
	}
	return out, nil
}

// DeleteCase removes a case and revokes its upload links.
func (s *Service) DeleteCase(ctx context.Context, caseID string) error {
	c, err := s.store.Delete(ctx, caseID)
	if err != nil {
		return err
	}
	if err := s.tokens.Revoke(ctx, c.Tokens); err != nil {
		return err
	}
	s.logger.Info("case deleted", zap.String("case_id", caseID))
	s.notify("case deleted", caseID, s.notifier.CaseDeleted(ctx, caseID))
	return nil
}

// Links are the two shareable upload URLs of a case.
type Links struct {
	Foreigner string `json:"foreigner"`
	Company   string `json:"company"`
}

// UploadLink renders {origin}/upload/{role}/{token}.
func (s *Service) UploadLink(role shared.Role, token string) string {
	return fmt.Sprintf("%s/upload/%s/%s", s.origin, role, token)
}

// UploadLinks returns both upload links of a case.
func (s *Service) UploadLinks(ctx context.Context, caseID string) (Links, error) {
	c, err := s.store.Get(ctx, caseID)
	if err != nil {
		return Links{}, err
	}
	return Links{
		Foreigner: s.UploadLink(shared.RoleForeigner, c.Tokens.ForeignerToken),
		Company:   s.UploadLink(shared.RoleCompany, c.Tokens.CompanyToken),
	}, nil
}

// Overview returns a case with its derived progress and per-role
// requirement state.
func (s *Service) Overview(ctx context.Context, caseID string) (Overview, error) {
	c, err := s.store.Get(ctx, caseID)
	if err != nil {
		return Overview{}, err
	}
	return s.overview(&c)
}

func (s *Service) overview(c *shared.Case) (Overview, error) {
	in, err := s.input(c)
	if err != nil {
		return Overview{}, err
	}
	ov := Overview{
		Case:         *c,
		Status:       progress.DeriveStatus(in),
		Progress:     progress.DerivePercent(in),
		StepProgress: progress.StepProgress(in),
		Activation:   progress.Activation(in),
		Requirements: map[shared.Role][]RequirementState{},
	}
	for _, role := range shared.Roles {
		states, err := s.requirementStates(c, role)
		if err != nil {
			return Overview{}, err
		}
		ov.Requirements[role] = states
	}
	return ov, nil
}

// input evaluates the required sets of both roles for the aggregator.
func (s *Service) input(c *shared.Case) (progress.Input, error) {
	foreigner, err := s.catalog.Required(c, shared.RoleForeigner)
	if err != nil {
		return progress.Input{}, err
	}
	company, err := s.catalog.Required(c, shared.RoleCompany)
	if err != nil {
		return progress.Input{}, err
	}
	in := progress.Input{Case: c, ForeignerRequired: foreigner, CompanyRequired: company}
	if in.ForeignerActive, err = s.catalog.List(c, shared.RoleForeigner); err != nil {
		return progress.Input{}, err
	}
	if in.CompanyActive, err = s.catalog.List(c, shared.RoleCompany); err != nil {
		return progress.Input{}, err
	}
	return in, nil
}

func (s *Service) deriveStatus(c *shared.Case) shared.CaseStatus {
	in, err := s.input(c)
	if err != nil {
		return c.Status
	}
	return progress.DeriveStatus(in)
}

func (s *Service) notify(event, caseID string, err error) {
	if err != nil {
		s.logger.Warn("notify "+event, zap.String("case_id", caseID), zap.Error(err))
	}
}

func (s *Service) now() time.Time {
	return s.store.Now()
}
