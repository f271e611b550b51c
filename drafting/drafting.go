// Package drafting renders the employment-justification texts submitted
// with an E-7 application from the agent's form input.
package drafting

import (
	"bytes"
	"embed"
	"fmt"
	"slices"
	"strings"
	"text/template"
	"time"

	"e7-casework/caseerr"
	"e7-casework/catalog"
	"e7-casework/shared"
)

// Defaults applied to blank optional form fields.
const (
	DefaultWorkHours = "40 hours/week (09:00-18:00)"
	DefaultDormitory = "not provided"
)

//go:embed templates/*.tmpl
var templateFS embed.FS

// Drafter renders generated documents.
type Drafter struct {
	tmpl *template.Template
}

// New parses the embedded templates.
func New() (*Drafter, error) {
	tmpl, err := template.ParseFS(templateFS, "templates/*.tmpl")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	return &Drafter{tmpl: tmpl}, nil
}

// Default returns a Drafter over the embedded templates and panics if they
// do not parse.
func Default() *Drafter {
	d, err := New()
	if err != nil {
		panic(err)
	}
	return d
}

// Validate reports the form fields that must be filled before drafting.
func Validate(form shared.FormData) error {
	var missing []string
	for name, value := range map[string]string{
		"companyName":   form.CompanyName,
		"jobTitle":      form.JobTitle,
		"foreignerName": form.ForeignerName,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, name)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	slices.Sort(missing)
	return &caseerr.Error{
		Code:     caseerr.CodeInvalidInput,
		Message:  "form is missing " + strings.Join(missing, ", "),
		Metadata: map[string]string{"fields": strings.Join(missing, ",")},
		Missing:  missing,
	}
}

// Generate renders both texts. The version continues from prev so every
// regeneration is distinguishable.
func (d *Drafter) Generate(form shared.FormData, prev *shared.GeneratedDocuments, now time.Time) (shared.GeneratedDocuments, error) {
	if err := Validate(form); err != nil {
		return shared.GeneratedDocuments{}, err
	}
	form = withDefaults(form)

	reason, err := d.render("employment_reason.tmpl", form)
	if err != nil {
		return shared.GeneratedDocuments{}, err
	}
	job, err := d.render("job_description.tmpl", form)
	if err != nil {
		return shared.GeneratedDocuments{}, err
	}
	version := 1
	if prev != nil {
		version = prev.Version + 1
	}
	return shared.GeneratedDocuments{
		EmploymentReason: reason,
		JobDescription:   job,
		Version:          version,
		GeneratedAt:      now.UTC(),
	}, nil
}

func (d *Drafter) render(name string, form shared.FormData) (string, error) {
	var buf bytes.Buffer
	if err := d.tmpl.ExecuteTemplate(&buf, name, form); err != nil {
		return "", fmt.Errorf("render %s: %w", name, err)
	}
	return strings.TrimSpace(buf.String()), nil
}

func withDefaults(form shared.FormData) shared.FormData {
	clean := func(s *string) { *s = catalog.CleanText(*s) }
	for _, field := range []*string{
		&form.CompanyName, &form.Industry, &form.EmployeeCount, &form.Address,
		&form.JobTitle, &form.JobSummary, &form.HiringReason, &form.Salary,
		&form.WorkHours, &form.Dormitory, &form.ForeignerName, &form.Nationality, &form.Major,
	} {
		clean(field)
	}
	if form.WorkHours == "" {
		form.WorkHours = DefaultWorkHours
	}
	if form.Dormitory == "" {
		form.Dormitory = DefaultDormitory
	}
	return form
}
