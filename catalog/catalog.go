// Package catalog is the document requirement catalog: the base definitions
// per role plus each case's selection of optional and custom documents.
package catalog

import (
	_ "embed"
	"fmt"
	"slices"
	"strings"

	"github.com/oklog/ulid/v2"
	"golang.org/x/text/unicode/norm"
	"gopkg.in/yaml.v3"

	"e7-casework/caseerr"
	"e7-casework/shared"
)

//go:embed requirements.yaml
var defaultDefinitions []byte

const defaultCustomDescription = "Additional document"

type roleDefinitions struct {
	Base     []shared.DocumentRequirement `yaml:"base"`
	Optional []shared.DocumentRequirement `yaml:"optional"`
}

// Catalog holds the static definitions. Per-case state lives on the case's
// Party records, so one Catalog serves every case.
type Catalog struct {
	roles map[shared.Role]roleDefinitions
	newID func(role shared.Role) string
}

// Load parses YAML definitions keyed by role.
func Load(data []byte) (*Catalog, error) {
	var raw map[shared.Role]roleDefinitions
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse requirement catalog: %w", err)
	}
	seen := map[string]bool{}
	for _, role := range shared.Roles {
		defs, ok := raw[role]
		if !ok {
			return nil, fmt.Errorf("requirement catalog: missing role %q", role)
		}
		for i := range defs.Optional {
			defs.Optional[i].Required = false
			defs.Optional[i].Conditional = false
		}
		for _, d := range append(slices.Clone(defs.Base), defs.Optional...) {
			key := string(role) + "/" + d.ID
			if d.ID == "" || seen[key] {
				return nil, fmt.Errorf("requirement catalog: empty or duplicate id %q", key)
			}
			if d.Conditional && d.Condition == "" {
				return nil, fmt.Errorf("requirement catalog: %s is conditional without a condition", key)
			}
			seen[key] = true
		}
		raw[role] = defs
	}
	return &Catalog{roles: raw, newID: newCustomID}, nil
}

// Default returns the catalog built from the embedded definitions.
func Default() *Catalog {
	c, err := Load(defaultDefinitions)
	if err != nil {
		panic(err)
	}
	return c
}

func newCustomID(role shared.Role) string {
	return "custom_" + string(role) + "_" + strings.ToLower(ulid.Make().String())
}

// List returns the active requirements of role in display order: base
// entries whose condition holds, activated optional entries, then custom
// entries in the order they were added.
func (c *Catalog) List(cs *shared.Case, role shared.Role) ([]shared.DocumentRequirement, error) {
	defs, party, err := c.resolve(cs, role)
	if err != nil {
		return nil, err
	}
	out := make([]shared.DocumentRequirement, 0, len(defs.Base)+len(party.OptionalDocs)+len(party.CustomDocs))
	for _, d := range defs.Base {
		if d.Conditional && !cs.Flags.Enabled(d.Condition) {
			continue
		}
		out = append(out, d)
	}
	for _, d := range defs.Optional {
		if slices.Contains(party.OptionalDocs, d.ID) {
			out = append(out, d)
		}
	}
	out = append(out, party.CustomDocs...)
	return out, nil
}

// Required returns the active requirements of role that must be present
// before the role can submit.
func (c *Catalog) Required(cs *shared.Case, role shared.Role) ([]shared.DocumentRequirement, error) {
	all, err := c.List(cs, role)
	if err != nil {
		return nil, err
	}
	out := all[:0:0]
	for _, d := range all {
		if d.Required {
			out = append(out, d)
		}
	}
	return out, nil
}

// Lookup finds docID among the active requirements of role.
func (c *Catalog) Lookup(cs *shared.Case, role shared.Role, docID string) (shared.DocumentRequirement, bool) {
	all, err := c.List(cs, role)
	if err != nil {
		return shared.DocumentRequirement{}, false
	}
	for _, d := range all {
		if d.ID == docID {
			return d, true
		}
	}
	return shared.DocumentRequirement{}, false
}

// Optional returns the optional definitions of role, active or not.
func (c *Catalog) Optional(role shared.Role) []shared.DocumentRequirement {
	return slices.Clone(c.roles[role].Optional)
}

// Activate adds an optional document to the case's requested set. A role
// that already submitted cannot be asked for more.
func (c *Catalog) Activate(cs *shared.Case, role shared.Role, docID string) error {
	defs, party, err := c.resolve(cs, role)
	if err != nil {
		return err
	}
	if isBase(defs, docID) {
		return caseerr.Newf(caseerr.CodeCannotModifyRequired, "%s is a base requirement of %s", docID, role)
	}
	if !isOptional(defs, docID) {
		return caseerr.Newf(caseerr.CodeNotFound, "no optional document %s for %s", docID, role)
	}
	if slices.Contains(party.OptionalDocs, docID) {
		return nil
	}
	if err := lockedAfterSubmission(party, role, docID); err != nil {
		return err
	}
	party.OptionalDocs = append(party.OptionalDocs, docID)
	return nil
}

// Deactivate removes an optional document from the requested set and drops
// any upload and review state it had.
func (c *Catalog) Deactivate(cs *shared.Case, role shared.Role, docID string) error {
	defs, party, err := c.resolve(cs, role)
	if err != nil {
		return err
	}
	if isBase(defs, docID) {
		return caseerr.Newf(caseerr.CodeCannotModifyRequired, "%s is a base requirement of %s", docID, role)
	}
	if !isOptional(defs, docID) {
		return caseerr.Newf(caseerr.CodeNotFound, "no optional document %s for %s", docID, role)
	}
	party.OptionalDocs = slices.DeleteFunc(party.OptionalDocs, func(id string) bool { return id == docID })
	dropDocument(party, docID)
	return nil
}

// AddCustom appends a free-text requirement. Custom requirements are never
// required and always removable.
func (c *Catalog) AddCustom(cs *shared.Case, role shared.Role, title, description string) (shared.DocumentRequirement, error) {
	_, party, err := c.resolve(cs, role)
	if err != nil {
		return shared.DocumentRequirement{}, err
	}
	title = CleanText(title)
	if err := lockedAfterSubmission(party, role, title); err != nil {
		return shared.DocumentRequirement{}, err
	}
	if title == "" {
		return shared.DocumentRequirement{}, caseerr.New(caseerr.CodeInvalidInput, "custom document title is required")
	}
	description = CleanText(description)
	if description == "" {
		description = defaultCustomDescription
	}
	req := shared.DocumentRequirement{
		ID:          c.newID(role),
		Title:       title,
		Description: description,
		Custom:      true,
	}
	party.CustomDocs = append(party.CustomDocs, req)
	return req, nil
}

// RemoveCustom deletes a custom requirement and any upload and review state
// attached to it.
func (c *Catalog) RemoveCustom(cs *shared.Case, role shared.Role, docID string) error {
	defs, party, err := c.resolve(cs, role)
	if err != nil {
		return err
	}
	if isBase(defs, docID) {
		return caseerr.Newf(caseerr.CodeCannotModifyRequired, "%s is a base requirement of %s", docID, role)
	}
	idx := slices.IndexFunc(party.CustomDocs, func(d shared.DocumentRequirement) bool { return d.ID == docID })
	if idx < 0 {
		return caseerr.Newf(caseerr.CodeNotFound, "no custom document %s for %s", docID, role)
	}
	party.CustomDocs = slices.Delete(party.CustomDocs, idx, idx+1)
	dropDocument(party, docID)
	return nil
}

func (c *Catalog) resolve(cs *shared.Case, role shared.Role) (roleDefinitions, *shared.Party, error) {
	if cs == nil {
		return roleDefinitions{}, nil, caseerr.New(caseerr.CodeNotFound, "case is missing")
	}
	party := cs.Party(role)
	if party == nil {
		return roleDefinitions{}, nil, caseerr.Newf(caseerr.CodeInvalidInput, "unknown role %q", role)
	}
	party.Normalize()
	return c.roles[role], party, nil
}

func lockedAfterSubmission(party *shared.Party, role shared.Role, doc string) error {
	if !party.Submission.IsSubmitted {
		return nil
	}
	return caseerr.WithMetadata(caseerr.CodeLockedBySubmission,
		fmt.Sprintf("%s already submitted, cannot request %s", role, doc),
		map[string]string{"role": string(role), "document": doc})
}

func dropDocument(party *shared.Party, docID string) {
	delete(party.Docs, docID)
	delete(party.Reviews, docID)
}

func isBase(defs roleDefinitions, docID string) bool {
	return slices.ContainsFunc(defs.Base, func(d shared.DocumentRequirement) bool { return d.ID == docID })
}

func isOptional(defs roleDefinitions, docID string) bool {
	return slices.ContainsFunc(defs.Optional, func(d shared.DocumentRequirement) bool { return d.ID == docID })
}

// CleanText trims surrounding whitespace and composes Hangul jamo (NFC) so
// titles typed on different keyboards compare equal.
func CleanText(s string) string {
	return strings.TrimSpace(norm.NFC.String(s))
}
