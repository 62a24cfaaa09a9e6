package broadcast

import (
	"fmt"
	"strings"

	"github.com/pkg/errors"

	"github.com/trezcool/schoolconnect/core"
)

type AudienceID string

const (
	AudienceStudents AudienceID = "students"
	AudienceTeachers AudienceID = "teachers"
	AudienceParents  AudienceID = "parents"
	AudienceStaff    AudienceID = "staff"
)

// Text limits of the compose forms.
const (
	MaxTitleLength     = 100
	MaxBodyLength      = 1000
	MaxClassBodyLength = 500
)

var (
	ErrUnknownAudience = errors.New("unknown audience")
	ErrNoAudience      = errors.New("Please select at least one audience group")
	ErrNoContent       = errors.New("Please fill in both title and message content")
)

type AudienceOption struct {
	ID          AudienceID `json:"id"`
	Label       string     `json:"label"`
	Description string     `json:"description"`
	Count       int        `json:"count"`
	Selected    bool       `json:"selected"`
}

// DefaultAudienceOptions returns the audience groups with their initial selection.
func DefaultAudienceOptions() []AudienceOption {
	return []AudienceOption{
		{ID: AudienceStudents, Label: "All Students", Description: "Send to all students in the school", Count: 1250, Selected: true},
		{ID: AudienceTeachers, Label: "All Teachers", Description: "Send to all teaching staff", Count: 85, Selected: true},
		{ID: AudienceParents, Label: "All Parents", Description: "Send to all parent accounts", Count: 980},
		{ID: AudienceStaff, Label: "Administrative Staff", Description: "Send to non-teaching staff", Count: 45},
	}
}

// Audience is an ordered, toggleable set of audience groups.
type Audience struct {
	options []AudienceOption
}

func NewAudience(opts ...AudienceOption) *Audience {
	if len(opts) == 0 {
		opts = DefaultAudienceOptions()
	}
	cp := make([]AudienceOption, len(opts))
	copy(cp, opts)
	return &Audience{options: cp}
}

func (a *Audience) index(id AudienceID) (int, error) {
	for i, opt := range a.options {
		if opt.ID == id {
			return i, nil
		}
	}
	return -1, errors.Wrapf(ErrUnknownAudience, "%q", id)
}

// Toggle flips the selection of one group.
func (a *Audience) Toggle(id AudienceID) error {
	i, err := a.index(id)
	if err != nil {
		return err
	}
	a.options[i].Selected = !a.options[i].Selected
	return nil
}

// Select replaces the selection with exactly ids.
func (a *Audience) Select(ids ...AudienceID) error {
	selected := make(map[AudienceID]bool, len(ids))
	for _, id := range ids {
		if _, err := a.index(id); err != nil {
			return err
		}
		selected[id] = true
	}
	for i := range a.options {
		a.options[i].Selected = selected[a.options[i].ID]
	}
	return nil
}

func (a *Audience) Options() []AudienceOption {
	cp := make([]AudienceOption, len(a.options))
	copy(cp, a.options)
	return cp
}

func (a *Audience) Selected() []AudienceOption {
	var sel []AudienceOption
	for _, opt := range a.options {
		if opt.Selected {
			sel = append(sel, opt)
		}
	}
	return sel
}

func (a *Audience) SelectedIDs() []AudienceID {
	var ids []AudienceID
	for _, opt := range a.Selected() {
		ids = append(ids, opt.ID)
	}
	return ids
}

// TotalRecipients is the sum of the selected groups' counts.
// Groups may overlap; no de-duplication is attempted.
func (a *Audience) TotalRecipients() int {
	total := 0
	for _, opt := range a.options {
		if opt.Selected {
			total += opt.Count
		}
	}
	return total
}

// Labels returns the labels of the selected groups joined by commas.
func (a *Audience) Labels() string {
	sel := a.Selected()
	labels := make([]string, 0, len(sel))
	for _, opt := range sel {
		labels = append(labels, opt.Label)
	}
	return strings.Join(labels, ", ")
}

// Draft is a broadcast being composed.
type Draft struct {
	Title    string
	Body     string
	Audience *Audience
}

func (d Draft) Validate() error {
	if d.Audience == nil || len(d.Audience.Selected()) == 0 {
		return core.NewValidationError(ErrNoAudience)
	}
	if core.IsBlank(d.Title) || core.IsBlank(d.Body) {
		return core.NewValidationError(ErrNoContent)
	}
	return core.CheckTextLimits(
		core.TextLimit{Field: "title", Value: d.Title, Max: MaxTitleLength},
		core.TextLimit{Field: "body", Value: d.Body, Max: MaxBodyLength},
	)
}

// CanSend reports whether the send button is enabled.
func (d Draft) CanSend() bool {
	return d.Validate() == nil
}

// Confirmation is the text shown before sending.
func (d Draft) Confirmation() string {
	if d.Audience == nil {
		return ""
	}
	return fmt.Sprintf(
		"Are you sure you want to send this message to %d recipients?\n\nAudience: %s",
		d.Audience.TotalRecipients(), d.Audience.Labels(),
	)
}
