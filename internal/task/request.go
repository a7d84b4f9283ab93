package task

import (
	"fmt"
	"strings"
	"time"

	"github.com/kazz187/taskdash/internal/recurrence"
)

type CreateRequest struct {
	Title           string             `json:"title"`
	Description     string             `json:"description"`
	Status          Status             `json:"status"`
	Priority        Priority           `json:"priority"`
	DueDate         *time.Time         `json:"due_date"`
	AssigneeID      string             `json:"assignee_id"`
	CollaboratorIDs []string           `json:"collaborator_ids"`
	Tags            []string           `json:"tags"`
	Recurrence      *recurrence.Config `json:"recurrence"`
}

func (r *CreateRequest) Validate() error {
	r.Title = strings.TrimSpace(r.Title)
	if r.Title == "" {
		return fmt.Errorf("title is required")
	}
	if r.Status == "" {
		r.Status = StatusTodo
	}
	if r.Priority == "" {
		r.Priority = PriorityMedium
	}
	return validateRecurrence(r.Recurrence)
}

// UpdateRequest changes only the fields that are present in the body.
type UpdateRequest struct {
	Title           *string            `json:"title"`
	Description     *string            `json:"description"`
	Status          *Status            `json:"status"`
	Priority        *Priority          `json:"priority"`
	DueDate         *time.Time         `json:"due_date"`
	ClearDueDate    bool               `json:"clear_due_date"`
	AssigneeID      *string            `json:"assignee_id"`
	CollaboratorIDs *[]string          `json:"collaborator_ids"`
	Tags            *[]string          `json:"tags"`
	Recurrence      *recurrence.Config `json:"recurrence"`
}

func (r *UpdateRequest) Validate() error {
	if r.Title != nil {
		title := strings.TrimSpace(*r.Title)
		if title == "" {
			return fmt.Errorf("title must not be empty")
		}
		r.Title = &title
	}
	if r.Status != nil && *r.Status == "" {
		return fmt.Errorf("status must not be empty")
	}
	if r.Priority != nil && *r.Priority == "" {
		return fmt.Errorf("priority must not be empty")
	}
	if r.DueDate != nil && r.ClearDueDate {
		return fmt.Errorf("due_date and clear_due_date are mutually exclusive")
	}
	return validateRecurrence(r.Recurrence)
}

// Apply copies the present fields onto t.
func (r *UpdateRequest) Apply(t *Task) {
	if r.Title != nil {
		t.Title = *r.Title
	}
	if r.Description != nil {
		t.Description = *r.Description
	}
	if r.Status != nil {
		t.Status = *r.Status
	}
	if r.Priority != nil {
		t.Priority = *r.Priority
	}
	if r.DueDate != nil {
		due := *r.DueDate
		t.DueDate = &due
	}
	if r.ClearDueDate {
		t.DueDate = nil
	}
	if r.AssigneeID != nil {
		t.AssigneeID = *r.AssigneeID
	}
	if r.CollaboratorIDs != nil {
		t.CollaboratorIDs = *r.CollaboratorIDs
	}
	if r.Tags != nil {
		t.Tags = *r.Tags
	}
	if r.Recurrence != nil {
		cfg := *r.Recurrence
		if t.Recurrence != nil && cfg.Occurrences == 0 {
			cfg.Occurrences = t.Recurrence.Occurrences
		}
		t.Recurrence = &cfg
	}
}

func validateRecurrence(cfg *recurrence.Config) error {
	if cfg == nil {
		return nil
	}
	*cfg = cfg.Normalize()
	// A switched-off rule may be sent without any other field.
	if !cfg.Enabled && cfg.Frequency == "" {
		return nil
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("recurrence: %w", err)
	}
	return nil
}
