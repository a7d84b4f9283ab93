package project

import (
	"fmt"
	"strings"
	"time"

	"github.com/kazz187/taskdash/internal/task"
)

type CreateRequest struct {
	Name          string        `json:"name"`
	Description   string        `json:"description"`
	Status        task.Status   `json:"status"`
	Priority      task.Priority `json:"priority"`
	TeamMemberIDs []string      `json:"team_member_ids"`
	DueDate       *time.Time    `json:"due_date"`
}

func (r *CreateRequest) Validate() error {
	r.Name = strings.TrimSpace(r.Name)
	if r.Name == "" {
		return fmt.Errorf("name is required")
	}
	if r.Status == "" {
		r.Status = task.StatusTodo
	}
	if r.Priority == "" {
		r.Priority = task.PriorityMedium
	}
	return nil
}

// UpdateRequest changes only the fields that are present in the body.
// Progress is derived from the tasks and cannot be set.
type UpdateRequest struct {
	Name          *string        `json:"name"`
	Description   *string        `json:"description"`
	Status        *task.Status   `json:"status"`
	Priority      *task.Priority `json:"priority"`
	TeamMemberIDs *[]string      `json:"team_member_ids"`
	DueDate       *time.Time     `json:"due_date"`
	ClearDueDate  bool           `json:"clear_due_date"`
}

func (r *UpdateRequest) Validate() error {
	if r.Name != nil {
		name := strings.TrimSpace(*r.Name)
		if name == "" {
			return fmt.Errorf("name must not be empty")
		}
		r.Name = &name
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
	return nil
}

func (r *UpdateRequest) Apply(p *Project) {
	if r.Name != nil {
		p.Name = *r.Name
	}
	if r.Description != nil {
		p.Description = *r.Description
	}
	if r.Status != nil {
		p.Status = *r.Status
	}
	if r.Priority != nil {
		p.Priority = *r.Priority
	}
	if r.TeamMemberIDs != nil {
		p.TeamMemberIDs = *r.TeamMemberIDs
	}
	if r.DueDate != nil {
		due := *r.DueDate
		p.DueDate = &due
	}
	if r.ClearDueDate {
		p.DueDate = nil
	}
}
