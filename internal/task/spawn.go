package task

import (
	"slices"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/kazz187/taskdash/internal/recurrence"
)

// NextOccurrence builds the task that follows t in its recurring series, or
// reports false when t does not recur, its series has ended, or it already
// spawned its successor.
func NextOccurrence(t *Task, now time.Time) (*Task, bool) {
	if t.NextOccurrenceID != "" {
		return nil, false
	}
	if t.Recurrence == nil || !t.Recurrence.Enabled || t.DueDate == nil {
		return nil, false
	}
	due, ok := recurrence.Next(*t.DueDate, *t.Recurrence)
	if !ok {
		return nil, false
	}
	cfg := recurrence.Advance(*t.Recurrence)
	return &Task{
		ID:              ulid.Make().String(),
		ProjectID:       t.ProjectID,
		Title:           t.Title,
		Description:     t.Description,
		Status:          StatusTodo,
		Priority:        t.Priority,
		DueDate:         &due,
		OwnerID:         t.OwnerID,
		AssigneeID:      t.AssigneeID,
		CollaboratorIDs: slices.Clone(t.CollaboratorIDs),
		Tags:            slices.Clone(t.Tags),
		Recurrence:      &cfg,
		RecurrenceOf:    t.ID,
		CreatedAt:       now,
		UpdatedAt:       now,
	}, true
}
