package task

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/kazz187/taskdash/internal/recurrence"
)

// StandaloneProjectID is the path segment used for tasks that belong to no
// project. Such tasks are stored with an empty ProjectID.
const StandaloneProjectID = "standalone"

type Task struct {
	ID              string             `yaml:"id" json:"id" bson:"_id"`
	ProjectID       string             `yaml:"project_id" json:"project_id,omitempty" bson:"project_id"`
	Title           string             `yaml:"title" json:"title" bson:"title"`
	Description     string             `yaml:"description" json:"description" bson:"description"`
	Status          Status             `yaml:"status" json:"status" bson:"status"`
	Priority        Priority           `yaml:"priority" json:"priority" bson:"priority"`
	DueDate         *time.Time         `yaml:"due_date,omitempty" json:"due_date,omitempty" bson:"due_date,omitempty"`
	OwnerID         string             `yaml:"owner_id" json:"owner_id" bson:"owner_id"`
	AssigneeID      string             `yaml:"assignee_id" json:"assignee_id,omitempty" bson:"assignee_id"`
	CollaboratorIDs []string           `yaml:"collaborator_ids" json:"collaborator_ids" bson:"collaborator_ids"`
	Tags            []string           `yaml:"tags" json:"tags" bson:"tags"`
	Recurrence      *recurrence.Config `yaml:"recurrence,omitempty" json:"recurrence,omitempty" bson:"recurrence,omitempty"`
	// RecurrenceOf is the id of the task whose completion spawned this one.
	RecurrenceOf string `yaml:"recurrence_of,omitempty" json:"recurrence_of,omitempty" bson:"recurrence_of,omitempty"`
	// NextOccurrenceID is the id of the instance spawned from this task.
	NextOccurrenceID string    `yaml:"next_occurrence_id,omitempty" json:"next_occurrence_id,omitempty" bson:"next_occurrence_id,omitempty"`
	CreatedAt        time.Time `yaml:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time `yaml:"updated_at" json:"updated_at" bson:"updated_at"`
}

func (t *Task) IsStandalone() bool {
	return t.ProjectID == ""
}

// Recipients returns the assignee and collaborators of t without duplicates.
func (t *Task) Recipients() []string {
	seen := make(map[string]struct{}, len(t.CollaboratorIDs)+1)
	var ids []string
	for _, id := range append([]string{t.AssigneeID}, t.CollaboratorIDs...) {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

type Status string

const (
	StatusTodo       Status = "todo"
	StatusInProgress Status = "in-progress"
	StatusCompleted  Status = "completed"
	StatusBlocked    Status = "blocked"
)

// StatusOrder is the order in which status groups are displayed.
var StatusOrder = []Status{StatusTodo, StatusInProgress, StatusBlocked, StatusCompleted}

// ParseStatus accepts the canonical values as well as the display spellings
// such as "To-Do" and "In Progress".
func ParseStatus(s string) (Status, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	k = strings.NewReplacer("_", "-", " ", "-").Replace(k)
	switch k {
	case "todo", "to-do":
		return StatusTodo, nil
	case "in-progress", "inprogress":
		return StatusInProgress, nil
	case "completed", "done":
		return StatusCompleted, nil
	case "blocked":
		return StatusBlocked, nil
	}
	return "", fmt.Errorf("unknown status %q", s)
}

func (s Status) Label() string {
	switch s {
	case StatusTodo:
		return "To-Do"
	case StatusInProgress:
		return "In Progress"
	case StatusCompleted:
		return "Completed"
	case StatusBlocked:
		return "Blocked"
	}
	return string(s)
}

func (s *Status) UnmarshalJSON(b []byte) error {
	var raw string
	if err := json.Unmarshal(b, &raw); err != nil {
		return fmt.Errorf("status must be a string: %w", err)
	}
	if raw == "" {
		*s = ""
		return nil
	}
	parsed, err := ParseStatus(raw)
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

// Priority is either one of the named levels or a number from 1 to 10.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
)

const (
	minNumericPriority = 1
	maxNumericPriority = 10
)

func ParsePriority(s string) (Priority, error) {
	k := strings.ToLower(strings.TrimSpace(s))
	switch Priority(k) {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return Priority(k), nil
	}
	n, err := strconv.Atoi(k)
	if err != nil {
		return "", fmt.Errorf("unknown priority %q", s)
	}
	if n < minNumericPriority || n > maxNumericPriority {
		return "", fmt.Errorf("priority must be between %d and %d, got %d", minNumericPriority, maxNumericPriority, n)
	}
	return Priority(strconv.Itoa(n)), nil
}

// Rank orders priorities numerically. An empty or unparsable priority ranks 0.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 2
	case PriorityMedium:
		return 5
	case PriorityHigh:
		return 8
	}
	n, err := strconv.Atoi(string(p))
	if err != nil {
		return 0
	}
	return n
}

func (p Priority) numeric() bool {
	_, err := strconv.Atoi(string(p))
	return err == nil
}

// MarshalJSON writes numeric priorities as JSON numbers.
func (p Priority) MarshalJSON() ([]byte, error) {
	if p.numeric() {
		return []byte(p), nil
	}
	return json.Marshal(string(p))
}

func (p *Priority) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	var s string
	switch v := raw.(type) {
	case nil:
		*p = ""
		return nil
	case string:
		if v == "" {
			*p = ""
			return nil
		}
		s = v
	case float64:
		if v != float64(int(v)) {
			return fmt.Errorf("priority must be an integer, got %v", v)
		}
		s = strconv.Itoa(int(v))
	default:
		return fmt.Errorf("priority must be a number or a string")
	}
	parsed, err := ParsePriority(s)
	if err != nil {
		return err
	}
	*p = parsed
	return nil
}
