package notification

import "time"

type Type string

const (
	TypeTaskAssigned  Type = "task_assigned"
	TypeTaskUpdated   Type = "task_updated"
	TypeTaskCompleted Type = "task_completed"
	TypeDeadline      Type = "deadline"
	TypeProjectAdded  Type = "project_added"
)

type Notification struct {
	ID        string `yaml:"id" json:"id" bson:"_id"`
	UserID    string `yaml:"user_id" json:"user_id" bson:"user_id"`
	Type      Type   `yaml:"type" json:"type" bson:"type"`
	TaskID    string `yaml:"task_id,omitempty" json:"task_id,omitempty" bson:"task_id,omitempty"`
	ProjectID string `yaml:"project_id,omitempty" json:"project_id,omitempty" bson:"project_id,omitempty"`
	Message   string `yaml:"message" json:"message" bson:"message"`
	Read      bool   `yaml:"read" json:"read" bson:"read"`
	// DedupKey, when set, is unique per recipient.
	DedupKey  string    `yaml:"dedup_key,omitempty" json:"-" bson:"dedup_key,omitempty"`
	CreatedAt time.Time `yaml:"created_at" json:"created_at" bson:"created_at"`
}
