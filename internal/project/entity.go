package project

import (
	"time"

	"github.com/kazz187/taskdash/internal/task"
)

type Project struct {
	ID            string        `yaml:"id" json:"id" bson:"_id"`
	Name          string        `yaml:"name" json:"name" bson:"name"`
	Description   string        `yaml:"description" json:"description" bson:"description"`
	Status        task.Status   `yaml:"status" json:"status" bson:"status"`
	Priority      task.Priority `yaml:"priority" json:"priority" bson:"priority"`
	OwnerID       string        `yaml:"owner_id" json:"owner_id" bson:"owner_id"`
	TeamMemberIDs []string      `yaml:"team_member_ids" json:"team_member_ids" bson:"team_member_ids"`
	Progress      int           `yaml:"progress" json:"progress" bson:"progress"`
	DueDate       *time.Time    `yaml:"due_date,omitempty" json:"due_date,omitempty" bson:"due_date,omitempty"`
	TaskIDs       []string      `yaml:"task_ids" json:"task_ids" bson:"task_ids"`
	CreatedAt     time.Time     `yaml:"created_at" json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time     `yaml:"updated_at" json:"updated_at" bson:"updated_at"`
}

func ClampProgress(p int) int {
	return min(max(p, 0), 100)
}

// Progress is the share of completed tasks in percent, rounded down. A project
// without tasks has no progress.
func Progress(tasks []*task.Task) int {
	if len(tasks) == 0 {
		return 0
	}
	completed := 0
	for _, t := range tasks {
		if t.Status == task.StatusCompleted {
			completed++
		}
	}
	return completed * 100 / len(tasks)
}

// AddedMembers returns the ids in next that are not in prev.
func AddedMembers(prev, next []string) []string {
	known := make(map[string]struct{}, len(prev))
	for _, id := range prev {
		known[id] = struct{}{}
	}
	var added []string
	for _, id := range next {
		if _, ok := known[id]; ok {
			continue
		}
		known[id] = struct{}{}
		added = append(added, id)
	}
	return added
}
