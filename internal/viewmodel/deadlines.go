package viewmodel

import (
	"time"

	"github.com/kazz187/taskdash/internal/task"
)

// PendingDeadlines returns the open tasks that are overdue or due within
// window of now, earliest first.
func PendingDeadlines(tasks []*task.Task, now time.Time, window time.Duration) []*task.Task {
	limit := now.Add(window)
	pending := Filter(tasks, func(t *task.Task) bool {
		return t.Status != task.StatusCompleted && t.DueDate != nil && !t.DueDate.After(limit)
	})
	return SortTasks(pending, SortByDueDate, Asc)
}

// IsOverdue reports whether t was due before now and is still open.
func IsOverdue(t *task.Task, now time.Time) bool {
	return t.Status != task.StatusCompleted && t.DueDate != nil && t.DueDate.Before(now)
}

type Day struct {
	Date  string       `json:"date"`
	Tasks []*task.Task `json:"tasks"`
}

// Timeline lays out the tasks due between the calendar days of from and to,
// inclusive, one entry per day even when nothing is due.
func Timeline(tasks []*task.Task, from, to time.Time, loc *time.Location) []Day {
	if loc == nil {
		loc = time.UTC
	}
	start := startOfDay(from.In(loc))
	end := startOfDay(to.In(loc))
	if end.Before(start) {
		return []Day{}
	}

	byDay := make(map[string][]*task.Task)
	for _, t := range SortTasks(tasks, SortByDueDate, Asc) {
		if t.DueDate == nil {
			continue
		}
		key := t.DueDate.In(loc).Format(dayLayout)
		byDay[key] = append(byDay[key], t)
	}

	var days []Day
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		key := d.Format(dayLayout)
		items := byDay[key]
		if items == nil {
			items = []*task.Task{}
		}
		days = append(days, Day{Date: key, Tasks: items})
	}
	return days
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
