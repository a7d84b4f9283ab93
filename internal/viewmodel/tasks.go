package viewmodel

import (
	"cmp"
	"fmt"
	"strings"
	"time"

	"github.com/kazz187/taskdash/internal/task"
)

type TaskSortKey string

const (
	SortByPriority  TaskSortKey = "priority"
	SortByTitle     TaskSortKey = "title"
	SortByCreatedAt TaskSortKey = "created_at"
	SortByUpdatedAt TaskSortKey = "updated_at"
	SortByDueDate   TaskSortKey = "due_date"
)

type TaskGroupKey string

const (
	GroupNone    TaskGroupKey = ""
	GroupStatus  TaskGroupKey = "status"
	GroupProject TaskGroupKey = "project"
	GroupDay     TaskGroupKey = "day"
)

const dayLayout = "2006-01-02"

// TaskQuery describes one task list screen. Zero fields do not filter.
type TaskQuery struct {
	Search    string
	Status    task.Status
	Priority  task.Priority
	ProjectID string // task.StandaloneProjectID selects tasks without a project
	From, To  *time.Time
	Sort      TaskSortKey
	Order     Order
	Group     TaskGroupKey
	Location  *time.Location
}

func ParseTaskSortKey(s string) (TaskSortKey, error) {
	switch k := TaskSortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "", SortByPriority, SortByTitle, SortByCreatedAt, SortByUpdatedAt, SortByDueDate:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

func ParseTaskGroupKey(s string) (TaskGroupKey, error) {
	switch k := TaskGroupKey(strings.ToLower(strings.TrimSpace(s))); k {
	case GroupNone, GroupStatus, GroupProject, GroupDay:
		return k, nil
	}
	return "", fmt.Errorf("unknown group key %q", s)
}

// MatchTaskSearch matches q case-insensitively against the title, the
// description and the name of the task's project.
func MatchTaskSearch(q string, projectNames map[string]string) func(*task.Task) bool {
	q = normalizeQuery(q)
	return func(t *task.Task) bool {
		if q == "" {
			return true
		}
		return containsFold(t.Title, q) ||
			containsFold(t.Description, q) ||
			(t.ProjectID != "" && containsFold(projectNames[t.ProjectID], q))
	}
}

func HasStatus(s task.Status) func(*task.Task) bool {
	return func(t *task.Task) bool { return s == "" || t.Status == s }
}

func HasPriority(p task.Priority) func(*task.Task) bool {
	return func(t *task.Task) bool { return p == "" || t.Priority == p }
}

func InProject(id string) func(*task.Task) bool {
	return func(t *task.Task) bool {
		switch id {
		case "":
			return true
		case task.StandaloneProjectID:
			return t.ProjectID == ""
		default:
			return t.ProjectID == id
		}
	}
}

// DueBetween keeps tasks due inside [from, to]. Either bound may be nil; a
// task without a due date never matches a bounded range.
func DueBetween(from, to *time.Time) func(*task.Task) bool {
	return func(t *task.Task) bool {
		if from == nil && to == nil {
			return true
		}
		if t.DueDate == nil {
			return false
		}
		if from != nil && t.DueDate.Before(*from) {
			return false
		}
		if to != nil && t.DueDate.After(*to) {
			return false
		}
		return true
	}
}

// SortTasks sorts by key. Tasks lacking the field sort last in either order.
func SortTasks(tasks []*task.Task, key TaskSortKey, order Order) []*task.Task {
	var less func(a, b *task.Task) bool
	switch key {
	case SortByPriority:
		less = func(a, b *task.Task) bool {
			ra, rb := a.Priority.Rank(), b.Priority.Rank()
			return lessOptional(ra > 0, rb > 0, cmp.Compare(ra, rb), order)
		}
	case SortByTitle:
		less = func(a, b *task.Task) bool {
			return lessOptional(a.Title != "", b.Title != "", strings.Compare(strings.ToLower(a.Title), strings.ToLower(b.Title)), order)
		}
	case SortByCreatedAt:
		less = func(a, b *task.Task) bool {
			return lessOptional(!a.CreatedAt.IsZero(), !b.CreatedAt.IsZero(), a.CreatedAt.Compare(b.CreatedAt), order)
		}
	case SortByUpdatedAt:
		less = func(a, b *task.Task) bool {
			return lessOptional(!a.UpdatedAt.IsZero(), !b.UpdatedAt.IsZero(), a.UpdatedAt.Compare(b.UpdatedAt), order)
		}
	case SortByDueDate:
		less = func(a, b *task.Task) bool {
			return lessOptional(a.DueDate != nil, b.DueDate != nil, compareDue(a, b), order)
		}
	default:
		return append([]*task.Task(nil), tasks...)
	}
	return SortStable(tasks, less)
}

func compareDue(a, b *task.Task) int {
	if a.DueDate == nil || b.DueDate == nil {
		return 0
	}
	return a.DueDate.Compare(*b.DueDate)
}

type TaskGroup struct {
	Key   string       `json:"key"`
	Label string       `json:"label"`
	Tasks []*task.Task `json:"tasks"`
}

type TaskView struct {
	Groups []TaskGroup `json:"groups"`
	Total  int         `json:"total"`
}

// BuildTaskView filters, sorts and groups tasks for a list screen.
func BuildTaskView(tasks []*task.Task, projectNames map[string]string, q TaskQuery) TaskView {
	matched := Filter(tasks,
		MatchTaskSearch(q.Search, projectNames),
		HasStatus(q.Status),
		HasPriority(q.Priority),
		InProject(q.ProjectID),
		DueBetween(q.From, q.To),
	)
	sorted := SortTasks(matched, q.Sort, q.Order)
	groups := GroupTasks(sorted, q.Group, projectNames, q.Location)
	if groups == nil {
		groups = []TaskGroup{}
	}
	return TaskView{Groups: groups, Total: len(sorted)}
}

// GroupTasks buckets already sorted tasks. Without a group key everything
// lands in one group with an empty key.
func GroupTasks(tasks []*task.Task, key TaskGroupKey, projectNames map[string]string, loc *time.Location) []TaskGroup {
	if loc == nil {
		loc = time.UTC
	}
	switch key {
	case GroupStatus:
		return groupByStatus(tasks)
	case GroupProject:
		groups := GroupBy(tasks, func(t *task.Task) string { return t.ProjectID })
		out := make([]TaskGroup, 0, len(groups))
		for _, g := range groups {
			label := projectNames[g.Key]
			if g.Key == "" {
				label = "Standalone"
			} else if label == "" {
				label = g.Key
			}
			out = append(out, TaskGroup{Key: g.Key, Label: label, Tasks: g.Items})
		}
		return out
	case GroupDay:
		return groupByDay(tasks, loc)
	default:
		if tasks == nil {
			tasks = []*task.Task{}
		}
		return []TaskGroup{{Key: "", Label: "All", Tasks: tasks}}
	}
}

func groupByStatus(tasks []*task.Task) []TaskGroup {
	groups := GroupBy(tasks, func(t *task.Task) task.Status { return t.Status })
	byKey := make(map[task.Status][]*task.Task, len(groups))
	for _, g := range groups {
		byKey[g.Key] = g.Items
	}
	var out []TaskGroup
	for _, st := range task.StatusOrder {
		if items, ok := byKey[st]; ok {
			out = append(out, TaskGroup{Key: string(st), Label: st.Label(), Tasks: items})
			delete(byKey, st)
		}
	}
	// Unknown statuses follow in first-seen order.
	for _, g := range groups {
		if _, ok := byKey[g.Key]; ok {
			out = append(out, TaskGroup{Key: string(g.Key), Label: g.Key.Label(), Tasks: g.Items})
		}
	}
	return out
}

func groupByDay(tasks []*task.Task, loc *time.Location) []TaskGroup {
	dayKey := func(t *task.Task) string {
		if t.DueDate == nil {
			return ""
		}
		return t.DueDate.In(loc).Format(dayLayout)
	}
	groups := GroupBy(tasks, dayKey)
	sorted := SortStable(groups, func(a, b Group[string, *task.Task]) bool {
		return lessOptional(a.Key != "", b.Key != "", strings.Compare(a.Key, b.Key), Asc)
	})
	out := make([]TaskGroup, 0, len(sorted))
	for _, g := range sorted {
		label := g.Key
		if g.Key == "" {
			label = "No due date"
		}
		out = append(out, TaskGroup{Key: g.Key, Label: label, Tasks: g.Items})
	}
	return out
}
