package viewmodel

import (
	"cmp"
	"fmt"
	"strings"

	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/internal/task"
)

type ProjectSortKey string

const (
	SortProjectsByName     ProjectSortKey = "name"
	SortProjectsByProgress ProjectSortKey = "progress"
	SortProjectsByDueDate  ProjectSortKey = "due_date"
	SortProjectsByPriority ProjectSortKey = "priority"
)

func ParseProjectSortKey(s string) (ProjectSortKey, error) {
	switch k := ProjectSortKey(strings.ToLower(strings.TrimSpace(s))); k {
	case "", SortProjectsByName, SortProjectsByProgress, SortProjectsByDueDate, SortProjectsByPriority:
		return k, nil
	}
	return "", fmt.Errorf("unknown sort key %q", s)
}

type ProjectQuery struct {
	Search   string
	Status   task.Status
	Priority task.Priority
	Sort     ProjectSortKey
	Order    Order
}

func MatchProjectSearch(q string) func(*project.Project) bool {
	q = normalizeQuery(q)
	return func(p *project.Project) bool {
		return q == "" || containsFold(p.Name, q) || containsFold(p.Description, q)
	}
}

func SortProjects(projects []*project.Project, key ProjectSortKey, order Order) []*project.Project {
	var less func(a, b *project.Project) bool
	switch key {
	case SortProjectsByName:
		less = func(a, b *project.Project) bool {
			return lessOptional(a.Name != "", b.Name != "", strings.Compare(strings.ToLower(a.Name), strings.ToLower(b.Name)), order)
		}
	case SortProjectsByProgress:
		less = func(a, b *project.Project) bool {
			return lessOptional(true, true, cmp.Compare(a.Progress, b.Progress), order)
		}
	case SortProjectsByDueDate:
		less = func(a, b *project.Project) bool {
			c := 0
			if a.DueDate != nil && b.DueDate != nil {
				c = a.DueDate.Compare(*b.DueDate)
			}
			return lessOptional(a.DueDate != nil, b.DueDate != nil, c, order)
		}
	case SortProjectsByPriority:
		less = func(a, b *project.Project) bool {
			ra, rb := a.Priority.Rank(), b.Priority.Rank()
			return lessOptional(ra > 0, rb > 0, cmp.Compare(ra, rb), order)
		}
	default:
		return append([]*project.Project(nil), projects...)
	}
	return SortStable(projects, less)
}

func BuildProjectView(projects []*project.Project, q ProjectQuery) []*project.Project {
	matched := Filter(projects,
		MatchProjectSearch(q.Search),
		func(p *project.Project) bool { return q.Status == "" || p.Status == q.Status },
		func(p *project.Project) bool { return q.Priority == "" || p.Priority == q.Priority },
	)
	return SortProjects(matched, q.Sort, q.Order)
}
