package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/fatih/color"

	"github.com/kazz187/taskdash/internal/client"
	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/internal/task"
	"github.com/kazz187/taskdash/internal/user"
)

var header = color.New(color.Bold).SprintFunc()

func statusColor(s task.Status) string {
	switch s {
	case task.StatusCompleted:
		return color.GreenString(s.Label())
	case task.StatusInProgress:
		return color.YellowString(s.Label())
	case task.StatusBlocked:
		return color.RedString(s.Label())
	}
	return s.Label()
}

func table(out io.Writer, columns ...string) *tabwriter.Writer {
	w := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	for i, col := range columns {
		if i > 0 {
			fmt.Fprint(w, "\t")
		}
		fmt.Fprint(w, header(col))
	}
	fmt.Fprintln(w)
	return w
}

func footer(out io.Writer, shown, total int) {
	if shown < total {
		fmt.Fprintf(out, "%d of %d shown\n", shown, total)
	}
}

func printProjects(out io.Writer, projects []*project.Project, total int) {
	w := table(out, "ID", "NAME", "STATUS", "PRIORITY", "PROGRESS")
	for _, p := range projects {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d%%\n", p.ID, p.Name, statusColor(p.Status), p.Priority, p.Progress)
	}
	w.Flush()
	footer(out, len(projects), total)
}

func printTasks(out io.Writer, tasks []*task.Task, total int) {
	w := table(out, "ID", "TITLE", "STATUS", "PRIORITY", "DUE", "ASSIGNEE")
	for _, t := range tasks {
		due := "-"
		if t.DueDate != nil {
			due = t.DueDate.Local().Format("2006-01-02 15:04")
		}
		assignee := t.AssigneeID
		if assignee == "" {
			assignee = "-"
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n", t.ID, t.Title, statusColor(t.Status), t.Priority, due, assignee)
	}
	w.Flush()
	footer(out, len(tasks), total)
}

func printUsers(out io.Writer, users []*user.User, total int) {
	w := table(out, "ID", "NAME", "EMAIL", "ROLE")
	for _, u := range users {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", u.ID, u.Name, u.Email, u.Role)
	}
	w.Flush()
	footer(out, len(users), total)
}

func printNotifications(out io.Writer, items []*notification.Notification, total int) {
	w := table(out, "ID", "TYPE", "MESSAGE", "CREATED")
	for _, n := range items {
		msg := n.Message
		if !n.Read {
			msg = color.New(color.Bold).Sprint(msg)
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", n.ID, n.Type, msg, n.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	w.Flush()
	footer(out, len(items), total)
}

func printAccess(out io.Writer, a *client.Access) {
	state := string(a.State)
	switch a.State {
	case role.Authorized:
		state = color.GreenString(state)
	case role.Unauthorized, role.Unauthenticated:
		state = color.RedString(state)
	}
	fmt.Fprintf(out, "%s: %s\n", a.Page, state)
	if a.Message != "" {
		fmt.Fprintf(out, "  %s\n", a.Message)
	}
	if a.Redirect != "" {
		fmt.Fprintf(out, "  redirect: %s\n", a.Redirect)
	}
}
