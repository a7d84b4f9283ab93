package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kingpin/v2"
	"github.com/fatih/color"

	"github.com/kazz187/taskdash/internal/auth"
	"github.com/kazz187/taskdash/internal/client"
	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/internal/task"
)

type cli struct {
	app *kingpin.Application
	out io.Writer

	apiURL *string
	token  *string

	tokenCmd    *kingpin.CmdClause
	tokenUser   *string
	tokenSecret *string
	tokenIssuer *string
	tokenTTL    *time.Duration

	projectsListCmd    *kingpin.CmdClause
	projectsListMine   *bool
	projectsCreateCmd  *kingpin.CmdClause
	projectsCreateName *string
	projectsCreateDesc *string
	projectsCreatePrio *string
	projectsMembers    *[]string
	projectsDeleteCmd  *kingpin.CmdClause
	projectsDeleteID   *string

	tasksProject      *string
	tasksListCmd      *kingpin.CmdClause
	tasksListStatus   *string
	tasksCreateCmd    *kingpin.CmdClause
	tasksCreateTitle  *string
	tasksCreatePrio   *string
	tasksCreateDue    *string
	tasksCreateAssign *string
	tasksCompleteCmd  *kingpin.CmdClause
	tasksCompleteID   *string

	usersListCmd     *kingpin.CmdClause
	usersSearchCmd   *kingpin.CmdClause
	usersSearchQuery *string

	notificationsListCmd *kingpin.CmdClause
	notificationsUnread  *bool
	notificationsReadCmd *kingpin.CmdClause
	notificationsReadID  *string

	accessCmd  *kingpin.CmdClause
	accessPage *string
}

func newCLI(out io.Writer) *cli {
	c := &cli{out: out}
	c.app = kingpin.New("taskdashctl", "Command line client for the taskdash API")
	c.apiURL = c.app.Flag("api-url", "Base URL of the taskdash API").String()
	c.token = c.app.Flag("token", "Bearer token used for API calls").Envar("TASKDASH_TOKEN").String()

	c.tokenCmd = c.app.Command("token", "Mint a signed access token for a user")
	c.tokenUser = c.tokenCmd.Arg("user-id", "User id to embed in the token").Required().String()
	c.tokenSecret = c.tokenCmd.Flag("secret", "JWT signing secret").Envar("TASKDASH_JWT_SECRET").Required().String()
	c.tokenIssuer = c.tokenCmd.Flag("issuer", "JWT issuer").Envar("TASKDASH_JWT_ISSUER").Default("taskdash").String()
	c.tokenTTL = c.tokenCmd.Flag("ttl", "Token lifetime").Envar("TASKDASH_TOKEN_TTL").Default("24h").Duration()

	projects := c.app.Command("projects", "Project commands")
	c.projectsListCmd = projects.Command("list", "List projects")
	c.projectsListMine = c.projectsListCmd.Flag("mine", "Only projects you own or belong to").Bool()
	c.projectsCreateCmd = projects.Command("create", "Create a project")
	c.projectsCreateName = c.projectsCreateCmd.Arg("name", "Project name").Required().String()
	c.projectsCreateDesc = c.projectsCreateCmd.Flag("description", "Project description").String()
	c.projectsCreatePrio = c.projectsCreateCmd.Flag("priority", "low, medium, high or 1-10").String()
	c.projectsMembers = c.projectsCreateCmd.Flag("member", "Team member user id (repeatable)").Strings()
	c.projectsDeleteCmd = projects.Command("delete", "Delete a project and its tasks")
	c.projectsDeleteID = c.projectsDeleteCmd.Arg("id", "Project id").Required().String()

	tasks := c.app.Command("tasks", "Task commands")
	c.tasksProject = tasks.Flag("project", "Project id; standalone tasks when omitted").String()
	c.tasksListCmd = tasks.Command("list", "List tasks")
	c.tasksListStatus = c.tasksListCmd.Flag("status", "Only tasks with this status").String()
	c.tasksCreateCmd = tasks.Command("create", "Create a task")
	c.tasksCreateTitle = c.tasksCreateCmd.Arg("title", "Task title").Required().String()
	c.tasksCreatePrio = c.tasksCreateCmd.Flag("priority", "low, medium, high or 1-10").String()
	c.tasksCreateDue = c.tasksCreateCmd.Flag("due", "Due date, YYYY-MM-DD or RFC3339").String()
	c.tasksCreateAssign = c.tasksCreateCmd.Flag("assignee", "Assignee user id").String()
	c.tasksCompleteCmd = tasks.Command("complete", "Mark a task completed")
	c.tasksCompleteID = c.tasksCompleteCmd.Arg("id", "Task id").Required().String()

	users := c.app.Command("users", "User commands")
	c.usersListCmd = users.Command("list", "List users")
	c.usersSearchCmd = users.Command("search", "Search users by name or email")
	c.usersSearchQuery = c.usersSearchCmd.Arg("query", "Search text").Required().String()

	notifications := c.app.Command("notifications", "Notification commands")
	c.notificationsListCmd = notifications.Command("list", "List your notifications")
	c.notificationsUnread = c.notificationsListCmd.Flag("unread", "Only unread notifications").Bool()
	c.notificationsReadCmd = notifications.Command("read", "Mark a notification read")
	c.notificationsReadID = c.notificationsReadCmd.Arg("id", "Notification id").Required().String()

	c.accessCmd = c.app.Command("access", "Show whether you may open a page")
	c.accessPage = c.accessCmd.Arg("page", "Page name, e.g. reports").Required().String()
	return c
}

func main() {
	c := newCLI(os.Stdout)
	command := kingpin.MustParse(c.app.Parse(os.Args[1:]))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := c.run(ctx, command, os.Getenv); err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", color.RedString("error:"), err)
		os.Exit(1)
	}
}

func (c *cli) run(ctx context.Context, command string, getenv func(string) string) error {
	if command == c.tokenCmd.FullCommand() {
		token, err := auth.NewTokenIssuer(*c.tokenSecret, *c.tokenIssuer, *c.tokenTTL).Issue(*c.tokenUser)
		if err != nil {
			return err
		}
		fmt.Fprintln(c.out, token)
		return nil
	}

	api := client.New(client.ResolveBaseURL(*c.apiURL, getenv), client.WithToken(*c.token))
	switch command {
	case c.projectsListCmd.FullCommand():
		list, err := api.ListProjects(ctx, *c.projectsListMine)
		if err != nil {
			return err
		}
		printProjects(c.out, list.Items, list.Total)

	case c.projectsCreateCmd.FullCommand():
		req := &project.CreateRequest{
			Name:          *c.projectsCreateName,
			Description:   *c.projectsCreateDesc,
			TeamMemberIDs: *c.projectsMembers,
		}
		if *c.projectsCreatePrio != "" {
			p, err := task.ParsePriority(*c.projectsCreatePrio)
			if err != nil {
				return err
			}
			req.Priority = p
		}
		p, err := api.CreateProject(ctx, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "created project %s (%s)\n", color.CyanString(p.ID), p.Name)

	case c.projectsDeleteCmd.FullCommand():
		if err := api.DeleteProject(ctx, *c.projectsDeleteID); err != nil {
			return err
		}
		fmt.Fprintf(c.out, "deleted project %s\n", *c.projectsDeleteID)

	case c.tasksListCmd.FullCommand():
		var status task.Status
		if *c.tasksListStatus != "" {
			st, err := task.ParseStatus(*c.tasksListStatus)
			if err != nil {
				return err
			}
			status = st
		}
		list, err := api.ListTasks(ctx, *c.tasksProject, status)
		if err != nil {
			return err
		}
		printTasks(c.out, list.Items, list.Total)

	case c.tasksCreateCmd.FullCommand():
		req, err := c.createTaskRequest()
		if err != nil {
			return err
		}
		t, err := api.CreateTask(ctx, *c.tasksProject, req)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "created task %s (%s)\n", color.CyanString(t.ID), t.Title)

	case c.tasksCompleteCmd.FullCommand():
		t, err := api.CompleteTask(ctx, *c.tasksProject, *c.tasksCompleteID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "completed task %s (%s)\n", color.CyanString(t.ID), t.Title)

	case c.usersListCmd.FullCommand():
		list, err := api.ListUsers(ctx, "")
		if err != nil {
			return err
		}
		printUsers(c.out, list.Items, list.Total)

	case c.usersSearchCmd.FullCommand():
		list, err := api.ListUsers(ctx, *c.usersSearchQuery)
		if err != nil {
			return err
		}
		printUsers(c.out, list.Items, list.Total)

	case c.notificationsListCmd.FullCommand():
		list, err := api.ListNotifications(ctx, *c.notificationsUnread)
		if err != nil {
			return err
		}
		printNotifications(c.out, list.Items, list.Total)

	case c.notificationsReadCmd.FullCommand():
		n, err := api.MarkNotificationRead(ctx, *c.notificationsReadID)
		if err != nil {
			return err
		}
		fmt.Fprintf(c.out, "marked %s read\n", n.ID)

	case c.accessCmd.FullCommand():
		a, err := api.Access(ctx, *c.accessPage)
		if err != nil {
			return err
		}
		printAccess(c.out, a)

	default:
		return fmt.Errorf("unknown command %q", command)
	}
	return nil
}

func (c *cli) createTaskRequest() (*task.CreateRequest, error) {
	req := &task.CreateRequest{
		Title:      *c.tasksCreateTitle,
		AssigneeID: *c.tasksCreateAssign,
	}
	if *c.tasksCreatePrio != "" {
		p, err := task.ParsePriority(*c.tasksCreatePrio)
		if err != nil {
			return nil, err
		}
		req.Priority = p
	}
	if *c.tasksCreateDue != "" {
		due, err := parseDue(*c.tasksCreateDue)
		if err != nil {
			return nil, err
		}
		req.DueDate = &due
	}
	return req, nil
}

func parseDue(raw string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, nil
	}
	t, err := time.ParseInLocation("2006-01-02", raw, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("due date must be YYYY-MM-DD or RFC3339, got %q", raw)
	}
	return t, nil
}
