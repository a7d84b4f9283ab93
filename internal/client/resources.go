package client

import (
	"context"
	"net/http"
	"net/url"

	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/internal/project"
	"github.com/kazz187/taskdash/internal/role"
	"github.com/kazz187/taskdash/internal/task"
	"github.com/kazz187/taskdash/internal/user"
	"github.com/kazz187/taskdash/pkg/paging"
)

func (c *Client) ListProjects(ctx context.Context, mine bool) (*paging.List[*project.Project], error) {
	q := url.Values{}
	if mine {
		q.Set("mine", "true")
	}
	var out paging.List[*project.Project]
	if err := c.do(ctx, http.MethodGet, "/projects", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateProject(ctx context.Context, req *project.CreateRequest) (*project.Project, error) {
	var out project.Project
	if err := c.do(ctx, http.MethodPost, "/projects", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteProject(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/projects/"+url.PathEscape(id), nil, nil, nil)
}

// tasksPath maps an empty project id to the standalone collection.
func tasksPath(projectID string) string {
	if projectID == "" {
		projectID = task.StandaloneProjectID
	}
	return "/projects/" + url.PathEscape(projectID) + "/tasks"
}

func (c *Client) ListTasks(ctx context.Context, projectID string, status task.Status) (*paging.List[*task.Task], error) {
	q := url.Values{}
	if status != "" {
		q.Set("status", string(status))
	}
	var out paging.List[*task.Task]
	if err := c.do(ctx, http.MethodGet, tasksPath(projectID), q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CreateTask(ctx context.Context, projectID string, req *task.CreateRequest) (*task.Task, error) {
	var out task.Task
	if err := c.do(ctx, http.MethodPost, tasksPath(projectID), nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) CompleteTask(ctx context.Context, projectID, taskID string) (*task.Task, error) {
	status := task.StatusCompleted
	var out task.Task
	body := &task.UpdateRequest{Status: &status}
	if err := c.do(ctx, http.MethodPut, tasksPath(projectID)+"/"+url.PathEscape(taskID), nil, body, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListUsers(ctx context.Context, search string) (*paging.List[*user.User], error) {
	q := url.Values{}
	if search != "" {
		q.Set("q", search)
	}
	var out paging.List[*user.User]
	if err := c.do(ctx, http.MethodGet, "/users", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ListNotifications(ctx context.Context, unreadOnly bool) (*paging.List[*notification.Notification], error) {
	q := url.Values{}
	if unreadOnly {
		q.Set("unread", "true")
	}
	var out paging.List[*notification.Notification]
	if err := c.do(ctx, http.MethodGet, "/notifications", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) MarkNotificationRead(ctx context.Context, id string) (*notification.Notification, error) {
	var out notification.Notification
	if err := c.do(ctx, http.MethodPut, "/notifications/"+url.PathEscape(id)+"/read", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type Access struct {
	Page string `json:"page"`
	role.Decision
}

func (c *Client) Access(ctx context.Context, page string) (*Access, error) {
	var out Access
	if err := c.do(ctx, http.MethodGet, "/access/"+url.PathEscape(page), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}
