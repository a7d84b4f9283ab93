package main

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskdash/internal/auth"
)

func noEnv(string) string { return "" }

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	c := newCLI(&out)
	command, err := c.app.Parse(args)
	require.NoError(t, err)
	err = c.run(context.Background(), command, noEnv)
	return out.String(), err
}

func TestTokenCommand(t *testing.T) {
	out, err := runCLI(t, "token", "u1", "--secret", "s3cret", "--ttl", "1h")
	require.NoError(t, err)

	userID, err := auth.NewTokenIssuer("s3cret", "taskdash", time.Hour).Parse(string(bytes.TrimSpace([]byte(out))))
	require.NoError(t, err)
	assert.Equal(t, "u1", userID)
}

func TestTasksList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/projects/p1/tasks", r.URL.Path)
		assert.Equal(t, "completed", r.URL.Query().Get("status"))
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"items":[{"id":"t1","title":"Write docs","status":"completed","priority":"high"}],"total":3,"limit":1,"offset":0}`))
	}))
	defer srv.Close()

	out, err := runCLI(t, "--api-url", srv.URL, "--token", "tok", "tasks", "--project", "p1", "list", "--status", "Completed")
	require.NoError(t, err)
	assert.Contains(t, out, "Write docs")
	assert.Contains(t, out, "high")
	assert.Contains(t, out, "1 of 3 shown")
}

func TestServerMessageOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`{"code":"permission_denied","message":"You are not authorized to view this page.","redirect":"/dashboard"}`))
	}))
	defer srv.Close()

	_, err := runCLI(t, "--api-url", srv.URL, "users", "list")
	require.Error(t, err)
	assert.Equal(t, "You are not authorized to view this page.", err.Error())
}

func TestAccessCommand(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/access/reports", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]string{
			"page":     "reports",
			"state":    "unauthorized",
			"message":  "You are not authorized to view this page.",
			"redirect": "/dashboard",
		})
	}))
	defer srv.Close()

	out, err := runCLI(t, "--api-url", srv.URL, "access", "reports")
	require.NoError(t, err)
	assert.Contains(t, out, "reports: unauthorized")
	assert.Contains(t, out, "redirect: /dashboard")
}

func TestParseDue(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    time.Time
		wantErr bool
	}{
		{name: "rfc3339", in: "2024-06-10T09:00:00Z", want: time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC)},
		{name: "date", in: "2024-06-10", want: time.Date(2024, 6, 10, 0, 0, 0, 0, time.Local)},
		{name: "garbage", in: "tomorrow", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := parseDue(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}
