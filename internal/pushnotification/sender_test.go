package pushnotification

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"testing"

	webpush "github.com/SherClockHolmes/webpush-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kazz187/taskdash/internal/config"
	"github.com/kazz187/taskdash/internal/notification"
	"github.com/kazz187/taskdash/internal/pushsubscription"
	"github.com/kazz187/taskdash/internal/pushsubscription/repositoryimpl"
	"github.com/kazz187/taskdash/pkg/storage"
)

func TestPayload(t *testing.T) {
	tests := []struct {
		name string
		n    *notification.Notification
		want NotificationPayload
	}{
		{
			name: "project task",
			n:    &notification.Notification{ID: "n1", Type: notification.TypeTaskAssigned, TaskID: "t1", ProjectID: "p1", Message: "m"},
			want: NotificationPayload{Title: "New assignment", Body: "m", URL: "/projects/p1/tasks/t1", Tag: "n1"},
		},
		{
			name: "standalone task",
			n:    &notification.Notification{ID: "n2", Type: notification.TypeDeadline, TaskID: "t2", Message: "m"},
			want: NotificationPayload{Title: "Upcoming deadline", Body: "m", URL: "/projects/standalone/tasks/t2", Tag: "n2"},
		},
		{
			name: "project",
			n:    &notification.Notification{ID: "n3", Type: notification.TypeProjectAdded, ProjectID: "p3", Message: "m"},
			want: NotificationPayload{Title: "Added to project", Body: "m", URL: "/projects/p3", Tag: "n3"},
		},
		{
			name: "unknown type",
			n:    &notification.Notification{ID: "n4", Type: "other", Message: "m"},
			want: NotificationPayload{Title: "TaskDash", Body: "m", Tag: "n4"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, &tt.want, Payload(tt.n))
		})
	}
}

func TestSender_SendToUser(t *testing.T) {
	ctx := context.Background()
	s, err := storage.NewLocalStorage(t.TempDir())
	require.NoError(t, err)
	repo := repositoryimpl.NewYAMLRepository(s)
	for _, sub := range []*pushsubscription.Subscription{
		{ID: "s1", UserID: "alice", Endpoint: "https://push.example/live", P256dhKey: "k", AuthKey: "a"},
		{ID: "s2", UserID: "alice", Endpoint: "https://push.example/gone", P256dhKey: "k", AuthKey: "a"},
		{ID: "s3", UserID: "bob", Endpoint: "https://push.example/bob", P256dhKey: "k", AuthKey: "a"},
	} {
		require.NoError(t, repo.Save(ctx, sub))
	}

	sender := NewSender(&config.VAPIDEnv{VAPIDPublicKey: "pub", VAPIDPrivateKey: "priv", VAPIDContact: "mailto:ops@example.com"}, repo)
	var endpoints []string
	var payloads []NotificationPayload
	sender.send = func(message []byte, sub *webpush.Subscription, opts *webpush.Options) (*http.Response, error) {
		endpoints = append(endpoints, sub.Endpoint)
		var p NotificationPayload
		require.NoError(t, json.Unmarshal(message, &p))
		payloads = append(payloads, p)
		assert.Equal(t, "pub", opts.VAPIDPublicKey)
		status := http.StatusCreated
		if strings.HasSuffix(sub.Endpoint, "/gone") {
			status = http.StatusGone
		}
		return &http.Response{StatusCode: status, Body: io.NopCloser(strings.NewReader(""))}, nil
	}

	sender.SendToUser(ctx, "alice", &NotificationPayload{Title: "hi", Body: "there"})
	assert.ElementsMatch(t, []string{"https://push.example/live", "https://push.example/gone"}, endpoints)
	require.Len(t, payloads, 2)
	assert.Equal(t, "hi", payloads[0].Title)

	left, err := repo.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, left, 1, "expired subscriptions are removed")
	assert.Equal(t, "s1", left[0].ID)
}

func TestSender_Disabled(t *testing.T) {
	sender := NewSender(&config.VAPIDEnv{}, nil)
	assert.False(t, sender.Enabled())
	// Must not touch the nil repository.
	sender.SendToUser(context.Background(), "alice", &NotificationPayload{})
}
