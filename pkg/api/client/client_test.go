package client

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpx "github.com/splax/teamboard/internal/http"
	"github.com/splax/teamboard/internal/repository/memory"
	"github.com/splax/teamboard/internal/service/team"
	"github.com/splax/teamboard/pkg/config"
)

func newTestClient(t *testing.T) *Client {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	router := httpx.NewRouter(log, team.New(memory.New(), nil, log), nil, nil, config.APIConfig{})
	t.Cleanup(router.Close)
	server := httptest.NewServer(router)
	t.Cleanup(server.Close)

	cli, err := New(server.URL, WithHTTPClient(server.Client()))
	require.NoError(t, err)
	return cli
}

func TestNewNormalisesBaseURL(t *testing.T) {
	cli, err := New(" localhost:9000/ ")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", cli.baseURL)

	cli, err = New("")
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:8080", cli.baseURL)
}

func TestMemberRoundTrip(t *testing.T) {
	ctx := context.Background()
	cli := newTestClient(t)

	created, err := cli.CreateMember(ctx, Member{
		ID:    "Member1",
		Name:  "Chase",
		Email: "chase@pawpatrol.org",
		Tasks: []Task{{ID: "Task1", Name: "IoT Pipeline", Description: "Create CD pipeline for the IoT service"}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Chase", created.Name)

	member, found, err := cli.GetMember(ctx, "Member1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "chase@pawpatrol.org", member.Email)

	task, found, err := cli.GetTask(ctx, "Member1", "Task1")
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "IoT Pipeline", task.Name)

	_, found, err = cli.GetTask(ctx, "Member1", "UnknownTask")
	require.NoError(t, err)
	assert.False(t, found)

	tasks, err := cli.ListTasks(ctx, "Member1")
	require.NoError(t, err)
	assert.Len(t, tasks, 1)

	members, err := cli.ListMembers(ctx)
	require.NoError(t, err)
	assert.Len(t, members, 1)

	updated, err := cli.UpdateMember(ctx, "Member1", Member{ID: "Member1", Name: "Chase Updated"})
	require.NoError(t, err)
	assert.Equal(t, "Chase Updated", updated.Name)
	assert.Empty(t, updated.Tasks)

	require.NoError(t, cli.DeleteMember(ctx, "Member1"))
	require.ErrorIs(t, cli.DeleteMember(ctx, "Member1"), ErrNotFound)

	_, found, err = cli.GetMember(ctx, "Member1")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestUpdateUnknownMemberReturnsNotFound(t *testing.T) {
	cli := newTestClient(t)
	_, err := cli.UpdateMember(context.Background(), "Ghost", Member{ID: "Ghost"})
	require.ErrorIs(t, err, ErrNotFound)
}

func TestListTasksUnknownMemberIsEmpty(t *testing.T) {
	cli := newTestClient(t)
	tasks, err := cli.ListTasks(context.Background(), "Ghost")
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestAPIErrorCarriesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error":"rate limit exceeded"}`))
	}))
	t.Cleanup(server.Close)

	cli, err := New(server.URL)
	require.NoError(t, err)
	_, err = cli.CreateMember(context.Background(), Member{ID: "Member1"})

	var apiErr APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusTooManyRequests, apiErr.Status)
	assert.Equal(t, "rate limit exceeded", apiErr.Message)
}
