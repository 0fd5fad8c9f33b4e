package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCloneDetachesTasks(t *testing.T) {
	member := TeamMember{ID: "Member1", Tasks: []Task{{ID: "Task1", Name: "IoT Pipeline"}}}
	clone := member.Clone()
	clone.Tasks[0].Name = "changed"
	assert.Equal(t, "IoT Pipeline", member.Tasks[0].Name)
}

func TestCloneRendersNilTasksAsEmptyArray(t *testing.T) {
	raw, err := json.Marshal(TeamMember{ID: "Member1", Name: "Chase"}.Clone())
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":"Member1","name":"Chase","email":"","tasks":[]}`, string(raw))
}

func TestFindTaskFirstMatchWins(t *testing.T) {
	member := TeamMember{Tasks: []Task{
		{ID: "Task1", Name: "first"},
		{ID: "Task1", Name: "second"},
	}}
	task, ok := member.FindTask("Task1")
	require.True(t, ok)
	assert.Equal(t, "first", task.Name)

	_, ok = member.FindTask("missing")
	assert.False(t, ok)
}
