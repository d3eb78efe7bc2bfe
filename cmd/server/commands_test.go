package main

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRootCommand_HasSubcommands(t *testing.T) {
	root := newRootCommand()

	names := make([]string, 0, len(root.Commands()))
	for _, c := range root.Commands() {
		names = append(names, c.Name())
	}

	assert.ElementsMatch(t, []string{"serve", "migrate", "purge-notifications", "broadcast"}, names)
}

func TestBroadcastCommand_RejectsUnknownAudience(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"broadcast", "--audience", "everyone", "--title", "t", "--content", "c"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "аудитория")
}

func TestBroadcastCommand_RequiresTitleAndContent(t *testing.T) {
	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"broadcast", "--audience", "all"})

	err := root.Execute()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--title")
}

func TestPurgeCommand_MemoryStore(t *testing.T) {
	t.Setenv("USE_MEMORY_STORE", "true")
	t.Setenv("APP_ENV", "test")

	root := newRootCommand()
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetArgs([]string{"--env-file", t.TempDir() + "/missing.env", "purge-notifications"})

	require.NoError(t, root.Execute())
	assert.Contains(t, out.String(), "removed: 0")
}
