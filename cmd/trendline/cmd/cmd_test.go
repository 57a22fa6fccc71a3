package cmd

import (
	"bytes"
	"encoding/json"
	"testing"

	"github.com/nfrund/trendline/internal/pubsub"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		eventsOutputFormat = "table"
		eventsModuleFilter = ""
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersion(t *testing.T) {
	out, err := run(t, "version")
	require.NoError(t, err)
	assert.Equal(t, "Trendline v"+version+"\n", out)
}

func TestEvents_Table(t *testing.T) {
	out, err := run(t, "events")
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "trending.topics.updated")
	assert.Contains(t, out, "topics,version,reason,timestamp")
}

func TestEvents_JSON(t *testing.T) {
	out, err := run(t, "events", "--format", "json", "--module", "trending")
	require.NoError(t, err)

	var events []pubsub.EventInfo
	require.NoError(t, json.Unmarshal([]byte(out), &events))
	require.Len(t, events, 1)
	assert.Equal(t, "trending.topics.updated", events[0].Name)
	assert.Equal(t, "UpdatedEvent", events[0].TypeName)
}

func TestEvents_UnknownModule(t *testing.T) {
	out, err := run(t, "events", "--module", "nope")
	require.NoError(t, err)
	assert.Contains(t, out, "No events found.")
}

func TestEvents_InvalidFormat(t *testing.T) {
	_, err := run(t, "events", "--format", "xml")
	assert.ErrorContains(t, err, "invalid format")
}
