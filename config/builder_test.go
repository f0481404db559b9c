package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jpalmerr/risewatch"
)

func TestBuildTarget(t *testing.T) {
	cfg, err := Parse([]byte(`
target:
  name: iss
  url: http://api.open-notify.org/iss-pass.json
  keyword: risetime
  max_token_length: 12
  lookahead: 400
  timeout: 3s
  headers:
    X-B: two
    X-A: one
`))
	require.NoError(t, err)

	target, err := BuildTarget(cfg)
	require.NoError(t, err)

	assert.Equal(t, "iss", target.Name())
	assert.Equal(t, "api.open-notify.org", target.Host())
	assert.Equal(t, "risetime", target.Keyword())
	assert.Equal(t, 12, target.MaxTokenLength())
	assert.Equal(t, 400, target.Lookahead())
	assert.Equal(t, 3*time.Second, target.Timeout())
	assert.Equal(t, map[string]string{"X-A": "one", "X-B": "two"}, target.Headers())
}

func TestBuildOptions_CreatesWatcher(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
poll_interval: 20m
notify_lead: 2m
status_port: 8181
`))
	require.NoError(t, err)

	opts, err := BuildOptions(cfg)
	require.NoError(t, err)

	w, err := risewatch.New(opts...)
	require.NoError(t, err)
	assert.Equal(t, "risetime", w.Target().Name())
	assert.Equal(t, 20*time.Minute, w.PollInterval())
	assert.Equal(t, 2*time.Minute, w.NotifyLead())
	assert.Equal(t, 8181, w.StatusPort())
}

func TestBuildOptions_StaticNetwork(t *testing.T) {
	cfg, err := Parse([]byte(minimalYAML + `
network:
  local: 10.0.0.5
  dns: [10.0.0.1]
`))
	require.NoError(t, err)

	opts, err := BuildOptions(cfg)
	require.NoError(t, err)

	_, err = risewatch.New(opts...)
	assert.NoError(t, err)
}

func TestBuildNotifiers(t *testing.T) {
	assert.Empty(t, buildNotifiers(NotifyConfig{}))

	got := buildNotifiers(NotifyConfig{
		Log:     true,
		Bell:    &BellConfig{Rings: 2, Interval: Duration(time.Second)},
		Command: &CommandConfig{Path: "/bin/true", Args: []string{"a"}, Timeout: Duration(time.Minute)},
	})

	require.Len(t, got, 3)
	assert.IsType(t, risewatch.LogNotifier{}, got[0])
	assert.Equal(t, risewatch.BellNotifier{Rings: 2, Interval: time.Second}, got[1])
	cmd, ok := got[2].(risewatch.CommandNotifier)
	require.True(t, ok)
	assert.Equal(t, "/bin/true", cmd.Path)
	assert.Equal(t, []string{"a"}, cmd.Args)
	assert.Equal(t, time.Minute, cmd.Timeout)
}

func TestMapToKeyValuePairs_Sorted(t *testing.T) {
	pairs := mapToKeyValuePairs(map[string]string{"b": "2", "a": "1", "c": "3"})
	assert.Equal(t, []string{"a", "1", "b", "2", "c", "3"}, pairs)
}
