package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	cmd := NewRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestRootRegistersSubcommands(t *testing.T) {
	cmd := NewRootCmd()
	names := map[string]bool{}
	for _, c := range cmd.Commands() {
		names[c.Name()] = true
	}
	for _, want := range []string{"migrate", "mail-relay", "loadtest"} {
		assert.True(t, names[want], "missing subcommand %s", want)
	}
	assert.NotNil(t, cmd.PersistentFlags().Lookup("config"))
}

func TestMigrateRequiresDatabaseURL(t *testing.T) {
	t.Setenv("MEDIAUTH_POSTGRES_URL", "")

	_, err := execute(t, "migrate", "up")
	require.Error(t, err)
	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_INVALID", oopsErr.Code())
}

func TestMailRelayRequiresQueueURL(t *testing.T) {
	t.Setenv("MEDIAUTH_AMQP_URL", "")

	_, err := execute(t, "mail-relay")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "queue.url")
}

func TestLoadtestRejectsBadFlags(t *testing.T) {
	_, err := execute(t, "loadtest", "--race-width", "1")
	assert.Error(t, err)
}

func TestLoadtestSmallRunAgainstMiniredis(t *testing.T) {
	t.Setenv("REDIS_ADDR", "")

	out, err := execute(t, "loadtest",
		"--accounts", "4",
		"--concurrency", "4",
		"--ops", "32",
		"--race-width", "4",
	)
	require.NoError(t, err, out)
	assert.Contains(t, out, "registered and logged in 4 accounts")
	assert.Contains(t, out, "validate: ops=32 failures=0")
	assert.Contains(t, out, "refresh: ops=32 failures=0")
	assert.True(t, strings.Contains(out, "race: tokens=4 width=4 violations=0"), out)
}

func TestPercentile(t *testing.T) {
	samples := computeStats(1, nil, 0)
	assert.Zero(t, samples.ops)
	assert.Zero(t, percentile(nil, 50))
}
