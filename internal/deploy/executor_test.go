package deploy

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hcup-dev/hcup/internal/ui"
)

// scriptedRunner answers CLI invocations from a closure and records every
// argument vector it sees.
type scriptedRunner struct {
	respond func(args []string) (bool, string)
	calls   [][]string
}

func (s *scriptedRunner) Run(_ context.Context, args ...string) (bool, string) {
	s.calls = append(s.calls, args)
	if s.respond == nil {
		return true, ""
	}
	return s.respond(args)
}

func (s *scriptedRunner) callsFor(subcommand, action string) [][]string {
	var out [][]string
	for _, c := range s.calls {
		if len(c) >= 2 && c[0] == subcommand && c[1] == action {
			out = append(out, c)
		}
	}
	return out
}

func newTestExecutor(run *scriptedRunner) *Executor {
	e := NewExecutor(run, ui.New(&bytes.Buffer{}))
	e.SettleDelay = 0
	e.Now = func() time.Time { return time.Unix(1700000000, 0) }
	return e
}

func batchConfig(count int) *Config {
	return &Config{
		BaseName:      "web",
		Count:         count,
		InstanceNames: DeriveInstanceNames("web", count),
		Image:         "ubuntu-24.04",
		Location:      "nbg1",
		ServerType:    "cpx11",
	}
}

func TestDeployAllSucceed(t *testing.T) {
	run := &scriptedRunner{respond: func(args []string) (bool, string) {
		if args[0] == "server" && args[1] == "describe" {
			return true, `{"public_net":{"ipv4":{"ip":"203.0.113.10"}},"private_net":[{"ip":"10.0.0.2"}]}`
		}
		return true, ""
	}}
	e := newTestExecutor(run)

	res, err := e.Deploy(context.Background(), batchConfig(3))
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Succeeded: 3, Attempted: 3}, res)
	assert.Len(t, run.callsFor("server", "create"), 3)
}

func TestDeployDryRunMakesNoCalls(t *testing.T) {
	run := &scriptedRunner{}
	e := newTestExecutor(run)

	cfg := batchConfig(2)
	cfg.DryRun = true
	cfg.VolumeSize = 10
	cfg.SSHKeyFile = writeTempKey(t)

	res, err := e.Deploy(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Succeeded: 2, Attempted: 2}, res)
	assert.Empty(t, run.calls, "dry run must not invoke the provider")
}

func TestDeployVolumeFailureSkipsInstanceOnly(t *testing.T) {
	run := &scriptedRunner{respond: func(args []string) (bool, string) {
		if args[0] == "volume" && contains(args, "web-002-volume") {
			return false, "volume quota exceeded"
		}
		return true, `{}`
	}}
	e := newTestExecutor(run)

	cfg := batchConfig(3)
	cfg.VolumeSize = 10

	res, err := e.Deploy(context.Background(), cfg)
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Succeeded: 2, Attempted: 3}, res)

	creates := run.callsFor("server", "create")
	require.Len(t, creates, 2, "instance with a failed volume must be skipped, batch must continue")
	assert.True(t, contains(creates[0], "web-001"))
	assert.True(t, contains(creates[1], "web-003"))
}

func TestDeployCreateFailureContinuesBatch(t *testing.T) {
	run := &scriptedRunner{respond: func(args []string) (bool, string) {
		if args[0] == "server" && args[1] == "create" && contains(args, "web-001") {
			return false, "placement error"
		}
		return true, `{}`
	}}
	e := newTestExecutor(run)

	res, err := e.Deploy(context.Background(), batchConfig(2))
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Succeeded: 1, Attempted: 2}, res)
	assert.Len(t, run.callsFor("server", "create"), 2)
}

func TestDeployKeyUploadFailureAbortsBatch(t *testing.T) {
	run := &scriptedRunner{respond: func(args []string) (bool, string) {
		if args[0] == "ssh-key" {
			return false, "key rejected"
		}
		return true, ""
	}}
	e := newTestExecutor(run)

	cfg := batchConfig(3)
	cfg.SSHKeyFile = writeTempKey(t)

	res, err := e.Deploy(context.Background(), cfg)
	require.Error(t, err)
	assert.Equal(t, 0, res.Succeeded)
	assert.Empty(t, run.callsFor("server", "create"), "no instance may be attempted after an upload failure")
}

func TestDeployKeyUploadedOncePerBatch(t *testing.T) {
	run := &scriptedRunner{respond: func(args []string) (bool, string) {
		return true, `{}`
	}}
	e := newTestExecutor(run)

	cfg := batchConfig(3)
	cfg.SSHKeyFile = writeTempKey(t)

	_, err := e.Deploy(context.Background(), cfg)
	require.NoError(t, err)

	uploads := run.callsFor("ssh-key", "create")
	require.Len(t, uploads, 1)
	assert.True(t, contains(uploads[0], "web-key-1700000000"))

	// every server create reuses the generated key name
	for _, c := range run.callsFor("server", "create") {
		assert.True(t, contains(c, "web-key-1700000000"))
	}
}

func TestDeployDescribeFailureStillCountsSuccess(t *testing.T) {
	run := &scriptedRunner{respond: func(args []string) (bool, string) {
		if args[0] == "server" && args[1] == "describe" {
			return false, "rate limited"
		}
		return true, ""
	}}
	e := newTestExecutor(run)

	res, err := e.Deploy(context.Background(), batchConfig(1))
	require.NoError(t, err)
	assert.Equal(t, BatchResult{Succeeded: 1, Attempted: 1}, res)
}

func TestDeployDescribeBadJSONStillCountsSuccess(t *testing.T) {
	run := &scriptedRunner{respond: func(args []string) (bool, string) {
		if args[0] == "server" && args[1] == "describe" {
			return true, "Name: web\nStatus: running"
		}
		return true, ""
	}}
	e := newTestExecutor(run)

	res, err := e.Deploy(context.Background(), batchConfig(1))
	require.NoError(t, err)
	assert.Equal(t, 1, res.Succeeded)
}

func TestDeployVolumeAttachedByName(t *testing.T) {
	run := &scriptedRunner{respond: func(args []string) (bool, string) {
		return true, `{}`
	}}
	e := newTestExecutor(run)

	cfg := batchConfig(1)
	cfg.VolumeSize = 25

	_, err := e.Deploy(context.Background(), cfg)
	require.NoError(t, err)

	volumes := run.callsFor("volume", "create")
	require.Len(t, volumes, 1)
	assert.True(t, contains(volumes[0], "web-volume"))
	assert.True(t, contains(volumes[0], "25"))

	creates := run.callsFor("server", "create")
	require.Len(t, creates, 1)
	assert.True(t, contains(creates[0], "--volume"))
	assert.True(t, contains(creates[0], "web-volume"))
}

func TestDeployInterruptStopsBatchWithTally(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	run := &scriptedRunner{}
	run.respond = func(args []string) (bool, string) {
		if args[0] == "server" && args[1] == "create" {
			cancel()
		}
		return true, ""
	}
	e := newTestExecutor(run)

	res, err := e.Deploy(ctx, batchConfig(3))
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, BatchResult{Succeeded: 1, Attempted: 3}, res)

	creates := run.callsFor("server", "create")
	require.Len(t, creates, 1, "no further instance may start after the interrupt")
	assert.True(t, contains(creates[0], "web-001"))
}

func TestDeployCancelledBeforeFirstInstance(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	run := &scriptedRunner{}
	e := newTestExecutor(run)

	res, err := e.Deploy(ctx, batchConfig(2))
	require.ErrorIs(t, err, ErrCancelled)
	assert.Equal(t, BatchResult{Succeeded: 0, Attempted: 2}, res)
	assert.Empty(t, run.calls)
}

func contains(args []string, want string) bool {
	for _, a := range args {
		if a == want {
			return true
		}
	}
	return false
}

func writeTempKey(t *testing.T) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "id_ed25519.pub")
	if err := os.WriteFile(path, []byte("ssh-ed25519 AAAA test@host\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
