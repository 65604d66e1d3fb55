package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/comalice/countdown/internal/config"
	"github.com/comalice/countdown/internal/production"
)

// syncBuffer guards the output written by the runtime goroutine.
type syncBuffer struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (s *syncBuffer) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.b.Write(p)
}

func (s *syncBuffer) records(t *testing.T) []production.StepRecord {
	t.Helper()

	s.mu.Lock()
	defer s.mu.Unlock()

	var out []production.StepRecord
	for _, line := range strings.Split(strings.TrimSpace(s.b.String()), "\n") {
		if line == "" {
			continue
		}
		var rec production.StepRecord
		require.NoError(t, jsoniter.Unmarshal([]byte(line), &rec))
		out = append(out, rec)
	}
	return out
}

func testConfig() *config.Config {
	cfg := config.DefaultConfig()
	cfg.Timer.Interval = 5 * time.Millisecond
	return cfg
}

func TestHeadless_RunsToExpiryAfterEOF(t *testing.T) {
	defer goleak.VerifyNone(t)

	var out syncBuffer
	err := headless(context.Background(), testConfig(), zerolog.Nop(), strings.NewReader("set 3\nstart\n"), &out)
	require.NoError(t, err)

	recs := out.records(t)
	require.NotEmpty(t, recs)

	assert.Equal(t, "set", recs[0].Event)
	assert.Equal(t, "00:03", recs[0].Display)
	assert.Equal(t, "start", recs[1].Event)
	assert.True(t, recs[1].Active)

	last := recs[len(recs)-1]
	assert.True(t, last.Expired)
	assert.Equal(t, 0, last.Remaining)
	assert.False(t, last.Active)

	for i := 1; i < len(recs); i++ {
		assert.Greater(t, recs[i].Sequence, recs[i-1].Sequence)
	}
}

func TestHeadless_QuitTearsDown(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig()
	cfg.Timer.Interval = time.Hour

	var out syncBuffer
	input := "set 90\nstart\npause\nquit\nstart\n"
	require.NoError(t, headless(context.Background(), cfg, zerolog.Nop(), strings.NewReader(input), &out))

	recs := out.records(t)
	require.Len(t, recs, 4)
	assert.Equal(t, "pause", recs[2].Event)
	assert.True(t, recs[2].Paused)
	assert.Equal(t, "teardown", recs[3].Event)
}

func TestHeadless_PresetDuration(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig()
	cfg.Timer.Duration = "2"

	var out syncBuffer
	require.NoError(t, headless(context.Background(), cfg, zerolog.Nop(), strings.NewReader("start\n"), &out))

	recs := out.records(t)
	require.GreaterOrEqual(t, len(recs), 4)
	assert.Equal(t, 2, recs[0].Configured)
	assert.True(t, recs[len(recs)-1].Expired)
}

func TestHeadless_PausedAtEOF(t *testing.T) {
	defer goleak.VerifyNone(t)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	cfg := testConfig()
	cfg.Timer.Interval = time.Hour

	var out syncBuffer
	started := time.Now()
	require.NoError(t, headless(ctx, cfg, zerolog.Nop(), strings.NewReader("set 3\nstart\npause\n"), &out))
	assert.Less(t, time.Since(started), time.Second, "paused countdown must not hold headless open")
	assert.NoError(t, ctx.Err())

	recs := out.records(t)
	require.Len(t, recs, 3)
	assert.Equal(t, "pause", recs[2].Event)
	assert.True(t, recs[2].Active)
	assert.True(t, recs[2].Paused)
	assert.Equal(t, 3, recs[2].Remaining)
}

func TestHeadless_Cancelled(t *testing.T) {
	defer goleak.VerifyNone(t)

	cfg := testConfig()
	cfg.Timer.Interval = time.Hour

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	var out syncBuffer
	go func() {
		done <- headless(ctx, cfg, zerolog.Nop(), strings.NewReader("set 10\nstart\n"), &out)
	}()

	require.Eventually(t, func() bool { return len(out.records(t)) == 2 }, time.Second, time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("headless did not return after cancel")
	}
}

func TestWriteChart(t *testing.T) {
	for _, format := range []string{"dot", "json", "yaml"} {
		var b bytes.Buffer
		require.NoError(t, writeChart(&b, format, "running"), format)
		assert.Contains(t, b.String(), "running", format)
	}

	assert.Error(t, writeChart(&bytes.Buffer{}, "svg", "idle"))
}

func TestCLI_Load(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timer:\n  interval: 2s\nlog:\n  level: warn\n"), 0o600))

	cli := CLI{Config: path, Duration: "30", LogFormat: "json"}
	cfg, err := cli.load()
	require.NoError(t, err)

	assert.Equal(t, 2*time.Second, cfg.Timer.Interval)
	assert.Equal(t, "30", cfg.Timer.Duration)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)

	cli.Interval = -time.Second
	_, err = cli.load()
	assert.Error(t, err)
}

func TestNewRuntime_TraceInstrumentsChart(t *testing.T) {
	var logs syncBuffer
	log := zerolog.New(&logs).Level(zerolog.TraceLevel)

	ctrl, rt, err := newRuntime(testConfig(), log, nil, nil)
	require.NoError(t, err)
	require.NotNil(t, rt)

	_, err = ctrl.SetDuration("5")
	require.NoError(t, err)
	require.NoError(t, ctrl.Close())
}
