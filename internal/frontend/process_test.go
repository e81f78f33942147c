package frontend

import (
	"context"
	"os/exec"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func shell(t *testing.T, script string) Command {
	t.Helper()
	sh, err := exec.LookPath("sh")
	if err != nil {
		t.Skip("sh not available")
	}
	return Command{Path: sh, Args: []string{"-c", script}}
}

func TestStreamDecodesMessages(t *testing.T) {
	script := `echo 'Compiling app v0.1.0'
echo '{"reason":"compiler-artifact"}'
echo '{"reason":"unit-checked","unit":"app","total":2}'
echo ''
echo '{"reason":"analyzed","workspace":{"app":{"/src/lib.rs":{"items":[{"fn_id":1,"basic_blocks":[],"decls":[]}]}}}}'
exit 3`
	s, err := Start(context.Background(), shell(t, script), StreamOptions{ChannelSize: 1})
	require.NoError(t, err)
	defer s.Close()

	ctx := context.Background()
	var reasons []Reason
	for {
		msg, ok := s.Next(ctx)
		if !ok {
			break
		}
		reasons = append(reasons, msg.Reason)
	}
	assert.Equal(t, []Reason{ReasonUnitChecked, ReasonAnalyzed}, reasons)

	st := s.Wait()
	assert.False(t, st.Success())
	assert.False(t, st.Abnormal)
	assert.Equal(t, 3, st.Code)
	assert.Equal(t, int64(2), s.Skipped())
}

func TestStreamClose(t *testing.T) {
	s, err := Start(context.Background(), shell(t, "exec sleep 30"), StreamOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, ok := s.Next(ctx)
	assert.False(t, ok)

	require.NoError(t, s.Close())
	require.NoError(t, s.Close())
	st := s.Wait()
	assert.False(t, st.Success())
	assert.True(t, st.Abnormal)
}

func TestStreamCloseReachesDescendants(t *testing.T) {
	// the subshell keeps stdout open after the first message
	script := `echo '{"reason":"unit-checked","unit":"app","total":1}'
(sleep 5; echo '{"reason":"unit-checked","unit":"app","total":2}')
echo done`
	s, err := Start(context.Background(), shell(t, script), StreamOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	msg, ok := s.Next(ctx)
	require.True(t, ok)
	assert.Equal(t, ReasonUnitChecked, msg.Reason)

	start := time.Now()
	require.NoError(t, s.Close())
	assert.Less(t, time.Since(start), 2*time.Second)
	assert.False(t, s.Wait().Success())
}

func TestStreamCloseAfterDetachedChild(t *testing.T) {
	// a background child outlives the worker and holds the pipe
	script := `echo '{"reason":"unit-checked","unit":"app","total":1}'
sleep 5 &
exit 0`
	s, err := Start(context.Background(), shell(t, script), StreamOptions{})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, ok := s.Next(ctx)
	require.True(t, ok)

	start := time.Now()
	require.NoError(t, s.Close())
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestStartMissingBinary(t *testing.T) {
	_, err := Start(context.Background(), Command{Path: "/nonexistent/owl-worker"}, StreamOptions{})
	assert.Error(t, err)
}
