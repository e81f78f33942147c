package ui

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"owl/internal/jobs"
)

func TestApplyEvent(t *testing.T) {
	m := NewProgressModel("owl check", []string{"/ws/app", "/ws/lib"}, nil).(*progressModel)

	m.applyEvent(jobs.Event{Target: "/ws/app", Kind: jobs.EventProgress, Unit: "serde", Percent: 40})
	m.applyEvent(jobs.Event{Target: "/ws/lib", Kind: jobs.EventFailed, Status: jobs.StatusError})
	m.applyEvent(jobs.Event{Target: "/ws/unknown", Kind: jobs.EventFinished})
	m.applyEvent(jobs.Event{Kind: jobs.EventBatchDone, Status: jobs.StatusFinished})

	require.Len(t, m.items, 2)
	assert.Equal(t, "analyzing", m.items[0].status)
	assert.Equal(t, "serde", m.items[0].unit)
	assert.Equal(t, 40, m.items[0].percent)
	assert.Equal(t, "error", m.items[1].status)
	assert.Equal(t, "finished", m.overall)

	view := m.View()
	assert.True(t, strings.Contains(view, "[serde]"))
	assert.Contains(t, view, "(finished)")
}

func TestDoneClosesModel(t *testing.T) {
	events := make(chan jobs.Event)
	close(events)
	m := NewProgressModel("owl check", []string{"/ws/app"}, events).(*progressModel)

	msg := m.listenForEvent()()
	_, cmd := m.Update(msg)
	assert.True(t, m.done)
	assert.NotNil(t, cmd)
	assert.Contains(t, m.View(), "done: owl check")
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "a-v...", truncate("a-very-long-path", 9))
	assert.Equal(t, "ab", truncate("abcdef", 2))
}
