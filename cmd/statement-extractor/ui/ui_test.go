package ui

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func captureOutput(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := out
	InitUI(true)
	SetOutput(&buf)
	t.Cleanup(func() { SetOutput(prev) })
	return &buf
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want string
	}{
		{850 * time.Millisecond, "850ms"},
		{12300 * time.Millisecond, "12.3s"},
		{2*time.Minute + 5*time.Second, "2m05s"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.in))
	}
}

func TestTableAndMessages(t *testing.T) {
	buf := captureOutput(t)

	Section("Summary")
	Table([]string{"Field", "Value"}, [][]string{{"Holdings", "2"}})
	Success("done %d", 1)
	Error("failed: %s", "boom")

	text := buf.String()
	assert.Contains(t, text, "Summary\n=======")
	assert.Contains(t, text, "Field     Value")
	assert.Contains(t, text, "Holdings  2")
	assert.Contains(t, text, "✓ done 1")
	assert.Contains(t, text, "✗ failed: boom")
}

func TestPhaseProgress_OnFirstUpdateRunsOnce(t *testing.T) {
	captureOutput(t)

	calls := 0
	p := NewPhaseProgress()
	p.OnFirstUpdate(func() { calls++ })

	p.Update("pages", 1, 2)
	p.Update("pages", 2, 2)
	p.Update("holdings", 1, 2)
	p.Finish()
	p.Finish()

	assert.Equal(t, 1, calls)
}
