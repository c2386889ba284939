package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestOrNopHandlesNil(t *testing.T) {
	assert.NotNil(t, OrNop(nil))

	var typed *slogLogger
	assert.NotPanics(t, func() {
		OrNop(typed).Info("never delivered")
	})
}

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Level: "warn", Output: &buf})

	logger.Info("hidden")
	logger.Warn("visible %d", 42)

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "visible 42")
}

func TestNewJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := New(Config{Format: "json", Output: &buf})

	logger.Info("structured")

	assert.True(t, strings.HasPrefix(buf.String(), "{"))
	assert.Contains(t, buf.String(), `"msg":"structured"`)
}

type captureLogger struct {
	lines []string
}

func (c *captureLogger) Debug(format string, args ...any) { c.lines = append(c.lines, "D") }
func (c *captureLogger) Info(format string, args ...any)  { c.lines = append(c.lines, "I") }
func (c *captureLogger) Warn(format string, args ...any)  { c.lines = append(c.lines, "W") }
func (c *captureLogger) Error(format string, args ...any) { c.lines = append(c.lines, "E") }

func TestMultiFansOut(t *testing.T) {
	a := &captureLogger{}
	b := &captureLogger{}

	logger := Multi(a, nil, b)
	logger.Info("x")
	logger.Error("y")

	assert.Equal(t, []string{"I", "E"}, a.lines)
	assert.Equal(t, []string{"I", "E"}, b.lines)
}

func TestMultiCollapsesSingletons(t *testing.T) {
	a := &captureLogger{}

	assert.Equal(t, a, Multi(nil, a))
	assert.Equal(t, Nop(), Multi(nil, nil))
}
