package logger_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/cnclabs/kgsample/pkg/logger"
	"github.com/cnclabs/kgsample/pkg/logger/console"
)

type recorder struct {
	lines []string
}

func (r *recorder) Log(m string, _ ...any)   { r.lines = append(r.lines, "log:"+m) }
func (r *recorder) Debug(m string, _ ...any) { r.lines = append(r.lines, "debug:"+m) }
func (r *recorder) Info(m string, _ ...any)  { r.lines = append(r.lines, "info:"+m) }
func (r *recorder) Warn(m string, _ ...any)  { r.lines = append(r.lines, "warn:"+m) }
func (r *recorder) Error(m string, _ ...any) { r.lines = append(r.lines, "error:"+m) }
func (r *recorder) Fatal(m string, _ ...any) { r.lines = append(r.lines, "fatal:"+m) }

func TestDispatchToAllBackends(t *testing.T) {
	a, b := &recorder{}, &recorder{}
	logger.Init(a, b)
	t.Cleanup(func() { logger.Init() })

	logger.Info("loaded", "triples", 3)
	logger.Warn("slow")
	logger.Log("plain")

	want := []string{"info:loaded", "warn:slow", "log:plain"}
	assert.Equal(t, want, a.lines)
	assert.Equal(t, want, b.lines)
}

func TestConsoleBackendWritesKeyValues(t *testing.T) {
	var buf bytes.Buffer
	c := console.NewConsoleLogger(console.ConsoleLoggerParams{Output: &buf})
	c.Info("adjacency built", "entities", 3)
	c.Debug("hidden")

	out := buf.String()
	assert.Contains(t, out, "adjacency built")
	assert.Contains(t, out, "entities=3")
	assert.NotContains(t, out, "hidden")
}
