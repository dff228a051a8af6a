// Package scannertest wires steps to a fake ZAP for tests.
package scannertest

import (
	"testing"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/zap"
	"github.com/buemura/zapx/internal/zap/zaptest"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"
)

// NewEngine returns an engine backed by a client for srv.
func NewEngine(t *testing.T, srv *zaptest.Server) scanner.Engine {
	t.Helper()
	c, err := zap.NewClient(zap.Options{
		BaseURL: srv.URL,
		APIKey:  srv.APIKey,
		Timeout: 5 * time.Second,
	})
	require.NoError(t, err)
	return scanner.EngineFromClient(c)
}

// NewLogger returns a logger that records entries instead of printing them.
func NewLogger() (*logrus.Logger, *test.Hook) {
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}

// Warnings returns the messages logged at warn level.
func Warnings(hook *test.Hook) []string {
	var out []string
	for _, e := range hook.AllEntries() {
		if e.Level == logrus.WarnLevel {
			out = append(out, e.Message)
		}
	}
	return out
}

// FastOptions polls without waiting.
func FastOptions() scanner.Options {
	return scanner.Options{PollInterval: time.Millisecond, StartDelay: Ptr(time.Millisecond)}
}

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }
