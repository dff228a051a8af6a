package views

import (
	"context"
	"errors"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus/hooks/test"
)

type mockStep struct {
	name     string
	findings []types.Finding
	err      error
	runs     int
}

func (m *mockStep) Name() string        { return m.name }
func (m *mockStep) Description() string { return "mock " + m.name }
func (m *mockStep) Run(_ context.Context, target types.Target, _ scanner.Options) (*types.ScanResult, error) {
	m.runs++
	if m.err != nil {
		return nil, m.err
	}
	return &types.ScanResult{ScannerName: m.name, Target: target, Findings: m.findings}, nil
}

func newTestRunner(steps ...scanner.Scanner) *scanner.Runner {
	reg := scanner.NewRegistry()
	for _, s := range steps {
		reg.Register(s)
	}
	log, _ := test.NewNullLogger()
	return scanner.NewRunner(reg, log)
}

var errSpider = errors.New("no URLs found")

func juiceShop() types.Target {
	return types.Target{URL: "http://juice-shop:3000/", Scheme: "http", Host: "juice-shop"}
}
