// Package alerts reports the alerts ZAP raised for the target as findings.
package alerts

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/zap"
	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus"
)

// Reporter fetches alerts from the engine.
type Reporter struct {
	core scanner.CoreAPI
	log  logrus.FieldLogger
}

// New creates an alerts step.
func New(engine scanner.Engine, log logrus.FieldLogger) *Reporter {
	return &Reporter{core: engine.Core, log: log.WithField("step", "alerts")}
}

func (r *Reporter) Name() string        { return "alerts" }
func (r *Reporter) Description() string { return "Collect the alerts ZAP raised for the target" }

func (r *Reporter) Run(ctx context.Context, target types.Target, _ scanner.Options) (*types.ScanResult, error) {
	result := &types.ScanResult{
		ScannerName: r.Name(),
		Target:      target,
		StartedAt:   time.Now(),
	}

	baseURL := target.ResolveURL()
	if baseURL == "" {
		return nil, fmt.Errorf("cannot determine URL for target %q", target.Host)
	}

	alerts, err := r.core.Alerts(ctx, baseURL, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("fetching alerts: %w", err)
	}
	r.log.WithField("count", len(alerts)).Info("Alerts fetched")

	for _, a := range alerts {
		result.Findings = append(result.Findings, Finding(a))
	}
	sort.SliceStable(result.Findings, func(i, j int) bool {
		return types.SeverityRank(result.Findings[i].Severity) < types.SeverityRank(result.Findings[j].Severity)
	})

	result.CompletedAt = time.Now()
	return result, nil
}

// Severity maps a ZAP risk level to a finding severity. ZAP has no
// critical level.
func Severity(risk string) types.Severity {
	switch strings.ToLower(strings.TrimSpace(risk)) {
	case "high":
		return types.SeverityHigh
	case "medium":
		return types.SeverityMedium
	case "low":
		return types.SeverityLow
	default:
		return types.SeverityInfo
	}
}

// Finding converts one alert.
func Finding(a zap.Alert) types.Finding {
	title := a.Alert
	if title == "" {
		title = a.Name
	}

	evidence := a.URL
	if a.Param != "" {
		evidence += " [" + a.Param + "]"
	}
	if a.Evidence != "" {
		evidence += ": " + a.Evidence
	}

	meta := map[string]string{}
	for k, v := range map[string]string{
		"plugin_id":  a.PluginID,
		"confidence": a.Confidence,
		"method":     a.Method,
		"attack":     a.Attack,
		"cwe":        a.CWEID,
		"wasc":       a.WASCID,
		"reference":  a.Reference,
	} {
		if v != "" && v != "-1" && v != "0" {
			meta[k] = v
		}
	}

	return types.Finding{
		Title:       title,
		Description: a.Description,
		Severity:    Severity(a.Risk),
		Evidence:    evidence,
		Remediation: a.Solution,
		Metadata:    meta,
	}
}
