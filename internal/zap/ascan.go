package zap

import (
	"context"
	"net/url"
	"strconv"
)

// Ascan wraps the active scanner.
type Ascan struct {
	c *Client
	options
}

// ScanParams are the arguments of ascan/action/scan.
type ScanParams struct {
	URL         string
	Recurse     bool
	InScopeOnly bool
	Policy      string
	ContextID   int // negative means no context
}

// RemoveAllScans drops every active scan ZAP still remembers.
func (a *Ascan) RemoveAllScans(ctx context.Context) error {
	return expectOK(a.c.action(ctx, "ascan", "removeAllScans", nil))
}

// Scan starts an active scan and returns the raw "scan" field.
func (a *Ascan) Scan(ctx context.Context, p ScanParams) (string, error) {
	params := url.Values{
		"url":         {p.URL},
		"recurse":     {boolParam(p.Recurse)},
		"inScopeOnly": {boolParam(p.InScopeOnly)},
	}
	if p.Policy != "" {
		params.Set("scanPolicyName", p.Policy)
	}
	if p.ContextID >= 0 {
		params.Set("contextId", strconv.Itoa(p.ContextID))
	}
	resp, err := a.c.action(ctx, "ascan", "scan", params)
	if err != nil {
		return "", err
	}
	return resp.String("scan")
}

// ScanAsUser starts an active scan authenticated as userID in contextID.
func (a *Ascan) ScanAsUser(ctx context.Context, p ScanParams, userID int) (string, error) {
	params := url.Values{
		"url":       {p.URL},
		"contextId": {strconv.Itoa(p.ContextID)},
		"userId":    {strconv.Itoa(userID)},
		"recurse":   {boolParam(p.Recurse)},
	}
	if p.Policy != "" {
		params.Set("scanPolicyName", p.Policy)
	}
	resp, err := a.c.action(ctx, "ascan", "scanAsUser", params)
	if err != nil {
		return "", err
	}
	return resp.String("scanAsUser")
}

// Status returns the progress of scan scanID in percent.
func (a *Ascan) Status(ctx context.Context, scanID int) (int, error) {
	resp, err := a.c.view(ctx, "ascan", "status", url.Values{"scanId": {strconv.Itoa(scanID)}})
	if err != nil {
		return 0, err
	}
	return resp.Int("status")
}
