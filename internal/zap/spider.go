package zap

import (
	"context"
	"net/url"
	"strconv"
)

// Spider wraps the traditional HTTP spider.
type Spider struct {
	c *Client
	options
}

// RemoveAllScans drops every spider scan ZAP still remembers.
func (s *Spider) RemoveAllScans(ctx context.Context) error {
	return expectOK(s.c.action(ctx, "spider", "removeAllScans", nil))
}

// Scan starts a spider on rawURL, optionally scoped to contextName. The
// returned value is the raw "scan" field, normally the numeric scan id.
func (s *Spider) Scan(ctx context.Context, rawURL, contextName string) (string, error) {
	params := url.Values{"url": {rawURL}}
	if contextName != "" {
		params.Set("contextName", contextName)
	}
	resp, err := s.c.action(ctx, "spider", "scan", params)
	if err != nil {
		return "", err
	}
	return resp.String("scan")
}

// ScanAsUser starts a spider on rawURL authenticated as userID in contextID.
func (s *Spider) ScanAsUser(ctx context.Context, rawURL string, contextID, userID int) (string, error) {
	resp, err := s.c.action(ctx, "spider", "scanAsUser", url.Values{
		"url":       {rawURL},
		"contextId": {strconv.Itoa(contextID)},
		"userId":    {strconv.Itoa(userID)},
	})
	if err != nil {
		return "", err
	}
	return resp.String("scanAsUser")
}

// Status returns the progress of scan scanID in percent.
func (s *Spider) Status(ctx context.Context, scanID int) (int, error) {
	resp, err := s.c.view(ctx, "spider", "status", url.Values{"scanId": {strconv.Itoa(scanID)}})
	if err != nil {
		return 0, err
	}
	return resp.Int("status")
}

// Results lists the URLs found by scan scanID.
func (s *Spider) Results(ctx context.Context, scanID int) ([]string, error) {
	resp, err := s.c.view(ctx, "spider", "results", url.Values{"scanId": {strconv.Itoa(scanID)}})
	if err != nil {
		return nil, err
	}
	var results []string
	if err := resp.Decode("results", &results); err != nil {
		return nil, err
	}
	return results, nil
}
