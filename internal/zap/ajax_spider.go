package zap

import (
	"context"
	"net/url"
)

// AJAX spider states reported by ajaxSpider/view/status.
const (
	AjaxStatusRunning = "running"
	AjaxStatusStopped = "stopped"
)

// AjaxSpider wraps the browser-driven AJAX spider add-on.
type AjaxSpider struct {
	c *Client
	options
}

// Scan starts the AJAX spider. The result is the raw "Result" field.
func (s *AjaxSpider) Scan(ctx context.Context, rawURL string, inScope bool, contextName string, subtreeOnly bool) (string, error) {
	params := url.Values{
		"url":         {rawURL},
		"inScope":     {boolParam(inScope)},
		"subtreeOnly": {boolParam(subtreeOnly)},
	}
	if contextName != "" {
		params.Set("contextName", contextName)
	}
	resp, err := s.c.action(ctx, "ajaxSpider", "scan", params)
	if err != nil {
		return "", err
	}
	return resp.result()
}

// ScanAsUser starts the AJAX spider as userName of contextName. Unlike the
// HTTP spider the AJAX spider addresses contexts and users by name.
func (s *AjaxSpider) ScanAsUser(ctx context.Context, contextName, userName, rawURL string, subtreeOnly bool) (string, error) {
	resp, err := s.c.action(ctx, "ajaxSpider", "scanAsUser", url.Values{
		"contextName": {contextName},
		"userName":    {userName},
		"url":         {rawURL},
		"subtreeOnly": {boolParam(subtreeOnly)},
	})
	if err != nil {
		return "", err
	}
	return resp.result()
}

// Status returns "running" or "stopped".
func (s *AjaxSpider) Status(ctx context.Context) (string, error) {
	resp, err := s.c.view(ctx, "ajaxSpider", "status", nil)
	if err != nil {
		return "", err
	}
	return resp.String("status")
}

// NumberOfResults returns how many messages the AJAX spider has recorded so far.
func (s *AjaxSpider) NumberOfResults(ctx context.Context) (int, error) {
	resp, err := s.c.view(ctx, "ajaxSpider", "numberOfResults", nil)
	if err != nil {
		return 0, err
	}
	return resp.Int("numberOfResults")
}

// Stop stops a running AJAX spider.
func (s *AjaxSpider) Stop(ctx context.Context) error {
	return expectOK(s.c.action(ctx, "ajaxSpider", "stop", nil))
}
