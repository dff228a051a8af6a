package zap

import (
	"context"
	"net/url"
	"strconv"
)

// Core wraps the core component: URL access, the site tree and alerts.
type Core struct {
	c *Client
}

// AccessURL makes ZAP request rawURL through its proxy so that the site tree
// knows about the target before a scan starts.
func (a *Core) AccessURL(ctx context.Context, rawURL string) error {
	_, err := a.c.action(ctx, "core", "accessUrl", url.Values{
		"url":             {rawURL},
		"followRedirects": {"true"},
	})
	return err
}

// URLs lists the URLs in the site tree, optionally restricted to baseURL.
func (a *Core) URLs(ctx context.Context, baseURL string) ([]string, error) {
	params := url.Values{}
	if baseURL != "" {
		params.Set("baseurl", baseURL)
	}
	resp, err := a.c.view(ctx, "core", "urls", params)
	if err != nil {
		return nil, err
	}
	var urls []string
	if err := resp.Decode("urls", &urls); err != nil {
		return nil, err
	}
	return urls, nil
}

// Alert is one issue raised by the passive or active scanner.
type Alert struct {
	ID          string `json:"id"`
	PluginID    string `json:"pluginId"`
	Name        string `json:"name"`
	Alert       string `json:"alert"`
	Risk        string `json:"risk"`
	Confidence  string `json:"confidence"`
	URL         string `json:"url"`
	Method      string `json:"method"`
	Param       string `json:"param"`
	Attack      string `json:"attack"`
	Evidence    string `json:"evidence"`
	Description string `json:"description"`
	Solution    string `json:"solution"`
	Reference   string `json:"reference"`
	CWEID       string `json:"cweid"`
	WASCID      string `json:"wascid"`
}

// Alerts returns alerts for baseURL, paged by start and count (count 0 means all).
func (a *Core) Alerts(ctx context.Context, baseURL string, start, count int) ([]Alert, error) {
	params := url.Values{}
	if baseURL != "" {
		params.Set("baseurl", baseURL)
	}
	if start > 0 {
		params.Set("start", strconv.Itoa(start))
	}
	if count > 0 {
		params.Set("count", strconv.Itoa(count))
	}
	resp, err := a.c.view(ctx, "core", "alerts", params)
	if err != nil {
		return nil, err
	}
	var alerts []Alert
	if err := resp.Decode("alerts", &alerts); err != nil {
		return nil, err
	}
	return alerts, nil
}
