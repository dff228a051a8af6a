// Package zap is a thin client for the ZAP JSON control API.
//
// Every remote call is a GET against
//
//	{base}/JSON/{component}/{view|action}/{name}/?param=value
//
// and answers with a flat JSON object. The component clients (Core, Spider,
// AjaxSpider, Ascan, Context, Users, ForcedUser) map one Go method to one
// endpoint and leave the interpretation of results to the caller.
package zap

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

// ResultOK is the value ZAP returns in the "Result" field of a successful action.
const ResultOK = "OK"

const apiKeyHeader = "X-ZAP-API-Key"

// Options configures a Client.
type Options struct {
	BaseURL           string
	APIKey            string
	Timeout           time.Duration
	RetryMax          int
	RequestsPerSecond float64
	Logger            logrus.FieldLogger
}

// DefaultOptions returns the settings used when talking to a local ZAP daemon.
func DefaultOptions() Options {
	return Options{
		BaseURL:           "http://localhost:8080",
		Timeout:           30 * time.Second,
		RetryMax:          3,
		RequestsPerSecond: 20,
	}
}

// Client talks to one ZAP instance.
type Client struct {
	base    *url.URL
	apiKey  string
	http    *retryablehttp.Client
	limiter *rate.Limiter
	log     logrus.FieldLogger

	Core       *Core
	Spider     *Spider
	AjaxSpider *AjaxSpider
	Ascan      *Ascan
	Context    *Context
	Users      *Users
	ForcedUser *ForcedUser
}

// NewClient creates a client for the ZAP API at opts.BaseURL.
func NewClient(opts Options) (*Client, error) {
	base, err := url.Parse(strings.TrimSpace(opts.BaseURL))
	if err != nil {
		return nil, fmt.Errorf("invalid ZAP URL %q: %w", opts.BaseURL, err)
	}
	if base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid ZAP URL %q: scheme and host are required", opts.BaseURL)
	}

	log := opts.Logger
	if log == nil {
		l := logrus.New()
		l.SetOutput(io.Discard)
		log = l
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = opts.RetryMax
	hc.RetryWaitMin = 500 * time.Millisecond
	hc.RetryWaitMax = 5 * time.Second
	hc.HTTPClient.Timeout = opts.Timeout
	hc.Logger = leveledLogger{log: log.WithField("component", "zap-http")}
	// API errors come back as 4xx with a JSON body; hand them to the caller
	// instead of retryablehttp's generic "giving up" error.
	hc.ErrorHandler = retryablehttp.PassthroughErrorHandler
	hc.CheckRetry = checkRetry

	limit := rate.Inf
	if opts.RequestsPerSecond > 0 {
		limit = rate.Limit(opts.RequestsPerSecond)
	}

	c := &Client{
		base:    base,
		apiKey:  opts.APIKey,
		http:    hc,
		limiter: rate.NewLimiter(limit, 1),
		log:     log,
	}
	c.Core = &Core{c: c}
	c.Spider = &Spider{c: c, options: options{c: c, component: "spider"}}
	c.AjaxSpider = &AjaxSpider{c: c, options: options{c: c, component: "ajaxSpider"}}
	c.Ascan = &Ascan{c: c, options: options{c: c, component: "ascan"}}
	c.Context = &Context{c: c}
	c.Users = &Users{c: c}
	c.ForcedUser = &ForcedUser{c: c}
	return c, nil
}

// BaseURL returns the API root the client was created with.
func (c *Client) BaseURL() string {
	return c.base.String()
}

// Version asks the engine for its version. Useful as a connectivity check.
func (c *Client) Version(ctx context.Context) (string, error) {
	resp, err := c.view(ctx, "core", "version", nil)
	if err != nil {
		return "", err
	}
	return resp.String("version")
}

func (c *Client) view(ctx context.Context, component, name string, params url.Values) (response, error) {
	return c.call(ctx, component, "view", name, params)
}

func (c *Client) action(ctx context.Context, component, name string, params url.Values) (response, error) {
	return c.call(ctx, component, "action", name, params)
}

// call performs one API request and decodes the JSON object it returns.
func (c *Client) call(ctx context.Context, component, kind, name string, params url.Values) (response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		return nil, fmt.Errorf("throttling %s/%s/%s: %w", component, kind, name, err)
	}

	if !retryable(kind, name) {
		ctx = context.WithValue(ctx, noRetryKey{}, true)
	}

	endpoint := c.base.JoinPath("JSON", component, kind, name).String() + "/"
	if len(params) > 0 {
		endpoint += "?" + params.Encode()
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if c.apiKey != "" {
		req.Header.Set(apiKeyHeader, c.apiKey)
	}

	c.log.WithFields(logrus.Fields{"component": component, "type": kind, "name": name}).Debug("ZAP API call")

	// With the passthrough error handler a response that exhausted its
	// retries still arrives here; its body carries ZAP's error.
	resp, err := c.http.Do(req)
	if resp == nil {
		return nil, fmt.Errorf("%s/%s/%s: %w", component, kind, name, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s/%s/%s: reading body: %w", component, kind, name, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode, Endpoint: component + "/" + kind + "/" + name}
		if jsonErr := json.Unmarshal(body, apiErr); jsonErr != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(body))
		}
		return nil, apiErr
	}

	var out response
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("%s/%s/%s: decoding response: %w", component, kind, name, err)
	}
	return out, nil
}

// APIError is returned when ZAP rejects a call.
type APIError struct {
	StatusCode int    `json:"-"`
	Endpoint   string `json:"-"`
	Code       string `json:"code"`
	Message    string `json:"message"`
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("zap %s: %s (%s, HTTP %d)", e.Endpoint, e.Message, e.Code, e.StatusCode)
	}
	return fmt.Sprintf("zap %s: %s (HTTP %d)", e.Endpoint, e.Message, e.StatusCode)
}

// IsAPIError reports whether err is (or wraps) an APIError carrying code.
// An empty code matches any APIError.
func IsAPIError(err error, code string) bool {
	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		return false
	}
	return code == "" || apiErr.Code == code
}

type noRetryKey struct{}

// retryable reports whether a call may be sent again after a failure. Views
// and option setters are safe to repeat; other actions start or change
// something in the engine and are sent once.
func retryable(kind, name string) bool {
	return kind == "view" || strings.HasPrefix(name, "setOption")
}

func checkRetry(ctx context.Context, resp *http.Response, err error) (bool, error) {
	if once, _ := ctx.Value(noRetryKey{}).(bool); once {
		return false, ctx.Err()
	}
	return retryablehttp.DefaultRetryPolicy(ctx, resp, err)
}

// response is the decoded top-level JSON object of an API answer.
type response map[string]json.RawMessage

// String returns a string field. ZAP encodes numbers as strings too.
func (r response) String(key string) (string, error) {
	raw, ok := r[key]
	if !ok {
		return "", fmt.Errorf("response has no %q field", key)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		// Not a string: hand back the raw JSON so callers can report it.
		return strings.TrimSpace(string(raw)), nil
	}
	return s, nil
}

// Int returns a numeric field.
func (r response) Int(key string) (int, error) {
	s, err := r.String(key)
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("field %q: %q is not a number", key, s)
	}
	return n, nil
}

// Decode unmarshals a field into out.
func (r response) Decode(key string, out any) error {
	raw, ok := r[key]
	if !ok {
		return fmt.Errorf("response has no %q field", key)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %q: %w", key, err)
	}
	return nil
}

// result returns the "Result" field of an action answer.
func (r response) result() (string, error) {
	return r.String("Result")
}

// expectOK turns a non-OK action result into an error.
func expectOK(resp response, err error) error {
	if err != nil {
		return err
	}
	res, err := resp.result()
	if err != nil {
		return err
	}
	if res != ResultOK {
		return fmt.Errorf("unexpected result %q", res)
	}
	return nil
}

func boolParam(b bool) string {
	return strconv.FormatBool(b)
}

// leveledLogger adapts logrus to retryablehttp.LeveledLogger.
type leveledLogger struct {
	log logrus.FieldLogger
}

func (l leveledLogger) fields(kv []interface{}) logrus.FieldLogger {
	entry := l.log
	for i := 0; i+1 < len(kv); i += 2 {
		entry = entry.WithField(fmt.Sprint(kv[i]), kv[i+1])
	}
	return entry
}

func (l leveledLogger) Error(msg string, kv ...interface{}) { l.fields(kv).Error(msg) }
func (l leveledLogger) Info(msg string, kv ...interface{})  { l.fields(kv).Debug(msg) }
func (l leveledLogger) Debug(msg string, kv ...interface{}) { l.fields(kv).Debug(msg) }
func (l leveledLogger) Warn(msg string, kv ...interface{})  { l.fields(kv).Warn(msg) }
