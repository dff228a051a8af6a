package spider

import (
	"context"
	"testing"
	"time"

	"github.com/buemura/zapx/internal/scanner"
	"github.com/buemura/zapx/internal/scanner/contexts"
	"github.com/buemura/zapx/internal/scanner/scannertest"
	"github.com/buemura/zapx/internal/zap/zaptest"
	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const target = "http://juice-shop:3000/"

var ptr = scannertest.Ptr[int]

func testConfig() *zapconfig.Configuration {
	ctxs := []zapconfig.Context{{
		Name: "juiceshop",
		URL:  target,
		Users: []zapconfig.User{
			{Name: "admin", Username: "admin@juice-sh.op", Password: "admin123"},
			{Name: "fixed", ID: ptr(9)},
		},
	}}
	spiders := []zapconfig.Spider{
		{Name: "juiceshop-spider", Context: "juiceshop", User: "admin", URL: target, MaxDepth: ptr(5)},
		{Name: "juiceshop-ajax", Context: "juiceshop", URL: target, Ajax: true, MaxCrawlStates: ptr(10)},
	}
	return zapconfig.New("", nil, ctxs, spiders, nil)
}

func newHTTPSpider(t *testing.T, srv *zaptest.Server, cfg *zapconfig.Configuration) (*HTTPSpider, *test.Hook) {
	t.Helper()
	log, hook := scannertest.NewLogger()
	s := NewHTTP(scannertest.NewEngine(t, srv), cfg, log)
	s.PollInterval = time.Millisecond
	s.StartDelay = 0
	return s, hook
}

func TestHTTPSpider_ConfigureSkipsAbsentAndNegative(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	s, _ := newHTTPSpider(t, srv, nil)

	sec := &zapconfig.Spider{
		Name:          "s",
		MaxDepth:      ptr(5),
		MaxChildren:   ptr(-1),
		ParseComments: scannertest.Ptr(false),
		UserAgent:     scannertest.Ptr(""),
	}
	require.NoError(t, s.Configure(context.Background(), sec))

	assert.Equal(t, "5", srv.CallsTo("spider/action/setOptionMaxDepth")[0].Params.Get("Integer"))
	assert.Equal(t, "false", srv.CallsTo("spider/action/setOptionParseComments")[0].Params.Get("Boolean"))
	assert.False(t, srv.Called("spider/action/setOptionMaxChildren"))
	assert.False(t, srv.Called("spider/action/setOptionUserAgent"))
	assert.False(t, srv.Called("spider/action/setOptionThreadCount"))
	assert.Len(t, srv.Calls(), 2)
}

func TestHTTPSpider_ConfigureAllOptions(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	s, _ := newHTTPSpider(t, srv, nil)

	yes := scannertest.Ptr(true)
	sec := &zapconfig.Spider{
		MaxDuration: ptr(1), MaxDepth: ptr(2), MaxChildren: ptr(3), MaxParseSizeBytes: ptr(4),
		AcceptCookies: yes, HandleODataParametersVisited: yes, HandleParameters: scannertest.Ptr("USE_ALL"),
		ParseComments: yes, ParseGit: yes, ParseRobotsTxt: yes, ParseSitemapXML: yes, ParseSVNEntries: yes,
		PostForm: yes, ProcessForm: yes, RequestWaitTime: ptr(200), SendRefererHeader: yes,
		ThreadCount: ptr(2), UserAgent: scannertest.Ptr("zapx"),
	}
	require.NoError(t, s.Configure(context.Background(), sec))
	assert.Len(t, srv.Calls(), 18)
	assert.Equal(t, "USE_ALL", srv.CallsTo("spider/action/setOptionHandleParameters")[0].Params.Get("String"))
	assert.True(t, srv.Called("spider/action/setOptionParseSitemapXml"))
}

func TestHTTPSpider_ConfigureRejectedOption(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	srv.Respond("spider/action/setOptionMaxDepth", map[string]string{"Result": "FAIL"})
	s, _ := newHTTPSpider(t, srv, nil)

	err := s.Configure(context.Background(), &zapconfig.Spider{MaxDepth: ptr(5), ThreadCount: ptr(2)})
	var optErr *scanner.OptionError
	require.ErrorAs(t, err, &optErr)
	assert.Equal(t, "MaxDepth", optErr.Option)
	assert.False(t, srv.Called("spider/action/setOptionThreadCount"))
}

func TestHTTPSpider_StartAsUser(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	cid := srv.AddContext("juiceshop")
	uid := srv.AddUser(cid, "admin")

	cfg := testConfig()
	sec, err := cfg.Spiders().ByName("juiceshop-spider")
	require.NoError(t, err)

	s, _ := newHTTPSpider(t, srv, cfg)
	require.NoError(t, s.Start(context.Background(), target, sec))

	assert.True(t, s.HasJob())
	assert.Equal(t, 0, s.ID())
	assert.True(t, srv.Called("spider/action/removeAllScans"))
	assert.Equal(t, target, srv.CallsTo("core/action/accessUrl")[0].Params.Get("url"))
	assert.False(t, srv.Called("spider/action/scan"))

	call := srv.CallsTo("spider/action/scanAsUser")
	require.Len(t, call, 1)
	assert.Equal(t, target, call[0].Params.Get("url"))
	assert.Equal(t, itoa(cid), call[0].Params.Get("contextId"))
	assert.Equal(t, itoa(uid), call[0].Params.Get("userId"))
}

func TestHTTPSpider_StartUsesConfiguredIDs(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	cfg := zapconfig.New("", nil,
		[]zapconfig.Context{{Name: "app", ID: ptr(4), Users: []zapconfig.User{{Name: "bob", ID: ptr(7)}}}},
		nil, nil)
	s, _ := newHTTPSpider(t, srv, cfg)

	require.NoError(t, s.Start(context.Background(), target, &zapconfig.Spider{Name: "s", Context: "app", User: "bob"}))
	call := srv.CallsTo("spider/action/scanAsUser")[0]
	assert.Equal(t, "4", call.Params.Get("contextId"))
	assert.Equal(t, "7", call.Params.Get("userId"))
	assert.False(t, srv.Called("context/view/context"))
	assert.False(t, srv.Called("users/view/usersList"))
}

func TestHTTPSpider_StartContextOnly(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	srv.AddContext("juiceshop")

	s, _ := newHTTPSpider(t, srv, testConfig())
	sec := &zapconfig.Spider{Name: "s", Context: "juiceshop", URL: target}
	require.NoError(t, s.Start(context.Background(), target, sec))

	assert.False(t, srv.Called("spider/action/scanAsUser"))
	call := srv.CallsTo("spider/action/scan")
	require.Len(t, call, 1)
	assert.Equal(t, "juiceshop", call[0].Params.Get("contextName"))
}

func TestHTTPSpider_StartUserWithoutContextIsIgnored(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	s, hook := newHTTPSpider(t, srv, testConfig())
	require.NoError(t, s.Start(context.Background(), target, &zapconfig.Spider{Name: "s", User: "admin", URL: target}))

	assert.False(t, srv.Called("spider/action/scanAsUser"))
	assert.False(t, srv.CallsTo("spider/action/scan")[0].Params.Has("contextName"))
	assert.Len(t, scannertest.Warnings(hook), 2)
}

func TestHTTPSpider_StartWithoutSection(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	s, _ := newHTTPSpider(t, srv, testConfig())
	require.NoError(t, s.Start(context.Background(), target, nil))

	call := srv.CallsTo("spider/action/scan")
	require.Len(t, call, 1)
	assert.Equal(t, target, call[0].Params.Get("url"))
	assert.False(t, call[0].Params.Has("contextName"))
	for _, c := range srv.Calls() {
		assert.NotContains(t, c.Endpoint, "setOption")
	}
}

func TestHTTPSpider_StartFallsBackToCallerURL(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	s, hook := newHTTPSpider(t, srv, testConfig())
	require.NoError(t, s.Start(context.Background(), "http://other/", &zapconfig.Spider{Name: "s"}))

	assert.Equal(t, "http://other/", srv.CallsTo("spider/action/scan")[0].Params.Get("url"))
	warnings := scannertest.Warnings(hook)
	require.Len(t, warnings, 2)
	assert.Contains(t, warnings[0], "http://other/")
	assert.Contains(t, warnings[1], "No context")
}

func TestHTTPSpider_StartUnknownNames(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	srv.AddContext("juiceshop")

	s, _ := newHTTPSpider(t, srv, testConfig())
	err := s.Start(context.Background(), target, &zapconfig.Spider{Name: "s", Context: "nope"})
	assert.ErrorIs(t, err, zapconfig.ErrNotFound)

	s, _ = newHTTPSpider(t, srv, testConfig())
	err = s.Start(context.Background(), target, &zapconfig.Spider{Name: "s", Context: "juiceshop", User: "nobody"})
	assert.ErrorIs(t, err, zapconfig.ErrNotFound)

	// Configured but never created in ZAP.
	s, _ = newHTTPSpider(t, srv, testConfig())
	err = s.Start(context.Background(), target, &zapconfig.Spider{Name: "s", Context: "juiceshop", User: "admin"})
	assert.ErrorIs(t, err, zapconfig.ErrNotFound)
	assert.False(t, s.HasJob())
}

func TestHTTPSpider_StartRejectedHandle(t *testing.T) {
	for _, raw := range []string{"-1", "url_not_found"} {
		t.Run(raw, func(t *testing.T) {
			srv := zaptest.NewServer()
			defer srv.Close()
			srv.Respond("spider/action/scan", map[string]string{"scan": raw})

			s, _ := newHTTPSpider(t, srv, nil)
			err := s.Start(context.Background(), target, nil)

			var startErr *scanner.StartError
			require.ErrorAs(t, err, &startErr)
			assert.Equal(t, raw, startErr.Result)
			assert.False(t, s.HasJob())
			assert.Equal(t, -1, s.ID())
		})
	}
}

func TestHTTPSpider_StartTwice(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	s, _ := newHTTPSpider(t, srv, nil)
	require.NoError(t, s.Start(context.Background(), target, nil))
	assert.Error(t, s.Start(context.Background(), target, nil))
	assert.Len(t, srv.CallsTo("spider/action/scan"), 1)
}

func TestHTTPSpider_AwaitCompletion(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	srv.URLs = []string{target, target + "rest/products"}
	srv.PollsUntilDone = 3

	s, _ := newHTTPSpider(t, srv, nil)
	require.NoError(t, s.Start(context.Background(), target, nil))

	urls, err := s.AwaitCompletion(context.Background())
	require.NoError(t, err)
	assert.Equal(t, srv.URLs, urls)
	assert.Len(t, srv.CallsTo("spider/view/status"), 4)
	assert.Equal(t, "0", srv.CallsTo("spider/view/results")[0].Params.Get("scanId"))
}

func TestHTTPSpider_AwaitCompletionNoURLs(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	s, _ := newHTTPSpider(t, srv, nil)
	require.NoError(t, s.Start(context.Background(), target, nil))

	_, err := s.AwaitCompletion(context.Background())
	assert.ErrorIs(t, err, scanner.ErrNoURLsFound)
	assert.False(t, srv.Called("spider/view/results"))
}

func TestHTTPSpider_AwaitCompletionWithoutJob(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	s, _ := newHTTPSpider(t, srv, nil)
	urls, err := s.AwaitCompletion(context.Background())
	assert.NoError(t, err)
	assert.Nil(t, urls)
	assert.Empty(t, srv.Calls())
}

func TestHTTPSpider_AwaitCompletionCancelled(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	srv.URLs = []string{target}
	srv.PollsUntilDone = 1 << 20

	s, _ := newHTTPSpider(t, srv, nil)
	require.NoError(t, s.Start(context.Background(), target, nil))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	_, err := s.AwaitCompletion(ctx)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestHTTPSpider_Run(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	srv.URLs = []string{target, target + "ftp"}
	cid := srv.AddContext("juiceshop")
	srv.AddUser(cid, "admin")

	s, _ := newHTTPSpider(t, srv, testConfig())
	tgt, err := types.ParseTarget(target + "rest")
	require.NoError(t, err)

	result, err := s.Run(context.Background(), tgt, scannertest.FastOptions())
	require.NoError(t, err)
	assert.Equal(t, "spider", result.ScannerName)
	require.Len(t, result.Findings, 2)
	assert.Equal(t, types.SeverityInfo, result.Findings[0].Severity)
	assert.Equal(t, target+"ftp", result.Findings[1].Evidence)

	// Picked by URL prefix: the HTTP section, not the AJAX one.
	assert.True(t, srv.Called("spider/action/setOptionMaxDepth"))
	assert.True(t, srv.Called("spider/action/scanAsUser"))
	assert.Equal(t, 0, s.ID())

	// The same step can run again and starts a new job.
	_, err = s.Run(context.Background(), tgt, scannertest.FastOptions())
	require.NoError(t, err)
	assert.Equal(t, 1, s.ID())
}

func TestHTTPSpider_RunAfterContextsUsesAssignedIDs(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	srv.URLs = []string{target}

	// Ids written for a fresh engine; ZAP hands out others.
	cfg := zapconfig.New("", nil,
		[]zapconfig.Context{{
			Name: "app", URL: target, ID: ptr(1),
			Users: []zapconfig.User{{Name: "bob", Username: "bob", Password: "pw", ID: ptr(3)}},
		}},
		[]zapconfig.Spider{{Name: "app-spider", Context: "app", User: "bob", URL: target}},
		nil)
	engine := scannertest.NewEngine(t, srv)
	log, _ := scannertest.NewLogger()
	tgt := types.Target{URL: target}

	_, err := contexts.New(engine, cfg, log).Run(context.Background(), tgt, scannertest.FastOptions())
	require.NoError(t, err)
	enabled := srv.CallsTo("users/action/setUserEnabled")
	require.Len(t, enabled, 1)

	_, err = NewHTTP(engine, cfg, log).Run(context.Background(), tgt, scannertest.FastOptions())
	require.NoError(t, err)

	call := srv.CallsTo("spider/action/scanAsUser")
	require.Len(t, call, 1)
	assert.Equal(t, enabled[0].Params.Get("contextId"), call[0].Params.Get("contextId"))
	assert.Equal(t, enabled[0].Params.Get("userId"), call[0].Params.Get("userId"))
	assert.Equal(t, "2", call[0].Params.Get("contextId"))
	assert.Equal(t, "0", call[0].Params.Get("userId"))
}

func TestHTTPSpider_RunSectionByName(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	s, _ := newHTTPSpider(t, srv, testConfig())
	tgt := types.Target{URL: target}

	_, err := s.Run(context.Background(), tgt, scanner.Options{Sections: map[string]string{"spider": "missing"}})
	assert.ErrorIs(t, err, zapconfig.ErrNotFound)

	_, err = s.Run(context.Background(), tgt, scanner.Options{Sections: map[string]string{"spider": "juiceshop-ajax"}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "AJAX")
	assert.Empty(t, srv.Calls())
}
