package contexts

import (
	"context"
	"net/http"
	"net/url"
	"testing"

	"github.com/buemura/zapx/internal/scanner/scannertest"
	"github.com/buemura/zapx/internal/zap/zaptest"
	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/buemura/zapx/pkg/types"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func juiceShop() zapconfig.Context {
	return zapconfig.Context{
		Name:         "juiceshop",
		IncludePaths: []string{"http://juice-shop:3000.*"},
		ExcludePaths: []string{".*logout.*", ".*\\.js"},
		Technologies: &zapconfig.Technologies{Exclude: []string{"Db.Oracle", "OS.Windows"}},
		Users: []zapconfig.User{
			{Name: "admin", Username: "admin@juice-sh.op", Password: "admin123", Forced: true},
			{Name: "guest"},
		},
	}
}

func newConfigurator(t *testing.T, srv *zaptest.Server, contexts ...zapconfig.Context) (*Configurator, *test.Hook) {
	t.Helper()
	log, hook := scannertest.NewLogger()
	cfg := zapconfig.New("", nil, contexts, nil, nil)
	return New(scannertest.NewEngine(t, srv), cfg, log), hook
}

func TestConfigurator_CreatesContextAndUsers(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	c, hook := newConfigurator(t, srv, juiceShop())
	sec := juiceShop()
	id, users, err := c.Apply(context.Background(), &sec)
	require.NoError(t, err)
	assert.Equal(t, []string{"admin", "guest"}, users)

	require.Len(t, srv.CallsTo("context/action/newContext"), 1)
	assert.Equal(t, "juiceshop", srv.CallsTo("context/action/newContext")[0].Params.Get("contextName"))

	assert.Equal(t, "http://juice-shop:3000.*", srv.CallsTo("context/action/includeInContext")[0].Params.Get("regex"))
	assert.Len(t, srv.CallsTo("context/action/excludeFromContext"), 2)
	assert.True(t, srv.Called("context/action/includeAllContextTechnologies"))
	assert.False(t, srv.Called("context/action/includeContextTechnologies"))
	assert.Equal(t, "Db.Oracle,OS.Windows",
		srv.CallsTo("context/action/excludeContextTechnologies")[0].Params.Get("technologyNames"))

	assert.Len(t, srv.CallsTo("users/action/newUser"), 2)
	creds := srv.CallsTo("users/action/setAuthenticationCredentials")
	require.Len(t, creds, 1)
	sent, err := url.ParseQuery(creds[0].Params.Get("authCredentialsConfigParams"))
	require.NoError(t, err)
	assert.Equal(t, "admin@juice-sh.op", sent.Get("username"))
	assert.Equal(t, "admin123", sent.Get("password"))
	assert.Len(t, srv.CallsTo("users/action/setUserEnabled"), 2)

	forced := srv.CallsTo("forcedUser/action/setForcedUser")
	require.Len(t, forced, 1)
	assert.Equal(t, itoa(id), forced[0].Params.Get("contextId"))
	assert.True(t, srv.Called("forcedUser/action/setForcedUserModeEnabled"))

	// guest has no username.
	assert.Len(t, scannertest.Warnings(hook), 1)
}

func TestConfigurator_ReusesExistingContextAndUsers(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	cid := srv.AddContext("juiceshop")
	uid := srv.AddUser(cid, "admin")

	c, _ := newConfigurator(t, srv)
	sec := juiceShop()
	id, _, err := c.Apply(context.Background(), &sec)
	require.NoError(t, err)
	assert.Equal(t, cid, id)

	assert.False(t, srv.Called("context/action/newContext"))
	newUsers := srv.CallsTo("users/action/newUser")
	require.Len(t, newUsers, 1)
	assert.Equal(t, "guest", newUsers[0].Params.Get("name"))
	assert.Equal(t, itoa(uid), srv.CallsTo("users/action/setAuthenticationCredentials")[0].Params.Get("userId"))
}

func TestConfigurator_IncludesURLWhenNoPaths(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	c, _ := newConfigurator(t, srv)
	sec := zapconfig.Context{Name: "app", URL: "http://app.local:8080/", InScope: scannertest.Ptr(true)}
	_, _, err := c.Apply(context.Background(), &sec)
	require.NoError(t, err)

	assert.Equal(t, `http://app\.local:8080.*`, srv.CallsTo("context/action/includeInContext")[0].Params.Get("regex"))
	assert.Equal(t, "true", srv.CallsTo("context/action/setContextInScope")[0].Params.Get("booleanInScope"))
	assert.False(t, srv.Called("context/action/includeAllContextTechnologies"))
	assert.False(t, srv.Called("forcedUser/action/setForcedUserModeEnabled"))
}

func TestConfigurator_LookupErrorIsNotCreation(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	srv.Handle("context/view/context", func(url.Values) (int, any) {
		return http.StatusInternalServerError, map[string]string{"code": "internal_error", "message": "boom"}
	})

	c, _ := newConfigurator(t, srv)
	sec := juiceShop()
	_, _, err := c.Apply(context.Background(), &sec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "internal_error")
	assert.False(t, srv.Called("context/action/newContext"))
}

func TestConfigurator_WarnsOnIDMismatch(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	c, hook := newConfigurator(t, srv)
	sec := zapconfig.Context{Name: "app", ID: scannertest.Ptr(42)}
	_, _, err := c.Apply(context.Background(), &sec)
	require.NoError(t, err)
	require.Len(t, scannertest.Warnings(hook), 1)
	assert.Contains(t, scannertest.Warnings(hook)[0], "differs")

	id, ok := c.engine.IDs.Context("app")
	assert.True(t, ok)
	assert.NotEqual(t, 42, id, "ZAP's id is recorded")
}

func TestConfigurator_RejectsInvalidPattern(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	c, _ := newConfigurator(t, srv)
	sec := zapconfig.Context{Name: "app", IncludePaths: []string{"http://app.*"}, ExcludePaths: []string{".*(logout"}}
	_, _, err := c.Apply(context.Background(), &sec)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `".*(logout"`)
	assert.Empty(t, srv.Calls(), "nothing is created for a broken context")
}

func TestConfigurator_Run(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	other := zapconfig.Context{Name: "other", URL: "http://other/"}
	c, _ := newConfigurator(t, srv, juiceShop(), other)

	result, err := c.Run(context.Background(), types.Target{URL: "http://juice-shop:3000/"}, scannertest.FastOptions())
	require.NoError(t, err)
	assert.Equal(t, "contexts", result.ScannerName)
	require.Len(t, result.Findings, 2)
	assert.Equal(t, "Context juiceshop", result.Findings[0].Title)
	assert.Equal(t, "admin, guest", result.Findings[0].Metadata["users"])
	assert.Equal(t, "Context other", result.Findings[1].Title)
	assert.Len(t, srv.CallsTo("context/action/newContext"), 2)
}

func TestConfigurator_RunWithoutContexts(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()

	c, _ := newConfigurator(t, srv)
	result, err := c.Run(context.Background(), types.Target{}, scannertest.FastOptions())
	require.NoError(t, err)
	assert.Empty(t, result.Findings)
	assert.Empty(t, srv.Calls())
}
