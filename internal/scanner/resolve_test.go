package scanner

import (
	"context"
	"testing"
	"time"

	"github.com/buemura/zapx/internal/zap"
	"github.com/buemura/zapx/internal/zap/zaptest"
	"github.com/buemura/zapx/internal/zapconfig"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newResolver(t *testing.T, srv *zaptest.Server, cfg *zapconfig.Configuration) (*Resolver, *test.Hook) {
	t.Helper()
	c, err := zap.NewClient(zap.Options{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)
	log, hook := test.NewNullLogger()
	return NewResolver(cfg, EngineFromClient(c), log), hook
}

func resolverConfig() *zapconfig.Configuration {
	return zapconfig.New("", nil, []zapconfig.Context{
		{Name: "fixed", ID: ptr(0), Users: []zapconfig.User{{Name: "root", ID: ptr(0)}}},
		{Name: "live", Users: []zapconfig.User{{Name: "alice"}}},
	}, nil, nil)
}

func TestResolve_NoContext(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	r, hook := newResolver(t, srv, resolverConfig())

	ref, err := r.Resolve(context.Background(), "", "alice")
	require.NoError(t, err)
	assert.False(t, ref.HasContext())
	assert.False(t, ref.HasUser())
	assert.Equal(t, -1, ref.ContextID)
	assert.Equal(t, -1, ref.UserID)

	require.Len(t, hook.AllEntries(), 2)
	assert.Equal(t, logrus.WarnLevel, hook.AllEntries()[0].Level)
	assert.Empty(t, srv.Calls())
}

func TestResolve_ConfiguredIDsWin(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	r, _ := newResolver(t, srv, resolverConfig())

	ref, err := r.Resolve(context.Background(), "fixed", "root")
	require.NoError(t, err)
	assert.True(t, ref.HasContext())
	assert.True(t, ref.HasUser(), "id 0 is a valid id")
	assert.Equal(t, Reference{ContextName: "fixed", ContextID: 0, UserName: "root", UserID: 0}, ref)
	assert.Empty(t, srv.Calls())
}

func TestResolve_LooksUpEngine(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	cid := srv.AddContext("live")
	uid := srv.AddUser(cid, "alice")
	r, _ := newResolver(t, srv, resolverConfig())

	ref, err := r.Resolve(context.Background(), "live", "alice")
	require.NoError(t, err)
	assert.Equal(t, cid, ref.ContextID)
	assert.Equal(t, uid, ref.UserID)
	assert.True(t, ref.HasUser())

	ref, err = r.Resolve(context.Background(), "live", "")
	require.NoError(t, err)
	assert.True(t, ref.HasContext())
	assert.False(t, ref.HasUser())
}

func TestResolve_Unknown(t *testing.T) {
	srv := zaptest.NewServer()
	defer srv.Close()
	r, _ := newResolver(t, srv, resolverConfig())
	ctx := context.Background()

	_, err := r.Resolve(ctx, "missing", "")
	assert.ErrorIs(t, err, zapconfig.ErrNotFound)

	_, err = r.Resolve(ctx, "fixed", "bob")
	assert.ErrorIs(t, err, zapconfig.ErrNotFound)

	// Configured, but ZAP does not know the context.
	_, err = r.Resolve(ctx, "live", "")
	require.Error(t, err)
	assert.True(t, zap.IsAPIError(err, "context_not_found"))

	// Configured, ZAP knows the context but not the user.
	srv.AddContext("live")
	_, err = r.Resolve(ctx, "live", "alice")
	assert.ErrorIs(t, err, zapconfig.ErrNotFound)

	nilCfg, _ := newResolver(t, srv, nil)
	_, err = nilCfg.Resolve(ctx, "live", "")
	assert.ErrorIs(t, err, zapconfig.ErrNotFound)
}
