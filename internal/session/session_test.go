package session_test

import (
	"context"
	"testing"
	"time"

	"github.com/entrhq/voyager/internal/driver/drivertest"
	"github.com/entrhq/voyager/internal/session"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotCapturesURLCookiesAndStorage(t *testing.T) {
	page := drivertest.NewPage("https://example.test/dashboard")
	page.AddCookies(context.Background(), nil)
	page.SetLocalStorage(context.Background(), map[string]string{"k": "v"})

	bctx := &drivertest.Context{}
	s := session.New("sess-1", "", bctx, page)

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/dashboard", snap.URL)
	assert.Equal(t, "v", snap.LocalStorage["k"])
}

func TestSnapshotToleratesAboutBlank(t *testing.T) {
	page := drivertest.NewPage("about:blank")
	bctx := &drivertest.Context{}
	s := session.New("sess-1", "", bctx, page)

	snap, err := s.Snapshot(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "about:blank", snap.URL)
	assert.Empty(t, snap.LocalStorage)
}

func TestRestoreNavigatesAndRepopulatesStorage(t *testing.T) {
	page := drivertest.NewPage("about:blank")
	bctx := &drivertest.Context{}
	s := session.New("sess-1", "", bctx, page)

	snap := &session.Snapshot{
		URL:          "https://example.test/restored",
		LocalStorage: map[string]string{"theme": "dark"},
	}
	err := s.Restore(context.Background(), snap, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/restored", s.CurrentURL())
}

func TestRestoreReopensPageIfClosed(t *testing.T) {
	page := drivertest.NewPage("about:blank")
	bctx := &drivertest.Context{
		NewPageFunc: func() *drivertest.Page { return drivertest.NewPage("about:blank") },
	}
	s := session.New("sess-1", "", bctx, page)

	page.Close(context.Background())
	assert.False(t, s.Healthy())

	snap := &session.Snapshot{URL: "https://example.test/after-crash"}
	err := s.Restore(context.Background(), snap, time.Second)
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/after-crash", s.CurrentURL())
	assert.True(t, s.Healthy())
}

func TestMarkUnhealthyOnCrash(t *testing.T) {
	page := drivertest.NewPage("https://example.test")
	bctx := &drivertest.Context{}
	s := session.New("sess-1", "", bctx, page)

	assert.True(t, s.Healthy())
	page.Crash()
	assert.False(t, s.Healthy())
}
