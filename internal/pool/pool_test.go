package pool_test

import (
	"context"
	"os"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/entrhq/voyager/internal/driver"
	"github.com/entrhq/voyager/internal/driver/drivertest"
	"github.com/entrhq/voyager/internal/pool"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAcquireLaunchesLazilyAndOnlyOnce(t *testing.T) {
	launcher := &drivertest.Launcher{}
	p := pool.New(launcher, pool.Options{}, nil)

	var wg sync.WaitGroup
	for i := 0; i < 5; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := p.Acquire(context.Background(), pool.AcquireOptions{})
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), atomic.LoadInt32(&launcher.LaunchCount))
}

func TestAcquireRejectsAtPoolLimit(t *testing.T) {
	launcher := &drivertest.Launcher{}
	p := pool.New(launcher, pool.Options{MaxContexts: 1}, nil)

	_, err := p.Acquire(context.Background(), pool.AcquireOptions{})
	require.NoError(t, err)

	_, err = p.Acquire(context.Background(), pool.AcquireOptions{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pool limit reached")
}

func TestAcquireNavigatesWhenURLGiven(t *testing.T) {
	launcher := &drivertest.Launcher{}
	p := pool.New(launcher, pool.Options{}, nil)

	sess, err := p.Acquire(context.Background(), pool.AcquireOptions{URL: "https://example.test/start"})
	require.NoError(t, err)
	assert.Equal(t, "https://example.test/start", sess.CurrentURL())
}

func TestAcquireRejectsInvalidProfileName(t *testing.T) {
	launcher := &drivertest.Launcher{}
	p := pool.New(launcher, pool.Options{}, nil)

	_, err := p.Acquire(context.Background(), pool.AcquireOptions{Profile: "../escape"})
	require.Error(t, err)
}

func TestReleaseSnapshotsProfileBoundSession(t *testing.T) {
	dir := t.TempDir()
	launcher := &drivertest.Launcher{}
	p := pool.New(launcher, pool.Options{ProfilesDir: dir}, nil)

	sess, err := p.Acquire(context.Background(), pool.AcquireOptions{Profile: "work", URL: "https://example.test/page"})
	require.NoError(t, err)

	err = p.Release(context.Background(), sess.ID)
	require.NoError(t, err)

	_, statErr := os.Stat(dir + "/work/session-snapshot.json")
	assert.NoError(t, statErr)
}

func TestReleaseUnknownSessionFails(t *testing.T) {
	p := pool.New(&drivertest.Launcher{}, pool.Options{}, nil)
	err := p.Release(context.Background(), "nonexistent")
	require.Error(t, err)
}

func TestShutdownClosesAllSessionsAndBrowser(t *testing.T) {
	launcher := &drivertest.Launcher{}
	p := pool.New(launcher, pool.Options{}, nil)

	_, err := p.Acquire(context.Background(), pool.AcquireOptions{})
	require.NoError(t, err)
	_, err = p.Acquire(context.Background(), pool.AcquireOptions{})
	require.NoError(t, err)

	err = p.Shutdown(context.Background())
	require.NoError(t, err)
	assert.Empty(t, p.List())
}

func TestHealthMonitorRecoversUnhealthySessionPreservingID(t *testing.T) {
	failCount := int32(0)
	launcher := &drivertest.Launcher{
		BrowserFunc: func() *drivertest.Browser {
			return &drivertest.Browser{
				NewContextFunc: func(_ driver.ContextOptions) *drivertest.Context {
					return &drivertest.Context{
						NewPageFunc: func() *drivertest.Page {
							p := drivertest.NewPage("https://example.test")
							if atomic.AddInt32(&failCount, 1) == 1 {
								p.SetEvalFunc(func(script string) interface{} { return "broken" })
							} else {
								p.SetEvalFunc(func(script string) interface{} { return "complete" })
							}
							return p
						},
					}
				},
			}
		},
	}

	p := pool.New(launcher, pool.Options{
		HealthInterval:   10 * time.Millisecond,
		ProbeTimeout:     50 * time.Millisecond,
		MaxProbeFailures: 2,
	}, nil)

	sess, err := p.Acquire(context.Background(), pool.AcquireOptions{})
	require.NoError(t, err)
	originalID := sess.ID

	p.StartHealthMonitor(context.Background())
	defer p.StopHealthMonitor()

	assert.Eventually(t, func() bool {
		s, ok := p.Get(originalID)
		return ok && s.Healthy()
	}, 2*time.Second, 10*time.Millisecond)
}
