package echoapi

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIPRateLimiter_Middleware(t *testing.T) {
	rl := newIPRateLimiter(1, 2)
	defer rl.Stop()
	h := rl.Middleware()(func(ctx echo.Context) error {
		return ctx.NoContent(http.StatusOK)
	})

	e := echo.New()
	call := func(ip string) error {
		req := httptest.NewRequest(http.MethodPost, "/v1/auth/signin", nil)
		req.Header.Set(echo.HeaderXRealIP, ip)
		return h(e.NewContext(req, httptest.NewRecorder()))
	}

	require.NoError(t, call("10.0.0.1"))
	require.NoError(t, call("10.0.0.1"))
	assert.Equal(t, errTooManyTries, call("10.0.0.1"))
	assert.NoError(t, call("10.0.0.2"), "other clients keep their own bucket")
	assert.Equal(t, 2, rl.Len())
}

func TestIPRateLimiter_Cleanup(t *testing.T) {
	now := time.Date(2025, 2, 3, 8, 0, 0, 0, time.UTC)
	rl := newIPRateLimiter(1, 1)
	rl.now = func() time.Time { return now }

	rl.limiter("10.0.0.1")
	rl.limiter("10.0.0.2")
	now = now.Add(9 * time.Minute)
	busy := rl.limiter("10.0.0.2")
	now = now.Add(2 * time.Minute)

	assert.Equal(t, 1, rl.Cleanup(limiterMaxIdle))
	assert.Equal(t, 1, rl.Len())
	assert.Same(t, busy, rl.limiter("10.0.0.2"), "recently used bucket is kept")
	assert.Equal(t, 0, rl.Cleanup(limiterMaxIdle))
}

func TestIPRateLimiter_StartCleanup(t *testing.T) {
	rl := newIPRateLimiter(1, 1)
	rl.limiter("10.0.0.1")

	rl.StartCleanup(time.Millisecond, 0)
	assert.Eventually(t, func() bool { return rl.Len() == 0 }, time.Second, 5*time.Millisecond)

	rl.Stop()
	rl.Stop()
}
