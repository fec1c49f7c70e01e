package sync_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"sighting-engine/core/middleware/auth"
	"sighting-engine/feature/sync"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newHandlerApp(s *sync.Scheduler) *fiber.App {
	callers := map[string]auth.Caller{
		"ana": {UserID: 1, Username: "ana"},
		"mod": {UserID: 3, Username: "mod", Moderator: true},
	}
	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		if caller, ok := callers[c.Get("X-Test-User")]; ok {
			c.SetUserContext(auth.WithCaller(c.UserContext(), caller))
		}
		return c.Next()
	})
	sync.NewHandler(s, zap.NewNop()).RegisterRoutes(app)
	return app
}

func postSync(t *testing.T, app *fiber.App, user string) (int, map[string]any) {
	t.Helper()
	req := httptest.NewRequest("POST", "/sync", nil)
	if user != "" {
		req.Header.Set("X-Test-User", user)
	}
	resp, err := app.Test(req, 2000)
	require.NoError(t, err)
	defer resp.Body.Close()

	var body map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	return resp.StatusCode, body
}

func TestHandleRun(t *testing.T) {
	t.Run("Anonymous", func(t *testing.T) {
		runner := &blockingRunner{}
		status, _ := postSync(t, newHandlerApp(sync.NewScheduler(runner, time.Minute, zap.NewNop())), "")
		assert.Equal(t, fiber.StatusUnauthorized, status)
		assert.Zero(t, runner.runs.Load())
	})

	t.Run("Not Moderator", func(t *testing.T) {
		runner := &blockingRunner{}
		status, _ := postSync(t, newHandlerApp(sync.NewScheduler(runner, time.Minute, zap.NewNop())), "ana")
		assert.Equal(t, fiber.StatusForbidden, status)
		assert.Zero(t, runner.runs.Load())
	})

	t.Run("Accepted", func(t *testing.T) {
		runner := &blockingRunner{started: make(chan struct{}, 1), gate: make(chan struct{})}
		s := sync.NewScheduler(runner, time.Minute, zap.NewNop())

		status, body := postSync(t, newHandlerApp(s), "mod")
		assert.Equal(t, fiber.StatusAccepted, status)
		assert.Equal(t, "Sync started.", body["status"])

		// The run outlives the request.
		<-runner.started
		assert.True(t, s.Running())
		close(runner.gate)
		require.Eventually(t, func() bool { return !s.Running() }, 2*time.Second, time.Millisecond)
		assert.Equal(t, int32(1), runner.runs.Load())
	})

	t.Run("Failed Run Frees Scheduler", func(t *testing.T) {
		runner := &blockingRunner{err: errors.New("boom")}
		s := sync.NewScheduler(runner, time.Minute, zap.NewNop())
		app := newHandlerApp(s)

		status, _ := postSync(t, app, "mod")
		assert.Equal(t, fiber.StatusAccepted, status)
		require.Eventually(t, func() bool { return runner.runs.Load() == 1 && !s.Running() }, 2*time.Second, time.Millisecond)

		status, _ = postSync(t, app, "mod")
		assert.Equal(t, fiber.StatusAccepted, status)
		require.Eventually(t, func() bool { return runner.runs.Load() == 2 && !s.Running() }, 2*time.Second, time.Millisecond)
	})

	t.Run("Already Running", func(t *testing.T) {
		runner := &blockingRunner{started: make(chan struct{}, 1), gate: make(chan struct{})}
		s := sync.NewScheduler(runner, time.Minute, zap.NewNop())

		done := make(chan struct{})
		go func() {
			_, _ = s.RunOnce(context.Background())
			close(done)
		}()
		<-runner.started

		status, _ := postSync(t, newHandlerApp(s), "mod")
		assert.Equal(t, fiber.StatusConflict, status)

		close(runner.gate)
		<-done
	})
}
