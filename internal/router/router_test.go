package router

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/valyala/fasthttp"

	apiHandler "github.com/fastygo/datewheel/api/handler"
	"github.com/fastygo/datewheel/domain"
	"github.com/fastygo/datewheel/internal/middleware"
	"github.com/fastygo/datewheel/pkg/httpcontext"
	"github.com/fastygo/datewheel/repository/memory"
	"github.com/fastygo/datewheel/usecase"
	"github.com/fastygo/datewheel/usecase/draw"
	"github.com/fastygo/datewheel/usecase/history"
	"github.com/fastygo/datewheel/usecase/pool"
	"github.com/fastygo/datewheel/usecase/registry"
	"github.com/fastygo/datewheel/usecase/schedule"
	"github.com/fastygo/datewheel/usecase/settings"
)

type envelope struct {
	Status string          `json:"status"`
	Code   string          `json:"code"`
	Data   json.RawMessage `json:"data"`
	Error  string          `json:"error"`
	Meta   json.RawMessage `json:"meta"`
}

type response struct {
	status int
	body   envelope
}

func newHandler(t *testing.T, secret string) fasthttp.RequestHandler {
	t.Helper()
	ctx := context.Background()
	store := memory.NewKVStore()

	reg, err := registry.New(ctx, store, nil, nil)
	require.NoError(t, err)
	wheel, err := pool.New(ctx, store, reg, 6, nil)
	require.NoError(t, err)
	log := history.New(store, nil)
	engine := draw.NewEngine(reg, log, nil, draw.WithRandom(usecase.SeededRandom(5)), draw.WithTiming(time.Second, 0))
	scheduler := schedule.New(store, reg, nil, schedule.WithLocation(time.UTC))
	adapter := httpcontext.NewAdapter(time.Second)

	handlers := Handlers{
		Activity: apiHandler.NewActivityHandler(reg, adapter, nil),
		Pool:     apiHandler.NewPoolHandler(wheel, adapter, nil),
		Draw:     apiHandler.NewDrawHandler(engine, wheel, adapter, nil),
		Schedule: apiHandler.NewScheduleHandler(scheduler, adapter, nil),
		History:  apiHandler.NewHistoryHandler(log, adapter, nil),
		Settings: apiHandler.NewSettingsHandler(settings.New(store, nil), adapter, nil),
		Health:   apiHandler.NewHealthHandler(nil, "memory", adapter, nil),
	}
	r := New(handlers, middleware.JWTAuth(secret, "", nil), Options{EnableMetrics: true})
	return r.Handler
}

func do(t *testing.T, h fasthttp.RequestHandler, method, uri, body string, headers ...string) response {
	t.Helper()
	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod(method)
	ctx.Request.SetRequestURI(uri)
	if body != "" {
		ctx.Request.SetBodyString(body)
		ctx.Request.Header.SetContentType("application/json")
	}
	for i := 0; i+1 < len(headers); i += 2 {
		ctx.Request.Header.Set(headers[i], headers[i+1])
	}
	h(&ctx)

	res := response{status: ctx.Response.StatusCode()}
	if raw := ctx.Response.Body(); len(raw) > 0 && strings.HasPrefix(string(ctx.Response.Header.ContentType()), "application/json") {
		require.NoError(t, json.Unmarshal(raw, &res.body), string(raw))
	}
	return res
}

func TestActivityCRUD(t *testing.T) {
	h := newHandler(t, "")

	res := do(t, h, "GET", "/api/v1/activities", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"count":35}`, string(res.body.Meta))

	res = do(t, h, "POST", "/api/v1/activities", `{"name":"Escape Room","emoji":"🔐","category":"Game","moods":["teamwork"]}`)
	require.Equal(t, http.StatusCreated, res.status)
	var created domain.Activity
	require.NoError(t, json.Unmarshal(res.body.Data, &created))
	assert.True(t, created.IsCustom)
	assert.Equal(t, "game", created.Category)

	res = do(t, h, "PUT", "/api/v1/activities/"+created.ID, `{"description":"Solve it together"}`)
	require.Equal(t, http.StatusOK, res.status)
	var updated domain.Activity
	require.NoError(t, json.Unmarshal(res.body.Data, &updated))
	assert.Equal(t, "Escape Room", updated.Name)
	assert.Equal(t, "Solve it together", updated.Description)

	res = do(t, h, "PUT", "/api/v1/activities/"+created.ID, `{"description":"","season":""}`)
	require.Equal(t, http.StatusOK, res.status)
	require.NoError(t, json.Unmarshal(res.body.Data, &updated))
	assert.Equal(t, "Escape Room", updated.Name)
	assert.Empty(t, updated.Description)

	res = do(t, h, "PUT", "/api/v1/activities/"+created.ID, `{"emoji":"  "}`)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = do(t, h, "PUT", "/api/v1/activities/unknown", `{"name":"x"}`)
	assert.Equal(t, http.StatusNoContent, res.status)

	res = do(t, h, "GET", "/api/v1/activities?q=escape", "")
	assert.JSONEq(t, `{"count":1}`, string(res.body.Meta))

	res = do(t, h, "DELETE", "/api/v1/activities/"+created.ID, "")
	assert.Equal(t, http.StatusNoContent, res.status)

	res = do(t, h, "POST", "/api/v1/activities", `{"emoji":"x"}`)
	assert.Equal(t, http.StatusBadRequest, res.status)
	assert.Equal(t, "INVALID", res.body.Code)

	res = do(t, h, "POST", "/api/v1/activities", `{"name":"No emoji"}`)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = do(t, h, "POST", "/api/v1/activities", `{not json`)
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestPoolAndDrawFlow(t *testing.T) {
	h := newHandler(t, "")

	res := do(t, h, "PUT", "/api/v1/pool", `{"ids":["1"]}`)
	require.Equal(t, http.StatusOK, res.status)
	var snapshot struct {
		Size    int  `json:"size"`
		CanDraw bool `json:"canDraw"`
	}
	require.NoError(t, json.Unmarshal(res.body.Data, &snapshot))
	assert.Equal(t, 1, snapshot.Size)
	assert.False(t, snapshot.CanDraw)

	res = do(t, h, "POST", "/api/v1/draw", "")
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = do(t, h, "POST", "/api/v1/pool/toggle/2", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"added":true,"removed":false,"belowMinimum":false,"atCapacity":false,"size":2}`, string(res.body.Meta))

	res = do(t, h, "POST", "/api/v1/pool/toggle/nope", "")
	assert.Equal(t, http.StatusNotFound, res.status)

	res = do(t, h, "POST", "/api/v1/draw/complete", "")
	assert.Equal(t, http.StatusConflict, res.status)

	res = do(t, h, "POST", "/api/v1/draw", "")
	require.Equal(t, http.StatusCreated, res.status)
	var started draw.Result
	require.NoError(t, json.Unmarshal(res.body.Data, &started))
	assert.Contains(t, []string{"1", "2"}, started.Activity.ID)
	assert.Equal(t, started.SelectedIndex, draw.SegmentFor(started.RotationTarget, 2))

	res = do(t, h, "POST", "/api/v1/draw", "")
	assert.Equal(t, http.StatusConflict, res.status)

	res = do(t, h, "POST", "/api/v1/draw/complete", "")
	require.Equal(t, http.StatusOK, res.status)

	res = do(t, h, "GET", "/api/v1/history", "")
	assert.JSONEq(t, `{"count":1}`, string(res.body.Meta))

	res = do(t, h, "GET", "/api/v1/activities/recent", "")
	var recent []domain.Activity
	require.NoError(t, json.Unmarshal(res.body.Data, &recent))
	require.Len(t, recent, 1)
	assert.Equal(t, started.Activity.ID, recent[0].ID)
	assert.Equal(t, 1, recent[0].UsageCount)

	res = do(t, h, "POST", "/api/v1/draw/reset", "")
	require.Equal(t, http.StatusOK, res.status)
	assert.JSONEq(t, `{"state":"idle"}`, string(res.body.Data))

	res = do(t, h, "DELETE", "/api/v1/history", "")
	assert.Equal(t, http.StatusNoContent, res.status)
}

func TestScheduleEndpoints(t *testing.T) {
	h := newHandler(t, "")

	res := do(t, h, "PUT", "/api/v1/schedule", `{"date":"2026-07-03T19:00:00Z","activityId":"4"}`)
	require.Equal(t, http.StatusOK, res.status)

	res = do(t, h, "GET", "/api/v1/schedule?year=2026&month=7", "")
	require.Equal(t, http.StatusOK, res.status)
	var slots []domain.Slot
	require.NoError(t, json.Unmarshal(res.body.Data, &slots))
	require.Len(t, slots, 5)
	assert.True(t, slots[0].Pinned)
	assert.Equal(t, "4", slots[0].Activity.ID)

	res = do(t, h, "PUT", "/api/v1/schedule", `{"date":"2026-07-04T19:00:00Z","activityId":"4"}`)
	assert.Equal(t, http.StatusBadRequest, res.status)

	res = do(t, h, "PUT", "/api/v1/schedule", `{"date":"2026-07-03T19:00:00Z","activityId":"missing"}`)
	assert.Equal(t, http.StatusNotFound, res.status)

	res = do(t, h, "GET", "/api/v1/schedule?month=july", "")
	assert.Equal(t, http.StatusBadRequest, res.status)
}

func TestSettingsEndpoints(t *testing.T) {
	h := newHandler(t, "")

	res := do(t, h, "PUT", "/api/v1/settings", `{"showConfetti":false}`)
	require.Equal(t, http.StatusOK, res.status)

	res = do(t, h, "POST", "/api/v1/settings/theme", "")
	require.Equal(t, http.StatusOK, res.status)

	res = do(t, h, "GET", "/api/v1/settings", "")
	var got domain.Settings
	require.NoError(t, json.Unmarshal(res.body.Data, &got))
	assert.Equal(t, domain.ThemeDark, got.Theme)
	assert.False(t, got.ShowConfetti)
	assert.True(t, got.SoundEnabled)
}

func TestMutationsRequireTokenWhenSecretSet(t *testing.T) {
	h := newHandler(t, "s3cret")

	res := do(t, h, "GET", "/api/v1/pool", "")
	assert.Equal(t, http.StatusOK, res.status)

	res = do(t, h, "POST", "/api/v1/draw", "")
	assert.Equal(t, http.StatusUnauthorized, res.status)

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"member": "alex"}).SignedString([]byte("s3cret"))
	require.NoError(t, err)
	res = do(t, h, "POST", "/api/v1/draw", "", "Authorization", "Bearer "+token)
	assert.Equal(t, http.StatusCreated, res.status)
}

func TestHealthAndMetrics(t *testing.T) {
	h := newHandler(t, "")

	res := do(t, h, "GET", "/health", "")
	require.Equal(t, http.StatusOK, res.status)
	var payload map[string]any
	require.NoError(t, json.Unmarshal(res.body.Data, &payload))
	assert.Equal(t, "ok", payload["status"])
	assert.Equal(t, "memory", payload["storage"])

	var ctx fasthttp.RequestCtx
	ctx.Request.Header.SetMethod("GET")
	ctx.Request.SetRequestURI("/metrics")
	h(&ctx)
	assert.Equal(t, http.StatusOK, ctx.Response.StatusCode())
	assert.Contains(t, string(ctx.Response.Body()), "datewheel_pool_size")
}
