package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/berfenger/mikettle2mqtt/internal/core/domain"
	"github.com/berfenger/mikettle2mqtt/internal/util"

	"github.com/asynkron/protoactor-go/actor"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func fakeMaster(healthy bool, states []domain.SensorState) actor.ReceiveFunc {
	return func(ctx actor.Context) {
		switch ctx.Message().(type) {
		case domain.ActorHealthRequest:
			ctx.Respond(domain.ActorHealthResponse{Id: domain.ACTOR_ID_MASTER, Healthy: healthy})
		case domain.GetSensorStatesRequest:
			ctx.Respond(domain.GetSensorStatesResponse{States: states})
		}
	}
}

func newTestHandler(t *testing.T, receive actor.ReceiveFunc) http.Handler {
	as := actor.NewActorSystem()
	pid := as.Root.Spawn(actor.PropsFromFunc(receive))
	t.Cleanup(func() {
		as.Root.Stop(pid)
		as.Shutdown()
	})
	s := &Server{
		rootContext: as.Root,
		masterActor: pid,
		httpLog:     true,
		logger:      zap.NewNop(),
	}
	return s.RegisterRoutes()
}

func TestHealthCheck(t *testing.T) {
	assert := assert.New(t)

	h := newTestHandler(t, fakeMaster(true, nil))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(http.StatusOK, rec.Code)
	assert.Equal("health_check: OK", rec.Body.String())

	h = newTestHandler(t, fakeMaster(false, nil))
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthcheck", nil))
	assert.Equal(http.StatusServiceUnavailable, rec.Code)
}

func TestSensors(t *testing.T) {
	assert := assert.New(t)

	states := []domain.SensorState{
		{Id: "mikettle_aabbccddeeff_current_temperature", Name: "Mi Kettle Current temperature", State: 96, Unit: "°C", Icon: "mdi:thermometer"},
		{Id: "mikettle_aabbccddeeff_mode", Name: "Mi Kettle Mode", Icon: "mdi:settings-outline"},
	}
	h := newTestHandler(t, fakeMaster(true, states))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/sensors", nil))
	assert.Equal(http.StatusOK, rec.Code)

	var body []map[string]any
	assert.NoError(json.Unmarshal(rec.Body.Bytes(), &body))
	if assert.Len(body, 2) {
		assert.Equal("Mi Kettle Current temperature", body[0]["name"])
		assert.Equal(float64(96), body[0]["state"])
		assert.Nil(body[1]["state"])
	}
}

func TestNewServer(t *testing.T) {
	cfg := util.LoadTestConfig()
	as := actor.NewActorSystem()
	defer as.Shutdown()
	srv := NewServer(cfg, as.Root, nil, zap.NewNop())
	assert.Equal(t, ":8080", srv.Addr)
	assert.NotNil(t, srv.Handler)
}
