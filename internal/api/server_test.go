package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/banshee-data/cloudview/internal/display"
	"github.com/banshee-data/cloudview/internal/properties"
	"github.com/banshee-data/cloudview/internal/render"
	"github.com/banshee-data/cloudview/internal/tf"
)

func newTestServer(t *testing.T) (*Server, *display.Display) {
	t.Helper()
	d := display.New(display.Config{
		Name:       "points",
		Renderer:   render.NewPointBuffer(),
		Resolver:   tf.NewStaticResolver(),
		FixedFrame: "world",
	})
	props := properties.NewManager()
	d.CreateProperties(props)
	return NewServer(d, props), d
}

func doJSON(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestListProperties(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/properties", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var infos []properties.Info
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &infos))

	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	assert.Contains(t, names, "Style")
	assert.Contains(t, names, "Channel")
	assert.Contains(t, names, "Max Color")
	assert.Contains(t, names, "Decay Time")
}

func TestGetProperty(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/properties/Alpha", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Name  string  `json:"name"`
		Value float64 `json:"value"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "Alpha", body.Name)
	assert.Equal(t, 1.0, body.Value)

	rec = doJSON(t, s.Router(), http.MethodGet, "/api/properties/Bogus", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSetProperty(t *testing.T) {
	s, d := newTestServer(t)

	t.Run("float", func(t *testing.T) {
		rec := doJSON(t, s.Router(), http.MethodPut, "/api/properties/Decay%20Time", `{"value": 2.5}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float32(2.5), d.DecayTime())
	})

	t.Run("float clamped to min", func(t *testing.T) {
		rec := doJSON(t, s.Router(), http.MethodPut, "/api/properties/Billboard%20Size", `{"value": -1}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, float32(0.0001), d.BillboardSize())
	})

	t.Run("bool", func(t *testing.T) {
		rec := doJSON(t, s.Router(), http.MethodPut, "/api/properties/Autocompute%20Intensity%20Bounds", `{"value": false}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.False(t, d.AutoComputeIntensityBounds())
	})

	t.Run("enum", func(t *testing.T) {
		rec := doJSON(t, s.Router(), http.MethodPut, "/api/properties/Style", `{"value": 1}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, display.StylePoints, d.Style())
	})

	t.Run("color", func(t *testing.T) {
		rec := doJSON(t, s.Router(), http.MethodPut, "/api/properties/Min%20Color", `{"value": {"r":0.1,"g":0.2,"b":0.3}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, properties.Color{R: 0.1, G: 0.2, B: 0.3}, d.MinColor())
	})

	t.Run("legacy color alias", func(t *testing.T) {
		rec := doJSON(t, s.Router(), http.MethodPut, "/api/properties/Color", `{"value": {"r":1,"g":1,"b":0}}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, properties.Color{R: 1, G: 1, B: 0}, d.MaxColor())
	})

	t.Run("wrong type", func(t *testing.T) {
		rec := doJSON(t, s.Router(), http.MethodPut, "/api/properties/Alpha", `{"value": "opaque"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown property", func(t *testing.T) {
		rec := doJSON(t, s.Router(), http.MethodPut, "/api/properties/Bogus", `{"value": 1}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("bad body", func(t *testing.T) {
		rec := doJSON(t, s.Router(), http.MethodPut, "/api/properties/Alpha", `{`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestDisplayLifecycle(t *testing.T) {
	s, d := newTestServer(t)
	router := s.Router()

	rec := doJSON(t, router, http.MethodPut, "/api/display/enabled", `{"enabled": false}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.False(t, d.Enabled())

	rec = doJSON(t, router, http.MethodPut, "/api/display/enabled", `{"enabled": true}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.True(t, d.Enabled())

	rec = doJSON(t, router, http.MethodPut, "/api/display/fixed_frame", `{"frame": "map"}`)
	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "map", d.FixedFrame())

	rec = doJSON(t, router, http.MethodPost, "/api/display/reset", "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
}

func TestDisplayStatus(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/api/display", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "points", body["name"])
	assert.Equal(t, true, body["enabled"])
	assert.Equal(t, "world", body["fixed_frame"])
	assert.Equal(t, float64(0), body["buffered_clouds"])
}

func TestHealthz(t *testing.T) {
	s, _ := newTestServer(t)
	rec := doJSON(t, s.Router(), http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "ok", rec.Body.String())
}
