// Package api exposes the display's property panel and lifecycle over HTTP.
// It is the transport a UI uses to read and change options; the dynamic
// Channel enum reflects whatever the newest cloud offered.
package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/banshee-data/cloudview/internal/display"
	"github.com/banshee-data/cloudview/internal/httputil"
	"github.com/banshee-data/cloudview/internal/properties"
	"github.com/banshee-data/cloudview/internal/version"
)

// Server wires HTTP routes to a display and its property manager.
type Server struct {
	display *display.Display
	props   *properties.Manager

	// SnapshotHandler serves the websocket point stream; optional.
	SnapshotHandler http.HandlerFunc
}

// NewServer creates an API server for the given display.
func NewServer(d *display.Display, props *properties.Manager) *Server {
	return &Server{display: d, props: props}
}

// Router builds the route table.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/properties", s.listProperties).Methods(http.MethodGet)
	r.HandleFunc("/api/properties/{name}", s.getProperty).Methods(http.MethodGet)
	r.HandleFunc("/api/properties/{name}", s.setProperty).Methods(http.MethodPut)
	r.HandleFunc("/api/display/reset", s.resetDisplay).Methods(http.MethodPost)
	r.HandleFunc("/api/display/enabled", s.setEnabled).Methods(http.MethodPut)
	r.HandleFunc("/api/display/fixed_frame", s.setFixedFrame).Methods(http.MethodPut)
	r.HandleFunc("/api/display", s.displayStatus).Methods(http.MethodGet)
	if s.SnapshotHandler != nil {
		r.HandleFunc("/ws/points", s.SnapshotHandler)
	}
	r.Handle("/metrics", promhttp.Handler())
	r.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("ok"))
	})
	return r
}

func (s *Server) listProperties(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSONOK(w, s.props.List())
}

func (s *Server) getProperty(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]
	v, err := s.props.Get(name)
	if err != nil {
		httputil.NotFound(w, err.Error())
		return
	}
	httputil.WriteJSONOK(w, map[string]interface{}{"name": name, "value": v})
}

// setProperty accepts {"value": ...}. Color values are {"r":..,"g":..,"b":..}
// objects, enums are integers, floats and bools their JSON forms. Legacy
// property names (e.g. "Color" for "Max Color") are accepted.
func (s *Server) setProperty(w http.ResponseWriter, r *http.Request) {
	name := mux.Vars(r)["name"]

	var body struct {
		Value json.RawMessage `json:"value"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("parsing request body: %v", err))
		return
	}

	value, err := decodeValue(s.props, name, body.Value)
	if err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	if err := s.props.Set(name, value); err != nil {
		httputil.BadRequest(w, err.Error())
		return
	}
	v, _ := s.props.Get(name)
	httputil.WriteJSONOK(w, map[string]interface{}{"name": name, "value": v})
}

// decodeValue unmarshals the raw value according to the property's kind.
func decodeValue(props *properties.Manager, name string, raw json.RawMessage) (interface{}, error) {
	p, ok := props.Lookup(name)
	if !ok {
		return nil, fmt.Errorf("unknown property %q", name)
	}
	switch p.Kind() {
	case properties.KindColor:
		var c properties.Color
		if err := json.Unmarshal(raw, &c); err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		return c, nil
	case properties.KindBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		return b, nil
	default:
		var f float64
		if err := json.Unmarshal(raw, &f); err != nil {
			return nil, fmt.Errorf("property %q: %w", name, err)
		}
		return f, nil
	}
}

func (s *Server) resetDisplay(w http.ResponseWriter, _ *http.Request) {
	s.display.Reset()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setEnabled(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Enabled bool `json:"enabled"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("parsing request body: %v", err))
		return
	}
	if body.Enabled {
		s.display.OnEnable()
	} else {
		s.display.OnDisable()
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) setFixedFrame(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Frame string `json:"frame"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		httputil.BadRequest(w, fmt.Sprintf("parsing request body: %v", err))
		return
	}
	s.display.SetFixedFrame(body.Frame)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) displayStatus(w http.ResponseWriter, _ *http.Request) {
	httputil.WriteJSONOK(w, map[string]interface{}{
		"name":            s.display.Name(),
		"version":         version.Version,
		"enabled":         s.display.Enabled(),
		"fixed_frame":     s.display.FixedFrame(),
		"buffered_clouds": s.display.BufferLen(),
		"buffered_points": s.display.BufferedPoints(),
	})
}
