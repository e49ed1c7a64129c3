package api

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/engine-control/esc/internal/alert"
	"github.com/engine-control/esc/internal/auth"
	"github.com/engine-control/esc/internal/radiolink"
)

const apiV1 = "/api/v1"

// registerRoutes registers all maintenance endpoints. Health is
// unauthenticated; status and telemetry need viewer access; control
// actions need controller access.
func (s *Server) registerRoutes(mux *http.ServeMux) {
	mux.HandleFunc(apiV1+"/health", s.handleHealth)

	mux.HandleFunc(apiV1+"/alert", s.authMW.Require(auth.RoleViewer, s.handleAlert))
	mux.HandleFunc(apiV1+"/alert/raise", s.authMW.Require(auth.RoleController, s.handleAlertRaise))
	mux.HandleFunc(apiV1+"/alert/clear", s.authMW.Require(auth.RoleController, s.handleAlertClear))

	mux.HandleFunc(apiV1+"/radio", s.authMW.Require(auth.RoleViewer, s.handleRadio))
	mux.HandleFunc(apiV1+"/radio/init", s.authMW.Require(auth.RoleController, s.handleRadioInit))
	mux.HandleFunc(apiV1+"/radio/link", s.authMW.Require(auth.RoleViewer, s.handleRadioLink))
	mux.HandleFunc(apiV1+"/radio/send", s.authMW.Require(auth.RoleController, s.handleRadioSend))
	mux.HandleFunc(apiV1+"/radio/receive", s.authMW.Require(auth.RoleController, s.handleRadioReceive))

	mux.HandleFunc(apiV1+"/telemetry", s.authMW.Require(auth.RoleViewer, s.handleTelemetry))
}

// decodeStrict parses a JSON body rejecting unknown fields and trailing
// data.
func decodeStrict(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errTrailingData
	}
	return nil
}

var errTrailingData = errors.New("unexpected trailing data")

// handleHealth handles GET /health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed")
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"status":    "ok",
		"uptimeSec": int(time.Since(s.startTime).Seconds()),
	})
}

// handleAlert handles GET /alert.
func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed")
		return
	}

	status := s.supervisor.AlertStatus()
	WriteSuccess(w, map[string]interface{}{
		"severity": status.Severity,
		"code":     status.Code,
		// Indicator exclusivity means the active lamp tracks the severity.
		"lamp": status.Severity,
	})
}

// handleAlertRaise handles POST /alert/raise.
func (s *Server) handleAlertRaise(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST method is allowed")
		return
	}

	var req struct {
		Severity string `json:"severity"`
		Code     string `json:"code"`
	}
	if err := decodeStrict(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON or unknown fields")
		return
	}

	level, err := alert.ParseSeverity(req.Severity)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_RANGE", err.Error())
		return
	}
	code, err := alert.ParseCode(req.Code)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "INVALID_RANGE", err.Error())
		return
	}

	accepted := s.supervisor.RaiseAlert(r.Context(), level, code)
	status := s.supervisor.AlertStatus()
	WriteSuccess(w, map[string]interface{}{
		"accepted": accepted,
		"severity": status.Severity,
		"code":     status.Code,
	})
}

// handleAlertClear handles POST /alert/clear.
func (s *Server) handleAlertClear(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST method is allowed")
		return
	}

	s.supervisor.ClearAlert(r.Context())
	status := s.supervisor.AlertStatus()
	WriteSuccess(w, map[string]interface{}{
		"severity": status.Severity,
		"code":     status.Code,
	})
}

// handleRadio handles GET /radio.
func (s *Server) handleRadio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed")
		return
	}

	WriteSuccess(w, s.supervisor.RadioStatus())
}

// handleRadioInit handles POST /radio/init.
func (s *Server) handleRadioInit(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST method is allowed")
		return
	}

	ready := s.supervisor.InitRadio(r.Context())
	WriteSuccess(w, map[string]interface{}{"ready": ready})
}

// handleRadioLink handles GET /radio/link with a forced re-poll.
func (s *Server) handleRadioLink(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed")
		return
	}

	up := s.supervisor.PollLink(r.Context())
	WriteSuccess(w, map[string]interface{}{"linkOk": up})
}

// handleRadioSend handles POST /radio/send.
func (s *Server) handleRadioSend(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST method is allowed")
		return
	}

	var req struct {
		Data string `json:"data"`
	}
	if err := decodeStrict(r, &req); err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "Malformed JSON or unknown fields")
		return
	}

	frame, err := base64.StdEncoding.DecodeString(req.Data)
	if err != nil {
		WriteError(w, http.StatusBadRequest, "BAD_REQUEST", "data must be base64")
		return
	}
	if len(frame) == 0 || len(frame) > radiolink.TxBufferSize {
		WriteError(w, http.StatusBadRequest, "INVALID_RANGE", "frame length must be 1..128 bytes")
		return
	}

	if !s.supervisor.SendFrame(r.Context(), frame) {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Transmit failed")
		return
	}
	WriteSuccess(w, map[string]interface{}{"length": len(frame)})
}

// handleRadioReceive handles POST /radio/receive.
func (s *Server) handleRadioReceive(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only POST method is allowed")
		return
	}

	data, ok := s.supervisor.ReceiveFrame(r.Context())
	if !ok {
		WriteError(w, http.StatusServiceUnavailable, "UNAVAILABLE", "Receive failed")
		return
	}

	WriteSuccess(w, map[string]interface{}{
		"length": len(data),
		"data":   base64.StdEncoding.EncodeToString(data),
	})
}

// handleTelemetry handles GET /telemetry as an SSE stream.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		WriteError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED", "Only GET method is allowed")
		return
	}

	if err := s.telemetry.Subscribe(w, r); err != nil {
		s.log.Warn().Err(err).Msg("telemetry subscription failed")
	}
}
