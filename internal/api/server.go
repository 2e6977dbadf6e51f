// Package api provides the HTTP API and websocket feed for remote editing,
// recording and replay control.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net"
	"net/http"
	"strconv"
	"strings"
	"time"

	"macrorec/internal/macro"
	"macrorec/internal/protocol"
	"macrorec/internal/recorder"
)

// maxBodyBytes bounds PUT /api/macro payloads.
const maxBodyBytes = 8 << 20

// Controller runs the operations that involve more than the macro itself:
// hooks, replay and the macro file.
type Controller interface {
	StartRecording(section int) error
	StopRecording()
	Play() error
	StopPlayback()
	Save() error
	Load() error
	Status() protocol.Status
}

// Server provides HTTP API for remote control
type Server struct {
	core  *recorder.Core
	ctrl  Controller
	token string
	wsMgr *WSManager
}

// NewServer creates a new API server. An empty token disables auth.
func NewServer(core *recorder.Core, ctrl Controller, token string) *Server {
	s := &Server{
		core:  core,
		ctrl:  ctrl,
		token: token,
	}
	s.wsMgr = newWSManager(s)
	go s.wsMgr.start()
	return s
}

// Handler returns the HTTP handler with auth and panic recovery applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.HandleFunc("GET /api/status", s.handleStatus)
	mux.HandleFunc("GET /api/macro", s.handleGetMacro)
	mux.HandleFunc("PUT /api/macro", s.handlePutMacro)
	mux.HandleFunc("POST /api/clear", s.handleClear)

	mux.HandleFunc("POST /api/sections", s.handleAddSection)
	mux.HandleFunc("PUT /api/sections/{section}", s.handleRenameSection)
	mux.HandleFunc("DELETE /api/sections/{section}", s.handleDeleteSection)
	mux.HandleFunc("POST /api/sections/{section}/move", s.handleMoveSection)
	mux.HandleFunc("POST /api/sections/{section}/delays", s.handleAddDelay)
	mux.HandleFunc("POST /api/sections/{section}/steps/move", s.handleMoveSteps)
	mux.HandleFunc("DELETE /api/sections/{section}/steps/{step}", s.handleDeleteStep)
	mux.HandleFunc("POST /api/sections/{section}/steps/{step}/move", s.handleMoveStep)
	mux.HandleFunc("PUT /api/sections/{section}/steps/{step}/delay", s.handleEditDelay)
	mux.HandleFunc("PUT /api/gaps/{gap}", s.handleSetGap)

	mux.HandleFunc("POST /api/record/start", s.handleRecordStart)
	mux.HandleFunc("POST /api/record/stop", s.handleRecordStop)
	mux.HandleFunc("POST /api/play", s.handlePlay)
	mux.HandleFunc("POST /api/play/stop", s.handlePlayStop)
	mux.HandleFunc("POST /api/save", s.handleSave)
	mux.HandleFunc("POST /api/load", s.handleLoad)

	mux.HandleFunc("GET /ws", s.wsMgr.handleWebSocket)

	return s.authMiddleware(s.recoverMiddleware(mux))
}

// Start serves the API on 127.0.0.1:port until ctx is done
func (s *Server) Start(ctx context.Context, port int) error {
	addr := fmt.Sprintf("127.0.0.1:%d", port)
	ln, err := net.Listen("tcp4", addr)
	if err != nil {
		log.Printf("ERROR: API server failed to listen on %s: %v", addr, err)
		return err
	}
	log.Printf("Starting API server on %s", addr)
	return s.Serve(ctx, ln)
}

// Serve serves the API on ln until ctx is done
func (s *Server) Serve(ctx context.Context, ln net.Listener) error {
	server := &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		server.Shutdown(shutdownCtx)
	}()

	if err := server.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("ERROR: API server stopped: %v", err)
		return err
	}
	return nil
}

// Close stops the websocket hub and disconnects its clients
func (s *Server) Close() {
	s.wsMgr.stop()
}

// recoverMiddleware prevents panics from crashing the whole server
func (s *Server) recoverMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				log.Printf("PANIC RECOV: %v", err)
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// authMiddleware checks API token if configured
func (s *Server) authMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Printf("API: %s %s from %s", r.Method, r.URL.Path, r.RemoteAddr)

		// Skip auth for health check
		if r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}

		if s.token != "" {
			// Browsers cannot set headers on websocket upgrades
			if r.Header.Get("Authorization") != "Bearer "+s.token && r.URL.Query().Get("token") != s.token {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}
		}

		next.ServeHTTP(w, r)
	})
}

// errorStatus maps recorder state conflicts to 409
func errorStatus(err error) int {
	if errors.Is(err, recorder.ErrAlreadyPlaying) || errors.Is(err, recorder.ErrRecording) {
		return http.StatusConflict
	}
	return http.StatusInternalServerError
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}

func writeOK(w http.ResponseWriter) {
	writeJSON(w, map[string]string{"status": "ok"})
}

// pathInt parses a path wildcard, writing 400 on failure
func pathInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	v, err := strconv.Atoi(r.PathValue(name))
	if err != nil {
		http.Error(w, fmt.Sprintf("Invalid %s: %q", name, r.PathValue(name)), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// queryInt parses a required query parameter, writing 400 on failure
func queryInt(w http.ResponseWriter, r *http.Request, name string) (int, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		http.Error(w, fmt.Sprintf("Missing %s parameter", name), http.StatusBadRequest)
		return 0, false
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		http.Error(w, fmt.Sprintf("Invalid %s: %q", name, raw), http.StatusBadRequest)
		return 0, false
	}
	return v, true
}

// handleHealth handles GET /health (for monitoring)
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w)
}

// handleStatus handles GET /api/status
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.ctrl.Status())
}

// handleGetMacro handles GET /api/macro. The ETag is the canonical
// fingerprint of the body.
func (s *Server) handleGetMacro(w http.ResponseWriter, r *http.Request) {
	data, err := macro.Encode(s.core.Snapshot())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	if fp, err := macro.FingerprintBytes(data); err == nil {
		etag := `"` + fp + `"`
		w.Header().Set("ETag", etag)
		if r.Header.Get("If-None-Match") == etag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.Write(data)
}

// handlePutMacro handles PUT /api/macro with a macro file body
func (s *Server) handlePutMacro(w http.ResponseWriter, r *http.Request) {
	data, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		http.Error(w, "Failed to read body", http.StatusBadRequest)
		return
	}
	if err := macro.Validate(data); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	m, err := macro.Decode(data)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	log.Printf("API: Replacing macro with %d sections from %s", len(m.Sections), r.RemoteAddr)
	s.core.Replace(m)
	writeOK(w)
}

// handleClear handles POST /api/clear
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	s.core.ClearAll()
	writeOK(w)
}

// handleAddSection handles POST /api/sections?name=<name>
func (s *Server) handleAddSection(w http.ResponseWriter, r *http.Request) {
	idx := s.core.AddSection(r.URL.Query().Get("name"))
	writeJSON(w, map[string]int{"index": idx})
}

// handleRenameSection handles PUT /api/sections/{section}?name=<name>
func (s *Server) handleRenameSection(w http.ResponseWriter, r *http.Request) {
	section, ok := pathInt(w, r, "section")
	if !ok {
		return
	}
	s.core.RenameSection(section, r.URL.Query().Get("name"))
	writeOK(w)
}

// handleDeleteSection handles DELETE /api/sections/{section}
func (s *Server) handleDeleteSection(w http.ResponseWriter, r *http.Request) {
	section, ok := pathInt(w, r, "section")
	if !ok {
		return
	}
	s.core.DeleteSection(section)
	writeOK(w)
}

// handleMoveSection handles POST /api/sections/{section}/move?dir=left|right
func (s *Server) handleMoveSection(w http.ResponseWriter, r *http.Request) {
	section, ok := pathInt(w, r, "section")
	if !ok {
		return
	}
	switch r.URL.Query().Get("dir") {
	case "left":
		s.core.MoveSectionLeft(section)
	case "right":
		s.core.MoveSectionRight(section)
	default:
		http.Error(w, "dir must be left or right", http.StatusBadRequest)
		return
	}
	writeOK(w)
}

// handleAddDelay handles POST /api/sections/{section}/delays?ms=<ms>
func (s *Server) handleAddDelay(w http.ResponseWriter, r *http.Request) {
	section, ok := pathInt(w, r, "section")
	if !ok {
		return
	}
	ms, ok := queryInt(w, r, "ms")
	if !ok {
		return
	}
	s.core.AddDelayStep(section, ms)
	writeOK(w)
}

// handleDeleteStep handles DELETE /api/sections/{section}/steps/{step}
func (s *Server) handleDeleteStep(w http.ResponseWriter, r *http.Request) {
	section, ok := pathInt(w, r, "section")
	if !ok {
		return
	}
	step, ok := pathInt(w, r, "step")
	if !ok {
		return
	}
	s.core.DeleteStep(section, step)
	writeOK(w)
}

// handleMoveStep handles POST /api/sections/{section}/steps/{step}/move?dir=up|down
func (s *Server) handleMoveStep(w http.ResponseWriter, r *http.Request) {
	section, ok := pathInt(w, r, "section")
	if !ok {
		return
	}
	step, ok := pathInt(w, r, "step")
	if !ok {
		return
	}
	switch r.URL.Query().Get("dir") {
	case "up":
		s.core.MoveStepUp(section, step)
	case "down":
		s.core.MoveStepDown(section, step)
	default:
		http.Error(w, "dir must be up or down", http.StatusBadRequest)
		return
	}
	writeOK(w)
}

// handleMoveSteps handles POST /api/sections/{section}/steps/move?dir=up|down&indices=1,2
func (s *Server) handleMoveSteps(w http.ResponseWriter, r *http.Request) {
	section, ok := pathInt(w, r, "section")
	if !ok {
		return
	}
	var indices []int
	for _, raw := range strings.Split(r.URL.Query().Get("indices"), ",") {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		i, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, fmt.Sprintf("Invalid index: %q", raw), http.StatusBadRequest)
			return
		}
		indices = append(indices, i)
	}

	var moved []int
	switch r.URL.Query().Get("dir") {
	case "up":
		moved = s.core.MoveStepsUp(section, indices)
	case "down":
		moved = s.core.MoveStepsDown(section, indices)
	default:
		http.Error(w, "dir must be up or down", http.StatusBadRequest)
		return
	}
	if moved == nil {
		moved = []int{}
	}
	writeJSON(w, map[string][]int{"indices": moved})
}

// handleEditDelay handles PUT /api/sections/{section}/steps/{step}/delay?ms=<ms>
// or ?unit=<unit>
func (s *Server) handleEditDelay(w http.ResponseWriter, r *http.Request) {
	section, ok := pathInt(w, r, "section")
	if !ok {
		return
	}
	step, ok := pathInt(w, r, "step")
	if !ok {
		return
	}

	q := r.URL.Query()
	if unit := q.Get("unit"); unit != "" {
		if !macro.Unit(unit).Valid() {
			http.Error(w, fmt.Sprintf("Invalid unit: %q", unit), http.StatusBadRequest)
			return
		}
		s.core.SetDelayUnit(section, step, macro.Unit(unit))
		writeOK(w)
		return
	}

	ms, ok := queryInt(w, r, "ms")
	if !ok {
		return
	}
	s.core.EditDelay(section, step, ms)
	writeOK(w)
}

// handleSetGap handles PUT /api/gaps/{gap}?ms=<ms>
func (s *Server) handleSetGap(w http.ResponseWriter, r *http.Request) {
	gap, ok := pathInt(w, r, "gap")
	if !ok {
		return
	}
	ms, ok := queryInt(w, r, "ms")
	if !ok {
		return
	}
	s.core.SetBetweenDelay(gap, ms)
	writeOK(w)
}

// handleRecordStart handles POST /api/record/start?section=<n>
func (s *Server) handleRecordStart(w http.ResponseWriter, r *http.Request) {
	section, ok := queryInt(w, r, "section")
	if !ok {
		return
	}
	if err := s.ctrl.StartRecording(section); err != nil {
		log.Printf("API: Record error: %v", err)
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	writeJSON(w, s.ctrl.Status())
}

// handleRecordStop handles POST /api/record/stop
func (s *Server) handleRecordStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.StopRecording()
	writeJSON(w, s.ctrl.Status())
}

// handlePlay handles POST /api/play. Replay runs in the background.
func (s *Server) handlePlay(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Play(); err != nil {
		http.Error(w, err.Error(), errorStatus(err))
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusAccepted)
	json.NewEncoder(w).Encode(map[string]string{"status": protocol.PlaybackStarted})
}

// handlePlayStop handles POST /api/play/stop
func (s *Server) handlePlayStop(w http.ResponseWriter, r *http.Request) {
	s.ctrl.StopPlayback()
	writeOK(w)
}

// handleSave handles POST /api/save
func (s *Server) handleSave(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Save(); err != nil {
		log.Printf("API: Save error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeOK(w)
}

// handleLoad handles POST /api/load
func (s *Server) handleLoad(w http.ResponseWriter, r *http.Request) {
	if err := s.ctrl.Load(); err != nil {
		log.Printf("API: Load error: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeOK(w)
}

// StructureChanged broadcasts the current macro to websocket clients
func (s *Server) StructureChanged() {
	data, err := macro.Encode(s.core.Snapshot())
	if err != nil {
		log.Printf("WS: Failed to encode macro: %v", err)
		return
	}
	s.wsMgr.Broadcast(protocol.Message{Type: protocol.TypeChanged, Payload: json.RawMessage(data)})
}

// PlaybackPosition broadcasts a replay position to websocket clients
func (s *Server) PlaybackPosition(section, step int, entering bool) {
	s.wsMgr.Broadcast(protocol.Message{
		Type:    protocol.TypePosition,
		Payload: protocol.PositionPayload{Section: section, Step: step, Entering: entering},
	})
}

// BroadcastRecording announces a recording state change
func (s *Server) BroadcastRecording(p protocol.RecordingPayload) {
	s.wsMgr.Broadcast(protocol.Message{Type: protocol.TypeRecording, Payload: p})
}

// BroadcastPlayback announces a replay state change
func (s *Server) BroadcastPlayback(p protocol.PlaybackPayload) {
	s.wsMgr.Broadcast(protocol.Message{Type: protocol.TypePlayback, Payload: p})
}
