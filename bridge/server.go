// Package bridge exposes a running simulation to the host over HTTP and
// websockets. Pose updates stream in on one socket and are written to the
// pose cache from the connection goroutine. Snapshots stream out on another.
package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/pose"
	"github.com/milk9111/fairyflight/sim"
	"go.uber.org/zap"
)

const (
	writeWait      = 5 * time.Second
	subscriberSize = 8
)

// Host is the part of a simulation the bridge drives.
type Host interface {
	ID() uuid.UUID
	Poses() *pose.Cache
	Snapshot() sim.Snapshot
	Activate(pos, vel mgl64.Vec3)
	Deactivate()
	SetKeepOut(k *ecs.KeepOut)
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

type Server struct {
	host   Host
	log    *zap.Logger
	router *mux.Router
	server *http.Server

	mu   sync.Mutex
	subs map[*subscriber]struct{}
}

type subscriber struct {
	send chan []byte
	done chan struct{}
}

func NewServer(addr string, host Host, log *zap.Logger) *Server {
	if log == nil {
		log = zap.NewNop()
	}
	router := mux.NewRouter()
	s := &Server{
		host:   host,
		log:    log.With(zap.String("session", host.ID().String())),
		router: router,
		subs:   make(map[*subscriber]struct{}),
		server: &http.Server{
			Addr:         addr,
			Handler:      router,
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.HandleFunc("/healthz", s.handleHealth).Methods(http.MethodGet)
	s.router.HandleFunc("/state", s.handleState).Methods(http.MethodGet)
	s.router.HandleFunc("/ws/pose", s.handlePoseSocket)
	s.router.HandleFunc("/ws/state", s.handleStateSocket)
	s.router.HandleFunc("/keepout", s.handleSetKeepOut).Methods(http.MethodPost)
	s.router.HandleFunc("/keepout", s.handleClearKeepOut).Methods(http.MethodDelete)
	s.router.HandleFunc("/activate", s.handleActivate).Methods(http.MethodPost)
	s.router.HandleFunc("/deactivate", s.handleDeactivate).Methods(http.MethodPost)
}

func (s *Server) Handler() http.Handler {
	return s.router
}

// Start serves in the background until Stop.
func (s *Server) Start() {
	go func() {
		s.log.Info("bridge listening", zap.String("addr", s.server.Addr))
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("bridge server failed", zap.Error(err))
		}
	}()
}

func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	for sub := range s.subs {
		close(sub.done)
		delete(s.subs, sub)
	}
	s.mu.Unlock()
	return s.server.Shutdown(ctx)
}

// Publish sends a snapshot to every state subscriber. Slow subscribers miss
// frames rather than stall the frame loop.
func (s *Server) Publish(snap sim.Snapshot) {
	s.broadcast(streamMessage{Type: streamState, State: &snap})
}

// PublishEvent forwards a world event to every state subscriber.
func (s *Server) PublishEvent(evt ecs.Event) {
	msg := eventFrom(evt)
	s.broadcast(streamMessage{Type: streamEvent, Event: &msg})
}

func (s *Server) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

func (s *Server) broadcast(msg streamMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		s.log.Error("marshal stream message", zap.Error(err))
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for sub := range s.subs {
		select {
		case sub.send <- data:
		default:
		}
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, healthMessage{Status: "ok", Session: s.host.ID().String()})
}

func (s *Server) handleState(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.host.Snapshot())
}

func (s *Server) handleSetKeepOut(w http.ResponseWriter, r *http.Request) {
	var msg keepOutMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorMessage{Error: err.Error()})
		return
	}
	center, ok1 := vec(msg.Center)
	half, ok2 := vec(msg.HalfExtents)
	if !ok1 || !ok2 {
		writeJSON(w, http.StatusBadRequest, errorMessage{Error: "keep-out values must be finite"})
		return
	}
	s.host.SetKeepOut(&ecs.KeepOut{Center: center, HalfExtents: half})
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleClearKeepOut(w http.ResponseWriter, _ *http.Request) {
	s.host.SetKeepOut(nil)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleActivate(w http.ResponseWriter, r *http.Request) {
	var msg activateMessage
	if err := json.NewDecoder(r.Body).Decode(&msg); err != nil {
		writeJSON(w, http.StatusBadRequest, errorMessage{Error: err.Error()})
		return
	}
	pos, ok1 := vec(msg.Position)
	vel, ok2 := vec(msg.Velocity)
	if !ok1 || !ok2 {
		writeJSON(w, http.StatusBadRequest, errorMessage{Error: "activation values must be finite"})
		return
	}
	s.host.Activate(pos, vel)
	writeJSON(w, http.StatusOK, s.host.Snapshot())
}

func (s *Server) handleDeactivate(w http.ResponseWriter, _ *http.Request) {
	s.host.Deactivate()
	writeJSON(w, http.StatusOK, s.host.Snapshot())
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
