package bridge

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/milk9111/fairyflight/pose"
	"go.uber.org/zap"
)

// handlePoseSocket applies every message to the pose cache as it arrives.
// The frame loop reads whatever is cached and never waits on this socket.
func (s *Server) handlePoseSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("pose socket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	s.log.Info("pose producer connected", zap.String("remote", r.RemoteAddr))
	cache := s.host.Poses()
	for {
		_, payload, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.log.Warn("pose producer dropped", zap.Error(err))
			}
			return
		}

		var msg poseMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.log.Debug("discarding malformed pose message", zap.Error(err))
			continue
		}
		applyPose(cache, msg)
	}
}

func applyPose(cache *pose.Cache, msg poseMessage) {
	if msg.Head != nil {
		pos, okPos := vec(msg.Head.Position)
		rot, okRot := msg.Head.quat()
		if okPos && okRot {
			cache.SetHead(pose.Head{Position: pos, Rotation: rot})
		}
	}
	if msg.Left != nil {
		cache.SetHand(pose.Left, joints(*msg.Left))
	}
	if msg.Right != nil {
		cache.SetHand(pose.Right, joints(*msg.Right))
	}
}

// handleStateSocket streams published snapshots until the client leaves.
func (s *Server) handleStateSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("state socket upgrade failed", zap.Error(err))
		return
	}
	defer conn.Close()

	sub := &subscriber{
		send: make(chan []byte, subscriberSize),
		done: make(chan struct{}),
	}
	s.mu.Lock()
	s.subs[sub] = struct{}{}
	s.mu.Unlock()
	defer s.unsubscribe(sub)

	closed := make(chan struct{})
	go func() {
		defer close(closed)
		for {
			if _, _, err := conn.NextReader(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case data := <-sub.send:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-closed:
			return
		case <-sub.done:
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseGoingAway, "shutting down"),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *Server) unsubscribe(sub *subscriber) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.subs[sub]; ok {
		delete(s.subs, sub)
		close(sub.done)
	}
}
