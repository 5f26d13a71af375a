package bridge

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/gorilla/websocket"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/pose"
	"github.com/milk9111/fairyflight/prefabs"
	"github.com/milk9111/fairyflight/sim"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newBridge(t *testing.T) (*sim.Simulation, *Server, *httptest.Server) {
	t.Helper()
	s, err := sim.New(sim.Options{Spec: prefabs.DefaultFairySpec(), Seed: 3, Spawn: mgl64.Vec3{0, 1.2, -1}})
	require.NoError(t, err)

	b := NewServer("", s, nil)
	srv := httptest.NewServer(b.Handler())
	t.Cleanup(srv.Close)
	return s, b, srv
}

func dial(t *testing.T, srv *httptest.Server, path string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + path
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	require.NoError(t, err)
	t.Cleanup(func() {
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
	})
	return conn
}

func TestHealth(t *testing.T) {
	s, _, srv := newBridge(t)

	resp, err := http.Get(srv.URL + "/healthz")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var msg healthMessage
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&msg))
	assert.Equal(t, "ok", msg.Status)
	assert.Equal(t, s.ID().String(), msg.Session)
}

func TestPoseSocketWritesCache(t *testing.T) {
	s, _, srv := newBridge(t)
	conn := dial(t, srv, "/ws/pose")
	cache := s.Poses()

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{
		"head": {"position": [0, 1.6, 0], "rotation": [0, 0, 0, 2]},
		"right": [[0.1, 1.2, -0.3], [0.12, 1.2, -0.3]]
	}`)))
	require.Eventually(t, func() bool { return cache.Updates() >= 2 }, 2*time.Second, 10*time.Millisecond)

	snap := cache.Snapshot()
	head, ok := snap.HeadPose()
	require.True(t, ok)
	assert.Equal(t, mgl64.Vec3{0, 1.6, 0}, head.Position)
	assert.True(t, mgl64.QuatIdent().ApproxEqualThreshold(head.Rotation, 1e-12))
	assert.Len(t, snap.HandJointPositions(pose.Right), 2)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`not json`)))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"right": []}`)))
	require.Eventually(t, func() bool { return cache.Updates() >= 3 }, 2*time.Second, 10*time.Millisecond)

	snap = cache.Snapshot()
	_, ok = snap.HeadPose()
	assert.True(t, ok, "head pose is kept when absent")
	assert.Empty(t, snap.HandJointPositions(pose.Right))
}

func TestApplyPoseRejectsDegenerateHead(t *testing.T) {
	cache := pose.NewCache()
	applyPose(cache, poseMessage{Head: &headMessage{Position: [3]float64{0, 1, 0}}})
	_, ok := cache.Snapshot().HeadPose()
	assert.False(t, ok)
	assert.Zero(t, cache.Updates())
}

func TestStateSocketStreams(t *testing.T) {
	s, b, srv := newBridge(t)
	conn := dial(t, srv, "/ws/state")
	require.Eventually(t, func() bool { return b.Subscribers() == 1 }, 2*time.Second, 10*time.Millisecond)

	b.Publish(s.Snapshot())
	b.PublishEvent(ecs.Event{Type: ecs.EventHeldChanged, Data: ecs.HeldChanged{Held: true, MinDistance: 0.05}})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var first streamMessage
	require.NoError(t, conn.ReadJSON(&first))
	assert.Equal(t, streamState, first.Type)
	require.NotNil(t, first.State)
	assert.Equal(t, s.ID().String(), first.State.Session)

	var second streamMessage
	require.NoError(t, conn.ReadJSON(&second))
	assert.Equal(t, streamEvent, second.Type)
	require.NotNil(t, second.Event)
	assert.True(t, second.Event.Held)
	assert.Equal(t, ecs.EventHeldChanged, second.Event.Name)
}

func TestKeepOutRoutes(t *testing.T) {
	s, _, srv := newBridge(t)

	body := `{"center": [1, 0.5, -1], "half_extents": [0.2, 0.5, 0.3]}`
	resp, err := http.Post(srv.URL+"/keepout", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	k := s.KeepOut()
	require.NotNil(t, k)
	assert.Equal(t, mgl64.Vec3{1, 0.5, -1}, k.Center)

	resp, err = http.Post(srv.URL+"/keepout", "application/json", strings.NewReader(`{`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	req, err := http.NewRequest(http.MethodDelete, srv.URL+"/keepout", nil)
	require.NoError(t, err)
	resp, err = http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	assert.Nil(t, s.KeepOut())

	resp, err = http.Get(srv.URL + "/keepout")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestActivateRoute(t *testing.T) {
	_, _, srv := newBridge(t)

	payload, err := json.Marshal(activateMessage{Position: [3]float64{0.5, 1, -0.5}, Velocity: [3]float64{0, 0.1, 0}})
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/activate", "application/json", bytes.NewReader(payload))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var snap sim.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.True(t, snap.Active)
	assert.Equal(t, [3]float64{0.5, 1, -0.5}, snap.Position)
	assert.Equal(t, 1.0, snap.LaunchGrace)

	resp2, err := http.Post(srv.URL+"/deactivate", "application/json", nil)
	require.NoError(t, err)
	defer resp2.Body.Close()
	var after sim.Snapshot
	require.NoError(t, json.NewDecoder(resp2.Body).Decode(&after))
	assert.False(t, after.Active)
}
