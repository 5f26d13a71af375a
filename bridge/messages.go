package bridge

import (
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/sim"
)

// poseMessage is one update on the ingest socket. A missing head keeps the
// previous head pose. A missing hand keeps that hand, an empty one marks it
// untracked.
type poseMessage struct {
	Head  *headMessage  `json:"head"`
	Left  *[][3]float64 `json:"left"`
	Right *[][3]float64 `json:"right"`
}

type headMessage struct {
	Position [3]float64 `json:"position"`
	// Rotation is x, y, z, w.
	Rotation [4]float64 `json:"rotation"`
}

type keepOutMessage struct {
	Center      [3]float64 `json:"center"`
	HalfExtents [3]float64 `json:"half_extents"`
}

type activateMessage struct {
	Position [3]float64 `json:"position"`
	Velocity [3]float64 `json:"velocity"`
}

type healthMessage struct {
	Status  string `json:"status"`
	Session string `json:"session"`
}

type errorMessage struct {
	Error string `json:"error"`
}

const (
	streamState = "state"
	streamEvent = "event"
)

// streamMessage is what the state socket sends.
type streamMessage struct {
	Type  string        `json:"type"`
	State *sim.Snapshot `json:"state,omitempty"`
	Event *eventMessage `json:"event,omitempty"`
}

type eventMessage struct {
	Name        string  `json:"name"`
	Entity      string  `json:"entity,omitempty"`
	Held        bool    `json:"held"`
	MinDistance float64 `json:"min_distance"`
}

func eventFrom(evt ecs.Event) eventMessage {
	out := eventMessage{Name: evt.Type}
	if held, ok := evt.Data.(ecs.HeldChanged); ok {
		out.Entity = held.Entity.String()
		out.Held = held.Held
		out.MinDistance = held.MinDistance
	}
	return out
}

func finite(v ...float64) bool {
	for _, x := range v {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}

func vec(a [3]float64) (mgl64.Vec3, bool) {
	return mgl64.Vec3(a), finite(a[0], a[1], a[2])
}

func joints(in [][3]float64) []mgl64.Vec3 {
	out := make([]mgl64.Vec3, 0, len(in))
	for _, j := range in {
		if v, ok := vec(j); ok {
			out = append(out, v)
		}
	}
	return out
}

func (h headMessage) quat() (mgl64.Quat, bool) {
	r := h.Rotation
	if !finite(r[:]...) {
		return mgl64.Quat{}, false
	}
	q := mgl64.Quat{W: r[3], V: mgl64.Vec3{r[0], r[1], r[2]}}
	if q.Len() < 1e-9 {
		return mgl64.Quat{}, false
	}
	return q.Normalize(), true
}
