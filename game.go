package main

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/milk9111/fairyflight/bridge"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/pose"
	"github.com/milk9111/fairyflight/prefabs"
	"github.com/milk9111/fairyflight/room"
	"github.com/milk9111/fairyflight/sim"
	"go.uber.org/zap"
	"golang.design/x/clipboard"
	"gopkg.in/yaml.v3"
)

const (
	baseWidth  = 1280
	baseHeight = 720

	// Height of the simulated viewer's eyes above the floor.
	eyeHeight = 1.6
	// Horizontal speed of a space bar launch, away from the viewer.
	launchSpeed = 1.5
)

type GameOptions struct {
	Addr     string
	SpecPath string
	Watch    bool
	Debug    bool
	Logger   *zap.Logger
}

type Game struct {
	frames int

	sim    *sim.Simulation
	room   *room.Room
	view   view
	log    *zap.Logger
	debug  bool
	server *bridge.Server

	watcher *prefabs.Watcher
	cancel  context.CancelFunc

	keepOut    *ecs.KeepOut
	hand       bool
	clipboard  bool
	status     string
	statusTime time.Time
}

func NewGame(s *sim.Simulation, r *room.Room, opts GameOptions) (*Game, error) {
	log := opts.Logger
	if log == nil {
		log = zap.NewNop()
	}

	g := &Game{
		sim:     s,
		room:    r,
		view:    newView(r, baseWidth, baseHeight),
		log:     log,
		debug:   opts.Debug,
		keepOut: r.KeepOut(),
	}

	if err := clipboard.Init(); err != nil {
		log.Warn("clipboard unavailable", zap.Error(err))
	} else {
		g.clipboard = true
	}

	ctx, cancel := context.WithCancel(context.Background())
	g.cancel = cancel

	if opts.Watch {
		dir := filepath.Dir(opts.SpecPath)
		if dir == "." {
			dir = "prefabs"
		}
		w, err := prefabs.NewWatcher(dir)
		if err != nil {
			cancel()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		g.watcher = w
		go s.Follow(ctx, w, opts.SpecPath)
	}

	if opts.Addr != "" {
		g.server = bridge.NewServer(opts.Addr, s, log)
		g.server.Start()
	} else {
		// Without a host, the viewer stands at the room's near wall.
		s.Poses().SetHead(pose.Head{
			Position: g.viewerPosition(),
			Rotation: mgl64.QuatIdent(),
		})
	}

	return g, nil
}

func (g *Game) viewerPosition() mgl64.Vec3 {
	_, maxZ := g.view.zRange()
	return mgl64.Vec3{0, g.room.Floor() + eyeHeight, maxZ - 0.5}
}

func (g *Game) Close() {
	g.cancel()
	if g.watcher != nil {
		_ = g.watcher.Close()
	}
	if g.server != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := g.server.Stop(ctx); err != nil {
			g.log.Warn("bridge shutdown", zap.Error(err))
		}
	}
}

func (g *Game) Update() error {
	g.frames++

	g.handleInput()

	g.sim.Step(1 / float64(ebiten.TPS()))

	events := g.sim.DrainEvents()
	if g.server != nil {
		for _, evt := range events {
			g.server.PublishEvent(evt)
		}
		g.server.Publish(g.sim.Snapshot())
	}
	for _, evt := range events {
		if evt.Type == ecs.EventHeldChanged {
			if held, ok := evt.Data.(ecs.HeldChanged); ok {
				g.setStatus(fmt.Sprintf("held: %v (%.2f m)", held.Held, held.MinDistance))
			}
		}
	}

	return nil
}

func (g *Game) handleInput() {
	snap := g.sim.Snapshot()

	if inpututil.IsKeyJustPressed(ebiten.KeySpace) {
		pos := mgl64.Vec3(snap.Position)
		dir := pos.Sub(g.viewerPosition())
		dir[1] = 0
		if dir.Len() > 0 {
			dir = dir.Normalize()
		}
		g.sim.Activate(pos, dir.Mul(launchSpeed))
		g.setStatus("activated")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		g.sim.Deactivate()
		g.setStatus("deactivated")
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyK) {
		if g.sim.KeepOut() != nil {
			g.sim.SetKeepOut(nil)
			g.setStatus("keep-out cleared")
		} else if g.keepOut != nil {
			g.sim.SetKeepOut(g.keepOut)
			g.setStatus("keep-out restored")
		}
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		g.copySnapshot(snap)
	}

	// The mouse stands in for a tracked hand at the character's height.
	if ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft) {
		cx, cy := ebiten.CursorPosition()
		x, z := g.view.toWorld(float64(cx), float64(cy))
		palm := mgl64.Vec3{x, snap.Position[1], z}
		g.sim.Poses().SetHand(pose.Right, handJoints(palm))
		g.hand = true
	} else if g.hand {
		g.sim.Poses().SetHand(pose.Right, nil)
		g.hand = false
	}
}

// handJoints fans a few joints around a palm position.
func handJoints(palm mgl64.Vec3) []mgl64.Vec3 {
	offsets := []mgl64.Vec3{
		{0, 0, 0},
		{-0.03, 0, -0.08},
		{-0.01, 0, -0.09},
		{0.01, 0, -0.09},
		{0.03, 0, -0.08},
		{0.05, 0, -0.03},
	}
	joints := make([]mgl64.Vec3, len(offsets))
	for i, o := range offsets {
		joints[i] = palm.Add(o)
	}
	return joints
}

func (g *Game) copySnapshot(snap sim.Snapshot) {
	if !g.clipboard {
		g.setStatus("clipboard unavailable")
		return
	}
	data, err := yaml.Marshal(snap)
	if err != nil {
		g.log.Warn("marshal snapshot", zap.Error(err))
		return
	}
	clipboard.Write(clipboard.FmtText, data)
	g.setStatus(fmt.Sprintf("copied frame %d", snap.Frame))
}

func (g *Game) setStatus(msg string) {
	g.status = msg
	g.statusTime = time.Now()
}

func (g *Game) Draw(screen *ebiten.Image) {
	snap := g.sim.Snapshot()

	screen.Fill(backgroundColor)
	g.view.drawRoom(screen, g.room)
	g.view.drawKeepOut(screen, g.sim.KeepOut())
	g.view.drawPose(screen, g.sim.Poses().Snapshot(), g.sim.Spec().Flight.Sampling.ExclusionRadius)
	g.view.drawDecorations(screen, g.sim.Decorations())
	g.view.drawFairy(screen, snap, g.debug)

	hud := fmt.Sprintf("FPS: %.2f  frame: %d  active: %v  mode: %s  held: %v  decorations: %d/%d",
		ebiten.ActualFPS(), snap.Frame, snap.Active, snap.Mode, snap.Held,
		snap.Decorations, snap.Decorations+snap.FreeDecos)
	hud += "\n[space] launch  [d] deactivate  [k] keep-out  [c] copy state  [mouse] hand"
	if g.status != "" && time.Since(g.statusTime) < 3*time.Second {
		hud += "\n" + g.status
	}
	if g.server != nil {
		hud += fmt.Sprintf("\nbridge subscribers: %d", g.server.Subscribers())
	}
	ebitenutil.DebugPrint(screen, hud)
}

func (g *Game) LayoutF(outsideWidth, outsideHeight float64) (float64, float64) {
	return baseWidth, baseHeight
}

func (g *Game) Layout(outsideWidth, outsideHeight int) (int, int) {
	panic("shouldn't use Layout")
}
