package main

import (
	"image/color"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/vector"
	"github.com/milk9111/fairyflight/ecs"
	"github.com/milk9111/fairyflight/pose"
	"github.com/milk9111/fairyflight/room"
	"github.com/milk9111/fairyflight/sim"
	"golang.org/x/image/colornames"
)

var backgroundColor = color.RGBA{R: 18, G: 18, B: 28, A: 255}

const viewMargin = 40

// view maps the room's floor plan (x right, z down) onto the screen.
type view struct {
	minX, minZ float64
	maxX, maxZ float64
	scale      float64
	offX, offY float64
}

func newView(r *room.Room, width, height float64) view {
	v := view{
		minX: math.Inf(1), minZ: math.Inf(1),
		maxX: math.Inf(-1), maxZ: math.Inf(-1),
	}
	for _, c := range r.Corners() {
		v.minX = math.Min(v.minX, c.X())
		v.maxX = math.Max(v.maxX, c.X())
		v.minZ = math.Min(v.minZ, c.Y())
		v.maxZ = math.Max(v.maxZ, c.Y())
	}
	if math.IsInf(v.minX, 1) {
		v.minX, v.maxX, v.minZ, v.maxZ = -1, 1, -1, 1
	}

	spanX := math.Max(v.maxX-v.minX, 0.1)
	spanZ := math.Max(v.maxZ-v.minZ, 0.1)
	v.scale = math.Min((width-2*viewMargin)/spanX, (height-2*viewMargin)/spanZ)
	v.offX = (width - spanX*v.scale) / 2
	v.offY = (height - spanZ*v.scale) / 2
	return v
}

func (v view) zRange() (float64, float64) { return v.minZ, v.maxZ }

func (v view) toScreen(x, z float64) (float32, float32) {
	return float32(v.offX + (x-v.minX)*v.scale), float32(v.offY + (z-v.minZ)*v.scale)
}

func (v view) toWorld(sx, sy float64) (float64, float64) {
	return (sx-v.offX)/v.scale + v.minX, (sy-v.offY)/v.scale + v.minZ
}

func (v view) line(screen *ebiten.Image, a, b mgl64.Vec3, width float32, clr color.Color) {
	x0, y0 := v.toScreen(a.X(), a.Z())
	x1, y1 := v.toScreen(b.X(), b.Z())
	vector.StrokeLine(screen, x0, y0, x1, y1, width, clr, true)
}

func (v view) rect(screen *ebiten.Image, lo, hi mgl64.Vec3, fill, stroke color.Color) {
	x0, y0 := v.toScreen(lo.X(), lo.Z())
	x1, y1 := v.toScreen(hi.X(), hi.Z())
	w, h := x1-x0, y1-y0
	if fill != nil {
		vector.FillRect(screen, x0, y0, w, h, fill, false)
	}
	vector.StrokeRect(screen, x0, y0, w, h, 1.5, stroke, false)
}

func (v view) drawRoom(screen *ebiten.Image, r *room.Room) {
	corners := r.Corners()
	for i := range corners {
		a := corners[i]
		b := corners[(i+1)%len(corners)]
		v.line(screen, mgl64.Vec3{a.X(), 0, a.Y()}, mgl64.Vec3{b.X(), 0, b.Y()}, 3, colornames.Lightgray)
	}

	for _, f := range r.Furniture() {
		// Taller furniture reads darker.
		shade := uint8(60 + 120*math.Min(f.Max.Y()/2, 1))
		v.rect(screen, f.Min, f.Max,
			color.RGBA{R: shade / 2, G: shade / 2, B: shade, A: 255},
			colornames.Slategray)
	}
}

func (v view) drawKeepOut(screen *ebiten.Image, k *ecs.KeepOut) {
	if k == nil {
		return
	}
	lo := k.Center.Sub(k.HalfExtents)
	hi := k.Center.Add(k.HalfExtents)
	v.rect(screen, lo, hi, color.NRGBA{R: 255, A: 40}, colornames.Red)
}

func (v view) drawPose(screen *ebiten.Image, snap pose.Snapshot, exclusion float64) {
	if head, ok := snap.HeadPose(); ok {
		x, y := v.toScreen(head.Position.X(), head.Position.Z())
		vector.StrokeCircle(screen, x, y, float32(exclusion*v.scale), 1, colornames.Dimgray, true)
		vector.DrawFilledCircle(screen, x, y, 6, colornames.White, true)
		if fwd, ok := head.Forward(); ok {
			v.line(screen, head.Position, head.Position.Add(fwd.Mul(0.4)), 2, colornames.White)
		}
	}
	for _, side := range []pose.Side{pose.Left, pose.Right} {
		for _, j := range snap.HandJointPositions(side) {
			x, y := v.toScreen(j.X(), j.Z())
			vector.DrawFilledCircle(screen, x, y, 3, colornames.Peachpuff, true)
		}
	}
}

func (v view) drawDecorations(screen *ebiten.Image, decos []sim.Decoration) {
	for _, d := range decos {
		x, y := v.toScreen(d.Position[0], d.Position[2])
		clr := color.NRGBA{
			R: channel(d.Color[0]),
			G: channel(d.Color[1]),
			B: channel(d.Color[2]),
			A: channel(d.Opacity),
		}
		r := float32(math.Max(d.Scale*v.scale*0.05, 1.5))
		vector.DrawFilledCircle(screen, x, y, r, clr, true)
	}
}

func (v view) drawFairy(screen *ebiten.Image, snap sim.Snapshot, debug bool) {
	pos := mgl64.Vec3(snap.Position)
	x, y := v.toScreen(pos.X(), pos.Z())

	body := colornames.Gold
	if snap.Held {
		body = colornames.Hotpink
	} else if !snap.Active {
		body = colornames.Darkgoldenrod
	}
	vector.DrawFilledCircle(screen, x, y, 8, body, true)

	rot := mgl64.Quat{W: snap.Rotation[3], V: mgl64.Vec3{snap.Rotation[0], snap.Rotation[1], snap.Rotation[2]}}
	if rot.Len() > 0 {
		facing := rot.Normalize().Rotate(mgl64.Vec3{0, 0, 1})
		v.line(screen, pos, pos.Add(facing.Mul(0.15)), 2, colornames.Black)
	}

	if !snap.Active {
		return
	}
	vel := mgl64.Vec3(snap.Velocity)
	v.line(screen, pos, pos.Add(vel.Mul(0.5)), 1.5, colornames.Lime)

	if debug {
		target := mgl64.Vec3(snap.Target)
		tx, ty := v.toScreen(target.X(), target.Z())
		vector.StrokeLine(screen, x, y, tx, ty, 1, colornames.Darkcyan, true)
		vector.StrokeCircle(screen, tx, ty, 5, 1, colornames.Cyan, true)
	}
}

func channel(f float64) uint8 {
	return uint8(math.Round(mgl64.Clamp(f, 0, 1) * 255))
}
