package system

import (
	"fmt"
	"sync"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
	"github.com/go-gl/mathgl/mgl64"
	"github.com/milk9111/fairyflight/common"
)

// scriptCurveDelta is the half step of the central difference used for
// velocity.
const scriptCurveDelta = 1e-3

// ScriptCurve evaluates a tengo script that reads `t` and assigns the globals
// `x`, `y` and `z`. The math module is importable.
type ScriptCurve struct {
	mu       sync.Mutex
	compiled *tengo.Compiled
	name     string
}

func NewScriptCurve(name string, src []byte) (*ScriptCurve, error) {
	script := tengo.NewScript(src)
	_ = script.Add("t", 0.0)
	_ = script.Add("x", 0.0)
	_ = script.Add("y", 0.0)
	_ = script.Add("z", 0.0)
	script.SetImports(stdlib.GetModuleMap("math"))

	compiled, err := script.Compile()
	if err != nil {
		return nil, fmt.Errorf("curve script %s: %w", name, err)
	}
	c := &ScriptCurve{compiled: compiled, name: name}
	if _, err := c.eval(0); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *ScriptCurve) Name() string {
	return c.name
}

// Sample returns ok=false when the script fails or yields non-finite values.
func (c *ScriptCurve) Sample(t float64) (mgl64.Vec3, mgl64.Vec3, bool) {
	if c == nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	pos, err := c.eval(t)
	if err != nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	ahead, err := c.eval(t + scriptCurveDelta)
	if err != nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	behind, err := c.eval(t - scriptCurveDelta)
	if err != nil {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	vel := ahead.Sub(behind).Mul(1 / (2 * scriptCurveDelta))
	if !common.FiniteVec(pos) || !common.FiniteVec(vel) {
		return mgl64.Vec3{}, mgl64.Vec3{}, false
	}
	return pos, vel, true
}

func (c *ScriptCurve) eval(t float64) (mgl64.Vec3, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.compiled.Set("t", t); err != nil {
		return mgl64.Vec3{}, err
	}
	if err := c.compiled.Run(); err != nil {
		return mgl64.Vec3{}, fmt.Errorf("curve script %s: %w", c.name, err)
	}
	return mgl64.Vec3{
		c.compiled.Get("x").Float(),
		c.compiled.Get("y").Float(),
		c.compiled.Get("z").Float(),
	}, nil
}
