package sim

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/milk9111/fairyflight/prefabs"
	"go.uber.org/zap"
)

// Follow applies edits to specPath, and to curve scripts, reported by
// watcher until ctx is done or the watcher closes. A document that fails to
// load or validate is logged and the running tuning is kept.
func (s *Simulation) Follow(ctx context.Context, watcher *prefabs.Watcher, specPath string) {
	var lastMod time.Time
	if t, ok := prefabs.ModTime(specPath); ok {
		lastMod = t
	}

	for {
		select {
		case <-ctx.Done():
			return
		case name, ok := <-watcher.Events:
			if !ok {
				return
			}
			script := strings.EqualFold(filepath.Ext(name), ".tengo")
			if !script && filepath.Base(name) != filepath.Base(specPath) {
				continue
			}
			if !script {
				if t, ok := prefabs.ModTime(specPath); ok {
					if !t.After(lastMod) {
						continue
					}
					lastMod = t
				}
			}
			s.reload(specPath, script)
		case err, ok := <-watcher.Errors:
			if !ok {
				return
			}
			s.log.Warn("spec watcher error", zap.Error(err))
		}
	}
}

func (s *Simulation) reload(specPath string, script bool) {
	spec, err := prefabs.LoadFairySpec(specPath)
	if err != nil {
		s.log.Warn("spec reload rejected", zap.String("path", specPath), zap.Error(err))
		return
	}
	if s.scripted {
		spec = scriptedSpec(spec)
	}
	reloadCurve := script && spec.Curve.Mode == prefabs.CurveScript
	if err := s.applySpec(spec, reloadCurve); err != nil {
		s.log.Warn("spec reload rejected", zap.String("path", specPath), zap.Error(err))
	}
}
