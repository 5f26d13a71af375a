// Command fairysim runs the character simulation headless at a fixed rate
// and exposes it to a host over the bridge.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/milk9111/fairyflight/bridge"
	"github.com/milk9111/fairyflight/prefabs"
	"github.com/milk9111/fairyflight/sim"
	"go.uber.org/zap"
)

func main() {
	specPath := flag.String("spec", "fairy.yaml", "fairy tuning document (prefabs/ or embedded fallback)")
	roomPath := flag.String("room", "room.yaml", "room document")
	rigPath := flag.String("rig", "rig.yaml", "rig document")
	addr := flag.String("addr", ":8080", "bridge listen address")
	hz := flag.Float64("hz", 60, "simulation rate in frames per second")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	watch := flag.Bool("watch", false, "reload the tuning document when it changes")
	schema := flag.Bool("schema", false, "print the tuning JSON schema and exit")
	debug := flag.Bool("debug", false, "enable debug logging")
	scripted := flag.Bool("scripted", false, "fly the built-in Lissajous curve instead of autonomous flight")
	flag.Parse()

	if *schema {
		data, err := prefabs.SchemaJSON(prefabs.FairySpec{})
		if err != nil {
			log.Fatal(err)
		}
		fmt.Println(string(data))
		return
	}

	logger, err := newLogger(*debug)
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	if err := run(logger, *specPath, *roomPath, *rigPath, *addr, *hz, *seed, *watch, *scripted); err != nil {
		logger.Fatal("fairysim failed", zap.Error(err))
	}
}

// watchDirs lists the directories holding the tuning document and curve
// scripts that exist on disk.
func watchDirs(specPath string) []string {
	candidates := []string{filepath.Join("prefabs", "scripts")}
	if dir := filepath.Dir(specPath); dir != "." {
		candidates = append(candidates, dir)
	} else {
		candidates = append(candidates, "prefabs")
	}

	var dirs []string
	for _, dir := range candidates {
		if info, err := os.Stat(dir); err == nil && info.IsDir() {
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

func newLogger(debug bool) (*zap.Logger, error) {
	if debug {
		return zap.NewDevelopment()
	}
	return zap.NewProduction()
}

func run(logger *zap.Logger, specPath, roomPath, rigPath, addr string, hz float64, seed uint64, watch, scripted bool) error {
	if hz <= 0 {
		return fmt.Errorf("hz must be positive, got %v", hz)
	}

	s, _, err := sim.Open(sim.Config{
		Spec:     specPath,
		Room:     roomPath,
		Rig:      rigPath,
		Seed:     seed,
		Scripted: scripted,
	}, logger)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if watch {
		dirs := watchDirs(specPath)
		if len(dirs) == 0 {
			return fmt.Errorf("watch %s: no prefab directories on disk", specPath)
		}
		watcher, err := prefabs.NewWatcher(dirs...)
		if err != nil {
			return fmt.Errorf("watch %v: %w", dirs, err)
		}
		defer watcher.Close()
		go s.Follow(ctx, watcher, specPath)
	}

	server := bridge.NewServer(addr, s, logger)
	server.Start()
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Stop(shutdownCtx); err != nil {
			logger.Warn("bridge shutdown", zap.Error(err))
		}
	}()

	period := time.Duration(float64(time.Second) / hz)
	ticker := time.NewTicker(period)
	defer ticker.Stop()

	last := time.Now()
	for {
		select {
		case <-ctx.Done():
			logger.Info("fairysim stopping")
			return nil
		case now := <-ticker.C:
			dt := now.Sub(last).Seconds()
			last = now
			s.Step(dt)
			for _, evt := range s.DrainEvents() {
				server.PublishEvent(evt)
			}
			server.Publish(s.Snapshot())
		}
	}
}
