package main

import (
	"flag"
	"log"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/milk9111/fairyflight/sim"
	"go.uber.org/zap"
)

func main() {
	specPath := flag.String("spec", "fairy.yaml", "fairy tuning document")
	roomPath := flag.String("room", "room.yaml", "room document")
	rigPath := flag.String("rig", "rig.yaml", "rig document")
	addr := flag.String("addr", "", "serve the bridge on this address while viewing (empty disables)")
	seed := flag.Uint64("seed", uint64(time.Now().UnixNano()), "random seed")
	watch := flag.Bool("watch", false, "reload the tuning document when it changes")
	scripted := flag.Bool("scripted", false, "fly the built-in Lissajous curve")
	debug := flag.Bool("debug", false, "enable debug logging and overlay")
	baseMonitor := flag.Bool("m", false, "use base monitor instead of primary (for multi-monitor setups)")
	flag.Parse()

	var (
		logger *zap.Logger
		err    error
	)
	if *debug {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	s, r, err := sim.Open(sim.Config{
		Spec:     *specPath,
		Room:     *roomPath,
		Rig:      *rigPath,
		Seed:     *seed,
		Scripted: *scripted,
	}, logger)
	if err != nil {
		logger.Fatal("open simulation", zap.Error(err))
	}

	if *baseMonitor {
		ebiten.SetMonitor(ebiten.AppendMonitors(nil)[0])
	}

	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
	ebiten.SetWindowSize(baseWidth, baseHeight)
	ebiten.SetWindowTitle("fairyflight")

	game, err := NewGame(s, r, GameOptions{
		Addr:     *addr,
		SpecPath: *specPath,
		Watch:    *watch,
		Debug:    *debug,
		Logger:   logger,
	})
	if err != nil {
		logger.Fatal("start viewer", zap.Error(err))
	}
	defer game.Close()

	if err := ebiten.RunGame(game); err != nil {
		logger.Fatal("run viewer", zap.Error(err))
	}
}
