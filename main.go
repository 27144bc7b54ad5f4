package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os"
	"os/signal"

	"github.com/hajimehoshi/ebiten/v2"

	"github.com/olivierh59500/particle-sandbox-go/internal/sandbox"
	"github.com/olivierh59500/particle-sandbox-go/internal/stream"
)

func main() {
	width := flag.Int("width", 800, "world width in pixels")
	height := flag.Int("height", 600, "world height in pixels")
	particles := flag.Int("particles", 200, "particles spawned at start")
	tps := flag.Int("tps", 0, "simulation ticks per second, 0 keeps the preset rate")
	seed := flag.Int64("seed", 0, "random seed, 0 picks one from the clock")
	config := flag.String("config", "", "JSON settings preset")
	mode := flag.String("mode", "window", "frontend: window, terminal or serve")
	addr := flag.String("addr", ":8080", "listen address for -mode serve")
	every := flag.Int("broadcast-every", 2, "ticks between snapshots sent to stream clients")
	flag.Parse()

	logger := log.New(os.Stderr, "sandbox: ", log.LstdFlags)

	settings, err := loadSettings(*config, *tps)
	if err != nil {
		log.Fatal(err)
	}

	world, err := sandbox.NewWorld(settings, sandbox.Options{
		Width:  float64(*width),
		Height: float64(*height),
		Seed:   *seed,
		Logger: logger,
	})
	if err != nil {
		log.Fatal(err)
	}

	// Initial population cycles through every particle kind
	kinds := sandbox.ParticleKinds()
	for i := 0; i < *particles; i++ {
		world.Submit(sandbox.SpawnParticle{Kind: kinds[i%len(kinds)]})
	}

	switch *mode {
	case "window":
		ebiten.SetWindowSize(*width, *height)
		ebiten.SetWindowTitle("Particle Sandbox")
		ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)
		ebiten.SetTPS(settings.Const.TickRate)
		if err := ebiten.RunGame(NewGame(world)); err != nil {
			log.Fatal(err)
		}
	case "terminal":
		if err := runTerminal(world, settings.Const.TickRate); err != nil {
			log.Fatal(err)
		}
	case "serve":
		if err := serve(world, settings.Const.TickRate, *every, *addr, logger); err != nil {
			log.Fatal(err)
		}
	default:
		log.Fatalf("unknown mode %q", *mode)
	}
}

// loadSettings reads the optional preset. A positive tps overrides its tick rate.
func loadSettings(config string, tps int) (sandbox.Settings, error) {
	settings := sandbox.DefaultSettings()
	if config != "" {
		var err error
		if settings, err = sandbox.LoadSettings(config); err != nil {
			return settings, err
		}
	}
	if tps > 0 {
		settings.Const.TickRate = tps
	}
	return settings, nil
}

// serve runs the simulation headless and streams it to websocket clients
func serve(world *sandbox.World, tps, every int, addr string, logger *log.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	runner := sandbox.NewRunner(world, tps)
	srv := stream.NewServer(runner, every, logger)
	go runner.Run(ctx)
	go srv.Run(ctx)

	httpServer := &http.Server{Addr: addr, Handler: srv.Handler()}
	go func() {
		<-ctx.Done()
		httpServer.Shutdown(context.Background())
	}()

	logger.Printf("serving on %s", addr)
	if err := httpServer.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}
