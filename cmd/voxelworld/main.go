package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/OCharnyshevich/voxelworld/internal/config"
	"github.com/OCharnyshevich/voxelworld/internal/world/gen"
)

func main() {
	cfg := config.DefaultConfig()

	var (
		configPath = flag.String("config", "voxelworld.json", "config file path")
		fetchSrc   = flag.String("fetch-config", "", "download the config file from this go-getter source first")
		objPath    = flag.String("obj", "", "write resident chunk meshes to this OBJ file (.gz to compress)")
	)
	flag.IntVar(&cfg.LoadRadius, "radius", cfg.LoadRadius, "load radius in chunks")
	flag.IntVar(&cfg.Steps, "steps", cfg.Steps, "number of one-chunk steps to walk")
	flag.Float64Var(&cfg.StepsPerSecond, "steps-per-second", cfg.StepsPerSecond, "walk pace (0 = as fast as possible)")
	flag.IntVar(&cfg.Workers, "workers", cfg.Workers, "chunk worker count (0 = one per CPU)")
	flag.Int64Var(&cfg.Seed, "seed", cfg.Seed, "world seed")
	flag.StringVar(&cfg.GeneratorType, "generator", cfg.GeneratorType, "terrain generator: noise, caves or flat")
	flag.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug, info, warn or error")
	flag.Parse()

	explicit := make(map[string]bool)
	flag.Visit(func(f *flag.Flag) { explicit[f.Name] = true })

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	bootLog := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}))

	if *fetchSrc != "" {
		if err := config.Fetch(ctx, *fetchSrc, *configPath); err != nil {
			bootLog.Error("fetch config", "error", err)
			os.Exit(1)
		}
		bootLog.Info("fetched config", "src", *fetchSrc, "path", *configPath)
	}

	fromFile := config.DefaultConfig()
	if err := config.Load(*configPath, fromFile); err != nil {
		bootLog.Error("load config", "error", err)
		os.Exit(1)
	}
	config.Merge(cfg, fromFile, explicit)

	if err := cfg.Validate(); err != nil {
		bootLog.Error("config", "error", err)
		os.Exit(1)
	}
	level, _ := cfg.Level()
	log := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: level}))

	if err := run(ctx, cfg, log, *objPath); err != nil {
		log.Error("voxelworld", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger, objPath string) error {
	s, err := newStreamer(cfg, log, gen.New(cfg.GeneratorType, cfg.Seed, cfg.SeaLevel))
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.walk(ctx); err != nil {
		return err
	}
	if objPath == "" {
		return nil
	}
	if err := s.exportOBJFile(objPath); err != nil {
		return err
	}
	log.Info("exported meshes", "path", objPath)
	return nil
}
