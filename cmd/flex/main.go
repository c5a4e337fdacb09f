package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"log/slog"
	"os"

	"flex-engine/internal/commands"
	"flex-engine/internal/debug"
	"flex-engine/internal/device"
	"flex-engine/internal/engineconfig"
	"flex-engine/internal/env"
	"flex-engine/internal/flex"
	"flex-engine/internal/graphics"
	"flex-engine/internal/instances"
	"flex-engine/internal/logger"
	"flex-engine/internal/physics"
	"flex-engine/internal/scene"
	"flex-engine/internal/stage"

	rl "github.com/gen2brain/raylib-go/raylib"
	"gopkg.in/yaml.v3"
)

func main() {
	reg := commands.NewRegistry()
	registerRun(reg)
	registerView(reg)
	registerParams(reg)
	registerInit(reg)

	if err := reg.Execute(os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, "flex:", err)
		fmt.Fprintln(os.Stderr, "usage: flex <command> [flags]")
		reg.Usage(os.Stderr)
		os.Exit(1)
	}
}

// common holds the flags every command shares.
type common struct {
	config  string
	verbose bool
}

func (c *common) bind(fs *flag.FlagSet) {
	fs.StringVar(&c.config, "config", engineconfig.DefaultPath, "scene config (.yaml, .toml or .json)")
	fs.BoolVar(&c.verbose, "v", false, "debug logging")
}

// setup loads the config, applies FLEX_* overrides from the environment and .env, and
// builds the logger. A missing config file is not fatal: the default scene is used.
func (c *common) setup() (engineconfig.Config, *slog.Logger, error) {
	cfg, err := engineconfig.Load(c.config)
	missing := errors.Is(err, fs.ErrNotExist)
	if err != nil && !missing {
		return cfg, nil, err
	}
	vars, err := env.Load(".env")
	if err != nil {
		return cfg, nil, err
	}
	if err := cfg.ApplyEnv(env.Lookup(vars)); err != nil {
		return cfg, nil, err
	}
	level := slog.LevelInfo
	if c.verbose {
		level = slog.LevelDebug
	}
	log := logger.New(cfg.LogPath).Slog(level, os.Stderr)
	if missing {
		log.Warn("config not found, using default scene", "path", c.config)
	}
	return cfg, log, nil
}

func load(cfg engineconfig.Config, log *slog.Logger, extra ...flex.Instance) (*stage.Flex, error) {
	sel, err := device.New(cfg.Device.Preference, cfg.Device.PowerPreference, cfg.Device.ForceFallback, log)
	if err != nil {
		return nil, err
	}
	return stage.Load(cfg, physics.Backend{Log: log}, sel, instances.NewRegistry(), log, extra...)
}

func registerRun(reg *commands.Registry) {
	fs := flag.NewFlagSet("run", flag.ExitOnError)
	var c common
	c.bind(fs)
	frames := fs.Int("frames", 0, "frames to simulate (0 uses the config)")
	reg.Register("run", "simulate headless and log a summary", fs, func() error {
		cfg, log, err := c.setup()
		if err != nil {
			return err
		}
		if *frames > 0 {
			cfg.Frames = *frames
		}
		f, err := load(cfg, log)
		if err != nil {
			return err
		}
		defer f.OnUnload()
		if err := graphics.RunHeadless(f, cfg.Frames); err != nil {
			return err
		}
		n, centroid := summarize(f.Controller())
		log.Info("run complete",
			"frames", f.Controller().Frame(),
			"particles", n,
			"centroid", fmt.Sprintf("(%.3f, %.3f, %.3f)", centroid.X, centroid.Y, centroid.Z))
		return nil
	})
}

func registerView(reg *commands.Registry) {
	fs := flag.NewFlagSet("view", flag.ExitOnError)
	var c common
	c.bind(fs)
	watch := fs.Bool("watch", true, "reload solver parameters when the config file changes")
	reg.Register("view", "open the viewer window", fs, func() error {
		cfg, log, err := c.setup()
		if err != nil {
			return err
		}
		colors, err := cfg.Viewer.Palette.Parse()
		if err != nil {
			return err
		}
		viewer := scene.NewViewer(colors, cfg.Params.Radius)
		viewer.GridVisible = cfg.Viewer.GridVisible
		f, err := load(cfg, log, viewer)
		if err != nil {
			return err
		}
		defer f.OnUnload()
		ctrl := f.Controller()

		if *watch {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				err := engineconfig.Watch(ctx, c.config, log, func(next engineconfig.Config) {
					f.QueueParams(next.Params)
				})
				if err != nil {
					log.Warn("config watch stopped", "err", err)
				}
			}()
		}

		dbg := debug.New()
		dbg.ShowFPS = cfg.Viewer.ShowFPS
		dbg.ShowMemAlloc = cfg.Viewer.ShowMemAlloc
		dbg.ShowStats = cfg.Viewer.ShowStats
		dbg.Stats = func() debug.Stats { return stats(ctrl) }

		var resetErr error
		update := func() {
			viewer.Update()
			viewer.Radius = ctrl.Params().Radius
			switch {
			case rl.IsKeyPressed(rl.KeyR):
				resetErr = f.OnPipelineCreated()
			case rl.IsKeyPressed(rl.KeyG):
				viewer.GridVisible = !viewer.GridVisible
			case rl.IsKeyPressed(rl.KeyF1):
				dbg.ShowStats = !dbg.ShowStats
			}
		}
		draw := func() {
			viewer.Draw()
			dbg.Draw()
		}
		win := graphics.Window{Title: "flex", Width: cfg.Viewer.Width, Height: cfg.Viewer.Height}
		err = graphics.Run(f, win, update, draw)
		viewer.Unload()
		return errors.Join(err, resetErr)
	})
}

func registerParams(reg *commands.Registry) {
	fs := flag.NewFlagSet("params", flag.ExitOnError)
	var c common
	c.bind(fs)
	reg.Register("params", "build the scene and print the derived solver parameters as YAML", fs, func() error {
		cfg, log, err := c.setup()
		if err != nil {
			return err
		}
		f, err := load(cfg, log)
		if err != nil {
			return err
		}
		defer f.OnUnload()
		if err := f.OnPipelineCreated(); err != nil {
			return err
		}
		enc := yaml.NewEncoder(os.Stdout)
		enc.SetIndent(2)
		if err := enc.Encode(f.Controller().Params()); err != nil {
			return err
		}
		return enc.Close()
	})
}

func registerInit(reg *commands.Registry) {
	fs := flag.NewFlagSet("init", flag.ExitOnError)
	path := fs.String("config", engineconfig.DefaultPath, "config file to write")
	force := fs.Bool("force", false, "overwrite an existing file")
	reg.Register("init", "write the default scene config", fs, func() error {
		if _, err := os.Stat(*path); err == nil && !*force {
			return fmt.Errorf("%s exists (use -force to overwrite)", *path)
		}
		if err := engineconfig.Save(*path, engineconfig.Default()); err != nil {
			return err
		}
		fmt.Println("wrote", *path)
		return nil
	})
}
