// Command oxy-voxel opens a window and renders a scene file. OBJ scenes are voxelized every
// frame and drawn by ray marching the voxel grid; E57 scans are drawn as point clouds.
//
// Usage:
//
//	oxy-voxel -i scene.obj [-config oxy-voxel.toml]
package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/Carmen-Shannon/oxy-voxel/common"
	"github.com/Carmen-Shannon/oxy-voxel/engine"
	"github.com/Carmen-Shannon/oxy-voxel/engine/camera"
	"github.com/Carmen-Shannon/oxy-voxel/engine/config"
	"github.com/Carmen-Shannon/oxy-voxel/engine/dvs"
	"github.com/Carmen-Shannon/oxy-voxel/engine/pointcloud"
	"github.com/Carmen-Shannon/oxy-voxel/engine/renderer"
	"github.com/Carmen-Shannon/oxy-voxel/engine/window"
)

// Exit codes.
const (
	exitOK      = 0
	exitFailure = 1
	exitUsage   = 2
)

var errMissingInput = errors.New("missing required flag -i")

// options holds the parsed command line.
type options struct {
	input      string
	configPath string
}

func parseFlags(args []string, stderr io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("oxy-voxel", flag.ContinueOnError)
	fs.SetOutput(stderr)
	fs.StringVar(&opts.input, "i", "", "scene to render (.obj, or .e57 for a point cloud)")
	fs.StringVar(&opts.configPath, "config", "", "TOML configuration file")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}
	if opts.input == "" {
		fs.Usage()
		return opts, errMissingInput
	}
	return opts, nil
}

// newRenderDevice picks the render device for an input file by its extension.
func newRenderDevice(input string, cfg config.Config) engine.RenderDevice {
	controller := camera.NewCameraController(
		camera.WithSpeed(cfg.Camera.Speed),
		camera.WithSensitivity(cfg.Camera.Sensitivity),
	)
	if strings.EqualFold(filepath.Ext(input), ".e57") {
		return pointcloud.NewPointCloudRenderer(input,
			pointcloud.WithDecodeWorkers(cfg.Render.LoadWorkers),
			pointcloud.WithLens(cfg.Camera.FovDeg, cfg.Camera.Near, cfg.Camera.Far),
			pointcloud.WithCameraController(controller),
		)
	}
	return dvs.NewDeferredVoxelShading(input,
		dvs.WithGridResolution(cfg.Voxel.Resolution),
		dvs.WithGridPadding(cfg.Voxel.Padding),
		dvs.WithLoadWorkers(cfg.Render.LoadWorkers),
		dvs.WithLens(cfg.Camera.FovDeg, cfg.Camera.Near, cfg.Camera.Far),
		dvs.WithCameraController(controller),
	)
}

func engineOptions(cfg config.Config) []engine.EngineBuilderOption {
	presentMode := renderer.PresentModeUncapped
	if cfg.Render.VSync {
		presentMode = renderer.PresentModeVSync
	}
	return []engine.EngineBuilderOption{
		engine.WithWindowOptions(
			window.WithTitle(cfg.Window.Title),
			window.WithSize(cfg.Window.Width, cfg.Window.Height),
		),
		engine.WithDeviceOptions(renderer.WithForceFallbackAdapter(cfg.Render.ForceFallbackAdapter)),
		engine.WithPresentMode(presentMode),
		engine.WithProfiling(cfg.Render.Profile),
	}
}

func run(args []string, stderr io.Writer) int {
	opts, err := parseFlags(args, stderr)
	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return exitOK
		}
		fmt.Fprintf(stderr, "oxy-voxel: %v\n", err)
		return exitUsage
	}

	cfg, err := config.Load(opts.configPath)
	if err != nil {
		fmt.Fprintf(stderr, "oxy-voxel: %v\n", err)
		return exitFailure
	}

	level, _ := common.ParseLogLevel(cfg.Log.Level)
	common.SetLogger(slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level})))

	device := newRenderDevice(opts.input, cfg)
	common.Logger().Info("starting", "input", opts.input, "device", device.Name())

	if err := engine.NewEngine(device, engineOptions(cfg)...).Run(); err != nil {
		common.Logger().Error("renderer failed", "error", err)
		return exitFailure
	}
	return exitOK
}

func main() {
	os.Exit(run(os.Args[1:], os.Stderr))
}
