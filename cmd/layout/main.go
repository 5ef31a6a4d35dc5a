// Command layout runs one layout pass over an inventory file and prints the
// scene. With -width and -height the scene is converted to pixels.
package main

import (
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"

	"circuitmap/internal/codec"
	"circuitmap/internal/config"
	"circuitmap/internal/domain"
	"circuitmap/internal/geo"
	"circuitmap/internal/loader"
	"circuitmap/internal/logging"
	"circuitmap/internal/routing"
	"circuitmap/internal/topology"
	"circuitmap/internal/viewport"
)

func main() {
	configPath := flag.String("config", "", "Config file path (layout and routing sections are used)")
	inventory := flag.String("inventory", "", "Inventory file (YAML or JSON)")
	mode := flag.String("mode", "", "Layout mode: categorical or geographic (default from config)")
	format := flag.String("format", "json", "Output format: json or yaml")
	width := flag.Float64("width", 0, "Viewport width in pixels")
	height := flag.Float64("height", 0, "Viewport height in pixels")
	selected := flag.String("selected", "", "Node ID to mark as selected")
	verbose := flag.Bool("v", false, "Log layout details to stderr")
	flag.Parse()

	if *inventory == "" {
		fmt.Fprintln(os.Stderr, "usage: layout -inventory FILE [-mode MODE] [-format json|yaml] [-width W -height H]")
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log := logging.NewWithWriter(os.Stderr, level)

	if err := run(os.Stdout, log, options{
		configPath: *configPath,
		inventory:  *inventory,
		mode:       *mode,
		format:     *format,
		dims:       domain.Dimensions{Width: *width, Height: *height},
		selected:   *selected,
	}); err != nil {
		fmt.Fprintf(os.Stderr, "layout: %v\n", err)
		os.Exit(1)
	}
}

type options struct {
	configPath string
	inventory  string
	mode       string
	format     string
	dims       domain.Dimensions
	selected   string
}

func run(w io.Writer, log zerolog.Logger, opts options) error {
	cfg := config.DefaultConfig()
	if opts.configPath != "" {
		loaded, _, err := config.LoadFromPath(opts.configPath)
		if err != nil {
			return err
		}
		cfg = loaded
	}

	out, err := codec.ForFormat(opts.format)
	if err != nil {
		return err
	}

	inv, err := loader.LoadFile(opts.inventory)
	if err != nil {
		return err
	}

	router := routing.NewRouter(cfg.Routing, log)
	engineOpts := make([]topology.Option, 0, 2)
	for _, s := range cfg.Strategies() {
		engineOpts = append(engineOpts, topology.WithStrategy(s))
	}
	engine := topology.New(router, log, engineOpts...)

	mode := cfg.DefaultMode()
	if opts.mode != "" {
		mode = domain.Mode(opts.mode)
	}

	result, err := engine.Build(topology.Input{
		Mode:       mode,
		Sites:      inv.Sites,
		Facilities: inv.Facilities,
	})
	if err != nil {
		return err
	}

	if result.Assignment != nil {
		for _, id := range result.Assignment.Order {
			for _, site := range result.Assignment.Groups[id] {
				log.Debug().
					Str("site", site.ID).
					Str("facility", id).
					Str("distance", geo.FormatMiles(result.Assignment.DistanceMiles[site.ID])).
					Msg("nearest facility")
			}
		}
	}
	if n := result.Stats.DroppedTotal(); n > 0 {
		log.Warn().Int("dropped", n).Interface("reasons", result.Stats.Dropped).Msg("connections dropped")
	}

	emphasis := routing.Emphasis{Selected: opts.selected}

	scene := result.Scene
	if opts.dims.Positive() {
		state := viewport.New(router, cfg.ViewportOptions(), log)
		state.SetScene(result.Scene, result.Links)
		state.Resize(opts.dims)
		scene, err = state.PixelScene(emphasis)
	} else if opts.selected != "" {
		scene.Edges = router.Shape(result.Links, scene.Positions(), emphasis)
	}
	if err != nil {
		return err
	}

	return out.Export(scene, w)
}
