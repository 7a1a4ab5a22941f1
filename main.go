/*
Bricklayer opens an LDraw model against a part library, synthesizes its
flexible parts and reports what a renderer would be handed.

	bricklayer [-config file] [-library dir] [-watch] model.ldr
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spaghettifunk/bricklayer/engine/core"
	"github.com/spaghettifunk/bricklayer/engine/editor"
)

// flags
var (
	flagConfig  string
	flagLibrary string
	flagWatch   bool
)

func init() {
	flag.StringVar(&flagConfig, "config", "", "configuration file (default ./"+core.DefaultConfigFile+" when present)")
	flag.StringVar(&flagLibrary, "library", "", "LDraw folder, overrides library.path")
	flag.BoolVar(&flagWatch, "watch", false, "keep running and rebuild when the part library changes")
}

func loadConfig() (*core.Config, error) {
	path := flagConfig
	if path == "" {
		if _, err := os.Stat(core.DefaultConfigFile); err != nil {
			return core.DefaultConfig(), nil
		}
		path = core.DefaultConfigFile
	}
	return core.LoadConfig(path)
}

func report(ed *editor.Editor) {
	vertices := ed.Rebuild()
	box := ed.FrameBox()

	groups := ed.SynthesizedGroups()
	failed := 0
	for _, g := range groups {
		if g.SynthesisError() != nil {
			failed++
		}
	}

	core.LogInfo("%s: %d vertices", ed.Document().Name(), len(vertices))
	if box.IsEmpty() {
		core.LogInfo("nothing visible")
	} else {
		core.LogInfo("bounds [%.2f, %.2f, %.2f] to [%.2f, %.2f, %.2f]",
			box.Min.X, box.Min.Y, box.Min.Z, box.Max.X, box.Max.Y, box.Max.Z)
	}
	core.LogInfo("%d synthesized groups, %d failed", len(groups), failed)
	core.LogInfo("%d diagnostics", len(ed.Diagnostics()))

	rebuilds, last, avg := core.MetricsRebuild()
	core.LogDebug("rebuild #%d took %.2fms (avg %.2fms)", rebuilds, last, avg)
}

func main() {
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "usage: %s [flags] model.ldr\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()
	if flag.NArg() != 1 {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := loadConfig()
	if err != nil {
		core.LogFatal("%s", err)
	}
	if flagLibrary != "" {
		cfg.Library.Path = flagLibrary
	}
	if flagWatch {
		cfg.Library.Watch = true
	}

	ed, err := editor.New(cfg)
	if err != nil {
		core.LogFatal("%s", err)
	}
	if err := ed.Initialize(); err != nil {
		core.LogFatal("%s", err)
	}
	if err := ed.Open(flag.Arg(0)); err != nil {
		core.LogFatal("%s", err)
	}
	report(ed)

	if !cfg.Library.Watch {
		_ = ed.Shutdown()
		return
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// signal channel to capture system calls
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT, syscall.SIGQUIT)

	// stop watching on sigterm and other system calls
	go func() {
		<-sigCh
		cancel()
	}()

	core.LogInfo("watching %s for changes", cfg.Library.Path)
	if err := ed.Run(ctx); err != nil {
		core.LogError("%s", err)
	}
	if err := ed.Shutdown(); err != nil {
		core.LogError("%s", err)
	}
}
