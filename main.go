// Package main provides the entry point for the GlyphOCR drawing demo.
package main

import (
	"flag"
	"fmt"
	"os"
	"time"

	"glyphocr/internal/app"
	"glyphocr/internal/config"
	"glyphocr/internal/samples"
	"glyphocr/internal/version"
	"glyphocr/ui/mainwindow"
	"glyphocr/ui/prefs"

	fyneapp "fyne.io/fyne/v2/app"
	log "github.com/sirupsen/logrus"
)

const appID = "io.github.glyphocr"

func main() {
	configPath := flag.String("config", os.Getenv("GLYPHOCR_CONFIG"), "config file (yaml, json or toml)")
	samplesPath := flag.String("samples", "", "sample set to load (default from config or preferences)")
	showVersion := flag.Bool("version", false, "print version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}
	log.SetLevel(cfg.Level())
	log.Infof("Starting GlyphOCR %s", version.String())

	appPrefs := prefs.Load()
	cfg.SamplesPath = resolveSamplesPath(*samplesPath, cfg.SamplesPath, appPrefs.String(prefs.KeySamplesPath))

	state, err := app.NewState(cfg, log.StandardLogger())
	if err != nil {
		log.Fatalf("Failed to create state: %v", err)
	}
	if _, err := os.Stat(cfg.SamplesPath); err == nil {
		if err := state.LoadSamples(cfg.SamplesPath); err != nil {
			log.WithError(err).Warn("Failed to load samples")
		} else if _, err := state.Train(); err != nil {
			log.WithError(err).Warn("Initial training failed")
		}
	}

	fyneApp := fyneapp.NewWithID(appID)
	fyneApp.Settings().SetTheme(&app.GlyphTheme{})

	win := mainwindow.New(fyneApp, state, appPrefs)

	watcher := watchSamples(state)
	defer watcher.Stop()

	win.SetOnClosed(func() {
		if err := win.SavePreferences(); err != nil {
			log.WithError(err).Warn("Failed to save preferences")
		}
	})
	win.ShowAndRun()
}

// resolveSamplesPath picks the flag, then the config, then the last file
// opened in the window, then the default location.
func resolveSamplesPath(candidates ...string) string {
	for _, c := range candidates {
		if c != "" {
			return c
		}
	}
	path, err := samples.DefaultPath()
	if err != nil {
		log.WithError(err).Warn("No default samples path")
		return "samples.json"
	}
	return path
}

// watchSamples reloads the sample set when another tool, such as
// sampletrain, rewrites it.
func watchSamples(state *app.State) *app.FileWatcher {
	watcher := app.NewFileWatcher(state.Samples().FilePath, 2*time.Second)
	log.Infof("Watching %s for sample updates", watcher.Path())

	state.On(app.EventSamplesSaved, func(interface{}) {
		watcher.ResetBaseline()
	})
	watcher.OnChange(func() {
		if state.Modified() {
			log.Warn("Sample file changed on disk; keeping unsaved samples")
			return
		}
		if err := state.LoadSamples(watcher.Path()); err != nil {
			log.WithError(err).Warn("Failed to reload samples")
		}
	})
	watcher.Start()
	return watcher
}
