// cmd/refclone/main.go
//
// This is the entry point for the refclone TUI.
// When you run `refclone` from a project directory, this is what executes.
//
// Flow:
// 1. Create .refclone/ and load its config.yaml
// 2. Open the scene file and start watching it
// 3. Launch the TUI

package main

import (
	"flag"
	"fmt"
	"os"
	"path/filepath"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/kingrea/refclone/internal/config"
	"github.com/kingrea/refclone/internal/logbook"
	"github.com/kingrea/refclone/internal/logging"
	"github.com/kingrea/refclone/internal/scene"
	"github.com/kingrea/refclone/internal/tui"
)

func main() {
	projectDir := flag.String("project", "", "path to the project directory (defaults to cwd)")
	scenePath := flag.String("scene", "", "scene file to edit (overrides config.yaml)")
	logLevel := flag.String("log-level", "info", "trace log level: debug, info, warn, error")
	noWatch := flag.Bool("no-watch", false, "do not reload when the scene file changes")
	flag.Parse()

	project := *projectDir
	if project == "" {
		var err error
		project, err = os.Getwd()
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error getting working directory: %v\n", err)
			os.Exit(1)
		}
	}
	project, err := filepath.Abs(project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error resolving project dir: %v\n", err)
		os.Exit(1)
	}

	if err := config.InitDir(project); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing %s directory: %v\n", config.Dir, err)
		os.Exit(1)
	}
	cfg, err := config.NewConfig(project)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if *scenePath != "" {
		cfg.SetScenePath(*scenePath)
	}

	sc, err := scene.Load(cfg.ScenePath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening scene: %v\n", err)
		os.Exit(1)
	}

	logger, closeLog, err := logging.New(cfg.LogsDir(), logging.ParseLevel(*logLevel))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening trace log: %v\n", err)
		os.Exit(1)
	}
	defer closeLog()

	lb, err := logbook.New(cfg.JournalPath())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening journal: %v\n", err)
		os.Exit(1)
	}

	opts := []tui.AppOption{tui.WithLogbook(lb), tui.WithLogger(logger)}
	if !*noWatch {
		watcher, err := scene.Watch(sc.Path(), scene.DefaultDebounce)
		if err != nil {
			logger.Warn("scene watch disabled", "path", sc.Path(), "error", err)
		} else {
			defer watcher.Close()
			opts = append(opts, tui.WithWatcher(watcher))
		}
	}

	// Run blocks until the user quits
	p := tea.NewProgram(
		tui.NewApp(cfg, sc, opts...),
		tea.WithAltScreen(),
	)
	if _, err := p.Run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error running TUI: %v\n", err)
		os.Exit(1)
	}
}
