package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jpkabala96/geeSSEBI/internal/app"
	"github.com/jpkabala96/geeSSEBI/internal/constants"
	"github.com/jpkabala96/geeSSEBI/internal/log"
	"github.com/jpkabala96/geeSSEBI/pkg/config"
)

func main() {
	os.Exit(realMain())
}

// realMain returns the exit code so deferred calls run before os.Exit.
func realMain() int {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source:\n\t\t\t  YAML: config.yaml\n\t\t\t  SQLite: config.db")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' for YAML files, 'sqlite' for SQLite databases")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	logFile := flag.String("log-file", "", "Write logs to this file, rotated at 100 MB, instead of stderr")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Parse()

	if *showVersion {
		fmt.Printf("ssebi-server %s\n", constants.Version)
		return 0
	}

	// Set up logging
	var err error
	if *logFile != "" {
		err = log.InitFile(*debug, *logFile, 100, 5)
	} else {
		err = log.Init(*debug)
	}
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()

	filename, _ := filepath.Abs(*cfgFile)
	provider, err := config.Open(filename, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to open configuration: %v", err)
		return 1
	}
	defer provider.Close()

	// Create and run the application
	application := app.New(provider, log.Component("ssebi-server"))
	if err := application.Run(context.Background()); err != nil {
		log.Errorf("Application error: %v", err)
		return 1
	}
	return 0
}
