package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/rf2tools/rf2sync/internal/config"
	"github.com/rf2tools/rf2sync/internal/logging"
)

// module defs - Version and BuildDate can be set at build time via ldflags
var (
	Version   string = "0.0.1"
	BuildDate string = "unknown"

	AppName string = "rf2sync"
)

// global variables
var (
	// SlogManager handles all slog-based logging
	SlogManager *logging.SlogManager

	// Logger is the slog logger (convenience reference)
	Logger *slog.Logger

	// ConfigDir holds rf2sync.cfg.json
	ConfigDir string

	SessionStartTime time.Time = time.Now()
)

func usage() {
	fmt.Fprintf(os.Stderr, `%s %s (%s)

usage: %s [-config dir] [command]

commands:
  run                      synchronize and record (default)
  status                   print plugin and synchronization status once
  export <file.db>         list sessions and laps of a SQLite dump
  migrate-backups [dir]    copy SQLite dumps into PostgreSQL
`, AppName, Version, BuildDate, AppName)
}

func main() {
	flag.StringVar(&ConfigDir, "config", ".", "directory containing "+config.FileName)
	flag.Usage = usage
	flag.Parse()

	SlogManager = logging.NewSlogManager()
	SlogManager.Setup(nil, "info", nil)
	Logger = SlogManager.Logger()

	if err := config.Load(ConfigDir); err != nil {
		Logger.Warn("Failed to load config, using defaults!", "error", err)
	}

	args := flag.Args()
	cmd := "run"
	if len(args) > 0 {
		cmd = strings.ToLower(args[0])
		args = args[1:]
	}

	var err error
	switch cmd {
	case "run":
		err = run()
	case "status":
		err = printStatus(os.Stdout)
	case "export":
		if len(args) == 0 {
			fmt.Println("No SQLite file provided.")
			os.Exit(2)
		}
		err = exportSessions(os.Stdout, args[0])
	case "migrate-backups":
		dir := ""
		if len(args) > 0 {
			dir = args[0]
		}
		err = migrateBackups(dir)
	case "version":
		fmt.Println(AppName, Version, BuildDate)
	default:
		usage()
		os.Exit(2)
	}

	if err != nil {
		Logger.Error("Command failed", "command", cmd, "error", err)
		os.Exit(1)
	}
}

func logLevel() string {
	return viper.GetString("logLevel")
}
