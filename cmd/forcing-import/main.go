package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ctessum/geom"
	"go.uber.org/zap"

	"github.com/jpkabala96/geeSSEBI/internal/app"
	"github.com/jpkabala96/geeSSEBI/internal/constants"
	"github.com/jpkabala96/geeSSEBI/internal/database"
	"github.com/jpkabala96/geeSSEBI/internal/forcing"
	"github.com/jpkabala96/geeSSEBI/internal/log"
	"github.com/jpkabala96/geeSSEBI/pkg/config"
)

// copier bulk-loads forcing rows
type copier interface {
	CopyForcing(ctx context.Context, records []database.ForcingRecord) (int64, error)
}

func main() {
	os.Exit(realMain())
}

// realMain returns the exit code so deferred calls run before os.Exit.
func realMain() int {
	cfgFile := flag.String("config", "config.yaml", "Path to configuration source (YAML file or SQLite database)")
	cfgBackend := flag.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	dsn := flag.String("db", "", "TimescaleDB connection string; defaults to forcing.connection-string of the configuration")
	kindName := flag.String("kind", "hourly", "Kind of the input files: 'hourly' or 'daily'")
	bbox := flag.String("bbox", "", "Only import cells inside minlon,minlat,maxlon,maxlat")
	migrate := flag.Bool("migrate", true, "Create the forcing hypertable if needed")
	debug := flag.Bool("debug", false, "Turn on debugging output")
	showVersion := flag.Bool("version", false, "Show version and exit")
	flag.Usage = func() {
		fmt.Fprintf(flag.CommandLine.Output(), "Usage: forcing-import [flags] file.nc...\n\n")
		fmt.Fprintf(flag.CommandLine.Output(), "Hourly files are read with forcing.hourly-accumulation of the configuration.\n"+
			"Raw ERA5-Land sums (\"running\") are stored as hourly amounts; pass such files in\n"+
			"time order, the 00 UTC step needs 23 UTC of the previous file.\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *showVersion {
		fmt.Printf("forcing-import %s\n", constants.Version)
		return 0
	}
	if flag.NArg() == 0 {
		flag.Usage()
		return 2
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return 1
	}
	defer log.Sync()
	logger := log.Component("forcing-import")

	kind := forcing.Kind(*kindName)
	if kind != forcing.Hourly && kind != forcing.Daily {
		log.Errorf("invalid -kind %q", *kindName)
		return 2
	}
	bounds, err := parseBBox(*bbox)
	if err != nil {
		log.Errorf("invalid -bbox: %v", err)
		return 2
	}

	filename, _ := filepath.Abs(*cfgFile)
	provider, err := config.Open(filename, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to open configuration: %v", err)
		return 1
	}
	cfg, err := provider.LoadConfig()
	provider.Close()
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		return 1
	}
	if *dsn == "" {
		*dsn = cfg.Forcing.ConnectionString
	}
	if *dsn == "" {
		log.Errorf("no connection string: pass -db or set forcing.connection-string")
		return 1
	}

	vars := app.HourlyVariables(cfg.Forcing)
	if kind == forcing.Daily {
		vars = app.Variables(forcing.DefaultDailyVariables, cfg.Forcing.DailyVariables)
	}
	var acc *forcing.Deaccumulator
	if kind == forcing.Hourly && vars.Accumulated {
		acc = &forcing.Deaccumulator{}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	client := database.NewClient(*dsn, logger.Named("database"))
	if err := client.Connect(); err != nil {
		log.Errorf("Failed to connect: %v", err)
		return 1
	}
	defer client.Close()
	if *migrate {
		if err := client.Migrate(ctx); err != nil {
			log.Errorf("Failed to migrate: %v", err)
			return 1
		}
	}

	var total int64
	for _, path := range flag.Args() {
		n, err := importFile(ctx, client, path, kind, vars, bounds, acc, logger)
		total += n
		if err != nil {
			log.Errorf("Import of %s failed after %d rows: %v", path, n, err)
			return 1
		}
	}
	logger.Infow("import complete", "files", flag.NArg(), "rows", total)
	return 0
}

// importFile copies every record of one netCDF file, one time step per COPY.
// A non-nil acc turns running sums into hourly amounts; steps it cannot
// difference are skipped.
func importFile(ctx context.Context, db copier, path string, kind forcing.Kind, vars forcing.Variables,
	bounds *geom.Bounds, acc *forcing.Deaccumulator, logger *zap.SugaredLogger) (int64, error) {
	ds, err := forcing.OpenDataset(path, vars)
	if err != nil {
		return 0, err
	}
	defer ds.Close()

	var total int64
	for k := range ds.Times {
		if err := ctx.Err(); err != nil {
			return total, err
		}
		f, err := ds.Field(k, kind, bounds)
		if err != nil {
			return total, err
		}
		f.Time = recordTime(kind, f.Time)
		if acc != nil {
			var ok bool
			if f, ok, err = acc.Next(f); err != nil {
				return total, err
			} else if !ok {
				logger.Warnw("skipping step without the preceding hour", "file", path, "ts", ds.Times[k])
				continue
			}
		}
		n, err := db.CopyForcing(ctx, forcing.Records(f))
		total += n
		if err != nil {
			return total, err
		}
		logger.Debugw("copied time step", "file", path, "ts", f.Time, "rows", n)
	}
	logger.Infow("imported file", "file", path, "kind", kind, "steps", len(ds.Times), "rows", total)
	return total, nil
}

// recordTime normalises the stored timestamp to the key the lookups use:
// the UTC hour for hourly records and the UTC day for daily aggregates.
func recordTime(kind forcing.Kind, t time.Time) time.Time {
	if kind == forcing.Daily {
		return forcing.Day(t)
	}
	return t.UTC().Truncate(time.Hour)
}

func parseBBox(s string) (*geom.Bounds, error) {
	if s == "" {
		return nil, nil
	}
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return nil, fmt.Errorf("expected minlon,minlat,maxlon,maxlat, got %q", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return nil, err
		}
		v[i] = f
	}
	if v[0] >= v[2] || v[1] >= v[3] {
		return nil, fmt.Errorf("empty box %q", s)
	}
	return &geom.Bounds{Min: geom.Point{X: v[0], Y: v[1]}, Max: geom.Point{X: v[2], Y: v[3]}}, nil
}
