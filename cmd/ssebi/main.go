package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/jpkabala96/geeSSEBI/internal/app"
	"github.com/jpkabala96/geeSSEBI/internal/charts"
	"github.com/jpkabala96/geeSSEBI/internal/constants"
	"github.com/jpkabala96/geeSSEBI/internal/export"
	"github.com/jpkabala96/geeSSEBI/internal/geo"
	"github.com/jpkabala96/geeSSEBI/internal/log"
	"github.com/jpkabala96/geeSSEBI/internal/ssebi"
	"github.com/jpkabala96/geeSSEBI/pkg/config"
)

// Exit codes
const (
	exitOK = iota
	exitError
	exitUsage
	exitEmptyRegion
	exitNoSceneFound
	exitForcingUnavailable
	exitDegenerateRegression
)

func exitCode(err error) int {
	switch ssebi.Kind(err) {
	case "":
		return exitOK
	case ssebi.KindEmptyRegion:
		return exitEmptyRegion
	case ssebi.KindNoSceneFound:
		return exitNoSceneFound
	case ssebi.KindForcingUnavailable:
		return exitForcingUnavailable
	case ssebi.KindDegenerateRegression:
		return exitDegenerateRegression
	default:
		return exitError
	}
}

func main() {
	os.Exit(realMain(os.Args[1:]))
}

// realMain runs the command and returns its exit code, leaving os.Exit to
// main so deferred calls still run.
func realMain(args []string) int {
	fs := flag.NewFlagSet("ssebi", flag.ContinueOnError)
	cfgFile := fs.String("config", "config.yaml", "Path to configuration source (YAML file or SQLite database)")
	cfgBackend := fs.String("config-backend", "yaml", "Configuration backend type: 'yaml' or 'sqlite'")
	sensorName := fs.String("sensor", "L8", "Sensor: L5, L8 or L9")
	startDate := fs.String("start", "", "First acquisition day, YYYY-MM-DD")
	endDate := fs.String("end", "", "Day after the last acquisition day, YYYY-MM-DD")
	regionFile := fs.String("region", "", "GeoJSON file with the area of interest (WGS84 polygon)")
	rt := fs.Float64("rt", constants.DefaultRadiationThreshold, "Radiation threshold: minimum class albedo for the wet edge fit")
	mt := fs.Float64("mt", constants.DefaultMoistureThreshold, "Moisture threshold: minimum class albedo for the dry edge fit")
	crs := fs.String("crs", constants.DefaultCRS, "Output CRS")
	scale := fs.Float64("scale", constants.DefaultScale, "Output pixel size in CRS units")
	out := fs.String("out", "ssebi.tif", "Output GeoTIFF")
	histBins := fs.Int("bins", charts.DefaultBins, "Bins of the printed ET_daily histogram, 0 to skip it")
	debug := fs.Bool("debug", false, "Turn on debugging output")
	showVersion := fs.Bool("version", false, "Show version and exit")
	if err := fs.Parse(args); err != nil {
		return exitUsage
	}

	if *showVersion {
		fmt.Printf("ssebi %s\n", constants.Version)
		return exitOK
	}

	if *startDate == "" || *endDate == "" || *regionFile == "" {
		fmt.Fprintln(os.Stderr, "-start, -end and -region are required")
		fs.Usage()
		return exitUsage
	}
	start, err := time.Parse("2006-01-02", *startDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -start: %v\n", err)
		return exitUsage
	}
	end, err := time.Parse("2006-01-02", *endDate)
	if err != nil {
		fmt.Fprintf(os.Stderr, "invalid -end: %v\n", err)
		return exitUsage
	}

	if err := log.Init(*debug); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		return exitError
	}
	defer log.Sync()

	filename, _ := filepath.Abs(*cfgFile)
	provider, err := config.Open(filename, *cfgBackend)
	if err != nil {
		log.Errorf("Failed to open configuration: %v", err)
		return exitError
	}
	cfg, err := provider.LoadConfig()
	provider.Close()
	if err != nil {
		log.Errorf("Failed to load configuration: %v", err)
		return exitError
	}
	if err := cfg.Validate(); err != nil {
		log.Errorf("Invalid configuration: %v", err)
		return exitError
	}

	// Flags given on the command line win over the configured model defaults.
	params := app.Params(cfg.Model)
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "rt":
			params.RadiationThreshold = *rt
		case "mt":
			params.MoistureThreshold = *mt
		case "crs":
			params.CRS = *crs
		case "scale":
			params.Scale = *scale
		}
	})

	b, err := os.ReadFile(*regionFile)
	if err != nil {
		log.Errorf("Failed to read region: %v", err)
		return exitUsage
	}
	region, err := geo.ParseGeoJSON(b)
	if err != nil {
		log.Errorf("Failed to parse region: %v", err)
		return exitUsage
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return run(ctx, cfg, ssebi.Request{
		Sensor: *sensorName,
		Start:  start,
		End:    end,
		Region: region,
		Params: params,
	}, *out, *histBins)
}

func run(ctx context.Context, cfg *config.ConfigData, req ssebi.Request, out string, bins int) int {
	stack, err := app.NewStack(cfg, log.Component("ssebi"))
	if err != nil {
		log.Errorf("%v", err)
		return exitError
	}
	defer stack.Close()

	res, err := stack.Pipeline.Run(ctx, req)
	if err != nil {
		log.Errorw("run failed", "kind", ssebi.Kind(err), "error", err)
		return exitCode(err)
	}

	opts := export.DefaultOptions()
	if len(cfg.Export.CreationOptions) > 0 {
		opts.CreationOptions = cfg.Export.CreationOptions
	}
	if err := export.WriteGeoTIFF(out, res.Output, opts); err != nil {
		log.Errorf("Failed to write %s: %v", out, err)
		return exitError
	}

	fmt.Printf("scene       %s (%s)\n", res.Output.ID, res.Output.Acquired.Format(time.RFC3339))
	fmt.Printf("valid       %d of %d pixels\n", res.Output.ValidCount(), res.Output.Grid.Len())
	fmt.Printf("low edge    LST = %.4f * albedo + %.4f\n", res.Low.Slope, res.Low.Intercept)
	fmt.Printf("high edge   LST = %.4f * albedo + %.4f\n", res.High.Slope, res.High.Intercept)
	fmt.Printf("sun         %.2f deg above horizon\n", res.Sun.ElevationDeg)
	fmt.Printf("output      %s\n", out)

	if bins > 0 {
		h, err := charts.NewHistogram(res.Output, ssebi.BandETDaily, bins)
		if err != nil {
			log.Warnf("no ET_daily histogram: %v", err)
			return exitOK
		}
		fmt.Printf("\n%s histogram (mm/day)\n", h.Band)
		for k, c := range h.Counts {
			fmt.Printf("  [%8.3f, %8.3f)  %.0f\n", h.Edges[k], h.Edges[k+1], c)
		}
	}
	return exitOK
}
