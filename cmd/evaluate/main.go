// Command evaluate runs a detection model evaluation end to end: it submits
// the request to the detector sidecar, writes metric reports into the run
// directory, records the run in the local database, and optionally forwards
// everything to a tracking dashboard.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/opendetect/evalreport/internal/config"
	"github.com/opendetect/evalreport/internal/eval"
	"github.com/opendetect/evalreport/internal/store"
	"github.com/opendetect/evalreport/internal/track"
	"github.com/opendetect/evalreport/internal/version"
)

var (
	configPath   = flag.String("config", "", "path to config JSON (optional)")
	dataPath     = flag.String("data", "", "dataset definition path (required)")
	modelPath    = flag.String("model", "", "model checkpoint path (required)")
	imgsz        = flag.Int("imgsz", 0, "inference image size (default from config)")
	batch        = flag.Int("batch", 0, "batch size (default from config)")
	device       = flag.String("device", "", "compute device, empty for auto-select")
	runName      = flag.String("name", "", "run name (default: start-time stamp)")
	outputRoot   = flag.String("output", "", "output root directory (default from config)")
	evaluatorURL = flag.String("evaluator-url", "", "detector sidecar base URL (default from config)")
	dbPath       = flag.String("db", "", "run database path (default from config)")
	migrations   = flag.String("migrations", "migrations", "database migrations directory")
	noDB         = flag.Bool("no-db", false, "skip persisting the run to the database")
	doTrack      = flag.Bool("track", false, "forward results to the tracking dashboard")
	trackURL     = flag.String("track-url", "", "tracking dashboard base URL (default from config)")
	project      = flag.String("project", "", "tracking project name (default from config)")
	samples      = flag.Int("samples", 0, "curve aggregation sample count (default from config)")
	perClass     = flag.Bool("per-class", false, "include per-class series in curve outputs")
	showVersion  = flag.Bool("version", false, "print version and exit")
)

func main() {
	flag.Parse()

	if *showVersion {
		fmt.Println(version.String())
		return
	}

	if *dataPath == "" || *modelPath == "" {
		log.Fatalf("both -data and -model are required")
	}

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	r := &eval.Runner{
		Evaluator:       eval.NewServerEvaluator(pick(*evaluatorURL, cfg.GetEvaluatorURL()), nil),
		Project:         pick(*project, cfg.GetProject()),
		SampleCount:     pickInt(*samples, cfg.GetSampleCount()),
		IncludePerClass: *perClass || cfg.GetIncludePerClass(),
	}

	if !*noDB {
		db, err := store.Open(pick(*dbPath, cfg.GetDBPath()))
		if err != nil {
			log.Fatalf("opening database: %v", err)
		}
		defer db.Close()
		if err := db.MigrateUp(*migrations); err != nil {
			log.Fatalf("migrating database: %v", err)
		}
		r.Runs = store.NewRunStore(db)
		r.Scalars = store.NewScalarStore(db)
	}

	trackingOn := *doTrack || cfg.GetTrackingEnabled()
	dashURL := pick(*trackURL, cfg.GetTrackingURL())
	if trackingOn && dashURL == "" {
		log.Fatalf("tracking requested but no dashboard URL given (use -track-url)")
	}
	r.Session = track.NewSession(track.NewSink(trackingOn, dashURL, nil))

	req := eval.Request{
		DatasetPath: *dataPath,
		ModelPath:   *modelPath,
		ImageSize:   pickInt(*imgsz, cfg.GetImageSize()),
		Batch:       pickInt(*batch, cfg.GetBatch()),
		Device:      pick(*device, cfg.GetDevice()),
		SaveJSON:    true,
		Plots:       true,
		OutputDir:   pick(*outputRoot, cfg.GetOutputRoot()),
		RunName:     *runName,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	res, err := r.Run(ctx, req)
	if err != nil {
		log.Fatalf("evaluation failed: %v", err)
	}

	fmt.Printf("run %s complete, results in %s\n", res.RunName, res.OutputDir)
	printScalars(res.Metrics.Scalars)
	if res.RunID != "" {
		fmt.Printf("stored as run %s\n", res.RunID)
	}
}

// pick returns the flag value when set, otherwise the config default.
func pick(flagVal, cfgVal string) string {
	if flagVal != "" {
		return flagVal
	}
	return cfgVal
}

func pickInt(flagVal, cfgVal int) int {
	if flagVal != 0 {
		return flagVal
	}
	return cfgVal
}

func printScalars(scalars map[string]float64) {
	names := make([]string, 0, len(scalars))
	for name := range scalars {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		fmt.Printf("  %-32s %.4f\n", name, scalars[name])
	}
}
