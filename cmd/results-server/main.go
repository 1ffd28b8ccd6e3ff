// Command results-server serves stored evaluation runs: a JSON API over the
// run database plus HTML chart pages for browsing metric curves.
package main

import (
	"flag"
	"log"
	"net/http"

	"github.com/opendetect/evalreport/internal/api"
	"github.com/opendetect/evalreport/internal/config"
	"github.com/opendetect/evalreport/internal/store"
	"github.com/opendetect/evalreport/internal/version"
)

var (
	listen     = flag.String("listen", ":8080", "listen address")
	configPath = flag.String("config", "", "path to config JSON (optional)")
	dbPath     = flag.String("db", "", "run database path (default from config)")
	migrations = flag.String("migrations", "migrations", "database migrations directory")
	perClass   = flag.Bool("per-class", false, "include per-class series on chart pages")
)

func main() {
	flag.Parse()

	cfg := config.Empty()
	if *configPath != "" {
		var err error
		cfg, err = config.Load(*configPath)
		if err != nil {
			log.Fatalf("loading config: %v", err)
		}
	}

	path := *dbPath
	if path == "" {
		path = cfg.GetDBPath()
	}
	db, err := store.Open(path)
	if err != nil {
		log.Fatalf("opening database %s: %v", path, err)
	}
	defer db.Close()
	if err := db.MigrateUp(*migrations); err != nil {
		log.Fatalf("migrating database: %v", err)
	}

	s := api.NewServer(store.NewRunStore(db), store.NewScalarStore(db))
	s.SampleCount = cfg.GetSampleCount()
	s.IncludePerClass = *perClass || cfg.GetIncludePerClass()

	log.Printf("results server %s listening on %s (db %s)", version.String(), *listen, path)
	if err := http.ListenAndServe(*listen, s.ServeMux()); err != nil {
		log.Fatalf("server failed: %v", err)
	}
}
