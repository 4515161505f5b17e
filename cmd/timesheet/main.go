/*
main.go - Application entry point

PURPOSE:
  Weekly timesheet server and maintenance CLI.

COMMANDS:
  serve    Start the HTTP API
  week     Print one person's week
  export   Write the whole store as CSV or XLSX
  import   Replace the whole store from a CSV, XLSX or XLS file
  hash     Print a hashed admin secret for TIMESHEET_ADMIN_SECRET_HASH

CONFIGURATION:
  Environment (see config/config.go), overridden by flags:
    --backend  csv | sqlite              TIMESHEET_BACKEND
    --store    path to the store file    TIMESHEET_STORE
    --strict   corrupt store is an error TIMESHEET_STRICT

GRACEFUL SHUTDOWN:
  On SIGINT/SIGTERM the server stops accepting connections and waits up to
  30s for active requests.

EXAMPLES:
  TIMESHEET_ADMIN_SECRET=... ./timesheet serve --addr :3000
  ./timesheet week --person "Daniel SIMON" --date 2025-03-12
  ./timesheet export --format xlsx --out releve_heures.xlsx
*/
package main

import (
	"io"
	"log"
	"os"

	"github.com/warp/timesheet/config"
	"github.com/warp/timesheet/store/csvfile"
	"github.com/warp/timesheet/store/sqlite"
	"github.com/warp/timesheet/timesheet"
)

func main() {
	cfg := config.Load()
	if err := NewRootCommand(&cfg).Execute(); err != nil {
		os.Exit(1)
	}
}

// openStore builds the configured backend. The returned closer is never nil.
func openStore(cfg config.Config) (timesheet.RawStore, io.Closer, error) {
	switch cfg.Backend {
	case config.BackendSQLite:
		store, err := sqlite.New(cfg.StorePath, sqlite.Strict(cfg.Strict), sqlite.WithLogger(log.Default()))
		if err != nil {
			return nil, nil, err
		}
		return store, store, nil
	default:
		store, err := csvfile.New(cfg.StorePath, csvfile.Strict(cfg.Strict), csvfile.WithLogger(log.Default()))
		if err != nil {
			return nil, nil, err
		}
		return store, nopCloser{}, nil
	}
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }
