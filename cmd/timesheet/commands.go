package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/warp/timesheet/api"
	"github.com/warp/timesheet/config"
	"github.com/warp/timesheet/sheet"
	"github.com/warp/timesheet/timesheet"
)

// NewRootCommand wires every subcommand to cfg. Flags override cfg's env values.
func NewRootCommand(cfg *config.Config) *cobra.Command {
	var backend string

	rootCmd := &cobra.Command{
		Use:          "timesheet",
		Short:        "Weekly timesheet entry for the workshop",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg.Backend = config.Backend(backend)
			if !cmd.Flags().Changed("store") && os.Getenv("TIMESHEET_STORE") == "" {
				cfg.StorePath = cfg.DefaultStorePath()
			}
			return cfg.Validate()
		},
	}

	rootCmd.PersistentFlags().StringVar(&backend, "backend", string(cfg.Backend), "store backend: csv or sqlite")
	rootCmd.PersistentFlags().StringVar(&cfg.StorePath, "store", cfg.StorePath, "path to the store file")
	rootCmd.PersistentFlags().BoolVar(&cfg.Strict, "strict", cfg.Strict, "fail on a corrupt store instead of loading it as empty")

	rootCmd.AddCommand(newServeCommand(cfg))
	rootCmd.AddCommand(newWeekCommand(cfg))
	rootCmd.AddCommand(newExportCommand(cfg))
	rootCmd.AddCommand(newImportCommand(cfg))
	rootCmd.AddCommand(newHashCommand())

	return rootCmd
}

// =============================================================================
// SERVE
// =============================================================================

func newServeCommand(cfg *config.Config) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := cfg.ValidateServe(); err != nil {
				return err
			}
			return serve(*cfg)
		},
	}
	cmd.Flags().StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	return cmd
}

func serve(cfg config.Config) error {
	store, closer, err := openStore(cfg)
	if err != nil {
		return fmt.Errorf("failed to open store: %w", err)
	}
	defer closer.Close()

	handler := api.NewHandler(store, cfg.Authorizer(), cfg.People)
	router := api.NewRouter(handler, cfg.AllowedOrigins...)

	server := &http.Server{
		Addr:         cfg.Addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("Server starting on %s (%s store %s)", cfg.Addr, cfg.Backend, cfg.StorePath)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-quit:
	}

	log.Println("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}

	log.Println("Server stopped")
	return nil
}

// =============================================================================
// WEEK
// =============================================================================

func newWeekCommand(cfg *config.Config) *cobra.Command {
	var person, date string

	cmd := &cobra.Command{
		Use:   "week",
		Short: "Print one person's week",
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cfg.HasPerson(person) {
				return fmt.Errorf("%w: %q", timesheet.ErrUnknownPerson, person)
			}

			ref := timesheet.Today()
			if date != "" {
				parsed, err := timesheet.ParseDate(date)
				if err != nil {
					return err
				}
				ref = parsed
			}

			store, closer, err := openStore(*cfg)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer closer.Close()

			view, err := timesheet.NewReconciler(store).Week(cmd.Context(), person, ref)
			if err != nil {
				return err
			}
			return printWeek(cmd.OutOrStdout(), view)
		},
	}
	cmd.Flags().StringVar(&person, "person", "", "person on the roster")
	cmd.Flags().StringVar(&date, "date", "", "any day of the week to show (YYYY-MM-DD, default today)")
	cmd.MarkFlagRequired("person")
	cmd.RegisterFlagCompletionFunc("person", func(cmd *cobra.Command, args []string, toComplete string) ([]string, cobra.ShellCompDirective) {
		return cfg.People, cobra.ShellCompDirectiveNoFileComp
	})
	return cmd
}

func printWeek(w io.Writer, view timesheet.WeekView) error {
	fmt.Fprintf(w, "%s - %s\n\n", view.Person, view.Week.Title())

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "DAY\tDATE\tHOURS")
	for _, row := range view.Rows {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", row.Label, row.Date, row.Hours.StringFixed(1))
	}
	if err := tw.Flush(); err != nil {
		return err
	}

	totals := view.Totals()
	_, err := fmt.Fprintf(w, "\nTotal hours: %s h    Total on-call: %s h\n",
		totals.Normal.StringFixed(1), totals.OnCall.StringFixed(1))
	return err
}

// =============================================================================
// EXPORT / IMPORT
// =============================================================================

func newExportCommand(cfg *config.Config) *cobra.Command {
	var format, out, secret string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write the whole store as CSV or XLSX",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := sheet.ParseFormat(format)
			if err != nil {
				return err
			}

			store, closer, err := openStore(*cfg)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer closer.Close()

			entries, err := timesheet.NewAdmin(store, cfg.Authorizer()).Entries(cmd.Context(), secret)
			if err != nil {
				return err
			}

			if out == "-" {
				return sheet.Export(cmd.OutOrStdout(), f, entries)
			}
			if out == "" {
				out = f.Filename()
			}
			file, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := sheet.Export(file, f, entries); err != nil {
				file.Close()
				return err
			}
			if err := file.Close(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d entries to %s\n", len(entries), out)
			return nil
		},
	}
	cmd.Flags().StringVar(&format, "format", "csv", "csv or xlsx")
	cmd.Flags().StringVar(&out, "out", "", "output file, - for stdout (default releve_heures.<format>)")
	cmd.Flags().StringVar(&secret, "secret", cfg.AdminSecret, "admin secret")
	return cmd
}

func newImportCommand(cfg *config.Config) *cobra.Command {
	var secret string

	cmd := &cobra.Command{
		Use:   "import FILE",
		Short: "Replace the whole store from a CSV, XLSX or XLS file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			file, err := os.Open(path)
			if err != nil {
				return err
			}
			defer file.Close()

			decoded, err := sheet.ReadWorkbook(filepath.Base(path), file)
			for _, s := range decoded.Skipped {
				fmt.Fprintf(cmd.ErrOrStderr(), "skipped %s: %v\n", path, &s)
			}
			if errors.Is(err, sheet.ErrEmpty) {
				return fmt.Errorf("%s holds no data, refusing to empty the store: %w", path, err)
			}
			if err != nil {
				return err
			}

			store, closer, err := openStore(*cfg)
			if err != nil {
				return fmt.Errorf("failed to open store: %w", err)
			}
			defer closer.Close()

			if err := timesheet.NewAdmin(store, cfg.Authorizer()).Overwrite(cmd.Context(), secret, decoded.Entries); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "imported %d entries\n", len(decoded.Entries))
			return nil
		},
	}
	cmd.Flags().StringVar(&secret, "secret", cfg.AdminSecret, "admin secret")
	return cmd
}

func newHashCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "hash SECRET",
		Short: "Print a hashed admin secret for TIMESHEET_ADMIN_SECRET_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hashed, err := timesheet.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hashed)
			return nil
		},
	}
}
