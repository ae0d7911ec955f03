package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/dnsadmin/internal/adapters/repository"
	"github.com/poyrazK/dnsadmin/internal/config"
	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
	"github.com/poyrazK/dnsadmin/internal/core/services"
	"github.com/poyrazK/dnsadmin/internal/importer"
	"github.com/poyrazK/dnsadmin/internal/logging"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.NewLogger(cfg)

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to connect to database: %v", err)
	}
	defer func() {
		if errClose := db.Close(); errClose != nil {
			log.Printf("failed to close database: %v", errClose)
		}
	}()

	svc := services.NewAdminService(repository.NewPostgresRepository(db), services.AdminOptions{
		Profile:  cfg.Policy.Profile,
		RuleMode: cfg.Policy.RuleMode,
		Logger:   &logger,
	})

	if err := run(context.Background(), os.Args[1:], os.Stdout, svc); err != nil {
		log.Fatalf("import failed: %v", err)
	}
}

func run(ctx context.Context, args []string, out io.Writer, svc ports.AdminService) error {
	fs := flag.NewFlagSet("loadzone", flag.ContinueOnError)
	fs.SetOutput(out)
	zoneID := fs.String("zone", "", "ID of the zone to load records into")
	file := fs.String("file", "", "Zone file path or http(s) URL")
	origin := fs.String("origin", "", "Zone origin (defaults to the zone name)")
	group := fs.String("group", "admins", "Group stamped on created records")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *zoneID == "" || *file == "" {
		return errors.New("-zone and -file are required")
	}

	actor := domain.Actor{IsAdministrator: true, Groups: []string{*group}, DefaultGroup: *group}

	if *origin == "" {
		zone, err := svc.GetZone(ctx, actor, *zoneID)
		if err != nil {
			return fmt.Errorf("failed to look up zone: %w", err)
		}
		*origin = zone.Name
	}

	src, err := open(ctx, *file)
	if err != nil {
		return err
	}
	defer func() {
		if errClose := src.Close(); errClose != nil {
			log.Printf("failed to close %s: %v", *file, errClose)
		}
	}()

	fmt.Fprintf(out, "Parsing %s...\n", *file)
	parsed, err := importer.Parse(src, *origin, filepath.Base(*file))
	if err != nil {
		return fmt.Errorf("failed to parse: %w", err)
	}
	fmt.Fprintf(out, "Parsed %d records. Importing into zone %s...\n", len(parsed.Records), *zoneID)

	report, err := importer.NewLoader(svc, nil).Load(ctx, actor, *zoneID, parsed.Records)
	if err != nil {
		return err
	}

	for _, f := range report.Failures {
		fmt.Fprintf(out, "  refused %s %s: %v\n", f.Record.Name, f.Record.Type, f.Err)
	}
	if len(parsed.Skipped) > 0 {
		types := make([]string, 0, len(parsed.Skipped))
		for t := range parsed.Skipped {
			types = append(types, fmt.Sprintf("%s=%d", t, parsed.Skipped[t]))
		}
		sort.Strings(types)
		fmt.Fprintf(out, "Skipped unsupported types: %s\n", strings.Join(types, " "))
	}
	fmt.Fprintf(out, "Import complete: %d created, %d refused.\n", report.Created, len(report.Failures))
	return nil
}

// open returns the zone file at path, downloading it first when path is a URL.
func open(ctx context.Context, path string) (io.ReadCloser, error) {
	if !strings.HasPrefix(path, "http://") && !strings.HasPrefix(path, "https://") {
		f, err := os.Open(filepath.Clean(path))
		if err != nil {
			return nil, fmt.Errorf("failed to open zone file: %w", err)
		}
		return f, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, path, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to download: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		_ = resp.Body.Close()
		return nil, fmt.Errorf("bad status: %s", resp.Status)
	}
	return resp.Body, nil
}
