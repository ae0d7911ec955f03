package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/dnsadmin/internal/adapters/repository"
	"github.com/poyrazK/dnsadmin/internal/config"
	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
	"github.com/poyrazK/dnsadmin/internal/core/services"
	"github.com/poyrazK/dnsadmin/internal/logging"
)

// operator is the identity permctl acts as. Audit entries carry its group.
var operator = domain.Actor{IsAdministrator: true, Groups: []string{"admins"}, DefaultGroup: "admins"}

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	logger := logging.NewLogger(cfg)

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	svc := services.NewAdminService(repository.NewPostgresRepository(db), services.AdminOptions{
		Profile:  cfg.Policy.Profile,
		RuleMode: cfg.Policy.RuleMode,
		Logger:   &logger,
	})

	if err := run(context.Background(), os.Args, os.Stdout, svc); err != nil {
		log.Fatal(err)
	}
}

func run(ctx context.Context, args []string, out io.Writer, svc ports.AdminService) error {
	if len(args) < 2 {
		return errors.New("expected 'grant', 'show', 'rule' or 'unrule' subcommands")
	}

	fs := flag.NewFlagSet(args[1], flag.ContinueOnError)
	fs.SetOutput(out)

	switch args[1] {
	case "grant":
		kind := fs.String("kind", "zone", "Object kind: namespace, zone or rr")
		id := fs.String("id", "", "Object ID")
		group := fs.String("group", "", "Group ID")
		action := fs.String("action", "r", "Action letters, e.g. rw or rwc")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		a, err := domain.ParseAction(*action)
		if err != nil {
			return err
		}
		perm := &domain.Permission{Kind: domain.ObjectKind(*kind), ObjectID: *id, GroupID: *group, Action: a}
		if err := svc.GrantPermission(ctx, operator, perm); err != nil {
			return err
		}
		fmt.Fprintf(out, "Granted %s on %s %s to group %s\n", a, *kind, *id, *group)
		return nil
	case "show":
		kind := fs.String("kind", "zone", "Object kind: namespace, zone or rr")
		id := fs.String("id", "", "Object ID")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		perms, err := svc.GetPermissions(ctx, operator, domain.ObjectKind(*kind), *id)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%-20s %-6s\n", "Group", "Action")
		for _, p := range perms {
			fmt.Fprintf(out, "%-20s %-6s\n", p.GroupID, p.Action)
		}
		return nil
	case "rule":
		zoneID := fs.String("zone", "", "Zone ID")
		namePat := fs.String("namepat", "", "Record name pattern")
		typePat := fs.String("typepat", "", "Record type pattern")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		rule := &domain.Zonerule{ZoneID: *zoneID, NamePat: *namePat, TypePat: *typePat}
		if err := svc.SetZonerule(ctx, operator, rule); err != nil {
			return err
		}
		fmt.Fprintf(out, "Rule set on zone %s: name=%q type=%q\n", *zoneID, *namePat, *typePat)
		return nil
	case "unrule":
		zoneID := fs.String("zone", "", "Zone ID")
		if err := fs.Parse(args[2:]); err != nil {
			return err
		}
		if err := svc.DeleteZonerule(ctx, operator, *zoneID); err != nil {
			return err
		}
		fmt.Fprintf(out, "Rule removed from zone %s\n", *zoneID)
		return nil
	default:
		return fmt.Errorf("unknown subcommand: %s", args[1])
	}
}
