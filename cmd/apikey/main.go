package main

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/poyrazK/dnsadmin/internal/adapters/api"
	"github.com/poyrazK/dnsadmin/internal/adapters/repository"
	"github.com/poyrazK/dnsadmin/internal/config"
	"github.com/poyrazK/dnsadmin/internal/core/domain"
	"github.com/poyrazK/dnsadmin/internal/core/ports"
)

const keyPrefix = "dnsa_"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	db, err := sql.Open("pgx", cfg.Database.URL)
	if err != nil {
		log.Fatalf("failed to open database: %v", err)
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Printf("failed to close database: %v", err)
		}
	}()

	if err := run(os.Args, os.Stdout, repository.NewPostgresRepository(db)); err != nil {
		log.Fatal(err)
	}
}

func run(args []string, out io.Writer, repo ports.APIKeyStore) error {
	if len(args) < 2 {
		return errors.New("expected 'create', 'list' or 'revoke' subcommands")
	}

	switch args[1] {
	case "create":
		createCmd := flag.NewFlagSet("create", flag.ContinueOnError)
		createCmd.SetOutput(out)
		name := createCmd.String("name", "generic-key", "Description of the key")
		admin := createCmd.Bool("admin", false, "Grant administrator rights")
		groups := createCmd.String("groups", "", "Comma separated group IDs")
		defaultGroup := createCmd.String("default-group", "", "Group stamped on created objects (defaults to the first group)")
		days := createCmd.Int("days", 365, "Validity in days")
		if err := createCmd.Parse(args[2:]); err != nil {
			return fmt.Errorf("failed to parse create commands: %w", err)
		}
		return generateKey(repo, *name, *admin, splitGroups(*groups), *defaultGroup, *days, out)
	case "list":
		listCmd := flag.NewFlagSet("list", flag.ContinueOnError)
		listCmd.SetOutput(out)
		if err := listCmd.Parse(args[2:]); err != nil {
			return fmt.Errorf("failed to parse list commands: %w", err)
		}
		return listKeys(repo, out)
	case "revoke":
		revokeCmd := flag.NewFlagSet("revoke", flag.ContinueOnError)
		revokeCmd.SetOutput(out)
		id := revokeCmd.String("id", "", "API Key UUID to revoke")
		if err := revokeCmd.Parse(args[2:]); err != nil {
			return fmt.Errorf("failed to parse revoke commands: %w", err)
		}
		return revokeKey(repo, *id, out)
	default:
		return fmt.Errorf("unknown subcommand: %s", args[1])
	}
}

func splitGroups(s string) []string {
	var groups []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

func generateKey(repo ports.APIKeyStore, name string, admin bool, groups []string, defaultGroup string, days int, out io.Writer) error {
	if defaultGroup == "" && len(groups) > 0 {
		defaultGroup = groups[0]
	}
	if defaultGroup != "" && !containsGroup(groups, defaultGroup) {
		groups = append(groups, defaultGroup)
	}

	rawKey := make([]byte, 16)
	if _, err := rand.Read(rawKey); err != nil {
		return fmt.Errorf("failed to generate key: %w", err)
	}
	keyString := keyPrefix + hex.EncodeToString(rawKey)

	id := uuid.New().String()
	now := time.Now()
	expiresAt := now.AddDate(0, 0, days)

	apiKey := &domain.APIKey{
		ID:              id,
		Name:            name,
		KeyHash:         api.HashKey(keyString),
		KeyPrefix:       keyString[:8],
		IsAdministrator: admin,
		Groups:          groups,
		DefaultGroup:    defaultGroup,
		Active:          true,
		CreatedAt:       now,
		ExpiresAt:       &expiresAt,
	}

	if err := repo.CreateAPIKey(context.Background(), apiKey); err != nil {
		return fmt.Errorf("failed to save API key: %w", err)
	}

	fmt.Fprintf(out, "API Key Created Successfully!\n")
	fmt.Fprintf(out, "---------------------------\n")
	fmt.Fprintf(out, "ID:            %s\n", id)
	fmt.Fprintf(out, "Administrator: %t\n", admin)
	fmt.Fprintf(out, "Groups:        %s\n", strings.Join(groups, ","))
	fmt.Fprintf(out, "Default group: %s\n", defaultGroup)
	fmt.Fprintf(out, "Expires:       %v\n", expiresAt.Format(time.RFC3339))
	fmt.Fprintf(out, "VALUE:         %s\n", keyString)
	fmt.Fprintf(out, "---------------------------\n")
	fmt.Fprintf(out, "CAUTION: This is the only time the key will be shown.\n")
	return nil
}

func containsGroup(groups []string, g string) bool {
	for _, x := range groups {
		if x == g {
			return true
		}
	}
	return false
}

func listKeys(repo ports.APIKeyStore, out io.Writer) error {
	keys, err := repo.ListAPIKeys(context.Background())
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "%-36s %-15s %-5s %-20s %-8s %-6s\n", "ID", "Name", "Admin", "Groups", "Prefix", "Status")
	for _, k := range keys {
		status := "active"
		if !k.Active {
			status = "revoked"
		}
		fmt.Fprintf(out, "%-36s %-15s %-5t %-20s %-8s %-6s\n", k.ID, k.Name, k.IsAdministrator, strings.Join(k.Groups, ","), k.KeyPrefix, status)
	}
	return nil
}

func revokeKey(repo ports.APIKeyStore, id string, out io.Writer) error {
	if id == "" {
		return errors.New("ID is required for revocation")
	}
	if err := repo.DeleteAPIKey(context.Background(), id); err != nil {
		return err
	}
	fmt.Fprintf(out, "API Key %s revoked (deleted)\n", id)
	return nil
}
