package cli

import (
	"context"
	"database/sql"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/eventlane/eventlane/pkg/directory"
	"github.com/eventlane/eventlane/pkg/entitlement"
)

func newResolveCommand() *Command {
	cmd := &Command{
		Name:        "resolve",
		Description: "Resolve the effective plan for a user or conference",
		Flags:       flag.NewFlagSet("resolve", flag.ExitOnError),
		Run:         runResolve,
	}

	cmd.Flags.String("db-url", defaultDatabaseURL(), "PostgreSQL connection URL")
	cmd.Flags.String("kind", "user", "Principal kind: user or conference")
	cmd.Flags.Int64("id", 0, "Internal principal ID")
	cmd.Flags.String("external-id", "", "External account ID (user kind only, alternative to -id)")

	return cmd
}

func runResolve(args []string) error {
	cmd := newResolveCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	dbURL := cmd.Flags.Lookup("db-url").Value.String()
	kind := entitlement.PrincipalKind(cmd.Flags.Lookup("kind").Value.String())
	id, _ := strconv.ParseInt(cmd.Flags.Lookup("id").Value.String(), 10, 64)
	externalID := cmd.Flags.Lookup("external-id").Value.String()

	if !kind.Valid() {
		return fmt.Errorf("invalid kind %q (expected user or conference)", kind)
	}
	if id <= 0 && externalID == "" {
		return fmt.Errorf("-id or -external-id is required")
	}
	if externalID != "" && kind != entitlement.PrincipalUser {
		return fmt.Errorf("-external-id applies to user principals only")
	}

	db, err := openDatabase(dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return resolvePlan(context.Background(), db, kind, id, externalID, os.Stdout)
}

func resolvePlan(ctx context.Context, db *sql.DB, kind entitlement.PrincipalKind, id int64, externalID string, out io.Writer) error {
	if externalID != "" {
		account, err := directory.NewPostgresDirectory(db).AccountByExternalID(ctx, externalID)
		if err != nil {
			return fmt.Errorf("failed to look up account %q: %w", externalID, err)
		}
		id = account.ID
	}

	plan, err := newEngine(db).ResolvePlan(ctx, entitlement.Principal{Kind: kind, ID: id})
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(plan, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode effective plan: %w", err)
	}

	fmt.Fprintln(out, string(data))
	return nil
}
