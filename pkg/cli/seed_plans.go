package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/eventlane/eventlane/pkg/plans"
)

func newSeedPlansCommand() *Command {
	cmd := &Command{
		Name:        "seed-plans",
		Description: "Upsert the plan catalog from a YAML seed file",
		Flags:       flag.NewFlagSet("seed-plans", flag.ExitOnError),
		Run:         runSeedPlans,
	}

	cmd.Flags.String("db-url", defaultDatabaseURL(), "PostgreSQL connection URL")
	cmd.Flags.String("file", "", "Path to the plan seed file")

	return cmd
}

func runSeedPlans(args []string) error {
	cmd := newSeedPlansCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	dbURL := cmd.Flags.Lookup("db-url").Value.String()
	file := cmd.Flags.Lookup("file").Value.String()

	if file == "" {
		return fmt.Errorf("file is required")
	}

	db, err := openDatabase(dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return seedPlans(context.Background(), db, file, os.Stdout)
}

func seedPlans(ctx context.Context, db *sql.DB, path string, out io.Writer) error {
	doc, err := plans.LoadSeed(path)
	if err != nil {
		return err
	}

	catalog := plans.NewPostgresCatalog(db)
	n, err := plans.ApplySeed(ctx, catalog, doc)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Seeded %d plans from %s\n", n, path)
	return nil
}
