package cli

import (
	"context"
	"flag"
	"fmt"

	"github.com/eventlane/eventlane/pkg/storage"
)

func newMigrateCommand() *Command {
	cmd := &Command{
		Name:        "migrate",
		Description: "Apply pending database migrations",
		Flags:       flag.NewFlagSet("migrate", flag.ExitOnError),
		Run:         runMigrate,
	}

	cmd.Flags.String("db-url", defaultDatabaseURL(), "PostgreSQL connection URL")

	return cmd
}

func runMigrate(args []string) error {
	cmd := newMigrateCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	dbURL := cmd.Flags.Lookup("db-url").Value.String()

	db, err := openDatabase(dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	if err := storage.RunMigrations(context.Background(), db); err != nil {
		return err
	}

	fmt.Println("Database schema is up to date")
	return nil
}
