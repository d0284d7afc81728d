package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/eventlane/eventlane/pkg/plans"
)

func newListPlansCommand() *Command {
	cmd := &Command{
		Name:        "list-plans",
		Description: "List the active plans in the catalog",
		Flags:       flag.NewFlagSet("list-plans", flag.ExitOnError),
		Run:         runListPlans,
	}

	cmd.Flags.String("db-url", defaultDatabaseURL(), "PostgreSQL connection URL")

	return cmd
}

func runListPlans(args []string) error {
	cmd := newListPlansCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	dbURL := cmd.Flags.Lookup("db-url").Value.String()

	db, err := openDatabase(dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return listPlans(context.Background(), db, os.Stdout)
}

func listPlans(ctx context.Context, db *sql.DB, out io.Writer) error {
	catalog := plans.NewPostgresCatalog(db)
	active, err := catalog.ListActivePlans(ctx)
	if err != nil {
		return err
	}

	if len(active) == 0 {
		fmt.Fprintln(out, "No active plans")
		return nil
	}

	fmt.Fprintf(out, "%-4s %-16s %-24s %10s %-8s %s\n", "ID", "NAME", "DISPLAY NAME", "PRICE", "DEFAULT", "LIMITS")
	for _, p := range active {
		fmt.Fprintf(out, "%-4d %-16s %-24s %10s %-8t %s\n",
			p.ID, p.Name, p.DisplayName, formatPrice(p.PriceCents), p.IsDefault, formatLimits(p.Limits))
	}

	return nil
}

func formatPrice(cents int64) string {
	return fmt.Sprintf("$%d.%02d", cents/100, cents%100)
}

func formatLimits(limits map[plans.ResourceKind]int64) string {
	if len(limits) == 0 {
		return "-"
	}

	kinds := make([]string, 0, len(limits))
	for kind := range limits {
		kinds = append(kinds, string(kind))
	}
	sort.Strings(kinds)

	parts := make([]string, 0, len(kinds))
	for _, kind := range kinds {
		parts = append(parts, fmt.Sprintf("%s=%s", kind, plans.LimitFromStored(limits[plans.ResourceKind(kind)])))
	}

	return strings.Join(parts, " ")
}
