package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/eventlane/eventlane/pkg/plans"
)

func newUpsertPlanCommand() *Command {
	cmd := &Command{
		Name:        "upsert-plan",
		Description: "Create or update a plan in the catalog",
		Flags:       flag.NewFlagSet("upsert-plan", flag.ExitOnError),
		Run:         runUpsertPlan,
	}

	cmd.Flags.String("db-url", defaultDatabaseURL(), "PostgreSQL connection URL")
	cmd.Flags.String("name", "", "Stable plan name (e.g. pro)")
	cmd.Flags.String("display-name", "", "Human-readable plan name (defaults to -name)")
	cmd.Flags.Int64("price-cents", 0, "Monthly price in cents")
	cmd.Flags.String("limits", "", "Comma-separated kind=value pairs (-1 means unlimited)")
	cmd.Flags.String("features", "", "Comma-separated feature flag names to enable")
	cmd.Flags.Bool("default", false, "Mark this plan as the default")
	cmd.Flags.Bool("inactive", false, "Mark this plan as inactive")

	return cmd
}

func runUpsertPlan(args []string) error {
	cmd := newUpsertPlanCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	dbURL := cmd.Flags.Lookup("db-url").Value.String()
	name := cmd.Flags.Lookup("name").Value.String()
	displayName := cmd.Flags.Lookup("display-name").Value.String()
	priceCents := cmd.Flags.Lookup("price-cents").Value.String()
	limitsSpec := cmd.Flags.Lookup("limits").Value.String()
	featuresSpec := cmd.Flags.Lookup("features").Value.String()
	isDefault := cmd.Flags.Lookup("default").Value.String() == "true"
	inactive := cmd.Flags.Lookup("inactive").Value.String() == "true"

	if name == "" {
		return fmt.Errorf("name is required")
	}
	if displayName == "" {
		displayName = name
	}

	price, err := strconv.ParseInt(priceCents, 10, 64)
	if err != nil {
		return fmt.Errorf("invalid price %q: %w", priceCents, err)
	}

	limits, err := parseLimits(limitsSpec)
	if err != nil {
		return err
	}

	plan := &plans.Plan{
		Name:        name,
		DisplayName: displayName,
		PriceCents:  price,
		Limits:      limits,
		Features:    parseFeatures(featuresSpec),
		IsActive:    !inactive,
		IsDefault:   isDefault,
	}

	db, err := openDatabase(dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return upsertPlan(context.Background(), db, plan, os.Stdout)
}

func upsertPlan(ctx context.Context, db *sql.DB, plan *plans.Plan, out io.Writer) error {
	catalog := plans.NewPostgresCatalog(db)
	saved, err := catalog.UpsertPlan(ctx, plan)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Plan %q saved (id %d)\n", saved.Name, saved.ID)
	return nil
}

// parseLimits parses a comma-separated list of kind=value pairs into the
// stored limit representation. Kind validity is checked by plan validation
// on write, not here.
func parseLimits(spec string) (map[plans.ResourceKind]int64, error) {
	if spec == "" {
		return nil, nil
	}

	limits := make(map[plans.ResourceKind]int64)
	for _, pair := range strings.Split(spec, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		kind, value, found := strings.Cut(pair, "=")
		if !found {
			return nil, fmt.Errorf("invalid limit %q (expected kind=value)", pair)
		}

		v, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid limit value %q: %w", value, err)
		}

		limits[plans.ResourceKind(strings.TrimSpace(kind))] = v
	}

	return limits, nil
}

func parseFeatures(spec string) map[string]bool {
	if spec == "" {
		return nil
	}

	features := make(map[string]bool)
	for _, name := range strings.Split(spec, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		features[name] = true
	}

	return features
}
