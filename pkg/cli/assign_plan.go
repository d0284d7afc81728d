package cli

import (
	"context"
	"database/sql"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"github.com/eventlane/eventlane/pkg/entitlement"
	"github.com/eventlane/eventlane/pkg/plans"
	"github.com/eventlane/eventlane/pkg/subscriptions"
)

func newAssignPlanCommand() *Command {
	cmd := &Command{
		Name:        "assign-plan",
		Description: "Assign a plan to a user or conference",
		Flags:       flag.NewFlagSet("assign-plan", flag.ExitOnError),
		Run:         runAssignPlan,
	}

	cmd.Flags.String("db-url", defaultDatabaseURL(), "PostgreSQL connection URL")
	cmd.Flags.Int64("user", 0, "User account ID to assign the plan to")
	cmd.Flags.Int64("conference", 0, "Conference ID to assign the plan to")
	cmd.Flags.Int64("plan", 0, "Plan ID to assign")
	cmd.Flags.String("plan-name", "", "Plan name to assign (alternative to -plan)")
	cmd.Flags.String("status", "", "Subscription status (active, trial, expired, cancelled; default active)")
	cmd.Flags.String("ends-at", "", "Inclusive end date in RFC 3339 form (e.g. 2026-12-31T23:59:59Z)")

	return cmd
}

func runAssignPlan(args []string) error {
	cmd := newAssignPlanCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	dbURL := cmd.Flags.Lookup("db-url").Value.String()
	userID, _ := strconv.ParseInt(cmd.Flags.Lookup("user").Value.String(), 10, 64)
	conferenceID, _ := strconv.ParseInt(cmd.Flags.Lookup("conference").Value.String(), 10, 64)
	planID, _ := strconv.ParseInt(cmd.Flags.Lookup("plan").Value.String(), 10, 64)
	planName := cmd.Flags.Lookup("plan-name").Value.String()
	status := cmd.Flags.Lookup("status").Value.String()
	endsAt := cmd.Flags.Lookup("ends-at").Value.String()

	if (userID > 0) == (conferenceID > 0) {
		return fmt.Errorf("exactly one of -user or -conference is required")
	}
	if planID <= 0 && planName == "" {
		return fmt.Errorf("-plan or -plan-name is required")
	}

	var opts []entitlement.AssignOption
	if status != "" {
		if !subscriptions.Status(status).Valid() {
			return fmt.Errorf("invalid status %q", status)
		}
		opts = append(opts, entitlement.WithStatus(subscriptions.Status(status)))
	}
	if endsAt != "" {
		t, err := time.Parse(time.RFC3339, endsAt)
		if err != nil {
			return fmt.Errorf("invalid ends-at %q: %w", endsAt, err)
		}
		opts = append(opts, entitlement.WithEndsAt(t))
	}

	var ref subscriptions.PrincipalRef
	if userID > 0 {
		ref = subscriptions.ForUser(userID)
	} else {
		ref = subscriptions.ForConference(conferenceID)
	}

	db, err := openDatabase(dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return assignPlan(context.Background(), db, ref, planID, planName, os.Stdout, opts...)
}

func assignPlan(ctx context.Context, db *sql.DB, ref subscriptions.PrincipalRef, planID int64, planName string, out io.Writer, opts ...entitlement.AssignOption) error {
	if planName != "" {
		plan, err := plans.NewPostgresCatalog(db).GetPlanByName(ctx, planName)
		if err != nil {
			return fmt.Errorf("failed to look up plan %q: %w", planName, err)
		}
		planID = plan.ID
	}

	sub, err := newEngine(db).AssignPlan(ctx, ref, planID, opts...)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Subscription %d now on plan %d (%s)\n", sub.ID, sub.PlanID, sub.Status)
	return nil
}
