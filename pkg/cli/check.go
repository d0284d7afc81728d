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
	"github.com/eventlane/eventlane/pkg/plans"
)

func newCheckCommand() *Command {
	cmd := &Command{
		Name:        "check",
		Description: "Check whether a resource may be created under the effective plan",
		Flags:       flag.NewFlagSet("check", flag.ExitOnError),
		Run:         runCheck,
	}

	cmd.Flags.String("db-url", defaultDatabaseURL(), "PostgreSQL connection URL")
	cmd.Flags.String("resource", "", "Resource kind: conference, participant, poll, question or meeting")
	cmd.Flags.Int64("conference", 0, "Conference ID the resource belongs to")
	cmd.Flags.Int64("account", 0, "Account ID of the acting user")
	cmd.Flags.String("external-id", "", "External account ID (alternative to -account)")

	return cmd
}

func runCheck(args []string) error {
	cmd := newCheckCommand()
	if err := cmd.Flags.Parse(args); err != nil {
		return err
	}

	dbURL := cmd.Flags.Lookup("db-url").Value.String()
	resource := plans.ResourceKind(cmd.Flags.Lookup("resource").Value.String())
	conferenceID, _ := strconv.ParseInt(cmd.Flags.Lookup("conference").Value.String(), 10, 64)
	accountID, _ := strconv.ParseInt(cmd.Flags.Lookup("account").Value.String(), 10, 64)
	externalID := cmd.Flags.Lookup("external-id").Value.String()

	switch resource {
	case plans.ResourceConference:
		if accountID <= 0 && externalID == "" {
			return fmt.Errorf("-account or -external-id is required for conference checks")
		}
	case plans.ResourceParticipant, plans.ResourcePoll, plans.ResourceQuestion:
		if conferenceID <= 0 {
			return fmt.Errorf("-conference is required for %s checks", resource)
		}
	case plans.ResourceMeeting:
		if conferenceID <= 0 {
			return fmt.Errorf("-conference is required for meeting checks")
		}
	default:
		return fmt.Errorf("unknown resource %q (expected conference, participant, poll, question or meeting)", resource)
	}

	db, err := openDatabase(dbURL)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	return checkResource(context.Background(), db, resource, conferenceID, accountID, externalID, os.Stdout)
}

func checkResource(ctx context.Context, db *sql.DB, resource plans.ResourceKind, conferenceID, accountID int64, externalID string, out io.Writer) error {
	if externalID != "" {
		account, err := directory.NewPostgresDirectory(db).AccountByExternalID(ctx, externalID)
		if err != nil {
			return fmt.Errorf("failed to look up account %q: %w", externalID, err)
		}
		accountID = account.ID
	}

	engine := newEngine(db)

	var (
		result *entitlement.CheckResult
		err    error
	)
	switch resource {
	case plans.ResourceConference:
		result, err = engine.CanCreateConference(ctx, accountID)
	case plans.ResourceParticipant:
		result, err = engine.CanAddParticipant(ctx, conferenceID)
	case plans.ResourcePoll:
		result, err = engine.CanCreatePoll(ctx, conferenceID)
	case plans.ResourceQuestion:
		result, err = engine.CanCreateQuestion(ctx, conferenceID)
	case plans.ResourceMeeting:
		if accountID > 0 {
			result, err = engine.CanUserCreateMeeting(ctx, conferenceID, accountID)
		} else {
			result, err = engine.CanCreateMeeting(ctx, conferenceID)
		}
	}
	if err != nil {
		return err
	}

	// A denial is a result, not a failure: print it and exit zero.
	data, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode check result: %w", err)
	}

	fmt.Fprintln(out, string(data))
	return nil
}
