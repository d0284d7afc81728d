// Package cli provides the Eventlane command-line interface for plan and
// subscription administration.
//
// # Overview
//
// This package implements the `eventlane-admin` CLI tool for operators to
// apply migrations, maintain the plan catalog, assign subscriptions, and
// inspect effective plans and quota decisions from the terminal.
//
// # Commands
//
// migrate: Apply pending database migrations
//
//	eventlane-admin migrate \
//		-db-url "postgres://localhost/eventlane?sslmode=disable"
//
// seed-plans: Upsert the plan catalog from a YAML seed file
//
//	eventlane-admin seed-plans \
//		-file ./config/plans.yaml
//
// list-plans: List active plans with prices and limits
//
//	eventlane-admin list-plans
//
// upsert-plan: Create or update a single plan
//
//	eventlane-admin upsert-plan \
//		-name pro \
//		-display-name "Pro" \
//		-price-cents 4900 \
//		-limits "conference=10,participant=500,meeting=-1" \
//		-features "pollsEnabled,meetingsEnabled"
//
// assign-plan: Assign a plan to a user or conference
//
//	eventlane-admin assign-plan -user 42 -plan-name pro
//	eventlane-admin assign-plan -conference 7 -plan 3 \
//		-status trial \
//		-ends-at 2026-12-31T23:59:59Z
//
// resolve: Resolve the effective plan for a principal
//
//	eventlane-admin resolve -kind user -id 42
//	eventlane-admin resolve -kind user -external-id "auth0|5f1e"
//	eventlane-admin resolve -kind conference -id 7
//
// check: Run a quota check and print the decision
//
//	eventlane-admin check -resource conference -account 42
//	eventlane-admin check -resource participant -conference 7
//	eventlane-admin check -resource meeting -conference 7 -account 42
//
// A denied check prints the decision with "allowed": false and a reason
// code; the command still exits zero because a denial is a result, not a
// failure.
//
// # Configuration
//
// Database URL:
//
//	export DATABASE_URL="postgres://localhost/eventlane?sslmode=disable"
//	# Or use the -db-url flag on any command
//
// # Related Packages
//
//   - pkg/entitlement: Resolves plans and evaluates quota checks
//   - pkg/plans: Plan catalog and seed files
//   - pkg/storage: Connection handling and migrations
package cli
