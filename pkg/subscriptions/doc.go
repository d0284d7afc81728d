// Package subscriptions persists time-bounded bindings of principals to plans.
//
// # Overview
//
// A Subscription ties exactly one principal (a user account or a conference,
// never both) to a plan with a lifecycle status. Rows are never hard-deleted;
// expiry and cancellation are status transitions written by the billing
// pipeline, which this package only reads back.
//
// The resolver in pkg/entitlement treats a subscription as current when its
// status is active or trial and its end date is unset or has not passed.
// Several current rows for one principal should not happen under correct
// write discipline but are tolerated: the most recently created row wins.
//
// # Usage
//
//	store := subscriptions.NewPostgresStore(db)
//	sub, err := store.Current(ctx, subscriptions.ForConference(confID), time.Now())
//	if err == subscriptions.ErrSubscriptionNotFound {
//		// principal has no current subscription; resolver falls back
//	}
//
// # Related Packages
//
//   - pkg/plans: the plan definitions subscriptions point at
//   - pkg/entitlement: the fallback chain that consumes this store
package subscriptions
