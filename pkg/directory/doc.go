// Package directory provides read-only lookups against the account,
// conference and participant tables.
//
// The entitlement resolver uses it for the admin-account indirection (a
// conference without its own subscription inherits from its first listed
// administrator) and for the participant precondition on per-user meeting
// checks. Account and participant lifecycles are owned elsewhere; this
// package never writes.
package directory
