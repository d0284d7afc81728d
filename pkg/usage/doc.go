// Package usage supplies live resource counts for quota checks.
//
// Counts are read fresh at check time from the resource tables themselves,
// keeping the window between a quota check and the following insert as small
// as possible. The evaluator in pkg/entitlement never queries storage
// directly; it is handed counts from here (or from any other implementation
// of its UsageSource interface).
//
// Conference counting follows the historical convention of unioning
// creator-linked rows (matched by external account identifier) with
// admin-linked rows (matched by internal account id), de-duplicated by
// conference id.
package usage
