// Package ledger holds the rules that decide how a single record changes
// account state. Evaluate never mutates anything: it reads the current state
// through a Reader and returns a Delta for the caller to commit, or a
// *domain.Error when the record is rejected.
//
// Checks run in a fixed order per record type. For deposits and withdrawals
// the duplicate id check runs before amount validation, so a replayed id is
// always reported as a duplicate.
package ledger
