// Package csvio translates between CSV text and ledger types: transaction
// records on the way in, account rows on the way out.
package csvio
