// Package aggregates implements the tracker's write boundaries.
//
// RecordLifecycle composes the table repos from internal/data/repos, owns the
// transaction for every write that moves a rollup, and appends each rollup
// delta to the ledger in that same transaction. RollupReplay rebuilds rollup
// rows from the ledger.
package aggregates
