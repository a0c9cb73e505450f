package aggregates

// Contract documents the guarantees an aggregate gives its callers.
type Contract struct {
	Name string
	// OwnsTx is true when every write method opens and commits its own transaction.
	OwnsTx bool
	// PerOwnerSerialized is true when writes for one owner never interleave.
	PerOwnerSerialized bool
	// LedgerBacked is true when every rollup move is also appended to the ledger.
	LedgerBacked bool
	Notes        string
}

// Aggregate is implemented by every write boundary.
type Aggregate interface {
	Contract() Contract
}
