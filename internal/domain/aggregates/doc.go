// Package aggregates defines the write-boundary contracts of the tracker and
// the error taxonomy they return. Implementations live in internal/data/aggregates.
package aggregates
