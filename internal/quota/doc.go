// Package quota tracks per-owner consumption against tier-based limits
// and performs admission control for the enrichment pipeline. The ledger
// is pure in-memory state plus arithmetic; admission is an atomic
// check-and-increment under a per-owner lock so no transient limit
// violation is ever observable, even with concurrent workers across
// simultaneous jobs for the same owner.
package quota
