// Package analytics implements the statistical layer over historical store
// performance: tier clustering, attribute correlation, time patterns,
// top/bottom performers and corpus summaries.
//
// The Engine only reads. It depends on the Repository interface defined in
// this package; the PostgreSQL implementation lives in repository/postgres/
// and the Redis read-through decorator in repository/rediscache/. All
// aggregation is done by the pure functions in aggregate.go so it can be
// tested without a database.
package analytics
