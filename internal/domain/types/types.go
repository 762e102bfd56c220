// Package types contains common types used across the application
package types

// Result is one contest's row in a participant lookup. Every number is null
// when unknown.
type Result struct {
	Contest           string `json:"contest"`
	Rank              *int   `json:"rank"`
	Perf              *int   `json:"perf"`
	ExtendedRank      *int   `json:"extended_rank"`
	ExtendedEquivRank *int   `json:"extended_equiv_rank"`
	ExtendedEquivPerf *int   `json:"extended_equiv_perf"`
}

// Stats is the payload served on /stats.
type Stats struct {
	QueriesServed   int64  `json:"queries_served"`
	CatalogSize     int    `json:"catalog_size"`
	Source          string `json:"source"`
	Concurrency     int    `json:"lookup_concurrency"`
	UptimeSeconds   int64  `json:"uptime_seconds"`
	LastQueryMillis int64  `json:"last_query_ms"`
}
