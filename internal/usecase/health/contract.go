package health

import "context"

// DBPinger checks database availability.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// IndexChecker reports whether a recommendation index has been published.
type IndexChecker interface {
	Ready() bool
}
