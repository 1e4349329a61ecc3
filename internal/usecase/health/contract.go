package health

import "context"

// DBPinger is the index engine connection.
type DBPinger interface {
	Ping(ctx context.Context) error
}

// Checker is a model server (embedding or face detection).
type Checker interface {
	HealthCheck(ctx context.Context) error
}
