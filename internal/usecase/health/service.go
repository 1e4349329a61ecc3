// Package health reports liveness of the index engine and model servers.
package health

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"
)

// Status is the overall verdict served on /health.
type Status string

// A failing model server only degrades the service; the engine is required.
const (
	Healthy   Status = "ok"
	Degraded  Status = "degraded"
	Unhealthy Status = "error"
)

// CheckResult is the outcome of one component probe.
type CheckResult string

const (
	CheckOK    CheckResult = "ok"
	CheckError CheckResult = "error"
)

// Keys of Report.Checks.
const (
	ComponentDatabase  = "database"
	ComponentEmbedding = "embedding"
	ComponentFaces     = "faces"
)

// DefaultProbeTimeout bounds each component probe.
const DefaultProbeTimeout = 5 * time.Second

// Report is the result of one Check call.
type Report struct {
	Status Status
	Checks map[string]CheckResult
}

type probe struct {
	name string
	run  func(context.Context) error
}

// Service probes every configured component concurrently.
type Service struct {
	probes  []probe
	timeout time.Duration
}

// New creates a Service. embedding and faces may be nil, in which case
// they are left out of the report.
func New(db DBPinger, embedding, faces Checker) *Service {
	s := &Service{timeout: DefaultProbeTimeout}
	s.probes = append(s.probes, probe{ComponentDatabase, db.Ping})
	if embedding != nil {
		s.probes = append(s.probes, probe{ComponentEmbedding, embedding.HealthCheck})
	}
	if faces != nil {
		s.probes = append(s.probes, probe{ComponentFaces, faces.HealthCheck})
	}
	return s
}

// Check runs all probes and folds them into a Report.
func (s *Service) Check(ctx context.Context) Report {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	// Probes report through results; none aborts the others.
	results := make([]CheckResult, len(s.probes))
	var g errgroup.Group
	for i, p := range s.probes {
		g.Go(func() error {
			results[i] = CheckOK
			if err := p.run(ctx); err != nil {
				results[i] = CheckError
			}
			return nil
		})
	}
	_ = g.Wait()

	report := Report{Status: Healthy, Checks: make(map[string]CheckResult, len(s.probes))}
	for i, p := range s.probes {
		report.Checks[p.name] = results[i]
		if results[i] == CheckOK {
			continue
		}
		if p.name == ComponentDatabase {
			report.Status = Unhealthy
		} else if report.Status == Healthy {
			report.Status = Degraded
		}
	}
	return report
}
