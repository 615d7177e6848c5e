// Package services implements the business layer between the HTTP handlers
// and the analysis pipeline.
//
// # Available Services
//
//   - AnalysisService: owns analysis sessions, turns uploaded workbooks into
//     a reconciled dataset and answers filter, summary and export requests
//   - HealthService: reports liveness, readiness and version information
//
// # Sessions
//
// A session holds at most one claims (klaim) and one outstanding (os)
// workbook. Each upload replaces the previous workbook for its source and,
// once both are present, triggers a rebuild of the merged dataset. Rebuilds
// are versioned: a build started for an older upload is discarded when it
// finishes after a newer one. Sessions expire after the configured idle
// TTL and every request slides the expiry forward.
//
// # Error Handling
//
// Services return the sentinels in errors.go, or the pipeline's SchemaError
// and LoadError, wrapped with context. Handlers map them to problem
// responses with errors.Is and errors.As:
//
//	resp, err := svc.Query(ctx, id, req)
//	if errors.Is(err, services.ErrDatasetNotReady) {
//	    // both workbooks have not been uploaded yet
//	}
//
// # Events
//
// Progress is published through the EventPublisher interface, which the
// websocket hub implements. Tests pass nil to get a no-op publisher.
package services
