// Package build drives opactx commands over a project directory.
//
// A build runs six stages in order:
//
//	load_config -> load_intent -> fetch_sources -> normalize -> validate_schema -> write_bundle
//
// and stops at the first failure. Each stage reports started, completed or
// failed events to an optional Observer, records Prometheus metrics when a
// collector is configured and logs through zerolog. A failed stage returns a
// *StageError carrying the stage id and a stable error code.
//
// The package also implements project validation (Runner.Validate), bundle
// inspection (Runner.Inspect), schema compilation (Runner.Compile) and
// rebuild-on-change (Runner.Watch).
package build
