// Package archive keeps completed simulation runs.
//
// Runs are held in memory and, when a RunPersistence is configured, written
// to disk as <dir>/<id>.json. Run IDs are UUIDs generated on Create.
//
// Concurrency:
//
// Manager is safe for concurrent use. Persistence failures are logged and
// never fail the caller's simulation.
//
// Expiry:
//
// CleanupExpiredRuns evicts runs older than a retention period from memory.
// Persisted runs remain on disk and are reloaded on demand.
//
// Usage:
//
//	store, err := archive.NewFilePersistence("runs")
//	if err != nil {
//		log.Fatal(err)
//	}
//	runs := archive.NewManagerWithPersistence(store, logger)
//	if err := runs.LoadPersistedRuns(); err != nil {
//		log.Fatal(err)
//	}
package archive
