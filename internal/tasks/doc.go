// Package tasks runs long container operations with progress reporting.
//
// # Bulk import
//
// [Importer.Import] places many containers at once. Rows are fed to a fixed worker pool, optionally paced by a rate
// limiter, and every row is reported in the [ImportResult] whether it was stored or not. A failing row never stops
// the others; duplicate numbers fail with [shared.ErrDuplicateKey] exactly as a single create would.
//
// # Progress Reporting
//
// Updates are sent as [ProgressUpdate] values on an optional channel. Sends use select with default, so a slow or
// absent reader never blocks the import.
package tasks
