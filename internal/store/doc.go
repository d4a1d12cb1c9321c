// Package store defines the persistence port for the attendance system.
//
// Two adapters implement the port:
//   - store/sqlite: embedded SQLite with native joins, aggregates and
//     ON DELETE CASCADE foreign keys.
//   - store/rest: a remote table API without joins or cascades; both are
//     emulated in application code.
//
// # Contract
//
// Results and errors are adapter-agnostic. Given identical underlying data,
// both adapters must produce byte-for-byte equivalent report rows, stats
// and daily stats, despite computing them very differently. Report ordering
// is fixed: session date descending, session name ascending, record
// timestamp ascending.
//
// Cascade: deleting a student removes its face encoding, voice embedding
// and attendance rows; deleting a session removes its attendance rows.
// Artifact saves are upserts keyed by student id - exactly one row per
// student per artifact type at all times.
//
// Errors are *model.Error values. Missing entities are CodeNotFound,
// duplicate external student ids are CodeConflict, and a partial cascade
// failure in the rest adapter is CodeUnknown, never silent success.
package store
