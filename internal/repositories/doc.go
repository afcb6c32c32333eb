// Package repositories implements SQLite persistence for the delivery journal.
//
// Key Implementations:
//   - [DeliveryRepository] : append-only journal of relayed events
//   - [JournalAdapter] : bus subscriber that writes a delivery per event
//
// Sequence numbers provide stable, human-readable ordering (e.g., delivery #42) independent of UUIDs and timestamps.
// The [NextSequence] function atomically increments per-table sequence counters in dedicated sequence tables.
package repositories
