// Package store provides the participant record table.
//
// Two engines implement the same contract:
//   - Store: SQLite-backed, durable (or ephemeral with path ":memory:")
//   - Memory: process-local map, for tests and throwaway sessions
//
// # Contract
//
//   - Upsert replaces any record sharing the UserID; writing the same record
//     twice leaves the table unchanged
//   - GetByID reports absence as (zero, false, nil), never as an error
//   - ExistsByID answers without materialising the record
//   - Watch streams the current record for an ID and every later version
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
//   - Single connection: one writer, no SQLITE_BUSY between our own calls
//
// Records handed out by either engine are copies. Mutating them does not
// affect the table.
package store
