// Package session implements the registration and verification state
// machines that sit between a display and the check-in service.
//
// ARCHITECTURE:
//
// State Container:
// Each machine owns one Container. Every mutation goes through the
// container's lock, is stamped with a monotonic revision, and is delivered
// to each subscriber in order. The display never holds a reference into
// machine state; it receives immutable snapshots.
//
// Asynchronous Checks:
// Editing the registration UserID starts a duplicate check keyed by the
// typed value. Checks are never cancelled by later edits. When a result
// arrives it is merged only if the draft still holds the value the check
// was issued for. Close cancels every in-flight check and any result that
// arrives afterwards is dropped.
//
// Lifecycle:
//
//	Registration: editing -> submitting -> succeeded | failed -> editing
//	Verification: idle -> searching -> found | not_found | error -> searching
//
// Service errors never escape a machine as errors; they become the
// ErrorMessage of the next snapshot. Machine methods only return errors for
// misuse (ErrClosed, ErrSubmitting) or invalid field input.
package session
