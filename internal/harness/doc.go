// Package harness runs check-in conformance scenarios.
//
// A scenario is a YAML file that seeds the record store and then drives a
// registration form and a verification screen through user intents:
//
//	name: duplicate_rejected
//	description: A second registration with a taken ID fails.
//	seed:
//	  - user_id: 1
//	    full_name: Ada Lovelace
//	steps:
//	  - action: edit
//	    field: user_id
//	    value: "1"
//	    expect:
//	      warning: "Warning: User ID 1 already exists. Please use a different ID."
//	  - action: submit
//	    expect:
//	      phase: failed
//
// Each scenario runs against a fresh in-memory SQLite store with fixed
// session IDs. Background duplicate checks are allowed to settle after
// every step, so the trace of snapshots is deterministic and can be
// compared against golden files (see RunWithGolden).
package harness
