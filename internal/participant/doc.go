// Package participant defines the conference participant record and the
// rules that apply to it regardless of where it is stored.
//
// The package owns:
//   - Participant: the stored record keyed by integer UserID
//   - Draft: the unsaved text form of a registration
//   - Title and RegistrationType: the closed value sets
//   - DisplayCategory: the presentation class derived from a lookup result
//   - Error: the error taxonomy shared by the service and state machines
//
// Nothing here performs I/O.
package participant
