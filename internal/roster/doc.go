// Package roster loads participant rosters for bulk import.
//
// A roster is a YAML document:
//
//	participants:
//	  - user_id: 1001
//	    full_name: Ada Lovelace
//	    title: Dr.
//	    registration_type: student
//	    photo_path: /photos/1001.jpg
//
// The document is decoded strictly (unknown keys are errors) and then
// unified with an embedded CUE schema that pins the title set, the
// registration-type names and the defaults for omitted fields. The result
// is a list of participant.Draft values ready for checkin.Service.Import.
package roster
