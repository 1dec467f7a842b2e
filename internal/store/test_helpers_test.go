package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/checkin/internal/participant"
)

// createTestStore creates a new file-backed store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestParticipant creates a record with minimal required fields.
func createTestParticipant(id int, name string, regType participant.RegistrationType) participant.Participant {
	return participant.Participant{
		UserID:           id,
		FullName:         name,
		Title:            participant.TitleDr,
		RegistrationType: regType,
	}
}

func strPtr(s string) *string { return &s }
