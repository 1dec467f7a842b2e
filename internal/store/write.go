package store

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/roach88/checkin/internal/participant"
)

// Upsert inserts p or replaces the record sharing p.UserID.
// Replacing is not an error; duplicate detection belongs to the caller.
//
// Watchers of p.UserID receive the new version after the write commits.
func (s *Store) Upsert(ctx context.Context, p participant.Participant) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO participants
		(user_id, full_name, title, registration_type, photo_path)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id) DO UPDATE SET
			full_name = excluded.full_name,
			title = excluded.title,
			registration_type = excluded.registration_type,
			photo_path = excluded.photo_path
	`,
		p.UserID,
		p.FullName,
		string(p.Title),
		int(p.RegistrationType),
		nullString(p.PhotoPath),
	)
	if err != nil {
		return fmt.Errorf("upsert participant %d: %w", p.UserID, err)
	}

	s.watch.publish(p)
	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
