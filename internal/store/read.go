package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/checkin/internal/participant"
)

// GetByID returns the record stored under id.
// Absence is reported as found=false with a nil error.
func (s *Store) GetByID(ctx context.Context, id int) (participant.Participant, bool, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT user_id, full_name, title, registration_type, photo_path
		FROM participants
		WHERE user_id = ?
	`, id)

	p, err := scanParticipant(row)
	if errors.Is(err, sql.ErrNoRows) {
		return participant.Participant{}, false, nil
	}
	if err != nil {
		return participant.Participant{}, false, fmt.Errorf("get participant %d: %w", id, err)
	}
	return p, true, nil
}

// ExistsByID reports whether a record is stored under id.
// Uses EXISTS so no columns are read.
func (s *Store) ExistsByID(ctx context.Context, id int) (bool, error) {
	var exists bool
	err := s.db.QueryRowContext(ctx,
		"SELECT EXISTS(SELECT 1 FROM participants WHERE user_id = ?)", id,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("check participant %d: %w", id, err)
	}
	return exists, nil
}

// Counts returns the number of records per registration tier.
// Tiers with no records are absent from the map.
func (s *Store) Counts(ctx context.Context) (map[participant.RegistrationType]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT registration_type, COUNT(*)
		FROM participants
		GROUP BY registration_type
		ORDER BY registration_type ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("query counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[participant.RegistrationType]int)
	for rows.Next() {
		var (
			regType int
			n       int
		)
		if err := rows.Scan(&regType, &n); err != nil {
			return nil, fmt.Errorf("scan counts: %w", err)
		}
		counts[participant.RegistrationType(regType)] = n
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate counts: %w", err)
	}
	return counts, nil
}

// scanParticipant reads one participants row.
func scanParticipant(row *sql.Row) (participant.Participant, error) {
	var (
		p       participant.Participant
		title   string
		regType int
		photo   sql.NullString
	)
	if err := row.Scan(&p.UserID, &p.FullName, &title, &regType, &photo); err != nil {
		return participant.Participant{}, err
	}
	p.Title = participant.Title(title)
	p.RegistrationType = participant.RegistrationType(regType)
	if photo.Valid {
		path := photo.String
		p.PhotoPath = &path
	}
	return p, nil
}
