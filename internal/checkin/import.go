package checkin

import (
	"context"
	"log/slog"

	"github.com/roach88/checkin/internal/participant"
)

// ImportResult is the outcome for one roster entry.
type ImportResult struct {
	Index       int
	UserID      string
	Participant *participant.Participant
	Err         error
}

// ImportReport summarises a bulk import.
type ImportReport struct {
	Results  []ImportResult
	Imported int
	Failed   int
}

// Import registers each draft in order with the same rules as Register.
// A failing entry is recorded and the import continues; only a cancelled
// ctx stops it early, in which case the returned error is ctx.Err().
func (s *Service) Import(ctx context.Context, drafts []participant.Draft) (ImportReport, error) {
	report := ImportReport{Results: make([]ImportResult, 0, len(drafts))}

	for i, d := range drafts {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		res := ImportResult{Index: i, UserID: d.UserID}
		p, err := s.Register(ctx, d)
		if err != nil {
			res.Err = err
			report.Failed++
			s.logger.Warn("roster entry rejected",
				slog.Int("index", i),
				slog.String("user_id", d.UserID),
				slog.String("code", string(participant.CodeOf(err))),
			)
		} else {
			res.Participant = &p
			report.Imported++
		}
		report.Results = append(report.Results, res)
	}

	s.logger.Info("roster imported", "imported", report.Imported, "failed", report.Failed)
	return report, nil
}
