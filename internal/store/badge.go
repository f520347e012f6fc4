package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathdrill/internal/badges"
)

// BadgeRepo remembers which badges a user has been notified about and
// exposes the mastery aggregates badge rules need.
type BadgeRepo struct {
	*PerformanceRepo
}

// BadgeRepo returns the badge repository.
func (s *Store) BadgeRepo() *BadgeRepo {
	return &BadgeRepo{PerformanceRepo: s.PerformanceRepo()}
}

var _ badges.Repo = (*BadgeRepo)(nil)

// EarnedBadges implements badges.Repo.
func (r *BadgeRepo) EarnedBadges(ctx context.Context, userID string) (map[string]bool, error) {
	b := r.s.builder()
	sel := b.Select("badge_id").
		From(b.Table(tableBadges)).
		Where(entsql.EQ("user_id", userID))

	out := map[string]bool{}
	err := query(ctx, r.s.db, sel, func(rows *sql.Rows) error {
		var id string
		if err := rows.Scan(&id); err != nil {
			return err
		}
		out[id] = true
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("earned badges: %w", err)
	}
	return out, nil
}

// MarkEarned implements badges.Repo. Already recorded ids are ignored.
func (r *BadgeRepo) MarkEarned(ctx context.Context, userID string, ids []string, at time.Time) error {
	if len(ids) == 0 {
		return nil
	}
	ins := r.s.builder().Insert(tableBadges).Columns("user_id", "badge_id", "earned_at")
	for _, id := range ids {
		ins.Values(userID, id, at.UTC())
	}
	ins.OnConflict(entsql.ConflictColumns("user_id", "badge_id"), entsql.DoNothing())

	if _, err := exec(ctx, r.s.db, ins); err != nil {
		return fmt.Errorf("mark earned: %w", err)
	}
	return nil
}
