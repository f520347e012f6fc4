package store

import (
	"context"
	"database/sql"
	"fmt"

	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathdrill/internal/streak"
)

// StreakRepo stores one streak row per user. Writes are conditional so
// concurrent session completions cannot both advance the same day.
type StreakRepo struct {
	s *Store
}

// StreakRepo returns the streak repository.
func (s *Store) StreakRepo() *StreakRepo {
	return &StreakRepo{s: s}
}

var _ streak.Repo = (*StreakRepo)(nil)

// GetStreak implements streak.Repo.
func (r *StreakRepo) GetStreak(ctx context.Context, userID string) (*streak.State, error) {
	b := r.s.builder()
	sel := b.Select("user_id", "current_streak", "longest_streak", "last_practice_date", "updated_at").
		From(b.Table(tableStreaks)).
		Where(entsql.EQ("user_id", userID))

	var out *streak.State
	err := query(ctx, r.s.db, sel, func(rows *sql.Rows) error {
		var (
			st   streak.State
			last string
		)
		if err := rows.Scan(&st.UserID, &st.CurrentStreak, &st.LongestStreak, &last, &st.UpdatedAt); err != nil {
			return err
		}
		d, err := streak.ParseDate(last)
		if err != nil {
			// An unreadable date counts as no valid date, which resets
			// the streak on the next completion.
			d = streak.Date{}
		}
		st.LastPracticeDate = d
		out = &st
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("get streak: %w", err)
	}
	return out, nil
}

// InsertStreak implements streak.Repo.
func (r *StreakRepo) InsertStreak(ctx context.Context, st streak.State) (bool, error) {
	ins := r.s.builder().Insert(tableStreaks).
		Columns("user_id", "current_streak", "longest_streak", "last_practice_date", "updated_at").
		Values(st.UserID, st.CurrentStreak, st.LongestStreak, st.LastPracticeDate.String(), r.updatedAt(st)).
		OnConflict(entsql.ConflictColumns("user_id"), entsql.DoNothing())

	n, err := exec(ctx, r.s.db, ins)
	if err != nil {
		return false, fmt.Errorf("insert streak: %w", err)
	}
	return n == 1, nil
}

// SwapStreak implements streak.Repo.
func (r *StreakRepo) SwapStreak(ctx context.Context, st streak.State, expectedLast streak.Date) (bool, error) {
	upd := r.s.builder().Update(tableStreaks).
		Set("current_streak", st.CurrentStreak).
		Set("longest_streak", st.LongestStreak).
		Set("last_practice_date", st.LastPracticeDate.String()).
		Set("updated_at", r.updatedAt(st)).
		Where(entsql.And(
			entsql.EQ("user_id", st.UserID),
			entsql.EQ("last_practice_date", expectedLast.String()),
		))

	n, err := exec(ctx, r.s.db, upd)
	if err != nil {
		return false, fmt.Errorf("swap streak: %w", err)
	}
	return n == 1, nil
}

func (r *StreakRepo) updatedAt(st streak.State) any {
	if st.UpdatedAt.IsZero() {
		return now()
	}
	return st.UpdatedAt.UTC()
}
