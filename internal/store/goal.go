package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathdrill/internal/goals"
	"github.com/abhisek/mathdrill/internal/streak"
)

// GoalRepo stores daily goal progress.
type GoalRepo struct {
	s *Store
}

// GoalRepo returns the daily goal repository.
func (s *Store) GoalRepo() *GoalRepo {
	return &GoalRepo{s: s}
}

var _ goals.Repo = (*GoalRepo)(nil)

func (r *GoalRepo) selectGoal(userID string, day streak.Date) *entsql.Selector {
	b := r.s.builder()
	return b.Select("target", "current").
		From(b.Table(tableGoals)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.EQ("day", day.String()),
		))
}

func (r *GoalRepo) load(ctx context.Context, q querier, sel *entsql.Selector, userID string, day streak.Date) (*goals.Goal, error) {
	var out *goals.Goal
	err := query(ctx, q, sel, func(rows *sql.Rows) error {
		g := goals.Goal{UserID: userID, Day: day}
		if err := rows.Scan(&g.Target, &g.Current); err != nil {
			return err
		}
		out = &g
		return nil
	})
	return out, err
}

// GetGoal implements goals.Repo.
func (r *GoalRepo) GetGoal(ctx context.Context, userID string, day streak.Date) (*goals.Goal, error) {
	g, err := r.load(ctx, r.s.db, r.selectGoal(userID, day), userID, day)
	if err != nil {
		return nil, fmt.Errorf("get goal: %w", err)
	}
	return g, nil
}

// IncrementGoal implements goals.Repo.
func (r *GoalRepo) IncrementGoal(ctx context.Context, userID string, day streak.Date, target, delta int) (before, after goals.Goal, err error) {
	err = r.s.withTx(ctx, func(tx *sql.Tx) error {
		sel := r.selectGoal(userID, day)
		if r.s.dialect == dialect.Postgres {
			sel.ForUpdate()
		}
		prev, err := r.load(ctx, tx, sel, userID, day)
		if err != nil {
			return fmt.Errorf("load goal: %w", err)
		}
		if prev == nil {
			prev = &goals.Goal{UserID: userID, Day: day, Target: target}
		}

		before = *prev
		after = before
		after.Current = min(before.Current+delta, before.Target)

		ins := r.s.builder().Insert(tableGoals).
			Columns("user_id", "day", "target", "current", "updated_at").
			Values(userID, day.String(), after.Target, after.Current, now()).
			OnConflict(
				entsql.ConflictColumns("user_id", "day"),
				entsql.ResolveWith(func(u *entsql.UpdateSet) {
					u.SetExcluded("current")
					u.SetExcluded("updated_at")
				}),
			)
		if _, err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("upsert goal: %w", err)
		}
		return nil
	})
	return before, after, err
}
