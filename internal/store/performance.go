package store

import (
	"context"
	"database/sql"
	"fmt"

	"entgo.io/ent/dialect"
	entsql "entgo.io/ent/dialect/sql"

	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
)

var performanceSelectColumns = []string{
	"user_id", "operation", "num1", "num2", "answer",
	"attempts", "correct_attempts", "fast_correct_attempts", "consecutive_incorrect",
	"last_attempted_at",
}

// PerformanceRepo stores per-fact answer counters.
type PerformanceRepo struct {
	s *Store
}

// PerformanceRepo returns the performance repository.
func (s *Store) PerformanceRepo() *PerformanceRepo {
	return &PerformanceRepo{s: s}
}

var _ mastery.Repo = (*PerformanceRepo)(nil)

func scanPerformance(rows *sql.Rows) (mastery.Record, error) {
	var (
		r  mastery.Record
		op string
	)
	err := rows.Scan(
		&r.UserID, &op, &r.Fact.Num1, &r.Fact.Num2, &r.Answer,
		&r.Attempts, &r.CorrectAttempts, &r.FastCorrectAttempts, &r.ConsecutiveIncorrect,
		&r.LastAttemptedAt,
	)
	if err != nil {
		return r, fmt.Errorf("scan performance: %w", err)
	}
	r.Fact.Operation = problemgen.Operation(op)
	return r, nil
}

func factPredicate(userID string, f problemgen.Fact) *entsql.Predicate {
	return entsql.And(
		entsql.EQ("user_id", userID),
		entsql.EQ("operation", string(f.Operation)),
		entsql.EQ("num1", f.Num1),
		entsql.EQ("num2", f.Num2),
	)
}

// UpdatePerformance implements mastery.Repo. The read and the upsert run
// in one transaction; on Postgres the row is locked for the duration.
func (r *PerformanceRepo) UpdatePerformance(ctx context.Context, userID string, f problemgen.Fact, fn func(mastery.Record) mastery.Record) (mastery.Record, error) {
	var out mastery.Record
	err := r.s.withTx(ctx, func(tx *sql.Tx) error {
		b := r.s.builder()
		sel := b.Select(performanceSelectColumns...).
			From(b.Table(tablePerformance)).
			Where(factPredicate(userID, f))
		if r.s.dialect == dialect.Postgres {
			sel.ForUpdate()
		}

		var old mastery.Record
		found := false
		err := query(ctx, tx, sel, func(rows *sql.Rows) error {
			rec, err := scanPerformance(rows)
			old, found = rec, true
			return err
		})
		if err != nil {
			return fmt.Errorf("load performance: %w", err)
		}
		if !found {
			old = mastery.Record{UserID: userID, Fact: f, Answer: f.Answer()}
		}

		next := fn(old)
		next.UserID, next.Fact = userID, f

		ins := b.Insert(tablePerformance).
			Columns(performanceSelectColumns...).
			Values(
				next.UserID, string(f.Operation), f.Num1, f.Num2, next.Answer,
				next.Attempts, next.CorrectAttempts, next.FastCorrectAttempts, next.ConsecutiveIncorrect,
				next.LastAttemptedAt,
			).
			OnConflict(
				entsql.ConflictColumns("user_id", "operation", "num1", "num2"),
				entsql.ResolveWithNewValues(),
			)
		if _, err := exec(ctx, tx, ins); err != nil {
			return fmt.Errorf("upsert performance: %w", err)
		}
		out = next
		return nil
	})
	return out, err
}

// GetPerformance returns the record for (userID, fact), or nil.
func (r *PerformanceRepo) GetPerformance(ctx context.Context, userID string, f problemgen.Fact) (*mastery.Record, error) {
	b := r.s.builder()
	sel := b.Select(performanceSelectColumns...).
		From(b.Table(tablePerformance)).
		Where(factPredicate(userID, f))

	var out *mastery.Record
	err := query(ctx, r.s.db, sel, func(rows *sql.Rows) error {
		rec, err := scanPerformance(rows)
		out = &rec
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("get performance: %w", err)
	}
	return out, nil
}

// ListPerformance implements mastery.Repo.
func (r *PerformanceRepo) ListPerformance(ctx context.Context, userID string) ([]mastery.Record, error) {
	b := r.s.builder()
	sel := b.Select(performanceSelectColumns...).
		From(b.Table(tablePerformance)).
		Where(entsql.EQ("user_id", userID)).
		OrderBy("operation", "num1", "num2")
	return r.list(ctx, sel)
}

// ListAllPerformance returns every record of every user, for export.
func (r *PerformanceRepo) ListAllPerformance(ctx context.Context) ([]mastery.Record, error) {
	b := r.s.builder()
	sel := b.Select(performanceSelectColumns...).
		From(b.Table(tablePerformance)).
		OrderBy("user_id", "operation", "num1", "num2")
	return r.list(ctx, sel)
}

func (r *PerformanceRepo) list(ctx context.Context, sel *entsql.Selector) ([]mastery.Record, error) {
	var out []mastery.Record
	err := query(ctx, r.s.db, sel, func(rows *sql.Rows) error {
		rec, err := scanPerformance(rows)
		if err != nil {
			return err
		}
		out = append(out, rec)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list performance: %w", err)
	}
	return out, nil
}

// MasteryCounts returns the number of mastered facts per operation.
func (r *PerformanceRepo) MasteryCounts(ctx context.Context, userID string) (map[problemgen.Operation]int, error) {
	b := r.s.builder()
	sel := b.Select("operation", entsql.Count("*")).
		From(b.Table(tablePerformance)).
		Where(entsql.And(
			entsql.EQ("user_id", userID),
			entsql.GTE("fast_correct_attempts", mastery.MasteryThreshold),
		)).
		GroupBy("operation")

	out := map[problemgen.Operation]int{}
	err := query(ctx, r.s.db, sel, func(rows *sql.Rows) error {
		var (
			op string
			n  int
		)
		if err := rows.Scan(&op, &n); err != nil {
			return err
		}
		out[problemgen.Operation(op)] = n
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("mastery counts: %w", err)
	}
	return out, nil
}

// Reset deletes every row belonging to userID across all tables.
func (s *Store) Reset(ctx context.Context, userID string) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, table := range []string{tablePerformance, tableStreaks, tableBadges, tableGoals, tableSessions} {
			del := s.builder().Delete(table).Where(entsql.EQ("user_id", userID))
			if _, err := exec(ctx, tx, del); err != nil {
				return fmt.Errorf("reset %s: %w", table, err)
			}
		}
		return nil
	})
}
