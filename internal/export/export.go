// Package export writes a learner's practice history as an xlsx workbook.
package export

import (
	"fmt"
	"io"
	"math"
	"sort"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/progress"
)

const (
	SheetLevels = "Levels"
	SheetFacts  = "Facts"
)

var (
	levelHeader = []any{"Level", "Operation", "Range", "Facts", "Mastered", "Mastered %"}
	factHeader  = []any{"Operation", "Fact", "Answer", "Attempts", "Correct", "Fast correct",
		"Wrong in a row", "Accuracy %", "Status", "Last attempted"}
)

// Data is what goes into one workbook.
type Data struct {
	UserID      string
	GeneratedAt time.Time
	Catalog     *levels.Catalog
	Records     []mastery.Record
}

// Write renders d as an xlsx workbook to w.
func Write(w io.Writer, d Data) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", SheetLevels); err != nil {
		return fmt.Errorf("rename sheet: %w", err)
	}
	if _, err := f.NewSheet(SheetFacts); err != nil {
		return fmt.Errorf("add sheet: %w", err)
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return fmt.Errorf("header style: %w", err)
	}

	if err := writeLevels(f, d, bold); err != nil {
		return err
	}
	if err := writeFacts(f, d.Records, bold); err != nil {
		return err
	}

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}

func writeLevels(f *excelize.File, d Data, headerStyle int) error {
	rows := [][]any{levelHeader}
	for _, lp := range progress.LevelBreakdown(d.Catalog, d.Records) {
		rows = append(rows, []any{
			lp.Level.Name,
			string(lp.Level.Operation),
			fmt.Sprintf("%d-%d", lp.Level.Min, lp.Level.Max),
			lp.Total,
			lp.Mastered,
			round1(lp.Percent),
		})
	}

	t := progress.Summarize(d.Records)
	rows = append(rows,
		[]any{},
		[]any{"Learner", d.UserID},
		[]any{"Generated", d.GeneratedAt.Format(time.RFC3339)},
		[]any{"Facts practiced", t.Facts},
		[]any{"Attempts", t.Attempts},
		[]any{"Accuracy %", round1(t.Accuracy * 100)},
	)

	if err := setRows(f, SheetLevels, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetLevels, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", SheetLevels, err)
	}
	return f.SetColWidth(SheetLevels, "A", "A", 24)
}

func writeFacts(f *excelize.File, recs []mastery.Record, headerStyle int) error {
	sorted := append([]mastery.Record(nil), recs...)
	sort.Slice(sorted, func(i, j int) bool {
		a, b := sorted[i].Fact, sorted[j].Fact
		if a.Operation != b.Operation {
			return opIndex(a.Operation) < opIndex(b.Operation)
		}
		if a.Num1 != b.Num1 {
			return a.Num1 < b.Num1
		}
		return a.Num2 < b.Num2
	})

	rows := [][]any{factHeader}
	for _, r := range sorted {
		last := ""
		if !r.LastAttemptedAt.IsZero() {
			last = r.LastAttemptedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, []any{
			string(r.Fact.Operation),
			r.Fact.String(),
			r.Fact.Answer(),
			r.Attempts,
			r.CorrectAttempts,
			r.FastCorrectAttempts,
			r.ConsecutiveIncorrect,
			round1(r.Accuracy() * 100),
			string(mastery.StatusOf(r.Flags())),
			last,
		})
	}

	if err := setRows(f, SheetFacts, rows); err != nil {
		return err
	}
	if err := f.SetRowStyle(SheetFacts, 1, 1, headerStyle); err != nil {
		return fmt.Errorf("style %s header: %w", SheetFacts, err)
	}
	return f.SetColWidth(SheetFacts, "J", "J", 22)
}

func setRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

func opIndex(op problemgen.Operation) int {
	for i, o := range problemgen.AllOperations {
		if o == op {
			return i
		}
	}
	return len(problemgen.AllOperations)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
