package export

import (
	"bytes"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/abhisek/mathdrill/internal/levels"
	"github.com/abhisek/mathdrill/internal/mastery"
	"github.com/abhisek/mathdrill/internal/problemgen"
)

func rec(op problemgen.Operation, a, b, attempts, correct, fast, wrongRun int) mastery.Record {
	f := problemgen.Fact{Operation: op, Num1: a, Num2: b}
	return mastery.Record{
		UserID:               "kid-1",
		Fact:                 f,
		Answer:               f.Answer(),
		Attempts:             attempts,
		CorrectAttempts:      correct,
		FastCorrectAttempts:  fast,
		ConsecutiveIncorrect: wrongRun,
		LastAttemptedAt:      time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC),
	}
}

func TestWrite(t *testing.T) {
	catalog, err := levels.Parse([]byte(`
- id: add-tiny
  name: Tiny sums
  operation: addition
  min: 0
  max: 1
`))
	require.NoError(t, err)

	data := Data{
		UserID:      "kid-1",
		GeneratedAt: time.Date(2026, 2, 2, 0, 0, 0, 0, time.UTC),
		Catalog:     catalog,
		Records: []mastery.Record{
			rec(problemgen.OpMultiplication, 3, 4, 2, 0, 0, 2),
			rec(problemgen.OpAddition, 1, 1, 6, 6, 5, 0),
			rec(problemgen.OpAddition, 0, 1, 3, 2, 1, 0),
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Write(&buf, data))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	assert.Equal(t, []string{SheetLevels, SheetFacts}, f.GetSheetList())

	levelRows, err := f.GetRows(SheetLevels)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(levelRows), 2)
	assert.Equal(t, []string{"Level", "Operation", "Range", "Facts", "Mastered", "Mastered %"}, levelRows[0])
	assert.Equal(t, []string{"Tiny sums", "addition", "0-1", "4", "1", "25"}, levelRows[1])
	assert.Equal(t, []string{"Learner", "kid-1"}, levelRows[3])

	factRows, err := f.GetRows(SheetFacts)
	require.NoError(t, err)
	require.Len(t, factRows, 4)
	assert.Equal(t, "Operation", factRows[0][0])

	// Sorted by operation order, then operands.
	assert.Equal(t, []string{"addition", "0 + 1", "1", "3", "2", "1", "0", "66.7", "learning", "2026-02-01T09:30:00Z"}, factRows[1])
	assert.Equal(t, "1 + 1", factRows[2][1])
	assert.Equal(t, "mastered", factRows[2][8])
	assert.Equal(t, "3 × 4", factRows[3][1])
	assert.Equal(t, "struggling", factRows[3][8])
}

func TestWrite_NoRecords(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, Data{UserID: "kid-2", Catalog: levels.Default()}))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	factRows, err := f.GetRows(SheetFacts)
	require.NoError(t, err)
	assert.Len(t, factRows, 1)
}
