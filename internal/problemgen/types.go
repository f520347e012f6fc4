package problemgen

import (
	"fmt"
	"time"
)

// Operation is one of the four arithmetic operations drilled.
type Operation string

const (
	OpAddition       Operation = "addition"
	OpSubtraction    Operation = "subtraction"
	OpMultiplication Operation = "multiplication"
	OpDivision       Operation = "division"
)

// AllOperations lists the operations in display order.
var AllOperations = []Operation{OpAddition, OpSubtraction, OpMultiplication, OpDivision}

var operationSymbols = map[Operation]string{
	OpAddition:       "+",
	OpSubtraction:    "-",
	OpMultiplication: "×",
	OpDivision:       "÷",
}

// ParseOperation converts a stored or user-supplied name to an Operation.
func ParseOperation(s string) (Operation, error) {
	op := Operation(s)
	if _, ok := operationSymbols[op]; !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownOperation, s)
	}
	return op, nil
}

// Valid reports whether op is one of the known operations.
func (op Operation) Valid() bool {
	_, ok := operationSymbols[op]
	return ok
}

// Symbol returns the operator glyph, e.g. "×" for multiplication.
func (op Operation) Symbol() string {
	return operationSymbols[op]
}

// Fact identifies a question family by its exact operands. 3+5 and 5+3
// are different facts.
type Fact struct {
	Operation Operation `json:"operation"`
	Num1      int       `json:"num1"`
	Num2      int       `json:"num2"`
}

// Key returns a stable map key such as "addition:3:5".
func (f Fact) Key() string {
	return fmt.Sprintf("%s:%d:%d", f.Operation, f.Num1, f.Num2)
}

// Answer computes the correct result. Division by zero yields 0; the
// generator never produces it.
func (f Fact) Answer() int {
	switch f.Operation {
	case OpAddition:
		return f.Num1 + f.Num2
	case OpSubtraction:
		return f.Num1 - f.Num2
	case OpMultiplication:
		return f.Num1 * f.Num2
	case OpDivision:
		if f.Num2 == 0 {
			return 0
		}
		return f.Num1 / f.Num2
	}
	return 0
}

// String renders the fact as an expression, e.g. "7 × 8".
func (f Fact) String() string {
	return fmt.Sprintf("%d %s %d", f.Num1, f.Operation.Symbol(), f.Num2)
}

// Question is a generated instance of a Fact for one practice session.
// The answer fields are filled in as the learner responds.
type Question struct {
	ID     string `json:"id"`
	Fact   Fact   `json:"fact"`
	Answer int    `json:"answer"`

	Answered     bool          `json:"answered"`
	UserAnswer   int           `json:"user_answer,omitempty"`
	IsCorrect    bool          `json:"is_correct"`
	TimeToAnswer time.Duration `json:"time_to_answer,omitempty"`
}

// Text is the prompt shown to the learner.
func (q Question) Text() string {
	return q.Fact.String() + " = ?"
}
