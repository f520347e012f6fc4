package problemgen

import (
	"errors"
	"testing"
)

func TestParseAnswer(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr error
	}{
		{"7", 7, nil},
		{" 42 ", 42, nil},
		{"07", 7, nil},
		{"", 0, ErrEmptyAnswer},
		{"   ", 0, ErrEmptyAnswer},
		{"100", 0, ErrAnswerTooLong},
		{"-1", 0, ErrAnswerNotDigit},
		{"4a", 0, ErrAnswerNotDigit},
	}

	for _, tt := range tests {
		got, err := ParseAnswer(tt.input)
		if !errors.Is(err, tt.wantErr) {
			t.Errorf("ParseAnswer(%q) err = %v, want %v", tt.input, err, tt.wantErr)
			continue
		}
		if got != tt.want {
			t.Errorf("ParseAnswer(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestCheck(t *testing.T) {
	q := Question{Fact: Fact{Operation: OpMultiplication, Num1: 6, Num2: 7}, Answer: 42}
	if !Check(q, 42) {
		t.Error("42 should be correct")
	}
	if Check(q, 41) {
		t.Error("41 should be incorrect")
	}
}

func TestFact(t *testing.T) {
	f := Fact{Operation: OpDivision, Num1: 12, Num2: 3}
	if got := f.Key(); got != "division:12:3" {
		t.Errorf("Key() = %q", got)
	}
	if got := f.String(); got != "12 ÷ 3" {
		t.Errorf("String() = %q", got)
	}
	if got := f.Answer(); got != 4 {
		t.Errorf("Answer() = %d, want 4", got)
	}

	// Operand order is part of the identity.
	a := Fact{Operation: OpAddition, Num1: 3, Num2: 5}
	b := Fact{Operation: OpAddition, Num1: 5, Num2: 3}
	if a.Key() == b.Key() {
		t.Error("3+5 and 5+3 must be distinct facts")
	}
}

func TestParseOperation(t *testing.T) {
	for _, op := range AllOperations {
		got, err := ParseOperation(string(op))
		if err != nil || got != op {
			t.Errorf("ParseOperation(%q) = %q, %v", op, got, err)
		}
		if op.Symbol() == "" {
			t.Errorf("%s has no symbol", op)
		}
	}
	if _, err := ParseOperation("exponent"); !errors.Is(err, ErrUnknownOperation) {
		t.Errorf("err = %v, want ErrUnknownOperation", err)
	}
}
