package problemgen

import (
	"errors"
	"strconv"
	"strings"
)

// MaxAnswerDigits bounds learner input. Every answer in the level catalog
// fits in two digits.
const MaxAnswerDigits = 2

var (
	ErrEmptyAnswer    = errors.New("empty answer")
	ErrAnswerTooLong  = errors.New("answer has too many digits")
	ErrAnswerNotDigit = errors.New("answer must contain only digits")
)

// ParseAnswer converts learner input into an integer. Surrounding
// whitespace is ignored; anything other than 1-2 digits is rejected.
func ParseAnswer(input string) (int, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return 0, ErrEmptyAnswer
	}
	if len(input) > MaxAnswerDigits {
		return 0, ErrAnswerTooLong
	}
	for _, r := range input {
		if r < '0' || r > '9' {
			return 0, ErrAnswerNotDigit
		}
	}
	return strconv.Atoi(input)
}

// Check reports whether answer is the correct result for q.
func Check(q Question, answer int) bool {
	return answer == q.Answer
}
