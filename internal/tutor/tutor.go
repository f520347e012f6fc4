// Package tutor answers free-form math questions and explains mental
// math strategies for a single fact.
package tutor

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/logging"
	"github.com/abhisek/mathdrill/internal/problemgen"
)

const (
	PurposeAsk  = "ask-question"
	PurposeHelp = "question-help"

	askMaxTokens  = 500
	helpMaxTokens = 350
	temperature   = 0.7

	// MaxStrategies caps the strategies kept from one reply.
	MaxStrategies = 3

	// MaxQuestionLength caps free-form questions.
	MaxQuestionLength = 1000

	DefaultCacheTTL = 24 * time.Hour
)

var (
	ErrEmptyQuestion   = errors.New("question is required")
	ErrQuestionTooLong = errors.New("question is too long")
	ErrInvalidFact     = errors.New("invalid fact")
	ErrUnavailable     = errors.New("tutor is not configured")
)

// Strategy is one mental math approach.
type Strategy struct {
	Name        string `json:"name"`
	Explanation string `json:"explanation"`
	Example     string `json:"example"`
}

// Help explains one fact.
type Help struct {
	Fact       problemgen.Fact `json:"fact"`
	Strategies []Strategy      `json:"strategies"`
	Tip        string          `json:"tip"`
}

// Markdown renders h for display.
func (h Help) Markdown() string {
	var b strings.Builder
	fmt.Fprintf(&b, "**%s**\n\n", h.Fact)
	for i, s := range h.Strategies {
		fmt.Fprintf(&b, "%d. **%s**: %s\n", i+1, s.Name, s.Explanation)
		if s.Example != "" {
			fmt.Fprintf(&b, "   - %s\n", s.Example)
		}
	}
	if h.Tip != "" {
		fmt.Fprintf(&b, "\n%s\n", h.Tip)
	}
	return b.String()
}

// Tutor wraps a provider with prompts and caching. A nil provider makes
// every call return ErrUnavailable.
type Tutor struct {
	provider llm.Provider
	cache    Cache
	ttl      time.Duration
	log      *logging.Logger
}

type Option func(*Tutor)

// WithCache enables reply caching.
func WithCache(c Cache, ttl time.Duration) Option {
	return func(t *Tutor) {
		t.cache = c
		t.ttl = ttl
	}
}

func WithLogger(l *logging.Logger) Option {
	return func(t *Tutor) { t.log = l }
}

func New(provider llm.Provider, opts ...Option) *Tutor {
	t := &Tutor{provider: provider, ttl: DefaultCacheTTL}
	for _, o := range opts {
		o(t)
	}
	t.log = logging.OrNop(t.log).With("component", "tutor")
	return t
}

// Available reports whether a provider is configured.
func (t *Tutor) Available() bool {
	return t != nil && t.provider != nil
}

// AskQuestion answers a free-form question.
func (t *Tutor) AskQuestion(ctx context.Context, question string) (string, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return "", ErrEmptyQuestion
	}
	if len(question) > MaxQuestionLength {
		return "", ErrQuestionTooLong
	}
	if !t.Available() {
		return "", ErrUnavailable
	}

	key := "ask:" + digest(strings.ToLower(question))
	if v, ok := t.cached(ctx, key); ok {
		return v, nil
	}

	ctx = llm.WithPurpose(ctx, PurposeAsk)
	resp, err := t.provider.Generate(ctx, llm.Prompt(askSystemPrompt, question, askMaxTokens, temperature))
	if err != nil {
		return "", fmt.Errorf("ask question: %w", err)
	}
	answer := resp.Text()
	if answer == "" {
		return "", fmt.Errorf("ask question: %w", &llm.ErrInvalidResponse{Content: resp.Content, Err: errors.New("empty answer")})
	}
	t.store(ctx, key, answer)
	return answer, nil
}

// QuestionHelp explains mental math strategies for f.
func (t *Tutor) QuestionHelp(ctx context.Context, f problemgen.Fact) (Help, error) {
	if !f.Operation.Valid() || f.Num1 < 0 || f.Num2 < 0 ||
		(f.Operation == problemgen.OpDivision && f.Num2 == 0) {
		return Help{}, ErrInvalidFact
	}
	if !t.Available() {
		return Help{}, ErrUnavailable
	}

	key := "help:" + f.Key()
	if v, ok := t.cached(ctx, key); ok {
		var h Help
		if err := json.Unmarshal([]byte(v), &h); err == nil {
			return h, nil
		}
	}

	ctx = llm.WithPurpose(ctx, PurposeHelp)
	req := llm.Prompt(helpSystemPrompt, helpUserPrompt(f), helpMaxTokens, temperature)
	req.Schema = HelpSchema
	resp, err := t.provider.Generate(ctx, req)
	if err != nil {
		return Help{}, fmt.Errorf("question help: %w", err)
	}

	h := Help{Fact: f}
	if err := resp.Decode(&h); err != nil {
		return Help{}, fmt.Errorf("question help: %w", err)
	}
	h.Fact = f
	if len(h.Strategies) == 0 {
		return Help{}, fmt.Errorf("question help: %w", &llm.ErrInvalidResponse{Content: resp.Content, Err: errors.New("no strategies")})
	}
	if len(h.Strategies) > MaxStrategies {
		h.Strategies = h.Strategies[:MaxStrategies]
	}

	if b, err := json.Marshal(h); err == nil {
		t.store(ctx, key, string(b))
	}
	return h, nil
}

func (t *Tutor) cached(ctx context.Context, key string) (string, bool) {
	if t.cache == nil {
		return "", false
	}
	v, ok, err := t.cache.Get(ctx, key)
	if err != nil {
		t.log.Warn("tutor cache read failed", "key", key, "error", err)
		return "", false
	}
	return v, ok
}

func (t *Tutor) store(ctx context.Context, key, value string) {
	if t.cache == nil {
		return
	}
	if err := t.cache.Set(ctx, key, value, t.ttl); err != nil {
		t.log.Warn("tutor cache write failed", "key", key, "error", err)
	}
}

func digest(s string) string {
	sum := sha256.Sum256([]byte(s))
	return hex.EncodeToString(sum[:12])
}
