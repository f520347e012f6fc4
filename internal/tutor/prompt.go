package tutor

import (
	"fmt"

	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/problemgen"
)

const askSystemPrompt = `You are a helpful math tutor. Your job is to explain mathematical concepts in a clear, concise way that is appropriate for elementary school students. Use simple language and examples when possible. If a question is not related to math, politely explain that you are a math tutor and can only answer math-related questions.`

const helpSystemPrompt = `You are a helpful elementary math tutor specializing in mental math strategies. Focus on teaching mental math fact strategies like doubles, near-doubles, plus one/minus one, make ten, fact families, number bonds, decomposition, and finding patterns. Avoid counting-based approaches. Give clear, concise explanations with specific strategies children can apply, each with a short worked example. Keep responses appropriate for elementary students.`

func helpUserPrompt(f problemgen.Fact) string {
	return fmt.Sprintf("Please explain how to solve %d %s %d using mental math fact strategies. "+
		"Give 2-3 specific mental math strategies (like doubles, make ten, fact families, etc.) "+
		"that would work well for this problem, using simple language.",
		f.Num1, f.Operation.Symbol(), f.Num2)
}

// HelpSchema is the structured reply for QuestionHelp.
var HelpSchema = &llm.Schema{
	Name:        "question-help",
	Description: "Mental math strategies for one arithmetic fact",
	Definition: map[string]any{
		"type":                 "object",
		"additionalProperties": false,
		"properties": map[string]any{
			"strategies": map[string]any{
				"type": "array",
				"items": map[string]any{
					"type":                 "object",
					"additionalProperties": false,
					"properties": map[string]any{
						"name": map[string]any{
							"type":        "string",
							"description": "Short strategy name, e.g. \"Make ten\"",
						},
						"explanation": map[string]any{
							"type":        "string",
							"description": "How to apply the strategy to this fact, 1-3 sentences",
						},
						"example": map[string]any{
							"type":        "string",
							"description": "The strategy worked through for this fact",
						},
					},
					"required": []any{"name", "explanation", "example"},
				},
			},
			"tip": map[string]any{
				"type":        "string",
				"description": "One encouraging sentence",
			},
		},
		"required": []any{"strategies", "tip"},
	},
}
