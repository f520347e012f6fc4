package cmd

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/mathdrill/internal/llm"
	"github.com/abhisek/mathdrill/internal/problemgen"
	"github.com/abhisek/mathdrill/internal/tutor"
)

var askCmd = &cobra.Command{
	Use:   "ask <question>",
	Short: "Ask the math tutor a question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		svc, err := buildServices(cmd.Context(), cmd, serviceOptions{withTutor: true})
		if err != nil {
			return err
		}
		defer svc.Close()
		if !svc.tutor.Available() {
			return fmt.Errorf("%w: set ANTHROPIC_API_KEY, OPENAI_API_KEY or GEMINI_API_KEY", tutor.ErrUnavailable)
		}

		answer, err := svc.tutor.AskQuestion(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), answer)
		return nil
	},
}

var explainCmd = &cobra.Command{
	Use:   "explain <a> <op> <b>",
	Short: "Explain mental math strategies for one fact, e.g. explain 7 x 8",
	Args:  cobra.ExactArgs(3),
	RunE: func(cmd *cobra.Command, args []string) error {
		fact, err := parseFact(args)
		if err != nil {
			return err
		}

		svc, err := buildServices(cmd.Context(), cmd, serviceOptions{withTutor: true})
		if err != nil {
			return err
		}
		defer svc.Close()
		if !svc.tutor.Available() {
			return tutor.ErrUnavailable
		}

		help, err := svc.tutor.QuestionHelp(cmd.Context(), fact)
		var invalid *llm.ErrInvalidResponse
		if errors.As(err, &invalid) {
			return fmt.Errorf("the tutor sent an answer we could not read: %w", err)
		}
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), help.Markdown())
		return nil
	},
}

func init() {
	askCmd.AddCommand(explainCmd)
}

// parseFact reads "7 x 8" style arguments. Both the ASCII and the display
// symbol of each operation are accepted.
func parseFact(args []string) (problemgen.Fact, error) {
	var a, b int
	if _, err := fmt.Sscanf(args[0], "%d", &a); err != nil {
		return problemgen.Fact{}, fmt.Errorf("invalid number %q", args[0])
	}
	if _, err := fmt.Sscanf(args[2], "%d", &b); err != nil {
		return problemgen.Fact{}, fmt.Errorf("invalid number %q", args[2])
	}

	var op problemgen.Operation
	switch args[1] {
	case "+":
		op = problemgen.OpAddition
	case "-", "−":
		op = problemgen.OpSubtraction
	case "x", "*", "×":
		op = problemgen.OpMultiplication
	case "/", "÷":
		op = problemgen.OpDivision
	default:
		parsed, err := problemgen.ParseOperation(args[1])
		if err != nil {
			return problemgen.Fact{}, err
		}
		op = parsed
	}
	return problemgen.Fact{Operation: op, Num1: a, Num2: b}, nil
}
