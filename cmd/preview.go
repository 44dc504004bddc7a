package cmd

import (
	"bufio"
	"context"
	"fmt"
	"math/rand/v2"
	"strings"

	"github.com/spf13/cobra"

	"github.com/abhisek/screenwise/internal/llm"
	"github.com/abhisek/screenwise/internal/questiongen"
	"github.com/abhisek/screenwise/internal/screening"
	"github.com/abhisek/screenwise/internal/session"
	"github.com/abhisek/screenwise/internal/ui/components"
	"github.com/abhisek/screenwise/internal/ui/theme"
)

var previewCmd = &cobra.Command{
	Use:   "preview",
	Short: "Preview generated questions for a domain and difficulty (no database)",
	Long: `Generate and interactively answer questions for one (domain, difficulty) cell.

This is a stateless developer tool: no database, no session, no risk scoring.
Useful for evaluating question templates and LLM question quality.`,
	RunE: runPreview,
}

func init() {
	previewCmd.Flags().String("domain", "reading", "Domain: reading, writing, math or attention")
	previewCmd.Flags().String("difficulty", "easy", "Difficulty: easy, medium or hard")
	previewCmd.Flags().Int("count", 5, "Number of questions to generate")
	previewCmd.Flags().Uint64("seed", 0, "Template random seed (0 picks one)")
	previewCmd.Flags().Bool("llm", false, "Generate with the configured LLM provider, falling back to templates")
}

func runPreview(cmd *cobra.Command, args []string) error {
	domainVal, _ := cmd.Flags().GetString("domain")
	diffVal, _ := cmd.Flags().GetString("difficulty")
	count, _ := cmd.Flags().GetInt("count")
	seed, _ := cmd.Flags().GetUint64("seed")
	useLLM, _ := cmd.Flags().GetBool("llm")

	domain, err := screening.ParseDomain(strings.ToLower(domainVal))
	if err != nil {
		return err
	}
	difficulty, err := screening.ParseDifficulty(strings.ToLower(diffVal))
	if err != nil {
		return err
	}
	if seed == 0 {
		seed = rand.Uint64()
	}

	ctx := context.Background()
	synth := questiongen.NewSynthesizer(rand.New(rand.NewPCG(seed, seed)))

	var gen questiongen.Generator = synth.AsGenerator()
	source := "templates"
	if useLLM {
		// No EventRepo: preview requests are not recorded.
		provider, err := llm.NewProviderFromEnv(ctx, nil, nil)
		if err != nil {
			return fmt.Errorf("LLM provider: %w", err)
		}
		gen = questiongen.NewLLMGenerator(provider, questiongen.DefaultLLMConfig())
		source = provider.ModelID()
	}

	out := cmd.OutOrStdout()
	scanner := bufio.NewScanner(cmd.InOrStdin())

	fmt.Fprintf(out, "Cell: %s / %s (source %s, seed %d)\n", domain, difficulty, source, seed)
	fmt.Fprintf(out, "Generating %d questions...\n\n", count)

	var correct int
	var priorQuestions []string

	for i := 1; i <= count; i++ {
		input := questiongen.GenerateInput{
			Domain:         domain,
			Difficulty:     difficulty,
			PriorQuestions: priorQuestions,
		}

		q, err := gen.Generate(ctx, input)
		if err != nil {
			fmt.Fprintf(out, "Question %d: generation failed (%v), using templates\n", i, err)
			spec := synth.Synthesize(input)
			q = &spec
		}
		priorQuestions = append(priorQuestions, q.Text)

		fmt.Fprint(out, components.MultiChoice{
			Header:   fmt.Sprintf("── Question %d/%d ──", i, count),
			Question: q.Text,
			Options:  q.Options,
		}.View())

		fmt.Fprint(out, "\nYour answer: ")
		if !scanner.Scan() {
			fmt.Fprintln(out, "\n(input closed)")
			break
		}
		answer := strings.TrimSpace(scanner.Text())
		if answer == "" {
			fmt.Fprintln(out, "(skipped)")
			fmt.Fprintln(out)
			continue
		}
		if n, ok := session.ParseOption(answer); ok && n <= len(q.Options) {
			answer = q.Options[n-1]
		}

		ok := answer == q.CorrectOption
		if ok {
			correct++
		}
		fmt.Fprintln(out, components.Feedback(ok, q.CorrectOption))
		if !ok {
			fmt.Fprintln(out, theme.Hint.Render("Would be tagged as: "+session.InferMistake(*q, answer).DisplayName()))
		}
		fmt.Fprintln(out)
	}

	fmt.Fprintf(out, "── Summary: %d/%d correct ──\n", correct, count)
	return nil
}
