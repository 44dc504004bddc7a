package cmd

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/abhisek/screenwise/internal/session"
	"github.com/abhisek/screenwise/internal/store"
	"github.com/abhisek/screenwise/internal/ui/components"
	"github.com/abhisek/screenwise/internal/ui/report"
	"github.com/abhisek/screenwise/internal/ui/theme"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Start a screening session",
	Long: `Run an adaptive screening session in the terminal.

Answer with the option number or the option text. Type "q" to stop early;
the session is then scored on the answers given so far.`,
	RunE: runPlay,
}

func init() {
	playCmd.Flags().StringP("user", "u", "", "Learner id (a new one is created when empty)")
	playCmd.Flags().String("age-group", "", "Learner age group, e.g. 6-8 (default from config)")
	playCmd.Flags().String("resume", "", "Resume an active session by id")
}

func runPlay(cmd *cobra.Command, args []string) error {
	rt, err := openRuntime(cmd)
	if err != nil {
		return err
	}
	defer rt.Close()

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	out := cmd.OutOrStdout()
	svc := rt.service

	var sess *store.Session
	if id, _ := cmd.Flags().GetString("resume"); id != "" {
		sess, err = rt.store.Sessions().Get(ctx, id)
		if err != nil {
			return fmt.Errorf("resume session %s: %w", id, err)
		}
		if sess.Status == store.StatusCompleted {
			return fmt.Errorf("session %s is already completed", id)
		}
	} else {
		user, _ := cmd.Flags().GetString("user")
		ageGroup, _ := cmd.Flags().GetString("age-group")
		if ageGroup == "" {
			ageGroup = rt.cfg.Session.AgeGroup
		}
		sess, err = svc.Start(ctx, user, ageGroup)
		if err != nil {
			return err
		}
	}

	fmt.Fprintln(out, theme.Title.Render("Screenwise"))
	fmt.Fprintln(out, theme.Hint.Render(fmt.Sprintf("Session %s for learner %s. Up to %d questions.", sess.ID, sess.UserID, svc.Cap())))
	fmt.Fprintln(out)

	if err := playLoop(ctx, svc, sess.ID, cmd.InOrStdin(), out); err != nil {
		return err
	}

	if _, err := svc.End(ctx, sess.ID); err != nil {
		return fmt.Errorf("end session: %w", err)
	}
	d, err := svc.Dashboard(ctx, sess.ID)
	if err != nil {
		return err
	}
	fmt.Fprintln(out)
	fmt.Fprint(out, report.Dashboard(d, report.DefaultWidth))
	return nil
}

// playLoop serves questions until the cap, "q" or end of input.
func playLoop(ctx context.Context, svc *session.Service, sessionID string, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)

	for {
		turn, err := svc.NextQuestion(ctx, sessionID)
		if err != nil {
			return err
		}
		if turn.Done {
			return nil
		}

		q := turn.Question
		fmt.Fprint(out, components.MultiChoice{
			Header:   fmt.Sprintf("Question %d/%d · %s · %s", turn.Number, svc.Cap(), q.Domain, q.Difficulty),
			Question: q.Text,
			Options:  q.Options,
		}.View())

		started := time.Now()
		var fb *session.Feedback
		for fb == nil {
			fmt.Fprint(out, "\nYour answer: ")
			if !scanner.Scan() {
				fmt.Fprintln(out, "\n(input closed)")
				return scanner.Err()
			}
			line := strings.TrimSpace(scanner.Text())
			if line == "" {
				continue
			}
			if strings.EqualFold(line, "q") {
				return nil
			}

			a := session.Answer{
				SessionID:      sessionID,
				QuestionID:     turn.QuestionID,
				ResponseTimeMs: int(time.Since(started).Milliseconds()),
			}
			if n, ok := session.ParseOption(line); ok && n <= len(q.Options) {
				a.Option = n
				a.MistakeType = session.InferMistake(q, q.Options[n-1])
			} else {
				a.Choice = line
				a.MistakeType = session.InferMistake(q, line)
			}

			fb, err = svc.SubmitAnswer(ctx, a)
			if errors.Is(err, session.ErrInvalidAnswer) {
				fmt.Fprintln(out, theme.Hint.Render("Pick one of the options above."))
				continue
			}
			if err != nil {
				return err
			}
		}

		fmt.Fprintln(out, components.Feedback(fb.Correct, fb.CorrectOption))
		fmt.Fprintln(out)
		if fb.Done {
			return nil
		}
	}
}
