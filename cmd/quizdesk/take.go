package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"quizdesk/internal/app"
	"quizdesk/internal/session"
)

// cmdTake runs one attempt interactively: a one-second countdown competes
// with stdin commands in a single select loop, so the controller is only
// ever touched from this goroutine.
func cmdTake(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: quizdesk take <quizId>")
	}

	ctl := a.NewSessionController()
	if err := ctl.Load(ctx, args[0]); err != nil {
		return err
	}

	quiz := ctl.Quiz()
	fmt.Printf("%s\n", quiz.Title)
	if quiz.Description != "" {
		fmt.Println(quiz.Description)
	}
	fmt.Printf("%d questions, %s.\n", len(ctl.Questions()), formatSeconds(quiz.DurationSeconds()))
	fmt.Println("Commands: 1..9 answer, n next, p prev, g N goto, s status, submit, q quit.")

	if strings.ToLower(prompt("Start now? [y/N]")) != "y" {
		return nil
	}

	if err := ctl.Start(); err != nil {
		return err
	}

	lines := readLines()
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	showQuestion(ctl)

	for ctl.State() != session.StateCompleted {
		select {
		case <-ctx.Done():
			fmt.Println("\nInterrupted; attempt abandoned.")
			return nil

		case <-ticker.C:
			if ctl.Tick(ctx) {
				fmt.Println("\nTime is up; submitting what you have.")
			}

		case line, ok := <-lines:
			if !ok {
				fmt.Println("\nInput closed; attempt abandoned.")
				return nil
			}
			if err := handleCommand(ctx, ctl, line); err != nil {
				fmt.Println(err)
			}
		}
	}

	printReview(ctl)
	return nil
}

func handleCommand(ctx context.Context, ctl *session.Controller, line string) error {
	line = strings.TrimSpace(strings.ToLower(line))

	switch ctl.State() {
	case session.StateConfirmPending:
		switch line {
		case "y", "yes":
			if err := ctl.Submit(ctx); err != nil {
				fmt.Println("Submission failed, you can retry:", err)
			}
		default:
			ctl.CancelSubmit()
			showQuestion(ctl)
		}
		return nil

	case session.StateInProgress:
		// handled below
	default:
		return nil
	}

	switch line {
	case "":
		return nil
	case "n":
		ctl.Next()
		showQuestion(ctl)
	case "p":
		ctl.Prev()
		showQuestion(ctl)
	case "s":
		fmt.Printf("%d/%d answered, %s left.\n",
			ctl.AnsweredCount(), len(ctl.Questions()), formatSeconds(ctl.Remaining()))
	case "submit":
		if err := ctl.RequestSubmit(); err != nil {
			return err
		}
		fmt.Printf("Submit %d answers? [y/N] ", ctl.AnsweredCount())
	case "q", "quit":
		fmt.Println("Attempt abandoned; nothing was sent.")
		os.Exit(0)
	default:
		if strings.HasPrefix(line, "g ") {
			i, err := strconv.Atoi(strings.TrimSpace(line[2:]))
			if err != nil {
				return fmt.Errorf("goto wants a question number")
			}
			ctl.Seek(i - 1)
			showQuestion(ctl)
			return nil
		}

		choice, err := strconv.Atoi(line)
		if err != nil {
			return fmt.Errorf("unknown command %q", line)
		}

		q, _ := ctl.Current()
		if err := ctl.Record(q.ID, choice-1); err != nil {
			return err
		}
		ctl.Next()
		showQuestion(ctl)
	}

	return nil
}

func showQuestion(ctl *session.Controller) {
	q, i := ctl.Current()
	if q.ID == "" {
		return
	}

	fmt.Printf("\n[%d/%d] %s\n", i+1, len(ctl.Questions()), q.Text)
	selected, answered := ctl.Answer(q.ID)
	for j, opt := range q.Options {
		marker := " "
		if answered && j == selected {
			marker = "*"
		}
		fmt.Printf(" %s %d. %s\n", marker, j+1, opt.Text)
	}
}

func printReview(ctl *session.Controller) {
	review := ctl.Review()
	result := ctl.Result()
	if review == nil || result == nil {
		return
	}

	fmt.Printf("\nScore: %d%% (%d of %d correct)\n\n", review.Percent, review.CorrectCount, review.Total)
	for i, item := range review.Items {
		status := "✗"
		if item.Correct {
			status = "✓"
		}
		fmt.Printf("%s %d. %s\n", status, i+1, item.Question.Text)
		fmt.Printf("    your answer: %s\n", item.UserAnswer)
		if !item.Correct && item.CorrectAnswer != "" {
			fmt.Printf("    correct:     %s\n", item.CorrectAnswer)
		}
	}
	fmt.Printf("\nAttempt %s recorded.\n", result.AttemptID)
}

func formatSeconds(s int) string {
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// readLines feeds stdin to the select loop without blocking it.
func readLines() <-chan string {
	lines := make(chan string)
	go func() {
		defer close(lines)
		sc := bufio.NewScanner(os.Stdin)
		for sc.Scan() {
			lines <- sc.Text()
		}
	}()
	return lines
}

func prompt(label string) string {
	fmt.Printf("%s: ", label)
	sc := bufio.NewScanner(os.Stdin)
	if !sc.Scan() {
		return ""
	}
	return strings.TrimSpace(sc.Text())
}
