package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"

	"quizdesk/internal/app"
	"quizdesk/internal/config"
	"quizdesk/internal/forms"
)

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	c, err := loadConfig()
	if err != nil {
		log.Fatalf("Load config failed: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, os.Interrupt)
	defer stop()

	a, err := app.Init(ctx, c)
	if err != nil {
		log.Fatalf("Init failed: %v", err)
	}
	defer a.Close()

	if err := run(ctx, a, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func loadConfig() (app.Config, error) {
	var c app.Config
	c.API.BaseURL = "http://localhost:5000"

	if err := config.Load(os.Getenv("CONFIG_PATH"), &c); err != nil {
		return c, fmt.Errorf("load config: %w", err)
	}

	return c, nil
}

func run(ctx context.Context, a *app.App, cmd string, args []string) error {
	switch cmd {
	case "quizzes":
		return cmdQuizzes(ctx, a)
	case "comments":
		return cmdComments(ctx, a, args)
	case "comment":
		return cmdPostComment(ctx, a, args)
	case "take":
		return cmdTake(ctx, a, args)
	case "history":
		return cmdHistory(ctx, a, args)
	case "register":
		return cmdRegister(ctx, a)
	case "login":
		return cmdLogin(ctx, a)
	case "logout":
		return a.Auth().Logout(ctx)
	case "me":
		return cmdMe(ctx, a)
	case "pay":
		return cmdPay(ctx, a)
	case "grades":
		return cmdGrades(ctx, a)
	case "quiz":
		return cmdQuiz(ctx, a, args)
	case "questions":
		return cmdQuestions(ctx, a, args)
	case "upload":
		return cmdUpload(ctx, a, args)
	case "moderate":
		return cmdModerate(ctx, a, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", cmd)
	}
}

func usage() {
	fmt.Fprint(os.Stderr, `usage: quizdesk <command> [args]

Taking quizzes:
  quizzes                    list available quizzes
  comments <quizId>          show approved comments for a quiz
  comment <quizId>           post a comment (goes to moderation)
  take <quizId>              take a quiz interactively
  history <quizId>           show your past attempts for a quiz

Account:
  register | login | logout | me | pay | grades

Administration:
  quiz create|update|delete ...
  questions <quizId>         manage a quiz's questions
  upload <quizId> <file>     parse a document and stage its questions
  moderate pending|approve|reject ...
`)
}

func cmdQuizzes(ctx context.Context, a *app.App) error {
	summaries, err := a.Browse().ListQuizzesWithComments(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tTITLE\tDURATION\tQUESTIONS\tCOMMENTS")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s min\t%d\t%d\n",
			s.Quiz.ID, s.Quiz.Title, s.Quiz.DurationMinutes, len(s.Quiz.QuestionIDs), len(s.Comments))
	}
	return w.Flush()
}

func cmdComments(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: quizdesk comments <quizId>")
	}

	comments, err := a.Browse().ApprovedComments(ctx, args[0])
	if err != nil {
		return err
	}
	if len(comments) == 0 {
		fmt.Println("No comments yet.")
		return nil
	}
	for _, c := range comments {
		fmt.Printf("%s (%s):\n  %s\n", c.UserName, c.CreatedAt.Format("2006-01-02"), c.Text)
	}
	return nil
}

func cmdPostComment(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: quizdesk comment <quizId>")
	}

	form := forms.CommentForm{
		QuizID:    args[0],
		UserName:  prompt("Your name"),
		UserEmail: prompt("Your email"),
		Text:      prompt("Comment"),
	}

	if _, err := a.Browse().PostComment(ctx, form); err != nil {
		return err
	}
	fmt.Println("Comment submitted; it will appear once approved.")
	return nil
}

func cmdHistory(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("usage: quizdesk history <quizId>")
	}

	refs, err := a.Store().AttemptHistory(ctx, args[0])
	if err != nil {
		return err
	}
	if len(refs) == 0 {
		fmt.Println("No attempts recorded on this machine.")
		return nil
	}
	for _, r := range refs {
		fmt.Printf("%s  attempt %s\n", r.CreatedAt.Format("2006-01-02 15:04"), r.AttemptID)
	}
	return nil
}
