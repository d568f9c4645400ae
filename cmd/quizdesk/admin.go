package main

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"quizdesk/internal/app"
	"quizdesk/internal/errors"
	"quizdesk/internal/forms"
	"quizdesk/internal/uploads"
)

func cmdRegister(ctx context.Context, a *app.App) error {
	form := forms.RegisterForm{
		Name:     prompt("Name"),
		Email:    prompt("Email"),
		Password: prompt("Password"),
	}

	if err := a.Auth().Register(ctx, form); err != nil {
		return err
	}

	if a.Auth().User() == nil {
		code := prompt("Verification code sent to your email")
		if err := a.Auth().VerifyEmail(ctx, form.Email, code); err != nil {
			return err
		}
	}

	fmt.Println("Registered and signed in.")
	return nil
}

func cmdLogin(ctx context.Context, a *app.App) error {
	form := forms.LoginForm{
		Email:    prompt("Email"),
		Password: prompt("Password"),
	}

	if err := a.Auth().Login(ctx, form); err != nil {
		return err
	}

	fmt.Printf("Signed in as %s.\n", a.Auth().User().Name)
	return nil
}

func cmdMe(ctx context.Context, a *app.App) error {
	user := a.Auth().User()
	if user == nil {
		fmt.Println("Not signed in.")
		return nil
	}

	fmt.Printf("%s <%s>, role %s", user.Name, user.Email, user.Role)
	if user.IsPaid {
		fmt.Print(", paid")
	}
	fmt.Println()
	return nil
}

func cmdPay(ctx context.Context, a *app.App) error {
	if err := a.Auth().Pay(ctx); err != nil {
		return err
	}
	fmt.Println("Payment recorded; uploads are now available.")
	return nil
}

func cmdGrades(ctx context.Context, a *app.App) error {
	grades, err := a.Auth().Grades(ctx)
	if err != nil {
		return err
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "QUIZ\tPARTICIPANT\tSCORE\tSUBMITTED")
	for _, g := range grades.Attempts {
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%s\n",
			g.Quiz.Title, g.Participant(), g.Score, g.SubmittedAt.Format("2006-01-02 15:04"))
	}
	if err := w.Flush(); err != nil {
		return err
	}

	for title, stat := range grades.StatsByQuiz {
		fmt.Printf("%s: %d attempts, average %.1f%%\n", title, stat.Attempts, stat.AverageScore)
	}
	return nil
}

func cmdQuiz(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: quizdesk quiz create|update <quizId>|delete <quizId>")
	}

	switch args[0] {
	case "create":
		quiz, err := a.Manage().CreateQuiz(ctx, promptQuizForm())
		if err != nil {
			return err
		}
		fmt.Printf("Created quiz %s. Add questions with: quizdesk questions %s\n", quiz.ID, quiz.ID)
		return nil

	case "update":
		if len(args) != 2 {
			return fmt.Errorf("usage: quizdesk quiz update <quizId>")
		}
		if _, err := a.Manage().UpdateQuiz(ctx, args[1], promptQuizForm()); err != nil {
			return err
		}
		fmt.Println("Quiz updated.")
		return nil

	case "delete":
		if len(args) != 2 {
			return fmt.Errorf("usage: quizdesk quiz delete <quizId>")
		}
		if err := a.Manage().DeleteQuiz(ctx, args[1]); err != nil {
			return err
		}
		fmt.Println("Quiz deleted.")
		return nil

	default:
		return fmt.Errorf("unknown quiz subcommand %q", args[0])
	}
}

func promptQuizForm() forms.QuizForm {
	minutes, _ := strconv.Atoi(prompt("Duration minutes"))
	seconds, _ := strconv.Atoi(prompt("Duration extra seconds (0-59)"))
	return forms.QuizForm{
		Title:           prompt("Title"),
		Description:     prompt("Description"),
		Faculty:         prompt("Faculty"),
		UniversityName:  prompt("University"),
		DurationMinutes: minutes,
		DurationSeconds: seconds,
	}
}

func cmdQuestions(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: quizdesk questions <quizId> [new|attach <qid>|detach <qid>|delete <qid>]")
	}
	quizID := args[0]

	if len(args) == 1 {
		view, err := a.Manage().LoadQuestionManager(ctx, quizID)
		if err != nil {
			return err
		}

		fmt.Printf("%s: %d questions\n", view.Quiz.Title, len(view.Linked))
		for _, q := range view.Linked {
			fmt.Printf("  %s  %s\n", q.ID, q.Text)
		}
		if len(view.Available) > 0 {
			fmt.Println("Available to attach:")
			for _, q := range view.Available {
				fmt.Printf("  %s  %s\n", q.ID, q.Text)
			}
		}
		return nil
	}

	switch args[1] {
	case "new":
		q, err := a.Manage().CreateQuestion(ctx, quizID, promptQuestionForm())
		if err != nil {
			if q != nil {
				fmt.Printf("Question %s was created but not attached; retry with: quizdesk questions %s attach %s\n", q.ID, quizID, q.ID)
			}
			return err
		}
		fmt.Printf("Question %s created and attached.\n", q.ID)
		return nil

	case "attach":
		if len(args) != 3 {
			return fmt.Errorf("usage: quizdesk questions <quizId> attach <questionId>")
		}
		return a.Manage().AttachQuestion(ctx, quizID, args[2])

	case "detach":
		if len(args) != 3 {
			return fmt.Errorf("usage: quizdesk questions <quizId> detach <questionId>")
		}
		return a.Manage().DetachQuestion(ctx, quizID, args[2])

	case "delete":
		if len(args) != 3 {
			return fmt.Errorf("usage: quizdesk questions <quizId> delete <questionId>")
		}
		return a.Manage().DeleteQuestion(ctx, args[2])

	default:
		return fmt.Errorf("unknown questions subcommand %q", args[1])
	}
}

func promptQuestionForm() forms.QuestionForm {
	form := forms.QuestionForm{Text: prompt("Question text")}
	points, _ := strconv.Atoi(prompt("Points (default 1)"))
	form.Points = points

	correct, _ := strconv.Atoi(prompt("Correct option number"))
	for i := 1; ; i++ {
		text := prompt(fmt.Sprintf("Option %d (empty to finish)", i))
		if text == "" {
			break
		}
		form.Options = append(form.Options, forms.OptionForm{
			Text:      text,
			IsCorrect: i == correct,
		})
	}
	return form
}

func cmdModerate(ctx context.Context, a *app.App, args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: quizdesk moderate pending|approve <id>|reject <id>")
	}

	switch args[0] {
	case "pending":
		comments, err := a.Manage().PendingComments(ctx)
		if err != nil {
			return err
		}
		if len(comments) == 0 {
			fmt.Println("No comments waiting.")
			return nil
		}
		for _, c := range comments {
			fmt.Printf("%s  quiz %s  %s: %s\n", c.ID, c.QuizID, c.UserName, c.Text)
		}
		return nil

	case "approve":
		if len(args) != 2 {
			return fmt.Errorf("usage: quizdesk moderate approve <commentId>")
		}
		return a.Manage().ApproveComment(ctx, args[1])

	case "reject":
		if len(args) != 2 {
			return fmt.Errorf("usage: quizdesk moderate reject <commentId>")
		}
		return a.Manage().RejectComment(ctx, args[1])

	default:
		return fmt.Errorf("unknown moderate subcommand %q", args[0])
	}
}

func cmdUpload(ctx context.Context, a *app.App, args []string) error {
	if len(args) != 2 {
		return fmt.Errorf("usage: quizdesk upload <quizId> <file.pdf|file.docx>")
	}
	quizID, path := args[0], args[1]

	editor := a.NewUploadEditor()
	if err := editor.PreviewFile(ctx, path); err != nil {
		if errors.Is(err, errors.CodePaymentRequired) {
			fmt.Println("Uploading documents requires payment. Run: quizdesk pay")
			time.Sleep(2 * time.Second)
			return nil
		}
		return err
	}

	info := editor.PreviewInfo()
	fmt.Printf("Parsed %d questions from %s.\n", info.QuestionsCount, info.FileName)

	for {
		for i, st := range editor.Staged() {
			marker := " "
			if st.Selected {
				marker = "*"
			}
			fmt.Printf("%s %d. %s (%d options)\n", marker, i+1, st.Question.Text, len(st.Question.Options))
		}

		switch line := prompt("toggle N | correct N M | drop N | save | quit"); {
		case line == "save":
			if ids := editor.Incomplete(); len(ids) > 0 {
				fmt.Printf("Warning: %d selected questions have no correct answer marked.\n", len(ids))
			}
			result, err := editor.Save(ctx, quizID)
			if err != nil {
				return err
			}
			fmt.Printf("Saved %d questions, attached %d to quiz %s.\n", result.Created, result.Linked, quizID)
			return nil

		case line == "quit":
			return nil

		default:
			if err := editCommand(editor, line); err != nil {
				fmt.Println(err)
			}
		}
	}
}

func editCommand(editor *uploads.Editor, line string) error {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return fmt.Errorf("unknown command %q", line)
	}

	staged := editor.Staged()
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 1 || n > len(staged) {
		return fmt.Errorf("no staged question %q", fields[1])
	}
	id := staged[n-1].ID

	switch fields[0] {
	case "toggle":
		return editor.Toggle(id)
	case "drop":
		return editor.Remove(id)
	case "correct":
		if len(fields) != 3 {
			return fmt.Errorf("usage: correct N M")
		}
		m, err := strconv.Atoi(fields[2])
		if err != nil {
			return fmt.Errorf("correct wants an option number")
		}
		return editor.SetCorrect(id, m-1)
	default:
		return fmt.Errorf("unknown command %q", fields[0])
	}
}
