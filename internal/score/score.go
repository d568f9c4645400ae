// Package score grades a finished attempt against the question set as it
// was presented. Grading is a pure function: all randomness happened at
// shuffle time and is baked into the presentation order it receives.
package score

import (
	"github.com/shopspring/decimal"

	"quizdesk/internal/domain"
)

// NotAnswered is the review sentinel for a question with no recorded answer.
const NotAnswered = "Not answered"

// ReviewItem is the read-only grading outcome for one question.
type ReviewItem struct {
	Question domain.Question

	Answered      bool
	Correct       bool
	SelectedIndex int // index into the presented options, -1 when unanswered
	CorrectIndex  int // first presented option flagged correct, -1 when none

	UserAnswer    string // selected option text, or NotAnswered
	CorrectAnswer string // text of the correct option, empty when none flagged
}

// Review is the artifact shown after submission. It is display-only and is
// never sent back to the server.
type Review struct {
	QuizID       string
	Items        []ReviewItem
	CorrectCount int
	Total        int
	// Percent is round(100 * correct / total), 0 for an empty quiz.
	Percent int
}

// Grade computes the review for one attempt. questions must be in the
// attempt's shuffled presentation order, each with its options in shuffled
// order; answers map question ids to the selected presented-option index.
//
// The correct option is the first presented option whose IsCorrect flag is
// set. When authoring data marks several options correct, only that first
// one counts; this mirrors historical grading and is deliberately not
// hardened into a single-correct guarantee.
func Grade(quizID string, questions []domain.Question, answers map[string]int) *Review {
	review := &Review{
		QuizID: quizID,
		Items:  make([]ReviewItem, 0, len(questions)),
		Total:  len(questions),
	}

	for _, q := range questions {
		item := ReviewItem{
			Question:      q,
			SelectedIndex: -1,
			CorrectIndex:  correctIndex(q.Options),
			UserAnswer:    NotAnswered,
		}

		if item.CorrectIndex >= 0 {
			item.CorrectAnswer = q.Options[item.CorrectIndex].Text
		}

		if idx, ok := answers[q.ID]; ok && idx >= 0 && idx < len(q.Options) {
			item.Answered = true
			item.SelectedIndex = idx
			item.UserAnswer = q.Options[idx].Text
			item.Correct = item.CorrectIndex >= 0 && idx == item.CorrectIndex
		}

		if item.Correct {
			review.CorrectCount++
		}

		review.Items = append(review.Items, item)
	}

	review.Percent = percent(review.CorrectCount, review.Total)

	return review
}

func correctIndex(options []domain.Option) int {
	for i, opt := range options {
		if opt.IsCorrect {
			return i
		}
	}
	return -1
}

// percent is round(100 * correct / total), defined as 0 when total is 0.
func percent(correct, total int) int {
	if total == 0 {
		return 0
	}

	p := decimal.NewFromInt(int64(correct * 100)).
		Div(decimal.NewFromInt(int64(total))).
		Round(0)

	return int(p.IntPart())
}
