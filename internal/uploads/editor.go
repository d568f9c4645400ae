// Package uploads stages server-parsed questions from an uploaded document
// for admin review and editing before a batch save.
package uploads

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"quizdesk/internal/api"
	"quizdesk/internal/domain"
	"quizdesk/internal/errors"
)

const (
	// MaxOptions bounds adding options to a staged question.
	MaxOptions = 8
	// MinOptions is the floor below which options cannot be removed.
	MinOptions = 2
)

// Staged is one parsed question under review. ID is editor-local; the
// question has no backend id until saved.
type Staged struct {
	ID       string
	Selected bool
	Question domain.Question
}

type Config struct {
	API *api.Client
}

// Editor holds one upload's staged batch. Like the session controller it is
// single-owner state; all mutation happens through its methods.
type Editor struct {
	api     *api.Client
	preview *api.UploadPreview
	staged  []Staged
}

func NewEditor(c Config) *Editor {
	return &Editor{api: c.API}
}

var allowedExtensions = map[string]bool{
	".pdf":  true,
	".docx": true,
}

// PreviewFile uploads a document from disk for parsing and stages the
// result. Only .pdf and .docx are accepted, by extension.
func (e *Editor) PreviewFile(ctx context.Context, path string) error {
	ext := strings.ToLower(filepath.Ext(path))
	if !allowedExtensions[ext] {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("only PDF and DOCX files are allowed, got %q", ext))
	}

	f, err := os.Open(path)
	if err != nil {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("open %s", path),
			errors.WithCause(err))
	}
	defer f.Close()

	return e.Preview(ctx, filepath.Base(path), f)
}

// Preview sends the file for server-side parsing and replaces any previously
// staged batch. A payment-required response is passed through untouched so
// the view can run its redirect flow.
func (e *Editor) Preview(ctx context.Context, fileName string, file io.Reader) error {
	preview, err := e.api.PreviewUpload(ctx, fileName, file)
	if err != nil {
		if errors.Is(err, errors.CodePaymentRequired) {
			return err
		}
		return errors.New(errors.CodeLoad,
			errors.WithMessagef("parse %s", fileName),
			errors.WithCause(err))
	}

	if len(preview.Questions) == 0 {
		return errors.New(errors.CodeLoad,
			errors.WithMessagef("no questions found in file, check the file format"))
	}

	e.preview = preview
	e.staged = make([]Staged, 0, len(preview.Questions))
	for i, q := range preview.Questions {
		e.staged = append(e.staged, Staged{
			ID:       fmt.Sprintf("q-%d", i),
			Selected: true,
			Question: normalize(q),
		})
	}

	return nil
}

// normalize resolves ambiguous authoring data: when several options are
// flagged correct only the first keeps the flag; when none are flagged the
// question is left as-is and reported by Incomplete.
func normalize(q domain.Question) domain.Question {
	options := make([]domain.Option, len(q.Options))
	copy(options, q.Options)

	first := -1
	for i, opt := range options {
		if opt.IsCorrect {
			first = i
			break
		}
	}

	if first >= 0 {
		for i := range options {
			options[i].IsCorrect = i == first
		}
	}

	q.Options = options
	return q
}

// PreviewInfo returns the parse metadata of the current batch, nil when
// nothing is staged.
func (e *Editor) PreviewInfo() *api.UploadPreview { return e.preview }

// Staged returns the staged batch in order.
func (e *Editor) Staged() []Staged {
	out := make([]Staged, len(e.staged))
	copy(out, e.staged)
	return out
}

func (e *Editor) SelectedCount() int {
	n := 0
	for _, s := range e.staged {
		if s.Selected {
			n++
		}
	}
	return n
}

func (e *Editor) lookup(id string) (*Staged, error) {
	for i := range e.staged {
		if e.staged[i].ID == id {
			return &e.staged[i], nil
		}
	}
	return nil, errors.New(errors.CodeValidation,
		errors.WithMessagef("no staged question %s", id))
}

// Toggle flips a staged question's inclusion in the save.
func (e *Editor) Toggle(id string) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.Selected = !s.Selected
	return nil
}

func (e *Editor) SetText(id, text string) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	s.Question.Text = text
	return nil
}

func (e *Editor) SetPoints(id string, points int) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	if points < 1 {
		points = 1
	}
	s.Question.Points = points
	return nil
}

func (e *Editor) SetOptionText(id string, optionIndex int, text string) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	if optionIndex < 0 || optionIndex >= len(s.Question.Options) {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("option %d out of range", optionIndex))
	}
	s.Question.Options[optionIndex].Text = text
	return nil
}

// AddOption appends an empty option labelled with the next letter, bounded
// at MaxOptions.
func (e *Editor) AddOption(id string) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}

	if len(s.Question.Options) >= MaxOptions {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("a question can have at most %d options", MaxOptions))
	}

	s.Question.Options = append(s.Question.Options, domain.Option{
		Label: string(rune('A' + len(s.Question.Options))),
	})
	return nil
}

// RemoveOption deletes an option, keeping at least MinOptions.
func (e *Editor) RemoveOption(id string, optionIndex int) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}

	if len(s.Question.Options) <= MinOptions {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("a question needs at least %d options", MinOptions))
	}
	if optionIndex < 0 || optionIndex >= len(s.Question.Options) {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("option %d out of range", optionIndex))
	}

	s.Question.Options = append(s.Question.Options[:optionIndex], s.Question.Options[optionIndex+1:]...)
	return nil
}

// SetCorrect marks exactly one option correct, clearing all siblings.
func (e *Editor) SetCorrect(id string, optionIndex int) error {
	s, err := e.lookup(id)
	if err != nil {
		return err
	}
	if optionIndex < 0 || optionIndex >= len(s.Question.Options) {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("option %d out of range", optionIndex))
	}

	for i := range s.Question.Options {
		s.Question.Options[i].IsCorrect = i == optionIndex
	}
	return nil
}

// Remove deletes a question from the staged batch entirely.
func (e *Editor) Remove(id string) error {
	for i := range e.staged {
		if e.staged[i].ID == id {
			e.staged = append(e.staged[:i], e.staged[i+1:]...)
			return nil
		}
	}
	return errors.New(errors.CodeValidation,
		errors.WithMessagef("no staged question %s", id))
}

// Incomplete lists selected questions with no correct option. Saving them
// is permitted; the view warns instead of blocking.
func (e *Editor) Incomplete() []string {
	var ids []string
	for _, s := range e.staged {
		if !s.Selected {
			continue
		}
		hasCorrect := false
		for _, opt := range s.Question.Options {
			if opt.IsCorrect {
				hasCorrect = true
				break
			}
		}
		if !hasCorrect {
			ids = append(ids, s.ID)
		}
	}
	return ids
}

// SaveResult is the outcome of a batch save. Linking is at-least-partial:
// created questions are never rolled back when a link fails.
type SaveResult struct {
	Created     int
	Linked      int
	FailedLinks int
	Questions   []domain.Question
}

// Save persists the selected questions, then links each created question to
// the quiz one at a time. Individual link failures are counted, not retried;
// the created questions stay saved either way. A fully linked save resets
// the editor.
func (e *Editor) Save(ctx context.Context, quizID string) (*SaveResult, error) {
	inputs := make([]api.QuestionInput, 0, len(e.staged))
	for _, s := range e.staged {
		if !s.Selected {
			continue
		}

		points := s.Question.Points
		if points < 1 {
			points = 1
		}

		inputs = append(inputs, api.QuestionInput{
			Text:     s.Question.Text,
			ImageURL: s.Question.ImageURL,
			Options:  s.Question.Options,
			Points:   points,
		})
	}

	if len(inputs) == 0 {
		return nil, errors.New(errors.CodeValidation,
			errors.WithMessagef("select at least one question to save"))
	}

	created, err := e.api.SaveQuestions(ctx, inputs)
	if err != nil {
		return nil, errors.New(errors.CodeSubmission,
			errors.WithMessagef("save questions"),
			errors.WithCause(err))
	}

	result := &SaveResult{
		Created:   len(created),
		Questions: created,
	}

	for _, q := range created {
		if err := e.api.AddQuestionToQuiz(ctx, quizID, q.ID); err != nil {
			result.FailedLinks++
			continue
		}
		result.Linked++
	}

	if result.FailedLinks > 0 {
		return result, errors.New(errors.CodeSubmission,
			errors.WithMessagef("saved %d questions but failed to add %d to quiz", result.Created, result.FailedLinks))
	}

	e.preview = nil
	e.staged = nil

	return result, nil
}
