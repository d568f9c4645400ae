// Package session owns the lifecycle of a single quiz attempt: loading the
// question set, randomizing its presentation, driving the countdown,
// collecting answers and delivering the submission exactly once.
package session

import (
	"context"
	"math/rand"
	"time"

	"quizdesk/internal/api"
	"quizdesk/internal/domain"
	"quizdesk/internal/errors"
	"quizdesk/internal/event"
	"quizdesk/internal/score"
)

// State is the attempt lifecycle. Transitions:
//
//	NotLoaded -> Loaded -> InProgress -> ConfirmPending -> Submitting -> Completed
//
// with ConfirmPending -> InProgress (cancel), Submitting -> ConfirmPending
// (failure), and InProgress -> Submitting directly on timeout.
type State int

const (
	StateNotLoaded State = iota
	StateLoaded
	StateInProgress
	StateConfirmPending
	StateSubmitting
	StateCompleted
)

var stateNames = map[State]string{
	StateNotLoaded:      "not_loaded",
	StateLoaded:         "loaded",
	StateInProgress:     "in_progress",
	StateConfirmPending: "confirm_pending",
	StateSubmitting:     "submitting",
	StateCompleted:      "completed",
}

func (s State) String() string { return stateNames[s] }

// Identity resolves the user id an attempt is attributed to: the
// authenticated user when one exists, otherwise a persisted pseudo-identity.
type Identity interface {
	UserID(ctx context.Context) (string, error)
}

type Config struct {
	API      *api.Client
	Identity Identity

	// EventBus, when set, receives attempt milestones.
	EventBus *event.Bus

	// Rand seeds the presentation shuffle; nil uses a time-seeded source.
	Rand *rand.Rand
}

// Controller manages one attempt end-to-end. It is owned by a single
// goroutine: the view loop calls its methods and the one-second Tick, so an
// in-flight flag rather than a lock guards re-submission.
type Controller struct {
	api      *api.Client
	identity Identity
	eb       *event.Bus
	rng      *rand.Rand

	state     State
	quiz      domain.Quiz
	questions []presented
	answers   map[string]int
	cursor    int
	remaining int
	inFlight  bool

	review *score.Review
	result *api.AttemptResult
}

// presented is one question in this attempt's shuffled presentation.
// original is the backend order and is never mutated; toOriginal maps a
// presented option index back to its original index, so a selection can be
// resolved to a stable option id regardless of display order.
type presented struct {
	question   domain.Question
	original   []domain.Option
	toOriginal []int
}

func NewController(c Config) *Controller {
	rng := c.Rand
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}

	return &Controller{
		api:      c.API,
		identity: c.Identity,
		eb:       c.EventBus,
		rng:      rng,
		state:    StateNotLoaded,
		answers:  make(map[string]int),
	}
}

func (c *Controller) State() State { return c.state }

// Load fetches the quiz and its full question set and builds a fresh
// shuffled presentation. On failure the controller stays NotLoaded so the
// caller can surface a retry; no timer is started. Loading again (retake)
// discards any previous attempt state.
func (c *Controller) Load(ctx context.Context, quizID string) error {
	if c.state == StateInProgress || c.state == StateConfirmPending || c.state == StateSubmitting {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("attempt in progress, cannot reload"))
	}

	qq, err := c.api.GetQuizWithQuestions(ctx, quizID)
	if err != nil {
		return errors.New(errors.CodeLoad,
			errors.WithMessagef("load quiz %s", quizID),
			errors.WithCause(err))
	}

	c.quiz = qq.Quiz
	c.questions = c.shuffleQuestions(qq.Questions)
	c.answers = make(map[string]int)
	c.cursor = 0
	c.remaining = 0
	c.inFlight = false
	c.review = nil
	c.result = nil
	c.state = StateLoaded

	return nil
}

// shuffleQuestions applies Fisher–Yates to the question sequence and,
// independently, to each question's options.
func (c *Controller) shuffleQuestions(questions []domain.Question) []presented {
	out := make([]presented, 0, len(questions))

	for _, idx := range permutation(c.rng, len(questions)) {
		q := questions[idx]

		original := make([]domain.Option, len(q.Options))
		copy(original, q.Options)

		perm := permutation(c.rng, len(original))
		shuffled := make([]domain.Option, len(original))
		for i, oi := range perm {
			shuffled[i] = original[oi]
		}
		q.Options = shuffled

		out = append(out, presented{
			question:   q,
			original:   original,
			toOriginal: perm,
		})
	}

	return out
}

func (c *Controller) Quiz() domain.Quiz { return c.quiz }

// Questions returns the question set in this attempt's presentation order.
func (c *Controller) Questions() []domain.Question {
	out := make([]domain.Question, len(c.questions))
	for i, p := range c.questions {
		out[i] = p.question
	}
	return out
}

// Start begins the attempt on explicit user action. The countdown is the
// quiz duration rounded to whole seconds; a non-positive duration means the
// attempt is untimed.
func (c *Controller) Start() error {
	if c.state != StateLoaded {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("cannot start from state %s", c.state))
	}

	c.state = StateInProgress
	c.remaining = c.quiz.DurationSeconds()
	if c.remaining < 0 {
		c.remaining = 0
	}

	return nil
}

// Remaining is the countdown in whole seconds.
func (c *Controller) Remaining() int { return c.remaining }

// Tick advances the countdown by one second. When it reaches zero the
// controller submits automatically, once, bypassing the confirmation step
// and sending whatever has been answered. Ticks are ignored once submission
// has begun or when the attempt is untimed, so an expiry cannot fire twice.
// It reports whether this tick expired the countdown.
func (c *Controller) Tick(ctx context.Context) bool {
	if c.state != StateInProgress || c.remaining <= 0 {
		return false
	}

	c.remaining--
	if c.remaining > 0 {
		return false
	}

	if c.eb != nil {
		c.eb.Publish(ctx, domain.EventTimeExpired{QuizID: c.quiz.ID})
	}

	// Auto-submit failure drops into ConfirmPending like a manual failure;
	// the countdown is spent either way, so the user can only retry.
	_ = c.submit(ctx)

	return true
}

// Record overwrites any prior answer for a question. It does not move the
// cursor.
func (c *Controller) Record(questionID string, optionIndex int) error {
	if c.state != StateInProgress {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("cannot answer in state %s", c.state))
	}

	p, ok := c.find(questionID)
	if !ok {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("unknown question %s", questionID))
	}

	if optionIndex < 0 || optionIndex >= len(p.question.Options) {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("option %d out of range for question %s", optionIndex, questionID))
	}

	c.answers[questionID] = optionIndex
	return nil
}

// Answer returns the recorded presented-order index for a question.
func (c *Controller) Answer(questionID string) (int, bool) {
	idx, ok := c.answers[questionID]
	return idx, ok
}

func (c *Controller) find(questionID string) (presented, bool) {
	for _, p := range c.questions {
		if p.question.ID == questionID {
			return p, true
		}
	}
	return presented{}, false
}

// Current returns the question under the cursor and its position.
func (c *Controller) Current() (domain.Question, int) {
	if len(c.questions) == 0 {
		return domain.Question{}, 0
	}
	return c.questions[c.cursor].question, c.cursor
}

// Next moves the cursor forward; at the last question it is a no-op.
func (c *Controller) Next() {
	if c.cursor < len(c.questions)-1 {
		c.cursor++
	}
}

// Prev moves the cursor back; at the first question it is a no-op.
func (c *Controller) Prev() {
	if c.cursor > 0 {
		c.cursor--
	}
}

// Seek jumps to a question by presented position, clamped to range.
func (c *Controller) Seek(i int) {
	switch {
	case len(c.questions) == 0:
		c.cursor = 0
	case i < 0:
		c.cursor = 0
	case i >= len(c.questions):
		c.cursor = len(c.questions) - 1
	default:
		c.cursor = i
	}
}

func (c *Controller) AnsweredCount() int { return len(c.answers) }

// AllAnswered reports whether every presented question has a recorded
// answer. It gates manual submission only; timeout submission ignores it.
func (c *Controller) AllAnswered() bool {
	if len(c.questions) == 0 {
		return false
	}

	for _, p := range c.questions {
		if _, ok := c.answers[p.question.ID]; !ok {
			return false
		}
	}
	return true
}

// RequestSubmit enters the confirmation step for a manual submission.
func (c *Controller) RequestSubmit() error {
	if c.state != StateInProgress {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("cannot submit from state %s", c.state))
	}

	if !c.AllAnswered() {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("answered %d of %d questions", c.AnsweredCount(), len(c.questions)))
	}

	c.state = StateConfirmPending
	return nil
}

// CancelSubmit leaves the confirmation step without losing any answers.
func (c *Controller) CancelSubmit() {
	if c.state == StateConfirmPending {
		c.state = StateInProgress
	}
}

// Submit delivers the confirmed attempt. On transport failure the
// controller returns to the confirmation step so the user can retry.
func (c *Controller) Submit(ctx context.Context) error {
	if c.state != StateConfirmPending {
		return errors.New(errors.CodeValidation,
			errors.WithMessagef("cannot submit from state %s", c.state))
	}

	return c.submit(ctx)
}

func (c *Controller) submit(ctx context.Context) error {
	if c.inFlight {
		return errors.New(errors.CodeSubmission,
			errors.WithMessagef("submission already in progress"))
	}

	c.inFlight = true
	c.state = StateSubmitting

	err := c.deliver(ctx)
	c.inFlight = false

	if err != nil {
		c.state = StateConfirmPending
		return errors.New(errors.CodeSubmission,
			errors.WithMessagef("submit attempt"),
			errors.WithCause(err))
	}

	c.state = StateCompleted
	return nil
}

func (c *Controller) deliver(ctx context.Context) error {
	userID, err := c.identity.UserID(ctx)
	if err != nil {
		return err
	}

	attempt := domain.Attempt{
		QuizID:  c.quiz.ID,
		UserID:  userID,
		Answers: make([]domain.Answer, 0, len(c.answers)),
	}

	for _, p := range c.questions {
		idx, ok := c.answers[p.question.ID]
		if !ok {
			continue
		}

		attempt.Answers = append(attempt.Answers, domain.Answer{
			QuestionID:            p.question.ID,
			SelectedOptionIndexes: []int{idx},
			SelectedOptionIDs:     []string{p.original[p.toOriginal[idx]].ID},
		})
	}

	result, err := c.api.SubmitAttempt(ctx, attempt)
	if err != nil {
		return err
	}

	c.result = result
	c.review = score.Grade(c.quiz.ID, c.Questions(), c.answers)

	if c.eb != nil {
		c.eb.Publish(ctx, domain.EventAttemptSubmitted{
			Attempt:   attempt,
			AttemptID: result.AttemptID,
		})
	}

	return nil
}

// Review is the grading artifact; non-nil only once Completed.
func (c *Controller) Review() *score.Review { return c.review }

// Result is the backend acknowledgment; non-nil only once Completed.
func (c *Controller) Result() *api.AttemptResult { return c.result }
