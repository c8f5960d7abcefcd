// Copyright © 2024 The ELPS authors

package exam

import (
	"context"
	"io"
	"math"
	"strconv"
	"strings"

	"github.com/luthersystems/rktgrade/harness"
	"github.com/luthersystems/rktgrade/lisp"
	"github.com/luthersystems/rktgrade/logging"
	"github.com/luthersystems/rktgrade/store"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

// Answer is a user's answer to one question.
type Answer struct {
	Type   string `json:"type,omitempty"`
	Code   string `json:"code,omitempty"`
	Answer string `json:"answer,omitempty"`

	// Filled in by grading.
	Points      int                  `json:"points"`
	MaxPoints   int                  `json:"maxPoints,omitempty"`
	Passed      int                  `json:"passedTests,omitempty"`
	Total       int                  `json:"totalTests,omitempty"`
	TestResults []harness.CaseResult `json:"testResults,omitempty"`
}

// Answers maps question ids to answers.
type Answers map[string]*Answer

// Answered reports whether a is a non-empty answer.
func (a *Answer) Answered() bool {
	if a == nil {
		return false
	}
	if a.Type == TypeCode {
		return strings.TrimSpace(a.Code) != ""
	}
	return a.Answer != ""
}

// Progress returns the number of answered questions and the number of
// questions.  An exam may be finished once every question is answered.
func (e *Exam) Progress(answers Answers) (answered, total int) {
	qs := e.Questions()
	for _, q := range qs {
		if answers[q.ID()].Answered() {
			answered++
		}
	}
	return answered, len(qs)
}

// QuestionResult is the grade of one question.
type QuestionResult struct {
	Number    int                    `json:"number"`
	Points    int                    `json:"points"`
	MaxPoints int                    `json:"maxPoints"`
	Grading   *harness.GradingResult `json:"grading,omitempty"`
}

// Result is the grade of a finished exam.
type Result struct {
	ExamID      string           `json:"examId"`
	Score       int              `json:"score"`
	TotalPoints int              `json:"totalPoints"`
	Percentage  int              `json:"percentage"`
	Grade       string           `json:"grade"`
	Correct     int              `json:"correct"`
	Questions   []QuestionResult `json:"questions"`
}

// Percentage rounds score/total to a whole percent.  It is 0 when total is
// not positive.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(score) / float64(total) * 100))
}

// LetterGrade maps a percentage to a letter.
func LetterGrade(percentage int) string {
	switch {
	case percentage >= 90:
		return "A"
	case percentage >= 80:
		return "B"
	case percentage >= 70:
		return "C"
	case percentage >= 60:
		return "D"
	default:
		return "F"
	}
}

// Grader grades exams one question at a time.
type Grader struct {
	Harness *harness.Grader
	// Store receives answers, completion and score.  A nil Store disables
	// persistence.
	Store store.Store
}

// NewGrader returns a Grader with the default harness.
func NewGrader(st store.Store) *Grader {
	return &Grader{Harness: harness.NewGrader(), Store: st}
}

// Grade grades every question of e sequentially.  Code questions without an
// answer are graded with their starter code.  Graded answers, the completion
// flag and the score are saved to the store.
func (g *Grader) Grade(ctx context.Context, e *Exam, answers Answers) (*Result, error) {
	ctx, span := otel.Tracer(harness.TracerName).Start(ctx, "exam.Grade")
	defer span.End()
	span.SetAttributes(attribute.String("rktgrade.exam", e.ID))
	log := logging.FromContext(ctx).With("exam", e.ID)

	if answers == nil {
		answers = Answers{}
	}
	res := &Result{ExamID: e.ID, TotalPoints: e.TotalPoints}
	for _, q := range e.Questions() {
		ans := answers[q.ID()]
		qr := QuestionResult{Number: q.Number, MaxPoints: q.MaxPoints()}
		switch {
		case q.IsCode():
			if ans == nil {
				ans = &Answer{Type: TypeCode, Code: q.StarterCode}
				answers[q.ID()] = ans
			}
			gr := g.grader().Grade(ctx, harness.Submission{
				Source:      ans.Code,
				Precode:     q.Precode,
				HiddenCases: q.HiddenCases,
				Points:      q.MaxPoints(),
			})
			ans.Passed, ans.Total, ans.TestResults = gr.Passed, gr.Total, gr.Results
			qr.Points = gr.Points
			qr.Grading = gr
		case ans != nil:
			qr.Points = g.gradeText(ctx, q, ans.Answer)
		}
		if ans != nil {
			ans.Points = qr.Points
			ans.MaxPoints = qr.MaxPoints
		}
		log.Debug("Graded question", "question", q.Number, "points", qr.Points, "max_points", qr.MaxPoints)
		res.Score += qr.Points
		if qr.Points > 0 {
			res.Correct++
		}
		res.Questions = append(res.Questions, qr)
	}
	res.Percentage = Percentage(res.Score, res.TotalPoints)
	res.Grade = LetterGrade(res.Percentage)
	span.SetAttributes(attribute.Int("rktgrade.score", res.Score))
	log.Info("Graded exam", "score", res.Score, "total_points", res.TotalPoints, "grade", res.Grade)

	if g.Store == nil {
		return res, nil
	}
	if err := SaveAnswers(g.Store, e.ID, answers); err != nil {
		return res, err
	}
	if err := store.SetBool(g.Store, store.ExamCompleted(e.ID), true); err != nil {
		return res, err
	}
	if err := g.Store.Set(store.ExamScore(e.ID), strconv.Itoa(res.Score)); err != nil {
		return res, err
	}
	return res, nil
}

func (g *Grader) grader() *harness.Grader {
	if g.Harness == nil {
		g.Harness = harness.NewGrader()
	}
	return g.Harness
}

// gradeText evaluates the question's verification with answer bound to the
// submitted text.  A #t result earns full points and an integer result earns
// that many points, capped at the question's points.  Anything else, errors
// included, earns nothing.
func (g *Grader) gradeText(ctx context.Context, q Question, answer string) int {
	if q.Verification == "" || answer == "" {
		return 0
	}
	h := g.grader()
	timeout := h.Timeout
	if timeout <= 0 {
		timeout = harness.DefaultTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	newEval := h.NewEvaluator
	if newEval == nil {
		newEval = harness.DefaultEvaluator()
	}
	ev, err := newEval(ctx, io.Discard, h.MaxSteps)
	if err != nil {
		logging.FromContext(ctx).Error("Unable to create evaluator", "error", err)
		return 0
	}
	src := "(define answer " + lisp.String(answer).String() + ")\n" + q.Verification
	v, err := ev.Eval(ctx, src)
	if err != nil {
		logging.FromContext(ctx).Debug("Verification failed", "question", q.Number, "error", err)
		return 0
	}
	if v == "#t" {
		return q.MaxPoints()
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	if n > q.MaxPoints() {
		return q.MaxPoints()
	}
	return n
}

// SaveAnswers stores the answers to exam id.
func SaveAnswers(st store.Store, id string, answers Answers) error {
	return store.SetJSON(st, store.ExamAnswers(id), answers)
}

// LoadAnswers returns the saved answers to exam id.  Answers to questions
// the exam no longer has are dropped.
func LoadAnswers(st store.Store, e *Exam) (Answers, error) {
	var saved Answers
	ok, err := store.GetJSON(st, store.ExamAnswers(e.ID), &saved)
	if err != nil || !ok {
		return Answers{}, err
	}
	n := len(e.Questions())
	answers := Answers{}
	for id, a := range saved {
		if k, err := strconv.Atoi(id); err == nil && k >= 1 && k <= n {
			answers[id] = a
		}
	}
	return answers, nil
}

// Status is the persisted state of an exam.
type Status struct {
	Completed bool
	// Score is nil until the exam has been graded.
	Score *int
}

// LoadStatus reads the completion flag and score of exam id.
func LoadStatus(st store.Store, id string) (Status, error) {
	var s Status
	var err error
	if s.Completed, err = store.GetBool(st, store.ExamCompleted(id)); err != nil {
		return s, err
	}
	score, ok, err := store.GetInt(st, store.ExamScore(id))
	if err != nil {
		return s, err
	}
	if ok {
		s.Score = &score
	}
	return s, nil
}
