package models

import (
	"time"
)

// Poll status values. A poll is active exactly while one question is open
// for answers; it returns to waiting when the question closes.
const (
	StatusWaiting = "waiting"
	StatusActive  = "active"
)

// Poll is the single live polling session: roster, question history and
// per-question tallies. It owns all mutation rules; callers are expected to
// serialize access (see services.PollService).
type Poll struct {
	TeacherID       string
	Status          string
	CreatedAt       time.Time
	CurrentQuestion *Question

	Questions []*Question

	students     map[string]*Student
	studentOrder []string

	results map[string]*QuestionResult
}

func NewPoll(teacherID string) *Poll {
	return &Poll{
		TeacherID: teacherID,
		Status:    StatusWaiting,
		CreatedAt: time.Now(),
		Questions: []*Question{},
		students:  make(map[string]*Student),
		results:   make(map[string]*QuestionResult),
	}
}

// Student is a roster entry. TabID is the client-supplied browser tab token
// used for duplicate-join and ban checks; it is never serialized to the room.
type Student struct {
	ID          string `json:"studentId"`
	Name        string `json:"name"`
	TabID       string `json:"-"`
	HasAnswered bool   `json:"hasAnswered"`
}

// Option is a single answer choice. IsCorrect is teacher-only metadata and
// must never reach students, so it is excluded from serialization entirely.
type Option struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"-"`
}

// Question is immutable once created and appended to the poll history.
type Question struct {
	ID               string   `json:"questionId"`
	Text             string   `json:"question"`
	Options          []Option `json:"options"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

// OptionTexts returns just the option labels, the only view of the options
// students are allowed to see.
func (q *Question) OptionTexts() []string {
	texts := make([]string, len(q.Options))
	for i, opt := range q.Options {
		texts[i] = opt.Text
	}
	return texts
}

// QuestionResult accumulates answers for one question. A student can appear
// at most once; insertion order is preserved for display.
type QuestionResult struct {
	answers      map[string]string
	order        []string
	TotalAnswers int
}

func newQuestionResult() *QuestionResult {
	return &QuestionResult{answers: make(map[string]string)}
}

// Record stores an answer and reports whether it was the student's first for
// this question. Duplicates leave the result untouched.
func (r *QuestionResult) Record(studentID, answer string) bool {
	if _, dup := r.answers[studentID]; dup {
		return false
	}
	r.answers[studentID] = answer
	r.order = append(r.order, studentID)
	r.TotalAnswers++
	return true
}

// AddStudent inserts a new roster entry.
func (p *Poll) AddStudent(studentID, name, tabID string) {
	p.students[studentID] = &Student{ID: studentID, Name: name, TabID: tabID}
	p.studentOrder = append(p.studentOrder, studentID)
}

// RemoveStudent drops a roster entry. Past results for the student are kept;
// history is never rewritten.
func (p *Poll) RemoveStudent(studentID string) {
	delete(p.students, studentID)
	for i, id := range p.studentOrder {
		if id == studentID {
			p.studentOrder = append(p.studentOrder[:i], p.studentOrder[i+1:]...)
			break
		}
	}
}

// Student returns the roster entry for an id, or nil.
func (p *Poll) Student(studentID string) *Student {
	return p.students[studentID]
}

// StudentByTab returns the roster entry holding a tab id, or nil.
func (p *Poll) StudentByTab(tabID string) *Student {
	for _, s := range p.students {
		if s.TabID == tabID {
			return s
		}
	}
	return nil
}

// Roster returns the students in join order.
func (p *Poll) Roster() []*Student {
	roster := make([]*Student, 0, len(p.students))
	for _, id := range p.studentOrder {
		if s, ok := p.students[id]; ok {
			roster = append(roster, s)
		}
	}
	return roster
}

// RosterSize is the current roster size. It is read live wherever it is used
// as the all-answered denominator: kicking a student mid-question shrinks the
// denominator for the next evaluation.
func (p *Poll) RosterSize() int {
	return len(p.students)
}

// AddQuestion appends a question with an empty result and resets every
// student's answered flag for the new round.
func (p *Poll) AddQuestion(q *Question) {
	p.Questions = append(p.Questions, q)
	p.results[q.ID] = newQuestionResult()
	for _, s := range p.students {
		s.HasAnswered = false
	}
}

// SubmitAnswer records an answer. It reports false (a silent no-op for the
// caller) when the question is unknown, the student is off the roster, or
// the student already answered.
func (p *Poll) SubmitAnswer(studentID, questionID, answer string) bool {
	result, ok := p.results[questionID]
	if !ok {
		return false
	}
	student := p.students[studentID]
	if student == nil {
		return false
	}
	if !result.Record(studentID, answer) {
		return false
	}
	student.HasAnswered = true
	return true
}

// CanProceedToNext reports whether the currently open question has been
// answered by the entire current roster.
func (p *Poll) CanProceedToNext() bool {
	if p.CurrentQuestion == nil {
		return false
	}
	result, ok := p.results[p.CurrentQuestion.ID]
	if !ok {
		return false
	}
	return result.TotalAnswers >= len(p.students)
}

// StudentAnswer is one entry of a results snapshot, in submission order.
type StudentAnswer struct {
	StudentID   string `json:"studentId"`
	StudentName string `json:"studentName"`
	Answer      string `json:"answer"`
}

// ResultsSnapshot is the wire form of a question tally. AnswerCounts and
// TotalStudents are derived at snapshot time, never stored.
type ResultsSnapshot struct {
	QuestionID     string          `json:"questionId"`
	TotalAnswers   int             `json:"totalAnswers"`
	TotalStudents  int             `json:"totalStudents"`
	AnswerCounts   map[string]int  `json:"answerCounts"`
	StudentAnswers []StudentAnswer `json:"studentAnswers"`
}

// QuestionResults builds a snapshot for a question, or nil if the id is
// unknown. Names of since-kicked students come back empty; their recorded
// answers stay in the tally.
func (p *Poll) QuestionResults(questionID string) *ResultsSnapshot {
	result, ok := p.results[questionID]
	if !ok {
		return nil
	}

	snapshot := &ResultsSnapshot{
		QuestionID:     questionID,
		TotalAnswers:   result.TotalAnswers,
		TotalStudents:  len(p.students),
		AnswerCounts:   make(map[string]int),
		StudentAnswers: make([]StudentAnswer, 0, len(result.order)),
	}

	for _, studentID := range result.order {
		answer := result.answers[studentID]
		snapshot.AnswerCounts[answer]++

		name := ""
		if s := p.students[studentID]; s != nil {
			name = s.Name
		}
		snapshot.StudentAnswers = append(snapshot.StudentAnswers, StudentAnswer{
			StudentID:   studentID,
			StudentName: name,
			Answer:      answer,
		})
	}

	return snapshot
}
