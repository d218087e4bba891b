package services

import (
	"log"
	"strings"
	"sync"
	"time"

	"github.com/ankitmaurya-byte/intervue/models"

	"github.com/google/uuid"
)

// RoomPublisher is the fan-out surface the poll service drives. Broadcast
// reaches every connection joined to the room; Unicast targets one
// connection; Detach removes a connection from the room without closing it.
type RoomPublisher interface {
	Broadcast(event string, payload interface{})
	Unicast(connID string, event string, payload interface{})
	Detach(connID string)
}

// PollService is the authoritative poll aggregate. All mutations are
// serialized behind one mutex, and every externally visible mutation
// broadcasts its event while still holding it, so observers never see a
// state the server itself does not hold. For a given question the event
// order is total: newQuestion, any number of answerRecorded, then exactly
// one of allAnswered or questionTimeUp.
type PollService struct {
	mu          sync.Mutex
	poll        *models.Poll
	timer       questionTimer
	bans        *BanStore
	registry    *SessionRegistry
	banDuration time.Duration
}

func NewPollService(banDuration time.Duration) *PollService {
	return &PollService{
		bans:        NewBanStore(),
		registry:    NewSessionRegistry(),
		banDuration: banDuration,
	}
}

// CreatePoll resets all poll state to a fresh empty poll in waiting status,
// replacing any prior poll and cancelling any in-flight timer.
func (s *PollService) CreatePoll(teacherID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.timer.Cancel()
	s.poll = models.NewPoll(teacherID)
	log.Printf("Poll created (teacher %s)", teacherID)
}

// JoinStudent seats a new student and returns the allocated student id.
func (s *PollService) JoinStudent(name, tabID string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poll == nil {
		return "", models.ErrPollNotFound
	}
	if strings.TrimSpace(name) == "" || strings.TrimSpace(tabID) == "" {
		return "", models.ErrMissingFields
	}
	if until, banned := s.bans.BannedUntil(tabID); banned {
		return "", &models.BannedError{Until: until}
	}
	if s.poll.StudentByTab(tabID) != nil {
		return "", models.ErrDuplicateTab
	}

	studentID := uuid.NewString()
	s.poll.AddStudent(studentID, name, tabID)
	log.Printf("Student joined: %s (%s)", name, studentID)
	return studentID, nil
}

// PostQuestion opens a new question: appends it to the history, arms the
// countdown and broadcasts it to the room with option texts only.
func (s *PollService) PostQuestion(teacherID, text string, options []models.Option, timerSec int, pub RoomPublisher) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poll == nil {
		return "", models.ErrPollNotFound
	}
	if teacherID != s.poll.TeacherID {
		return "", models.ErrNotTeacher
	}

	valid := make([]models.Option, 0, len(options))
	for _, opt := range options {
		if strings.TrimSpace(opt.Text) != "" {
			valid = append(valid, opt)
		}
	}
	if strings.TrimSpace(text) == "" || len(valid) < 2 || timerSec <= 0 {
		return "", models.ErrInvalidQuestion
	}

	if s.poll.Status == models.StatusActive && !s.poll.CanProceedToNext() {
		return "", models.ErrQuestionOpen
	}

	question := &models.Question{
		ID:               uuid.NewString(),
		Text:             text,
		Options:          valid,
		TimeLimitSeconds: timerSec,
	}
	s.poll.AddQuestion(question)
	s.poll.CurrentQuestion = question
	s.poll.Status = models.StatusActive

	s.timer.Arm(question.ID, time.Duration(timerSec)*time.Second, func(questionID string) {
		s.expireQuestion(questionID, pub)
	})

	pub.Broadcast(EventNewQuestion, NewQuestionPayload{
		QuestionID:       question.ID,
		Question:         question.Text,
		Options:          question.OptionTexts(),
		TimeLimitSeconds: question.TimeLimitSeconds,
	})

	log.Printf("Question posted: %s (%ds)", question.ID, timerSec)
	return question.ID, nil
}

// expireQuestion is the timer's fire path. The armed question id is checked
// against the still-open question under the lock, so a timer made stale by
// an all-answered close or a newer question never emits.
func (s *PollService) expireQuestion(questionID string, pub RoomPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poll == nil || s.poll.Status != models.StatusActive {
		return
	}
	if s.poll.CurrentQuestion == nil || s.poll.CurrentQuestion.ID != questionID {
		return
	}

	pub.Broadcast(EventQuestionTimeUp, QuestionTimeUpPayload{
		QuestionID: questionID,
		Results:    s.poll.QuestionResults(questionID),
	})
	s.poll.Status = models.StatusWaiting
	s.poll.CurrentQuestion = nil
	log.Printf("Question timed out: %s", questionID)
}

// SubmitAnswer records a student's answer for the open question and fans
// out the updated tally. Anything that cannot be recorded (closed question,
// unknown student, duplicate submission) is a silent no-op. When the whole
// roster has answered, the question closes early and the timer is cancelled
// before it can fire.
func (s *PollService) SubmitAnswer(studentID, questionID, answer string, pub RoomPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poll == nil {
		return
	}
	if s.poll.CurrentQuestion == nil || s.poll.CurrentQuestion.ID != questionID {
		return
	}
	if !s.poll.SubmitAnswer(studentID, questionID, answer) {
		return
	}

	results := s.poll.QuestionResults(questionID)
	pub.Broadcast(EventAnswerRecorded, AnswerRecordedPayload{
		QuestionID:  questionID,
		Results:     results,
		StudentID:   studentID,
		StudentName: s.poll.Student(studentID).Name,
	})

	if s.poll.CanProceedToNext() {
		pub.Broadcast(EventAllAnswered, AllAnsweredPayload{
			QuestionID: questionID,
			Results:    results,
		})
		s.poll.Status = models.StatusWaiting
		s.poll.CurrentQuestion = nil
		s.timer.Cancel()
		log.Printf("All students answered question %s", questionID)
	}
}

// QuestionResults returns the tally snapshot for a question, or nil if the
// id is unknown.
func (s *PollService) QuestionResults(questionID string) *models.ResultsSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poll == nil {
		return nil
	}
	return s.poll.QuestionResults(questionID)
}

// KickStudent removes a student from the roster, bans their tab, pushes a
// private forced-disconnect to their live connection when one exists, and
// tells the rest of the room. Unknown students are a no-op.
func (s *PollService) KickStudent(studentID string, pub RoomPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poll == nil {
		return
	}
	student := s.poll.Student(studentID)
	if student == nil {
		return
	}

	until := time.Now().Add(s.banDuration)
	s.bans.Ban(student.TabID, until)
	s.poll.RemoveStudent(studentID)

	if connID, ok := s.registry.ConnFor(studentID); ok {
		pub.Unicast(connID, EventForceDisconnect, ForceDisconnectPayload{
			Reason: "You have been removed from the poll by the teacher",
		})
		pub.Detach(connID)
		s.registry.ReleaseConn(connID)
	}

	pub.Broadcast(EventParticipantKicked, ParticipantKickedPayload{
		StudentID: studentID,
		Name:      student.Name,
		Students:  s.poll.Roster(),
	})
	log.Printf("Student kicked: %s (%s), tab banned until %s", student.Name, studentID, until.Format(time.RFC3339))
}

// JoinRoom handles a connection's joinRoom event: binds the session mapping
// for students, acknowledges the joiner privately and announces the
// participant with a refreshed roster.
func (s *PollService) JoinRoom(connID, userType, studentID, name string, pub RoomPublisher) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if userType == "student" && studentID != "" && s.poll != nil && s.poll.Student(studentID) != nil {
		s.registry.Bind(studentID, connID)
	}

	ack := RoomJoinedPayload{UserType: userType, Name: name}
	if userType == "student" {
		ack.StudentID = studentID
	}
	pub.Unicast(connID, EventRoomJoined, ack)

	var roster []*models.Student
	if s.poll != nil {
		roster = s.poll.Roster()
	}
	id := studentID
	if id == "" {
		id = connID
	}
	pub.Broadcast(EventParticipantJoined, ParticipantJoinedPayload{
		UserType: userType,
		ID:       id,
		Name:     name,
		Students: roster,
	})
	log.Printf("%s joined room: %s (%s)", userType, name, id)
}

// HandleDisconnect releases the session mapping for a dropped connection.
// Roster membership is untouched; a refreshed tab keeps its seat.
func (s *PollService) HandleDisconnect(connID string) {
	s.registry.ReleaseConn(connID)
}

// BanStatus reports whether a tab is currently banned and until when.
func (s *PollService) BanStatus(tabID string) (time.Time, bool) {
	return s.bans.BannedUntil(tabID)
}

// PollState returns the REST view of the poll. The view is detached from
// the live aggregate: students are copied by value and the question slice
// header is snapshotted (questions themselves are immutable once created),
// so callers can marshal it after the lock is released.
func (s *PollService) PollState() (*PollStateView, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.poll == nil {
		return nil, models.ErrPollNotFound
	}

	roster := s.poll.Roster()
	students := make([]models.Student, len(roster))
	for i, student := range roster {
		students[i] = *student
	}

	view := &PollStateView{
		Status:    s.poll.Status,
		Students:  students,
		Questions: append([]*models.Question(nil), s.poll.Questions...),
	}
	if q := s.poll.CurrentQuestion; q != nil {
		view.CurrentQuestion = &NewQuestionPayload{
			QuestionID:       q.ID,
			Question:         q.Text,
			Options:          q.OptionTexts(),
			TimeLimitSeconds: q.TimeLimitSeconds,
		}
	}
	return view, nil
}

// PollStateView is the GET /api/poll response body.
type PollStateView struct {
	Status          string              `json:"status"`
	Students        []models.Student    `json:"students"`
	CurrentQuestion *NewQuestionPayload `json:"currentQuestion"`
	Questions       []*models.Question  `json:"questions"`
}
