package services

import (
	"encoding/json"

	"github.com/ankitmaurya-byte/intervue/models"
)

// Event names carried in the websocket envelope. Room-scoped unless noted.
const (
	// inbound
	EventJoinRoom        = "joinRoom"
	EventChatMessage     = "chatMessage"
	EventKickParticipant = "kickParticipant"
	EventSubmitAnswer    = "submitAnswer"
	EventRequestResults  = "requestResults"

	// outbound
	EventRoomJoined        = "roomJoined"        // unicast ack
	EventParticipantJoined = "participantJoined"
	EventParticipantKicked = "participantKicked"
	EventForceDisconnect   = "forceDisconnect" // unicast to the kicked connection
	EventAnswerRecorded    = "answerRecorded"
	EventAllAnswered       = "allAnswered"
	EventQuestionResults   = "questionResults" // unicast reply
	EventNewQuestion       = "newQuestion"
	EventQuestionTimeUp    = "questionTimeUp"
)

// Message is the outbound wire envelope.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// Envelope is the inbound wire envelope; payloads are decoded per event type
// and malformed events are dropped at the boundary.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type JoinRoomPayload struct {
	UserType  string `json:"userType"`
	StudentID string `json:"studentId,omitempty"`
	Name      string `json:"name"`
}

type RoomJoinedPayload struct {
	UserType  string `json:"userType"`
	StudentID string `json:"studentId,omitempty"`
	Name      string `json:"name,omitempty"`
}

type ParticipantJoinedPayload struct {
	UserType string            `json:"userType"`
	ID       string            `json:"id"`
	Name     string            `json:"name"`
	Students []*models.Student `json:"students"`
}

type ChatMessagePayload struct {
	UserID   string `json:"userId"`
	UserType string `json:"userType"`
	Name     string `json:"name"`
	Text     string `json:"text"`
	Ts       int64  `json:"ts"`
}

type KickParticipantPayload struct {
	StudentID string `json:"studentId"`
}

type ForceDisconnectPayload struct {
	Reason string `json:"reason"`
}

type ParticipantKickedPayload struct {
	StudentID string            `json:"studentId"`
	Name      string            `json:"name"`
	Students  []*models.Student `json:"students"`
}

type SubmitAnswerPayload struct {
	StudentID  string `json:"studentId"`
	QuestionID string `json:"questionId"`
	Answer     string `json:"answer"`
}

type AnswerRecordedPayload struct {
	QuestionID  string                  `json:"questionId"`
	Results     *models.ResultsSnapshot `json:"results"`
	StudentID   string                  `json:"studentId"`
	StudentName string                  `json:"studentName"`
}

type AllAnsweredPayload struct {
	QuestionID string                  `json:"questionId"`
	Results    *models.ResultsSnapshot `json:"results"`
}

type RequestResultsPayload struct {
	QuestionID string `json:"questionId"`
}

type NewQuestionPayload struct {
	QuestionID       string   `json:"questionId"`
	Question         string   `json:"question"`
	Options          []string `json:"options"`
	TimeLimitSeconds int      `json:"timeLimitSeconds"`
}

type QuestionTimeUpPayload struct {
	QuestionID string                  `json:"questionId"`
	Results    *models.ResultsSnapshot `json:"results"`
}
