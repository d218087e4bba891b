package routes

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ankitmaurya-byte/intervue/handlers"
	"github.com/ankitmaurya-byte/intervue/middleware"
	"github.com/ankitmaurya-byte/intervue/services"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	gin.SetMode(gin.TestMode)

	pollService := services.NewPollService(10 * time.Minute)
	hub := services.NewHub(pollService)
	go hub.Run()

	pollHandler := handlers.NewPollHandler(pollService, hub, testSecret)

	router := gin.New()
	router.Use(middleware.CORS())
	SetupRoutes(router, pollHandler, hub, testSecret)

	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv
}

func postJSON(t *testing.T, srv *httptest.Server, path, bearer string, body interface{}) (*http.Response, map[string]interface{}) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(http.MethodPost, srv.URL+path, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func getJSON(t *testing.T, srv *httptest.Server, path string) (*http.Response, map[string]interface{}) {
	t.Helper()

	resp, err := srv.Client().Get(srv.URL + path)
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&decoded))
	return resp, decoded
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

type wireEvent struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

func sendEvent(t *testing.T, conn *websocket.Conn, event string, payload interface{}) {
	t.Helper()
	data, err := json.Marshal(map[string]interface{}{"type": event, "payload": payload})
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, data))
}

// waitFor reads events off a connection until one of the wanted type
// arrives, skipping unrelated room traffic.
func waitFor(t *testing.T, conn *websocket.Conn, event string) wireEvent {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	for {
		_, data, err := conn.ReadMessage()
		require.NoError(t, err, "waiting for %s", event)

		var ev wireEvent
		require.NoError(t, json.Unmarshal(data, &ev))
		if ev.Type == event {
			return ev
		}
	}
}

func joinRoom(t *testing.T, conn *websocket.Conn, userType, studentID, name string) {
	t.Helper()
	sendEvent(t, conn, services.EventJoinRoom, services.JoinRoomPayload{
		UserType:  userType,
		StudentID: studentID,
		Name:      name,
	})
	waitFor(t, conn, services.EventRoomJoined)
}

func TestRESTValidation(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := getJSON(t, srv, "/api/poll")
	assert.Equal(t, http.StatusNotFound, resp.StatusCode, "no poll yet")

	resp, _ = postJSON(t, srv, "/api/poll/join", "", map[string]string{"name": "Alice", "tabId": "tab-a"})
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp, _ = getJSON(t, srv, "/api/poll/ban-check")
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "tabId is required")

	resp, body := postJSON(t, srv, "/api/poll", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	teacherToken, _ := body["teacherId"].(string)
	require.NotEmpty(t, teacherToken)

	resp, _ = postJSON(t, srv, "/api/poll/join", "", map[string]string{"name": "Alice"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing tabId")

	resp, _ = postJSON(t, srv, "/api/poll/join", "", map[string]string{"name": "Alice", "tabId": "tab-a"})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp, _ = postJSON(t, srv, "/api/poll/join", "", map[string]string{"name": "Alice 2", "tabId": "tab-a"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "duplicate tab")

	// teacher-only route
	question := map[string]interface{}{
		"question": "2+2?",
		"options":  []map[string]interface{}{{"text": "3"}, {"text": "4", "isCorrect": true}},
		"timerSec": 30,
	}
	resp, _ = postJSON(t, srv, "/api/poll/questions", "", question)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp, _ = postJSON(t, srv, "/api/poll/questions", "garbage-token", question)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = postJSON(t, srv, "/api/poll/questions", teacherToken, map[string]interface{}{
		"question": "",
		"options":  []map[string]interface{}{{"text": "3"}, {"text": "4"}},
		"timerSec": 30,
	})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "empty question text")

	resp, body = postJSON(t, srv, "/api/poll/questions", teacherToken, question)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.NotEmpty(t, body["questionId"])
}

func TestLivePollFlow(t *testing.T) {
	srv := newTestServer(t)

	resp, body := postJSON(t, srv, "/api/poll", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	teacherToken := body["teacherId"].(string)

	resp, body = postJSON(t, srv, "/api/poll/join", "", map[string]string{"name": "Alice", "tabId": "tab-a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	aliceID := body["studentId"].(string)

	resp, body = postJSON(t, srv, "/api/poll/join", "", map[string]string{"name": "Bob", "tabId": "tab-b"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bobID := body["studentId"].(string)

	teacher := dialWS(t, srv)
	joinRoom(t, teacher, "teacher", "", "Teacher")

	alice := dialWS(t, srv)
	joinRoom(t, alice, "student", aliceID, "Alice")

	bob := dialWS(t, srv)
	joinRoom(t, bob, "student", bobID, "Bob")

	// teacher posts a question; everyone in the room sees it, minus the
	// correctness flags
	resp, body = postJSON(t, srv, "/api/poll/questions", teacherToken, map[string]interface{}{
		"question": "2+2?",
		"options":  []map[string]interface{}{{"text": "3"}, {"text": "4", "isCorrect": true}},
		"timerSec": 30,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	questionID := body["questionId"].(string)

	ev := waitFor(t, alice, services.EventNewQuestion)
	var nq services.NewQuestionPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &nq))
	assert.Equal(t, questionID, nq.QuestionID)
	assert.Equal(t, []string{"3", "4"}, nq.Options)
	assert.Equal(t, 30, nq.TimeLimitSeconds)
	assert.NotContains(t, string(ev.Payload), "isCorrect")
	waitFor(t, bob, services.EventNewQuestion)

	// Alice answers: incremental tally 1/2
	sendEvent(t, alice, services.EventSubmitAnswer, services.SubmitAnswerPayload{
		StudentID: aliceID, QuestionID: questionID, Answer: "4",
	})
	ev = waitFor(t, teacher, services.EventAnswerRecorded)
	var rec services.AnswerRecordedPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &rec))
	assert.Equal(t, "Alice", rec.StudentName)
	assert.Equal(t, 1, rec.Results.TotalAnswers)
	assert.Equal(t, 2, rec.Results.TotalStudents)

	// Bob answers: the room gets allAnswered and the poll goes back to waiting
	sendEvent(t, bob, services.EventSubmitAnswer, services.SubmitAnswerPayload{
		StudentID: bobID, QuestionID: questionID, Answer: "4",
	})
	ev = waitFor(t, teacher, services.EventAllAnswered)
	var all services.AllAnsweredPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &all))
	assert.Equal(t, map[string]int{"4": 2}, all.Results.AnswerCounts)

	resp, body = getJSON(t, srv, "/api/poll")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "waiting", body["status"])
	assert.Nil(t, body["currentQuestion"])

	// results on demand
	sendEvent(t, alice, services.EventRequestResults, services.RequestResultsPayload{QuestionID: questionID})
	ev = waitFor(t, alice, services.EventQuestionResults)
	assert.Contains(t, string(ev.Payload), `"totalAnswers":2`)

	// unknown ids still get a reply, with null results
	sendEvent(t, alice, services.EventRequestResults, services.RequestResultsPayload{QuestionID: "no-such-question"})
	ev = waitFor(t, alice, services.EventQuestionResults)
	assert.Equal(t, "null", string(ev.Payload))

	// chat relays to the whole room
	sendEvent(t, bob, services.EventChatMessage, services.ChatMessagePayload{
		UserID: bobID, UserType: "student", Name: "Bob", Text: "hello", Ts: time.Now().UnixMilli(),
	})
	ev = waitFor(t, teacher, services.EventChatMessage)
	assert.Contains(t, string(ev.Payload), "hello")
}

func TestKickOverWebSocket(t *testing.T) {
	srv := newTestServer(t)

	resp, _ := postJSON(t, srv, "/api/poll", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, body := postJSON(t, srv, "/api/poll/join", "", map[string]string{"name": "Alice", "tabId": "tab-a"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	aliceID := body["studentId"].(string)

	resp, body = postJSON(t, srv, "/api/poll/join", "", map[string]string{"name": "Bob", "tabId": "tab-b"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	bobID := body["studentId"].(string)

	teacher := dialWS(t, srv)
	joinRoom(t, teacher, "teacher", "", "Teacher")
	alice := dialWS(t, srv)
	joinRoom(t, alice, "student", aliceID, "Alice")
	bob := dialWS(t, srv)
	joinRoom(t, bob, "student", bobID, "Bob")

	// a student cannot kick
	sendEvent(t, alice, services.EventKickParticipant, services.KickParticipantPayload{StudentID: bobID})
	time.Sleep(100 * time.Millisecond)
	_, body = getJSON(t, srv, "/api/poll")
	assert.Len(t, body["students"], 2, "kick from a non-teacher connection is dropped")

	// the teacher can
	sendEvent(t, teacher, services.EventKickParticipant, services.KickParticipantPayload{StudentID: bobID})

	ev := waitFor(t, bob, services.EventForceDisconnect)
	assert.Contains(t, string(ev.Payload), "removed")

	ev = waitFor(t, alice, services.EventParticipantKicked)
	var kicked services.ParticipantKickedPayload
	require.NoError(t, json.Unmarshal(ev.Payload, &kicked))
	assert.Equal(t, bobID, kicked.StudentID)
	assert.Equal(t, "Bob", kicked.Name)
	assert.Len(t, kicked.Students, 1)

	// Bob's tab is banned for ten minutes
	resp, body = postJSON(t, srv, "/api/poll/join", "", map[string]string{"name": "Bob", "tabId": "tab-b"})
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	bannedUntil, ok := body["bannedUntil"].(float64)
	require.True(t, ok)
	expected := time.Now().Add(10 * time.Minute).UnixMilli()
	assert.InDelta(t, expected, int64(bannedUntil), float64(5*time.Second.Milliseconds()))

	resp, body = getJSON(t, srv, "/api/poll/ban-check?tabId=tab-b")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, true, body["banned"])

	resp, body = getJSON(t, srv, "/api/poll/ban-check?tabId=tab-a")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, false, body["banned"])
}

func TestHealth(t *testing.T) {
	srv := newTestServer(t)
	resp, body := getJSON(t, srv, "/health")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body["status"])
}
