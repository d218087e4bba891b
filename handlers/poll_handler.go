package handlers

import (
	"errors"
	"log"
	"net/http"

	"github.com/ankitmaurya-byte/intervue/models"
	"github.com/ankitmaurya-byte/intervue/services"

	"github.com/gin-gonic/gin"
)

type PollHandler struct {
	pollService *services.PollService
	hub         *services.Hub
	jwtSecret   string
}

func NewPollHandler(pollService *services.PollService, hub *services.Hub, jwtSecret string) *PollHandler {
	return &PollHandler{
		pollService: pollService,
		hub:         hub,
		jwtSecret:   jwtSecret,
	}
}

type JoinRequest struct {
	Name  string `json:"name"`
	TabID string `json:"tabId"`
}

type PostQuestionRequest struct {
	Question string          `json:"question"`
	Options  []OptionRequest `json:"options"`
	TimerSec int             `json:"timerSec"`
}

type OptionRequest struct {
	Text      string `json:"text"`
	IsCorrect bool   `json:"isCorrect"`
}

// CreatePoll replaces any existing poll with a fresh one and returns the
// teacher capability token.
func (h *PollHandler) CreatePoll(c *gin.Context) {
	token, teacherID, err := services.IssueTeacherToken(h.jwtSecret)
	if err != nil {
		log.Printf("Error issuing teacher token: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create poll"})
		return
	}

	h.pollService.CreatePoll(teacherID)
	c.JSON(http.StatusOK, gin.H{"teacherId": token})
}

func (h *PollHandler) GetPollState(c *gin.Context) {
	state, err := h.pollService.PollState()
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Poll not created yet"})
		return
	}
	c.JSON(http.StatusOK, state)
}

func (h *PollHandler) Join(c *gin.Context) {
	var req JoinRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "name and tabId are required"})
		return
	}

	studentID, err := h.pollService.JoinStudent(req.Name, req.TabID)
	if err != nil {
		var banned *models.BannedError
		switch {
		case errors.Is(err, models.ErrPollNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.As(err, &banned):
			c.JSON(http.StatusForbidden, gin.H{
				"error":       "This tab is banned from the poll",
				"bannedUntil": banned.Until.UnixMilli(),
			})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"studentId": studentID})
}

func (h *PollHandler) PostQuestion(c *gin.Context) {
	teacherID := c.GetString("teacher_id")
	if teacherID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Teacher token required"})
		return
	}

	var req PostQuestionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid question payload"})
		return
	}

	options := make([]models.Option, len(req.Options))
	for i, opt := range req.Options {
		options[i] = models.Option{Text: opt.Text, IsCorrect: opt.IsCorrect}
	}

	questionID, err := h.pollService.PostQuestion(teacherID, req.Question, options, req.TimerSec, h.hub)
	if err != nil {
		switch {
		case errors.Is(err, models.ErrPollNotFound):
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		case errors.Is(err, models.ErrNotTeacher):
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
		default:
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{"questionId": questionID})
}

func (h *PollHandler) CheckBan(c *gin.Context) {
	tabID := c.Query("tabId")
	if tabID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "tabId is required"})
		return
	}

	until, banned := h.pollService.BanStatus(tabID)
	if !banned {
		c.JSON(http.StatusOK, gin.H{"banned": false, "bannedUntil": nil})
		return
	}
	c.JSON(http.StatusOK, gin.H{"banned": true, "bannedUntil": until.UnixMilli()})
}
