package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"protaskinate/internal/model"
	"protaskinate/internal/service"
)

type registerRequest struct {
	Email string `json:"email"`
}

func (s *Server) handleRegister(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	user, err := s.svc.Users.Register(c.Request.Context(), req.Email)
	if err != nil {
		respondError(c, err)
		return
	}
	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"user": user, "token": token})
}

func (s *Server) handleCreateTask(c *gin.Context) {
	input, ok := s.bindTaskInput(c)
	if !ok {
		return
	}
	task, err := s.svc.Tasks.CreateTask(c.Request.Context(), currentUser(c), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, task)
}

func (s *Server) handleGetTask(c *gin.Context) {
	task, err := s.svc.Tasks.GetTask(c.Request.Context(), currentUser(c), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleUpdateTask(c *gin.Context) {
	input, ok := s.bindTaskInput(c)
	if !ok {
		return
	}
	task, err := s.svc.Tasks.UpdateTask(c.Request.Context(), currentUser(c), c.Param("id"), input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type moveRequest struct {
	Status model.Status `json:"status"`
}

func (s *Server) handleMoveTask(c *gin.Context) {
	var req moveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	zone, _ := s.zone(c)
	task, err := s.svc.Tasks.MoveTask(c.Request.Context(), currentUser(c), c.Param("id"), req.Status, zone)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

type rescheduleRequest struct {
	DueDate *model.Date `json:"dueDate"`
}

func (s *Server) handleRescheduleTask(c *gin.Context) {
	var req rescheduleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "dueDate must be YYYY-MM-DD or null")
		return
	}
	task, err := s.svc.Tasks.RescheduleTask(c.Request.Context(), currentUser(c), c.Param("id"), req.DueDate)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, task)
}

func (s *Server) handleDeleteTask(c *gin.Context) {
	if err := s.svc.Tasks.DeleteTask(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// bindTaskInput reads the edit form. A form without a time zone takes the
// caller's, so recurrence follows the user's calendar.
func (s *Server) bindTaskInput(c *gin.Context) (service.TaskInput, bool) {
	var input service.TaskInput
	if err := c.ShouldBindJSON(&input); err != nil {
		badRequest(c, "invalid request body")
		return input, false
	}
	if strings.TrimSpace(input.TimeZone) == "" {
		input.TimeZone, _ = s.zone(c)
	}
	return input, true
}

type categoryRequest struct {
	Name  string `json:"name"`
	Color string `json:"color"`
}

func (s *Server) handleListCategories(c *gin.Context) {
	categories, err := s.svc.Categories.List(c.Request.Context(), currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, categories)
}

func (s *Server) handleAddCategory(c *gin.Context) {
	var req categoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "invalid request body")
		return
	}
	category, err := s.svc.Categories.Add(c.Request.Context(), currentUser(c), req.Name, req.Color)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, category)
}

func (s *Server) handleDeleteCategory(c *gin.Context) {
	if err := s.svc.Categories.Delete(c.Request.Context(), currentUser(c), c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}
