package api

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"protaskinate/internal/auth"
	"protaskinate/internal/recurrence"
	"protaskinate/internal/service"
)

// Services are the application services the HTTP API exposes.
type Services struct {
	Users      *service.UserService
	Tasks      *service.TaskService
	Boards     *service.BoardService
	Categories *service.CategoryService
	Hub        *service.Hub
}

// Server is the JSON API of the board.
type Server struct {
	svc          Services
	tokens       *auth.Issuer
	fallbackZone string
	fallbackLoc  *time.Location
	router       *gin.Engine
	now          func() time.Time
}

// NewServer wires the routes. fallbackZone is used for "today" when a
// request names no time zone of its own.
func NewServer(svc Services, tokens *auth.Issuer, fallbackZone string) *Server {
	router := gin.New()
	router.Use(gin.Logger(), gin.Recovery())

	loc, _ := recurrence.Location(fallbackZone)
	s := &Server{
		svc:          svc,
		tokens:       tokens,
		fallbackZone: fallbackZone,
		fallbackLoc:  loc,
		router:       router,
		now:          time.Now,
	}

	router.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	api.POST("/users", s.handleRegister)

	authed := api.Group("", s.requireUser)
	{
		authed.GET("/board", s.handleBoard)
		authed.GET("/board/stream", s.handleBoardStream)
		authed.GET("/calendar", s.handleCalendar)
		authed.GET("/stats", s.handleStats)

		authed.POST("/tasks", s.handleCreateTask)
		authed.GET("/tasks/:id", s.handleGetTask)
		authed.PUT("/tasks/:id", s.handleUpdateTask)
		authed.PATCH("/tasks/:id/status", s.handleMoveTask)
		authed.PATCH("/tasks/:id/due", s.handleRescheduleTask)
		authed.DELETE("/tasks/:id", s.handleDeleteTask)

		authed.GET("/categories", s.handleListCategories)
		authed.POST("/categories", s.handleAddCategory)
		authed.DELETE("/categories/:id", s.handleDeleteCategory)
	}

	return s
}

// Handler returns the http.Handler serving the API.
func (s *Server) Handler() http.Handler {
	return s.router
}
