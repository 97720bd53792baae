package api

import (
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"protaskinate/internal/board"
)

func criteriaFrom(c *gin.Context) (board.Criteria, error) {
	return board.ParseCriteria(c.Query("category"), c.Query("priority"), c.Query("date"))
}

func (s *Server) handleBoard(c *gin.Context) {
	criteria, err := criteriaFrom(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	buckets, err := s.svc.Boards.Board(c.Request.Context(), currentUser(c), criteria, s.clock(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, buckets)
}

// handleBoardStream pushes a fresh board as a server-sent event after every
// change to the caller's tasks. The subscription ends with the request.
func (s *Server) handleBoardStream(c *gin.Context) {
	criteria, err := criteriaFrom(c)
	if err != nil {
		badRequest(c, err.Error())
		return
	}
	_, loc := s.zone(c)

	ctx := c.Request.Context()
	updates, unsubscribe, err := s.svc.Hub.Subscribe(ctx, currentUser(c))
	if err != nil {
		respondError(c, err)
		return
	}
	defer unsubscribe()

	c.Header("Cache-Control", "no-cache")
	c.Header("X-Accel-Buffering", "no")
	c.Stream(func(w io.Writer) bool {
		select {
		case <-ctx.Done():
			return false
		case tasks, ok := <-updates:
			if !ok {
				return false
			}
			now := s.now().In(loc)
			c.SSEvent("board", board.Classify(board.Filter(tasks, criteria, now)))
			return true
		}
	})
}

func (s *Server) handleCalendar(c *gin.Context) {
	now := s.clock(c)
	year, month := now.Year(), now.Month()
	if raw := strings.TrimSpace(c.Query("month")); raw != "" {
		parsed, err := time.Parse("2006-01", raw)
		if err != nil {
			badRequest(c, "month must be YYYY-MM")
			return
		}
		year, month = parsed.Year(), parsed.Month()
	}
	grid, err := s.svc.Boards.Calendar(c.Request.Context(), currentUser(c), year, month, now)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, grid)
}

func (s *Server) handleStats(c *gin.Context) {
	stats, err := s.svc.Boards.Stats(c.Request.Context(), currentUser(c), s.clock(c))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}
