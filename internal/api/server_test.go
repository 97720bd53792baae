package api

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"protaskinate/internal/auth"
	"protaskinate/internal/board"
	"protaskinate/internal/model"
	"protaskinate/internal/repository"
	"protaskinate/internal/service"
)

type testServer struct {
	server *Server
	svc    Services
	tokens *auth.Issuer
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := repository.NewDB("file:api_" + name + "?mode=memory&cache=shared")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})

	taskRepo := repository.NewTaskRepository(db)
	hub := service.NewHub(taskRepo)
	tasks := service.NewTaskService(taskRepo, hub)
	categories := service.NewCategoryService(repository.NewCategoryRepository(db))
	svc := Services{
		Users:      service.NewUserService(repository.NewUserRepository(db), categories),
		Tasks:      tasks,
		Boards:     service.NewBoardService(tasks),
		Categories: categories,
		Hub:        hub,
	}
	tokens := auth.NewIssuer("test-secret", time.Hour)
	server := NewServer(svc, tokens, "UTC")
	return &testServer{server: server, svc: svc, tokens: tokens}
}

func (ts *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatal(err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.server.Handler().ServeHTTP(w, req)
	return w
}

func (ts *testServer) register(t *testing.T, email string) (string, string) {
	t.Helper()
	w := ts.do(t, http.MethodPost, "/api/users", "", map[string]string{"email": email})
	if w.Code != http.StatusCreated {
		t.Fatalf("register: status %d body %s", w.Code, w.Body.String())
	}
	var resp struct {
		User  model.User `json:"user"`
		Token string     `json:"token"`
	}
	decode(t, w, &resp)
	return resp.User.ID, resp.Token
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %s: %v", w.Body.String(), err)
	}
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t)
	w := ts.do(t, http.MethodGet, "/healthz", "", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
}

func TestAuthRequired(t *testing.T) {
	ts := newTestServer(t)
	if w := ts.do(t, http.MethodGet, "/api/board", "", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("no token: status %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/board", "garbage", nil); w.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", w.Code)
	}
}

func TestRegisterProvisionsCategories(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodGet, "/api/categories", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var categories []model.Category
	decode(t, w, &categories)
	if len(categories) != 3 {
		t.Fatalf("expected 3 default categories, got %d", len(categories))
	}

	if w := ts.do(t, http.MethodPost, "/api/users", "", map[string]string{"email": "nope"}); w.Code != http.StatusBadRequest {
		t.Fatalf("invalid email: status %d", w.Code)
	}
}

func TestTaskLifecycle(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/tasks", token, map[string]interface{}{
		"title":      "Water plants",
		"dueDate":    model.DateOf(time.Now().UTC()).String(),
		"priority":   "high",
		"categories": []string{"Personal"},
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("create: status %d body %s", w.Code, w.Body.String())
	}
	var task model.Task
	decode(t, w, &task)
	if task.TimeZone != "UTC" {
		t.Fatalf("task did not take the caller's zone: %q", task.TimeZone)
	}

	w = ts.do(t, http.MethodGet, "/api/board?date=today&priority=high", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("board: status %d", w.Code)
	}
	var buckets board.Buckets
	decode(t, w, &buckets)
	if len(buckets.ToDo) != 1 || buckets.ToDo[0].ID != task.ID {
		t.Fatalf("unexpected board %+v", buckets)
	}

	w = ts.do(t, http.MethodPatch, "/api/tasks/"+task.ID+"/status", token, map[string]string{"status": "completed"})
	if w.Code != http.StatusOK {
		t.Fatalf("move: status %d body %s", w.Code, w.Body.String())
	}
	decode(t, w, &task)
	if task.Status != model.StatusCompleted || task.CompletedAt == nil {
		t.Fatalf("task not completed: %+v", task)
	}

	w = ts.do(t, http.MethodPatch, "/api/tasks/"+task.ID+"/due", token, map[string]interface{}{"dueDate": nil})
	if w.Code != http.StatusOK {
		t.Fatalf("reschedule: status %d", w.Code)
	}
	decode(t, w, &task)
	if task.DueDate != nil {
		t.Fatalf("due date not cleared")
	}

	w = ts.do(t, http.MethodGet, "/api/stats", token, nil)
	var stats board.Stats
	decode(t, w, &stats)
	if stats.CompletedToday != 1 || stats.CompletedByPriority[model.PriorityHigh] != 1 {
		t.Fatalf("unexpected stats %+v", stats)
	}

	if w := ts.do(t, http.MethodDelete, "/api/tasks/"+task.ID, token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/tasks/"+task.ID, token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("get deleted: status %d", w.Code)
	}
}

func TestErrorMapping(t *testing.T) {
	ts := newTestServer(t)
	_, owner := ts.register(t, "owner@example.com")
	_, intruder := ts.register(t, "intruder@example.com")

	w := ts.do(t, http.MethodPost, "/api/tasks", owner, map[string]interface{}{"title": "a", "repeatNumber": 2})
	if w.Code != http.StatusBadRequest {
		t.Fatalf("validation: status %d", w.Code)
	}
	var body map[string]string
	decode(t, w, &body)
	if body["error"] != "please choose a REPEAT UNIT" {
		t.Fatalf("validation message = %q", body["error"])
	}

	w = ts.do(t, http.MethodPost, "/api/tasks", owner, map[string]interface{}{"title": "Mine"})
	var task model.Task
	decode(t, w, &task)

	if w := ts.do(t, http.MethodPut, "/api/tasks/"+task.ID, intruder, map[string]interface{}{"title": "Theirs"}); w.Code != http.StatusForbidden {
		t.Fatalf("forbidden: status %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/tasks/missing", owner, nil); w.Code != http.StatusNotFound {
		t.Fatalf("not found: status %d", w.Code)
	}
	if w := ts.do(t, http.MethodGet, "/api/board?date=someday", owner, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad filter: status %d", w.Code)
	}
	if w := ts.do(t, http.MethodPatch, "/api/tasks/"+task.ID+"/due", owner, map[string]string{"dueDate": "June 1"}); w.Code != http.StatusBadRequest {
		t.Fatalf("bad date: status %d", w.Code)
	}
}

func TestCalendar(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "ada@example.com")
	ts.do(t, http.MethodPost, "/api/tasks", token, map[string]interface{}{"title": "Late", "dueDate": "2024-06-03"})

	w := ts.do(t, http.MethodGet, "/api/calendar?month=2024-06", token, nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status %d", w.Code)
	}
	var grid board.Month
	decode(t, w, &grid)
	if len(grid.Days)%7 != 0 || grid.Month != time.June {
		t.Fatalf("unexpected grid: %d days, month %v", len(grid.Days), grid.Month)
	}
	found := false
	for _, day := range grid.Days {
		if day.Date.String() == "2024-06-03" && len(day.Tasks) == 1 {
			found = day.Tasks[0].PastDue
		}
	}
	if !found {
		t.Fatal("past-due task missing from June 3rd")
	}

	if w := ts.do(t, http.MethodGet, "/api/calendar?month=june", token, nil); w.Code != http.StatusBadRequest {
		t.Fatalf("bad month: status %d", w.Code)
	}
}

func TestCategoryEndpoints(t *testing.T) {
	ts := newTestServer(t)
	_, token := ts.register(t, "ada@example.com")

	w := ts.do(t, http.MethodPost, "/api/categories", token, map[string]string{"name": "Day Job", "color": "teal"})
	if w.Code != http.StatusCreated {
		t.Fatalf("add: status %d body %s", w.Code, w.Body.String())
	}
	var category model.Category
	decode(t, w, &category)
	if category.ID != "DayJob" {
		t.Fatalf("id = %q", category.ID)
	}
	if w := ts.do(t, http.MethodDelete, "/api/categories/DayJob", token, nil); w.Code != http.StatusNoContent {
		t.Fatalf("delete: status %d", w.Code)
	}
	if w := ts.do(t, http.MethodDelete, "/api/categories/DayJob", token, nil); w.Code != http.StatusNotFound {
		t.Fatalf("delete again: status %d", w.Code)
	}
}

func TestBoardStream(t *testing.T) {
	ts := newTestServer(t)
	userID, token := ts.register(t, "ada@example.com")

	httpServer := httptest.NewServer(ts.server.Handler())
	defer httpServer.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, httpServer.URL+"/api/board/stream?access_token="+token, nil)
	if err != nil {
		t.Fatal(err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status %d", resp.StatusCode)
	}

	events := make(chan board.Buckets, 4)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data:") {
				continue
			}
			var b board.Buckets
			if json.Unmarshal([]byte(strings.TrimPrefix(line, "data:")), &b) == nil {
				events <- b
			}
		}
		close(events)
	}()

	next := func() board.Buckets {
		select {
		case b, ok := <-events:
			if !ok {
				t.Fatal("stream closed")
			}
			return b
		case <-time.After(3 * time.Second):
			t.Fatal("no event")
		}
		return board.Buckets{}
	}

	if initial := next(); initial.Len() != 0 {
		t.Fatalf("initial board has %d tasks", initial.Len())
	}
	if _, err := ts.svc.Tasks.CreateTask(context.Background(), userID, service.TaskInput{Title: "Live"}); err != nil {
		t.Fatal(err)
	}
	if update := next(); len(update.ToDo) != 1 {
		t.Fatalf("update has %d to-do tasks", len(update.ToDo))
	}

	cancel()
	deadline := time.Now().Add(3 * time.Second)
	for ts.svc.Hub.Subscribers(userID) != 0 {
		if time.Now().After(deadline) {
			t.Fatal("subscription not released after disconnect")
		}
		time.Sleep(10 * time.Millisecond)
	}
}
