package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/tbourn/go-feed-backend/internal/domain"
	"github.com/tbourn/go-feed-backend/internal/pagination"
)

func serveOnce(t *testing.T, h gin.HandlerFunc, mw ...gin.HandlerFunc) *httptest.ResponseRecorder {
	t.Helper()
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/x", h)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/x", nil))
	return w
}

func TestFail_ServerErrorIsLogged(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf)
	w := serveOnce(t,
		func(c *gin.Context) { fail(c, http.StatusInternalServerError, ErrCodeInternal, "fanout store down") },
		func(c *gin.Context) {
			c.Writer.Header().Set("X-Request-ID", "rid-feed")
			c.Set("logger", &lg)
			c.Next()
		},
	)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status=%d", w.Code)
	}
	var resp ErrorResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("json: %v", err)
	}
	if resp.RequestID != "rid-feed" || resp.Code != ErrCodeInternal || resp.Message != "fanout store down" {
		t.Fatalf("unexpected body: %+v", resp)
	}
	if !strings.Contains(buf.String(), `"level":"error"`) || !strings.Contains(buf.String(), `"status":500`) {
		t.Fatalf("expected error log, got: %s", buf.String())
	}
}

func TestFail_ClientErrorIsNotLogged(t *testing.T) {
	var buf bytes.Buffer
	lg := zerolog.New(&buf)
	w := serveOnce(t,
		func(c *gin.Context) { Fail(c, http.StatusBadRequest, ErrCodeInvalidCursor, "bad cursor") },
		func(c *gin.Context) { c.Set("logger", &lg); c.Next() },
	)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status=%d", w.Code)
	}
	if !strings.Contains(w.Body.String(), `"code":"invalid_cursor"`) {
		t.Fatalf("unexpected body: %s", w.Body.String())
	}
	if strings.Contains(w.Body.String(), "request_id") {
		t.Fatalf("request_id should be omitted when unset: %s", w.Body.String())
	}
	if buf.Len() != 0 {
		t.Fatalf("4xx should not log, got: %s", buf.String())
	}
}

func TestOK_WritesStatusAndBody(t *testing.T) {
	w := serveOnce(t, func(c *gin.Context) {
		ok(c, http.StatusCreated, domain.Tweet{ID: 7, UserID: "u1", Content: "hi"})
	})
	if w.Code != http.StatusCreated {
		t.Fatalf("status=%d", w.Code)
	}
	var tw domain.Tweet
	if err := json.Unmarshal(w.Body.Bytes(), &tw); err != nil {
		t.Fatalf("json: %v", err)
	}
	if tw.ID != 7 || tw.UserID != "u1" || tw.Content != "hi" {
		t.Fatalf("unexpected tweet: %+v", tw)
	}
}

func TestTweetPage_Envelope(t *testing.T) {
	base := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	p := pagination.Page[domain.Tweet]{
		Items: []domain.Tweet{
			{ID: 2, UserID: "u1", Content: "b", CreatedAt: base.Add(time.Second)},
			{ID: 1, UserID: "u1", Content: "a", CreatedAt: base},
		},
		HasNextPage: true,
	}
	got := tweetPage(p)
	if !got.HasNextPage || len(got.Results) != 2 {
		t.Fatalf("unexpected page: %+v", got)
	}
	if got.NewestAt == nil || !got.NewestAt.Equal(base.Add(time.Second)) {
		t.Fatalf("newest_at = %v", got.NewestAt)
	}
	if got.OldestAt == nil || !got.OldestAt.Equal(base) {
		t.Fatalf("oldest_at = %v", got.OldestAt)
	}
}

func TestNewsFeedPage_EmptyResultsAreArray(t *testing.T) {
	w := serveOnce(t, func(c *gin.Context) {
		ok(c, http.StatusOK, newsFeedPage(pagination.Page[domain.NewsFeed]{}))
	})
	body := w.Body.String()
	for _, want := range []string{`"results":[]`, `"newest_at":null`, `"oldest_at":null`, `"has_next_page":false`} {
		if !strings.Contains(body, want) {
			t.Fatalf("missing %s in %s", want, body)
		}
	}
}
