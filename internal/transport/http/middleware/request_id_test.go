package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	applogger "github.com/Crekold/vet-backend-sub000/internal/infra/logger"
)

func requestIDRouter(captured *string) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(RequestID())
	r.GET("/", func(c *gin.Context) {
		*captured = applogger.RequestIDFrom(c.Request.Context())
		c.Status(http.StatusOK)
	})
	return r
}

func TestRequestIDHonorsValidInboundID(t *testing.T) {
	var seen string
	r := requestIDRouter(&seen)

	inbound := uuid.NewString()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", inbound)
	r.ServeHTTP(w, req)

	if seen != inbound {
		t.Fatalf("context id = %q, want the inbound %q", seen, inbound)
	}
	if got := w.Header().Get("X-Request-ID"); got != inbound {
		t.Fatalf("response header = %q, want %q", got, inbound)
	}
}

func TestRequestIDReplacesNonUUIDValues(t *testing.T) {
	var seen string
	r := requestIDRouter(&seen)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("X-Request-ID", "../../etc/passwd\n")
	r.ServeHTTP(w, req)

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("replacement id %q is not a UUID: %v", seen, err)
	}
	if got := w.Header().Get("X-Request-ID"); got != seen {
		t.Fatalf("header %q and context id %q must agree", got, seen)
	}
}

func TestRequestIDGeneratedWhenAbsent(t *testing.T) {
	var seen string
	r := requestIDRouter(&seen)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	if _, err := uuid.Parse(seen); err != nil {
		t.Fatalf("generated id %q is not a UUID: %v", seen, err)
	}
}
