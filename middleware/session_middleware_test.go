package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/intai-app/intai_backend/models"
	"github.com/intai-app/intai_backend/services"
)

func issueToken(t *testing.T, sessions *services.SessionService) string {
	t.Helper()
	token, _, err := sessions.Issue(context.Background(), &models.User{
		ID:   primitive.NewObjectID(),
		Role: "user",
	})
	if err != nil {
		t.Fatal(err)
	}
	return token
}

func TestRequireSession(t *testing.T) {
	sessions := services.NewSessionService(services.NewMemorySessionStore(), []byte("test-secret"), time.Hour)
	token := issueToken(t, sessions)

	e := echo.New()
	e.GET("/protected", func(c echo.Context) error {
		session := SessionFromContext(c)
		if session == nil {
			t.Error("no session in context")
		}
		return c.NoContent(http.StatusOK)
	}, RequireSession(sessions))

	tests := []struct {
		name       string
		decorate   func(req *http.Request)
		wantStatus int
	}{
		{
			"no credentials",
			func(req *http.Request) {},
			http.StatusUnauthorized,
		},
		{
			"valid cookie",
			func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: token})
			},
			http.StatusOK,
		},
		{
			"valid bearer header",
			func(req *http.Request) {
				req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
			},
			http.StatusOK,
		},
		{
			"garbage cookie",
			func(req *http.Request) {
				req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "bogus"})
			},
			http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/protected", nil)
			tt.decorate(req)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestSessionTokenPrefersCookie(t *testing.T) {
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: SessionCookieName, Value: "from-cookie"})
	req.Header.Set(echo.HeaderAuthorization, "Bearer from-header")
	c := e.NewContext(req, httptest.NewRecorder())

	if got := SessionToken(c); got != "from-cookie" {
		t.Errorf("SessionToken = %q, want cookie value", got)
	}
}
