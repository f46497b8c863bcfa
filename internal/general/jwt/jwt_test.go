package jwt

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func TestIssueAndValidate(t *testing.T) {
	mgr := NewManager("secret", time.Hour)
	token, claims, err := mgr.IssueToken("driver-17", RoleDriver)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if claims.Subject != "driver-17" {
		t.Fatalf("subject = %q", claims.Subject)
	}

	_, parsed, err := mgr.ParseAndValidate(token)
	if err != nil {
		t.Fatalf("ParseAndValidate: %v", err)
	}
	if parsed.Role != RoleDriver {
		t.Fatalf("role = %q", parsed.Role)
	}

	if _, _, err := NewManager("other", time.Hour).ParseAndValidate(token); err == nil {
		t.Fatal("token verified with the wrong secret")
	}
}

func TestCheckUsable(t *testing.T) {
	now := time.Now()
	valid, _, _ := NewManager("s", time.Hour).IssueToken("d", RoleDriver)
	expired, _, _ := NewManager("s", -time.Minute).IssueToken("d", RoleDriver)

	cases := []struct {
		name  string
		token string
		want  error
	}{
		{"empty", "  ", ErrEmptyToken},
		{"valid jwt", valid, nil},
		{"expired jwt", expired, ErrTokenExpired},
		{"opaque", "opaque-session-token", nil},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if err := CheckUsable(tc.token, now); !errors.Is(err, tc.want) {
				t.Fatalf("CheckUsable = %v, want %v", err, tc.want)
			}
		})
	}
}

func TestFromHeader(t *testing.T) {
	if _, err := FromHeader(""); !errors.Is(err, ErrNoAuthHeader) {
		t.Errorf("empty header: %v", err)
	}
	if _, err := FromHeader("Basic abc"); !errors.Is(err, ErrBadAuthScheme) {
		t.Errorf("basic scheme: %v", err)
	}
	if _, err := FromHeader("Bearer   "); !errors.Is(err, ErrEmptyToken) {
		t.Errorf("empty bearer: %v", err)
	}
	if tok, err := FromHeader(BearerHeader("abc")); err != nil || tok != "abc" {
		t.Errorf("round trip: %q %v", tok, err)
	}
}

func TestGinAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	mgr := NewManager("secret", time.Hour)
	r := gin.New()
	r.GET("/x", GinAuth(mgr, RoleOperator), func(c *gin.Context) {
		cl, ok := FromContext(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, cl.Subject)
	})

	operator, _, _ := mgr.IssueToken("ops", RoleOperator)
	driver, _, _ := mgr.IssueToken("drv", RoleDriver)

	cases := []struct {
		name   string
		header string
		want   int
	}{
		{"missing", "", http.StatusUnauthorized},
		{"garbage", "Bearer nope", http.StatusUnauthorized},
		{"wrong role", BearerHeader(driver), http.StatusForbidden},
		{"ok", BearerHeader(operator), http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/x", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			if w.Code != tc.want {
				t.Fatalf("status = %d, want %d", w.Code, tc.want)
			}
		})
	}
}
