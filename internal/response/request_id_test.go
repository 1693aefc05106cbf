package response_test

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-quiz/internal/response"
	"github.com/stretchr/testify/assert"
)

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name    string
		inbound string
		keep    bool
	}{
		{name: "generated when absent", inbound: "", keep: false},
		{name: "inbound token kept", inbound: "lb-7f3a:42", keep: true},
		{name: "inbound uuid kept", inbound: "6f1c1f54-5b0e-4c1a-9d59-3f9e2b1c0a11", keep: true},
		{name: "too long replaced", inbound: strings.Repeat("a", 65), keep: false},
		{name: "header injection replaced", inbound: "abc\r\nSet-Cookie: x", keep: false},
		{name: "spaces replaced", inbound: "a b", keep: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var seen string
			r := gin.New()
			r.Use(response.RequestIDMiddleware())
			r.GET("/", func(c *gin.Context) {
				seen = response.RequestID(c)
				response.Success(c, http.StatusOK, nil)
			})

			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.inbound != "" {
				req.Header["X-Request-Id"] = []string{tt.inbound}
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			got := w.Header().Get("X-Request-ID")
			assert.Equal(t, seen, got)
			assert.Contains(t, w.Body.String(), `"request_id":"`+got+`"`)
			if tt.keep {
				assert.Equal(t, tt.inbound, got)
				return
			}
			_, err := uuid.Parse(got)
			assert.NoError(t, err, "generated id is a uuid")
		})
	}
}
