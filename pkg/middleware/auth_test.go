package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/weiawesome/wes-idgen/pkg/jwt"
)

func TestRequireAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)

	manager, err := jwt.NewManager("secret", "wes-idgen", time.Hour)
	require.NoError(t, err)
	desk := int64(10)
	token, err := manager.GenerateToken("clerk-1", &desk)
	require.NoError(t, err)

	r := gin.New()
	r.GET("/whoami", NewAuthMiddleware(manager).RequireAuth(), func(c *gin.Context) {
		locationID, ok := GetLocationID(c)
		c.JSON(http.StatusOK, gin.H{"user_id": GetUserID(c), "location_id": locationID, "has_location": ok})
	})

	tests := []struct {
		name   string
		header string
		status int
	}{
		{name: "missing header", status: http.StatusUnauthorized},
		{name: "not bearer", header: "Basic abc", status: http.StatusUnauthorized},
		{name: "invalid token", header: BearerPrefix + "abc", status: http.StatusUnauthorized},
		{name: "valid token", header: BearerPrefix + token, status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
			if tt.header != "" {
				req.Header.Set(AuthHeaderKey, tt.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.status, w.Code)
			if tt.status == http.StatusOK {
				assert.JSONEq(t, `{"user_id":"clerk-1","location_id":10,"has_location":true}`, w.Body.String())
			}
		})
	}
}
