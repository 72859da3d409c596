package identity

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/beka-birhanu/vinom-lab/infrastruture/token"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthoriz(t *testing.T) {
	gin.SetMode(gin.TestMode)

	svc, err := token.NewJwtService("test-secret", "vinom-lab")
	require.NoError(t, err)

	var seen map[string]interface{}
	engine := gin.New()
	engine.GET("/private", Authoriz(svc), func(c *gin.Context) {
		claims, _ := c.Get(ContextOperatorClaims)
		seen, _ = claims.(map[string]interface{})
		c.Status(http.StatusNoContent)
	})

	do := func(header string) int {
		req := httptest.NewRequest(http.MethodGet, "/private", nil)
		if header != "" {
			req.Header.Set("Authorization", header)
		}
		w := httptest.NewRecorder()
		engine.ServeHTTP(w, req)
		return w.Code
	}

	t.Run("Missing header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do(""))
	})

	t.Run("Malformed header", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Token abc"))
		assert.Equal(t, http.StatusUnauthorized, do("Bearer"))
	})

	t.Run("Invalid token", func(t *testing.T) {
		assert.Equal(t, http.StatusUnauthorized, do("Bearer not-a-jwt"))
	})

	t.Run("Valid token", func(t *testing.T) {
		tok, err := svc.Generate(map[string]interface{}{"operator": "rig-1"}, time.Minute)
		require.NoError(t, err)

		assert.Equal(t, http.StatusNoContent, do("bearer "+tok))
		assert.Equal(t, "rig-1", seen["operator"])
	})
}
