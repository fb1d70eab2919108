package account

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"content-pipeline/shared/models"
)

func TestFromContext_NoAccount(t *testing.T) {
	_, err := FromContext(context.Background())
	assert.ErrorIs(t, err, models.ErrNoAccount)

	_, err = Scoped(context.Background())
	assert.ErrorIs(t, err, models.ErrNoAccount)
}

func TestRequirePermission(t *testing.T) {
	ctx := WithAccount(context.Background(), Identity{AccountID: "a1", UserID: "u1", Role: RoleViewer})

	id, err := RequirePermission(ctx, PermJobsRead)
	require.NoError(t, err)
	assert.Equal(t, "a1", id.AccountID)

	_, err = RequirePermission(ctx, PermTemplatesWrite)
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestRun_RejectsEmptyAccount(t *testing.T) {
	called := false
	err := Run(context.Background(), Identity{}, func(context.Context) error {
		called = true
		return nil
	})
	assert.ErrorIs(t, err, models.ErrNoAccount)
	assert.False(t, called)

	err = Run(context.Background(), Identity{AccountID: "a1", Role: RoleSystem}, func(ctx context.Context) error {
		accountID, err := Scoped(ctx)
		require.NoError(t, err)
		assert.Equal(t, "a1", accountID)
		return nil
	})
	assert.NoError(t, err)
}

func TestParseRole(t *testing.T) {
	role, err := ParseRole("")
	require.NoError(t, err)
	assert.Equal(t, RoleEditor, role)

	role, err = ParseRole(" Admin ")
	require.NoError(t, err)
	assert.Equal(t, RoleAdmin, role)

	_, err = ParseRole("system")
	assert.ErrorIs(t, err, models.ErrForbidden)
	_, err = ParseRole("superuser")
	assert.ErrorIs(t, err, models.ErrForbidden)
}

func TestMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(Middleware(zap.NewNop()))
	r.GET("/whoami", func(c *gin.Context) {
		id, err := FromContext(c.Request.Context())
		if err != nil {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.JSON(http.StatusOK, gin.H{"account": id.AccountID, "user": id.UserID, "role": id.Role})
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/whoami", nil))
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	w = httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderAccountID, "a1")
	req.Header.Set(HeaderUserID, "u1")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"account":"a1","user":"u1","role":"editor"}`, w.Body.String())

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/whoami", nil)
	req.Header.Set(HeaderAccountID, "a1")
	req.Header.Set(HeaderUserRole, "root")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
