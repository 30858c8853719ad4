package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"clipstream/video-api/model"
	"clipstream/video-api/service"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func jwtTestSetup(t *testing.T, user model.User) (*gorm.DB, *service.QuotaTracker, *gin.Engine) {
	t.Helper()

	viper.Set("jwt.secret", "test-secret")

	db, err := gorm.Open(sqlite.Open(":memory:"))
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(model.User{}))
	require.NoError(t, db.Create(&user).Error)

	quota := service.NewQuotaTracker(1000)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		c.Set("requestID", "test-request")
		c.Next()
	})
	r.GET("/", NewJWTMiddleware(db, quota), func(c *gin.Context) {
		c.Status(http.StatusOK)
	})

	return db, quota, r
}

func signedToken(t *testing.T, userID string) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"user_id": userID,
		"exp":     time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte("test-secret"))
	require.NoError(t, err)
	return signed
}

func TestJWTMiddleware_AppliesStoredQuotaOverride(t *testing.T) {
	_, quota, r := jwtTestSetup(t, model.User{
		ID: "u1", Username: "alice", PasswordHash: "x", QuotaOverride: 500,
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, "u1")})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, quota.CanUpload("u1", 500))
	assert.False(t, quota.CanUpload("u1", 501), "the stored override caps the account below the default")
}

func TestJWTMiddleware_DefaultQuotaWithoutOverride(t *testing.T) {
	_, quota, r := jwtTestSetup(t, model.User{
		ID: "u2", Username: "bob", PasswordHash: "x",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.AddCookie(&http.Cookie{Name: "auth_token", Value: signedToken(t, "u2")})
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, quota.CanUpload("u2", 1000))
}

func TestJWTMiddleware_MissingCookieIsUnauthorized(t *testing.T) {
	_, _, r := jwtTestSetup(t, model.User{
		ID: "u3", Username: "carol", PasswordHash: "x",
	})

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
}
