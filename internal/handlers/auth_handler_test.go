package handlers

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"billing-dashboard-api/internal/database"
	"billing-dashboard-api/internal/testutil"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"
)

func postLogin(r *gin.Engine, username, password string) *httptest.ResponseRecorder {
	body, _ := json.Marshal(map[string]string{
		"username": username,
		"password": password,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}

func TestLogin_CreatesUserIfNotExists(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	r := gin.New()
	r.POST("/api/login", Login)

	w := postLogin(r, "newuser", "sha256-from-fe")
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct{ Token string }
	_ = json.Unmarshal(w.Body.Bytes(), &resp)
	require.NotEmpty(t, resp.Token)
}

func TestLogin_RejectsWrongPassword(t *testing.T) {
	gin.SetMode(gin.TestMode)
	db, err := testutil.NewInMemoryDB()
	require.NoError(t, err)
	database.DB = db

	r := gin.New()
	r.POST("/api/login", Login)

	// First login provisions the account with a bcrypt hash.
	require.Equal(t, http.StatusOK, postLogin(r, "alice", "correct-horse").Code)

	// Correct password still works; a wrong one is rejected.
	require.Equal(t, http.StatusOK, postLogin(r, "alice", "correct-horse").Code)
	require.Equal(t, http.StatusUnauthorized, postLogin(r, "alice", "battery-staple").Code)
}
