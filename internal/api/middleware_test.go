package api

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"FireMe/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	name := strings.ReplaceAll(t.Name(), "/", "_")
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", name)), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })
	require.NoError(t, db.AutoMigrate(model.AllModels()...))
	require.NoError(t, model.EnsureIndexes(db))

	l := logrus.New()
	l.SetOutput(io.Discard)

	r := gin.New()
	authed := r.Group("/api", Identity(db))
	campaignHandler := NewCampaignHandler(db, l)
	authed.POST("/campaigns", campaignHandler.CreateCampaign)
	authed.GET("/campaigns/:id", campaignHandler.GetCampaign)
	return r, db
}

func seedActiveUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com"}
	u.IsActive = true
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestIdentityMiddleware(t *testing.T) {
	r, db := setupTestRouter(t)
	user := seedActiveUser(t, db, "alice")

	// 缺头
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/campaigns/1", nil)
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 非法头
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/campaigns/1", nil)
	req.Header.Set("X-User-ID", "abc")
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 软删除用户等同不存在
	dead := seedActiveUser(t, db, "ghost")
	require.NoError(t, db.Model(&model.User{}).Where("id = ?", dead.ID).Update("is_active", false).Error)
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/campaigns/1", nil)
	req.Header.Set("X-User-ID", strconv.FormatUint(dead.ID, 10))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	// 活跃用户放行；不存在的资源回 404
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/campaigns/999", nil)
	req.Header.Set("X-User-ID", strconv.FormatUint(user.ID, 10))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestCreateCampaignEndpoint(t *testing.T) {
	r, db := setupTestRouter(t)
	user := seedActiveUser(t, db, "alice")
	platform := &model.Platform{Name: "Twitter"}
	platform.IsActive = true
	require.NoError(t, db.Create(platform).Error)

	body, _ := json.Marshal(gin.H{"platform_id": platform.ID, "name": "Launch"})
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/campaigns", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.FormatUint(user.ID, 10))
	r.ServeHTTP(w, req)
	require.Equal(t, http.StatusCreated, w.Code)

	var created model.Campaign
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))
	assert.Equal(t, "Launch", created.Name)
	assert.Equal(t, user.ID, created.UserID)
	assert.True(t, created.IsActive)

	// 空白名称：字段级校验错误
	body, _ = json.Marshal(gin.H{"platform_id": platform.ID, "name": "   "})
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/campaigns", bytes.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", strconv.FormatUint(user.ID, 10))
	r.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "name")
}

func TestRateLimitMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/ping", RateLimit(1, 2), func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"ok": true})
	})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		w := httptest.NewRecorder()
		req, _ := http.NewRequest(http.MethodGet, "/ping", nil)
		r.ServeHTTP(w, req)
		codes = append(codes, w.Code)
	}
	// burst=2：前两个放行，后面的被限
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusOK, codes[1])
	assert.Equal(t, http.StatusTooManyRequests, codes[2])
	assert.Equal(t, http.StatusTooManyRequests, codes[3])
}
