package service

import (
	"fmt"
	"io"
	"strings"
	"testing"
	"time"

	"FireMe/internal/model"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

// setupTestDB 每个测试一个独立内存库。
// 共享缓存 + 单连接：事务天然串行，并发用例可复现
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.ReplaceAll(t.Name(), "/", "_")
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", name)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
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
	return db
}

func testLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return l
}

func strPtr(s string) *string { return &s }

func uintPtr(v uint64) *uint64 { return &v }

// ========== 测试夹具：直接落库，服务逻辑只在被测动作里走 ==========

func createUser(t *testing.T, db *gorm.DB, username string) *model.User {
	t.Helper()
	u := &model.User{Username: username, Email: username + "@example.com"}
	u.IsActive = true
	require.NoError(t, db.Create(u).Error)
	return u
}

func createPlatform(t *testing.T, db *gorm.DB, name string) *model.Platform {
	t.Helper()
	p := &model.Platform{Name: name}
	p.IsActive = true
	require.NoError(t, db.Create(p).Error)
	return p
}

func createApp(t *testing.T, db *gorm.DB, user *model.User, platform *model.Platform) *model.UserPlatformApp {
	t.Helper()
	a := &model.UserPlatformApp{
		UserID: user.ID, PlatformID: platform.ID,
		ClientID: "cid", ClientSecret: "secret",
	}
	a.IsActive = true
	require.NoError(t, db.Create(a).Error)
	return a
}

func createCampaign(t *testing.T, db *gorm.DB, user *model.User, platform *model.Platform, name string) *model.Campaign {
	t.Helper()
	c := &model.Campaign{UserID: user.ID, PlatformID: platform.ID, Name: name}
	c.IsActive = true
	require.NoError(t, db.Create(c).Error)
	return c
}

func createTestQuery(t *testing.T, db *gorm.DB, campaign *model.Campaign, term string) *model.Query {
	t.Helper()
	q := &model.Query{CampaignID: campaign.ID, SearchTerm: term}
	q.IsActive = true
	require.NoError(t, db.Create(q).Error)
	return q
}

func createQuestion(t *testing.T, db *gorm.DB, user *model.User, text string) *model.Question {
	t.Helper()
	q := &model.Question{UserID: user.ID, Question: text}
	q.IsActive = true
	require.NoError(t, db.Create(q).Error)
	return q
}

func createAnswer(t *testing.T, db *gorm.DB, question *model.Question, text string) *model.Answer {
	t.Helper()
	a := &model.Answer{QuestionID: question.ID, Answer: text}
	a.IsActive = true
	require.NoError(t, db.Create(a).Error)
	return a
}

func createPoll(t *testing.T, db *gorm.DB, query *model.Query, question *model.Question, starts, ends time.Time) *model.Poll {
	t.Helper()
	p := &model.Poll{QueryID: query.ID, QuestionID: question.ID, StartsAt: starts, EndsAt: ends}
	p.IsActive = true
	require.NoError(t, db.Create(p).Error)
	return p
}

// deactivate 直接翻软删除标记（绕过服务层，用于构造历史数据）
func deactivate(t *testing.T, db *gorm.DB, mdl interface{}, id uint64) {
	t.Helper()
	require.NoError(t, db.Model(mdl).Where("id = ?", id).Update("is_active", false).Error)
}
