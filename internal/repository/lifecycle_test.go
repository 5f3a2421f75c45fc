package repository

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"FireMe/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
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
	return db
}

func seedCampaign(t *testing.T, db *gorm.DB) *model.Campaign {
	t.Helper()
	u := &model.User{Username: "alice", Email: "alice@example.com"}
	u.IsActive = true
	require.NoError(t, db.Create(u).Error)
	p := &model.Platform{Name: "Twitter"}
	p.IsActive = true
	require.NoError(t, db.Create(p).Error)
	c := &model.Campaign{UserID: u.ID, PlatformID: p.ID, Name: "Launch"}
	c.IsActive = true
	require.NoError(t, db.Create(c).Error)
	return c
}

func TestSoftDeleteAndRestore(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	c := seedCampaign(t, db)

	n, err := SoftDelete(ctx, db, &model.Campaign{}, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var row model.Campaign
	require.NoError(t, db.First(&row, c.ID).Error)
	assert.False(t, row.IsActive)

	// 重复软删影响 0 行
	n, err = SoftDelete(ctx, db, &model.Campaign{}, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)

	n, err = Restore(ctx, db, &model.Campaign{}, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, db.First(&row, c.ID).Error)
	assert.True(t, row.IsActive)

	// 重复恢复同样影响 0 行
	n, err = Restore(ctx, db, &model.Campaign{}, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, n)
}

func TestHardDeleteRemovesRow(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	c := seedCampaign(t, db)

	n, err := HardDelete(ctx, db, &model.Campaign{}, c.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	var count int64
	require.NoError(t, db.Model(&model.Campaign{}).Where("id = ?", c.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAliveScope(t *testing.T) {
	db := setupTestDB(t)
	ctx := context.Background()
	c := seedCampaign(t, db)

	dead := &model.Campaign{UserID: c.UserID, PlatformID: c.PlatformID, Name: "Old"}
	dead.IsActive = true
	require.NoError(t, db.Create(dead).Error)
	_, err := SoftDelete(ctx, db, &model.Campaign{}, dead.ID)
	require.NoError(t, err)

	var rows []model.Campaign
	require.NoError(t, Alive(db).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, c.ID, rows[0].ID)
}
