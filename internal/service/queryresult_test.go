package service

import (
	"context"
	"testing"
	"time"

	"FireMe/internal/model"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
)

func TestBulkUpsertCreatesAndUpdates(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQueryResultService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	platform := createPlatform(t, db, "Twitter")
	c := createCampaign(t, db, user, platform, "Launch")
	q := createTestQuery(t, db, c, "topic")

	score := decimal.NullDecimal{Decimal: decimal.RequireFromString("1.250"), Valid: true}
	stats, err := svc.BulkUpsert(ctx, user.ID, q.ID, platform.ID, []BulkItem{
		{SourceID: "post-1", UserData: datatypes.JSON(`{"text":"first"}`)},
		{SourceID: "post-2", UserData: datatypes.JSON(`{"text":"second"}`), FireScore: score},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, stats.Created)
	assert.Equal(t, 0, stats.Updated)

	// 同自然键重投：覆盖而不是多一行
	stats, err = svc.BulkUpsert(ctx, user.ID, q.ID, platform.ID, []BulkItem{
		{SourceID: "post-1", UserData: datatypes.JSON(`{"text":"revised"}`)},
		{SourceID: "post-3", UserData: datatypes.JSON(`{"text":"third"}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Updated)

	var count int64
	require.NoError(t, db.Model(&model.QueryResults{}).Count(&count).Error)
	assert.EqualValues(t, 3, count)

	var row model.QueryResults
	require.NoError(t, db.Where("source_id = ?", "post-1").First(&row).Error)
	assert.JSONEq(t, `{"text":"revised"}`, string(row.UserData))
}

func TestBulkUpsertSkipsBlankSourceIDs(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQueryResultService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	platform := createPlatform(t, db, "Twitter")
	c := createCampaign(t, db, user, platform, "Launch")
	q := createTestQuery(t, db, c, "topic")

	stats, err := svc.BulkUpsert(ctx, user.ID, q.ID, platform.ID, []BulkItem{
		{SourceID: ""},
		{SourceID: "   "},
		{SourceID: "  post-1  ", UserData: datatypes.JSON(`{"a":1}`)},
		// 批内同键：后面的覆盖前面的
		{SourceID: "post-1", UserData: datatypes.JSON(`{"a":2}`)},
	})
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Created)
	assert.Equal(t, 1, stats.Updated)

	var row model.QueryResults
	require.NoError(t, db.Where("source_id = ?", "post-1").First(&row).Error)
	assert.JSONEq(t, `{"a":2}`, string(row.UserData))
}

func TestBulkUpsertPlatformMismatch(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQueryResultService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	twitter := createPlatform(t, db, "Twitter")
	reddit := createPlatform(t, db, "Reddit")
	c := createCampaign(t, db, user, twitter, "Launch")
	q := createTestQuery(t, db, c, "topic")

	_, err := svc.BulkUpsert(ctx, user.ID, q.ID, reddit.ID, []BulkItem{{SourceID: "post-1"}})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "platform_id", verr.Field)
}

func TestBulkUpsertOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQueryResultService(db, testLogger())
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	platform := createPlatform(t, db, "Twitter")
	c := createCampaign(t, db, alice, platform, "Launch")
	q := createTestQuery(t, db, c, "topic")

	_, err := svc.BulkUpsert(ctx, bob.ID, q.ID, platform.ID, []BulkItem{{SourceID: "post-1"}})
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAttachPollResult(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQueryResultService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	platform := createPlatform(t, db, "Twitter")
	c := createCampaign(t, db, user, platform, "Launch")
	q := createTestQuery(t, db, c, "topic")
	other := createTestQuery(t, db, c, "other topic")
	question := createQuestion(t, db, user, "How do you feel?")

	now := time.Now()
	poll := createPoll(t, db, q, question, now.Add(-time.Hour), now.Add(time.Hour))
	strayPoll := createPoll(t, db, other, question, now.Add(-time.Hour), now.Add(time.Hour))

	pr := &model.PollResult{PollID: poll.ID, UserIdentifier: "resp-1"}
	pr.IsActive = true
	require.NoError(t, db.Create(pr).Error)
	stray := &model.PollResult{PollID: strayPoll.ID, UserIdentifier: "resp-2"}
	stray.IsActive = true
	require.NoError(t, db.Create(stray).Error)

	qr := &model.QueryResults{QueryID: q.ID, PlatformID: platform.ID, SourceID: "post-1"}
	qr.IsActive = true
	require.NoError(t, db.Create(qr).Error)

	// 作答属于别的检索词的投票：拒绝
	_, err := svc.AttachPollResult(ctx, user.ID, qr.ID, stray.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	got, err := svc.AttachPollResult(ctx, user.ID, qr.ID, pr.ID)
	require.NoError(t, err)
	require.NotNil(t, got.PollResultID)
	assert.Equal(t, pr.ID, *got.PollResultID)
}

func TestQueryResultListAndDelete(t *testing.T) {
	db := setupTestDB(t)
	svc := NewQueryResultService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	platform := createPlatform(t, db, "Twitter")
	c := createCampaign(t, db, user, platform, "Launch")
	q := createTestQuery(t, db, c, "topic")

	_, err := svc.BulkUpsert(ctx, user.ID, q.ID, platform.ID, []BulkItem{
		{SourceID: "post-1"}, {SourceID: "post-2"},
	})
	require.NoError(t, err)

	items, err := svc.List(ctx, user.ID, q.ID, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)

	require.NoError(t, svc.Delete(ctx, user.ID, items[0].ID))

	items, err = svc.List(ctx, user.ID, q.ID, 0)
	require.NoError(t, err)
	assert.Len(t, items, 1)

	// 所属检索词不受影响
	var query model.Query
	require.NoError(t, db.First(&query, q.ID).Error)
	assert.True(t, query.IsActive)
}
