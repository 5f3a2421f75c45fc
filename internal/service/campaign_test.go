package service

import (
	"context"
	"testing"

	"FireMe/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateCampaignValidation(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCampaignService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	platform := createPlatform(t, db, "Twitter")

	_, err := svc.CreateCampaign(ctx, user.ID, CampaignInput{PlatformID: platform.ID, Name: "   "})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "name", verr.Field)

	// 软删除的平台等同不存在
	dead := createPlatform(t, db, "MySpace")
	deactivate(t, db, &model.Platform{}, dead.ID)
	_, err = svc.CreateCampaign(ctx, user.ID, CampaignInput{PlatformID: dead.ID, Name: "c"})
	assert.ErrorIs(t, err, ErrNotFound)

	// 名称入库前去首尾空白
	c, err := svc.CreateCampaign(ctx, user.ID, CampaignInput{PlatformID: platform.ID, Name: "  Launch  "})
	require.NoError(t, err)
	assert.Equal(t, "Launch", c.Name)
}

func TestCreateCampaignDuplicateName(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCampaignService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	platform := createPlatform(t, db, "Twitter")

	_, err := svc.CreateCampaign(ctx, user.ID, CampaignInput{PlatformID: platform.ID, Name: "Launch"})
	require.NoError(t, err)

	_, err = svc.CreateCampaign(ctx, user.ID, CampaignInput{PlatformID: platform.ID, Name: "Launch"})
	assert.ErrorIs(t, err, ErrConflict)

	// 软删旧行后同名可重建（唯一索引只罩活跃行）
	var c model.Campaign
	require.NoError(t, db.Where("name = ?", "Launch").First(&c).Error)
	deactivate(t, db, &model.Campaign{}, c.ID)
	_, err = svc.CreateCampaign(ctx, user.ID, CampaignInput{PlatformID: platform.ID, Name: "Launch"})
	assert.NoError(t, err)
}

func TestCampaignOwnership(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCampaignService(db, testLogger())
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	platform := createPlatform(t, db, "Twitter")
	c := createCampaign(t, db, alice, platform, "Launch")

	// 别人的活动 = 不存在，绝不回 403 之类暴露存在性的状态
	_, err := svc.GetCampaign(ctx, bob.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = svc.UpdateCampaign(ctx, bob.ID, c.ID, CampaignInput{Name: "stolen"})
	assert.ErrorIs(t, err, ErrNotFound)
	err = svc.DeleteCampaign(ctx, bob.ID, c.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	got, err := svc.GetCampaign(ctx, alice.ID, c.ID)
	require.NoError(t, err)
	assert.Equal(t, c.ID, got.ID)
}

func TestCreateQueryTermUniqueCaseInsensitive(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCampaignService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	platform := createPlatform(t, db, "Twitter")
	c1 := createCampaign(t, db, user, platform, "C1")
	c2 := createCampaign(t, db, user, platform, "C2")

	_, err := svc.CreateQuery(ctx, user.ID, QueryInput{CampaignID: c1.ID, SearchTerm: "Hello World"})
	require.NoError(t, err)

	// 同活动下大小写不敏感去重
	_, err = svc.CreateQuery(ctx, user.ID, QueryInput{CampaignID: c1.ID, SearchTerm: "hello world"})
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Equal(t, "search_term", verr.Field)

	// 另一个活动不受影响
	_, err = svc.CreateQuery(ctx, user.ID, QueryInput{CampaignID: c2.ID, SearchTerm: "hello world"})
	assert.NoError(t, err)

	// 空白词拒绝
	_, err = svc.CreateQuery(ctx, user.ID, QueryInput{CampaignID: c1.ID, SearchTerm: "   "})
	require.ErrorAs(t, err, &verr)
}

func TestUpdateQueryRehome(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCampaignService(db, testLogger())
	ctx := context.Background()

	alice := createUser(t, db, "alice")
	bob := createUser(t, db, "bob")
	platform := createPlatform(t, db, "Twitter")
	mine := createCampaign(t, db, alice, platform, "Mine")
	mine2 := createCampaign(t, db, alice, platform, "Mine2")
	theirs := createCampaign(t, db, bob, platform, "Theirs")
	q := createTestQuery(t, db, mine, "topic")

	// 换挂到别人的活动：目标活动对我不存在
	_, err := svc.UpdateQuery(ctx, alice.ID, q.ID, QueryInput{CampaignID: theirs.ID})
	assert.ErrorIs(t, err, ErrNotFound)

	// 换挂到自己的另一个活动
	got, err := svc.UpdateQuery(ctx, alice.ID, q.ID, QueryInput{CampaignID: mine2.ID})
	require.NoError(t, err)
	assert.Equal(t, mine2.ID, got.CampaignID)
	assert.Equal(t, "topic", got.SearchTerm)
}

func TestHardDeleteQueryProtected(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCampaignService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	platform := createPlatform(t, db, "Twitter")
	c := createCampaign(t, db, user, platform, "Launch")
	q := createTestQuery(t, db, c, "topic")

	qr := &model.QueryResults{QueryID: q.ID, PlatformID: platform.ID, SourceID: "post-1"}
	qr.IsActive = true
	require.NoError(t, db.Create(qr).Error)

	// 还有活跃采集数据：拒绝物理删除
	err := svc.HardDeleteQuery(ctx, user.ID, q.ID)
	var verr *ValidationError
	require.ErrorAs(t, err, &verr)

	// 采集数据软删后放行
	deactivate(t, db, &model.QueryResults{}, qr.ID)
	require.NoError(t, svc.HardDeleteQuery(ctx, user.ID, q.ID))

	var count int64
	require.NoError(t, db.Model(&model.Query{}).Where("id = ?", q.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestDeleteQuerySoft(t *testing.T) {
	db := setupTestDB(t)
	svc := NewCampaignService(db, testLogger())
	ctx := context.Background()

	user := createUser(t, db, "alice")
	platform := createPlatform(t, db, "Twitter")
	c := createCampaign(t, db, user, platform, "Launch")
	q := createTestQuery(t, db, c, "topic")

	require.NoError(t, svc.DeleteQuery(ctx, user.ID, q.ID))

	// 行还在，只是不活跃；对读接口不可见
	var row model.Query
	require.NoError(t, db.First(&row, q.ID).Error)
	assert.False(t, row.IsActive)

	_, err := svc.GetQuery(ctx, user.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)

	// 再删一次：目标已不可见，报不存在
	err = svc.DeleteQuery(ctx, user.ID, q.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}
