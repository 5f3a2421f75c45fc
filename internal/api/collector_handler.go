package api

import (
	"errors"
	"net/http"
	"strings"

	"FireMe/internal/interfaces"
	"FireMe/internal/model"
	"FireMe/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CollectorHandler 按检索词触发平台采集并批量摄入
type CollectorHandler struct {
	campaignService *service.CampaignService
	socialService   *service.SocialService
	resultService   *service.QueryResultService
	adapters        map[string]interfaces.SearchAdapter
	logger          *logrus.Logger
}

// NewCollectorHandler 创建 CollectorHandler（adapters 由 main 按配置构建注入）
func NewCollectorHandler(db *gorm.DB, logger *logrus.Logger, adapters map[string]interfaces.SearchAdapter) *CollectorHandler {
	return &CollectorHandler{
		campaignService: service.NewCampaignService(db, logger),
		socialService:   service.NewSocialService(db, logger),
		resultService:   service.NewQueryResultService(db, logger),
		adapters:        adapters,
		logger:          logger,
	}
}

// Collect 采集一个检索词：平台定位适配器，拉取后整批摄入
// POST /api/queries/:id/collect
func (h *CollectorHandler) Collect(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	userID := currentUser(c).ID
	ctx := c.Request.Context()

	// 1. 检索词与所属活动（归属校验在服务层）
	q, err := h.campaignService.GetQuery(ctx, userID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	cp, err := h.campaignService.GetCampaign(ctx, userID, q.CampaignID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	platform, err := h.socialService.GetPlatform(ctx, userID, cp.PlatformID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// 2. 平台名定位适配器
	ad, ok := h.adapters[strings.ToLower(platform.Name)]
	if !ok {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no collector for platform", "platform": platform.Name})
		return
	}

	// 3. 挑一条可用凭证，没有就匿名拉取（公开接口的平台允许）
	conn, err := h.socialService.PickConnection(ctx, userID, cp.PlatformID, model.OAuthAppOnly, "")
	if err != nil {
		if !errors.Is(err, service.ErrNotFound) {
			respondError(c, h.logger, err)
			return
		}
		conn = nil
	}

	// 4. 拉取并转换
	raw, err := ad.FetchPosts(ctx, q.SearchTerm, conn)
	if err != nil {
		h.logger.WithError(err).WithFields(logrus.Fields{
			"query_id": q.ID,
			"platform": platform.Name,
		}).Error("collect fetch failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": "platform fetch failed"})
		return
	}
	items, err := ad.ConvertToItems(raw)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}

	// 5. 整批摄入（自然键命中则覆盖）
	stats, err := h.resultService.BulkUpsert(ctx, userID, q.ID, cp.PlatformID, items)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"fetched": len(raw),
		"created": stats.Created,
		"updated": stats.Updated,
	})
}
