package api

import (
	"net/http"

	"FireMe/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// CampaignHandler 活动与检索词接口
type CampaignHandler struct {
	campaignService *service.CampaignService
	logger          *logrus.Logger
}

// NewCampaignHandler 创建 CampaignHandler
func NewCampaignHandler(db *gorm.DB, logger *logrus.Logger) *CampaignHandler {
	return &CampaignHandler{
		campaignService: service.NewCampaignService(db, logger),
		logger:          logger,
	}
}

// CreateCampaign 新建活动
// POST /api/campaigns
func (h *CampaignHandler) CreateCampaign(c *gin.Context) {
	var in service.CampaignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cp, err := h.campaignService.CreateCampaign(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, cp)
}

// ListCampaigns 我的活动列表
// GET /api/campaigns
func (h *CampaignHandler) ListCampaigns(c *gin.Context) {
	items, err := h.campaignService.ListCampaigns(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// GetCampaign 活动详情
// GET /api/campaigns/:id
func (h *CampaignHandler) GetCampaign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	cp, err := h.campaignService.GetCampaign(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// UpdateCampaign 更新活动
// PUT /api/campaigns/:id
func (h *CampaignHandler) UpdateCampaign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.CampaignInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	cp, err := h.campaignService.UpdateCampaign(c.Request.Context(), currentUser(c).ID, id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, cp)
}

// DeleteCampaign 下线活动（软删除）
// DELETE /api/campaigns/:id
func (h *CampaignHandler) DeleteCampaign(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.campaignService.DeleteCampaign(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddQuery 在活动下新增检索词
// POST /api/campaigns/:id/add_query
func (h *CampaignHandler) AddQuery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in struct {
		SearchTerm string `json:"search_term" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, err := h.campaignService.CreateQuery(c.Request.Context(), currentUser(c).ID,
		service.QueryInput{CampaignID: id, SearchTerm: in.SearchTerm})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// ListCampaignQueries 活动下的检索词
// GET /api/campaigns/:id/queries
func (h *CampaignHandler) ListCampaignQueries(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := h.campaignService.ListQueries(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// CreateQuery 新建检索词
// POST /api/queries
func (h *CampaignHandler) CreateQuery(c *gin.Context) {
	var in service.QueryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, err := h.campaignService.CreateQuery(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// ListQueries 检索词列表，?campaign= 过滤
// GET /api/queries
func (h *CampaignHandler) ListQueries(c *gin.Context) {
	campaignID := queryUint(c, "campaign")
	items, err := h.campaignService.ListQueries(c.Request.Context(), currentUser(c).ID, campaignID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// GetQuery 检索词详情
// GET /api/queries/:id
func (h *CampaignHandler) GetQuery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	q, err := h.campaignService.GetQuery(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// UpdateQuery 更新检索词（可换挂活动）
// PUT /api/queries/:id
func (h *CampaignHandler) UpdateQuery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.QueryInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, err := h.campaignService.UpdateQuery(c.Request.Context(), currentUser(c).ID, id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// DeleteQuery 下线检索词（软删除）
// DELETE /api/queries/:id
func (h *CampaignHandler) DeleteQuery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.campaignService.DeleteQuery(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// PurgeQuery 物理删除检索词：仍有活跃结果时拒绝
// DELETE /api/queries/:id/purge
func (h *CampaignHandler) PurgeQuery(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.campaignService.HardDeleteQuery(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
