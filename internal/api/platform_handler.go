package api

import (
	"net/http"

	"FireMe/internal/model"
	"FireMe/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PlatformHandler 平台 / 应用凭证 / 授权连接接口
type PlatformHandler struct {
	socialService *service.SocialService
	logger        *logrus.Logger
}

// NewPlatformHandler 创建 PlatformHandler
func NewPlatformHandler(db *gorm.DB, logger *logrus.Logger) *PlatformHandler {
	return &PlatformHandler{
		socialService: service.NewSocialService(db, logger),
		logger:        logger,
	}
}

// CreatePlatform 新建平台
// POST /api/platforms
func (h *PlatformHandler) CreatePlatform(c *gin.Context) {
	var in struct {
		Name    string `json:"name" binding:"required"`
		LogoURL string `json:"logo_url"`
		Webpage string `json:"webpage"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	p, err := h.socialService.CreatePlatform(c.Request.Context(), in.Name, in.LogoURL, in.Webpage)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, p)
}

// ListPlatforms 平台列表（带观察者的 connected 标记）
// GET /api/platforms
func (h *PlatformHandler) ListPlatforms(c *gin.Context) {
	views, err := h.socialService.ListPlatforms(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views})
}

// GetPlatform 平台详情
// GET /api/platforms/:id
func (h *PlatformHandler) GetPlatform(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.socialService.GetPlatform(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpsertApp 提交/覆盖应用凭证
// POST /api/platforms/:id/app
func (h *PlatformHandler) UpsertApp(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.AppUpsertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := h.socialService.UpsertApp(c.Request.Context(), currentUser(c).ID, id, in); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"success": true})
}

// AppInfo 应用凭证存在性（凭证掩码）
// GET /api/platforms/:id/app_info
func (h *PlatformHandler) AppInfo(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	info, err := h.socialService.AppInfo(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, info)
}

// ConnectCredentials 提交/覆盖授权连接
// POST /api/platforms/:id/connect_credentials
func (h *PlatformHandler) ConnectCredentials(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.ConnectionUpsertInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	conn, err := h.socialService.UpsertConnection(c.Request.Context(), currentUser(c).ID, id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success":       true,
		"connection_id": conn.ID,
		"expires_at":    conn.ExpiresAt,
	})
}

// Disconnect 断开连接（物理删除 token），可按外部账号/凭证形态过滤
// POST /api/platforms/:id/disconnect
func (h *PlatformHandler) Disconnect(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in struct {
		ExternalAccountID *string `json:"external_account_id"`
		OAuthVersion      string  `json:"oauth_version"`
	}
	if err := c.ShouldBindJSON(&in); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	n, err := h.socialService.Disconnect(c.Request.Context(), currentUser(c).ID, id,
		in.ExternalAccountID, model.OAuthVersion(in.OAuthVersion))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "count": n})
}

// MyConnections 我的活跃连接（token 字段全部剔除）
// GET /api/platforms/connections
func (h *PlatformHandler) MyConnections(c *gin.Context) {
	views, err := h.socialService.MyConnections(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views})
}
