package api

import (
	"net/http"

	"FireMe/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// QueryResultHandler 抓取结果接口
type QueryResultHandler struct {
	resultService *service.QueryResultService
	logger        *logrus.Logger
}

// NewQueryResultHandler 创建 QueryResultHandler
func NewQueryResultHandler(db *gorm.DB, logger *logrus.Logger) *QueryResultHandler {
	return &QueryResultHandler{
		resultService: service.NewQueryResultService(db, logger),
		logger:        logger,
	}
}

// List 抓取结果列表，?query= / ?platform= 过滤
// GET /api/query-results
func (h *QueryResultHandler) List(c *gin.Context) {
	queryID := queryUint(c, "query")
	platformID := queryUint(c, "platform")
	items, err := h.resultService.List(c.Request.Context(), currentUser(c).ID, queryID, platformID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// BulkUpsert 批量摄入：整批一个事务，自然键命中则覆盖
// POST /api/query-results/bulk_upsert
func (h *QueryResultHandler) BulkUpsert(c *gin.Context) {
	var in struct {
		QueryID    uint64             `json:"query_id" binding:"required"`
		PlatformID uint64             `json:"platform_id" binding:"required"`
		Items      []service.BulkItem `json:"items"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	stats, err := h.resultService.BulkUpsert(c.Request.Context(), currentUser(c).ID,
		in.QueryID, in.PlatformID, in.Items)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// AttachPollResult 把投票记录挂到抓取结果上
// POST /api/query-results/:id/attach_poll_result
func (h *QueryResultHandler) AttachPollResult(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in struct {
		PollResultID uint64 `json:"poll_result_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.resultService.AttachPollResult(c.Request.Context(), currentUser(c).ID, id, in.PollResultID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// Delete 下线抓取结果（软删除）
// DELETE /api/query-results/:id
func (h *QueryResultHandler) Delete(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.resultService.Delete(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
