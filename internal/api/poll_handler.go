package api

import (
	"net/http"

	"FireMe/internal/repository"
	"FireMe/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// PollHandler 投票接口
type PollHandler struct {
	pollService *service.PollService
	logger      *logrus.Logger
}

// NewPollHandler 创建 PollHandler
func NewPollHandler(db *gorm.DB, logger *logrus.Logger) *PollHandler {
	return &PollHandler{
		pollService: service.NewPollService(db, logger),
		logger:      logger,
	}
}

// CreatePoll 新建投票
// POST /api/polls
func (h *PollHandler) CreatePoll(c *gin.Context) {
	var in service.PollInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.pollService.CreatePoll(c.Request.Context(), currentUser(c).ID, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// ListPolls 投票列表，?campaign= / ?query= 过滤
// GET /api/polls
func (h *PollHandler) ListPolls(c *gin.Context) {
	filter := repository.PollFilter{
		CampaignID: queryUint(c, "campaign"),
		QueryID:    queryUint(c, "query"),
	}
	views, err := h.pollService.ListPolls(c.Request.Context(), currentUser(c).ID, filter)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views})
}

// ListLive 进行中的投票
// GET /api/polls/live
func (h *PollHandler) ListLive(c *gin.Context) {
	views, err := h.pollService.ListLive(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views})
}

// ListUpcoming 未开始的投票
// GET /api/polls/upcoming
func (h *PollHandler) ListUpcoming(c *gin.Context) {
	views, err := h.pollService.ListUpcoming(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views})
}

// ListFinished 已结束的投票
// GET /api/polls/finished
func (h *PollHandler) ListFinished(c *gin.Context) {
	views, err := h.pollService.ListFinished(c.Request.Context(), currentUser(c).ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": views})
}

// GetPoll 投票详情（含派生 status）
// GET /api/polls/:id
func (h *PollHandler) GetPoll(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	view, err := h.pollService.GetPoll(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// UpdatePoll 更新投票
// PUT /api/polls/:id
func (h *PollHandler) UpdatePoll(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in service.PollInput
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	view, err := h.pollService.UpdatePoll(c.Request.Context(), currentUser(c).ID, id, in)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// DeletePoll 下线投票（软删除）
// DELETE /api/polls/:id
func (h *PollHandler) DeletePoll(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.pollService.DeletePoll(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// AddResult 提交投票回应：窗口内有效，重复提交覆盖旧记录
// POST /api/polls/:id/add_result
func (h *PollHandler) AddResult(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in struct {
		AnswerID       *uint64 `json:"answer_id"`
		UserIdentifier string  `json:"user_identifier" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	res, err := h.pollService.SubmitResponse(c.Request.Context(), currentUser(c).ID, id, in.AnswerID, in.UserIdentifier)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, res)
}

// Results 投票的活跃回应列表
// GET /api/polls/:id/results
func (h *PollHandler) Results(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := h.pollService.Results(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// Summary 按选项聚合的计票
// GET /api/polls/:id/summary
func (h *PollHandler) Summary(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	rows, err := h.pollService.Summary(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": rows})
}

// DeleteResult 下线单条投票记录（软删除，不回写抓取结果上的关联）
// DELETE /api/poll-results/:id
func (h *PollHandler) DeleteResult(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.pollService.DeletePollResult(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
