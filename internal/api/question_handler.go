package api

import (
	"net/http"

	"FireMe/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"
)

// QuestionHandler 问题与选项接口
type QuestionHandler struct {
	questionService *service.QuestionService
	logger          *logrus.Logger
}

// NewQuestionHandler 创建 QuestionHandler
func NewQuestionHandler(db *gorm.DB, logger *logrus.Logger) *QuestionHandler {
	return &QuestionHandler{
		questionService: service.NewQuestionService(db, logger),
		logger:          logger,
	}
}

// CreateQuestion 新建问题
// POST /api/questions
func (h *QuestionHandler) CreateQuestion(c *gin.Context) {
	var in struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, err := h.questionService.CreateQuestion(c.Request.Context(), currentUser(c).ID, in.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, q)
}

// ListQuestions 问题列表，?search= 按题干模糊过滤
// GET /api/questions
func (h *QuestionHandler) ListQuestions(c *gin.Context) {
	items, err := h.questionService.ListQuestions(c.Request.Context(), currentUser(c).ID, c.Query("search"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// GetQuestion 问题详情
// GET /api/questions/:id
func (h *QuestionHandler) GetQuestion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	q, err := h.questionService.GetQuestion(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// UpdateQuestion 修改题干
// PUT /api/questions/:id
func (h *QuestionHandler) UpdateQuestion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	q, err := h.questionService.UpdateQuestion(c.Request.Context(), currentUser(c).ID, id, in.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, q)
}

// DeleteQuestion 下线问题（软删除）
// DELETE /api/questions/:id
func (h *QuestionHandler) DeleteQuestion(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.questionService.DeleteQuestion(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

// ListAnswers 问题下的活跃选项
// GET /api/questions/:id/answers
func (h *QuestionHandler) ListAnswers(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	items, err := h.questionService.ListAnswers(c.Request.Context(), currentUser(c).ID, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": items})
}

// AddAnswer 给问题追加选项
// POST /api/questions/:id/add_answer
func (h *QuestionHandler) AddAnswer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	var in struct {
		Text string `json:"text" binding:"required"`
	}
	if err := c.ShouldBindJSON(&in); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	a, err := h.questionService.AddAnswer(c.Request.Context(), currentUser(c).ID, id, in.Text)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, a)
}

// DeleteAnswer 下线选项（软删除）
// DELETE /api/answers/:id
func (h *QuestionHandler) DeleteAnswer(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}
	if err := h.questionService.DeleteAnswer(c.Request.Context(), currentUser(c).ID, id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
