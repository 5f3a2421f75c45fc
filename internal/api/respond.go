package api

import (
	"errors"
	"net/http"
	"strconv"

	"FireMe/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

func parseUint(s string) (uint64, error) {
	return strconv.ParseUint(s, 10, 64)
}

// queryUint 可选的数字查询参数，缺省/非法时返回 0（即不过滤）
func queryUint(c *gin.Context, name string) uint64 {
	v, err := parseUint(c.Query(name))
	if err != nil {
		return 0
	}
	return v
}

// respondError 统一的错误出口：业务错误按分类映射状态码，
// 归属失败与不存在同样回 404，不向调用方泄露他人资源的存在性
func respondError(c *gin.Context, logger *logrus.Logger, err error) {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		c.JSON(http.StatusBadRequest, gin.H{"error": verr.Message, "field": verr.Field})
	case errors.Is(err, service.ErrNoActiveApp):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, service.ErrConflict):
		// 行锁正常情况下挡住了自然键竞态；漏过来的按可重试冲突回 409
		c.JSON(http.StatusConflict, gin.H{"error": "conflict, please retry"})
	default:
		logger.WithError(err).Error("internal error")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// pathID 解析 :id 路径参数
func pathID(c *gin.Context) (uint64, bool) {
	id, err := parseUint(c.Param("id"))
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
