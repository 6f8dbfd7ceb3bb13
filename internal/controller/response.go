package controller

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202609/internal/service"
)

// ==================== 统一响应 ====================

// respondOK 成功响应
func respondOK(ctx *gin.Context, message string, data interface{}) {
	resp := gin.H{
		"code":    0,
		"message": message,
	}
	if data != nil {
		resp["data"] = data
	}
	ctx.JSON(http.StatusOK, resp)
}

// respondCreated 创建成功响应
func respondCreated(ctx *gin.Context, message string, data interface{}) {
	resp := gin.H{
		"code":    0,
		"message": message,
	}
	if data != nil {
		resp["data"] = data
	}
	ctx.JSON(http.StatusCreated, resp)
}

// respondBadRequest 参数绑定失败
func respondBadRequest(ctx *gin.Context, err error) {
	ctx.JSON(http.StatusBadRequest, gin.H{
		"code":    400,
		"kind":    string(service.KindValidation),
		"message": "参数错误: " + err.Error(),
	})
}

// respondError 业务错误映射为 HTTP 响应
// 非业务错误一律 500，内部细节不外泄
func respondError(ctx *gin.Context, err error) {
	var de *service.DomainError
	if !errors.As(err, &de) {
		ctx.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "服务内部错误",
		})
		return
	}

	status := statusForKind(de.Kind)
	// 凭证与 Token 错误沿用 401，前端据此跳登录页
	if errors.Is(err, service.ErrInvalidCredentials) || errors.Is(err, service.ErrInvalidToken) {
		status = http.StatusUnauthorized
	}

	payload := gin.H{
		"code":    status,
		"kind":    string(de.Kind),
		"message": de.Message,
	}
	if de.RetryAfter > 0 {
		// 与限流中间件保持一致，头和响应体都给出重试等待秒数
		seconds := int(de.RetryAfter.Seconds()) + 1
		ctx.Header("Retry-After", strconv.Itoa(seconds))
		payload["retry_after"] = seconds
	}
	ctx.JSON(status, payload)
}

func statusForKind(kind service.ErrorKind) int {
	switch kind {
	case service.KindValidation, service.KindInvalidOTP:
		return http.StatusBadRequest
	case service.KindNotFound:
		return http.StatusNotFound
	case service.KindConflict:
		return http.StatusConflict
	case service.KindAuthorization, service.KindLocked:
		return http.StatusForbidden
	case service.KindRateLimited:
		return http.StatusTooManyRequests
	}
	return http.StatusInternalServerError
}
