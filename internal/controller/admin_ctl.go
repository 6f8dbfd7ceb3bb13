package controller

import (
	"github.com/gin-gonic/gin"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/middleware"
	"mall_dev_v1_202609/internal/service"
)

// ==================== AdminController 管理员控制器 ====================

// AdminController 账号审批接口
type AdminController struct {
	accountService *service.AccountService
}

// NewAdminController 创建管理员控制器
func NewAdminController(accountService *service.AccountService) *AdminController {
	return &AdminController{accountService: accountService}
}

// ListPending 待审批账号列表
// @Summary 待审批账号列表（已验证、未处理的商家 / VIP 买家）
// @Tags Admin
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.PendingUser
// @Failure 403 {object} map[string]interface{}
// @Router /admin/approvals [get]
func (c *AdminController) ListPending(ctx *gin.Context) {
	users, err := c.accountService.ListPendingApproval(ctx.Request.Context())
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "", users)
}

// Decide 审批账号
// @Summary 批准或拒绝账号，每个账号只能处理一次
// @Tags Admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.AdminDecisionRequest true "审批决定"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /admin/approvals [post]
func (c *AdminController) Decide(ctx *gin.Context) {
	var req dto.AdminDecisionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	adminID := middleware.GetUserID(ctx)
	if err := c.accountService.Decide(ctx.Request.Context(), adminID, &req); err != nil {
		respondError(ctx, err)
		return
	}

	message := "账号已批准"
	if req.Action == "reject" {
		message = "账号已拒绝"
	}
	respondOK(ctx, message, nil)
}
