package controller

import (
	"github.com/gin-gonic/gin"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/service"
)

// ==================== AuthController 认证控制器 ====================

// AuthController 注册 / 验证 / 登录相关接口
type AuthController struct {
	accountService *service.AccountService
	authService    *service.AuthService
}

// NewAuthController 创建认证控制器
func NewAuthController(accountService *service.AccountService, authService *service.AuthService) *AuthController {
	return &AuthController{
		accountService: accountService,
		authService:    authService,
	}
}

// ==================== 注册 / 验证 ====================

// Register 注册账号
// @Summary 注册账号并发送邮箱验证码
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RegisterRequest true "注册信息"
// @Success 201 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /auth/register [post]
func (c *AuthController) Register(ctx *gin.Context) {
	var req dto.RegisterRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if _, err := c.accountService.Register(ctx.Request.Context(), &req); err != nil {
		respondError(ctx, err)
		return
	}
	respondCreated(ctx, "验证码已发送至邮箱", nil)
}

// VerifyOTP 校验邮箱验证码
// @Summary 校验邮箱验证码
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.VerifyOTPRequest true "邮箱与验证码"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /auth/verify-otp [post]
func (c *AuthController) VerifyOTP(ctx *gin.Context) {
	var req dto.VerifyOTPRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	user, err := c.accountService.VerifyOTP(ctx.Request.Context(), req.Email, req.OTP)
	if err != nil {
		respondError(ctx, err)
		return
	}

	message := "验证成功，现在可以设置密码"
	if user.Role != model.RoleNormalCustomer {
		message = "验证成功，请等待管理员审批"
	}
	respondOK(ctx, message, gin.H{"user_id": user.ID})
}

// ResendOTP 重发验证码
// @Summary 重发邮箱验证码
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.EmailRequest true "邮箱"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 429 {object} map[string]interface{}
// @Router /auth/resend-otp [post]
func (c *AuthController) ResendOTP(ctx *gin.Context) {
	var req dto.EmailRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := c.accountService.ResendOTP(ctx.Request.Context(), req.Email); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "验证码已重新发送", nil)
}

// ForgotPassword 忘记密码
// @Summary 发送密码重置验证码
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.EmailRequest true "邮箱"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /auth/forgot-password [post]
func (c *AuthController) ForgotPassword(ctx *gin.Context) {
	var req dto.EmailRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := c.accountService.ForgotPassword(ctx.Request.Context(), req.Email); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "密码重置验证码已发送至邮箱", nil)
}

// ResetPassword 凭验证码重置密码
// @Summary 凭验证码重置密码
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.ResetPasswordRequest true "邮箱、验证码与新密码"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /auth/reset-password [post]
func (c *AuthController) ResetPassword(ctx *gin.Context) {
	var req dto.ResetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := c.accountService.ResetPassword(ctx.Request.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "密码重置成功，请使用新密码登录", nil)
}

// SetPassword 首次设置密码
// @Summary 首次设置密码（注册/审批流程的最后一步）
// @Tags Auth
// @Accept json
// @Produce json
// @Param id path string true "账号 ID"
// @Param request body dto.SetPasswordRequest true "密码"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /auth/set-password/{id} [post]
func (c *AuthController) SetPassword(ctx *gin.Context) {
	var req dto.SetPasswordRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := c.accountService.SetPassword(ctx.Request.Context(), ctx.Param("id"), &req); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "密码设置成功，现在可以登录", nil)
}

// ==================== 登录 / 登出 ====================

// Login 登录
// @Summary 登录，返回 access/refresh Token 对
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.LoginRequest true "登录信息"
// @Success 200 {object} dto.LoginResponse
// @Failure 401 {object} map[string]interface{}
// @Failure 403 {object} map[string]interface{}
// @Router /auth/login [post]
func (c *AuthController) Login(ctx *gin.Context) {
	var req dto.LoginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	resp, err := c.authService.Login(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "登录成功", resp)
}

// RefreshToken 刷新 Token
// @Summary 刷新 Token 对，旧 refresh token 随即失效
// @Tags Auth
// @Accept json
// @Produce json
// @Param request body dto.RefreshTokenRequest true "Refresh Token"
// @Success 200 {object} dto.RefreshTokenResponse
// @Failure 400 {object} map[string]interface{}
// @Router /auth/refresh [post]
func (c *AuthController) RefreshToken(ctx *gin.Context) {
	var req dto.RefreshTokenRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	resp, err := c.authService.RefreshToken(ctx.Request.Context(), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "刷新成功", resp)
}

// Logout 登出
// @Summary 登出，吊销当前 refresh token
// @Tags Auth
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.LogoutRequest true "Refresh Token"
// @Success 200 {object} map[string]interface{}
// @Failure 400 {object} map[string]interface{}
// @Router /auth/logout [post]
func (c *AuthController) Logout(ctx *gin.Context) {
	var req dto.LogoutRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := c.authService.Logout(ctx.Request.Context(), req.RefreshToken); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "已登出", nil)
}
