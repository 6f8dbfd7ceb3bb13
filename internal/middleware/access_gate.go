package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/repository"
)

// ==================== 访问门禁 ====================

// Capability 接口所需的访问能力
type Capability int

const (
	// CapApprovedActive 基础门槛：已激活+已批准+未拒绝+已验证
	CapApprovedActive Capability = iota
	// CapVendor 商家能力
	CapVendor
	// CapCustomer 买家能力（普通或 VIP）
	CapCustomer
	// CapVIPCustomer 仅 VIP 买家
	CapVIPCustomer
)

func (c Capability) message() string {
	switch c {
	case CapVendor:
		return "需要商家权限"
	case CapCustomer:
		return "需要买家权限"
	case CapVIPCustomer:
		return "需要 VIP 买家权限"
	}
	return "账号未激活或未通过审批"
}

// Allowed 纯谓词：账号是否具备指定能力
// 角色能力在角色匹配之外还要求 fully-active（普通买家=已验证，
// 其余角色=已验证+已批准）且账号处于激活状态
func Allowed(u *model.User, cap Capability) bool {
	switch cap {
	case CapApprovedActive:
		return u.IsActive && u.IsApproved && !u.IsRejected && u.IsVerified
	case CapVendor:
		return u.Role == model.RoleVendor && u.IsFullyActive() && u.IsActive
	case CapCustomer:
		return u.Role.IsCustomer() && u.IsFullyActive() && u.IsActive
	case CapVIPCustomer:
		return u.Role == model.RoleVIPCustomer && u.IsFullyActive() && u.IsActive
	}
	return false
}

// RequireCapability 能力门禁中间件，置于 JWTAuth 之后
// 每次请求回表读取账号：审批/拒绝/锁定状态以库里为准，不信任 Token 快照
func RequireCapability(userRepo repository.UserRepository, cap Capability) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadCurrentUser(c, userRepo)
		if !ok {
			return
		}

		if !Allowed(user, cap) {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"kind":    "authorization",
				"message": cap.message(),
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// RequireAdmin 管理员门禁
func RequireAdmin(userRepo repository.UserRepository) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := loadCurrentUser(c, userRepo)
		if !ok {
			return
		}

		if user.Role != model.RoleAdmin && !user.IsSuperuser {
			c.JSON(http.StatusForbidden, gin.H{
				"code":    403,
				"kind":    "authorization",
				"message": "需要管理员权限",
			})
			c.Abort()
			return
		}

		c.Set(ContextKeyUser, user)
		c.Next()
	}
}

// GetCurrentUser 取出门禁中间件加载的账号
func GetCurrentUser(c *gin.Context) *model.User {
	if v, exists := c.Get(ContextKeyUser); exists {
		if u, ok := v.(*model.User); ok {
			return u
		}
	}
	return nil
}

func loadCurrentUser(c *gin.Context, userRepo repository.UserRepository) (*model.User, bool) {
	user, err := userRepo.GetByID(c.Request.Context(), GetUserID(c))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{
			"code":    500,
			"message": "服务内部错误",
		})
		c.Abort()
		return nil, false
	}
	if user == nil {
		c.JSON(http.StatusUnauthorized, gin.H{
			"code":    401,
			"message": "账号不存在",
		})
		c.Abort()
		return nil, false
	}
	return user, true
}
