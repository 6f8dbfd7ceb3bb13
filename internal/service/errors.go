package service

import (
	"errors"
	"fmt"
	"time"
)

// ==================== 业务错误 ====================

// ErrorKind 错误类别，控制器据此映射 HTTP 状态码，前端据此分支
type ErrorKind string

const (
	KindValidation    ErrorKind = "validation"
	KindNotFound      ErrorKind = "not_found"
	KindConflict      ErrorKind = "conflict"
	KindAuthorization ErrorKind = "authorization"
	KindRateLimited   ErrorKind = "rate_limited"
	KindInvalidOTP    ErrorKind = "invalid_or_expired_otp"
	KindLocked        ErrorKind = "locked"
)

// DomainError 业务错误
// 所有状态机前置条件失败都以它返回，不做任何写入
type DomainError struct {
	Kind       ErrorKind
	Message    string
	RetryAfter time.Duration // 仅 locked / rate_limited 携带
}

func (e *DomainError) Error() string {
	return e.Message
}

// KindOf 取出错误类别，非业务错误返回空串
func KindOf(err error) ErrorKind {
	var de *DomainError
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// NewLockedError 账号锁定错误，带剩余等待时间
func NewLockedError(retryAfter time.Duration) *DomainError {
	minutes := int(retryAfter.Minutes())
	if minutes < 1 {
		minutes = 1
	}
	return &DomainError{
		Kind:       KindLocked,
		Message:    fmt.Sprintf("账号已被临时锁定，请 %d 分钟后重试", minutes),
		RetryAfter: retryAfter,
	}
}

// 预定义错误
var (
	// 注册 / OTP
	ErrEmailExists    = &DomainError{Kind: KindConflict, Message: "邮箱已被注册"}
	ErrUserNotFound   = &DomainError{Kind: KindNotFound, Message: "用户不存在"}
	ErrRoleNotAllowed = &DomainError{Kind: KindValidation, Message: "不支持注册该角色"}
	ErrNoOTP          = &DomainError{Kind: KindValidation, Message: "该账号没有待验证的验证码"}
	ErrInvalidOTP     = &DomainError{Kind: KindInvalidOTP, Message: "验证码错误或已过期"}

	// 审批
	ErrAlreadyProcessed = &DomainError{Kind: KindConflict, Message: "该账号已被处理过"}
	ErrDecideUnverified = &DomainError{Kind: KindValidation, Message: "账号尚未完成邮箱验证，不能审批"}
	ErrReasonRequired   = &DomainError{Kind: KindValidation, Message: "拒绝时必须填写原因"}

	// 密码
	ErrPasswordMismatch   = &DomainError{Kind: KindValidation, Message: "两次输入的密码不一致"}
	ErrPasswordAlreadySet = &DomainError{Kind: KindConflict, Message: "该账号已设置过密码"}

	// 登录 / 访问
	ErrAccountRejected    = &DomainError{Kind: KindAuthorization, Message: "账号审批未通过"}
	ErrVerifyFirst        = &DomainError{Kind: KindAuthorization, Message: "请先完成邮箱验证"}
	ErrNotApproved        = &DomainError{Kind: KindAuthorization, Message: "账号尚未通过审批或未激活"}
	ErrInvalidCredentials = &DomainError{Kind: KindAuthorization, Message: "邮箱或密码错误"}
	ErrInvalidToken       = &DomainError{Kind: KindValidation, Message: "Token 无效"}

	// 商品 / 购物车
	ErrProductNotFound   = &DomainError{Kind: KindNotFound, Message: "商品不存在或已下架"}
	ErrCartItemNotFound  = &DomainError{Kind: KindNotFound, Message: "购物车中没有该商品"}
	ErrInsufficientStock = &DomainError{Kind: KindConflict, Message: "库存不足"}
	ErrInvalidQuantity   = &DomainError{Kind: KindValidation, Message: "数量不合法"}
	ErrPriceInvalid      = &DomainError{Kind: KindValidation, Message: "批发价必须低于零售价"}
	ErrStockNegative     = &DomainError{Kind: KindValidation, Message: "库存不能为负数"}
)
