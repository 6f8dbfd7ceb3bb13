package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ==================== Role 角色 ====================

// Role 系统角色
// 注意区分：admin 是平台管理员，vendor 是入驻商家，
// vip_customer / normal_customer 是两档买家
type Role string

const (
	RoleAdmin          Role = "admin"
	RoleVendor         Role = "vendor"
	RoleVIPCustomer    Role = "vip_customer"
	RoleNormalCustomer Role = "normal_customer"
)

// Valid 是否为合法角色
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleVendor, RoleVIPCustomer, RoleNormalCustomer:
		return true
	}
	return false
}

// IsCustomer 是否为买家（普通或 VIP）
func (r Role) IsCustomer() bool {
	return r == RoleNormalCustomer || r == RoleVIPCustomer
}

// ==================== User 平台账号 ====================

// User 平台账号
// 审批状态机：未验证 -> 已验证 -> 已批准/已拒绝（批准与拒绝互斥且一次性）
type User struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// 基础信息
	Email       string `gorm:"size:100;uniqueIndex;not null" json:"email"`
	Password    string `gorm:"size:255" json:"-"` // 哈希密码，空串表示尚未设置
	FullName    string `gorm:"size:255" json:"full_name"`
	PhoneNumber string `gorm:"size:15" json:"phone_number"`
	Address     string `gorm:"type:text" json:"address"`

	Role        Role `gorm:"size:20;default:'normal_customer';index" json:"role"`
	IsSuperuser bool `gorm:"default:false" json:"-"`

	// 生命周期标记
	IsVerified bool `gorm:"default:false" json:"is_verified"`
	IsApproved bool `gorm:"default:false" json:"is_approved"`
	IsRejected bool `gorm:"default:false" json:"is_rejected"`
	IsActive   bool `gorm:"default:false" json:"is_active"`

	ApprovedAt      *time.Time `json:"approved_at,omitempty"`
	RejectedAt      *time.Time `json:"rejected_at,omitempty"`
	RejectionReason string     `gorm:"type:text" json:"rejection_reason,omitempty"`

	// OTP 验证码（只存哈希，明文只出现在邮件里）
	OTPHash      string     `gorm:"size:128" json:"-"`
	OTPCreatedAt *time.Time `json:"-"`

	// 登录失败跟踪
	FailedLoginAttempts int        `gorm:"default:0" json:"-"`
	LastFailedLogin     *time.Time `json:"-"`
	AccountLockedUntil  *time.Time `json:"-"`

	// 审批处理信息
	ProcessedByID *string    `gorm:"type:uuid" json:"processed_by,omitempty"`
	ProcessedBy   *User      `gorm:"foreignKey:ProcessedByID" json:"-"`
	ProcessedAt   *time.Time `json:"processed_at,omitempty"`

	Cart *Cart `gorm:"foreignKey:UserID" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// BeforeCreate 未显式指定时生成 UUID 主键
func (u *User) BeforeCreate(tx *gorm.DB) error {
	if u.ID == "" {
		u.ID = uuid.NewString()
	}
	return nil
}

// IsFullyActive 是否具备访问平台的完整状态
// 普通买家只要求邮箱已验证，其余角色还必须通过管理员审批
func (u *User) IsFullyActive() bool {
	if u.Role == RoleNormalCustomer {
		return u.IsVerified
	}
	return u.IsVerified && u.IsApproved
}

// HasPassword 密码是否已设置
func (u *User) HasPassword() bool {
	return u.Password != ""
}

// IsLocked 账号当前是否处于锁定期
func (u *User) IsLocked(now time.Time) bool {
	return u.AccountLockedUntil != nil && u.AccountLockedUntil.After(now)
}
