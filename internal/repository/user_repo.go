package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"mall_dev_v1_202609/internal/model"
)

// ==================== UserRepository 账号仓库 ====================

// UserRepository 账号仓库接口
type UserRepository interface {
	Create(ctx context.Context, user *model.User) error
	GetByID(ctx context.Context, id string) (*model.User, error)
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	ExistsByEmail(ctx context.Context, email string) (bool, error)

	// OTP
	SaveOTP(ctx context.Context, id string, otpHash string, createdAt time.Time) error
	MarkVerified(ctx context.Context, id string) error
	ClearStaleOTP(ctx context.Context, before time.Time) (int64, error)

	// 密码
	SetPassword(ctx context.Context, id string, hashedPassword string) error
	ResetPassword(ctx context.Context, id string, hashedPassword string) error

	// 审批
	ListPendingApproval(ctx context.Context) ([]model.User, error)
	Approve(ctx context.Context, id, adminID string, now time.Time) (bool, error)
	Reject(ctx context.Context, id, adminID, reason string, now time.Time) (bool, error)

	// 登录失败跟踪
	IncrementLoginAttempts(ctx context.Context, id string, now time.Time) (int, error)
	LockUntil(ctx context.Context, id string, until time.Time) error
	ResetLoginAttempts(ctx context.Context, id string) error
}

// ==================== 实现 ====================

type userRepository struct {
	db *gorm.DB
}

// NewUserRepository 创建账号仓库
func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db: db}
}

// Create 创建账号
func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

// GetByID 根据 ID 获取账号
func (r *userRepository) GetByID(ctx context.Context, id string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// GetByEmail 根据邮箱获取账号
func (r *userRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	return &user, err
}

// ExistsByEmail 邮箱是否已注册
func (r *userRepository) ExistsByEmail(ctx context.Context, email string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&model.User{}).Where("email = ?", email).Count(&count).Error
	return count > 0, err
}

// SaveOTP 写入新的 OTP 哈希，旧验证码随之作废
func (r *userRepository) SaveOTP(ctx context.Context, id string, otpHash string, createdAt time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"otp_hash":       otpHash,
			"otp_created_at": createdAt,
		}).Error
}

// MarkVerified 标记邮箱已验证并清除 OTP 哈希（一次性使用）
func (r *userRepository) MarkVerified(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"is_verified": true,
			"otp_hash":    "",
		}).Error
}

// ClearStaleOTP 清理早于指定时间的残留 OTP 哈希
func (r *userRepository) ClearStaleOTP(ctx context.Context, before time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("otp_hash <> '' AND otp_created_at < ?", before).
		Updates(map[string]interface{}{
			"otp_hash":       "",
			"otp_created_at": nil,
		})
	return res.RowsAffected, res.Error
}

// SetPassword 设置密码哈希
func (r *userRepository) SetPassword(ctx context.Context, id string, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("password", hashedPassword).Error
}

// ResetPassword 重置密码并清除 OTP 字段
func (r *userRepository) ResetPassword(ctx context.Context, id string, hashedPassword string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"password":       hashedPassword,
			"otp_hash":       "",
			"otp_created_at": nil,
		}).Error
}

// ListPendingApproval 查询待审批账号（已验证、未批准、未拒绝的特权角色）
func (r *userRepository) ListPendingApproval(ctx context.Context) ([]model.User, error) {
	var users []model.User
	err := r.db.WithContext(ctx).
		Where("is_verified = ? AND is_approved = ? AND is_rejected = ?", true, false, false).
		Where("role IN ?", []model.Role{model.RoleVendor, model.RoleVIPCustomer}).
		Order("created_at ASC").
		Find(&users).Error
	return users, err
}

// Approve 批准账号
// 单条条件更新：已批准或已拒绝的账号不会被二次处理，
// 两个管理员并发操作时只有一方生效（返回 false 表示没抢到）
func (r *userRepository) Approve(ctx context.Context, id, adminID string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_approved = ? AND is_rejected = ?", id, false, false).
		Updates(map[string]interface{}{
			"is_approved":     true,
			"approved_at":     now,
			"is_active":       true,
			"processed_by_id": adminID,
			"processed_at":    now,
		})
	return res.RowsAffected > 0, res.Error
}

// Reject 拒绝账号，同样受一次性处理保护
func (r *userRepository) Reject(ctx context.Context, id, adminID, reason string, now time.Time) (bool, error) {
	res := r.db.WithContext(ctx).Model(&model.User{}).
		Where("id = ? AND is_approved = ? AND is_rejected = ?", id, false, false).
		Updates(map[string]interface{}{
			"is_rejected":      true,
			"rejected_at":      now,
			"rejection_reason": reason,
			"processed_by_id":  adminID,
			"processed_at":     now,
		})
	return res.RowsAffected > 0, res.Error
}

// IncrementLoginAttempts 失败计数加一，返回新值
// 自增与读回在同一条 UPDATE ... RETURNING 里完成，
// 并发失败不会丢更新，也不会读到同一个计数值
func (r *userRepository) IncrementLoginAttempts(ctx context.Context, id string, now time.Time) (int, error) {
	var user model.User
	res := r.db.WithContext(ctx).Model(&user).
		Clauses(clause.Returning{Columns: []clause.Column{{Name: "failed_login_attempts"}}}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_login_attempts": gorm.Expr("failed_login_attempts + 1"),
			"last_failed_login":     now,
		})
	if res.Error != nil {
		return 0, res.Error
	}
	return user.FailedLoginAttempts, nil
}

// LockUntil 设置锁定截止时间
func (r *userRepository) LockUntil(ctx context.Context, id string, until time.Time) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Update("account_locked_until", until).Error
}

// ResetLoginAttempts 登录成功后清零计数并解除锁定
func (r *userRepository) ResetLoginAttempts(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Model(&model.User{}).Where("id = ?", id).
		Updates(map[string]interface{}{
			"failed_login_attempts": 0,
			"last_failed_login":     nil,
			"account_locked_until":  nil,
		}).Error
}
