package service

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/repository"
)

// ==================== AccountService 账号生命周期 ====================

// AccountService 账号生命周期状态机
// 注册 -> 邮箱验证 -> （特权角色）管理员审批 -> 设置密码 -> 可登录
// 所有状态迁移都是先查前置条件再做单条条件更新，失败不产生任何写入
type AccountService struct {
	userRepo           repository.UserRepository
	otp                *OTPService
	notifier           Notifier
	logger             *zap.Logger
	setPasswordBaseURL string
}

// NewAccountService 创建账号服务
func NewAccountService(
	userRepo repository.UserRepository,
	otp *OTPService,
	notifier Notifier,
	logger *zap.Logger,
	setPasswordBaseURL string,
) *AccountService {
	return &AccountService{
		userRepo:           userRepo,
		otp:                otp,
		notifier:           notifier,
		logger:             logger,
		setPasswordBaseURL: setPasswordBaseURL,
	}
}

// ==================== 注册 / 验证 ====================

// Register 注册账号并发送首个验证码
// 普通买家出生即批准+激活，特权角色保持未批准+未激活等待审批
func (s *AccountService) Register(ctx context.Context, req *dto.RegisterRequest) (*model.User, error) {
	role := model.Role(req.Role)
	if role == "" {
		role = model.RoleNormalCustomer
	}
	if !role.Valid() || role == model.RoleAdmin {
		return nil, ErrRoleNotAllowed
	}

	exists, err := s.userRepo.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailExists
	}

	user := &model.User{
		Email:    req.Email,
		FullName: req.FullName,
		Role:     role,
	}
	if role == model.RoleNormalCustomer {
		user.IsApproved = true
		user.IsActive = true
	}

	if err := s.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	if err := s.issueOTP(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("账号注册成功",
		zap.String("user_id", user.ID),
		zap.String("role", string(user.Role)),
	)
	return user, nil
}

// VerifyOTP 校验邮箱验证码
// 成功后置 is_verified 并清除哈希（一次性使用），失败可重试直到过期
func (s *AccountService) VerifyOTP(ctx context.Context, email, code string) (*model.User, error) {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, ErrUserNotFound
	}

	if user.OTPHash == "" || user.OTPCreatedAt == nil {
		return nil, ErrNoOTP
	}
	if !s.otp.Verify(code, user.OTPHash, user.OTPCreatedAt) {
		return nil, ErrInvalidOTP
	}

	if err := s.userRepo.MarkVerified(ctx, user.ID); err != nil {
		return nil, err
	}
	user.IsVerified = true
	user.OTPHash = ""
	return user, nil
}

// ResendOTP 重发验证码，旧验证码随新哈希写入而作废
func (s *AccountService) ResendOTP(ctx context.Context, email string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	return s.issueOTP(ctx, user)
}

// ForgotPassword 忘记密码：发送重置用验证码，流程与重发一致
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	return s.ResendOTP(ctx, email)
}

// ResetPassword 凭验证码重置密码，并清除 OTP 字段
func (s *AccountService) ResetPassword(ctx context.Context, email, code, newPassword string) error {
	user, err := s.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if user.OTPHash == "" || user.OTPCreatedAt == nil {
		return ErrNoOTP
	}
	if !s.otp.Verify(code, user.OTPHash, user.OTPCreatedAt) {
		return ErrInvalidOTP
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(newPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.ResetPassword(ctx, user.ID, string(hashed))
}

// issueOTP 签发验证码并持久化哈希
func (s *AccountService) issueOTP(ctx context.Context, user *model.User) error {
	hash, createdAt, err := s.otp.Issue(user.Email)
	if err != nil {
		return err
	}
	return s.userRepo.SaveOTP(ctx, user.ID, hash, createdAt)
}

// ==================== 管理员审批 ====================

// ListPendingApproval 待审批账号（已验证、未处理的 vendor / vip_customer）
func (s *AccountService) ListPendingApproval(ctx context.Context) ([]dto.PendingUser, error) {
	users, err := s.userRepo.ListPendingApproval(ctx)
	if err != nil {
		return nil, err
	}

	result := make([]dto.PendingUser, 0, len(users))
	for _, u := range users {
		result = append(result, dto.PendingUser{
			ID:        u.ID,
			Email:     u.Email,
			FullName:  u.FullName,
			Role:      string(u.Role),
			CreatedAt: u.CreatedAt,
		})
	}
	return result, nil
}

// Decide 管理员审批
// 批准与拒绝互斥且一次性：底层是 where is_approved=false and is_rejected=false
// 的条件更新，并发双审批只有一方生效，另一方拿到 ErrAlreadyProcessed
func (s *AccountService) Decide(ctx context.Context, adminID string, req *dto.AdminDecisionRequest) error {
	if req.Action == "reject" && req.RejectionReason == "" {
		return ErrReasonRequired
	}

	user, err := s.userRepo.GetByID(ctx, req.ID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}
	if user.IsApproved || user.IsRejected {
		return ErrAlreadyProcessed
	}
	if !user.IsVerified {
		return ErrDecideUnverified
	}

	now := time.Now()
	switch req.Action {
	case "approve":
		applied, err := s.userRepo.Approve(ctx, user.ID, adminID, now)
		if err != nil {
			return err
		}
		if !applied {
			return ErrAlreadyProcessed
		}

		setPasswordURL := fmt.Sprintf("%s/set-password/%s/", s.setPasswordBaseURL, user.ID)
		if err := s.otp.SendPasswordSetupEmail(user.Email, setPasswordURL); err != nil {
			// 状态已落库，邮件失败要暴露出去让管理员知道，但不回滚审批
			s.logger.Error("密码设置邮件发送失败",
				zap.String("user_id", user.ID),
				zap.Error(err),
			)
			return err
		}
		s.notifier.Publish(ctx, user.ID, "您的账号已通过审批，请查收邮件设置密码")

	case "reject":
		applied, err := s.userRepo.Reject(ctx, user.ID, adminID, req.RejectionReason, now)
		if err != nil {
			return err
		}
		if !applied {
			return ErrAlreadyProcessed
		}
		s.notifier.Publish(ctx, user.ID, "您的账号审批未通过："+req.RejectionReason)
	}

	s.logger.Info("账号审批完成",
		zap.String("user_id", user.ID),
		zap.String("action", req.Action),
		zap.String("admin_id", adminID),
	)
	return nil
}

// ==================== 设置密码 ====================

// 密码强度规则
var (
	upperRe   = regexp.MustCompile(`[A-Z]`)
	lowerRe   = regexp.MustCompile(`[a-z]`)
	digitRe   = regexp.MustCompile(`[0-9]`)
	specialRe = regexp.MustCompile(`[!@#$%^&*(),.?":{}|<>]`)
)

// validatePasswordStrength 密码必须 >=8 位且包含大写、小写、数字、特殊字符
func validatePasswordStrength(password string) error {
	if len(password) < 8 {
		return &DomainError{Kind: KindValidation, Message: "密码长度至少 8 位"}
	}
	if !upperRe.MatchString(password) {
		return &DomainError{Kind: KindValidation, Message: "密码必须包含至少一个大写字母"}
	}
	if !lowerRe.MatchString(password) {
		return &DomainError{Kind: KindValidation, Message: "密码必须包含至少一个小写字母"}
	}
	if !digitRe.MatchString(password) {
		return &DomainError{Kind: KindValidation, Message: "密码必须包含至少一个数字"}
	}
	if !specialRe.MatchString(password) {
		return &DomainError{Kind: KindValidation, Message: "密码必须包含至少一个特殊字符"}
	}
	return nil
}

// SetPassword 首次设置密码，每个账号只允许一次
// 门槛按角色分流：普通买家只要求已验证，特权角色要求已批准+已激活
func (s *AccountService) SetPassword(ctx context.Context, userID string, req *dto.SetPasswordRequest) error {
	if req.Password != req.ConfirmPassword {
		return ErrPasswordMismatch
	}
	if err := validatePasswordStrength(req.Password); err != nil {
		return err
	}

	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return ErrUserNotFound
	}

	if user.IsRejected {
		return ErrAccountRejected
	}
	if user.Role == model.RoleNormalCustomer {
		if !user.IsVerified {
			return ErrVerifyFirst
		}
	} else {
		if !user.IsActive || !user.IsApproved {
			return ErrNotApproved
		}
	}
	if user.HasPassword() {
		return ErrPasswordAlreadySet
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return s.userRepo.SetPassword(ctx, user.ID, string(hashed))
}

// ==================== 视图转换 ====================

// ToUserInfo 转换为对外账号信息
func ToUserInfo(u *model.User) *dto.UserInfo {
	return &dto.UserInfo{
		ID:              u.ID,
		Email:           u.Email,
		FullName:        u.FullName,
		PhoneNumber:     u.PhoneNumber,
		Address:         u.Address,
		Role:            string(u.Role),
		IsVerified:      u.IsVerified,
		IsApproved:      u.IsApproved,
		ApprovedAt:      u.ApprovedAt,
		IsRejected:      u.IsRejected,
		RejectedAt:      u.RejectedAt,
		RejectionReason: u.RejectionReason,
		CreatedAt:       u.CreatedAt,
	}
}
