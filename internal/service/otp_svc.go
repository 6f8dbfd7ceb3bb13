package service

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"golang.org/x/crypto/bcrypt"
)

// ==================== OTPService 验证码服务 ====================

// Mailer 邮件协作方
// OTP、审批类邮件属于关键路径，发送失败必须上抛，不允许吞掉
type Mailer interface {
	Send(subject, body, from string, to []string) error
}

// OTP 有效期
const otpValidity = 10 * time.Minute

// OTPService 一次性验证码的签发与校验
// 数据库里只存 bcrypt 哈希，明文只出现在邮件里
type OTPService struct {
	mailer   Mailer
	from     string
	validity time.Duration
}

// NewOTPService 创建验证码服务
func NewOTPService(mailer Mailer, from string) *OTPService {
	return &OTPService{
		mailer:   mailer,
		from:     from,
		validity: otpValidity,
	}
}

// Issue 生成 6 位数字验证码，邮件发送明文，返回哈希与签发时间供持久化
func (s *OTPService) Issue(email string) (string, time.Time, error) {
	code, err := generateOTP()
	if err != nil {
		return "", time.Time{}, err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(code), bcrypt.DefaultCost)
	if err != nil {
		return "", time.Time{}, err
	}

	subject := "Your OTP Code"
	body := fmt.Sprintf("Your OTP code is %s. It is valid for 10 minutes.", code)
	if err := s.mailer.Send(subject, body, s.from, []string{email}); err != nil {
		return "", time.Time{}, fmt.Errorf("发送验证码邮件失败: %w", err)
	}

	return string(hash), time.Now(), nil
}

// Verify 校验验证码
// 哈希缺失、已过期、比对失败一律返回 false，不产生错误
// 比对走 bcrypt，不做明文字符串相等
func (s *OTPService) Verify(input, otpHash string, createdAt *time.Time) bool {
	if otpHash == "" || createdAt == nil {
		return false
	}
	if time.Since(*createdAt) > s.validity {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(otpHash), []byte(input)) == nil
}

// SendPasswordSetupEmail 审批通过后发送设置密码引导邮件
func (s *OTPService) SendPasswordSetupEmail(email, setPasswordURL string) error {
	subject := "Set Up Your Password"
	body := fmt.Sprintf("Please set up your password by clicking the following link: %s", setPasswordURL)
	if err := s.mailer.Send(subject, body, s.from, []string{email}); err != nil {
		return fmt.Errorf("发送密码设置邮件失败: %w", err)
	}
	return nil
}

// generateOTP 生成 [100000, 999999] 区间的验证码
func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}
