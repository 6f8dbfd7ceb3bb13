package service

import (
	"errors"
	"regexp"
	"testing"
	"time"
)

// ==================== 测试辅助 ====================

// fakeMailer 捕获发出的邮件，供断言使用
type fakeMailer struct {
	subjects []string
	bodies   []string
	to       [][]string
	failNext bool
}

func (m *fakeMailer) Send(subject, body, from string, to []string) error {
	if m.failNext {
		m.failNext = false
		return errSMTPDown
	}
	m.subjects = append(m.subjects, subject)
	m.bodies = append(m.bodies, body)
	m.to = append(m.to, to)
	return nil
}

var errSMTPDown = errors.New("smtp down")

var otpCodeRe = regexp.MustCompile(`\d{6}`)

// lastOTPCode 从最近一封邮件正文里取出验证码明文
func lastOTPCode(t *testing.T, m *fakeMailer) string {
	t.Helper()
	if len(m.bodies) == 0 {
		t.Fatal("没有捕获到任何邮件")
	}
	code := otpCodeRe.FindString(m.bodies[len(m.bodies)-1])
	if code == "" {
		t.Fatalf("邮件正文中找不到验证码: %s", m.bodies[len(m.bodies)-1])
	}
	return code
}

// ==================== 单元测试 ====================

func TestOTPService_IssueAndVerify(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewOTPService(mailer, "noreply@mall.test")

	hash, createdAt, err := svc.Issue("buyer@example.com")
	if err != nil {
		t.Fatalf("签发验证码失败: %v", err)
	}
	if hash == "" {
		t.Fatal("验证码哈希不应为空")
	}
	if len(mailer.to) != 1 || mailer.to[0][0] != "buyer@example.com" {
		t.Fatalf("收件人不正确: %v", mailer.to)
	}

	code := lastOTPCode(t, mailer)
	if len(code) != 6 {
		t.Fatalf("验证码应为 6 位数字, got %s", code)
	}
	// 数据库侧只能拿到哈希，明文不应等于哈希
	if code == hash {
		t.Fatal("哈希不应等于明文验证码")
	}

	if !svc.Verify(code, hash, &createdAt) {
		t.Fatal("正确验证码应通过校验")
	}
	if svc.Verify("000000", hash, &createdAt) && code != "000000" {
		t.Fatal("错误验证码不应通过校验")
	}
}

func TestOTPService_VerifyExpired(t *testing.T) {
	mailer := &fakeMailer{}
	svc := NewOTPService(mailer, "noreply@mall.test")

	hash, _, err := svc.Issue("buyer@example.com")
	if err != nil {
		t.Fatalf("签发验证码失败: %v", err)
	}
	code := lastOTPCode(t, mailer)

	// 签发时间回拨 11 分钟，超过 10 分钟有效期
	stale := time.Now().Add(-11 * time.Minute)
	if svc.Verify(code, hash, &stale) {
		t.Fatal("过期验证码不应通过校验")
	}

	// 刚好在有效期内
	fresh := time.Now().Add(-9 * time.Minute)
	if !svc.Verify(code, hash, &fresh) {
		t.Fatal("有效期内的验证码应通过校验")
	}
}

func TestOTPService_VerifyMissingHash(t *testing.T) {
	svc := NewOTPService(&fakeMailer{}, "noreply@mall.test")

	now := time.Now()
	if svc.Verify("123456", "", &now) {
		t.Fatal("哈希缺失时不应通过校验")
	}
	if svc.Verify("123456", "$2a$10$something", nil) {
		t.Fatal("签发时间缺失时不应通过校验")
	}
}

func TestOTPService_IssueMailFailure(t *testing.T) {
	mailer := &fakeMailer{failNext: true}
	svc := NewOTPService(mailer, "noreply@mall.test")

	if _, _, err := svc.Issue("buyer@example.com"); err == nil {
		t.Fatal("邮件发送失败时 Issue 应返回错误")
	}
}
