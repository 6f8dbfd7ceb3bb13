package mailer

import (
	"fmt"

	gomail "gopkg.in/gomail.v2"
)

// ==================== SMTPMailer SMTP 邮件发送 ====================

// SMTPMailer 基于 SMTP 的邮件发送
// OTP、审批邮件属于关键路径：同步发送，失败上抛，绝不静默吞掉
type SMTPMailer struct {
	host     string
	port     int
	username string
	password string
}

// NewSMTPMailer 创建邮件发送器
func NewSMTPMailer(host string, port int, username, password string) *SMTPMailer {
	return &SMTPMailer{
		host:     host,
		port:     port,
		username: username,
		password: password,
	}
}

// Send 发送纯文本邮件
func (m *SMTPMailer) Send(subject, body, from string, to []string) error {
	msg := gomail.NewMessage()
	msg.SetHeader("From", from)
	msg.SetHeader("To", to...)
	msg.SetHeader("Subject", subject)
	msg.SetBody("text/plain", body)

	dialer := gomail.NewDialer(m.host, m.port, m.username, m.password)
	if err := dialer.DialAndSend(msg); err != nil {
		return fmt.Errorf("邮件发送失败: %w", err)
	}
	return nil
}
