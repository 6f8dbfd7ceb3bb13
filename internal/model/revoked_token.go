package model

import "time"

// ==================== RevokedToken 已吊销的 Refresh Token ====================

// RevokedToken 登出时把 refresh token 的 jti 写入吊销表
// 到期后由清理任务删除，表体量只与 refresh 有效期内的登出次数相关
type RevokedToken struct {
	BaseModel

	JTI       string    `gorm:"size:36;uniqueIndex;not null" json:"jti"`
	UserID    string    `gorm:"type:uuid;index" json:"user_id"`
	ExpiresAt time.Time `gorm:"index;not null" json:"expires_at"`
}

func (RevokedToken) TableName() string {
	return "revoked_tokens"
}
