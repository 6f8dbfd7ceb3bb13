package task

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/repository"
)

func setupCleanupTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("连接测试数据库失败: %v", err)
	}

	if err := db.AutoMigrate(&model.User{}, &model.RevokedToken{}); err != nil {
		t.Fatalf("自动建表失败: %v", err)
	}
	return db
}

func TestCleanupTask_RunOnce(t *testing.T) {
	db := setupCleanupTestDB(t)
	ctx := context.Background()
	tokenRepo := repository.NewRevokedTokenRepository(db)
	userRepo := repository.NewUserRepository(db)

	now := time.Now()

	// 一条已过期、一条未过期的吊销记录
	expired := &model.RevokedToken{JTI: "expired-jti", UserID: "u1", ExpiresAt: now.Add(-time.Hour)}
	alive := &model.RevokedToken{JTI: "alive-jti", UserID: "u1", ExpiresAt: now.Add(time.Hour)}
	if err := tokenRepo.Revoke(ctx, expired); err != nil {
		t.Fatalf("写入吊销记录失败: %v", err)
	}
	if err := tokenRepo.Revoke(ctx, alive); err != nil {
		t.Fatalf("写入吊销记录失败: %v", err)
	}

	// 一个残留 25 小时的验证码、一个新鲜验证码
	staleUser := &model.User{Email: "stale@example.com"}
	freshUser := &model.User{Email: "fresh@example.com"}
	if err := userRepo.Create(ctx, staleUser); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	if err := userRepo.Create(ctx, freshUser); err != nil {
		t.Fatalf("创建用户失败: %v", err)
	}
	if err := userRepo.SaveOTP(ctx, staleUser.ID, "stale-hash", now.Add(-25*time.Hour)); err != nil {
		t.Fatalf("写入验证码失败: %v", err)
	}
	if err := userRepo.SaveOTP(ctx, freshUser.ID, "fresh-hash", now); err != nil {
		t.Fatalf("写入验证码失败: %v", err)
	}

	task := NewCleanupTask(tokenRepo, userRepo, zap.NewNop())
	task.runOnce(ctx)

	// 过期吊销记录被清理，未过期保留
	if revoked, _ := tokenRepo.IsRevoked(ctx, "expired-jti"); revoked {
		t.Fatal("过期吊销记录应被清理")
	}
	if revoked, _ := tokenRepo.IsRevoked(ctx, "alive-jti"); !revoked {
		t.Fatal("未过期吊销记录应保留")
	}

	// 残留验证码被清理，新鲜验证码保留
	stale, _ := userRepo.GetByID(ctx, staleUser.ID)
	if stale.OTPHash != "" {
		t.Fatal("残留验证码应被清理")
	}
	fresh, _ := userRepo.GetByID(ctx, freshUser.ID)
	if fresh.OTPHash == "" {
		t.Fatal("新鲜验证码应保留")
	}
}
