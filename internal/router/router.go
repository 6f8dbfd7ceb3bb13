package router

import (
	"time"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202609/internal/controller"
	"mall_dev_v1_202609/internal/middleware"
	"mall_dev_v1_202609/internal/repository"
)

// Controllers 控制器集合
type Controllers struct {
	Auth    *controller.AuthController
	Admin   *controller.AdminController
	Product *controller.ProductController
	Cart    *controller.CartController
}

// ThrottleConfig 敏感端点限流间隔
type ThrottleConfig struct {
	Login     time.Duration
	VerifyOTP time.Duration
	ResendOTP time.Duration
}

// DefaultThrottleConfig 默认限流配置
func DefaultThrottleConfig() *ThrottleConfig {
	return &ThrottleConfig{
		Login:     time.Second,
		VerifyOTP: time.Second,
		ResendOTP: 30 * time.Second,
	}
}

// SetupRouter 注册所有路由
func SetupRouter(ctls *Controllers, userRepo repository.UserRepository, throttle *ThrottleConfig) *gin.Engine {
	if throttle == nil {
		throttle = DefaultThrottleConfig()
	}

	r := gin.Default()

	api := r.Group("/api")
	{
		// auth 鉴权组
		auth := api.Group("/auth")
		{
			auth.POST("/register", ctls.Auth.Register)
			auth.POST("/verify-otp", middleware.Throttle("verify_otp", throttle.VerifyOTP), ctls.Auth.VerifyOTP)
			auth.POST("/resend-otp", middleware.Throttle("resend_otp", throttle.ResendOTP), ctls.Auth.ResendOTP)
			auth.POST("/forgot-password", middleware.Throttle("resend_otp", throttle.ResendOTP), ctls.Auth.ForgotPassword)
			auth.POST("/reset-password", middleware.Throttle("verify_otp", throttle.VerifyOTP), ctls.Auth.ResetPassword)
			auth.POST("/set-password/:id", ctls.Auth.SetPassword)
			auth.POST("/login", middleware.Throttle("login", throttle.Login), ctls.Auth.Login)
			auth.POST("/refresh", ctls.Auth.RefreshToken)
			auth.POST("/logout", middleware.JWTAuth(), ctls.Auth.Logout)
		}

		// admin 审批组
		admin := api.Group("/admin", middleware.JWTAuth(), middleware.RequireAdmin(userRepo))
		{
			admin.GET("/approvals", ctls.Admin.ListPending)
			admin.POST("/approvals", ctls.Admin.Decide)
		}

		// 公开商品列表，带 Token 时按角色价展示
		api.GET("/products", middleware.OptionalJWTAuth(), ctls.Product.ListPublic)

		// vendor 商家组
		vendor := api.Group("/vendor", middleware.JWTAuth(),
			middleware.RequireCapability(userRepo, middleware.CapVendor))
		{
			vendor.GET("/products", ctls.Product.VendorList)
			vendor.POST("/products", ctls.Product.VendorCreate)
			vendor.GET("/products/:id", ctls.Product.VendorGet)
			vendor.PUT("/products/:id", ctls.Product.VendorUpdate)
			vendor.DELETE("/products/:id", ctls.Product.VendorDeactivate)
		}

		// cart 买家组
		cart := api.Group("/cart", middleware.JWTAuth(),
			middleware.RequireCapability(userRepo, middleware.CapCustomer))
		{
			cart.GET("", ctls.Cart.Get)
			cart.POST("/items", ctls.Cart.AddItem)
			cart.PUT("/items/:id", ctls.Cart.UpdateItem)
			cart.DELETE("/items/:id", ctls.Cart.RemoveItem)
		}
	}

	return r
}
