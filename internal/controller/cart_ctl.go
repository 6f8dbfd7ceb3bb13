package controller

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/middleware"
	"mall_dev_v1_202609/internal/service"
)

// ==================== CartController 购物车控制器 ====================

// CartController 购物车接口，全部要求买家能力
type CartController struct {
	cartService *service.CartService
}

// NewCartController 创建购物车控制器
func NewCartController(cartService *service.CartService) *CartController {
	return &CartController{cartService: cartService}
}

// Get 获取购物车
// @Summary 获取购物车，合计按当前角色价实时计算
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.CartView
// @Failure 403 {object} map[string]interface{}
// @Router /cart [get]
func (c *CartController) Get(ctx *gin.Context) {
	user := middleware.GetCurrentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "未认证"})
		return
	}

	cart, err := c.cartService.Get(ctx.Request.Context(), user)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "", cart)
}

// AddItem 加购
// @Summary 加购，同一商品合并数量，库存按合并后总量校验
// @Tags Cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CartAddRequest true "商品与数量"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /cart/items [post]
func (c *CartController) AddItem(ctx *gin.Context) {
	user := middleware.GetCurrentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "未认证"})
		return
	}

	var req dto.CartAddRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := c.cartService.AddItem(ctx.Request.Context(), user, &req); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "已加入购物车", nil)
}

// UpdateItem 修改行项数量
// @Summary 修改行项数量，0 表示移除该行
// @Tags Cart
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "行项 ID"
// @Param request body dto.CartUpdateRequest true "数量"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Failure 409 {object} map[string]interface{}
// @Router /cart/items/{id} [put]
func (c *CartController) UpdateItem(ctx *gin.Context) {
	user := middleware.GetCurrentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "未认证"})
		return
	}

	id, err := parseID(ctx)
	if err != nil {
		respondBadRequest(ctx, err)
		return
	}

	var req dto.CartUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := c.cartService.UpdateItem(ctx.Request.Context(), user, id, *req.Quantity); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "购物车已更新", nil)
}

// RemoveItem 移除行项
// @Summary 移除购物车行项
// @Tags Cart
// @Produce json
// @Security BearerAuth
// @Param id path int true "行项 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /cart/items/{id} [delete]
func (c *CartController) RemoveItem(ctx *gin.Context) {
	user := middleware.GetCurrentUser(ctx)
	if user == nil {
		ctx.JSON(http.StatusUnauthorized, gin.H{"code": 401, "message": "未认证"})
		return
	}

	id, err := parseID(ctx)
	if err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := c.cartService.RemoveItem(ctx.Request.Context(), user, id); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "已从购物车移除", nil)
}
