package controller

import (
	"strconv"

	"github.com/gin-gonic/gin"

	"mall_dev_v1_202609/internal/api/dto"
	"mall_dev_v1_202609/internal/middleware"
	"mall_dev_v1_202609/internal/model"
	"mall_dev_v1_202609/internal/service"
)

// ==================== ProductController 商品控制器 ====================

// ProductController 公开列表 + 商家 CRUD
type ProductController struct {
	productService *service.ProductService
}

// NewProductController 创建商品控制器
func NewProductController(productService *service.ProductService) *ProductController {
	return &ProductController{productService: productService}
}

// ==================== 公开接口 ====================

// ListPublic 公开商品列表
// @Summary 公开商品列表，价格按请求者角色解析（VIP 拿批发价九折）
// @Tags Product
// @Produce json
// @Success 200 {array} dto.ProductView
// @Router /products [get]
func (c *ProductController) ListPublic(ctx *gin.Context) {
	// 未登录默认按普通买家价展示
	role := model.RoleNormalCustomer
	if r := middleware.GetUserRole(ctx); r != "" {
		role = model.Role(r)
	}

	products, err := c.productService.ListPublic(ctx.Request.Context(), role)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "", products)
}

// ==================== 商家接口 ====================

// VendorList 商家自己的商品
// @Summary 商家商品列表（含已下架）
// @Tags Vendor
// @Produce json
// @Security BearerAuth
// @Success 200 {array} dto.VendorProductView
// @Failure 403 {object} map[string]interface{}
// @Router /vendor/products [get]
func (c *ProductController) VendorList(ctx *gin.Context) {
	vendorID := middleware.GetUserID(ctx)
	products, err := c.productService.VendorList(ctx.Request.Context(), vendorID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "", products)
}

// VendorGet 商家查看单个商品
// @Summary 商家查看单个商品
// @Tags Vendor
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Success 200 {object} dto.VendorProductView
// @Failure 404 {object} map[string]interface{}
// @Router /vendor/products/{id} [get]
func (c *ProductController) VendorGet(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondBadRequest(ctx, err)
		return
	}

	product, err := c.productService.VendorGet(ctx.Request.Context(), middleware.GetUserID(ctx), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "", product)
}

// VendorCreate 商家创建商品
// @Summary 商家创建商品（批发价必须低于零售价）
// @Tags Vendor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.ProductCreateRequest true "商品信息"
// @Success 201 {object} dto.VendorProductView
// @Failure 400 {object} map[string]interface{}
// @Router /vendor/products [post]
func (c *ProductController) VendorCreate(ctx *gin.Context) {
	var req dto.ProductCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	product, err := c.productService.VendorCreate(ctx.Request.Context(), middleware.GetUserID(ctx), &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondCreated(ctx, "商品创建成功", product)
}

// VendorUpdate 商家更新商品
// @Summary 商家更新商品
// @Tags Vendor
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Param request body dto.ProductUpdateRequest true "商品信息"
// @Success 200 {object} dto.VendorProductView
// @Failure 404 {object} map[string]interface{}
// @Router /vendor/products/{id} [put]
func (c *ProductController) VendorUpdate(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondBadRequest(ctx, err)
		return
	}

	var req dto.ProductUpdateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		respondBadRequest(ctx, err)
		return
	}

	product, err := c.productService.VendorUpdate(ctx.Request.Context(), middleware.GetUserID(ctx), id, &req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "商品更新成功", product)
}

// VendorDeactivate 商家下架商品
// @Summary 商家下架商品（软删除，保留购物车引用）
// @Tags Vendor
// @Produce json
// @Security BearerAuth
// @Param id path int true "商品 ID"
// @Success 200 {object} map[string]interface{}
// @Failure 404 {object} map[string]interface{}
// @Router /vendor/products/{id} [delete]
func (c *ProductController) VendorDeactivate(ctx *gin.Context) {
	id, err := parseID(ctx)
	if err != nil {
		respondBadRequest(ctx, err)
		return
	}

	if err := c.productService.VendorDeactivate(ctx.Request.Context(), middleware.GetUserID(ctx), id); err != nil {
		respondError(ctx, err)
		return
	}
	respondOK(ctx, "商品已下架", nil)
}

func parseID(ctx *gin.Context) (int64, error) {
	return strconv.ParseInt(ctx.Param("id"), 10, 64)
}
