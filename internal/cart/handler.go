package cart

import (
	"strconv"

	"GameStore/pkg/apperr"
	"GameStore/pkg/middleware"
	"GameStore/pkg/response"
	"GameStore/pkg/utils"

	"github.com/gin-gonic/gin"
)

type Handler struct {
	svc *Service
}

func NewHandler(svc *Service) *Handler {
	return &Handler{svc: svc}
}

// RegisterRoutes mounts the cart of the authenticated user on rg.
func RegisterRoutes(rg *gin.RouterGroup, h *Handler, j *utils.JWT) {
	g := rg.Group("", middleware.JWTAuthMiddleware(j))

	g.GET("", h.Get)
	g.DELETE("", h.Clear)
	g.POST("/items", h.AddItem)
	g.PUT("/items/:itemId", h.UpdateItem)
	g.DELETE("/items/:itemId", h.RemoveItem)
}

func parseItemID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("itemId"), 10, 64)
	if err != nil {
		_ = c.Error(apperr.InvalidID("cart item id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) Get(c *gin.Context) {
	v, err := h.svc.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Cart retrieved successfully", v)
}

func (h *Handler) AddItem(c *gin.Context) {
	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation(err))
		return
	}
	v, err := h.svc.AddItem(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Item added to cart", v)
}

func (h *Handler) UpdateItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}
	var req UpdateItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation(err))
		return
	}
	v, err := h.svc.UpdateItem(c.Request.Context(), middleware.GetUserID(c), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Cart item updated", v)
}

func (h *Handler) RemoveItem(c *gin.Context) {
	id, ok := parseItemID(c)
	if !ok {
		return
	}
	v, err := h.svc.RemoveItem(c.Request.Context(), middleware.GetUserID(c), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Item removed from cart", v)
}

func (h *Handler) Clear(c *gin.Context) {
	v, err := h.svc.Clear(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Cart cleared", v)
}
