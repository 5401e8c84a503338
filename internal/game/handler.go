package game

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

// RegisterRoutes mounts the catalog on rg. Reads are public, writes need an admin token.
func RegisterRoutes(rg *gin.RouterGroup, h *Handler, j *utils.JWT) {
	admin := []gin.HandlerFunc{middleware.JWTAuthMiddleware(j), middleware.RequireRole("admin")}

	rg.GET("", h.List)
	rg.GET("/:id", h.Get)
	rg.POST("", append(admin, h.Create)...)
	rg.PUT("/:id", append(admin, h.Update)...)
	rg.DELETE("/:id", append(admin, h.Delete)...)
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperr.InvalidID("game id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) List(c *gin.Context) {
	var q ListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		_ = c.Error(apperr.Validation(err))
		return
	}
	res, err := h.svc.List(c.Request.Context(), q)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Games retrieved successfully", res)
}

func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	g, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Game retrieved successfully", g)
}

func (h *Handler) Create(c *gin.Context) {
	var req CreateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation(err))
		return
	}
	g, err := h.svc.Create(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplyCreated(c, "Game created successfully", g)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req UpdateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		_ = c.Error(apperr.Validation(err))
		return
	}
	g, err := h.svc.Update(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Game updated successfully", g)
}

func (h *Handler) Delete(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if err := h.svc.Delete(c.Request.Context(), id); err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccess(c, "Game deleted successfully")
}
