package user

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

// RegisterAuthRoutes mounts the account flows served under /api/v1/auth.
func RegisterAuthRoutes(rg *gin.RouterGroup, h *Handler, j *utils.JWT) {
	auth := middleware.JWTAuthMiddleware(j)

	rg.POST("/register", h.Register)
	rg.POST("/login", h.Login)
	rg.POST("/refresh", h.Refresh)
	rg.POST("/forgot-password", h.ForgotPassword)
	rg.POST("/reset-password", h.ResetPassword)
	rg.POST("/logout", auth, h.Logout)
	rg.PUT("/change-password", auth, h.ChangePassword)
}

// RegisterUserRoutes mounts profile and user management served under /api/v1/users.
func RegisterUserRoutes(rg *gin.RouterGroup, h *Handler, j *utils.JWT) {
	auth := middleware.JWTAuthMiddleware(j)
	admin := middleware.RequireRole(RoleAdmin)

	rg.GET("/me", auth, h.Me)
	rg.PUT("/me", auth, h.UpdateMe)
	rg.DELETE("/me", auth, h.DeleteMe)

	rg.GET("", auth, admin, h.List)
	rg.GET("/:id", auth, h.Get)
	rg.PUT("/:id", auth, admin, h.Update)
	rg.DELETE("/:id", auth, admin, h.Delete)
}

func bind(c *gin.Context, req interface{}) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		_ = c.Error(apperr.Validation(err))
		return false
	}
	return true
}

func parseID(c *gin.Context) (int64, bool) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		_ = c.Error(apperr.InvalidID("user id"))
		return 0, false
	}
	return id, true
}

func (h *Handler) Register(c *gin.Context) {
	var req RegisterRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.Register(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplyCreated(c, "User registered successfully", res)
}

func (h *Handler) Login(c *gin.Context) {
	var req LoginRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Login successful", res)
}

func (h *Handler) Refresh(c *gin.Context) {
	var req RefreshRequest
	if !bind(c, &req) {
		return
	}
	res, err := h.svc.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Token refreshed successfully", res)
}

func (h *Handler) Logout(c *gin.Context) {
	if err := h.svc.Logout(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccess(c, "Logout successful")
}

func (h *Handler) ForgotPassword(c *gin.Context) {
	var req ForgotPasswordRequest
	if !bind(c, &req) {
		return
	}
	token, err := h.svc.ForgotPassword(c.Request.Context(), req.Email)
	if err != nil {
		_ = c.Error(err)
		return
	}
	const msg = "If the email exists, a password reset link has been sent"
	if token == "" {
		response.ReplySuccess(c, msg)
		return
	}
	response.ReplySuccessWithData(c, msg, gin.H{"resetToken": token})
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req ResetPasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.svc.ResetPassword(c.Request.Context(), req); err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccess(c, "Password reset successful")
}

func (h *Handler) ChangePassword(c *gin.Context) {
	var req ChangePasswordRequest
	if !bind(c, &req) {
		return
	}
	if err := h.svc.ChangePassword(c.Request.Context(), middleware.GetUserID(c), req); err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccess(c, "Password changed successfully")
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.svc.Get(c.Request.Context(), middleware.GetUserID(c))
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Profile retrieved successfully", u)
}

func (h *Handler) UpdateMe(c *gin.Context) {
	var req UpdateProfileRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.svc.UpdateProfile(c.Request.Context(), middleware.GetUserID(c), req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "Profile updated successfully", u)
}

func (h *Handler) DeleteMe(c *gin.Context) {
	if err := h.svc.Delete(c.Request.Context(), middleware.GetUserID(c)); err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccess(c, "Account deleted successfully")
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
	response.ReplySuccessWithData(c, "Users retrieved successfully", res)
}

// Get is open to admins and to the user reading their own record.
func (h *Handler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	if id != middleware.GetUserID(c) && middleware.GetRole(c) != RoleAdmin {
		_ = c.Error(ErrNotAllowed)
		return
	}
	u, err := h.svc.Get(c.Request.Context(), id)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "User retrieved successfully", u)
}

func (h *Handler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}
	var req AdminUpdateRequest
	if !bind(c, &req) {
		return
	}
	u, err := h.svc.AdminUpdate(c.Request.Context(), id, req)
	if err != nil {
		_ = c.Error(err)
		return
	}
	response.ReplySuccessWithData(c, "User updated successfully", u)
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
	response.ReplySuccess(c, "User deleted successfully")
}
