package controllers

import (
	"net/http"

	"github.com/elimishatrust/studyloan/internal/app/models/dto"
	"github.com/elimishatrust/studyloan/internal/app/services"
	"github.com/elimishatrust/studyloan/internal/middleware"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
)

// UserController handles user-related operations
type UserController struct {
	userService services.UserService
	logger      zerolog.Logger
}

// NewUserController creates a new user controller
func NewUserController(userService services.UserService, logger zerolog.Logger) *UserController {
	return &UserController{
		userService: userService,
		logger:      logger,
	}
}

// GetProfile returns the authenticated user
// @Summary Get the current user
// @Tags users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserResponse}
// @Router /users/me [get]
func (c *UserController) GetProfile(ctx *gin.Context) {
	user, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(dto.NewUserResponse(user)))
}

// CreateStaff creates a verified staff account
// @Summary Create a staff account
// @Tags admin
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body dto.CreateStaffRequest true "Staff credentials"
// @Success 201 {object} dto.APIResponse{data=dto.StaffResponse}
// @Failure 403 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Failure 409 {object} dto.APIResponse{error=dto.ErrorDetail}
// @Router /admin/create-staff [post]
func (c *UserController) CreateStaff(ctx *gin.Context) {
	admin, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	var req dto.CreateStaffRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		middleware.HandleBindingError(ctx, err)
		return
	}

	resp, err := c.userService.CreateStaff(ctx.Request.Context(), admin, &req)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}

	c.logger.Info().Int64("adminID", admin.ID).Int64("userID", resp.ID).Msg("Staff account created")
	ctx.JSON(http.StatusCreated, dto.NewSuccessResponse(resp))
}

// ListUsers returns every account
// @Summary List users
// @Tags admin
// @Produce json
// @Security BearerAuth
// @Success 200 {object} dto.APIResponse{data=dto.UserListResponse}
// @Router /admin/users [get]
func (c *UserController) ListUsers(ctx *gin.Context) {
	admin, ok := middleware.MustCurrentUser(ctx)
	if !ok {
		return
	}

	resp, err := c.userService.ListUsers(ctx.Request.Context(), admin)
	if err != nil {
		middleware.HandleAPIError(ctx, err)
		return
	}
	ctx.JSON(http.StatusOK, dto.NewSuccessResponse(resp))
}
