package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yukikurage/project-management-api/internal/dto"
	apierrors "github.com/yukikurage/project-management-api/internal/errors"
	"github.com/yukikurage/project-management-api/internal/models"
	"github.com/yukikurage/project-management-api/internal/services"
	"github.com/yukikurage/project-management-api/internal/utils"
)

// UserHandler serves user administration endpoints.
type UserHandler struct {
	userService *services.UserService
}

func NewUserHandler(userService *services.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// CreateUser creates a user account
func (h *UserHandler) CreateUser(c *gin.Context) {
	var req createUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Create(c.Request.Context(), req.input())
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusCreated, dto.UserResponse{Message: "User created successfully.", User: dto.ToUserDTO(*user)})
}

// ListUsers returns users matching the name, email, role and isActive filters
func (h *UserHandler) ListUsers(c *gin.Context) {
	params, ok := pagination(c)
	if !ok {
		return
	}
	isActive, err := utils.OptionalBool(c, "isActive")
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	input := services.ListUsersInput{
		Name:     c.Query("name"),
		Email:    c.Query("email"),
		IsActive: isActive,
		Page:     params.Page,
		PageSize: params.Limit,
	}
	if role := c.Query("role"); role != "" {
		r := models.Role(role)
		input.Role = &r
	}

	users, total, err := h.userService.List(c.Request.Context(), input)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserListResponse(users, params.Page, params.Limit, total))
}

// GetUser returns a user by id
func (h *UserHandler) GetUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	user, err := h.userService.Get(c.Request.Context(), id)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.ToUserDTO(*user))
}

// UpdateUser changes the fields present in the body
func (h *UserHandler) UpdateUser(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	type UpdateUserRequest struct {
		Name       *string      `json:"name"`
		Email      *string      `json:"email"`
		Password   *string      `json:"password"`
		Role       *models.Role `json:"role"`
		HourlyRate *float64     `json:"hourlyRate"`
		IsActive   *bool        `json:"isActive"`
	}

	var req UpdateUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.Update(c.Request.Context(), id, services.UpdateUserInput{
		Name:       req.Name,
		Email:      req.Email,
		Password:   req.Password,
		Role:       req.Role,
		HourlyRate: req.HourlyRate,
		IsActive:   req.IsActive,
	})
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserResponse{Message: "User updated successfully.", User: dto.ToUserDTO(*user)})
}

// SetUserStatus activates or deactivates an account
func (h *UserHandler) SetUserStatus(c *gin.Context) {
	id, ok := pathID(c)
	if !ok {
		return
	}

	type StatusRequest struct {
		IsActive *bool `json:"isActive" binding:"required"`
	}

	var req StatusRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.userService.SetActive(c.Request.Context(), id, *req.IsActive)
	if err != nil {
		apierrors.Respond(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.UserResponse{Message: "User status updated successfully.", User: dto.ToUserDTO(*user)})
}
