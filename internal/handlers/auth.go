package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ivaaanrm/PaceUp/internal/requestdata"
	"github.com/ivaaanrm/PaceUp/internal/repos"
	"github.com/ivaaanrm/PaceUp/internal/services"
	"github.com/ivaaanrm/PaceUp/internal/types"
)

type AuthHandler struct {
	authService services.AuthService
	userRepo    repos.UserRepo
}

func NewAuthHandler(authService services.AuthService, userRepo repos.UserRepo) *AuthHandler {
	return &AuthHandler{authService: authService, userRepo: userRepo}
}

func (ah *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email     string `json:"email" binding:"required,email"`
		FirstName string `json:"first_name"`
		LastName  string `json:"last_name"`
		Password  string `json:"password" binding:"required,min=8"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	user := types.User{
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Password:  req.Password,
	}
	created, err := ah.authService.RegisterUser(c.Request.Context(), &user)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, created)
}

func (ah *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}
	accessToken, user, err := ah.authService.LoginUser(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		HandleError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": accessToken,
		"token_type":   "bearer",
		"expires_in":   int(ah.authService.GetAccessTTL().Seconds()),
		"user":         user,
	})
}

func (ah *AuthHandler) Me(c *gin.Context) {
	rd := requestdata.GetRequestData(c.Request.Context())
	if rd == nil {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
		return
	}
	user, err := ah.userRepo.GetByID(c.Request.Context(), nil, rd.UserID)
	if err != nil {
		HandleError(c, err)
		return
	}
	if user == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "user not found"})
		return
	}
	RespondOK(c, user)
}
