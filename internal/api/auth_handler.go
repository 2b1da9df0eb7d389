package api

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wfunc/table-game/internal/config"
	"github.com/wfunc/table-game/internal/middleware"
	"github.com/wfunc/table-game/internal/models"
	"github.com/wfunc/table-game/internal/repository"
	"github.com/wfunc/table-game/internal/utils"
)

// AuthHandler 认证处理器
type AuthHandler struct {
	users      repository.UserRepository
	jwtManager *utils.JWTManager
	cfg        *config.GameConfig
	log        *zap.Logger
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(users repository.UserRepository, jwtManager *utils.JWTManager, cfg *config.GameConfig, log *zap.Logger) *AuthHandler {
	return &AuthHandler{
		users:      users,
		jwtManager: jwtManager,
		cfg:        cfg,
		log:        log,
	}
}

// RegisterRequest 注册请求
type RegisterRequest struct {
	Phone       string `json:"phone" binding:"required,min=8,max=20"`
	Password    string `json:"password" binding:"required,min=6"`
	DisplayName string `json:"display_name"`
	DateOfBirth string `json:"date_of_birth"`
	Country     string `json:"country"`
}

// LoginRequest 登录请求
type LoginRequest struct {
	Phone    string `json:"phone" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse 认证响应
type AuthResponse struct {
	UserID       uint   `json:"user_id"`
	DisplayName  string `json:"display_name"`
	Balance      int64  `json:"balance"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// Register 用户注册，赠送初始余额
func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "请求参数错误",
			Details: err.Error(),
		})
		return
	}

	req.Phone = strings.TrimSpace(req.Phone)
	exists, err := h.users.ExistsByPhone(c.Request.Context(), req.Phone)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "REGISTER_FAILED",
			Message: "注册失败",
		})
		return
	}
	if exists {
		c.JSON(http.StatusConflict, ErrorResponse{
			Code:    "PHONE_TAKEN",
			Message: "手机号已注册",
		})
		return
	}

	hashed, err := utils.HashPassword(req.Password)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "REGISTER_FAILED",
			Message: "注册失败",
		})
		return
	}

	user := &models.User{
		Phone:       req.Phone,
		Password:    hashed,
		DisplayName: req.DisplayName,
		DateOfBirth: req.DateOfBirth,
		Country:     req.Country,
		Balance:     h.cfg.StartingBalance,
	}
	if err := h.users.Create(c.Request.Context(), user); err != nil {
		h.log.Error("创建用户失败", zap.String("phone", req.Phone), zap.Error(err))
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "REGISTER_FAILED",
			Message: "注册失败",
		})
		return
	}

	h.log.Info("用户注册成功", zap.Uint("user_id", user.ID), zap.String("phone", user.Phone))
	h.issueTokens(c, user)
}

// Login 用户登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "请求参数错误",
			Details: err.Error(),
		})
		return
	}

	user, err := h.users.FindByPhone(c.Request.Context(), strings.TrimSpace(req.Phone))
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "LOGIN_FAILED",
			Message: "手机号或密码错误",
		})
		return
	}

	ok, err := utils.VerifyPassword(req.Password, user.Password)
	if err != nil || !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "LOGIN_FAILED",
			Message: "手机号或密码错误",
		})
		return
	}

	if !user.IsActive() {
		c.JSON(http.StatusForbidden, ErrorResponse{
			Code:    "ACCOUNT_DEACTIVATED",
			Message: "账号已停用",
		})
		return
	}

	if err := h.users.UpdateLastLogin(c.Request.Context(), user.ID); err != nil {
		h.log.Warn("更新登录时间失败", zap.Uint("user_id", user.ID), zap.Error(err))
	}

	h.issueTokens(c, user)
}

// RefreshTokenRequest 刷新令牌请求
type RefreshTokenRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// RefreshToken 用刷新令牌换取新的访问令牌
func (h *AuthHandler) RefreshToken(c *gin.Context) {
	var req RefreshTokenRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    "INVALID_REQUEST",
			Message: "请求参数错误",
			Details: err.Error(),
		})
		return
	}

	claims, err := h.jwtManager.ValidateToken(req.RefreshToken)
	if err != nil || claims.TokenType != "refresh" {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "REFRESH_FAILED",
			Message: "无效的刷新令牌",
		})
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), claims.UserID)
	if err != nil || !user.IsActive() {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "REFRESH_FAILED",
			Message: "无效的刷新令牌",
		})
		return
	}

	accessToken, err := h.jwtManager.RefreshAccessToken(req.RefreshToken, user.Phone)
	if err != nil {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "REFRESH_FAILED",
			Message: "无效的刷新令牌",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"access_token": accessToken})
}

// Me 获取当前用户资料
func (h *AuthHandler) Me(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "未登录",
		})
		return
	}

	user, err := h.users.FindByID(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    "USER_NOT_FOUND",
			Message: "用户不存在",
		})
		return
	}

	c.JSON(http.StatusOK, user)
}

func (h *AuthHandler) issueTokens(c *gin.Context, user *models.User) {
	sessionID, err := utils.GenerateSessionID()
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "TOKEN_FAILED",
			Message: "生成令牌失败",
		})
		return
	}

	accessToken, err := h.jwtManager.GenerateAccessToken(user.ID, user.Phone, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "TOKEN_FAILED",
			Message: "生成令牌失败",
		})
		return
	}
	refreshToken, err := h.jwtManager.GenerateRefreshToken(user.ID, sessionID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "TOKEN_FAILED",
			Message: "生成令牌失败",
		})
		return
	}

	c.JSON(http.StatusOK, AuthResponse{
		UserID:       user.ID,
		DisplayName:  user.DisplayName,
		Balance:      user.Balance,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	})
}

// ErrorResponse 错误响应
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details string `json:"details,omitempty"`
}
