package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/wfunc/table-game/internal/middleware"
	"github.com/wfunc/table-game/internal/repository"
)

// RoomHandler 房间与战绩查询处理器
type RoomHandler struct {
	rooms   repository.RoomRepository
	users   repository.UserRepository
	history repository.HistoryRepository
	log     *zap.Logger
}

// NewRoomHandler 创建房间处理器
func NewRoomHandler(rooms repository.RoomRepository, users repository.UserRepository, history repository.HistoryRepository, log *zap.Logger) *RoomHandler {
	return &RoomHandler{
		rooms:   rooms,
		users:   users,
		history: history,
		log:     log,
	}
}

// ListRooms 列出可加入的房间
func (h *RoomHandler) ListRooms(c *gin.Context) {
	rooms, err := h.rooms.ListAvailable(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "LIST_FAILED",
			Message: "获取房间列表失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"rooms": rooms})
}

// Balance 查询当前余额
func (h *RoomHandler) Balance(c *gin.Context) {
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

	c.JSON(http.StatusOK, gin.H{"balance": user.Balance})
}

// Stats 查询当前用户战绩
func (h *RoomHandler) Stats(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{
			Code:    "UNAUTHORIZED",
			Message: "未登录",
		})
		return
	}

	stats, err := h.history.PlayerStats(c.Request.Context(), userID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "STATS_FAILED",
			Message: "获取战绩失败",
		})
		return
	}

	c.JSON(http.StatusOK, stats)
}

// History 最近对局历史，分页返回
func (h *RoomHandler) History(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "10"))
	p := repository.NewPagination(page, pageSize)

	records, err := h.history.ListRecent(c.Request.Context(), p)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "HISTORY_FAILED",
			Message: "获取对局历史失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"history":    records,
		"pagination": p,
	})
}

// Leaderboard 按总赢额排行
func (h *RoomHandler) Leaderboard(c *gin.Context) {
	limit := 10
	if raw := c.Query("limit"); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	entries, err := h.history.Leaderboard(c.Request.Context(), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    "LEADERBOARD_FAILED",
			Message: "获取排行榜失败",
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{"leaderboard": entries})
}
