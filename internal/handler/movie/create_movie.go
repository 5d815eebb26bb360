package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"papaya/internal/pkg/ctxutil"
	movieservice "papaya/internal/service/movie"
)

// CreateMovieRequest 创建影片请求
type CreateMovieRequest struct {
	Title          string `json:"title" binding:"required" example:"Neon Rain"` // 标题
	Genre          string `json:"genre" example:"noir"`                         // 类型（可选，剧本分析可回填）
	AspectRatio    string `json:"aspect_ratio" example:"16:9"`                  // 画幅比例（默认 16:9）
	TargetDuration int    `json:"target_duration" example:"60"`                 // 目标总时长（秒，0 表示不限制）
}

// CreateMovie 创建影片
// @Summary      创建影片
// @Description  创建一部新影片，后续通过剧本分析、镜头规划、逐镜头生成完成制作
// @Tags         影片管理
// @Accept       json
// @Produce      json
// @Param        request  body      CreateMovieRequest  true  "创建参数"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies [post]
func (h *Handler) CreateMovie(c *gin.Context) {
	var req CreateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	ctx := c.Request.Context()
	userID, _ := ctxutil.GetUserID(ctx)

	m, err := h.movieService.CreateMovie(ctx, &movieservice.CreateMovieInput{
		UserID:         userID,
		Title:          req.Title,
		Genre:          req.Genre,
		AspectRatio:    req.AspectRatio,
		TargetDuration: req.TargetDuration,
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data":    toMovieInfo(m),
	})
}
