package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"

	movie "papaya/internal/model/movie"
	movieservice "papaya/internal/service/movie"
)

// GenerateShotRequest 单镜头生成请求
type GenerateShotRequest struct {
	Quality       string `json:"quality" example:"std"` // 质量档位：std / pro（默认 std）
	GenerateAudio bool   `json:"generate_audio"`        // 是否生成原生音频（含对白）
	// ExtraReferenceImages 本次请求追加的角色参考图（角色ID → URL 列表），只影响本次元素绑定
	ExtraReferenceImages map[string][]string `json:"extra_reference_images"`
}

// GenerateShot 为单个镜头生成视频
// @Summary      生成镜头视频
// @Description  同步调用生成服务商并等待完成；自动解析续接起始帧与元素绑定
// @Tags         镜头生成
// @Accept       json
// @Produce      json
// @Param        shot_id  path      string               true   "镜头ID"
// @Param        request  body      GenerateShotRequest  false  "生成选项"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/shots/{shot_id}/generate [post]
func (h *Handler) GenerateShot(c *gin.Context) {
	shotID := c.Param("shot_id")
	if shotID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "shot_id is required",
		})
		return
	}

	var req GenerateShotRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result, err := h.movieService.GenerateShot(c.Request.Context(), shotID, &movieservice.GenerateOptions{
		Quality:              movie.Quality(req.Quality),
		GenerateAudio:        req.GenerateAudio,
		ExtraReferenceImages: req.ExtraReferenceImages,
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
		"data":    result,
	})
}

// CancelShot 取消生成中的镜头
// @Summary      取消镜头生成
// @Description  把生成中的镜头重置回 planned；已到达的产物保留但不标 hero
// @Tags         镜头生成
// @Produce      json
// @Param        shot_id  path      string  true  "镜头ID"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/shots/{shot_id}/cancel [post]
func (h *Handler) CancelShot(c *gin.Context) {
	shotID := c.Param("shot_id")
	if shotID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "shot_id is required",
		})
		return
	}

	if err := h.movieService.CancelShot(c.Request.Context(), shotID); err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
	})
}
