package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"

	movie "papaya/internal/model/movie"
	movieservice "papaya/internal/service/movie"
)

// GenerateMovieRequest 整片生成请求
type GenerateMovieRequest struct {
	Quality       string `json:"quality" example:"std"` // 质量档位：std / pro（默认 std）
	GenerateAudio bool   `json:"generate_audio"`        // 是否生成原生音频（含对白）
}

// GenerateMovie 顺序生成影片的全部未完成镜头
// @Summary      整片生成
// @Description  按全局顺序串行生成未完成镜头；已完成的跳过，失败立即停止，可暂停
// @Tags         影片生成
// @Accept       json
// @Produce      json
// @Param        movie_id  path      string                true   "影片ID"
// @Param        request   body      GenerateMovieRequest  false  "生成选项"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/generate [post]
func (h *Handler) GenerateMovie(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	var req GenerateMovieRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	result, err := h.movieService.GenerateMovie(c.Request.Context(), movieID, &movieservice.GenerateOptions{
		Quality:       movie.Quality(req.Quality),
		GenerateAudio: req.GenerateAudio,
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

// PauseGeneration 暂停整片生成
// @Summary      暂停整片生成
// @Description  设置暂停标记；生成中的镜头照常跑完，下一镜头开始前生效
// @Tags         影片生成
// @Produce      json
// @Param        movie_id  path      string  true  "影片ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/pause [post]
func (h *Handler) PauseGeneration(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	if err := h.movieService.PauseGeneration(c.Request.Context(), movieID); err != nil {
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

// ResumeGeneration 恢复整片生成
// @Summary      恢复整片生成
// @Description  清除暂停标记；重新调用整片生成接口继续剩余镜头
// @Tags         影片生成
// @Produce      json
// @Param        movie_id  path      string  true  "影片ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/resume [post]
func (h *Handler) ResumeGeneration(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	if err := h.movieService.ResumeGeneration(c.Request.Context(), movieID); err != nil {
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
