package movie

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"papaya/internal/pkg/ctxutil"
)

// GetMovie 获取影片详情
// @Summary      获取影片详情
// @Description  获取影片信息，包含剧本分析与风格圣经
// @Tags         影片管理
// @Produce      json
// @Param        movie_id  path      string  true  "影片ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      404       {object}  ErrorResponse  "影片不存在"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id} [get]
func (h *Handler) GetMovie(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	ctx := c.Request.Context()
	m, err := h.movieService.GetMovie(ctx, movieID)
	if err != nil {
		c.JSON(http.StatusNotFound, ErrorResponse{
			Code:    40401,
			Message: err.Error(),
		})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"movie":                  toMovieInfo(m),
			"script_analysis":        m.ScriptAnalysis,
			"style_bible":            m.StyleBible,
			"scene_reference_frames": m.SceneReferenceFrames,
		},
	})
}

// ListMovies 获取当前用户的影片列表
// @Summary      获取影片列表
// @Description  分页获取当前用户的影片
// @Tags         影片管理
// @Produce      json
// @Param        page       query     int  false  "页码（默认 1）"
// @Param        page_size  query     int  false  "每页数量（默认 20）"
// @Success      200        {object}  map[string]interface{}  "成功响应"
// @Failure      500        {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies [get]
func (h *Handler) ListMovies(c *gin.Context) {
	ctx := c.Request.Context()
	userID, _ := ctxutil.GetUserID(ctx)

	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	pageSize, _ := strconv.Atoi(c.DefaultQuery("page_size", "20"))

	movies, total, err := h.movieService.ListMovies(ctx, userID, page, pageSize)
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
		"data": gin.H{
			"movies":    toMovieInfoList(movies),
			"total":     total,
			"page":      page,
			"page_size": pageSize,
		},
	})
}

// DeleteMovie 删除影片
// @Summary      删除影片
// @Description  删除影片并清理其全部镜头
// @Tags         影片管理
// @Produce      json
// @Param        movie_id  path      string  true  "影片ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id} [delete]
func (h *Handler) DeleteMovie(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	if err := h.movieService.DeleteMovie(c.Request.Context(), movieID); err != nil {
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
