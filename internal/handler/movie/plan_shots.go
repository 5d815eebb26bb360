package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// PlanShots 规划影片镜头
// @Summary      规划镜头
// @Description  按剧本分析逐节拍规划镜头（运镜、景别、时长、光线、prompt）；覆盖旧规划
// @Tags         镜头规划
// @Produce      json
// @Param        movie_id  path      string  true  "影片ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/plan [post]
func (h *Handler) PlanShots(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	shots, err := h.movieService.PlanShots(c.Request.Context(), movieID)
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
			"shots": toShotInfoList(shots),
			"count": len(shots),
		},
	})
}

// GetShots 获取影片的镜头列表
// @Summary      获取镜头列表
// @Description  按全局顺序获取影片的全部镜头
// @Tags         镜头规划
// @Produce      json
// @Param        movie_id  path      string  true  "影片ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/shots [get]
func (h *Handler) GetShots(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	shots, err := h.movieService.GetShots(c.Request.Context(), movieID)
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
			"shots": toShotInfoList(shots),
			"count": len(shots),
		},
	})
}
