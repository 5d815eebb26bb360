package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"

	movieservice "papaya/internal/service/movie"
)

// CreateScenePackRequest 创建场景元素包请求
type CreateScenePackRequest struct {
	SceneIndex  int      `json:"scene_index" example:"0"`                       // 场景下标
	Description string   `json:"description" example:"rain-streaked detective office"` // 环境描述
	Images      []string `json:"images" binding:"required"`                     // 参考图URL列表
}

// CreateScenePack 为场景创建元素包
// @Summary      创建场景元素包
// @Description  把一组参考图绑定为命名场景元素，跨镜头锁定场景的视觉环境
// @Tags         场景元素
// @Accept       json
// @Produce      json
// @Param        movie_id  path      string                  true  "影片ID"
// @Param        request   body      CreateScenePackRequest  true  "元素包参数"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/scene-packs [post]
func (h *Handler) CreateScenePack(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	var req CreateScenePackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	pack, err := h.movieService.CreateScenePack(c.Request.Context(), &movieservice.CreateScenePackInput{
		MovieID:     movieID,
		SceneIndex:  req.SceneIndex,
		Description: req.Description,
		Images:      req.Images,
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
		"data":    pack,
	})
}

// GetScenePacks 获取影片的场景元素包列表
// @Summary      获取场景元素包列表
// @Tags         场景元素
// @Produce      json
// @Param        movie_id  path      string  true  "影片ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/scene-packs [get]
func (h *Handler) GetScenePacks(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	packs, err := h.movieService.GetScenePacks(c.Request.Context(), movieID)
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
			"scene_packs": packs,
			"count":       len(packs),
		},
	})
}
