package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// GetTakes 获取镜头的生成产物列表
// @Summary      获取镜头产物列表
// @Description  按创建时间倒序获取镜头的全部生成产物（含非 hero）
// @Tags         镜头生成
// @Produce      json
// @Param        shot_id  path      string  true  "镜头ID"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/shots/{shot_id}/takes [get]
func (h *Handler) GetTakes(c *gin.Context) {
	shotID := c.Param("shot_id")
	if shotID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "shot_id is required",
		})
		return
	}

	takes, err := h.movieService.GetTakes(c.Request.Context(), shotID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: err.Error(),
		})
		return
	}

	infos := make([]TakeInfo, 0, len(takes))
	for _, take := range takes {
		infos = append(infos, toTakeInfo(take))
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"shot_id": shotID,
			"takes":   infos,
			"count":   len(infos),
		},
	})
}

// SelectHeroTakeRequest 选择 hero take 请求
type SelectHeroTakeRequest struct {
	TakeID string `json:"take_id" binding:"required"` // 要设为 hero 的产物ID
}

// SelectHeroTake 手动选择镜头的 hero take
// @Summary      选择 hero take
// @Description  把指定产物设为镜头的成片；尾帧与下一镜头的续接帧随之失效
// @Tags         镜头生成
// @Accept       json
// @Produce      json
// @Param        shot_id  path      string                 true  "镜头ID"
// @Param        request  body      SelectHeroTakeRequest  true  "产物ID"
// @Success      200      {object}  map[string]interface{}  "成功响应"
// @Failure      400      {object}  ErrorResponse  "请求参数错误"
// @Failure      500      {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/shots/{shot_id}/hero [put]
func (h *Handler) SelectHeroTake(c *gin.Context) {
	shotID := c.Param("shot_id")
	if shotID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "shot_id is required",
		})
		return
	}

	var req SelectHeroTakeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	if err := h.movieService.SelectHeroTake(c.Request.Context(), shotID, req.TakeID); err != nil {
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
