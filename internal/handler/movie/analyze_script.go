package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AnalyzeScriptRequest 剧本分析请求
type AnalyzeScriptRequest struct {
	Script string `json:"script" binding:"required"` // 故事全文（自由文本）
}

// AnalyzeScript 分析故事文本
// @Summary      分析故事文本
// @Description  调用 LLM 把自由文本解析为场景/节拍结构，并生成贯穿全片的风格圣经
// @Tags         剧本分析
// @Accept       json
// @Produce      json
// @Param        movie_id  path      string                true  "影片ID"
// @Param        request   body      AnalyzeScriptRequest  true  "剧本内容"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/analyze [post]
func (h *Handler) AnalyzeScript(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	var req AnalyzeScriptRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	analysis, err := h.movieService.AnalyzeScript(c.Request.Context(), movieID, req.Script)
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
		"data":    analysis,
	})
}

// EstimateDuration 估计故事自然时长
// @Summary      估计故事时长
// @Description  逐节拍估计故事的自然时长，并为目标时长打 0-100 匹配分；纯咨询接口，不修改规划
// @Tags         剧本分析
// @Produce      json
// @Param        movie_id         path      string  true   "影片ID"
// @Param        target_duration  query     int     false  "候选目标时长（秒，缺省用影片设置）"
// @Success      200              {object}  map[string]interface{}  "成功响应"
// @Failure      400              {object}  ErrorResponse  "请求参数错误"
// @Failure      500              {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/duration-estimate [get]
func (h *Handler) EstimateDuration(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	var query struct {
		TargetDuration int `form:"target_duration"`
	}
	if err := c.ShouldBindQuery(&query); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "invalid query parameters",
			Detail:  err.Error(),
		})
		return
	}

	analysis, err := h.movieService.EstimateDuration(c.Request.Context(), movieID, query.TargetDuration)
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
		"data":    analysis,
	})
}
