package movie

import (
	"net/http"

	"github.com/gin-gonic/gin"

	movieservice "papaya/internal/service/movie"
)

// AddCharacterRequest 添加角色请求
type AddCharacterRequest struct {
	Name              string   `json:"name" binding:"required" example:"Vera"`            // 角色姓名
	Role              string   `json:"role" example:"protagonist"`                        // 角色定位
	VisualDescription string   `json:"visual_description" example:"a detective in a gray trench coat"` // 外观描述
	ReferenceImages   []string `json:"reference_images"`                                  // 参考图URL列表（0-N）
	VoiceProfile      string   `json:"voice_profile" example:"husky voice"`               // 音色描述
}

// AddCharacter 为影片添加角色
// @Summary      添加角色
// @Description  为影片添加角色；参考图满 2 张时角色可作为生成元素绑定
// @Tags         角色管理
// @Accept       json
// @Produce      json
// @Param        movie_id  path      string               true  "影片ID"
// @Param        request   body      AddCharacterRequest  true  "角色参数"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/characters [post]
func (h *Handler) AddCharacter(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	var req AddCharacterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "invalid request body",
			Detail:  err.Error(),
		})
		return
	}

	character, err := h.movieService.AddCharacter(c.Request.Context(), &movieservice.AddCharacterInput{
		MovieID:           movieID,
		Name:              req.Name,
		Role:              req.Role,
		VisualDescription: req.VisualDescription,
		ReferenceImages:   req.ReferenceImages,
		VoiceProfile:      req.VoiceProfile,
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
		"data":    toCharacterInfo(character),
	})
}

// GetCharacters 获取影片的角色列表
// @Summary      获取角色列表
// @Tags         角色管理
// @Produce      json
// @Param        movie_id  path      string  true  "影片ID"
// @Success      200       {object}  map[string]interface{}  "成功响应"
// @Failure      400       {object}  ErrorResponse  "请求参数错误"
// @Failure      500       {object}  ErrorResponse  "服务器内部错误"
// @Security     BearerAuth
// @Router       /api/v1/movies/{movie_id}/characters [get]
func (h *Handler) GetCharacters(c *gin.Context) {
	movieID := c.Param("movie_id")
	if movieID == "" {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Code:    40001,
			Message: "movie_id is required",
		})
		return
	}

	characters, err := h.movieService.GetCharacters(c.Request.Context(), movieID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{
			Code:    50001,
			Message: err.Error(),
		})
		return
	}

	infos := make([]CharacterInfo, 0, len(characters))
	for _, character := range characters {
		infos = append(infos, toCharacterInfo(character))
	}

	c.JSON(http.StatusOK, gin.H{
		"code":    0,
		"message": "success",
		"data": gin.H{
			"characters": infos,
			"count":      len(infos),
		},
	})
}
