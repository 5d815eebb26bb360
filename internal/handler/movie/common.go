package movie

import (
	"time"

	"papaya/internal/model/movie"
	httputil "papaya/internal/pkg/http"
)

// ErrorResponse 错误响应类型别名（使用共用的 http.ErrorResponse）
type ErrorResponse = httputil.ErrorResponse

// MovieInfo 影片信息 DTO
type MovieInfo struct {
	ID             string `json:"id"`              // 影片ID
	UserID         string `json:"user_id"`         // 用户ID
	Title          string `json:"title"`           // 标题
	Genre          string `json:"genre,omitempty"` // 类型
	AspectRatio    string `json:"aspect_ratio"`    // 画幅比例
	TargetDuration int    `json:"target_duration"` // 目标总时长（秒）
	HasAnalysis    bool   `json:"has_analysis"`    // 是否已完成剧本分析
	HasStyleBible  bool   `json:"has_style_bible"` // 是否已生成风格圣经
	Status         string `json:"status"`          // 状态
	CreatedAt      string `json:"created_at"`      // 创建时间
	UpdatedAt      string `json:"updated_at"`      // 更新时间
}

// toMovieInfo 将 Movie 实体转换为 MovieInfo DTO
func toMovieInfo(m *movie.Movie) MovieInfo {
	return MovieInfo{
		ID:             m.ID,
		UserID:         m.UserID,
		Title:          m.Title,
		Genre:          m.Genre,
		AspectRatio:    m.AspectRatio,
		TargetDuration: m.TargetDuration,
		HasAnalysis:    m.ScriptAnalysis != nil,
		HasStyleBible:  m.StyleBible != nil,
		Status:         string(m.Status),
		CreatedAt:      m.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      m.UpdatedAt.Format(time.RFC3339),
	}
}

// toMovieInfoList 将 Movie 列表转换为 MovieInfo 列表
func toMovieInfoList(movies []*movie.Movie) []MovieInfo {
	result := make([]MovieInfo, len(movies))
	for i, m := range movies {
		result[i] = toMovieInfo(m)
	}
	return result
}

// CharacterInfo 角色信息 DTO
type CharacterInfo struct {
	ID                    string   `json:"id"`
	MovieID               string   `json:"movie_id"`
	Name                  string   `json:"name"`
	Role                  string   `json:"role,omitempty"`
	VisualDescription     string   `json:"visual_description"`
	ReferenceImages       []string `json:"reference_images,omitempty"`
	GeneratedReferenceURL string   `json:"generated_reference_url,omitempty"`
	VoiceProfile          string   `json:"voice_profile,omitempty"`
	CreatedAt             string   `json:"created_at"`
}

func toCharacterInfo(c *movie.Character) CharacterInfo {
	return CharacterInfo{
		ID:                    c.ID,
		MovieID:               c.MovieID,
		Name:                  c.Name,
		Role:                  c.Role,
		VisualDescription:     c.VisualDescription,
		ReferenceImages:       c.ReferenceImages,
		GeneratedReferenceURL: c.GeneratedReferenceURL,
		VoiceProfile:          c.VoiceProfile,
		CreatedAt:             c.CreatedAt.Format(time.RFC3339),
	}
}

// ShotInfo 镜头信息 DTO
type ShotInfo struct {
	ID              string              `json:"id"`
	MovieID         string              `json:"movie_id"`
	SceneIndex      int                 `json:"scene_index"`
	Order           int                 `json:"order"`
	ShotType        string              `json:"shot_type"`
	CameraMovement  string              `json:"camera_movement"`
	Subject         string              `json:"subject"`
	Action          string              `json:"action"`
	Environment     string              `json:"environment"`
	Lighting        string              `json:"lighting"`
	Dialogue        *movie.ShotDialogue `json:"dialogue,omitempty"`
	DurationSeconds int                 `json:"duration_seconds"`
	GeneratedPrompt string              `json:"generated_prompt,omitempty"`
	NegativePrompt  string              `json:"negative_prompt,omitempty"`
	Status          string              `json:"status"`
	ErrorMessage    string              `json:"error_message,omitempty"`
}

func toShotInfo(s *movie.Shot) ShotInfo {
	return ShotInfo{
		ID:              s.ID,
		MovieID:         s.MovieID,
		SceneIndex:      s.SceneIndex,
		Order:           s.Order,
		ShotType:        s.ShotType,
		CameraMovement:  s.CameraMovement,
		Subject:         s.Subject,
		Action:          s.Action,
		Environment:     s.Environment,
		Lighting:        s.Lighting,
		Dialogue:        s.Dialogue,
		DurationSeconds: s.DurationSeconds,
		GeneratedPrompt: s.GeneratedPrompt,
		NegativePrompt:  s.NegativePrompt,
		Status:          string(s.Status),
		ErrorMessage:    s.ErrorMessage,
	}
}

func toShotInfoList(shots []*movie.Shot) []ShotInfo {
	result := make([]ShotInfo, len(shots))
	for i, s := range shots {
		result[i] = toShotInfo(s)
	}
	return result
}

// TakeInfo 生成产物信息 DTO
type TakeInfo struct {
	ID             string `json:"id"`
	ShotID         string `json:"shot_id"`
	VideoURL       string `json:"video_url"`
	IsHero         bool   `json:"is_hero"`
	ProviderTaskID string `json:"provider_task_id,omitempty"`
	CreatedAt      string `json:"created_at"`
}

func toTakeInfo(t *movie.Take) TakeInfo {
	return TakeInfo{
		ID:             t.ID,
		ShotID:         t.ShotID,
		VideoURL:       t.VideoURL,
		IsHero:         t.IsHero,
		ProviderTaskID: t.ProviderTaskID,
		CreatedAt:      t.CreatedAt.Format(time.RFC3339),
	}
}
