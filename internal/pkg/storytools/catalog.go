package storytools

// MovementCategory 运镜类别
type MovementCategory string

const (
	CategoryEstablishing MovementCategory = "establishing" // 定场
	CategoryCharacter    MovementCategory = "character"    // 角色
	CategoryAction       MovementCategory = "action"       // 动作
	CategoryTransition   MovementCategory = "transition"   // 转场
)

// CameraMovement 运镜目录条目（只读参考数据）
// MinDuration 既参与选择加权，也是所选时长的硬下限
type CameraMovement struct {
	ID           string           `json:"id"`            // 运镜ID
	Category     MovementCategory `json:"category"`      // 类别
	PromptSyntax string           `json:"prompt_syntax"` // 基础 prompt 句式（≤5 秒镜头直接使用）
	MinDuration  int              `json:"min_duration"`  // 最小时长（秒）
}

// GenrePreset 类型预设目录条目（只读参考数据）
type GenrePreset struct {
	ID                string   `json:"id"`                 // 类型ID（noir, thriller...）
	CameraPreferences []string `json:"camera_preferences"` // 运镜偏好（有序回退列表）
	LightingKeywords  []string `json:"lighting_keywords"`  // 光线词表
	AvgShotDuration   int      `json:"avg_shot_duration"`  // 平均镜头时长（秒）
}

// CameraCatalog 运镜目录
// 作为依赖注入的只读表使用，不做全局可变状态（便于按租户替换和隔离测试）
type CameraCatalog struct {
	movements []CameraMovement
	byID      map[string]CameraMovement
}

// NewCameraCatalog 从条目列表构建运镜目录
func NewCameraCatalog(movements []CameraMovement) *CameraCatalog {
	byID := make(map[string]CameraMovement, len(movements))
	for _, m := range movements {
		byID[m.ID] = m
	}
	return &CameraCatalog{movements: movements, byID: byID}
}

// Get 按ID查找运镜，第二个返回值表示是否存在
func (c *CameraCatalog) Get(id string) (CameraMovement, bool) {
	m, ok := c.byID[id]
	return m, ok
}

// ByCategory 返回指定类别的全部运镜ID（按目录顺序）
func (c *CameraCatalog) ByCategory(category MovementCategory) []string {
	var ids []string
	for _, m := range c.movements {
		if m.Category == category {
			ids = append(ids, m.ID)
		}
	}
	return ids
}

// All 返回目录中的全部运镜（按目录顺序）
func (c *CameraCatalog) All() []CameraMovement {
	return c.movements
}

// OrbitMovementID 360 度环绕运镜的ID
// 该运镜的时长上限为 12 秒（其余运镜为 10 秒），下限由目录 MinDuration 约束为 10 秒
const OrbitMovementID = "orbit_360"

// EstablishingMovements 定场运镜集合
// 每个故事的第一个镜头强制从其中选取（先让观众建立空间感）
var EstablishingMovements = []string{
	"aerial_establish",
	"slow_push_establish",
	"crane_down",
	"pan_reveal",
}

// DialogueMovements 对白镜头偏好的运镜集合
var DialogueMovements = []string{
	"over_the_shoulder",
	"shot_reverse_shot",
	"static_medium",
	"static_close_up",
}

// DefaultCameraCatalog 返回默认运镜目录
func DefaultCameraCatalog() *CameraCatalog {
	return NewCameraCatalog([]CameraMovement{
		{ID: "aerial_establish", Category: CategoryEstablishing, MinDuration: 4,
			PromptSyntax: "Aerial establishing shot, camera drifting high above the scene"},
		{ID: "slow_push_establish", Category: CategoryEstablishing, MinDuration: 3,
			PromptSyntax: "Wide establishing shot, camera pushing in steadily toward the scene"},
		{ID: "crane_down", Category: CategoryEstablishing, MinDuration: 4,
			PromptSyntax: "Crane shot descending from above to eye level"},
		{ID: "pan_reveal", Category: CategoryEstablishing, MinDuration: 3,
			PromptSyntax: "Panning shot sweeping across the scene, revealing the environment"},

		{ID: "dolly_push_in", Category: CategoryCharacter, MinDuration: 3,
			PromptSyntax: "Dolly push-in toward the subject"},
		{ID: "dolly_pull_back", Category: CategoryCharacter, MinDuration: 3,
			PromptSyntax: "Dolly pull-back away from the subject"},
		{ID: "static_close_up", Category: CategoryCharacter, MinDuration: 3,
			PromptSyntax: "Static close-up, locked-off camera holding on the subject"},
		{ID: "static_medium", Category: CategoryCharacter, MinDuration: 3,
			PromptSyntax: "Static medium shot, locked-off camera"},
		{ID: "over_the_shoulder", Category: CategoryCharacter, MinDuration: 3,
			PromptSyntax: "Over-the-shoulder shot framing the conversation"},
		{ID: "shot_reverse_shot", Category: CategoryCharacter, MinDuration: 4,
			PromptSyntax: "Shot-reverse-shot coverage cutting between the speakers"},
		{ID: "rack_focus", Category: CategoryCharacter, MinDuration: 3,
			PromptSyntax: "Rack focus shifting attention between foreground and background"},

		{ID: "handheld_follow", Category: CategoryAction, MinDuration: 3,
			PromptSyntax: "Handheld camera following the subject, kinetic and unsteady"},
		{ID: "tracking_lateral", Category: CategoryAction, MinDuration: 3,
			PromptSyntax: "Lateral tracking shot moving alongside the subject"},
		{ID: "crash_zoom", Category: CategoryAction, MinDuration: 3,
			PromptSyntax: "Crash zoom rushing in on the subject"},
		{ID: "whip_pan", Category: CategoryAction, MinDuration: 3,
			PromptSyntax: "Whip pan snapping from one subject to another"},
		{ID: OrbitMovementID, Category: CategoryAction, MinDuration: 10,
			PromptSyntax: "360-degree orbit circling the subject"},

		{ID: "crane_up_away", Category: CategoryTransition, MinDuration: 4,
			PromptSyntax: "Crane shot rising up and away from the scene"},
		{ID: "dolly_out_reveal", Category: CategoryTransition, MinDuration: 4,
			PromptSyntax: "Dolly out revealing new context around the subject"},
	})
}

// GenrePresetCatalog 类型预设目录
type GenrePresetCatalog struct {
	byID map[string]GenrePreset
}

// NewGenrePresetCatalog 从条目列表构建类型预设目录
func NewGenrePresetCatalog(presets []GenrePreset) *GenrePresetCatalog {
	byID := make(map[string]GenrePreset, len(presets))
	for _, p := range presets {
		byID[p.ID] = p
	}
	return &GenrePresetCatalog{byID: byID}
}

// Get 按类型ID查找预设，第二个返回值表示是否存在
func (c *GenrePresetCatalog) Get(id string) (GenrePreset, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// DefaultGenrePresets 返回默认类型预设目录
func DefaultGenrePresets() *GenrePresetCatalog {
	return NewGenrePresetCatalog([]GenrePreset{
		{
			ID:                "noir",
			CameraPreferences: []string{"static_close_up", "rack_focus", "pan_reveal", "dolly_push_in"},
			LightingKeywords: []string{
				"hard key light with deep shadows",
				"venetian blind slats of light",
				"wet streets reflecting neon",
				"a single practical lamp glow",
				"cigarette smoke drifting through a light beam",
			},
			AvgShotDuration: 6,
		},
		{
			ID:                "thriller",
			CameraPreferences: []string{"handheld_follow", "crash_zoom", "static_close_up", "whip_pan"},
			LightingKeywords: []string{
				"cold fluorescent spill",
				"flickering overhead light",
				"harsh sodium streetlight",
				"shadow-heavy low key lighting",
				"headlight beams cutting the dark",
			},
			AvgShotDuration: 4,
		},
		{
			ID:                "romance",
			CameraPreferences: []string{OrbitMovementID, "dolly_push_in", "rack_focus", "static_medium"},
			LightingKeywords: []string{
				"golden hour backlight",
				"soft diffused window light",
				"warm candlelight flicker",
				"string lights bokeh",
				"gentle rim light",
			},
			AvgShotDuration: 6,
		},
		{
			ID:                "drama",
			CameraPreferences: []string{"dolly_push_in", "static_medium", "dolly_pull_back", "crane_up_away"},
			LightingKeywords: []string{
				"naturalistic window light",
				"overcast soft light",
				"warm interior practicals",
				"late afternoon sun streaks",
			},
			AvgShotDuration: 5,
		},
		{
			ID:                "scifi",
			CameraPreferences: []string{"tracking_lateral", "crane_down", "dolly_out_reveal", OrbitMovementID},
			LightingKeywords: []string{
				"cyan and magenta neon wash",
				"cold blue instrument glow",
				"volumetric haze light shafts",
				"sterile white panel lighting",
				"holographic screen spill",
			},
			AvgShotDuration: 5,
		},
		{
			ID:                "horror",
			CameraPreferences: []string{"handheld_follow", "static_close_up", "pan_reveal", "rack_focus"},
			LightingKeywords: []string{
				"a single flashlight beam",
				"moonlight through broken windows",
				"deep underexposed shadows",
				"sickly green fluorescent light",
			},
			AvgShotDuration: 5,
		},
		{
			ID:                "comedy",
			CameraPreferences: []string{"static_medium", "whip_pan", "crash_zoom", "tracking_lateral"},
			LightingKeywords: []string{
				"bright even sitcom lighting",
				"cheerful daylight fill",
				"warm bounce light",
			},
			AvgShotDuration: 4,
		},
		{
			ID:                "documentary",
			CameraPreferences: []string{"handheld_follow", "static_medium", "pan_reveal", "tracking_lateral"},
			LightingKeywords: []string{
				"available natural light",
				"unmodified window light",
				"overhead office lighting",
			},
			AvgShotDuration: 6,
		},
	})
}
