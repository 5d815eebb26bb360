package storytools

import (
	"fmt"
	"math"
	"strings"

	"papaya/internal/model/movie"
)

// shotTypeTable 运镜类别 → 候选景别（均匀随机抽取，重复条目即权重）
var shotTypeTable = map[MovementCategory][]string{
	CategoryEstablishing: {"wide", "wide", "aerial"},
	CategoryCharacter:    {"close-up", "medium", "medium close-up"},
	CategoryAction:       {"medium", "wide", "tracking"},
	CategoryTransition:   {"wide", "medium"},
}

// defaultAvgShotDuration 无类型预设时的基础镜头时长（秒）
const defaultAvgShotDuration = 5

// ShotPlanner 镜头规划器
// 把剧本分析（场景→节拍）转换为有序的镜头列表，每个节拍对应一个镜头
// 对空场景、缺角色、缺风格圣经、未识别情绪一律优雅降级，从不报错
type ShotPlanner struct {
	catalog *CameraCatalog
	prompts *PromptBuilder
	rng     Rand
}

// NewShotPlanner 创建镜头规划器
// rng 为 nil 时按剧本内容哈希派生种子（同一剧本得到可复现的规划结果）；
// 生产环境需要每次运行都有变化时可注入 NewSystemRand()
func NewShotPlanner(catalog *CameraCatalog, prompts *PromptBuilder, rng Rand) *ShotPlanner {
	return &ShotPlanner{catalog: catalog, prompts: prompts, rng: rng}
}

// PlanShots 规划整部影片的镜头
// 输出按场景优先、节拍次之的顺序排列，Order 为 0 开始的连续全局序号
func (p *ShotPlanner) PlanShots(
	analysis *movie.ScriptAnalysis,
	characters []*movie.Character,
	style *movie.StyleBible,
	preset *GenrePreset,
	targetDuration int,
) []*movie.Shot {
	if analysis == nil || len(analysis.Scenes) == 0 {
		return nil
	}

	rng := p.rng
	if rng == nil {
		rng = NewSeededRand(SimpleHash(scriptContentKey(analysis)))
	}

	genreID := ""
	if preset != nil {
		genreID = preset.ID
	}

	var shots []*movie.Shot
	var recent []string // 最近两个镜头用过的运镜（新近排除窗口）
	order := 0

	for sceneIndex, scene := range analysis.Scenes {
		lighting := PickLighting(preset, scene.TimeOfDay, sceneIndex)
		environment := scene.Location
		if scene.TimeOfDay != "" {
			environment = fmt.Sprintf("%s, %s", scene.Location, scene.TimeOfDay)
		}

		for _, beat := range scene.Beats {
			candidates := p.candidateMovements(beat, preset, order == 0)
			movementID := p.pickMovement(rng, candidates, recent)
			movement, _ := p.catalog.Get(movementID)

			shot := &movie.Shot{
				SceneIndex:      sceneIndex,
				Order:           order,
				ShotType:        p.pickShotType(rng, movement.Category),
				CameraMovement:  movementID,
				Subject:         p.buildSubject(beat, scene, characters),
				Action:          beat.Description,
				Environment:     environment,
				Lighting:        lighting,
				Dialogue:        bindDialogue(beat, characters),
				DurationSeconds: p.pickDuration(beat, movement, preset),
				Status:          movie.ShotStatusPlanned,
			}
			shots = append(shots, shot)

			recent = append(recent, movementID)
			if len(recent) > 2 {
				recent = recent[1:]
			}
			order++
		}
	}

	p.fitDurations(shots, targetDuration)
	p.assemblePrompts(shots, characters, style, genreID)

	return shots
}

// candidateMovements 按优先级构建候选运镜列表
// 1. 第一个场景的第一个节拍强制定场运镜（不看情绪）
// 2. 带对白的节拍优先对白运镜
// 3. 其余按情绪偏好 → 类型预设偏好 → 情绪类别全集逐级回退
func (p *ShotPlanner) candidateMovements(beat movie.Beat, preset *GenrePreset, isOpening bool) []string {
	if isOpening {
		return p.knownMovements(EstablishingMovements)
	}

	tone := toneCamera(beat.EmotionalTone)
	var ranked []string
	if len(beat.Dialogue) > 0 {
		ranked = append(ranked, DialogueMovements...)
	}
	ranked = append(ranked, tone.Preferred...)
	if preset != nil {
		ranked = append(ranked, preset.CameraPreferences...)
	}
	ranked = append(ranked, p.catalog.ByCategory(tone.Category)...)

	return p.knownMovements(ranked)
}

// knownMovements 过滤掉目录中不存在的ID并按序去重
func (p *ShotPlanner) knownMovements(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	var result []string
	for _, id := range ids {
		if seen[id] {
			continue
		}
		if _, ok := p.catalog.Get(id); !ok {
			continue
		}
		seen[id] = true
		result = append(result, id)
	}
	return result
}

// pickMovement 带新近排除的加权随机抽取
// 先剔除前两个镜头用过的运镜（剔空则退回完整候选列表），
// 再按 40%/25%/20% 给前三名加权，剩余 15% 均分给其余候选
func (p *ShotPlanner) pickMovement(rng Rand, candidates []string, recent []string) string {
	if len(candidates) == 0 {
		// 目录为空的极端情况，兜底返回空ID，调用方查目录时拿零值
		return ""
	}

	recentSet := make(map[string]bool, len(recent))
	for _, id := range recent {
		recentSet[id] = true
	}
	var filtered []string
	for _, id := range candidates {
		if !recentSet[id] {
			filtered = append(filtered, id)
		}
	}
	if len(filtered) == 0 {
		filtered = candidates
	}

	n := len(filtered)
	if n == 1 {
		return filtered[0]
	}

	weights := make([]float64, n)
	ranked := []float64{0.40, 0.25, 0.20}
	for i := 0; i < n && i < 3; i++ {
		weights[i] = ranked[i]
	}
	if n > 3 {
		share := 0.15 / float64(n-3)
		for i := 3; i < n; i++ {
			weights[i] = share
		}
	}

	var total float64
	for _, w := range weights {
		total += w
	}
	r := rng.Next() * total
	for i, w := range weights {
		r -= w
		if r < 0 {
			return filtered[i]
		}
	}
	return filtered[n-1]
}

// pickShotType 按类别从景别表均匀抽取（与运镜加权相互独立）
func (p *ShotPlanner) pickShotType(rng Rand, category MovementCategory) string {
	types := shotTypeTable[category]
	if len(types) == 0 {
		return "medium"
	}
	return types[int(rng.Next()*float64(len(types)))]
}

// pickDuration 计算镜头时长
// 基础时长 = 类型预设平均镜头时长（缺省 5 秒）+ 情绪修正（-2..+2），
// 下限取运镜声明的最小时长，再整体收进 3-10 秒（orbit_360 为 3-12 秒）
func (p *ShotPlanner) pickDuration(beat movie.Beat, movement CameraMovement, preset *GenrePreset) int {
	base := defaultAvgShotDuration
	if preset != nil && preset.AvgShotDuration > 0 {
		base = preset.AvgShotDuration
	}
	return clampDuration(base+toneBias(beat.EmotionalTone), movement)
}

// clampDuration 按运镜的个体边界收束时长
func clampDuration(d int, movement CameraMovement) int {
	lo, hi := 3, 10
	if movement.ID == OrbitMovementID {
		hi = 12
	}
	if movement.MinDuration > lo {
		lo = movement.MinDuration
	}
	if d < lo {
		return lo
	}
	if d > hi {
		return hi
	}
	return d
}

// buildSubject 构建主体文本
// 先在节拍描述里做角色名的大小写不敏感子串扫描，再补上对白说话人（按角色ID去重），
// 一个角色都没提到时退回场景地点
func (p *ShotPlanner) buildSubject(beat movie.Beat, scene movie.Scene, characters []*movie.Character) string {
	descLower := strings.ToLower(beat.Description)
	seen := make(map[string]bool)
	var picked []*movie.Character

	for _, c := range characters {
		if c.Name == "" || seen[c.ID] {
			continue
		}
		if strings.Contains(descLower, strings.ToLower(c.Name)) {
			seen[c.ID] = true
			picked = append(picked, c)
		}
	}
	for _, line := range beat.Dialogue {
		for _, c := range characters {
			if seen[c.ID] || !strings.EqualFold(c.Name, line.Character) {
				continue
			}
			seen[c.ID] = true
			picked = append(picked, c)
		}
	}

	if len(picked) == 0 {
		return scene.Location
	}

	parts := make([]string, len(picked))
	for i, c := range picked {
		parts[i] = fmt.Sprintf("%s, %s", c.Name, c.VisualDescription)
	}
	return strings.Join(parts, " and ")
}

// bindDialogue 绑定节拍的对白到镜头
// CharacterID 仅在角色表里找不到同名角色时为空串
func bindDialogue(beat movie.Beat, characters []*movie.Character) *movie.ShotDialogue {
	if len(beat.Dialogue) == 0 {
		return nil
	}
	line := beat.Dialogue[0]
	characterID := ""
	for _, c := range characters {
		if strings.EqualFold(c.Name, line.Character) {
			characterID = c.ID
			break
		}
	}
	return &movie.ShotDialogue{
		CharacterID:   characterID,
		CharacterName: line.Character,
		Line:          line.Line,
		Emotion:       line.Emotion,
	}
}

// fitDurations 目标时长拟合
// 原始总时长与目标偏差超过 15% 时，所有镜头按 target/rawTotal 等比缩放并各自重新收束；
// 偏差在 15% 以内视为有意的创作余量，不做修正
func (p *ShotPlanner) fitDurations(shots []*movie.Shot, targetDuration int) {
	if targetDuration <= 0 || len(shots) == 0 {
		return
	}

	rawTotal := 0
	for _, shot := range shots {
		rawTotal += shot.DurationSeconds
	}
	if rawTotal == 0 {
		return
	}

	deviation := math.Abs(float64(rawTotal-targetDuration)) / float64(targetDuration)
	if deviation <= 0.15 {
		return
	}

	scale := float64(targetDuration) / float64(rawTotal)
	for _, shot := range shots {
		rescaled := int(math.Round(float64(shot.DurationSeconds) * scale))
		movement, _ := p.catalog.Get(shot.CameraMovement)
		shot.DurationSeconds = clampDuration(rescaled, movement)
	}
}

// assemblePrompts 为每个镜头调用 prompt 拼装引擎
// 在时长拟合之后执行，保证运镜展开用的是最终时长
func (p *ShotPlanner) assemblePrompts(shots []*movie.Shot, characters []*movie.Character, style *movie.StyleBible, genreID string) {
	promptCharacters := make([]PromptCharacter, len(characters))
	for i, c := range characters {
		promptCharacters[i] = PromptCharacter{
			ID:                 c.ID,
			Name:               c.Name,
			VisualDescription:  c.VisualDescription,
			VoiceProfile:       c.VoiceProfile,
			HasReferenceImages: len(c.ReferenceImages) > 0 || c.GeneratedReferenceURL != "",
		}
	}

	for _, shot := range shots {
		movement, _ := p.catalog.Get(shot.CameraMovement)
		cameraText := CompoundCameraForDuration(movement.PromptSyntax, shot.CameraMovement, shot.DurationSeconds)

		prompt, negative := p.prompts.Build(&PromptInput{
			ShotType:        shot.ShotType,
			CameraText:      cameraText,
			Subject:         shot.Subject,
			Action:          shot.Action,
			Environment:     shot.Environment,
			Lighting:        shot.Lighting,
			Dialogue:        shot.Dialogue,
			DurationSeconds: shot.DurationSeconds,
			IncludeDialogue: true,
			MovementID:      shot.CameraMovement,
			GenreID:         genreID,
		}, promptCharacters, style)

		shot.GeneratedPrompt = prompt
		shot.NegativePrompt = negative
	}
}

// scriptContentKey 从剧本内容派生默认随机种子的键
func scriptContentKey(analysis *movie.ScriptAnalysis) string {
	var b strings.Builder
	b.WriteString(analysis.Synopsis)
	b.WriteString(analysis.Genre)
	for _, scene := range analysis.Scenes {
		b.WriteString(scene.Title)
		b.WriteString(scene.Location)
		for _, beat := range scene.Beats {
			b.WriteString(beat.Description)
			b.WriteString(beat.EmotionalTone)
		}
	}
	return b.String()
}
