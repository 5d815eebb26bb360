package storytools

import (
	"fmt"
	"regexp"
	"strings"

	"papaya/internal/model/movie"
)

// PromptCharacter 拼装 prompt 时使用的角色上下文
// HasReferenceImages 决定主体块里用元素 token 还是内联外观描述
type PromptCharacter struct {
	ID                 string
	Name               string
	VisualDescription  string
	VoiceProfile       string
	HasReferenceImages bool
}

// PromptInput 一次 prompt 拼装的全部输入
type PromptInput struct {
	ShotType         string              // 景别
	CameraText       string              // 运镜描述（已按时长展开）
	Subject          string              // 主体文本
	Action           string              // 动作文本
	Environment      string              // 环境文本
	Lighting         string              // 光线文本
	Dialogue         *movie.ShotDialogue // 对白绑定（可为 nil）
	DurationSeconds  int                 // 镜头时长
	IncludeDialogue  bool                // 是否把对白写进 prompt 正文
	SceneElementName string              // 场景元素名（存在已完成的场景元素包时传入）
	MovementID       string              // 运镜ID（用于负面词）
	GenreID          string              // 类型ID（用于负面词）
}

// movementNegatives 运镜相关的负面词
var movementNegatives = map[string]string{
	OrbitMovementID:   "warped geometry, morphing background",
	"handheld_follow": "nauseating camera shake",
	"whip_pan":        "smeared frames, broken motion",
	"crash_zoom":      "frame tearing",
}

// genreNegatives 类型相关的负面词
var genreNegatives = map[string]string{
	"noir":   "oversaturated colors, flat lighting",
	"horror": "cheerful tones, bright high-key lighting",
	"comedy": "gloomy color grade",
	"scifi":  "period costumes",
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// ElementToken 从名称生成稳定的元素 token（element_<slug>）
// 同一名称必须永远得到同一 token，生成 API 靠它在 prompt 文本和元素绑定之间对账
func ElementToken(name string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(name), "-")
	slug = strings.Trim(slug, "-")
	return "element_" + slug
}

// PromptBuilder prompt 拼装引擎
// 块顺序固定：运镜 → 主体 → 动作 → 环境 → 光线 → 风格圣经，
// 下游模型对块顺序敏感，风格块永远在最后，不允许重排
type PromptBuilder struct{}

// NewPromptBuilder 创建 prompt 拼装引擎
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

// Build 拼装一条生成 prompt 和对应的负面 prompt
// 非空块以 ". " 连接，整串以单个句号结尾
func (b *PromptBuilder) Build(input *PromptInput, characters []PromptCharacter, style *movie.StyleBible) (string, string) {
	var blocks []string

	if input.ShotType != "" {
		blocks = append(blocks, titleCase(input.ShotType)+" shot")
	}
	blocks = append(blocks, input.CameraText)

	blocks = append(blocks, b.subjectBlock(input.Subject, characters))

	// 对白写在主体/动作交界处；不要求语音时整段省略（原生音频是单独开关的能力）
	if input.IncludeDialogue && input.Dialogue != nil && input.Dialogue.Line != "" {
		blocks = append(blocks, b.dialogueBlock(input.Dialogue, characters))
	}

	blocks = append(blocks, input.Action)

	environment := input.Environment
	if input.SceneElementName != "" && environment != "" {
		environment = fmt.Sprintf("%s (%s)", environment, input.SceneElementName)
	}
	blocks = append(blocks, environment)

	blocks = append(blocks, input.Lighting)

	if style != nil {
		blocks = append(blocks, style.StyleString)
	}

	var parts []string
	for _, block := range blocks {
		block = strings.TrimRight(strings.TrimSpace(block), ".")
		if block != "" {
			parts = append(parts, block)
		}
	}
	prompt := strings.Join(parts, ". ") + "."

	return prompt, b.negativePrompt(input, style)
}

// subjectBlock 构建主体块
// 有参考图的角色替换为元素 token（让生成调用能绑定像素级身份），
// 没有参考图的角色保留内联的外观描述（纯文本兜底）
func (b *PromptBuilder) subjectBlock(subject string, characters []PromptCharacter) string {
	for _, c := range characters {
		if !c.HasReferenceImages || c.Name == "" {
			continue
		}
		token := ElementToken(c.Name)
		inline := c.Name + ", " + c.VisualDescription
		if strings.Contains(subject, inline) {
			subject = strings.Replace(subject, inline, c.Name+" ("+token+")", 1)
		} else if strings.Contains(strings.ToLower(subject), strings.ToLower(c.Name)) {
			idx := strings.Index(strings.ToLower(subject), strings.ToLower(c.Name))
			original := subject[idx : idx+len(c.Name)]
			subject = strings.Replace(subject, original, original+" ("+token+")", 1)
		}
	}
	return subject
}

// dialogueBlock 构建对白块，格式：[角色名, 情绪 voice]: "台词"
// 情绪缺失时回退到角色的音色描述
func (b *PromptBuilder) dialogueBlock(dialogue *movie.ShotDialogue, characters []PromptCharacter) string {
	voice := dialogue.Emotion
	if voice == "" {
		for _, c := range characters {
			if strings.EqualFold(c.Name, dialogue.CharacterName) {
				voice = c.VoiceProfile
				break
			}
		}
	}
	if voice == "" {
		return fmt.Sprintf("[%s]: %q", dialogue.CharacterName, dialogue.Line)
	}
	return fmt.Sprintf("[%s, %s voice]: %q", dialogue.CharacterName, voice, dialogue.Line)
}

// negativePrompt 拼装负面 prompt
// 风格圣经的负面词 + 运镜/类型特有的排除项，按短语片段去重
func (b *PromptBuilder) negativePrompt(input *PromptInput, style *movie.StyleBible) string {
	var fragments []string
	if style != nil && style.NegativePrompt != "" {
		fragments = append(fragments, strings.Split(style.NegativePrompt, ",")...)
	}
	if extra, ok := movementNegatives[input.MovementID]; ok {
		fragments = append(fragments, strings.Split(extra, ",")...)
	}
	if extra, ok := genreNegatives[strings.ToLower(input.GenreID)]; ok {
		fragments = append(fragments, strings.Split(extra, ",")...)
	}

	seen := make(map[string]bool, len(fragments))
	var deduped []string
	for _, fragment := range fragments {
		fragment = strings.TrimSpace(fragment)
		if fragment == "" {
			continue
		}
		key := strings.ToLower(fragment)
		if seen[key] {
			continue
		}
		seen[key] = true
		deduped = append(deduped, fragment)
	}
	return strings.Join(deduped, ", ")
}

// titleCase 首字母大写
func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
