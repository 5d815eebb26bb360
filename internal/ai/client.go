package ai

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"

	"papaya/internal/config"
	"papaya/internal/model/movie"
)

// Client AI 能力层客户端
// 职责: 封装剧本分析与风格圣经生成，提供统一接口
type Client struct {
	cfg       *config.AIConfig
	chatModel model.ChatModel
}

// NewClient 创建 AI 客户端
func NewClient(ctx context.Context, cfg *config.AIConfig, chatModel model.ChatModel) (*Client, error) {
	if cfg.APIKey == "" {
		log.Warn().Msg("AI API key not configured, script analysis will fail at call time")
	}
	return &Client{
		cfg:       cfg,
		chatModel: chatModel,
	}, nil
}

const analyzeSystemPrompt = `You are a film development assistant. Analyze the story you are given and return ONLY a JSON object with this exact shape:
{
  "synopsis": "one-paragraph summary",
  "genre": "one of: noir, thriller, romance, drama, scifi, horror, comedy, documentary",
  "suggested_duration": 60,
  "scenes": [
    {
      "title": "scene title",
      "location": "where the scene takes place",
      "time_of_day": "day | night | dawn | dusk | interior",
      "beats": [
        {
          "description": "one concrete visual moment, naming characters by name",
          "emotional_tone": "dramatic | tense | nervous | romantic | melancholic | joyful | mysterious | action | peaceful | hopeful",
          "dialogue": [{"character": "Name", "line": "spoken line", "emotion": "how it is delivered"}]
        }
      ]
    }
  ]
}
Keep beats short and visual. Omit the dialogue array for beats without speech. Do not wrap the JSON in markdown.`

// AnalyzeScript 把自由文本故事解析为结构化剧本分析
func (c *Client) AnalyzeScript(ctx context.Context, title, script string) (*movie.ScriptAnalysis, error) {
	if c.chatModel == nil {
		return nil, fmt.Errorf("chat model is not configured")
	}
	if strings.TrimSpace(script) == "" {
		return nil, fmt.Errorf("script is empty")
	}

	messages := []*schema.Message{
		schema.SystemMessage(analyzeSystemPrompt),
		schema.UserMessage(fmt.Sprintf("Title: %s\n\nStory:\n%s", title, script)),
	}

	response, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to analyze script: %w", err)
	}

	var analysis movie.ScriptAnalysis
	if err := json.Unmarshal([]byte(stripJSONFence(response.Content)), &analysis); err != nil {
		return nil, fmt.Errorf("parse script analysis: %w", err)
	}
	if len(analysis.Scenes) == 0 {
		return nil, fmt.Errorf("script analysis returned no scenes")
	}

	log.Info().
		Int("scenes", len(analysis.Scenes)).
		Int("beats", analysis.TotalBeats()).
		Str("genre", analysis.Genre).
		Msg("剧本分析完成")

	return &analysis, nil
}

const styleSystemPrompt = `You are a cinematographer defining the visual identity of a film. Return ONLY a JSON object:
{
  "film_stock": "e.g. 35mm Kodak Vision3 500T",
  "color_palette": "the dominant color language",
  "textures": ["2-4 texture keywords"],
  "negative_prompt": "comma-separated things to avoid",
  "style_string": "a single sentence combining stock, palette and textures, suitable as a prompt suffix"
}
Do not wrap the JSON in markdown.`

// GenerateStyleBible 为影片生成贯穿全片的风格圣经
func (c *Client) GenerateStyleBible(ctx context.Context, genre, synopsis string) (*movie.StyleBible, error) {
	if c.chatModel == nil {
		return nil, fmt.Errorf("chat model is not configured")
	}

	messages := []*schema.Message{
		schema.SystemMessage(styleSystemPrompt),
		schema.UserMessage(fmt.Sprintf("Genre: %s\nSynopsis: %s", genre, synopsis)),
	}

	response, err := c.chatModel.Generate(ctx, messages)
	if err != nil {
		return nil, fmt.Errorf("failed to generate style bible: %w", err)
	}

	var style movie.StyleBible
	if err := json.Unmarshal([]byte(stripJSONFence(response.Content)), &style); err != nil {
		return nil, fmt.Errorf("parse style bible: %w", err)
	}
	if style.StyleString == "" {
		return nil, fmt.Errorf("style bible has no style string")
	}

	return &style, nil
}

// stripJSONFence 去掉模型偶尔包上的 markdown 代码栅栏
func stripJSONFence(content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, "```") {
		content = strings.TrimPrefix(content, "```json")
		content = strings.TrimPrefix(content, "```")
		content = strings.TrimSuffix(content, "```")
	}
	return strings.TrimSpace(content)
}

// Close 关闭客户端
func (c *Client) Close() error {
	return nil
}
