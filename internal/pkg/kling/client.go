package kling

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog/log"
)

// Config 视频生成服务配置
type Config struct {
	AccessKey string // 访问密钥（必需）
	SecretKey string // 签名密钥（必需）
	BaseURL   string // API 基础 URL（可选，默认: https://api.klingai.com）
	Model     string // 模型名称（可选，默认: kling-v1-6）
}

// Element 生成请求中的具名元素（角色或场景的像素级参考）
// prompt 文本里通过 element_<slug> token 引用，Images 必须是 2-4 张
type Element struct {
	Name        string   `json:"name"`        // 元素名（与 prompt 中的 token 对应）
	Description string   `json:"description"` // 元素描述
	Images      []string `json:"images"`      // 参考图 URL（2-4 张）
}

// GenerationRequest 一次视频生成请求
type GenerationRequest struct {
	Prompt         string    `json:"prompt"`                    // 生成提示词
	NegativePrompt string    `json:"negative_prompt,omitempty"` // 负面提示词
	Duration       int       `json:"duration"`                  // 时长（秒，上限 12）
	AspectRatio    string    `json:"aspect_ratio"`              // 画幅比例（16:9 / 9:16 / 1:1）
	Mode           string    `json:"mode"`                      // 质量档位（std / pro）
	GenerateAudio  bool      `json:"generate_audio"`            // 是否生成原生音频
	StartImageURL  string    `json:"image,omitempty"`           // 首帧图 URL（图生视频）
	Elements       []Element `json:"elements,omitempty"`        // 具名元素
}

// TaskResult 任务查询结果
type TaskResult struct {
	TaskID   string // 任务ID
	Status   string // submitted / processing / succeed / failed
	VideoURL string // 成功时的视频 URL
	Message  string // 失败时的原因
}

// VideoResult 同步生成的最终结果
type VideoResult struct {
	TaskID   string // 服务端任务ID
	VideoURL string // 视频 URL
	Duration int    // 实际生成时长（秒）
}

// Client 视频生成客户端
// 提交任务 + 轮询查询的异步 API，GenerateVideo 在函数内部阻塞等到终态
type Client struct {
	accessKey string
	secretKey string
	baseURL   string
	model     string
	http      *http.Client
}

// NewClient 创建视频生成客户端
func NewClient(config *Config) (*Client, error) {
	if config.AccessKey == "" || config.SecretKey == "" {
		return nil, fmt.Errorf("kling access key and secret key are required")
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "https://api.klingai.com"
	}
	model := config.Model
	if model == "" {
		model = "kling-v1-6"
	}

	return &Client{
		accessKey: config.AccessKey,
		secretKey: config.SecretKey,
		baseURL:   strings.TrimSuffix(baseURL, "/"),
		model:     model,
		// 提交请求会携带元素参考图，服务端处理较慢，超时放宽
		http: &http.Client{Timeout: 2 * time.Minute},
	}, nil
}

// authToken 生成接口鉴权用的 JWT
// 服务端要求 HS256，iss 为 AccessKey，有效期 30 分钟，nbf 回拨 5 秒容忍时钟偏差
func (c *Client) authToken() (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": c.accessKey,
		"exp": now.Add(30 * time.Minute).Unix(),
		"nbf": now.Add(-5 * time.Second).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(c.secretKey))
}

// CreateTask 提交视频生成任务，返回服务端任务ID
func (c *Client) CreateTask(ctx context.Context, request *GenerationRequest) (string, error) {
	if request.Prompt == "" {
		return "", fmt.Errorf("prompt is required")
	}
	for _, element := range request.Elements {
		if len(element.Images) < 2 || len(element.Images) > 4 {
			return "", fmt.Errorf("element %q requires 2-4 reference images, got %d", element.Name, len(element.Images))
		}
	}

	duration := request.Duration
	if duration > 12 {
		log.Warn().Int("original", request.Duration).Msg("视频时长超过上限，已调整为 12 秒")
		duration = 12
	}

	body := map[string]interface{}{
		"model_name":      c.model,
		"prompt":          request.Prompt,
		"negative_prompt": request.NegativePrompt,
		"duration":        duration,
		"aspect_ratio":    request.AspectRatio,
		"mode":            request.Mode,
		"generate_audio":  request.GenerateAudio,
	}
	if request.StartImageURL != "" {
		body["image"] = request.StartImageURL
	}
	if len(request.Elements) > 0 {
		body["elements"] = request.Elements
	}

	jsonData, err := json.Marshal(body)
	if err != nil {
		return "", fmt.Errorf("marshal request body: %w", err)
	}

	apiURL := c.baseURL + "/v1/videos/generations"
	log.Debug().
		Str("api_url", apiURL).
		Str("model", c.model).
		Int("duration", duration).
		Int("elements", len(request.Elements)).
		Msg("创建视频生成任务")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, apiURL, bytes.NewReader(jsonData))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	if err := c.sign(req); err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("url", apiURL).
			Str("response_body", string(raw)).
			Msg("创建任务请求失败")
		return "", fmt.Errorf("API request failed: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var apiResp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			TaskID string `json:"task_id"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Code != 0 {
		return "", fmt.Errorf("create task rejected: code=%d message=%s", apiResp.Code, apiResp.Message)
	}
	if apiResp.Data.TaskID == "" {
		return "", fmt.Errorf("task ID is empty in response")
	}

	return apiResp.Data.TaskID, nil
}

// GetTask 查询任务状态
func (c *Client) GetTask(ctx context.Context, taskID string) (*TaskResult, error) {
	apiURL := fmt.Sprintf("%s/v1/videos/generations/%s", c.baseURL, taskID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, apiURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if err := c.sign(req); err != nil {
		return nil, err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(resp.Body)
		log.Error().
			Int("status_code", resp.StatusCode).
			Str("task_id", taskID).
			Str("response_body", string(raw)).
			Msg("查询任务状态失败")
		return nil, fmt.Errorf("API request failed: status %d, body: %s", resp.StatusCode, string(raw))
	}

	var apiResp struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
		Data    struct {
			TaskID        string `json:"task_id"`
			TaskStatus    string `json:"task_status"`
			TaskStatusMsg string `json:"task_status_msg"`
			TaskResult    struct {
				Videos []struct {
					URL      string `json:"url"`
					Duration string `json:"duration"`
				} `json:"videos"`
			} `json:"task_result"`
		} `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if apiResp.Code != 0 {
		return nil, fmt.Errorf("get task rejected: code=%d message=%s", apiResp.Code, apiResp.Message)
	}

	result := &TaskResult{
		TaskID:  apiResp.Data.TaskID,
		Status:  apiResp.Data.TaskStatus,
		Message: apiResp.Data.TaskStatusMsg,
	}
	if len(apiResp.Data.TaskResult.Videos) > 0 {
		result.VideoURL = apiResp.Data.TaskResult.Videos[0].URL
	}
	return result, nil
}

// GenerateVideo 同步生成视频
// 提交任务后在函数内部轮询直到终态：每 5 秒查一次，最长等 30 分钟
func (c *Client) GenerateVideo(ctx context.Context, request *GenerationRequest) (*VideoResult, error) {
	taskID, err := c.CreateTask(ctx, request)
	if err != nil {
		return nil, fmt.Errorf("failed to create video task: %w", err)
	}

	log.Info().Str("task_id", taskID).Msg("视频生成任务提交成功")

	maxWaitTime := 30 * time.Minute
	pollInterval := 5 * time.Second
	startTime := time.Now()

	for {
		if time.Since(startTime) > maxWaitTime {
			return nil, fmt.Errorf("video generation timeout after %v: task_id=%s", maxWaitTime, taskID)
		}

		task, err := c.GetTask(ctx, taskID)
		if err != nil {
			return nil, fmt.Errorf("failed to get task status: %w", err)
		}

		switch task.Status {
		case "succeed", "succeeded", "completed":
			if task.VideoURL == "" {
				return nil, fmt.Errorf("video URL is empty: task_id=%s", taskID)
			}
			log.Info().
				Str("task_id", taskID).
				Str("video_url", task.VideoURL).
				Msg("视频生成成功")
			return &VideoResult{
				TaskID:   taskID,
				VideoURL: task.VideoURL,
				Duration: request.Duration,
			}, nil
		case "failed":
			return nil, fmt.Errorf("video generation task failed: task_id=%s reason=%s", taskID, task.Message)
		}

		log.Debug().Str("task_id", taskID).Str("status", task.Status).Msg("视频生成中，继续等待...")

		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}

// sign 给请求加鉴权头
func (c *Client) sign(req *http.Request) error {
	token, err := c.authToken()
	if err != nil {
		return fmt.Errorf("sign auth token: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// DownloadVideo 下载视频数据
func (c *Client) DownloadVideo(ctx context.Context, videoURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, videoURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	client := &http.Client{Timeout: 5 * time.Minute}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("download video failed: status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}
