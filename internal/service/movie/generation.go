package movie

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"papaya/internal/model/movie"
	"papaya/internal/pkg/id"
	"papaya/internal/pkg/kling"
	"papaya/internal/pkg/storytools"
)

// 元素参考图约束：生成服务商要求每个元素 2-4 张图
const (
	minElementImages = 2
	maxElementImages = 4
)

// 连续性来源
const (
	ChainSourceChain = "chain" // 上一镜头的尾帧
	ChainSourceScene = "scene" // 场景参考帧
	ChainSourceNone  = "none"  // 无起始帧
)

// GenerateOptions 生成选项
type GenerateOptions struct {
	Quality       movie.Quality `json:"quality"`        // 质量档位（缺省 std）
	GenerateAudio bool          `json:"generate_audio"` // 是否生成原生音频（含对白）
	// ExtraReferenceImages 本次请求追加的角色参考图（角色ID → URL 列表），
	// 与角色已有参考图合并后再做 2-4 张校验，不落库
	ExtraReferenceImages map[string][]string `json:"extra_reference_images,omitempty"`
}

// GenerateShotResult 单镜头生成结果
type GenerateShotResult struct {
	TakeID           string   `json:"take_id"`
	VideoURL         string   `json:"video_url"`
	CreditCost       int      `json:"credit_cost"`             // 上报的积分消耗（不做扣费）
	GenerationTimeMs int64    `json:"generation_time_ms"`
	ChainSource      string   `json:"chain_source"`            // chain / scene / none
	Cancelled        bool     `json:"cancelled"`               // 完成前被用户取消
	StaleShotIDs     []string `json:"stale_shot_ids,omitempty"` // 因本次生成被失效续接帧的镜头
	ElementsUsed     []string `json:"elements_used,omitempty"` // 本次绑定的元素名
}

// GenerateShot 为单个镜头生成视频
// 编排流程：
// 1. 加载镜头/影片/角色，镜头置为 generating
// 2. 解析续接起始帧（上一镜头尾帧 → 场景参考帧 → 无，逐级降级）
// 3. 选取元素（出镜角色 + 场景元素包，可并入请求级追加参考图）
// 4. 决定 prompt（规划时的 prompt 只在元素绑定不可能发生变化时复用，否则重拼）
// 5. 调用生成服务商（同步等待）
// 6. 复查取消：用户把状态重置回 planned 即视为取消，产物落库但不标 hero
// 7. bookkeeping：hero take、尾帧缓存、场景参考帧（首写生效）、角色参考回填、
//    失效下一镜头的续接帧、推进影片状态
func (s *movieService) GenerateShot(ctx context.Context, shotID string, opts *GenerateOptions) (*GenerateShotResult, error) {
	if opts == nil {
		opts = &GenerateOptions{}
	}
	quality := opts.Quality
	if quality == "" {
		quality = movie.QualityStandard
	}

	shot, err := s.shotRepo.FindByID(ctx, shotID)
	if err != nil {
		return nil, fmt.Errorf("find shot: %w", err)
	}
	if shot.Status == movie.ShotStatusGenerating {
		return nil, fmt.Errorf("shot %s is already generating", shotID)
	}

	m, err := s.movieRepo.FindByID(ctx, shot.MovieID)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	characters, err := s.characterRepo.FindByMovieID(ctx, shot.MovieID)
	if err != nil {
		return nil, fmt.Errorf("find characters: %w", err)
	}

	if err := s.shotRepo.UpdateStatus(ctx, shotID, movie.ShotStatusGenerating, ""); err != nil {
		return nil, fmt.Errorf("mark shot generating: %w", err)
	}

	startFrame, chainSource := s.resolveStartFrame(ctx, m, shot)
	elements, elementNames, scenePackName, backfillIDs := s.selectElements(ctx, m, shot, characters, opts.ExtraReferenceImages)
	prompt, negative := s.promptForGeneration(m, shot, characters, scenePackName, opts)
	creditCost := s.creditCost(shot.DurationSeconds, quality, opts.GenerateAudio)

	request := &kling.GenerationRequest{
		Prompt:         prompt,
		NegativePrompt: negative,
		Duration:       shot.DurationSeconds,
		AspectRatio:    m.AspectRatio,
		Mode:           quality.String(),
		GenerateAudio:  opts.GenerateAudio,
		StartImageURL:  startFrame,
		Elements:       elements,
	}

	log.Info().
		Str("shot_id", shotID).
		Str("movie_id", m.ID).
		Str("chain_source", chainSource).
		Strs("elements", elementNames).
		Int("credit_cost", creditCost).
		Msg("开始生成镜头")

	started := time.Now()
	video, err := s.video.GenerateVideo(ctx, request)
	elapsed := time.Since(started).Milliseconds()
	if err != nil {
		if statusErr := s.shotRepo.UpdateStatus(ctx, shotID, movie.ShotStatusFailed, err.Error()); statusErr != nil {
			log.Error().Err(statusErr).Str("shot_id", shotID).Msg("记录镜头失败状态出错")
		}
		return nil, fmt.Errorf("generate video: %w", err)
	}

	// 复查取消：生成期间用户把状态重置回 planned 即视为取消
	// 结果已经渲染并付费，照常落库，但不标 hero、不做任何缓存写入
	cancelled := false
	if fresh, err := s.shotRepo.FindByID(ctx, shotID); err == nil {
		cancelled = fresh.Status == movie.ShotStatusPlanned
	}

	take := &movie.Take{
		ID:             id.New(),
		ShotID:         shotID,
		MovieID:        m.ID,
		VideoURL:       video.VideoURL,
		ProviderTaskID: video.TaskID,
		GenerationParams: &movie.GenerationParams{
			Prompt:          prompt,
			NegativePrompt:  negative,
			DurationSeconds: shot.DurationSeconds,
			AspectRatio:     m.AspectRatio,
			Quality:         quality.String(),
			GenerateAudio:   opts.GenerateAudio,
			StartImageURL:   startFrame,
			ElementNames:    elementNames,
		},
	}
	if err := s.takeRepo.Create(ctx, take); err != nil {
		return nil, fmt.Errorf("save take: %w", err)
	}

	result := &GenerateShotResult{
		TakeID:           take.ID,
		VideoURL:         video.VideoURL,
		CreditCost:       creditCost,
		GenerationTimeMs: elapsed,
		ChainSource:      chainSource,
		ElementsUsed:     elementNames,
	}

	if cancelled {
		log.Info().Str("shot_id", shotID).Str("take_id", take.ID).Msg("镜头在生成期间被取消，产物保留但不标 hero")
		result.Cancelled = true
		return result, nil
	}

	if err := s.takeRepo.MarkHero(ctx, shotID, take.ID); err != nil {
		return nil, fmt.Errorf("mark hero take: %w", err)
	}

	result.StaleShotIDs = s.bookkeep(ctx, m, shot, take, backfillIDs)

	if err := s.shotRepo.UpdateStatus(ctx, shotID, movie.ShotStatusCompleted, ""); err != nil {
		return nil, fmt.Errorf("mark shot completed: %w", err)
	}
	s.advanceMovieStatus(ctx, m.ID)

	return result, nil
}

// CancelShot 取消生成中的镜头
// 只把状态重置回 planned；生成调用本身不打断（服务商不退款），
// 到达的结果由 GenerateShot 的复查逻辑降级为非 hero take
func (s *movieService) CancelShot(ctx context.Context, shotID string) error {
	shot, err := s.shotRepo.FindByID(ctx, shotID)
	if err != nil {
		return fmt.Errorf("find shot: %w", err)
	}
	if shot.Status != movie.ShotStatusGenerating {
		return fmt.Errorf("shot %s is not generating", shotID)
	}
	return s.shotRepo.UpdateStatus(ctx, shotID, movie.ShotStatusPlanned, "")
}

// resolveStartFrame 解析续接起始帧
// 优先级：镜头缓存的续接帧 → 同场景上一镜头的尾帧（按需抽取）→ 场景参考帧 → 无
// 任何一级失败只降级，不报错
func (s *movieService) resolveStartFrame(ctx context.Context, m *movie.Movie, shot *movie.Shot) (string, string) {
	if shot.StartFrameURL != "" {
		return shot.StartFrameURL, ChainSourceChain
	}

	if shot.Order > 0 {
		prev, err := s.shotRepo.FindByMovieIDAndOrder(ctx, m.ID, shot.Order-1)
		if err == nil && prev.SceneIndex == shot.SceneIndex && prev.Status == movie.ShotStatusCompleted {
			frame := prev.EndFrameURL
			if frame == "" {
				frame = s.extractShotEndFrame(ctx, m, prev)
			}
			if frame != "" {
				// 缓存到本镜头，重试时不再重复抽帧
				if err := s.shotRepo.Update(ctx, shot.ID, map[string]interface{}{"start_frame_url": frame}); err != nil {
					log.Warn().Err(err).Str("shot_id", shot.ID).Msg("缓存续接首帧失败")
				}
				return frame, ChainSourceChain
			}
		}
	}

	if frame := m.SceneReferenceFrames[strconv.Itoa(shot.SceneIndex)]; frame != "" {
		return frame, ChainSourceScene
	}
	return "", ChainSourceNone
}

// extractShotEndFrame 按需抽取镜头 hero take 的尾帧并缓存
func (s *movieService) extractShotEndFrame(ctx context.Context, m *movie.Movie, shot *movie.Shot) string {
	hero, err := s.takeRepo.FindHeroByShotID(ctx, shot.ID)
	if err != nil || hero == nil {
		return ""
	}

	frameURL, err := s.captureLastFrame(ctx, m.ID, hero)
	if err != nil {
		log.Warn().Err(err).Str("shot_id", shot.ID).Msg("尾帧抽取失败，续接降级")
		return ""
	}
	if err := s.shotRepo.Update(ctx, shot.ID, map[string]interface{}{"end_frame_url": frameURL}); err != nil {
		log.Warn().Err(err).Str("shot_id", shot.ID).Msg("缓存尾帧失败")
	}
	return frameURL
}

// captureLastFrame 下载 take 的视频、抽最后一帧并上传到存储，返回帧URL
func (s *movieService) captureLastFrame(ctx context.Context, movieID string, take *movie.Take) (string, error) {
	if s.frames == nil || s.store == nil {
		return "", fmt.Errorf("frame extraction is not configured")
	}

	data, err := s.video.DownloadVideo(ctx, take.VideoURL)
	if err != nil {
		return "", fmt.Errorf("download video: %w", err)
	}

	tempDir, err := os.MkdirTemp("", "papaya-frame-")
	if err != nil {
		return "", fmt.Errorf("create temp dir: %w", err)
	}
	defer os.RemoveAll(tempDir)

	videoPath := filepath.Join(tempDir, "take.mp4")
	framePath := filepath.Join(tempDir, "frame.jpg")
	if err := os.WriteFile(videoPath, data, 0o644); err != nil {
		return "", fmt.Errorf("write temp video: %w", err)
	}
	if err := s.frames.ExtractLastFrame(ctx, videoPath, framePath); err != nil {
		return "", err
	}

	frame, err := os.ReadFile(framePath)
	if err != nil {
		return "", fmt.Errorf("read extracted frame: %w", err)
	}

	key := fmt.Sprintf("movies/%s/frames/%s.jpg", movieID, take.ID)
	frameURL, err := s.store.Upload(ctx, key, bytes.NewReader(frame), "image/jpeg")
	if err != nil {
		return "", fmt.Errorf("upload frame: %w", err)
	}
	return frameURL, nil
}

// selectElements 为生成请求选取元素
// 角色元素：必须在镜头文本中被提到（全名或 ≥3 字符的名字片段，词边界匹配），
// 且有 2-4 张可用参考图；请求级追加参考图并入可用图池后再做校验，
// 只有 1 张的角色跳过并记诊断日志。
// 场景元素：该场景存在已完成的元素包时追加。
// 返回顺带给出需要回填生成参考图的角色ID（出镜且还没有生成参考图的角色）。
func (s *movieService) selectElements(
	ctx context.Context,
	m *movie.Movie,
	shot *movie.Shot,
	characters []*movie.Character,
	extra map[string][]string,
) (elements []kling.Element, names []string, scenePackName string, backfillIDs []string) {
	for _, c := range characters {
		if !characterInShot(c, shot) {
			continue
		}

		images := usableImages(c.ReferenceImages)
		images = append(images, usableImages(extra[c.ID])...)
		if c.GeneratedReferenceURL != "" {
			images = append(images, usableImages([]string{c.GeneratedReferenceURL})...)
		}

		// 出镜且还没有生成参考图的角色都登记回填，上传参考图多寡不影响自举
		if c.GeneratedReferenceURL == "" {
			backfillIDs = append(backfillIDs, c.ID)
		}

		if len(images) < minElementImages {
			if len(images) > 0 {
				log.Debug().
					Str("shot_id", shot.ID).
					Str("character", c.Name).
					Int("images", len(images)).
					Msg("角色参考图不足 2 张，跳过元素绑定")
			}
			continue
		}
		if len(images) > maxElementImages {
			images = images[:maxElementImages]
		}

		name := storytools.ElementToken(c.Name)
		elements = append(elements, kling.Element{
			Name:        name,
			Description: c.VisualDescription,
			Images:      images,
		})
		names = append(names, name)
	}

	pack, err := s.scenePackRepo.FindCompletedByScene(ctx, m.ID, shot.SceneIndex)
	if err != nil {
		log.Warn().Err(err).Str("shot_id", shot.ID).Msg("查询场景元素包失败，忽略场景元素")
		return elements, names, "", backfillIDs
	}
	if pack != nil {
		images := usableImages(pack.Images)
		if len(images) >= minElementImages {
			if len(images) > maxElementImages {
				images = images[:maxElementImages]
			}
			elements = append(elements, kling.Element{
				Name:        pack.Name,
				Description: pack.Description,
				Images:      images,
			})
			names = append(names, pack.Name)
			scenePackName = pack.Name
		}
	}

	return elements, names, scenePackName, backfillIDs
}

// promptForGeneration 决定本次生成使用的 prompt
// 规划时已经拼好含对白的 prompt，但它不含任何元素 token；
// 只有元素绑定不可能发生（全片角色都还没有参考图、本次没有追加参考图、
// 该场景没有元素包）且要音频时才能直接复用，
// 否则按当前镜头字段重拼，让元素 token 与本次实际绑定保持一致
func (s *movieService) promptForGeneration(
	m *movie.Movie,
	shot *movie.Shot,
	characters []*movie.Character,
	scenePackName string,
	opts *GenerateOptions,
) (string, string) {
	if shot.GeneratedPrompt != "" && opts.GenerateAudio && scenePackName == "" &&
		len(opts.ExtraReferenceImages) == 0 && !anyCharacterHasReferences(characters) {
		return shot.GeneratedPrompt, shot.NegativePrompt
	}

	movement, _ := s.cameras.Get(shot.CameraMovement)
	cameraText := storytools.CompoundCameraForDuration(movement.PromptSyntax, shot.CameraMovement, shot.DurationSeconds)

	promptCharacters := make([]storytools.PromptCharacter, len(characters))
	for i, c := range characters {
		promptCharacters[i] = storytools.PromptCharacter{
			ID:                 c.ID,
			Name:               c.Name,
			VisualDescription:  c.VisualDescription,
			VoiceProfile:       c.VoiceProfile,
			HasReferenceImages: len(c.ReferenceImages) > 0 || c.GeneratedReferenceURL != "" || len(opts.ExtraReferenceImages[c.ID]) > 0,
		}
	}

	return s.prompts.Build(&storytools.PromptInput{
		ShotType:         shot.ShotType,
		CameraText:       cameraText,
		Subject:          shot.Subject,
		Action:           shot.Action,
		Environment:      shot.Environment,
		Lighting:         shot.Lighting,
		Dialogue:         shot.Dialogue,
		DurationSeconds:  shot.DurationSeconds,
		IncludeDialogue:  opts.GenerateAudio,
		SceneElementName: scenePackName,
		MovementID:       shot.CameraMovement,
		GenreID:          m.Genre,
	}, promptCharacters, m.StyleBible)
}

// creditCost 计算积分消耗（只上报，不扣费）
func (s *movieService) creditCost(duration int, quality movie.Quality, audio bool) int {
	rate := s.credits.PerSecondStd
	if quality == movie.QualityPro {
		rate = s.credits.PerSecondPro
	}
	cost := duration * rate
	if audio && s.credits.AudioPercent > 0 {
		cost += cost * s.credits.AudioPercent / 100
	}
	return cost
}

// bookkeep 成功生成后的簿记
// 尾帧抽取失败只记日志：尾帧是缓存，后续按需抽取还有机会
func (s *movieService) bookkeep(
	ctx context.Context,
	m *movie.Movie,
	shot *movie.Shot,
	take *movie.Take,
	backfillIDs []string,
) []string {
	frameURL, err := s.captureLastFrame(ctx, m.ID, take)
	if err != nil {
		log.Warn().Err(err).Str("take_id", take.ID).Msg("尾帧抽取失败，跳过帧簿记")
	} else {
		if err := s.shotRepo.Update(ctx, shot.ID, map[string]interface{}{"end_frame_url": frameURL}); err != nil {
			log.Warn().Err(err).Str("shot_id", shot.ID).Msg("缓存尾帧失败")
		}

		// 场景参考帧首写生效，返回值才是实际生效的帧
		if winner, err := s.movieRepo.SetSceneReferenceFrame(ctx, m.ID, shot.SceneIndex, frameURL); err != nil {
			log.Warn().Err(err).Str("movie_id", m.ID).Msg("写场景参考帧失败")
		} else if winner != frameURL {
			log.Debug().Str("movie_id", m.ID).Int("scene", shot.SceneIndex).Msg("场景参考帧已存在，保留首写帧")
		}

		// 出镜且还没有生成参考图的角色，用这一帧自举生成参考（回填从不覆盖已有值）
		if len(backfillIDs) > 0 {
			urls := make(map[string]string, len(backfillIDs))
			for _, characterID := range backfillIDs {
				urls[characterID] = frameURL
			}
			if err := s.characterRepo.BackfillGeneratedReferences(ctx, m.ID, urls); err != nil {
				log.Warn().Err(err).Str("movie_id", m.ID).Msg("角色参考回填失败")
			}
		}
	}

	// 重新生成改变了成片，只有紧邻的下一镜头缓存的续接帧失效
	var stale []string
	if next, err := s.shotRepo.FindByMovieIDAndOrder(ctx, m.ID, shot.Order+1); err == nil && next.StartFrameURL != "" {
		if err := s.shotRepo.ClearStartFrame(ctx, next.ID); err != nil {
			log.Warn().Err(err).Str("shot_id", next.ID).Msg("失效续接首帧失败")
		} else {
			stale = append(stale, next.ID)
		}
	}
	return stale
}

// advanceMovieStatus 推进影片状态
// 全部镜头完成 → assembling；否则保持/进入 generating
func (s *movieService) advanceMovieStatus(ctx context.Context, movieID string) {
	shots, err := s.shotRepo.FindByMovieID(ctx, movieID)
	if err != nil || len(shots) == 0 {
		return
	}
	status := movie.MovieStatusAssembling
	for _, shot := range shots {
		if shot.Status != movie.ShotStatusCompleted {
			status = movie.MovieStatusGenerating
			break
		}
	}
	if err := s.movieRepo.UpdateStatus(ctx, movieID, status); err != nil {
		log.Warn().Err(err).Str("movie_id", movieID).Msg("推进影片状态失败")
	}
}

// anyCharacterHasReferences 影片中是否已有任一角色持有参考图（上传或回填生成）
// 一旦为真，元素绑定就可能发生，规划期的 prompt 不再可复用
func anyCharacterHasReferences(characters []*movie.Character) bool {
	for _, c := range characters {
		if len(c.ReferenceImages) > 0 || c.GeneratedReferenceURL != "" {
			return true
		}
	}
	return false
}

// characterInShot 角色是否在镜头中出镜
// 对白说话人直接算出镜；其余按主体/动作文本做词边界匹配：
// 全名命中，或名字的某个 ≥3 字符片段命中
func characterInShot(c *movie.Character, shot *movie.Shot) bool {
	if shot.Dialogue != nil {
		if shot.Dialogue.CharacterID == c.ID || strings.EqualFold(shot.Dialogue.CharacterName, c.Name) {
			return true
		}
	}

	text := shot.Subject + " " + shot.Action
	if c.Name == "" || text == " " {
		return false
	}
	if wordBoundaryMatch(text, c.Name) {
		return true
	}
	for _, token := range strings.Fields(c.Name) {
		if len(token) >= 3 && wordBoundaryMatch(text, token) {
			return true
		}
	}
	return false
}

// wordBoundaryMatch 大小写不敏感的词边界匹配
func wordBoundaryMatch(text, term string) bool {
	pattern, err := regexp.Compile(`(?i)\b` + regexp.QuoteMeta(term) + `\b`)
	if err != nil {
		return false
	}
	return pattern.MatchString(text)
}

// badImageExtensions 生成服务商不接受的参考图格式
var badImageExtensions = map[string]bool{
	".heic": true,
	".gif":  true,
	".bmp":  true,
	".tiff": true,
	".svg":  true,
}

// usableImages 过滤掉服务商不支持格式的参考图
func usableImages(urls []string) []string {
	var usable []string
	for _, raw := range urls {
		if raw == "" {
			continue
		}
		ext := strings.ToLower(path.Ext(raw))
		if parsed, err := url.Parse(raw); err == nil && parsed.Path != "" {
			ext = strings.ToLower(path.Ext(parsed.Path))
		}
		if badImageExtensions[ext] {
			log.Debug().Str("image", raw).Msg("参考图格式不支持，已剔除")
			continue
		}
		usable = append(usable, raw)
	}
	return usable
}
