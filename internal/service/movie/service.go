package movie

import (
	"context"
	"fmt"
	"io"
	"time"

	"go.mongodb.org/mongo-driver/mongo"

	"papaya/internal/config"
	"papaya/internal/model/movie"
	"papaya/internal/pkg/id"
	"papaya/internal/pkg/kling"
	"papaya/internal/pkg/storytools"
	movierepo "papaya/internal/repository/movie"
)

// ScriptAnalyzer 剧本分析协作方（internal/ai 实现）
type ScriptAnalyzer interface {
	AnalyzeScript(ctx context.Context, title, script string) (*movie.ScriptAnalysis, error)
	GenerateStyleBible(ctx context.Context, genre, synopsis string) (*movie.StyleBible, error)
}

// VideoGenerator 视频生成协作方（pkg/kling 实现）
type VideoGenerator interface {
	GenerateVideo(ctx context.Context, request *kling.GenerationRequest) (*kling.VideoResult, error)
	DownloadVideo(ctx context.Context, videoURL string) ([]byte, error)
}

// FrameExtractor 帧抽取协作方（pkg/ffmpeg 实现）
type FrameExtractor interface {
	ExtractLastFrame(ctx context.Context, videoPath, outputPath string) error
}

// FrameStore 帧图片存储（pkg/storage 的上传子集）
type FrameStore interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) (string, error)
}

// FlagCache 暂停标记与缓存（pkg/cache 的子集）
type FlagCache interface {
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
	Exists(ctx context.Context, key string) (bool, error)
	Delete(ctx context.Context, keys ...string) error
}

// MovieService 影片服务接口
// 定义 movie 模块 service 层提供的能力
type MovieService interface {
	// CreateMovie 创建影片
	CreateMovie(ctx context.Context, input *CreateMovieInput) (*movie.Movie, error)

	// GetMovie 获取影片信息
	GetMovie(ctx context.Context, movieID string) (*movie.Movie, error)

	// ListMovies 分页获取用户的影片
	ListMovies(ctx context.Context, userID string, page, pageSize int) ([]*movie.Movie, int64, error)

	// DeleteMovie 删除影片
	DeleteMovie(ctx context.Context, movieID string) error

	// AddCharacter 为影片添加角色
	AddCharacter(ctx context.Context, input *AddCharacterInput) (*movie.Character, error)

	// GetCharacters 获取影片的所有角色
	GetCharacters(ctx context.Context, movieID string) ([]*movie.Character, error)

	// CreateScenePack 为场景创建元素包
	CreateScenePack(ctx context.Context, input *CreateScenePackInput) (*movie.ScenePack, error)

	// GetScenePacks 获取影片的所有场景元素包
	GetScenePacks(ctx context.Context, movieID string) ([]*movie.ScenePack, error)

	// AnalyzeScript 分析故事文本并生成风格圣经
	AnalyzeScript(ctx context.Context, movieID, script string) (*movie.ScriptAnalysis, error)

	// EstimateDuration 估计故事自然时长并为目标时长打分
	EstimateDuration(ctx context.Context, movieID string, targetDuration int) (*storytools.DurationAnalysis, error)

	// PlanShots 规划影片的全部镜头（覆盖旧规划）
	PlanShots(ctx context.Context, movieID string) ([]*movie.Shot, error)

	// GetShots 获取影片的全部镜头（按全局顺序）
	GetShots(ctx context.Context, movieID string) ([]*movie.Shot, error)

	// GenerateShot 为单个镜头生成视频（同步，内部轮询生成服务商）
	GenerateShot(ctx context.Context, shotID string, opts *GenerateOptions) (*GenerateShotResult, error)

	// CancelShot 取消生成中的镜头（状态重置回 planned）
	CancelShot(ctx context.Context, shotID string) error

	// GetTakes 获取镜头的全部生成产物
	GetTakes(ctx context.Context, shotID string) ([]*movie.Take, error)

	// SelectHeroTake 手动把某个 Take 选为镜头的 hero
	SelectHeroTake(ctx context.Context, shotID, takeID string) error

	// GenerateMovie 顺序生成影片的全部未完成镜头
	GenerateMovie(ctx context.Context, movieID string, opts *GenerateOptions) (*GenerateMovieResult, error)

	// PauseGeneration 设置整片生成的暂停标记
	PauseGeneration(ctx context.Context, movieID string) error

	// ResumeGeneration 清除整片生成的暂停标记
	ResumeGeneration(ctx context.Context, movieID string) error
}

// CreateMovieInput 创建影片的输入
type CreateMovieInput struct {
	UserID         string
	Title          string
	Genre          string
	AspectRatio    string
	TargetDuration int
}

// AddCharacterInput 添加角色的输入
type AddCharacterInput struct {
	MovieID           string
	Name              string
	Role              string
	VisualDescription string
	ReferenceImages   []string
	VoiceProfile      string
}

// CreateScenePackInput 创建场景元素包的输入
type CreateScenePackInput struct {
	MovieID     string
	SceneIndex  int
	Description string
	Images      []string
}

// movieService 影片服务实现
type movieService struct {
	movieRepo     movierepo.MovieRepository
	shotRepo      movierepo.ShotRepository
	characterRepo movierepo.CharacterRepository
	takeRepo      movierepo.TakeRepository
	scenePackRepo movierepo.ScenePackRepository

	cameras *storytools.CameraCatalog
	genres  *storytools.GenrePresetCatalog
	planner *storytools.ShotPlanner
	prompts *storytools.PromptBuilder

	analyzer ScriptAnalyzer
	video    VideoGenerator
	frames   FrameExtractor
	store    FrameStore
	cache    FlagCache

	credits config.CreditsConfig
}

// NewMovieService 创建影片服务
// repository 在内部创建；外部协作方（分析、生成、帧抽取、存储、缓存）由调用方注入
func NewMovieService(
	db *mongo.Database,
	analyzer ScriptAnalyzer,
	video VideoGenerator,
	frames FrameExtractor,
	store FrameStore,
	cache FlagCache,
	credits config.CreditsConfig,
) (MovieService, error) {
	if db == nil {
		return nil, fmt.Errorf("mongo database is required")
	}

	cameras := storytools.DefaultCameraCatalog()
	prompts := storytools.NewPromptBuilder()

	return &movieService{
		movieRepo:     movierepo.NewMovieRepo(db),
		shotRepo:      movierepo.NewShotRepo(db),
		characterRepo: movierepo.NewCharacterRepo(db),
		takeRepo:      movierepo.NewTakeRepo(db),
		scenePackRepo: movierepo.NewScenePackRepo(db),
		cameras:       cameras,
		genres:        storytools.DefaultGenrePresets(),
		planner:       storytools.NewShotPlanner(cameras, prompts, nil),
		prompts:       prompts,
		analyzer:      analyzer,
		video:         video,
		frames:        frames,
		store:         store,
		cache:         cache,
		credits:       credits,
	}, nil
}

// CreateMovie 创建影片
func (s *movieService) CreateMovie(ctx context.Context, input *CreateMovieInput) (*movie.Movie, error) {
	if input.Title == "" {
		return nil, fmt.Errorf("title is required")
	}
	aspectRatio := input.AspectRatio
	if aspectRatio == "" {
		aspectRatio = "16:9"
	}

	m := &movie.Movie{
		ID:             id.New(),
		UserID:         input.UserID,
		Title:          input.Title,
		Genre:          input.Genre,
		AspectRatio:    aspectRatio,
		TargetDuration: input.TargetDuration,
		Status:         movie.MovieStatusDrafting,
	}
	if err := s.movieRepo.Create(ctx, m); err != nil {
		return nil, fmt.Errorf("create movie: %w", err)
	}
	return m, nil
}

// GetMovie 获取影片信息
func (s *movieService) GetMovie(ctx context.Context, movieID string) (*movie.Movie, error) {
	m, err := s.movieRepo.FindByID(ctx, movieID)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	return m, nil
}

// ListMovies 分页获取用户的影片
func (s *movieService) ListMovies(ctx context.Context, userID string, page, pageSize int) ([]*movie.Movie, int64, error) {
	return s.movieRepo.FindByUserID(ctx, userID, page, pageSize)
}

// DeleteMovie 删除影片（镜头一并清理）
func (s *movieService) DeleteMovie(ctx context.Context, movieID string) error {
	if err := s.shotRepo.DeleteByMovieID(ctx, movieID); err != nil {
		return fmt.Errorf("delete shots: %w", err)
	}
	if err := s.movieRepo.Delete(ctx, movieID); err != nil {
		return fmt.Errorf("delete movie: %w", err)
	}
	return nil
}

// AddCharacter 为影片添加角色
func (s *movieService) AddCharacter(ctx context.Context, input *AddCharacterInput) (*movie.Character, error) {
	if input.Name == "" {
		return nil, fmt.Errorf("character name is required")
	}
	if _, err := s.movieRepo.FindByID(ctx, input.MovieID); err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}

	character := &movie.Character{
		ID:                id.New(),
		MovieID:           input.MovieID,
		Name:              input.Name,
		Role:              input.Role,
		VisualDescription: input.VisualDescription,
		ReferenceImages:   input.ReferenceImages,
		VoiceProfile:      input.VoiceProfile,
	}
	if err := s.characterRepo.Create(ctx, character); err != nil {
		return nil, fmt.Errorf("create character: %w", err)
	}
	return character, nil
}

// GetCharacters 获取影片的所有角色
func (s *movieService) GetCharacters(ctx context.Context, movieID string) ([]*movie.Character, error) {
	return s.characterRepo.FindByMovieID(ctx, movieID)
}

// CreateScenePack 为场景创建元素包
// 元素名由场景在剧本分析中的地点派生；给满 2-4 张可用图片时直接标记完成
func (s *movieService) CreateScenePack(ctx context.Context, input *CreateScenePackInput) (*movie.ScenePack, error) {
	m, err := s.movieRepo.FindByID(ctx, input.MovieID)
	if err != nil {
		return nil, fmt.Errorf("find movie: %w", err)
	}
	if m.ScriptAnalysis == nil || input.SceneIndex < 0 || input.SceneIndex >= len(m.ScriptAnalysis.Scenes) {
		return nil, fmt.Errorf("scene index %d out of range", input.SceneIndex)
	}

	scene := m.ScriptAnalysis.Scenes[input.SceneIndex]
	pack := &movie.ScenePack{
		ID:          id.New(),
		MovieID:     input.MovieID,
		SceneIndex:  input.SceneIndex,
		Name:        storytools.ElementToken(scene.Location),
		Description: input.Description,
		Images:      input.Images,
		Status:      movie.TaskStatusPending,
	}
	if usable := usableImages(input.Images); len(usable) >= minElementImages {
		pack.Status = movie.TaskStatusCompleted
	}

	if err := s.scenePackRepo.Create(ctx, pack); err != nil {
		return nil, fmt.Errorf("create scene pack: %w", err)
	}
	return pack, nil
}

// GetScenePacks 获取影片的所有场景元素包
func (s *movieService) GetScenePacks(ctx context.Context, movieID string) ([]*movie.ScenePack, error) {
	return s.scenePackRepo.FindByMovieID(ctx, movieID)
}

// GetTakes 获取镜头的全部生成产物
func (s *movieService) GetTakes(ctx context.Context, shotID string) ([]*movie.Take, error) {
	return s.takeRepo.FindByShotID(ctx, shotID)
}

// SelectHeroTake 手动把某个 Take 选为镜头的 hero
// 换 hero 意味着镜头的成片变了，尾帧缓存与下一镜头的续接首帧随之失效
func (s *movieService) SelectHeroTake(ctx context.Context, shotID, takeID string) error {
	take, err := s.takeRepo.FindByID(ctx, takeID)
	if err != nil {
		return fmt.Errorf("find take: %w", err)
	}
	if take.ShotID != shotID {
		return fmt.Errorf("take %s does not belong to shot %s", takeID, shotID)
	}

	if err := s.takeRepo.MarkHero(ctx, shotID, takeID); err != nil {
		return fmt.Errorf("mark hero: %w", err)
	}

	shot, err := s.shotRepo.FindByID(ctx, shotID)
	if err != nil {
		return fmt.Errorf("find shot: %w", err)
	}
	if err := s.shotRepo.Update(ctx, shotID, map[string]interface{}{"end_frame_url": ""}); err != nil {
		return fmt.Errorf("clear end frame: %w", err)
	}
	if next, err := s.shotRepo.FindByMovieIDAndOrder(ctx, shot.MovieID, shot.Order+1); err == nil {
		if err := s.shotRepo.ClearStartFrame(ctx, next.ID); err != nil {
			return fmt.Errorf("clear next start frame: %w", err)
		}
	}
	return nil
}
