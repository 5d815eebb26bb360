package movie

import (
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"
	"time"

	"papaya/internal/config"
	"papaya/internal/model/movie"
	"papaya/internal/pkg/kling"
	"papaya/internal/pkg/storytools"
)

// 内存版仓库与协作方，service 测试不依赖 Mongo/Redis/ffmpeg

type fakeMovieRepo struct {
	mu     sync.Mutex
	movies map[string]*movie.Movie
}

func newFakeMovieRepo() *fakeMovieRepo {
	return &fakeMovieRepo{movies: make(map[string]*movie.Movie)}
}

func (r *fakeMovieRepo) Create(_ context.Context, m *movie.Movie) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.movies[m.ID] = m
	return nil
}

func (r *fakeMovieRepo) FindByID(_ context.Context, id string) (*movie.Movie, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return nil, fmt.Errorf("movie %s not found", id)
	}
	copied := *m
	return &copied, nil
}

func (r *fakeMovieRepo) FindByUserID(_ context.Context, userID string, _, _ int) ([]*movie.Movie, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*movie.Movie
	for _, m := range r.movies {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakeMovieRepo) Update(_ context.Context, id string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return fmt.Errorf("movie %s not found", id)
	}
	if v, ok := updates["script_analysis"]; ok {
		m.ScriptAnalysis = v.(*movie.ScriptAnalysis)
	}
	if v, ok := updates["style_bible"]; ok {
		m.StyleBible = v.(*movie.StyleBible)
	}
	if v, ok := updates["genre"]; ok {
		m.Genre = v.(string)
	}
	return nil
}

func (r *fakeMovieRepo) UpdateStatus(_ context.Context, id string, status movie.MovieStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return fmt.Errorf("movie %s not found", id)
	}
	m.Status = status
	return nil
}

func (r *fakeMovieRepo) SetSceneReferenceFrame(_ context.Context, id string, sceneIndex int, frameURL string) (string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.movies[id]
	if !ok {
		return "", fmt.Errorf("movie %s not found", id)
	}
	key := strconv.Itoa(sceneIndex)
	if existing := m.SceneReferenceFrames[key]; existing != "" {
		return existing, nil
	}
	if m.SceneReferenceFrames == nil {
		m.SceneReferenceFrames = make(map[string]string)
	}
	m.SceneReferenceFrames[key] = frameURL
	return frameURL, nil
}

func (r *fakeMovieRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.movies, id)
	return nil
}

type fakeShotRepo struct {
	mu    sync.Mutex
	shots map[string]*movie.Shot
}

func newFakeShotRepo() *fakeShotRepo {
	return &fakeShotRepo{shots: make(map[string]*movie.Shot)}
}

func (r *fakeShotRepo) Create(_ context.Context, shot *movie.Shot) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.shots[shot.ID] = shot
	return nil
}

func (r *fakeShotRepo) CreateMany(ctx context.Context, shots []*movie.Shot) error {
	for _, shot := range shots {
		if err := r.Create(ctx, shot); err != nil {
			return err
		}
	}
	return nil
}

func (r *fakeShotRepo) FindByID(_ context.Context, id string) (*movie.Shot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	shot, ok := r.shots[id]
	if !ok {
		return nil, fmt.Errorf("shot %s not found", id)
	}
	copied := *shot
	return &copied, nil
}

func (r *fakeShotRepo) FindByMovieID(_ context.Context, movieID string) ([]*movie.Shot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*movie.Shot
	for order := 0; ; order++ {
		found := false
		for _, shot := range r.shots {
			if shot.MovieID == movieID && shot.Order == order {
				copied := *shot
				out = append(out, &copied)
				found = true
				break
			}
		}
		if !found {
			break
		}
	}
	return out, nil
}

func (r *fakeShotRepo) FindByMovieIDAndOrder(_ context.Context, movieID string, order int) (*movie.Shot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, shot := range r.shots {
		if shot.MovieID == movieID && shot.Order == order {
			copied := *shot
			return &copied, nil
		}
	}
	return nil, fmt.Errorf("shot order %d not found", order)
}

func (r *fakeShotRepo) FindBySceneIndex(_ context.Context, movieID string, sceneIndex int) ([]*movie.Shot, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*movie.Shot
	for _, shot := range r.shots {
		if shot.MovieID == movieID && shot.SceneIndex == sceneIndex {
			copied := *shot
			out = append(out, &copied)
		}
	}
	return out, nil
}

func (r *fakeShotRepo) Update(_ context.Context, id string, updates map[string]interface{}) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	shot, ok := r.shots[id]
	if !ok {
		return fmt.Errorf("shot %s not found", id)
	}
	if v, ok := updates["start_frame_url"]; ok {
		shot.StartFrameURL = v.(string)
	}
	if v, ok := updates["end_frame_url"]; ok {
		shot.EndFrameURL = v.(string)
	}
	return nil
}

func (r *fakeShotRepo) UpdateStatus(_ context.Context, id string, status movie.ShotStatus, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	shot, ok := r.shots[id]
	if !ok {
		return fmt.Errorf("shot %s not found", id)
	}
	shot.Status = status
	shot.ErrorMessage = errorMessage
	return nil
}

func (r *fakeShotRepo) ClearStartFrame(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	shot, ok := r.shots[id]
	if !ok {
		return fmt.Errorf("shot %s not found", id)
	}
	shot.StartFrameURL = ""
	return nil
}

func (r *fakeShotRepo) DeleteByMovieID(_ context.Context, movieID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, shot := range r.shots {
		if shot.MovieID == movieID {
			delete(r.shots, id)
		}
	}
	return nil
}

type fakeCharacterRepo struct {
	mu         sync.Mutex
	characters map[string]*movie.Character
	backfills  map[string]string
}

func newFakeCharacterRepo() *fakeCharacterRepo {
	return &fakeCharacterRepo{
		characters: make(map[string]*movie.Character),
		backfills:  make(map[string]string),
	}
}

func (r *fakeCharacterRepo) Create(_ context.Context, c *movie.Character) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.characters[c.ID] = c
	return nil
}

func (r *fakeCharacterRepo) FindByID(_ context.Context, id string) (*movie.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.characters[id]
	if !ok {
		return nil, fmt.Errorf("character %s not found", id)
	}
	return c, nil
}

func (r *fakeCharacterRepo) FindByMovieID(_ context.Context, movieID string) ([]*movie.Character, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*movie.Character
	for _, c := range r.characters {
		if c.MovieID == movieID {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeCharacterRepo) Update(_ context.Context, _ string, _ map[string]interface{}) error {
	return nil
}

func (r *fakeCharacterRepo) BackfillGeneratedReferences(_ context.Context, _ string, urls map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, url := range urls {
		c, ok := r.characters[id]
		if !ok || c.GeneratedReferenceURL != "" {
			continue
		}
		c.GeneratedReferenceURL = url
		r.backfills[id] = url
	}
	return nil
}

func (r *fakeCharacterRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.characters, id)
	return nil
}

type fakeTakeRepo struct {
	mu    sync.Mutex
	takes map[string]*movie.Take
}

func newFakeTakeRepo() *fakeTakeRepo {
	return &fakeTakeRepo{takes: make(map[string]*movie.Take)}
}

func (r *fakeTakeRepo) Create(_ context.Context, take *movie.Take) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	take.CreatedAt = time.Now()
	r.takes[take.ID] = take
	return nil
}

func (r *fakeTakeRepo) FindByID(_ context.Context, id string) (*movie.Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	take, ok := r.takes[id]
	if !ok {
		return nil, fmt.Errorf("take %s not found", id)
	}
	return take, nil
}

func (r *fakeTakeRepo) FindByShotID(_ context.Context, shotID string) ([]*movie.Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*movie.Take
	for _, take := range r.takes {
		if take.ShotID == shotID {
			out = append(out, take)
		}
	}
	return out, nil
}

func (r *fakeTakeRepo) FindHeroByShotID(_ context.Context, shotID string) (*movie.Take, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, take := range r.takes {
		if take.ShotID == shotID && take.IsHero {
			return take, nil
		}
	}
	return nil, nil
}

func (r *fakeTakeRepo) MarkHero(_ context.Context, shotID, takeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.takes[takeID]; !ok {
		return fmt.Errorf("take %s not found", takeID)
	}
	for _, take := range r.takes {
		if take.ShotID == shotID {
			take.IsHero = take.ID == takeID
		}
	}
	return nil
}

type fakeScenePackRepo struct {
	mu    sync.Mutex
	packs map[string]*movie.ScenePack
}

func newFakeScenePackRepo() *fakeScenePackRepo {
	return &fakeScenePackRepo{packs: make(map[string]*movie.ScenePack)}
}

func (r *fakeScenePackRepo) Create(_ context.Context, pack *movie.ScenePack) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.packs[pack.ID] = pack
	return nil
}

func (r *fakeScenePackRepo) FindByID(_ context.Context, id string) (*movie.ScenePack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	pack, ok := r.packs[id]
	if !ok {
		return nil, fmt.Errorf("scene pack %s not found", id)
	}
	return pack, nil
}

func (r *fakeScenePackRepo) FindByMovieID(_ context.Context, movieID string) ([]*movie.ScenePack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*movie.ScenePack
	for _, pack := range r.packs {
		if pack.MovieID == movieID {
			out = append(out, pack)
		}
	}
	return out, nil
}

func (r *fakeScenePackRepo) FindCompletedByScene(_ context.Context, movieID string, sceneIndex int) (*movie.ScenePack, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, pack := range r.packs {
		if pack.MovieID == movieID && pack.SceneIndex == sceneIndex && pack.Status == movie.TaskStatusCompleted {
			return pack, nil
		}
	}
	return nil, nil
}

func (r *fakeScenePackRepo) Update(_ context.Context, _ string, _ map[string]interface{}) error {
	return nil
}

func (r *fakeScenePackRepo) UpdateStatus(_ context.Context, id string, status movie.TaskStatus, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	pack, ok := r.packs[id]
	if !ok {
		return fmt.Errorf("scene pack %s not found", id)
	}
	pack.Status = status
	pack.ErrorMessage = errorMessage
	return nil
}

// fakeVideoGenerator 记录请求并返回固定结果
// onGenerate 钩子用于在"生成期间"模拟并发动作（如用户取消）
type fakeVideoGenerator struct {
	mu         sync.Mutex
	requests   []*kling.GenerationRequest
	err        error
	onGenerate func()
}

func (g *fakeVideoGenerator) GenerateVideo(_ context.Context, request *kling.GenerationRequest) (*kling.VideoResult, error) {
	g.mu.Lock()
	g.requests = append(g.requests, request)
	n := len(g.requests)
	g.mu.Unlock()
	if g.onGenerate != nil {
		g.onGenerate()
	}
	if g.err != nil {
		return nil, g.err
	}
	return &kling.VideoResult{
		TaskID:   fmt.Sprintf("task-%d", n),
		VideoURL: fmt.Sprintf("https://videos.example.com/take-%d.mp4", n),
		Duration: request.Duration,
	}, nil
}

func (g *fakeVideoGenerator) DownloadVideo(_ context.Context, _ string) ([]byte, error) {
	return []byte("fake-video-bytes"), nil
}

func (g *fakeVideoGenerator) lastRequest() *kling.GenerationRequest {
	g.mu.Lock()
	defer g.mu.Unlock()
	if len(g.requests) == 0 {
		return nil
	}
	return g.requests[len(g.requests)-1]
}

type fakeFrameExtractor struct{}

func (fakeFrameExtractor) ExtractLastFrame(_ context.Context, _, outputPath string) error {
	return os.WriteFile(outputPath, []byte("fake-jpeg"), 0o644)
}

type fakeFrameStore struct {
	mu   sync.Mutex
	keys []string
}

func (s *fakeFrameStore) Upload(_ context.Context, key string, data io.Reader, _ string) (string, error) {
	if _, err := io.ReadAll(data); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.keys = append(s.keys, key)
	return "https://frames.example.com/" + key, nil
}

type fakeFlagCache struct {
	mu    sync.Mutex
	flags map[string]bool
}

func newFakeFlagCache() *fakeFlagCache {
	return &fakeFlagCache{flags: make(map[string]bool)}
}

func (c *fakeFlagCache) Set(_ context.Context, key string, _ any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.flags[key] = true
	return nil
}

func (c *fakeFlagCache) Exists(_ context.Context, key string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.flags[key], nil
}

func (c *fakeFlagCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, key := range keys {
		delete(c.flags, key)
	}
	return nil
}

type fakeAnalyzer struct {
	analysis *movie.ScriptAnalysis
	style    *movie.StyleBible
	styleErr error
}

func (a *fakeAnalyzer) AnalyzeScript(_ context.Context, _, _ string) (*movie.ScriptAnalysis, error) {
	if a.analysis == nil {
		return nil, fmt.Errorf("no analysis configured")
	}
	return a.analysis, nil
}

func (a *fakeAnalyzer) GenerateStyleBible(_ context.Context, _, _ string) (*movie.StyleBible, error) {
	if a.styleErr != nil {
		return nil, a.styleErr
	}
	return a.style, nil
}

// testEnv 组装一个全 fake 的 movieService
type testEnv struct {
	svc        *movieService
	movies     *fakeMovieRepo
	shots      *fakeShotRepo
	characters *fakeCharacterRepo
	takes      *fakeTakeRepo
	packs      *fakeScenePackRepo
	video      *fakeVideoGenerator
	store      *fakeFrameStore
	cache      *fakeFlagCache
	analyzer   *fakeAnalyzer
}

func newTestEnv() *testEnv {
	env := &testEnv{
		movies:     newFakeMovieRepo(),
		shots:      newFakeShotRepo(),
		characters: newFakeCharacterRepo(),
		takes:      newFakeTakeRepo(),
		packs:      newFakeScenePackRepo(),
		video:      &fakeVideoGenerator{},
		store:      &fakeFrameStore{},
		cache:      newFakeFlagCache(),
		analyzer:   &fakeAnalyzer{},
	}
	cameras := storytools.DefaultCameraCatalog()
	prompts := storytools.NewPromptBuilder()
	env.svc = &movieService{
		movieRepo:     env.movies,
		shotRepo:      env.shots,
		characterRepo: env.characters,
		takeRepo:      env.takes,
		scenePackRepo: env.packs,
		cameras:       cameras,
		genres:        storytools.DefaultGenrePresets(),
		planner:       storytools.NewShotPlanner(cameras, prompts, nil),
		prompts:       prompts,
		analyzer:      env.analyzer,
		video:         env.video,
		frames:        fakeFrameExtractor{},
		store:         env.store,
		cache:         env.cache,
		credits: config.CreditsConfig{
			PerSecondStd: 5,
			PerSecondPro: 10,
			AudioPercent: 25,
		},
	}
	return env
}
