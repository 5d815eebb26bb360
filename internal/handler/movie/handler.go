package movie

import (
	movieservice "papaya/internal/service/movie"
)

// Handler 影片处理器
// 所有movie相关的Handler方法都通过这个结构体访问Service
type Handler struct {
	movieService movieservice.MovieService
}

// NewHandler 创建影片处理器
func NewHandler(movieService movieservice.MovieService) *Handler {
	return &Handler{
		movieService: movieService,
	}
}
