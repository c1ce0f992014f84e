package roomle

import (
	dmat "github.com/flywave/go3d/float64/mat4"
	"github.com/flywave/go3d/float64/vec4"
	"go.uber.org/zap"
)

// ExportSession 单次导出的上下文, 持有参数计数器与纹理命名表.
// 每次导出都要新建.
type ExportSession struct {
	opts       *Options
	log        *zap.Logger
	textures   *TextureNameManager
	counter    int
	global     dmat.T
	compressor MeshCompressor
}

type SessionOption func(*ExportSession)

func WithLogger(l *zap.Logger) SessionOption {
	return func(s *ExportSession) {
		if l != nil {
			s.log = l
		}
	}
}

// WithCompressor replaces the compressor derived from the corto options.
func WithCompressor(c MeshCompressor) SessionOption {
	return func(s *ExportSession) {
		s.compressor = c
	}
}

func WithGlobalMatrix(m dmat.T) SessionOption {
	return func(s *ExportSession) {
		s.global = m
	}
}

// DefaultGlobalMatrix converts meters to millimeters and mirrors Y.
func DefaultGlobalMatrix() dmat.T {
	return dmat.T{
		vec4.T{1000, 0, 0, 0},
		vec4.T{0, -1000, 0, 0},
		vec4.T{0, 0, 1000, 0},
		vec4.T{0, 0, 0, 1},
	}
}

func NewExportSession(opts *Options, options ...SessionOption) *ExportSession {
	if opts == nil {
		opts = DefaultOptions()
	}
	s := &ExportSession{
		opts:     opts,
		log:      zap.NewNop(),
		textures: NewTextureNameManager(),
		global:   DefaultGlobalMatrix(),
	}
	for _, o := range options {
		o(s)
	}
	if s.compressor == nil && opts.UseCorto && opts.CortoExe != "" {
		c, err := NewCortoCompressor(opts.CortoExe, opts.CortoArgs)
		if err != nil {
			s.log.Warn("corto disabled", zap.Error(err))
		} else {
			s.compressor = c
		}
	}
	return s
}

func (s *ExportSession) Options() *Options {
	return s.opts
}

func (s *ExportSession) Logger() *zap.Logger {
	return s.log
}

func (s *ExportSession) Textures() *TextureNameManager {
	return s.textures
}

func (s *ExportSession) nextParameterNumber() int {
	s.counter++
	return s.counter
}
