package translate

import (
	"context"
	"strings"
	"time"

	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/pkg/cache"

	"golang.org/x/sync/errgroup"
)

const (
	logModule     = "TranslateService"
	maxConcurrent = 4

	DefaultChunkTimeout = 12 * time.Second
)

type Result struct {
	Text   string
	Source string
	Target string
	Cached bool
}

// ChunkObserver is told about every translated chunk.
type ChunkObserver interface {
	ObserveTranslationChunk(ok bool)
}

type Service struct {
	translator   Translator
	cache        cache.Store
	observer     ChunkObserver
	logger       logger.ILogger
	chunkChars   int
	chunkTimeout time.Duration
}

type Option func(*Service)

func WithObserver(o ChunkObserver) Option {
	return func(s *Service) {
		s.observer = o
	}
}

func WithChunkChars(n int) Option {
	return func(s *Service) {
		s.chunkChars = n
	}
}

// WithChunkTimeout bounds each backend call.
func WithChunkTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.chunkTimeout = d
		}
	}
}

func NewService(translator Translator, store cache.Store, log logger.ILogger, opts ...Option) *Service {
	s := &Service{
		translator:   translator,
		cache:        store,
		logger:       log,
		chunkChars:   DefaultChunkChars,
		chunkTimeout: DefaultChunkTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *Service) Configured() bool {
	return s.translator.Configured()
}

// Translate converts text into target. An empty source is detected from the
// text. Text already in the target language is returned as is. Chunks that
// fail to translate contribute an empty string; the call itself only fails
// when the backend is not configured.
func (s *Service) Translate(ctx context.Context, text, source, target string) (*Result, error) {
	if !s.translator.Configured() {
		return nil, ErrNotConfigured
	}
	if !Supported(source) {
		source = Detect(text)
	}
	if source == target {
		return &Result{Text: text, Source: source, Target: target}, nil
	}

	key := cache.NewKey(source, target, text)
	if s.cache != nil {
		if entry, ok := s.cache.Get(ctx, key); ok {
			return &Result{Text: entry.Text, Source: entry.Detected, Target: target, Cached: true}, nil
		}
	}

	parts := SplitText(text, s.chunkChars)
	translated := make([]string, len(parts))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(maxConcurrent)
	for i, part := range parts {
		g.Go(func() error {
			chunkCtx, cancel := context.WithTimeout(gctx, s.chunkTimeout)
			out, err := s.translator.Translate(chunkCtx, part, source, target)
			cancel()
			if s.observer != nil {
				s.observer.ObserveTranslationChunk(err == nil)
			}
			if err != nil {
				s.logger.Warn(logModule, "Chunk translation failed", map[string]interface{}{
					"chunk": i,
					"error": err.Error(),
				})
				return nil
			}
			translated[i] = out
			return nil
		})
	}
	_ = g.Wait()

	combined := strings.TrimSpace(strings.Join(translated, "\n\n"))
	if s.cache != nil && combined != "" {
		s.cache.Set(ctx, key, cache.Entry{Text: combined, Detected: source})
	}

	return &Result{Text: combined, Source: source, Target: target}, nil
}
