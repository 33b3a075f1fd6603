package translate

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"buddy-tutor-be/internal/pkg/logger"
	"buddy-tutor-be/pkg/cache"
	"buddy-tutor-be/pkg/llm"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type scriptedTranslator struct {
	mu    sync.Mutex
	calls int
	fail  func(text string) bool
}

func (s *scriptedTranslator) Configured() bool { return true }

func (s *scriptedTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	s.mu.Lock()
	s.calls++
	s.mu.Unlock()
	if s.fail != nil && s.fail(text) {
		return "", errors.New("backend down")
	}
	return "[" + target + "]" + strings.ToUpper(text), nil
}

type countingObserver struct {
	mu         sync.Mutex
	ok, failed int
}

func (c *countingObserver) ObserveTranslationChunk(ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ok {
		c.ok++
	} else {
		c.failed++
	}
}

func newLRU(t *testing.T) *cache.LRU {
	t.Helper()
	c, err := cache.NewLRU(16, nil)
	require.NoError(t, err)
	return c
}

func TestDetect(t *testing.T) {
	assert.Equal(t, Arabic, Detect("ما هو النظام الشمسي؟"))
	assert.Equal(t, Arabic, Detect("The word شمس means sun"))
	assert.Equal(t, English, Detect("What is the solar system?"))
	assert.Equal(t, English, Detect(""))
}

func TestSplitText(t *testing.T) {
	t.Run("short text stays whole", func(t *testing.T) {
		assert.Equal(t, []string{"hello world"}, SplitText("  hello world \n", 900))
	})

	t.Run("empty text", func(t *testing.T) {
		assert.Empty(t, SplitText("   ", 900))
	})

	t.Run("paragraphs are packed under the limit", func(t *testing.T) {
		para := strings.Repeat("a", 40)
		text := strings.Join([]string{para, para, para, para}, "\n")
		chunks := SplitText(text, 100)
		require.Len(t, chunks, 2)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 100)
		}
		assert.Equal(t, para+"\n"+para, chunks[0])
	})

	t.Run("long paragraph splits at sentence ends", func(t *testing.T) {
		sentence := "The Earth rotates on its axis once a day."
		text := strings.TrimSpace(strings.Repeat(sentence+" ", 6))
		chunks := SplitText(text, 100)
		require.Greater(t, len(chunks), 1)
		for _, c := range chunks {
			assert.LessOrEqual(t, len(c), 100)
			assert.True(t, strings.HasSuffix(c, "."), c)
		}
		assert.Equal(t, text, strings.Join(chunks, " "))
	})
}

func TestService_TranslatesChunksInOrder(t *testing.T) {
	backend := &scriptedTranslator{}
	observer := &countingObserver{}
	svc := NewService(backend, newLRU(t), logger.NewNopLogger(), WithChunkChars(20), WithObserver(observer))

	text := "first part\nsecond part\nthird part\nfourth part"
	res, err := svc.Translate(context.Background(), text, "", Arabic)
	require.NoError(t, err)

	assert.Equal(t, English, res.Source)
	assert.False(t, res.Cached)
	assert.Equal(t, "[ar]FIRST PART\n\n[ar]SECOND PART\n\n[ar]THIRD PART\n\n[ar]FOURTH PART", res.Text)
	assert.Equal(t, 4, observer.ok)
}

func TestService_FailedChunkBecomesEmpty(t *testing.T) {
	backend := &scriptedTranslator{fail: func(text string) bool { return strings.HasPrefix(text, "second") }}
	observer := &countingObserver{}
	svc := NewService(backend, nil, logger.NewNopLogger(), WithChunkChars(12), WithObserver(observer))

	res, err := svc.Translate(context.Background(), "first part\nsecond part\nthird part", English, Arabic)
	require.NoError(t, err)

	assert.Equal(t, "[ar]FIRST PART\n\n\n\n[ar]THIRD PART", res.Text)
	assert.Equal(t, 2, observer.ok)
	assert.Equal(t, 1, observer.failed)
}

// stallingTranslator never answers chunks starting with "stuck" until the
// caller gives up.
type stallingTranslator struct{}

func (stallingTranslator) Configured() bool { return true }

func (stallingTranslator) Translate(ctx context.Context, text, source, target string) (string, error) {
	if strings.HasPrefix(text, "stuck") {
		<-ctx.Done()
		return "", ctx.Err()
	}
	return "[" + target + "]" + text, nil
}

func TestService_StalledChunkTimesOut(t *testing.T) {
	observer := &countingObserver{}
	svc := NewService(stallingTranslator{}, nil, logger.NewNopLogger(),
		WithChunkChars(12), WithObserver(observer), WithChunkTimeout(50*time.Millisecond))

	start := time.Now()
	res, err := svc.Translate(context.Background(), "first part\nstuck part", English, Arabic)
	require.NoError(t, err)

	assert.Less(t, time.Since(start), time.Second)
	assert.Equal(t, "[ar]first part", res.Text)
	assert.Equal(t, 1, observer.failed)
}

func TestService_CachesResults(t *testing.T) {
	backend := &scriptedTranslator{}
	svc := NewService(backend, newLRU(t), logger.NewNopLogger())

	first, err := svc.Translate(context.Background(), "The Moon orbits the Earth.", "", Arabic)
	require.NoError(t, err)
	second, err := svc.Translate(context.Background(), "The Moon orbits the Earth.", "", Arabic)
	require.NoError(t, err)

	assert.Equal(t, first.Text, second.Text)
	assert.True(t, second.Cached)
	assert.Equal(t, English, second.Source)
	assert.Equal(t, 1, backend.calls)
}

func TestService_SameLanguageIsPassthrough(t *testing.T) {
	backend := &scriptedTranslator{}
	svc := NewService(backend, nil, logger.NewNopLogger())

	res, err := svc.Translate(context.Background(), "ما هو القمر؟", "", Arabic)
	require.NoError(t, err)
	assert.Equal(t, "ما هو القمر؟", res.Text)
	assert.Zero(t, backend.calls)
}

func TestService_NotConfigured(t *testing.T) {
	svc := NewService(NoopTranslator{}, nil, logger.NewNopLogger())
	_, err := svc.Translate(context.Background(), "hello there", "", Arabic)
	assert.ErrorIs(t, err, ErrNotConfigured)
}

func TestLLMTranslator(t *testing.T) {
	mock := &llm.MockProvider{Default: "  مرحبا  "}
	tr := NewLLMTranslator(mock, "chat-model")

	out, err := tr.Translate(context.Background(), "hello", English, Arabic)
	require.NoError(t, err)
	assert.Equal(t, "مرحبا", out)

	call := mock.Calls[0]
	assert.Equal(t, "chat-model", call.Options.Model)
	assert.Equal(t, 0.0, call.Options.Temperature)
	assert.Contains(t, call.Messages[0].Content, "from EN to AR")
}

func TestLLMTranslator_EmptyOutput(t *testing.T) {
	tr := NewLLMTranslator(&llm.MockProvider{Default: "   "}, "chat-model")
	_, err := tr.Translate(context.Background(), "hello", English, Arabic)
	assert.ErrorIs(t, err, llm.ErrEmptyResponse)
}

func TestLibreTranslator(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/translate", r.URL.Path)
		var req libreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Q == "boom" {
			w.WriteHeader(http.StatusInternalServerError)
			_, _ = w.Write([]byte("upstream exploded"))
			return
		}
		assert.Equal(t, "ar", req.Target)
		assert.Equal(t, "secret", req.APIKey)
		_ = json.NewEncoder(w).Encode(libreResponse{TranslatedText: "نص"})
	}))
	defer srv.Close()

	tr := NewLibreTranslator(srv.URL+"/", "secret", time.Second)

	out, err := tr.Translate(context.Background(), "text", English, Arabic)
	require.NoError(t, err)
	assert.Equal(t, "نص", out)

	_, err = tr.Translate(context.Background(), "boom", English, Arabic)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestNewTranslator(t *testing.T) {
	mock := llm.NewMockProvider()
	assert.IsType(t, &LLMTranslator{}, NewTranslator("", mock, "m", "", ""))
	assert.IsType(t, &LLMTranslator{}, NewTranslator("deepseek", mock, "m", "", ""))
	assert.IsType(t, &LibreTranslator{}, NewTranslator("libre", nil, "", "", ""))
	assert.IsType(t, NoopTranslator{}, NewTranslator("", nil, "", "", ""))
	assert.IsType(t, NoopTranslator{}, NewTranslator("llm", nil, "", "", ""))
}
