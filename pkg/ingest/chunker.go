package ingest

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/neurosnap/sentences"
	"github.com/neurosnap/sentences/english"
	"github.com/pkoukk/tiktoken-go"
)

const (
	DefaultChunkSize    = 800
	DefaultChunkOverlap = 150
	DefaultTokenLimit   = 300
	DefaultEncoding     = "cl100k_base"
)

// Chunker splits one page of text into indexable pieces.
type Chunker interface {
	Chunk(text string) []string
}

// CharChunker cuts fixed-size windows of runes with an overlap so context
// survives the boundaries. A window end is pulled back to the last whitespace
// in its final fifth, which avoids cutting most words in half.
type CharChunker struct {
	Size    int
	Overlap int
}

func NewCharChunker(size, overlap int) *CharChunker {
	if size <= 0 {
		size = DefaultChunkSize
	}
	if overlap < 0 || overlap >= size {
		overlap = 0
	}
	return &CharChunker{Size: size, Overlap: overlap}
}

func (c *CharChunker) Chunk(text string) []string {
	runes := []rune(strings.TrimSpace(text))
	total := len(runes)
	if total == 0 {
		return nil
	}
	if total <= c.Size {
		return []string{string(runes)}
	}

	var chunks []string
	for start := 0; start < total; {
		end := start + c.Size
		if end >= total {
			chunks = append(chunks, strings.TrimSpace(string(runes[start:])))
			break
		}
		for i := end; i > end-c.Size/5; i-- {
			if unicode.IsSpace(runes[i]) {
				end = i
				break
			}
		}
		chunks = append(chunks, strings.TrimSpace(string(runes[start:end])))

		next := end - c.Overlap
		if next <= start {
			next = end
		}
		start = next
	}
	return chunks
}

// SentenceChunker packs whole sentences into chunks of at most TokenLimit
// tokens. A sentence longer than the limit becomes a chunk on its own.
type SentenceChunker struct {
	TokenLimit  int
	tokenizer   *sentences.DefaultSentenceTokenizer
	countTokens func(string) int
}

// NewSentenceChunker uses the bundled English punkt model and the named
// tiktoken encoding.
func NewSentenceChunker(tokenLimit int, encoding string) (*SentenceChunker, error) {
	if encoding == "" {
		encoding = DefaultEncoding
	}
	enc, err := tiktoken.GetEncoding(encoding)
	if err != nil {
		return nil, fmt.Errorf("failed to get encoding %s: %w", encoding, err)
	}
	return newSentenceChunker(tokenLimit, func(s string) int {
		return len(enc.Encode(s, nil, nil))
	})
}

func newSentenceChunker(tokenLimit int, count func(string) int) (*SentenceChunker, error) {
	tokenizer, err := english.NewSentenceTokenizer(nil)
	if err != nil {
		return nil, fmt.Errorf("failed to load sentence tokenizer: %w", err)
	}
	if tokenLimit <= 0 {
		tokenLimit = DefaultTokenLimit
	}
	return &SentenceChunker{TokenLimit: tokenLimit, tokenizer: tokenizer, countTokens: count}, nil
}

func (c *SentenceChunker) Chunk(text string) []string {
	var (
		chunks  []string
		current []string
		tokens  int
	)
	for _, s := range c.tokenizer.Tokenize(text) {
		sentence := strings.Join(strings.Fields(s.Text), " ")
		if sentence == "" {
			continue
		}
		n := c.countTokens(sentence)
		if tokens+n > c.TokenLimit && len(current) > 0 {
			chunks = append(chunks, strings.Join(current, " "))
			current, tokens = nil, 0
		}
		current = append(current, sentence)
		tokens += n
	}
	if len(current) > 0 {
		chunks = append(chunks, strings.Join(current, " "))
	}
	return chunks
}
