// Package tokenizer adapts tiktoken byte-pair encodings to token sequences,
// reporting unrepresentable input and unknown ids as typed errors.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/newthinker/llmlab/internal/core"
	"github.com/pkoukk/tiktoken-go"
)

// TokenSequence is an ordered list of token ids under one vocabulary.
type TokenSequence []int

// Tokenizer encodes and decodes text under a fixed encoding. It holds no
// mutable state and is safe for concurrent use.
type Tokenizer struct {
	encoding string
	enc      *tiktoken.Tiktoken
}

// New resolves the encoding used by model. When the model is unknown to
// tiktoken the fallback encoding is used; an empty fallback makes that an error.
func New(model, fallback string) (*Tokenizer, error) {
	name := EncodingName(model)
	if name == "" {
		name = fallback
	}
	if name == "" {
		return nil, core.Errorf(core.ErrConfigMissing, "no encoding known for model %q", model)
	}

	enc, err := tiktoken.GetEncoding(name)
	if err != nil {
		return nil, fmt.Errorf("loading encoding %s: %w", name, err)
	}
	return FromEncoding(name, enc), nil
}

// FromEncoding wraps an already constructed encoding.
func FromEncoding(name string, enc *tiktoken.Tiktoken) *Tokenizer {
	return &Tokenizer{encoding: name, enc: enc}
}

// EncodingName returns the tiktoken encoding for model, or "" if unknown.
func EncodingName(model string) string {
	if name, ok := tiktoken.MODEL_TO_ENCODING[model]; ok {
		return name
	}
	best := ""
	for prefix := range tiktoken.MODEL_PREFIX_TO_ENCODING {
		if strings.HasPrefix(model, prefix) && len(prefix) > len(best) {
			best = prefix
		}
	}
	if best == "" {
		return ""
	}
	return tiktoken.MODEL_PREFIX_TO_ENCODING[best]
}

// Encoding returns the name of the vocabulary in use.
func (t *Tokenizer) Encoding() string {
	return t.encoding
}

// Encode converts text to tokens. Special-token markers in text are encoded
// as ordinary text. Text that is not valid UTF-8 cannot round-trip through the
// rune-based pre-tokenizer and is rejected.
func (t *Tokenizer) Encode(text string) (TokenSequence, error) {
	if !utf8.ValidString(text) {
		return nil, core.Errorf(core.ErrUnsupportedCharacter, "invalid UTF-8 at byte %d", invalidOffset(text))
	}
	return TokenSequence(t.enc.EncodeOrdinary(text)), nil
}

// Decode converts tokens back to text, failing on the first id that is not
// part of the vocabulary.
func (t *Tokenizer) Decode(tokens TokenSequence) (string, error) {
	for i, id := range tokens {
		if !t.Valid(id) {
			return "", core.Errorf(core.ErrInvalidTokenID, "token %d at position %d", id, i)
		}
	}
	return t.enc.Decode(tokens), nil
}

// Valid reports whether id maps to an ordinary or special token.
func (t *Tokenizer) Valid(id int) bool {
	if id < 0 {
		return false
	}
	// tiktoken drops unknown ids while decoding, and every known id decodes
	// to at least one byte.
	return len(t.enc.Decode([]int{id})) > 0
}

// Count returns the number of tokens text encodes to.
func (t *Tokenizer) Count(text string) (int, error) {
	tokens, err := t.Encode(text)
	if err != nil {
		return 0, err
	}
	return len(tokens), nil
}

func invalidOffset(s string) int {
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size <= 1 {
			return i
		}
		i += size
	}
	return len(s)
}
