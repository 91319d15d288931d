package assembler

import (
	"sync"

	"github.com/alchemy-game-studios/game-planner/pkg/logger"
	"github.com/pkoukk/tiktoken-go"
)

// TokenCounter estimates how many model tokens a text costs.
type TokenCounter interface {
	Count(text string) int
}

// ApproxCounter assumes four bytes per token.
type ApproxCounter struct{}

func (ApproxCounter) Count(text string) int {
	return (len(text) + 3) / 4
}

// TiktokenCounter counts with the o200k_base encoding. The encoding is
// loaded on first use; if it cannot be loaded, ApproxCounter is used.
type TiktokenCounter struct {
	once     sync.Once
	enc      *tiktoken.Tiktoken
	fallback ApproxCounter
}

func NewTiktokenCounter() *TiktokenCounter {
	return &TiktokenCounter{}
}

func (c *TiktokenCounter) Count(text string) int {
	c.once.Do(func() {
		enc, err := tiktoken.GetEncoding("o200k_base")
		if err != nil {
			logger.Warn("[Assembler][Tokens] o200k_base unavailable, estimating by length", "err", err)
			return
		}
		c.enc = enc
	})
	if c.enc == nil {
		return c.fallback.Count(text)
	}
	return len(c.enc.Encode(text, nil, nil))
}
