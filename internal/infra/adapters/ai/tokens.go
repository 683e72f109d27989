package ai

import (
	"github.com/pkoukk/tiktoken-go"
)

// estimateTokens counts tokens with the model's tokenizer when available,
// falling back to the rough chars/4 heuristic otherwise. Used when the
// provider response carries no usage data.
func estimateTokens(model, text string) int {
	if text == "" {
		return 1
	}
	if enc, err := tiktoken.EncodingForModel(model); err == nil {
		if n := len(enc.Encode(text, nil, nil)); n > 0 {
			return n
		}
	}
	return heuristicTokens(text)
}

func heuristicTokens(text string) int {
	n := len(text) / 4
	if n < 1 {
		n = 1
	}
	return n
}
