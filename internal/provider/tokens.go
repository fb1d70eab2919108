package provider

import (
	"github.com/pkoukk/tiktoken-go"
)

const fallbackEncoding = "cl100k_base"

// estimateTokens counts tokens of text with the model's encoding, falling
// back to cl100k_base and then to a bytes/4 approximation.
func estimateTokens(model, text string) int {
	if text == "" {
		return 0
	}
	enc, err := tiktoken.EncodingForModel(model)
	if err != nil {
		enc, err = tiktoken.GetEncoding(fallbackEncoding)
	}
	if err != nil {
		return (len(text) + 3) / 4
	}
	return len(enc.Encode(text, nil, nil))
}
