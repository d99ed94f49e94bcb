package llm

import (
	"fmt"
	"strings"
)

// Providers lists the supported values of Config.Provider.
var Providers = []string{"anthropic", "openai"}

// NewClient creates a raw LLM client based on the provided configuration.
func NewClient(cfg Config) (Client, error) {
	switch strings.ToLower(cfg.Provider) {
	case "openai":
		return newOpenAIClient(cfg)
	case "anthropic", "":
		return newAnthropicClient(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}

func orDefaultTokens(n int) int {
	if n <= 0 {
		return 4096
	}
	return n
}
