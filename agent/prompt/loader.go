package prompt

import (
	_ "embed"
	"strings"
)

var (
	//go:embed template/verifier.txt
	verifierRaw string

	//go:embed template/router.txt
	routerRaw string
)

// PromptSet holds the system prompts for each model binding.
type PromptSet struct {
	Verifier string
	Router   string
}

// LoadPromptSet returns the embedded prompts, trimmed. Safe to call
// concurrently; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Verifier: strings.TrimSpace(verifierRaw),
		Router:   strings.TrimSpace(routerRaw),
	}
}
