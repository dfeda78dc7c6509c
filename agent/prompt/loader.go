package prompt

import (
	_ "embed"
	"strings"
)

//go:embed template/intent_extractor.txt
var intentExtractorRaw string

// PromptSet holds loaded prompt content.
type PromptSet struct {
	IntentExtractor string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings. Safe to call
// concurrently; the embed is compile-time.
func LoadPromptSet() PromptSet {
	return PromptSet{
		IntentExtractor: strings.TrimSpace(intentExtractorRaw),
	}
}
