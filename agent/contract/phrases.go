package contract

import "strings"

// Phrase heuristics over assistant text. These are brittle by nature and kept
// as isolated predicates with enumerable lists so a structured signal can
// replace them without touching control flow.

// identificationRequestPhrases marks an assistant turn that is asking the user
// for an account identifier. The router must not escape such a turn to a
// specialist.
var identificationRequestPhrases = []string{
	"account id",
	"account number",
	"verify",
}

// waitingPromptPhrases is the broader list the controller uses to decide the
// assistant's reply is a question that must wait for user input before any
// routing happens.
var waitingPromptPhrases = []string{
	"account id",
	"account number",
	"need your",
	"clarify",
	"what is",
	"how can i help you today?",
}

// closingPhrases marks an assistant reply that keeps the conversation open
// when the model declined to pick a route.
var closingPhrases = []string{
	"anything else",
	"how else can i help",
	"need more help",
}

func containsAny(text string, phrases []string) bool {
	lowered := strings.ToLower(text)
	for _, p := range phrases {
		if strings.Contains(lowered, p) {
			return true
		}
	}
	return false
}

// IsIdentificationRequest reports whether assistant text is asking for an
// account identifier.
func IsIdentificationRequest(text string) bool {
	return containsAny(text, identificationRequestPhrases)
}

// IsWaitingPrompt reports whether assistant text requires the user to answer
// before the turn can proceed.
func IsWaitingPrompt(text string) bool {
	return containsAny(text, waitingPromptPhrases)
}

// IsClosingRemark reports whether assistant text invites a follow-up.
func IsClosingRemark(text string) bool {
	return containsAny(text, closingPhrases)
}
