// Package profile classifies a (model id, backend name) pair into one of
// three behavioral profiles that drive prompt construction, validation, and
// the retry budget:
//
//   - Reasoning: chain-of-thought models that leak thinking text and need
//     strict output control.
//   - MTLike: dedicated machine-translation backends that degrade when
//     over-instructed.
//   - Chat: general chat-tuned models (the default).
package profile

import "strings"

// Profile is the behavioral classification of a model backend.
type Profile int

const (
	Chat Profile = iota
	Reasoning
	MTLike
)

func (p Profile) String() string {
	switch p {
	case Reasoning:
		return "reasoning"
	case MTLike:
		return "mt-like"
	default:
		return "chat"
	}
}

// Keyword tables are fixed: they are matched as substrings of the lowercased
// model id or backend name.
var (
	reasoningKeywords = []string{"reason", "r1", "deepseek-reasoner", "o1", "o3"}
	mtLikeKeywords    = []string{"mimo", "nmt", "translate", "opus-mt"}

	// General chat models that use MT-style names (qwen-mt-*) must not be
	// classified as MT-like.
	mtExclusionKeywords = []string{"qwen"}
)

// Classify maps a model id and backend name to a Profile. Pure and total;
// precedence, first match wins:
//
//  1. Reasoning when the model id carries a chain-of-thought marker.
//  2. MTLike when the backend name matches an MT keyword; backend identity
//     is more reliable than model naming, so it is checked first.
//  3. MTLike when the model id matches an MT keyword and is not on the
//     exclusion list.
//  4. Chat otherwise.
func Classify(modelID, backendName string) Profile {
	model := strings.ToLower(modelID)
	backend := strings.ToLower(backendName)

	if containsAny(model, reasoningKeywords) {
		return Reasoning
	}
	if containsAny(backend, mtLikeKeywords) {
		return MTLike
	}
	if !containsAny(model, mtExclusionKeywords) && containsAny(model, mtLikeKeywords) {
		return MTLike
	}
	return Chat
}

// MaxAttempts returns the generation attempt budget for the profile.
// MT-like failures are systematic rather than retry-recoverable, and
// reasoning models rarely improve on retry, so only chat models get a
// second attempt.
func (p Profile) MaxAttempts() int {
	if p == Chat {
		return 2
	}
	return 1
}

func containsAny(s string, keywords []string) bool {
	for _, kw := range keywords {
		if strings.Contains(s, kw) {
			return true
		}
	}
	return false
}
