package contract

import "context"

// TextModel is the plain conversational binding: free-text prompt in,
// free-text reply out.
type TextModel interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

// ToolCallingModel is the binding with the customer lookup capability
// attached. The returned turn is either plain assistant text or a tool
// invocation request.
type ToolCallingModel interface {
	Generate(ctx context.Context, prompt string) (Turn, error)
}

// IntentModel constrains the model to select exactly one of the offered
// intents. A choice with an empty Name means the model declined to select.
type IntentModel interface {
	Select(ctx context.Context, prompt string, options []IntentOption) (IntentChoice, error)
}

// Registry exposes the model bindings each handler declares it needs. They
// are explicit construction-time dependencies, never package globals.
type Registry interface {
	Text() TextModel
	Lookup() ToolCallingModel
	Intent() IntentModel
}

// Directory resolves an account identifier to a customer record. Lookup is
// pure; a missing account surfaces as ErrAccountNotFound.
type Directory interface {
	Lookup(ctx context.Context, accountID string) (*CustomerRecord, error)
}
