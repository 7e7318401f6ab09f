package contract

// Role tags a conversation turn by its author.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// ToolCustomerLookup is the only capability the assistant may request.
const ToolCustomerLookup = "customer_lookup"

// ToolCall is a structured request, emitted by the model, to execute a
// capability with a single string argument.
type ToolCall struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Argument string `json:"argument"`
}

// Turn is one entry in a session's message log. It is a tagged variant:
//   - user turn:        Role=user, Text set
//   - assistant turn:   Role=assistant, Text set, ToolCall optionally set
//   - tool result turn: Role=tool, Text set, ToolCallID+ToolName set,
//     matching the ToolCall.ID of the requesting assistant turn
type Turn struct {
	Role       Role      `json:"role"`
	Text       string    `json:"text,omitempty"`
	ToolCall   *ToolCall `json:"tool_call,omitempty"`
	ToolCallID string    `json:"tool_call_id,omitempty"`
	ToolName   string    `json:"tool_name,omitempty"`
}

func UserTurn(text string) Turn {
	return Turn{Role: RoleUser, Text: text}
}

func AssistantTurn(text string) Turn {
	return Turn{Role: RoleAssistant, Text: text}
}

func ToolCallTurn(call ToolCall) Turn {
	return Turn{Role: RoleAssistant, ToolCall: &call}
}

func ToolResultTurn(callID, toolName, text string) Turn {
	return Turn{Role: RoleTool, Text: text, ToolCallID: callID, ToolName: toolName}
}

// IsToolCall reports whether the turn is an assistant turn carrying a
// capability request.
func (t Turn) IsToolCall() bool {
	return t.Role == RoleAssistant && t.ToolCall != nil
}

// IsToolResult reports whether the turn is the outcome of an executed
// capability request.
func (t Turn) IsToolResult() bool {
	return t.Role == RoleTool
}

// CustomerRecord is an immutable snapshot of a directory entry. It is stored
// verbatim on the session after a successful verification and never partially
// updated.
type CustomerRecord struct {
	AccountID   string `json:"account_id"`
	Name        string `json:"name"`
	Address     string `json:"address"`
	ServicePlan string `json:"service_plan"`
	ModemMAC    string `json:"modem_mac"`
	Status      string `json:"status"`
	Outage      bool   `json:"outage"`
}

// RouteLabel is the router's decision space.
type RouteLabel string

const (
	RouteBilling            RouteLabel = "billing"
	RouteTechSupport        RouteLabel = "tech_support"
	RouteOutageCheck        RouteLabel = "outage_check"
	RouteGeneralInteraction RouteLabel = "general_interaction"
	RouteEnd                RouteLabel = "end"
)

// Wire-level intent names presented to the model as selectable tools.
const (
	IntentRouteToBilling            = "RouteToBilling"
	IntentRouteToTechSupport        = "RouteToTechSupport"
	IntentRouteToOutageCheck        = "RouteToOutageCheck"
	IntentRouteToGeneralInteraction = "RouteToGeneralInteraction"
	IntentRouteToEnd                = "RouteToEnd"
)

// IntentOption is one labeled intent offered to the constrained model binding.
type IntentOption struct {
	Name        string
	Description string
}

// IntentChoice is the model's selection. Name is empty when the model answered
// with free text instead of picking an intent; Content then carries that text.
type IntentChoice struct {
	Name    string
	Reason  string
	Content string
}
