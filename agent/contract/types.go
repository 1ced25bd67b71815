package contract

import (
	"strings"
	"time"
)

type AgentType string

const (
	AgentTypeClassifier AgentType = "classifier"
	AgentTypeStock      AgentType = "stock"
	AgentTypePortfolio  AgentType = "portfolio"
	AgentTypeCoach      AgentType = "coach"
)

// Category is the routing label derived from classifier output.
type Category string

const (
	CategoryStock     Category = "STOCK"
	CategoryPortfolio Category = "PORTFOLIO"
	CategoryCoach     Category = "COACH"
	CategoryUnknown   Category = "UNKNOWN"
)

// ClarificationMessage is returned when no pipeline matches the category text.
const ClarificationMessage = "I need a bit more detail! Would you like to analyze a stock or learn a concept?"

// MatchCategory applies the ordered substring rules: STOCK, then PORTFOLIO,
// then COACH. Anything else is UNKNOWN.
func MatchCategory(text string) Category {
	switch {
	case strings.Contains(text, string(CategoryStock)):
		return CategoryStock
	case strings.Contains(text, string(CategoryPortfolio)):
		return CategoryPortfolio
	case strings.Contains(text, string(CategoryCoach)):
		return CategoryCoach
	default:
		return CategoryUnknown
	}
}

// ParseCategory accepts only an exact enumerated tag (case-insensitive).
func ParseCategory(tag string) (Category, bool) {
	switch c := Category(strings.ToUpper(strings.TrimSpace(tag))); c {
	case CategoryStock, CategoryPortfolio, CategoryCoach, CategoryUnknown:
		return c, true
	default:
		return "", false
	}
}

type ClassifyRequest struct {
	Query string `json:"query"`
}

type ClassifyResponse struct {
	Raw      string   `json:"raw"`
	Category Category `json:"category"`
}

type PipelineRequest struct {
	Query string `json:"query"`
}

type PipelineResponse struct {
	Raw       string       `json:"raw"`
	ToolCalls []ToolResult `json:"tool_calls,omitempty"`
}

type ToolRequest struct {
	CallID string         `json:"call_id,omitempty"`
	Tool   string         `json:"tool"`
	Args   map[string]any `json:"args,omitempty"`
}

type ToolResult struct {
	Tool   string `json:"tool"`
	Result any    `json:"result,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Exchange is one routed request as it is kept in history.
type Exchange struct {
	RequestID   string    `json:"request_id"`
	Query       string    `json:"query"`
	Category    Category  `json:"category"`
	ClassifyRaw string    `json:"classify_raw"`
	Reply       string    `json:"reply"`
	Error       string    `json:"error,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
