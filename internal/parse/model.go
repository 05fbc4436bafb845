package parse

import "strings"

// Dialect names one of the recognized session log schemas.
type Dialect string

const (
	DialectClaude  Dialect = "claude"
	DialectCodex   Dialect = "codex"
	DialectUnknown Dialect = "unknown"
)

// Kind is the tag of a Record.
type Kind string

const (
	KindUser         Kind = "user"
	KindAssistant    Kind = "assistant"
	KindSessionMeta  Kind = "session_meta"
	KindResponseItem Kind = "response_item"
	KindUnknown      Kind = "unknown"
)

// BlockType is the tag of a ContentBlock.
type BlockType string

const (
	BlockThinking   BlockType = "thinking"
	BlockText       BlockType = "text"
	BlockToolUse    BlockType = "tool_use"
	BlockToolResult BlockType = "tool_result"
)

// Record is one decoded line of a log file.
type Record struct {
	Line      int // 1-based line number in the file
	Kind      Kind
	Timestamp string

	UUID        string
	ParentUUID  string
	Cwd         string
	GitBranch   string
	Version     string
	IsMeta      bool
	IsSidechain bool

	Role   string
	Blocks []ContentBlock
	// DroppedBlocks counts content items skipped for having mistyped fields.
	DroppedBlocks int

	Meta *SessionMeta  // KindSessionMeta only
	Item *ResponseItem // KindResponseItem only
}

// ContentBlock is one part of a message.
type ContentBlock struct {
	Type BlockType
	Text string // thinking and text blocks

	// tool_use
	Name  string
	ID    string
	Input map[string]any

	// tool_result
	Result    string // flattened text payload
	RawResult string // serialized payload as it appeared in the log
	IsError   bool
}

// SessionMeta is the payload of a codex session_meta record.
type SessionMeta struct {
	ID         string
	Cwd        string
	CLIVersion string
	GitBranch  string
	Originator string
}

// ResponseItem is the payload of a codex response_item record.
type ResponseItem struct {
	Type      string
	Role      string
	Name      string
	CallID    string
	Arguments string
	Output    string
}

// IsUser reports whether the record was authored by the user.
func (r Record) IsUser() bool {
	switch r.Kind {
	case KindUser:
		return true
	case KindResponseItem:
		return r.Item != nil && r.Item.Type == "message" && r.Role == "user"
	}
	return false
}

// IsAssistant reports whether the record was produced by the agent.
func (r Record) IsAssistant() bool {
	switch r.Kind {
	case KindAssistant:
		return true
	case KindResponseItem:
		return r.Item != nil && r.Item.Type == "message" && r.Role == "assistant"
	}
	return false
}

// Text joins the record's text blocks.
func (r Record) Text() string {
	var parts []string
	for _, b := range r.Blocks {
		if b.Type == BlockText && b.Text != "" {
			parts = append(parts, b.Text)
		}
	}
	return strings.TrimSpace(strings.Join(parts, "\n"))
}

// ToolUses returns the record's tool_use blocks.
func (r Record) ToolUses() []ContentBlock {
	return r.blocksOf(BlockToolUse)
}

// ToolResults returns the record's tool_result blocks.
func (r Record) ToolResults() []ContentBlock {
	return r.blocksOf(BlockToolResult)
}

func (r Record) blocksOf(t BlockType) []ContentBlock {
	var out []ContentBlock
	for _, b := range r.Blocks {
		if b.Type == t {
			out = append(out, b)
		}
	}
	return out
}

// StringInput returns a string-valued tool input argument.
func (b ContentBlock) StringInput(key string) string {
	if b.Input == nil {
		return ""
	}
	s, _ := b.Input[key].(string)
	return s
}
