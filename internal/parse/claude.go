package parse

import (
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Logs are append-only and written by several tool versions, so decoding
// tolerates invalid UTF-8 and duplicate keys rather than dropping the line.
var decodeOptions = json.JoinOptions(
	jsontext.AllowInvalidUTF8(true),
	jsontext.AllowDuplicateNames(true),
)

type claudeRecord struct {
	Type        string         `json:"type"`
	UUID        string         `json:"uuid"`
	ParentUUID  string         `json:"parentUuid"`
	IsMeta      bool           `json:"isMeta"`
	IsSidechain bool           `json:"isSidechain"`
	Timestamp   string         `json:"timestamp"`
	Cwd         string         `json:"cwd"`
	GitBranch   string         `json:"gitBranch"`
	Version     string         `json:"version"`
	Message     jsontext.Value `json:"message"`
}

type claudeContentBlock struct {
	Type      string         `json:"type"`
	Text      string         `json:"text"`
	Thinking  string         `json:"thinking"`
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Input     jsontext.Value `json:"input"`
	ToolUseID string         `json:"tool_use_id"`
	Content   jsontext.Value `json:"content"`
	IsError   bool           `json:"is_error"`
}

// DecodeClaude decodes one line of a Claude session log. The second result
// is false when the line is not a JSON object of the expected shape.
func DecodeClaude(line []byte, lineNum int) (Record, bool) {
	var rec claudeRecord
	if err := json.Unmarshal(line, &rec, decodeOptions); err != nil {
		return Record{}, false
	}

	r := Record{
		Line:        lineNum,
		Kind:        claudeKind(rec.Type),
		Timestamp:   rec.Timestamp,
		UUID:        rec.UUID,
		ParentUUID:  rec.ParentUUID,
		Cwd:         rec.Cwd,
		GitBranch:   rec.GitBranch,
		Version:     rec.Version,
		IsMeta:      rec.IsMeta,
		IsSidechain: rec.IsSidechain,
	}
	if r.Kind == KindUnknown || len(rec.Message) == 0 {
		return r, true
	}

	msg, ok := decodeFields(rec.Message)
	if !ok {
		// keep the envelope; the message just contributes no blocks
		return r, true
	}
	r.Role = msg.str("role")
	if r.Role == "" {
		r.Role = rec.Type
	}
	r.Blocks, r.DroppedBlocks = decodeClaudeContent(msg["content"])
	return r, true
}

func claudeKind(t string) Kind {
	switch t {
	case "user":
		return KindUser
	case "assistant":
		return KindAssistant
	default:
		return KindUnknown
	}
}

// decodeClaudeContent decodes string-or-array message content. Array items
// are decoded one at a time: an item with mistyped fields is dropped and
// counted while its siblings are kept.
func decodeClaudeContent(raw jsontext.Value) ([]ContentBlock, int) {
	if len(raw) == 0 {
		return nil, 0
	}

	// try string first
	var s string
	if err := json.Unmarshal(raw, &s, decodeOptions); err == nil {
		if s == "" {
			return nil, 0
		}
		return []ContentBlock{{Type: BlockText, Text: s}}, 0
	}

	var items []jsontext.Value
	if err := json.Unmarshal(raw, &items, decodeOptions); err != nil {
		return nil, 1
	}

	out := make([]ContentBlock, 0, len(items))
	dropped := 0
	for _, item := range items {
		var b claudeContentBlock
		if err := json.Unmarshal(item, &b, decodeOptions); err != nil {
			dropped++
			continue
		}
		switch b.Type {
		case "text":
			out = append(out, ContentBlock{Type: BlockText, Text: b.Text})
		case "thinking":
			text := b.Thinking
			if text == "" {
				text = b.Text
			}
			out = append(out, ContentBlock{Type: BlockThinking, Text: text})
		case "tool_use":
			out = append(out, ContentBlock{
				Type:  BlockToolUse,
				ID:    b.ID,
				Name:  b.Name,
				Input: decodeInput(b.Input),
			})
		case "tool_result":
			out = append(out, ContentBlock{
				Type:      BlockToolResult,
				ID:        b.ToolUseID,
				Result:    flattenResult(b.Content),
				RawResult: string(b.Content),
				IsError:   b.IsError,
			})
		}
	}
	return out, dropped
}

func decodeInput(raw jsontext.Value) map[string]any {
	if len(raw) == 0 {
		return nil
	}
	var input map[string]any
	if err := json.Unmarshal(raw, &input, decodeOptions); err != nil {
		return nil
	}
	return input
}

// flattenResult turns a tool_result payload (a string or an array of typed
// parts) into plain text. Unrecognized payloads are returned as serialized.
func flattenResult(raw jsontext.Value) string {
	if len(raw) == 0 {
		return ""
	}

	var s string
	if err := json.Unmarshal(raw, &s, decodeOptions); err == nil {
		return s
	}

	var parts []struct {
		Type string `json:"type"`
		Text string `json:"text"`
	}
	if err := json.Unmarshal(raw, &parts, decodeOptions); err == nil {
		var texts []string
		for _, p := range parts {
			if p.Text != "" {
				texts = append(texts, p.Text)
			}
		}
		return strings.Join(texts, "\n")
	}

	return string(raw)
}
