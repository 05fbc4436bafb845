package parse

import (
	"strings"

	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"
)

// Top-level record in Codex JSONL
type codexRecord struct {
	Timestamp string         `json:"timestamp"`
	Type      string         `json:"type"`
	Payload   jsontext.Value `json:"payload"`
}

// codexPart is one entry of a message content or reasoning summary list.
type codexPart struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// DecodeCodex decodes one line of a Codex session log. Response items are
// normalized into content blocks so callers can treat both dialects alike.
func DecodeCodex(line []byte, lineNum int) (Record, bool) {
	var rec codexRecord
	if err := json.Unmarshal(line, &rec, decodeOptions); err != nil {
		return Record{}, false
	}

	r := Record{Line: lineNum, Kind: KindUnknown, Timestamp: rec.Timestamp}
	if len(rec.Payload) == 0 {
		return r, true
	}

	switch rec.Type {
	case "session_meta":
		meta, ok := decodeFields(rec.Payload)
		if !ok {
			return Record{}, false
		}
		r.Kind = KindSessionMeta
		r.Meta = &SessionMeta{
			ID:         meta.str("id"),
			Cwd:        meta.str("cwd"),
			CLIVersion: meta.str("cli_version"),
			Originator: meta.str("originator"),
		}
		if git, ok := decodeFields(meta["git"]); ok {
			r.Meta.GitBranch = git.str("branch")
		}
		r.Cwd = r.Meta.Cwd
		r.GitBranch = r.Meta.GitBranch
		r.Version = r.Meta.CLIVersion
		r.UUID = r.Meta.ID
		if r.Timestamp == "" {
			r.Timestamp = meta.str("timestamp")
		}

	case "response_item":
		item, ok := decodeFields(rec.Payload)
		if !ok {
			return Record{}, false
		}
		r.Kind = KindResponseItem
		r.Role = item.str("role")
		r.Item = &ResponseItem{
			Type:      item.str("type"),
			Role:      r.Role,
			Name:      item.str("name"),
			CallID:    item.str("call_id"),
			Arguments: item.args("arguments"),
			Output:    codexOutput(item["output"]),
		}
		r.Blocks, r.DroppedBlocks = codexBlocks(item, r.Item)
	}
	return r, true
}

func codexBlocks(fields objectFields, item *ResponseItem) ([]ContentBlock, int) {
	switch item.Type {
	case "message":
		content, dropped := fields.parts("content")
		var out []ContentBlock
		for _, c := range content {
			if (c.Type == "input_text" || c.Type == "output_text" || c.Type == "text") && c.Text != "" {
				out = append(out, ContentBlock{Type: BlockText, Text: c.Text})
			}
		}
		return out, dropped
	case "reasoning":
		summary, dropped := fields.parts("summary")
		var parts []string
		for _, s := range summary {
			if s.Text != "" {
				parts = append(parts, s.Text)
			}
		}
		if len(parts) == 0 {
			return nil, dropped
		}
		return []ContentBlock{{Type: BlockThinking, Text: strings.Join(parts, "\n")}}, dropped
	case "function_call", "custom_tool_call":
		args := item.Arguments
		if args == "" {
			// custom_tool_call
			args = fields.args("input")
		}
		return []ContentBlock{{
			Type:  BlockToolUse,
			ID:    item.CallID,
			Name:  item.Name,
			Input: decodeInput(jsontext.Value(args)),
		}}, 0
	case "function_call_output", "custom_tool_call_output":
		return []ContentBlock{{
			Type:      BlockToolResult,
			ID:        item.CallID,
			Result:    item.Output,
			RawResult: string(fields["output"]),
		}}, 0
	}
	return nil, 0
}

// codexOutput flattens a function_call_output payload. Depending on the CLI
// version it is plain text, an object carrying an "output" string, or that
// object serialized into a string.
func codexOutput(raw jsontext.Value) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s, decodeOptions); err == nil {
		if out, ok := wrappedOutput([]byte(s)); ok {
			return out
		}
		return s
	}
	if out, ok := wrappedOutput(raw); ok {
		return out
	}
	return string(raw)
}

func wrappedOutput(b []byte) (string, bool) {
	var wrapped struct {
		Output string `json:"output"`
	}
	if err := json.Unmarshal(b, &wrapped, decodeOptions); err != nil || wrapped.Output == "" {
		return "", false
	}
	return wrapped.Output, true
}
