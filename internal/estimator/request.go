package estimator

import (
	"encoding/json"
	"strings"

	"github.com/sashabaranov/go-openai"
)

// Request is the part of a provider-shaped body the estimator needs.
type Request struct {
	Model    string
	Messages []Message
	Stream   bool
}

// ParseRequest extracts model and messages from a chat or embedding body.
// A missing or malformed body is treated as an empty object. Each field is
// decoded on its own, so a mistyped field falls back to its default without
// discarding the others. Messages whose shape cannot be decoded still count
// as turns, with empty content.
func ParseRequest(body []byte, defaultModel string) Request {
	var fields map[string]json.RawMessage
	if len(body) > 0 {
		if err := json.Unmarshal(body, &fields); err != nil {
			fields = nil
		}
	}

	var req Request
	var model string
	if decodeField(fields, "model", &model) {
		req.Model = strings.TrimSpace(model)
	}
	if req.Model == "" {
		req.Model = defaultModel
	}
	var stream bool
	if decodeField(fields, "stream", &stream) {
		req.Stream = stream
	}

	var messages []json.RawMessage
	if decodeField(fields, "messages", &messages) {
		for _, raw := range messages {
			req.Messages = append(req.Messages, decodeMessage(raw))
		}
	}
	if input, ok := fields["input"]; ok && len(req.Messages) == 0 {
		for _, text := range decodeInput(input) {
			req.Messages = append(req.Messages, Message{Role: openai.ChatMessageRoleUser, Content: text})
		}
	}
	return req
}

// decodeField unmarshals fields[key] into dst and reports whether it fit.
func decodeField(fields map[string]json.RawMessage, key string, dst any) bool {
	raw, ok := fields[key]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dst) == nil
}

func decodeMessage(raw json.RawMessage) Message {
	var msg openai.ChatCompletionMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return Message{}
	}
	if msg.Content != "" || len(msg.MultiContent) == 0 {
		return Message{Role: msg.Role, Content: msg.Content}
	}
	parts := make([]string, 0, len(msg.MultiContent))
	for _, part := range msg.MultiContent {
		if part.Type == openai.ChatMessagePartTypeText && part.Text != "" {
			parts = append(parts, part.Text)
		}
	}
	return Message{Role: msg.Role, Content: strings.Join(parts, " ")}
}

// decodeInput accepts the embeddings API "input" as a string or a list of
// strings. Token-id arrays are not text and are ignored.
func decodeInput(raw json.RawMessage) []string {
	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		return []string{single}
	}
	var many []string
	if err := json.Unmarshal(raw, &many); err == nil {
		return many
	}
	return nil
}
