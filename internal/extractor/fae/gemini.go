package fae

import "encoding/json"

// geminiExport mirrors Google's conversation export shape: a "turns" array
// of role/parts pairs, each part a plain-text string.
type geminiExport struct {
	ConversationID string `json:"conversationId"`
	Turns          []struct {
		Role  string   `json:"role"`
		Parts []string `json:"parts"`
	} `json:"turns"`
}

func mapGemini(raw []byte) (Conversation, error) {
	var export geminiExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return Conversation{}, err
	}
	conv := Conversation{ConversationID: export.ConversationID}
	for _, turn := range export.Turns {
		for _, part := range turn.Parts {
			conv.Messages = append(conv.Messages, Message{Role: turn.Role, Content: part})
		}
	}
	return conv, nil
}
