package fae

import "encoding/json"

// chatgptExport mirrors the shape of a ChatGPT conversations.json export:
// a single conversation per file whose messages sit in a "mapping" object
// keyed by node id. The mapping is decoded into a Go map, so the order of
// messages in the resulting Conversation is not defined.
type chatgptExport struct {
	ConversationID string `json:"conversation_id"`
	Mapping        map[string]struct {
		Message *struct {
			Author struct {
				Role string `json:"role"`
			} `json:"author"`
			Content struct {
				Parts []string `json:"parts"`
			} `json:"content"`
		} `json:"message"`
	} `json:"mapping"`
}

func mapChatGPT(raw []byte) (Conversation, error) {
	var export chatgptExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return Conversation{}, err
	}
	conv := Conversation{ConversationID: export.ConversationID}
	for _, node := range export.Mapping {
		if node.Message == nil {
			continue
		}
		for _, part := range node.Message.Content.Parts {
			if part == "" {
				continue
			}
			conv.Messages = append(conv.Messages, Message{
				Role:    node.Message.Author.Role,
				Content: part,
			})
		}
	}
	return conv, nil
}
