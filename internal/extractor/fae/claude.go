package fae

import "encoding/json"

// claudeExport mirrors Anthropic's conversation export shape: an ordered
// "chat_messages" array with sender/text pairs.
type claudeExport struct {
	UUID         string `json:"uuid"`
	ChatMessages []struct {
		Sender string `json:"sender"`
		Text   string `json:"text"`
	} `json:"chat_messages"`
}

func mapClaude(raw []byte) (Conversation, error) {
	var export claudeExport
	if err := json.Unmarshal(raw, &export); err != nil {
		return Conversation{}, err
	}
	conv := Conversation{ConversationID: export.UUID}
	for _, m := range export.ChatMessages {
		conv.Messages = append(conv.Messages, Message{Role: m.Sender, Content: m.Text})
	}
	return conv, nil
}
