package domain

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

// BuildMessages returns the optional system message followed by the user question.
func BuildMessages(question, systemPrompt string) []ChatMessage {
	messages := make([]ChatMessage, 0, 2)
	if systemPrompt != "" {
		messages = append(messages, ChatMessage{Role: RoleSystem, Content: systemPrompt})
	}
	return append(messages, ChatMessage{Role: RoleUser, Content: question})
}

// BuildRequest turns a question and a variant into a streaming request.
// Every optional field is set; EncodeRequest drops what the provider rejects.
func BuildRequest(question string, variant Variant, defaultModel string) *CompletionRequest {
	model := strings.TrimSpace(variant.Model)
	if model == "" {
		model = defaultModel
	}

	req := &CompletionRequest{
		Model:            model,
		Stream:           true,
		Messages:         BuildMessages(question, variant.SystemPrompt),
		TopP:             &variant.TopP,
		FrequencyPenalty: &variant.FrequencyPenalty,
		PresencePenalty:  &variant.PresencePenalty,
		StreamOptions:    &StreamOptions{IncludeUsage: true},
		Temperature:      variant.Temperature,
	}
	if variant.MaxTokens > 0 {
		maxTokens := variant.MaxTokens
		req.MaxTokens = &maxTokens
	}

	return req
}

// EncodeRequest serializes req to JSON, omitting optional fields the
// capability does not support.
func EncodeRequest(req *CompletionRequest, capability ProviderCapability) ([]byte, error) {
	if req == nil {
		return nil, errors.New("request cannot be nil")
	}
	if capability == nil {
		return nil, errors.New("capability cannot be nil")
	}

	wire := *req
	if !capability.SupportsField(FieldMaxTokens) {
		wire.MaxTokens = nil
	}
	if !capability.SupportsField(FieldTopP) {
		wire.TopP = nil
	}
	if !capability.SupportsField(FieldFrequencyPenalty) {
		wire.FrequencyPenalty = nil
	}
	if !capability.SupportsField(FieldPresencePenalty) {
		wire.PresencePenalty = nil
	}
	if !capability.SupportsField(FieldStreamOptions) {
		wire.StreamOptions = nil
	}

	body, err := json.Marshal(&wire)
	if err != nil {
		return nil, fmt.Errorf("failed to encode request: %w", err)
	}
	return body, nil
}
