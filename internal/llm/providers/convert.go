package providers

import (
	"strings"

	"github.com/google/uuid"
	"github.com/tmc/langchaingo/llms"

	"github.com/mohamed-services/AgentLang/internal/llm"
)

// inlineSeparator frames the directive when it is folded into the human turn.
const inlineSeparator = "\n\n---\n\n"

// toSchemaMessages converts council messages to langchaingo MessageContent
func toSchemaMessages(messages []llm.Message) []llms.MessageContent {
	result := make([]llms.MessageContent, 0, len(messages))

	for _, msg := range messages {
		var role llms.ChatMessageType
		switch msg.Role {
		case llm.RoleSystem:
			role = llms.ChatMessageTypeSystem
		case llm.RoleAssistant:
			role = llms.ChatMessageTypeAI
		default:
			role = llms.ChatMessageTypeHuman
		}

		result = append(result, llms.MessageContent{
			Role:  role,
			Parts: []llms.ContentPart{llms.TextPart(msg.Content)},
		})
	}

	return result
}

// applyConvention reshapes messages for the back-end's calling convention.
// Under ConventionInline every system message is removed and its content is
// prepended to the first user message; if there is no user message the
// directive becomes one.
func applyConvention(convention llm.Convention, messages []llm.Message) []llm.Message {
	if convention != llm.ConventionInline {
		return messages
	}

	var directives []string
	rest := make([]llm.Message, 0, len(messages))
	for _, msg := range messages {
		if msg.Role == llm.RoleSystem {
			directives = append(directives, msg.Content)
			continue
		}
		rest = append(rest, msg)
	}

	if len(directives) == 0 {
		return rest
	}

	preamble := strings.Join(directives, "\n\n")
	for i, msg := range rest {
		if msg.Role == llm.RoleUser {
			rest[i] = llm.NewUserMessage(preamble + inlineSeparator + msg.Content)
			return rest
		}
	}

	return append([]llm.Message{llm.NewUserMessage(preamble)}, rest...)
}

// fromLangchainResponse converts a langchaingo response to a council response
func fromLangchainResponse(resp *llms.ContentResponse, model string) *llm.CompletionResponse {
	out := &llm.CompletionResponse{
		ID:           uuid.New().String(),
		Model:        model,
		Message:      llm.NewAssistantMessage(""),
		FinishReason: llm.FinishReasonStop,
	}

	if resp == nil || len(resp.Choices) == 0 {
		return out
	}

	choice := resp.Choices[0]
	out.Message.Content = choice.Content

	switch choice.StopReason {
	case "length", "max_tokens":
		out.FinishReason = llm.FinishReasonLength
	case "content_filter", "safety":
		out.FinishReason = llm.FinishReasonContentFilter
	}

	return out
}

// buildCallOptions converts a council request to langchaingo call options
func buildCallOptions(req llm.CompletionRequest, model string, defaultMaxTokens int) []llms.CallOption {
	callOpts := make([]llms.CallOption, 0, 3)

	if model != "" {
		callOpts = append(callOpts, llms.WithModel(model))
	}

	maxTokens := req.MaxTokens
	if maxTokens == 0 {
		maxTokens = defaultMaxTokens
	}
	if maxTokens > 0 {
		callOpts = append(callOpts, llms.WithMaxTokens(maxTokens))
	}

	if req.Temperature > 0 {
		callOpts = append(callOpts, llms.WithTemperature(req.Temperature))
	}

	return callOpts
}
