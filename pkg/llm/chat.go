package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/ollama"
	"github.com/tmc/langchaingo/llms/openai"
)

const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"

	DefaultOpenAIModel = "gpt-4o-mini"
	DefaultOllamaModel = "mistral"
	DefaultOllamaURL   = "http://localhost:11434"
	DefaultMaxTurns    = 10

	// NotFoundReply is what the model is told to say when retrieval finds
	// nothing relevant.
	NotFoundReply = "Not found in textbook. Try rephrasing."
)

const defaultSystemTemplate = `You are a concise AI tutor for Physical AI and Humanoid Robotics. Answer questions using ONLY retrieved textbook content.

Keep responses brief and direct. Use bullet points instead of long paragraphs when possible. Limit responses to 2-4 sentences for simple questions, max 1-2 paragraphs for complex ones.

Process:
1. Always use the ` + "`retrieve`" + ` tool first
2. Base answers STRICTLY on retrieved content only
3. Synthesize key points concisely
4. If information unavailable, briefly say: "` + NotFoundReply + `"`

// ChatConfig represents the configuration for the answering agent.
type ChatConfig struct {
	Provider       string
	Model          string
	APIKey         string
	BaseURL        string // OpenAI-compatible endpoint or Ollama server URL
	Temperature    float64
	MaxTokens      int
	MaxTurns       int
	SystemTemplate string
}

// RetrievalTool is the single tool offered to the model.
type RetrievalTool interface {
	Retrieve(ctx context.Context, query string) ([]string, error)
	Tool() llms.Tool
}

// Guard short-circuits messages that need no retrieval.
type Guard interface {
	IsGeneral(message string) bool
	Reply(message string) string
}

// Agent answers questions by letting the model call the retrieval tool until
// it produces a final answer.
type Agent struct {
	config ChatConfig
	llm    llms.Model
	tool   RetrievalTool
	guard  Guard
	log    *logrus.Entry
}

func (c ChatConfig) withDefaults() (ChatConfig, error) {
	if c.Provider == "" {
		c.Provider = ProviderOpenAI
	}
	if c.Model == "" {
		switch c.Provider {
		case ProviderOllama:
			c.Model = DefaultOllamaModel
		default:
			c.Model = DefaultOpenAIModel
		}
	}
	if c.Temperature < 0 || c.Temperature > 2 {
		return c, fmt.Errorf("temperature must be between 0 and 2")
	}
	if c.MaxTokens < 0 {
		return c, fmt.Errorf("max tokens cannot be negative")
	}
	if c.MaxTurns <= 0 {
		c.MaxTurns = DefaultMaxTurns
	}
	if c.SystemTemplate == "" {
		c.SystemTemplate = defaultSystemTemplate
	}
	return c, nil
}

// NewModel builds the chat model for the configured provider.
func NewModel(config ChatConfig) (llms.Model, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}

	switch config.Provider {
	case ProviderOpenAI:
		opts := []openai.Option{
			openai.WithToken(config.APIKey),
			openai.WithModel(config.Model),
		}
		if config.BaseURL != "" {
			opts = append(opts, openai.WithBaseURL(config.BaseURL))
		}
		model, err := openai.New(opts...)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM: %w", err)
		}
		return model, nil
	case ProviderOllama:
		serverURL := config.BaseURL
		if serverURL == "" {
			serverURL = DefaultOllamaURL
		}
		model, err := ollama.New(ollama.WithModel(config.Model), ollama.WithServerURL(serverURL))
		if err != nil {
			return nil, fmt.Errorf("failed to initialize LLM: %w", err)
		}
		return model, nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", config.Provider)
	}
}

// NewWithConfig creates an Agent backed by the configured provider.
func NewWithConfig(config ChatConfig, tool RetrievalTool, guard Guard) (*Agent, error) {
	model, err := NewModel(config)
	if err != nil {
		return nil, err
	}
	return NewAgent(config, model, tool, guard)
}

// NewAgent creates an Agent around an existing model. guard may be nil.
func NewAgent(config ChatConfig, model llms.Model, tool RetrievalTool, guard Guard) (*Agent, error) {
	config, err := config.withDefaults()
	if err != nil {
		return nil, err
	}
	if model == nil {
		return nil, fmt.Errorf("llm model is required")
	}
	if tool == nil {
		return nil, fmt.Errorf("retrieval tool is required")
	}

	return &Agent{
		config: config,
		llm:    model,
		tool:   tool,
		guard:  guard,
		log:    logrus.WithField("component", "agent"),
	}, nil
}

type turnState int

const (
	awaitingModel turnState = iota
	toolRequested
	toolFulfilled
	finalAnswer
)

func (s turnState) String() string {
	switch s {
	case awaitingModel:
		return "awaiting_model"
	case toolRequested:
		return "tool_requested"
	case toolFulfilled:
		return "tool_fulfilled"
	case finalAnswer:
		return "final_answer"
	}
	return "unknown"
}

// Answer returns the reply to a user message. General conversation is
// answered from the guard without calling the model.
func (a *Agent) Answer(ctx context.Context, message string) (string, error) {
	if a.guard != nil && a.guard.IsGeneral(message) {
		a.log.Debug("general question, skipping model")
		return a.guard.Reply(message), nil
	}

	history := []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, a.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, message),
	}
	opts := []llms.CallOption{
		llms.WithTools([]llms.Tool{a.tool.Tool()}),
		llms.WithTemperature(a.config.Temperature),
	}
	if a.config.MaxTokens > 0 {
		opts = append(opts, llms.WithMaxTokens(a.config.MaxTokens))
	}

	state := awaitingModel
	for turn := 1; turn <= a.config.MaxTurns; turn++ {
		log := a.log.WithFields(logrus.Fields{"turn": turn, "state": state})
		log.Debug("requesting completion")

		resp, err := a.llm.GenerateContent(ctx, history, opts...)
		if err != nil {
			return "", wrapProviderError(err)
		}
		if resp == nil || len(resp.Choices) == 0 {
			return "", fmt.Errorf("chat error: empty response from model")
		}

		choice := resp.Choices[0]
		if len(choice.ToolCalls) == 0 {
			state = finalAnswer
			log.WithField("state", state).Debug("model answered")
			return strings.TrimSpace(choice.Content), nil
		}

		state = toolRequested
		request := llms.MessageContent{Role: llms.ChatMessageTypeAI}
		for _, call := range choice.ToolCalls {
			request.Parts = append(request.Parts, call)
		}
		history = append(history, request)

		for _, call := range choice.ToolCalls {
			history = append(history, llms.MessageContent{
				Role: llms.ChatMessageTypeTool,
				Parts: []llms.ContentPart{llms.ToolCallResponse{
					ToolCallID: call.ID,
					Name:       toolName(call),
					Content:    a.runTool(ctx, call),
				}},
			})
		}
		state = toolFulfilled
	}

	a.log.WithField("max_turns", a.config.MaxTurns).Warn("agent stopped without a final answer")
	return "", ErrMaxTurns
}

type retrieveArgs struct {
	Query string `json:"query"`
}

// runTool executes one tool call. Failures are reported back to the model as
// the tool result so it can recover.
func (a *Agent) runTool(ctx context.Context, call llms.ToolCall) string {
	name := toolName(call)
	log := a.log.WithFields(logrus.Fields{"tool": name, "call_id": call.ID})

	if name != a.tool.Tool().Function.Name {
		log.Warn("model requested unknown tool")
		return fmt.Sprintf("Error: tool %q is not available", name)
	}

	var args retrieveArgs
	if err := json.Unmarshal([]byte(call.FunctionCall.Arguments), &args); err != nil {
		log.WithError(err).Warn("invalid tool arguments")
		return fmt.Sprintf("Error: invalid arguments for %s: %v", name, err)
	}

	passages, err := a.tool.Retrieve(ctx, args.Query)
	if err != nil {
		log.WithError(err).Error("tool execution failed")
		return fmt.Sprintf("Error executing tool %s: %v", name, err)
	}
	log.WithField("passages", len(passages)).Info("retrieved passages")

	if passages == nil {
		passages = []string{}
	}
	out, err := json.Marshal(passages)
	if err != nil {
		return fmt.Sprintf("Error encoding result of %s: %v", name, err)
	}
	return string(out)
}

func toolName(call llms.ToolCall) string {
	if call.FunctionCall == nil {
		return ""
	}
	return call.FunctionCall.Name
}
