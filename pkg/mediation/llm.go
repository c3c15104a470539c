package mediation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aretw0/auticonnect/internal/logging"
	"github.com/aretw0/auticonnect/pkg/domain"
	"github.com/cloudwego/eino-ext/components/model/ark"
	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// AlertPrefix is what the model writes first when a professional must step in.
const AlertPrefix = "[ALERTA]"

// Runnable is the compiled chain the LLM mediator invokes.
// compose.Runnable[map[string]any, *schema.Message] satisfies it.
type Runnable interface {
	Invoke(ctx context.Context, input map[string]any, opts ...compose.Option) (*schema.Message, error)
}

// NewChain compiles the mediation chain: a system/user prompt template feeding cm.
func NewChain(ctx context.Context, cm model.BaseChatModel) (compose.Runnable[map[string]any, *schema.Message], error) {
	tpl := prompt.FromMessages(
		schema.FString,
		schema.SystemMessage("{system}"),
		schema.UserMessage("{query}"),
	)

	chain := compose.NewChain[map[string]any, *schema.Message]()
	chain.AppendChatTemplate(tpl)
	chain.AppendChatModel(cm)

	r, err := chain.Compile(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to compile mediation chain: %w", err)
	}
	return r, nil
}

// ArkConfig selects a Volcengine Ark model.
type ArkConfig struct {
	APIKey  string
	Model   string
	BaseURL string
	Region  string
}

// NewArkChain builds the mediation chain on an Ark chat model.
func NewArkChain(ctx context.Context, cfg ArkConfig) (compose.Runnable[map[string]any, *schema.Message], error) {
	if cfg.APIKey == "" || cfg.Model == "" {
		return nil, errors.New("ark mediator requires an API key and a model")
	}
	cm, err := ark.NewChatModel(ctx, &ark.ChatModelConfig{
		APIKey:  cfg.APIKey,
		Model:   cfg.Model,
		BaseURL: cfg.BaseURL,
		Region:  cfg.Region,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create chat model: %w", err)
	}
	return NewChain(ctx, cm)
}

// LLM mediates through a language model chain.
type LLM struct {
	chain  Runnable
	logger *slog.Logger
}

// LLMOption configures an LLM mediator.
type LLMOption func(*LLM)

// WithLogger sets the logger used for chain diagnostics.
func WithLogger(logger *slog.Logger) LLMOption {
	return func(l *LLM) {
		l.logger = logger
	}
}

// NewLLM creates a mediator over a compiled chain.
func NewLLM(chain Runnable, opts ...LLMOption) *LLM {
	l := &LLM{chain: chain, logger: logging.NewNop()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Mediate implements ports.Mediator.
func (l *LLM) Mediate(ctx context.Context, req domain.MediationRequest) (domain.Mediation, error) {
	msg, err := l.chain.Invoke(ctx, map[string]any{
		"system": systemPrompt(req),
		"query":  req.Text,
	})
	if err != nil {
		return domain.Mediation{}, fmt.Errorf("failed to run mediation chain: %w", err)
	}
	if msg == nil {
		return domain.Mediation{}, errors.New("mediation chain returned no message")
	}

	reply := strings.TrimSpace(msg.Content)
	escalate := Detect(req.Text)
	if rest, ok := strings.CutPrefix(reply, AlertPrefix); ok {
		escalate = true
		reply = strings.TrimSpace(rest)
	}
	l.logger.Debug("Mediation generated", "user_id", req.UserID, "scope", req.Scope, "length", len(reply), "escalate", escalate)
	return domain.Mediation{Reply: reply, Escalate: escalate}, nil
}

func systemPrompt(req domain.MediationRequest) string {
	var b strings.Builder
	b.WriteString("Você é o mediador do AutiConnect, um espaço seguro para interação entre pessoas autistas. ")
	b.WriteString("Responda em português, com frases curtas, literais e acolhedoras. Evite ironia e metáforas. ")
	if req.Scope == domain.ScopeGroup {
		b.WriteString("Você está em uma conversa de grupo: incentive a participação de todos e mantenha o tema. ")
	} else {
		b.WriteString("Você está em uma conversa privada de apoio individual. ")
	}
	if req.Role == domain.RoleFacilitator {
		b.WriteString("Quem escreve é um Auxiliar Terapêutico (AT); ofereça sugestões práticas de condução. ")
	}
	b.WriteString("Se a mensagem indicar risco ou necessidade de intervenção profissional, comece a resposta com ")
	b.WriteString(AlertPrefix)
	b.WriteString(".")
	return b.String()
}
