package mediation

import (
	"context"
	"sync"

	"github.com/aretw0/auticonnect/pkg/domain"
)

var directReplies = []string{
	"Entendo como você está se sentindo. Quer conversar mais sobre isso?",
	"Obrigado por compartilhar. É normal sentir-se assim às vezes. Como posso ajudar?",
	"Estou aqui para ouvir. Quer me contar mais sobre o que está acontecendo?",
	"Isso parece desafiador. Vamos pensar juntos em algumas estratégias que possam ajudar.",
	"Sua experiência é válida e importante. Como você tem lidado com isso até agora?",
}

var groupReplies = []string{
	"Que discussão interessante! Alguém mais gostaria de compartilhar sua experiência?",
	"Obrigado por compartilhar. Isso me faz pensar em como diferentes perspectivas enriquecem nossa conversa.",
	"Vamos explorar esse tópico um pouco mais. Alguém tem alguma pergunta sobre o que foi compartilhado?",
	"Esse é um ponto muito interessante! Como isso se relaciona com suas experiências pessoais?",
	"Parece que temos opiniões diversas aqui. Isso é ótimo para ampliar nossa compreensão do assunto.",
}

// EscalationReply is appended to replies flagged for human attention.
const EscalationReply = "Percebi que você pode estar passando por um momento difícil. " +
	"Um profissional da equipe será avisado. Se estiver em perigo, ligue para o CVV (188) ou o SAMU (192)."

// Canned rotates through fixed replies, one sequence per scope.
type Canned struct {
	mu     sync.Mutex
	direct int
	group  int
}

// NewCanned creates a Canned mediator.
func NewCanned() *Canned {
	return &Canned{}
}

// Mediate implements ports.Mediator.
func (c *Canned) Mediate(ctx context.Context, req domain.MediationRequest) (domain.Mediation, error) {
	if err := ctx.Err(); err != nil {
		return domain.Mediation{}, err
	}
	if Detect(req.Text) {
		return domain.Mediation{Reply: EscalationReply, Escalate: true}, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if req.Scope == domain.ScopeGroup {
		r := groupReplies[c.group%len(groupReplies)]
		c.group++
		return domain.Mediation{Reply: r}, nil
	}
	r := directReplies[c.direct%len(directReplies)]
	c.direct++
	return domain.Mediation{Reply: r}, nil
}
