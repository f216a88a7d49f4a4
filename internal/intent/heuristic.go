package intent

import (
	"fmt"
	"hash/fnv"
	"regexp"
	"strings"
	"time"

	"github.com/ashureev/campus-assistant/internal/mathexpr"
	"github.com/ashureev/campus-assistant/internal/textnorm"
)

var arithmeticRe = regexp.MustCompile(`\(*\s*\d[\d.]*(?:\s*(?:\*\*|//|[-+*/%])\s*\(*\s*\d[\d.]*\s*\)*)+`)

// Responder produces canned small-talk replies when nothing else applies.
type Responder struct {
	lex *Lexicon
	now func() time.Time
}

// NewResponder creates a Responder. A nil clock uses time.Now.
func NewResponder(lex *Lexicon, now func() time.Time) *Responder {
	if now == nil {
		now = time.Now
	}
	return &Responder{lex: lex, now: now}
}

// Respond always returns a reply.
func (r *Responder) Respond(in Input) string {
	h := r.lex.Heuristic
	f := in.Folded

	if textnorm.ContainsAny(f, h.Wellbeing) {
		switch {
		case strings.Contains(f, "como vai"), strings.Contains(f, "como esta"):
			return "Estou ótimo, obrigado por perguntar! E você, como está? Posso ajudá-lo em algo?"
		case strings.Contains(f, "tudo bem"):
			return "Tudo certo! E com você? Como posso ajudá-lo?"
		}
		return "Tudo bem sim! Pronto para ajudar você. O que você precisa?"
	}
	if textnorm.ContainsAny(f, h.Thanks) {
		return pick(h.ThanksReplies, f)
	}
	if textnorm.ContainsAny(f, h.Farewells) {
		return "Até logo! Volte sempre que precisar de ajuda!"
	}
	if textnorm.ContainsAny(f, h.Praise) && textnorm.ContainsAny(f, h.PraiseTargets) {
		return "Obrigado! Fico feliz em ajudar. Meu objetivo é tornar sua vida acadêmica mais fácil e confortável!"
	}
	if textnorm.HasAnyWord(f, h.Identity) {
		return "Sou o assistente acadêmico da faculdade! Estou aqui para ajudar você com tudo relacionado à sua vida acadêmica: " +
			"requerimentos, matérias, notas, boletos, declarações e muito mais. Também posso conversar sobre outros assuntos!"
	}
	if textnorm.HasAnyWord(f, h.Time) {
		now := r.now()
		return fmt.Sprintf("Agora são %s em %s.", now.Format("15:04"), now.Format("02/01/2006"))
	}
	if textnorm.ContainsAny(f, h.Jokes) {
		return pick(h.JokeReplies, f)
	}
	if textnorm.ContainsAny(f, h.Arithmetic) {
		if loc := arithmeticRe.FindStringIndex(in.Raw); loc != nil {
			op := in.Raw[loc[0]:loc[1]]
			if v, err := mathexpr.Eval(op); err == nil {
				return fmt.Sprintf("Deixe-me calcular: %s = %s", op, v)
			}
		}
	}
	for _, t := range h.Topics {
		if t.Keyword != "" && strings.Contains(f, t.Keyword) {
			return t.Reply
		}
	}

	switch {
	case strings.Contains(in.Raw, "?") && textnorm.HasAnyWord(f, h.QuestionWords):
		return pick(h.QuestionReplies, f)
	case strings.Contains(in.Raw, "?"):
		return pick(h.OtherQuestionReplies, f)
	}
	return pick(h.StatementReplies, f)
}

// pick chooses a variant deterministically from the text.
func pick(options []string, key string) string {
	if len(options) == 0 {
		return ""
	}
	h := fnv.New32a()
	_, _ = h.Write([]byte(key))
	return options[h.Sum32()%uint32(len(options))]
}
