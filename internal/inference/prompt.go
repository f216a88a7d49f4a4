package inference

import (
	"fmt"
	"strings"

	"github.com/ashureev/campus-assistant/internal/tools"
)

// BuildPrompt renders the classification prompt for one utterance.
func BuildPrompt(utterance string, registry *tools.Registry, authenticated bool) string {
	var b strings.Builder

	b.WriteString("Você é o assistente acadêmico de uma faculdade. Classifique a mensagem do aluno.\n\n")
	b.WriteString("Ferramentas disponíveis:\n")
	for _, d := range registry.List() {
		fmt.Fprintf(&b, "- %s (%s): %s\n", d.Name, d.Visibility, d.Summary)
	}

	b.WriteString("\nTipos de requerimento (argumento \"type\" de create-requirement): ")
	b.WriteString(strings.Join([]string{
		tools.ReqAddSubject, tools.ReqRemoveSubject, tools.ReqDeclaration, tools.ReqInvoice,
		tools.ReqLock, tools.ReqDiploma, tools.ReqCertificate, tools.ReqTransfer, tools.ReqAddress,
	}, ", "))
	b.WriteString(".\nOutros argumentos: code (ex: ALG-101), declaration (enrollment|attendance|completion), ")
	b.WriteString("amount, reason, transfer (internal|external), question, course.\n\n")

	if authenticated {
		b.WriteString("USUÁRIO ATUAL: LOGADO (pode usar todas as ferramentas).\n")
	} else {
		b.WriteString("USUÁRIO ATUAL: NÃO LOGADO (use apenas ferramentas public; para as demais, oriente a fazer login).\n")
	}

	b.WriteString(`
Responda SOMENTE com JSON, em um destes formatos:
{"acao": "ferramenta", "ferramenta": "<nome>", "argumentos": {...}}
{"acao": "conversa", "resposta": "<texto>"}

Exemplos:
- "quero adicionar matéria ALG-101" -> {"acao": "ferramenta", "ferramenta": "create-requirement", "argumentos": {"type": "add-subject", "code": "ALG-101"}}
- "minhas matérias" -> {"acao": "ferramenta", "ferramenta": "student-query", "argumentos": {"question": "minhas matérias"}}
- "quais são os cursos?" -> {"acao": "ferramenta", "ferramenta": "list-courses", "argumentos": {}}
- "qual é a capital da França?" -> {"acao": "conversa", "resposta": "A capital da França é Paris."}
`)
	fmt.Fprintf(&b, "\nMensagem: %s\n\nResposta JSON:", utterance)
	return b.String()
}
