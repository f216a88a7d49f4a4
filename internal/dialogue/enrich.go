package dialogue

import (
	"strings"

	"github.com/ashureev/campus-assistant/internal/textnorm"
	"github.com/ashureev/campus-assistant/internal/tools"
)

// enrich appends follow-up information to a successful requirement reply.
// Recognition is keyword based and never alters the backend text itself.
func enrich(call tools.Call, reply, portalURL string) string {
	if call.Name != tools.CreateRequirement || portalURL == "" {
		return reply
	}
	folded := textnorm.Fold(reply)
	ok := textnorm.ContainsAny(folded, []string{"sucesso", "processado"})

	var b strings.Builder
	b.WriteString(reply)
	switch call.Arg(tools.ArgType) {
	case tools.ReqDeclaration:
		if ok || textnorm.ContainsAny(folded, []string{"concluido", "criado"}) {
			b.WriteString("\n\n**Seu documento está pronto!**")
			b.WriteString("\nVocê pode acessar e baixar sua declaração através do portal acadêmico.")
			b.WriteString("\n\nAcesse o portal em " + portalURL + " para ver seu documento.")
		}
	case tools.ReqInvoice:
		if ok {
			b.WriteString("\n\n**Boleto gerado com sucesso!**")
			b.WriteString("\nVocê receberá o boleto por email em breve.")
			b.WriteString("\nVencimento: confira a data no boleto enviado.")
			b.WriteString("\nPortal: " + portalURL)
		}
	case tools.ReqTransfer:
		if ok {
			b.WriteString("\n\n**Transferência solicitada!**")
			b.WriteString("\nSua solicitação foi registrada no sistema.")
			b.WriteString("\nTempo estimado: 5 a 10 dias úteis.")
			b.WriteString("\nPortal: " + portalURL)
		}
	case tools.ReqLock:
		if ok {
			b.WriteString("\n\n**Trancamento registrado!**")
			b.WriteString("\nVocê poderá retomar seus estudos quando desejar.")
			b.WriteString("\nEm caso de dúvidas, fale com a coordenação.")
			b.WriteString("\nPortal: " + portalURL)
		}
	case tools.ReqDiploma:
		if ok {
			b.WriteString("\n\n**Diploma solicitado!**")
			b.WriteString("\nTempo de impressão: até 15 dias úteis.")
			b.WriteString("\nRetire no setor de registros.")
			b.WriteString("\nPortal: " + portalURL)
		}
	}
	if strings.Contains(folded, "protocolo") {
		b.WriteString("\n\n**Acompanhe seu requerimento:**")
		b.WriteString("\nPortal do Aluno: " + portalURL)
		b.WriteString("\n(Faça login com sua matrícula e senha)")
	}
	return b.String()
}
