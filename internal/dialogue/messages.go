package dialogue

import (
	"fmt"

	"github.com/ashureev/campus-assistant/internal/domain"
	"github.com/ashureev/campus-assistant/internal/tools"
)

const (
	msgWizardIntro = "**Cadastro de Novo Aluno**\n\n" +
		"Ótimo! Vou te ajudar a fazer seu cadastro.\n" +
		"Vou te fazer algumas perguntas para coletar suas informações.\n\n" +
		"Você confirma que deseja iniciar o cadastro?\nResponda: Sim ou Não"
	msgWizardDeclined  = "Tudo bem! Se mudar de ideia, é só me avisar."
	msgWizardReprompt  = "Não entendi. Você deseja fazer o cadastro? Responda Sim ou Não."
	msgInterestDenied  = "Tudo bem! Se mudar de ideia, é só me chamar."
	msgServiceDenied   = "Tudo bem! Se precisar depois, é só me chamar."
	msgGenericDenied   = "Tudo bem. Se precisar de algo, estou aqui."
	msgExecutionFailed = "Desculpe, não consegui concluir essa operação agora. Tente novamente em alguns instantes."
	msgInternalError   = "Desculpe, ocorreu um erro inesperado ao processar sua mensagem. Tente novamente."
	msgLoggedOut       = "Você saiu da sua conta. Até a próxima!"
	msgAnonymousLogout = "Você não está logado."
	msgEmpty           = "Não entendi. Pode repetir?"

	loginPurposeGeneric = "usar este recurso"
	loginPurposeSubject = "adicionar matérias"

	msgCoursesUnavailable = "**Cursos Disponíveis**\n\n" +
		"Atualmente temos diversos cursos nas áreas de:\n" +
		"• Ciência da Computação\n• Engenharias\n• Administração\n• Direito\n• Saúde\n\n" +
		"**Para mais informações:**\n" +
		"• Entre em contato com a secretaria\n" +
		"• Visite nosso site institucional\n" +
		"• Ou faça seu cadastro para ter acesso completo ao sistema\n\n" +
		"Nota: a listagem de cursos está temporariamente indisponível. Tente novamente mais tarde."
)

func unavailableText(call tools.Call, wire string) string {
	if call.Name == tools.ListCourses {
		return msgCoursesUnavailable
	}
	return fmt.Sprintf("A ferramenta '%s' está temporariamente indisponível.\n\n"+
		"Dica: tente novamente em alguns instantes ou entre em contato com o suporte.", wire)
}

func welcomeText(p tools.Principal) string {
	return fmt.Sprintf("Login realizado com sucesso! Bem-vindo(a), %s.", p.DisplayName)
}

func interestConfirmedText(code string) string {
	return fmt.Sprintf("Perfeito! Vou abrir um requerimento para adicionar %s à sua grade.", code)
}

func fieldPrompt(w *domain.RegistrationWizard) string {
	field, ok := w.Current()
	if !ok {
		return ""
	}
	pos, total := w.Progress()
	optional := ""
	if field.Optional {
		optional = " (opcional)"
	}
	return fmt.Sprintf("**Campo %d/%d**%s\n\n%s", pos, total, optional, field.Prompt)
}
