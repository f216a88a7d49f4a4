package intent

import (
	"fmt"

	"github.com/ashureev/campus-assistant/internal/tools"
)

// Describe returns a short Portuguese description of a requirement call,
// e.g. "um requerimento de adicao de materia MAT-102". Other calls yield "".
func Describe(call tools.Call) string {
	if call.Name != tools.CreateRequirement {
		return ""
	}
	kind := call.Arg(tools.ArgType)
	code := call.Arg(tools.ArgCode)

	switch kind {
	case "":
		return "um requerimento"
	case tools.ReqDeclaration:
		if d := call.Arg(tools.ArgDeclaration); d != "" {
			return "um requerimento de declaracao de " + tools.DeclarationWireName(d)
		}
		return "um requerimento de declaracao"
	case tools.ReqAddSubject:
		if code != "" {
			return "um requerimento de adicao de materia " + code
		}
		return "um requerimento de adicao de materia"
	case tools.ReqRemoveSubject:
		if code != "" {
			return "um requerimento de remocao de materia " + code
		}
		return "um requerimento de remocao de materia"
	case tools.ReqInvoice:
		switch v := call.Args[tools.ArgAmount].(type) {
		case float64:
			return fmt.Sprintf("um requerimento de segunda via de boleto (R$ %.2f)", v)
		case int:
			return fmt.Sprintf("um requerimento de segunda via de boleto (R$ %.2f)", float64(v))
		}
		return "um requerimento de segunda via de boleto"
	}
	return "um requerimento de " + tools.RequirementWireName(kind)
}

// ConfirmationPrompt asks whether the described call should be opened.
func ConfirmationPrompt(call tools.Call) string {
	if d := Describe(call); d != "" {
		return "Posso abrir " + d + ". Quer que eu abra?"
	}
	return "Posso abrir esse requerimento para voce. Quer que eu abra?"
}
