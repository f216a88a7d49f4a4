package intent

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/ashureev/campus-assistant/internal/tools"
)

func TestDescribe(t *testing.T) {
	req := func(args map[string]any) tools.Call { return tools.NewCall(tools.CreateRequirement, args) }
	tests := []struct {
		name string
		call tools.Call
		want string
	}{
		{"add subject", req(map[string]any{tools.ArgType: tools.ReqAddSubject, tools.ArgCode: "MAT-102"}), "um requerimento de adicao de materia MAT-102"},
		{"remove subject", req(map[string]any{tools.ArgType: tools.ReqRemoveSubject, tools.ArgCode: "ALG-101"}), "um requerimento de remocao de materia ALG-101"},
		{"declaration", req(map[string]any{tools.ArgType: tools.ReqDeclaration, tools.ArgDeclaration: "completion"}), "um requerimento de declaracao de conclusao"},
		{"invoice", req(map[string]any{tools.ArgType: tools.ReqInvoice, tools.ArgAmount: 850.0}), "um requerimento de segunda via de boleto (R$ 850.00)"},
		{"lock", req(map[string]any{tools.ArgType: tools.ReqLock}), "um requerimento de trancamento"},
		{"untyped", req(nil), "um requerimento"},
		{"not a requirement", tools.NewCall(tools.ListCourses, nil), ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Describe(tt.call))
		})
	}
}

func TestConfirmationPrompt(t *testing.T) {
	call := tools.NewCall(tools.CreateRequirement, map[string]any{tools.ArgType: tools.ReqAddSubject, tools.ArgCode: "MAT-102"})
	assert.Equal(t, "Posso abrir um requerimento de adicao de materia MAT-102. Quer que eu abra?", ConfirmationPrompt(call))
	assert.Equal(t, "Posso abrir esse requerimento para voce. Quer que eu abra?", ConfirmationPrompt(tools.NewCall(tools.StudentProfile, nil)))
}
