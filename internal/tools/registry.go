package tools

import (
	"fmt"
	"sort"
)

// Operation names.
const (
	StudentProfile    = "student-profile"
	StudentQuery      = "student-query"
	ListCourses       = "list-courses"
	ListSubjects      = "list-subjects"
	CreateRequirement = "create-requirement"
	AcademicSummary   = "academic-summary"
	ListPayments      = "list-payments"
	RegisterStudent   = "register-student"
	ListStudents      = "list-students"
	Diagnose          = "diagnose"
)

// Requirement types accepted by CreateRequirement.
const (
	ReqAddSubject    = "add-subject"
	ReqRemoveSubject = "remove-subject"
	ReqDeclaration   = "declaration"
	ReqInvoice       = "invoice"
	ReqLock          = "lock"
	ReqDiploma       = "diploma"
	ReqCertificate   = "certificate"
	ReqTransfer      = "transfer"
	ReqAddress       = "address"
)

// Argument keys.
const (
	ArgType        = "type"
	ArgCode        = "code"
	ArgDeclaration = "declaration"
	ArgAmount      = "amount"
	ArgReason      = "reason"
	ArgTransfer    = "transfer"
	ArgQuestion    = "question"
	ArgCourse      = "course"
)

// Visibility says whether an operation needs an authenticated student.
type Visibility int

const (
	Public Visibility = iota
	Private
)

func (v Visibility) String() string {
	if v == Private {
		return "private"
	}
	return "public"
}

// MarshalText implements encoding.TextMarshaler.
func (v Visibility) MarshalText() ([]byte, error) {
	return []byte(v.String()), nil
}

// Descriptor is the static description of one operation.
type Descriptor struct {
	Name          string     `json:"name"`
	WireName      string     `json:"wire_name"`
	Visibility    Visibility `json:"visibility"`
	StateChanging bool       `json:"state_changing"`
	Required      []string   `json:"required,omitempty"`
	Summary       string     `json:"summary"`
}

// Registry maps operation names to descriptors.
type Registry struct {
	byName map[string]Descriptor
	byWire map[string]string
}

// NewRegistry builds a registry from descriptors.
func NewRegistry(descs ...Descriptor) *Registry {
	r := &Registry{
		byName: make(map[string]Descriptor, len(descs)),
		byWire: make(map[string]string, len(descs)),
	}
	for _, d := range descs {
		r.byName[d.Name] = d
		if d.WireName != "" {
			r.byWire[d.WireName] = d.Name
		}
	}
	return r
}

// DefaultRegistry returns the academic backend catalogue.
func DefaultRegistry() *Registry {
	return NewRegistry(
		Descriptor{Name: StudentProfile, WireName: "consultar_aluno", Visibility: Private,
			Summary: "dados pessoais do aluno logado"},
		Descriptor{Name: StudentQuery, WireName: "perguntar_sobre_aluno", Visibility: Private,
			Required: []string{ArgQuestion}, Summary: "perguntas sobre matérias, notas, boletos e frequência do aluno"},
		Descriptor{Name: ListCourses, WireName: "listar_cursos", Visibility: Public,
			Summary: "lista os cursos oferecidos, opcionalmente filtrando por código"},
		Descriptor{Name: ListSubjects, WireName: "listar_materias_disponiveis", Visibility: Public,
			Summary: "lista as disciplinas disponíveis"},
		Descriptor{Name: CreateRequirement, WireName: "criar_requerimento", Visibility: Private, StateChanging: true,
			Required: []string{ArgType}, Summary: "abre um requerimento acadêmico"},
		Descriptor{Name: AcademicSummary, WireName: "resumo_academico", Visibility: Private,
			Summary: "resumo do histórico acadêmico"},
		Descriptor{Name: ListPayments, WireName: "buscar_pagamentos", Visibility: Private,
			Summary: "boletos e pagamentos do aluno"},
		Descriptor{Name: RegisterStudent, WireName: "cadastrar_novo_aluno", Visibility: Public, StateChanging: true,
			Required: []string{"nome_completo", "cpf", "data_nascimento", "email", "senha"},
			Summary: "cadastra um novo aluno"},
		Descriptor{Name: ListStudents, WireName: "listar_alunos", Visibility: Public,
			Summary: "lista alunos cadastrados"},
		Descriptor{Name: Diagnose, WireName: "diagnosticar_banco", Visibility: Public,
			Summary: "informações de diagnóstico do sistema"},
	)
}

// Lookup returns the descriptor for an operation name or wire name.
func (r *Registry) Lookup(name string) (Descriptor, bool) {
	if d, ok := r.byName[name]; ok {
		return d, true
	}
	if n, ok := r.byWire[name]; ok {
		return r.byName[n], true
	}
	return Descriptor{}, false
}

// RequiresAuth reports whether name is a private operation. Unknown names are
// treated as private.
func (r *Registry) RequiresAuth(name string) bool {
	d, ok := r.Lookup(name)
	return !ok || d.Visibility == Private
}

// IsStateChanging reports whether name mutates backend state.
func (r *Registry) IsStateChanging(name string) bool {
	d, ok := r.Lookup(name)
	return ok && d.StateChanging
}

// Validate checks that call names a known operation and carries its required
// arguments.
func (r *Registry) Validate(call Call) error {
	d, ok := r.Lookup(call.Name)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownTool, call.Name)
	}
	for _, key := range d.Required {
		v, present := call.Args[key]
		if !present || v == nil || v == "" {
			return fmt.Errorf("%w: %s requires %q", ErrMissingArgument, d.Name, key)
		}
	}
	return nil
}

// List returns all descriptors sorted by name.
func (r *Registry) List() []Descriptor {
	out := make([]Descriptor, 0, len(r.byName))
	for _, d := range r.byName {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
