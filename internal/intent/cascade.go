package intent

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/ashureev/campus-assistant/internal/textnorm"
	"github.com/ashureev/campus-assistant/internal/tools"
)

const defaultInvoiceAmount = 850.00

var (
	codeOnlyRe = regexp.MustCompile(`(?i)^[A-Z]{3}-\d{3}$`)
	codeRe     = regexp.MustCompile(`(?i)\b([A-Z]{3}-\d{3})\b`)
	// Course codes must be written in upper case so "quais cursos tem" is not read as course "TEM".
	courseRe = regexp.MustCompile(`\b(?i:cursos?)\s+(?:(?i:do|da|de)\s+)?([A-Z]{2,6}(?:-\d{1,3})?)\b`)
	amountRe = regexp.MustCompile(`(?i)r?\$?\s*(\d+[.,]\d{2})`)
)

// Detector is one rule of the cascade.
type Detector interface {
	Name() string
	Match(in Input) (Decision, bool)
}

type detector struct {
	name  string
	match func(Input) (Decision, bool)
}

func (d detector) Name() string                    { return d.name }
func (d detector) Match(in Input) (Decision, bool) { return d.match(in) }

// Cascade evaluates detectors in order; the first match wins.
type Cascade struct {
	lex       *Lexicon
	detectors []Detector
}

// NewCascade builds the detector list from lex.
func NewCascade(lex *Lexicon) *Cascade {
	c := &Cascade{lex: lex}
	c.detectors = []Detector{
		detector{"subject-code", c.subjectCode},
		detector{"personal-data", c.personalData},
		detector{"subject-query", c.subjectQuery},
		detector{"grades", c.grades},
		detector{"courses", c.courses},
		detector{"payments", c.payments},
		detector{"academic-summary", c.summary},
		detector{"withdrawal", c.withdrawal},
		detector{"declaration", c.declaration},
		detector{"invoice", c.invoice},
		detector{"lock", c.lock},
		detector{"diploma-certificate", c.diploma},
		detector{"transfer", c.transfer},
		detector{"address", c.address},
		detector{"add-subject", c.addSubject},
		detector{"change-subject", c.changeSubject},
		detector{"remove-subject", c.removeSubject},
		detector{"thanks", c.thanks},
		detector{"greeting", c.greeting},
		detector{"attendance", c.attendance},
	}
	return c
}

// Detectors returns the rule order.
func (c *Cascade) Detectors() []Detector {
	return c.detectors
}

// Match runs the cascade and reports which detector fired.
func (c *Cascade) Match(in Input) (Decision, string, bool) {
	for _, d := range c.detectors {
		if dec, ok := d.Match(in); ok {
			return dec, d.Name(), true
		}
	}
	return Decision{}, "", false
}

func (c *Cascade) login(purpose string) (Decision, bool) {
	return Reply(c.lex.Login(purpose), SourceCascade), true
}

func tool(name string, args map[string]any) (Decision, bool) {
	return Invoke(tools.NewCall(name, args), SourceCascade), true
}

func requirement(kind string, args map[string]any) (Decision, bool) {
	all := map[string]any{tools.ArgType: kind}
	for k, v := range args {
		all[k] = v
	}
	return tool(tools.CreateRequirement, all)
}

func firstCode(raw string) string {
	m := codeRe.FindStringSubmatch(raw)
	if m == nil {
		return ""
	}
	return strings.ToUpper(m[1])
}

func (c *Cascade) subjectCode(in Input) (Decision, bool) {
	code := strings.TrimSpace(in.Raw)
	if !codeOnlyRe.MatchString(code) {
		return Decision{}, false
	}
	return requirement(tools.ReqAddSubject, map[string]any{tools.ArgCode: strings.ToUpper(code)})
}

func (c *Cascade) personalData(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.PersonalData) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("consultar seus dados")
	}
	return tool(tools.StudentProfile, nil)
}

func (c *Cascade) subjectQuery(in Input) (Decision, bool) {
	cl := c.lex.Cascade
	if !textnorm.ContainsAny(in.Folded, cl.SubjectWords) || textnorm.ContainsAny(in.Folded, cl.SubjectMutations) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("consultar suas matérias")
	}
	return tool(tools.StudentQuery, map[string]any{tools.ArgQuestion: "minhas matérias"})
}

func (c *Cascade) grades(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Grades) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("consultar suas notas")
	}
	return tool(tools.StudentQuery, map[string]any{tools.ArgQuestion: "minhas notas"})
}

func (c *Cascade) courses(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Courses) {
		return Decision{}, false
	}
	if m := courseRe.FindStringSubmatch(in.Raw); m != nil {
		return tool(tools.ListCourses, map[string]any{tools.ArgCourse: m[1]})
	}
	return tool(tools.ListCourses, nil)
}

func (c *Cascade) payments(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Payments) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("consultar boletos e pagamentos")
	}
	return tool(tools.StudentQuery, map[string]any{tools.ArgQuestion: "meus boletos"})
}

func (c *Cascade) summary(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Summary) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("consultar seu resumo acadêmico")
	}
	return tool(tools.AcademicSummary, nil)
}

func (c *Cascade) withdrawal(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Withdrawal) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("criar requerimentos")
	}
	return requirement(tools.ReqLock, map[string]any{tools.ArgReason: "Desistência do aluno"})
}

var declarationKinds = []string{"enrollment", "attendance", "completion"}

func (c *Cascade) declaration(in Input) (Decision, bool) {
	cl := c.lex.Cascade
	if !textnorm.ContainsAny(in.Folded, cl.Declaration) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("solicitar declarações")
	}
	kind := "enrollment"
	for _, k := range declarationKinds {
		if textnorm.ContainsAny(in.Folded, cl.DeclarationKinds[k]) {
			kind = k
			break
		}
	}
	return requirement(tools.ReqDeclaration, map[string]any{tools.ArgDeclaration: kind})
}

func (c *Cascade) invoice(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Invoice) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("solicitar segunda via de boleto")
	}
	amount := defaultInvoiceAmount
	if m := amountRe.FindStringSubmatch(in.Raw); m != nil {
		if v, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			amount = v
		}
	}
	return requirement(tools.ReqInvoice, map[string]any{tools.ArgAmount: amount})
}

func (c *Cascade) lock(in Input) (Decision, bool) {
	cl := c.lex.Cascade
	if !textnorm.ContainsAny(in.Folded, cl.Lock) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("solicitar trancamento")
	}
	if textnorm.ContainsAny(in.Folded, cl.LockSubjectWords) {
		if code := firstCode(in.Raw); code != "" {
			return requirement(tools.ReqRemoveSubject, map[string]any{tools.ArgCode: code})
		}
	}
	return requirement(tools.ReqLock, map[string]any{tools.ArgReason: "Solicitação do aluno"})
}

func (c *Cascade) diploma(in Input) (Decision, bool) {
	cl := c.lex.Cascade
	isDiploma := textnorm.ContainsAny(in.Folded, cl.Diploma)
	if !isDiploma && !textnorm.ContainsAny(in.Folded, cl.Certificate) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("solicitar diploma ou certificado")
	}
	if isDiploma {
		return requirement(tools.ReqDiploma, nil)
	}
	return requirement(tools.ReqCertificate, nil)
}

func (c *Cascade) transfer(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Transfer) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("solicitar transferência")
	}
	return requirement(tools.ReqTransfer, map[string]any{tools.ArgReason: "Solicitação do aluno"})
}

func (c *Cascade) address(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Address) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("atualizar endereço")
	}
	return requirement(tools.ReqAddress, nil)
}

func (c *Cascade) addSubject(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.AddSubject) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("adicionar matérias")
	}
	if code := firstCode(in.Raw); code != "" {
		return requirement(tools.ReqAddSubject, map[string]any{tools.ArgCode: code})
	}
	return tool(tools.ListSubjects, nil)
}

func (c *Cascade) changeSubject(in Input) (Decision, bool) {
	cl := c.lex.Cascade
	if !textnorm.ContainsAny(in.Folded, cl.ChangeVerbs) || !textnorm.ContainsAny(in.Folded, cl.LockSubjectWords) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("trocar de matéria")
	}
	codes := codeRe.FindAllStringSubmatch(in.Raw, -1)
	switch {
	case len(codes) >= 2:
		// Only the removal of the first code is requested; the second code is not acted upon.
		return requirement(tools.ReqRemoveSubject, map[string]any{tools.ArgCode: strings.ToUpper(codes[0][1])})
	case len(codes) == 1:
		return requirement(tools.ReqAddSubject, map[string]any{tools.ArgCode: strings.ToUpper(codes[0][1])})
	}
	return Reply("Para trocar de matéria, qual é o código da matéria que deseja adicionar? (ex: ALG-101)", SourceCascade), true
}

func (c *Cascade) removeSubject(in Input) (Decision, bool) {
	cl := c.lex.Cascade
	if !textnorm.ContainsAny(in.Folded, cl.RemoveVerbs) || !textnorm.ContainsAny(in.Folded, cl.LockSubjectWords) {
		return Decision{}, false
	}
	if !in.Authenticated {
		return c.login("remover matérias")
	}
	if code := firstCode(in.Raw); code != "" {
		return requirement(tools.ReqRemoveSubject, map[string]any{tools.ArgCode: code})
	}
	return Reply("Para remover uma matéria, qual é o código dela? (ex: ALG-101)", SourceCascade), true
}

func (c *Cascade) thanks(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Thanks) {
		return Decision{}, false
	}
	return Reply("Por nada! Estou aqui para ajudar com qualquer coisa relacionada à sua vida acadêmica.", SourceCascade), true
}

func (c *Cascade) greeting(in Input) (Decision, bool) {
	if !textnorm.HasAnyWord(in.Folded, c.lex.Cascade.Greetings) {
		return Decision{}, false
	}
	return Reply("Olá! Como posso ajudá-lo com sua vida acadêmica hoje?", SourceCascade), true
}

func (c *Cascade) attendance(in Input) (Decision, bool) {
	if !textnorm.ContainsAny(in.Folded, c.lex.Cascade.Attendance) {
		return Decision{}, false
	}
	return tool(tools.StudentQuery, map[string]any{tools.ArgQuestion: "minha frequência"})
}
