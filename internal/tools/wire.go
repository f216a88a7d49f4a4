package tools

import (
	"strconv"
	"strings"
)

// Backend vocabulary. The backend speaks Portuguese names; the engine uses the
// English ones and translates at the edge.
var (
	requirementWire = map[string]string{
		ReqAddSubject:    "adicao_materia",
		ReqRemoveSubject: "remocao_materia",
		ReqDeclaration:   "declaracao",
		ReqInvoice:       "boleto",
		ReqLock:          "trancamento",
		ReqDiploma:       "diploma",
		ReqCertificate:   "certificado",
		ReqTransfer:      "transferencia",
		ReqAddress:       "endereco",
	}
	declarationWire = map[string]string{
		"enrollment": "matricula",
		"attendance": "frequencia",
		"completion": "conclusao",
	}
	transferWire = map[string]string{
		"internal": "interna",
		"external": "externa",
	}
	kwargWire = map[string]string{
		ArgCode:        "codigo_materia",
		ArgDeclaration: "tipo_declaracao",
		ArgAmount:      "valor",
		ArgReason:      "motivo",
		ArgTransfer:    "tipo_transferencia",
	}
	topLevelWire = map[string]string{
		ArgQuestion: "pergunta",
		ArgCourse:   "codigo",
	}
)

func invert(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[v] = k
	}
	return out
}

var (
	requirementLocal = invert(requirementWire)
	declarationLocal = invert(declarationWire)
	transferLocal    = invert(transferWire)
	kwargLocal       = invert(kwargWire)
	topLevelLocal    = invert(topLevelWire)
)

// RequirementWireName returns the backend name of a requirement type.
func RequirementWireName(kind string) string {
	if w, ok := requirementWire[kind]; ok {
		return w
	}
	return kind
}

// DeclarationWireName returns the backend name of a declaration sub-type.
func DeclarationWireName(kind string) string {
	if w, ok := declarationWire[kind]; ok {
		return w
	}
	return kind
}

// TransferWireName returns the backend name of a transfer sub-type.
func TransferWireName(kind string) string {
	if w, ok := transferWire[kind]; ok {
		return w
	}
	return kind
}

// ToWire converts a Call into the backend tool name and argument map.
func (r *Registry) ToWire(call Call) (string, map[string]any) {
	name := call.Name
	if d, ok := r.Lookup(call.Name); ok && d.WireName != "" {
		name = d.WireName
	}
	args := make(map[string]any, len(call.Args))

	if d, ok := r.Lookup(call.Name); ok && d.Name == CreateRequirement {
		kwargs := make(map[string]any)
		for k, v := range call.Args {
			switch k {
			case ArgType:
				args["tipo"] = RequirementWireName(asString(v))
			case ArgDeclaration:
				kwargs[kwargWire[k]] = DeclarationWireName(asString(v))
			case ArgTransfer:
				kwargs[kwargWire[k]] = TransferWireName(asString(v))
			default:
				if w, ok := kwargWire[k]; ok {
					kwargs[w] = v
				} else {
					kwargs[k] = v
				}
			}
		}
		args["kwargs"] = kwargs
		return name, args
	}

	for k, v := range call.Args {
		if w, ok := topLevelWire[k]; ok {
			args[w] = v
		} else {
			args[k] = v
		}
	}
	return name, args
}

// FromWire converts a backend-style tool name and argument map (as produced by
// the inference service) into a Call. Either vocabulary is accepted.
func (r *Registry) FromWire(name string, wireArgs map[string]any) (Call, bool) {
	d, ok := r.Lookup(strings.TrimSpace(name))
	if !ok {
		return Call{}, false
	}
	args := make(map[string]any)

	for k, v := range wireArgs {
		switch k {
		case "kwargs":
			if inner, ok := v.(map[string]any); ok {
				for ik, iv := range inner {
					putLocalKwarg(args, ik, iv)
				}
			}
		case "tipo", ArgType:
			t := asString(v)
			if local, ok := requirementLocal[t]; ok {
				t = local
			}
			args[ArgType] = t
		case "aluno_id":
			// Supplied from the principal, never from the model.
		default:
			if local, ok := topLevelLocal[k]; ok {
				args[local] = v
			} else if _, isKwarg := kwargLocal[k]; isKwarg || kwargWire[k] != "" {
				putLocalKwarg(args, k, v)
			} else {
				args[k] = v
			}
		}
	}
	return NewCall(d.Name, args), true
}

func putLocalKwarg(args map[string]any, key string, v any) {
	local := key
	if l, ok := kwargLocal[key]; ok {
		local = l
	}
	switch local {
	case ArgDeclaration:
		s := asString(v)
		if l, ok := declarationLocal[s]; ok {
			s = l
		}
		args[local] = s
	case ArgTransfer:
		s := asString(v)
		if l, ok := transferLocal[s]; ok {
			s = l
		}
		args[local] = s
	case ArgCode:
		args[local] = strings.ToUpper(asString(v))
	case ArgAmount:
		args[local] = asFloat(v)
	default:
		args[local] = v
	}
}

func asString(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		return strconv.Itoa(t)
	default:
		return ""
	}
}

func asFloat(v any) any {
	switch t := v.(type) {
	case string:
		f, err := strconv.ParseFloat(strings.ReplaceAll(t, ",", "."), 64)
		if err != nil {
			return t
		}
		return f
	default:
		return v
	}
}
