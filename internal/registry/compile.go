package registry

import (
	"fmt"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// CompileError reports a problem compiling a CUE spec value, with the CUE
// source position when one is available.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return e.Message
}

// CompileService parses a CUE value into a ServiceSpec. The service
// identifier comes from the struct label, e.g.:
//
//	service: clock: { module: "clock", requires: [...] }
func CompileService(v cue.Value) (*ServiceSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &ServiceSpec{ID: labelOf(v)}

	moduleVal := v.LookupPath(cue.ParsePath("module"))
	if !moduleVal.Exists() {
		return nil, &CompileError{Field: "module", Message: "module is required", Pos: v.Pos()}
	}
	module, err := moduleVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Module = module

	spec.Requires, err = stringList(v, "requires")
	if err != nil {
		return nil, err
	}

	defaultsVal := v.LookupPath(cue.ParsePath("defaults"))
	if defaultsVal.Exists() {
		path, err := defaultsVal.String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		spec.DefaultsPath = path
	}

	return spec, nil
}

// CompilePorting parses a CUE value into a PortingSpec. The service
// identifier comes from the struct label, e.g.:
//
//	porting: clock: { inputs: [...], call: "port_clock_db(clock_src_json)" }
func CompilePorting(v cue.Value) (*PortingSpec, error) {
	if err := v.Err(); err != nil {
		return nil, formatCUEError(err)
	}

	spec := &PortingSpec{ID: labelOf(v)}

	callVal := v.LookupPath(cue.ParsePath("call"))
	if !callVal.Exists() {
		return nil, &CompileError{Field: "call", Message: "call is required", Pos: v.Pos()}
	}
	call, err := callVal.String()
	if err != nil {
		return nil, formatCUEError(err)
	}
	spec.Call = call

	inputs, err := parseInputs(v)
	if err != nil {
		return nil, err
	}
	if len(inputs) == 0 {
		return nil, &CompileError{Field: "inputs", Message: "at least one input is required", Pos: v.Pos()}
	}
	spec.Inputs = inputs

	spec.PreCallLines, err = stringList(v, "preCall")
	if err != nil {
		return nil, err
	}

	return spec, nil
}

func parseInputs(v cue.Value) ([]InputVar, error) {
	inputsVal := v.LookupPath(cue.ParsePath("inputs"))
	if !inputsVal.Exists() {
		return nil, nil
	}

	iter, err := inputsVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var inputs []InputVar
	for iter.Next() {
		item := iter.Value()

		field, err := requiredString(item, "field")
		if err != nil {
			return nil, err
		}
		varName, err := requiredString(item, "var")
		if err != nil {
			return nil, err
		}

		in := InputVar{Field: field, Var: varName, Emission: EmissionText}

		emissionVal := item.LookupPath(cue.ParsePath("emission"))
		if emissionVal.Exists() {
			emission, err := emissionVal.String()
			if err != nil {
				return nil, formatCUEError(err)
			}
			switch emission {
			case "structured":
				in.Emission = EmissionStructured
			case "text":
				in.Emission = EmissionText
			default:
				return nil, &CompileError{
					Field:   "emission",
					Message: fmt.Sprintf("invalid emission %q: must be structured or text", emission),
					Pos:     emissionVal.Pos(),
				}
			}
		}

		inputs = append(inputs, in)
	}

	return inputs, nil
}

func requiredString(v cue.Value, field string) (string, error) {
	fv := v.LookupPath(cue.ParsePath(field))
	if !fv.Exists() {
		return "", &CompileError{Field: field, Message: field + " is required", Pos: v.Pos()}
	}
	s, err := fv.String()
	if err != nil {
		return "", formatCUEError(err)
	}
	return s, nil
}

func stringList(v cue.Value, field string) ([]string, error) {
	listVal := v.LookupPath(cue.ParsePath(field))
	if !listVal.Exists() {
		return nil, nil
	}

	iter, err := listVal.List()
	if err != nil {
		return nil, formatCUEError(err)
	}

	var out []string
	for iter.Next() {
		s, err := iter.Value().String()
		if err != nil {
			return nil, formatCUEError(err)
		}
		out = append(out, s)
	}
	return out, nil
}

// labelOf extracts the last path selector as the spec identifier.
func labelOf(v cue.Value) string {
	labels := v.Path().Selectors()
	if len(labels) == 0 {
		return ""
	}
	return labels[len(labels)-1].String()
}

// formatCUEError converts a CUE error into a positioned CompileError.
func formatCUEError(err error) *CompileError {
	pos := token.NoPos
	if cueErrs := cueerrors.Errors(err); len(cueErrs) > 0 {
		pos = cueErrs[0].Position()
	}
	return &CompileError{Message: err.Error(), Pos: pos}
}
