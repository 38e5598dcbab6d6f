package registry

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	"cuelang.org/go/cue/load"
	"cuelang.org/go/cue/token"

	"github.com/roach88/portforge/internal/schema"
)

// LoadMode controls how errors are handled during spec loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the results of loading a registry from a spec
// directory.
type LoadResult struct {
	Registry  *Registry
	Warnings  []CycleWarning // requires-graph cycles, reported not fatal
	FileCount int            // Number of CUE files found
}

// LoadError represents an error that occurred during registry loading.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos // CUE position if available
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric     = "E001" // Generic/unknown error
	ErrCodeScanError   = "E002" // Directory scan error
	ErrCodeNoFiles     = "E003" // No CUE files found
	ErrCodeLoadFailed  = "E004" // CUE load failed
	ErrCodeNotFound    = "E005" // Path not found
	ErrCodeBuildFailed = "E006" // CUE build failed
	ErrCodeWriteFailed = "E007" // File write error

	// Spec validation errors
	ErrCodeServiceModule = "E101" // Missing owning module
	ErrCodePortingCall   = "E102" // Missing call expression
	ErrCodePortingInputs = "E103" // No inputs declared
	ErrCodeEmissionMode  = "E104" // Invalid emission mode
	ErrCodeDefaultsFile  = "E105" // Default instance unreadable
	ErrCodeRegistry      = "E106" // Registry consistency error
)

// LoadDir loads and compiles a registry from the CUE files in dir.
//
// Spec files declare two top-level structs: `service: <id>: {...}` and
// `porting: <id>: {...}`. Default-instance JSON files referenced by a
// service's `defaults` field are resolved relative to dir and parsed into
// the registry; an unreadable defaults file is collected as an error but
// does not prevent the registry from being built.
//
// If mode is LoadModeFailFast, returns on the first error. If mode is
// LoadModeCollectAll, collects all errors.
func LoadDir(dir string, mode LoadMode) (*LoadResult, []error) {
	var errs []error

	info, err := os.Stat(dir)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("spec directory not found: %s", dir)}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("error accessing spec directory: %v", err)}}
	}
	if !info.IsDir() {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("not a directory: %s", dir)}}
	}

	cueFiles, err := FindCUEFiles(dir)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeScanError, Message: fmt.Sprintf("error scanning directory: %v", err)}}
	}
	if len(cueFiles) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeNoFiles, Message: fmt.Sprintf("no CUE files found in %s", dir)}}
	}

	ctx := cuecontext.New()
	cfg := &load.Config{Dir: dir}
	instances := load.Instances([]string{"."}, cfg)
	if len(instances) == 0 {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: "no CUE instances loaded"}}
	}
	inst := instances[0]
	if inst.Err != nil {
		return nil, []error{&LoadError{Code: ErrCodeLoadFailed, Message: fmt.Sprintf("loading CUE files: %v", inst.Err)}}
	}

	value := ctx.BuildInstance(inst)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeBuildFailed, Message: fmt.Sprintf("building CUE value: %v", err)}}
	}

	result := &LoadResult{FileCount: len(cueFiles)}

	var services []ServiceSpec
	servicesVal := value.LookupPath(cue.ParsePath("service"))
	if servicesVal.Exists() {
		iter, iterErr := servicesVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating services: %v", iterErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			for iter.Next() {
				spec, compileErr := CompileService(iter.Value())
				if compileErr != nil {
					errs = append(errs, convertCompileError(compileErr, "service."+iter.Selector().String()))
					if mode == LoadModeFailFast {
						return result, errs
					}
					continue
				}
				services = append(services, *spec)
			}
		}
	}

	var porting []PortingSpec
	portingVal := value.LookupPath(cue.ParsePath("porting"))
	if portingVal.Exists() {
		iter, iterErr := portingVal.Fields()
		if iterErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: fmt.Sprintf("iterating porting specs: %v", iterErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
		} else {
			for iter.Next() {
				spec, compileErr := CompilePorting(iter.Value())
				if compileErr != nil {
					errs = append(errs, convertCompileError(compileErr, "porting."+iter.Selector().String()))
					if mode == LoadModeFailFast {
						return result, errs
					}
					continue
				}
				porting = append(porting, *spec)
			}
		}
	}

	if len(services) == 0 && len(errs) == 0 {
		errs = append(errs, &LoadError{Code: ErrCodeGeneric, Message: "no service specs found"})
		return result, errs
	}

	reg, err := New(services, porting)
	if err != nil {
		errs = append(errs, &LoadError{Code: ErrCodeRegistry, Message: err.Error()})
		return result, errs
	}
	result.Registry = reg

	// Default instances are best-effort: a missing or malformed file is
	// reported, but the registry is still usable for resolution.
	for _, id := range reg.ServiceIDs() {
		spec, _ := reg.Service(id)
		if spec.DefaultsPath == "" {
			continue
		}
		path := spec.DefaultsPath
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		data, readErr := os.ReadFile(path)
		if readErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeDefaultsFile, Message: fmt.Sprintf("service %q: %v", id, readErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		def, decodeErr := schema.Decode(data)
		if decodeErr != nil {
			errs = append(errs, &LoadError{Code: ErrCodeDefaultsFile, Message: fmt.Sprintf("service %q: %s: %v", id, path, decodeErr)})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		if err := reg.SetDefaultInstance(id, def); err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeRegistry, Message: err.Error()})
		}
	}

	result.Warnings = AnalyzeCycles(reg)

	return result, errs
}

// FindCUEFiles walks the directory and returns all .cue file paths.
func FindCUEFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() && filepath.Ext(path) == ".cue" {
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// convertCompileError converts a compiler error to a LoadError with
// position info.
func convertCompileError(err error, context string) *LoadError {
	var compileErr *CompileError
	if errors.As(err, &compileErr) {
		return &LoadError{
			Code:    mapFieldToErrorCode(compileErr.Field),
			Message: compileErr.Message,
			Pos:     compileErr.Pos,
		}
	}
	return &LoadError{
		Code:    ErrCodeGeneric,
		Message: fmt.Sprintf("%s: %v", context, err),
	}
}

// mapFieldToErrorCode maps a compile error field to an error code.
func mapFieldToErrorCode(field string) string {
	switch field {
	case "module":
		return ErrCodeServiceModule
	case "call":
		return ErrCodePortingCall
	case "inputs", "field", "var":
		return ErrCodePortingInputs
	case "emission":
		return ErrCodeEmissionMode
	default:
		return ErrCodeGeneric
	}
}
