package refactor

import (
	"fmt"
	"slices"
	"strings"

	"github.com/phobologic/pyrewrite/pkg/pyast"
)

// Transformation is a user-defined refactoring built from the engine's
// public operations. It reports whether it changed anything.
type Transformation func(e *Engine) (bool, error)

// Registry maps names to transformations. It is an ordinary value; there
// is no package-level registry.
type Registry struct {
	names []string
	fns   map[string]Transformation
}

// NewRegistry returns an empty Registry.
func NewRegistry() *Registry {
	return &Registry{fns: make(map[string]Transformation)}
}

// Register adds fn under name.
func (r *Registry) Register(name string, fn Transformation) error {
	if name == "" || fn == nil {
		return fmt.Errorf("register transformation: %w", ErrInvalidName)
	}
	if _, ok := r.fns[name]; ok {
		return fmt.Errorf("%w: %s", ErrTransformationExists, name)
	}
	r.fns[name] = fn
	r.names = append(r.names, name)
	return nil
}

// Apply runs the transformation registered under name against e.
func (r *Registry) Apply(name string, e *Engine) (bool, error) {
	fn, ok := r.fns[name]
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrUnknownTransformation, name)
	}
	return fn(e)
}

// Names returns the registered names in registration order.
func (r *Registry) Names() []string {
	return slices.Clone(r.names)
}

// RegisterBuiltins adds the bundled transformations to r.
func RegisterBuiltins(r *Registry) error {
	return r.Register("modernize_pkg_resources", PkgResourcesRecipe{}.Apply)
}

// PkgResourcesRecipe replaces pkg_resources version detection
//
//	from pkg_resources import DistributionNotFound, get_distribution
//
//	try:
//	    __version__ = get_distribution(__name__).version
//	except DistributionNotFound:
//	    __version__ = "0.0.0-dev"
//
// with a call to a helper imported from Module:
//
//	from internal_pyharmony import get_package_version
//
//	__version__ = get_package_version(__name__)
//
// It only uses the engine's find and splice operations.
type PkgResourcesRecipe struct {
	// Module provides the helper; defaults to "internal_pyharmony".
	Module string
	// Function is the helper's name; defaults to "get_package_version".
	Function string
}

var pkgResourcesNames = []string{"DistributionNotFound", "get_distribution"}

// Apply runs the recipe. It reports false and changes nothing when the
// pattern is not present.
func (p PkgResourcesRecipe) Apply(e *Engine) (bool, error) {
	module, function := p.Module, p.Function
	if module == "" {
		module = "internal_pyharmony"
	}
	if function == "" {
		function = "get_package_version"
	}

	tries := e.FindTryExceptBlocks("DistributionNotFound")
	if len(e.FindImports("pkg_resources")) == 0 || len(tries) == 0 ||
		len(e.FindFunctionCalls("get_distribution")) == 0 || len(e.FindAssignments("__version__")) == 0 {
		return false, nil
	}
	var target pyast.NodeRef
	for _, t := range tries {
		if strings.Contains(t.TryBody, "__version__") && strings.Contains(t.TryBody, "get_distribution") {
			target = t.TryRef
			break
		}
	}
	if target.IsZero() {
		return false, nil
	}

	gen := e.CodeGenerator()
	assign := gen.CreateAssignment("__version__", gen.CreateFunctionCall(function, "__name__"))
	if err := e.ReplaceNode(target, assign); err != nil {
		return false, err
	}

	helper, err := gen.CreateImport(module, []string{function}, "")
	if err != nil {
		return false, err
	}
	inserted := false
	// Each splice renumbers later statements, so imports are looked up
	// again after every edit.
	for {
		rec, rest, ok := nextPkgResourcesImport(e)
		if !ok {
			break
		}
		switch {
		case len(rest) > 0:
			stmt, err := gen.CreateImport("pkg_resources", rest, "")
			if err != nil {
				return true, err
			}
			if !inserted {
				stmt += "\n" + helper
				inserted = true
			}
			if err := e.ReplaceNode(rec.Ref, stmt); err != nil {
				return true, err
			}
		case !inserted:
			if err := e.ReplaceNode(rec.Ref, helper); err != nil {
				return true, err
			}
			inserted = true
		default:
			if err := e.RemoveNode(rec.Ref); err != nil {
				return true, err
			}
		}
	}
	if !inserted {
		// Only plain "import pkg_resources" statements were present.
		if recs := e.FindAssignments("__version__"); len(recs) > 0 {
			if err := e.InsertBefore(recs[0].Ref, helper); err != nil {
				return true, err
			}
		}
	}
	return true, nil
}

// nextPkgResourcesImport returns the first from-import of pkg_resources
// that still names one of the version detection helpers, along with the
// items it must keep.
func nextPkgResourcesImport(e *Engine) (pyast.ImportRecord, []string, bool) {
	for _, rec := range e.FindImports("pkg_resources") {
		if !rec.IsFrom || rec.Wildcard {
			continue
		}
		var rest []string
		found := false
		for i, item := range rec.Items {
			if slices.Contains(pkgResourcesNames, item) && rec.Aliases[i] == "" {
				found = true
				continue
			}
			if rec.Aliases[i] != "" {
				item += " as " + rec.Aliases[i]
			}
			rest = append(rest, item)
		}
		if found {
			return rec, rest, true
		}
	}
	return pyast.ImportRecord{}, nil, false
}
