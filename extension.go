package go3mf

import (
	"sort"
	"sync"

	"github.com/3mf-go/go3mf/spec"
)

// Extension enumerates the 3MF extensions known to this module (spec.md
// §6.2). Core is always implicitly supported; an Extension value found in
// a model's requiredextensions attribute must be supported by the parser
// configuration. A required namespace that maps to no Extension is accepted
// only when it is registered as a custom extension, and is then carried on
// Model.RequiredCustom; any other required namespace is reported as
// unsupported.
type Extension uint8

// Known extensions.
const (
	ExtCore Extension = iota
	ExtMaterial
	ExtProduction
	ExtSlice
	ExtBeamLattice
	ExtSecureContent
	ExtBooleanOperations
	ExtDisplacement
)

var extensionNamespace = map[Extension]string{
	ExtCore:              Namespace,
	ExtMaterial:          "http://schemas.microsoft.com/3dmanufacturing/material/2015/02",
	ExtProduction:        "http://schemas.microsoft.com/3dmanufacturing/production/2015/06",
	ExtSlice:             "http://schemas.microsoft.com/3dmanufacturing/slice/2015/07",
	ExtBeamLattice:       "http://schemas.microsoft.com/3dmanufacturing/beamlattice/2017/02",
	ExtSecureContent:     "http://schemas.microsoft.com/3dmanufacturing/securecontent/2019/07",
	ExtBooleanOperations: "http://schemas.3mf.io/3dmanufacturing/booleanoperations/2023/07",
	ExtDisplacement:      "http://schemas.microsoft.com/3dmanufacturing/displacement/2022/07",
}

var extensionName = map[Extension]string{
	ExtCore:              "Core",
	ExtMaterial:          "Material",
	ExtProduction:        "Production",
	ExtSlice:             "Slice",
	ExtBeamLattice:       "BeamLattice",
	ExtSecureContent:     "SecureContent",
	ExtBooleanOperations: "BooleanOperations",
	ExtDisplacement:      "Displacement",
}

// aliasNamespace maps superseded/alias namespace URIs onto the canonical
// Extension they resolve to: the secure-content extension's 2019/04
// namespace and the boolean-operations extension's earlier
// volumetric/2021/08 namespace are both still found in the wild.
var aliasNamespace = map[string]Extension{
	"http://schemas.microsoft.com/3dmanufacturing/securecontent/2019/04": ExtSecureContent,
	"http://schemas.3mf.io/3dmanufacturing/volumetric/2021/08":           ExtBooleanOperations,
}

// Namespace returns the canonical namespace URI for e.
func (e Extension) Namespace() string { return extensionNamespace[e] }

// Name returns a human-readable name for e.
func (e Extension) Name() string { return extensionName[e] }

func (e Extension) String() string { return e.Name() }

// ExtensionFromNamespace resolves a namespace URI to its Extension,
// including recognized aliases. ok is false for unknown namespaces.
func ExtensionFromNamespace(ns string) (e Extension, ok bool) {
	for k, v := range extensionNamespace {
		if v == ns {
			return k, true
		}
	}
	if k, found := aliasNamespace[ns]; found {
		return k, true
	}
	return 0, false
}

// PropertyGroup is implemented by every Asset that is indexable by a small
// integer pindex: BaseMaterials, and the materials extension's ColorGroup,
// Texture2DGroup, CompositeMaterials and MultiProperties.
type PropertyGroup interface {
	Len() int
}

// ElementHandlerResult is returned by a custom-extension element callback
// (spec.md §4.3/§9): Handled means the callback fully processed the
// element; NotHandled is not an error, it simply lets the default "skip
// unknown element" behavior apply.
type ElementHandlerResult uint8

const (
	NotHandled ElementHandlerResult = iota
	Handled
)

// CustomElement is the snapshot passed to a custom-extension element
// callback: local name, resolved namespace URI and attribute map. The
// callback never sees child elements through this hook. An element that no
// registered decoder recognizes is skipped together with its subtree, so
// custom-namespace elements nested inside it are not passed to the
// callback.
type CustomElement struct {
	Local     string
	Namespace string
	Attrs     map[string]string
}

// CustomElementHandler is called once for each element in a registered
// custom namespace that the decoder reaches, before the element is
// dispatched; an error it returns is added to the parse errors. It must be safe to call concurrently from
// different Parse calls on different goroutines (spec.md §5).
type CustomElementHandler func(el CustomElement) (ElementHandlerResult, error)

// CustomValidateHandler is invoked once per Parse call during the
// validator's custom-extension pass (§4.5 rule 13), receiving the fully
// decoded Model.
type CustomValidateHandler func(m *Model) error

// CustomExtension describes a user-registered, unrecognized-namespace
// extension: a name for diagnostics plus optional element/validate
// callbacks.
type CustomExtension struct {
	Namespace string
	Name      string
	Element   CustomElementHandler
	Validate  CustomValidateHandler
}

// ExtensionHandler is the per-standard-extension capability set consulted
// by the decoder and validator (spec.md §4.8/§9): a node creator for
// resource/attribute decoding, plus optional validate and post-parse hooks.
// Each per-extension package (materials, production, slices, beamlattice,
// boolean, displacement) registers exactly one ExtensionHandler, wrapping
// its Spec value, via Register; securecontent registers none.
type ExtensionHandler struct {
	Extension Extension
	Spec      spec.Spec
}

var (
	specMu     sync.RWMutex
	registry   = make(map[string]ExtensionHandler) // namespace -> handler
)

// Register makes an extension's Spec available under its namespace. Called
// from each extension package's init(). Panics if the namespace is already
// registered, matching the teacher's go3mf.Register contract.
func Register(ext Extension, s spec.Spec) {
	specMu.Lock()
	defer specMu.Unlock()
	ns := s.Namespace()
	if _, dup := registry[ns]; dup {
		panic("go3mf: extension already registered for namespace " + ns)
	}
	registry[ns] = ExtensionHandler{Extension: ext, Spec: s}
}

func lookupExtension(ns string) (ExtensionHandler, bool) {
	specMu.RLock()
	defer specMu.RUnlock()
	h, ok := registry[ns]
	return h, ok
}

// Registry is an explicit, copyable view of the default extension handler
// set, augmentable by a Configuration without mutating global state
// (spec.md §4.8/§4.9).
type Registry struct {
	handlers map[string]ExtensionHandler
	custom   map[string]CustomExtension
}

// DefaultRegistry returns a Registry seeded with every globally-registered
// extension handler (i.e. every imported extension subpackage).
func DefaultRegistry() Registry {
	specMu.RLock()
	defer specMu.RUnlock()
	r := Registry{handlers: make(map[string]ExtensionHandler, len(registry))}
	for k, v := range registry {
		r.handlers[k] = v
	}
	return r
}

// With returns a copy of r with h added/overriding its namespace.
func (r Registry) With(h ExtensionHandler) Registry {
	out := Registry{handlers: make(map[string]ExtensionHandler, len(r.handlers)+1), custom: r.custom}
	for k, v := range r.handlers {
		out.handlers[k] = v
	}
	out.handlers[h.Spec.Namespace()] = h
	return out
}

// WithCustom returns a copy of r with a custom extension registered under
// namespace ns.
func (r Registry) WithCustom(ns string, c CustomExtension) Registry {
	out := Registry{handlers: r.handlers, custom: make(map[string]CustomExtension, len(r.custom)+1)}
	for k, v := range r.custom {
		out.custom[k] = v
	}
	c.Namespace = ns
	out.custom[ns] = c
	return out
}

// Lookup resolves a namespace to its registered standard ExtensionHandler.
func (r Registry) Lookup(ns string) (ExtensionHandler, bool) {
	h, ok := r.handlers[ns]
	return h, ok
}

// LookupCustom resolves a namespace to a registered custom extension.
func (r Registry) LookupCustom(ns string) (CustomExtension, bool) {
	c, ok := r.custom[ns]
	return c, ok
}

// CustomValidators returns every registered custom extension's non-nil
// Validate callback, for the validator's custom-extension pass (§4.5 rule
// 13's "each custom validator callback").
func (r Registry) CustomValidators() []CustomValidateHandler {
	out := make([]CustomValidateHandler, 0, len(r.custom))
	for _, c := range r.custom {
		if c.Validate != nil {
			out = append(out, c.Validate)
		}
	}
	return out
}

// Namespaces returns every registered standard namespace, sorted, for
// deterministic iteration (e.g. when building requiredextensions coherence
// error messages).
func (r Registry) Namespaces() []string {
	out := make([]string, 0, len(r.handlers))
	for k := range r.handlers {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
