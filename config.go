package go3mf

// KeyProvider decrypts secure-content parts. The core never implements
// cryptography itself (spec.md §1 Non-goals, §4.7): given the ciphertext
// bytes for a resourcedata path plus its parsed CEK/KEK/AccessRight
// structures, it must return the plaintext.
type KeyProvider interface {
	Decrypt(path string, ciphertext []byte, info *SecureContentInfo) ([]byte, error)
}

// Configuration controls which extensions Parse accepts, which custom
// extensions it recognizes, and which capabilities (key provider, extension
// registry) it uses while decoding and validating (spec.md §4.9). The zero
// value supports only the core specification.
type Configuration struct {
	supported   map[Extension]bool
	custom      map[string]CustomExtension
	keyProvider KeyProvider
	registry    *Registry
}

// NewConfig returns a Configuration that accepts only the core
// specification.
func NewConfig() Configuration {
	return Configuration{supported: map[Extension]bool{ExtCore: true}}
}

func (c Configuration) clone() Configuration {
	out := Configuration{
		supported:   make(map[Extension]bool, len(c.supported)),
		custom:      make(map[string]CustomExtension, len(c.custom)),
		keyProvider: c.keyProvider,
		registry:    c.registry,
	}
	for k, v := range c.supported {
		out.supported[k] = v
	}
	for k, v := range c.custom {
		out.custom[k] = v
	}
	return out
}

// WithAllExtensions returns a copy of c that supports every extension known
// to this module. New extensions added to the Extension enum must be added
// here too (spec.md §4.9's builder notes this explicitly).
func (c Configuration) WithAllExtensions() Configuration {
	out := c.clone()
	out.supported[ExtCore] = true
	out.supported[ExtMaterial] = true
	out.supported[ExtProduction] = true
	out.supported[ExtSlice] = true
	out.supported[ExtBeamLattice] = true
	out.supported[ExtSecureContent] = true
	out.supported[ExtBooleanOperations] = true
	out.supported[ExtDisplacement] = true
	return out
}

// WithExtension returns a copy of c that additionally supports e.
func (c Configuration) WithExtension(e Extension) Configuration {
	out := c.clone()
	out.supported[e] = true
	return out
}

// WithCustomExtension returns a copy of c that recognizes a custom,
// unrecognized-namespace extension under ns.
func (c Configuration) WithCustomExtension(ns, name string, element CustomElementHandler, validate CustomValidateHandler) Configuration {
	out := c.clone()
	out.custom[ns] = CustomExtension{Namespace: ns, Name: name, Element: element, Validate: validate}
	return out
}

// WithExtensionHandler returns a copy of c that registers/overrides the
// ExtensionHandler used for h.Spec.Namespace().
func (c Configuration) WithExtensionHandler(h ExtensionHandler) Configuration {
	out := c.clone()
	reg := out.registry
	var r Registry
	if reg != nil {
		r = *reg
	} else {
		r = DefaultRegistry()
	}
	r = r.With(h)
	out.registry = &r
	return out
}

// WithKeyProvider returns a copy of c that uses p to decrypt secure-content
// parts.
func (c Configuration) WithKeyProvider(p KeyProvider) Configuration {
	out := c.clone()
	out.keyProvider = p
	return out
}

// Supports reports whether e is in the supported-extensions set. Core is
// always supported.
func (c Configuration) Supports(e Extension) bool {
	return e == ExtCore || c.supported[e]
}

// Registry returns the extension registry this configuration resolves
// against: the one installed via WithExtensionHandler, defaulting to every
// globally-registered standard extension, plus every custom extension added
// with WithCustomExtension.
func (c Configuration) Registry() Registry {
	var r Registry
	if c.registry != nil {
		r = *c.registry
	} else {
		r = DefaultRegistry()
	}
	for ns, ce := range c.custom {
		r = r.WithCustom(ns, ce)
	}
	return r
}

// KeyProvider returns the configured decrypt capability, or nil.
func (c Configuration) KeyProvider() KeyProvider { return c.keyProvider }
