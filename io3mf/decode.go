// Package io3mf implements the streaming XML model parser (spec.md §4.3,
// component C4): it walks a model part's token stream exactly once,
// maintaining a stack of spec.ElementDecoder values the way the teacher's
// nodeDecoder/modelFile pair does, and dispatches every element outside the
// core namespace to the extension registered for it.
package io3mf

import (
	"encoding/xml"
	"io"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/spec"
)

// xmlNamespace is the built-in "xml:" prefix's namespace URI (xml:lang,
// xml:space, ...), resolved by encoding/xml the same as any other
// namespace but treated as a core attribute for decoding purposes.
const xmlNamespace = "http://www.w3.org/XML/1998/namespace"

// modelFile carries the per-part decode state: which part is being parsed,
// whether it is the root model, the accumulated non-fatal warnings, and the
// namespace registry this Parse call was configured with.
type modelFile struct {
	path       string
	isRoot     bool
	cfg        go3mf.Configuration
	reg        go3mf.Registry
	warnings   []error
	namespaces map[string]string // xmlns prefix -> URI, as declared anywhere in the part
}

func (f *modelFile) addWarning(err error) {
	if err != nil {
		f.warnings = append(f.warnings, err)
	}
}

// decodeModel runs the stack-based token loop over x, starting from a
// topLevelDecoder, and populates model in place. It mirrors the teacher's
// modelFile.Decode: a StartElement pushes a new decoder (or is skipped via
// x.Skip when no decoder recognizes it), CharData is forwarded to the
// current decoder, and a matching EndElement pops the stack.
func decodeModel(x *xml.Decoder, f *modelFile, model *go3mf.Model) error {
	var errs error
	state := []spec.ElementDecoder{&topLevelDecoder{file: f, model: model}}
	names := []xml.Name{{}}

	for {
		t, err := x.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return specerr.XML(err)
		}
		switch tp := t.(type) {
		case xml.StartElement:
			current := state[len(state)-1]
			if ce, ok := f.reg.LookupCustom(tp.Name.Space); ok && ce.Element != nil {
				attrs := make(map[string]string, len(tp.Attr))
				for _, a := range tp.Attr {
					attrs[a.Name.Local] = a.Value
				}
				if _, err := ce.Element(go3mf.CustomElement{Local: tp.Name.Local, Namespace: tp.Name.Space, Attrs: attrs}); err != nil {
					errs = specerr.Append(errs, current.Wrap(err))
				}
			}
			child := dispatchChild(current, f.reg, tp.Name)
			if child == nil {
				if err := x.Skip(); err != nil {
					return specerr.XML(err)
				}
				continue
			}
			if err := startElement(child, f, tp); err != nil {
				errs = specerr.Append(errs, current.Wrap(err))
			}
			state = append(state, child)
			names = append(names, tp.Name)
		case xml.CharData:
			if tr, ok := state[len(state)-1].(textReceiver); ok {
				tr.Text(append([]byte(nil), tp...))
			}
		case xml.EndElement:
			if len(names) > 1 && names[len(names)-1] == tp.Name {
				state[len(state)-1].End()
				state = state[:len(state)-1]
				names = names[:len(names)-1]
			}
		}
	}
	return errs
}

// dispatchChild asks the current decoder for a child decoder by name. Core
// namespace elements are handled directly by the decoder's own Child
// method; foreign namespaces are routed through the extension registry's
// NodeCreator, using the current decoder's resource/element as the parent
// value the way materials.CreateElementDecoder expects.
func dispatchChild(current spec.ElementDecoder, reg go3mf.Registry, name xml.Name) spec.ElementDecoder {
	if name.Space == "" || name.Space == go3mf.Namespace {
		return current.Child(name)
	}
	if child := current.Child(name); child != nil {
		return child
	}
	h, ok := reg.Lookup(canonicalNamespace(name.Space))
	if !ok {
		return nil
	}
	creator, ok := h.Spec.(spec.NodeCreator)
	if !ok {
		return nil
	}
	parent, ok := current.(parentProvider)
	if !ok {
		return nil
	}
	return creator.CreateElementDecoder(parent.ParentValue(), name.Local)
}

// canonicalNamespace resolves a (possibly superseded-alias) namespace URI
// to the canonical one registered extensions key themselves by.
func canonicalNamespace(ns string) string {
	if ext, ok := go3mf.ExtensionFromNamespace(ns); ok {
		return ext.Namespace()
	}
	return ns
}

// parentProvider is implemented by every core decoder that can host
// extension-owned child elements (resources, object, mesh, build, item,
// component): it exposes the pointer value extension NodeCreator/
// AttributeDecoder implementations type-switch on.
type parentProvider interface {
	ParentValue() interface{}
}

// textReceiver is implemented by the few decoders that care about an
// element's character data (currently only <metadata>'s value).
type textReceiver interface {
	Text(b []byte)
}

// startElement converts a StartElement's attributes into spec.Attr values,
// routes core-namespace attributes to the decoder itself and
// foreign-namespace attributes through the owning extension's
// AttributeDecoder, then calls Start.
func startElement(d spec.ElementDecoder, f *modelFile, tp xml.StartElement) error {
	attrs := make([]spec.Attr, 0, len(tp.Attr))
	var errs error
	pp, hasParent := d.(parentProvider)
	var parent interface{}
	if hasParent {
		parent = pp.ParentValue()
	}
	for _, a := range tp.Attr {
		switch {
		case a.Name.Space == "xmlns":
			f.namespaces[a.Name.Local] = a.Value
			continue
		case a.Name.Space == "" && a.Name.Local == "xmlns":
			f.namespaces[""] = a.Value
			continue
		case a.Name.Space == "" || a.Name.Space == go3mf.Namespace || a.Name.Space == xmlNamespace:
			attrs = append(attrs, spec.Attr{Name: a.Name, Value: []byte(a.Value)})
		default:
			if !hasParent {
				continue
			}
			h, ok := f.reg.Lookup(canonicalNamespace(a.Name.Space))
			if !ok {
				continue
			}
			if ad, ok := h.Spec.(spec.AttributeDecoder); ok {
				errs = specerr.Append(errs, ad.DecodeAttribute(parent, spec.Attr{Name: a.Name, Value: []byte(a.Value)}))
			}
		}
	}
	errs = specerr.Append(errs, d.Start(attrs))
	return errs
}
