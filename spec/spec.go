// Package spec defines the interfaces every per-extension package
// implements to plug into the core decoder and validator, mirroring the
// teacher's go3mf/spec package: a Spec identifies a namespace, an
// ElementDecoder is pushed/popped on the parser's context stack as nested
// elements open and close, and a ValidateSpec is invoked once per decoded
// asset/object during the validator's extension pass.
package spec

import "encoding/xml"

// Attr is a namespace-resolved attribute value handed to a decoder, with
// the raw bytes still available for numeric/enum parsing.
type Attr struct {
	Name  xml.Name
	Value []byte
}

// Spec identifies one 3MF extension namespace. Every extension package
// (materials, production, slices, beamlattice, boolean, displacement)
// registers exactly one Spec implementation with the core package's
// Register function; securecontent registers none.
type Spec interface {
	// Namespace returns the canonical namespace URI of this extension.
	Namespace() string
	// Local returns the conventional xmlns prefix for this extension
	// (e.g. "m" for materials, "p" for production).
	Local() string
}

// ElementDecoder is implemented by every node pushed onto the parser's
// context stack while scanning a recognized element. Start/Child/End mirror
// the open/recurse/close calls the streaming parser makes; Wrap lets a
// decoder attach "which resource, which index" context to any errors
// accumulated while it or its children were active.
type ElementDecoder interface {
	// Start is called with the attributes of the opening tag.
	Start(attrs []Attr) error
	// Child is called for every immediate child element; a nil return
	// causes the element (and its subtree) to be skipped.
	Child(name xml.Name) ElementDecoder
	// End is called when the element closes, after all children have
	// closed. It never returns an error: any failure must have already
	// been surfaced from Start.
	End()
	// Wrap attaches contextual information (resource kind + index) to an
	// accumulated error produced while this decoder's subtree was open.
	Wrap(err error) error
}

// AttributeDecoder is implemented by extensions that attach extra
// attributes to a core element (e.g. production's p:UUID on <item>,
// slice's s:slicestackid on <object>). DecodeAttribute is called once per
// foreign-namespace attribute found on the element.
type AttributeDecoder interface {
	DecodeAttribute(parent interface{}, attr Attr) error
}

// NodeCreator is implemented by an extension's Spec to create the
// ElementDecoder for a new top-level resource or object-scoped element, the
// way materials creates a colorGroupDecoder when it sees <m:colorgroup>
// inside <resources>.
type NodeCreator interface {
	CreateElementDecoder(parent interface{}, name string) ElementDecoder
}

// ValidateSpec is implemented by an extension's Spec to participate in the
// core validator's per-asset/per-object extension pass (§4.5 rule 13).
type ValidateSpec interface {
	// Validate is called once per decoded asset (resource) or object that
	// belongs to, or was decorated by, this extension. path is the model
	// part the asset/object lives in.
	Validate(model interface{}, path string, element interface{}) error
}

// PostParseSpec is implemented by an extension's Spec that needs to run a
// pass over the whole model after decoding finishes but before validation
// starts (e.g. resolving a beamlattice's clippingmesh reference into a
// concrete object pointer).
type PostParseSpec interface {
	PostParse(model interface{}) error
}

// BaseDecoder is embeddable by ElementDecoder implementations that have no
// children and need no End/Wrap behavior, matching the teacher's
// slices.baseDecoder.
type BaseDecoder struct{}

func (BaseDecoder) Child(xml.Name) ElementDecoder { return nil }
func (BaseDecoder) End()                          {}
func (BaseDecoder) Wrap(err error) error          { return err }
