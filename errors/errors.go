// Package errors implements the tagged-error taxonomy shared by every
// component of go3mf. Errors are values, never panics: a decode or validate
// pass accumulates every local problem it finds with Append and returns the
// accumulation, so callers see the full list of violations instead of only
// the first one found.
package errors

import (
	"fmt"
	"strings"
)

// Kind tags the broad category a *Error belongs to, matching the taxonomy
// from the format specification: structural, syntactic, semantic,
// configuration and I/O failures are all distinguishable without string
// matching the message.
type Kind uint8

// Supported error kinds.
const (
	KindInvalidFormat Kind = iota
	KindInvalidXML
	KindInvalidModel
	KindInvalidSecureContent
	KindMissingFile
	KindUnsupportedExtension
	KindXML
	KindIO
	KindZip
)

func (k Kind) String() string {
	switch k {
	case KindInvalidFormat:
		return "InvalidFormat"
	case KindInvalidXML:
		return "InvalidXml"
	case KindInvalidModel:
		return "InvalidModel"
	case KindInvalidSecureContent:
		return "InvalidSecureContent"
	case KindMissingFile:
		return "MissingFile"
	case KindUnsupportedExtension:
		return "UnsupportedExtension"
	case KindXML:
		return "XmlError"
	case KindIO:
		return "IoError"
	case KindZip:
		return "ZipError"
	}
	return "Unknown"
}

// Error is the single tagged-union error type returned by every public
// entry point. Context carries the rule name / entity id / available
// alternatives that made the error actionable; Err, when set, is the
// underlying cause (an XML decode error, an I/O error, a zip error).
type Error struct {
	Kind    Kind
	Context string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		if e.Context == "" {
			return fmt.Sprintf("go3mf: %s: %v", e.Kind, e.Err)
		}
		return fmt.Sprintf("go3mf: %s: %s: %v", e.Kind, e.Context, e.Err)
	}
	return fmt.Sprintf("go3mf: %s: %s", e.Kind, e.Context)
}

func (e *Error) Unwrap() error { return e.Err }

// New builds a bare *Error of the given kind with a formatted context
// string.
func New(k Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: k, Context: fmt.Sprintf(format, args...)}
}

// Wrap builds a *Error of the given kind around an underlying error.
func Wrap(k Kind, err error, context string) *Error {
	return &Error{Kind: k, Context: context, Err: err}
}

// InvalidFormat reports a structural (OPC/ZIP integrity) violation.
func InvalidFormat(format string, args ...interface{}) *Error {
	return New(KindInvalidFormat, format, args...)
}

// InvalidXML reports a syntactic XML violation that is not a raw decode
// error (DOCTYPE present, attribute out of whitelist, enum value unknown).
func InvalidXML(format string, args ...interface{}) *Error {
	return New(KindInvalidXML, format, args...)
}

// InvalidModel reports a semantic model-validity violation.
func InvalidModel(format string, args ...interface{}) *Error {
	return New(KindInvalidModel, format, args...)
}

// InvalidSecureContent reports a keystore/secure-content structural
// violation.
func InvalidSecureContent(format string, args ...interface{}) *Error {
	return New(KindInvalidSecureContent, format, args...)
}

// MissingFile reports a required OPC part that does not exist.
func MissingFile(path string) *Error {
	return New(KindMissingFile, "required part not found: %s", path)
}

// UnsupportedExtension reports a required extension the parser
// configuration does not support.
func UnsupportedExtension(name string) *Error {
	return New(KindUnsupportedExtension, "required extension not supported: %s", name)
}

// XML wraps an underlying encoding/xml error.
func XML(err error) *Error { return Wrap(KindXML, err, "") }

// IO wraps an underlying I/O error.
func IO(err error) *Error { return Wrap(KindIO, err, "") }

// Zip wraps an underlying archive/zip error.
func Zip(err error) *Error { return Wrap(KindZip, err, "") }

// list accumulates multiple *Error values behind a single error value, so a
// pass can report everything wrong instead of stopping at the first issue.
type list struct {
	errs []error
}

func (l *list) Error() string {
	parts := make([]string, len(l.errs))
	for i, e := range l.errs {
		parts[i] = e.Error()
	}
	return strings.Join(parts, "; ")
}

// Errors returns the flattened list of individual errors contained in err,
// whether err is nil, a single error or a list produced by Append.
func Errors(err error) []error {
	if err == nil {
		return nil
	}
	if l, ok := err.(*list); ok {
		return l.errs
	}
	return []error{err}
}

// Append adds err2 to the accumulation held by err1, returning the combined
// error. Either argument may be nil.
func Append(err1, err2 error) error {
	if err2 == nil {
		return err1
	}
	if err1 == nil {
		return err2
	}
	l, ok := err1.(*list)
	if !ok {
		l = &list{errs: []error{err1}}
	}
	if l2, ok := err2.(*list); ok {
		l.errs = append(l.errs, l2.errs...)
	} else {
		l.errs = append(l.errs, err2)
	}
	return l
}

// entityContext identifies one offending entity by kind, index and id/path,
// used by WrapIndex / WrapPath to prefix every accumulated error with where
// it came from.
type entityContext struct {
	err  error
	path string
}

func (e *entityContext) Error() string {
	if e.path == "" {
		return e.err.Error()
	}
	return fmt.Sprintf("%s: %s", e.path, e.err.Error())
}

func (e *entityContext) Unwrap() error { return e.err }

// WrapIndex prefixes every error accumulated in err with "<type>[<index>]",
// the Go type name of resource followed by index in brackets,
// matching the teacher's specerr.WrapIndex helper used throughout the
// per-extension decoders and validators.
func WrapIndex(err error, resource interface{}, index int) error {
	if err == nil {
		return nil
	}
	prefix := fmt.Sprintf("%T[%d]", resource, index)
	var out error
	for _, e := range Errors(err) {
		out = Append(out, &entityContext{err: e, path: prefix})
	}
	return out
}

// WrapPath prefixes every error accumulated in err with a part path, used
// when a validator descends into a non-root model part.
func WrapPath(err error, path string) error {
	if err == nil {
		return nil
	}
	var out error
	for _, e := range Errors(err) {
		out = Append(out, &entityContext{err: e, path: path})
	}
	return out
}

// NewParseAttrError reports an attribute value that failed to parse as the
// expected type (numeric, boolean, enum...). required marks whether the
// attribute itself was mandatory, matching the teacher's
// specerr.NewParseAttrError(name, required) signature.
func NewParseAttrError(name string, required bool) *Error {
	if required {
		return InvalidXML("required attribute %q has an invalid value", name)
	}
	return InvalidXML("optional attribute %q has an invalid value", name)
}

// NewMissingFieldError reports a mandatory attribute/element that was not
// present at all.
func NewMissingFieldError(name string) *Error {
	return InvalidModel("missing required field %q", name)
}

// NewRequiredAttrError reports a required attribute that was never set.
func NewRequiredAttrError(name string) *Error {
	return InvalidXML("missing required attribute %q", name)
}

// Sentinel errors shared across packages, matching the shape of the
// teacher's package-level Err* variables (materials.ErrTextureReference,
// beamlattice.ErrLatticeSameVertex, ...).
var (
	ErrMissingID           = InvalidModel("resource is missing a required id")
	ErrEmptyResourceProps  = InvalidModel("resource has no properties")
	ErrMissingResource     = InvalidModel("referenced resource does not exist")
	ErrIndexOutOfBounds    = InvalidModel("index is out of bounds for the referenced resource")
	ErrDuplicatedID        = InvalidModel("duplicate resource id")
	ErrForwardReference    = InvalidModel("forward reference: resource must be declared before it is used")
	ErrCircularReference   = InvalidModel("circular reference detected")
	ErrOPCDuplicateRel     = InvalidFormat("duplicate relationship (Target,Type) pair")
	ErrOPCPartNotFound     = InvalidFormat("relationship target does not resolve to an existing part")
	ErrRequiredExtNotMet   = InvalidModel("required extension not declared on root model")
	ErrUUIDFormat          = InvalidModel("malformed production UUID")
	ErrUUIDNotUnique       = InvalidModel("duplicate production UUID")
	ErrDOCTYPENotAllowed   = InvalidXML("DOCTYPE declarations are not allowed")
	ErrAttributeNotAllowed = InvalidXML("attribute is not allowed on this element")
)

// Is reports whether err (or any error accumulated inside it) has the
// given Kind.
func Is(err error, k Kind) bool {
	for _, e := range Errors(err) {
		var ge *Error
		cur := e
		for cur != nil {
			if g, ok := cur.(*Error); ok {
				ge = g
				break
			}
			u, ok := cur.(interface{ Unwrap() error })
			if !ok {
				break
			}
			cur = u.Unwrap()
		}
		if ge != nil && ge.Kind == k {
			return true
		}
	}
	return false
}
