// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

// Package boolean implements the Boolean Operations 3MF extension
// (spec.md §3.1/§4.5 rules 6-7): deriving an object's geometry from a
// boolean combination of a base object and an ordered list of operands,
// instead of from a local mesh.
package boolean

import (
	go3mf "github.com/3mf-go/go3mf"
)

// Namespace is the canonical name of this extension. VolumetricNamespace
// is accepted as an alias (spec.md §6.2).
const (
	Namespace           = "http://schemas.3mf.io/3dmanufacturing/booleanoperations/2023/07"
	VolumetricNamespace = "http://schemas.3mf.io/3dmanufacturing/volumetric/2021/08"
)

func init() {
	go3mf.Register(go3mf.ExtBooleanOperations, Spec{})
}

// Spec implements spec.Spec for the boolean operations extension.
type Spec struct{}

// Namespace returns the canonical namespace URI of this extension.
func (Spec) Namespace() string { return Namespace }

// Local returns the conventional xmlns prefix for this extension.
func (Spec) Local() string { return "bo" }

// Operation selects how a BooleanShape's operands combine with its base
// object.
type Operation uint8

// Supported operations. Union is the default when the attribute is
// absent.
const (
	OpUnion Operation = iota
	OpDifference
	OpIntersection
)

func newOperation(s string) (o Operation, ok bool) {
	o, ok = map[string]Operation{
		"union":        OpUnion,
		"difference":   OpDifference,
		"intersection": OpIntersection,
	}[s]
	return
}

// Operand is one operand of a BooleanShape: a reference to an object,
// either local (Path empty) or in another model part.
type Operand struct {
	ObjectID uint32
	Path     string
}

// BooleanShape is the boolean-operations Object decoration: a base
// object combined through Operation with an ordered list of Operands,
// document order preserved.
type BooleanShape struct {
	BaseObjectID uint32
	BasePath     string
	Operation    Operation
	Operands     []Operand
}

// GetBooleanShape returns o's boolean shape, if one was decoded.
func GetBooleanShape(o *go3mf.Object) (b *BooleanShape, ok bool) {
	ok = o.ExtAttr(&b)
	return
}

const (
	attrBooleanShape = "booleanshape"
	attrBoolean      = "boolean"
	attrObjectID     = "objectid"
	attrPath         = "path"
	attrOperation    = "operation"
)
