// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package boolean

import (
	"encoding/xml"
	"strconv"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/spec"
)

// CreateElementDecoder implements spec.NodeCreator for <bo:booleanshape>,
// nested under a core <object> element. At most one booleanshape is
// permitted per object (spec.md §4.3); booleanShapeDecoder.Start reports a
// second occurrence as an InvalidModel error.
func (Spec) CreateElementDecoder(parent interface{}, name string) spec.ElementDecoder {
	if name == attrBooleanShape {
		if o, ok := parent.(*go3mf.Object); ok {
			return &booleanShapeDecoder{object: o}
		}
	}
	return nil
}

// DecodeAttribute implements spec.AttributeDecoder; the extension
// carries no attributes outside of its own element tree.
func (Spec) DecodeAttribute(interface{}, spec.Attr) error { return nil }

type booleanShapeDecoder struct {
	object   *go3mf.Object
	resource BooleanShape
}

func (d *booleanShapeDecoder) Start(attrs []spec.Attr) error {
	var errs error
	if _, ok := GetBooleanShape(d.object); ok {
		errs = specerr.Append(errs, specerr.InvalidModel("an object must not declare more than one booleanshape"))
	}
	for _, a := range attrs {
		switch a.Name.Local {
		case attrObjectID:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.BaseObjectID = uint32(val)
		case attrPath:
			d.resource.BasePath = string(a.Value)
		case attrOperation:
			op, ok := newOperation(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			d.resource.Operation = op
		}
	}
	return errs
}

func (d *booleanShapeDecoder) End() {
	res := d.resource
	d.object.AnyAttr = append(d.object.AnyAttr, &res)
	d.object.HasExtensionShape = true
}

func (d *booleanShapeDecoder) Wrap(err error) error {
	return specerr.WrapPath(err, attrBooleanShape)
}

func (d *booleanShapeDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrBoolean {
		return &operandDecoder{resource: &d.resource}
	}
	return nil
}

type operandDecoder struct {
	spec.BaseDecoder
	resource *BooleanShape
}

func (d *operandDecoder) Start(attrs []spec.Attr) error {
	var op Operand
	var hasID bool
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrObjectID:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			op.ObjectID = uint32(val)
			hasID = true
		case attrPath:
			op.Path = string(a.Value)
		}
	}
	if !hasID {
		errs = specerr.Append(errs, specerr.NewRequiredAttrError(attrObjectID))
	}
	d.resource.Operands = append(d.resource.Operands, op)
	if errs != nil {
		return specerr.WrapIndex(errs, op, len(d.resource.Operands)-1)
	}
	return nil
}
