// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package boolean

import (
	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
)

// Validate implements spec.ValidateSpec (spec.md §4.5 rules 6-7): called
// once per decoded *go3mf.Object that carries a BooleanShape.
func (Spec) Validate(m interface{}, path string, element interface{}) error {
	model, ok := m.(*go3mf.Model)
	if !ok {
		return nil
	}
	o, ok := element.(*go3mf.Object)
	if !ok {
		return nil
	}
	bs, ok := GetBooleanShape(o)
	if !ok {
		return nil
	}
	if !model.RequiredExtensions[Namespace] && !model.RequiredExtensions[VolumetricNamespace] {
		return specerr.InvalidModel("use of booleanshape requires the boolean operations extension in requiredextensions")
	}
	var errs error
	if o.HasDefaultPID {
		errs = specerr.Append(errs, specerr.InvalidModel("an object with a booleanshape must not declare pid/pindex"))
	}
	errs = specerr.Append(errs, validateRef(model, path, o, bs.BaseObjectID, bs.BasePath))
	for i, op := range bs.Operands {
		errs = specerr.Append(errs, specerr.WrapIndex(validateRef(model, path, o, op.ObjectID, op.Path), op, i))
	}
	return errs
}

// validateRef checks that a base/operand reference resolves to an
// in-bounds, earlier-parsed object of type "model" (spec.md §4.5 rule
// 7), unless it is external (Path != ""), in which case only structural
// existence within this part is skipped: the target part is resolved
// through the package layer and is outside this extension's purview.
func validateRef(model *go3mf.Model, path string, owner *go3mf.Object, id uint32, refPath string) error {
	if refPath != "" {
		if refPath == path || refPath == model.PathOrDefault() {
			return specerr.InvalidModel("booleanshape reference path %q must not reference the part it is declared in", refPath)
		}
		if _, ok := model.FindResources(refPath); !ok {
			return specerr.MissingFile(refPath)
		}
		return nil
	}
	ref, ok := model.FindObject(path, id)
	if !ok {
		return specerr.ErrMissingResource
	}
	if ref.Order >= owner.Order {
		return specerr.ErrForwardReference
	}
	if ref.ObjectType != go3mf.ObjectTypeModel {
		return specerr.InvalidModel("booleanshape reference to object %d must be of type model", id)
	}
	return nil
}
