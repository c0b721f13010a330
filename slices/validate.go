// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package slices

import (
	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
)

// Validate implements spec.ValidateSpec (spec.md §4.5.4): called once
// per decoded SliceStack asset and once per object decorated with a
// slicestackid/meshresolution attribute.
func (Spec) Validate(m interface{}, path string, element interface{}) error {
	model, ok := m.(*go3mf.Model)
	if !ok {
		return nil
	}
	switch e := element.(type) {
	case *SliceStack:
		return validateSliceStack(model, path, e)
	case *go3mf.Object:
		if a, ok := GetObjectAttr(e); ok {
			return validateObject(model, path, e, a)
		}
	}
	return nil
}

func validateSliceStack(model *go3mf.Model, path string, r *SliceStack) error {
	var errs error
	if len(r.Slices) > 0 && len(r.Refs) > 0 {
		errs = specerr.Append(errs, specerr.InvalidModel("a slicestack must not mix inline slices and sliceref entries"))
	}
	if len(r.Slices) == 0 && len(r.Refs) == 0 {
		errs = specerr.Append(errs, specerr.ErrEmptyResourceProps)
	}
	prevZ := r.BottomZ
	for i, s := range r.Slices {
		if s.TopZ <= prevZ {
			errs = specerr.Append(errs, specerr.WrapIndex(
				specerr.InvalidModel("slice ztop %v must be strictly greater than the previous layer's z (%v)", s.TopZ, prevZ),
				s, i))
		}
		prevZ = s.TopZ
		if len(s.Vertices) == 0 || len(s.Polygons) == 0 {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrEmptyResourceProps, s, i))
			continue
		}
		errs = specerr.Append(errs, specerr.WrapIndex(validateSlice(s), s, i))
	}
	for i, ref := range r.Refs {
		errs = specerr.Append(errs, specerr.WrapIndex(validateSliceRef(model, path, ref), ref, i))
	}
	return specerr.WrapIndex(errs, r, r.Order)
}

func validateSlice(s *Slice) error {
	var errs error
	n := len(s.Vertices)
	for i, p := range s.Polygons {
		if int(p.StartV) >= n {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrIndexOutOfBounds, p, i))
			continue
		}
		if len(p.Segments) == 0 {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrEmptyResourceProps, p, i))
		}
		for j, seg := range p.Segments {
			if int(seg.V2) >= n {
				errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrIndexOutOfBounds, seg, j))
			}
		}
	}
	return errs
}

// validateSliceRef checks that an external slicestack reference points
// at a different, already-parsed model part that declares a SliceStack
// with the referenced ID (spec.md §4.5.2/§4.5.4: non-root parts cannot
// chain further external references).
func validateSliceRef(model *go3mf.Model, path string, ref SliceRef) error {
	if ref.Path == "" {
		return specerr.NewMissingFieldError(attrSlicePath)
	}
	if ref.Path == model.PathOrDefault() || ref.Path == path {
		return specerr.InvalidModel("sliceref path %q must not reference the part it is declared in", ref.Path)
	}
	rs, ok := model.FindResources(ref.Path)
	if !ok {
		return specerr.MissingFile(ref.Path)
	}
	asset, ok := rs.FindAsset(ref.SliceStackID)
	if !ok {
		return specerr.ErrMissingResource
	}
	if _, ok := asset.(*SliceStack); !ok {
		return specerr.InvalidModel("slicestackid %d does not reference a slicestack resource", ref.SliceStackID)
	}
	return nil
}

func validateObject(model *go3mf.Model, path string, o *go3mf.Object, a *ObjectAttr) error {
	if !a.HasSliceStack {
		return nil
	}
	asset, ok := model.FindAsset(path, a.SliceStackID)
	if !ok {
		return specerr.ErrMissingResource
	}
	stack, ok := asset.(*SliceStack)
	if !ok {
		return specerr.InvalidModel("slicestackid %d does not reference a slicestack resource", a.SliceStackID)
	}
	if stack.ParseOrder() >= o.Order {
		return specerr.ErrForwardReference
	}
	return nil
}
