// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package materials

import (
	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
)

// Validate implements spec.ValidateSpec: it is called once per decoded
// asset that belongs to this extension (spec.md §4.5.1).
func (Spec) Validate(m interface{}, path string, asset interface{}) error {
	model, ok := m.(*go3mf.Model)
	if !ok {
		return nil
	}
	switch r := asset.(type) {
	case *ColorGroup:
		return validateColorGroup(r)
	case *Texture2D:
		return validateTexture2D(model, r)
	case *Texture2DGroup:
		return validateTexture2DGroup(model, path, r)
	case *CompositeMaterials:
		return validateCompositeMat(model, path, r)
	case *MultiProperties:
		return validateMultiProps(model, path, r)
	}
	return nil
}

func validateColorGroup(r *ColorGroup) error {
	var errs error
	if len(r.Colors) == 0 {
		errs = specerr.Append(errs, specerr.ErrEmptyResourceProps)
	}
	return specerr.WrapIndex(errs, r, r.Order)
}

func validateTexture2D(m *go3mf.Model, r *Texture2D) error {
	var errs error
	if r.Path == "" {
		errs = specerr.Append(errs, specerr.NewMissingFieldError(attrPath))
	} else {
		var hasTexture bool
		for _, a := range m.Attachments {
			if a.Path == r.Path {
				hasTexture = true
				break
			}
		}
		if !hasTexture {
			errs = specerr.Append(errs, specerr.MissingFile(r.Path))
		}
	}
	if r.ContentType == ContentTypeUnknown {
		errs = specerr.Append(errs, specerr.NewRequiredAttrError(attrContentType))
	}
	return specerr.WrapIndex(errs, r, r.Order)
}

func validateTexture2DGroup(m *go3mf.Model, path string, r *Texture2DGroup) error {
	var errs error
	if asset, ok := m.FindAsset(path, r.TextureID); ok {
		if _, ok := asset.(*Texture2D); !ok {
			errs = specerr.Append(errs, specerr.InvalidModel("texid %d does not reference a texture2d resource", r.TextureID))
		} else if asset.ParseOrder() >= r.Order {
			errs = specerr.Append(errs, specerr.ErrForwardReference)
		}
	} else {
		errs = specerr.Append(errs, specerr.ErrMissingResource)
	}
	if len(r.Coords) == 0 {
		errs = specerr.Append(errs, specerr.ErrEmptyResourceProps)
	}
	return specerr.WrapIndex(errs, r, r.Order)
}

func validateCompositeMat(m *go3mf.Model, path string, r *CompositeMaterials) error {
	var errs error
	var base *go3mf.BaseMaterials
	if asset, ok := m.FindAsset(path, r.MaterialID); ok {
		if bm, ok := asset.(*go3mf.BaseMaterials); ok {
			base = bm
			if asset.ParseOrder() >= r.Order {
				errs = specerr.Append(errs, specerr.ErrForwardReference)
			}
		} else {
			errs = specerr.Append(errs, specerr.InvalidModel("matid %d does not reference a basematerials group", r.MaterialID))
		}
	} else {
		errs = specerr.Append(errs, specerr.ErrMissingResource)
	}
	if len(r.Indices) == 0 {
		errs = specerr.Append(errs, specerr.NewMissingFieldError(attrMatIndices))
	} else if base != nil {
		for _, index := range r.Indices {
			if int(index) >= base.Len() {
				errs = specerr.Append(errs, specerr.ErrIndexOutOfBounds)
				break
			}
		}
	}
	if len(r.Composites) == 0 {
		errs = specerr.Append(errs, specerr.ErrEmptyResourceProps)
	}
	for j, c := range r.Composites {
		if len(c.Values) != len(r.Indices) {
			errs = specerr.Append(errs, specerr.WrapIndex(
				specerr.InvalidModel("composite has %d values but group declares %d indices", len(c.Values), len(r.Indices)),
				r, j))
		}
	}
	return specerr.WrapIndex(errs, r, r.Order)
}

func validateMultiProps(m *go3mf.Model, path string, r *MultiProperties) error {
	var errs error
	if len(r.PIDs) == 0 {
		errs = specerr.Append(errs, specerr.NewMissingFieldError(attrPIDs))
	}
	if len(r.BlendMethods) > 0 && len(r.BlendMethods) != len(r.PIDs)-1 {
		errs = specerr.Append(errs, specerr.InvalidModel("blendmethods must have exactly one entry per layer above the base"))
	}
	if len(r.Multis) == 0 {
		errs = specerr.Append(errs, specerr.ErrEmptyResourceProps)
	}
	var colorCount int
	lengths := make([]int, len(r.PIDs))
	for j, pid := range r.PIDs {
		asset, ok := m.FindAsset(path, pid)
		if !ok {
			errs = specerr.Append(errs, specerr.ErrMissingResource)
			continue
		}
		if asset.ParseOrder() >= r.Order {
			errs = specerr.Append(errs, specerr.ErrForwardReference)
		}
		switch pr := asset.(type) {
		case *go3mf.BaseMaterials:
			if j != 0 {
				errs = specerr.Append(errs, specerr.InvalidModel("a basematerials layer is only valid at index 0 of a multiproperties group"))
			}
			lengths[j] = pr.Len()
		case *CompositeMaterials:
			if j != 0 {
				errs = specerr.Append(errs, specerr.InvalidModel("a compositematerials layer is only valid at index 0 of a multiproperties group"))
			}
			lengths[j] = pr.Len()
		case *MultiProperties:
			errs = specerr.Append(errs, specerr.InvalidModel("a multiproperties group cannot reference another multiproperties group"))
		case *ColorGroup:
			if colorCount == 1 {
				errs = specerr.Append(errs, specerr.InvalidModel("a multiproperties group may reference at most one colorgroup layer"))
			}
			colorCount++
			lengths[j] = pr.Len()
		default:
			if pg, ok := asset.(go3mf.PropertyGroup); ok {
				lengths[j] = pg.Len()
			}
		}
	}
	for j, multi := range r.Multis {
		for k, index := range multi.PIndices {
			if k < len(lengths) && int(index) >= lengths[k] {
				errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrIndexOutOfBounds, multi, j))
				break
			}
		}
	}
	return specerr.WrapIndex(errs, r, r.Order)
}
