// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package production

import (
	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/google/uuid"
)

// Validate implements spec.ValidateSpec: it is called once per decoded
// object, and separately driven by the core validator over the build,
// every item and every component, checking UUID well-formedness plus the
// external-path rules of spec.md §4.5.2. Global UUID uniqueness is not
// checked here; the io3mf validator checks it across the whole package.
func (Spec) Validate(m interface{}, path string, element interface{}) error {
	model, ok := m.(*go3mf.Model)
	if !ok {
		return nil
	}
	switch e := element.(type) {
	case *go3mf.Object:
		if a, ok := GetObjectAttr(e); ok {
			return validateUUID(a.UUID)
		}
	case *go3mf.Build:
		if a, ok := GetBuildAttr(e); ok {
			return validateUUID(a.UUID)
		}
	case *go3mf.Item:
		var errs error
		if a, ok := GetItemAttr(e); ok {
			errs = specerr.Append(errs, validateUUID(a.UUID))
			errs = specerr.Append(errs, validateExternalPath(model, a.Path, e.ObjectID))
		}
		return errs
	case *go3mf.Component:
		var errs error
		if a, ok := GetComponentAttr(e); ok {
			errs = specerr.Append(errs, validateUUID(a.UUID))
			errs = specerr.Append(errs, validateExternalPath(model, a.Path, e.ObjectID))
		}
		return errs
	}
	return nil
}

func validateUUID(s string) error {
	if s == "" {
		return specerr.NewRequiredAttrError(attrProdUUID)
	}
	if _, err := uuid.Parse(s); err != nil {
		return specerr.ErrUUIDFormat
	}
	return nil
}

// validateExternalPath checks that a non-empty path resolves to a child
// model part that declares the referenced object, rather than the part
// the item/component itself lives in (spec.md §4.5.2: an external
// reference without a path attribute, or pointing back at its own part,
// is invalid). A path landing on a part the package marked as an
// encrypted OPC part is exempt from object resolution (spec.md rule 8):
// such a part is never decoded without a key provider, so its contents
// are opaque rather than missing.
func validateExternalPath(model *go3mf.Model, path string, objectID uint32) error {
	if path == "" {
		return nil
	}
	if path == model.PathOrDefault() {
		return specerr.InvalidModel("production path %q must not reference the part it is declared in", path)
	}
	if child, ok := model.Childs[path]; ok && child.Encrypted {
		return nil
	}
	rs, ok := model.FindResources(path)
	if !ok {
		return specerr.MissingFile(path)
	}
	if _, ok := rs.FindObject(objectID); !ok {
		return specerr.ErrMissingResource
	}
	return nil
}
