// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package beamlattice

import (
	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/mesh"
)

// Validate implements spec.ValidateSpec (spec.md §4.5.5): called once per
// decoded *go3mf.Object that carries a mesh and a beam lattice. object is
// required rather than the BeamLattice in isolation because several rules
// (object type, referenced meshes, property defaults) reach outside the
// lattice itself.
func (Spec) Validate(m interface{}, path string, element interface{}) error {
	model, ok := m.(*go3mf.Model)
	if !ok {
		return nil
	}
	o, ok := element.(*go3mf.Object)
	if !ok || o.Mesh == nil {
		return nil
	}
	bl, ok := GetBeamLattice(o.Mesh)
	if !ok {
		return nil
	}
	return validateBeamLattice(model, path, o, bl)
}

func validateBeamLattice(model *go3mf.Model, path string, o *go3mf.Object, bl *BeamLattice) error {
	var errs error

	if o.ObjectType != go3mf.ObjectTypeModel && o.ObjectType != go3mf.ObjectTypeSolidSupport {
		errs = specerr.Append(errs, specerr.InvalidModel("beamlattice is only valid on objects of type model or solidsupport"))
	}

	n := len(o.Mesh.Vertices)
	seen := make(map[mesh.Edge]int, len(bl.Beams))
	hasProperty := false
	for i, b := range bl.Beams {
		if b.Indices[0] == b.Indices[1] {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("beam must connect two distinct vertices"), b, i))
		}
		if int(b.Indices[0]) >= n || int(b.Indices[1]) >= n {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrIndexOutOfBounds, b, i))
			continue
		}
		e := mesh.NewEdge(b.Indices[0], b.Indices[1])
		seen[e]++
		if seen[e] > 1 {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("duplicate beam between vertices %d and %d", b.Indices[0], b.Indices[1]), b, i))
		}
		if b.HasPID {
			hasProperty = true
		}
	}

	nBalls := len(bl.Balls)
	for i, b := range bl.Balls {
		if int(b.Index) >= n {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrIndexOutOfBounds, b, i))
		}
		if b.HasPID {
			hasProperty = true
		}
	}

	if bl.BallMode == BallMixed {
		endpoints := make(map[uint32]bool, len(bl.Beams)*2)
		for _, b := range bl.Beams {
			endpoints[b.Indices[0]] = true
			endpoints[b.Indices[1]] = true
		}
		for i, b := range bl.Balls {
			if !endpoints[b.Index] {
				errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("ball vertex %d is not a beam endpoint", b.Index), b, i))
			}
		}
	}

	if hasProperty && !o.HasDefaultPID && !bl.HasDefaultPID {
		errs = specerr.Append(errs, specerr.InvalidModel("beam lattice with per-beam/ball properties requires a default pid"))
	}

	for i, s := range bl.BeamSets {
		for j, ref := range s.Refs {
			if int(ref) >= len(bl.Beams) {
				errs = specerr.Append(errs, specerr.WrapIndex(specerr.WrapIndex(specerr.ErrIndexOutOfBounds, ref, j), s, i))
			}
		}
	}
	for i, s := range bl.BallSets {
		for j, ref := range s.Refs {
			if int(ref) >= nBalls {
				errs = specerr.Append(errs, specerr.WrapIndex(specerr.WrapIndex(specerr.ErrIndexOutOfBounds, ref, j), s, i))
			}
		}
	}

	if bl.ClipMode != ClipNone && !bl.HasClippingMesh {
		errs = specerr.Append(errs, specerr.NewRequiredAttrError(attrClippingMesh))
	}
	if bl.HasClippingMesh {
		errs = specerr.Append(errs, validateMeshRef(model, path, o, bl.ClippingMeshID))
	}
	if bl.HasRepresentationMesh {
		errs = specerr.Append(errs, validateMeshRef(model, path, o, bl.RepresentationMeshID))
	}
	if bl.BallMode != BallNone && !bl.HasBallRadius && bl.BallMode == BallAll {
		errs = specerr.Append(errs, specerr.NewRequiredAttrError(attrBallRadius))
	}

	return errs
}

// validateMeshRef checks the clippingmesh/representationmesh rules of
// spec.md §4.5.5: the id must be positive, distinct from the owning
// object, resolve to an earlier-parsed object that itself carries a mesh
// but no beam lattice of its own.
func validateMeshRef(model *go3mf.Model, path string, o *go3mf.Object, id uint32) error {
	if id == 0 {
		return specerr.InvalidModel("mesh reference id must be a positive resource id")
	}
	if id == o.ID {
		return specerr.InvalidModel("mesh reference must not reference the object it decorates")
	}
	ref, ok := model.FindObject(path, id)
	if !ok {
		return specerr.InvalidModel("mesh reference id %d does not reference an object", id)
	}
	if ref.Order >= o.Order {
		return specerr.ErrForwardReference
	}
	if ref.Mesh == nil {
		return specerr.InvalidModel("mesh reference id %d does not reference an object with a mesh", id)
	}
	if _, ok := GetBeamLattice(ref.Mesh); ok {
		return specerr.InvalidModel("mesh reference id %d must not itself carry a beam lattice", id)
	}
	return nil
}
