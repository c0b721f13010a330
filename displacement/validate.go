// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package displacement

import (
	"strings"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/mesh"
)

const (
	lengthEpsilon      = 1e-6
	volumeEpsilon      = 1e-10
	duplicateVertexEps = 1e-20
	degenerateAreaEps  = 1e-20
	dotProductEpsilon  = 1e-10
)

// Validate implements spec.ValidateSpec (spec.md §4.5.3): called once
// per decoded Displacement2D/NormVectorGroup/Disp2DGroup asset and once
// per object carrying a DisplacementMesh.
func (Spec) Validate(m interface{}, path string, element interface{}) error {
	model, ok := m.(*go3mf.Model)
	if !ok {
		return nil
	}
	if !requiredDeclared(model) && usesDisplacement(element) {
		return specerr.InvalidModel("use of displacement resources/elements requires the displacement extension in requiredextensions")
	}
	switch e := element.(type) {
	case *Displacement2D:
		return validateDisplacement2D(model, e)
	case *NormVectorGroup:
		return validateNormVectorGroup(e)
	case *Disp2DGroup:
		return validateDisp2DGroup(model, e)
	case *go3mf.Object:
		if dm, ok := GetDisplacementMesh(e); ok {
			return validateDisplacementMesh(model, e, dm)
		}
	}
	return nil
}

func usesDisplacement(element interface{}) bool {
	switch e := element.(type) {
	case *Displacement2D, *NormVectorGroup, *Disp2DGroup:
		return true
	case *go3mf.Object:
		_, ok := GetDisplacementMesh(e)
		return ok
	}
	return false
}

func requiredDeclared(model *go3mf.Model) bool {
	return model.RequiredExtensions[Namespace]
}

func validateDisplacement2D(model *go3mf.Model, r *Displacement2D) error {
	var errs error
	if r.Path == "" {
		return specerr.NewMissingFieldError(attrPath)
	}
	for _, c := range r.Path {
		if c > 127 {
			errs = specerr.Append(errs, specerr.InvalidModel("displacement2d path %q must contain only ASCII characters", r.Path))
			break
		}
	}
	encrypted := isEncryptedPath(model, r.Path)
	if !encrypted && !strings.HasPrefix(strings.ToLower(r.Path), "/3d/textures/") {
		errs = specerr.Append(errs, specerr.InvalidModel("displacement2d path %q must be under /3D/Textures/", r.Path))
	}
	if !strings.HasSuffix(strings.ToLower(r.Path), ".png") {
		errs = specerr.Append(errs, specerr.InvalidModel("displacement2d path %q must end in .png", r.Path))
	}
	return specerr.WrapIndex(errs, r, r.Order)
}

func validateNormVectorGroup(r *NormVectorGroup) error {
	var errs error
	for i, v := range r.Vectors {
		lenSq := v[0]*v[0] + v[1]*v[1] + v[2]*v[2]
		if lenSq < lengthEpsilon {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("normvector must not be near-zero length"), v, i))
		}
	}
	return specerr.WrapIndex(errs, r, r.Order)
}

func validateDisp2DGroup(model *go3mf.Model, r *Disp2DGroup) error {
	var errs error
	asset, ok := model.FindAsset("", r.DispID)
	if !ok {
		errs = specerr.Append(errs, specerr.ErrMissingResource)
	} else if _, ok := asset.(*Displacement2D); !ok {
		errs = specerr.Append(errs, specerr.InvalidModel("dispid %d does not reference a displacement2d resource", r.DispID))
	}
	nAsset, ok := model.FindAsset("", r.NID)
	var normGroup *NormVectorGroup
	if !ok {
		errs = specerr.Append(errs, specerr.ErrMissingResource)
	} else if ng, ok := nAsset.(*NormVectorGroup); !ok {
		errs = specerr.Append(errs, specerr.InvalidModel("nid %d does not reference a normvectorgroup resource", r.NID))
	} else {
		normGroup = ng
	}
	if normGroup != nil {
		for i, c := range r.Coords {
			if int(c.N) >= normGroup.Len() {
				errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrIndexOutOfBounds, c, i))
			}
		}
	}
	return specerr.WrapIndex(errs, r, r.Order)
}

func validateDisplacementMesh(model *go3mf.Model, o *go3mf.Object, dm *DisplacementMesh) error {
	var errs error
	if len(dm.Triangles) < 4 {
		errs = specerr.Append(errs, specerr.InvalidModel("displacement mesh must have at least 4 triangles"))
	}

	core := &go3mf.Mesh{Vertices: dm.Vertices}
	for _, t := range dm.Triangles {
		core.Triangles = append(core.Triangles, go3mf.Triangle{Indices: t.Indices})
	}

	if vol := mesh.SignedVolume(core); vol < volumeEpsilon {
		errs = specerr.Append(errs, specerr.InvalidModel("displacement mesh must have positive signed volume (got %v)", vol))
	}

	n := len(dm.Vertices)
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			d := sub(dm.Vertices[i], dm.Vertices[j])
			if d[0]*d[0]+d[1]*d[1]+d[2]*d[2] < duplicateVertexEps {
				errs = specerr.Append(errs, specerr.InvalidModel("displacement mesh vertices %d and %d occupy the same position", i, j))
			}
		}
	}

	counts := mesh.DirectedEdgeCounts(core)
	for e, c := range counts {
		if c != 1 {
			errs = specerr.Append(errs, specerr.InvalidModel("displacement mesh directed edge (%d,%d) appears %d times, expected exactly 1", e.From, e.To, c))
		}
		if counts[mesh.DirectedEdge{From: e.To, To: e.From}] != 1 {
			errs = specerr.Append(errs, specerr.InvalidModel("displacement mesh is not a closed manifold: edge (%d,%d) has no matching reverse edge", e.From, e.To))
		}
	}

	for i, t := range dm.Triangles {
		if int(t.Indices[0]) >= n || int(t.Indices[1]) >= n || int(t.Indices[2]) >= n {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrIndexOutOfBounds, t, i))
			continue
		}
		if t.Indices[0] == t.Indices[1] || t.Indices[1] == t.Indices[2] || t.Indices[0] == t.Indices[2] {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("displacement triangle must reference three distinct vertices"), t, i))
		} else {
			v0, v1, v2 := dm.Vertices[t.Indices[0]], dm.Vertices[t.Indices[1]], dm.Vertices[t.Indices[2]]
			area := cross(sub(v1, v0), sub(v2, v0))
			if areaSq := area[0]*area[0] + area[1]*area[1] + area[2]*area[2]; areaSq < degenerateAreaEps {
				errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("displacement triangle is degenerate"), t, i))
			}
		}
		if t.HasD1 || t.HasD2 || t.HasD3 {
			errs = specerr.Append(errs, specerr.WrapIndex(validateTriangleDisp(model, core, t), t, i))
		}
	}

	return errs
}

func validateTriangleDisp(model *go3mf.Model, core *go3mf.Mesh, t DisplacementTriangle) error {
	if !t.HasDID {
		return specerr.NewRequiredAttrError(attrDID)
	}
	asset, ok := model.FindAsset("", t.DID)
	if !ok {
		return specerr.ErrMissingResource
	}
	group, ok := asset.(*Disp2DGroup)
	if !ok {
		return specerr.InvalidModel("did %d does not reference a disp2dgroup resource", t.DID)
	}
	for _, idx3 := range []struct {
		has bool
		val uint32
	}{{t.HasD1, t.D1}, {t.HasD2, t.D2}, {t.HasD3, t.D3}} {
		if !idx3.has {
			continue
		}
		if int(idx3.val) >= group.Len() {
			return specerr.ErrIndexOutOfBounds
		}
	}
	nAsset, ok := model.FindAsset("", group.NID)
	if !ok {
		return nil
	}
	normGroup, ok := nAsset.(*NormVectorGroup)
	if !ok {
		return nil
	}
	v0, v1, v2 := core.Vertices[t.Indices[0]], core.Vertices[t.Indices[1]], core.Vertices[t.Indices[2]]
	unnormalized := cross(sub(v1, v0), sub(v2, v0))
	for _, idx3 := range []struct {
		has bool
		val uint32
	}{{t.HasD1, t.D1}, {t.HasD2, t.D2}, {t.HasD3, t.D3}} {
		if !idx3.has || int(idx3.val) >= group.Len() {
			continue
		}
		coord := group.Coords[idx3.val]
		if int(coord.N) >= normGroup.Len() {
			continue
		}
		nv := normGroup.Vectors[coord.N]
		dot := unnormalized[0]*nv[0] + unnormalized[1]*nv[1] + unnormalized[2]*nv[2]
		if dot <= dotProductEpsilon {
			return specerr.InvalidModel("displacement normvector does not point to the outer hemisphere of its triangle")
		}
	}
	return nil
}

func isEncryptedPath(model *go3mf.Model, path string) bool {
	if model.SecureContent == nil {
		return false
	}
	for _, p := range model.SecureContent.EncryptedParts {
		if p == path {
			return true
		}
	}
	return false
}

func sub(a, b go3mf.Point3D) go3mf.Point3D {
	return go3mf.Point3D{a[0] - b[0], a[1] - b[1], a[2] - b[2]}
}

func cross(a, b go3mf.Point3D) go3mf.Point3D {
	return go3mf.Point3D{
		a[1]*b[2] - a[2]*b[1],
		a[2]*b[0] - a[0]*b[2],
		a[0]*b[1] - a[1]*b[0],
	}
}
