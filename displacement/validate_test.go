// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package displacement

import (
	"testing"

	go3mf "github.com/3mf-go/go3mf"
)

func newModelWithExt() *go3mf.Model {
	return &go3mf.Model{RequiredExtensions: map[string]bool{Namespace: true}}
}

func TestValidate_requiresExtensionDeclared(t *testing.T) {
	m := &go3mf.Model{}
	r := &Displacement2D{ID: 1, Path: "/3D/Textures/bump.png"}
	if err := (Spec{}).Validate(m, "", r); err == nil {
		t.Error("missing requiredextensions declaration should fail")
	}
}

func TestValidateDisplacement2D(t *testing.T) {
	m := newModelWithExt()
	ok := &Displacement2D{ID: 1, Path: "/3D/Textures/bump.png"}
	if err := (Spec{}).Validate(m, "", ok); err != nil {
		t.Errorf("unexpected error = %v", err)
	}

	badPrefix := &Displacement2D{ID: 1, Path: "/3D/Other/bump.png"}
	if err := (Spec{}).Validate(m, "", badPrefix); err == nil {
		t.Error("path outside /3D/Textures/ should fail")
	}

	badSuffix := &Displacement2D{ID: 1, Path: "/3D/Textures/bump.jpg"}
	if err := (Spec{}).Validate(m, "", badSuffix); err == nil {
		t.Error("non-png path should fail")
	}

	encrypted := newModelWithExt()
	encrypted.SecureContent = &go3mf.SecureContentInfo{EncryptedParts: []string{"/elsewhere/bump.png"}}
	exempt := &Displacement2D{ID: 1, Path: "/elsewhere/bump.png"}
	if err := (Spec{}).Validate(encrypted, "", exempt); err != nil {
		t.Errorf("encrypted part should be exempt from directory prefix check, got = %v", err)
	}
}

func TestValidateNormVectorGroup(t *testing.T) {
	m := newModelWithExt()
	ok := &NormVectorGroup{ID: 1, Vectors: []NormVector{{0, 0, 1}, {1, 2, 3}}}
	if err := (Spec{}).Validate(m, "", ok); err != nil {
		t.Errorf("unexpected error = %v", err)
	}

	zero := &NormVectorGroup{ID: 1, Vectors: []NormVector{{0, 0, 0}}}
	if err := (Spec{}).Validate(m, "", zero); err == nil {
		t.Error("near-zero-length normvector should fail")
	}
}

func TestValidateDisp2DGroup(t *testing.T) {
	m := newModelWithExt()
	m.Resources.Assets = []go3mf.Asset{
		&Displacement2D{ID: 1},
		&NormVectorGroup{ID: 5, Vectors: []NormVector{{0, 0, 1}}},
	}
	ok := &Disp2DGroup{ID: 7, DispID: 1, NID: 5, Coords: []Disp2DCoord{{N: 0}}}
	if err := (Spec{}).Validate(m, "", ok); err != nil {
		t.Errorf("unexpected error = %v", err)
	}

	badDispID := &Disp2DGroup{ID: 7, DispID: 99, NID: 5}
	if err := (Spec{}).Validate(m, "", badDispID); err == nil {
		t.Error("missing dispid reference should fail")
	}

	badN := &Disp2DGroup{ID: 7, DispID: 1, NID: 5, Coords: []Disp2DCoord{{N: 3}}}
	if err := (Spec{}).Validate(m, "", badN); err == nil {
		t.Error("disp2dcoord.n out of bounds should fail")
	}
}

func cubeVertices() []go3mf.Point3D {
	return []go3mf.Point3D{
		{0, 0, 0}, {1, 0, 0}, {1, 1, 0}, {0, 1, 0},
		{0, 0, 1}, {1, 0, 1}, {1, 1, 1}, {0, 1, 1},
	}
}

func cubeTriangles() []DisplacementTriangle {
	idx := [][3]uint32{
		{0, 2, 1}, {0, 3, 2},
		{4, 5, 6}, {4, 6, 7},
		{0, 1, 5}, {0, 5, 4},
		{1, 2, 6}, {1, 6, 5},
		{2, 3, 7}, {2, 7, 6},
		{3, 0, 4}, {3, 4, 7},
	}
	tris := make([]DisplacementTriangle, len(idx))
	for i, ix := range idx {
		tris[i] = DisplacementTriangle{Indices: ix}
	}
	return tris
}

func TestValidateDisplacementMesh_ok(t *testing.T) {
	m := newModelWithExt()
	o := &go3mf.Object{ID: 1}
	dm := &DisplacementMesh{Vertices: cubeVertices(), Triangles: cubeTriangles()}
	o.AnyAttr = append(o.AnyAttr, dm)
	if err := (Spec{}).Validate(m, "", o); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidateDisplacementMesh_tooFewTriangles(t *testing.T) {
	m := newModelWithExt()
	o := &go3mf.Object{ID: 1}
	dm := &DisplacementMesh{Vertices: cubeVertices()[:3], Triangles: cubeTriangles()[:2]}
	o.AnyAttr = append(o.AnyAttr, dm)
	if err := (Spec{}).Validate(m, "", o); err == nil {
		t.Error("mesh with fewer than 4 triangles should fail")
	}
}

func TestValidateDisplacementMesh_duplicateVertex(t *testing.T) {
	m := newModelWithExt()
	o := &go3mf.Object{ID: 1}
	verts := cubeVertices()
	verts[1] = verts[0]
	dm := &DisplacementMesh{Vertices: verts, Triangles: cubeTriangles()}
	if err := (Spec{}).Validate(m, "", setMesh(o, dm)); err == nil {
		t.Error("duplicate vertex position should fail")
	}
}

func TestValidateDisplacementMesh_nonManifold(t *testing.T) {
	m := newModelWithExt()
	o := &go3mf.Object{ID: 1}
	tris := cubeTriangles()[:11]
	dm := &DisplacementMesh{Vertices: cubeVertices(), Triangles: tris}
	if err := (Spec{}).Validate(m, "", setMesh(o, dm)); err == nil {
		t.Error("open mesh should fail the manifold/winding check")
	}
}

func TestValidateDisplacementMesh_dBoundsAndOutwardNormal(t *testing.T) {
	m := newModelWithExt()
	m.Resources.Assets = []go3mf.Asset{
		&Displacement2D{ID: 1},
		&NormVectorGroup{ID: 5, Vectors: []NormVector{{0, 0, -1}}},
		&Disp2DGroup{ID: 9, DispID: 1, NID: 5, Coords: []Disp2DCoord{{N: 0}}},
	}
	o := &go3mf.Object{ID: 1}
	tris := cubeTriangles()
	tris[2].DID, tris[2].HasDID = 9, true
	tris[2].D1, tris[2].HasD1 = 0, true
	dm := &DisplacementMesh{Vertices: cubeVertices(), Triangles: tris}
	if err := (Spec{}).Validate(m, "", setMesh(o, dm)); err == nil {
		t.Error("normvector pointing into the mesh should fail the outward-normal check")
	}

	badDID := cubeTriangles()
	badDID[2].DID, badDID[2].HasDID = 99, true
	badDID[2].D1, badDID[2].HasD1 = 0, true
	dm2 := &DisplacementMesh{Vertices: cubeVertices(), Triangles: badDID}
	if err := (Spec{}).Validate(m, "", setMesh(&go3mf.Object{ID: 2}, dm2)); err == nil {
		t.Error("did referencing a missing disp2dgroup should fail")
	}
}

func setMesh(o *go3mf.Object, dm *DisplacementMesh) *go3mf.Object {
	o.AnyAttr = append(o.AnyAttr, dm)
	return o
}
