// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package displacement

import (
	"encoding/xml"
	"testing"

	go3mf "github.com/3mf-go/go3mf"
	"github.com/3mf-go/go3mf/spec"
	"github.com/go-test/deep"
)

func dattr(local, value string) spec.Attr {
	return spec.Attr{Name: xml.Name{Local: local}, Value: []byte(value)}
}

func dqname(local string) xml.Name {
	return xml.Name{Space: Namespace, Local: local}
}

func TestDisplacement2DDecoder(t *testing.T) {
	res := new(go3mf.Resources)
	d := &displacement2DDecoder{resources: res}
	if err := d.Start([]spec.Attr{dattr(attrID, "1"), dattr(attrPath, "/3D/Textures/bump.png")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	d.End()
	want := &Displacement2D{ID: 1, Order: 0, Path: "/3D/Textures/bump.png"}
	if diff := deep.Equal(res.Assets[0], want); diff != nil {
		t.Errorf("displacement2DDecoder = %v", diff)
	}
}

func TestNormVectorGroupDecoder(t *testing.T) {
	res := new(go3mf.Resources)
	d := &normVectorGroupDecoder{resources: res}
	if err := d.Start([]spec.Attr{dattr(attrID, "5")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	nv := d.Child(dqname(attrNormVector))
	if err := nv.Start([]spec.Attr{dattr(attrX, "0"), dattr(attrY, "0"), dattr(attrZ, "1")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	d.End()

	want := &NormVectorGroup{ID: 5, Order: 0, Vectors: []NormVector{{0, 0, 1}}}
	if diff := deep.Equal(res.Assets[0], want); diff != nil {
		t.Errorf("normVectorGroupDecoder = %v", diff)
	}
}

func TestDisp2DGroupDecoder(t *testing.T) {
	res := new(go3mf.Resources)
	d := &disp2DGroupDecoder{resources: res}
	if err := d.Start([]spec.Attr{dattr(attrID, "7"), dattr(attrDispID, "1"), dattr(attrNID, "5")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	c := d.Child(dqname(attrDisp2DCoord))
	if err := c.Start([]spec.Attr{dattr(attrU, "0.5"), dattr(attrV, "0.5"), dattr(attrN, "0")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	d.End()

	want := &Disp2DGroup{ID: 7, Order: 0, DispID: 1, NID: 5, Coords: []Disp2DCoord{{U: 0.5, V: 0.5, N: 0}}}
	if diff := deep.Equal(res.Assets[0], want); diff != nil {
		t.Errorf("disp2DGroupDecoder = %v", diff)
	}
}

func TestDisplacementMeshDecoder(t *testing.T) {
	o := new(go3mf.Object)
	d := &displacementMeshDecoder{object: o}
	if err := d.Start(nil); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}

	verts := d.Child(xml.Name{Space: Namespace, Local: "vertices"})
	if err := verts.Start(nil); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	vtx := verts.Child(xml.Name{Space: Namespace, Local: "vertex"})
	for _, p := range [][3]string{{"0", "0", "0"}, {"1", "0", "0"}, {"0", "1", "0"}} {
		if err := vtx.Start([]spec.Attr{dattr(attrX, p[0]), dattr(attrY, p[1]), dattr(attrZ, p[2])}); err != nil {
			t.Fatalf("Start() unexpected error = %v", err)
		}
	}

	tris := d.Child(dqname(attrTriangles))
	if err := tris.Start([]spec.Attr{dattr(attrDID, "9")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	tri := tris.Child(dqname(attrTriangle))
	if err := tri.Start([]spec.Attr{dattr(attrV1, "0"), dattr(attrV2, "1"), dattr(attrV3, "2"), dattr(attrD1, "3")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	d.End()

	got, ok := GetDisplacementMesh(o)
	if !ok {
		t.Fatal("expected a decoded DisplacementMesh")
	}
	want := &DisplacementMesh{
		Vertices: []go3mf.Point3D{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Triangles: []DisplacementTriangle{
			{Indices: [3]uint32{0, 1, 2}, DID: 9, HasDID: true, D1: 3, HasD1: true},
		},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("displacementMeshDecoder = %v", diff)
	}
	if !o.HasExtensionShape {
		t.Error("expected HasExtensionShape to be set")
	}
}

func TestDispTriangleDecoder_d1RequiresDID(t *testing.T) {
	dm := new(DisplacementMesh)
	d := &dispTriangleDecoder{resource: dm}
	if err := d.Start([]spec.Attr{dattr(attrV1, "0"), dattr(attrV2, "1"), dattr(attrV3, "2"), dattr(attrD1, "0")}); err == nil {
		t.Error("d1 without did should fail")
	}
}

func TestDispTriangleDecoder_d2WithoutD1(t *testing.T) {
	dm := new(DisplacementMesh)
	d := &dispTriangleDecoder{resource: dm}
	if err := d.Start([]spec.Attr{dattr(attrV1, "0"), dattr(attrV2, "1"), dattr(attrV3, "2"), dattr(attrDID, "0"), dattr(attrD2, "0")}); err == nil {
		t.Error("d2 without d1 should fail")
	}
}

func TestDispTriangleDecoder_inheritsGroupDID(t *testing.T) {
	dm := new(DisplacementMesh)
	d := &dispTriangleDecoder{resource: dm, groupDID: 4, hasGroupDID: true}
	if err := d.Start([]spec.Attr{dattr(attrV1, "0"), dattr(attrV2, "1"), dattr(attrV3, "2"), dattr(attrD1, "0")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	got := dm.Triangles[0]
	if !got.HasDID || got.DID != 4 {
		t.Errorf("expected inherited did = 4, got HasDID=%v DID=%v", got.HasDID, got.DID)
	}
}
