// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package beamlattice

import (
	"testing"

	go3mf "github.com/3mf-go/go3mf"
)

func meshWithVertices(n int) *go3mf.Mesh {
	m := &go3mf.Mesh{Vertices: make([]go3mf.Point3D, n)}
	return m
}

func TestValidateBeamLattice_ok(t *testing.T) {
	model := &go3mf.Model{}
	o := &go3mf.Object{ID: 1, Order: 0, ObjectType: go3mf.ObjectTypeModel, Mesh: meshWithVertices(4)}
	bl := &BeamLattice{Beams: []Beam{{Indices: [2]uint32{0, 1}}, {Indices: [2]uint32{1, 2}}}}
	if err := validateBeamLattice(model, "", o, bl); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidateBeamLattice_wrongObjectType(t *testing.T) {
	model := &go3mf.Model{}
	o := &go3mf.Object{ID: 1, Order: 0, ObjectType: go3mf.ObjectTypeSupport, Mesh: meshWithVertices(2)}
	bl := &BeamLattice{Beams: []Beam{{Indices: [2]uint32{0, 1}}}}
	if err := validateBeamLattice(model, "", o, bl); err == nil {
		t.Error("support-type object with a beam lattice should fail")
	}
}

func TestValidateBeamLattice_sameVertex(t *testing.T) {
	model := &go3mf.Model{}
	o := &go3mf.Object{ID: 1, Order: 0, ObjectType: go3mf.ObjectTypeModel, Mesh: meshWithVertices(2)}
	bl := &BeamLattice{Beams: []Beam{{Indices: [2]uint32{0, 0}}}}
	if err := validateBeamLattice(model, "", o, bl); err == nil {
		t.Error("beam with identical endpoints should fail")
	}
}

func TestValidateBeamLattice_duplicateBeam(t *testing.T) {
	model := &go3mf.Model{}
	o := &go3mf.Object{ID: 1, Order: 0, ObjectType: go3mf.ObjectTypeModel, Mesh: meshWithVertices(3)}
	bl := &BeamLattice{Beams: []Beam{
		{Indices: [2]uint32{0, 1}},
		{Indices: [2]uint32{1, 0}},
	}}
	if err := validateBeamLattice(model, "", o, bl); err == nil {
		t.Error("duplicate beam (reversed order) should fail")
	}
}

func TestValidateBeamLattice_outOfBounds(t *testing.T) {
	model := &go3mf.Model{}
	o := &go3mf.Object{ID: 1, Order: 0, ObjectType: go3mf.ObjectTypeModel, Mesh: meshWithVertices(2)}
	bl := &BeamLattice{Beams: []Beam{{Indices: [2]uint32{0, 5}}}}
	if err := validateBeamLattice(model, "", o, bl); err == nil {
		t.Error("out of bounds vertex index should fail")
	}
}

func TestValidateBeamLattice_propertyNeedsDefaultPID(t *testing.T) {
	model := &go3mf.Model{}
	o := &go3mf.Object{ID: 1, Order: 0, ObjectType: go3mf.ObjectTypeModel, Mesh: meshWithVertices(2)}
	bl := &BeamLattice{Beams: []Beam{{Indices: [2]uint32{0, 1}, PID: 3, HasPID: true}}}
	if err := validateBeamLattice(model, "", o, bl); err == nil {
		t.Error("beam property without a default pid should fail")
	}
	o.HasDefaultPID = true
	if err := validateBeamLattice(model, "", o, bl); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidateBeamLattice_ballMustSitOnEndpoint(t *testing.T) {
	model := &go3mf.Model{}
	o := &go3mf.Object{ID: 1, Order: 0, ObjectType: go3mf.ObjectTypeModel, Mesh: meshWithVertices(4)}
	bl := &BeamLattice{
		BallMode: BallMixed,
		Beams:    []Beam{{Indices: [2]uint32{0, 1}}},
		Balls:    []Ball{{Index: 3}},
	}
	if err := validateBeamLattice(model, "", o, bl); err == nil {
		t.Error("ball off a beam endpoint in mixed mode should fail")
	}
	bl.Balls[0].Index = 1
	if err := validateBeamLattice(model, "", o, bl); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidateMeshRef(t *testing.T) {
	model := &go3mf.Model{}
	model.Resources.Objects = []*go3mf.Object{
		{ID: 2, Order: 0, Mesh: meshWithVertices(1)},
	}
	o := &go3mf.Object{ID: 1, Order: 1, ObjectType: go3mf.ObjectTypeModel, Mesh: meshWithVertices(1)}

	if err := validateMeshRef(model, "", o, 2); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
	if err := validateMeshRef(model, "", o, 0); err == nil {
		t.Error("id 0 should fail")
	}
	if err := validateMeshRef(model, "", o, 1); err == nil {
		t.Error("self reference should fail")
	}
	if err := validateMeshRef(model, "", o, 100); err == nil {
		t.Error("missing reference should fail")
	}
}
