// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package beamlattice

import (
	"encoding/xml"
	"testing"

	go3mf "github.com/3mf-go/go3mf"
	"github.com/3mf-go/go3mf/spec"
	"github.com/go-test/deep"
)

func battr(local, value string) spec.Attr {
	return spec.Attr{Name: xml.Name{Local: local}, Value: []byte(value)}
}

func bqname(local string) xml.Name {
	return xml.Name{Space: Namespace, Local: local}
}

func TestBeamLatticeDecoder(t *testing.T) {
	mesh := new(go3mf.Mesh)
	d := &beamLatticeDecoder{mesh: mesh}
	if err := d.Start([]spec.Attr{
		battr("radius", "1"),
		battr("minlength", "0.1"),
		battr("clippingmode", "inside 5"),
		battr("ballmode", "mixed"),
	}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}

	beams := d.Child(bqname(attrBeams)).(*beamsDecoder)
	beam := beams.Child(bqname(attrBeam))
	if err := beam.Start([]spec.Attr{battr("v1", "0"), battr("v2", "1")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}

	beamSets := d.Child(bqname(attrBeamSets)).(*beamSetsDecoder)
	beamSet := beamSets.Child(bqname(attrBeamSet)).(*beamSetDecoder)
	if err := beamSet.Start([]spec.Attr{battr("name", "set1")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	ref := beamSet.Child(bqname(attrRef))
	if err := ref.Start([]spec.Attr{battr("index", "0")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	beamSet.End()

	balls := d.Child(bqname(attrBalls)).(*ballsDecoder)
	ball := balls.Child(bqname(attrBall))
	if err := ball.Start([]spec.Attr{battr("index", "0"), battr("r1", "0.5")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}

	d.End()

	got, ok := GetBeamLattice(mesh)
	if !ok {
		t.Fatal("expected a decoded BeamLattice")
	}
	want := &BeamLattice{
		Radius:          1,
		MinLength:       0.1,
		ClipMode:        ClipInside,
		ClippingMeshID:  5,
		HasClippingMesh: true,
		BallMode:        BallMixed,
		Beams:           []Beam{{Indices: [2]uint32{0, 1}, Radius: [2]float64{1, 1}}},
		BeamSets:        []BeamSet{{Name: "set1", Refs: []uint32{0}}},
		Balls:           []Ball{{Index: 0, Radius: 0.5, HasR: true}},
	}
	if diff := deep.Equal(got, want); diff != nil {
		t.Errorf("beamLatticeDecoder = %v", diff)
	}
}

func TestBeamDecoder_duplicateVertex(t *testing.T) {
	bl := new(BeamLattice)
	d := &beamDecoder{resource: bl}
	if err := d.Start([]spec.Attr{battr("v1", "2"), battr("v2", "2")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	if bl.Beams[0].Indices[0] != 2 || bl.Beams[0].Indices[1] != 2 {
		t.Errorf("beam indices = %v", bl.Beams[0].Indices)
	}
}

func TestSplitSpace(t *testing.T) {
	cases := map[string][]string{
		"inside 5": {"inside", "5"},
		"none":     {"none"},
		"":         {""},
	}
	for in, want := range cases {
		if diff := deep.Equal(splitSpace(in), want); diff != nil {
			t.Errorf("splitSpace(%q) = %v", in, diff)
		}
	}
}
