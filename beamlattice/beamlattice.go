// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

// Package beamlattice implements the Beam Lattice 3MF extension
// (spec.md §4.5.5, component C): a mesh decoration describing a lattice
// of cylindrical beams and spherical balls instead of (or alongside) a
// triangle surface.
package beamlattice

import (
	go3mf "github.com/3mf-go/go3mf"
)

// Namespace is the canonical name of this extension.
const Namespace = "http://schemas.microsoft.com/3dmanufacturing/beamlattice/2017/02"

func init() {
	go3mf.Register(go3mf.ExtBeamLattice, Spec{})
}

// Spec implements spec.Spec for the beam lattice extension.
type Spec struct{}

// Namespace returns the canonical namespace URI of this extension.
func (Spec) Namespace() string { return Namespace }

// Local returns the conventional xmlns prefix for this extension.
func (Spec) Local() string { return "b" }

// ClipMode defines the clipping modes for the beam lattice.
type ClipMode uint8

// Supported clip modes.
const (
	ClipNone ClipMode = iota
	ClipInside
	ClipOutside
)

func newClipMode(s string) (c ClipMode, ok bool) {
	c, ok = map[string]ClipMode{
		"none":    ClipNone,
		"inside":  ClipInside,
		"outside": ClipOutside,
	}[s]
	return
}

// CapMode is the capping style applied to a beam end.
type CapMode uint8

// Supported cap modes.
const (
	CapModeSphere CapMode = iota
	CapModeHemisphere
	CapModeButt
)

func newCapMode(s string) (t CapMode, ok bool) {
	t, ok = map[string]CapMode{
		"sphere":     CapModeSphere,
		"hemisphere": CapModeHemisphere,
		"butt":       CapModeButt,
	}[s]
	return
}

// BallMode controls which vertices, beyond beam endpoints, also carry a
// rendered ball.
type BallMode uint8

// Supported ball modes.
const (
	BallNone BallMode = iota
	BallAll
	BallMixed
)

func newBallMode(s string) (b BallMode, ok bool) {
	b, ok = map[string]BallMode{
		"none":  BallNone,
		"all":   BallAll,
		"mixed": BallMixed,
	}[s]
	return
}

// Beam is a single cylindrical segment between two mesh vertices.
type Beam struct {
	Indices [2]uint32
	Radius  [2]float64
	CapMode [2]CapMode
	PID     uint32
	P1      uint32
	P2      uint32
	HasPID  bool
}

// Ball is a single sphere centered on a mesh vertex.
type Ball struct {
	Index   uint32
	Radius  float64
	HasR    bool
	PID     uint32
	PIndex  uint32
	HasPID  bool
}

// BeamSet is a named subset of a BeamLattice's Beams, referenced by
// index.
type BeamSet struct {
	Refs       []uint32
	Name       string
	Identifier string
}

// BallSet is a named subset of a BeamLattice's Balls, referenced by
// index.
type BallSet struct {
	Refs       []uint32
	Name       string
	Identifier string
}

// BeamLattice decorates a go3mf.Mesh with a lattice of beams and balls,
// optionally clipped against another mesh-bearing object.
type BeamLattice struct {
	MinLength            float64
	Radius               float64
	CapMode              CapMode
	ClipMode             ClipMode
	ClippingMeshID       uint32
	HasClippingMesh      bool
	RepresentationMeshID uint32
	HasRepresentationMesh bool
	BallMode             BallMode
	BallRadius           float64
	HasBallRadius        bool
	DefaultPID           uint32
	HasDefaultPID        bool
	DefaultPIndex        uint32
	Beams                []Beam
	BeamSets             []BeamSet
	Balls                []Ball
	BallSets             []BallSet
}

// GetBeamLattice returns mesh's beam lattice, if one was decoded.
func GetBeamLattice(mesh *go3mf.Mesh) (*BeamLattice, bool) {
	var bl *BeamLattice
	ok := mesh.ExtAny(&bl)
	return bl, ok
}

const (
	attrBeamLattice         = "beamlattice"
	attrRadius              = "radius"
	attrMinLength           = "minlength"
	attrClippingMode        = "clippingmode"
	attrClippingMesh        = "clippingmesh"
	attrRepresentationMesh  = "representationmesh"
	attrCap                 = "cap"
	attrBeams               = "beams"
	attrBeam                = "beam"
	attrBeamSets            = "beamsets"
	attrBeamSet             = "beamset"
	attrBalls               = "balls"
	attrBall                = "ball"
	attrBallSets            = "ballsets"
	attrBallSet             = "ballset"
	attrBallRef             = "ballref"
	attrBallMode            = "ballmode"
	attrBallRadius          = "ballradius"
	attrR1                  = "r1"
	attrR2                  = "r2"
	attrCap1                = "cap1"
	attrCap2                = "cap2"
	attrV1                  = "v1"
	attrV2                  = "v2"
	attrIndex               = "index"
	attrName                = "name"
	attrIdentifier          = "identifier"
	attrRef                 = "ref"
	attrPID                 = "pid"
	attrPIndex              = "pindex"
	attrP1                  = "p1"
	attrP2                  = "p2"
)
