// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

// Package displacement implements the Displacement 3MF extension
// (spec.md §4.5.3, component C): a secondary, finer displacement mesh
// plus the texture/coordinate/normal resources used to bump-map an
// object's surface.
package displacement

import (
	go3mf "github.com/3mf-go/go3mf"
)

// Namespace is the canonical name of this extension.
const Namespace = "http://schemas.microsoft.com/3dmanufacturing/displacement/2022/07"

func init() {
	go3mf.Register(go3mf.ExtDisplacement, Spec{})
}

// Spec implements spec.Spec for the displacement extension.
type Spec struct{}

// Namespace returns the canonical namespace URI of this extension.
func (Spec) Namespace() string { return Namespace }

// Local returns the conventional xmlns prefix for this extension.
func (Spec) Local() string { return "d" }

// Displacement2D is a displacement-texture resource: a reference to a
// PNG part under /3D/Textures/.
type Displacement2D struct {
	ID    uint32
	Order int
	Path  string
}

// Identify returns the resource's unique ID.
func (r *Displacement2D) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *Displacement2D) ParseOrder() int { return r.Order }

// NormVector is a single displacement direction, expected (but not
// enforced) to be unit length.
type NormVector go3mf.Point3D

// NormVectorGroup is an ordered list of displacement direction vectors.
type NormVectorGroup struct {
	ID      uint32
	Order   int
	Vectors []NormVector
}

// Identify returns the resource's unique ID.
func (r *NormVectorGroup) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *NormVectorGroup) ParseOrder() int { return r.Order }

// Len returns the number of vectors in the group.
func (r *NormVectorGroup) Len() int { return len(r.Vectors) }

// Disp2DCoord is one displacement-map sample: a 2D texture coordinate
// paired with the index, into the owning group's NormVectorGroup, of
// the direction it displaces along.
type Disp2DCoord struct {
	U, V float64
	N    uint32
}

// Disp2DGroup binds a Displacement2D texture to a NormVectorGroup
// through an ordered list of Disp2DCoord samples, indexable by a
// displacement mesh triangle's d1/d2/d3 attributes.
type Disp2DGroup struct {
	ID     uint32
	Order  int
	DispID uint32
	NID    uint32
	Coords []Disp2DCoord
}

// Identify returns the resource's unique ID.
func (r *Disp2DGroup) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *Disp2DGroup) ParseOrder() int { return r.Order }

// Len returns the number of coordinates in the group.
func (r *Disp2DGroup) Len() int { return len(r.Coords) }

// DisplacementTriangle is a triangle of a DisplacementMesh: the usual
// vertex indices, plus an optional Disp2DGroup reference (DID) and up
// to three per-vertex displacement-coordinate indices.
type DisplacementTriangle struct {
	Indices [3]uint32
	DID     uint32
	HasDID  bool
	D1      uint32
	HasD1   bool
	D2      uint32
	HasD2   bool
	D3      uint32
	HasD3   bool
}

// DisplacementMesh is the displacement-extension Object decoration: a
// standalone, higher-resolution mesh used as a bump map over the
// object's base geometry.
type DisplacementMesh struct {
	Vertices  []go3mf.Point3D
	Triangles []DisplacementTriangle
}

// GetDisplacementMesh returns o's displacement mesh, if one was
// decoded.
func GetDisplacementMesh(o *go3mf.Object) (d *DisplacementMesh, ok bool) {
	ok = o.ExtAttr(&d)
	return
}

const (
	attrDisplacementMesh = "displacementmesh"
	attrDisplacement2D   = "displacement2d"
	attrNormVectorGroup  = "normvectorgroup"
	attrNormVector       = "normvector"
	attrDisp2DGroup      = "disp2dgroup"
	attrDisp2DCoord      = "disp2dcoord"
	attrTriangles        = "triangles"
	attrTriangle         = "triangle"
	attrID               = "id"
	attrPath             = "path"
	attrDispID           = "dispid"
	attrNID              = "nid"
	attrN                = "n"
	attrU                = "u"
	attrV                = "v"
	attrX                = "x"
	attrY                = "y"
	attrZ                = "z"
	attrDID              = "did"
	attrD1               = "d1"
	attrD2               = "d2"
	attrD3               = "d3"
	attrV1               = "v1"
	attrV2               = "v2"
	attrV3               = "v3"
)
