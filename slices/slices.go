// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

// Package slices implements the Slice 3MF extension (spec.md §4.5.4,
// component C): per-object stacks of planar polygon slices, used by
// additive-manufacturing software that bypasses mesh-based geometry in
// favor of pre-sliced layers.
package slices

import (
	go3mf "github.com/3mf-go/go3mf"
)

// Namespace is the canonical name of this extension.
const Namespace = "http://schemas.microsoft.com/3dmanufacturing/slice/2015/07"

func init() {
	go3mf.Register(go3mf.ExtSlice, Spec{})
}

// Spec implements spec.Spec for the slice extension.
type Spec struct{}

// Namespace returns the canonical namespace URI of this extension.
func (Spec) Namespace() string { return Namespace }

// Local returns the conventional xmlns prefix for this extension.
func (Spec) Local() string { return "s" }

// MeshResolution controls whether a sliced object's fallback mesh (if
// any) is rendered at full or reduced detail.
type MeshResolution uint8

// Supported resolutions.
const (
	ResolutionFull MeshResolution = iota
	ResolutionLow
)

func newMeshResolution(s string) (r MeshResolution, ok bool) {
	r, ok = map[string]MeshResolution{
		"fullres": ResolutionFull,
		"lowres":  ResolutionLow,
	}[s]
	return
}

// ObjectAttr decorates a go3mf.Object that is sliced: the id of its
// SliceStack and the requested fallback mesh resolution.
type ObjectAttr struct {
	SliceStackID   uint32
	HasSliceStack  bool
	MeshResolution MeshResolution
}

// GetObjectAttr returns o's slice attributes, if any were decoded.
func GetObjectAttr(o *go3mf.Object) (a *ObjectAttr, ok bool) {
	ok = o.ExtAttr(&a)
	return
}

// IsSliced reports whether this object carries a slice stack, satisfying
// the core validator's generic slicedCarrier interface without it needing
// to import this package.
func (a *ObjectAttr) IsSliced() bool { return a.HasSliceStack }

// Segment is one edge of a slice Polygon: from the previous vertex (or
// Polygon.StartV for the first segment) to V2, optionally decorated
// with a property reference.
type Segment struct {
	V2       uint32
	PID      uint32
	P1       uint32
	P2       uint32
	HasPID   bool
}

// Polygon is a closed loop of Segments over a Slice's shared Vertices
// pool, starting at vertex StartV.
type Polygon struct {
	StartV   uint32
	Segments []Segment
}

// Slice is one planar layer of a SliceStack: a shared vertex pool and
// the polygons built from it, capping the volume between TopZ and the
// previous slice's TopZ (or the stack's BottomZ for the first slice).
type Slice struct {
	TopZ     float64
	Vertices []go3mf.Point2D
	Polygons []Polygon
}

// SliceRef points at a SliceStack defined in a different model part,
// letting large slice stacks be split across files.
type SliceRef struct {
	SliceStackID uint32
	Path         string
}

// SliceStack is the slice-extension Asset: an ordered list of either
// inline Slices or external SliceRefs (never both).
type SliceStack struct {
	ID      uint32
	Order   int
	BottomZ float64
	Slices  []*Slice
	Refs    []SliceRef
}

// Identify returns the resource's unique ID.
func (r *SliceStack) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *SliceStack) ParseOrder() int { return r.Order }

const (
	attrID         = "id"
	attrZBottom    = "zbottom"
	attrZTop       = "ztop"
	attrSliceStack = "slicestack"
	attrSlice      = "slice"
	attrSliceRef   = "sliceref"
	attrSliceRefID = "slicestackid"
	attrSlicePath  = "path"
	attrMeshRes    = "meshresolution"
	attrVertices   = "vertices"
	attrVertex     = "vertex"
	attrPolygon    = "polygon"
	attrSegment    = "segment"
	attrStartV     = "startv"
	attrX          = "x"
	attrY          = "y"
	attrV2         = "v2"
	attrPID        = "pid"
	attrP1         = "p1"
	attrP2         = "p2"
)
