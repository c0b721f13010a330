// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package slices

import (
	"testing"

	go3mf "github.com/3mf-go/go3mf"
)

func TestValidateSliceStack(t *testing.T) {
	m := &go3mf.Model{}
	ok := &SliceStack{ID: 1, BottomZ: 0, Slices: []*Slice{
		{TopZ: 1, Vertices: []go3mf.Point2D{{0, 0}, {1, 0}, {1, 1}}, Polygons: []Polygon{{StartV: 0, Segments: []Segment{{V2: 1}, {V2: 2}}}}},
	}}
	if err := validateSliceStack(m, "", ok); err != nil {
		t.Errorf("unexpected error = %v", err)
	}

	empty := &SliceStack{ID: 2}
	if err := validateSliceStack(m, "", empty); err == nil {
		t.Error("slicestack with no slices and no refs should fail")
	}

	mixed := &SliceStack{ID: 3, Slices: []*Slice{{TopZ: 1, Vertices: []go3mf.Point2D{{0, 0}}, Polygons: []Polygon{{}}}}, Refs: []SliceRef{{SliceStackID: 1, Path: "/3D/other.model"}}}
	if err := validateSliceStack(m, "", mixed); err == nil {
		t.Error("slicestack mixing inline slices and refs should fail")
	}

	nonmono := &SliceStack{ID: 4, BottomZ: 2, Slices: []*Slice{
		{TopZ: 1, Vertices: []go3mf.Point2D{{0, 0}}, Polygons: []Polygon{{}}},
	}}
	if err := validateSliceStack(m, "", nonmono); err == nil {
		t.Error("ztop below zbottom should fail")
	}

	oob := &SliceStack{ID: 5, Slices: []*Slice{
		{TopZ: 1, Vertices: []go3mf.Point2D{{0, 0}}, Polygons: []Polygon{{StartV: 0, Segments: []Segment{{V2: 5}}}}},
	}}
	if err := validateSliceStack(m, "", oob); err == nil {
		t.Error("out of bounds segment v2 should fail")
	}
}

func TestValidateSliceRef(t *testing.T) {
	model := &go3mf.Model{Path: "/3D/3dmodel.model"}
	model.Childs = map[string]*go3mf.ChildModel{
		"/3D/slice1.model": {Path: "/3D/slice1.model"},
	}
	model.Childs["/3D/slice1.model"].Resources.Assets = []go3mf.Asset{&SliceStack{ID: 1}}

	if err := validateSliceRef(model, "/3D/3dmodel.model", SliceRef{SliceStackID: 1, Path: "/3D/slice1.model"}); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
	if err := validateSliceRef(model, "/3D/3dmodel.model", SliceRef{SliceStackID: 1}); err == nil {
		t.Error("missing path should fail")
	}
	if err := validateSliceRef(model, "/3D/3dmodel.model", SliceRef{SliceStackID: 1, Path: "/3D/3dmodel.model"}); err == nil {
		t.Error("path referencing own part should fail")
	}
	if err := validateSliceRef(model, "/3D/3dmodel.model", SliceRef{SliceStackID: 100, Path: "/3D/slice1.model"}); err == nil {
		t.Error("missing slicestack id should fail")
	}
}

func TestValidateObject(t *testing.T) {
	model := &go3mf.Model{}
	model.Resources.Assets = []go3mf.Asset{&SliceStack{ID: 1, Order: 0}}
	o := &go3mf.Object{ID: 2, Order: 1}
	if err := validateObject(model, "", o, &ObjectAttr{SliceStackID: 1, HasSliceStack: true}); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
	forward := &go3mf.Object{ID: 3, Order: 0}
	if err := validateObject(model, "", forward, &ObjectAttr{SliceStackID: 1, HasSliceStack: true}); err == nil {
		t.Error("forward reference should fail")
	}
	missing := &go3mf.Object{ID: 4, Order: 2}
	if err := validateObject(model, "", missing, &ObjectAttr{SliceStackID: 100, HasSliceStack: true}); err == nil {
		t.Error("missing slicestack should fail")
	}
}
