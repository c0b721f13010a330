// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package slices

import (
	"encoding/xml"
	"strconv"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/spec"
)

// CreateElementDecoder implements spec.NodeCreator for <s:slicestack>.
func (Spec) CreateElementDecoder(parent interface{}, name string) spec.ElementDecoder {
	if name == attrSliceStack {
		if resources, ok := parent.(*go3mf.Resources); ok {
			return &sliceStackDecoder{resources: resources}
		}
	}
	return nil
}

// DecodeAttribute implements spec.AttributeDecoder for the
// s:slicestackid/s:meshresolution attributes found on <object>.
func (Spec) DecodeAttribute(parentNode interface{}, attr spec.Attr) error {
	if o, ok := parentNode.(*go3mf.Object); ok {
		return objectAttrDecoder(o, attr)
	}
	return nil
}

func objectAttrDecoder(o *go3mf.Object, a spec.Attr) error {
	var errs error
	switch a.Name.Local {
	case attrSliceRefID:
		val, err := strconv.ParseUint(string(a.Value), 10, 32)
		if err != nil {
			errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
		}
		ext, ok := GetObjectAttr(o)
		if !ok {
			ext = new(ObjectAttr)
			o.AnyAttr = append(o.AnyAttr, ext)
		}
		ext.SliceStackID = uint32(val)
		ext.HasSliceStack = true
	case attrMeshRes:
		res, ok := newMeshResolution(string(a.Value))
		if !ok {
			errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
		}
		ext, found := GetObjectAttr(o)
		if !found {
			ext = new(ObjectAttr)
			o.AnyAttr = append(o.AnyAttr, ext)
		}
		ext.MeshResolution = res
	}
	return errs
}

type sliceStackDecoder struct {
	spec.BaseDecoder
	resources *go3mf.Resources
	resource  SliceStack
}

func (d *sliceStackDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

func (d *sliceStackDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Assets))
}

func (d *sliceStackDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space != Namespace {
		return nil
	}
	switch name.Local {
	case attrSlice:
		return &sliceDecoder{resource: &d.resource}
	case attrSliceRef:
		return &sliceRefDecoder{resource: &d.resource}
	}
	return nil
}

func (d *sliceStackDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrID:
			id, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.ID = uint32(id)
		case attrZBottom:
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			d.resource.BottomZ = val
		}
	}
	if errs != nil {
		return specerr.WrapIndex(errs, d.resource, len(d.resources.Assets))
	}
	return nil
}

type sliceRefDecoder struct {
	spec.BaseDecoder
	resource *SliceStack
}

func (d *sliceRefDecoder) Start(attrs []spec.Attr) error {
	var ref SliceRef
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrSliceRefID:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			ref.SliceStackID = uint32(val)
		case attrSlicePath:
			ref.Path = string(a.Value)
		}
	}
	d.resource.Refs = append(d.resource.Refs, ref)
	if errs != nil {
		return specerr.WrapIndex(errs, ref, len(d.resource.Refs)-1)
	}
	return nil
}

type sliceDecoder struct {
	resource               *SliceStack
	slice                  Slice
	polygonDecoder         polygonDecoder
	polygonVerticesDecoder polygonVerticesDecoder
}

func (d *sliceDecoder) End() {
	d.resource.Slices = append(d.resource.Slices, &d.slice)
}

func (d *sliceDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, &d.slice, len(d.resource.Slices))
}

func (d *sliceDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space != Namespace {
		return nil
	}
	switch name.Local {
	case attrVertices:
		return &d.polygonVerticesDecoder
	case attrPolygon:
		return &d.polygonDecoder
	}
	return nil
}

func (d *sliceDecoder) Start(attrs []spec.Attr) error {
	d.polygonDecoder.slice = &d.slice
	d.polygonVerticesDecoder.slice = &d.slice
	var errs error
	for _, a := range attrs {
		if a.Name.Local == attrZTop {
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.slice.TopZ = val
			break
		}
	}
	if errs != nil {
		return specerr.WrapIndex(errs, &d.slice, len(d.resource.Slices))
	}
	return nil
}

type polygonVerticesDecoder struct {
	spec.BaseDecoder
	slice                *Slice
	polygonVertexDecoder polygonVertexDecoder
}

func (d *polygonVerticesDecoder) Start(_ []spec.Attr) error {
	d.polygonVertexDecoder.slice = d.slice
	return nil
}

func (d *polygonVerticesDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrVertex {
		return &d.polygonVertexDecoder
	}
	return nil
}

type polygonVertexDecoder struct {
	spec.BaseDecoder
	slice *Slice
}

func (d *polygonVertexDecoder) Start(attrs []spec.Attr) error {
	var p go3mf.Point2D
	var errs error
	for _, a := range attrs {
		val, err := strconv.ParseFloat(string(a.Value), 64)
		if err != nil {
			errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
		}
		switch a.Name.Local {
		case attrX:
			p[0] = val
		case attrY:
			p[1] = val
		}
	}
	d.slice.Vertices = append(d.slice.Vertices, p)
	if errs != nil {
		return specerr.WrapIndex(errs, p, len(d.slice.Vertices)-1)
	}
	return nil
}

type polygonDecoder struct {
	slice                 *Slice
	polygonSegmentDecoder polygonSegmentDecoder
}

func (d *polygonDecoder) End() {}

func (d *polygonDecoder) Wrap(err error) error {
	index := len(d.slice.Polygons) - 1
	return specerr.WrapIndex(err, &d.slice.Polygons[index], index)
}

func (d *polygonDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrSegment {
		return &d.polygonSegmentDecoder
	}
	return nil
}

func (d *polygonDecoder) Start(attrs []spec.Attr) error {
	var errs error
	polygonIndex := len(d.slice.Polygons)
	d.slice.Polygons = append(d.slice.Polygons, Polygon{})
	d.polygonSegmentDecoder.polygon = &d.slice.Polygons[polygonIndex]
	for _, a := range attrs {
		if a.Name.Local == attrStartV {
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.slice.Polygons[polygonIndex].StartV = uint32(val)
			break
		}
	}
	if errs != nil {
		return specerr.WrapIndex(errs, d.slice.Polygons[polygonIndex], polygonIndex)
	}
	return nil
}

type polygonSegmentDecoder struct {
	spec.BaseDecoder
	polygon *Polygon
}

func (d *polygonSegmentDecoder) Start(attrs []spec.Attr) error {
	var segment Segment
	var hasP1, hasP2 bool
	var errs error
	for _, a := range attrs {
		var required bool
		val, err := strconv.ParseUint(string(a.Value), 10, 32)
		switch a.Name.Local {
		case attrV2:
			segment.V2 = uint32(val)
			required = true
		case attrPID:
			segment.PID = uint32(val)
			segment.HasPID = true
		case attrP1:
			segment.P1 = uint32(val)
			hasP1 = true
		case attrP2:
			segment.P2 = uint32(val)
			hasP2 = true
		}
		if err != nil {
			errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, required))
		}
	}
	if hasP1 && !hasP2 {
		segment.P2 = segment.P1
	}
	d.polygon.Segments = append(d.polygon.Segments, segment)
	if errs != nil {
		return specerr.WrapIndex(errs, segment, len(d.polygon.Segments)-1)
	}
	return nil
}
