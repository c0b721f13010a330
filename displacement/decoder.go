// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package displacement

import (
	"encoding/xml"
	"strconv"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/spec"
)

// CreateElementDecoder implements spec.NodeCreator for the displacement
// resources (<d:displacement2d>, <d:normvectorgroup>, <d:disp2dgroup>,
// nested under the core <resources>) and for <d:displacementmesh>,
// nested under a core <object>.
func (Spec) CreateElementDecoder(parent interface{}, name string) spec.ElementDecoder {
	switch p := parent.(type) {
	case *go3mf.Resources:
		switch name {
		case attrDisplacement2D:
			return &displacement2DDecoder{resources: p}
		case attrNormVectorGroup:
			return &normVectorGroupDecoder{resources: p}
		case attrDisp2DGroup:
			return &disp2DGroupDecoder{resources: p}
		}
	case *go3mf.Object:
		if name == attrDisplacementMesh {
			return &displacementMeshDecoder{object: p}
		}
	}
	return nil
}

// DecodeAttribute implements spec.AttributeDecoder; the extension
// carries no attributes outside of its own element tree.
func (Spec) DecodeAttribute(interface{}, spec.Attr) error { return nil }

type displacement2DDecoder struct {
	spec.BaseDecoder
	resources *go3mf.Resources
	resource  Displacement2D
}

func (d *displacement2DDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrID:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.ID = uint32(val)
		case attrPath:
			d.resource.Path = string(a.Value)
		}
	}
	return errs
}

func (d *displacement2DDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

func (d *displacement2DDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Assets))
}

type normVectorGroupDecoder struct {
	resources      *go3mf.Resources
	resource       NormVectorGroup
	normVecDecoder normVectorDecoder
}

func (d *normVectorGroupDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		if a.Name.Local == attrID {
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.ID = uint32(val)
		}
	}
	d.normVecDecoder.resource = &d.resource
	return errs
}

func (d *normVectorGroupDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

func (d *normVectorGroupDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Assets))
}

func (d *normVectorGroupDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrNormVector {
		return &d.normVecDecoder
	}
	return nil
}

type normVectorDecoder struct {
	spec.BaseDecoder
	resource *NormVectorGroup
}

func (d *normVectorDecoder) Start(attrs []spec.Attr) error {
	var v NormVector
	var errs error
	for _, a := range attrs {
		val, err := strconv.ParseFloat(string(a.Value), 64)
		if err != nil {
			errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
		}
		switch a.Name.Local {
		case attrX:
			v[0] = val
		case attrY:
			v[1] = val
		case attrZ:
			v[2] = val
		}
	}
	d.resource.Vectors = append(d.resource.Vectors, v)
	if errs != nil {
		return specerr.WrapIndex(errs, v, len(d.resource.Vectors)-1)
	}
	return nil
}

type disp2DGroupDecoder struct {
	resources    *go3mf.Resources
	resource     Disp2DGroup
	coordDecoder disp2DCoordDecoder
}

func (d *disp2DGroupDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		val, err := strconv.ParseUint(string(a.Value), 10, 32)
		switch a.Name.Local {
		case attrID:
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.ID = uint32(val)
		case attrDispID:
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.DispID = uint32(val)
		case attrNID:
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.NID = uint32(val)
		}
	}
	d.coordDecoder.resource = &d.resource
	return errs
}

func (d *disp2DGroupDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

func (d *disp2DGroupDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Assets))
}

func (d *disp2DGroupDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrDisp2DCoord {
		return &d.coordDecoder
	}
	return nil
}

type disp2DCoordDecoder struct {
	spec.BaseDecoder
	resource *Disp2DGroup
}

func (d *disp2DCoordDecoder) Start(attrs []spec.Attr) error {
	var c Disp2DCoord
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrU:
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			c.U = val
		case attrV:
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			c.V = val
		case attrN:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			c.N = uint32(val)
		}
	}
	d.resource.Coords = append(d.resource.Coords, c)
	if errs != nil {
		return specerr.WrapIndex(errs, c, len(d.resource.Coords)-1)
	}
	return nil
}

type displacementMeshDecoder struct {
	object          *go3mf.Object
	resource        DisplacementMesh
	verticesDecoder dispVerticesDecoder
	trianglesDecoder dispTrianglesDecoder
}

func (d *displacementMeshDecoder) Start([]spec.Attr) error { return nil }

func (d *displacementMeshDecoder) End() {
	res := d.resource
	d.object.AnyAttr = append(d.object.AnyAttr, &res)
	d.object.HasExtensionShape = true
}

func (d *displacementMeshDecoder) Wrap(err error) error {
	return specerr.WrapPath(err, attrDisplacementMesh)
}

func (d *displacementMeshDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space != Namespace {
		return nil
	}
	switch name.Local {
	case "vertices":
		d.verticesDecoder.resource = &d.resource
		return &d.verticesDecoder
	case attrTriangles:
		d.trianglesDecoder.resource = &d.resource
		d.trianglesDecoder.groupDID = 0
		d.trianglesDecoder.hasGroupDID = false
		return &d.trianglesDecoder
	}
	return nil
}

type dispVerticesDecoder struct {
	spec.BaseDecoder
	resource       *DisplacementMesh
	vertexDecoder  dispVertexDecoder
}

func (d *dispVerticesDecoder) Start([]spec.Attr) error {
	d.vertexDecoder.resource = d.resource
	return nil
}

func (d *dispVerticesDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == "vertex" {
		return &d.vertexDecoder
	}
	return nil
}

type dispVertexDecoder struct {
	spec.BaseDecoder
	resource *DisplacementMesh
}

func (d *dispVertexDecoder) Start(attrs []spec.Attr) error {
	var v go3mf.Point3D
	var errs error
	for _, a := range attrs {
		val, err := strconv.ParseFloat(string(a.Value), 64)
		if err != nil {
			errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
		}
		switch a.Name.Local {
		case attrX:
			v[0] = val
		case attrY:
			v[1] = val
		case attrZ:
			v[2] = val
		}
	}
	d.resource.Vertices = append(d.resource.Vertices, v)
	if errs != nil {
		return specerr.WrapIndex(errs, v, len(d.resource.Vertices)-1)
	}
	return nil
}

type dispTrianglesDecoder struct {
	resource        *DisplacementMesh
	groupDID        uint32
	hasGroupDID     bool
	triangleDecoder dispTriangleDecoder
}

func (d *dispTrianglesDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		if a.Name.Local == attrDID {
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.groupDID = uint32(val)
			d.hasGroupDID = true
		}
	}
	d.triangleDecoder.resource = d.resource
	d.triangleDecoder.groupDID = d.groupDID
	d.triangleDecoder.hasGroupDID = d.hasGroupDID
	return errs
}

func (d *dispTrianglesDecoder) End() {}

func (d *dispTrianglesDecoder) Wrap(err error) error { return err }

func (d *dispTrianglesDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrTriangle {
		return &d.triangleDecoder
	}
	return nil
}

type dispTriangleDecoder struct {
	spec.BaseDecoder
	resource    *DisplacementMesh
	groupDID    uint32
	hasGroupDID bool
}

func (d *dispTriangleDecoder) Start(attrs []spec.Attr) error {
	var t DisplacementTriangle
	var hasD1 bool
	var errs error
	for _, a := range attrs {
		val, err := strconv.ParseUint(string(a.Value), 10, 32)
		if err != nil {
			errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
		}
		switch a.Name.Local {
		case attrV1:
			t.Indices[0] = uint32(val)
		case attrV2:
			t.Indices[1] = uint32(val)
		case attrV3:
			t.Indices[2] = uint32(val)
		case attrDID:
			t.DID = uint32(val)
			t.HasDID = true
		case attrD1:
			t.D1 = uint32(val)
			t.HasD1 = true
			hasD1 = true
		case attrD2:
			t.D2 = uint32(val)
			t.HasD2 = true
		case attrD3:
			t.D3 = uint32(val)
			t.HasD3 = true
		}
	}
	if !t.HasDID && d.hasGroupDID {
		t.DID = d.groupDID
		t.HasDID = true
	}
	if (t.HasD2 || t.HasD3) && !hasD1 {
		errs = specerr.Append(errs, specerr.InvalidModel("displacement triangle d2/d3 requires d1"))
	}
	if hasD1 && !t.HasDID {
		errs = specerr.Append(errs, specerr.InvalidModel("displacement triangle d1 requires a did (here or on the enclosing triangles element)"))
	}
	d.resource.Triangles = append(d.resource.Triangles, t)
	if errs != nil {
		return specerr.WrapIndex(errs, t, len(d.resource.Triangles)-1)
	}
	return nil
}
