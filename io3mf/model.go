package io3mf

import (
	"encoding/hex"
	"encoding/xml"
	"image/color"
	"strconv"
	"strings"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/spec"
)

// Core element local names (spec.md §3).
const (
	elModel          = "model"
	elResources      = "resources"
	elObject         = "object"
	elMesh           = "mesh"
	elVertices       = "vertices"
	elVertex         = "vertex"
	elTriangles      = "triangles"
	elTriangle       = "triangle"
	elComponents     = "components"
	elComponent      = "component"
	elBuild          = "build"
	elItem           = "item"
	elMetadataGroup  = "metadatagroup"
	elMetadata       = "metadata"
	elBaseMaterials  = "basematerials"
	elBase           = "base"

	attrUnit               = "unit"
	attrLang               = "lang"
	attrRequiredExtensions = "requiredextensions"
	attrID                 = "id"
	attrType               = "type"
	attrThumbnail          = "thumbnail"
	attrPID                = "pid"
	attrPIndex             = "pindex"
	attrBaseMaterialID     = "basematerialid"
	attrName               = "name"
	attrPartNumber         = "partnumber"
	attrObjectID           = "objectid"
	attrTransform          = "transform"
	attrX                  = "x"
	attrY                  = "y"
	attrZ                  = "z"
	attrV1                 = "v1"
	attrV2                 = "v2"
	attrV3                 = "v3"
	attrPreserve           = "preserve"
	attrDisplayColor       = "displaycolor"
)

// topLevelDecoder is the root of the decode stack: the only element it
// recognizes is <model>, matching the teacher's topLevelDecoder.
type topLevelDecoder struct {
	spec.BaseDecoder
	file  *modelFile
	model *go3mf.Model
}

func (d *topLevelDecoder) Start([]spec.Attr) error { return nil }

func (d *topLevelDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == go3mf.Namespace && name.Local == elModel {
		return &modelDecoder{file: d.file, model: d.model}
	}
	return nil
}

type modelDecoder struct {
	file  *modelFile
	model *go3mf.Model
}

func (d *modelDecoder) ParentValue() interface{} { return d.model }

func (d *modelDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		switch {
		case a.Name.Space == "" && a.Name.Local == attrUnit:
			u, ok := go3mf.NewUnits(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrUnit, false))
				continue
			}
			d.model.Units = u
		case a.Name.Local == attrLang:
			d.model.Language = string(a.Value)
		case a.Name.Space == "" && a.Name.Local == attrRequiredExtensions:
			errs = specerr.Append(errs, d.decodeRequiredExtensions(string(a.Value)))
		}
	}
	return errs
}

// decodeRequiredExtensions resolves each whitespace-separated xmlns prefix
// in val against the namespaces declared on this element, matching each
// resolved URI against the configured extension registry (spec.md §4.9).
func (d *modelDecoder) decodeRequiredExtensions(val string) error {
	var errs error
	for _, prefix := range strings.Fields(val) {
		uri, ok := d.file.namespaces[prefix]
		if !ok {
			errs = specerr.Append(errs, specerr.UnsupportedExtension(prefix))
			continue
		}
		if ext, ok := go3mf.ExtensionFromNamespace(uri); ok {
			if !d.file.cfg.Supports(ext) {
				errs = specerr.Append(errs, specerr.UnsupportedExtension(uri))
				continue
			}
			if d.model.RequiredExtensions == nil {
				d.model.RequiredExtensions = make(map[string]bool)
			}
			d.model.RequiredExtensions[uri] = true
			continue
		}
		if _, ok := d.file.reg.LookupCustom(uri); ok {
			if d.model.RequiredCustom == nil {
				d.model.RequiredCustom = make(map[string]bool)
			}
			d.model.RequiredCustom[uri] = true
			continue
		}
		errs = specerr.Append(errs, specerr.UnsupportedExtension(uri))
	}
	return errs
}

func (d *modelDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space != go3mf.Namespace {
		return nil
	}
	switch name.Local {
	case elResources:
		return &resourcesDecoder{file: d.file, resources: &d.model.Resources}
	case elBuild:
		return &buildDecoder{file: d.file, build: &d.model.Build}
	case elMetadata:
		return &metadataEntryDecoder{file: d.file, target: &d.model.Metadata}
	}
	return nil
}

func (d *modelDecoder) End()                 {}
func (d *modelDecoder) Wrap(err error) error { return err }

// resourcesDecoder decodes <resources>: the core <object> and
// <basematerials> elements directly, everything else by dispatch through
// the extension registry (materials/slices/displacement resource groups).
type resourcesDecoder struct {
	file      *modelFile
	resources *go3mf.Resources
}

func (d *resourcesDecoder) ParentValue() interface{} { return d.resources }

func (d *resourcesDecoder) Start([]spec.Attr) error { return nil }

func (d *resourcesDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space != go3mf.Namespace {
		return nil
	}
	switch name.Local {
	case elObject:
		return &objectDecoder{file: d.file, resources: d.resources}
	case elBaseMaterials:
		return &baseMaterialsDecoder{resources: d.resources}
	}
	return nil
}

func (d *resourcesDecoder) End()                 {}
func (d *resourcesDecoder) Wrap(err error) error { return err }

type baseMaterialsDecoder struct {
	resources *go3mf.Resources
	resource  go3mf.BaseMaterials
}

func (d *baseMaterialsDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		if a.Name.Local == attrID {
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrID, true))
				continue
			}
			d.resource.ID = v
		}
	}
	return errs
}

func (d *baseMaterialsDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == go3mf.Namespace && name.Local == elBase {
		return &baseDecoder{resource: &d.resource}
	}
	return nil
}

func (d *baseMaterialsDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

func (d *baseMaterialsDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Assets))
}

type baseDecoder struct {
	spec.BaseDecoder
	resource *go3mf.BaseMaterials
}

func (d *baseDecoder) Start(attrs []spec.Attr) error {
	var b go3mf.Base
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrName:
			b.Name = string(a.Value)
		case attrDisplayColor:
			c, err := parseColor(string(a.Value))
			if err != nil {
				errs = specerr.Append(errs, err)
				continue
			}
			b.Color = c
		}
	}
	d.resource.Materials = append(d.resource.Materials, b)
	return errs
}

// objectDecoder decodes <object>, including the extension-owned geometry
// elements (<bo:booleanshape>, <d:displacementmesh>) dispatched via the
// registry with *go3mf.Object as the parent value.
type objectDecoder struct {
	file      *modelFile
	resources *go3mf.Resources
	resource  go3mf.Object
}

func (d *objectDecoder) ParentValue() interface{} { return &d.resource }

func (d *objectDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrID:
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrID, true))
				continue
			}
			d.resource.ID = v
		case attrType:
			t, ok := go3mf.NewObjectType(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrType, false))
				continue
			}
			d.resource.ObjectType = t
		case attrThumbnail:
			d.resource.Thumbnail = string(a.Value)
			d.resource.HasDeprecatedThumbnailAttr = true
		case attrPID:
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrPID, false))
				continue
			}
			d.resource.DefaultPID = v
			d.resource.HasDefaultPID = true
		case attrPIndex:
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrPIndex, false))
				continue
			}
			d.resource.DefaultPIndex = v
		case attrBaseMaterialID:
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrBaseMaterialID, false))
				continue
			}
			d.resource.BaseMaterialID = v
			d.resource.HasBaseMaterialID = true
		case attrName:
			d.resource.Name = string(a.Value)
		case attrPartNumber:
			d.resource.PartNumber = string(a.Value)
		}
	}
	return errs
}

func (d *objectDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space != go3mf.Namespace {
		return nil
	}
	switch name.Local {
	case elMesh:
		d.resource.Mesh = &go3mf.Mesh{}
		return &meshDecoder{mesh: d.resource.Mesh}
	case elComponents:
		return &componentsDecoder{object: &d.resource}
	case elMetadataGroup:
		return &metadataDecoder{file: d.file, target: &d.resource.Metadata}
	}
	return nil
}

func (d *objectDecoder) End() {
	d.resource.Order = len(d.resources.Objects)
	res := d.resource
	d.resources.Objects = append(d.resources.Objects, &res)
}

func (d *objectDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Objects))
}

type meshDecoder struct {
	mesh *go3mf.Mesh
}

func (d *meshDecoder) ParentValue() interface{} { return d.mesh }
func (d *meshDecoder) Start([]spec.Attr) error  { return nil }

func (d *meshDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space != go3mf.Namespace {
		return nil
	}
	switch name.Local {
	case elVertices:
		return &verticesDecoder{mesh: d.mesh}
	case elTriangles:
		return &trianglesDecoder{mesh: d.mesh}
	}
	return nil
}

func (d *meshDecoder) End()                 {}
func (d *meshDecoder) Wrap(err error) error { return err }

type verticesDecoder struct {
	spec.BaseDecoder
	mesh *go3mf.Mesh
}

func (d *verticesDecoder) Start([]spec.Attr) error { return nil }

func (d *verticesDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == go3mf.Namespace && name.Local == elVertex {
		return &vertexDecoder{mesh: d.mesh}
	}
	return nil
}

type vertexDecoder struct {
	spec.BaseDecoder
	mesh *go3mf.Mesh
}

func (d *vertexDecoder) Start(attrs []spec.Attr) error {
	var p go3mf.Point3D
	var errs error
	for _, a := range attrs {
		var idx int
		switch a.Name.Local {
		case attrX:
			idx = 0
		case attrY:
			idx = 1
		case attrZ:
			idx = 2
		default:
			continue
		}
		v, err := strconv.ParseFloat(string(a.Value), 64)
		if err != nil {
			errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			continue
		}
		p[idx] = v
	}
	d.mesh.Vertices = append(d.mesh.Vertices, p)
	return errs
}

type trianglesDecoder struct {
	spec.BaseDecoder
	mesh *go3mf.Mesh
}

func (d *trianglesDecoder) Start([]spec.Attr) error { return nil }

func (d *trianglesDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == go3mf.Namespace && name.Local == elTriangle {
		return &triangleDecoder{mesh: d.mesh}
	}
	return nil
}

type triangleDecoder struct {
	spec.BaseDecoder
	mesh *go3mf.Mesh
}

func (d *triangleDecoder) Start(attrs []spec.Attr) error {
	var t go3mf.Triangle
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrV1, attrV2, attrV3:
			idx := map[string]int{attrV1: 0, attrV2: 1, attrV3: 2}[a.Name.Local]
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
				continue
			}
			t.Indices[idx] = v
		case attrPID:
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrPID, false))
				continue
			}
			t.PID = v
			t.HasPID = true
		case "p1", "p2", "p3":
			idx := map[string]int{"p1": 0, "p2": 1, "p3": 2}[a.Name.Local]
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
				continue
			}
			t.PIndices[idx] = v
			t.HasP[idx] = true
		}
	}
	d.mesh.Triangles = append(d.mesh.Triangles, t)
	return errs
}

type componentsDecoder struct {
	object *go3mf.Object
}

func (d *componentsDecoder) ParentValue() interface{} { return d.object }
func (d *componentsDecoder) Start([]spec.Attr) error  { return nil }

func (d *componentsDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == go3mf.Namespace && name.Local == elComponent {
		return &componentDecoder{object: d.object}
	}
	return nil
}

func (d *componentsDecoder) End()                 {}
func (d *componentsDecoder) Wrap(err error) error { return err }

type componentDecoder struct {
	object    *go3mf.Object
	component go3mf.Component
}

func (d *componentDecoder) ParentValue() interface{} { return &d.component }

func (d *componentDecoder) Start(attrs []spec.Attr) error {
	d.component.Transform = go3mf.Identity()
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrObjectID:
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrObjectID, true))
				continue
			}
			d.component.ObjectID = v
		case attrTransform:
			m, err := parseMatrix(string(a.Value))
			if err != nil {
				errs = specerr.Append(errs, err)
				continue
			}
			d.component.Transform = m
		}
	}
	return errs
}

func (d *componentDecoder) Child(xml.Name) spec.ElementDecoder { return nil }

func (d *componentDecoder) End() {
	d.object.Components = append(d.object.Components, &d.component)
}

func (d *componentDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.component, len(d.object.Components))
}

type buildDecoder struct {
	file  *modelFile
	build *go3mf.Build
}

func (d *buildDecoder) ParentValue() interface{} { return d.build }
func (d *buildDecoder) Start([]spec.Attr) error  { return nil }

func (d *buildDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == go3mf.Namespace && name.Local == elItem {
		return &itemDecoder{file: d.file, build: d.build}
	}
	return nil
}

func (d *buildDecoder) End()                 {}
func (d *buildDecoder) Wrap(err error) error { return err }

type itemDecoder struct {
	file  *modelFile
	build *go3mf.Build
	item  go3mf.Item
}

func (d *itemDecoder) ParentValue() interface{} { return &d.item }

func (d *itemDecoder) Start(attrs []spec.Attr) error {
	d.item.Transform = go3mf.Identity()
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrObjectID:
			v, err := parseUint32(a.Value)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(attrObjectID, true))
				continue
			}
			d.item.ObjectID = v
		case attrTransform:
			m, err := parseMatrix(string(a.Value))
			if err != nil {
				errs = specerr.Append(errs, err)
				continue
			}
			d.item.Transform = m
		case attrPartNumber:
			d.item.PartNumber = string(a.Value)
		}
	}
	return errs
}

func (d *itemDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == go3mf.Namespace && name.Local == elMetadataGroup {
		return &metadataDecoder{file: d.file, target: &d.item.Metadata}
	}
	return nil
}

func (d *itemDecoder) End() {
	item := d.item
	d.build.Items = append(d.build.Items, &item)
}

func (d *itemDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.item, len(d.build.Items))
}

// metadataDecoder decodes a <metadatagroup> wrapper, one <metadata> entry
// at a time, appending onto target (the model's, an object's or an item's
// metadata slice).
type metadataDecoder struct {
	file   *modelFile
	target *[]go3mf.Metadata
}

func (d *metadataDecoder) Start([]spec.Attr) error { return nil }

func (d *metadataDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == go3mf.Namespace && name.Local == elMetadata {
		return &metadataEntryDecoder{file: d.file, target: d.target}
	}
	return nil
}

func (d *metadataDecoder) End()                 {}
func (d *metadataDecoder) Wrap(err error) error { return err }

type metadataEntryDecoder struct {
	file   *modelFile
	entry  go3mf.Metadata
	text   []byte
	target *[]go3mf.Metadata
}

func (d *metadataEntryDecoder) Start(attrs []spec.Attr) error {
	for _, a := range attrs {
		switch a.Name.Local {
		case attrName:
			d.entry.Name = d.resolveMetadataName(string(a.Value))
		case attrPreserve:
			d.entry.Preserve = string(a.Value) == "1" || strings.EqualFold(string(a.Value), "true")
		}
	}
	return nil
}

// resolveMetadataName splits a metadata name attribute's value on its first
// ':' into a namespace prefix and local name (spec.md §4.3's "metadata name
// may itself be namespace-qualified", e.g. "prod:UUID"); an unqualified name
// such as "Title" keeps an empty namespace.
func (d *metadataEntryDecoder) resolveMetadataName(val string) xml.Name {
	prefix, local, ok := strings.Cut(val, ":")
	if !ok {
		return xml.Name{Local: val}
	}
	uri, ok := d.file.namespaces[prefix]
	if !ok {
		return xml.Name{Local: val}
	}
	return xml.Name{Space: uri, Local: local}
}

func (d *metadataEntryDecoder) Child(xml.Name) spec.ElementDecoder { return nil }

func (d *metadataEntryDecoder) Text(b []byte) { d.text = append(d.text, b...) }

func (d *metadataEntryDecoder) End() {
	d.entry.Value = string(d.text)
	*d.target = append(*d.target, d.entry)
}

func (d *metadataEntryDecoder) Wrap(err error) error { return err }

func parseColor(s string) (color.RGBA, error) {
	if len(s) == 0 || s[0] != '#' {
		return color.RGBA{}, specerr.InvalidXML("color %q must start with '#'", s)
	}
	body := s[1:]
	if len(body) != 6 && len(body) != 8 {
		return color.RGBA{}, specerr.InvalidXML("color %q must be #RRGGBB or #RRGGBBAA", s)
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return color.RGBA{}, specerr.InvalidXML("color %q is not valid hex", s)
	}
	c := color.RGBA{R: raw[0], G: raw[1], B: raw[2], A: 0xff}
	if len(raw) == 4 {
		c.A = raw[3]
	}
	return c, nil
}

func parseUint32(v []byte) (uint32, error) {
	n, err := strconv.ParseUint(string(v), 10, 32)
	return uint32(n), err
}

func parseMatrix(s string) (go3mf.Matrix, error) {
	fields := strings.Fields(s)
	if len(fields) != 12 {
		return go3mf.Matrix{}, specerr.InvalidXML("transform must have exactly 12 space-separated values, got %d", len(fields))
	}
	var m go3mf.Matrix
	for i, f := range fields {
		v, err := strconv.ParseFloat(f, 64)
		if err != nil {
			return go3mf.Matrix{}, specerr.NewParseAttrError(attrTransform, false)
		}
		m[i] = v
	}
	return m, nil
}
