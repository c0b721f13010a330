// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package materials

import (
	"encoding/hex"
	"encoding/xml"
	"strconv"
	"strings"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/spec"
)

// CreateElementDecoder implements spec.NodeCreator: it is called once per
// top-level resource element found inside <resources> whose namespace
// resolves to this extension.
func (Spec) CreateElementDecoder(parent interface{}, name string) spec.ElementDecoder {
	resources, ok := parent.(*go3mf.Resources)
	if !ok {
		return nil
	}
	switch name {
	case attrColorGroup:
		return &colorGroupDecoder{resources: resources}
	case attrTexture2D:
		return &texture2DDecoder{resources: resources}
	case attrTexture2DGroup:
		return &texture2DGroupDecoder{resources: resources}
	case attrCompositeMaterials:
		return &compositeMaterialsDecoder{resources: resources}
	case attrMultiProperties:
		return &multiPropertiesDecoder{resources: resources}
	}
	return nil
}

// DecodeAttribute implements spec.AttributeDecoder for the legacy
// <basematerials ...> group, whose own id/materials are core elements; the
// materials extension does not decorate any core element attribute, so
// this is a no-op kept for interface symmetry with the other extensions.
func (Spec) DecodeAttribute(interface{}, spec.Attr) error { return nil }

func parseUint(a spec.Attr, required bool) (uint32, error) {
	val, err := strconv.ParseUint(string(a.Value), 10, 32)
	if err != nil {
		return 0, specerr.NewParseAttrError(a.Name.Local, required)
	}
	return uint32(val), nil
}

func parseFloat(a spec.Attr, required bool) (float64, error) {
	val, err := strconv.ParseFloat(string(a.Value), 64)
	if err != nil {
		return 0, specerr.NewParseAttrError(a.Name.Local, required)
	}
	return val, nil
}

func parseColor(s string) (Color, error) {
	if len(s) == 0 || s[0] != '#' {
		return Color{}, specerr.InvalidXML("color %q must start with '#'", s)
	}
	body := s[1:]
	if len(body) != 6 && len(body) != 8 {
		return Color{}, specerr.InvalidXML("color %q must be #RRGGBB or #RRGGBBAA", s)
	}
	raw, err := hex.DecodeString(body)
	if err != nil {
		return Color{}, specerr.InvalidXML("color %q is not valid hex", s)
	}
	c := Color{R: raw[0], G: raw[1], B: raw[2], A: 0xff}
	if len(raw) == 4 {
		c.A = raw[3]
	}
	return c, nil
}

type colorGroupDecoder struct {
	resources *go3mf.Resources
	resource  ColorGroup
}

func (d *colorGroupDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		if a.Name.Local == attrID {
			v, err := parseUint(a, true)
			errs = specerr.Append(errs, err)
			d.resource.ID = v
		}
	}
	return errs
}

func (d *colorGroupDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrColor {
		return &colorDecoder{resource: &d.resource}
	}
	return nil
}

func (d *colorGroupDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

func (d *colorGroupDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Assets))
}

type colorDecoder struct {
	spec.BaseDecoder
	resource *ColorGroup
}

func (d *colorDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		if a.Name.Local == attrColor {
			c, err := parseColor(string(a.Value))
			errs = specerr.Append(errs, err)
			d.resource.Colors = append(d.resource.Colors, c)
		}
	}
	return errs
}

type texture2DDecoder struct {
	spec.BaseDecoder
	resources *go3mf.Resources
	resource  Texture2D
}

func (d *texture2DDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrID:
			v, err := parseUint(a, true)
			errs = specerr.Append(errs, err)
			d.resource.ID = v
		case attrPath:
			d.resource.Path = string(a.Value)
		case attrContentType:
			ct, ok := newContentType(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.ContentType = ct
		case attrTileStyleU:
			t, ok := newTileStyle(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			d.resource.TileStyleU = t
		case attrTileStyleV:
			t, ok := newTileStyle(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			d.resource.TileStyleV = t
		case attrFilter:
			f, ok := newFilter(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			d.resource.Filter = f
		}
	}
	if errs != nil {
		return specerr.WrapIndex(errs, d.resource, len(d.resources.Assets))
	}
	return nil
}

func (d *texture2DDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

type texture2DGroupDecoder struct {
	resources *go3mf.Resources
	resource  Texture2DGroup
}

func (d *texture2DGroupDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrID:
			v, err := parseUint(a, true)
			errs = specerr.Append(errs, err)
			d.resource.ID = v
		case attrTexID:
			v, err := parseUint(a, true)
			errs = specerr.Append(errs, err)
			d.resource.TextureID = v
		}
	}
	return errs
}

func (d *texture2DGroupDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrTex2Coord {
		return &tex2CoordDecoder{resource: &d.resource}
	}
	return nil
}

func (d *texture2DGroupDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

func (d *texture2DGroupDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Assets))
}

type tex2CoordDecoder struct {
	spec.BaseDecoder
	resource *Texture2DGroup
}

func (d *tex2CoordDecoder) Start(attrs []spec.Attr) error {
	var c TextureCoord
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrU:
			v, err := parseFloat(a, true)
			errs = specerr.Append(errs, err)
			c.U = v
		case attrV:
			v, err := parseFloat(a, true)
			errs = specerr.Append(errs, err)
			c.V = v
		}
	}
	d.resource.Coords = append(d.resource.Coords, c)
	return errs
}

type compositeMaterialsDecoder struct {
	resources *go3mf.Resources
	resource  CompositeMaterials
}

func (d *compositeMaterialsDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrID:
			v, err := parseUint(a, true)
			errs = specerr.Append(errs, err)
			d.resource.ID = v
		case attrMatID:
			v, err := parseUint(a, true)
			errs = specerr.Append(errs, err)
			d.resource.MaterialID = v
		case attrMatIndices:
			for _, tok := range strings.Fields(string(a.Value)) {
				v, err := strconv.ParseUint(tok, 10, 32)
				if err != nil {
					errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
					continue
				}
				d.resource.Indices = append(d.resource.Indices, uint32(v))
			}
		}
	}
	return errs
}

func (d *compositeMaterialsDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrComposite {
		return &compositeDecoder{resource: &d.resource}
	}
	return nil
}

func (d *compositeMaterialsDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

func (d *compositeMaterialsDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Assets))
}

type compositeDecoder struct {
	spec.BaseDecoder
	resource *CompositeMaterials
}

func (d *compositeDecoder) Start(attrs []spec.Attr) error {
	var c Composite
	var errs error
	for _, a := range attrs {
		if a.Name.Local == attrValues {
			for _, tok := range strings.Fields(string(a.Value)) {
				v, err := strconv.ParseFloat(tok, 64)
				if err != nil {
					errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
					continue
				}
				c.Values = append(c.Values, v)
			}
		}
	}
	d.resource.Composites = append(d.resource.Composites, c)
	return errs
}

type multiPropertiesDecoder struct {
	resources *go3mf.Resources
	resource  MultiProperties
}

func (d *multiPropertiesDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrID:
			v, err := parseUint(a, true)
			errs = specerr.Append(errs, err)
			d.resource.ID = v
		case attrPIDs:
			for _, tok := range strings.Fields(string(a.Value)) {
				v, err := strconv.ParseUint(tok, 10, 32)
				if err != nil {
					errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
					continue
				}
				d.resource.PIDs = append(d.resource.PIDs, uint32(v))
			}
		case attrBlendMethods:
			for _, tok := range strings.Fields(string(a.Value)) {
				b, ok := newBlendMethod(tok)
				if !ok {
					errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
					continue
				}
				d.resource.BlendMethods = append(d.resource.BlendMethods, b)
			}
		}
	}
	return errs
}

func (d *multiPropertiesDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrMulti {
		return &multiDecoder{resource: &d.resource}
	}
	return nil
}

func (d *multiPropertiesDecoder) End() {
	d.resource.Order = len(d.resources.Assets)
	res := d.resource
	d.resources.Assets = append(d.resources.Assets, &res)
}

func (d *multiPropertiesDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.resource, len(d.resources.Assets))
}

type multiDecoder struct {
	spec.BaseDecoder
	resource *MultiProperties
}

func (d *multiDecoder) Start(attrs []spec.Attr) error {
	var m Multi
	var errs error
	for _, a := range attrs {
		if a.Name.Local == attrPIndices {
			for _, tok := range strings.Fields(string(a.Value)) {
				v, err := strconv.ParseUint(tok, 10, 32)
				if err != nil {
					errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
					continue
				}
				m.PIndices = append(m.PIndices, uint32(v))
			}
		}
	}
	d.resource.Multis = append(d.resource.Multis, m)
	return errs
}
