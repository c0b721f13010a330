// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

// Package materials implements the Materials & Properties 3MF extension:
// color groups, texture2D resources and groups, composite materials and
// multi-property groups (spec.md §3.1 "Property groups").
package materials

import (
	go3mf "github.com/3mf-go/go3mf"
)

// Namespace is the canonical name of this extension.
const Namespace = "http://schemas.microsoft.com/3dmanufacturing/material/2015/02"

func init() {
	go3mf.Register(go3mf.ExtMaterial, Spec{})
}

// Spec implements spec.Spec for the materials extension.
type Spec struct{}

// Namespace returns the canonical namespace URI of this extension.
func (Spec) Namespace() string { return Namespace }

// Local returns the conventional xmlns prefix for this extension.
func (Spec) Local() string { return "m" }

// TileStyle is the wrap mode applied to a texture's U/V coordinates.
type TileStyle uint8

// Supported tile styles.
const (
	TileWrap TileStyle = iota
	TileMirror
	TileClamp
	TileNone
)

func newTileStyle(s string) (t TileStyle, ok bool) {
	t, ok = map[string]TileStyle{
		"wrap":   TileWrap,
		"mirror": TileMirror,
		"clamp":  TileClamp,
		"none":   TileNone,
	}[s]
	return
}

func (t TileStyle) String() string {
	return map[TileStyle]string{
		TileWrap:   "wrap",
		TileMirror: "mirror",
		TileClamp:  "clamp",
		TileNone:   "none",
	}[t]
}

// TextureFilter is the sampling filter applied to a texture.
type TextureFilter uint8

// Supported filters.
const (
	FilterAuto TextureFilter = iota
	FilterLinear
	FilterNearest
)

func newFilter(s string) (t TextureFilter, ok bool) {
	t, ok = map[string]TextureFilter{
		"auto":    FilterAuto,
		"linear":  FilterLinear,
		"nearest": FilterNearest,
	}[s]
	return
}

// ContentType identifies a texture's image format.
type ContentType uint8

// Supported content types.
const (
	ContentTypeUnknown ContentType = iota
	PNG
	JPEG
)

func newContentType(s string) (c ContentType, ok bool) {
	c, ok = map[string]ContentType{
		"image/png":  PNG,
		"image/jpeg": JPEG,
	}[s]
	return
}

// ColorGroup is an indexable list of display colors, referenced by
// triangle/vertex pindex.
type ColorGroup struct {
	ID     uint32
	Order  int
	Colors []Color
}

// Color is an sRGBA color, stored as a hex-decoded "#RRGGBBAA" value.
type Color struct {
	R, G, B, A uint8
}

// Len returns the number of colors in the group.
func (r *ColorGroup) Len() int { return len(r.Colors) }

// Identify returns the resource's unique ID.
func (r *ColorGroup) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *ColorGroup) ParseOrder() int { return r.Order }

// Texture2D is a single texture image resource, referencing a package part
// by path.
type Texture2D struct {
	ID          uint32
	Order       int
	Path        string
	ContentType ContentType
	TileStyleU  TileStyle
	TileStyleV  TileStyle
	Filter      TextureFilter
}

// Identify returns the resource's unique ID.
func (r *Texture2D) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *Texture2D) ParseOrder() int { return r.Order }

// TextureCoord is one (u,v) entry of a Texture2DGroup.
type TextureCoord struct {
	U, V float64
}

// Texture2DGroup is an indexable list of UV coordinates into a single
// Texture2D.
type Texture2DGroup struct {
	ID        uint32
	Order     int
	TextureID uint32
	Coords    []TextureCoord
}

// Len returns the number of coordinates in the group.
func (r *Texture2DGroup) Len() int { return len(r.Coords) }

// Identify returns the resource's unique ID.
func (r *Texture2DGroup) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *Texture2DGroup) ParseOrder() int { return r.Order }

// Composite blends a set of base-material indices by weighted values.
type Composite struct {
	Values []float64
}

// CompositeMaterials is an indexable list of Composite blends over a
// single BaseMaterials group.
type CompositeMaterials struct {
	ID         uint32
	Order      int
	MaterialID uint32
	Indices    []uint32
	Composites []Composite
}

// Len returns the number of composites in the group.
func (r *CompositeMaterials) Len() int { return len(r.Composites) }

// Identify returns the resource's unique ID.
func (r *CompositeMaterials) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *CompositeMaterials) ParseOrder() int { return r.Order }

// BlendMethod controls how a multi-property layer composites onto the
// layer below it.
type BlendMethod uint8

// Supported blend methods.
const (
	BlendMix BlendMethod = iota
	BlendMultiply
)

func newBlendMethod(s string) (b BlendMethod, ok bool) {
	b, ok = map[string]BlendMethod{
		"mix":      BlendMix,
		"multiply": BlendMultiply,
	}[s]
	return
}

// Multi is one entry of a MultiProperties group: one pindex per referenced
// property-group layer.
type Multi struct {
	PIndices []uint32
}

// MultiProperties layers several property groups (referenced by pid) into
// one indexable list.
type MultiProperties struct {
	ID           uint32
	Order        int
	PIDs         []uint32
	BlendMethods []BlendMethod
	Multis       []Multi
}

// Len returns the number of entries in the group.
func (r *MultiProperties) Len() int { return len(r.Multis) }

// Identify returns the resource's unique ID.
func (r *MultiProperties) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *MultiProperties) ParseOrder() int { return r.Order }

const (
	attrColorGroup       = "colorgroup"
	attrColor            = "color"
	attrTexture2D        = "texture2d"
	attrPath             = "path"
	attrContentType      = "contenttype"
	attrTileStyleU       = "tilestyleu"
	attrTileStyleV       = "tilestylev"
	attrFilter           = "filter"
	attrTexture2DGroup   = "texture2dgroup"
	attrTexID            = "texid"
	attrTex2Coord        = "tex2coord"
	attrU                = "u"
	attrV                = "v"
	attrCompositeMaterials = "compositematerials"
	attrMatID            = "matid"
	attrMatIndices       = "matindices"
	attrComposite        = "composite"
	attrValues           = "values"
	attrMultiProperties  = "multiproperties"
	attrPIDs             = "pids"
	attrBlendMethods     = "blendmethods"
	attrMulti            = "multi"
	attrPIndices         = "pindices"
	attrID               = "id"
)
