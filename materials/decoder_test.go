// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package materials

import (
	"encoding/xml"
	"testing"

	go3mf "github.com/3mf-go/go3mf"
	"github.com/3mf-go/go3mf/spec"
	"github.com/go-test/deep"
)

func attr(local, value string) spec.Attr {
	return spec.Attr{Name: xml.Name{Local: local}, Value: []byte(value)}
}

func qname(local string) xml.Name {
	return xml.Name{Space: Namespace, Local: local}
}

func TestColorGroupDecoder(t *testing.T) {
	resources := new(go3mf.Resources)
	d := &colorGroupDecoder{resources: resources}
	if err := d.Start([]spec.Attr{attr("id", "1")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	child := d.Child(qname(attrColor))
	if err := child.Start([]spec.Attr{attr("color", "#FFFFFF")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	if err := child.Start([]spec.Attr{attr("color", "#1AB567FF")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	d.End()
	want := &ColorGroup{ID: 1, Colors: []Color{{0xff, 0xff, 0xff, 0xff}, {0x1a, 0xb5, 0x67, 0xff}}}
	if diff := deep.Equal(resources.Assets[0], want); diff != nil {
		t.Errorf("colorGroupDecoder = %v", diff)
	}
}

func TestTexture2DDecoder(t *testing.T) {
	resources := new(go3mf.Resources)
	d := &texture2DDecoder{resources: resources}
	err := d.Start([]spec.Attr{
		attr("id", "6"),
		attr("path", "/3D/Texture/logo.png"),
		attr("contenttype", "image/png"),
		attr("tilestyleu", "wrap"),
		attr("tilestylev", "mirror"),
		attr("filter", "auto"),
	})
	if err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	d.End()
	want := &Texture2D{ID: 6, Path: "/3D/Texture/logo.png", ContentType: PNG, TileStyleU: TileWrap, TileStyleV: TileMirror, Filter: FilterAuto}
	if diff := deep.Equal(resources.Assets[0], want); diff != nil {
		t.Errorf("texture2DDecoder = %v", diff)
	}
}

func TestTexture2DGroupDecoder(t *testing.T) {
	resources := new(go3mf.Resources)
	d := &texture2DGroupDecoder{resources: resources}
	if err := d.Start([]spec.Attr{attr("id", "2"), attr("texid", "6")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	child := d.Child(qname(attrTex2Coord))
	if err := child.Start([]spec.Attr{attr("u", "0.3"), attr("v", "0.5")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	d.End()
	want := &Texture2DGroup{ID: 2, TextureID: 6, Coords: []TextureCoord{{U: 0.3, V: 0.5}}}
	if diff := deep.Equal(resources.Assets[0], want); diff != nil {
		t.Errorf("texture2DGroupDecoder = %v", diff)
	}
}

func TestCompositeMaterialsDecoder(t *testing.T) {
	resources := new(go3mf.Resources)
	d := &compositeMaterialsDecoder{resources: resources}
	if err := d.Start([]spec.Attr{attr("id", "4"), attr("matid", "5"), attr("matindices", "1 2")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	child := d.Child(qname(attrComposite))
	if err := child.Start([]spec.Attr{attr("values", "0.5 0.5")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	d.End()
	want := &CompositeMaterials{ID: 4, MaterialID: 5, Indices: []uint32{1, 2}, Composites: []Composite{{Values: []float64{0.5, 0.5}}}}
	if diff := deep.Equal(resources.Assets[0], want); diff != nil {
		t.Errorf("compositeMaterialsDecoder = %v", diff)
	}
}

func TestMultiPropertiesDecoder(t *testing.T) {
	resources := new(go3mf.Resources)
	d := &multiPropertiesDecoder{resources: resources}
	if err := d.Start([]spec.Attr{attr("id", "9"), attr("pids", "5 2"), attr("blendmethods", "multiply")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	child := d.Child(qname(attrMulti))
	if err := child.Start([]spec.Attr{attr("pindices", "0 1")}); err != nil {
		t.Fatalf("Start() unexpected error = %v", err)
	}
	d.End()
	want := &MultiProperties{ID: 9, PIDs: []uint32{5, 2}, BlendMethods: []BlendMethod{BlendMultiply}, Multis: []Multi{{PIndices: []uint32{0, 1}}}}
	if diff := deep.Equal(resources.Assets[0], want); diff != nil {
		t.Errorf("multiPropertiesDecoder = %v", diff)
	}
}

func TestParseColor_invalid(t *testing.T) {
	for _, s := range []string{"", "FFFFFF", "#FFF", "#ZZZZZZ"} {
		if _, err := parseColor(s); err == nil {
			t.Errorf("parseColor(%q) expected error", s)
		}
	}
}
