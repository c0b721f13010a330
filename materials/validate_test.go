// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package materials

import (
	"testing"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
)

func countErrs(t *testing.T, err error, want int) {
	t.Helper()
	errs := specerr.Errors(err)
	if len(errs) != want {
		t.Errorf("got %d errors, want %d: %v", len(errs), want, errs)
	}
}

func TestValidateColorGroup(t *testing.T) {
	if err := validateColorGroup(&ColorGroup{ID: 1}); err == nil {
		t.Error("empty colorgroup should fail validation")
	}
	if err := validateColorGroup(&ColorGroup{ID: 2, Colors: []Color{{0xff, 0, 0, 0xff}}}); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidateTexture2D(t *testing.T) {
	m := &go3mf.Model{Attachments: []go3mf.Attachment{{Path: "/a.png"}}}
	if err := validateTexture2D(m, &Texture2D{ID: 1}); err == nil {
		t.Error("texture2d without path/contenttype should fail")
	} else {
		countErrs(t, err, 2)
	}
	if err := validateTexture2D(m, &Texture2D{ID: 2, Path: "/missing.png", ContentType: PNG}); err == nil {
		t.Error("texture2d referencing a missing attachment should fail")
	}
	if err := validateTexture2D(m, &Texture2D{ID: 3, Path: "/a.png", ContentType: PNG}); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidateTexture2DGroup(t *testing.T) {
	m := &go3mf.Model{}
	m.Resources.Assets = []go3mf.Asset{
		&Texture2D{ID: 1, Order: 0, Path: "/a.png", ContentType: PNG},
		&go3mf.BaseMaterials{ID: 2, Order: 1},
	}
	if err := validateTexture2DGroup(m, "", &Texture2DGroup{ID: 3, Order: 2, TextureID: 1, Coords: []TextureCoord{{U: 0, V: 0}}}); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
	if err := validateTexture2DGroup(m, "", &Texture2DGroup{ID: 4, Order: 2, TextureID: 2, Coords: []TextureCoord{{}}}); err == nil {
		t.Error("texture2dgroup referencing a non-texture resource should fail")
	}
	if err := validateTexture2DGroup(m, "", &Texture2DGroup{ID: 5, Order: 2, TextureID: 100}); err == nil {
		t.Error("texture2dgroup referencing a missing resource should fail")
	} else {
		countErrs(t, err, 2)
	}
	if err := validateTexture2DGroup(m, "", &Texture2DGroup{ID: 6, Order: 0, TextureID: 1, Coords: []TextureCoord{{}}}); err == nil {
		t.Error("texture2dgroup forward-referencing its texture should fail")
	}
}

func TestValidateCompositeMaterials(t *testing.T) {
	m := &go3mf.Model{}
	m.Resources.Assets = []go3mf.Asset{
		&go3mf.BaseMaterials{ID: 1, Order: 0, Materials: []go3mf.Base{{Name: "a"}, {Name: "b"}}},
	}
	ok := &CompositeMaterials{ID: 2, Order: 1, MaterialID: 1, Indices: []uint32{0, 1}, Composites: []Composite{{Values: []float64{0.5, 0.5}}}}
	if err := validateCompositeMat(m, "", ok); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
	oob := &CompositeMaterials{ID: 3, Order: 1, MaterialID: 1, Indices: []uint32{0, 100}, Composites: []Composite{{Values: []float64{0.5, 0.5}}}}
	if err := validateCompositeMat(m, "", oob); err == nil {
		t.Error("out of bounds index should fail")
	}
	mismatch := &CompositeMaterials{ID: 4, Order: 1, MaterialID: 1, Indices: []uint32{0, 1}, Composites: []Composite{{Values: []float64{0.5}}}}
	if err := validateCompositeMat(m, "", mismatch); err == nil {
		t.Error("composite with wrong value count should fail")
	}
}

func TestValidateMultiProperties(t *testing.T) {
	m := &go3mf.Model{}
	m.Resources.Assets = []go3mf.Asset{
		&go3mf.BaseMaterials{ID: 1, Order: 0, Materials: []go3mf.Base{{Name: "a"}, {Name: "b"}}},
		&ColorGroup{ID: 2, Order: 1, Colors: []Color{{0xff, 0, 0, 0xff}, {0, 0xff, 0, 0xff}}},
	}
	ok := &MultiProperties{ID: 3, Order: 2, PIDs: []uint32{1, 2}, BlendMethods: []BlendMethod{BlendMix}, Multis: []Multi{{PIndices: []uint32{0, 1}}}}
	if err := validateMultiProps(m, "", ok); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
	m.Resources.Assets = append(m.Resources.Assets, &ColorGroup{ID: 5, Order: 2, Colors: []Color{{}}})
	badColors := &MultiProperties{ID: 6, Order: 3, PIDs: []uint32{2, 5}, BlendMethods: []BlendMethod{BlendMix}, Multis: []Multi{{PIndices: []uint32{0, 0}}}}
	if err := validateMultiProps(m, "", badColors); err == nil {
		t.Error("multiproperties referencing two colorgroups should fail")
	}
	badBlend := &MultiProperties{ID: 7, Order: 2, PIDs: []uint32{1, 2}, BlendMethods: []BlendMethod{BlendMix, BlendMultiply}, Multis: []Multi{{PIndices: []uint32{0, 1}}}}
	if err := validateMultiProps(m, "", badBlend); err == nil {
		t.Error("mismatched blendmethods length should fail")
	}
	badBounds := &MultiProperties{ID: 8, Order: 2, PIDs: []uint32{1, 2}, Multis: []Multi{{PIndices: []uint32{0, 100}}}}
	if err := validateMultiProps(m, "", badBounds); err == nil {
		t.Error("out of bounds pindex should fail")
	}
}
