package io3mf

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

func newReader(m *go3mf.Model) *Reader {
	return &Reader{Model: m, cfg: go3mf.NewConfig()}
}

func TestValidateStructuralRequired(t *testing.T) {
	m := &go3mf.Model{}
	if err := newReader(m).validateStructuralRequired(); err == nil {
		t.Error("empty model should fail")
	}

	m = &go3mf.Model{}
	m.Resources.Objects = []*go3mf.Object{{ID: 1, Mesh: &go3mf.Mesh{}}}
	if err := newReader(m).validateStructuralRequired(); err == nil {
		t.Error("objects without a build item should fail")
	}

	m.Build.Items = []*go3mf.Item{{ObjectID: 1}}
	if err := newReader(m).validateStructuralRequired(); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidateResourceIDs(t *testing.T) {
	m := &go3mf.Model{}
	m.Resources.Objects = []*go3mf.Object{{ID: 1}, {ID: 1}}
	m.Resources.Assets = []go3mf.Asset{
		&go3mf.BaseMaterials{ID: 2}, &go3mf.BaseMaterials{ID: 2},
	}
	err := newReader(m).validateResourceIDs()
	countErrs(t, err, 2)
}

func TestValidateMeshGeometry(t *testing.T) {
	m := &go3mf.Model{}
	degenerate := &go3mf.Object{ID: 1, Mesh: &go3mf.Mesh{
		Vertices:  []go3mf.Point3D{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
		Triangles: []go3mf.Triangle{{Indices: [3]uint32{0, 0, 1}}},
	}}
	m.Resources.Objects = []*go3mf.Object{degenerate}
	err := newReader(m).validateMeshGeometry()
	if err == nil {
		t.Error("degenerate triangle should fail")
	}

	oob := &go3mf.Object{ID: 2, Mesh: &go3mf.Mesh{
		Vertices:  []go3mf.Point3D{{0, 0, 0}, {1, 0, 0}},
		Triangles: []go3mf.Triangle{{Indices: [3]uint32{0, 1, 5}}},
	}}
	m.Resources.Objects = []*go3mf.Object{oob}
	if err := newReader(m).validateMeshGeometry(); err == nil {
		t.Error("out of bounds index should fail")
	}

	nonManifold := &go3mf.Object{ID: 3, Mesh: &go3mf.Mesh{
		Vertices: []go3mf.Point3D{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Triangles: []go3mf.Triangle{
			{Indices: [3]uint32{0, 1, 2}},
			{Indices: [3]uint32{0, 1, 3}},
			{Indices: [3]uint32{0, 1, 0}},
		},
	}}
	m.Resources.Objects = []*go3mf.Object{nonManifold}
	if err := newReader(m).validateMeshGeometry(); err == nil {
		t.Error("manifold violation should fail")
	}
}

func TestValidateBuildReferences(t *testing.T) {
	m := &go3mf.Model{}
	m.Resources.Objects = []*go3mf.Object{{ID: 1}}
	m.Build.Items = []*go3mf.Item{{ObjectID: 1}, {ObjectID: 2}}
	err := newReader(m).validateBuildReferences()
	countErrs(t, err, 1)
}

func TestValidatePropertyReferences(t *testing.T) {
	m := &go3mf.Model{}
	m.Resources.Assets = []go3mf.Asset{
		&go3mf.BaseMaterials{ID: 1, Materials: []go3mf.Base{{Name: "a"}, {Name: "b"}}},
	}
	ok := &go3mf.Object{ID: 2, HasDefaultPID: true, DefaultPID: 1, DefaultPIndex: 1,
		Mesh: &go3mf.Mesh{
			Vertices:  []go3mf.Point3D{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}},
			Triangles: []go3mf.Triangle{{Indices: [3]uint32{0, 1, 2}}},
		},
	}
	m.Resources.Objects = []*go3mf.Object{ok}
	if err := newReader(m).validatePropertyReferences(); err != nil {
		t.Errorf("unexpected error = %v", err)
	}

	oob := &go3mf.Object{ID: 3, HasDefaultPID: true, DefaultPID: 1, DefaultPIndex: 5}
	m.Resources.Objects = []*go3mf.Object{oob}
	if err := newReader(m).validatePropertyReferences(); err == nil {
		t.Error("out of bounds pindex should fail")
	}

	missing := &go3mf.Object{ID: 4, HasDefaultPID: true, DefaultPID: 100}
	m.Resources.Objects = []*go3mf.Object{missing}
	if err := newReader(m).validatePropertyReferences(); err == nil {
		t.Error("missing pid should fail when property groups exist")
	}
}

func TestValidateComponentsCycle(t *testing.T) {
	m := &go3mf.Model{}
	a := &go3mf.Object{ID: 1, Components: []*go3mf.Component{{ObjectID: 2}}}
	b := &go3mf.Object{ID: 2, Components: []*go3mf.Component{{ObjectID: 1}}}
	m.Resources.Objects = []*go3mf.Object{a, b}
	if err := newReader(m).validateComponents(); err == nil {
		t.Error("circular component reference should fail")
	}
}

func TestValidateComponentsMissing(t *testing.T) {
	m := &go3mf.Model{}
	a := &go3mf.Object{ID: 1, Components: []*go3mf.Component{{ObjectID: 99}}}
	m.Resources.Objects = []*go3mf.Object{a}
	if err := newReader(m).validateComponents(); err == nil {
		t.Error("missing component reference should fail")
	}
}

func TestValidateTexturePaths(t *testing.T) {
	m := &go3mf.Model{}
	m.Attachments = []go3mf.Attachment{
		{Path: "/3D/Textures/a.png", ContentType: "image/png", IsTexture: true},
		{Path: `\bad`, ContentType: "image/gif", IsTexture: true},
		{Path: "/must-preserve.bin", ContentType: "application/octet-stream"},
	}
	err := newReader(m).validateTexturePaths()
	countErrs(t, err, 2)
}

func TestValidateMeshVolumeSign(t *testing.T) {
	m := &go3mf.Model{}
	inverted := &go3mf.Object{ID: 1, Mesh: &go3mf.Mesh{
		Vertices: []go3mf.Point3D{{0, 0, 0}, {1, 0, 0}, {0, 1, 0}, {0, 0, 1}},
		Triangles: []go3mf.Triangle{
			{Indices: [3]uint32{0, 1, 2}},
			{Indices: [3]uint32{0, 3, 1}},
			{Indices: [3]uint32{0, 2, 3}},
			{Indices: [3]uint32{1, 3, 2}},
		},
	}}
	m.Resources.Objects = []*go3mf.Object{inverted}
	if err := newReader(m).validateMeshVolumeSign(); err == nil {
		t.Error("inverted-volume mesh should fail")
	}
}

func TestValidateComponentOnlyProperties(t *testing.T) {
	m := &go3mf.Model{}
	o := &go3mf.Object{ID: 1, HasDefaultPID: true, DefaultPID: 1,
		Components: []*go3mf.Component{{ObjectID: 2}}}
	m.Resources.Objects = []*go3mf.Object{o, {ID: 2, Mesh: &go3mf.Mesh{}}}
	if err := newReader(m).validateComponentOnlyProperties(); err == nil {
		t.Error("component-only object with a pid should fail")
	}
}

func TestValidateProductionUUIDs(t *testing.T) {
	m := &go3mf.Model{}
	o1 := &go3mf.Object{ID: 1, AnyAttr: []interface{}{&dupUUIDAttr{uuid: "00000000-0000-0000-0000-000000000001"}}}
	o2 := &go3mf.Object{ID: 2, AnyAttr: []interface{}{&dupUUIDAttr{uuid: "00000000-0000-0000-0000-000000000001"}}}
	m.Resources.Objects = []*go3mf.Object{o1, o2}
	if err := newReader(m).validateProductionUUIDs(); err == nil {
		t.Error("duplicate production UUID should fail")
	}
}

// dupUUIDAttr is a minimal uuidCarrier stand-in, avoiding an import of the
// production package for this unit test.
type dupUUIDAttr struct{ uuid string }

func (a *dupUUIDAttr) ProductionUUID() string { return a.uuid }

func TestValidateProductionRequired(t *testing.T) {
	const productionNS = "http://schemas.microsoft.com/3dmanufacturing/production/2015/06"

	m := &go3mf.Model{}
	m.RequiredExtensions = map[string]bool{productionNS: true}
	o := &go3mf.Object{ID: 1, Mesh: &go3mf.Mesh{}}
	m.Resources.Objects = []*go3mf.Object{o}
	m.Build.Items = []*go3mf.Item{{ObjectID: 1}}

	// Neither the build, the item, nor the object carries a p:UUID: with
	// production required, all three must be reported.
	err := newReader(m).validateProductionRequired()
	countErrs(t, err, 3)

	m.Build.AnyAttr = []interface{}{&dupUUIDAttr{uuid: "00000000-0000-0000-0000-000000000001"}}
	m.Build.Items[0].AnyAttr = []interface{}{&dupUUIDAttr{uuid: "00000000-0000-0000-0000-000000000002"}}
	o.AnyAttr = []interface{}{&dupUUIDAttr{uuid: "00000000-0000-0000-0000-000000000003"}}
	if err := newReader(m).validateProductionRequired(); err != nil {
		t.Errorf("unexpected error once every entity carries a UUID = %v", err)
	}

	if err := newReader(&go3mf.Model{}).validateProductionRequired(); err != nil {
		t.Errorf("pass should be a no-op when production is not a required extension, got %v", err)
	}
}
