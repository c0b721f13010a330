// Package go3mf implements a reader, validator and in-memory model for the
// 3D Manufacturing Format (3MF): an OPC/ZIP package carrying one or more XML
// model parts, optional textures, thumbnails, keystores and relationship
// metadata. The package is read-only: it parses and validates a byte stream
// into a fully-checked Model tree; it does not author or re-serialize
// packages, and it does not perform cryptography (see the securecontent
// subpackage).
package go3mf

import (
	"encoding/xml"
	"image/color"
	"reflect"
	"sort"
)

// Units define the allowed model units.
type Units uint8

// Supported units.
const (
	UnitMillimeter Units = iota
	UnitMicrometer
	UnitCentimeter
	UnitInch
	UnitFoot
	UnitMeter
)

func (u Units) String() string {
	return map[Units]string{
		UnitMillimeter: "millimeter",
		UnitMicrometer: "micron",
		UnitCentimeter: "centimeter",
		UnitInch:       "inch",
		UnitFoot:       "foot",
		UnitMeter:      "meter",
	}[u]
}

// NewUnits resolves the unit attribute value into a Units constant.
func NewUnits(s string) (u Units, ok bool) {
	u, ok = map[string]Units{
		"millimeter": UnitMillimeter,
		"micron":     UnitMicrometer,
		"centimeter": UnitCentimeter,
		"inch":       UnitInch,
		"foot":       UnitFoot,
		"meter":      UnitMeter,
	}[s]
	return
}

// ObjectType defines the allowed object types.
type ObjectType int8

// Supported object types.
const (
	ObjectTypeModel ObjectType = iota
	ObjectTypeOther
	ObjectTypeSupport
	ObjectTypeSolidSupport
	ObjectTypeSurface
)

func (o ObjectType) String() string {
	return map[ObjectType]string{
		ObjectTypeModel:        "model",
		ObjectTypeOther:        "other",
		ObjectTypeSupport:      "support",
		ObjectTypeSolidSupport: "solidsupport",
		ObjectTypeSurface:      "surface",
	}[o]
}

// NewObjectType resolves the type attribute value into an ObjectType
// constant.
func NewObjectType(s string) (o ObjectType, ok bool) {
	o, ok = map[string]ObjectType{
		"model":        ObjectTypeModel,
		"other":        ObjectTypeOther,
		"support":      ObjectTypeSupport,
		"solidsupport": ObjectTypeSolidSupport,
		"surface":      ObjectTypeSurface,
	}[s]
	return
}

// Asset is a named, indexable resource kept in Resources.Assets: base
// material groups, color groups, texture groups, composite materials,
// multi-properties and slice stacks all implement it. Object is
// deliberately not an Asset: objects and assets share the build's id
// space for lookups but are validated by different, disjoint uniqueness
// rules (spec.md §3.2).
type Asset interface {
	// Identify returns the resource's id, unique among every Asset kind.
	Identify() uint32
	// ParseOrder returns the monotonically increasing index this
	// resource received as it was closed during decoding. Any reference
	// to this resource from a resource whose ParseOrder is smaller than or
	// equal to this one's is a forward reference and is invalid.
	ParseOrder() int
}

// Metadata item is an in-memory representation of a 3MF metadata entry,
// attachable to the model or a build item.
type Metadata struct {
	Name     xml.Name
	Value    string
	Preserve bool
}

// Attachment describes a package part that is not itself a model part: a
// texture, a thumbnail, a keystore, or any other opaque file discovered via
// relationships.
type Attachment struct {
	Path        string
	ContentType string
	Data        []byte
	// IsTexture records that this attachment was discovered through a
	// texture (rather than must-preserve) relationship, so the validator
	// can restrict the texture content-type/path rules (spec.md §4.5
	// rule 14) to the attachments they actually apply to.
	IsTexture bool
}

// Relationship is a typed, directed edge from a part (or the package root)
// to another part, as declared in a *.rels file.
type Relationship struct {
	ID     string
	Type   string
	Target string
}

// Build contains the build items to manufacture as part of processing the
// job.
type Build struct {
	Items   []*Item
	AnyAttr []interface{}
}

// ExtAttr searches AnyAttr for a value assignable to target, which must be
// a non-nil pointer. It returns true and sets *target on the first match.
func (b *Build) ExtAttr(target interface{}) bool { return findAttr(b.AnyAttr, target) }

// Resources acts as the root element of a library of constituent pieces of
// the overall 3D object definition. Objects and property-group Assets share
// one ordered parse sequence (see Asset.ParseOrder and Object.Order) but
// live in disjoint id namespaces (spec.md §3.1/§3.2).
type Resources struct {
	Assets  []Asset
	Objects []*Object
}

// UnusedID returns the lowest id not currently used by any object or asset.
func (rs *Resources) UnusedID() uint32 {
	if len(rs.Assets) == 0 && len(rs.Objects) == 0 {
		return 1
	}
	ids := make([]int, 0, len(rs.Assets)+len(rs.Objects)+1)
	ids = append(ids, 0)
	for _, r := range rs.Assets {
		ids = append(ids, int(r.Identify()))
	}
	for _, o := range rs.Objects {
		ids = append(ids, int(o.ID))
	}
	sort.Ints(ids)
	lowest := 0
	for _, id := range ids {
		if id > lowest {
			break
		}
		if id == lowest {
			lowest++
		}
	}
	return uint32(lowest)
}

// FindObject returns the object with the target ID.
func (rs *Resources) FindObject(id uint32) (*Object, bool) {
	for _, value := range rs.Objects {
		if value.ID == id {
			return value, true
		}
	}
	return nil, false
}

// FindAsset returns the asset with the target ID.
func (rs *Resources) FindAsset(id uint32) (Asset, bool) {
	for _, value := range rs.Assets {
		if value.Identify() == id {
			return value, true
		}
	}
	return nil, false
}

// ChildModel represents the content of a non-root model part: a resource
// library referenced only via production-extension external paths or
// component/build-item external references. Not part of the core spec, but
// a common concept shared by the production and secure-content extensions.
type ChildModel struct {
	Path          string
	Resources     Resources
	Relationships []Relationship
	Encrypted     bool
}

// SecureContentInfo is the parsed, structurally-validated keystore (§4.4).
// Decryption itself is delegated to an injected KeyProvider (see
// KeyProvider); this struct only carries the parsed
// structure.
type SecureContentInfo struct {
	KeystoreUUID   string
	Consumers      []Consumer
	ResourceGroups []ResourceDataGroup
	EncryptedParts []string
}

// Consumer is a keystore <consumer> entry.
type Consumer struct {
	ConsumerID string
	KeyID      string
	KeyValue   string
}

// AccessRight is one consumer's wrapped-CEK entry inside a
// ResourceDataGroup.
type AccessRight struct {
	ConsumerIndex int
	WrapAlgorithm string
	MGFAlgorithm  string
	DigestMethod  string
	CipherValue   string
}

// ResourceData is a single encrypted-part descriptor inside a
// ResourceDataGroup.
type ResourceData struct {
	Path                string
	EncryptionAlgorithm string
	Compression         string
	IV, Tag, AAD        string
}

// ResourceDataGroup groups a set of AccessRight (one per consumer) with the
// ResourceData entries they collectively unlock.
type ResourceDataGroup struct {
	AccessRights  []AccessRight
	ResourceDatas []ResourceData
}

// A Model is the root in-memory representation of a parsed 3MF file. Each
// call to Parse constructs, populates and returns an isolated Model owned
// entirely by the caller (spec.md §5): nothing here is shared between
// parses.
type Model struct {
	Path               string
	Language           string
	Units              Units
	Thumbnail          string
	ThumbnailType      string
	RequiredExtensions map[string]bool // namespace -> true
	RequiredCustom     map[string]bool // URI -> true, for unrecognized required extensions
	Resources          Resources
	Build              Build
	Metadata           []Metadata
	Attachments        []Attachment
	Childs             map[string]*ChildModel // path -> child
	RootRelationships  []Relationship
	Relationships      []Relationship
	SecureContent      *SecureContentInfo
}

// PathOrDefault returns Path if not empty, else DefaultModelPath.
func (m *Model) PathOrDefault() string {
	if m.Path == "" {
		return DefaultModelPath
	}
	return m.Path
}

// FindResources returns the resource library associated with path, which
// may be the root model's own Resources or a ChildModel's.
func (m *Model) FindResources(path string) (*Resources, bool) {
	if path == "" || path == m.Path || (m.Path == "" && path == DefaultModelPath) {
		return &m.Resources, true
	}
	if child, ok := m.Childs[path]; ok {
		return &child.Resources, true
	}
	return nil, false
}

// FindAsset returns the asset with the target path and ID.
func (m *Model) FindAsset(path string, id uint32) (Asset, bool) {
	if rs, ok := m.FindResources(path); ok {
		return rs.FindAsset(id)
	}
	return nil, false
}

// FindObject returns the object with the target path and ID.
func (m *Model) FindObject(path string, id uint32) (*Object, bool) {
	if rs, ok := m.FindResources(path); ok {
		return rs.FindObject(id)
	}
	return nil, false
}

// Base defines one entry of a BaseMaterials group: a name and an sRGBA
// display color.
type Base struct {
	Name  string
	Color color.RGBA
}

// BaseMaterials is the core-spec material resource: a named list of Base
// materials, indexable by pindex.
type BaseMaterials struct {
	ID        uint32
	Order     int
	Materials []Base
}

// Len returns the number of materials in the group.
func (r *BaseMaterials) Len() int { return len(r.Materials) }

// Identify returns the resource's unique ID.
func (r *BaseMaterials) Identify() uint32 { return r.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (r *BaseMaterials) ParseOrder() int { return r.Order }

// Item is a build item: a placed instance of an Object.
type Item struct {
	ObjectID   uint32
	Transform  Matrix
	PartNumber string
	Metadata   []Metadata
	AnyAttr    []interface{}
}

// HasTransform returns true if the transform is different from the
// identity transform.
func (b *Item) HasTransform() bool {
	return b.Transform != Matrix{} && b.Transform != Identity()
}

// ExtAttr searches AnyAttr for a value assignable to target, which must be
// a non-nil pointer. It returns true and sets *target on the first match.
func (b *Item) ExtAttr(target interface{}) bool { return findAttr(b.AnyAttr, target) }

// Object is an in-memory representation of a 3MF model object: a mesh, a
// set of components, or both a mesh and a boolean-shape/displacement
// decoration attached through an extension.
type Object struct {
	ID            uint32
	Order         int
	Name          string
	PartNumber    string
	ObjectType    ObjectType
	Thumbnail     string
	DefaultPID    uint32
	HasDefaultPID bool
	DefaultPIndex uint32
	// BaseMaterialID is the legacy basematerialid attribute, superseded by
	// pid/pindex but still accepted (spec.md §4.5.1).
	BaseMaterialID    uint32
	HasBaseMaterialID bool
	Metadata          []Metadata
	Mesh          *Mesh
	Components    []*Component
	AnyAttr       []interface{}

	// HasDeprecatedThumbnailAttr records that this object used the
	// deprecated per-object thumbnail attribute, which the OPC layer
	// must reject as a package-level-only relationship (spec.md §4.2).
	HasDeprecatedThumbnailAttr bool
	// HasExtensionShape records that an extension (boolean-ops,
	// displacement) supplied this object's geometry instead of a local
	// Mesh, so the "object must have a mesh or components" structural
	// check does not fire spuriously.
	HasExtensionShape bool
}

// ExtAttr searches AnyAttr for a value assignable to target, which must be
// a non-nil pointer. It returns true and sets *target on the first match.
func (o *Object) ExtAttr(target interface{}) bool { return findAttr(o.AnyAttr, target) }

// A Component references another Object by id, with an optional affine
// transform.
type Component struct {
	ObjectID  uint32
	Transform Matrix
	AnyAttr   []interface{}
}

// HasTransform returns true if the transform is different from the
// identity transform.
func (c *Component) HasTransform() bool {
	return c.Transform != Matrix{} && c.Transform != Identity()
}

// ExtAttr searches AnyAttr for a value assignable to target, which must be
// a non-nil pointer. It returns true and sets *target on the first match.
func (c *Component) ExtAttr(target interface{}) bool { return findAttr(c.AnyAttr, target) }

const (
	// Namespace is the canonical name of the core 3MF specification.
	Namespace = "http://schemas.microsoft.com/3dmanufacturing/core/2015/02"

	// RelTypeModel3D is the canonical 3D model relationship type.
	RelTypeModel3D = "http://schemas.microsoft.com/3dmanufacturing/2013/01/3dmodel"
	// RelTypeThumbnail is the canonical thumbnail relationship type.
	RelTypeThumbnail = "http://schemas.openxmlformats.org/package/2006/relationships/metadata/thumbnail"
	// RelTypeMustPreserve is the canonical must-preserve relationship type.
	RelTypeMustPreserve = "http://schemas.openxmlformats.org/package/2006/relationships/mustpreserve"
	// RelTypeTexture3D is the canonical texture relationship type.
	RelTypeTexture3D = "http://schemas.microsoft.com/3dmanufacturing/2013/01/3dtexture"

	// DefaultModelPath is the recommended root model part name.
	DefaultModelPath = "/3D/3dmodel.model"
	// Default3DTexturesDir is the recommended directory for 3D textures.
	Default3DTexturesDir = "/3D/Textures/"

	// ContentType3DModel is the 3D model content type.
	ContentType3DModel = "application/vnd.ms-package.3dmanufacturing-3dmodel+xml"
)

// findAttr scans a slice of heterogeneous extension values for the first
// one assignable to *target, matching the teacher's AnyAttr.Get pattern.
// target must be a non-nil pointer.
func findAttr(bag []interface{}, target interface{}) bool {
	if len(bag) == 0 || target == nil {
		return false
	}
	val := reflect.ValueOf(target)
	if val.Kind() != reflect.Ptr || val.IsNil() {
		return false
	}
	elem := val.Elem()
	targetType := elem.Type()
	for _, v := range bag {
		if v == nil {
			continue
		}
		vt := reflect.TypeOf(v)
		if vt.AssignableTo(targetType) {
			elem.Set(reflect.ValueOf(v))
			return true
		}
	}
	return false
}
