package io3mf

import (
	"fmt"
	"math"
	"sort"
	"strings"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/mesh"
	"github.com/3mf-go/go3mf/spec"
)

// validate runs the validator suite (spec.md §4.5) over a fully decoded
// Model: many ordered passes, each consuming an earlier pass's guarantees.
// It returns on the first pass that reports any violation; within a pass,
// every violation found is accumulated before returning.
func (r *Reader) validate() error {
	if err := r.runPostParse(); err != nil {
		return err
	}
	passes := []func() error{
		r.validateStructuralRequired,
		r.validateResourceIDs,
		r.validateMeshGeometry,
		r.validateBuildReferences,
		r.validatePropertyReferences,
		r.validateComponents,
		r.validateExtensions,
		r.validateTexturePaths,
		r.validateProductionUUIDs,
		r.validateProductionRequired,
		r.validateProductionPaths,
		r.validateTransforms,
		r.validateResourceOrdering,
		r.validateMeshVolumeSign,
		r.validateComponentOnlyProperties,
		r.validateStubs,
	}
	for _, pass := range passes {
		if err := pass(); err != nil {
			return err
		}
	}
	return nil
}

// modelPart pairs a part path with its resource library, letting every pass
// iterate the root model and every production-attachment child uniformly.
type modelPart struct {
	path      string
	resources *go3mf.Resources
}

func (r *Reader) parts() []modelPart {
	parts := []modelPart{{path: r.Model.PathOrDefault(), resources: &r.Model.Resources}}
	paths := make([]string, 0, len(r.Model.Childs))
	for p := range r.Model.Childs {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		parts = append(parts, modelPart{path: p, resources: &r.Model.Childs[p].Resources})
	}
	return parts
}

func wrapObj(path string, o *go3mf.Object, idx int, err error) error {
	return specerr.WrapPath(specerr.WrapIndex(err, o, idx), path)
}

// slicedCarrier is satisfied by the slice extension's ObjectAttr, letting
// the geometry/transform passes exempt sliced objects from mesh-only rules
// without importing the slices package.
type slicedCarrier interface{ IsSliced() bool }

func isSliced(o *go3mf.Object) bool {
	var sc slicedCarrier
	return o.ExtAttr(&sc) && sc.IsSliced()
}

// uuidCarrier is satisfied by every production-extension *Attr type,
// letting the UUID pass read them without importing the production
// package.
type uuidCarrier interface{ ProductionUUID() string }

// runPostParse drives every registered extension's optional whole-model
// post-decode pass (e.g. beamlattice resolving a clippingmesh reference)
// before any validator pass runs.
func (r *Reader) runPostParse() error {
	reg := r.cfg.Registry()
	var errs error
	for _, ns := range reg.Namespaces() {
		h, _ := reg.Lookup(ns)
		if pp, ok := h.Spec.(spec.PostParseSpec); ok {
			errs = specerr.Append(errs, pp.PostParse(r.Model))
		}
	}
	return errs
}

// validateStructuralRequired enforces rule 1: the root model must declare
// at least one object (locally or via a production external reference) and
// at least one build item, unless the part is external-resource-only (no
// local objects, no build items, and it carries at least one asset — the
// common shape of a slice-stack-only production attachment).
func (r *Reader) validateStructuralRequired() error {
	res := &r.Model.Resources
	externalOnly := len(res.Objects) == 0 && len(r.Model.Build.Items) == 0 && len(res.Assets) > 0
	if externalOnly {
		return nil
	}
	if len(res.Objects) == 0 {
		anyExternal := false
		for _, it := range r.Model.Build.Items {
			if p, ok := extItemPath(it); ok && p != "" {
				anyExternal = true
				break
			}
		}
		if !anyExternal {
			return specerr.ErrEmptyResourceProps
		}
	}
	if len(r.Model.Build.Items) == 0 {
		return specerr.InvalidModel("build must contain at least one item")
	}
	return nil
}

// validateResourceIDs enforces rules 2/21: object ids are mutually unique
// among objects and asset ids mutually unique among assets, within one
// part, but the two id spaces are disjoint from each other.
func (r *Reader) validateResourceIDs() error {
	var errs error
	for _, p := range r.parts() {
		seenObj := make(map[uint32]bool, len(p.resources.Objects))
		for i, o := range p.resources.Objects {
			if o.ID == 0 {
				errs = specerr.Append(errs, wrapObj(p.path, o, i, specerr.ErrMissingID))
				continue
			}
			if seenObj[o.ID] {
				errs = specerr.Append(errs, wrapObj(p.path, o, i, specerr.ErrDuplicatedID))
			}
			seenObj[o.ID] = true
		}
		seenAsset := make(map[uint32]bool, len(p.resources.Assets))
		for i, a := range p.resources.Assets {
			id := a.Identify()
			if seenAsset[id] {
				errs = specerr.Append(errs, specerr.WrapPath(specerr.WrapIndex(specerr.ErrDuplicatedID, a, i), p.path))
			}
			seenAsset[id] = true
		}
	}
	return errs
}

// validateMeshGeometry enforces rule 3: a mesh with triangles must have
// vertices, every triangle index must be in bounds and reference three
// distinct vertices, and no edge may be shared by more than two triangles
// (manifoldness).
func (r *Reader) validateMeshGeometry() error {
	var errs error
	for _, p := range r.parts() {
		for oi, o := range p.resources.Objects {
			if o.Mesh == nil {
				continue
			}
			m := o.Mesh
			n := len(m.Vertices)
			if len(m.Triangles) > 0 && n == 0 {
				errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.InvalidModel("mesh has triangles but no vertices")))
				continue
			}
			outOfBounds := false
			for ti, t := range m.Triangles {
				if int(t.Indices[0]) >= n || int(t.Indices[1]) >= n || int(t.Indices[2]) >= n {
					errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.WrapIndex(specerr.ErrIndexOutOfBounds, t, ti)))
					outOfBounds = true
					continue
				}
				if t.Indices[0] == t.Indices[1] || t.Indices[1] == t.Indices[2] || t.Indices[0] == t.Indices[2] {
					errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.WrapIndex(specerr.InvalidModel("triangle must reference three distinct vertices"), t, ti)))
				}
			}
			if outOfBounds {
				continue
			}
			for e, c := range mesh.EdgeCounts(m) {
				if c > 2 {
					errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.InvalidModel("edge (%d,%d) is shared by %d triangles, at most 2 allowed", e.Lo, e.Hi, c)))
				}
			}
		}
	}
	return errs
}

// validateBuildReferences enforces rule 4: every build item's objectid
// resolves to an object in the root model, unless the item carries a
// production external path.
func (r *Reader) validateBuildReferences() error {
	var errs error
	root := r.Model.PathOrDefault()
	for i, it := range r.Model.Build.Items {
		if p, ok := extItemPath(it); ok && p != "" {
			continue
		}
		if _, ok := r.Model.FindObject(root, it.ObjectID); !ok {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrMissingResource, it, i))
		}
	}
	return errs
}

// hasAnyPropertyGroup reports whether the model declares at least one
// PropertyGroup asset anywhere, the exemption rule 5 grants a dangling pid
// reference when no property groups exist at all.
func (r *Reader) hasAnyPropertyGroup() bool {
	for _, p := range r.parts() {
		for _, a := range p.resources.Assets {
			if _, ok := a.(go3mf.PropertyGroup); ok {
				return true
			}
		}
	}
	return false
}

// validatePropertyReferences enforces rule 5/22: an object's pid/pindex and
// basematerialid must resolve and stay in bounds, and every triangle's
// effective pid/per-vertex pindex must too; a mesh must not mix
// pid-carrying and pid-less triangles unless the object declares a default
// pid.
func (r *Reader) validatePropertyReferences() error {
	var errs error
	anyPG := r.hasAnyPropertyGroup()
	for _, p := range r.parts() {
		for oi, o := range p.resources.Objects {
			if o.HasDefaultPID {
				asset, ok := r.Model.FindAsset(p.path, o.DefaultPID)
				if !ok {
					if anyPG {
						errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.ErrMissingResource))
					}
				} else if pg, ok := asset.(go3mf.PropertyGroup); ok && int(o.DefaultPIndex) >= pg.Len() {
					errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.ErrIndexOutOfBounds))
				}
			}
			if o.HasBaseMaterialID {
				asset, ok := r.Model.FindAsset(p.path, o.BaseMaterialID)
				if !ok {
					errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.ErrMissingResource))
				} else if _, ok := asset.(*go3mf.BaseMaterials); !ok {
					errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.InvalidModel("basematerialid %d does not reference a basematerials group", o.BaseMaterialID)))
				}
			}
			if o.Mesh != nil {
				errs = specerr.Append(errs, r.validateTriangleProperties(p.path, o, oi))
			}
		}
	}
	return errs
}

func (r *Reader) validateTriangleProperties(path string, o *go3mf.Object, oi int) error {
	var errs error
	var withPID, withoutPID int
	for ti, t := range o.Mesh.Triangles {
		effPID, hasPID := t.PID, t.HasPID
		if !hasPID && o.HasDefaultPID {
			effPID, hasPID = o.DefaultPID, true
		}
		if hasPID {
			withPID++
		} else {
			withoutPID++
		}

		anyP := t.HasP[0] || t.HasP[1] || t.HasP[2]
		if anyP && !hasPID {
			errs = specerr.Append(errs, wrapObj(path, o, oi, specerr.WrapIndex(specerr.InvalidModel("triangle with per-vertex property indices requires a pid on the triangle or object"), t, ti)))
			continue
		}
		if !hasPID {
			continue
		}
		asset, ok := r.Model.FindAsset(path, effPID)
		if !ok {
			errs = specerr.Append(errs, wrapObj(path, o, oi, specerr.WrapIndex(specerr.ErrMissingResource, t, ti)))
			continue
		}
		pg, ok := asset.(go3mf.PropertyGroup)
		if !ok {
			continue
		}
		for i := 0; i < 3; i++ {
			if t.HasP[i] && int(t.PIndices[i]) >= pg.Len() {
				errs = specerr.Append(errs, wrapObj(path, o, oi, specerr.WrapIndex(specerr.ErrIndexOutOfBounds, t, ti)))
			}
		}
	}
	if withPID > 0 && withoutPID > 0 && !o.HasDefaultPID {
		errs = specerr.Append(errs, wrapObj(path, o, oi, specerr.InvalidModel("mesh mixes triangles with and without a material pid; object must declare a default pid")))
	}
	return errs
}

// validateComponents enforces rule 8: every component objectid resolves
// locally unless it carries a production external path, components form no
// cycle, and a non-root part must not itself declare an externally-pathed
// component (chaining production references across more than one file is
// forbidden). An external path's own resolution (including the "points at
// an encrypted part" exemption) is checked by the production extension's
// ValidateSpec in validateExtensions, not here.
func (r *Reader) validateComponents() error {
	var errs error
	root := r.Model.PathOrDefault()
	for _, p := range r.parts() {
		for oi, o := range p.resources.Objects {
			for ci, c := range o.Components {
				if ext, ok := extComponentPath(c); ok && ext != "" {
					if p.path != root {
						errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.WrapIndex(specerr.InvalidModel("a non-root model part must not declare a component with an external path"), c, ci)))
					}
					continue
				}
				if _, ok := r.Model.FindObject(p.path, c.ObjectID); !ok {
					errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.WrapIndex(specerr.ErrMissingResource, c, ci)))
				}
			}
			visiting := make(map[uint32]bool)
			if cycle := r.findComponentCycle(p.path, o.ID, visiting, nil); cycle != nil {
				errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.InvalidModel("circular component reference: %s", strings.Join(cycle, " -> "))))
			}
		}
	}
	return errs
}

func (r *Reader) findComponentCycle(path string, id uint32, visiting map[uint32]bool, chain []string) []string {
	if visiting[id] {
		return append(append([]string{}, chain...), fmt.Sprint(id))
	}
	obj, ok := r.Model.FindObject(path, id)
	if !ok {
		return nil
	}
	visiting[id] = true
	chain = append(chain, fmt.Sprint(id))
	defer delete(visiting, id)
	for _, c := range obj.Components {
		if p, ok := extComponentPath(c); ok && p != "" {
			continue
		}
		if cyc := r.findComponentCycle(path, c.ObjectID, visiting, chain); cyc != nil {
			return cyc
		}
	}
	return nil
}

// validateExtensions folds rules 6, 7, 9, 10, 11, 12, 13, 15 and 16 into a
// single generic dispatch: every registered extension handler's
// ValidateSpec.Validate is invoked once per decoded asset, object, build,
// item and component across the root model and every child part, and every
// custom extension's Validate callback runs once over the whole Model.
func (r *Reader) validateExtensions() error {
	reg := r.cfg.Registry()
	var errs error
	for _, ns := range reg.Namespaces() {
		h, _ := reg.Lookup(ns)
		vs, ok := h.Spec.(spec.ValidateSpec)
		if !ok {
			continue
		}
		errs = specerr.Append(errs, r.validateWithSpec(vs))
	}
	for _, cv := range reg.CustomValidators() {
		errs = specerr.Append(errs, cv(r.Model))
	}
	return errs
}

func (r *Reader) validateWithSpec(vs spec.ValidateSpec) error {
	var errs error
	for _, p := range r.parts() {
		for _, a := range p.resources.Assets {
			errs = specerr.Append(errs, specerr.WrapPath(vs.Validate(r.Model, p.path, a), p.path))
		}
		for _, o := range p.resources.Objects {
			errs = specerr.Append(errs, specerr.WrapPath(vs.Validate(r.Model, p.path, o), p.path))
			for _, c := range o.Components {
				errs = specerr.Append(errs, specerr.WrapPath(vs.Validate(r.Model, p.path, c), p.path))
			}
		}
	}
	root := r.Model.PathOrDefault()
	errs = specerr.Append(errs, vs.Validate(r.Model, root, &r.Model.Build))
	for _, it := range r.Model.Build.Items {
		errs = specerr.Append(errs, vs.Validate(r.Model, root, it))
	}
	return errs
}

// validateTexturePaths enforces rule 14: a texture-relationship attachment
// must carry a non-empty, backslash-free, null-free, ASCII-only path and a
// PNG or JPEG content type.
func (r *Reader) validateTexturePaths() error {
	var errs error
	for i, a := range r.Model.Attachments {
		if !a.IsTexture {
			continue
		}
		if a.Path == "" {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.NewMissingFieldError("path"), a, i))
			continue
		}
		if strings.ContainsRune(a.Path, 0) {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("texture path %q must not contain a null byte", a.Path), a, i))
		}
		if strings.ContainsRune(a.Path, '\\') {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("texture path %q must not contain a backslash", a.Path), a, i))
		}
		for _, c := range a.Path {
			if c > 127 {
				errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("texture path %q must be ASCII-only", a.Path), a, i))
				break
			}
		}
		if a.ContentType != "image/png" && a.ContentType != "image/jpeg" {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidModel("texture content type %q must be image/png or image/jpeg", a.ContentType), a, i))
		}
	}
	return errs
}

// validateProductionUUIDs enforces rules 17/26: every production UUID
// (build, item, object, component) must be globally unique across the
// whole package. Format is already enforced per-entity by the production
// extension's own ValidateSpec in validateExtensions.
func (r *Reader) validateProductionUUIDs() error {
	seen := make(map[string]bool)
	var errs error
	check := func(uuid string) {
		if uuid == "" {
			return
		}
		if seen[uuid] {
			errs = specerr.Append(errs, specerr.ErrUUIDNotUnique)
		}
		seen[uuid] = true
	}
	var bc uuidCarrier
	if r.Model.Build.ExtAttr(&bc) {
		check(bc.ProductionUUID())
	}
	for _, it := range r.Model.Build.Items {
		var c uuidCarrier
		if it.ExtAttr(&c) {
			check(c.ProductionUUID())
		}
	}
	for _, p := range r.parts() {
		for _, o := range p.resources.Objects {
			var c uuidCarrier
			if o.ExtAttr(&c) {
				check(c.ProductionUUID())
			}
			for _, comp := range o.Components {
				var cc uuidCarrier
				if comp.ExtAttr(&cc) {
					check(cc.ProductionUUID())
				}
			}
		}
	}
	return errs
}

// extAttrHolder is satisfied by every core type that carries extension
// attributes (*Build, *Item, *Object, *Component), letting
// validateProductionRequired read a production UUID generically.
type extAttrHolder interface{ ExtAttr(target interface{}) bool }

func productionUUID(h extAttrHolder) string {
	var c uuidCarrier
	if !h.ExtAttr(&c) {
		return ""
	}
	return c.ProductionUUID()
}

// validateProductionRequired enforces spec.md §4.5.2's requiredness rule:
// when the package's required extensions include production, a build (if
// it has any items), every item, and every object must carry a p:UUID.
// Unlike validateProductionUUIDs, which only dedupes UUIDs that exist, this
// walks every entity regardless of whether the production decorator was
// even attached (no p:UUID or p:path attribute at all means no decorator,
// which would otherwise make a missing UUID invisible to per-element
// extension validation).
func (r *Reader) validateProductionRequired() error {
	if !r.Model.RequiredExtensions[go3mf.ExtProduction.Namespace()] {
		return nil
	}
	var errs error
	missing := func(err error) { errs = specerr.Append(errs, err) }

	if len(r.Model.Build.Items) > 0 && productionUUID(&r.Model.Build) == "" {
		missing(specerr.InvalidModel("required extension production is declared but build is missing a p:UUID"))
	}
	for i, it := range r.Model.Build.Items {
		if productionUUID(it) == "" {
			missing(specerr.WrapIndex(specerr.InvalidModel("required extension production is declared but build item is missing a p:UUID"), it, i))
		}
	}
	for _, p := range r.parts() {
		for oi, o := range p.resources.Objects {
			if productionUUID(o) == "" {
				missing(wrapObj(p.path, o, oi, specerr.InvalidModel("required extension production is declared but object is missing a p:UUID")))
			}
		}
	}
	return errs
}

// validateProductionPaths enforces rule 18: a production external path
// must not reach into the OPC package's own relationship or
// content-types parts.
func (r *Reader) validateProductionPaths() error {
	var errs error
	check := func(path string) error {
		if path == "" {
			return nil
		}
		lower := strings.ToLower(path)
		if strings.Contains(lower, "/_rels/") || strings.HasSuffix(lower, "[content_types].xml") {
			return specerr.InvalidModel("production path %q must not reference OPC package internals", path)
		}
		return nil
	}
	for i, it := range r.Model.Build.Items {
		if p, ok := extItemPath(it); ok {
			errs = specerr.Append(errs, specerr.WrapIndex(check(p), it, i))
		}
	}
	for _, p := range r.parts() {
		for oi, o := range p.resources.Objects {
			for ci, c := range o.Components {
				if cp, ok := extComponentPath(c); ok {
					errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.WrapIndex(check(cp), c, ci)))
				}
			}
		}
	}
	return errs
}

// validateTransforms enforces rule 19: a non-sliced object reached through
// an item or component transform must have a positive transform
// determinant; a determinant within 1e-10 of zero is fatal regardless of
// sign.
func (r *Reader) validateTransforms() error {
	var errs error
	root := r.Model.PathOrDefault()
	for i, it := range r.Model.Build.Items {
		if p, ok := extItemPath(it); ok && p != "" {
			continue
		}
		errs = specerr.Append(errs, specerr.WrapIndex(r.validateTransform(root, it.Transform, it.ObjectID), it, i))
	}
	for _, p := range r.parts() {
		for oi, o := range p.resources.Objects {
			for ci, c := range o.Components {
				if ext, ok := extComponentPath(c); ok && ext != "" {
					continue
				}
				errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.WrapIndex(r.validateTransform(p.path, c.Transform, c.ObjectID), c, ci)))
			}
		}
	}
	return errs
}

func (r *Reader) validateTransform(path string, t go3mf.Matrix, objectID uint32) error {
	obj, ok := r.Model.FindObject(path, objectID)
	if !ok || isSliced(obj) {
		return nil
	}
	det := t.Det3()
	if math.Abs(det) < 1e-10 {
		return specerr.InvalidModel("transform determinant %.3g is too close to zero", det)
	}
	if det <= 0 {
		return specerr.InvalidModel("transform must have a positive determinant for a non-sliced object, got %.3g", det)
	}
	return nil
}

// validateResourceOrdering enforces the second half of rule 20: within a
// part, objects and property-group assets must not interleave in parse
// order — either all property resources precede all objects, or all
// objects precede all property resources.
func (r *Reader) validateResourceOrdering() error {
	var errs error
	type entry struct {
		order    int
		isObject bool
	}
	for _, p := range r.parts() {
		entries := make([]entry, 0, len(p.resources.Objects)+len(p.resources.Assets))
		for _, o := range p.resources.Objects {
			entries = append(entries, entry{o.Order, true})
		}
		for _, a := range p.resources.Assets {
			if _, ok := a.(go3mf.PropertyGroup); !ok {
				continue
			}
			entries = append(entries, entry{a.ParseOrder(), false})
		}
		sort.Slice(entries, func(i, j int) bool { return entries[i].order < entries[j].order })
		transitions := 0
		for i := 1; i < len(entries); i++ {
			if entries[i].isObject != entries[i-1].isObject {
				transitions++
			}
		}
		if transitions > 1 {
			errs = specerr.Append(errs, specerr.WrapPath(specerr.InvalidModel("objects and property resources must not be interleaved: either all property resources must precede all objects, or vice versa"), p.path))
		}
	}
	return errs
}

// validateMeshVolumeSign enforces rule 23: a non-sliced mesh's signed
// volume must not be negative beyond tolerance.
func (r *Reader) validateMeshVolumeSign() error {
	var errs error
	for _, p := range r.parts() {
		for oi, o := range p.resources.Objects {
			if o.Mesh == nil || isSliced(o) {
				continue
			}
			if vol := mesh.SignedVolume(o.Mesh); vol < -1e-10 {
				errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.InvalidModel("mesh signed volume must be non-negative within tolerance, got %.6g", vol)))
			}
		}
	}
	return errs
}

// validateComponentOnlyProperties enforces rule 25: an object whose shape
// is given entirely by components must not also declare a default pid.
func (r *Reader) validateComponentOnlyProperties() error {
	var errs error
	for _, p := range r.parts() {
		for oi, o := range p.resources.Objects {
			if o.Mesh == nil && !o.HasExtensionShape && len(o.Components) > 0 && o.HasDefaultPID {
				errs = specerr.Append(errs, wrapObj(p.path, o, oi, specerr.InvalidModel("an object whose shape is given by components alone must not declare pid/pindex")))
			}
		}
	}
	return errs
}

// validateStubs documents rule 24's thumbnail/vertex-order/JPEG-colorspace/
// DTD checks: each is already enforced upstream of this pass (the OPC
// layer rejects a malformed thumbnail relationship, rejectDOCTYPE rejects
// a DOCTYPE before the token loop starts, and vertex order / JPEG
// colorspace are rendering concerns outside this module's scope), so this
// pass is an intentional no-op kept for rule-count parity with spec.md.
func (r *Reader) validateStubs() error { return nil }
