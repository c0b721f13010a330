// Package opcreader implements the OPC package reader (spec.md §4.2,
// component C2): it opens a 3MF byte stream as a ZIP/OPC container, parses
// [Content_Types].xml and every *.rels file, validates the package's
// structural rules up front, and discovers the root model part and the
// keystore part (if any). Everything downstream treats part lookup and
// relationship resolution as already-sound; none of the §4.2 rules are
// re-checked by later components.
package opcreader

import (
	"bytes"
	"io"
	"sort"
	"strings"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/qmuntal/opc"
)

const (
	contentTypesPath = "[Content_Types].xml"
	rootRelsPath     = "_rels/.rels"
)

// part is the minimal surface Reader needs from a package entry: opening a
// stream over its content. *opc.File satisfies it; tests supply their own.
type part interface {
	Open() (io.ReadCloser, error)
}

// Reader exposes read-only access to a validated 3MF package: part
// existence and content, relationship lookups, and the root-model/keystore
// part paths discovered during Open.
type Reader struct {
	files        map[string]part
	contentTypes *contentTypes

	rootRels      []go3mf.Relationship
	relsByPart    map[string][]go3mf.Relationship
	rootModelPath string
}

// New opens r as a ZIP/OPC container of the given size and validates its
// package structure (spec.md §4.2, steps 1-4). Validation stops at the
// first step that fails; the relationship checks accumulate every
// violation they find within their step.
func New(r io.ReaderAt, size int64) (*Reader, error) {
	raw, err := opc.NewReader(r, size)
	if err != nil {
		return nil, specerr.Zip(err)
	}

	pr := &Reader{
		files:      make(map[string]part, len(raw.Files)),
		relsByPart: make(map[string][]go3mf.Relationship),
	}
	for _, f := range raw.Files {
		pr.files[normalizePartPath(f.Name)] = f
	}
	if err := pr.validateStructure(); err != nil {
		return nil, err
	}
	return pr, nil
}

func (r *Reader) validateStructure() error {
	if !r.HasFile(contentTypesPath) {
		return specerr.MissingFile("/" + contentTypesPath)
	}
	ctBytes, err := r.ReadBytes(contentTypesPath)
	if err != nil {
		return err
	}
	ct, err := parseContentTypes(bytes.NewReader(ctBytes))
	if err != nil {
		return err
	}
	if err := ct.validate(); err != nil {
		return err
	}
	r.contentTypes = ct

	if !r.HasFile(rootRelsPath) {
		return specerr.MissingFile("/" + rootRelsPath)
	}
	rootBytes, err := r.ReadBytes(rootRelsPath)
	if err != nil {
		return err
	}
	rootRels, err := parseRelationships(bytes.NewReader(rootBytes))
	if err != nil {
		return err
	}
	if err := validateRelationships(rootRelsPath, rootRels, relsValidationOptions{isRoot: true}, r.HasFile); err != nil {
		return err
	}
	r.rootRels = rootRels
	r.relsByPart[""] = rootRels

	modelPath, err := r.discoverRootModelPath()
	if err != nil {
		return err
	}
	r.rootModelPath = modelPath

	var errs error
	for _, name := range r.sortedNames() {
		if name == rootRelsPath || !strings.HasSuffix(strings.ToLower(name), ".rels") {
			continue
		}
		owner := ownerPart(name)
		if owner != "" && !r.HasFile(owner) {
			errs = specerr.Append(errs, specerr.InvalidFormat(
				"relationship file %q references part %q which does not exist in the package", name, owner))
			continue
		}

		body, err := r.ReadBytes(name)
		if err != nil {
			errs = specerr.Append(errs, err)
			continue
		}
		rels, err := parseRelationships(bytes.NewReader(body))
		if err != nil {
			errs = specerr.Append(errs, err)
			continue
		}
		opts := relsValidationOptions{isModelSiblings: owner == normalizePartPath(modelPath)}
		if err := validateRelationships(name, rels, opts, r.HasFile); err != nil {
			errs = specerr.Append(errs, err)
		}
		r.relsByPart[owner] = rels
	}
	if errs != nil {
		return errs
	}

	return r.validateNoPartLevelThumbnail()
}

// discoverRootModelPath implements spec.md §4.2 step 4: find the root
// model relationship, reject a hidden or non-ASCII-disguised filename, and
// confirm the target exists (trying the percent-decoded form as a
// fallback).
func (r *Reader) discoverRootModelPath() (string, error) {
	var target string
	found := false
	for _, rel := range r.rootRels {
		if rel.Type == go3mf.RelTypeModel3D {
			target = rel.Target
			found = true
			break
		}
	}
	if !found {
		return "", specerr.InvalidFormat("root .rels has no relationship of type %s", go3mf.RelTypeModel3D)
	}

	filename := target
	if i := strings.LastIndexByte(target, '/'); i >= 0 {
		filename = target[i+1:]
	}
	if strings.HasPrefix(filename, ".") {
		return "", specerr.InvalidFormat("root model filename %q must not start with \".\"", filename)
	}
	if i := strings.Index(filename, "3dmodel"); i > 0 {
		prefix := filename[:i]
		if !isASCII(prefix) {
			return "", specerr.InvalidFormat("root model filename %q has a non-ASCII prefix before \"3dmodel\"", filename)
		}
	}

	lookup := normalizePartPath(target)
	if !r.HasFile(lookup) {
		decoded, err := decodePartPath(lookup)
		if err != nil || !r.HasFile(decoded) {
			return "", specerr.MissingFile(target)
		}
		lookup = decoded
	}
	return "/" + lookup, nil
}

// validateNoPartLevelThumbnail enforces that the thumbnail relationship
// type only ever appears in the package-level root .rels, never in a
// part-level sibling .rels.
func (r *Reader) validateNoPartLevelThumbnail() error {
	var errs error
	for owner, rels := range r.relsByPart {
		if owner == "" {
			continue
		}
		for i, rel := range rels {
			if rel.Type == go3mf.RelTypeThumbnail {
				errs = specerr.Append(errs, specerr.WrapIndex(
					specerr.InvalidFormat("thumbnail relationship must be declared in the root .rels, not in part %q", owner), rel, i))
			}
		}
	}
	return errs
}

// HasFile reports whether path (with or without a leading slash) names a
// part in the package.
func (r *Reader) HasFile(path string) bool {
	_, ok := r.files[normalizePartPath(path)]
	return ok
}

// Open returns a stream over the named part's content.
func (r *Reader) Open(path string) (io.ReadCloser, error) {
	f, ok := r.files[normalizePartPath(path)]
	if !ok {
		return nil, specerr.MissingFile(path)
	}
	rc, err := f.Open()
	if err != nil {
		return nil, specerr.Zip(err)
	}
	return rc, nil
}

// ReadBytes reads the entire named part into memory.
func (r *Reader) ReadBytes(path string) ([]byte, error) {
	rc, err := r.Open(path)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, specerr.IO(err)
	}
	return data, nil
}

// ReadString reads the entire named part as text.
func (r *Reader) ReadString(path string) (string, error) {
	data, err := r.ReadBytes(path)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

// PartNames enumerates every part name in the package, in a stable
// lexicographic order.
func (r *Reader) PartNames() []string {
	return r.sortedNames()
}

func (r *Reader) sortedNames() []string {
	names := make([]string, 0, len(r.files))
	for name := range r.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// RootModelPath returns the discovered root model part's path, with a
// leading slash (matching go3mf.Model.Path's convention).
func (r *Reader) RootModelPath() string { return r.rootModelPath }

// ContentType resolves path's effective OPC content type: an Override
// entry if one exists, else the Default mapping for its extension.
func (r *Reader) ContentType(path string) (string, bool) {
	return r.contentTypes.lookup(normalizePartPath(path))
}

// RelationshipTarget looks up the Target of the first relationship of type
// relType found in sourcePart's relationships ("" means the package-level
// root .rels). It is used for texture/must-preserve/production lookups
// that are restricted to a specific owning part.
func (r *Reader) RelationshipTarget(sourcePart, relType string) (string, bool) {
	rels, ok := r.relsByPart[normalizePartPath(sourcePart)]
	if !ok {
		return "", false
	}
	for _, rel := range rels {
		if rel.Type == relType {
			return rel.Target, true
		}
	}
	return "", false
}

// Relationships returns every relationship declared by sourcePart ("" for
// the package-level root .rels).
func (r *Reader) Relationships(sourcePart string) []go3mf.Relationship {
	return r.relsByPart[normalizePartPath(sourcePart)]
}

// keystoreRelSuffix and encryptedFileRelSuffix match spec.md §4.2's
// "relationship type ending in X" phrasing: the SecureContent extension's
// relationship type URIs are versioned (.../2019/04/..., .../2019/07/...),
// so matching is done on the URI's final path segment rather than a single
// hardcoded constant.
const (
	keystoreRelSuffix      = "keystore"
	encryptedFileRelSuffix = "encryptedfile"
)

func relTypeEndsWith(relType, suffix string) bool {
	return strings.HasSuffix(strings.ToLower(relType), suffix)
}

// DiscoverKeystorePart implements spec.md §4.2's keystore discovery: a
// root-relationship whose type ends in "keystore" wins; failing that, the
// two conventional fallback paths are tried. Returning ("", false) is not
// an error — most packages carry no keystore at all.
func (r *Reader) DiscoverKeystorePart() (path string, found bool) {
	for _, rel := range r.rootRels {
		if relTypeEndsWith(rel.Type, keystoreRelSuffix) {
			return normalizePartPath(rel.Target), true
		}
	}
	for _, fallback := range []string{"Secure/keystore.xml", "Secure/info.store"} {
		if r.HasFile(fallback) {
			return fallback, true
		}
	}
	return "", false
}

// ValidateKeystorePart implements EPX-2606: a discovered keystore part
// must carry both a keystore-type relationship in the root .rels and a
// content-type Override (not merely a Default).
func (r *Reader) ValidateKeystorePart(path string) error {
	normalized := normalizePartPath(path)
	hasRel := false
	for _, rel := range r.rootRels {
		if relTypeEndsWith(rel.Type, keystoreRelSuffix) && normalizePartPath(rel.Target) == normalized {
			hasRel = true
			break
		}
	}
	if !hasRel {
		return specerr.InvalidSecureContent("keystore part %q has no keystore-type relationship in the root .rels (EPX-2606)", path)
	}
	if _, ok := r.contentTypes.overrides[normalized]; !ok {
		return specerr.InvalidSecureContent("keystore part %q has no content-type Override entry (EPX-2606)", path)
	}
	return nil
}

// HasEncryptedFileRelationship reports whether any *.rels file in the
// package declares an EncryptedFile-type relationship targeting path. It
// satisfies securecontent.PackageChecker.
func (r *Reader) HasEncryptedFileRelationship(path string) bool {
	normalized := normalizePartPath(path)
	for _, rels := range r.relsByPart {
		for _, rel := range rels {
			if relTypeEndsWith(rel.Type, encryptedFileRelSuffix) && normalizePartPath(rel.Target) == normalized {
				return true
			}
		}
	}
	return false
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] > 127 {
			return false
		}
	}
	return true
}
