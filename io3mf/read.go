package io3mf

import (
	"bytes"
	"encoding/xml"
	"io"
	"os"
	"sort"
	"strings"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/internal/opcreader"
	"github.com/3mf-go/go3mf/securecontent"
)

// Reader decodes a 3MF package into an in-memory Model (spec.md §4.3/§5,
// components C4/C9): it owns the validated OPC package and the Model it
// produced, plus any non-fatal warnings collected while decoding.
type Reader struct {
	Model    *go3mf.Model
	Warnings []error

	pkg *opcreader.Reader
	cfg go3mf.Configuration
}

// NewReader opens r as a size-byte 3MF package and decodes its root model
// part and every part reachable from it through a production-extension
// attachment. cfg controls which extensions are accepted; the zero
// Configuration supports only the core specification.
func NewReader(r io.ReaderAt, size int64, cfg go3mf.Configuration) (*Reader, error) {
	pkg, err := opcreader.New(r, size)
	if err != nil {
		return nil, err
	}
	rd := &Reader{pkg: pkg, cfg: cfg}
	if err := rd.decode(); err != nil {
		return nil, err
	}
	return rd, nil
}

// ReadCloser wraps a Reader backed by an *os.File that must be closed when
// done.
type ReadCloser struct {
	f *os.File
	*Reader
}

// OpenReader opens the 3MF file named name and decodes it with cfg.
func OpenReader(name string, cfg go3mf.Configuration) (*ReadCloser, error) {
	f, err := os.Open(name)
	if err != nil {
		return nil, specerr.IO(err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, specerr.IO(err)
	}
	r, err := NewReader(f, fi.Size(), cfg)
	if err != nil {
		f.Close()
		return nil, err
	}
	return &ReadCloser{f: f, Reader: r}, nil
}

// Close closes the underlying file.
func (rc *ReadCloser) Close() error { return rc.f.Close() }

func (r *Reader) decode() error {
	rootPath := r.pkg.RootModelPath()
	model := &go3mf.Model{Path: rootPath}

	if err := r.decodePart(rootPath, true, model); err != nil {
		return err
	}
	r.Model = model

	if err := r.loadSecureContent(); err != nil {
		return err
	}
	if err := r.decodeProductionAttachments(); err != nil {
		return err
	}
	r.extractThumbnail()
	r.extractAttachments()
	if err := r.validate(); err != nil {
		return err
	}

	model.RootRelationships = r.pkg.Relationships("")
	model.Relationships = r.pkg.Relationships(trimSlash(rootPath))
	return nil
}

// decodePart streams partPath's XML into model (the root Model, or a
// throwaway Model used only to hold a ChildModel's Resources) via the
// shared core/extension decoder stack (decode.go/model.go).
func (r *Reader) decodePart(partPath string, isRoot bool, model *go3mf.Model) error {
	data, err := r.pkg.ReadBytes(trimSlash(partPath))
	if err != nil {
		return err
	}
	return r.decodePartBytes(partPath, isRoot, data, model)
}

// decodePartBytes streams already-in-memory XML (either a part read
// straight off the package, or the plaintext recovered from decrypting an
// encrypted production attachment) into model.
func (r *Reader) decodePartBytes(partPath string, isRoot bool, data []byte, model *go3mf.Model) error {
	if err := rejectDOCTYPE(data); err != nil {
		return err
	}
	x := xml.NewDecoder(bytes.NewReader(data))
	x.Strict = true
	f := &modelFile{
		path:       partPath,
		isRoot:     isRoot,
		cfg:        r.cfg,
		reg:        r.cfg.Registry(),
		namespaces: make(map[string]string),
	}
	if err := decodeModel(x, f, model); err != nil {
		return err
	}
	r.Warnings = append(r.Warnings, f.warnings...)
	return nil
}

// rejectDOCTYPE implements spec.md's XXE-hardening rule: a DOCTYPE anywhere
// in a model part's byte stream is rejected outright, before the token
// loop even starts, matching the teacher's stance of never resolving
// external entities.
func rejectDOCTYPE(data []byte) error {
	if bytes.Contains(data, []byte("<!DOCTYPE")) {
		return specerr.ErrDOCTYPENotAllowed
	}
	return nil
}

// decodeProductionAttachments walks every production-extension path
// reference reachable from the root model (object, item, component) and
// decodes each referenced part exactly once into a ChildModel (spec.md
// §4.3.2's "production attachment" non-root part).
//
// A referenced part that the package marks as an OPC encrypted part
// (spec.md §4.7) is handled specially: with no KeyProvider configured it is
// recorded but left undecoded (Resources stays empty, Encrypted is set) and
// deferred rather than failing the whole parse; with a KeyProvider
// configured its ciphertext is decrypted and the plaintext decoded as usual.
func (r *Reader) decodeProductionAttachments() error {
	paths := productionPathsIn(r.Model)
	if len(paths) == 0 {
		return nil
	}
	r.Model.Childs = make(map[string]*go3mf.ChildModel, len(paths))

	seen := make(map[string]bool)
	queue := paths
	var errs error
	for len(queue) > 0 {
		path := queue[0]
		queue = queue[1:]
		if seen[path] || path == r.Model.Path {
			continue
		}
		seen[path] = true

		trimmed := trimSlash(path)
		if r.pkg.HasEncryptedFileRelationship(trimmed) {
			child, ok, err := r.decodeEncryptedAttachment(path, trimmed)
			if err != nil {
				errs = specerr.Append(errs, specerr.WrapPath(err, path))
				continue
			}
			r.Model.Childs[path] = &go3mf.ChildModel{
				Path:          path,
				Relationships: r.pkg.Relationships(trimmed),
				Encrypted:     true,
			}
			if ok {
				r.Model.Childs[path].Resources = child.Resources
				queue = append(queue, productionPathsIn(child)...)
			}
			continue
		}

		child := &go3mf.Model{}
		if err := r.decodePart(path, false, child); err != nil {
			errs = specerr.Append(errs, specerr.WrapPath(err, path))
			continue
		}
		r.Model.Childs[path] = &go3mf.ChildModel{
			Path:          path,
			Resources:     child.Resources,
			Relationships: r.pkg.Relationships(trimmed),
		}
		queue = append(queue, productionPathsIn(child)...)
	}
	return errs
}

// decodeEncryptedAttachment decrypts and decodes the encrypted part at path
// when a KeyProvider is configured, returning ok=false (no error) when none
// is, so the part is deferred rather than treated as a plaintext model.
func (r *Reader) decodeEncryptedAttachment(path, trimmed string) (*go3mf.Model, bool, error) {
	kp := r.cfg.KeyProvider()
	if kp == nil {
		return nil, false, nil
	}
	ciphertext, err := r.pkg.ReadBytes(trimmed)
	if err != nil {
		return nil, false, err
	}
	plaintext, err := kp.Decrypt(path, ciphertext, r.Model.SecureContent)
	if err != nil {
		return nil, false, specerr.InvalidSecureContent("decrypting %q: %v", path, err)
	}
	child := &go3mf.Model{}
	if err := r.decodePartBytes(path, false, plaintext, child); err != nil {
		return nil, false, err
	}
	return child, true, nil
}

func productionPathsIn(m *go3mf.Model) []string {
	var paths []string
	for _, o := range m.Resources.Objects {
		for _, c := range o.Components {
			if p, ok := extComponentPath(c); ok && p != "" {
				paths = append(paths, p)
			}
		}
	}
	for _, it := range m.Build.Items {
		if p, ok := extItemPath(it); ok && p != "" {
			paths = append(paths, p)
		}
	}
	return paths
}

// pathCarrier is satisfied by the production extension's ItemAttr and
// ComponentAttr types (the only two that carry an external path), letting
// this package resolve a production attachment path off AnyAttr without
// importing the production package (which itself may grow to need io3mf's
// decoding primitives).
type pathCarrier interface{ ObjectPath() string }

func extItemPath(it *go3mf.Item) (string, bool) {
	var pc pathCarrier
	if it.ExtAttr(&pc) {
		return pc.ObjectPath(), true
	}
	return "", false
}

func extComponentPath(c *go3mf.Component) (string, bool) {
	var pc pathCarrier
	if c.ExtAttr(&pc) {
		return pc.ObjectPath(), true
	}
	return "", false
}

// extractThumbnail resolves the package-level thumbnail relationship (if
// any) and records its path/content type on the Model; it does not eagerly
// load the bytes (see ReadThumbnail).
func (r *Reader) extractThumbnail() {
	target, ok := r.pkg.RelationshipTarget("", go3mf.RelTypeThumbnail)
	if !ok {
		return
	}
	r.Model.Thumbnail = "/" + trimSlash(target)
	if ct, ok := r.pkg.ContentType(target); ok {
		r.Model.ThumbnailType = ct
	}
}

// extractAttachments collects every part reachable through a texture or
// must-preserve relationship from the root model or any child model,
// loading its bytes into Model.Attachments (spec.md §4.2's "exposed
// capabilities": attachment extraction).
func (r *Reader) extractAttachments() {
	owners := []string{trimSlash(r.Model.Path)}
	for path := range r.Model.Childs {
		owners = append(owners, trimSlash(path))
	}
	sort.Strings(owners)

	seen := make(map[string]bool)
	for _, owner := range owners {
		for _, rel := range r.pkg.Relationships(owner) {
			if rel.Type != go3mf.RelTypeTexture3D && rel.Type != go3mf.RelTypeMustPreserve {
				continue
			}
			path := trimSlash(rel.Target)
			if seen[path] {
				continue
			}
			seen[path] = true
			data, err := r.pkg.ReadBytes(path)
			if err != nil {
				r.Warnings = append(r.Warnings, err)
				continue
			}
			ct, _ := r.pkg.ContentType(path)
			r.Model.Attachments = append(r.Model.Attachments, go3mf.Attachment{
				Path:        "/" + path,
				ContentType: ct,
				Data:        data,
				IsTexture:   rel.Type == go3mf.RelTypeTexture3D,
			})
		}
	}
}

// loadSecureContent discovers and decodes the keystore part, if any
// (spec.md §4.4/§4.2): a fallback-discovered path is held to the same
// EPX-2606 relationship+content-type validation as an explicitly-related
// one.
func (r *Reader) loadSecureContent() error {
	path, found := r.pkg.DiscoverKeystorePart()
	if !found {
		return nil
	}
	if err := r.pkg.ValidateKeystorePart(path); err != nil {
		return err
	}
	data, err := r.pkg.ReadBytes(path)
	if err != nil {
		return err
	}
	info, err := securecontent.Decode(bytes.NewReader(data))
	if err != nil {
		return err
	}
	if err := securecontent.Validate(info, r.pkg); err != nil {
		return err
	}
	for _, g := range info.ResourceGroups {
		for _, rd := range g.ResourceDatas {
			info.EncryptedParts = append(info.EncryptedParts, rd.Path)
		}
	}
	r.Model.SecureContent = info
	return nil
}

// Parse decodes a size-byte 3MF package from r under cfg and returns its
// Model (spec.md §6.4's "parse(reader, config) -> Model | Error"), a thin
// free-function wrapper around NewReader for callers that only need the
// decoded Model and not the package handle Reader keeps alive for
// ReadThumbnail.
func Parse(r io.ReaderAt, size int64, cfg go3mf.Configuration) (*go3mf.Model, error) {
	rd, err := NewReader(r, size, cfg)
	if err != nil {
		return nil, err
	}
	return rd.Model, nil
}

// ReadThumbnail opens r as a size-byte 3MF package and returns its
// package-level thumbnail's bytes, if it declared one (spec.md §6.4's
// "read_thumbnail(reader) -> Option<bytes> | Error"). Prefer
// Reader.ReadThumbnail when a Model has already been parsed from the same
// package, to avoid decoding it twice.
func ReadThumbnail(r io.ReaderAt, size int64, cfg go3mf.Configuration) ([]byte, bool, error) {
	rd, err := NewReader(r, size, cfg)
	if err != nil {
		return nil, false, err
	}
	return rd.ReadThumbnail()
}

// ReadThumbnail returns the package-level thumbnail's bytes, if the
// package declared one.
func (r *Reader) ReadThumbnail() ([]byte, bool, error) {
	if r.Model.Thumbnail == "" {
		return nil, false, nil
	}
	data, err := r.pkg.ReadBytes(trimSlash(r.Model.Thumbnail))
	if err != nil {
		return nil, true, err
	}
	return data, true, nil
}

func trimSlash(p string) string { return strings.TrimPrefix(p, "/") }
