package opcreader

import (
	"encoding/xml"
	"io"
	"strings"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
)

// relsContentType is the content type every package must declare a Default
// mapping for; without it the *.rels files themselves have no OPC content
// type and the package is malformed.
const relsContentType = "application/vnd.openxmlformats-package.relationships+xml"

// contentTypes holds the parsed [Content_Types].xml: Default entries keyed
// by lowercase extension, Override entries keyed by normalized part name.
type contentTypes struct {
	defaults  map[string]string
	overrides map[string]string
}

func parseContentTypes(r io.Reader) (*contentTypes, error) {
	ct := &contentTypes{defaults: map[string]string{}, overrides: map[string]string{}}
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, specerr.XML(err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}
		switch {
		case strings.EqualFold(start.Name.Local, "Default"):
			ext, typ := attrPair(start.Attr, "Extension", "ContentType")
			if ext == "" {
				return nil, specerr.InvalidFormat("[Content_Types].xml Default element must have a non-empty Extension attribute")
			}
			lower := strings.ToLower(ext)
			if _, dup := ct.defaults[lower]; dup {
				return nil, specerr.InvalidFormat("duplicate Default content type mapping for extension %q", ext)
			}
			if lower == "png" && typ != "image/png" {
				return nil, specerr.InvalidFormat("Default extension \"png\" must map to content type \"image/png\", got %q", typ)
			}
			ct.defaults[lower] = typ
		case strings.EqualFold(start.Name.Local, "Override"):
			part, typ := attrPair(start.Attr, "PartName", "ContentType")
			if part == "" {
				return nil, specerr.InvalidFormat("[Content_Types].xml Override element must have a non-empty PartName attribute")
			}
			key := normalizePartPath(part)
			if _, dup := ct.overrides[key]; dup {
				return nil, specerr.InvalidFormat("duplicate Override content type mapping for part %q", part)
			}
			ct.overrides[key] = typ
		}
	}
	return ct, nil
}

// validate enforces the two package-wide content-type requirements: a rels
// Default must exist, and exactly the right extensions may carry the 3D
// model content type.
func (c *contentTypes) validate() error {
	foundRels := false
	for ext, typ := range c.defaults {
		if ext == "rels" && typ == relsContentType {
			foundRels = true
		}
	}
	if !foundRels {
		return specerr.InvalidFormat("[Content_Types].xml is missing a Default entry mapping extension \"rels\" to %q", relsContentType)
	}

	foundModel := false
	for ext, typ := range c.defaults {
		if typ != go3mf.ContentType3DModel {
			continue
		}
		if ext != "model" && ext != "part" {
			return specerr.InvalidFormat("Default extension %q must not map to the 3D model content type; only \"model\" or \"part\" may", ext)
		}
		foundModel = true
	}
	for _, typ := range c.overrides {
		if typ == go3mf.ContentType3DModel {
			foundModel = true
		}
	}
	if !foundModel {
		return specerr.InvalidFormat("[Content_Types].xml has no Default or Override entry for the 3D model content type %q", go3mf.ContentType3DModel)
	}
	return nil
}

// lookup resolves the effective content type of partName: an Override
// always wins over a Default keyed by extension.
func (c *contentTypes) lookup(partName string) (string, bool) {
	if typ, ok := c.overrides[normalizePartPath(partName)]; ok {
		return typ, true
	}
	typ, ok := c.defaults[strings.ToLower(extensionOf(partName))]
	return typ, ok
}

func attrPair(attrs []xml.Attr, a, b string) (string, string) {
	var va, vb string
	for _, at := range attrs {
		switch {
		case strings.EqualFold(at.Name.Local, a):
			va = at.Value
		case strings.EqualFold(at.Name.Local, b):
			vb = at.Value
		}
	}
	return va, vb
}
