package opcreader

import (
	"encoding/xml"
	"io"
	"strings"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
)

// parseRelationships decodes a *.rels document into its Relationship
// elements in document order. It performs no validation; validateRelationships
// applies the structural rules from spec.md §4.2.3.
func parseRelationships(r io.Reader) ([]go3mf.Relationship, error) {
	var rels []go3mf.Relationship
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
		if !ok || !strings.EqualFold(start.Name.Local, "Relationship") {
			continue
		}
		var rel go3mf.Relationship
		for _, a := range start.Attr {
			switch {
			case strings.EqualFold(a.Name.Local, "Id"):
				rel.ID = a.Value
			case strings.EqualFold(a.Name.Local, "Type"):
				rel.Type = a.Value
			case strings.EqualFold(a.Name.Local, "Target"):
				rel.Target = a.Value
			}
		}
		rels = append(rels, rel)
	}
	return rels, nil
}

// relsValidationOptions controls the rules that only apply to specific
// *.rels files: the root package relationships file, and a root model
// part's own sibling relationships file.
type relsValidationOptions struct {
	isRoot          bool
	isModelSiblings bool
}

// validateRelationships applies spec.md §4.2.3's per-file rules: required
// Id/Target/Type, duplicate/malformed Ids, valid part-name Targets that
// resolve to an existing part, duplicate (Target,Type) pairs, the root
// digit-prefixed-Id rule, and the model-sibling texture-relationship rule.
func validateRelationships(relsPath string, rels []go3mf.Relationship, opts relsValidationOptions, exists func(string) bool) error {
	var errs error
	seenIDs := make(map[string]bool)
	seenTargetType := make(map[[2]string]bool)

	for i, rel := range rels {
		if rel.ID == "" {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidFormat("relationship in %s is missing a required Id attribute", relsPath), rel, i))
			continue
		}
		if seenIDs[rel.ID] {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidFormat("duplicate relationship id %q in %s", rel.ID, relsPath), rel, i))
		}
		seenIDs[rel.ID] = true

		if opts.isRoot {
			if c := rel.ID[0]; c >= '0' && c <= '9' {
				errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidFormat("relationship id %q in the root .rels must not start with a digit", rel.ID), rel, i))
			}
		}

		if rel.Target == "" || rel.Type == "" {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidFormat("relationship %q in %s is missing a required Target or Type attribute", rel.ID, relsPath), rel, i))
			continue
		}

		if err := validatePartName(rel.Target); err != nil {
			errs = specerr.Append(errs, specerr.WrapIndex(err, rel, i))
			continue
		}

		key := [2]string{rel.Target, rel.Type}
		if seenTargetType[key] {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrOPCDuplicateRel, rel, i))
		}
		seenTargetType[key] = true

		if opts.isModelSiblings && rel.Type == go3mf.RelTypeModel3D && isImageTarget(rel.Target) {
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.InvalidFormat("relationship to image %q must use the texture relationship type, not %s", rel.Target, go3mf.RelTypeModel3D), rel, i))
		}

		lookup := normalizePartPath(rel.Target)
		if !exists(lookup) {
			if decoded, derr := decodePartPath(lookup); derr == nil && decoded != lookup && exists(decoded) {
				continue
			}
			errs = specerr.Append(errs, specerr.WrapIndex(specerr.ErrOPCPartNotFound, rel, i))
		}
	}
	return errs
}

// relationshipsByType returns every relationship among rels whose Type
// equals relType, in document order.
func relationshipsByType(rels []go3mf.Relationship, relType string) []go3mf.Relationship {
	var out []go3mf.Relationship
	for _, r := range rels {
		if r.Type == relType {
			out = append(out, r)
		}
	}
	return out
}
