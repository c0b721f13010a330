package opcreader

import (
	"net/url"
	"strings"
	"unicode"

	specerr "github.com/3mf-go/go3mf/errors"
)

// validatePartName checks a relationship Target against the OPC part-name
// grammar (ECMA-376 part 2, §9.1.1): no fragment or query string, no empty,
// ".", or ".." segment, no segment ending in ".", no control characters.
func validatePartName(name string) error {
	if strings.ContainsAny(name, "#?") {
		return specerr.InvalidFormat("part name %q must not contain a fragment identifier or query string", name)
	}
	for _, r := range name {
		if unicode.IsControl(r) {
			return specerr.InvalidFormat("part name %q contains a control character", name)
		}
	}
	segments := strings.Split(name, "/")
	for i, seg := range segments {
		if seg == "" {
			if i == 0 {
				continue // leading slash
			}
			return specerr.InvalidFormat("part name %q contains an empty path segment", name)
		}
		if seg == "." || seg == ".." {
			return specerr.InvalidFormat("part name %q contains a %q segment", name, seg)
		}
		if strings.HasSuffix(seg, ".") {
			return specerr.InvalidFormat("part name %q has a path segment ending in \".\"", name)
		}
	}
	return nil
}

// normalizePartPath strips the leading slash a relationship Target may
// carry, matching the convention zip entry names use internally.
func normalizePartPath(path string) string {
	return strings.TrimPrefix(path, "/")
}

// decodePartPath percent-decodes path, the fallback lookup spec.md §4.2.3
// requires when the raw Target does not resolve to an existing part.
func decodePartPath(path string) (string, error) {
	return url.PathUnescape(path)
}

func extensionOf(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return ""
	}
	return name[i+1:]
}

func ownerPart(relsPath string) string {
	const marker = "/_rels/"
	if i := strings.LastIndex(relsPath, marker); i >= 0 {
		dir := relsPath[:i]
		file := strings.TrimSuffix(relsPath[i+len(marker):], ".rels")
		if dir == "" {
			return file
		}
		return dir + "/" + file
	}
	return strings.TrimSuffix(strings.TrimPrefix(relsPath, "_rels/"), ".rels")
}

func isImageTarget(target string) bool {
	lower := strings.ToLower(target)
	return strings.HasSuffix(lower, ".png") || strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg")
}
