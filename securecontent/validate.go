// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package securecontent

import (
	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
)

// PackageChecker is the minimal package-awareness Validate needs: whether a
// part exists, and whether it carries an EncryptedFile-typed relationship.
// io3mf's OPC reader satisfies this once it exists (spec.md §4.2); tests
// supply a trivial in-memory implementation.
type PackageChecker interface {
	HasFile(path string) bool
	HasEncryptedFileRelationship(path string) bool
}

// Validate runs the EPX-26xx rules that need knowledge of the surrounding
// OPC package: every resourcedata path must name a part that exists
// (EPX-2607) and carries the keystore's EncryptedFile relationship
// (EPX-2606).
func Validate(info *go3mf.SecureContentInfo, pkg PackageChecker) error {
	if info == nil {
		return nil
	}
	var errs error
	for _, path := range info.EncryptedParts {
		lookup := trimLeadingSlash(path)
		if !pkg.HasFile(lookup) {
			errs = specerr.Append(errs, specerr.InvalidSecureContent("resourcedata path %q does not reference a part in the package (EPX-2607)", path))
			continue
		}
		if !pkg.HasEncryptedFileRelationship(lookup) {
			errs = specerr.Append(errs, specerr.InvalidSecureContent("resourcedata path %q is missing its EncryptedFile relationship (EPX-2606)", path))
		}
	}
	return errs
}

func trimLeadingSlash(path string) string {
	if len(path) > 0 && path[0] == '/' {
		return path[1:]
	}
	return path
}
