// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package securecontent

import (
	"testing"

	go3mf "github.com/3mf-go/go3mf"
)

type fakePackage struct {
	files         map[string]bool
	encryptedRels map[string]bool
}

func (p *fakePackage) HasFile(path string) bool                     { return p.files[path] }
func (p *fakePackage) HasEncryptedFileRelationship(path string) bool { return p.encryptedRels[path] }

func TestValidate_ok(t *testing.T) {
	info := &go3mf.SecureContentInfo{EncryptedParts: []string{"/3D/Textures/secret.png"}}
	pkg := &fakePackage{
		files:         map[string]bool{"3D/Textures/secret.png": true},
		encryptedRels: map[string]bool{"3D/Textures/secret.png": true},
	}
	if err := Validate(info, pkg); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidate_missingFile(t *testing.T) {
	info := &go3mf.SecureContentInfo{EncryptedParts: []string{"/3D/Textures/secret.png"}}
	pkg := &fakePackage{files: map[string]bool{}, encryptedRels: map[string]bool{}}
	if err := Validate(info, pkg); err == nil {
		t.Error("missing encrypted part should fail (EPX-2607)")
	}
}

func TestValidate_missingEncryptedFileRelationship(t *testing.T) {
	info := &go3mf.SecureContentInfo{EncryptedParts: []string{"/3D/Textures/secret.png"}}
	pkg := &fakePackage{
		files:         map[string]bool{"3D/Textures/secret.png": true},
		encryptedRels: map[string]bool{},
	}
	if err := Validate(info, pkg); err == nil {
		t.Error("part missing EncryptedFile relationship should fail (EPX-2606)")
	}
}
