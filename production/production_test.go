// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package production

import (
	"testing"

	go3mf "github.com/3mf-go/go3mf"
)

func TestItemAttr_ObjectPath(t *testing.T) {
	tests := []struct {
		name string
		p    *ItemAttr
		want string
	}{
		{"empty", new(ItemAttr), ""},
		{"path", &ItemAttr{Path: "/a.model"}, "/a.model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.ObjectPath(); got != tt.want {
				t.Errorf("ItemAttr.ObjectPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestComponentAttr_ObjectPath(t *testing.T) {
	tests := []struct {
		name string
		p    *ComponentAttr
		want string
	}{
		{"empty", new(ComponentAttr), ""},
		{"path", &ComponentAttr{Path: "/a.model"}, "/a.model"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.ObjectPath(); got != tt.want {
				t.Errorf("ComponentAttr.ObjectPath() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestValidateUUID(t *testing.T) {
	if err := validateUUID(""); err == nil {
		t.Error("empty UUID should fail validation")
	}
	if err := validateUUID("not-a-uuid"); err == nil {
		t.Error("malformed UUID should fail validation")
	}
	if err := validateUUID("e9e25302-6428-402e-8633-cc95528d0ed3"); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidateExternalPath(t *testing.T) {
	model := &go3mf.Model{Path: "/3D/3dmodel.model"}
	model.Childs = map[string]*go3mf.ChildModel{
		"/3D/other.model": {Path: "/3D/other.model"},
	}
	model.Childs["/3D/other.model"].Resources.Objects = []*go3mf.Object{{ID: 8}}

	if err := validateExternalPath(model, "", 8); err != nil {
		t.Errorf("empty path should be valid, got %v", err)
	}
	if err := validateExternalPath(model, "/3D/3dmodel.model", 8); err == nil {
		t.Error("path pointing at own part should fail")
	}
	if err := validateExternalPath(model, "/3D/missing.model", 8); err == nil {
		t.Error("path to a nonexistent part should fail")
	}
	if err := validateExternalPath(model, "/3D/other.model", 100); err == nil {
		t.Error("path to a part missing the referenced object should fail")
	}
	if err := validateExternalPath(model, "/3D/other.model", 8); err != nil {
		t.Errorf("unexpected error = %v", err)
	}
}

func TestValidateExternalPath_encryptedPartExempt(t *testing.T) {
	model := &go3mf.Model{Path: "/3D/3dmodel.model"}
	model.Childs = map[string]*go3mf.ChildModel{
		"/3D/secret.model": {Path: "/3D/secret.model", Encrypted: true},
	}
	// The encrypted child was never decoded, so it has no resources; an
	// object id that would otherwise be "missing" must not fail here.
	if err := validateExternalPath(model, "/3D/secret.model", 8); err != nil {
		t.Errorf("reference to an encrypted part should be exempt, got %v", err)
	}
}
