// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package production

import (
	"encoding/xml"
	"testing"

	go3mf "github.com/3mf-go/go3mf"
	"github.com/3mf-go/go3mf/spec"
	"github.com/go-test/deep"
)

func prodAttr(local, value string) spec.Attr {
	return spec.Attr{Name: xml.Name{Space: Namespace, Local: local}, Value: []byte(value)}
}

func TestDecodeAttribute_Build(t *testing.T) {
	b := new(go3mf.Build)
	if err := (Spec{}).DecodeAttribute(b, prodAttr(attrProdUUID, "e9e25302-6428-402e-8633-cc95528d0ed3")); err != nil {
		t.Fatalf("DecodeAttribute() unexpected error = %v", err)
	}
	a, ok := GetBuildAttr(b)
	if !ok {
		t.Fatal("expected BuildAttr to be set")
	}
	if diff := deep.Equal(a, &BuildAttr{UUID: "e9e25302-6428-402e-8633-cc95528d0ed3"}); diff != nil {
		t.Errorf("BuildAttr = %v", diff)
	}
}

func TestDecodeAttribute_Item(t *testing.T) {
	it := new(go3mf.Item)
	(Spec{}).DecodeAttribute(it, prodAttr(attrProdUUID, "e9e25302-6428-402e-8633-cc95528d0ed2"))
	(Spec{}).DecodeAttribute(it, prodAttr(attrPath, "/3D/other.model"))
	a, ok := GetItemAttr(it)
	if !ok {
		t.Fatal("expected ItemAttr to be set")
	}
	want := &ItemAttr{UUID: "e9e25302-6428-402e-8633-cc95528d0ed2", Path: "/3D/other.model"}
	if diff := deep.Equal(a, want); diff != nil {
		t.Errorf("ItemAttr = %v", diff)
	}
	if got := a.ObjectPath(); got != "/3D/other.model" {
		t.Errorf("ObjectPath() = %v", got)
	}
}

func TestDecodeAttribute_Component(t *testing.T) {
	c := new(go3mf.Component)
	(Spec{}).DecodeAttribute(c, prodAttr(attrProdUUID, "cb828680-8895-4e08-a1fc-be63e033df16"))
	a, ok := GetComponentAttr(c)
	if !ok {
		t.Fatal("expected ComponentAttr to be set")
	}
	if a.ObjectPath() != "" {
		t.Errorf("ObjectPath() = %v, want empty", a.ObjectPath())
	}
	_ = a
}
