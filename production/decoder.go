// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package production

import (
	go3mf "github.com/3mf-go/go3mf"
	"github.com/3mf-go/go3mf/spec"
)

// DecodeAttribute implements spec.AttributeDecoder: it is called once
// per production-namespace attribute found on a <build>, <object>,
// <item> or <component> element (spec.md §4.5.2).
func (Spec) DecodeAttribute(parent interface{}, attr spec.Attr) error {
	switch p := parent.(type) {
	case *go3mf.Build:
		a, _ := GetBuildAttr(p)
		if a == nil {
			a = new(BuildAttr)
			p.AnyAttr = append(p.AnyAttr, a)
		}
		if attr.Name.Local == attrProdUUID {
			a.UUID = string(attr.Value)
		}
	case *go3mf.Object:
		a, _ := GetObjectAttr(p)
		if a == nil {
			a = new(ObjectAttr)
			p.AnyAttr = append(p.AnyAttr, a)
		}
		if attr.Name.Local == attrProdUUID {
			a.UUID = string(attr.Value)
		}
	case *go3mf.Item:
		a, _ := GetItemAttr(p)
		if a == nil {
			a = new(ItemAttr)
			p.AnyAttr = append(p.AnyAttr, a)
		}
		switch attr.Name.Local {
		case attrProdUUID:
			a.UUID = string(attr.Value)
		case attrPath:
			a.Path = string(attr.Value)
		}
	case *go3mf.Component:
		a, _ := GetComponentAttr(p)
		if a == nil {
			a = new(ComponentAttr)
			p.AnyAttr = append(p.AnyAttr, a)
		}
		switch attr.Name.Local {
		case attrProdUUID:
			a.UUID = string(attr.Value)
		case attrPath:
			a.Path = string(attr.Value)
		}
	}
	return nil
}
