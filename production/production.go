// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

// Package production implements the Production 3MF extension
// (spec.md §4.5.2, component C): a UUID attached to the build, every
// object and every build item/component, plus an external "path"
// attribute letting an item or component reference an object defined in
// a different model part of the same package.
package production

import (
	go3mf "github.com/3mf-go/go3mf"
)

// Namespace is the canonical name of this extension.
const Namespace = "http://schemas.microsoft.com/3dmanufacturing/production/2015/06"

func init() {
	go3mf.Register(go3mf.ExtProduction, Spec{})
}

// Spec implements spec.Spec for the production extension.
type Spec struct{}

// Namespace returns the canonical namespace URI of this extension.
func (Spec) Namespace() string { return Namespace }

// Local returns the conventional xmlns prefix for this extension.
func (Spec) Local() string { return "p" }

// BuildAttr decorates a go3mf.Build with its production UUID.
type BuildAttr struct {
	UUID string
}

// ObjectAttr decorates a go3mf.Object with its production UUID.
type ObjectAttr struct {
	UUID string
}

// ProductionUUID returns the decorated UUID, satisfying the core
// validator's generic uuidCarrier interface without it needing to import
// this package.
func (a *BuildAttr) ProductionUUID() string { return a.UUID }

// ProductionUUID returns the decorated UUID.
func (a *ObjectAttr) ProductionUUID() string { return a.UUID }

// ItemAttr decorates a go3mf.Item with its production UUID and, for an
// item that places an object defined in a different model part, the
// path of that part.
type ItemAttr struct {
	UUID string
	Path string
}

// ObjectPath returns the external part path this item's object lives
// in, or "" if the object lives in the same part as the item.
func (a *ItemAttr) ObjectPath() string { return a.Path }

// ProductionUUID returns the decorated UUID.
func (a *ItemAttr) ProductionUUID() string { return a.UUID }

// ComponentAttr decorates a go3mf.Component with its production UUID
// and, for a component that references an object defined in a different
// model part, the path of that part.
type ComponentAttr struct {
	UUID string
	Path string
}

// ObjectPath returns the external part path this component's object
// lives in, or "" if the object lives in the same part as the
// component.
func (a *ComponentAttr) ObjectPath() string { return a.Path }

// ProductionUUID returns the decorated UUID.
func (a *ComponentAttr) ProductionUUID() string { return a.UUID }

// GetBuildAttr returns b's production attributes, if any were decoded.
func GetBuildAttr(b *go3mf.Build) (a *BuildAttr, ok bool) {
	ok = b.ExtAttr(&a)
	return
}

// GetObjectAttr returns o's production attributes, if any were decoded.
func GetObjectAttr(o *go3mf.Object) (a *ObjectAttr, ok bool) {
	ok = o.ExtAttr(&a)
	return
}

// GetItemAttr returns it's production attributes, if any were decoded.
func GetItemAttr(it *go3mf.Item) (a *ItemAttr, ok bool) {
	ok = it.ExtAttr(&a)
	return
}

// GetComponentAttr returns c's production attributes, if any were
// decoded.
func GetComponentAttr(c *go3mf.Component) (a *ComponentAttr, ok bool) {
	ok = c.ExtAttr(&a)
	return
}

const (
	attrProdUUID = "UUID"
	attrPath     = "path"
)
