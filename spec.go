// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package go3mf

// UnknownAsset wraps a resource declared by a registered custom extension
// whose concrete shape this module has no type for: the raw attribute map
// is kept so a custom validate callback can still inspect it.
type UnknownAsset struct {
	ID    uint32
	Order int
	Local string
	Attrs map[string]string
}

// Identify returns the unique ID of the resource.
func (u *UnknownAsset) Identify() uint32 { return u.ID }

// ParseOrder returns the resource's position in the decode sequence.
func (u *UnknownAsset) ParseOrder() int { return u.Order }
