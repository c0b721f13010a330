// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package beamlattice

import (
	"encoding/xml"
	"strconv"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
	"github.com/3mf-go/go3mf/spec"
)

// CreateElementDecoder implements spec.NodeCreator for <b:beamlattice>,
// nested under a core <mesh> element.
func (Spec) CreateElementDecoder(parent interface{}, name string) spec.ElementDecoder {
	if name == attrBeamLattice {
		if mesh, ok := parent.(*go3mf.Mesh); ok {
			return &beamLatticeDecoder{mesh: mesh}
		}
	}
	return nil
}

// DecodeAttribute implements spec.AttributeDecoder; the beam lattice
// extension carries no attributes outside of its own element tree.
func (Spec) DecodeAttribute(interface{}, spec.Attr) error { return nil }

type beamLatticeDecoder struct {
	mesh     *go3mf.Mesh
	resource BeamLattice
	beams    beamsDecoder
	beamSets beamSetsDecoder
	balls    ballsDecoder
	ballSets ballSetsDecoder
}

func (d *beamLatticeDecoder) End() {
	res := d.resource
	d.mesh.Any = append(d.mesh.Any, &res)
}

func (d *beamLatticeDecoder) Wrap(err error) error {
	return specerr.WrapPath(err, attrBeamLattice)
}

func (d *beamLatticeDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space != Namespace {
		return nil
	}
	switch name.Local {
	case attrBeams:
		d.beams.resource = &d.resource
		return &d.beams
	case attrBeamSets:
		d.beamSets.resource = &d.resource
		return &d.beamSets
	case attrBalls:
		d.balls.resource = &d.resource
		return &d.balls
	case attrBallSets:
		d.ballSets.resource = &d.resource
		return &d.ballSets
	}
	return nil
}

func (d *beamLatticeDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrRadius:
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.Radius = val
		case attrMinLength:
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.MinLength = val
		case attrCap:
			mode, ok := newCapMode(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			d.resource.CapMode = mode
		case attrClippingMode:
			fields := splitSpace(string(a.Value))
			mode, ok := newClipMode(fields[0])
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.ClipMode = mode
			if len(fields) > 1 {
				id, err := strconv.ParseUint(fields[1], 10, 32)
				if err != nil {
					errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
				}
				d.resource.ClippingMeshID = uint32(id)
				d.resource.HasClippingMesh = true
			}
		case attrRepresentationMesh:
			id, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.RepresentationMeshID = uint32(id)
			d.resource.HasRepresentationMesh = true
		case attrBallMode:
			mode, ok := newBallMode(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			d.resource.BallMode = mode
		case attrBallRadius:
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			d.resource.BallRadius = val
			d.resource.HasBallRadius = true
		}
	}
	return errs
}

// splitSpace splits a whitespace-separated attribute value, tolerating the
// single-token case (clippingmode alone, with no accompanying mesh id).
func splitSpace(s string) []string {
	var fields []string
	start := -1
	for i, r := range s {
		if r == ' ' || r == '\t' {
			if start >= 0 {
				fields = append(fields, s[start:i])
				start = -1
			}
			continue
		}
		if start < 0 {
			start = i
		}
	}
	if start >= 0 {
		fields = append(fields, s[start:])
	}
	if len(fields) == 0 {
		return []string{""}
	}
	return fields
}

type beamsDecoder struct {
	spec.BaseDecoder
	resource     *BeamLattice
	beamDecoder  beamDecoder
}

func (d *beamsDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrBeam {
		d.beamDecoder.resource = d.resource
		return &d.beamDecoder
	}
	return nil
}

type beamDecoder struct {
	spec.BaseDecoder
	resource *BeamLattice
}

func (d *beamDecoder) Start(attrs []spec.Attr) error {
	var b Beam
	var hasV1, hasV2, hasR1 bool
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrV1:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			b.Indices[0] = uint32(val)
			hasV1 = true
		case attrV2:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			b.Indices[1] = uint32(val)
			hasV2 = true
		case attrR1:
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.Radius[0] = val
			hasR1 = true
		case attrR2:
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.Radius[1] = val
		case attrCap1:
			mode, ok := newCapMode(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.CapMode[0] = mode
		case attrCap2:
			mode, ok := newCapMode(string(a.Value))
			if !ok {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.CapMode[1] = mode
		case attrPID:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.PID = uint32(val)
			b.HasPID = true
		case attrP1:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.P1 = uint32(val)
		case attrP2:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.P2 = uint32(val)
		}
	}
	if !hasR1 {
		b.Radius[0] = d.resource.Radius
	}
	if b.Radius[1] == 0 {
		b.Radius[1] = b.Radius[0]
	}
	if !hasV1 || !hasV2 {
		errs = specerr.Append(errs, specerr.NewRequiredAttrError(attrV1))
	}
	d.resource.Beams = append(d.resource.Beams, b)
	if errs != nil {
		return specerr.WrapIndex(errs, b, len(d.resource.Beams)-1)
	}
	return nil
}

type beamSetsDecoder struct {
	spec.BaseDecoder
	resource        *BeamLattice
	beamSetDecoder  beamSetDecoder
}

func (d *beamSetsDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrBeamSet {
		d.beamSetDecoder.resource = d.resource
		return &d.beamSetDecoder
	}
	return nil
}

type beamSetDecoder struct {
	resource *BeamLattice
	beamSet  BeamSet
}

func (d *beamSetDecoder) Start(attrs []spec.Attr) error {
	for _, a := range attrs {
		switch a.Name.Local {
		case attrName:
			d.beamSet.Name = string(a.Value)
		case attrIdentifier:
			d.beamSet.Identifier = string(a.Value)
		}
	}
	return nil
}

func (d *beamSetDecoder) End() {
	d.resource.BeamSets = append(d.resource.BeamSets, d.beamSet)
}

func (d *beamSetDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.beamSet, len(d.resource.BeamSets))
}

func (d *beamSetDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrRef {
		return &refDecoder{refs: &d.beamSet.Refs}
	}
	return nil
}

type refDecoder struct {
	spec.BaseDecoder
	refs *[]uint32
}

func (d *refDecoder) Start(attrs []spec.Attr) error {
	var errs error
	for _, a := range attrs {
		if a.Name.Local == attrIndex {
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			*d.refs = append(*d.refs, uint32(val))
		}
	}
	return errs
}

type ballsDecoder struct {
	spec.BaseDecoder
	resource    *BeamLattice
	ballDecoder ballDecoder
}

func (d *ballsDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrBall {
		d.ballDecoder.resource = d.resource
		return &d.ballDecoder
	}
	return nil
}

type ballDecoder struct {
	spec.BaseDecoder
	resource *BeamLattice
}

func (d *ballDecoder) Start(attrs []spec.Attr) error {
	var b Ball
	var hasVIndex bool
	var errs error
	for _, a := range attrs {
		switch a.Name.Local {
		case attrIndex:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, true))
			}
			b.Index = uint32(val)
			hasVIndex = true
		case attrR1:
			val, err := strconv.ParseFloat(string(a.Value), 64)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.Radius = val
			b.HasR = true
		case attrPID:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.PID = uint32(val)
			b.HasPID = true
		case attrPIndex:
			val, err := strconv.ParseUint(string(a.Value), 10, 32)
			if err != nil {
				errs = specerr.Append(errs, specerr.NewParseAttrError(a.Name.Local, false))
			}
			b.PIndex = uint32(val)
		}
	}
	if !hasVIndex {
		errs = specerr.Append(errs, specerr.NewRequiredAttrError(attrIndex))
	}
	d.resource.Balls = append(d.resource.Balls, b)
	if errs != nil {
		return specerr.WrapIndex(errs, b, len(d.resource.Balls)-1)
	}
	return nil
}

type ballSetsDecoder struct {
	spec.BaseDecoder
	resource        *BeamLattice
	ballSetDecoder  ballSetDecoder
}

func (d *ballSetsDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrBallSet {
		d.ballSetDecoder.resource = d.resource
		return &d.ballSetDecoder
	}
	return nil
}

type ballSetDecoder struct {
	resource *BeamLattice
	ballSet  BallSet
}

func (d *ballSetDecoder) Start(attrs []spec.Attr) error {
	for _, a := range attrs {
		switch a.Name.Local {
		case attrName:
			d.ballSet.Name = string(a.Value)
		case attrIdentifier:
			d.ballSet.Identifier = string(a.Value)
		}
	}
	return nil
}

func (d *ballSetDecoder) End() {
	d.resource.BallSets = append(d.resource.BallSets, d.ballSet)
}

func (d *ballSetDecoder) Wrap(err error) error {
	return specerr.WrapIndex(err, d.ballSet, len(d.resource.BallSets))
}

// Child handles <ballref>, the ball-index equivalent of <ref>
// used inside <ballsets>/<ballset> (spec.md notes a distinct element name
// here to disambiguate from a beam <ref> when both are in scope).
func (d *ballSetDecoder) Child(name xml.Name) spec.ElementDecoder {
	if name.Space == Namespace && name.Local == attrBallRef {
		return &refDecoder{refs: &d.ballSet.Refs}
	}
	return nil
}
