// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

// Package securecontent implements the keystore & SecureContent parser
// (spec.md §4.4, component C5): it decodes Secure/keystore.xml (or
// whichever part the package's relationships point at) into a
// go3mf.SecureContentInfo and runs the EPX-26xx structural validation
// rules. Decryption itself is out of scope (spec.md §1 Non-goals); this
// package only produces the structure a go3mf.KeyProvider needs.
package securecontent

import (
	"encoding/xml"
	"io"
	"strconv"
	"strings"

	go3mf "github.com/3mf-go/go3mf"
	specerr "github.com/3mf-go/go3mf/errors"
)

const (
	elKeystore         = "keystore"
	elConsumer         = "consumer"
	elKeyValue         = "keyvalue"
	elResourceDataGrp  = "resourcedatagroup"
	elAccessRight      = "accessright"
	elKEKParams        = "kekparams"
	elCipherValue      = "ciphervalue"
	elResourceData     = "resourcedata"
	elCEKParams        = "cekparams"
	elIV               = "iv"
	elTag              = "tag"
	elAAD              = "aad"

	attrUUID            = "UUID"
	attrConsumerID      = "consumerid"
	attrKeyID           = "keyid"
	attrConsumerIndex   = "consumerindex"
	attrWrappingAlg     = "wrappingalgorithm"
	attrMGFAlgorithm    = "mgfalgorithm"
	attrDigestMethod    = "digestmethod"
	attrPath            = "path"
	attrEncryptionAlg   = "encryptionalgorithm"
	attrCompression     = "compression"
)

// wrappingAlgorithm1, wrappingAlgorithm2 are the only two RSA-OAEP
// wrapping algorithm URIs permitted by the SecureContent extension.
const (
	wrappingAlgorithm1 = "http://www.w3.org/2001/04/xmlenc#rsa-oaep-mgf1p"
	wrappingAlgorithm2 = "http://www.w3.org/2009/xmlenc11#rsa-oaep"
)

var validMGFAlgorithms = map[string]bool{
	"http://www.w3.org/2009/xmlenc11#mgf1sha1":   true,
	"http://www.w3.org/2009/xmlenc11#mgf1sha256": true,
	"http://www.w3.org/2009/xmlenc11#mgf1sha384": true,
	"http://www.w3.org/2009/xmlenc11#mgf1sha512": true,
}

var validDigestMethods = map[string]bool{
	"http://www.w3.org/2000/09/xmldsig#sha1":   true,
	"http://www.w3.org/2001/04/xmlenc#sha256":  true,
	"http://www.w3.org/2001/04/xmlenc#sha384":  true,
	"http://www.w3.org/2001/04/xmlenc#sha512":  true,
}

const defaultCompression = "none"

// Decode reads a keystore.xml document and returns the parsed
// SecureContentInfo, applying the EPX-26xx rules that need no knowledge of
// the surrounding OPC package (EPX-2601 through EPX-2605). Rules that need
// package context (EPX-2606, EPX-2607) are left to Validate.
func Decode(r io.Reader) (*go3mf.SecureContentInfo, error) {
	info := new(go3mf.SecureContentInfo)
	dec := xml.NewDecoder(r)

	var (
		consumerIDs  = make(map[string]bool)
		group        *go3mf.ResourceDataGroup
		accessRight  *go3mf.AccessRight
		resourceData *go3mf.ResourceData
		consumer     *go3mf.Consumer
		text         strings.Builder
	)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, specerr.XML(err)
		}
		switch t := tok.(type) {
		case xml.StartElement:
			text.Reset()
			switch strings.ToLower(t.Name.Local) {
			case elKeystore:
				if v, ok := findAttr(t.Attr, attrUUID); ok {
					info.KeystoreUUID = v
				}
			case elConsumer:
				c := go3mf.Consumer{}
				if v, ok := findAttr(t.Attr, attrConsumerID); ok {
					c.ConsumerID = v
				}
				if v, ok := findAttr(t.Attr, attrKeyID); ok {
					c.KeyID = v
				}
				if consumerIDs[c.ConsumerID] {
					return nil, specerr.InvalidSecureContent("duplicate consumer id %q (EPX-2604)", c.ConsumerID)
				}
				consumerIDs[c.ConsumerID] = true
				consumer = &c
			case elResourceDataGrp:
				group = &go3mf.ResourceDataGroup{}
			case elAccessRight:
				ar := go3mf.AccessRight{}
				if v, ok := findAttr(t.Attr, attrConsumerIndex); ok {
					n, err := strconv.Atoi(v)
					if err != nil {
						return nil, specerr.InvalidSecureContent("invalid consumerindex %q (EPX-2601)", v)
					}
					ar.ConsumerIndex = n
				}
				accessRight = &ar
			case elKEKParams:
				wrap, _ := findAttr(t.Attr, attrWrappingAlg)
				mgf, _ := findAttr(t.Attr, attrMGFAlgorithm)
				digest, _ := findAttr(t.Attr, attrDigestMethod)
				if err := validateKEKParams(wrap, mgf, digest); err != nil {
					return nil, err
				}
				if accessRight != nil {
					accessRight.WrapAlgorithm = wrap
					accessRight.MGFAlgorithm = mgf
					accessRight.DigestMethod = digest
				}
			case elResourceData:
				rd := go3mf.ResourceData{Compression: defaultCompression}
				if v, ok := findAttr(t.Attr, attrPath); ok {
					rd.Path = v
				}
				if err := validateResourceDataPath(rd.Path); err != nil {
					return nil, err
				}
				resourceData = &rd
			case elCEKParams:
				if v, ok := findAttr(t.Attr, attrEncryptionAlg); ok && resourceData != nil {
					resourceData.EncryptionAlgorithm = v
				}
				if v, ok := findAttr(t.Attr, attrCompression); ok && resourceData != nil {
					resourceData.Compression = v
				}
			}
		case xml.CharData:
			text.Write(t)
		case xml.EndElement:
			local := strings.ToLower(t.Name.Local)
			value := strings.TrimSpace(text.String())
			switch local {
			case elKeyValue:
				if consumer != nil {
					consumer.KeyValue = value
				}
			case elConsumer:
				if consumer != nil {
					info.Consumers = append(info.Consumers, *consumer)
					consumer = nil
				}
			case elCipherValue:
				if accessRight != nil {
					accessRight.CipherValue = value
				}
			case elAccessRight:
				if accessRight != nil && group != nil {
					group.AccessRights = append(group.AccessRights, *accessRight)
				}
				accessRight = nil
			case elIV:
				if resourceData != nil {
					resourceData.IV = value
				}
			case elTag:
				if resourceData != nil {
					resourceData.Tag = value
				}
			case elAAD:
				if resourceData != nil {
					resourceData.AAD = value
				}
			case elResourceData:
				if resourceData != nil && group != nil {
					group.ResourceDatas = append(group.ResourceDatas, *resourceData)
					info.EncryptedParts = append(info.EncryptedParts, resourceData.Path)
				}
				resourceData = nil
			case elResourceDataGrp:
				if group != nil {
					info.ResourceGroups = append(info.ResourceGroups, *group)
					group = nil
				}
			}
		}
	}

	if err := validateConsumerReferences(info); err != nil {
		return nil, err
	}
	return info, nil
}

func findAttr(attrs []xml.Attr, local string) (string, bool) {
	for _, a := range attrs {
		if strings.EqualFold(a.Name.Local, local) {
			return a.Value, true
		}
	}
	return "", false
}

func validateKEKParams(wrap, mgf, digest string) error {
	if wrap != "" && wrap != wrappingAlgorithm1 && wrap != wrappingAlgorithm2 {
		return specerr.InvalidSecureContent("invalid wrappingalgorithm %q (EPX-2603)", wrap)
	}
	if mgf != "" && !validMGFAlgorithms[mgf] {
		return specerr.InvalidSecureContent("invalid mgfalgorithm %q (EPX-2603)", mgf)
	}
	if digest != "" && !validDigestMethods[digest] {
		return specerr.InvalidSecureContent("invalid digestmethod %q (EPX-2603)", digest)
	}
	return nil
}

func validateResourceDataPath(path string) error {
	if strings.TrimSpace(path) == "" {
		return specerr.InvalidSecureContent("resourcedata path must not be empty (EPX-2605)")
	}
	lower := strings.ToLower(path)
	if strings.Contains(lower, "/_rels/") || strings.HasSuffix(lower, ".rels") {
		return specerr.InvalidSecureContent("resourcedata path %q must not reference an OPC relationship file (EPX-2605)", path)
	}
	return nil
}

func validateConsumerReferences(info *go3mf.SecureContentInfo) error {
	hasGroups := len(info.ResourceGroups) > 0
	hasAccessRights := false
	for _, g := range info.ResourceGroups {
		if len(g.AccessRights) > 0 {
			hasAccessRights = true
		}
	}
	if (hasGroups || hasAccessRights) && len(info.Consumers) == 0 {
		return specerr.InvalidSecureContent("keystore has resourcedatagroup/accessright elements but no consumer elements (EPX-2602)")
	}
	seen := make(map[string]bool)
	for _, rd := range info.EncryptedParts {
		if seen[rd] {
			return specerr.InvalidSecureContent("duplicate resourcedata path %q (EPX-2607)", rd)
		}
		seen[rd] = true
	}
	for _, g := range info.ResourceGroups {
		for _, ar := range g.AccessRights {
			if ar.ConsumerIndex < 0 || ar.ConsumerIndex >= len(info.Consumers) {
				return specerr.InvalidSecureContent("accessright consumerindex %d out of range for %d consumer(s) (EPX-2601)", ar.ConsumerIndex, len(info.Consumers))
			}
		}
	}
	return nil
}
