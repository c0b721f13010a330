// © Copyright 2021 HP Development Company, L.P.
// SPDX-License Identifier: BSD-2-Clause

package securecontent

import (
	"strings"
	"testing"
)

const sampleKeystore = `<?xml version="1.0" encoding="UTF-8"?>
<keystore xmlns="http://schemas.microsoft.com/3dmanufacturing/securecontent/2019/07" UUID="11111111-1111-1111-1111-111111111111">
  <consumer consumerid="c1" keyid="k1"><keyvalue>abc123</keyvalue></consumer>
  <resourcedatagroup>
    <accessright consumerindex="0">
      <kekparams wrappingalgorithm="http://www.w3.org/2009/xmlenc11#rsa-oaep" mgfalgorithm="http://www.w3.org/2009/xmlenc11#mgf1sha256" digestmethod="http://www.w3.org/2001/04/xmlenc#sha256"/>
      <ciphervalue>deadbeef</ciphervalue>
    </accessright>
    <resourcedata path="/3D/Textures/secret.png">
      <cekparams encryptionalgorithm="http://www.w3.org/2009/xmlenc11#aes256-gcm" compression="deflate">
        <iv>iv-value</iv>
        <tag>tag-value</tag>
      </cekparams>
    </resourcedata>
  </resourcedatagroup>
</keystore>`

func TestDecode_ok(t *testing.T) {
	info, err := Decode(strings.NewReader(sampleKeystore))
	if err != nil {
		t.Fatalf("Decode() unexpected error = %v", err)
	}
	if info.KeystoreUUID != "11111111-1111-1111-1111-111111111111" {
		t.Errorf("KeystoreUUID = %q", info.KeystoreUUID)
	}
	if len(info.Consumers) != 1 || info.Consumers[0].ConsumerID != "c1" || info.Consumers[0].KeyValue != "abc123" {
		t.Errorf("Consumers = %+v", info.Consumers)
	}
	if len(info.ResourceGroups) != 1 {
		t.Fatalf("ResourceGroups = %+v", info.ResourceGroups)
	}
	g := info.ResourceGroups[0]
	if len(g.AccessRights) != 1 || g.AccessRights[0].CipherValue != "deadbeef" {
		t.Errorf("AccessRights = %+v", g.AccessRights)
	}
	if len(g.ResourceDatas) != 1 || g.ResourceDatas[0].Path != "/3D/Textures/secret.png" {
		t.Errorf("ResourceDatas = %+v", g.ResourceDatas)
	}
	if g.ResourceDatas[0].IV != "iv-value" || g.ResourceDatas[0].Tag != "tag-value" {
		t.Errorf("cekparams fields = %+v", g.ResourceDatas[0])
	}
	if len(info.EncryptedParts) != 1 || info.EncryptedParts[0] != "/3D/Textures/secret.png" {
		t.Errorf("EncryptedParts = %v", info.EncryptedParts)
	}
}

func TestDecode_duplicateConsumerID(t *testing.T) {
	xmlDoc := `<keystore xmlns="http://schemas.microsoft.com/3dmanufacturing/securecontent/2019/07">
  <consumer consumerid="c1"></consumer>
  <consumer consumerid="c1"></consumer>
</keystore>`
	if _, err := Decode(strings.NewReader(xmlDoc)); err == nil {
		t.Error("duplicate consumer id should fail (EPX-2604)")
	}
}

func TestDecode_invalidWrappingAlgorithm(t *testing.T) {
	xmlDoc := `<keystore xmlns="http://schemas.microsoft.com/3dmanufacturing/securecontent/2019/07">
  <consumer consumerid="c1"></consumer>
  <resourcedatagroup>
    <accessright consumerindex="0">
      <kekparams wrappingalgorithm="http://example.com/bad"/>
    </accessright>
  </resourcedatagroup>
</keystore>`
	if _, err := Decode(strings.NewReader(xmlDoc)); err == nil {
		t.Error("invalid wrappingalgorithm should fail (EPX-2603)")
	}
}

func TestDecode_accessRightWithoutConsumer(t *testing.T) {
	xmlDoc := `<keystore xmlns="http://schemas.microsoft.com/3dmanufacturing/securecontent/2019/07">
  <resourcedatagroup>
    <accessright consumerindex="0">
      <kekparams wrappingalgorithm="http://www.w3.org/2009/xmlenc11#rsa-oaep"/>
    </accessright>
  </resourcedatagroup>
</keystore>`
	if _, err := Decode(strings.NewReader(xmlDoc)); err == nil {
		t.Error("accessright without any consumer should fail (EPX-2602)")
	}
}

func TestDecode_consumerIndexOutOfRange(t *testing.T) {
	xmlDoc := `<keystore xmlns="http://schemas.microsoft.com/3dmanufacturing/securecontent/2019/07">
  <consumer consumerid="c1"></consumer>
  <resourcedatagroup>
    <accessright consumerindex="5">
      <kekparams wrappingalgorithm="http://www.w3.org/2009/xmlenc11#rsa-oaep"/>
    </accessright>
  </resourcedatagroup>
</keystore>`
	if _, err := Decode(strings.NewReader(xmlDoc)); err == nil {
		t.Error("out-of-range consumerindex should fail (EPX-2601)")
	}
}

func TestDecode_resourceDataPathIsRels(t *testing.T) {
	xmlDoc := `<keystore xmlns="http://schemas.microsoft.com/3dmanufacturing/securecontent/2019/07">
  <consumer consumerid="c1"></consumer>
  <resourcedatagroup>
    <resourcedata path="/_rels/.rels"></resourcedata>
  </resourcedatagroup>
</keystore>`
	if _, err := Decode(strings.NewReader(xmlDoc)); err == nil {
		t.Error("resourcedata path referencing a relationship file should fail (EPX-2605)")
	}
}
