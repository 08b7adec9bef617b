package epub

import (
	"archive/zip"
	"encoding/xml"
	"strings"
)

// encryptionFilePath names the entry listing which archive members are
// encrypted and how.
const encryptionFilePath = "META-INF/encryption.xml"

// sinfFilePath is only present in FairPlay-wrapped books.
const sinfFilePath = "META-INF/sinf.xml"

// Algorithm URIs that merely scramble embedded fonts. Content documents
// stay readable, so an entry using one of these never rejects the book.
var fontObfuscationAlgorithms = map[string]bool{
	"http://www.idpf.org/2008/embedding": true,
	"http://ns.adobe.com/pdf/enc#RC":     true,
}

// Substrings that identify a DRM scheme when they appear in an algorithm
// URI or in key metadata.
var drmSignatures = []string{
	"http://ns.adobe.com/adept",      // Adobe ADEPT
	"http://readium.org/2014/01/lcp", // Readium LCP
}

type xmlEncryption struct {
	XMLName       xml.Name `xml:"encryption"`
	EncryptedData []struct {
		EncryptionMethod struct {
			Algorithm string `xml:"Algorithm,attr"`
		} `xml:"EncryptionMethod"`
		KeyInfo struct {
			InnerXML string `xml:",innerxml"`
		} `xml:"KeyInfo"`
	} `xml:"EncryptedData"`
}

// checkDRM decides whether the book's content is encrypted. fontObfuscation
// is true when the encryption descriptor lists only font-scrambling entries;
// anything else in it, or a FairPlay sinf.xml, yields ErrDRMProtected. No
// descriptor at all means the book is open.
func checkDRM(zr *zip.Reader, entryLimit int64) (fontObfuscation bool, err error) {
	if findEntryInsensitive(zr, sinfFilePath) != nil {
		return false, ErrDRMProtected
	}

	f := findEntryInsensitive(zr, encryptionFilePath)
	if f == nil {
		return false, nil
	}

	data, err := readZipEntry(f, entryLimit)
	if err != nil {
		return false, err
	}

	var enc xmlEncryption
	if err := xml.Unmarshal(stripBOM(data), &enc); err != nil {
		// A descriptor we cannot read could declare anything; reject.
		return false, ErrDRMProtected
	}

	for _, ed := range enc.EncryptedData {
		algo := ed.EncryptionMethod.Algorithm
		if fontObfuscationAlgorithms[algo] {
			fontObfuscation = true
			continue
		}
		if isDRMSignature(algo) || isDRMSignature(ed.KeyInfo.InnerXML) {
			return false, ErrDRMProtected
		}
		// Any other EncryptedData entry is treated as DRM.
		return false, ErrDRMProtected
	}

	return fontObfuscation, nil
}

func isDRMSignature(s string) bool {
	for _, sig := range drmSignatures {
		if strings.Contains(s, sig) {
			return true
		}
	}
	return false
}
