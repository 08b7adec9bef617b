package epub

import (
	"encoding/xml"
	"fmt"
	"regexp"
	"strings"
)

// opfPackage represents the root <package> element of an OPF file, trimmed to
// the parts needed for reading-order resolution and result labelling.
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
}

// opfMetadata holds the dc:title values from the OPF metadata block.
type opfMetadata struct {
	Titles []string `xml:"http://purl.org/dc/elements/1.1/ title"`
}

// opfManifest wraps the <manifest> element: the id → resource catalogue.
type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

// opfManifestItem represents a single <item> in the manifest.
type opfManifestItem struct {
	ID        string `xml:"id,attr"`
	Href      string `xml:"href,attr"`
	MediaType string `xml:"media-type,attr"`
}

// opfSpine wraps the <spine> element: the ordered reading sequence.
type opfSpine struct {
	ItemRefs []opfSpineItemRef `xml:"itemref"`
}

// opfSpineItemRef represents a single <itemref> in the spine.
type opfSpineItemRef struct {
	IDRef  string `xml:"idref,attr"`
	Linear string `xml:"linear,attr"`
}

// entityToNumeric maps HTML entity names that commonly leak into OPF files to
// XML numeric references. encoding/xml only knows the five XML entities.
var entityToNumeric = map[string]string{
	"nbsp": "&#160;", "mdash": "&#8212;", "ndash": "&#8211;",
	"hellip": "&#8230;", "copy": "&#169;", "reg": "&#174;",
	"lsquo": "&#8216;", "rsquo": "&#8217;",
	"ldquo": "&#8220;", "rdquo": "&#8221;",
	"eacute": "&#233;", "egrave": "&#232;", "auml": "&#228;",
	"ouml": "&#246;", "uuml": "&#252;", "ntilde": "&#241;",
	"ccedil": "&#231;", "deg": "&#176;", "sect": "&#167;",
	"laquo": "&#171;", "raquo": "&#187;",
}

var namedEntityPattern = regexp.MustCompile(`(?i)&([a-z]{2,8});`)

// normalizeEntities rewrites known HTML named entities as numeric character
// references so encoding/xml can parse non-standard OPF content. Unknown
// entities are left untouched (and will fail XML parsing, which the caller
// treats as a degraded manifest, not a fatal error).
func normalizeEntities(data []byte) []byte {
	return namedEntityPattern.ReplaceAllFunc(data, func(match []byte) []byte {
		name := strings.ToLower(string(match[1 : len(match)-1]))
		switch name {
		case "amp", "lt", "gt", "quot", "apos":
			return match
		}
		if num, ok := entityToNumeric[name]; ok {
			return []byte(num)
		}
		return match
	})
}

// parseOPF parses the package document content.
func parseOPF(data []byte) (*opfPackage, error) {
	data = stripBOM(normalizeEntities(data))

	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("epub: parse OPF: %w", err)
	}
	return &pkg, nil
}

// manifestByID builds the id → item lookup for spine resolution.
func manifestByID(m opfManifest) map[string]opfManifestItem {
	byID := make(map[string]opfManifestItem, len(m.Items))
	for _, item := range m.Items {
		byID[item.ID] = item
	}
	return byID
}

// firstTitle returns the first non-empty dc:title, or "".
func firstTitle(pkg *opfPackage) string {
	for _, t := range pkg.Metadata.Titles {
		if v := strings.TrimSpace(t); v != "" {
			return v
		}
	}
	return ""
}
