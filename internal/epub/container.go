package epub

import (
	"archive/zip"
	"encoding/xml"
	"errors"
	"fmt"
	"strings"
)

// containerPath is the well-known location of container.xml in an ePub archive.
const containerPath = "META-INF/container.xml"

// packageMediaType is the media type identifying the OPF rootfile.
const packageMediaType = "application/oebps-package+xml"

// errNoPackage signals that no package document could be located. It never
// escapes the package: the Book falls back to degraded document ordering.
var errNoPackage = errors.New("epub: no package document found")

// containerXML models META-INF/container.xml, the bootstrap entry that names
// the package document (OPF) path.
type containerXML struct {
	XMLName   xml.Name `xml:"container"`
	RootFiles []struct {
		FullPath  string `xml:"full-path,attr"`
		MediaType string `xml:"media-type,attr"`
	} `xml:"rootfiles>rootfile"`
}

// locatePackage returns the ZIP-internal path of the package document.
// It parses META-INF/container.xml (case-insensitive lookup) when present,
// preferring rootfiles with the OPF media type. Without a usable
// container.xml it scans the archive for the first ".opf" entry.
func locatePackage(zr *zip.Reader) (string, error) {
	if f := findEntryInsensitive(zr, containerPath); f != nil {
		if p, err := packagePathFromContainer(f); err == nil {
			return p, nil
		}
		// Malformed container.xml: fall through to the .opf scan.
	}

	for _, f := range zr.File {
		if strings.HasSuffix(strings.ToLower(f.Name), ".opf") {
			return f.Name, nil
		}
	}
	return "", errNoPackage
}

// packagePathFromContainer decodes a container.xml entry and returns the
// full-path of the best rootfile: the first with the OPF media type, or
// failing that the first with a non-empty path.
func packagePathFromContainer(f *zip.File) (string, error) {
	data, err := readZipEntry(f, 0)
	if err != nil {
		return "", fmt.Errorf("epub: read container.xml: %w", err)
	}

	var c containerXML
	if err := xml.Unmarshal(stripBOM(data), &c); err != nil {
		return "", fmt.Errorf("epub: parse container.xml: %w", err)
	}

	var fallback string
	for _, rf := range c.RootFiles {
		fullPath := strings.TrimSpace(rf.FullPath)
		if fullPath == "" {
			continue
		}
		if strings.EqualFold(strings.TrimSpace(rf.MediaType), packageMediaType) {
			return fullPath, nil
		}
		if fallback == "" {
			fallback = fullPath
		}
	}

	if fallback == "" {
		return "", fmt.Errorf("epub: container.xml has no usable rootfile: %w", errNoPackage)
	}
	return fallback, nil
}
