package epub

import (
	"archive/zip"
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

// zipEntry is one archive entry for test fixtures. Entries are written in
// slice order, because archive-listing order matters to fallback tests.
type zipEntry struct {
	name    string
	content string
}

// buildTestZip creates an in-memory ZIP archive from entries, in order, and
// returns a *zip.Reader over the resulting bytes.
func buildTestZip(t *testing.T, entries []zipEntry) *zip.Reader {
	t.Helper()
	data := buildZipBytes(t, entries)
	r, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		t.Fatalf("buildTestZip: open reader: %v", err)
	}
	return r
}

// buildTestBook builds an in-memory archive and opens it as a Book.
func buildTestBook(t *testing.T, entries []zipEntry) *Book {
	t.Helper()
	data := buildZipBytes(t, entries)
	b, err := NewReader(bytes.NewReader(data), int64(len(data)), 0)
	if err != nil {
		t.Fatalf("buildTestBook: %v", err)
	}
	return b
}

// buildTestEPubFile writes an archive to a temporary file and returns its path.
func buildTestEPubFile(t *testing.T, entries []zipEntry) string {
	t.Helper()
	fp := filepath.Join(t.TempDir(), "test.epub")
	if err := os.WriteFile(fp, buildZipBytes(t, entries), 0644); err != nil {
		t.Fatalf("buildTestEPubFile: write file: %v", err)
	}
	return fp
}

func buildZipBytes(t *testing.T, entries []zipEntry) []byte {
	t.Helper()
	buf := new(bytes.Buffer)
	zw := zip.NewWriter(buf)
	for _, e := range entries {
		fw, err := zw.Create(e.name)
		if err != nil {
			t.Fatalf("buildZipBytes: create %s: %v", e.name, err)
		}
		if _, err := io.WriteString(fw, e.content); err != nil {
			t.Fatalf("buildZipBytes: write %s: %v", e.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("buildZipBytes: close writer: %v", err)
	}
	return buf.Bytes()
}

// minimalOPF builds a package document with the given title and one spine
// itemref per href, manifest-typed as XHTML.
func minimalOPF(title string, hrefs ...string) string {
	opf := `<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/" version="2.0">
  <metadata><dc:title>` + title + `</dc:title></metadata>
  <manifest>
`
	for i, h := range hrefs {
		opf += `    <item id="doc` + string(rune('a'+i)) + `" href="` + h + `" media-type="application/xhtml+xml"/>
`
	}
	opf += `  </manifest>
  <spine>
`
	for i := range hrefs {
		opf += `    <itemref idref="doc` + string(rune('a'+i)) + `"/>
`
	}
	opf += `  </spine>
</package>`
	return opf
}

// validContainerXML points at OEBPS/content.opf.
const validContainerXML = `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`
