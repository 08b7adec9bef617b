package scan

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// testDoc is one content document of a generated fixture book.
type testDoc struct {
	href string
	body string
}

// writeEPUB builds a minimal valid ePub on disk and returns its Candidate.
func writeEPUB(t *testing.T, dir, name, title string, docs []testDoc) Candidate {
	t.Helper()

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)

	addEntry(t, zw, "META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`)

	var manifest, spine strings.Builder
	for i, d := range docs {
		fmt.Fprintf(&manifest, `<item id="doc%d" href="%s" media-type="application/xhtml+xml"/>`, i, d.href)
		fmt.Fprintf(&spine, `<itemref idref="doc%d"/>`, i)
	}
	addEntry(t, zw, "OEBPS/content.opf", fmt.Sprintf(`<?xml version="1.0"?>
<package xmlns="http://www.idpf.org/2007/opf" xmlns:dc="http://purl.org/dc/elements/1.1/">
  <metadata><dc:title>%s</dc:title></metadata>
  <manifest>%s</manifest>
  <spine>%s</spine>
</package>`, title, manifest.String(), spine.String()))

	for _, d := range docs {
		addEntry(t, zw, "OEBPS/"+d.href,
			fmt.Sprintf(`<html><body><p>%s</p></body></html>`, d.body))
	}
	require.NoError(t, zw.Close())

	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, buf.Bytes(), 0o644))

	info, err := os.Stat(path)
	require.NoError(t, err)
	return Candidate{Path: path, Size: info.Size()}
}

func addEntry(t *testing.T, zw *zip.Writer, name, content string) {
	t.Helper()
	w, err := zw.Create(name)
	require.NoError(t, err)
	_, err = w.Write([]byte(content))
	require.NoError(t, err)
}

// writeFile drops arbitrary bytes at name and returns the Candidate.
func writeFile(t *testing.T, dir, name string, content []byte) Candidate {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, content, 0o644))
	return Candidate{Path: path, Size: int64(len(content))}
}
