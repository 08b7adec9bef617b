package epub

import (
	"errors"
	"testing"
)

func TestLocatePackage_Normal(t *testing.T) {
	zr := buildTestZip(t, []zipEntry{
		{"META-INF/container.xml", validContainerXML},
		{"OEBPS/content.opf", `<package/>`},
	})

	opfPath, err := locatePackage(zr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opfPath != "OEBPS/content.opf" {
		t.Errorf("opfPath = %q, want %q", opfPath, "OEBPS/content.opf")
	}
}

func TestLocatePackage_CaseInsensitive(t *testing.T) {
	zr := buildTestZip(t, []zipEntry{
		{"meta-inf/container.xml", validContainerXML},
		{"OEBPS/content.opf", `<package/>`},
	})

	opfPath, err := locatePackage(zr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opfPath != "OEBPS/content.opf" {
		t.Errorf("opfPath = %q, want %q", opfPath, "OEBPS/content.opf")
	}
}

func TestLocatePackage_WithBOM(t *testing.T) {
	zr := buildTestZip(t, []zipEntry{
		{"META-INF/container.xml", "\xEF\xBB\xBF" + validContainerXML},
		{"OEBPS/content.opf", `<package/>`},
	})

	opfPath, err := locatePackage(zr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opfPath != "OEBPS/content.opf" {
		t.Errorf("opfPath = %q, want %q", opfPath, "OEBPS/content.opf")
	}
}

func TestLocatePackage_FallbackOPFScan(t *testing.T) {
	// No container.xml; the first .opf entry wins.
	zr := buildTestZip(t, []zipEntry{
		{"readme.txt", "hello"},
		{"OEBPS/Book.OPF", `<package/>`},
	})

	opfPath, err := locatePackage(zr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opfPath != "OEBPS/Book.OPF" {
		t.Errorf("opfPath = %q, want %q", opfPath, "OEBPS/Book.OPF")
	}
}

func TestLocatePackage_MalformedContainerFallsBackToScan(t *testing.T) {
	zr := buildTestZip(t, []zipEntry{
		{"META-INF/container.xml", `<container><rootfiles>`},
		{"content.opf", `<package/>`},
	})

	opfPath, err := locatePackage(zr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opfPath != "content.opf" {
		t.Errorf("opfPath = %q, want %q", opfPath, "content.opf")
	}
}

func TestLocatePackage_NoPackage(t *testing.T) {
	zr := buildTestZip(t, []zipEntry{
		{"readme.txt", "hello"},
	})

	_, err := locatePackage(zr)
	if !errors.Is(err, errNoPackage) {
		t.Errorf("error = %v, want errNoPackage", err)
	}
}

func TestLocatePackage_PrefersRootfileByMediaType(t *testing.T) {
	container := `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="" media-type="application/oebps-package+xml"/>
    <rootfile full-path="OPS/preview.opf" media-type="application/x-preview+xml"/>
    <rootfile full-path="OPS/book.opf" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`

	zr := buildTestZip(t, []zipEntry{
		{"META-INF/container.xml", container},
	})

	opfPath, err := locatePackage(zr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opfPath != "OPS/book.opf" {
		t.Errorf("opfPath = %q, want %q", opfPath, "OPS/book.opf")
	}
}

func TestLocatePackage_FirstNonEmptyRootfileFallback(t *testing.T) {
	container := `<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="" media-type="application/x-other+xml"/>
    <rootfile full-path="OPS/first.opf" media-type="application/x-other+xml"/>
    <rootfile full-path="OPS/second.opf" media-type="application/x-another+xml"/>
  </rootfiles>
</container>`

	zr := buildTestZip(t, []zipEntry{
		{"META-INF/container.xml", container},
	})

	opfPath, err := locatePackage(zr)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if opfPath != "OPS/first.opf" {
		t.Errorf("opfPath = %q, want %q", opfPath, "OPS/first.opf")
	}
}
