package epub

import (
	"archive/zip"
	"fmt"
	"io"
	"path"
	"strings"
)

// Document is one content-bearing entry of the book in reading order.
// Index is the position in that order, stable for a given archive.
type Document struct {
	Index     int
	Href      string // ZIP-internal path
	MediaType string // manifest media type, or "" in degraded mode
}

// Book gives read access to the content documents of one ePub archive.
// Use Open or NewReader to create a Book.
//
// A Book is not safe for concurrent use by multiple goroutines; in this
// codebase each Book is owned by exactly one scan worker.
type Book struct {
	zip        *zip.Reader
	zipExact   map[string]*zip.File
	zipLower   map[string]*zip.File
	closer     io.Closer // non-nil only when created via Open
	entryLimit int64
	title      string
	docs       []Document
	warnings   []string
}

// Open opens the ePub file at the given path. entryLimit bounds the
// decompressed size of any single archive entry (<= 0 selects a default).
// The caller must call Close when done.
//
// Open fails with a wrapped ErrNotArchive when the file is not a ZIP archive
// and with ErrDRMProtected when the book is encrypted. A missing or malformed
// package manifest is not an error: the Book degrades to archive-listing
// order and records a warning.
func Open(path string, entryLimit int64) (*Book, error) {
	zrc, err := zip.OpenReader(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrNotArchive, path, err)
	}

	b, err := initBook(&zrc.Reader, zrc, entryLimit)
	if err != nil {
		zrc.Close()
		return nil, err
	}
	return b, nil
}

// NewReader creates a Book from an io.ReaderAt with the given size.
// The caller is responsible for the lifetime of r.
func NewReader(r io.ReaderAt, size, entryLimit int64) (*Book, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotArchive, err)
	}
	return initBook(zr, nil, entryLimit)
}

func initBook(zr *zip.Reader, closer io.Closer, entryLimit int64) (*Book, error) {
	b := &Book{
		zip:        zr,
		closer:     closer,
		entryLimit: entryLimit,
	}
	b.buildZipIndex()

	fontObfuscation, err := checkDRM(zr, entryLimit)
	if err != nil {
		return nil, err
	}
	if fontObfuscation {
		b.warnings = append(b.warnings, "font obfuscation detected")
	}

	b.loadPackage()
	return b, nil
}

// Close releases resources held by the Book. When the Book was created via
// Open, Close closes the underlying file. Close is idempotent.
func (b *Book) Close() error {
	if b.closer != nil {
		err := b.closer.Close()
		b.closer = nil
		return err
	}
	return nil
}

// Documents returns the content documents in reading order: manifest spine
// order when the package document is usable, archive-listing order of all
// markup-typed entries otherwise.
func (b *Book) Documents() []Document {
	return append([]Document(nil), b.docs...)
}

// Title returns the first dc:title from the package metadata, or "".
func (b *Book) Title() string {
	return b.title
}

// Warnings returns non-fatal notes accumulated while opening the book,
// such as a degraded manifest or skipped spine entries.
func (b *Book) Warnings() []string {
	return append([]string(nil), b.warnings...)
}

// ReadDocument reads the raw bytes of one content document.
func (b *Book) ReadDocument(d Document) ([]byte, error) {
	return b.ReadFile(d.Href)
}

// ReadFile reads an archive entry by its ZIP-internal path. The lookup is
// case-insensitive as a fallback.
func (b *Book) ReadFile(name string) ([]byte, error) {
	f := b.findFile(name)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrFileNotFound, name)
	}
	return readZipEntry(f, b.entryLimit)
}

// loadPackage resolves the reading order. Every failure short of an
// unreadable archive degrades to fallback ordering instead of failing:
// a book we can open is a book we can search.
func (b *Book) loadPackage() {
	opfPath, err := locatePackage(b.zip)
	if err != nil {
		b.degrade("no package document found")
		return
	}

	opfFile := b.findFile(opfPath)
	if opfFile == nil {
		b.degrade(fmt.Sprintf("package document %s missing from archive", opfPath))
		return
	}
	opfData, err := readZipEntry(opfFile, b.entryLimit)
	if err != nil {
		b.degrade(fmt.Sprintf("package document unreadable: %v", err))
		return
	}

	pkg, err := parseOPF(opfData)
	if err != nil {
		b.degrade(fmt.Sprintf("package document malformed: %v", err))
		return
	}
	b.title = firstTitle(pkg)

	byID := manifestByID(pkg.Manifest)

	docs := make([]Document, 0, len(pkg.Spine.ItemRefs))
	skipped := 0
	for _, ref := range pkg.Spine.ItemRefs {
		item, ok := byID[ref.IDRef]
		if !ok {
			skipped++
			continue
		}
		if !isMarkupMediaType(item.MediaType) {
			continue
		}
		href := resolveRelativePath(opfPath, item.Href)
		if href == "" || b.findFile(href) == nil {
			skipped++
			continue
		}
		docs = append(docs, Document{
			Index:     len(docs),
			Href:      href,
			MediaType: item.MediaType,
		})
	}
	if skipped > 0 {
		b.warnings = append(b.warnings, fmt.Sprintf("%d unresolvable spine entries skipped", skipped))
	}

	if len(docs) == 0 {
		b.degrade("spine resolved to no content documents")
		return
	}
	b.docs = docs
}

// degrade records reason as a warning and builds the fallback reading order:
// every markup-typed archive entry, in archive-listing order.
func (b *Book) degrade(reason string) {
	b.warnings = append(b.warnings, reason)
	b.docs = b.docs[:0]
	for _, f := range b.zip.File {
		if !isMarkupPath(f.Name) {
			continue
		}
		b.docs = append(b.docs, Document{
			Index: len(b.docs),
			Href:  f.Name,
		})
	}
}

// isMarkupMediaType reports whether a manifest media type identifies a
// searchable markup document.
func isMarkupMediaType(mt string) bool {
	switch strings.ToLower(strings.TrimSpace(mt)) {
	case "application/xhtml+xml", "text/html", "application/html+xml", "text/x-oeb1-document":
		return true
	}
	return false
}

// isMarkupPath is the extension-based markup test used in degraded mode,
// when no manifest media types are available. META-INF bookkeeping files
// are excluded.
func isMarkupPath(name string) bool {
	if strings.HasPrefix(name, "META-INF/") {
		return false
	}
	switch strings.ToLower(path.Ext(name)) {
	case ".xhtml", ".html", ".htm":
		return true
	case ".xml":
		return true
	}
	return false
}

// buildZipIndex builds exact and lowercase entry indexes for O(1) lookups.
func (b *Book) buildZipIndex() {
	b.zipExact = make(map[string]*zip.File, len(b.zip.File))
	b.zipLower = make(map[string]*zip.File, len(b.zip.File))
	for _, f := range b.zip.File {
		if _, exists := b.zipExact[f.Name]; !exists {
			b.zipExact[f.Name] = f // first match wins
		}
		lower := strings.ToLower(f.Name)
		if _, exists := b.zipLower[lower]; !exists {
			b.zipLower[lower] = f
		}
	}
}

// findFile looks up a ZIP entry by path: exact match first, then
// case-insensitive.
func (b *Book) findFile(name string) *zip.File {
	if f, ok := b.zipExact[name]; ok {
		return f
	}
	if f, ok := b.zipLower[strings.ToLower(name)]; ok {
		return f
	}
	return nil
}
