// Package epub reads the searchable text content of ePub 2 and ePub 3 files.
//
// It deliberately understands only as much of the format as a content search
// needs: the container bootstrap (META-INF/container.xml), the package
// manifest and spine for reading order, DRM detection, and tolerant plain
// text extraction from XHTML documents.
//
//	book, err := epub.Open("book.epub", sizeBudget)
//	if err != nil {
//	    return err
//	}
//	defer book.Close()
//	for _, doc := range book.Documents() {
//	    raw, err := book.ReadDocument(doc)
//	    if err != nil {
//	        continue
//	    }
//	    text := epub.ExtractText(raw)
//	    // search text
//	}
//
// Malformed books degrade rather than fail: a missing or unparseable package
// document switches Documents to archive-listing order of all markup entries,
// with the reason available via [Book.Warnings]. Only two conditions abort a
// file: it is not a ZIP archive ([ErrNotArchive]) or it is DRM encrypted
// ([ErrDRMProtected]).
package epub
