package epub

import "errors"

// Sentinel errors returned by the epub package.
var (
	// ErrNotArchive indicates the file could not be opened as a ZIP archive
	// at all. This is the only per-file failure that prevents scanning.
	ErrNotArchive = errors.New("epub: not a zip archive")

	// ErrDRMProtected indicates the ePub is protected by DRM
	// (e.g., Adobe ADEPT, Apple FairPlay, Readium LCP); its content
	// cannot be extracted, so searching it would be meaningless.
	ErrDRMProtected = errors.New("epub: file is DRM protected")

	// ErrFileNotFound indicates the requested entry does not exist
	// in the ePub archive.
	ErrFileNotFound = errors.New("epub: file not found in archive")
)
