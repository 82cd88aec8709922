package extract

import "errors"

var (
	// ErrNoExtractableText means the upload produced no text at all, e.g. an
	// image-only or malformed PDF.
	ErrNoExtractableText = errors.New("no extractable text in document")

	// ErrUnknownEncoding means none of the candidate character encodings
	// decoded the payload.
	ErrUnknownEncoding = errors.New("unsupported file encoding")
)
