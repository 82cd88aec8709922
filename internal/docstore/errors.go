package docstore

import "errors"

var (
	// ErrNotFound means no document exists with the given id.
	ErrNotFound = errors.New("document not found")

	// ErrIngestion means adding a document failed; any partially written
	// vectors were rolled back and no document record is visible.
	ErrIngestion = errors.New("document ingestion failed")

	// ErrDeletion means removing a document's vectors failed. The document
	// record is kept so the caller can retry.
	ErrDeletion = errors.New("document deletion failed")
)
