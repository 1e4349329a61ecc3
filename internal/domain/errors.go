package domain

import "errors"

var (
	// ErrVectorDimMismatch signals a vector dimension mismatch.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrEmbeddingProviderError signals an embedding provider failure.
	ErrEmbeddingProviderError = errors.New("embedding provider error")
	// ErrFaceDetectorError signals a face detector failure.
	ErrFaceDetectorError = errors.New("face detector error")
	// ErrImageUnavailable signals an image that could not be located or downloaded.
	ErrImageUnavailable = errors.New("image unavailable")
	// ErrMalformedCSV signals a CSV source whose header lacks required columns.
	ErrMalformedCSV = errors.New("malformed csv")
	// ErrInvalidRecord signals a CSV row that cannot be turned into a photo record.
	ErrInvalidRecord = errors.New("invalid photo record")
	// ErrInvalidQuery signals a search request without usable query input.
	ErrInvalidQuery = errors.New("invalid query")
	// ErrSearchFailed signals any query-time failure.
	ErrSearchFailed = errors.New("search failed")
)
