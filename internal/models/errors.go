package models

import (
	"errors"

	"github.com/rotisserie/eris"
)

// ErrorKind classifies why an extraction failed
type ErrorKind string

const (
	KindUnsupportedFormat ErrorKind = "UnsupportedFormat"
	KindDecodeFailure     ErrorKind = "DecodeFailure"
	KindOCRFailure        ErrorKind = "OCRFailure"
	KindPDFOpenFailure    ErrorKind = "PDFOpenFailure"
	KindIOFailure         ErrorKind = "IOFailure"
	KindUnexpected        ErrorKind = "Unexpected"
)

// ExtractionError is the error value returned across component boundaries.
// The dispatcher turns it into an error ExtractionResult.
type ExtractionError struct {
	Kind ErrorKind
	Err  error
}

func (e *ExtractionError) Error() string {
	if e.Err == nil {
		return string(e.Kind)
	}
	return e.Err.Error()
}

func (e *ExtractionError) Unwrap() error {
	return e.Err
}

// NewError tags err with kind, wrapping it with msg.
// A nil err produces a new error carrying msg.
func NewError(kind ErrorKind, err error, msg string) *ExtractionError {
	if err == nil {
		return &ExtractionError{Kind: kind, Err: eris.New(msg)}
	}
	return &ExtractionError{Kind: kind, Err: eris.Wrap(err, msg)}
}

// KindOf returns the kind of the first ExtractionError in err's chain,
// or KindUnexpected when there is none.
func KindOf(err error) ErrorKind {
	var ee *ExtractionError
	if errors.As(err, &ee) {
		return ee.Kind
	}
	return KindUnexpected
}
