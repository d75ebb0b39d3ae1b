package ocr

import "context"

// Engine extracts text from a receipt image. Implementations own their
// timeouts; callers decide what to do with thin or empty output.
type Engine interface {
	ExtractText(ctx context.Context, image []byte) (string, error)
}
