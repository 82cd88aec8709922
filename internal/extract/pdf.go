package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"
)

// pageBoundary separates the text of consecutive PDF pages.
const pageBoundary = "\n\n"

// extractPDF concatenates per-page plain text in page order. A page that
// fails to yield text is skipped and logged; the extraction fails only when
// no page produces anything.
func (e *Extractor) extractPDF(data []byte, filename string) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrNoExtractableText, err)
	}

	var pages []string
	numPages := reader.NumPage()
	for i := 1; i <= numPages; i++ {
		pageText, err := e.extractPage(reader, i)
		if err != nil {
			e.logger.Warn("skipping unreadable PDF page", "file", filename, "page", i, "error", err)
			continue
		}
		if strings.TrimSpace(pageText) == "" {
			continue
		}
		pages = append(pages, pageText)
	}

	if len(pages) == 0 {
		return "", fmt.Errorf("%w: %s has no text on any page", ErrNoExtractableText, filename)
	}
	return strings.Join(pages, pageBoundary), nil
}

// extractPage reads one page, recovering from panics inside the PDF library
// on malformed content streams.
func (e *Extractor) extractPage(reader *pdf.Reader, num int) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("page parse panic: %v", r)
		}
	}()

	page := reader.Page(num)
	if page.V.IsNull() {
		return "", fmt.Errorf("page %d is empty", num)
	}
	return page.GetPlainText(nil)
}
