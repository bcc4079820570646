package ingest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/akolanti/ContractIntelAPI/internal/domain/apperr"
	"github.com/dslipak/pdf"
)

const pdfMagic = "%PDF-"

// PageExtractor returns the plain text of every page, in page order.
type PageExtractor func(ctx context.Context, data []byte) ([]string, error)

// validatePDF is the cheap synchronous check done before a document is created.
func validatePDF(data []byte, maxBytes int64) error {
	if len(data) == 0 {
		return apperr.InputValidation("file is empty")
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return apperr.InputValidation(fmt.Sprintf("file exceeds the %d byte upload limit", maxBytes))
	}
	if !bytes.HasPrefix(data, []byte(pdfMagic)) {
		return apperr.InputValidation("file is not a PDF")
	}
	if _, err := openPDF(data); err != nil {
		return apperr.InputValidation("file is not a readable PDF")
	}
	return nil
}

// openPDF guards the parser, which panics on some malformed inputs.
func openPDF(data []byte) (r *pdf.Reader, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			r, err = nil, fmt.Errorf("pdf parser panic: %v", rec)
		}
	}()
	return pdf.NewReader(bytes.NewReader(data), int64(len(data)))
}

// PDFPages extracts page text with dslipak/pdf. Pages that fail or time out
// contribute empty text so numbering stays contiguous.
func PDFPages(pageTimeout time.Duration) PageExtractor {
	return func(ctx context.Context, data []byte) ([]string, error) {
		r, err := openPDF(data)
		if err != nil {
			return nil, fmt.Errorf("failed to open pdf: %w", err)
		}

		numPages := r.NumPage()
		if numPages == 0 {
			return nil, errors.New("pdf has no pages")
		}
		pages := make([]string, 0, numPages)
		for i := 1; i <= numPages; i++ {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			page := r.Page(i)
			if page.V.IsNull() {
				pages = append(pages, "")
				continue
			}
			content, err := protectExtract(page, pageTimeout)
			if err != nil {
				logger.Warn("Error parsing page content", "page", i, "error", err)
				content = ""
			}
			pages = append(pages, content)
		}
		return pages, nil
	}
}

func protectExtract(page pdf.Page, timeout time.Duration) (string, error) {
	type result struct {
		content string
		err     error
	}
	resChan := make(chan result, 1)

	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				resChan <- result{"", fmt.Errorf("page parser panic: %v", rec)}
			}
		}()
		content, err := page.GetPlainText(nil)
		resChan <- result{content, err}
	}()

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case r := <-resChan:
		return r.content, r.err
	case <-timer.C:
		return "", errors.New("page extraction timeout")
	}
}
