package pdf

import (
	"bytes"
	"context"
	"fmt"
	"os"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/rs/zerolog/log"

	"go.pilab.hu/casekit/domain"
	ckerrors "go.pilab.hu/casekit/errors"
)

// Decoder implements domain.DocumentDecoder for the PDF files stored in
// case directories. Decoding is I/O bound and runs only on background
// workers; the decoded bytes plus page count form the cache payload.
type Decoder struct {
	docs domain.DocumentRepository
	conf *model.Configuration
}

// NewDecoder creates a Decoder backed by the given document repository.
func NewDecoder(docs domain.DocumentRepository) *Decoder {
	conf := model.NewDefaultConfiguration()
	// Scanned dossiers are frequently produced by sloppy generators.
	conf.ValidationMode = model.ValidationRelaxed

	return &Decoder{docs: docs, conf: conf}
}

// Decode resolves the document row, reads and validates the file, and
// returns the payload. Failures come back as *errors.DecodeError so the
// cache can apply its retry window.
func (d *Decoder) Decode(ctx context.Context, documentID int64) (*domain.DocumentContent, error) {
	doc, err := d.docs.GetDocumentByID(ctx, documentID)
	if err != nil {
		return nil, &ckerrors.DecodeError{DocumentID: documentID, Cause: err}
	}

	data, err := os.ReadFile(doc.Path)
	if err != nil {
		log.Warn().Err(err).Int64("documentID", documentID).Str("path", doc.Path).Msg("Failed to read document file")
		return nil, &ckerrors.DecodeError{DocumentID: documentID, Cause: fmt.Errorf("read %q: %w", doc.Path, err)}
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	pageCount, err := api.PageCount(bytes.NewReader(data), d.conf)
	if err != nil {
		log.Warn().Err(err).Int64("documentID", documentID).Msg("Failed to parse PDF")
		return nil, &ckerrors.DecodeError{DocumentID: documentID, Cause: fmt.Errorf("parse pdf: %w", err)}
	}

	log.Debug().Int64("documentID", documentID).Int("pages", pageCount).Msg("document decoded")
	return &domain.DocumentContent{
		DocumentID: documentID,
		Data:       data,
		PageCount:  pageCount,
		Title:      doc.Name,
	}, nil
}

var _ domain.DocumentDecoder = (*Decoder)(nil)
