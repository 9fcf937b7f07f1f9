package report

import (
	"time"

	"github.com/google/uuid"
)

type Kind string

const (
	KindJobCard    Kind = "jobcard"
	KindJobCardPDF Kind = "jobcard-pdf"
	KindPickTicket Kind = "pickticket"
)

const (
	ContentTypeXLSX = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	ContentTypePDF  = "application/pdf"
)

// Artifact is one generated document, held in memory until the session ends.
type Artifact struct {
	ID          string
	Kind        Kind
	Name        string
	ContentType string
	Data        []byte
	CreatedAt   time.Time
}

func newArtifact(kind Kind, name, contentType string, data []byte) *Artifact {
	return &Artifact{
		ID:          uuid.NewString(),
		Kind:        kind,
		Name:        name,
		ContentType: contentType,
		Data:        data,
		CreatedAt:   time.Now().UTC(),
	}
}

func (k Kind) Valid() bool {
	switch k {
	case KindJobCard, KindJobCardPDF, KindPickTicket:
		return true
	}
	return false
}
