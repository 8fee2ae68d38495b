package ds

import "time"

type DocumentType string

const (
	DocumentIdentity DocumentType = "piece_identite"
	DocumentProof    DocumentType = "justificatif"
	DocumentQuote    DocumentType = "devis"
	DocumentReport   DocumentType = "rapport"
	DocumentOther    DocumentType = "autre"
)

var DocumentTypes = []DocumentType{DocumentIdentity, DocumentProof, DocumentQuote, DocumentReport, DocumentOther}

func (t DocumentType) Valid() bool {
	for _, v := range DocumentTypes {
		if t == v {
			return true
		}
	}
	return false
}

// Document is a file attached to a GrantRequest. The binary lives in the file
// store; only its key and the stored byte count are persisted here.
type Document struct {
	ID             uint         `gorm:"primaryKey"`
	GrantRequestID uint         `gorm:"not null;index"`
	Name           string       `gorm:"type:varchar(255);not null"`
	Type           DocumentType `gorm:"type:varchar(30);not null;index"`
	Path           string       `gorm:"type:varchar(255);not null"`
	ContentType    string       `gorm:"type:varchar(100)"`
	Size           int64        `gorm:"not null"`
	UploadedBy     uint         `gorm:"index"`
	UploadedAt     time.Time    `gorm:"not null"`

	GrantRequest GrantRequest `gorm:"foreignKey:GrantRequestID;constraint:OnDelete:CASCADE"`
}
