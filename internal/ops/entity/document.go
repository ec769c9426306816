package entity

import "time"

// Document kinds attachable to an ordered part.
const (
	DocQuotation = "QUOTATION" // vendor quotation backing the quoted price
	DocReceipt   = "RECEIPT"   // goods receipt / delivery note
)

// OrderDocument is a file attached to an ordered part, stored in object
// storage under ObjectKey. The row is metadata only.
type OrderDocument struct {
	ID            string    `json:"id" gorm:"primaryKey;type:uuid"`
	OrderedPartID string    `json:"ordered_part_id" gorm:"type:uuid;not null;index"`
	Kind          string    `json:"kind" gorm:"size:16;not null"`
	FileName      string    `json:"file_name" gorm:"size:255;not null"`
	ObjectKey     string    `json:"object_key" gorm:"size:255;not null"`
	FileSize      int64     `json:"file_size" gorm:"not null"`
	MimeType      string    `json:"mime_type" gorm:"size:128;not null"`
	UploadedBy    string    `json:"uploaded_by" gorm:"size:64;not null"`
	CreatedAt     time.Time `json:"created_at"`
}

func (OrderDocument) TableName() string {
	return "ops_order_documents"
}
