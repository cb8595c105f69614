package models

import (
	"encoding/base64"
	"time"
)

// DocumentCategory groups documents in the workspace sidebar.
type DocumentCategory string

const (
	CategoryFinancial DocumentCategory = "financial"
	CategoryLegal     DocumentCategory = "legal"
	CategoryMarket    DocumentCategory = "market"
	CategoryMemo      DocumentCategory = "memo"
)

// Document is a single ingested file in a session's deal room.
// Content holds base64 bytes when IsInlineData is true (PDF, image) and
// plain decoded text otherwise (plain text, converted spreadsheet CSV).
type Document struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Type         string           `json:"type"` // e.g. PDF, TXT, XLSX, MEMO
	Content      string           `json:"content"`
	IsInlineData bool             `json:"is_inline_data"`
	MimeType     string           `json:"mime_type"` // effective type after conversion
	Category     DocumentCategory `json:"category"`
	UploadDate   time.Time        `json:"upload_date"`
}

// ValidateContentEncoding checks the Document invariant: inline content
// must be valid base64, text content must not be flagged inline.
func (d *Document) ValidateContentEncoding() bool {
	if !d.IsInlineData {
		return true
	}
	_, err := base64.StdEncoding.DecodeString(d.Content)
	return err == nil
}
