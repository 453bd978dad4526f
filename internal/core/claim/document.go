package claim

import (
	"context"
	"io"
	"path/filepath"
	"strings"
)

// MaxDocumentSize は添付ファイルの上限サイズ (5 MiB) です。
const MaxDocumentSize int64 = 5 * 1024 * 1024

var documentContentTypes = map[string]string{
	".pdf":  "application/pdf",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// DocumentStore は添付ファイル保存先の抽象です。
type DocumentStore interface {
	// Put は key にファイルを保存し、請求に記録するパスを返します。
	Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error)
	Remove(ctx context.Context, key string) error
}

// KeyGenerator は保存先キーを発行します。
type KeyGenerator interface {
	DocumentKey(claimID int64, ext string) string
}

// Document はアップロードされた添付ファイルです。
type Document struct {
	FileName string
	Size     int64
	Body     io.Reader
}

// validatedDocument は検証済みの添付ファイルです。
type validatedDocument struct {
	Document
	ext         string
	contentType string
}

func validateDocument(d *Document) (*validatedDocument, error) {
	name := strings.TrimSpace(filepath.Base(d.FileName))
	if name == "" || name == "." || name == string(filepath.Separator) {
		return nil, invalidField("document", "file name is required")
	}

	ext := strings.ToLower(filepath.Ext(name))
	contentType, ok := documentContentTypes[ext]
	if !ok {
		return nil, invalidField("document", "only .pdf, .docx and .xlsx files are allowed")
	}

	if d.Size <= 0 || d.Body == nil {
		return nil, invalidField("document", "file is empty")
	}
	if d.Size > MaxDocumentSize {
		return nil, invalidField("document", "file size cannot exceed 5MB")
	}

	doc := *d
	doc.FileName = name
	return &validatedDocument{Document: doc, ext: ext, contentType: contentType}, nil
}
