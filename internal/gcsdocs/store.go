// Package gcsdocs stores tax documents in a Google Cloud Storage bucket.
//
// Objects live under tax-documents/<userID>/<year>/. The object metadata
// key document_type names the form and transaction_ids lists the linked
// transactions, comma separated.
package gcsdocs

import (
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"strconv"
	"strings"
	"time"

	"cloud.google.com/go/storage"
	"github.com/dvloznov/finance-analytics/internal/domain"
	"google.golang.org/api/iterator"
)

const (
	rootPrefix = "tax-documents"

	MetaDocumentType   = "document_type"
	MetaTransactionIDs = "transaction_ids"

	uploadTimeout = 2 * time.Minute
)

// Store is the GCS-backed tax document store.
type Store struct {
	client *storage.Client
	bucket string
}

// NewStore creates a Store with its own client. It assumes Application
// Default Credentials are configured.
func NewStore(ctx context.Context, bucket string) (*Store, error) {
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewStore: create storage client: %w", err)
	}
	return NewStoreWithClient(client, bucket), nil
}

// NewStoreWithClient creates a Store on an existing client.
func NewStoreWithClient(client *storage.Client, bucket string) *Store {
	return &Store{client: client, bucket: bucket}
}

// Close closes the storage client.
func (s *Store) Close() error {
	if s.client != nil {
		return s.client.Close()
	}
	return nil
}

// ListTaxDocuments returns the documents filed for the user's tax year.
func (s *Store) ListTaxDocuments(ctx context.Context, userID string, year int) ([]domain.TaxDocument, error) {
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: yearPrefix(userID, year)})

	var docs []domain.TaxDocument
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("ListTaxDocuments: iter next: %w", err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		docs = append(docs, documentFromObject(s.bucket, userID, year, attrs.Name, attrs.Metadata, attrs.Created))
	}
	return docs, nil
}

// UploadTaxDocument uploads a local file as a tax document and returns its
// gs:// URI.
func (s *Store) UploadTaxDocument(ctx context.Context, userID string, year int, filePath, documentType string, transactionIDs []string) (string, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return "", fmt.Errorf("UploadTaxDocument: open file %q: %w", filePath, err)
	}
	defer f.Close()

	ctx, cancel := context.WithTimeout(ctx, uploadTimeout)
	defer cancel()

	name := ObjectName(userID, year, path.Base(filePath))
	w := s.client.Bucket(s.bucket).Object(name).NewWriter(ctx)
	w.Metadata = objectMetadata(documentType, transactionIDs)

	if _, err := io.Copy(w, f); err != nil {
		_ = w.Close()
		return "", fmt.Errorf("UploadTaxDocument: copy to GCS writer: %w", err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("UploadTaxDocument: finalize upload: %w", err)
	}
	return "gs://" + s.bucket + "/" + name, nil
}

func yearPrefix(userID string, year int) string {
	return rootPrefix + "/" + userID + "/" + strconv.Itoa(year) + "/"
}

// ObjectName is the object path of a tax document file.
func ObjectName(userID string, year int, fileName string) string {
	return yearPrefix(userID, year) + fileName
}

func objectMetadata(documentType string, transactionIDs []string) map[string]string {
	meta := map[string]string{}
	if documentType != "" {
		meta[MetaDocumentType] = documentType
	}
	if len(transactionIDs) > 0 {
		meta[MetaTransactionIDs] = strings.Join(transactionIDs, ",")
	}
	return meta
}

func documentFromObject(bucket, userID string, year int, name string, meta map[string]string, created time.Time) domain.TaxDocument {
	docType := meta[MetaDocumentType]
	if docType == "" {
		docType = "unknown"
	}
	return domain.TaxDocument{
		ID:                    path.Base(name),
		UserID:                userID,
		Year:                  year,
		DocumentType:          docType,
		URI:                   "gs://" + bucket + "/" + name,
		UploadedAt:            created.UTC(),
		RelatedTransactionIDs: splitIDs(meta[MetaTransactionIDs]),
	}
}

func splitIDs(s string) []string {
	var ids []string
	for _, part := range strings.Split(s, ",") {
		if id := strings.TrimSpace(part); id != "" {
			ids = append(ids, id)
		}
	}
	return ids
}

// ParseURI splits a gs://bucket/object URI.
func ParseURI(uri string) (bucket, object string, err error) {
	if !strings.HasPrefix(uri, "gs://") {
		return "", "", fmt.Errorf("invalid GCS URI: %s", uri)
	}
	parts := strings.SplitN(strings.TrimPrefix(uri, "gs://"), "/", 2)
	if len(parts) != 2 || parts[0] == "" || parts[1] == "" {
		return "", "", fmt.Errorf("invalid GCS URI (no object path): %s", uri)
	}
	return parts[0], parts[1], nil
}
