package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"go.uber.org/zap"

	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/entity"
	"github.com/Abid-Al-Labib/erp-base-sub003/internal/ops/repository"
)

// DocumentService stores quotation and receipt files for ordered parts
// in object storage, with metadata rows in the database. The object is
// written before the row; an orphan object from a failed insert is
// harmless and unreferenced.
type DocumentService struct {
	docRepo     *repository.DocumentRepository
	orderRepo   *repository.OrderRepository
	minioClient *minio.Client
	bucketName  string
	logger      *zap.Logger
}

func NewDocumentService(docRepo *repository.DocumentRepository, orderRepo *repository.OrderRepository,
	minioClient *minio.Client, bucketName string, logger *zap.Logger) *DocumentService {
	return &DocumentService{
		docRepo:     docRepo,
		orderRepo:   orderRepo,
		minioClient: minioClient,
		bucketName:  bucketName,
		logger:      logger,
	}
}

// Upload stores the file and records it against an ordered part.
func (s *DocumentService) Upload(ctx context.Context, orderedPartID, kind, actorID string,
	reader io.Reader, fileName string, fileSize int64, contentType string) (*entity.OrderDocument, error) {
	if kind != entity.DocQuotation && kind != entity.DocReceipt {
		return nil, fmt.Errorf("%w: unknown document kind %q", ErrPreconditionNotMet, kind)
	}
	if s.minioClient == nil {
		return nil, ErrStorageUnavailable
	}
	part, err := s.orderRepo.GetOrderedPart(orderedPartID)
	if err != nil {
		return nil, fmt.Errorf("ordered part not found: %w", err)
	}

	objectKey := fmt.Sprintf("order-docs/%s/%s%s",
		time.Now().Format("2006/01/02"), uuid.New().String()[:8], filepath.Ext(fileName))
	if _, err := s.minioClient.PutObject(ctx, s.bucketName, objectKey, reader, fileSize,
		minio.PutObjectOptions{ContentType: contentType}); err != nil {
		return nil, fmt.Errorf("upload file: %w", err)
	}

	doc := &entity.OrderDocument{
		OrderedPartID: part.ID,
		Kind:          kind,
		FileName:      fileName,
		ObjectKey:     objectKey,
		FileSize:      fileSize,
		MimeType:      contentType,
		UploadedBy:    actorID,
	}
	if err := s.docRepo.Create(doc); err != nil {
		return nil, fmt.Errorf("create document: %w", err)
	}
	s.logger.Info("document uploaded",
		zap.String("document_id", doc.ID),
		zap.String("ordered_part_id", part.ID),
		zap.String("kind", kind),
		zap.Int64("size", fileSize))
	return doc, nil
}

// Download streams a stored document. The caller closes the reader.
func (s *DocumentService) Download(ctx context.Context, id string) (io.ReadCloser, *entity.OrderDocument, error) {
	doc, err := s.docRepo.GetByID(id)
	if err != nil {
		return nil, nil, fmt.Errorf("document not found: %w", err)
	}
	if s.minioClient == nil {
		return nil, nil, ErrStorageUnavailable
	}
	object, err := s.minioClient.GetObject(ctx, s.bucketName, doc.ObjectKey, minio.GetObjectOptions{})
	if err != nil {
		return nil, nil, fmt.Errorf("get object: %w", err)
	}
	return object, doc, nil
}

func (s *DocumentService) ListByOrderedPart(orderedPartID string) ([]entity.OrderDocument, error) {
	return s.docRepo.ListByOrderedPart(orderedPartID)
}
