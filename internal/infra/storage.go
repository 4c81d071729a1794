package infra

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"servitec/internal/config"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/rs/zerolog/log"
)

// Storage sube archivos (documentos tributarios, fotos, firmas, PDFs) a un
// bucket S3 compatible y entrega una URL pública estable.
type Storage struct {
	client    *minio.Client
	bucket    string
	publicURL string
	cb        *CircuitBreaker
}

// NewStorage crea el cliente MinIO. Si el bucket no existe intenta crearlo;
// un error en ese paso se registra pero no impide arrancar.
func NewStorage(ctx context.Context, cfg *config.Config) (*Storage, error) {
	client, err := minio.New(cfg.StorageEndpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.StorageAccessKey, cfg.StorageSecretKey, ""),
		Secure: cfg.StorageUseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("storage: client: %w", err)
	}

	publicURL := strings.TrimRight(cfg.StoragePublicURL, "/")
	if publicURL == "" {
		scheme := "http"
		if cfg.StorageUseSSL {
			scheme = "https"
		}
		publicURL = fmt.Sprintf("%s://%s/%s", scheme, cfg.StorageEndpoint, cfg.StorageBucket)
	}

	s := &Storage{
		client:    client,
		bucket:    cfg.StorageBucket,
		publicURL: publicURL,
		cb:        NewCircuitBreaker(DefaultCBConfig("storage")),
	}

	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := s.ensureBucket(ctx); err != nil {
		log.Warn().Err(err).Str("bucket", s.bucket).Msg("storage: bucket check failed")
	}
	return s, nil
}

func (s *Storage) ensureBucket(ctx context.Context) error {
	exists, err := s.client.BucketExists(ctx, s.bucket)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}
	return s.client.MakeBucket(ctx, s.bucket, minio.MakeBucketOptions{})
}

// Ping verifica que el bucket responda. Con el breaker abierto falla sin
// llamar a MinIO.
func (s *Storage) Ping(ctx context.Context) error {
	if s.cb.State() == CBOpen {
		return ErrCircuitOpen
	}
	_, err := s.client.BucketExists(ctx, s.bucket)
	return err
}

// Upload guarda el contenido bajo carpeta/ con un nombre único y devuelve la
// URL pública.
func (s *Storage) Upload(ctx context.Context, carpeta, nombreOriginal string, r io.Reader, size int64, contentType string) (string, error) {
	objectName := ObjectName(carpeta, nombreOriginal)
	err := s.cb.Execute(func() error {
		_, err := s.client.PutObject(ctx, s.bucket, objectName, r, size, minio.PutObjectOptions{
			ContentType: contentType,
		})
		return err
	})
	if err != nil {
		return "", fmt.Errorf("storage: upload %s: %w", objectName, err)
	}
	return s.publicURL + "/" + objectName, nil
}

// Download lee un objeto a partir de su URL pública.
func (s *Storage) Download(ctx context.Context, url string) ([]byte, error) {
	objectName := strings.TrimPrefix(url, s.publicURL+"/")
	if objectName == url {
		return nil, fmt.Errorf("storage: url fuera del bucket: %s", url)
	}
	var data []byte
	err := s.cb.Execute(func() error {
		obj, err := s.client.GetObject(ctx, s.bucket, objectName, minio.GetObjectOptions{})
		if err != nil {
			return err
		}
		defer obj.Close()
		data, err = io.ReadAll(obj)
		return err
	})
	return data, err
}

// ObjectName arma "carpeta/<uuid><ext>" conservando la extensión original.
func ObjectName(carpeta, nombreOriginal string) string {
	ext := strings.ToLower(path.Ext(nombreOriginal))
	return path.Join(carpeta, uuid.NewString()+ext)
}
