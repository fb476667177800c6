package minio

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
)

// Store 基于 MinIO 的 backend.BlobStore
type Store struct {
	client  *minio.Client
	bucket  string
	baseURL string
}

func NewStore(client *minio.Client, bucket, baseURL string) *Store {
	return &Store{client: client, bucket: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// Put 上传文件到MinIO，返回公共访问URL
func (s *Store) Put(ctx context.Context, objectName string, reader io.Reader, size int64, contentType string) (string, error) {
	if s.client == nil {
		return "", fmt.Errorf("minio client is not initialized")
	}

	uploadInfo, err := s.client.PutObject(ctx, s.bucket, objectName, reader, size, minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload file: %w", err)
	}

	return s.PublicURL(uploadInfo.Key), nil
}

// Remove 删除MinIO中的文件
func (s *Store) Remove(ctx context.Context, objectName string) error {
	if s.client == nil {
		return fmt.Errorf("minio client is not initialized")
	}

	if err := s.client.RemoveObject(ctx, s.bucket, objectName, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}

// List 列出前缀下的所有对象
func (s *Store) List(ctx context.Context, prefix string) ([]string, error) {
	if s.client == nil {
		return nil, fmt.Errorf("minio client is not initialized")
	}

	var names []string
	for obj := range s.client.ListObjects(ctx, s.bucket, minio.ListObjectsOptions{Prefix: prefix, Recursive: true}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		names = append(names, obj.Key)
	}
	return names, nil
}

// PublicURL 获取文件的公共访问URL
func (s *Store) PublicURL(objectName string) string {
	return s.baseURL + "/" + strings.TrimLeft(objectName, "/")
}
