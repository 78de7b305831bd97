package store

import (
	"bytes"
	"context"
	"strings"

	storage "github.com/supabase-community/storage-go"
)

// SupabaseBlob keeps the blob as a single object in a Supabase Storage bucket.
type SupabaseBlob struct {
	client *storage.Client
	bucket string
	object string
}

func NewSupabaseBlob(supabaseURL, key, bucket, object string) *SupabaseBlob {
	return &SupabaseBlob{
		client: storage.NewClient(strings.TrimRight(supabaseURL, "/")+"/storage/v1", key, nil),
		bucket: bucket,
		object: object,
	}
}

func (b *SupabaseBlob) Read(ctx context.Context) ([]byte, error) {
	data, err := b.client.DownloadFile(b.bucket, b.object)
	if err != nil {
		if isObjectNotFound(err) {
			return nil, ErrBlobNotFound
		}
		return nil, err
	}
	return data, nil
}

func (b *SupabaseBlob) Write(ctx context.Context, data []byte) error {
	contentType := "application/json"
	upsert := true
	_, err := b.client.UploadFile(b.bucket, b.object, bytes.NewReader(data), storage.FileOptions{
		ContentType: &contentType,
		Upsert:      &upsert,
	})
	return err
}

// Storage reports a missing object only through the error message.
func isObjectNotFound(err error) bool {
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "not found") || strings.Contains(msg, "not_found")
}
