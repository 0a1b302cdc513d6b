// Package s3io stores raw uploads in the S3 upload bucket.
package s3io

import (
	"bytes"
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ObjectPutter is the S3 surface the uploader needs.
type ObjectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Uploader writes opaque blobs to one bucket. It satisfies the
// repository's BlobStore.
type Uploader struct {
	S3     ObjectPutter
	Bucket string
}

// Put writes body under key. Success or failure only; no dedup.
func (u *Uploader) Put(ctx context.Context, key string, body []byte) error {
	_, err := u.S3.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(u.Bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	})
	return err
}
