package objectstore

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// linkTTL bounds how long a shared certificate URL stays downloadable.
const linkTTL = 10 * time.Minute

// s3API is the minimal S3 interface required by Client.
type s3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// presignAPI is the presigning interface required by Client.
// *s3.PresignClient satisfies this interface.
type presignAPI interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Uploader stores generated documents and hands out short-lived links.
type Uploader interface {
	UploadPDF(ctx context.Context, key string, pdf []byte) (string, error)
}

// Client uploads documents to an S3 bucket and presigns download URLs.
type Client struct {
	api        s3API
	presigner  presignAPI
	bucketName string
}

// New creates a new object store Client.
func New(api s3API, presigner presignAPI, bucketName string) (*Client, error) {
	if api == nil {
		return nil, errors.New("objectstore: api must not be nil")
	}
	if presigner == nil {
		return nil, errors.New("objectstore: presigner must not be nil")
	}
	if strings.TrimSpace(bucketName) == "" {
		return nil, errors.New("objectstore: bucket name must not be empty")
	}
	return &Client{api: api, presigner: presigner, bucketName: bucketName}, nil
}

// UploadPDF stores the document under the given key and returns a presigned
// GET URL valid for ten minutes.
func (c *Client) UploadPDF(ctx context.Context, key string, pdf []byte) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", errors.New("objectstore: key must not be empty")
	}
	if len(pdf) == 0 {
		return "", errors.New("objectstore: document is empty")
	}

	_, err := c.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(c.bucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(pdf),
		ContentType: aws.String("application/pdf"),
	})
	if err != nil {
		return "", fmt.Errorf("objectstore: put object %q: %w", key, err)
	}

	req, err := c.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(c.bucketName),
		Key:    aws.String(key),
	}, func(po *s3.PresignOptions) {
		po.Expires = linkTTL
	})
	if err != nil {
		return "", fmt.Errorf("objectstore: presign %q: %w", key, err)
	}
	return req.URL, nil
}
