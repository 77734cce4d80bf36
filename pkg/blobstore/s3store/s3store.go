// Package s3store is an AWS S3-backed blobstore.Region. Each chunk is
// stored as its own object keyed by the session's pmid stem, session id
// and the chunk's index, so S3's own per-object durability stands in for
// the stable memory region abstraction, built on
// aws-sdk-go-v2's s3 service package.
package s3store

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/memvault/memvault/pkg/blobstore"
	"github.com/memvault/memvault/pkg/memvault/ids"
	"github.com/memvault/memvault/pkg/memvault/merrors"
)

// Client is the subset of the S3 API this package depends on, so tests can
// substitute a fake.
type Client interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, in *s3.GetObjectInput, opts ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	DeleteObjects(ctx context.Context, in *s3.DeleteObjectsInput, opts ...func(*s3.Options)) (*s3.DeleteObjectsOutput, error)
	ListObjectsV2(ctx context.Context, in *s3.ListObjectsV2Input, opts ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
}

// Region is an S3-backed blobstore.Region.
type Region struct {
	client Client
	bucket string
	prefix string
}

// NewRegion constructs a Region writing chunk objects under
// "<prefix>/<pmidStem>/<sessionID>/<chunkIdx>" in bucket.
func NewRegion(client Client, bucket, prefix string) *Region {
	return &Region{client: client, bucket: bucket, prefix: prefix}
}

func (r *Region) objectKey(pmidStem string, sessionID ids.SessionId, chunkIdx uint32) string {
	return fmt.Sprintf("%s/%s/%s/%010d", r.prefix, pmidStem, sessionID, chunkIdx)
}

func (r *Region) sessionPrefix(pmidStem string, sessionID ids.SessionId) string {
	return fmt.Sprintf("%s/%s/%s/", r.prefix, pmidStem, sessionID)
}

// ForSession implements blobstore.Region.
func (r *Region) ForSession(pmidStem string, sessionID ids.SessionId, chunkSize uint32) blobstore.Sink {
	return &sink{region: r, pmidStem: pmidStem, sessionID: sessionID, chunkSize: chunkSize}
}

type sink struct {
	region    *Region
	pmidStem  string
	sessionID ids.SessionId
	chunkSize uint32
}

func (s *sink) WriteChunk(ctx context.Context, chunkIdx uint32, chunk []byte) error {
	if uint32(len(chunk)) > s.chunkSize {
		return merrors.InvalidArgument("oversized chunk")
	}
	key := s.region.objectKey(s.pmidStem, s.sessionID, chunkIdx)
	_, err := s.region.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.region.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(chunk),
	})
	if err != nil {
		return merrors.Internalf("s3store put failed: %v", err)
	}
	return nil
}

func (s *sink) ReadRange(ctx context.Context, offset, length uint64) ([]byte, error) {
	chunkIdx := uint32(offset / uint64(s.chunkSize))
	inner := offset % uint64(s.chunkSize)

	key := s.region.objectKey(s.pmidStem, s.sessionID, chunkIdx)
	out, err := s.region.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.region.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, merrors.NotFound("chunk object not present")
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, merrors.Internalf("s3store read failed: %v", err)
	}
	if inner+length > uint64(len(data)) {
		return nil, merrors.NotFound("chunk range not present")
	}
	return data[inner : inner+length], nil
}

func (s *sink) Erase(ctx context.Context) error {
	prefix := s.region.sessionPrefix(s.pmidStem, s.sessionID)

	listOut, err := s.region.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.region.bucket),
		Prefix: aws.String(prefix),
	})
	if err != nil {
		return merrors.Internalf("s3store list failed: %v", err)
	}
	if len(listOut.Contents) == 0 {
		return nil
	}

	objs := make([]s3types.ObjectIdentifier, 0, len(listOut.Contents))
	for _, obj := range listOut.Contents {
		objs = append(objs, s3types.ObjectIdentifier{Key: obj.Key})
	}

	_, err = s.region.client.DeleteObjects(ctx, &s3.DeleteObjectsInput{
		Bucket: aws.String(s.region.bucket),
		Delete: &s3types.Delete{Objects: objs},
	})
	if err != nil {
		return merrors.Internalf("s3store delete failed: %v", err)
	}
	return nil
}
