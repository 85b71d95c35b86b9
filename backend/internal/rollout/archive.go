package rollout

import (
	"bytes"
	"context"
	"fmt"
	"path"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/cockroachdb/errors"
)

// S3API is the subset of the S3 client the archive uses.
type S3API interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, opts ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes raw events and deployed configurations to a bucket under
//
//	{application}/{environment}/{number}/events/{stage}-{invocation}.json
//	{application}/{environment}/{number}/configuration
type Archive struct {
	s3     S3API
	bucket string
}

// NewArchive creates an Archive on bucket.
func NewArchive(client S3API, bucket string) *Archive {
	return &Archive{s3: client, bucket: bucket}
}

func deploymentPrefix(ev Event) string {
	return path.Join(ev.Application.ID, ev.Environment.ID, fmt.Sprintf("%010d", ev.DeploymentNumber))
}

// EventKey returns the object key of the raw event.
func EventKey(ev Event) string {
	name := string(ev.Stage)
	if ev.InvocationID != "" {
		name += "-" + ev.InvocationID
	}
	return path.Join(deploymentPrefix(ev), "events", name+".json")
}

// ConfigurationKey returns the object key of the deployed configuration.
func ConfigurationKey(ev Event) string {
	return path.Join(deploymentPrefix(ev), "configuration")
}

// PutEvent stores the raw EventBridge detail.
func (a *Archive) PutEvent(ctx context.Context, ev Event, raw []byte) error {
	return a.put(ctx, EventKey(ev), raw, "application/json")
}

// PutConfiguration stores the configuration that was deployed.
func (a *Archive) PutConfiguration(ctx context.Context, ev Event, cfg Configuration) error {
	return a.put(ctx, ConfigurationKey(ev), cfg.Content, cfg.ContentType)
}

func (a *Archive) put(ctx context.Context, key string, body []byte, contentType string) error {
	in := &s3.PutObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
		Body:   bytes.NewReader(body),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}
	if _, err := a.s3.PutObject(ctx, in); err != nil {
		return errors.Wrapf(err, "failed to archive %s", key)
	}
	return nil
}
