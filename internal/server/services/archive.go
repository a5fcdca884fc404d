package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/gophvote/internal/common"
	sc "github.com/dmitrijs2005/gophvote/internal/server/config"
	"github.com/dmitrijs2005/gophvote/internal/server/models"
	"github.com/google/uuid"
)

const exportLinkValidity = 15 * time.Minute

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

type proposalLister interface {
	List(ctx context.Context) ([]*models.Proposal, error)
}

// Export describes an uploaded snapshot.
type Export struct {
	Key   string
	URL   string
	Count int
}

type exportDocument struct {
	RequestedBy string             `json:"requested_by"`
	GeneratedAt time.Time          `json:"generated_at"`
	Count       int                `json:"count"`
	Proposals   []*models.Proposal `json:"proposals"`
}

// ArchiveService writes JSON snapshots of the registry to S3-compatible
// storage and hands out presigned download links.
type ArchiveService struct {
	proposals proposalLister
	config    *sc.Config
	now       func() time.Time
}

func NewArchiveService(proposals proposalLister, config *sc.Config) *ArchiveService {
	return &ArchiveService{proposals: proposals, config: config, now: time.Now}
}

// Enabled reports whether an S3 endpoint is configured.
func (s *ArchiveService) Enabled() bool { return s.config.S3BaseEndpoint != "" }

func exportKey(t time.Time) string {
	return fmt.Sprintf("exports/%04d/%02d/%02d/%s.json", t.Year(), t.Month(), t.Day(), uuid.New())
}

func (s *ArchiveService) getClient(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	}), nil
}

// Export uploads every proposal as one JSON document and returns its key
// with a link valid for 15 minutes.
func (s *ArchiveService) Export(ctx context.Context, caller string) (*Export, error) {
	if !s.Enabled() {
		return nil, fmt.Errorf("%w: exports need an S3 endpoint", common.ErrorNotConfigured)
	}

	list, err := s.proposals.List(ctx)
	if err != nil {
		return nil, err
	}

	now := s.now().UTC()
	body, err := json.Marshal(exportDocument{
		RequestedBy: caller,
		GeneratedAt: now,
		Count:       len(list),
		Proposals:   list,
	})
	if err != nil {
		return nil, fmt.Errorf("error encoding export: %w", err)
	}

	client, err := s.getClient(ctx)
	if err != nil {
		return nil, err
	}

	bucket := s.config.S3Bucket
	key := exportKey(now)

	if _, err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
	}); err != nil {
		return nil, fmt.Errorf("error uploading export: %w", err)
	}

	req, err := presignGetObject(newS3PresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(exportLinkValidity))
	if err != nil {
		return nil, fmt.Errorf("error presigning export: %w", err)
	}

	return &Export{Key: key, URL: req.URL, Count: len(list)}, nil
}
