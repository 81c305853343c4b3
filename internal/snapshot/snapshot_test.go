package snapshot

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/usersync/internal/logging"
	"github.com/dmitrijs2005/usersync/internal/models"
	"github.com/dmitrijs2005/usersync/internal/repositories/users"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakePutter struct {
	in   *s3.PutObjectInput
	body []byte
	err  error
}

func (f *fakePutter) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.in = in
	b, err := io.ReadAll(in.Body)
	if err != nil {
		return nil, err
	}
	f.body = b
	return &s3.PutObjectOutput{}, nil
}

func TestExport_UploadsDocument(t *testing.T) {
	repo := users.NewMemoryRepository(
		models.UserRecord{Username: "alice", Account: "a1", Secret: "h1"},
		models.UserRecord{Username: "bob", Account: "b1", Secret: "h2"},
	)
	put := &fakePutter{}
	e := NewExporter(put, "backups", "client", logging.Nop{})
	e.now = func() time.Time { return time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC) }

	key, err := e.Export(context.Background(), repo)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key, "snapshots/client/20250301T120000Z-"), key)
	assert.Equal(t, "backups", aws.ToString(put.in.Bucket))
	assert.Equal(t, key, aws.ToString(put.in.Key))
	assert.Equal(t, "application/json", aws.ToString(put.in.ContentType))

	var doc Document
	require.NoError(t, json.Unmarshal(put.body, &doc))
	assert.Equal(t, Document{
		Role:    "client",
		TakenAt: e.now().UnixMilli(),
		Count:   2,
		Records: []string{"alice|a1|h1", "bob|b1|h2"},
	}, doc)
}

func TestExport_PutError(t *testing.T) {
	e := NewExporter(&fakePutter{err: errors.New("denied")}, "b", "server", logging.Nop{})

	_, err := e.Export(context.Background(), users.NewMemoryRepository())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "denied")
}

func TestNewS3Client_AppliesSettings(t *testing.T) {
	origLoad := loadDefaultAWSConfig
	origNew := newS3ClientFromConfig
	t.Cleanup(func() {
		loadDefaultAWSConfig = origLoad
		newS3ClientFromConfig = origNew
	})

	loadDefaultAWSConfig = func(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		var lo awsconfig.LoadOptions
		for _, fn := range optFns {
			require.NoError(t, fn(&lo))
		}
		assert.Equal(t, "eu-west-1", lo.Region)
		require.NotNil(t, lo.Credentials)
		creds, err := lo.Credentials.Retrieve(ctx)
		require.NoError(t, err)
		assert.Equal(t, "ak", creds.AccessKeyID)
		return aws.Config{}, nil
	}

	var opts s3.Options
	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		for _, fn := range optFns {
			fn(&opts)
		}
		return &s3.Client{}
	}

	_, err := NewS3Client(context.Background(), Settings{
		Region: "eu-west-1", AccessKey: "ak", SecretKey: "sk", BaseEndpoint: "http://127.0.0.1:9000",
	})
	require.NoError(t, err)
	assert.Equal(t, "http://127.0.0.1:9000", aws.ToString(opts.BaseEndpoint))
	assert.True(t, opts.UsePathStyle)
}

func TestNewS3Client_LoadError(t *testing.T) {
	orig := loadDefaultAWSConfig
	t.Cleanup(func() { loadDefaultAWSConfig = orig })
	loadDefaultAWSConfig = func(context.Context, ...func(*awsconfig.LoadOptions) error) (aws.Config, error) {
		return aws.Config{}, errors.New("no config")
	}

	_, err := NewS3Client(context.Background(), Settings{})
	assert.EqualError(t, err, "no config")
}
