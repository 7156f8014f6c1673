//go:build integration
// +build integration

package s3_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsConfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/localstack"

	"github.com/williamokano/s3compat/pkg/config"
	"github.com/williamokano/s3compat/pkg/storage"
	"github.com/williamokano/s3compat/pkg/storage/s3"
	"github.com/williamokano/s3compat/pkg/transport"
)

const (
	localstackKey    = "test"
	localstackBucket = "integration-media"
)

func TestClientAgainstLocalStack(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test in short mode")
	}

	ctx := context.Background()
	endpoint := setupLocalStack(ctx, t)
	sdk := newSDKClient(ctx, t, endpoint)

	_, err := sdk.CreateBucket(ctx, &awss3.CreateBucketInput{Bucket: aws.String(localstackBucket)})
	require.NoError(t, err, "failed to create bucket")

	settings := config.NewStore(config.Settings{
		AccessKey: localstackKey,
		SecretKey: localstackKey,
		Endpoint:  endpoint,
		Bucket:    localstackBucket,
	})
	client := s3.New(settings,
		transport.New(transport.WithAllowPrivateNetworks()),
		zerolog.Nop(),
		s3.WithEndpointPolicy(config.Policy{AllowPrivateHosts: true}),
	)

	content := []byte("%PDF-1.4\n% integration test document\n")
	local := filepath.Join(t.TempDir(), "report.pdf")
	require.NoError(t, os.WriteFile(local, content, 0o600))

	t.Run("upload", func(t *testing.T) {
		res, err := client.Upload(ctx, "docs/report.pdf", local)
		require.NoError(t, err)
		assert.Equal(t, "report.pdf", res.Name)
		assert.Equal(t, "/docs/report.pdf", res.Path)
		assert.Equal(t, uint64(len(content)), res.Size)

		head, err := sdk.HeadObject(ctx, &awss3.HeadObjectInput{
			Bucket: aws.String(localstackBucket),
			Key:    aws.String("docs/report.pdf"),
		})
		require.NoError(t, err)
		assert.Equal(t, "application/pdf", aws.ToString(head.ContentType))
		assert.Equal(t, int64(len(content)), aws.ToInt64(head.ContentLength))
	})

	t.Run("batch upload", func(t *testing.T) {
		dir := t.TempDir()
		var sources []string
		for i := range 3 {
			p := filepath.Join(dir, fmt.Sprintf("note-%d.txt", i))
			require.NoError(t, os.WriteFile(p, []byte(fmt.Sprintf("note %d", i)), 0o600))
			sources = append(sources, p)
		}

		results := storage.NewMultiUploader(client, 2, zerolog.Nop()).Upload(ctx, "docs/notes", sources)
		for _, r := range results {
			assert.True(t, r.Success, "upload of %s: %v", r.Source, r.Error)
		}
	})

	t.Run("list buckets", func(t *testing.T) {
		names, err := client.ListBuckets(ctx)
		require.NoError(t, err)
		assert.Contains(t, names, localstackBucket)
	})

	t.Run("list folder", func(t *testing.T) {
		entries, err := client.ListObjects(ctx, "docs/")
		require.NoError(t, err)
		require.Len(t, entries, 2)

		assert.Equal(t, "notes", entries[0].Name)
		assert.True(t, entries[0].IsFolder)
		assert.Equal(t, "docs/notes/", entries[0].Path)

		assert.Equal(t, "report.pdf", entries[1].Name)
		assert.False(t, entries[1].IsFolder)
		assert.Equal(t, uint64(len(content)), entries[1].Size)
		assert.NotNil(t, entries[1].LastModified)
	})

	t.Run("presigned download", func(t *testing.T) {
		link, err := client.DownloadURL(settings.Load().GetURLPrefix() + "docs/report.pdf")
		require.NoError(t, err)

		resp, err := http.Get(link)
		require.NoError(t, err)
		defer resp.Body.Close()

		require.Equal(t, http.StatusOK, resp.StatusCode)
		assert.Equal(t, `attachment; filename="report.pdf"`, resp.Header.Get("Content-Disposition"))
		body, err := io.ReadAll(resp.Body)
		require.NoError(t, err)
		assert.Equal(t, content, body)
	})
}

func setupLocalStack(ctx context.Context, t *testing.T) string {
	t.Helper()

	container, err := localstack.Run(ctx, "localstack/localstack:3.0",
		testcontainers.WithEnv(map[string]string{"SERVICES": "s3"}),
	)
	require.NoError(t, err, "failed to start LocalStack")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	mappedPort, err := container.MappedPort(ctx, "4566/tcp")
	require.NoError(t, err)
	host, err := container.Host(ctx)
	require.NoError(t, err)

	return fmt.Sprintf("http://%s:%s", host, mappedPort.Port())
}

func newSDKClient(ctx context.Context, t *testing.T, endpoint string) *awss3.Client {
	t.Helper()

	cfg, err := awsConfig.LoadDefaultConfig(ctx,
		awsConfig.WithRegion(config.DefaultRegion),
		awsConfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(localstackKey, localstackKey, ""),
		),
	)
	require.NoError(t, err, "failed to load AWS config")

	return awss3.NewFromConfig(cfg, func(o *awss3.Options) {
		o.BaseEndpoint = aws.String(endpoint)
		o.UsePathStyle = true
	})
}
