package storage_test

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/williamokano/s3compat/pkg/storage"
	"github.com/williamokano/s3compat/pkg/storage/mocks"
)

func TestMultiUploader_Upload(t *testing.T) {
	t.Run("single_file_success", func(t *testing.T) {
		mockStore := mocks.NewMockStore(t)
		mockStore.On("Upload", mock.Anything, "docs/report.pdf", "/tmp/in/report.pdf").
			Return(&storage.UploadResult{Name: "report.pdf", Key: "docs/report.pdf", Path: "/docs/report.pdf", Size: 42}, nil).
			Once()

		uploader := storage.NewMultiUploader(mockStore, 2, zerolog.Nop())
		results := uploader.Upload(context.Background(), "/docs", []string{"/tmp/in/report.pdf"})

		require.Len(t, results, 1)
		assert.True(t, results[0].Success)
		assert.NoError(t, results[0].Error)
		assert.Equal(t, "docs/report.pdf", results[0].Key)
		assert.Equal(t, "/docs/report.pdf", results[0].Upload.Path)
	})

	t.Run("single_file_failure", func(t *testing.T) {
		mockStore := mocks.NewMockStore(t)
		rejected := &storage.UploadRejectedError{StatusCode: 403, Reason: "Forbidden"}
		mockStore.On("Upload", mock.Anything, mock.Anything, mock.Anything).Return(nil, rejected).Once()

		uploader := storage.NewMultiUploader(mockStore, 2, zerolog.Nop())
		results := uploader.Upload(context.Background(), "", []string{"/tmp/a.zip"})

		require.Len(t, results, 1)
		assert.False(t, results[0].Success)
		assert.Equal(t, "a.zip", results[0].Key)
		assert.ErrorIs(t, results[0].Error, storage.ErrUploadRejected)
	})

	t.Run("partial_failure_keeps_order", func(t *testing.T) {
		mockStore := mocks.NewMockStore(t)
		mockStore.On("Upload", mock.Anything, "in/a.zip", "/src/a.zip").Return(&storage.UploadResult{Key: "in/a.zip"}, nil).Once()
		mockStore.On("Upload", mock.Anything, "in/b.zip", "/src/b.zip").Return(nil, storage.ErrFileAccess).Once()
		mockStore.On("Upload", mock.Anything, "in/c.zip", "/src/c.zip").Return(&storage.UploadResult{Key: "in/c.zip"}, nil).Once()

		uploader := storage.NewMultiUploader(mockStore, 3, zerolog.Nop())
		results := uploader.Upload(context.Background(), "in/", []string{"/src/a.zip", "/src/b.zip", "/src/c.zip"})

		require.Len(t, results, 3)
		assert.Equal(t, "/src/a.zip", results[0].Source)
		assert.True(t, results[0].Success)
		assert.False(t, results[1].Success)
		assert.ErrorIs(t, results[1].Error, storage.ErrFileAccess)
		assert.True(t, results[2].Success)
	})

	t.Run("rejected_names_never_reach_store", func(t *testing.T) {
		mockStore := mocks.NewMockStore(t)

		uploader := storage.NewMultiUploader(mockStore, 1, zerolog.Nop())
		results := uploader.Upload(context.Background(), "x", []string{"/tmp/shell.php", "/tmp/run.exe"})

		require.Len(t, results, 2)
		for _, r := range results {
			assert.ErrorIs(t, r.Error, storage.ErrFileTypeNotAllowed)
		}
		mockStore.AssertNotCalled(t, "Upload", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("unsafe_folder", func(t *testing.T) {
		mockStore := mocks.NewMockStore(t)

		uploader := storage.NewMultiUploader(mockStore, 1, zerolog.Nop())
		results := uploader.Upload(context.Background(), "../etc", []string{"/tmp/a.zip"})

		require.Len(t, results, 1)
		assert.ErrorIs(t, results[0].Error, storage.ErrUnsafePath)
	})

	t.Run("respects_concurrency_limit", func(t *testing.T) {
		var inflight, peak atomic.Int32
		mockStore := mocks.NewMockStore(t)
		mockStore.On("Upload", mock.Anything, mock.Anything, mock.Anything).
			Return(func(ctx context.Context, key, _ string) (*storage.UploadResult, error) {
				n := inflight.Add(1)
				for {
					p := peak.Load()
					if n <= p || peak.CompareAndSwap(p, n) {
						break
					}
				}
				time.Sleep(10 * time.Millisecond)
				inflight.Add(-1)
				return &storage.UploadResult{Key: key}, nil
			}).Times(6)

		sources := []string{"/a/1.zip", "/a/2.zip", "/a/3.zip", "/a/4.zip", "/a/5.zip", "/a/6.zip"}
		uploader := storage.NewMultiUploader(mockStore, 2, zerolog.Nop())
		results := uploader.Upload(context.Background(), "", sources)

		require.Len(t, results, 6)
		for _, r := range results {
			assert.True(t, r.Success)
		}
		assert.LessOrEqual(t, peak.Load(), int32(2))
	})

	t.Run("cancelled_context", func(t *testing.T) {
		mockStore := mocks.NewMockStore(t)
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		uploader := storage.NewMultiUploader(mockStore, 1, zerolog.Nop())
		results := uploader.Upload(ctx, "", []string{"/a/1.zip"})

		require.Len(t, results, 1)
		assert.False(t, results[0].Success)
		assert.ErrorIs(t, results[0].Error, context.Canceled)
	})

	t.Run("no_sources", func(t *testing.T) {
		uploader := storage.NewMultiUploader(mocks.NewMockStore(t), 1, zerolog.Nop())
		assert.Empty(t, uploader.Upload(context.Background(), "", nil))
	})
}
