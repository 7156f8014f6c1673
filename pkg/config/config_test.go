package config

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSettings_Defaults(t *testing.T) {
	var s Settings

	assert.Equal(t, "us-east-1", s.GetRegion())
	assert.Equal(t, 5, s.GetLinkExpiration())
	assert.Equal(t, "wc-s3cs://", s.GetURLPrefix())
	assert.Equal(t, "info", s.GetLogLevel())
	assert.Equal(t, "json", s.GetLogFormat())
	assert.Equal(t, ":8080", s.GetListenAddr())
	assert.Equal(t, 3, s.GetUploadConcurrency())
}

func TestSettings_GetLinkExpiration(t *testing.T) {
	tests := []struct {
		minutes int
		want    int
	}{
		{-3, 5},
		{0, 5},
		{1, 1},
		{15, 15},
		{60, 60},
		{61, 60},
		{1440, 60},
	}

	for _, tt := range tests {
		s := Settings{LinkExpirationMinutes: tt.minutes}
		assert.Equal(t, tt.want, s.GetLinkExpiration(), "minutes=%d", tt.minutes)
	}
}

func TestSettings_IsConfigured(t *testing.T) {
	full := Settings{AccessKey: "AK", SecretKey: "SK", Bucket: "media", Endpoint: "s3.example.com"}
	assert.True(t, full.IsConfigured())
	assert.True(t, full.IsConfiguredForListing())

	noBucket := full
	noBucket.Bucket = ""
	assert.False(t, noBucket.IsConfigured())
	assert.True(t, noBucket.IsConfiguredForListing(), "bucket listing does not need a bucket")

	unsafe := full
	unsafe.Endpoint = "http://127.0.0.1:9000"
	assert.True(t, unsafe.IsConfigured(), "endpoint validity is not part of IsConfigured")
	assert.False(t, unsafe.IsConfiguredForListing())
	assert.Equal(t, "", unsafe.ResolvedEndpoint())

	noSecret := full
	noSecret.SecretKey = ""
	assert.False(t, noSecret.IsConfigured())
	assert.False(t, noSecret.IsConfiguredForListing())
}

func TestStore_Snapshots(t *testing.T) {
	st := NewStore(Settings{Bucket: "one"})
	snap := st.Load()

	st.Swap(Settings{Bucket: "two"})

	assert.Equal(t, "one", snap.Bucket, "earlier snapshot is unaffected")
	assert.Equal(t, "two", st.Load().Bucket)

	var zero Store
	assert.Equal(t, Settings{}, zero.Load())
}

func TestStore_ConcurrentAccess(t *testing.T) {
	st := NewStore(Settings{Bucket: "a", Region: "a"})

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				st.Swap(Settings{Bucket: "b", Region: "b"})
				st.Swap(Settings{Bucket: "a", Region: "a"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 200; j++ {
				s := st.Load()
				assert.Equal(t, s.Bucket, s.Region, "snapshot must never mix two writes")
			}
		}()
	}
	wg.Wait()
}
