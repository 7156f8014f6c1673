package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingObserver struct {
	mu    sync.Mutex
	codes []string
	bytes int64
}

func (o *recordingObserver) ObserveRequest(_, code string, _ time.Duration) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.codes = append(o.codes, code)
}

func (o *recordingObserver) ObserveBytes(_ string, n int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.bytes += n
}

type captured struct {
	host          string
	contentLength int64
	header        http.Header
	body          string
	chunked       bool
}

func capture(reqs chan<- captured, r *http.Request) {
	b, _ := io.ReadAll(r.Body)
	reqs <- captured{
		host:          r.Host,
		contentLength: r.ContentLength,
		header:        r.Header.Clone(),
		body:          string(b),
		chunked:       len(r.TransferEncoding) > 0,
	}
}

func TestSend_Success(t *testing.T) {
	reqs := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capture(reqs, r)
		w.Header().Set("ETag", `"abc"`)
		_, _ = w.Write([]byte("<ok/>"))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := New(WithAllowPrivateNetworks(), WithObserver(obs))

	resp, err := c.Send(context.Background(), Request{
		Operation: "upload",
		Method:    http.MethodPut,
		URL:       srv.URL + "/bucket/a.txt",
		Header: map[string]string{
			"host":           "bucket.example.com",
			"content-length": "5",
			"content-type":   "text/plain",
			"authorization":  "AWS4-HMAC-SHA256 test",
		},
		Body:          strings.NewReader("hello"),
		ContentLength: 5,
	})
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "OK", resp.Reason)
	assert.Equal(t, "<ok/>", string(resp.Body))
	assert.Equal(t, `"abc"`, resp.Header.Get("ETag"))

	got := <-reqs
	assert.Equal(t, "bucket.example.com", got.host)
	assert.Equal(t, int64(5), got.contentLength)
	assert.Equal(t, "text/plain", got.header.Get("Content-Type"))
	assert.Equal(t, "AWS4-HMAC-SHA256 test", got.header.Get("Authorization"))
	assert.True(t, strings.HasPrefix(got.header.Get("User-Agent"), "s3compat/"))
	assert.Equal(t, "hello", got.body)

	assert.Equal(t, []string{"200"}, obs.codes)
	assert.Equal(t, int64(5), obs.bytes)
}

func TestSend_EmptyBodyHasZeroLength(t *testing.T) {
	reqs := make(chan captured, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		capture(reqs, r)
	}))
	defer srv.Close()

	c := New(WithAllowPrivateNetworks())
	_, err := c.Send(context.Background(), Request{
		Method: http.MethodPut,
		URL:    srv.URL + "/bucket/empty.txt",
		Body:   strings.NewReader(""),
	})
	require.NoError(t, err)
	got := <-reqs
	assert.False(t, got.chunked)
	assert.Equal(t, int64(0), got.contentLength)
}

func TestSend_StatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/xml")
		w.WriteHeader(http.StatusForbidden)
		_, _ = w.Write([]byte(`<?xml version="1.0" encoding="UTF-8"?>
<Error><Code>SignatureDoesNotMatch</Code><Message>The request signature we calculated does not match</Message></Error>`))
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	c := New(WithAllowPrivateNetworks(), WithObserver(obs))
	resp, err := c.Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/"})

	assert.Nil(t, resp)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusForbidden, se.StatusCode)
	assert.Equal(t, "Forbidden", se.Reason)
	assert.Equal(t, "SignatureDoesNotMatch", se.Code)
	assert.Contains(t, se.Error(), "403")
	assert.True(t, IsStatus(err, http.StatusForbidden))
	assert.False(t, errors.Is(err, ErrTransport))
	assert.Equal(t, []string{"403"}, obs.codes)
}

func TestSend_StatusErrorWithoutEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer srv.Close()

	_, err := New(WithAllowPrivateNetworks()).Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})

	var se *StatusError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, http.StatusBadGateway, se.StatusCode)
	assert.Empty(t, se.Code)
}

func TestSend_ResponseSizeLimit(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 64)))
	}))
	defer srv.Close()

	t.Run("body at the limit", func(t *testing.T) {
		resp, err := New(WithAllowPrivateNetworks(), WithMaxResponseBytes(64)).
			Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
		require.NoError(t, err)
		assert.Len(t, resp.Body, 64)
	})

	t.Run("body over the limit", func(t *testing.T) {
		resp, err := New(WithAllowPrivateNetworks(), WithMaxResponseBytes(63)).
			Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
		assert.Nil(t, resp)
		assert.ErrorIs(t, err, ErrTransport)
		assert.ErrorIs(t, err, ErrResponseTooLarge)
	})
}

func TestSend_FollowsAtMostThreeRedirects(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		switch r.URL.Path {
		case "/short":
			http.Redirect(w, r, "/done", http.StatusFound)
		case "/done":
			_, _ = w.Write([]byte("done"))
		default:
			http.Redirect(w, r, r.URL.Path+"x", http.StatusFound)
		}
	}))
	defer srv.Close()

	c := New(WithAllowPrivateNetworks())

	resp, err := c.Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/short"})
	require.NoError(t, err)
	assert.Equal(t, "done", string(resp.Body))

	hits.Store(0)
	_, err = c.Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL + "/loop"})
	require.ErrorIs(t, err, ErrTransport)
	assert.Equal(t, int32(MaxRedirects+1), hits.Load(), "original request plus three redirects")
}

func TestSend_RefusesRestrictedAddresses(t *testing.T) {
	var called atomic.Bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called.Store(true)
	}))
	defer srv.Close()

	obs := &recordingObserver{}
	_, err := New(WithObserver(obs)).Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})

	require.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, ErrRestrictedAddress)
	assert.False(t, called.Load())
	assert.Equal(t, []string{"error"}, obs.codes)
}

func TestSend_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(WithAllowPrivateNetworks()).Send(ctx, Request{Method: http.MethodGet, URL: srv.URL})
	require.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestSend_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	}))
	defer srv.Close()

	_, err := New(WithAllowPrivateNetworks(), WithTimeout(50*time.Millisecond)).
		Send(context.Background(), Request{Method: http.MethodGet, URL: srv.URL})
	require.ErrorIs(t, err, ErrTransport)
}

func TestSend_BadURL(t *testing.T) {
	_, err := New().Send(context.Background(), Request{Method: http.MethodGet, URL: "://bad"})
	require.ErrorIs(t, err, ErrTransport)
}
