package s3

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path"
	"strconv"

	"github.com/williamokano/s3compat/pkg/storage"
	"github.com/williamokano/s3compat/pkg/transport"
)

// fileDigest is what the signer needs to know about the body before sending it.
type fileDigest struct {
	size        int64
	sha256      string
	contentType string
}

// Upload streams localPath to key with a single signed PUT. Configuration,
// the key and the local file are all checked before any network traffic.
func (c *Client) Upload(ctx context.Context, key, localPath string) (*storage.UploadResult, error) {
	sess, err := c.newSession(true)
	if err != nil {
		return nil, storage.WrapError("upload", key, err)
	}

	key, err = storage.CleanKey(key)
	if err != nil {
		return nil, storage.WrapError("upload", "", err)
	}

	digest, err := digestFile(localPath, key)
	if err != nil {
		c.logger.Debug().Err(err).Str("file", localPath).Msg("upload file not readable")
		return nil, storage.WrapError("upload", key, err)
	}

	f, err := openBody(localPath, digest)
	if err != nil {
		c.logger.Debug().Err(err).Str("file", localPath).Msg("upload file changed")
		return nil, storage.WrapError("upload", key, err)
	}
	defer f.Close()

	_, err = c.sendSigned(ctx, sess, signedCall{
		operation: "upload",
		method:    http.MethodPut,
		uri:       sess.objectURI(key),
		headers: map[string]string{
			"content-length": strconv.FormatInt(digest.size, 10),
			"content-type":   digest.contentType,
		},
		body:        f,
		size:        digest.size,
		payloadHash: digest.sha256,
	})
	if err != nil {
		var se *transport.StatusError
		if errors.As(err, &se) {
			err = &storage.UploadRejectedError{StatusCode: se.StatusCode, Reason: se.Reason, Code: se.Code}
		}
		c.logger.Debug().Err(err).Str("key", key).Msg("upload failed")
		return nil, storage.WrapError("upload", key, err)
	}

	c.logger.Debug().
		Str("key", key).
		Int64("size", digest.size).
		Str("content_type", digest.contentType).
		Msg("upload completed")

	return &storage.UploadResult{
		Name: path.Base(key),
		Key:  key,
		Path: "/" + key,
		Size: uint64(digest.size),
	}, nil
}

// openBody reopens localPath for the PUT body. The hashing pass consumed its
// handle, and a file whose size changed since then would not match the signature.
func openBody(localPath string, digest *fileDigest) (*os.File, error) {
	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrFileAccess, err)
	}
	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("%w: %w", storage.ErrFileAccess, err)
	}
	if fi.Size() != digest.size {
		f.Close()
		return nil, fmt.Errorf("%w: %s changed size from %d to %d bytes while uploading", storage.ErrFileAccess, localPath, digest.size, fi.Size())
	}
	return f, nil
}

// digestFile hashes localPath in constant memory and sniffs its content type.
func digestFile(localPath, key string) (*fileDigest, error) {
	fi, err := os.Stat(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrFileAccess, err)
	}
	if !fi.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s is not a regular file", storage.ErrFileAccess, localPath)
	}

	f, err := os.Open(localPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrFileAccess, err)
	}
	defer f.Close()

	head := make([]byte, storage.SniffLen)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, fmt.Errorf("%w: %w", storage.ErrFileAccess, err)
	}
	head = head[:n]

	h := sha256.New()
	h.Write(head)
	rest, err := io.Copy(h, f)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", storage.ErrFileAccess, err)
	}

	return &fileDigest{
		size:        int64(n) + rest,
		sha256:      hex.EncodeToString(h.Sum(nil)),
		contentType: storage.ContentType(head, key),
	}, nil
}
