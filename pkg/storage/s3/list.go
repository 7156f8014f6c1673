package s3

import (
	"context"
	"net/http"

	"github.com/williamokano/s3compat/pkg/sigv4"
	"github.com/williamokano/s3compat/pkg/storage"
)

// ListBuckets returns the bucket names visible to the configured credentials.
// SigV4 is tried first; when it fails for any reason the legacy simple auth is
// tried once. The returned slice is never nil, and the error only explains an
// empty result.
func (c *Client) ListBuckets(ctx context.Context) ([]string, error) {
	sess, err := c.newSession(false)
	if err != nil {
		c.logger.Debug().Err(err).Msg("bucket listing skipped")
		return []string{}, storage.WrapError("list buckets", "", err)
	}

	uri := sess.serviceURI()
	resp, err := c.sendSigned(ctx, sess, signedCall{
		operation: "list_buckets",
		method:    http.MethodGet,
		uri:       uri,
	})
	if err != nil {
		c.logger.Debug().Err(err).Msg("SigV4 bucket listing failed, trying simple auth")

		resp, err = c.sendSimple(ctx, sess, "list_buckets_simple", uri)
		if err != nil {
			err = classify(err)
			c.logger.Debug().Err(err).Msg("all authentication methods failed")
			return []string{}, storage.WrapError("list buckets", "", err)
		}
	}

	names, err := parseBucketList(resp.Body)
	if err != nil {
		c.logger.Debug().Err(err).Int("status", resp.StatusCode).Msg("bucket list parsing failed")
		return []string{}, storage.WrapError("list buckets", "", err)
	}

	c.logger.Debug().Int("count", len(names)).Msg("found buckets")
	return names, nil
}

// ListObjects returns the folders and files directly under path, first page
// only. Failures degrade to an empty, non-nil slice plus the cause.
func (c *Client) ListObjects(ctx context.Context, path string) ([]storage.ObjectEntry, error) {
	prefix, err := storage.CleanPrefix(path)
	if err != nil {
		c.logger.Debug().Err(err).Msg("listing refused")
		return []storage.ObjectEntry{}, storage.WrapError("list objects", "", err)
	}

	sess, err := c.newSession(true)
	if err != nil {
		c.logger.Debug().Err(err).Msg("listing skipped")
		return []storage.ObjectEntry{}, storage.WrapError("list objects", prefix, err)
	}

	params := map[string]string{
		"delimiter": "/",
		"list-type": "2",
	}
	if prefix != "" {
		params["prefix"] = prefix
	}

	resp, err := c.sendSigned(ctx, sess, signedCall{
		operation: "list_objects",
		method:    http.MethodGet,
		uri:       sess.bucketURI(),
		query:     sigv4.EncodeQuery(params),
	})
	if err != nil {
		err = classify(err)
		c.logger.Debug().Err(err).Str("prefix", prefix).Msg("object listing failed")
		return []storage.ObjectEntry{}, storage.WrapError("list objects", prefix, err)
	}

	entries, page, err := parseObjectList(resp.Body, prefix)
	if err != nil {
		c.logger.Debug().Err(err).Str("prefix", prefix).Msg("object list parsing failed")
		return []storage.ObjectEntry{}, storage.WrapError("list objects", prefix, err)
	}

	if page.IsTruncated {
		// TODO: follow NextContinuationToken once the UI can page through large folders.
		c.logger.Debug().
			Str("prefix", prefix).
			Int("returned", len(entries)).
			Msg("listing truncated, only the first page is returned")
	}

	return entries, nil
}
