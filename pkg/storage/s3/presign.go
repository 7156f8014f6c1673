package s3

import (
	"path"
	"strings"
	"time"

	"github.com/williamokano/s3compat/pkg/sigv4"
	"github.com/williamokano/s3compat/pkg/storage"
)

var dispositionUnsafe = strings.NewReplacer(`"`, "", "\r", "", "\n", "")

// PresignGet returns a query-signed GET URL for key that forces a download
// under the key's base name. The lifetime comes from the link expiration setting.
func (c *Client) PresignGet(key string) (string, error) {
	sess, err := c.newSession(true)
	if err != nil {
		return "", storage.WrapError("presign", key, err)
	}

	key, err = storage.CleanKey(key)
	if err != nil {
		return "", storage.WrapError("presign", "", err)
	}

	uri := sess.objectURI(key)
	filename := dispositionUnsafe.Replace(path.Base(key))

	query := sess.signer.Presign(sigv4.PresignRequest{
		Host:    sess.ep.Host(),
		URI:     uri,
		Expires: time.Duration(sess.cfg.GetLinkExpiration()) * time.Minute,
		Params: map[string]string{
			"response-content-disposition": `attachment; filename="` + filename + `"`,
		},
	})

	return sess.url(uri, query), nil
}

// IsManagedURL reports whether fileURL starts with the configured URL prefix.
func (c *Client) IsManagedURL(fileURL string) bool {
	return strings.HasPrefix(fileURL, c.settings.Load().GetURLPrefix())
}

// DownloadURL strips the URL prefix from a managed file URL and presigns the remaining key.
func (c *Client) DownloadURL(fileURL string) (string, error) {
	prefix := c.settings.Load().GetURLPrefix()
	if !strings.HasPrefix(fileURL, prefix) {
		return "", storage.WrapError("download", "", storage.ErrNotManaged)
	}
	return c.PresignGet(strings.TrimPrefix(fileURL, prefix))
}
