package s3

import (
	"encoding/xml"
	"fmt"
	"path"
	"strings"
	"time"

	jsoniter "github.com/json-iterator/go"

	"github.com/williamokano/s3compat/pkg/storage"
)

// BucketEntry is one <Bucket> of a ListAllMyBucketsResult.
type BucketEntry struct {
	Name         string `xml:"Name"`
	CreationDate string `xml:"CreationDate"`
}

// lowerBucketEntry covers services that answer with lower-case element names.
type lowerBucketEntry struct {
	Name string `xml:"name"`
}

// bucketListDocument accepts any root element and the three layouts seen in the wild.
type bucketListDocument struct {
	XMLName xml.Name
	Buckets []BucketEntry      `xml:"Buckets>Bucket"`
	Lower   []lowerBucketEntry `xml:"bucket"`
	Nested  struct {
		Buckets []BucketEntry `xml:"Buckets>Bucket"`
	} `xml:"ListAllMyBucketsResult"`
}

type bucketListJSON struct {
	Buckets []struct {
		Name string `json:"name"`
	} `json:"buckets"`
}

// CommonPrefixEntry is a folder in a delimited listing.
type CommonPrefixEntry struct {
	Prefix string `xml:"Prefix"`
}

// ObjectContent is one <Contents> element.
type ObjectContent struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	ETag         string `xml:"ETag"`
	Size         uint64 `xml:"Size"`
	StorageClass string `xml:"StorageClass"`
}

// ListBucketResult is the ListObjectsV2 response body.
type ListBucketResult struct {
	XMLName               xml.Name            `xml:"ListBucketResult"`
	Name                  string              `xml:"Name"`
	Prefix                string              `xml:"Prefix"`
	Delimiter             string              `xml:"Delimiter"`
	KeyCount              int                 `xml:"KeyCount"`
	MaxKeys               int                 `xml:"MaxKeys"`
	IsTruncated           bool                `xml:"IsTruncated"`
	NextContinuationToken string              `xml:"NextContinuationToken"`
	CommonPrefixes        []CommonPrefixEntry `xml:"CommonPrefixes"`
	Contents              []ObjectContent     `xml:"Contents"`
}

// parseBucketList reads bucket names from XML, falling back to
// {"buckets":[{"name":...}]} JSON.
func parseBucketList(body []byte) ([]string, error) {
	var doc bucketListDocument
	xmlErr := xml.Unmarshal(body, &doc)
	if xmlErr == nil {
		var names []string
		switch {
		case len(doc.Buckets) > 0:
			for _, b := range doc.Buckets {
				names = append(names, b.Name)
			}
		case len(doc.Lower) > 0:
			for _, b := range doc.Lower {
				names = append(names, b.Name)
			}
		default:
			for _, b := range doc.Nested.Buckets {
				names = append(names, b.Name)
			}
		}
		if names == nil {
			names = []string{}
		}
		return names, nil
	}

	var js bucketListJSON
	if err := jsoniter.ConfigCompatibleWithStandardLibrary.Unmarshal(body, &js); err == nil && js.Buckets != nil {
		names := make([]string, 0, len(js.Buckets))
		for _, b := range js.Buckets {
			names = append(names, b.Name)
		}
		return names, nil
	}

	return nil, fmt.Errorf("%w: bucket list: %v", storage.ErrParse, xmlErr)
}

// parseObjectList maps a listing page onto entries. The key equal to prefix
// is the folder's own marker object and is skipped.
func parseObjectList(body []byte, prefix string) ([]storage.ObjectEntry, *ListBucketResult, error) {
	var res ListBucketResult
	if err := xml.Unmarshal(body, &res); err != nil {
		return nil, nil, fmt.Errorf("%w: object list: %v", storage.ErrParse, err)
	}

	entries := make([]storage.ObjectEntry, 0, len(res.CommonPrefixes)+len(res.Contents))
	for _, cp := range res.CommonPrefixes {
		name := folderName(cp.Prefix)
		if name == "" {
			continue
		}
		entries = append(entries, storage.ObjectEntry{
			Name:     name,
			Path:     cp.Prefix,
			IsFolder: true,
		})
	}

	for _, obj := range res.Contents {
		if obj.Key == "" || (prefix != "" && obj.Key == prefix) {
			continue
		}
		entries = append(entries, storage.ObjectEntry{
			Name:         path.Base(obj.Key),
			Path:         obj.Key,
			Size:         obj.Size,
			LastModified: parseTimestamp(obj.LastModified),
		})
	}

	storage.SortEntries(entries)
	return entries, &res, nil
}

// folderName is the last non-empty segment of a common prefix.
func folderName(prefix string) string {
	trimmed := strings.TrimRight(prefix, "/")
	if i := strings.LastIndex(trimmed, "/"); i >= 0 {
		return trimmed[i+1:]
	}
	return trimmed
}

func parseTimestamp(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}
