package s3svc_test

import (
	"encoding/xml"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"
)

// fakeS3 serves a path-style bucket with ListObjectsV2 and GetObject.
type fakeS3 struct {
	mu       sync.Mutex
	bucket   string
	objects  map[string][]byte
	requests []*http.Request
	// failList maps a 1-based list request number to the status it answers with.
	failList map[int]int
	// failGet maps a key to the status its download answers with.
	failGet map[string]int
	// endless makes every listing page truncated.
	endless   bool
	listCalls int
	// onList is called with the 1-based number of each list request.
	onList func(call int)
}

func newFakeS3(t *testing.T, bucket string) (*fakeS3, *httptest.Server) {
	t.Helper()
	f := &fakeS3{
		bucket:   bucket,
		objects:  map[string][]byte{},
		failList: map[int]int{},
		failGet:  map[string]int{},
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, srv
}

func (f *fakeS3) put(key, body string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.objects[key] = []byte(body)
}

func (f *fakeS3) failNextList(status int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failList[f.listCalls+1] = status
}

func (f *fakeS3) listRequests() []*http.Request {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*http.Request
	for _, r := range f.requests {
		if r.URL.Query().Get("list-type") == "2" {
			out = append(out, r)
		}
	}
	return out
}

type listResult struct {
	XMLName               xml.Name  `xml:"ListBucketResult"`
	Name                  string    `xml:"Name"`
	KeyCount              int       `xml:"KeyCount"`
	IsTruncated           bool      `xml:"IsTruncated"`
	NextContinuationToken string    `xml:"NextContinuationToken,omitempty"`
	Contents              []content `xml:"Contents"`
}

type content struct {
	Key          string `xml:"Key"`
	LastModified string `xml:"LastModified"`
	Size         int    `xml:"Size"`
}

func writeError(w http.ResponseWriter, status int, code string) {
	w.Header().Set("Content-Type", "application/xml")
	w.WriteHeader(status)
	fmt.Fprintf(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>%s</Code><Message>%s</Message></Error>`,
		code, http.StatusText(status))
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.requests = append(f.requests, r.Clone(r.Context()))

	path := strings.TrimPrefix(r.URL.Path, "/")
	if path == f.bucket || path == f.bucket+"/" {
		f.serveList(w, r)
		return
	}
	key := strings.TrimPrefix(path, f.bucket+"/")
	if status, ok := f.failGet[key]; ok {
		writeError(w, status, "InternalError")
		return
	}
	body, ok := f.objects[key]
	if !ok {
		writeError(w, http.StatusNotFound, "NoSuchKey")
		return
	}
	w.Header().Set("Content-Length", strconv.Itoa(len(body)))
	_, _ = w.Write(body)
}

func (f *fakeS3) serveList(w http.ResponseWriter, r *http.Request) {
	f.listCalls++
	if f.onList != nil {
		f.onList(f.listCalls)
	}
	if status, ok := f.failList[f.listCalls]; ok {
		writeError(w, status, "AccessDenied")
		return
	}

	q := r.URL.Query()
	prefix := q.Get("prefix")
	maxKeys, _ := strconv.Atoi(q.Get("max-keys"))
	if maxKeys <= 0 {
		maxKeys = 1000
	}
	start, _ := strconv.Atoi(q.Get("continuation-token"))

	keys := make([]string, 0, len(f.objects))
	for k := range f.objects {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	res := listResult{Name: f.bucket}
	end := min(start+maxKeys, len(keys))
	for _, k := range keys[min(start, len(keys)):end] {
		res.Contents = append(res.Contents, content{
			Key:          k,
			LastModified: time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC).Format("2006-01-02T15:04:05.000Z"),
			Size:         len(f.objects[k]),
		})
	}
	res.KeyCount = len(res.Contents)
	if end < len(keys) || f.endless {
		res.IsTruncated = true
		res.NextContinuationToken = strconv.Itoa(end)
	}

	w.Header().Set("Content-Type", "application/xml")
	_, _ = w.Write([]byte(xml.Header))
	_ = xml.NewEncoder(w).Encode(res)
}
