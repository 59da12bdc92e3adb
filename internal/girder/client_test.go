package girder

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestParseAPIRoot_DefaultsAndNormalizes(t *testing.T) {
	u, err := parseAPIRoot("")
	if err != nil {
		t.Fatalf("parseAPIRoot returned error: %v", err)
	}
	if u.String() != defaultAPIRoot {
		t.Fatalf("root = %q, want %q", u.String(), defaultAPIRoot)
	}

	u, err = parseAPIRoot("girder.example.com:8080")
	if err != nil {
		t.Fatalf("parseAPIRoot returned error: %v", err)
	}
	if u.String() != "http://girder.example.com:8080/api/v1" {
		t.Fatalf("root = %q, want api path appended", u.String())
	}

	u, err = parseAPIRoot("https://example.com/girder/api/v1/?x=1#frag")
	if err != nil {
		t.Fatalf("parseAPIRoot returned error: %v", err)
	}
	if u.Path != "/girder/api/v1" || u.RawQuery != "" || u.Fragment != "" {
		t.Fatalf("url not normalized: %q", u.String())
	}
}

func TestClient_SendsHeadersAndDecodes(t *testing.T) {
	t.Parallel()

	var (
		gotToken       string
		gotContentType string
		gotUserAgent   string
		gotListQuery   url.Values
		gotTriggerVerb string
	)

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotToken = r.Header.Get("Girder-Token")
		gotContentType = r.Header.Get("Content-Type")
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")

		switch r.URL.Path {
		case "/api/v1/folder":
			gotListQuery = r.URL.Query()
			_ = json.NewEncoder(w).Encode([]Folder{{ID: "out1", Name: OutputsFolderName}})
		case "/api/v1/folder/f1/histoqc":
			if r.Method == http.MethodPost {
				gotTriggerVerb = r.Method
				_ = json.NewEncoder(w).Encode(map[string]string{"_id": "job1"})
				return
			}
			_ = json.NewEncoder(w).Encode(Outputs{
				Grouped: ItemRef{ID: "tsv1", Name: "results.tsv"},
				Individual: []OutputRecord{{
					SourceImage: ItemRef{ID: "img1", Name: "slide.svs"},
					Outputs:     []Artifact{{ID: "a1", Type: "thumb"}},
				}},
			})
		case "/api/v1/job/job1":
			_, _ = w.Write([]byte(`{"_id":"job1","status":2,"log":["a","b"]}`))
		case "/api/v1/item/tsv1/download":
			w.Header().Set("Content-Type", "text/tab-separated-values")
			_, _ = w.Write([]byte("#dataset:a\tb\n1\t2\n"))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, StaticToken("secret"))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	t.Cleanup(cancel)

	folder, err := c.FindOutputsFolder(ctx, "f1")
	if err != nil {
		t.Fatalf("FindOutputsFolder returned error: %v", err)
	}
	if folder.ID != "out1" {
		t.Fatalf("folder id = %q, want out1", folder.ID)
	}
	if gotListQuery.Get("parentId") != "f1" ||
		gotListQuery.Get("parentType") != "folder" ||
		gotListQuery.Get("name") != OutputsFolderName {
		t.Fatalf("ListFolders query = %v, want params encoded", gotListQuery)
	}

	job, err := c.TriggerJob(ctx, "f1")
	if err != nil {
		t.Fatalf("TriggerJob returned error: %v", err)
	}
	if job.ID != "job1" || gotTriggerVerb != http.MethodPost {
		t.Fatalf("TriggerJob = %#v via %q, want job1 via POST", job, gotTriggerVerb)
	}

	job, err = c.JobStatus(ctx, "job1")
	if err != nil {
		t.Fatalf("JobStatus returned error: %v", err)
	}
	if job.Status != JobRunning || len(job.Log) != 2 {
		t.Fatalf("JobStatus = %#v, want running with 2 log lines", job)
	}

	outputs, err := c.FetchOutputs(ctx, "f1")
	if err != nil {
		t.Fatalf("FetchOutputs returned error: %v", err)
	}
	if outputs.Grouped.ID != "tsv1" || len(outputs.Individual) != 1 || outputs.Individual[0].Outputs[0].Type != "thumb" {
		t.Fatalf("FetchOutputs = %#v, want one record with a thumb", outputs)
	}

	data, err := c.DownloadItem(ctx, "tsv1")
	if err != nil {
		t.Fatalf("DownloadItem returned error: %v", err)
	}
	if !strings.HasPrefix(string(data), "#dataset:") {
		t.Fatalf("DownloadItem = %q, want tsv body", data)
	}

	if gotToken != "secret" {
		t.Fatalf("Girder-Token = %q, want secret", gotToken)
	}
	if gotContentType != "application/json; charset=utf-8" {
		t.Fatalf("Content-Type = %q, want json utf-8", gotContentType)
	}
	if !strings.HasPrefix(gotUserAgent, "histoqcview/") {
		t.Fatalf("User-Agent = %q, want histoqcview/*", gotUserAgent)
	}
}

func TestClient_TokenReadOnEveryRequest(t *testing.T) {
	var seen []string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = append(seen, r.Header.Get("Girder-Token"))
		_, _ = w.Write([]byte(`{"status":1,"log":[]}`))
	}))
	t.Cleanup(server.Close)

	tokenPath := filepath.Join(t.TempDir(), "token")
	c, err := NewClient(server.URL, FileToken(tokenPath))
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}

	if _, err := c.JobStatus(context.Background(), "j"); err != nil {
		t.Fatalf("JobStatus returned error: %v", err)
	}
	if err := os.WriteFile(tokenPath, []byte("fresh\n"), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	if _, err := c.JobStatus(context.Background(), "j"); err != nil {
		t.Fatalf("JobStatus returned error: %v", err)
	}

	if len(seen) != 2 || seen[0] != "" || seen[1] != "fresh" {
		t.Fatalf("tokens seen = %q, want [\"\" \"fresh\"]", seen)
	}
}

func TestClient_ErrorTaxonomy(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v1/job/bad-json":
			_, _ = w.Write([]byte("{not-json"))
		case "/api/v1/job/no-status":
			_, _ = w.Write([]byte(`{"log":["x"]}`))
		case "/api/v1/job/denied":
			http.Error(w, `{"message":"login required"}`, http.StatusUnauthorized)
		case "/api/v1/folder":
			if r.URL.Query().Get("parentId") == "login-page" {
				_, _ = w.Write([]byte("<html><body>Sign in</body></html>"))
				return
			}
			_, _ = w.Write([]byte(`[]`))
		case "/api/v1/folder/f1/histoqc":
			_, _ = w.Write([]byte(`{}`))
		default:
			http.NotFound(w, r)
		}
	}))
	t.Cleanup(server.Close)

	c, err := NewClient(server.URL, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()

	if _, err := c.JobStatus(ctx, "bad-json"); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("JobStatus(bad-json) error = %v, want ErrMalformedResponse", err)
	}
	if _, err := c.JobStatus(ctx, "no-status"); !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("JobStatus(no-status) error = %v, want ErrMalformedResponse", err)
	}

	_, err = c.JobStatus(ctx, "denied")
	var reqErr *RequestError
	if !errors.As(err, &reqErr) || reqErr.StatusCode != http.StatusUnauthorized {
		t.Fatalf("JobStatus(denied) error = %v, want RequestError 401", err)
	}
	if !IsUnauthorized(err) {
		t.Fatalf("IsUnauthorized(%v) = false, want true", err)
	}

	_, err = c.FindOutputsFolder(ctx, "f1")
	if !errors.Is(err, ErrNoOutputsFolder) || !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("FindOutputsFolder error = %v, want ErrNoOutputsFolder", err)
	}
	if _, err := c.FindOutputsFolder(ctx, "login-page"); errors.Is(err, ErrNoOutputsFolder) {
		t.Fatalf("FindOutputsFolder(login-page) error = %v, want a decode failure", err)
	} else if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("FindOutputsFolder(login-page) error = %v, want ErrMalformedResponse", err)
	}
	_, err = c.TriggerJob(ctx, "f1")
	if !errors.Is(err, ErrMalformedResponse) {
		t.Fatalf("TriggerJob error = %v, want ErrMalformedResponse for missing _id", err)
	}
	if StatusCode(err) != 0 {
		t.Fatalf("StatusCode of malformed error = %d, want 0", StatusCode(err))
	}
}

func TestClient_NetworkError(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	addr := server.URL
	server.Close()

	c, err := NewClient(addr, nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	_, err = c.JobStatus(context.Background(), "j")
	var netErr *NetworkError
	if !errors.As(err, &netErr) {
		t.Fatalf("JobStatus error = %v, want NetworkError", err)
	}
}

func TestClient_RequiresIDs(t *testing.T) {
	c, err := NewClient("127.0.0.1:1", nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	ctx := context.Background()
	if _, err := c.TriggerJob(ctx, " "); err == nil {
		t.Fatalf("TriggerJob returned nil error, want error")
	}
	if _, err := c.JobStatus(ctx, ""); err == nil {
		t.Fatalf("JobStatus returned nil error, want error")
	}
	if _, err := c.ListFolders(ctx, "", "folder", ""); err == nil {
		t.Fatalf("ListFolders returned nil error, want error")
	}
}

func TestClient_URLs(t *testing.T) {
	c, err := NewClient("https://girder.example.com/api/v1", nil)
	if err != nil {
		t.Fatalf("NewClient returned error: %v", err)
	}
	if got := c.ThumbnailURL("abc"); got != "https://girder.example.com/api/v1/item/abc/tiles/thumbnail" {
		t.Fatalf("ThumbnailURL = %q", got)
	}
	if got := c.ItemURL("abc"); got != "https://girder.example.com/#item/abc" {
		t.Fatalf("ItemURL = %q", got)
	}
}
