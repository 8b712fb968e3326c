package sheets

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/oukeidos/scriptgen/internal/httpclient"
)

func TestExtractSheetInfo(t *testing.T) {
	tests := []struct {
		name    string
		url     string
		want    SheetInfo
		wantErr bool
	}{
		{
			name: "edit url with gid",
			url:  "https://docs.google.com/spreadsheets/d/1AbC-def_123/edit#gid=456",
			want: SheetInfo{SheetID: "1AbC-def_123", GID: "456"},
		},
		{
			name: "url without gid defaults to first tab",
			url:  "https://docs.google.com/spreadsheets/d/1AbC-def_123/edit",
			want: SheetInfo{SheetID: "1AbC-def_123", GID: "0"},
		},
		{
			name: "gid as query parameter",
			url:  "https://docs.google.com/spreadsheets/d/1AbC/export?gid=7",
			want: SheetInfo{SheetID: "1AbC", GID: "7"},
		},
		{
			name:    "not a sheets url",
			url:     "https://example.com/whatever",
			wantErr: true,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ExtractSheetInfo(tc.url)
			if tc.wantErr {
				if err == nil {
					t.Fatal("expected an error")
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Errorf("got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestExportURL(t *testing.T) {
	info := SheetInfo{SheetID: "abc", GID: "3"}
	want := "https://docs.google.com/spreadsheets/d/abc/export?format=csv&gid=3"
	if got := info.ExportURL(); got != want {
		t.Errorf("ExportURL() = %q, want %q", got, want)
	}
}

func TestParseCatalogCSV(t *testing.T) {
	t.Run("parses rows and skips incomplete ones", func(t *testing.T) {
		csvData := "Domain,Topic,System Prompt\n" +
			"Commerce,Product Showcase,Sell the benefit first.\n" +
			"Commerce,,missing topic\n" +
			",Orphan Topic,missing domain\n" +
			"Education,Life Hacks,One trick per scene.\n"
		catalog, skipped, err := parseCatalogCSV(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("parseCatalogCSV failed: %v", err)
		}
		if catalog.Len() != 2 {
			t.Errorf("Len() = %d, want 2", catalog.Len())
		}
		if skipped != 2 {
			t.Errorf("skipped = %d, want 2", skipped)
		}
		if got := catalog.SystemPrompt("Education", "Life Hacks"); got != "One trick per scene." {
			t.Errorf("SystemPrompt = %q", got)
		}
	})

	t.Run("header matching is case-insensitive", func(t *testing.T) {
		csvData := "DOMAIN,topic,SYSTEM PROMPT\nA,B,C\n"
		catalog, _, err := parseCatalogCSV(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("parseCatalogCSV failed: %v", err)
		}
		if catalog.SystemPrompt("A", "B") != "C" {
			t.Errorf("catalog = %#v", catalog)
		}
	})

	t.Run("missing columns fail", func(t *testing.T) {
		if _, _, err := parseCatalogCSV(strings.NewReader("Domain,Notes\nA,B\n")); err == nil {
			t.Fatal("expected an error for missing columns")
		}
	})

	t.Run("empty input fails", func(t *testing.T) {
		if _, _, err := parseCatalogCSV(strings.NewReader("")); err == nil {
			t.Fatal("expected an error for empty input")
		}
	})

	t.Run("quoted multiline prompts survive", func(t *testing.T) {
		csvData := "Domain,Topic,System Prompt\n" +
			"Education,Science,\"Line one.\nLine two.\"\n"
		catalog, _, err := parseCatalogCSV(strings.NewReader(csvData))
		if err != nil {
			t.Fatalf("parseCatalogCSV failed: %v", err)
		}
		if got := catalog.SystemPrompt("Education", "Science"); !strings.Contains(got, "Line two.") {
			t.Errorf("SystemPrompt = %q", got)
		}
	})
}

// rewriteTransport sends every request to the test server regardless of the
// original host, so the docs.google.com export URL can be served locally.
type rewriteTransport struct {
	target *url.URL
}

func (rt rewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	req = req.Clone(req.Context())
	req.URL.Scheme = rt.target.Scheme
	req.URL.Host = rt.target.Host
	return http.DefaultTransport.RoundTrip(req)
}

func serveCSV(t *testing.T, status int, body string) {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, "/spreadsheets/d/") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(server.Close)

	target, err := url.Parse(server.URL)
	if err != nil {
		t.Fatal(err)
	}
	restore := httpclient.SetDefaultClientForTesting(&http.Client{Transport: rewriteTransport{target: target}})
	t.Cleanup(restore)
}

const sheetURL = "https://docs.google.com/spreadsheets/d/1AbC/edit#gid=0"

func TestFetchCatalog(t *testing.T) {
	serveCSV(t, http.StatusOK, "Domain,Topic,System Prompt\nCommerce,Brand Story,Warm and honest.\n")

	catalog, err := FetchCatalog(context.Background(), sheetURL)
	if err != nil {
		t.Fatalf("FetchCatalog failed: %v", err)
	}
	if got := catalog.SystemPrompt("Commerce", "Brand Story"); got != "Warm and honest." {
		t.Errorf("SystemPrompt = %q", got)
	}
}

func TestFetchCatalog_NonOKStatus(t *testing.T) {
	serveCSV(t, http.StatusForbidden, "nope")

	if _, err := FetchCatalog(context.Background(), sheetURL); err == nil {
		t.Fatal("expected an error for a non-OK status")
	}
}

func TestFetchCatalog_NoUsableRows(t *testing.T) {
	serveCSV(t, http.StatusOK, "Domain,Topic,System Prompt\n,,\n")

	if _, err := FetchCatalog(context.Background(), sheetURL); err == nil {
		t.Fatal("expected an error for a catalog without rows")
	}
}

func TestUpdateCatalogFile(t *testing.T) {
	serveCSV(t, http.StatusOK, "Domain,Topic,System Prompt\n"+
		"Commerce,Brand Story,Warm and honest.\n"+
		"Education,Life Hacks,One trick per scene.\n")

	path := t.TempDir() + "/catalog.json"
	result, err := UpdateCatalogFile(context.Background(), sheetURL, path)
	if err != nil {
		t.Fatalf("UpdateCatalogFile failed: %v", err)
	}
	if result.Domains != 2 || result.Topics != 2 {
		t.Errorf("result = %+v, want 2 domains and 2 topics", result)
	}
}
