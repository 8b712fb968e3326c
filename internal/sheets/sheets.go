// Package sheets fetches the prompt catalog from a published Google Sheet.
// The sheet is read through the CSV export endpoint, so no Sheets API
// credentials are needed; the sheet only has to be link-readable.
package sheets

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"

	"github.com/oukeidos/scriptgen/internal/httpclient"
	"github.com/oukeidos/scriptgen/internal/logger"
	"github.com/oukeidos/scriptgen/internal/prompt"
)

var (
	sheetIDRe = regexp.MustCompile(`/spreadsheets/d/([a-zA-Z0-9-_]+)`)
	gidRe     = regexp.MustCompile(`[?&#]gid=(\d+)`)
)

// SheetInfo identifies one tab of a spreadsheet.
type SheetInfo struct {
	SheetID string
	GID     string
}

// ExtractSheetInfo pulls the spreadsheet ID and tab GID out of a Google
// Sheets URL. A URL without an explicit gid refers to the first tab.
func ExtractSheetInfo(url string) (SheetInfo, error) {
	m := sheetIDRe.FindStringSubmatch(url)
	if m == nil {
		return SheetInfo{}, fmt.Errorf("not a Google Sheets URL: %q", url)
	}
	info := SheetInfo{SheetID: m[1], GID: "0"}
	if g := gidRe.FindStringSubmatch(url); g != nil {
		info.GID = g[1]
	}
	return info, nil
}

// ExportURL returns the CSV export endpoint for the sheet tab.
func (s SheetInfo) ExportURL() string {
	return fmt.Sprintf("https://docs.google.com/spreadsheets/d/%s/export?format=csv&gid=%s", s.SheetID, s.GID)
}

// expected catalog columns, matched case-insensitively
const (
	colDomain = "domain"
	colTopic  = "topic"
	colPrompt = "system prompt"
)

// FetchCatalog downloads the sheet and parses it into a catalog. The sheet
// must have Domain, Topic and System Prompt columns; rows with any of the
// three blank are skipped.
func FetchCatalog(ctx context.Context, url string) (prompt.Catalog, error) {
	info, err := ExtractSheetInfo(url)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, httpclient.FetchTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, info.ExportURL(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog request: %w", err)
	}

	body, resp, err := httpclient.DoAndRead(httpclient.GetDefaultClient(), req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch catalog sheet: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("catalog sheet returned status %d; is the sheet link-readable?", resp.StatusCode)
	}

	catalog, skipped, err := parseCatalogCSV(strings.NewReader(string(body)))
	if err != nil {
		return nil, err
	}
	if skipped > 0 {
		logger.Warn("Skipped incomplete catalog rows", "skipped", skipped)
	}
	if catalog.Len() == 0 {
		return nil, fmt.Errorf("catalog sheet has no usable rows")
	}
	return catalog, nil
}

func parseCatalogCSV(r io.Reader) (prompt.Catalog, int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	header, err := reader.Read()
	if err != nil {
		return nil, 0, fmt.Errorf("catalog sheet is empty: %w", err)
	}

	domainIdx, topicIdx, promptIdx := -1, -1, -1
	for i, name := range header {
		switch strings.ToLower(strings.TrimSpace(name)) {
		case colDomain:
			domainIdx = i
		case colTopic:
			topicIdx = i
		case colPrompt:
			promptIdx = i
		}
	}
	if domainIdx < 0 || topicIdx < 0 || promptIdx < 0 {
		return nil, 0, fmt.Errorf("catalog sheet must have Domain, Topic and System Prompt columns, got %v", header)
	}

	catalog := prompt.Catalog{}
	skipped := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, 0, fmt.Errorf("failed to parse catalog sheet: %w", err)
		}
		max := domainIdx
		if topicIdx > max {
			max = topicIdx
		}
		if promptIdx > max {
			max = promptIdx
		}
		if len(record) <= max {
			skipped++
			continue
		}
		before := catalog.Len()
		catalog.Set(record[domainIdx], record[topicIdx], record[promptIdx])
		if catalog.Len() == before {
			skipped++
		}
	}
	return catalog, skipped, nil
}

// UpdateResult summarizes a catalog refresh for user-facing output.
type UpdateResult struct {
	Domains int
	Topics  int
	Path    string
}

// UpdateCatalogFile fetches the sheet and writes the catalog to path.
func UpdateCatalogFile(ctx context.Context, url, path string) (UpdateResult, error) {
	catalog, err := FetchCatalog(ctx, url)
	if err != nil {
		return UpdateResult{}, err
	}
	if err := prompt.SaveCatalog(path, catalog, url); err != nil {
		return UpdateResult{}, err
	}
	logger.Info("Prompt catalog updated", "path", path, "domains", len(catalog.Domains()), "topics", catalog.Len())
	return UpdateResult{
		Domains: len(catalog.Domains()),
		Topics:  catalog.Len(),
		Path:    path,
	}, nil
}
