// Package prompt owns the domain prompt catalog and the prompt text sent to
// the generative backends.
package prompt

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/oukeidos/scriptgen/internal/files"
)

// Catalog maps domain -> topic -> system prompt.
type Catalog map[string]map[string]string

// catalogFile is the on-disk JSON shape of a catalog.
type catalogFile struct {
	SourceURL string  `json:"source_url,omitempty"`
	Domains   Catalog `json:"domains"`
}

// DefaultCatalog returns the built-in prompts used when no catalog file has
// been fetched yet.
func DefaultCatalog() Catalog {
	return Catalog{
		"Education": {
			"Life Hacks": "You write punchy, surprising life-hack scripts. Every scene must demonstrate one concrete trick the viewer can try immediately.",
			"Science Explainers": "You explain scientific ideas with vivid analogies. Keep each scene to a single idea and end with a hook to the next scene.",
		},
		"Commerce": {
			"Product Showcase": "You write persuasive product showcase scripts. Lead with the customer's problem, demonstrate the product solving it, close with a call to action.",
			"Brand Story": "You write warm brand-story scripts that build trust. Focus on origin, craft and the people behind the product.",
		},
		"Entertainment": {
			"Storytelling": "You write short narrative scripts with a clear arc: setup, tension, payoff. Each scene advances the story.",
		},
	}
}

// Domains returns catalog domains in sorted order.
func (c Catalog) Domains() []string {
	domains := make([]string, 0, len(c))
	for d := range c {
		domains = append(domains, d)
	}
	sort.Strings(domains)
	return domains
}

// Topics returns the topics of a domain in sorted order.
func (c Catalog) Topics(domain string) []string {
	topics := make([]string, 0, len(c[domain]))
	for t := range c[domain] {
		topics = append(topics, t)
	}
	sort.Strings(topics)
	return topics
}

// SystemPrompt returns the stored prompt for a domain/topic pair, or "".
func (c Catalog) SystemPrompt(domain, topic string) string {
	return c[domain][topic]
}

// Set stores a prompt, creating the domain on first use. Blank fields are
// ignored, mirroring how incomplete catalog rows are skipped.
func (c Catalog) Set(domain, topic, systemPrompt string) {
	domain = strings.TrimSpace(domain)
	topic = strings.TrimSpace(topic)
	systemPrompt = strings.TrimSpace(systemPrompt)
	if domain == "" || topic == "" || systemPrompt == "" {
		return
	}
	if c[domain] == nil {
		c[domain] = make(map[string]string)
	}
	c[domain][topic] = systemPrompt
}

// Len returns the total number of topic prompts across all domains.
func (c Catalog) Len() int {
	n := 0
	for _, topics := range c {
		n += len(topics)
	}
	return n
}

// LoadCatalog reads a catalog JSON file written by SaveCatalog.
func LoadCatalog(path string) (Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read catalog file: %w", err)
	}
	var cf catalogFile
	if err := json.Unmarshal(data, &cf); err != nil {
		return nil, fmt.Errorf("invalid catalog file %s: %w", path, err)
	}
	if cf.Domains == nil {
		return nil, fmt.Errorf("catalog file %s has no domains", path)
	}
	return cf.Domains, nil
}

// SaveCatalog writes the catalog atomically, recording where it came from.
func SaveCatalog(path string, c Catalog, sourceURL string) error {
	data, err := json.MarshalIndent(catalogFile{SourceURL: sourceURL, Domains: c}, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode catalog: %w", err)
	}
	return files.AtomicWrite(path, append(data, '\n'), 0600)
}
