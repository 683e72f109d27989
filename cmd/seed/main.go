// File: cmd/seed/main.go
//
// Loads conversations from a JSON or CSV file and submits them to a running
// instance through the bulk ingestion endpoint.
//
//	go run ./cmd/seed -source sample_data.json -api http://localhost:8080 -batch 100
package main

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"strings"
	"time"
)

type conversationIn struct {
	ExternalID string         `json:"external_id,omitempty"`
	ThreadID   string         `json:"thread_id,omitempty"`
	Text       string         `json:"text"`
	Raw        map[string]any `json:"raw,omitempty"`
}

func main() {
	apiURL := flag.String("api", "http://localhost:8080", "base URL of the insights API")
	source := flag.String("source", "", "path to a .json or .csv source file")
	batch := flag.Int("batch", 100, "conversations per bulk request")
	flag.Parse()

	if *source == "" {
		log.Fatal("usage: seed -source <file.json|file.csv> [-api URL] [-batch N]")
	}

	conversations, err := load(*source)
	if err != nil {
		log.Fatalf("load: %v", err)
	}
	log.Printf("loaded %d conversations from %s", len(conversations), *source)

	client := &http.Client{Timeout: 30 * time.Second}
	total := 0
	for i := 0; i < len(conversations); i += *batch {
		end := i + *batch
		if end > len(conversations) {
			end = len(conversations)
		}
		n, err := ingestBulk(client, *apiURL, conversations[i:end])
		if err != nil {
			log.Printf("batch %d: %v", i/(*batch)+1, err)
			continue
		}
		total += n
		log.Printf("batch %d: ingested %d conversations", i/(*batch)+1, n)
		time.Sleep(500 * time.Millisecond)
	}
	log.Printf("total ingested: %d/%d", total, len(conversations))
}

func load(path string) ([]conversationIn, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	switch {
	case strings.HasSuffix(path, ".json"):
		return loadJSON(data)
	case strings.HasSuffix(path, ".csv"):
		return loadCSV(data)
	default:
		return nil, fmt.Errorf("unsupported file format %q, use .json or .csv", path)
	}
}

func loadJSON(data []byte) ([]conversationIn, error) {
	var list []conversationIn
	if err := json.Unmarshal(data, &list); err == nil {
		return list, nil
	}
	var wrapped struct {
		Conversations []conversationIn `json:"conversations"`
	}
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return nil, err
	}
	return wrapped.Conversations, nil
}

func loadCSV(data []byte) ([]conversationIn, error) {
	records, err := csv.NewReader(bytes.NewReader(data)).ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) < 2 {
		return nil, fmt.Errorf("csv has no data rows")
	}
	header := records[0]
	col := func(row []string, names ...string) string {
		for i, h := range header {
			for _, name := range names {
				if h == name && i < len(row) {
					return row[i]
				}
			}
		}
		return ""
	}

	out := make([]conversationIn, 0, len(records)-1)
	for _, row := range records[1:] {
		raw := make(map[string]any, len(header))
		for i, h := range header {
			if i < len(row) {
				raw[h] = row[i]
			}
		}
		out = append(out, conversationIn{
			ExternalID: col(row, "id", "external_id"),
			Text:       col(row, "text", "content"),
			Raw:        raw,
		})
	}
	return out, nil
}

func ingestBulk(client *http.Client, apiURL string, items []conversationIn) (int, error) {
	body, err := json.Marshal(map[string]any{"conversations": items})
	if err != nil {
		return 0, err
	}
	resp, err := client.Post(apiURL+"/api/v1/conversations/bulk", "application/json", bytes.NewReader(body))
	if err != nil {
		return 0, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusAccepted {
		return 0, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	var out struct {
		Ingested int `json:"ingested"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return 0, err
	}
	return out.Ingested, nil
}
