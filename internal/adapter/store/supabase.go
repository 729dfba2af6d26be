package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/supabase-community/postgrest-go"

	"docrag/internal/domain"
)

const supabasePageSize = 1000

// SupabaseStore keeps the corpus in a Supabase table with columns
// (id, chunk, embedding), reached through its PostgREST endpoint. Any error
// response is a store failure.
type SupabaseStore struct {
	restURL   string
	apiKey    string
	table     string
	dimension int
	timeout   time.Duration
}

type SupabaseConfig struct {
	URL       string
	APIKey    string
	Table     string
	Dimension int
	Timeout   time.Duration
}

func NewSupabaseStore(cfg SupabaseConfig) (*SupabaseStore, error) {
	if cfg.URL == "" {
		return nil, fmt.Errorf("%w: supabase url is required", domain.ErrStore)
	}
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: supabase api key is required", domain.ErrStore)
	}
	if !tableNamePattern.MatchString(cfg.Table) {
		return nil, fmt.Errorf("%w: invalid table name %q", domain.ErrStore, cfg.Table)
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &SupabaseStore{
		restURL:   strings.TrimRight(cfg.URL, "/") + "/rest/v1",
		apiKey:    cfg.APIKey,
		table:     cfg.Table,
		dimension: cfg.Dimension,
		timeout:   timeout,
	}, nil
}

// contextTransport binds every request of a postgrest client to one call's
// context.
type contextTransport struct {
	ctx context.Context
}

func (t contextTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	return http.DefaultTransport.RoundTrip(req.WithContext(t.ctx))
}

// client returns a postgrest client whose requests are bounded by ctx and
// the store timeout. The caller must call cancel once the response is read.
func (s *SupabaseStore) client(ctx context.Context) (*postgrest.Client, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	c := postgrest.NewClient(s.restURL, "", map[string]string{
		"apikey":        s.apiKey,
		"Authorization": "Bearer " + s.apiKey,
	})
	if c.Transport != nil {
		c.Transport.Parent = contextTransport{ctx: ctx}
	}
	return c, cancel
}

type supabaseRow struct {
	ID        json.RawMessage `json:"id,omitempty"`
	Chunk     string          `json:"chunk"`
	Embedding json.RawMessage `json:"embedding"`
}

func (s *SupabaseStore) Insert(ctx context.Context, chunk string, vector []float32) (string, error) {
	if len(vector) == 0 {
		return "", fmt.Errorf("%w: empty vector", domain.ErrStore)
	}
	if err := domain.CheckDimension(domain.ErrStore, s.dimension, len(vector)); err != nil {
		return "", err
	}

	client, cancel := s.client(ctx)
	defer cancel()

	row := map[string]any{"chunk": chunk, "embedding": vector}
	body, _, err := client.From(s.table).Insert(row, false, "", "representation", "").Execute()
	if err != nil {
		return "", fmt.Errorf("%w: failed to insert to supabase: %v", domain.ErrStore, err)
	}

	var rows []supabaseRow
	if err := json.Unmarshal(body, &rows); err != nil {
		return "", fmt.Errorf("%w: failed to parse insert response (body: %s): %v", domain.ErrStore, preview(body), err)
	}
	if len(rows) == 0 || rawID(rows[0].ID) == "" || rawID(rows[0].ID) == "null" {
		return "", fmt.Errorf("%w: supabase returned no id for the inserted row", domain.ErrStore)
	}
	return rawID(rows[0].ID), nil
}

func (s *SupabaseStore) FetchAll(ctx context.Context) ([]domain.CorpusEntry, error) {
	client, cancel := s.client(ctx)
	defer cancel()

	var entries []domain.CorpusEntry
	for offset := 0; ; offset += supabasePageSize {
		body, _, err := client.From(s.table).
			Select("id,chunk,embedding", "", false).
			Order("id", &postgrest.OrderOpts{Ascending: true}).
			Range(offset, offset+supabasePageSize-1, "").
			Execute()
		if err != nil {
			return nil, fmt.Errorf("%w: failed to fetch documents from supabase: %v", domain.ErrStore, err)
		}

		var rows []supabaseRow
		if err := json.Unmarshal(body, &rows); err != nil {
			return nil, fmt.Errorf("%w: failed to parse response (body: %s): %v", domain.ErrStore, preview(body), err)
		}
		for _, row := range rows {
			vector, err := decodeEmbedding(row.Embedding)
			if err != nil {
				return nil, fmt.Errorf("%w: row %s: %v", domain.ErrStore, rawID(row.ID), err)
			}
			entries = append(entries, domain.CorpusEntry{
				ID:     rawID(row.ID),
				Chunk:  row.Chunk,
				Vector: vector,
			})
		}
		if len(rows) < supabasePageSize {
			return entries, nil
		}
	}
}

// decodeEmbedding accepts a JSON array or, for pgvector columns, the string
// form "[0.1,0.2,...]".
func decodeEmbedding(raw json.RawMessage) ([]float32, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return nil, fmt.Errorf("missing embedding")
	}
	if raw[0] == '"' {
		var text string
		if err := json.Unmarshal(raw, &text); err != nil {
			return nil, err
		}
		raw = json.RawMessage(text)
	}
	var vector []float32
	if err := json.Unmarshal(raw, &vector); err != nil {
		return nil, err
	}
	return vector, nil
}

func rawID(raw json.RawMessage) string {
	var text string
	if err := json.Unmarshal(raw, &text); err == nil {
		return text
	}
	return string(bytes.TrimSpace(raw))
}

func preview(body []byte) string {
	if len(body) > 200 {
		return string(body[:200])
	}
	return string(body)
}
