package search

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

var httpClient = &http.Client{Timeout: 10 * time.Second}

// meiliClient is a minimal MeiliSearch HTTP client covering the handful of
// endpoints this service needs.
type meiliClient struct {
	host      string
	apiKey    string
	indexName string
}

func newMeiliClient(host, apiKey, indexName string) *meiliClient {
	if host == "" {
		host = "http://localhost:7700"
	}
	if indexName == "" {
		indexName = "uidex-showcases"
	}
	return &meiliClient{host: host, apiKey: apiKey, indexName: indexName}
}

type indexSettings struct {
	SearchableAttributes []string `json:"searchableAttributes"`
	FilterableAttributes []string `json:"filterableAttributes"`
	SortableAttributes   []string `json:"sortableAttributes"`
}

func (m *meiliClient) UpdateSettings(settings indexSettings) error {
	body, _ := json.Marshal(settings)
	_, err := m.do("PATCH", fmt.Sprintf("/indexes/%s/settings", m.indexName), body)
	return err
}

func (m *meiliClient) Search(q, filter string, limit int) ([]Document, error) {
	payload := map[string]interface{}{"q": q, "limit": limit}
	if filter != "" {
		payload["filter"] = filter
	}
	body, _ := json.Marshal(payload)
	data, err := m.do("POST", fmt.Sprintf("/indexes/%s/search", m.indexName), body)
	if err != nil {
		return nil, err
	}
	var resp struct {
		Hits []Document `json:"hits"`
	}
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, err
	}
	return resp.Hits, nil
}

func (m *meiliClient) AddDocuments(docs []Document) error {
	body, _ := json.Marshal(docs)
	_, err := m.do("POST", fmt.Sprintf("/indexes/%s/documents", m.indexName), body)
	return err
}

func (m *meiliClient) DeleteDocument(id string) error {
	_, err := m.do("DELETE", fmt.Sprintf("/indexes/%s/documents/%s", m.indexName, id), nil)
	return err
}

func (m *meiliClient) do(method, path string, body []byte) ([]byte, error) {
	var bodyReader io.Reader
	if body != nil {
		bodyReader = bytes.NewReader(body)
	}
	req, err := http.NewRequest(method, m.host+path, bodyReader)
	if err != nil {
		return nil, err
	}
	if m.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+m.apiKey)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("meili error %d: %s", resp.StatusCode, string(data))
	}
	return data, nil
}
