package meta

import (
	"bytes"
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// SubgraphClient queries rain metadata subgraphs for payloads by hash.
type SubgraphClient struct {
	http *http.Client
}

// NewSubgraphClient builds a client with a bounded request timeout.
func NewSubgraphClient() *SubgraphClient {
	return &SubgraphClient{
		http: &http.Client{Timeout: 30 * time.Second},
	}
}

type subgraphQuery struct {
	Query string `json:"query"`
}

type subgraphResponse struct {
	Data struct {
		Metas []struct {
			RawBytes string `json:"rawBytes"`
		} `json:"metas"`
	} `json:"data"`
	Errors []struct {
		Message string `json:"message"`
	} `json:"errors"`
}

// Search asks one subgraph for the payload stored under hash.
func (c *SubgraphClient) Search(ctx context.Context, url, hash string) ([]byte, error) {
	query := fmt.Sprintf(
		`{ metas(where: { id: %q }, first: 1) { rawBytes } }`,
		strings.ToLower(hash),
	)
	body, err := json.Marshal(subgraphQuery{Query: query})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("subgraph returned status %d", resp.StatusCode)
	}

	var decoded subgraphResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, err
	}
	if len(decoded.Errors) > 0 {
		return nil, fmt.Errorf("subgraph error: %s", decoded.Errors[0].Message)
	}
	if len(decoded.Data.Metas) == 0 {
		return nil, ErrNotFound
	}

	raw := strings.TrimPrefix(decoded.Data.Metas[0].RawBytes, "0x")
	data, err := hex.DecodeString(raw)
	if err != nil {
		return nil, fmt.Errorf("subgraph returned malformed bytes: %w", err)
	}
	return data, nil
}
