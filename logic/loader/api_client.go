package loader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"loanrisk/types"
	"loanrisk/vars"
)

// Client fetches loan applications and supplementary field groups from the
// core banking service.
type Client struct {
	http    *http.Client
	loanURL string
	udfURL  string
	auth    string
}

func NewClient() *Client {
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		loanURL: vars.LOAN_API_URL,
		udfURL:  vars.UDF_API_URL,
		auth:    vars.LOAN_API_AUTH,
	}
}

// FetchLoan retrieves one application by internal or external id. At least
// one id must be provided. The UDF groups are fetched in a second call and
// attached to the record; a UDF failure degrades to an empty set rather than
// failing the whole fetch.
func (c *Client) FetchLoan(ctx context.Context, loanID, externalID string) (*types.LoanRecord, error) {
	if loanID == "" && externalID == "" {
		return nil, fmt.Errorf("either loan id or external id is required")
	}

	payload := map[string]any{
		"pageNumber": 0,
		"pageSize":   1,
	}
	if loanID != "" {
		payload["loanId"] = loanID
	}
	if externalID != "" {
		payload["idLoanExtern"] = externalID
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.loanURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("loan service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("loan service returned %d: %s", resp.StatusCode, data)
	}

	var envelope struct {
		ResultsLoans []types.LoanRecord `json:"resultsLoans"`
	}
	decoder := json.NewDecoder(resp.Body)
	decoder.UseNumber()
	if err := decoder.Decode(&envelope); err != nil {
		return nil, fmt.Errorf("decode loan response: %v", err)
	}
	if len(envelope.ResultsLoans) == 0 {
		return nil, fmt.Errorf("loan not found (loanId=%q, externalId=%q)", loanID, externalID)
	}

	loan := envelope.ResultsLoans[0]
	if loan.Customer != nil {
		groups, err := c.FetchUDFGroups(ctx, loan.Customer.ID.String())
		if err != nil {
			log.Printf(">>> [Loader] UDF fetch for customer %s failed: %v", loan.Customer.ID, err)
		} else {
			loan.UDFData = groups
		}
	}
	return &loan, nil
}

// FetchUDFGroups retrieves the customer's user-defined field groups.
func (c *Client) FetchUDFGroups(ctx context.Context, customerID string) ([]types.UDFGroup, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.udfURL+customerID, nil)
	if err != nil {
		return nil, err
	}
	if c.auth != "" {
		req.Header.Set("Authorization", c.auth)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("udf service unreachable: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("udf service returned %d: %s", resp.StatusCode, data)
	}

	var groups []types.UDFGroup
	if err := json.NewDecoder(resp.Body).Decode(&groups); err != nil {
		return nil, fmt.Errorf("decode udf response: %v", err)
	}
	return groups, nil
}
