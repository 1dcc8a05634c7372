package loader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"loanrisk/types"
)

func testClient(loanURL, udfURL string) *Client {
	return &Client{
		http:    &http.Client{Timeout: 5 * time.Second},
		loanURL: loanURL,
		udfURL:  udfURL,
	}
}

func TestFetchLoan_AttachesUDFGroups(t *testing.T) {
	udfSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/88", r.URL.Path)
		json.NewEncoder(w).Encode([]types.UDFGroup{
			{GroupName: "Profil", Fields: []types.UDFField{{FieldName: "Patenté", Value: "Oui"}}},
		})
	}))
	defer udfSrv.Close()

	loanSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var payload map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		assert.Equal(t, "4217", payload["loanId"])

		json.NewEncoder(w).Encode(map[string]any{
			"resultsLoans": []map[string]any{
				{
					"loanId":      4217,
					"customerDTO": map[string]any{"id": 88, "customerName": "Amal"},
				},
			},
		})
	}))
	defer loanSrv.Close()

	client := testClient(loanSrv.URL, udfSrv.URL+"/")

	loan, err := client.FetchLoan(context.Background(), "4217", "")
	require.NoError(t, err)
	assert.Equal(t, "4217", loan.LoanID.String())
	require.NotNil(t, loan.Customer)
	require.Len(t, loan.UDFData, 1)
	assert.Equal(t, "Profil", loan.UDFData[0].GroupName)
}

func TestFetchLoan_RequiresAnID(t *testing.T) {
	client := testClient("http://unused", "http://unused/")

	_, err := client.FetchLoan(context.Background(), "", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "required")
}

func TestFetchLoan_EmptyResult(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{"resultsLoans": []any{}})
	}))
	defer srv.Close()

	client := testClient(srv.URL, srv.URL+"/")

	_, err := client.FetchLoan(context.Background(), "", "EXT-1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not found")
}

func TestFetchLoan_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	client := testClient(srv.URL, srv.URL+"/")

	_, err := client.FetchLoan(context.Background(), "4217", "")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestFetchLoan_UDFFailureIsNonFatal(t *testing.T) {
	udfSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer udfSrv.Close()

	loanSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"resultsLoans": []map[string]any{
				{"loanId": 1, "customerDTO": map[string]any{"id": 2}},
			},
		})
	}))
	defer loanSrv.Close()

	client := testClient(loanSrv.URL, udfSrv.URL+"/")

	loan, err := client.FetchLoan(context.Background(), "1", "")
	require.NoError(t, err)
	assert.Empty(t, loan.UDFData)
}
