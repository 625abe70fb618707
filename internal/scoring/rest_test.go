package scoring

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oakline/lettermill/internal/model"
)

func testCustomers() []model.CustomerRecord {
	return []model.CustomerRecord{
		{"ACCOUNT_NO": "A1", "BALANCE": 0.0},
		{"ACCOUNT_NO": "A2", "BALANCE": 500.0},
	}
}

func TestRESTClientScore(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req scoreRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "account_closure", req.IssueType)
		assert.Len(t, req.Customers, 2)

		resp := map[string]any{
			"analysis": []map[string]any{
				{"account_no": "A1", "confidence": 0.95, "priority": "high", "reason": "Zero balance, long dormancy"},
				{"account_no": "A2", "confidence": 0.6, "priority": "Low", "reason": "Borderline"},
			},
			"summary": map[string]string{"model": "score-v2"},
		}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer server.Close()

	client, err := newRESTClient(Config{Endpoint: server.URL, APIKey: "secret"})
	require.NoError(t, err)

	report, err := client.Score(context.Background(), testCustomers(), model.IssueAccountClosure)
	require.NoError(t, err)

	require.Len(t, report.Entries, 2)
	assert.Equal(t, "A1", report.Entries[0].AccountNo)
	assert.InDelta(t, 0.95, report.Entries[0].Confidence, 0.001)
	assert.Equal(t, model.PriorityHigh, report.Entries[0].Priority)
	assert.Equal(t, model.PriorityLow, report.Entries[1].Priority)
	assert.Equal(t, "score-v2", report.Summary["model"])
}

func TestRESTClientScoreServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer server.Close()

	client, err := newRESTClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Score(context.Background(), testCustomers(), model.IssueKYCUpdate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestRESTClientScoreMalformedResponse(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("not json at all"))
	}))
	defer server.Close()

	client, err := newRESTClient(Config{Endpoint: server.URL})
	require.NoError(t, err)

	_, err = client.Score(context.Background(), testCustomers(), model.IssueKYCUpdate)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "parse")
}

func TestNewRESTClientRequiresEndpoint(t *testing.T) {
	_, err := newRESTClient(Config{})
	require.Error(t, err)
}

func TestParsePriority(t *testing.T) {
	assert.Equal(t, model.PriorityHigh, parsePriority("high"))
	assert.Equal(t, model.PriorityHigh, parsePriority("HIGH"))
	assert.Equal(t, model.PriorityLow, parsePriority("Low"))
	assert.Equal(t, model.PriorityMedium, parsePriority("medium"))
	assert.Equal(t, model.PriorityMedium, parsePriority("whatever"))
}
