package salesforce

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testCreds(loginURL string) Credentials {
	return Credentials{
		Username:       "bot@example.sandbox",
		Password:       "secret",
		ConsumerKey:    "key",
		ConsumerSecret: "csecret",
		SecurityToken:  "tok",
		LoginURL:       loginURL,
	}
}

func newLoggedInClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/services/oauth2/token" {
			require.NoError(t, r.ParseForm())
			assert.Equal(t, "password", r.FormValue("grant_type"))
			assert.Equal(t, "key", r.FormValue("client_id"))
			// Password and security token travel concatenated.
			assert.Equal(t, "secrettok", r.FormValue("password"))

			_ = json.NewEncoder(w).Encode(map[string]string{
				"access_token": "session-token",
				"instance_url": srv.URL,
			})
			return
		}
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	client := NewClient(testCreds(srv.URL), 5*time.Second, 0, zap.NewNop())
	require.NoError(t, client.Login(context.Background()))
	return client, srv
}

func TestLogin_Failure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer srv.Close()

	client := NewClient(testCreds(srv.URL), 5*time.Second, 0, zap.NewNop())
	assert.Error(t, client.Login(context.Background()))
}

func TestGetAccountByPhone(t *testing.T) {
	client, _ := newLoggedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/"+apiVersion+"/query", r.URL.Path)
		assert.Equal(t, "Bearer session-token", r.Header.Get("Authorization"))

		soql := r.URL.Query().Get("q")
		assert.Contains(t, soql, "FROM Account")
		assert.Contains(t, soql, "'+972523265851'")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 1,
			"records":   []map[string]string{{"Id": "001xx0000001"}},
		})
	})

	id, err := client.GetAccountByPhone(context.Background(), "+972523265851")
	require.NoError(t, err)
	assert.Equal(t, "001xx0000001", id)
}

func TestGetAccountByPhone_NotFound(t *testing.T) {
	client, _ := newLoggedInClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"totalSize": 0})
	})

	id, err := client.GetAccountByPhone(context.Background(), "+972523265851")
	require.NoError(t, err)
	assert.Empty(t, id, "absence is an empty ID, not an error")
}

func TestCreateOpportunity(t *testing.T) {
	client, _ := newLoggedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/services/data/"+apiVersion+"/sobjects/Opportunity", r.URL.Path)

		var fields map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Equal(t, "001xx0000001", fields["AccountId"])
		assert.Equal(t, StageAccepted, fields["StageName"])
		assert.InDelta(t, 33.9, fields["Amount"].(float64), 1e-9)
		assert.Equal(t, "AB12CD", fields["OrderNumber__c"])
		assert.Contains(t, fields["Name"], "AB12CD-")
		assert.Contains(t, fields["Name"], "+972523265851")

		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(createResponse{ID: "006xx0000001", Success: true})
	})

	id, err := client.CreateOpportunity(context.Background(),
		"001xx0000001", 33.9, "AB12CD", "פרטי הזמנה", "+972523265851")
	require.NoError(t, err)
	assert.Equal(t, "006xx0000001", id)
}

func TestGetOpportunityStageByOrderNumber(t *testing.T) {
	client, _ := newLoggedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		soql := r.URL.Query().Get("q")
		assert.Contains(t, soql, "OrderNumber__c = 'AB12CD'")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 1,
			"records":   []map[string]string{{"StageName": StageDelivery}},
		})
	})

	stage, err := client.GetOpportunityStageByOrderNumber(context.Background(), "AB12CD")
	require.NoError(t, err)
	assert.Equal(t, StageDelivery, stage)
}

func TestGetOpportunityStage(t *testing.T) {
	client, _ := newLoggedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/services/data/"+apiVersion+"/query", r.URL.Path)

		soql := r.URL.Query().Get("q")
		assert.Contains(t, soql, "FROM Opportunity")
		assert.Contains(t, soql, "Id = '006xx0000001'")

		_ = json.NewEncoder(w).Encode(map[string]any{
			"totalSize": 1,
			"records":   []map[string]string{{"Id": "006xx0000001", "StageName": StageAccepted}},
		})
	})

	stage, err := client.GetOpportunityStage(context.Background(), "006xx0000001")
	require.NoError(t, err)
	assert.Equal(t, StageAccepted, stage)
}

func TestGetOpportunityStage_NotFound(t *testing.T) {
	client, _ := newLoggedInClient(t, func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(map[string]any{"totalSize": 0})
	})

	stage, err := client.GetOpportunityStage(context.Background(), "006xx0000404")
	require.NoError(t, err)
	assert.Empty(t, stage)
}

func TestUpdateOpportunityStage(t *testing.T) {
	client, _ := newLoggedInClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPatch, r.Method)
		assert.Equal(t, "/services/data/"+apiVersion+"/sobjects/Opportunity/006xx0000001", r.URL.Path)

		var fields map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&fields))
		assert.Equal(t, StageDelivered, fields["StageName"])

		w.WriteHeader(http.StatusNoContent)
	})

	err := client.UpdateOpportunityStage(context.Background(), "006xx0000001", StageDelivered)
	assert.NoError(t, err)
}
