package api

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
	"wcl-rankings/internal/config"
	"wcl-rankings/internal/domain"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*WCLClient, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	cfg := &config.Config{
		WCLBaseURL: srv.URL,
		WCLTimeout: 2 * time.Second,
		Tiers:      []domain.TierKey{"T31", "T33"},
	}
	return NewWCLClient(cfg, zerolog.Nop()), srv
}

func writeJSON(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, body)
}

func TestAuthenticate_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, authPath, r.URL.Path)
		assert.Equal(t, "application/x-www-form-urlencoded", r.Header.Get("Content-Type"))

		auth := strings.TrimPrefix(r.Header.Get("Authorization"), "Basic ")
		decoded, err := base64.StdEncoding.DecodeString(auth)
		assert.NoError(t, err)
		assert.Equal(t, "my-id:my-secret", string(decoded))

		body, _ := io.ReadAll(r.Body)
		assert.Equal(t, "grant_type=client_credentials", string(body))

		writeJSON(w, http.StatusOK, `{"access_token":"tok-123","token_type":"Bearer","expires_in":31536000}`)
	})

	token, err := client.Authenticate(t.Context(), "my-id", "my-secret")
	require.NoError(t, err)
	assert.Equal(t, "tok-123", token)
}

func TestAuthenticate_InvalidClient(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"invalid_client","error_description":"Client authentication failed"}`)
	})

	_, err := client.Authenticate(t.Context(), "bad", "bad")

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Contains(t, err.Error(), "invalid_client")
}

func TestAuthenticate_ErrorsShapeOn200(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"errors":[{"message":"first"},{"message":"second"}]}`)
	})

	_, err := client.Authenticate(t.Context(), "id", "secret")

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, "first second ", authErr.Message)
	assert.Equal(t, "WarcraftLogs returned Status:200 (first second)", err.Error())
}

func TestAuthenticate_NonJSONOn200IsParseError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `<html>oops</html>`)
	})

	_, err := client.Authenticate(t.Context(), "id", "secret")

	var parseErr *domain.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestAuthenticate_MissingTokenIsParseError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"token_type":"Bearer"}`)
	})

	_, err := client.Authenticate(t.Context(), "id", "secret")

	var parseErr *domain.ParseError
	assert.ErrorAs(t, err, &parseErr)
}

func TestAuthenticate_NonJSONErrorStatusIsAuthError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusBadGateway, `Bad Gateway`)
	})

	_, err := client.Authenticate(t.Context(), "id", "secret")

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusBadGateway, authErr.Status)
	assert.Contains(t, authErr.Message, "Bad Gateway")
}

func TestAuthenticate_NetworkError(t *testing.T) {
	client, srv := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {})
	srv.Close()

	_, err := client.Authenticate(t.Context(), "id", "secret")

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Contains(t, err.Error(), authPath)
}

func TestAuthenticate_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	defer close(release)
	client.timeout = 100 * time.Millisecond

	start := time.Now()
	_, err := client.Authenticate(t.Context(), "id", "secret")

	var netErr *domain.NetworkError
	require.ErrorAs(t, err, &netErr)
	assert.Less(t, time.Since(start), 2*time.Second)
}

const rankingsBody = `{
	"data": {
		"characterData": {
			"character": {
				"classID": 6,
				"T31": {
					"metric": "dps",
					"partition": 1,
					"zone": 31,
					"rankings": [{
						"encounter": {"id": 2587, "name": "Eranog"},
						"rankPercent": 95.5,
						"medianPercent": 80.1,
						"totalKills": 12,
						"bestSpec": "Retribution",
						"bestAmount": 123456.7,
						"allStars": {"points": 120.5, "possiblePoints": 120, "rank": 42, "rankPercent": 99.1}
					}]
				},
				"T33": {"error": "Invalid zone"}
			}
		}
	}
}`

func TestFetchCharacterData_Success(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, apiPath, r.URL.Path)
		assert.Equal(t, "Bearer tok-123", r.Header.Get("Authorization"))
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req graphQLRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Contains(t, req.Query, "T31: zoneRankings(zoneID: 31, metric: dps)")
		assert.Contains(t, req.Query, "T33: zoneRankings(zoneID: 33, metric: dps)")
		assert.Contains(t, req.Query, `serverSlug: "Area 52"`)

		writeJSON(w, http.StatusOK, rankingsBody)
	})

	data, err := client.FetchCharacterData(t.Context(), "tok-123", domain.RegionUS, "Area 52", "Thrall",
		&domain.RankingFilters{Metric: domain.MetricDPS})
	require.NoError(t, err)

	assert.Equal(t, 6, data.ClassID)
	assert.Equal(t, "paladin", data.ClassName())
	require.Len(t, data.Tiers, 2)

	t31 := data.Tiers["T31"]
	require.NotNil(t, t31.Info)
	assert.Equal(t, 31, t31.Info.Zone)
	require.Len(t, t31.Info.Rankings, 1)
	assert.Equal(t, "Eranog", t31.Info.Rankings[0].Encounter.Name)
	assert.Equal(t, 12, t31.Info.Rankings[0].TotalKills)
	require.NotNil(t, t31.Info.Rankings[0].AllStars)
	assert.Equal(t, 42, t31.Info.Rankings[0].AllStars.Rank)

	t33 := data.Tiers["T33"]
	assert.Nil(t, t33.Info)
	assert.Equal(t, "Invalid zone", t33.Error)
}

func TestFetchCharacterData_NullCharacterIsEmptyResult(t *testing.T) {
	body := `{"data":{"characterData":{"character":null}},"extensions":{"padding":"` + strings.Repeat("x", 200) + `"}}`
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, body)
	})

	_, err := client.FetchCharacterData(t.Context(), "tok", domain.RegionEU, "Draenor", "Nobody", nil)

	var emptyErr *domain.EmptyResultError
	require.ErrorAs(t, err, &emptyErr)
	assert.Equal(t, body[:80], emptyErr.Snippet)
}

func TestFetchCharacterData_MissingDataIsEmptyResult(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{}`)
	})

	_, err := client.FetchCharacterData(t.Context(), "tok", domain.RegionEU, "Draenor", "Nobody", nil)

	var emptyErr *domain.EmptyResultError
	assert.ErrorAs(t, err, &emptyErr)
}

func TestFetchCharacterData_GraphQLErrors(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, `{"errors":[{"message":"Unknown argument \"bogus\""}],"data":null}`)
	})

	_, err := client.FetchCharacterData(t.Context(), "tok", domain.RegionUS, "Area 52", "Thrall", nil)

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, err.Error(), `Unknown argument "bogus"`)
}

func TestFetchCharacterData_Unauthorized(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusUnauthorized, `{"error":"Unauthenticated."}`)
	})

	_, err := client.FetchCharacterData(t.Context(), "expired", domain.RegionUS, "Area 52", "Thrall", nil)

	var authErr *domain.AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
}

func TestSnippet(t *testing.T) {
	assert.Equal(t, "abc", snippet([]byte("abc"), 80))
	assert.Equal(t, "ab", snippet([]byte("abc"), 2))
	assert.Equal(t, "ü", snippet([]byte("üx"), 1))
}
