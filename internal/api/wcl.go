package api

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"wcl-rankings/internal/config"
	"wcl-rankings/internal/constants"
	"wcl-rankings/internal/domain"
	"wcl-rankings/internal/query"

	"github.com/rs/zerolog"
	"github.com/valyala/fasthttp"
)

const (
	authPath = "/oauth/token"
	apiPath  = "/api/v2/client"
)

// WCLClient talks to the WarcraftLogs v2 API. It keeps no per-call state; every call is
// a single request with no retries.
type WCLClient struct {
	baseURL string
	tiers   []domain.TierKey
	timeout time.Duration
	client  *fasthttp.Client
	logger  zerolog.Logger
}

func NewWCLClient(cfg *config.Config, logger zerolog.Logger) *WCLClient {
	return &WCLClient{
		baseURL: cfg.WCLBaseURL,
		tiers:   cfg.Tiers,
		timeout: cfg.WCLTimeout,
		client: &fasthttp.Client{
			Name:                "wcl-rankings",
			MaxConnsPerHost:     16,
			ReadTimeout:         cfg.WCLTimeout,
			WriteTimeout:        cfg.WCLTimeout,
			MaxIdleConnDuration: 1 * time.Minute,
		},
		logger: logger,
	}
}

func (c *WCLClient) Tiers() []domain.TierKey {
	return append([]domain.TierKey(nil), c.tiers...)
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
}

// Authenticate runs the OAuth2 client-credentials grant and returns the access token.
func (c *WCLClient) Authenticate(ctx context.Context, clientID, clientSecret string) (string, error) {
	url := c.baseURL + authPath
	basicAuth := base64.StdEncoding.EncodeToString([]byte(clientID + ":" + clientSecret))

	c.logger.Info().Str("url", url).Msg("requesting access token")

	status, body, err := c.doRequest(ctx, url, "Basic "+basicAuth, "application/x-www-form-urlencoded", []byte("grant_type=client_credentials"))
	if err != nil {
		c.logger.Warn().Err(err).Str("url", url).Msg("token request failed")
		return "", err
	}

	token, err := decodeResponse[tokenResponse](status, body, "auth response from WarcraftLogs")
	if err != nil {
		c.logger.Warn().Err(err).Int("status", status).Msg("token request rejected")
		return "", err
	}

	accessToken := strings.TrimSpace(token.AccessToken)
	if accessToken == "" {
		return "", &domain.ParseError{What: "auth response from WarcraftLogs", Err: fmt.Errorf("missing access_token")}
	}

	c.logger.Info().Int("token_len", len(accessToken)).Msg("access token received")
	return accessToken, nil
}

type graphQLRequest struct {
	Query string `json:"query"`
}

type characterRankingsResponse struct {
	Data *struct {
		CharacterData *struct {
			Character json.RawMessage `json:"character"`
		} `json:"characterData"`
	} `json:"data"`
}

// FetchCharacterData queries the zone rankings of every configured tier for one character.
// The character object is returned as received; tiers the API failed on carry an error entry.
func (c *WCLClient) FetchCharacterData(ctx context.Context, accessToken string, region domain.Region, realm, name string, filters *domain.RankingFilters) (*domain.CharacterData, error) {
	url := c.baseURL + apiPath
	identity := domain.Identity{Region: region, Realm: realm, CharacterName: name}

	payload, err := json.Marshal(graphQLRequest{Query: query.BuildRankingQuery(c.tiers, identity, filters)})
	if err != nil {
		return nil, fmt.Errorf("failed to encode query: %w", err)
	}

	c.logger.Info().
		Str("region", string(region)).
		Str("realm", realm).
		Str("name", name).
		Int("tiers", len(c.tiers)).
		Msg("fetching character rankings")

	status, body, err := c.doRequest(ctx, url, "Bearer "+accessToken, "application/json", payload)
	if err != nil {
		c.logger.Warn().Err(err).Str("url", url).Msg("rankings request failed")
		return nil, err
	}

	resp, err := decodeResponse[characterRankingsResponse](status, body, "ranking response from WarcraftLogs")
	if err != nil {
		c.logger.Warn().Err(err).Int("status", status).Msg("rankings request rejected")
		return nil, err
	}

	if resp.Data == nil || resp.Data.CharacterData == nil || isNull(resp.Data.CharacterData.Character) {
		return nil, &domain.EmptyResultError{Snippet: snippet(body, constants.EmptyResultSnippetLen)}
	}

	var character domain.CharacterData
	if err := json.Unmarshal(resp.Data.CharacterData.Character, &character); err != nil {
		return nil, &domain.ParseError{What: "character data from WarcraftLogs", Err: err}
	}

	c.logger.Info().Int("class_id", character.ClassID).Int("tiers", len(character.Tiers)).Msg("received character rankings")
	return &character, nil
}

func (c *WCLClient) doRequest(ctx context.Context, url, authorization, contentType string, body []byte) (int, []byte, error) {
	if err := ctx.Err(); err != nil {
		return 0, nil, &domain.NetworkError{URL: url, Err: err}
	}

	req := fasthttp.AcquireRequest()
	resp := fasthttp.AcquireResponse()
	defer fasthttp.ReleaseRequest(req)
	defer fasthttp.ReleaseResponse(resp)

	req.SetRequestURI(url)
	req.Header.SetMethod(fasthttp.MethodPost)
	req.Header.Set("Authorization", authorization)
	req.Header.SetContentType(contentType)
	req.Header.Set("Accept", "application/json")
	req.SetBody(body)

	deadline := time.Now().Add(c.timeout)
	if d, ok := ctx.Deadline(); ok && d.Before(deadline) {
		deadline = d
	}

	if err := c.client.DoDeadline(req, resp, deadline); err != nil {
		return 0, nil, &domain.NetworkError{URL: url, Err: err}
	}

	return resp.StatusCode(), append([]byte(nil), resp.Body()...), nil
}

type wclError struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error  *string    `json:"error"`
	Errors []wclError `json:"errors"`
}

func (e errorResponse) isError() bool {
	return e.Error != nil || e.Errors != nil
}

func (e errorResponse) message() string {
	if e.Error != nil {
		return *e.Error
	}

	var msg strings.Builder
	for _, err := range e.Errors {
		msg.WriteString(err.Message)
		msg.WriteString(" ")
	}
	return msg.String()
}

// decodeResponse classifies a WarcraftLogs response and decodes the success payload.
func decodeResponse[T any](status int, body []byte, what string) (*T, error) {
	var errResp errorResponse
	if err := json.Unmarshal(body, &errResp); err != nil {
		if status != fasthttp.StatusOK {
			return nil, &domain.AuthError{Status: status, Message: snippet(body, constants.EmptyResultSnippetLen)}
		}
		return nil, &domain.ParseError{What: what, Err: err}
	}

	if status != fasthttp.StatusOK || errResp.isError() {
		return nil, &domain.AuthError{Status: status, Message: errResp.message()}
	}

	var result T
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, &domain.ParseError{What: what, Err: err}
	}
	return &result, nil
}

func isNull(raw json.RawMessage) bool {
	trimmed := strings.TrimSpace(string(raw))
	return trimmed == "" || trimmed == "null"
}

func snippet(body []byte, n int) string {
	runes := []rune(string(body))
	if len(runes) > n {
		runes = runes[:n]
	}
	return string(runes)
}
