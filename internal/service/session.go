package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"wcl-rankings/internal/constants"
	"wcl-rankings/internal/domain"
	"wcl-rankings/internal/repository"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"
)

type SettingsStore interface {
	Get(ctx context.Context, key, fallback string) (string, error)
	Set(ctx context.Context, key, value string) error
}

type RankingsClient interface {
	Authenticate(ctx context.Context, clientID, clientSecret string) (string, error)
	FetchCharacterData(ctx context.Context, accessToken string, region domain.Region, realm, name string, filters *domain.RankingFilters) (*domain.CharacterData, error)
}

// Snapshot is a copy of the session state safe to hand to the presentation layer.
type Snapshot struct {
	State           domain.SessionState   `json:"state"`
	IsLoading       bool                  `json:"isLoading"`
	ErrorMessage    string                `json:"errorMessage"`
	Identity        domain.Identity       `json:"identity"`
	Metric          domain.Metric         `json:"metric"`
	Difficulty      domain.Difficulty     `json:"difficulty"`
	HasClientID     bool                  `json:"hasClientId"`
	HasClientSecret bool                  `json:"hasClientSecret"`
	HasAccessToken  bool                  `json:"hasAccessToken"`
	CharacterData   *domain.CharacterData `json:"characterData"`

	Credentials domain.Credentials `json:"-"`
}

// SessionService owns the per-page-load session. Only one operation may run at a time;
// a second call while one is in flight fails with domain.ErrAlreadyInProgress.
type SessionService struct {
	store    SettingsStore
	client   RankingsClient
	identity domain.Identity
	logger   zerolog.Logger

	missingCredentialsDelay time.Duration

	inFlight atomic.Bool

	mu            sync.RWMutex
	state         domain.SessionState
	errorMessage  string
	creds         domain.Credentials
	filters       domain.Filters
	characterData *domain.CharacterData
}

func NewSessionService(store SettingsStore, client RankingsClient, identity domain.Identity, logger zerolog.Logger) *SessionService {
	return &SessionService{
		store:                   store,
		client:                  client,
		identity:                identity,
		logger:                  logger.With().Str("session_id", gonanoid.Must()).Logger(),
		missingCredentialsDelay: constants.MissingCredentialsDelay,
		state:                   domain.StateUnauthenticated,
		filters:                 domain.DefaultFilters(),
	}
}

func (s *SessionService) begin(op string) error {
	if !s.inFlight.CompareAndSwap(false, true) {
		s.logger.Warn().Str("op", op).Msg("rejected, another operation is in flight")
		return domain.ErrAlreadyInProgress
	}
	return nil
}

func (s *SessionService) end() {
	s.inFlight.Store(false)
}

func (s *SessionService) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return Snapshot{
		State:           s.state,
		IsLoading:       s.state.IsLoading(),
		ErrorMessage:    s.errorMessage,
		Identity:        s.identity,
		Metric:          s.filters.Metric,
		Difficulty:      s.filters.Difficulty,
		HasClientID:     s.creds.ClientID != "",
		HasClientSecret: s.creds.ClientSecret != "",
		HasAccessToken:  s.creds.AccessToken != "",
		CharacterData:   s.characterData,
		Credentials:     s.creds,
	}
}

// Load reads credentials and filters from the store. It never authenticates by itself.
func (s *SessionService) Load(ctx context.Context) error {
	if err := s.begin("load"); err != nil {
		return err
	}
	defer s.end()

	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	var clientID, clientSecret, accessToken, metric, difficulty string
	g, gCtx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		clientID, err = s.store.Get(gCtx, repository.KeyClientID, "")
		return err
	})
	g.Go(func() (err error) {
		clientSecret, err = s.store.Get(gCtx, repository.KeyClientSecret, "")
		return err
	})
	g.Go(func() (err error) {
		accessToken, err = s.store.Get(gCtx, repository.KeyAccessToken, "")
		return err
	})
	g.Go(func() (err error) {
		metric, err = s.store.Get(gCtx, repository.KeyFilterMetric, string(domain.DefaultMetric))
		return err
	})
	g.Go(func() (err error) {
		difficulty, err = s.store.Get(gCtx, repository.KeyFilterDifficulty, string(domain.DefaultDifficulty))
		return err
	})

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to load settings")
		s.fail(fmt.Errorf("failed to load settings: %w", err))
		return err
	}

	creds := domain.Credentials{ClientID: clientID, ClientSecret: clientSecret, AccessToken: accessToken}.Trimmed()
	filters := domain.DefaultFilters()
	if m, ok := domain.ParseMetric(metric); ok {
		filters.Metric = m
	} else {
		s.logger.Warn().Str("metric", metric).Msg("unknown stored metric, using default")
	}
	if d, ok := domain.ParseDifficulty(difficulty); ok {
		filters.Difficulty = d
	} else {
		s.logger.Warn().Str("difficulty", difficulty).Msg("unknown stored difficulty, using default")
	}

	s.mu.Lock()
	s.creds = creds
	s.filters = filters
	if creds.AccessToken != "" {
		s.state = domain.StateAuthenticated
	} else {
		s.state = domain.StateUnauthenticated
	}
	s.mu.Unlock()

	s.logger.Info().
		Int("client_id_len", len(creds.ClientID)).
		Int("client_secret_len", len(creds.ClientSecret)).
		Int("access_token_len", len(creds.AccessToken)).
		Str("metric", string(filters.Metric)).
		Str("difficulty", string(filters.Difficulty)).
		Msg("session loaded")

	return nil
}

func (s *SessionService) Save(ctx context.Context) error {
	if err := s.begin("save"); err != nil {
		return err
	}
	defer s.end()

	return s.save(ctx)
}

func (s *SessionService) save(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, constants.DatabaseTimeout)
	defer cancel()

	s.mu.RLock()
	values := map[string]string{
		repository.KeyClientID:         s.creds.ClientID,
		repository.KeyClientSecret:     s.creds.ClientSecret,
		repository.KeyAccessToken:      s.creds.AccessToken,
		repository.KeyFilterMetric:     string(s.filters.Metric),
		repository.KeyFilterDifficulty: string(s.filters.Difficulty),
	}
	s.mu.RUnlock()

	s.logger.Debug().
		Int("client_id_len", len(values[repository.KeyClientID])).
		Int("client_secret_len", len(values[repository.KeyClientSecret])).
		Int("access_token_len", len(values[repository.KeyAccessToken])).
		Msg("saving session")

	g, gCtx := errgroup.WithContext(ctx)
	for key, value := range values {
		g.Go(func() error {
			return s.store.Set(gCtx, key, value)
		})
	}

	if err := g.Wait(); err != nil {
		s.logger.Error().Err(err).Msg("failed to save settings")
		return fmt.Errorf("failed to save settings: %w", err)
	}
	return nil
}

// ResetAuth drops the access token but keeps the client id and secret.
func (s *SessionService) ResetAuth(ctx context.Context) error {
	if err := s.begin("reset_auth"); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	s.errorMessage = ""
	s.mu.Unlock()

	return s.resetAuth(ctx, domain.StateUnauthenticated)
}

func (s *SessionService) resetAuth(ctx context.Context, state domain.SessionState) error {
	s.logger.Info().Msg("resetting access token")

	s.mu.Lock()
	s.creds.AccessToken = ""
	s.state = state
	s.mu.Unlock()

	return s.save(ctx)
}

// ResetEverything clears credentials and filters back to their defaults.
func (s *SessionService) ResetEverything(ctx context.Context) error {
	if err := s.begin("reset_everything"); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	s.errorMessage = ""
	s.mu.Unlock()

	return s.resetEverything(ctx, domain.StateUnauthenticated)
}

// resetEverything leaves the session in state so a failing caller can stay loading until
// the wipe is persisted.
func (s *SessionService) resetEverything(ctx context.Context, state domain.SessionState) error {
	s.logger.Info().Msg("resetting credentials and filters")

	s.mu.Lock()
	s.creds = domain.Credentials{}
	s.filters = domain.DefaultFilters()
	s.characterData = nil
	s.state = state
	s.mu.Unlock()

	return s.save(ctx)
}

// SetCredentials stores new application keys. Any previous token belonged to the old keys
// and is dropped.
func (s *SessionService) SetCredentials(ctx context.Context, clientID, clientSecret string) error {
	if err := s.begin("set_credentials"); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	s.creds = domain.Credentials{ClientID: clientID, ClientSecret: clientSecret}.Trimmed()
	s.state = domain.StateUnauthenticated
	s.errorMessage = ""
	s.mu.Unlock()

	return s.save(ctx)
}

func (s *SessionService) SetFilters(ctx context.Context, filters domain.Filters) error {
	if err := s.begin("set_filters"); err != nil {
		return err
	}
	defer s.end()

	if !filters.Metric.Valid() {
		return &domain.ValidationError{Field: "metric", Value: string(filters.Metric)}
	}
	if !filters.Difficulty.Valid() {
		return &domain.ValidationError{Field: "difficulty", Value: string(filters.Difficulty)}
	}

	s.mu.Lock()
	s.filters = filters
	s.mu.Unlock()

	return s.save(ctx)
}

// Authenticate exchanges the stored client id and secret for an access token. Any failure
// is taken as a sign the keys are bad: credentials and filters are wiped and the user has
// to enter them again.
func (s *SessionService) Authenticate(ctx context.Context) error {
	if err := s.begin("authenticate"); err != nil {
		return err
	}
	defer s.end()

	return s.runAuthenticate(ctx)
}

// Login stores new application keys and authenticates with them as one operation.
func (s *SessionService) Login(ctx context.Context, clientID, clientSecret string) error {
	if err := s.begin("login"); err != nil {
		return err
	}
	defer s.end()

	s.mu.Lock()
	s.creds = domain.Credentials{ClientID: clientID, ClientSecret: clientSecret}.Trimmed()
	s.state = domain.StateAuthenticating
	s.errorMessage = ""
	s.mu.Unlock()

	if err := s.save(ctx); err != nil {
		s.fail(err)
		return err
	}

	return s.runAuthenticate(ctx)
}

func (s *SessionService) runAuthenticate(ctx context.Context) error {
	s.mu.Lock()
	s.state = domain.StateAuthenticating
	s.errorMessage = ""
	creds := s.creds
	s.mu.Unlock()

	s.logger.Info().Msg("authenticating")

	err := s.authenticate(ctx, creds)
	if err == nil {
		s.mu.Lock()
		s.state = domain.StateAuthenticated
		s.mu.Unlock()

		s.logger.Info().Msg("authenticated")
		return nil
	}

	s.logger.Warn().Err(err).Msg("authentication failed, discarding credentials")

	// the request context may already be done, recovery still has to persist
	if resetErr := s.resetEverything(context.WithoutCancel(ctx), domain.StateAuthenticating); resetErr != nil {
		s.logger.Error().Err(resetErr).Msg("failed to reset credentials")
	}
	s.fail(err)

	return err
}

func (s *SessionService) authenticate(ctx context.Context, creds domain.Credentials) error {
	if !creds.HasKeys() {
		if err := wait(ctx, s.missingCredentialsDelay); err != nil {
			return err
		}
		return domain.ErrMissingCredentials
	}

	token, err := s.client.Authenticate(ctx, creds.ClientID, creds.ClientSecret)
	if err != nil {
		return err
	}

	s.mu.Lock()
	s.creds.AccessToken = strings.TrimSpace(token)
	s.mu.Unlock()

	return s.save(ctx)
}

// FetchCharacterData loads the rankings of the session's character. Nil filters fall back to
// the persisted metric and difficulty. Failures are reported but never touch the credentials.
func (s *SessionService) FetchCharacterData(ctx context.Context, filters *domain.RankingFilters) (*domain.CharacterData, error) {
	if err := s.begin("fetch_character_data"); err != nil {
		return nil, err
	}
	defer s.end()

	if err := s.validateIdentity(); err != nil {
		s.logger.Warn().Err(err).Msg("refusing to fetch character data")
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	token := s.creds.AccessToken
	if filters == nil {
		filters = &domain.RankingFilters{Metric: s.filters.Metric, Difficulty: s.filters.Difficulty}
	}
	s.state = domain.StateFetching
	s.errorMessage = ""
	s.mu.Unlock()

	if token == "" {
		s.fail(domain.ErrMissingCredentials)
		return nil, domain.ErrMissingCredentials
	}

	ctx, cancel := context.WithTimeout(ctx, constants.RequestTimeout)
	defer cancel()

	data, err := s.client.FetchCharacterData(ctx, token, s.identity.Region, s.identity.Realm, s.identity.CharacterName, filters)
	if err != nil {
		s.logger.Warn().Err(err).Msg("failed to fetch character data")
		s.fail(err)
		return nil, err
	}

	s.mu.Lock()
	s.characterData = data
	s.state = domain.StateReady
	s.mu.Unlock()

	s.logger.Info().Int("class_id", data.ClassID).Int("tiers", len(data.Tiers)).Msg("character data updated")
	return data, nil
}

func (s *SessionService) validateIdentity() error {
	switch {
	case !s.identity.Region.Valid():
		return &domain.ValidationError{Field: "region", Value: string(s.identity.Region)}
	case strings.TrimSpace(s.identity.Realm) == "":
		return &domain.ValidationError{Field: "realm", Value: s.identity.Realm}
	case strings.TrimSpace(s.identity.CharacterName) == "":
		return &domain.ValidationError{Field: "characterName", Value: s.identity.CharacterName}
	}
	return nil
}

func (s *SessionService) fail(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.errorMessage = strings.TrimSpace(err.Error())
	s.state = domain.StateError
}

func wait(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// IsAuthFailure reports whether err means the credentials were refused or missing.
func IsAuthFailure(err error) bool {
	var authErr *domain.AuthError
	return errors.As(err, &authErr) || errors.Is(err, domain.ErrMissingCredentials)
}
