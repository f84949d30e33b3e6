package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"social-house-backend/internal/cache"
	"social-house-backend/internal/models"

	"github.com/rs/zerolog/log"
)

// searchGenerationKey holds the generation that prefixes every cached
// result; bumping it orphans all earlier entries
const searchGenerationKey = "search:generation"

// SearchService finds users by username
type SearchService struct {
	users UserRepository
	cache cache.Cache
	ttl   time.Duration
	now   func() time.Time
}

// NewSearchService creates a search service. c may be nil to disable caching.
func NewSearchService(users UserRepository, c cache.Cache, ttl time.Duration) *SearchService {
	return &SearchService{users: users, cache: c, ttl: ttl, now: time.Now}
}

// Invalidate drops every cached result. It is called whenever a username or
// profile image changes or a user signs up.
func (s *SearchService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}

	// The marker lives as long as the entries it supersedes, so once it
	// expires every older entry has expired too.
	gen := strconv.FormatInt(s.now().UnixNano(), 10)
	if err := s.cache.Set(ctx, searchGenerationKey, []byte(gen), s.ttl); err != nil {
		log.Warn().Err(err).Str("cache", s.cache.Name()).Msg("Search cache invalidation failed")
	}
}

func (s *SearchService) generation(ctx context.Context) string {
	data, err := s.cache.Get(ctx, searchGenerationKey)
	if err != nil {
		return "0"
	}
	return string(data)
}

// Search returns up to 10 users whose username contains query, ignoring case,
// in alphabetical order and without excludeUserID. Queries shorter than two
// characters match nothing. A failed lookup yields an empty result together
// with an error wrapping ErrInternal, which callers should log rather than
// surface.
func (s *SearchService) Search(ctx context.Context, query, excludeUserID string) ([]*models.UserSummary, error) {
	q := strings.TrimSpace(query)
	if utf8.RuneCountInString(q) < minSearchLength {
		return []*models.UserSummary{}, nil
	}
	if !isValidID(excludeUserID) {
		excludeUserID = ""
	}

	var (
		results []*models.UserSummary
		err     error
	)
	if s.cache == nil {
		results, err = s.users.SearchByUsername(ctx, q, excludeUserID, maxSearchResults)
	} else {
		results, err = s.cachedSearch(ctx, q, excludeUserID)
	}
	if err != nil {
		searchDegradedTotal.Inc()
		log.Error().Err(err).Str("query", q).Msg("User search failed")
		return []*models.UserSummary{}, fmt.Errorf("%w: search: %w", ErrInternal, err)
	}

	if results == nil {
		results = []*models.UserSummary{}
	}
	return results, nil
}

// cachedSearch caches the unfiltered matches for a query, one more than the
// cap so that dropping the caller still leaves a full page
func (s *SearchService) cachedSearch(ctx context.Context, q, excludeUserID string) ([]*models.UserSummary, error) {
	key := "search:" + s.generation(ctx) + ":" + strings.ToLower(q)

	var matches []*models.UserSummary
	data, err := s.cache.Get(ctx, key)
	switch {
	case err == nil && json.Unmarshal(data, &matches) == nil:
		searchCacheTotal.WithLabelValues("hit").Inc()
	default:
		if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
			log.Warn().Err(err).Str("cache", s.cache.Name()).Msg("Search cache read failed")
		}
		searchCacheTotal.WithLabelValues("miss").Inc()

		matches, err = s.users.SearchByUsername(ctx, q, "", maxSearchResults+1)
		if err != nil {
			return nil, err
		}
		if data, err := json.Marshal(matches); err == nil {
			if err := s.cache.Set(ctx, key, data, s.ttl); err != nil {
				log.Warn().Err(err).Str("cache", s.cache.Name()).Msg("Search cache write failed")
			}
		}
	}

	results := make([]*models.UserSummary, 0, maxSearchResults)
	for _, m := range matches {
		if m.ID == excludeUserID {
			continue
		}
		if len(results) == maxSearchResults {
			break
		}
		results = append(results, m)
	}
	return results, nil
}
