package services

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"delivery-ledger-backend/db/models"

	"go.uber.org/zap"
	"golang.org/x/time/rate"
	"google.golang.org/genai"
)

// SuggestionService drafts a one-sentence suggested fix for rejected import
// rows using Gemini. Entirely optional: a nil service or any failure leaves
// the conflict without a suggestion.
type SuggestionService struct {
	client      *genai.Client
	cache       map[string]*cachedSuggestion
	cacheMutex  sync.RWMutex
	rateLimiter *rate.Limiter
	logger      *zap.Logger
}

type cachedSuggestion struct {
	Text      string
	ExpiresAt time.Time
}

func NewSuggestionService(apiKey string, logger *zap.Logger) (*SuggestionService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  apiKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, err
	}

	service := &SuggestionService{
		client:      client,
		cache:       make(map[string]*cachedSuggestion),
		rateLimiter: rate.NewLimiter(rate.Every(time.Minute/15), 15), // 15 requests per minute
		logger:      logger,
	}

	service.startCacheCleanup()
	return service, nil
}

// SuggestFix implements FixSuggester. Identical conflicts (same reason and
// detail shape) share a cached answer so a 500-row batch of the same typo
// costs one API call.
func (s *SuggestionService) SuggestFix(ctx context.Context, reason models.ConflictReason, detail string, rowData map[string]string) (string, error) {
	prompt := s.buildPrompt(reason, detail, rowData)
	key := cacheKey(string(reason) + "|" + detail)

	if cached := s.getFromCache(key); cached != "" {
		return cached, nil
	}

	if err := s.rateLimiter.Wait(ctx); err != nil {
		return "", fmt.Errorf("rate limit wait failed: %w", err)
	}

	start := time.Now()
	contents := []*genai.Content{
		{Parts: []*genai.Part{{Text: prompt}}},
	}
	resp, err := s.client.Models.GenerateContent(ctx, "gemini-2.5-flash", contents, nil)
	if err != nil {
		s.logger.Warn("suggestion request failed",
			zap.String("reason", string(reason)),
			zap.Duration("duration", time.Since(start)),
			zap.Error(err),
		)
		return "", err
	}

	text := strings.TrimSpace(resp.Text())
	s.cacheSuggestion(key, text)

	s.logger.Info("suggestion generated",
		zap.String("reason", string(reason)),
		zap.Duration("duration", time.Since(start)),
	)
	return text, nil
}

func (s *SuggestionService) buildPrompt(reason models.ConflictReason, detail string, rowData map[string]string) string {
	rowJSON, _ := json.Marshal(rowData)
	var b strings.Builder
	b.WriteString("You are reviewing a rejected row from a construction-delivery spreadsheet import.\n")
	b.WriteString("Rejection reason: ")
	b.WriteString(string(reason))
	b.WriteString("\nDetail: ")
	b.WriteString(detail)
	b.WriteString("\nRow data (column label -> raw cell): ")
	b.Write(rowJSON)
	b.WriteString("\nIn one short sentence, tell the accountant what to correct. No preamble.")
	return b.String()
}

func (s *SuggestionService) getFromCache(key string) string {
	s.cacheMutex.RLock()
	defer s.cacheMutex.RUnlock()

	if cached, exists := s.cache[key]; exists && time.Now().Before(cached.ExpiresAt) {
		return cached.Text
	}
	return ""
}

func (s *SuggestionService) cacheSuggestion(key, text string) {
	s.cacheMutex.Lock()
	defer s.cacheMutex.Unlock()

	s.cache[key] = &cachedSuggestion{
		Text:      text,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}
}

func cacheKey(input string) string {
	hash := md5.Sum([]byte(input))
	return hex.EncodeToString(hash[:])
}

func (s *SuggestionService) startCacheCleanup() {
	go func() {
		ticker := time.NewTicker(time.Hour)
		defer ticker.Stop()

		for range ticker.C {
			s.cacheMutex.Lock()
			now := time.Now()
			for key, cached := range s.cache {
				if now.After(cached.ExpiresAt) {
					delete(s.cache, key)
				}
			}
			s.cacheMutex.Unlock()
		}
	}()
}
