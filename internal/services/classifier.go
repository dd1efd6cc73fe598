package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/generative-ai-go/genai"
	"github.com/redis/go-redis/v9"

	"google.golang.org/api/option"
)

// Decision is the moderation verdict for a single utterance.
type Decision struct {
	IsSafe bool   `json:"is_safe"`
	Raw    string `json:"raw_decision"`
}

const decisionCacheTTL = 24 * time.Hour

// Ambiguous classifier output is treated as unsafe. UNSAFE keywords are
// checked first because "UNSAFE" contains "SAFE" as a substring.
var (
	unsafeKeywords = []string{"UNSAFE", "NOT SAFE", "BAD"}
	safeKeywords   = []string{"SAFE", "OK"}
)

type GeminiService struct {
	client        *genai.Client
	chatModel     *genai.GenerativeModel
	classifyModel *genai.GenerativeModel
	redis         *redis.Client
	maxTokens     int
	rateChan      chan struct{} // Token bucket
}

func NewGeminiService(
	apiKey string,
	modelName string,
	concurrentReqs int,
	maxTokens int,
	temperature float64,
	topP float64,
	redisClient *redis.Client,
) (*GeminiService, error) {
	ctx := context.Background()
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}

	chatModel := client.GenerativeModel(modelName)
	chatModel.SetTemperature(float32(temperature))
	chatModel.SetTopP(float32(topP))
	chatModel.SetMaxOutputTokens(int32(maxTokens))

	// Classification wants a deterministic one-word verdict.
	classifyModel := client.GenerativeModel(modelName)
	classifyModel.SetTemperature(0)
	classifyModel.SetMaxOutputTokens(8)

	// Token bucket for rate limiting
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &GeminiService{
		client:        client,
		chatModel:     chatModel,
		classifyModel: classifyModel,
		redis:         redisClient,
		maxTokens:     maxTokens,
		rateChan:      rateChan,
	}, nil
}

func (s *GeminiService) Close() {
	s.client.Close()
}

// acquireRate blocks until a rate slot is available
func (s *GeminiService) acquireRate(ctx context.Context) error {
	select {
	case <-s.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for Gemini rate slot")
	}
}

func (s *GeminiService) releaseRate() {
	s.rateChan <- struct{}{}
}

// Classify judges whether a single user utterance is appropriate.
// Decisions are cached in Redis keyed by the utterance hash, so repeated
// messages skip the model round trip.
func (s *GeminiService) Classify(ctx context.Context, text string) (Decision, error) {
	cacheKey := decisionCacheKey(text)

	if s.redis != nil {
		if cached, err := s.redis.Get(ctx, cacheKey).Result(); err == nil {
			var d Decision
			if err := json.Unmarshal([]byte(cached), &d); err == nil {
				return d, nil
			}
		}
	}

	if err := s.acquireRate(ctx); err != nil {
		return Decision{}, err
	}
	defer s.releaseRate()

	prompt := buildClassifyPrompt(text)

	resp, err := s.classifyModel.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Decision{}, fmt.Errorf("Gemini API error: %w", err)
	}

	raw := strings.TrimSpace(extractText(resp))
	decision := Decision{
		IsSafe: parseDecision(raw),
		Raw:    raw,
	}

	if s.redis != nil {
		data, _ := json.Marshal(decision)
		s.redis.Set(ctx, cacheKey, string(data), decisionCacheTTL)
	}

	return decision, nil
}

func buildClassifyPrompt(text string) string {
	return "다음 사용자의 발화가 부적절한 표현인지 판별하십시오. " +
		"부적절한 경우에는 'UNSAFE', 문제가 없으면 'SAFE' 라는 단어 하나만 출력하세요.\n\n" +
		"사용자: " + text + "\n" +
		"판단:"
}

func parseDecision(raw string) bool {
	normalized := strings.ToUpper(raw)

	for _, kw := range unsafeKeywords {
		if strings.Contains(normalized, kw) {
			return false
		}
	}
	for _, kw := range safeKeywords {
		if strings.Contains(normalized, kw) {
			return true
		}
	}
	return false
}

func decisionCacheKey(text string) string {
	sum := sha256.Sum256([]byte(text))
	return "moderation:decision:" + hex.EncodeToString(sum[:])
}

func extractText(resp *genai.GenerateContentResponse) string {
	var text strings.Builder
	for _, cand := range resp.Candidates {
		if cand.Content != nil {
			for _, part := range cand.Content.Parts {
				if t, ok := part.(genai.Text); ok {
					text.WriteString(string(t))
				}
			}
		}
	}
	return text.String()
}
