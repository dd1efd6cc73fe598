package services

import (
	"strings"
	"testing"

	"filterchat/internal/models"
)

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name string
		raw  string
		safe bool
	}{
		{"plain safe", "SAFE", true},
		{"plain unsafe", "UNSAFE", false},
		{"lowercase safe", "safe", true},
		{"unsafe beats safe substring", "UNSAFE", false},
		{"not safe phrasing", "This is NOT SAFE", false},
		{"ok keyword", "OK", true},
		{"bad keyword", "BAD", false},
		{"verdict with trailing prose", "SAFE. 문제 없는 표현입니다.", true},
		{"ambiguous defaults to unsafe", "모르겠습니다", false},
		{"empty defaults to unsafe", "", false},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			if got := parseDecision(tc.raw); got != tc.safe {
				t.Errorf("parseDecision(%q) = %v, want %v", tc.raw, got, tc.safe)
			}
		})
	}
}

func TestBuildPrompt(t *testing.T) {
	messages := []models.ChatMessage{
		{Role: "assistant", Content: "안녕하세요!"},
		{Role: "user", Content: "오늘 기분이 어때?"},
	}

	prompt := BuildPrompt(messages)

	expected := "assistant: 안녕하세요!\nuser: 오늘 기분이 어때?"
	if prompt != expected {
		t.Errorf("Expected %q, got %q", expected, prompt)
	}
}

func TestBuildPrompt_Empty(t *testing.T) {
	if prompt := BuildPrompt(nil); prompt != "" {
		t.Errorf("Expected empty prompt, got %q", prompt)
	}
}

func TestBuildClassifyPrompt(t *testing.T) {
	prompt := buildClassifyPrompt("테스트 발화")

	if !strings.Contains(prompt, "사용자: 테스트 발화") {
		t.Errorf("Prompt does not embed the utterance: %q", prompt)
	}
	if !strings.HasSuffix(prompt, "판단:") {
		t.Errorf("Prompt does not end with the verdict cue: %q", prompt)
	}
}

func TestDecisionCacheKey(t *testing.T) {
	a := decisionCacheKey("hello")
	b := decisionCacheKey("hello")
	c := decisionCacheKey("hello!")

	if a != b {
		t.Error("Same utterance should map to the same cache key")
	}
	if a == c {
		t.Error("Different utterances should map to different cache keys")
	}
	if !strings.HasPrefix(a, "moderation:decision:") {
		t.Errorf("Unexpected key prefix: %q", a)
	}
}
