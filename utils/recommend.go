package utils

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"dambabgo/config"

	"github.com/sirupsen/logrus"
)

const geminiEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/gemini-2.0-flash:generateContent"

// FallbackMenus is returned whenever the recommendation call cannot produce
// a usable list. Callers never see an error.
var FallbackMenus = []string{"김치찌개", "샌드위치", "라멘"}

var recommendClient = &http.Client{Timeout: 10 * time.Second}

// GetMenuRecommendation asks Gemini for Korean lunch menu suggestions for
// the given context and weather. Any failure — missing key, network error,
// bad status, unparseable body — yields FallbackMenus.
func GetMenuRecommendation(ctx context.Context, mealContext, weather string) []string {
	if config.AppConfig.GeminiAPIKey == "" {
		return FallbackMenus
	}
	if mealContext == "" {
		mealContext = "일반적인 점심"
	}
	if weather == "" {
		weather = "보통"
	}

	prompt := fmt.Sprintf(
		"한국 직장인들을 위한 점심 메뉴 5개를 추천해줘.\n상황: %s.\n날씨: %s.\n반드시 한국어로 메뉴 이름만 포함된 JSON 배열 형태로 응답해줘. 예: [\"김치찌개\", \"돈가스\", \"제육볶음\"].",
		mealContext, weather,
	)

	payload := map[string]interface{}{
		"contents": []map[string]interface{}{
			{"parts": []map[string]string{{"text": prompt}}},
		},
		"generationConfig": map[string]string{
			"responseMimeType": "application/json",
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return FallbackMenus
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, geminiEndpoint+"?key="+config.AppConfig.GeminiAPIKey, bytes.NewReader(body))
	if err != nil {
		return FallbackMenus
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := recommendClient.Do(req)
	if err != nil {
		logrus.WithField("component", "recommend").Warnf("Gemini request failed: %v", err)
		return FallbackMenus
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		logrus.WithField("component", "recommend").Warnf("Gemini returned status %d", resp.StatusCode)
		return FallbackMenus
	}

	var result struct {
		Candidates []struct {
			Content struct {
				Parts []struct {
					Text string `json:"text"`
				} `json:"parts"`
			} `json:"content"`
		} `json:"candidates"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return FallbackMenus
	}
	if len(result.Candidates) == 0 || len(result.Candidates[0].Content.Parts) == 0 {
		return FallbackMenus
	}

	var menus []string
	if err := json.Unmarshal([]byte(result.Candidates[0].Content.Parts[0].Text), &menus); err != nil || len(menus) == 0 {
		return FallbackMenus
	}
	return menus
}
