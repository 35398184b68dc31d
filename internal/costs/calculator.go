// Package costs estimates what a tracking session spends on transcription and oracle calls.
package costs

import (
	"os"
	"strconv"
)

// Pricing constants (in cents per unit for precision).
// These can be overridden via environment variables.
var (
	// DeepgramCentsPerMinute is the cost per minute for Deepgram Nova-2 pre-recorded STT.
	// Default: $0.0043/min = 0.43 cents/min
	DeepgramCentsPerMinute = getEnvFloat("COST_DEEPGRAM_CENTS_PER_MIN", 0.43)

	// WhisperCentsPerMinute is the cost per minute for OpenAI Whisper.
	// Default: $0.006/min = 0.6 cents/min
	WhisperCentsPerMinute = getEnvFloat("COST_WHISPER_CENTS_PER_MIN", 0.6)

	// OracleCentsPerThousandInputTokens is the cost per 1K prompt tokens.
	// Default: $0.15/1M = 0.015 cents/1K tokens
	OracleCentsPerThousandInputTokens = getEnvFloat("COST_ORACLE_INPUT_CENTS_PER_1K", 0.015)

	// OracleCentsPerThousandOutputTokens is the cost per 1K completion tokens.
	// Default: $0.60/1M = 0.06 cents/1K tokens
	OracleCentsPerThousandOutputTokens = getEnvFloat("COST_ORACLE_OUTPUT_CENTS_PER_1K", 0.06)
)

// Usage is the raw consumption of one session.
type Usage struct {
	AudioSeconds     float64 `json:"audioSeconds"`
	OracleCalls      int     `json:"oracleCalls"`
	PromptTokens     int     `json:"promptTokens"`
	CompletionTokens int     `json:"completionTokens"`
}

// UsageCosts contains the calculated costs in cents.
type UsageCosts struct {
	STTCostCents    int `json:"sttCostCents"`
	OracleCostCents int `json:"oracleCostCents"`
	TotalCostCents  int `json:"totalCostCents"`
}

// CalculateUsageCosts computes the costs for a session. sttCentsPerMinute
// selects the transcription provider's price.
func CalculateUsageCosts(u Usage, sttCentsPerMinute float64) UsageCosts {
	sttCents := (u.AudioSeconds / 60.0) * sttCentsPerMinute

	inputCents := (float64(u.PromptTokens) / 1000.0) * OracleCentsPerThousandInputTokens
	outputCents := (float64(u.CompletionTokens) / 1000.0) * OracleCentsPerThousandOutputTokens

	c := UsageCosts{
		STTCostCents:    roundToInt(sttCents),
		OracleCostCents: roundToInt(inputCents + outputCents),
	}
	c.TotalCostCents = c.STTCostCents + c.OracleCostCents
	return c
}

// STTCentsPerMinute returns the price for a provider name.
func STTCentsPerMinute(provider string) float64 {
	if provider == "whisper" {
		return WhisperCentsPerMinute
	}
	return DeepgramCentsPerMinute
}

// EstimateTokens approximates tokens from characters (about four per token).
func EstimateTokens(chars int) int {
	if chars <= 0 {
		return 0
	}
	return (chars + 3) / 4
}

// roundToInt rounds a float to the nearest integer.
func roundToInt(f float64) int {
	if f < 0 {
		return int(f - 0.5)
	}
	return int(f + 0.5)
}

// getEnvFloat returns an environment variable as float64, or the default if not set.
func getEnvFloat(key string, defaultVal float64) float64 {
	if val := os.Getenv(key); val != "" {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			return f
		}
	}
	return defaultVal
}
