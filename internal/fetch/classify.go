// Package fetch はリトライ・バックオフ付きのアウトバウンドHTTPフェッチを提供する。
package fetch

import "time"

// Outcome はHTTPステータスコードに基づくフェッチ結果の分類。
type Outcome int

const (
	// OutcomeOK はフェッチ成功（2xx）。
	OutcomeOK Outcome = iota
	// OutcomeRetry はリトライが必要なステータス（429/5xx）。
	OutcomeRetry
	// OutcomeFatal はリトライせず即座に失敗させるステータス（429以外の4xxなど）。
	OutcomeFatal
)

// Classify はHTTPステータスコードをフェッチ結果に分類する。
// 429と5xxは一時的な障害としてリトライ対象、それ以外の非2xxは
// リトライしても結果が変わらないため即時失敗とする。
func Classify(statusCode int) Outcome {
	switch {
	case statusCode >= 200 && statusCode < 300:
		return OutcomeOK
	case statusCode == 429:
		return OutcomeRetry
	case statusCode >= 500:
		return OutcomeRetry
	default:
		return OutcomeFatal
	}
}

// Backoff は失敗した試行回数に基づいて指数バックオフ遅延を計算する。
// attempt回目（0始まり）の失敗後の遅延は base × 2^attempt。
// maxを超える場合はmaxに切り詰める（max <= 0 の場合は無制限）。
func Backoff(base time.Duration, attempt int, max time.Duration) time.Duration {
	delay := base
	for i := 0; i < attempt; i++ {
		delay *= 2
		if max > 0 && delay > max {
			return max
		}
	}
	if max > 0 && delay > max {
		return max
	}
	return delay
}
