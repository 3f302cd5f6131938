// Package jitter добавляет случайность к интервалам отступления (backoff),
// чтобы повторные попытки разных экземпляров не совпадали по времени.
package jitter

import (
	"math/rand/v2"
	"time"
)

// DefaultJitter — стандартный коэффициент джиттера (50%)
const DefaultJitter = 0.5

// Duration возвращает продолжительность с применённым джиттером.
// Результат находится в диапазоне [d, d*(1+jitterFactor)].
func Duration(d time.Duration, jitterFactor float64) time.Duration {
	return DurationWithRand(d, jitterFactor, rand.Float64)
}

// DurationWithRand — то же, что Duration, но с заданным источником [0, 1).
// Позволяет получить детерминированный результат в тестах.
func DurationWithRand(d time.Duration, jitterFactor float64, float64n func() float64) time.Duration {
	if d <= 0 || jitterFactor <= 0 {
		return max(d, 0)
	}

	return d + time.Duration(float64n()*jitterFactor*float64(d))
}

// ExponentialBackoff вычисляет экспоненциальное отступление с джиттером.
// base — начальная длительность, maxBackoff — потолок до применения джиттера,
// attempt — номер повтора (с нуля).
func ExponentialBackoff(base, maxBackoff time.Duration, attempt int, jitterFactor float64) time.Duration {
	return Duration(Backoff(base, maxBackoff, attempt), jitterFactor)
}

// Backoff — экспоненциальная задержка без джиттера.
func Backoff(base, maxBackoff time.Duration, attempt int) time.Duration {
	backoff := base
	for i := 0; i < attempt; i++ {
		backoff *= 2
		if maxBackoff > 0 && backoff >= maxBackoff {
			return maxBackoff
		}
	}

	if maxBackoff > 0 && backoff > maxBackoff {
		return maxBackoff
	}

	return backoff
}
