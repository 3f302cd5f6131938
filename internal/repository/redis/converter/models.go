package converter

import "time"

// DownloadURLRedisModel — закэшированная подписанная ссылка на объект.
type DownloadURLRedisModel struct {
	StoragePath string    `json:"storage_path"`
	URL         string    `json:"url"`
	CachedAt    time.Time `json:"cached_at"`
}
