package converter

import "time"

func NewDownloadURLRedisModel(storagePath, url string, cachedAt time.Time) *DownloadURLRedisModel {
	return &DownloadURLRedisModel{
		StoragePath: storagePath,
		URL:         url,
		CachedAt:    cachedAt,
	}
}
