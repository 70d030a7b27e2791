package jobs

import (
	"github.com/fenilmodi00/ipo-insights/services"
	"github.com/sirupsen/logrus"
)

type CacheCleanupJob struct {
	CacheService *services.CacheService
}

func NewCacheCleanupJob(cacheService *services.CacheService) *CacheCleanupJob {
	return &CacheCleanupJob{CacheService: cacheService}
}

func (j *CacheCleanupJob) Run() int {
	removed := j.CacheService.CleanupExpired()
	logrus.WithFields(logrus.Fields{
		"component": "CacheCleanupJob",
		"removed":   removed,
		"remaining": j.CacheService.Size(),
	}).Info("Cache Cleanup Job completed")
	return removed
}
