package services

import (
	"os"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/huangang/problempad/internal/models"
	"github.com/huangang/problempad/pkg/logger"
	"github.com/robfig/cron/v3"
	"gorm.io/gorm"
)

// Scheduler runs cron jobs. Each run first claims a row in scheduler_locks,
// so servers sharing a database run every job once per tick.
type Scheduler struct {
	db         *gorm.DB
	cron       *cron.Cron
	instanceID string
	lockTTL    time.Duration

	mu      sync.Mutex
	entries map[string]cron.EntryID
}

func NewScheduler(db *gorm.DB) *Scheduler {
	host, _ := os.Hostname()
	return &Scheduler{
		db:         db,
		cron:       cron.New(),
		instanceID: host + "-" + strconv.Itoa(os.Getpid()) + "-" + uuid.NewString()[:8],
		lockTTL:    10 * time.Minute,
		entries:    make(map[string]cron.EntryID),
	}
}

// AddJob schedules fn under name. Adding a name twice replaces the old schedule.
func (s *Scheduler) AddJob(name, spec string, fn func()) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if id, ok := s.entries[name]; ok {
		s.cron.Remove(id)
	}

	id, err := s.cron.AddFunc(spec, func() {
		if !s.TryLock(name, time.Now()) {
			logger.Debug().Str("job", name).Msg("[Scheduler] Run claimed by another instance")
			return
		}
		fn()
	})
	if err != nil {
		return err
	}

	s.entries[name] = id
	logger.Infof("[Scheduler] %s scheduled (cron: %s)", name, spec)
	return nil
}

// TryLock claims the run of job name for the minute containing at.
func (s *Scheduler) TryLock(name string, at time.Time) bool {
	if s.db == nil {
		return true
	}

	now := time.Now()
	lock := models.SchedulerLock{
		LockName:  name,
		LockKey:   at.UTC().Truncate(time.Minute).Format("200601021504"),
		LockedBy:  s.instanceID,
		LockedAt:  now,
		ExpiresAt: now.Add(s.lockTTL),
	}
	return s.db.Create(&lock).Error == nil
}

// PurgeExpiredLocks removes lock rows nobody can contend for any more.
func (s *Scheduler) PurgeExpiredLocks() (int64, error) {
	if s.db == nil {
		return 0, nil
	}
	result := s.db.Where("expires_at < ?", time.Now()).Delete(&models.SchedulerLock{})
	return result.RowsAffected, result.Error
}

func (s *Scheduler) Start() {
	s.cron.Start()
	logger.Infof("[Scheduler] Started")
}

// Stop waits for running jobs to finish.
func (s *Scheduler) Stop() {
	<-s.cron.Stop().Done()
}
