package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// BackupConfig 定时备份配置，Interval为0时不启用
type BackupConfig struct {
	Interval time.Duration `yaml:"interval" env:"BACKUP_INTERVAL" env-default:"0"`
	Dir      string        `yaml:"dir" env:"BACKUP_DIR"`
	Keep     int           `yaml:"keep" env:"BACKUP_KEEP" env-default:"7"`
}

// Job 周期任务
type Job func(ctx context.Context) error

// Scheduler 周期任务调度器，ctx取消后所有任务停止
type Scheduler struct {
	log     *zap.Logger
	timeout time.Duration
	wg      sync.WaitGroup
}

// NewScheduler 创建调度器实例，timeout为单次执行的超时时间
func NewScheduler(log *zap.Logger, timeout time.Duration) *Scheduler {
	if timeout <= 0 {
		timeout = time.Minute
	}
	return &Scheduler{log: log, timeout: timeout}
}

// Every 每隔interval执行一次job，首次执行在一个间隔之后
func (s *Scheduler) Every(ctx context.Context, name string, interval time.Duration, job Job) {
	if interval <= 0 {
		return
	}
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		s.log.Info("job scheduled", zap.String("job", name), zap.Duration("interval", interval))
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.run(ctx, name, job)
			}
		}
	}()
}

// Wait 等待所有任务退出
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

func (s *Scheduler) run(parent context.Context, name string, job Job) {
	ctx, cancel := context.WithTimeout(parent, s.timeout)
	defer cancel()

	start := time.Now()
	if err := job(ctx); err != nil {
		s.log.Error("job failed", zap.String("job", name), zap.Error(err))
		return
	}
	s.log.Debug("job completed", zap.String("job", name), zap.Duration("elapsed", time.Since(start)))
}
