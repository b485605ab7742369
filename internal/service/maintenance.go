package service

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"familytree_go/internal/model"
	"familytree_go/internal/repository"
)

// MaintenanceService 数据维护：示例数据与备份
type MaintenanceService struct {
	db  *repository.DB
	log *zap.Logger
}

// NewMaintenanceService 创建维护服务实例
func NewMaintenanceService(db *repository.DB, log *zap.Logger) *MaintenanceService {
	return &MaintenanceService{db: db, log: log}
}

// Seed 数据库没有成员时写入示例家谱；已有数据时返回nil
func (s *MaintenanceService) Seed(ctx context.Context) (*model.FamilyTree, error) {
	tree, err := s.db.SeedSample(ctx)
	if err != nil {
		return nil, DatabaseError(err)
	}
	if tree == nil {
		s.log.Info("persons already exist, skipping sample data")
		return nil, nil
	}
	s.log.Info("sample data inserted", zap.Uint("family_tree_id", tree.ID), zap.Int64("members", tree.MemberCount))
	return tree, nil
}

// Backup 将SQLite数据库快照写入dir，返回备份文件路径
func (s *MaintenanceService) Backup(ctx context.Context, dir string) (string, error) {
	if s.db.Driver() != repository.DriverSQLite {
		return "", NewError(ErrConfig, fmt.Sprintf("backup is only supported for sqlite, got %s", s.db.Driver()), nil)
	}
	if dir == "" {
		dir = filepath.Join(filepath.Dir(s.db.Path()), "backups")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", NewError(ErrSystem, "failed to create backup directory", err)
	}

	stamp := strings.ReplaceAll(time.Now().UTC().Format("2006-01-02T15:04:05"), ":", "-")
	path := filepath.Join(dir, fmt.Sprintf("familytree-%s.db", stamp))

	// VACUUM INTO 生成一致的快照
	if err := s.db.WithContext(ctx).Exec("VACUUM INTO ?", path).Error; err != nil {
		return "", DatabaseError(err)
	}
	s.log.Info("database backup created", zap.String("path", path))
	return path, nil
}

// Prune 只保留dir中最新的keep个备份，返回删除数量
func (s *MaintenanceService) Prune(dir string, keep int) (int, error) {
	if keep <= 0 {
		return 0, nil
	}
	if dir == "" {
		dir = filepath.Join(filepath.Dir(s.db.Path()), "backups")
	}
	matches, err := filepath.Glob(filepath.Join(dir, "familytree-*.db"))
	if err != nil {
		return 0, NewError(ErrSystem, "failed to list backups", err)
	}
	if len(matches) <= keep {
		return 0, nil
	}

	// 时间戳格式保证文件名按字典序即按时间排序
	sort.Strings(matches)
	removed := 0
	for _, path := range matches[:len(matches)-keep] {
		if err := os.Remove(path); err != nil {
			return removed, NewError(ErrSystem, "failed to remove backup", err)
		}
		removed++
	}
	s.log.Info("old backups removed", zap.Int("count", removed), zap.String("dir", dir))
	return removed, nil
}

// ScheduledBackup 备份并清理旧文件，供调度器周期执行
func (s *MaintenanceService) ScheduledBackup(cfg BackupConfig) Job {
	return func(ctx context.Context) error {
		if _, err := s.Backup(ctx, cfg.Dir); err != nil {
			return err
		}
		_, err := s.Prune(cfg.Dir, cfg.Keep)
		return err
	}
}
