package repository

import (
	"context"
	"embed"
	"errors"

	"github.com/pressly/goose/v3"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"familytree_go/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// DefaultTreeName 默认家谱名称
const DefaultTreeName = "Default Family Tree"

// Migrate 迁移数据库结构并确保默认家谱存在
func (db *DB) Migrate(ctx context.Context) error {
	if db.driver == DriverSQLite {
		if err := db.runGoose(ctx); err != nil {
			return err
		}
	} else {
		// 其他数据库按模型自动迁移
		if err := db.WithContext(ctx).AutoMigrate(
			&model.FamilyTree{},
			&model.Person{},
			&model.Relationship{},
		); err != nil {
			return err
		}
	}
	return db.EnsureDefaultTree(ctx)
}

func (db *DB) runGoose(ctx context.Context) error {
	sqlDB, err := db.DB.DB()
	if err != nil {
		return err
	}

	goose.SetLogger(zap.NewStdLog(db.log.Named("goose")))
	if err := goose.SetDialect("sqlite3"); err != nil {
		return err
	}

	goose.SetBaseFS(migrationsFS)
	return goose.UpContext(ctx, sqlDB, "migrations")
}

// EnsureDefaultTree 创建ID为1的默认家谱
func (db *DB) EnsureDefaultTree(ctx context.Context) error {
	var tree model.FamilyTree
	err := db.WithContext(ctx).Select("id").First(&tree, model.DefaultFamilyTreeID).Error
	if err == nil {
		return nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return err
	}

	desc := "Members without an explicit tree belong here"
	tree = model.FamilyTree{ID: model.DefaultFamilyTreeID, Name: DefaultTreeName, Description: &desc}
	if err := db.WithContext(ctx).Create(&tree).Error; err != nil {
		return err
	}
	if db.driver == DriverPostgres {
		// 显式写入ID后需同步序列
		return db.WithContext(ctx).Exec(
			"SELECT setval(pg_get_serial_sequence('family_trees', 'id'), (SELECT MAX(id) FROM family_trees))",
		).Error
	}
	return nil
}
