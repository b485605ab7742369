package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"familytree_go/internal/repository"
	"familytree_go/internal/service"
)

func serveCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "启动HTTP服务",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), *configPath)
		},
	}
}

func migrateCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "执行数据库迁移",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			color.New(color.FgGreen).Printf("✓ database migrated (%s)\n", a.db.Driver())
			return nil
		},
	}
}

func seedCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "seed",
		Short: "写入示例家谱（仅在没有成员时）",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			tree, err := service.NewMaintenanceService(a.db, a.log).Seed(cmd.Context())
			if err != nil {
				return err
			}
			if tree == nil {
				color.New(color.FgYellow).Println("persons already exist, sample data skipped")
				return nil
			}
			color.New(color.FgGreen).Printf("✓ sample family tree %q created (id %d, %d members)\n",
				tree.Name, tree.ID, tree.MemberCount)
			return nil
		},
	}
}

func backupCmd(configPath *string) *cobra.Command {
	var dir string
	cmd := &cobra.Command{
		Use:   "backup",
		Short: "备份SQLite数据库",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			path, err := service.NewMaintenanceService(a.db, a.log).Backup(cmd.Context(), dir)
			if err != nil {
				return err
			}
			color.New(color.FgGreen).Printf("✓ backup written to %s\n", path)
			return nil
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "", "备份目录 (默认为数据库目录下的 backups)")
	return cmd
}

func statsCmd(configPath *string) *cobra.Command {
	var treeID uint
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "显示成员统计",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := bootstrap(cmd.Context(), *configPath)
			if err != nil {
				return err
			}
			defer a.close()

			var scope *uint
			if treeID != 0 {
				scope = &treeID
			}
			persons := service.NewPersonService(
				repository.NewPersonRepository(a.db),
				repository.NewFamilyTreeRepository(a.db),
				a.log, nil,
			)
			stats, err := persons.Statistics(cmd.Context(), scope)
			if err != nil {
				return err
			}

			title := "all family trees"
			if scope != nil {
				title = fmt.Sprintf("family tree %d", *scope)
			}
			label := color.New(color.FgCyan).SprintFunc()
			color.New(color.Bold).Printf("Statistics for %s\n", title)
			fmt.Printf("  %s %d\n", label("total:      "), stats.Total)
			fmt.Printf("  %s %s\n", label("alive:      "), color.GreenString("%d", stats.Alive))
			fmt.Printf("  %s %s\n", label("deceased:   "), color.New(color.FgHiBlack).Sprintf("%d", stats.Deceased))
			fmt.Printf("  %s %s\n", label("male:       "), color.HiBlueString("%d", stats.Male))
			fmt.Printf("  %s %s\n", label("female:     "), color.MagentaString("%d", stats.Female))
			fmt.Printf("  %s %d\n", label("generations:"), stats.Generations)
			return nil
		},
	}
	cmd.Flags().UintVar(&treeID, "tree", 0, "只统计指定家谱")
	return cmd
}

func tokenCmd(configPath *string) *cobra.Command {
	var editor, role string
	cmd := &cobra.Command{
		Use:   "token",
		Short: "生成写接口使用的JWT令牌",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := service.LoadConfig(*configPath)
			if err != nil {
				return err
			}
			token, err := service.NewAuth(cfg.Auth).GenerateToken(editor, role)
			if err != nil {
				return err
			}
			fmt.Println(token)
			return nil
		},
	}
	cmd.Flags().StringVar(&editor, "editor", "admin", "令牌持有人")
	cmd.Flags().StringVar(&role, "role", "editor", "角色")
	return cmd
}
