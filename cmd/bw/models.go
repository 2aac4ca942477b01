package main

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"gorm.io/gorm"

	"github.com/bwengye/bwengye/internal/config"
	"github.com/bwengye/bwengye/internal/db"
	"github.com/bwengye/bwengye/internal/models"
)

func newModelsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "models",
		Short: "Model catalog commands",
	}

	cmd.AddCommand(newModelsListCmd())
	cmd.AddCommand(newModelsSeedCmd())
	return cmd
}

func newModelsSeedCmd() *cobra.Command {
	var configPath string

	cmd := &cobra.Command{
		Use:   "seed",
		Short: "Upsert catalog entries from config",
		Long:  "Writes the models listed in config into the catalog, updating entries that already exist.",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gormDB, err := db.Connect(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
			}
			return seedCatalog(cmd, gormDB, cfg.Models)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bwengye.yaml", "path to Bwengye config file")
	return cmd
}

func seedCatalog(cmd *cobra.Command, gormDB *gorm.DB, seeds []config.ModelSeed) error {
	if err := db.SeedModels(gormDB, seeds); err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Seeded %d catalog entries:", len(seeds))
	for _, m := range seeds {
		fmt.Fprintf(out, " %s", m.Name)
	}
	fmt.Fprintln(out)
	return nil
}

func newModelsListCmd() *cobra.Command {
	var (
		configPath string
		all        bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List catalog entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			gormDB, err := db.Connect(cfg.Database)
			if err != nil {
				return fmt.Errorf("connect to %s: %w", cfg.Database.Name, err)
			}
			return listModels(cmd, gormDB, all)
		},
	}

	cmd.Flags().StringVarP(&configPath, "config", "c", "bwengye.yaml", "path to Bwengye config file")
	cmd.Flags().BoolVarP(&all, "all", "a", false, "include inactive models")
	return cmd
}

func listModels(cmd *cobra.Command, gormDB *gorm.DB, all bool) error {
	q := gormDB.Order("name ASC")
	if !all {
		q = q.Where("is_active = ?", true)
	}
	var entries []models.AIModel
	if err := q.Find(&entries).Error; err != nil {
		return fmt.Errorf("list models: %w", err)
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tPROVIDER\tTYPE\tCAPABILITIES\tMAX TOKENS\tACTIVE")
	for _, m := range entries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%v\n",
			m.Name, m.Provider, m.ModelType,
			strings.Join(m.CapabilityList(), ","), m.MaxTokens, m.IsActive)
	}
	return w.Flush()
}
