package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/lshigami/examhub/config"
	"github.com/lshigami/examhub/database"
	"github.com/lshigami/examhub/internal/importer"
	"github.com/lshigami/examhub/internal/repository"
	"github.com/lshigami/examhub/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

func openStore(cfg *config.Config) (repository.Store, func(), error) {
	db, err := database.NewDatabase(cfg)
	if err != nil {
		return nil, nil, err
	}
	closeFn := func() {
		if sqlDB, err := db.DB(); err == nil {
			_ = sqlDB.Close()
		}
	}
	return repository.NewStore(db), closeFn, nil
}

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			db, err := database.NewDatabase(cfg)
			if err != nil {
				return err
			}
			defer func() {
				if sqlDB, err := db.DB(); err == nil {
					_ = sqlDB.Close()
				}
			}()
			return database.AutoMigrate(db)
		},
	}
}

func newImportCmd() *cobra.Command {
	var file, mode string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Validate or import a question spreadsheet",
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := importer.ParseMode(mode)
			if err != nil {
				return err
			}
			f, err := os.Open(file)
			if err != nil {
				return err
			}
			defer f.Close()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeFn, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			res := service.NewImportService(store).Import(cmd.Context(), service.ImportRequest{
				FileName: filepath.Base(file),
				Content:  f,
				Mode:     m,
			})
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(res); err != nil {
				return err
			}
			if !res.Success {
				return fmt.Errorf("import %s: %s", m, res.Message)
			}
			return nil
		},
	}
	cmd.Flags().StringVarP(&file, "file", "f", "", "xlsx workbook to import")
	cmd.Flags().StringVar(&mode, "mode", "check", "check or save")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func newTemplateCmd() *cobra.Command {
	var kind, out string
	cmd := &cobra.Command{
		Use:   "template",
		Short: "Write an empty import workbook for a sheet type",
		RunE: func(cmd *cobra.Command, args []string) error {
			sheet, err := importer.ParseSheetType(kind)
			if err != nil {
				return err
			}
			if out == "" {
				out = "template_" + sheet.String() + ".xlsx"
			}
			f, err := os.Create(out)
			if err != nil {
				return err
			}
			if err := importer.WriteTemplate(f, sheet); err != nil {
				f.Close()
				return err
			}
			if err := f.Close(); err != nil {
				return err
			}
			log.Info().Str("type", sheet.String()).Str("file", out).Msg("Template written")
			return nil
		},
	}
	cmd.Flags().StringVarP(&kind, "type", "t", "", "reading, listening, writing, grammar or speaking")
	cmd.Flags().StringVarP(&out, "output", "o", "", "output file (default template_<type>.xlsx)")
	_ = cmd.MarkFlagRequired("type")
	return cmd
}

func newStructuresCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "structures",
		Short: "Manage exam structure templates",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "load <file.yaml>",
		Short: "Create the structures of a YAML seed file that do not exist yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			store, closeFn, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			res, err := service.NewStructureService(store).LoadStructuresYAML(cmd.Context(), f)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created: %v\nskipped: %v\n", res.Created, res.Skipped)
			return nil
		},
	})
	return cmd
}
