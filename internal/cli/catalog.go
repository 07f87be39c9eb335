package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"merchant-desk/internal/server"
	"merchant-desk/internal/service"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

// SeedFile is the YAML layout read by `catalog seed`:
//
//	categories:
//	  - name: Pizza
//	    products:
//	      - name: Margherita
//	        price: 9.50
type SeedFile struct {
	Categories []service.CategorySeed `yaml:"categories"`
}

// LoadSeedFile reads and decodes a catalog seed file
func LoadSeedFile(path string) (SeedFile, error) {
	var seed SeedFile

	raw, err := os.ReadFile(path)
	if err != nil {
		return seed, fmt.Errorf("failed to read seed file: %w", err)
	}
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		return seed, fmt.Errorf("failed to parse seed file %s: %w", path, err)
	}
	if len(seed.Categories) == 0 {
		return seed, errors.New("seed file has no categories")
	}
	return seed, nil
}

func seedCatalog(ctx context.Context, stores server.Stores, path string) (service.SeedResult, error) {
	seed, err := LoadSeedFile(path)
	if err != nil {
		return service.SeedResult{}, err
	}
	return service.NewCatalogService(stores.Products, stores.Categories).ImportCatalog(ctx, seed.Categories)
}

func (a *App) catalogCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "catalog",
		Short: "Manage the product catalog",
	}

	var file string
	seed := &cobra.Command{
		Use:   "seed --file <catalog.yaml>",
		Short: "Import categories and products from a YAML file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			stores, err := a.openStores(cmd.Context())
			if err != nil {
				return err
			}
			result, err := seedCatalog(cmd.Context(), stores, file)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "created %d categories, %d products\n",
				result.CategoriesCreated, result.ProductsCreated)
			return nil
		},
	}
	seed.Flags().StringVarP(&file, "file", "f", "", "seed file")
	seed.MarkFlagRequired("file")

	cmd.AddCommand(seed)
	return cmd
}
