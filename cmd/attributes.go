package cmd

import (
	"fmt"

	"atdw-sync/feature/catalog/attribute"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	defineLabel    string
	defineFacet    bool
	defineFacetKey string
)

// attributesCmd is the parent command for attribute dictionary operations.
var attributesCmd = &cobra.Command{
	Use:   "attributes",
	Short: "Manage the attribute dictionary",
	Long: `Inspect and curate the attribute dictionary the sync validates incoming
values against. In strict mode unknown codes reject their batch, so new
feed attributes must be defined here first.`,
}

// attributesListCmd prints every known definition.
var attributesListCmd = &cobra.Command{
	Use:   "list",
	Short: "List all attribute definitions",
	RunE:  runAttributesList,
}

// attributesDefineCmd registers or updates one definition.
var attributesDefineCmd = &cobra.Command{
	Use:   "define <code> <kind>",
	Short: "Register an attribute definition (kind: bool|int|numeric|text|date|structured)",
	Long: `Registers an attribute definition or updates an existing one in place.

Examples:
  # A boolean facet surfaced on the product header and summaries
  atdw-sync attributes define ENTITY_FAC__POOL bool --facet --facet-key pool

  # A plain numeric attribute
  atdw-sync attributes define ACCOMM__STAR_RATING numeric --label "Star rating"`,
	Args: cobra.ExactArgs(2),
	RunE: runAttributesDefine,
}

func init() {
	attributesDefineCmd.Flags().StringVar(&defineLabel, "label", "", "Human readable label (defaults to the code)")
	attributesDefineCmd.Flags().BoolVar(&defineFacet, "facet", false, "Project this attribute onto the product's hot facet fields")
	attributesDefineCmd.Flags().StringVar(&defineFacetKey, "facet-key", "", "Key under which the facet value is projected (defaults to the code)")

	attributesCmd.AddCommand(attributesListCmd)
	attributesCmd.AddCommand(attributesDefineCmd)
	RootCmd.AddCommand(attributesCmd)
}

func runAttributesList(cmd *cobra.Command, args []string) error {
	cfg, l, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer l.Sync()

	registry := attribute.NewRegistry(db, l, cfg.Sync.AttributePolicy)
	defs, err := registry.List()
	if err != nil {
		return fmt.Errorf("failed to list attribute definitions: %w", err)
	}

	l.Info("Attribute dictionary",
		zap.String("mode", registry.Mode()),
		zap.Int("definitions", len(defs)),
	)
	for _, def := range defs {
		l.Info("Definition",
			zap.String("code", def.Code),
			zap.String("kind", def.ValueKind),
			zap.String("label", def.Label),
			zap.Bool("facet", def.Facet),
			zap.Bool("discovered", def.Discovered),
		)
	}
	return nil
}

func runAttributesDefine(cmd *cobra.Command, args []string) error {
	cfg, l, db, err := bootstrap()
	if err != nil {
		return err
	}
	defer l.Sync()

	code, kind := args[0], args[1]
	label := defineLabel
	if label == "" {
		label = code
	}

	registry := attribute.NewRegistry(db, l, cfg.Sync.AttributePolicy)
	def, err := registry.Define(code, label, kind, defineFacet, defineFacetKey)
	if err != nil {
		return fmt.Errorf("failed to define attribute: %w", err)
	}

	l.Info("Attribute defined",
		zap.String("code", def.Code),
		zap.String("kind", def.ValueKind),
		zap.Bool("facet", def.Facet),
		zap.String("facet_key", def.FacetKey),
	)
	return nil
}
