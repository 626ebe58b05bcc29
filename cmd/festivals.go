package main

import (
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/lineupscout/festival-cli/internal/store"
)

var (
	listFavorite bool
	listArchived bool
	listStage    string
	listLimit    int

	annotateFavorite string
	annotateArchived string
	annotateNotes    string
	annotateStage    string
)

var festivalsCmd = &cobra.Command{
	Use:   "festivals",
	Short: "Manage stored festival listings",
}

var festivalsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List festivals with their annotations",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		filter := store.ListFilter{Stage: listStage, Limit: listLimit}
		if cmd.Flags().Changed("favorite") {
			filter.Favorite = &listFavorite
		}
		if cmd.Flags().Changed("archived") {
			filter.Archived = &listArchived
		}

		listings, err := st.ListListings(ctx, filter)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(listings)
	},
}

var festivalsAnnotateCmd = &cobra.Command{
	Use:   "annotate <festival-id>",
	Short: "Update the CRM annotation for a festival",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		st, err := initStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close()

		listing, err := st.GetListing(ctx, args[0])
		if err != nil {
			return err
		}
		if listing == nil {
			return eris.Errorf("festival %s not found", args[0])
		}

		a := listing.Annotation
		if annotateFavorite != "" {
			a.Favorite = annotateFavorite == "true"
		}
		if annotateArchived != "" {
			a.Archived = annotateArchived == "true"
		}
		if cmd.Flags().Changed("notes") {
			a.Notes = annotateNotes
		}
		if cmd.Flags().Changed("stage") {
			a.Stage = annotateStage
		}

		return st.SetAnnotation(ctx, args[0], a)
	},
}

func init() {
	festivalsListCmd.Flags().BoolVar(&listFavorite, "favorite", false, "only favorites (or non-favorites with --favorite=false)")
	festivalsListCmd.Flags().BoolVar(&listArchived, "archived", false, "only archived (or active with --archived=false)")
	festivalsListCmd.Flags().StringVar(&listStage, "stage", "", "filter by CRM stage")
	festivalsListCmd.Flags().IntVar(&listLimit, "limit", 0, "max rows")

	festivalsAnnotateCmd.Flags().StringVar(&annotateFavorite, "favorite", "", "set favorite (true/false)")
	festivalsAnnotateCmd.Flags().StringVar(&annotateArchived, "archived", "", "set archived (true/false)")
	festivalsAnnotateCmd.Flags().StringVar(&annotateNotes, "notes", "", "set notes")
	festivalsAnnotateCmd.Flags().StringVar(&annotateStage, "stage", "", "set CRM stage")

	festivalsCmd.AddCommand(festivalsListCmd)
	festivalsCmd.AddCommand(festivalsAnnotateCmd)
	rootCmd.AddCommand(festivalsCmd)
}
