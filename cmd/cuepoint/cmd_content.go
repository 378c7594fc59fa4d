package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"cuepoint/internal/content"
	"cuepoint/internal/engine"
)

var (
	rankInterests  []string
	rankJourney    string
	rankEngagement string
)

var contentCmd = &cobra.Command{
	Use:   "content",
	Short: "Inspect the content catalog and ranking",
}

var contentRankCmd = &cobra.Command{
	Use:   "rank",
	Short: "Rank the catalog against a synthetic visitor context",
	Long: `Scores every catalog module against a visitor context assembled from
the flags and prints the resulting order.

Example:
  cuepoint content rank --interest training --journey consideration --engagement high`,
	RunE: runContentRank,
}

func runContentRank(cmd *cobra.Command, args []string) error {
	catalog, err := content.LoadCatalog(cfg.Content.CatalogPath)
	if err != nil {
		return fmt.Errorf("failed to load catalog: %w", err)
	}

	state := engine.NewState()
	if len(rankInterests) > 0 {
		state = engine.Reduce(state, engine.UpdateInterests(rankInterests...))
	}
	if rankJourney != "" {
		state = engine.Reduce(state, engine.UpdateJourney(engine.JourneyStage(rankJourney)))
	}
	if rankEngagement != "" {
		state = engine.Reduce(state, engine.UpdateEngagement(engine.EngagementLevel(rankEngagement)))
	}

	ranked := content.Rank(catalog, state)
	fmt.Printf("%-4s %-20s %-12s %8s %8s\n", "#", "MODULE", "CATEGORY", "BASE", "DYNAMIC")
	for i, m := range ranked {
		fmt.Printf("%-4d %-20s %-12s %8.2f %8.2f\n", i+1, m.ID, m.Category, m.BasePriority, m.DynamicPriority)
	}
	return nil
}

func init() {
	contentRankCmd.Flags().StringSliceVar(&rankInterests, "interest", nil, "Visitor interest category (repeatable)")
	contentRankCmd.Flags().StringVar(&rankJourney, "journey", "", "Journey stage (awareness|interest|consideration|decision)")
	contentRankCmd.Flags().StringVar(&rankEngagement, "engagement", "", "Engagement level (low|medium|high)")

	contentCmd.AddCommand(contentRankCmd)
}
