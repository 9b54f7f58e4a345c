package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pable/go-cheat-contagion/internal/simulation"
	"github.com/pable/go-cheat-contagion/internal/storage"
)

const analyzeSystemPrompt = `You are an analyst studying whether cheating spreads between players of an
online multiplayer game. You are given structured data from a permutation
analysis tool and a question from the user.

Rules:
- Answer ONLY from the data provided. Never invent or estimate statistics.
- Always cite specific numbers when making a claim.
- The intervals are descriptive baselines, not significance tests. Do not claim
  a p-value or a formal test result.
- If the data is insufficient to answer confidently, say so explicitly.

Glossary:
- observed: the statistic computed on the real data.
- mean / ci95: average and approximate 95% interval of the statistic over
  randomized trials (null baseline).
- teams: number of teams containing exactly 0, 1, 2, 3 or 4 cheaters. Team
  assignments are shuffled within each match.
- victims: players killed by an active cheater who later became cheaters
  themselves. Kill roles are shuffled within each match.
- observers: players who died in a match after an active cheater had already
  made at least 3 kills in it, and later became cheaters themselves.`

var (
	analyzeModel  string
	analyzeAPIKey string
	analyzeTrials int
	analyzeSeed   uint64
	analyzeRender bool
)

var analyzeCmd = &cobra.Command{
	Use:   "analyze <question>",
	Short: "AI-powered grounded analysis (requires ANTHROPIC_API_KEY)",
	Long: `Compute the observed statistics and their permutation baselines, then ask
an Anthropic model the question using only that data.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVar(&analyzeModel, "model", "claude-haiku-4-5-20251001", "Anthropic model to use")
	analyzeCmd.Flags().StringVar(&analyzeAPIKey, "api-key", "", "Anthropic API key (falls back to $ANTHROPIC_API_KEY)")
	analyzeCmd.Flags().IntVarP(&analyzeTrials, "trials", "n", 100, "number of randomized trials per statistic")
	analyzeCmd.Flags().Uint64Var(&analyzeSeed, "seed", 1, "random seed")
	analyzeCmd.Flags().BoolVar(&analyzeRender, "render", false, "render the answer as terminal markdown once complete instead of streaming it")
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	question := strings.Join(args, " ")

	db, err := openStore()
	if err != nil {
		return err
	}
	defer db.Close()

	ov, err := db.GetOverview()
	if err != nil {
		return fmt.Errorf("get overview: %w", err)
	}
	ds, err := db.LoadDataset()
	if err != nil {
		return fmt.Errorf("load dataset: %w", err)
	}

	driver := simulation.New(ds, simulation.Config{Trials: analyzeTrials, Seed: analyzeSeed}, log)
	results, err := driver.RunAll(cmd.Context(), simulation.AllStatistics)
	if err != nil {
		return err
	}

	dataJSON, err := buildAnalysisContext(ov, results)
	if err != nil {
		return fmt.Errorf("build context: %w", err)
	}
	return callAnthropic(cmd.Context(), analyzeAPIKey, analyzeModel, dataJSON, question, analyzeRender)
}

// buildAnalysisContext serializes the dataset overview and simulation results
// for the model prompt.
func buildAnalysisContext(ov storage.Overview, results []*simulation.Result) (string, error) {
	type scalar struct {
		Label    string  `json:"label"`
		Observed int     `json:"observed"`
		Mean     float64 `json:"mean"`
		CI95     string  `json:"ci95"`
		Outside  bool    `json:"observed_outside_ci"`
	}
	type statistic struct {
		Name    string   `json:"name"`
		Title   string   `json:"title"`
		Trials  int      `json:"trials"`
		Scalars []scalar `json:"scalars"`
	}

	out := map[string]interface{}{
		"dataset": map[string]int{
			"cheaters":         ov.Cheaters,
			"kill_events":      ov.Kills,
			"team_memberships": ov.Memberships,
			"matches":          ov.Matches,
			"teams":            ov.Teams,
			"players":          ov.Players,
		},
	}
	var stats []statistic
	for _, res := range results {
		st := statistic{Name: string(res.Statistic), Title: res.Statistic.Title(), Trials: res.Trials}
		for i, est := range res.Estimates {
			sc := scalar{Label: est.Label, Mean: round2(est.Mean), CI95: est.Interval.String()}
			if i < len(res.Observed) {
				sc.Observed = res.Observed[i]
				sc.Outside = !est.Interval.Contains(float64(sc.Observed))
			}
			st.Scalars = append(st.Scalars, sc)
		}
		stats = append(stats, st)
	}
	out["statistics"] = stats

	b, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(b), nil
}

func round2(v float64) float64 {
	// Use integer arithmetic to avoid floating-point drift.
	return float64(int(v*100+0.5)) / 100
}

// renderMarkdown formats text for the terminal with the given glamour style.
func renderMarkdown(text, style string) (string, error) {
	return glamour.Render(text, style)
}

// callAnthropic streams a response from the Anthropic API and prints it to
// stdout. With render set the answer is buffered and printed as rendered
// markdown at the end.
func callAnthropic(ctx context.Context, apiKey, modelID, dataJSON, question string, render bool) error {
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return fmt.Errorf("no API key: set ANTHROPIC_API_KEY or use --api-key")
	}

	client := anthropic.NewClient(option.WithAPIKey(apiKey))

	userMsg := fmt.Sprintf("DATA:\n%s\n\nQUESTION: %s", dataJSON, question)

	fmt.Fprintln(os.Stdout, "\n─── AI Analysis ─────────────────────────────────────")

	stream := client.Messages.NewStreaming(ctx, anthropic.MessageNewParams{
		Model:     anthropic.Model(modelID),
		MaxTokens: 1024,
		System: []anthropic.TextBlockParam{
			{Text: analyzeSystemPrompt},
		},
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(userMsg)),
		},
	})

	var answer strings.Builder
	var out io.Writer = os.Stdout
	if render {
		out = &answer
	}
	for stream.Next() {
		evt := stream.Current()
		if evt.Type == "content_block_delta" {
			delta := evt.AsContentBlockDelta()
			if delta.Delta.Type == "text_delta" {
				fmt.Fprint(out, delta.Delta.AsTextDelta().Text)
			}
		}
	}
	if render && answer.Len() > 0 {
		rendered, err := renderMarkdown(answer.String(), "auto")
		if err != nil {
			log.WithError(err).Warn("markdown rendering failed, printing raw answer")
			rendered = answer.String()
		}
		fmt.Fprint(os.Stdout, rendered)
	}
	fmt.Fprintln(os.Stdout, "\n─────────────────────────────────────────────────────")

	if err := stream.Err(); err != nil {
		errStr := err.Error()
		if strings.Contains(errStr, "401") || strings.Contains(errStr, "authentication") {
			return fmt.Errorf("API authentication failed, check your API key")
		}
		return fmt.Errorf("streaming error: %w", err)
	}
	return nil
}
