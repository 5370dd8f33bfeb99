package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/traybill/traybill/internal/pipeline"
	"github.com/traybill/traybill/internal/utils"
)

var analyzeFormat string

var analyzeCmd = &cobra.Command{
	Use:   "analyze <image>",
	Short: "Analyze a tray photo and print the bill",
	Args:  cobra.ExactArgs(1),
	RunE:  runAnalyze,
}

func init() {
	analyzeCmd.Flags().StringVarP(&analyzeFormat, "format", "f", "text", "output format (text, json)")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	img, err := utils.LoadImage(args[0])
	if err != nil {
		return err
	}

	p, err := pipeline.NewBuilderFromConfig(cfg.ToPipelineConfig()).Build()
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	res, err := p.Analyze(cmd.Context(), img)
	if err != nil {
		return err
	}

	switch analyzeFormat {
	case "json":
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	case "text":
		printResult(res)
		return nil
	default:
		return fmt.Errorf("unknown format %q (want text or json)", analyzeFormat)
	}
}

func printResult(res *pipeline.Result) {
	switch res.State {
	case pipeline.StateEmpty:
		fmt.Println("No dishes detected.")
		return
	case pipeline.StateFailed:
		fmt.Printf("Analysis failed: %s\n", res.Reason)
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "#\tITEM\tPRICE (VND)\tCALORIES")
	for _, li := range res.Bill.Items {
		marker := ""
		if li.Fallback {
			marker = " *"
		}
		fmt.Fprintf(w, "%d\t%s%s\t%d\t%d\n", li.Index+1, li.Label, marker, li.Price, li.Calories)
	}
	fmt.Fprintf(w, "\tTOTAL\t%d\t%d\n", res.Bill.TotalCost, res.Bill.TotalCalories)
	_ = w.Flush()

	for _, li := range res.Bill.Items {
		if li.Fallback {
			fmt.Println("* priced with the fallback entry (not on the menu)")
			break
		}
	}
}
