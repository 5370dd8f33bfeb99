package cmd

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/traybill/traybill/internal/catalog"
)

var menuCmd = &cobra.Command{
	Use:   "menu",
	Short: "Print the active menu with prices, calories, and categories",
	RunE:  runMenu,
}

func init() {
	rootCmd.AddCommand(menuCmd)
}

func runMenu(cmd *cobra.Command, args []string) error {
	path := cfg.MenuPath
	cat := catalog.LoadOrDefault(path)

	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ITEM\tPRICE (VND)\tCALORIES\tCATEGORY")
	for _, e := range cat.Entries() {
		fmt.Fprintf(w, "%s\t%d\t%d\t%s\n", e.Label, e.Price, e.Calories, catalog.CategoryOf(e.Label))
	}
	return w.Flush()
}
