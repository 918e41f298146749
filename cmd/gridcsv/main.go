// Package main provides the gridcsv CLI: run mapping templates against
// workbooks and inspect CSV output without a running server.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"gridcsv/internal/core"
	"gridcsv/internal/workbook"
)

var (
	templatePath string
	sheetName    string
	outputPath   string
	showWarnings bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "gridcsv",
		Short: "Map spreadsheet ranges to normalized CSV",
		Long: `gridcsv runs a mapping template against a workbook (.xlsx or .csv)
and emits the resulting CSV, and provides utilities for comparing and
deduplicating CSV documents.`,
		SilenceUsage: true,
	}

	sheetsCmd := &cobra.Command{
		Use:   "sheets <workbook>",
		Short: "List the sheets of a workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runSheets,
	}

	generateCmd := &cobra.Command{
		Use:   "generate <workbook>",
		Short: "Run a mapping template against a workbook",
		Args:  cobra.ExactArgs(1),
		RunE:  runGenerate,
	}
	generateCmd.Flags().StringVarP(&templatePath, "template", "t", "", "Template JSON file (required)")
	generateCmd.Flags().StringVarP(&sheetName, "sheet", "s", "", "Sheet to read (default: template's sheet, then first)")
	generateCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Output file path (default: stdout)")
	generateCmd.Flags().BoolVar(&showWarnings, "warnings", true, "Print run warnings to stderr")
	generateCmd.MarkFlagRequired("template")

	diffCmd := &cobra.Command{
		Use:   "diff <left.csv> <right.csv>",
		Short: "Show rows unique to each of two CSV files",
		Args:  cobra.ExactArgs(2),
		RunE:  runDiff,
	}

	dedupeCmd := &cobra.Command{
		Use:   "dedupe <file.csv>",
		Short: "Report duplicate rows in a CSV file",
		Args:  cobra.ExactArgs(1),
		RunE:  runDedupe,
	}

	rootCmd.AddCommand(sheetsCmd, generateCmd, diffCmd, dedupeCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadWorkbook(path string) (*workbook.Workbook, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}
	defer f.Close()
	return workbook.Load(f, path)
}

func runSheets(cmd *cobra.Command, args []string) error {
	wb, err := loadWorkbook(args[0])
	if err != nil {
		return err
	}
	for _, sheet := range wb.Sheets {
		fmt.Println(sheet)
	}
	return nil
}

func runGenerate(cmd *cobra.Command, args []string) error {
	wb, err := loadWorkbook(args[0])
	if err != nil {
		return err
	}

	doc, err := os.ReadFile(templatePath)
	if err != nil {
		return fmt.Errorf("read template: %w", err)
	}
	tpl, err := core.ParseTemplate(doc)
	if err != nil {
		return err
	}

	sheet := tpl.Sheet
	if sheetName != "" {
		sheet = sheetName
	}
	g, err := wb.Grid(sheet)
	if err != nil {
		return err
	}

	csvDoc, res, err := core.GenerateCSV(g, tpl)
	if err != nil {
		return err
	}

	if showWarnings {
		for _, w := range res.Warnings {
			fmt.Fprintln(os.Stderr, "warning:", w)
		}
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(csvDoc+"\n"), 0644); err != nil {
			return fmt.Errorf("write output: %w", err)
		}
		fmt.Fprintf(os.Stderr, "%d records written to %s\n", len(res.Records), outputPath)
		return nil
	}
	fmt.Println(csvDoc)
	return nil
}

func runDiff(cmd *cobra.Command, args []string) error {
	left, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	right, err := os.ReadFile(args[1])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[1], err)
	}

	res, err := core.CompareCSV(string(left), string(right))
	if err != nil {
		return err
	}

	if len(res.OnlyLeft) == 0 && len(res.OnlyRight) == 0 {
		fmt.Println("documents match")
		return nil
	}
	if len(res.OnlyLeft) > 0 {
		fmt.Printf("only in %s:\n%s\n", args[0], core.EncodeCSV(res.Headers, res.OnlyLeft))
	}
	if len(res.OnlyRight) > 0 {
		fmt.Printf("only in %s:\n%s\n", args[1], core.EncodeCSV(res.Headers, res.OnlyRight))
	}
	return nil
}

func runDedupe(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read %s: %w", args[0], err)
	}
	rows, err := core.DecodeCSV(string(data))
	if err != nil {
		return err
	}
	if len(rows) == 0 {
		return fmt.Errorf("%w: missing header row", core.ErrBadCSV)
	}

	report := core.FindDuplicates(rows[0], rows[1:])
	if report.Groups == 0 {
		fmt.Println("no duplicate rows")
		return nil
	}
	fmt.Printf("%d duplicate groups covering %d rows:\n%s\n",
		report.Groups, report.RowCount, core.EncodeCSV(rows[0], report.Rows))
	return nil
}
