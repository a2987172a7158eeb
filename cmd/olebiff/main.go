// Command olebiff inspects and extracts content from legacy Microsoft
// Office binary files: .xls workbooks, .doc documents, .ppt
// presentations and the CFB containers that hold them.
package main

import (
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sort"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/mtakeda/olebiff/biff"
	"github.com/mtakeda/olebiff/cfb"
	"github.com/mtakeda/olebiff/doc"
	"github.com/mtakeda/olebiff/ppt"
	"github.com/mtakeda/olebiff/props"
	"github.com/mtakeda/olebiff/warn"
	"github.com/mtakeda/olebiff/xls"
)

var (
	strict        bool
	quietWarnings bool

	sheetName  string
	streamName string
	countOnly  bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:           "olebiff",
		Short:         "Inspect and extract legacy Office binary files",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().BoolVar(&strict, "strict", false, "treat any recoverable anomaly as fatal")
	rootCmd.PersistentFlags().BoolVar(&quietWarnings, "quiet-warnings", false, "do not print parse warnings to stderr")

	infoCmd := &cobra.Command{
		Use:   "info FILE",
		Short: "Show container structure and document properties",
		Args:  cobra.ExactArgs(1),
		RunE:  runInfo,
	}

	xlsCmd := &cobra.Command{
		Use:   "xls2csv FILE",
		Short: "Convert an .xls workbook to CSV on stdout",
		Args:  cobra.ExactArgs(1),
		RunE:  runXls2csv,
	}
	xlsCmd.Flags().StringVarP(&sheetName, "sheet", "s", "", "convert only the named sheet")

	docCmd := &cobra.Command{
		Use:   "doctext FILE",
		Short: "Extract the text of a .doc document",
		Args:  cobra.ExactArgs(1),
		RunE:  runDoctext,
	}

	pptCmd := &cobra.Command{
		Use:   "ppttext FILE",
		Short: "Extract the text of a .ppt presentation",
		Args:  cobra.ExactArgs(1),
		RunE:  runPpttext,
	}

	dumpCmd := &cobra.Command{
		Use:   "dump FILE",
		Short: "Hex-dump the BIFF records of a workbook stream",
		Args:  cobra.ExactArgs(1),
		RunE:  runDump,
	}
	dumpCmd.Flags().StringVar(&streamName, "stream", "", "stream to dump (default: Workbook, then Book)")
	dumpCmd.Flags().BoolVar(&countOnly, "count", false, "print per-type record counts instead of a dump")

	rootCmd.AddCommand(infoCmd, xlsCmd, docCmd, pptCmd, dumpCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "olebiff:", err)
		os.Exit(1)
	}
}

func parseMode() warn.Mode {
	if strict {
		return warn.Strict
	}
	return warn.Lenient
}

func reportWarnings(warnings []warn.Warning) {
	if quietWarnings {
		return
	}
	for _, w := range warnings {
		fmt.Fprintln(os.Stderr, "warning:", w)
	}
}

func runInfo(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	format := cfb.Sniff(data)
	if desc, ok := cfb.FormatDescriptions[format]; ok && format != "cfb" {
		fmt.Printf("format: %s\n", desc)
		return nil
	}
	if format != "cfb" {
		return fmt.Errorf("%s: not a compound file", args[0])
	}

	col := warn.NewCollector(parseMode())
	f, err := cfb.Parse(data, col)
	if err != nil {
		reportWarnings(col.Warnings())
		return err
	}

	fmt.Printf("format: %s\n", cfb.FormatDescriptions["cfb"])
	fmt.Printf("sector size: %d\n", f.SectorSize())
	fmt.Printf("mini-stream cutoff: %d\n", f.MiniStreamCutoff())
	fmt.Println("entries:")
	for _, e := range f.Entries() {
		fmt.Printf("  %-8s %10d  %s\n", e.Type, e.Size, printableName(e.Name))
	}

	properties := props.Read(f, col)
	reportWarnings(col.Warnings())
	if len(properties) > 0 {
		fmt.Println("properties:")
		keys := make([]string, 0, len(properties))
		for k := range properties {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			fmt.Printf("  %s: %s\n", k, properties[k])
		}
	}
	return nil
}

// printableName makes control-prefixed stream names like
// "\x05SummaryInformation" safe to print.
func printableName(name string) string {
	if len(name) > 0 && name[0] < 0x20 {
		return fmt.Sprintf("\\x%02x%s", name[0], name[1:])
	}
	return name
}

func runXls2csv(cmd *cobra.Command, args []string) error {
	w, warnings, err := xls.Open(args[0], xls.Options{Mode: parseMode()})
	reportWarnings(warnings)
	if err != nil {
		return err
	}

	sheets := w.Sheets
	if sheetName != "" {
		sheet := w.SheetByName(sheetName)
		if sheet == nil {
			return fmt.Errorf("sheet %q not found", sheetName)
		}
		sheets = []*xls.Sheet{sheet}
	}

	cw := csv.NewWriter(os.Stdout)
	for i, sheet := range sheets {
		if i > 0 {
			cw.Flush()
			fmt.Println("--------")
		}
		for row := 0; row < sheet.NRows; row++ {
			fields := make([]string, sheet.NCols)
			for col := range fields {
				fields[col] = formatCell(w, sheet.Cell(row, col))
			}
			if err := cw.Write(fields); err != nil {
				return err
			}
		}
	}
	cw.Flush()
	return cw.Error()
}

func formatCell(w *xls.Workbook, c xls.Cell) string {
	switch c.Type {
	case xls.CellText:
		s, _ := c.Value.(string)
		return s
	case xls.CellNumber:
		v, _ := c.Value.(float64)
		return strconv.FormatFloat(v, 'g', -1, 64)
	case xls.CellDate:
		t, err := w.CellTime(c)
		if err != nil {
			v, _ := c.Value.(float64)
			return strconv.FormatFloat(v, 'g', -1, 64)
		}
		serial, _ := c.Value.(float64)
		if serial < 1 {
			return t.Format("15:04:05")
		}
		if serial != float64(int64(serial)) {
			return t.Format("2006-01-02 15:04:05")
		}
		return t.Format("2006-01-02")
	case xls.CellBoolean:
		if b, _ := c.Value.(bool); b {
			return "TRUE"
		}
		return "FALSE"
	case xls.CellError:
		s, _ := c.Value.(string)
		return s
	default:
		return ""
	}
}

func runDoctext(cmd *cobra.Command, args []string) error {
	d, warnings, err := doc.Open(args[0], doc.Options{Mode: parseMode()})
	reportWarnings(warnings)
	if err != nil {
		return err
	}
	fmt.Print(d.Text)
	return nil
}

func runPpttext(cmd *cobra.Command, args []string) error {
	p, warnings, err := ppt.Open(args[0], ppt.Options{Mode: parseMode()})
	reportWarnings(warnings)
	if err != nil {
		return err
	}
	fmt.Println(p.Text())
	return nil
}

func runDump(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	col := warn.NewCollector(parseMode())
	f, err := cfb.Parse(data, col)
	if err != nil {
		reportWarnings(col.Warnings())
		return err
	}

	names := []string{"Workbook", "Book"}
	if streamName != "" {
		names = []string{streamName}
	}
	var stream []byte
	for _, name := range names {
		stream, err = f.GetStream(name, col)
		var notFound *cfb.StreamNotFoundError
		if errors.As(err, &notFound) {
			err = nil
			continue
		}
		break
	}
	reportWarnings(col.Warnings())
	if err != nil {
		return err
	}
	if stream == nil {
		return fmt.Errorf("%s: no %v stream", args[0], names)
	}

	if countOnly {
		counts, err := biff.CountRecords(stream)
		if err != nil {
			return err
		}
		types := make([]string, 0, len(counts))
		for name := range counts {
			types = append(types, name)
		}
		sort.Strings(types)
		for _, name := range types {
			fmt.Printf("%6d  %s\n", counts[name], name)
		}
		return nil
	}
	return biff.DumpRecords(stream, os.Stdout)
}
