// Package lukin wires a poki object inspector into the lawa CLI. lukin is
// lawa's word for "look"; the command reads a poki file and prints its
// segments, relocations, and exports in a human-readable form, or as
// YAML for scripting.
package lukin

import (
	"fmt"
	"os"

	"github.com/crashandsideburns/lawa/pkg/poki"
	"github.com/crashandsideburns/lawa/pkg/utils"
	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var outputFormat string

// Cmd is the `lawa lukin` subcommand, added to cmd.RootCmd.
var Cmd = &cobra.Command{
	Use:   "lukin <object>",
	Short: "Inspect a poki object file",
	Long: `lukin deserializes a poki object file and prints its eight
permission-indexed segments: word contents, relocation table, and export
table.`,
	Args: cobra.ExactArgs(1),
	RunE: runDump,
}

func init() {
	Cmd.Flags().StringVar(&outputFormat, "format", "text", "output format: text or yaml")
}

func runDump(cmd *cobra.Command, args []string) error {
	f, err := os.Open(args[0])
	if err != nil {
		return fmt.Errorf("opening %s: %w", args[0], err)
	}
	defer f.Close()

	object, err := poki.Deserialize(f)
	if err != nil {
		return fmt.Errorf("reading %s: %w", args[0], err)
	}

	switch outputFormat {
	case "yaml":
		return dumpYAML(object)
	default:
		dumpText(object)
		return nil
	}
}

func dumpYAML(object *poki.Poki) error {
	enc := yaml.NewEncoder(os.Stdout)
	defer enc.Close()
	return enc.Encode(object)
}

var (
	headingColor = color.New(color.FgYellow, color.Bold)
	wordColor    = color.New(color.FgWhite)
	labelColor   = color.New(color.FgGreen)
	relocColor   = color.New(color.FgCyan)
)

func dumpText(object *poki.Poki) {
	for i, seg := range object.Segments {
		if len(seg.Contents) == 0 && len(seg.RelocationTable) == 0 && len(seg.ExportTable) == 0 {
			continue
		}

		perms := permissionsForIndex(i)
		headingColor.Printf("segment %d (%s)\n", i, perms)

		for offset, word := range seg.Contents {
			fmt.Printf("  %s: ", utils.FormatUintHex(uint64(offset), 4))
			wordColor.Println(utils.FormatUintHex(uint64(word), 4))
		}

		for _, reloc := range seg.RelocationTable {
			if reloc.Unresolved() {
				relocColor.Printf("  reloc %s -> unresolved[%d] (%s)\n",
					utils.FormatUintHex(uint64(reloc.Offset), 4), reloc.SegmentOffset, labelColor.Sprint(object.UnresolvedTable[reloc.SegmentOffset]))
				continue
			}
			relocColor.Printf("  reloc %s -> segment %d offset %s\n",
				utils.FormatUintHex(uint64(reloc.Offset), 4), reloc.SegmentIndex, utils.FormatUintHex(uint64(reloc.SegmentOffset), 4))
		}

		for _, export := range seg.ExportTable {
			fmt.Printf("  export %s = %s\n", labelColor.Sprint(export.Label), utils.FormatUintHex(uint64(export.Offset), 4))
		}
	}
}

func permissionsForIndex(i int) string {
	var b [3]byte
	b[0] = '-'
	b[1] = '-'
	b[2] = '-'
	if i&0b100 != 0 {
		b[0] = 'r'
	}
	if i&0b010 != 0 {
		b[1] = 'w'
	}
	if i&0b001 != 0 {
		b[2] = 'x'
	}
	return string(b[:])
}
