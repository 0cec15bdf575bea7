package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ericrobbins/emalloc/internal/pow2"
)

func init() {
	rootCmd.AddCommand(newRoundCmd())
}

// roundResult is the JSON form of one rounded size.
type roundResult struct {
	Size     uint64 `json:"size"`
	Capacity uint64 `json:"capacity,omitempty"`
	Overflow bool   `json:"overflow,omitempty"`
}

func newRoundCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "round <size>...",
		Short: "Show the capacity each size rounds up to",
		Long: `The round command prints the power-of-two capacity a buffer gets for
each requested size. Sizes accept decimal, 0x hex and 0b binary forms.

Example:
  emalloc round 9 17 100
  emalloc round --width 32 0x80000001`,
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRound(args, viper.GetInt("width"))
		},
	}
	cmd.Flags().Int("width", pow2.Width, "integer width in bits: 32 or 64")
	return cmd
}

func runRound(args []string, width int) error {
	if width != 32 && width != 64 {
		return fmt.Errorf("width must be 32 or 64, got %d", width)
	}

	results := make([]roundResult, 0, len(args))
	for _, arg := range args {
		size, err := strconv.ParseUint(arg, 0, width)
		if err != nil {
			return fmt.Errorf("invalid size %q: %w", arg, err)
		}

		var (
			capacity uint64
			ok       bool
		)
		if width == 32 {
			var c uint32
			c, ok = pow2.RoundUp32(uint32(size))
			capacity = uint64(c)
		} else {
			capacity, ok = pow2.RoundUp64(size)
		}
		results = append(results, roundResult{Size: size, Capacity: capacity, Overflow: !ok})
	}

	if jsonOut {
		return printJSON(results)
	}
	for _, r := range results {
		if r.Overflow {
			printInfo("%s -> overflow (exceeds %d-bit capacity)\n", numbers.Sprintf("%d", r.Size), width)
			continue
		}
		printInfo("%s -> %s\n", numbers.Sprintf("%d", r.Size), numbers.Sprintf("%d", r.Capacity))
	}
	return nil
}
