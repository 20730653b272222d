package main

import (
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"clubroster/internal/domain/agegate"
	"clubroster/internal/domain/birthnumber"
)

// decodeOutput is the JSON form of a decoded birth number.
type decodeOutput struct {
	BirthDate   string `json:"birth_date"`
	Sex         int    `json:"sex"`
	SexName     string `json:"sex_name"`
	IsAtLeast15 bool   `json:"is_at_least_15"`
}

// clock is read by every command; tests replace it.
var clock = time.Now

func rootCmd(out io.Writer) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "birthnumber",
		Short: "Decode and check Czech birth numbers",
		Long: `Decode and check Czech birth numbers (rodne cislo).

Examples:
  birthnumber decode 995101/0003          # birth date, sex and age gate
  birthnumber decode 9913011234 --strict  # reject impossible dates
  birthnumber validate 990101/0009        # registry rules incl. checksum
  birthnumber age 2010-06-30              # is the person 15 or older?
`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.SetOut(out)

	cmd.AddCommand(decodeCmd(), validateCmd(), ageCmd())
	return cmd
}

func decodeCmd() *cobra.Command {
	var (
		strict     bool
		outputJSON bool
	)

	cmd := &cobra.Command{
		Use:   "decode <birth-number>",
		Short: "Print the birth date and sex encoded in a birth number",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			policy := birthnumber.LenientDecode
			if strict {
				policy = birthnumber.StrictDecode
			}
			info, err := policy.Decode(args[0])
			if err != nil {
				return err
			}

			res := decodeOutput{
				BirthDate:   info.BirthDate,
				Sex:         int(info.Sex),
				SexName:     info.Sex.String(),
				IsAtLeast15: agegate.IsAtLeastAt(info.BirthDate, agegate.MinimumAge, clock()),
			}
			if outputJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(res)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "birth date:  %s\nsex:         %d (%s)\nat least 15: %t\n",
				res.BirthDate, res.Sex, res.SexName, res.IsAtLeast15)
			return nil
		},
	}

	cmd.Flags().BoolVar(&strict, "strict", false, "Reject decoded dates that do not exist in the calendar")
	cmd.Flags().BoolVar(&outputJSON, "json", false, "Output the result as JSON")
	return cmd
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <birth-number>",
		Short: "Check a birth number against the member registry rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := birthnumber.ValidateAt(args[0], clock()); err != nil {
				return fmt.Errorf("%s: %w", args[0], err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s: valid\n", args[0])
			return nil
		},
	}
}

func ageCmd() *cobra.Command {
	var minAge int

	cmd := &cobra.Command{
		Use:   "age <YYYY-MM-DD>",
		Short: "Print the age for a birth date and whether it reaches the minimum age",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			birth, err := agegate.Parse(args[0])
			if err != nil {
				return err
			}
			now := clock()
			fmt.Fprintf(cmd.OutOrStdout(), "age: %d\nat least %d: %t\n",
				agegate.AgeAt(birth, now), minAge, agegate.IsAtLeastAt(args[0], minAge, now))
			return nil
		},
	}

	cmd.Flags().IntVar(&minAge, "min-age", agegate.MinimumAge, "Minimum age to check against")
	return cmd
}
