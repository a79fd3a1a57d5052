/*
Copyright © 2024-2026 blacktop

Permission is hereby granted, free of charge, to any person obtaining a copy
of this software and associated documentation files (the "Software"), to deal
in the Software without restriction, including without limitation the rights
to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
copies of the Software, and to permit persons to whom the Software is
furnished to do so, subject to the following conditions:

The above copyright notice and this permission notice shall be included in
all copies or substantial portions of the Software.

THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN
THE SOFTWARE.
*/
package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/apex/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	ecmd "github.com/blacktop/go-elf/internal/commands/elf"
	"github.com/blacktop/go-elf/internal/colors"
	"github.com/blacktop/go-elf/internal/magic"
	"github.com/blacktop/go-elf/pkg/elf"
)

func init() {
	rootCmd.AddCommand(dynsymCmd)

	dynsymCmd.Flags().BoolP("json", "j", false, "Print the results as JSON")
	viper.BindPFlag("dynsym.json", dynsymCmd.Flags().Lookup("json"))

	dynsymCmd.MarkZshCompPositionalArgumentFile(1)
}

// dynsymCmd represents the dynsym command
var dynsymCmd = &cobra.Command{
	Use:   "dynsym <elf>",
	Short: "Compare the dynamic symbol count of every counting method",
	Example: heredoc.Doc(`
		# Count the dynamic symbols of libc
		❯ goelf dynsym /lib/x86_64-linux-gnu/libc.so.6`),
	Args:          cobra.ExactArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ok, err := magic.IsELF(args[0]); !ok {
			return fmt.Errorf("%s: %w", args[0], err)
		}

		bin, err := elf.Open(args[0], conf.ElfConfig(args[0]))
		if err != nil {
			return err
		}
		log.WithFields(log.Fields{
			"method": bin.DynSymCount.Method,
			"count":  bin.DynSymCount.Count,
		}).Info("Parsed")

		report := ecmd.CountReport(bin)

		if viper.GetBool("dynsym.json") {
			dat, err := json.MarshalIndent(report, "", "  ")
			if err != nil {
				return err
			}
			fmt.Println(string(dat))
			return nil
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintf(w, "%s\t%s\n", colors.Name("METHOD"), colors.Name("COUNT"))
		for _, mc := range report {
			if mc.Error != "" {
				fmt.Fprintf(w, "%s\t%s\n", mc.Name, colors.Warning("%s", mc.Error))
				continue
			}
			fmt.Fprintf(w, "%s\t%d\n", mc.Name, mc.Count)
		}
		return w.Flush()
	},
}
