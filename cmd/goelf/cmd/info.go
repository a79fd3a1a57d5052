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
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/MakeNowJust/heredoc/v2"
	"github.com/alecthomas/chroma/v2/quick"
	"github.com/apex/log"
	"github.com/caarlos0/ctrlc"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/blacktop/go-elf/internal/colors"
	ecmd "github.com/blacktop/go-elf/internal/commands/elf"
	"github.com/blacktop/go-elf/pkg/elf"
)

func init() {
	rootCmd.AddCommand(infoCmd)

	infoCmd.Flags().BoolP("header", "d", false, "Print the ELF header")
	infoCmd.Flags().BoolP("dynamic", "y", false, "Print the dynamic entries")
	infoCmd.Flags().BoolP("notes", "n", false, "Print the notes")
	infoCmd.Flags().BoolP("json", "j", false, "Print the summary as JSON")
	infoCmd.Flags().Bool("yaml", false, "Print the summary as YAML")
	infoCmd.MarkFlagsMutuallyExclusive("json", "yaml")
	viper.BindPFlag("info.header", infoCmd.Flags().Lookup("header"))
	viper.BindPFlag("info.dynamic", infoCmd.Flags().Lookup("dynamic"))
	viper.BindPFlag("info.notes", infoCmd.Flags().Lookup("notes"))
	viper.BindPFlag("info.json", infoCmd.Flags().Lookup("json"))
	viper.BindPFlag("info.yaml", infoCmd.Flags().Lookup("yaml"))

	infoCmd.MarkZshCompPositionalArgumentFile(1)
}

// infoCmd represents the info command
var infoCmd = &cobra.Command{
	Use:     "info <elf>...",
	Aliases: []string{"i"},
	Short:   "Summarize ELF files",
	Example: heredoc.Doc(`
		# Summarize a binary
		❯ goelf info /bin/ls

		# Summarize several files as JSON
		❯ goelf info --json /usr/lib/x86_64-linux-gnu/*.so.*

		# Use the DT_GNU_HASH table to size the dynamic symbol table
		❯ goelf info --count-method gnu-hash /bin/ls

		# Print the notes of a core dump
		❯ goelf info --notes core.1234`),
	Args:          cobra.MinimumNArgs(1),
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		showHeader := viper.GetBool("info.header")
		showDynamic := viper.GetBool("info.dynamic")
		showNotes := viper.GetBool("info.notes")
		asJSON := viper.GetBool("info.json")
		asYAML := viper.GetBool("info.yaml")

		ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		var bins []*elf.Binary
		if err := ctrlc.Default.Run(ctx, func() (err error) {
			bins, err = ecmd.OpenFiles(ctx, args, conf.ElfConfig)
			return err
		}); err != nil {
			if errors.As(err, &ctrlc.ErrorCtrlC{}) || errors.Is(err, context.Canceled) {
				log.Warn("Exiting...")
				return nil
			}
			return err
		}

		if asJSON || asYAML {
			infos := make([]*ecmd.Info, 0, len(bins))
			for _, bin := range bins {
				infos = append(infos, ecmd.NewInfo(bin))
			}
			if asYAML {
				dat, err := yaml.Marshal(infos)
				if err != nil {
					return err
				}
				if colors.Enabled() {
					return quick.Highlight(os.Stdout, string(dat), "yaml", "terminal256", "nord")
				}
				fmt.Print(string(dat))
				return nil
			}
			dat, err := json.MarshalIndent(infos, "", "  ")
			if err != nil {
				return err
			}
			if colors.Enabled() {
				return quick.Highlight(os.Stdout, string(dat)+"\n", "json", "terminal256", "nord")
			}
			fmt.Println(string(dat))
			return nil
		}

		for _, bin := range bins {
			fmt.Println(ecmd.NewInfo(bin))
			if showHeader {
				fmt.Println("Header:")
				fmt.Println(bin.Header)
			}
			if showDynamic && len(bin.DynamicEntries) > 0 {
				fmt.Println("Dynamic Entries:")
				for _, e := range bin.DynamicEntries {
					fmt.Printf("  %s\n", e)
				}
				fmt.Println()
			}
			if showNotes && len(bin.Notes) > 0 {
				fmt.Println("Notes:")
				for _, n := range bin.Notes {
					fmt.Printf("  %s\n", n)
				}
				fmt.Println()
			}
		}

		return nil
	},
}
