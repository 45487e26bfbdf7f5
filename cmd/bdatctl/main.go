package main

import (
	"fmt"
	"io/ioutil"
	"os"

	"github.com/spf13/cobra"
	bdat "github.com/xenoblade-tools/bdat"
)

func main() {
	if err := rootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "bdatctl",
		Short: "Inspect and manipulate BDAT tabular data files",
	}
	root.AddCommand(detectCmd())
	root.AddCommand(hashCmd())
	root.AddCommand(scrambleCmd())
	root.AddCommand(unscrambleCmd())
	root.AddCommand(versionCmd())
	return root
}

func detectCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "detect <file>",
		Short: "Print the dialect a BDAT file is encoded with",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := ioutil.ReadFile(args[0])
			if err != nil {
				return err
			}
			dialect, err := bdat.Detect(data)
			if err != nil {
				return err
			}
			fmt.Println(dialect)
			return nil
		},
	}
}

func hashCmd() *cobra.Command {
	var legacy bool
	var slots uint32
	cmd := &cobra.Command{
		Use:   "hash <label>",
		Short: "Hash a table or column label the way BDAT would",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if legacy {
				if slots == 0 {
					slots = 61
				}
				fmt.Printf("%d\n", bdat.LegacyHash(args[0], slots))
				return nil
			}
			fmt.Printf("%#08x\n", bdat.ParseLabel(args[0], true).Hash())
			return nil
		},
	}
	cmd.Flags().BoolVar(&legacy, "legacy", false, "use the legacy per-table column hash instead of murmur3")
	cmd.Flags().Uint32Var(&slots, "slots", 61, "hash table modulus, legacy mode only")
	return cmd
}

func scrambleCmd() *cobra.Command {
	var key uint16
	cmd := &cobra.Command{
		Use:   "scramble <in> <out>",
		Short: "Apply the legacy scramble cipher to a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScramble(args[0], args[1], key, bdat.Scramble)
		},
	}
	cmd.Flags().Uint16Var(&key, "key", 0, "scramble key; defaults to the file's own checksum")
	return cmd
}

func unscrambleCmd() *cobra.Command {
	var key uint16
	cmd := &cobra.Command{
		Use:   "unscramble <in> <out>",
		Short: "Reverse the legacy scramble cipher on a file",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScramble(args[0], args[1], key, bdat.Unscramble)
		},
	}
	cmd.Flags().Uint16Var(&key, "key", 0, "scramble key used to encode the file")
	return cmd
}

func runScramble(in, out string, key uint16, op func([]byte, uint16)) error {
	data, err := ioutil.ReadFile(in)
	if err != nil {
		return err
	}
	if key == 0 {
		key = bdat.Checksum(data)
	}
	op(data, key)
	return ioutil.WriteFile(out, data, 0644)
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print bdatctl's version",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Println("bdatctl 1.0.0")
		},
	}
}
