package main

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/gregbanks/novaprova/pkg/spiegel"
	"github.com/gregbanks/novaprova/pkg/utils"
)

func init() {
	rootCmd.AddCommand(dumpInfoCmd, dumpFunctionsCmd, dumpStructsCmd, dumpVariablesCmd, dumpAbbrevsCmd, describeCmd, listObjectsCmd)
}

var listObjectsCmd = &cobra.Command{
	Use:   "list-objects",
	Short: "List the paths of every loaded link object",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(func(s *spiegel.State) error {
			paths := utils.Map(s.LinkObjs(), func(lo *spiegel.LinkObj) string { return lo.Path })
			fmt.Fprintln(os.Stdout, utils.FormatSlice(paths, "\n"))
			return nil
		})
	},
}

var (
	dumpInfoPreorder bool
	dumpInfoPaths    bool
)

var dumpInfoCmd = &cobra.Command{
	Use:   "dump-info",
	Short: "Dump every compile unit's DIE tree",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(func(s *spiegel.State) error {
			return s.DumpInfo(os.Stdout, dumpInfoPreorder, dumpInfoPaths)
		})
	},
}

var dumpFunctionsCmd = &cobra.Command{
	Use:   "dump-functions",
	Short: "Dump every subprogram DIE with its parameters",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(func(s *spiegel.State) error {
			return s.DumpFunctions(os.Stdout)
		})
	},
}

var dumpStructsCmd = &cobra.Command{
	Use:   "dump-structs",
	Short: "Dump every structure/union/class DIE with its members",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(func(s *spiegel.State) error {
			return s.DumpStructs(os.Stdout)
		})
	},
}

var dumpVariablesCmd = &cobra.Command{
	Use:   "dump-variables",
	Short: "Dump every top-level variable DIE",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(func(s *spiegel.State) error {
			return s.DumpVariables(os.Stdout)
		})
	},
}

var dumpAbbrevsCmd = &cobra.Command{
	Use:   "dump-abbrevs",
	Short: "Dump every compile unit's abbreviation table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return withState(func(s *spiegel.State) error {
			return s.DumpAbbrevs(os.Stdout)
		})
	},
}

var describeCmd = &cobra.Command{
	Use:   "describe <address>",
	Short: "Resolve a runtime address to its compile unit, function, and offset",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		addr, err := strconv.ParseUint(args[0], 0, 64)
		if err != nil {
			return fmt.Errorf("invalid address %q: %w", args[0], err)
		}
		return withState(func(s *spiegel.State) error {
			display := utils.FormatUintHex(addr, 16)
			loc, ok := s.DescribeAddress(addr)
			if !ok {
				fmt.Fprintf(os.Stdout, "%s: no matching compile unit\n", display)
				return nil
			}
			funcName := "?"
			if !loc.Func.IsNull() {
				funcName = s.GetFullName(loc.Func)
			}
			fmt.Fprintf(os.Stdout, "%s: %s+0x%x\n", display, funcName, loc.Offset)
			return nil
		})
	},
}

func init() {
	dumpInfoCmd.Flags().BoolVar(&dumpInfoPreorder, "preorder", false, "flatten the tree into preorder instead of nesting by depth")
	dumpInfoCmd.Flags().BoolVar(&dumpInfoPaths, "paths", false, "print each entry's full ancestor path")
}

// withState loads the link objects named by --file/--self, runs fn against
// the resulting introspection state, and always closes it afterwards.
func withState(fn func(*spiegel.State) error) error {
	s, err := spiegel.NewState()
	if err != nil {
		return err
	}
	defer s.Close()

	if !inspectSelf && binaryPath == "" {
		return fmt.Errorf("no target: pass --file <path> or --self")
	}

	if inspectSelf {
		// ReadLinkObjs scans this process's own /proc/self/maps, covering
		// the running executable and the shared libraries it has loaded
		// (minus those under the system prefixes it filters out); it only
		// makes sense against this process, never an arbitrary on-disk
		// target.
		if err := s.ReadLinkObjs(); err != nil {
			return err
		}
	}
	if binaryPath != "" {
		if err := s.AddExecutable(binaryPath); err != nil {
			return err
		}
	}

	return fn(s)
}
