package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"github.com/specialistvlad/contractgrid/internal/app"
	"github.com/specialistvlad/contractgrid/internal/canvas"
	"github.com/specialistvlad/contractgrid/internal/pipeline"
)

func newCompileCommand(g *globalFlags) *cobra.Command {
	var (
		project string
		outFile string
		abiFile string
		format  string
	)
	cmd := &cobra.Command{
		Use:   "compile [CANVAS]",
		Short: "Compile a canvas file into Solidity source",
		Long: `Compile a canvas (.json or .hcl) into a single Solidity source file.

Without a CANVAS argument the canvas is read as JSON from standard input.
Diagnostics are printed to standard error; a rejected canvas exits with 1.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON); err != nil {
				return err
			}
			a, err := newApp(cmd, g, app.Config{ProjectFile: project})
			if err != nil {
				return err
			}

			var res *pipeline.Result
			if len(args) == 1 {
				res, err = a.Compile(cmd.Context(), args[0])
			} else {
				res, err = compileStdin(cmd, a)
			}
			if err != nil {
				return failure(err)
			}
			return writeResult(res, format, outFile, abiFile, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&project, "project", "", "HCL project file with the contract name, license and pragma")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the source to this file instead of standard output")
	cmd.Flags().StringVar(&abiFile, "abi", "", "Also write the JSON ABI to this file")
	cmd.Flags().StringVar(&format, "format", formatText, "Output format (text, json)")
	return cmd
}

func compileStdin(cmd *cobra.Command, a *app.App) (*pipeline.Result, error) {
	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, fmt.Errorf("failed to read canvas from stdin: %w", err)
	}
	state, err := canvas.ParseJSON(data)
	if err != nil {
		return nil, err
	}
	return a.CompileState(cmd.Context(), state)
}
