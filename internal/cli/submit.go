package cli

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/specialistvlad/contractgrid/internal/app"
	"github.com/specialistvlad/contractgrid/internal/canvas"
	"github.com/specialistvlad/contractgrid/internal/remote"
	"github.com/specialistvlad/contractgrid/internal/server"
)

const (
	transportSocketIO = "socketio"
	transportHTTP     = "http"
)

func newSubmitCommand(g *globalFlags) *cobra.Command {
	var (
		url       string
		session   string
		project   string
		outFile   string
		abiFile   string
		format    string
		timeout   time.Duration
		insecure  bool
		transport string
	)
	cmd := &cobra.Command{
		Use:   "submit --url URL CANVAS",
		Short: "Compile a canvas on a running contractgrid server",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON); err != nil {
				return err
			}
			if transport != transportSocketIO && transport != transportHTTP {
				return usageError(fmt.Errorf("invalid transport %q: must be %s or %s", transport, transportSocketIO, transportHTTP))
			}
			a, err := newApp(cmd, g, app.Config{ProjectFile: project})
			if err != nil {
				return err
			}
			state, err := canvas.LoadFile(cmd.Context(), args[0])
			if err != nil {
				return failure(err)
			}
			if session == "" {
				session = uuid.NewString()
			}

			opts := remote.Options{
				URL:                url,
				Timeout:            timeout,
				InsecureSkipVerify: insecure,
			}
			req := &server.CompileRequest{
				Session: session,
				Version: state.Version,
				Canvas:  state,
				Header:  a.Header(),
			}
			var resp *server.CompileResponse
			if transport == transportHTTP {
				resp, err = remote.Post(cmd.Context(), nil, opts, req)
			} else {
				resp, err = remote.Submit(cmd.Context(), opts, req)
			}
			if err != nil {
				return failure(err)
			}
			if resp.Superseded || resp.Result == nil {
				return &ExitError{Code: ExitFailure, Message: fmt.Sprintf("version %d of session %s was superseded", resp.Version, resp.Session)}
			}
			return writeResult(resp.Result, format, outFile, abiFile, cmd.OutOrStdout(), cmd.ErrOrStderr())
		},
	}
	cmd.Flags().StringVar(&url, "url", "", "Server URL, e.g. http://localhost:8090")
	cmd.Flags().StringVar(&session, "session", "", "Editor session id (random when empty)")
	cmd.Flags().StringVar(&project, "project", "", "HCL project file with the contract name, license and pragma")
	cmd.Flags().StringVarP(&outFile, "out", "o", "", "Write the source to this file instead of standard output")
	cmd.Flags().StringVar(&abiFile, "abi", "", "Also write the JSON ABI to this file")
	cmd.Flags().StringVar(&format, "format", formatText, "Output format (text, json)")
	cmd.Flags().DurationVar(&timeout, "timeout", remote.DefaultTimeout, "How long to wait for the server")
	cmd.Flags().StringVar(&transport, "transport", transportSocketIO, "How to reach the server (socketio, http)")
	cmd.Flags().BoolVar(&insecure, "insecure", false, "Skip TLS certificate verification")
	_ = cmd.MarkFlagRequired("url")
	return cmd
}
