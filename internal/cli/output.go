package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/specialistvlad/contractgrid/internal/pipeline"
)

const (
	formatText = "text"
	formatJSON = "json"
)

func checkFormat(format string, allowed ...string) error {
	for _, a := range allowed {
		if format == a {
			return nil
		}
	}
	return &ExitError{Code: ExitUsage, Message: fmt.Sprintf("invalid format %q: must be one of %v", format, allowed)}
}

// writeResult prints res and maps a rejection to an exit code. In text mode
// the source goes to out (or outFile) and diagnostics to errW; in json mode
// the whole result goes to out.
func writeResult(res *pipeline.Result, format, outFile, abiFile string, out, errW io.Writer) error {
	if format == formatJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return failure(err)
		}
	} else {
		for _, d := range res.Diagnostics {
			fmt.Fprintln(errW, d.String())
		}
	}

	if !res.Emitted() {
		return &ExitError{
			Code:    ExitFailure,
			Message: fmt.Sprintf("canvas rejected with %d error(s)", len(res.Diagnostics.Errors())),
		}
	}

	if outFile != "" {
		if err := os.WriteFile(outFile, []byte(res.Source()), 0o644); err != nil {
			return failure(fmt.Errorf("failed to write source: %w", err))
		}
	} else if format == formatText {
		fmt.Fprint(out, res.Source())
	}

	if abiFile != "" && res.Interface != nil {
		data, err := res.Interface.JSON()
		if err != nil {
			return failure(err)
		}
		if err := os.WriteFile(abiFile, append(data, '\n'), 0o644); err != nil {
			return failure(fmt.Errorf("failed to write ABI: %w", err))
		}
	}
	return nil
}
