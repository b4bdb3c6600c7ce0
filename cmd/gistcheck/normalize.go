package main

import (
	"encoding/json"
	"io"
	"os"

	"shelf-scanner/backend/internal/agent/response"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// errRejected signals a reply that did not normalize; the report is already printed
var errRejected = eris.New("reply rejected")

var repair bool

var normalizeCmd = &cobra.Command{
	Use:   "normalize [file]",
	Short: "Normalize a model reply read from a file or stdin",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		in := cmd.InOrStdin()
		if len(args) == 1 && args[0] != "-" {
			f, err := os.Open(args[0])
			if err != nil {
				return eris.Wrapf(err, "open %s", args[0])
			}
			defer f.Close()
			in = f
		}
		return runNormalize(in, cmd.OutOrStdout(), repair, logger)
	},
}

func init() {
	normalizeCmd.Flags().BoolVar(&repair, "repair", false, "attempt to repair malformed JSON before giving up")
	rootCmd.AddCommand(normalizeCmd)
}

type failureReport struct {
	Kind    response.Kind `json:"kind"`
	Message string        `json:"message"`
	Title   string        `json:"title,omitempty"`
}

type report struct {
	Kind     response.Kind     `json:"kind"`
	Strategy response.Strategy `json:"strategy"`
	Gists    *response.GistMap `json:"gists,omitempty"`
	Error    *failureReport    `json:"error,omitempty"`
}

func runNormalize(in io.Reader, out io.Writer, repair bool, logger *zap.Logger) error {
	raw, err := io.ReadAll(in)
	if err != nil {
		return eris.Wrap(err, "read reply")
	}

	n := response.NewNormalizer(response.WithLogger(logger), response.WithRepair(repair))
	result := n.Normalize(string(raw))

	rep := report{Kind: result.Kind, Strategy: result.Strategy}
	if result.OK() {
		rep.Gists = &result.Gists
	} else {
		rep.Error = &failureReport{
			Kind:    result.Failure.Kind,
			Message: result.Failure.Message,
			Title:   result.Failure.Title,
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return eris.Wrap(err, "write report")
	}
	if !result.OK() {
		return errRejected
	}
	return nil
}
