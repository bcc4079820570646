package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/akolanti/ContractIntelAPI/internal/api"
	"github.com/akolanti/ContractIntelAPI/internal/client"
	"github.com/spf13/cobra"
)

var (
	extractForce bool
	askDocs      []string
	askStream    bool
	auditMode    string
)

var extractCmd = &cobra.Command{
	Use:   "extract [document-id]",
	Short: "Extract structured fields from a contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runExtract,
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a question across ingested contracts",
	Long:  `Answers come with citations to the document, page and chunk they were drawn from. Use --stream to print tokens as they arrive.`,
	Args:  cobra.MinimumNArgs(1),
	RunE:  runAsk,
}

var auditCmd = &cobra.Command{
	Use:   "audit [document-id]",
	Short: "Flag risky clauses in a contract",
	Args:  cobra.ExactArgs(1),
	RunE:  runAudit,
}

func init() {
	extractCmd.Flags().BoolVarP(&extractForce, "force", "f", false, "ignore the cached extraction")
	askCmd.Flags().StringSliceVarP(&askDocs, "doc", "d", nil, "restrict to these document ids")
	askCmd.Flags().BoolVar(&askStream, "stream", false, "stream the answer")
	auditCmd.Flags().StringVarP(&auditMode, "mode", "m", "hybrid", "rules_only, model_only or hybrid")

	rootCmd.AddCommand(extractCmd, askCmd, auditCmd)
}

func runExtract(cmd *cobra.Command, args []string) error {
	res, err := newClient().Extract(cmd.Context(), api.ExtractRequest{DocumentId: args[0], Force: extractForce})
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runAsk(cmd *cobra.Command, args []string) error {
	req := api.AskRequest{Question: strings.Join(args, " "), DocumentIds: askDocs}
	if !askStream {
		res, err := newClient().Ask(cmd.Context(), req)
		if err != nil {
			return err
		}
		return printJSON(cmd, res)
	}
	return newClient().AskStream(cmd.Context(), req, func(ev client.Event) error {
		return printEvent(cmd, ev)
	})
}

func printEvent(cmd *cobra.Command, ev client.Event) error {
	switch ev.Name {
	case "token":
		var tok struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(ev.Data, &tok); err != nil {
			return err
		}
		fmt.Fprint(cmd.OutOrStdout(), tok.Text)
	case "citations":
		var citations []json.RawMessage
		if err := json.Unmarshal(ev.Data, &citations); err == nil {
			cmd.PrintErrf("%d citations\n", len(citations))
		}
	case "error":
		var body api.ErrorBody
		if err := json.Unmarshal(ev.Data, &body); err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout())
		return errors.New(body.Kind + ": " + body.Message)
	case "end":
		var end struct {
			Grounded bool `json:"grounded"`
		}
		_ = json.Unmarshal(ev.Data, &end)
		fmt.Fprintln(cmd.OutOrStdout())
		if !end.Grounded {
			cmd.PrintErrln("answer is not grounded in the retrieved excerpts")
		}
	}
	return nil
}

func runAudit(cmd *cobra.Command, args []string) error {
	res, err := newClient().Audit(cmd.Context(), api.AuditRequest{DocumentId: args[0], Mode: auditMode})
	if err != nil {
		return err
	}
	if res.Partial {
		for _, w := range res.Warnings {
			cmd.PrintErrf("warning: %s\n", w)
		}
	}
	return printJSON(cmd, res)
}
