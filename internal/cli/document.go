package cli

import (
	"github.com/spf13/cobra"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file.pdf...]",
	Short: "Upload one or more contract PDFs",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runIngest,
}

var statusCmd = &cobra.Command{
	Use:   "status [document-id]",
	Short: "Show a document's processing status",
	Args:  cobra.ExactArgs(1),
	RunE:  runStatus,
}

var reprocessCmd = &cobra.Command{
	Use:   "reprocess [document-id]",
	Short: "Queue a failed document for another attempt",
	Args:  cobra.ExactArgs(1),
	RunE:  runReprocess,
}

var findingsCmd = &cobra.Command{
	Use:   "findings [document-id]",
	Short: "List findings stored by the last audit",
	Args:  cobra.ExactArgs(1),
	RunE:  runFindings,
}

var jobCmd = &cobra.Command{
	Use:   "job [job-id]",
	Short: "Show a processing job",
	Args:  cobra.ExactArgs(1),
	RunE:  runJob,
}

var jobsCmd = &cobra.Command{
	Use:   "jobs [document-id]",
	Short: "List the processing jobs of a document",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentJobs,
}

func init() {
	rootCmd.AddCommand(ingestCmd, statusCmd, reprocessCmd, findingsCmd, jobCmd, jobsCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	res, err := newClient().Ingest(cmd.Context(), args...)
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runStatus(cmd *cobra.Command, args []string) error {
	res, err := newClient().Document(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runReprocess(cmd *cobra.Command, args []string) error {
	res, err := newClient().Reprocess(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runFindings(cmd *cobra.Command, args []string) error {
	res, err := newClient().Findings(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runJob(cmd *cobra.Command, args []string) error {
	res, err := newClient().Job(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}

func runDocumentJobs(cmd *cobra.Command, args []string) error {
	res, err := newClient().DocumentJobs(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	return printJSON(cmd, res)
}
