package cmd

import (
	"github.com/spf13/cobra"

	"github.com/sgaunet/s3ingest/pkg/classify"
	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/ingest"
	"github.com/sgaunet/s3ingest/pkg/s3svc"
)

func init() {
	rootCmd.AddCommand(inspectCmd)
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <key>",
	Short: "Fetch one object and show how it would be mapped, without storing it",
	Args:  cobra.ExactArgs(1),
	RunE: func(_ *cobra.Command, args []string) error {
		ctx, cancel, cfg, l, err := setup()
		if err != nil {
			return err
		}
		defer cancel()

		svc, err := s3svc.NewS3Svc(ctx, cfg.S3)
		if err != nil {
			return err
		}
		svc.SetLogger(l)

		key := args[0]
		payload, err := svc.GetObject(ctx, key)
		if err != nil {
			return err
		}
		kind := dto.KindDiagnostic
		if classify.IsBugReport(key) {
			kind = dto.KindBugReport
		}
		res, err := ingest.Inspect(key, kind, payload)
		if err != nil {
			return err
		}
		return printJSON(res)
	},
}
