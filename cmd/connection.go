package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sgaunet/s3ingest/pkg/dto"
	"github.com/sgaunet/s3ingest/pkg/s3svc"
)

func init() {
	rootCmd.AddCommand(testConnectionCmd)
}

var testConnectionCmd = &cobra.Command{
	Use:   "test-connection",
	Short: "Check the object store credentials with a one-key listing",
	RunE: func(_ *cobra.Command, _ []string) error {
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

		msg, err := svc.TestConnection(ctx)
		if err != nil {
			_ = printJSON(dto.ConnectionResult{Success: false, Message: err.Error()})
			return fmt.Errorf("connection test failed: %w", err)
		}
		return printJSON(dto.ConnectionResult{Success: true, Message: msg})
	},
}
