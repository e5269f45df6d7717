package main

import (
	"github.com/spf13/cobra"

	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/idgen"
	"github.com/jimyag/vdisnap/pkg/imagestore"
)

var uploadCmd = &cobra.Command{
	Use:   "upload <image-name> <vdi-uuid>...",
	Short: "Flatten disks and upload them to the image store",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if err := imagestore.ValidateImageName(args[0]); err != nil {
			return err
		}
		requestID, err := idgen.GenerateRequestID()
		if err != nil {
			return err
		}

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Libvirt.Close()

		uploader := vmutil.NewUploader(b.Session, cfg.ImageStore.Host, cfg.ImageStore.Port)
		if err := uploader.UploadImage(ctx, requestID, args[1:], args[0]); err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), output, map[string]any{
			"request_id": requestID,
			"image_name": args[0],
			"vdi_uuids":  args[1:],
		})
	},
}
