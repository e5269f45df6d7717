package main

import (
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/idgen"
	"github.com/jimyag/vdisnap/pkg/imagestore"
)

type snapshotOutput struct {
	RequestID     string   `json:"request_id" yaml:"request_id"`
	VM            string   `json:"vm" yaml:"vm"`
	SnapshotVMRef string   `json:"snapshot_vm_ref" yaml:"snapshot_vm_ref"`
	VDIUUIDs      []string `json:"vdi_uuids" yaml:"vdi_uuids"`
	ImageName     string   `json:"image_name,omitempty" yaml:"image_name,omitempty"`
}

var snapshotCmd = &cobra.Command{
	Use:   "snapshot <vm> <label>",
	Short: "Take a disk-only snapshot of a single-disk VM",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		imageName, _ := cmd.Flags().GetString("upload")
		if imageName != "" {
			if err := imagestore.ValidateImageName(imageName); err != nil {
				return err
			}
		}

		requestID, err := idgen.GenerateRequestID()
		if err != nil {
			return err
		}
		logger := zerolog.Ctx(ctx).With().Str("request_id", requestID).Logger()
		ctx = logger.WithContext(ctx)

		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Libvirt.Close()

		vm, err := findVM(ctx, b.Session, args[0])
		if err != nil {
			return err
		}
		watcher := vmutil.NewCoalesceWatcher(b.Session, cfg.Coalesce.Options()...)
		result, err := vmutil.NewSnapshotter(b.Session, watcher).CreateSnapshot(ctx, requestID, vm, args[1])
		if err != nil {
			return err
		}

		out := snapshotOutput{
			RequestID:     requestID,
			VM:            args[0],
			SnapshotVMRef: string(result.SnapshotVM),
			VDIUUIDs:      result.VDIUUIDs(),
		}
		if imageName != "" {
			uploader := vmutil.NewUploader(b.Session, cfg.ImageStore.Host, cfg.ImageStore.Port)
			if err := uploader.UploadImage(ctx, requestID, out.VDIUUIDs, imageName); err != nil {
				return err
			}
			out.ImageName = imageName
		}
		return printResult(cmd.OutOrStdout(), output, out)
	},
}

func init() {
	snapshotCmd.Flags().String("upload", "", "upload the snapshot disks as this image name")
}
