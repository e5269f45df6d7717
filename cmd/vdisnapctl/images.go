package main

import (
	"github.com/spf13/cobra"

	"github.com/jimyag/vdisnap/internal/vdisnap/entity"
	"github.com/jimyag/vdisnap/internal/vdisnap/service"
	"github.com/jimyag/vdisnap/pkg/imagestore"
)

var imagesCmd = &cobra.Command{
	Use:   "images",
	Short: "Inspect uploaded images",
}

var imagesListCmd = &cobra.Command{
	Use:   "list [name]...",
	Short: "List images in the image store",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		store, err := imagestore.New(ctx, cfg.ImageStore.StoreConfig())
		if err != nil {
			return err
		}
		images, err := service.NewImageService(store).DescribeImages(ctx, &entity.DescribeImagesRequest{Names: args})
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), output, images)
	},
}

func init() {
	imagesCmd.AddCommand(imagesListCmd)
}
