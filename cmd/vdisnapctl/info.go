package main

import (
	"github.com/spf13/cobra"

	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
)

var infoCmd = &cobra.Command{
	Use:   "info <vm>",
	Short: "Show power state, memory and vCPU count of a VM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		b, err := openBackend(ctx)
		if err != nil {
			return err
		}
		defer b.Libvirt.Close()

		vm, err := findVM(ctx, b.Session, args[0])
		if err != nil {
			return err
		}
		rec, err := b.Session.GetVMRecord(ctx, vm)
		if err != nil {
			return err
		}
		return printResult(cmd.OutOrStdout(), output, vmutil.CompileInfo(rec))
	},
}
