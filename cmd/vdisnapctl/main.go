package main

import (
	"context"
	"fmt"
	"os"

	_ "github.com/jimmicro/version"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/jimyag/vdisnap/internal/vdisnap"
	"github.com/jimyag/vdisnap/internal/vdisnap/config"
	"github.com/jimyag/vdisnap/internal/vdisnap/vmutil"
	"github.com/jimyag/vdisnap/pkg/hypervisor"
)

var (
	cfgFile string
	output  string
	cfg     *config.Config
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err.Error())
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "vdisnapctl",
	Short:         "Snapshot libvirt VM disks and upload them as images",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.Load(cfgFile)
		if err != nil {
			return err
		}
		if !validOutput(output) {
			return fmt.Errorf("unsupported output format %q", output)
		}
		logger := vdisnap.NewLogger(cfg.LogLevel).Output(zerolog.ConsoleWriter{Out: os.Stderr})
		zerolog.DefaultContextLogger = &logger
		cmd.SetContext(logger.WithContext(cmd.Context()))
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", os.Getenv("VDISNAP_CONFIG"), "config file")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "json", "output format: json or yaml")

	rootCmd.AddCommand(snapshotCmd, uploadCmd, infoCmd, imagesCmd)
}

// openBackend 连接 libvirt 并返回会话，调用方负责关闭
func openBackend(ctx context.Context) (*vdisnap.Backend, error) {
	return vdisnap.NewBackend(ctx, cfg)
}

// findVM 按名称查找 VM，找不到时报错
func findVM(ctx context.Context, session hypervisor.Session, name string) (hypervisor.VMRef, error) {
	vm, err := vmutil.LookupVM(ctx, session, name)
	if err != nil {
		return "", err
	}
	if vm == "" {
		return "", fmt.Errorf("vm %s not found", name)
	}
	return vm, nil
}
