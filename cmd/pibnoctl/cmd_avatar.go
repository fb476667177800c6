package main

import (
	"Pibno/internal/api/dto"
	"Pibno/internal/editor"
	"Pibno/internal/service"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
)

var (
	avatarZoom     float64
	avatarDX       float64
	avatarDY       float64
	avatarPreview  string
	avatarDryRun   bool
	avatarViewport float64
)

var avatarCmd = &cobra.Command{
	Use:   "avatar <image>",
	Short: "Crop an image and upload it as your avatar",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return err
		}
		name := filepath.Base(args[0])

		crop := dto.AvatarCropDTO{
			Zoom:     avatarZoom,
			OffsetX:  avatarDX,
			OffsetY:  avatarDY,
			Viewport: avatarViewport,
		}
		out, err := service.CropAvatar(data, name, avatarViewport, &crop)
		if err != nil {
			return err
		}
		if avatarPreview != "" {
			if err = os.WriteFile(avatarPreview, out.Data, 0o644); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Preview written to %s\n", avatarPreview)
		}
		if avatarDryRun {
			return nil
		}

		c, err := authedClient()
		if err != nil {
			return err
		}
		url, err := c.UploadAvatar(cmd.Context(), name, data, crop)
		if err != nil {
			return err
		}
		fmt.Fprintln(cmd.OutOrStdout(), url)
		return nil
	},
}

func init() {
	avatarCmd.Flags().Float64Var(&avatarZoom, "zoom", editor.DefaultZoom, "zoom percent (50-200)")
	avatarCmd.Flags().Float64Var(&avatarDX, "dx", 0, "horizontal pan in viewport pixels")
	avatarCmd.Flags().Float64Var(&avatarDY, "dy", 0, "vertical pan in viewport pixels")
	avatarCmd.Flags().Float64Var(&avatarViewport, "viewport", editor.DefaultViewport, "editor viewport size")
	avatarCmd.Flags().StringVar(&avatarPreview, "preview", "", "write the cropped JPEG here before uploading")
	avatarCmd.Flags().BoolVar(&avatarDryRun, "dry-run", false, "only render the preview")
}
