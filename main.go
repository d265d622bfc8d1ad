package main

import (
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/ZacxDev/video-overlay/pkg/videooverlay"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:   "video-overlay",
		Short: "A video branding tool that composites logos onto video frames",
		Long: `video-overlay is a command-line tool for watermarking videos with logo images.
It overlays a left and a right logo at the top corners of every frame, sized
relative to the frame dimensions.

Examples:
  # Overlay two logos onto a video
  video-overlay overlay -b input.mp4 --left-logo brand.png --right-logo partner.png -o branded.mp4

  # Produce one branded video per logo file in a directory
  video-overlay batch -b input.mp4 --left-logo brand.png --logo-dir ./partners -o ./output`,
	}

	overlayCmd = &cobra.Command{
		Use:   "overlay",
		Short: "Overlay two logos onto a video",
		Long: fmt.Sprintf(`Composite a left and a right logo onto every frame of a video.

Each logo keeps its aspect ratio and is sized to fit the frame dimensions
divided by the scale factor.

Supported output formats:
%s
Example:
  video-overlay overlay -b input.mp4 --left-logo a.png --right-logo b.png -o branded.mp4 -s 4`,
			formatSupportedFormats()),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &videooverlay.OverlayOptions{}

			// Get flags
			background, _ := cmd.Flags().GetString("background")
			leftLogo, _ := cmd.Flags().GetString("left-logo")
			rightLogo, _ := cmd.Flags().GetString("right-logo")
			outputPath, _ := cmd.Flags().GetString("output")
			scaleFactor, _ := cmd.Flags().GetInt("scale-factor")
			margin, _ := cmd.Flags().GetInt("margin")
			outputFormat, _ := cmd.Flags().GetString("format")
			verbose, _ := cmd.Flags().GetBool("verbose")

			// Set options
			opts.BackgroundPath = background
			opts.LeftLogoPath = leftLogo
			opts.RightLogoPath = rightLogo
			opts.OutputPath = outputPath
			opts.ScaleFactor = scaleFactor
			opts.Margin = margin
			opts.OutputFormat = outputFormat
			opts.Verbose = verbose

			if opts.BackgroundPath == "" || opts.OutputPath == "" {
				return fmt.Errorf("background video and output path are required")
			}

			result, err := videooverlay.Overlay(opts)
			if err != nil {
				return err
			}

			fmt.Printf("Created %s (%d frames)\n", result.OutputPath, result.FramesWritten)
			return nil
		},
	}

	batchCmd = &cobra.Command{
		Use:   "batch",
		Short: "Overlay every logo in a directory onto a video",
		Long: `Produce one branded video per logo file in a directory. Each logo is
composited as the right logo against the same background video and left
logo; outputs are named after the logo files.

Example:
  video-overlay batch -b input.mp4 --left-logo brand.png --logo-dir ./partners -o ./output`,
		RunE: func(cmd *cobra.Command, args []string) error {
			opts := &videooverlay.BatchOverlayOptions{}

			background, _ := cmd.Flags().GetString("background")
			leftLogo, _ := cmd.Flags().GetString("left-logo")
			logoDir, _ := cmd.Flags().GetString("logo-dir")
			outputDir, _ := cmd.Flags().GetString("output")
			scaleFactor, _ := cmd.Flags().GetInt("scale-factor")
			margin, _ := cmd.Flags().GetInt("margin")
			outputFormat, _ := cmd.Flags().GetString("format")
			verbose, _ := cmd.Flags().GetBool("verbose")

			opts.BackgroundPath = background
			opts.LeftLogoPath = leftLogo
			opts.LogoDir = logoDir
			opts.OutputDir = outputDir
			opts.ScaleFactor = scaleFactor
			opts.Margin = margin
			opts.OutputFormat = outputFormat
			opts.Verbose = verbose

			if opts.BackgroundPath == "" || opts.OutputDir == "" {
				return fmt.Errorf("background video and output directory are required")
			}

			results, err := videooverlay.OverlayBatch(opts)
			if err != nil {
				return err
			}

			for i, v := range results {
				fmt.Printf("Created %d/%d: %s (%d frames)\n", i+1, len(results), v.OutputPath, v.FramesWritten)
			}
			return nil
		},
	}
)

func formatSupportedFormats() string {
	formats := videooverlay.GetSupportedFormats()
	var sb strings.Builder
	for _, format := range formats {
		sb.WriteString(fmt.Sprintf("- %s\n", format))
	}
	return sb.String()
}

func init() {
	// Overlay command flags
	overlayCmd.Flags().StringP("background", "b", "", "Background video file")
	overlayCmd.Flags().String("left-logo", "", "Left logo image file")
	overlayCmd.Flags().String("right-logo", "", "Right logo image file")
	overlayCmd.Flags().StringP("output", "o", "", "Output video path")
	overlayCmd.Flags().IntP("scale-factor", "s", videooverlay.DefaultScaleFactor,
		"Divisor applied to the frame dimensions to size each logo")
	overlayCmd.Flags().Int("margin", videooverlay.DefaultMargin, "Pixel inset between logos and the frame edges")
	overlayCmd.Flags().StringP("format", "f", videooverlay.DefaultOutputFormat,
		fmt.Sprintf("Output format (%s)", strings.Join(videooverlay.GetSupportedFormats(), ", ")))
	overlayCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")

	overlayCmd.MarkFlagRequired("background")
	overlayCmd.MarkFlagRequired("left-logo")
	overlayCmd.MarkFlagRequired("right-logo")
	overlayCmd.MarkFlagRequired("output")

	// Batch command flags
	batchCmd.Flags().StringP("background", "b", "", "Background video file")
	batchCmd.Flags().String("left-logo", "", "Left logo image file")
	batchCmd.Flags().String("logo-dir", "", "Directory of right logo images, one output per file")
	batchCmd.Flags().StringP("output", "o", "", "Output directory")
	batchCmd.Flags().IntP("scale-factor", "s", videooverlay.DefaultScaleFactor,
		"Divisor applied to the frame dimensions to size each logo")
	batchCmd.Flags().Int("margin", videooverlay.DefaultMargin, "Pixel inset between logos and the frame edges")
	batchCmd.Flags().StringP("format", "f", videooverlay.DefaultOutputFormat,
		fmt.Sprintf("Output format (%s)", strings.Join(videooverlay.GetSupportedFormats(), ", ")))
	batchCmd.Flags().BoolP("verbose", "v", false, "Enable verbose logging")

	batchCmd.MarkFlagRequired("background")
	batchCmd.MarkFlagRequired("left-logo")
	batchCmd.MarkFlagRequired("logo-dir")
	batchCmd.MarkFlagRequired("output")

	rootCmd.AddCommand(overlayCmd)
	rootCmd.AddCommand(batchCmd)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lshortfile)
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
