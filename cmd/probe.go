package cmd

import (
	"context"
	"fmt"
	"io"
	"strconv"

	cobra "github.com/spf13/cobra"

	config "github.com/berth-automation/berth/config"
	capture "github.com/berth-automation/berth/internal/capture"
	clipboard "github.com/berth-automation/berth/internal/clipboard"
	container "github.com/berth-automation/berth/internal/container"
	ocr "github.com/berth-automation/berth/internal/ocr"
	reader "github.com/berth-automation/berth/internal/reader"
)

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Read one region once and save every image stage",
	Long: `Capture the screen (or --image), crop one configured region, run it
through preprocessing and OCR, and print the recognized text and pair.

The full capture, the raw crop and the preprocessed crop are written to
--out as full.png, roi_raw.png and roi_proc.png so region coordinates and
OCR settings can be tuned.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := probeOptionsFromFlags(cmd)
		return runProbe(cmd.Context(), cmd.OutOrStdout(), currentConfig(), opts)
	},
}

type probeOptions struct {
	Region    string
	Image     string
	Backend   string
	Out       string
	Digits    bool
	Digit     bool
	Copy      bool
	CopyImage bool
}

func probeOptionsFromFlags(cmd *cobra.Command) probeOptions {
	var opts probeOptions
	opts.Region, _ = cmd.Flags().GetString("region")
	opts.Image, _ = cmd.Flags().GetString("image")
	opts.Backend, _ = cmd.Flags().GetString("backend")
	opts.Out, _ = cmd.Flags().GetString("out")
	opts.Digits, _ = cmd.Flags().GetBool("digits")
	opts.Digit, _ = cmd.Flags().GetBool("digit")
	opts.Copy, _ = cmd.Flags().GetBool("copy")
	opts.CopyImage, _ = cmd.Flags().GetBool("copy-image")
	return opts
}

func runProbe(ctx context.Context, out io.Writer, cfg *config.Config, opts probeOptions) error {
	if ctx == nil {
		ctx = context.Background()
	}

	probeCfg := *cfg
	if opts.Image != "" {
		probeCfg.Display.Backend = "replay"
		probeCfg.Display.Image = opts.Image
		opts.Backend = "replay"
	}

	name := opts.Region
	if name == "" {
		name = probeCfg.Phases.Departure.Region
	}
	region, err := probeCfg.Region(name)
	if err != nil {
		return fmt.Errorf("%w (configured: %v)", err, probeCfg.RegionNames())
	}

	services, err := container.NewServiceContainer(&probeCfg, container.Options{Backend: opts.Backend, Cycles: -1})
	if err != nil {
		return err
	}
	defer services.Close()

	in, err := services.GetReader().Inspect(ctx, region)
	if err != nil {
		return fmt.Errorf("failed to capture screen: %w", err)
	}

	printInspection(out, region.String(), in, opts, container.ReaderOptions(probeCfg.OCR))

	written, err := capture.WriteProbe(opts.Out, in.Full, in.Raw, in.Processed)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintf(out, "wrote    %s\n", path)
	}

	return copyToClipboard(out, in, opts)
}

func copyToClipboard(out io.Writer, in *reader.Inspection, opts probeOptions) error {
	if opts.CopyImage {
		if err := clipboard.CopyImage(in.Processed); err != nil {
			return fmt.Errorf("failed to copy %s: %w", capture.ProbeProc, err)
		}
		fmt.Fprintf(out, "copied   %s to clipboard\n", capture.ProbeProc)
		return nil
	}
	if opts.Copy {
		if err := clipboard.CopyText(in.Reading.Text); err != nil {
			return fmt.Errorf("failed to copy text: %w", err)
		}
		fmt.Fprintln(out, "copied   text to clipboard")
	}
	return nil
}

func printInspection(out io.Writer, region string, in *reader.Inspection, opts probeOptions, readerOpts reader.Options) {
	fmt.Fprintf(out, "region   %s\n", region)
	fmt.Fprintf(out, "text     %q\n", in.Reading.Text)

	if in.Reading.HasPair {
		pair := fmt.Sprintf("%d/%d", in.Reading.Pair.Left, in.Reading.Pair.Right)
		if in.Reading.Corrected {
			pair += " (6/9 corrected)"
		}
		fmt.Fprintf(out, "pair     %s\n", pair)
	} else {
		fmt.Fprintln(out, "pair     none")
	}

	if opts.Digits {
		fmt.Fprintf(out, "digits   %s\n", ocr.DigitsOnly(in.Reading.Text))
	}

	if opts.Digit {
		digits := ocr.DigitsOnly(in.Reading.Text)
		if len(digits) != 1 {
			fmt.Fprintf(out, "digit    not a single digit (%q)\n", digits)
			return
		}
		candidate, _ := strconv.Atoi(digits)
		resolved := ocr.ResolveDigit(in.Raw, candidate, readerOpts.Ink)
		fmt.Fprintf(out, "digit    %d -> %d\n", candidate, resolved)
	}
}

func init() {
	probeCmd.Flags().StringP("region", "r", "", "region to read (default is the departure phase region)")
	probeCmd.Flags().String("image", "", "read a PNG screenshot instead of the screen")
	probeCmd.Flags().String("backend", "", "display backend (x11, native, replay); detected when empty")
	probeCmd.Flags().StringP("out", "o", ".", "directory for full.png, roi_raw.png and roi_proc.png")
	probeCmd.Flags().Bool("digits", false, "also print the digits-only text")
	probeCmd.Flags().Bool("digit", false, "treat the region as a single digit and resolve 6/9 by ink")
	probeCmd.Flags().Bool("copy", false, "copy the recognized text to the clipboard")
	probeCmd.Flags().Bool("copy-image", false, "copy the preprocessed crop to the clipboard instead of the text")
	rootCmd.AddCommand(probeCmd)
}
