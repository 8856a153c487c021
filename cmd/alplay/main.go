// alplay is a small demo/diagnostic tool for the al package: it loads a
// raw PCM file, queues it on a positioned Source, and plays it through
// the default output device.
package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/sonora-audio/al/al"
)

func main() {
	var (
		rate     int
		channels string
		typ      string
		azimuth  float64
		distance float64
		loop     bool
	)

	root := &cobra.Command{
		Use:   "alplay [file]",
		Short: "Play a raw PCM file through the al positional audio mixer",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := os.ReadFile(args[0])
			if err != nil {
				return fmt.Errorf("reading %s: %w", args[0], err)
			}

			chanConfig, sampleType, err := parseFormat(channels, typ)
			if err != nil {
				return err
			}

			dev, err := al.OpenDevice(al.DeviceSpec{
				Rate:         48000,
				OutputConfig: al.ChanStereo,
			})
			if err != nil {
				return fmt.Errorf("opening device: %w", err)
			}
			defer dev.Close()

			ctx := dev.CreateContext()
			buf := ctx.NewBuffer()
			if err := buf.Data(al.Format{Channels: chanConfig, Type: sampleType}, data, rate); err != nil {
				return fmt.Errorf("uploading buffer: %w", err)
			}

			src := ctx.NewSource()
			if err := src.QueueBuffers([]*al.Buffer{buf}); err != nil {
				return fmt.Errorf("queueing buffer: %w", err)
			}
			src.SetLooping(loop)

			rad := azimuth * math.Pi / 180
			src.SetPosition(al.Vec3{
				X: float32(distance * math.Sin(rad)),
				Y: 0,
				Z: float32(-distance * math.Cos(rad)),
			})

			if err := dev.Start(); err != nil {
				return fmt.Errorf("starting device: %w", err)
			}
			if err := src.Play(); err != nil {
				return fmt.Errorf("starting playback: %w", err)
			}

			logger := log.NewWithOptions(os.Stderr, log.Options{Prefix: "alplay"})
			for src.State() == al.StatePlaying {
				time.Sleep(100 * time.Millisecond)
			}
			logger.Info("playback finished", "file", args[0])

			if errs := dev.FlushErrors(); len(errs) > 0 {
				for _, e := range errs {
					logger.Error("device error", "err", e)
				}
			}
			return nil
		},
	}

	root.Flags().IntVar(&rate, "rate", 44100, "sample rate of the input file in Hz")
	root.Flags().StringVar(&channels, "channels", "mono", "input channel layout: mono or stereo")
	root.Flags().StringVar(&typ, "type", "s16", "input sample type: s16, u8, or f32")
	root.Flags().Float64Var(&azimuth, "azimuth", 0, "placement azimuth in degrees, 0 = front, positive = right")
	root.Flags().Float64Var(&distance, "distance", 1, "placement distance in world units")
	root.Flags().BoolVar(&loop, "loop", false, "loop playback until interrupted")

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func parseFormat(channels, typ string) (al.ChannelConfig, al.SampleType, error) {
	var chanConfig al.ChannelConfig
	switch channels {
	case "mono":
		chanConfig = al.ChanMono
	case "stereo":
		chanConfig = al.ChanStereo
	default:
		return 0, 0, fmt.Errorf("unsupported channel layout %q", channels)
	}

	var sampleType al.SampleType
	switch typ {
	case "s16":
		sampleType = al.TypeS16
	case "u8":
		sampleType = al.TypeU8
	case "f32":
		sampleType = al.TypeF32
	default:
		return 0, 0, fmt.Errorf("unsupported sample type %q", typ)
	}
	return chanConfig, sampleType, nil
}
