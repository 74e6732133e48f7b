package main

import (
	"fmt"
	"net"
	"time"

	"github.com/spf13/cobra"

	"github.com/stagelight/lumacast/internal/dmx"
)

func sendCommand() *cobra.Command {
	var (
		to         string
		file       int
		folder     int
		playmode   int
		volume     int
		brightness int
		contrast   int
		saturation int
		gamma      int
		speed      int
		rotation   int
		zoom       int
		panX       int
		panY       int
		repeat     int
		interval   time.Duration
	)

	cmd := &cobra.Command{
		Use:   "send",
		Short: "Send a test frame to a daemon over UDP",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			values := []int{
				file, folder, playmode, volume,
				brightness, contrast, saturation, gamma,
				speed, rotation, zoom, panX, panY,
			}
			if _, err := dmx.Decode(values); err != nil {
				return err
			}

			frame := make([]byte, dmx.FrameChannels)
			for i, v := range values {
				frame[i] = byte(v)
			}

			conn, err := net.Dial("udp", to)
			if err != nil {
				return err
			}
			defer conn.Close()

			for i := 0; i <= repeat; i++ {
				if i > 0 {
					time.Sleep(interval)
				}
				if _, err := conn.Write(frame); err != nil {
					return err
				}
			}
			fmt.Printf("sent %d frame(s) to %s: %v\n", repeat+1, to, values)
			return nil
		},
	}

	cmd.Flags().StringVar(&to, "to", "127.0.0.1:6454", "daemon UDP address")
	cmd.Flags().IntVar(&file, "file", 0, "file select (0 stops)")
	cmd.Flags().IntVar(&folder, "folder", 0, "folder select")
	cmd.Flags().IntVar(&playmode, "playmode", 0, "playmode channel (0-84 play, 85-169 pause, 170-255 loop)")
	cmd.Flags().IntVar(&volume, "volume", 255, "volume channel")
	cmd.Flags().IntVar(&brightness, "brightness", 128, "brightness channel")
	cmd.Flags().IntVar(&contrast, "contrast", 128, "contrast channel")
	cmd.Flags().IntVar(&saturation, "saturation", 128, "saturation channel")
	cmd.Flags().IntVar(&gamma, "gamma", 128, "gamma channel")
	cmd.Flags().IntVar(&speed, "speed", 128, "speed channel")
	cmd.Flags().IntVar(&rotation, "rotation", 0, "rotation channel")
	cmd.Flags().IntVar(&zoom, "zoom", 128, "zoom channel")
	cmd.Flags().IntVar(&panX, "pan-x", 128, "pan x channel")
	cmd.Flags().IntVar(&panY, "pan-y", 128, "pan y channel")
	cmd.Flags().IntVar(&repeat, "repeat", 0, "extra frames to send")
	cmd.Flags().DurationVar(&interval, "interval", 50*time.Millisecond, "interval between repeated frames")

	return cmd
}
