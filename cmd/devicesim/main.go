package main

import (
	"fmt"
	"net"
	"os"
	"time"

	"github.com/spf13/cobra"
)

var (
	addr     string
	imei     string
	interval time.Duration
)

// 亚的斯亚贝巴附近的测试轨迹点 (lat, lon, speed)
var testPoints = [][3]float64{
	{9.0331, 38.7500, 0.0},  // 停车
	{9.0341, 38.7510, 25.5}, // 移动
	{9.0351, 38.7520, 45.0}, // 快速路
	{9.0361, 38.7530, 65.0}, // 超速
	{9.0371, 38.7540, 35.0}, // 正常
	{9.0381, 38.7550, 0.0},  // 停止
}

func main() {
	rootCmd := &cobra.Command{
		Use:   "devicesim",
		Short: "Replay GPS tracker traffic against the TCP listener",
	}

	rootCmd.PersistentFlags().StringVar(&addr, "addr", "127.0.0.1:9000", "listener address")
	rootCmd.PersistentFlags().StringVar(&imei, "imei", "862123456789012", "device IMEI or vehicle id")
	rootCmd.PersistentFlags().DurationVar(&interval, "interval", 2*time.Second, "delay between points")

	rootCmd.AddCommand(csvCmd())
	rootCmd.AddCommand(binaryCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// csvCmd 按 CSV 文本格式回放测试轨迹
func csvCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "csv",
		Short: "Send the test track as CSV lines",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return fmt.Errorf("connect %s: %w", addr, err)
			}
			defer conn.Close()

			for _, p := range testPoints {
				ts := time.Now().UTC().Format("2006-01-02T15:04:05") + "Z"
				line := fmt.Sprintf("%s,%s,%.4f,%.4f,%.1f\n", imei, ts, p[0], p[1], p[2])

				fmt.Printf("Sending: %s", line)
				if _, err := conn.Write([]byte(line)); err != nil {
					return fmt.Errorf("send line: %w", err)
				}
				time.Sleep(interval)
			}

			fmt.Println("CSV test data sent")
			return nil
		},
	}
}

// binaryCmd 发送一帧 GT06 风格的二进制定位包
func binaryCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "binary",
		Short: "Send one GT06-style binary frame",
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := net.Dial("tcp", addr)
			if err != nil {
				return fmt.Errorf("connect %s: %w", addr, err)
			}
			defer conn.Close()

			frame := buildFrame(9.0341, 38.7510, 40)
			fmt.Printf("Sending %d-byte binary frame\n", len(frame))
			if _, err := conn.Write(frame); err != nil {
				return fmt.Errorf("send frame: %w", err)
			}

			fmt.Println("Binary test data sent")
			return nil
		},
	}
}

// buildFrame 构造一帧可通过启发式解码的定位包：
// 0x78 0x78 头 + 长度 + 协议 0x12 + 原始字节日期时间 + 大端坐标 + 速度
func buildFrame(lat, lon float64, speed byte) []byte {
	now := time.Now().UTC()

	payload := []byte{
		byte(now.Year() - 2000), byte(now.Month()), byte(now.Day()),
		byte(now.Hour()), byte(now.Minute()), byte(now.Second()),
	}

	rawLat := uint32(lat * 1800000.0)
	rawLon := uint32(lon * 1800000.0)
	payload = append(payload,
		byte(rawLat>>24), byte(rawLat>>16), byte(rawLat>>8), byte(rawLat),
		byte(rawLon>>24), byte(rawLon>>16), byte(rawLon>>8), byte(rawLon),
		speed,
	)

	// 帧总长 = 长度字节 + 5
	frame := []byte{0x78, 0x78, byte(len(payload) - 1), 0x12}
	frame = append(frame, payload...)
	return frame
}
