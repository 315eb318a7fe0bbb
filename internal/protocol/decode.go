package protocol

import (
	"encoding/binary"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"
)

// Record 解码得到的一条定位记录
type Record struct {
	Identifier string // 数字车辆 ID 或 IMEI；二进制路径解不出身份，为空
	Timestamp  time.Time
	Latitude   float64
	Longitude  float64
	SpeedKmh   float64
}

// 识别的定位协议类型字节
var locationProtocols = map[byte]bool{
	0x10: true,
	0x12: true,
	0x22: true,
}

// 启发式搜索空间。设备厂商没有公开字段表，这些候选布局是
// 对照实际抓包试出来的，换一批固件未必成立。
var (
	datetimeOffsets = []int{4, 5, 6}
	coordDeltas     = []int{0, 1}
	coordDivisors   = []float64{1800000.0, 1000000.0} // 定点分制 / 百万分度制
)

// DecodeFrame 对一个完整二进制帧做尽力解码。
// 按候选布局逐个尝试，取第一个坐标落在合法范围内的组合；
// 全部穷尽仍无合法组合则返回 false，绝不 panic。
func DecodeFrame(frame []byte) (*Record, bool) {
	if len(frame) < minFrameLen || !validHeader(frame[0], frame[1]) {
		return nil, false
	}
	if !locationProtocols[frame[3]] {
		return nil, false
	}

	for _, off := range datetimeOffsets {
		ts, ok := parseRawDatetime(frame, off)
		if !ok {
			continue
		}

		for _, delta := range coordDeltas {
			p := off + 6 + delta
			if p+9 > len(frame) {
				continue
			}

			rawLat := binary.BigEndian.Uint32(frame[p : p+4])
			rawLon := binary.BigEndian.Uint32(frame[p+4 : p+8])
			speed := float64(frame[p+8])

			for _, div := range coordDivisors {
				lat := float64(rawLat) / div
				lon := float64(rawLon) / div
				if lat >= -90 && lat <= 90 && lon >= -180 && lon <= 180 {
					return &Record{
						Timestamp: ts,
						Latitude:  lat,
						Longitude: lon,
						SpeedKmh:  speed,
					}, true
				}
			}
		}
	}

	return nil, false
}

// parseRawDatetime 按原始字节值（非 BCD）解析 6 字节日期时间。
// 越界的月/日回退为 1，时分秒收敛到合法上限。
func parseRawDatetime(frame []byte, off int) (time.Time, bool) {
	if off+6 > len(frame) {
		return time.Time{}, false
	}

	year := 2000 + int(frame[off])
	month := int(frame[off+1])
	if month < 1 || month > 12 {
		month = 1
	}
	day := int(frame[off+2])
	if day < 1 || day > 31 {
		day = 1
	}
	hour := min(int(frame[off+3]), 23)
	minute := min(int(frame[off+4]), 59)
	sec := min(int(frame[off+5]), 59)

	return time.Date(year, time.Month(month), day, hour, minute, sec, 0, time.UTC), true
}

// DecodeChunk 文本路径：对一段原始数据尝试 UTF-8 解码并提取 CSV 行。
// 与二进制扫描相互独立，对同一段数据双路并行是有意为之（兼容混发
// 两种格式的固件）；该路径不保留跨块状态，残破文本直接忽略。
func DecodeChunk(chunk []byte) []*Record {
	if !utf8.Valid(chunk) {
		return nil
	}

	var records []*Record
	for _, line := range strings.Split(string(chunk), "\n") {
		if rec, ok := DecodeLine(line); ok {
			records = append(records, rec)
		}
	}
	return records
}

// DecodeLine 解析一行 CSV 定位记录：identifier,timestamp,lat,lon,speed
// 任何一个数值字段解析失败则整行丢弃。
func DecodeLine(line string) (*Record, bool) {
	fields := strings.Split(strings.TrimSpace(line), ",")
	if len(fields) < 5 {
		return nil, false
	}

	identifier := strings.TrimSpace(fields[0])
	if identifier == "" {
		return nil, false
	}

	ts, ok := parseTimestamp(strings.TrimSpace(fields[1]))
	if !ok {
		return nil, false
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(fields[2]), 64)
	if err != nil {
		return nil, false
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(fields[3]), 64)
	if err != nil {
		return nil, false
	}
	speed, err := strconv.ParseFloat(strings.TrimSpace(fields[4]), 64)
	if err != nil {
		return nil, false
	}

	return &Record{
		Identifier: identifier,
		Timestamp:  ts,
		Latitude:   lat,
		Longitude:  lon,
		SpeedKmh:   speed,
	}, true
}

// parseTimestamp 尝试多种时间格式，统一按 UTC 解释
func parseTimestamp(s string) (time.Time, bool) {
	formats := []string{
		time.RFC3339Nano,
		time.RFC3339,
		"2006-01-02T15:04:05.999999",
		"2006-01-02T15:04:05",
		"2006-01-02 15:04:05",
	}

	for _, format := range formats {
		if t, err := time.ParseInLocation(format, s, time.UTC); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}
