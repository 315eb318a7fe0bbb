package protocol

import (
	"encoding/binary"
	"math"
	"testing"
	"time"
)

// buildLocationFrame 按 datetime 偏移 4、坐标紧随其后、1800000 分制
// 构造一个可解码的定位帧
func buildLocationFrame(ts time.Time, lat, lon, speed float64) []byte {
	payload := []byte{
		byte(ts.Year() - 2000),
		byte(ts.Month()),
		byte(ts.Day()),
		byte(ts.Hour()),
		byte(ts.Minute()),
		byte(ts.Second()),
	}

	coords := make([]byte, 8)
	binary.BigEndian.PutUint32(coords[0:4], uint32(lat*1800000.0))
	binary.BigEndian.PutUint32(coords[4:8], uint32(lon*1800000.0))
	payload = append(payload, coords...)
	payload = append(payload, byte(speed))

	frame := []byte{0x78, 0x78, byte(len(payload) - 1), 0x12}
	return append(frame, payload...)
}

func TestDecodeFrameLocation(t *testing.T) {
	ts := time.Date(2024, 6, 15, 8, 30, 45, 0, time.UTC)
	frame := buildLocationFrame(ts, 9.0341, 38.7379, 42)

	rec, ok := DecodeFrame(frame)
	if !ok {
		t.Fatal("expected frame to decode")
	}
	if !rec.Timestamp.Equal(ts) {
		t.Errorf("timestamp = %v, want %v", rec.Timestamp, ts)
	}
	if math.Abs(rec.Latitude-9.0341) > 0.0001 {
		t.Errorf("latitude = %f, want 9.0341", rec.Latitude)
	}
	if math.Abs(rec.Longitude-38.7379) > 0.0001 {
		t.Errorf("longitude = %f, want 38.7379", rec.Longitude)
	}
	if rec.SpeedKmh != 42 {
		t.Errorf("speed = %f, want 42", rec.SpeedKmh)
	}
	if rec.Identifier != "" {
		t.Errorf("binary path must not produce an identifier, got %q", rec.Identifier)
	}
}

func TestDecodeFrameUnknownProtocol(t *testing.T) {
	ts := time.Date(2024, 6, 15, 8, 30, 45, 0, time.UTC)
	frame := buildLocationFrame(ts, 9.0341, 38.7379, 42)
	frame[3] = 0x99 // 心跳等非定位协议

	if _, ok := DecodeFrame(frame); ok {
		t.Error("non-location protocol byte must be rejected")
	}
}

func TestDecodeFrameGarbageNeverPanics(t *testing.T) {
	inputs := [][]byte{
		nil,
		{},
		{0x78},
		{0x78, 0x78},
		{0x78, 0x78, 0xff, 0x12},
		{0x78, 0x78, 0x02, 0x12, 0x01, 0x02, 0x03, 0x04},
		{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07},
	}
	for _, in := range inputs {
		if rec, ok := DecodeFrame(in); ok && rec == nil {
			t.Errorf("inconsistent result for %x", in)
		}
	}
}

func TestDecodeFrameClampsDatetime(t *testing.T) {
	ts := time.Date(2024, 6, 15, 8, 30, 45, 0, time.UTC)
	frame := buildLocationFrame(ts, 9.0341, 38.7379, 10)
	frame[5] = 99 // 月字节越界
	frame[7] = 77 // 时字节越界

	rec, ok := DecodeFrame(frame)
	if !ok {
		t.Fatal("expected frame to decode despite odd datetime bytes")
	}
	if rec.Timestamp.Month() != time.January {
		t.Errorf("out-of-range month should fall back to January, got %v", rec.Timestamp.Month())
	}
	if rec.Timestamp.Hour() != 23 {
		t.Errorf("out-of-range hour should clamp to 23, got %d", rec.Timestamp.Hour())
	}
}

func TestDecodeLine(t *testing.T) {
	tests := []struct {
		name string
		line string
		ok   bool
	}{
		{"imei identifier", "862123456789012,2024-06-15T08:30:45Z,9.0341,38.7379,42.5", true},
		{"numeric id", "7,2024-06-15 08:30:45,9.0341,38.7379,0", true},
		{"fractional seconds", "7,2024-06-15T08:30:45.123456,9.03,38.73,12", true},
		{"too few fields", "7,2024-06-15T08:30:45Z,9.0341", false},
		{"bad latitude", "7,2024-06-15T08:30:45Z,abc,38.7379,42", false},
		{"bad speed", "7,2024-06-15T08:30:45Z,9.0341,38.7379,fast", false},
		{"bad timestamp", "7,yesterday,9.0341,38.7379,42", false},
		{"empty identifier", ",2024-06-15T08:30:45Z,9.0341,38.7379,42", false},
		{"blank line", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, ok := DecodeLine(tt.line)
			if ok != tt.ok {
				t.Fatalf("DecodeLine(%q) ok = %v, want %v", tt.line, ok, tt.ok)
			}
			if ok && rec.Timestamp.Location() != time.UTC {
				t.Error("timestamps must be normalized to UTC")
			}
		})
	}
}

func TestDecodeChunk(t *testing.T) {
	chunk := []byte("7,2024-06-15T08:30:45Z,9.0341,38.7379,42\nnot a record\n8,2024-06-15T08:30:47Z,9.0350,38.7390,45\n")

	records := DecodeChunk(chunk)
	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].Identifier != "7" || records[1].Identifier != "8" {
		t.Errorf("identifiers = %q, %q", records[0].Identifier, records[1].Identifier)
	}
}

func TestDecodeChunkRejectsBinary(t *testing.T) {
	if records := DecodeChunk([]byte{0xff, 0xfe, 0x78, 0x78}); records != nil {
		t.Errorf("non-UTF-8 chunk must yield no text records, got %d", len(records))
	}
}
