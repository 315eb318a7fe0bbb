package protocol

// 二进制帧头标记（两种设备固件各用一种）
const (
	headerA = 0x78
	headerB = 0x79
)

// 帧头 2 字节 + 长度 1 字节 + 协议 1 字节 + 至少 1 字节负载
const minFrameLen = 5

// Reassembler 每个连接持有一个，把任意切分的字节流还原成完整二进制帧。
// 缓冲区只被所属连接的 goroutine 访问，不需要加锁。
type Reassembler struct {
	buf []byte
}

// NewReassembler 创建帧重组器
func NewReassembler() *Reassembler {
	return &Reassembler{}
}

// Feed 追加一段原始字节并提取其中所有可完整切出的帧。
// 无法识别的前导字节逐字节丢弃（重新同步，每轮只丢一个字节，
// 保证缓冲区中段出现的合法帧头最终会被对齐到）；长度字段声明的
// 字节数尚未到齐时保留缓冲区原样等待后续数据。
func (r *Reassembler) Feed(chunk []byte) [][]byte {
	r.buf = append(r.buf, chunk...)

	var frames [][]byte
	for len(r.buf) >= minFrameLen {
		if !validHeader(r.buf[0], r.buf[1]) {
			r.buf = r.buf[1:]
			continue
		}

		// 帧总长 = 长度字节 + 5
		total := int(r.buf[2]) + minFrameLen
		if len(r.buf) < total {
			break
		}

		frame := make([]byte, total)
		copy(frame, r.buf[:total])
		frames = append(frames, frame)
		r.buf = r.buf[total:]
	}

	return frames
}

// Pending 当前缓冲区中未消费的字节数
func (r *Reassembler) Pending() int {
	return len(r.buf)
}

func validHeader(b0, b1 byte) bool {
	return (b0 == headerA && b1 == headerA) || (b0 == headerB && b1 == headerB)
}
