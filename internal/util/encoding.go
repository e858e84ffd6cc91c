package util

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/simplifiedchinese"
)

// fallbackEncodings 交换机回显中常见的非 UTF-8 编码，按尝试顺序排列
// banner / description 字段偶尔会带 Latin-1 或 GBK 字符
var fallbackEncodings = []encoding.Encoding{
	simplifiedchinese.GB18030,
	charmap.Windows1252,
	charmap.ISO8859_1,
}

// DecodeDeviceOutput 把设备回显转换为 UTF-8 文本
// 已是合法 UTF-8 时原样返回；全部解码失败时逐字节保留
func DecodeDeviceOutput(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	for _, enc := range fallbackEncodings {
		decoded, err := enc.NewDecoder().Bytes(b)
		if err == nil && utf8.Valid(decoded) {
			return string(decoded)
		}
	}
	return string(b)
}

// NormalizeNewlines 统一换行为 \n，并去掉终端回退产生的退格/响铃字符
func NormalizeNewlines(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")
	return strings.Map(func(r rune) rune {
		switch r {
		case '\b', '\a', 0:
			return -1
		}
		return r
	}, s)
}
