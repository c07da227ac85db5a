package util

import (
	"Inkwell/internal/pkg/consts"
	"io"
	"net/http"
	"strings"
)

// SniffContentType 按文件头识别类型，读取后把位置重置到开头
func SniffContentType(r io.ReadSeeker) (string, error) {
	buf := make([]byte, 512)
	n, err := io.ReadFull(r, buf)
	if err != nil && err != io.ErrUnexpectedEOF && err != io.EOF {
		return "", err
	}
	if _, err = r.Seek(0, io.SeekStart); err != nil {
		return "", err
	}
	return http.DetectContentType(buf[:n]), nil
}

// IsImage 是否为图片 MIME
func IsImage(contentType string) bool {
	return strings.HasPrefix(strings.ToLower(contentType), consts.MimePrefixImage+"/")
}
