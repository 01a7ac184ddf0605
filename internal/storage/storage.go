package storage

import (
	"errors"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"
	"time"

	"roulette-server/common/helper"
	"roulette-server/common/logger"
	"roulette-server/internal/config"

	"go.uber.org/zap"
)

// 上传错误定义
var (
	ErrFileTooLarge  = errors.New("file exceeds max upload size")
	ErrExtNotAllowed = errors.New("file extension not allowed")
)

// 上传类别，决定落盘子目录
const (
	CategoryReceipt = "receipts"
	CategoryCover   = "covers"
)

// SaveUpload 校验并保存上传文件，返回相对存储路径（如 receipts/2026/09/ab12cd34ef56.jpg）
// 文件名用随机令牌替换，避免用户可控文件名带来的路径问题
func SaveUpload(fh *multipart.FileHeader, category string) (string, error) {
	cfg := config.Get()
	maxBytes := int64(10) << 20
	dir := "./uploads"
	allowed := []string{".jpg", ".jpeg", ".png", ".pdf"}
	if cfg != nil {
		if cfg.Upload.MaxSizeMB > 0 {
			maxBytes = int64(cfg.Upload.MaxSizeMB) << 20
		}
		if cfg.Upload.Dir != "" {
			dir = cfg.Upload.Dir
		}
		if len(cfg.Upload.AllowedExts) > 0 {
			allowed = cfg.Upload.AllowedExts
		}
	}

	if fh.Size > maxBytes {
		return "", ErrFileTooLarge
	}
	ext := strings.ToLower(filepath.Ext(fh.Filename))
	if !extAllowed(ext, allowed) {
		return "", ErrExtNotAllowed
	}

	// 按年月分目录，避免单目录文件过多
	now := time.Now()
	relDir := filepath.Join(category, now.Format("2006"), now.Format("01"))
	absDir := filepath.Join(dir, relDir)
	if err := os.MkdirAll(absDir, 0o755); err != nil {
		return "", err
	}

	name := helper.RandToken(12) + ext
	relPath := filepath.Join(relDir, name)
	absPath := filepath.Join(dir, relPath)

	src, err := fh.Open()
	if err != nil {
		return "", err
	}
	defer src.Close()

	dst, err := os.OpenFile(absPath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", err
	}
	defer dst.Close()

	// LimitReader 双保险：Size 来自客户端声明，复制时再按上限截断校验
	n, err := io.Copy(dst, io.LimitReader(src, maxBytes+1))
	if err != nil {
		os.Remove(absPath)
		return "", err
	}
	if n > maxBytes {
		os.Remove(absPath)
		return "", ErrFileTooLarge
	}

	logger.Debug("upload saved",
		zap.String("category", category),
		zap.String("path", relPath),
		zap.Int64("bytes", n))
	return filepath.ToSlash(relPath), nil
}

// Resolve 将相对存储路径转换为磁盘绝对路径，并拒绝目录逃逸
func Resolve(relPath string) (string, bool) {
	dir := "./uploads"
	if cfg := config.Get(); cfg != nil && cfg.Upload.Dir != "" {
		dir = cfg.Upload.Dir
	}
	clean := filepath.Clean("/" + relPath) // 先锚定根再清理，去掉 .. 前缀
	full := filepath.Join(dir, clean)
	if !strings.HasPrefix(full, filepath.Clean(dir)+string(os.PathSeparator)) {
		return "", false
	}
	return full, true
}

func extAllowed(ext string, allowed []string) bool {
	if ext == "" {
		return false
	}
	for _, a := range allowed {
		if strings.EqualFold(strings.TrimSpace(a), ext) {
			return true
		}
	}
	return false
}
