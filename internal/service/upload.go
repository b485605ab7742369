package service

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// UploadConfig 上传配置
type UploadConfig struct {
	Dir      string `yaml:"dir" env:"UPLOAD_DIR" env-default:"uploads"`
	MaxSize  int64  `yaml:"max_size" env:"UPLOAD_MAX_SIZE" env-default:"5242880"`
	MaxFiles int    `yaml:"max_files" env:"UPLOAD_MAX_FILES" env-default:"10"`
}

// 允许上传的图片类型
var allowedImageTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

// UploadedFile 已上传文件信息
type UploadedFile struct {
	Filename     string    `json:"filename"`
	OriginalName string    `json:"originalname,omitempty"`
	Path         string    `json:"path"`
	Size         int64     `json:"size"`
	MimeType     string    `json:"mimetype,omitempty"`
	Created      time.Time `json:"created"`
}

// UploadService 文件上传服务
type UploadService struct {
	config  UploadConfig
	log     *zap.Logger
	metrics *Metrics
}

// NewUploadService 创建上传服务实例
func NewUploadService(config UploadConfig, log *zap.Logger, metrics *Metrics) (*UploadService, error) {
	if config.MaxSize <= 0 {
		config.MaxSize = 5 << 20
	}
	if config.MaxFiles <= 0 {
		config.MaxFiles = 10
	}
	if err := os.MkdirAll(config.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}
	return &UploadService{config: config, log: log, metrics: metrics}, nil
}

// Dir 上传目录
func (s *UploadService) Dir() string {
	return s.config.Dir
}

// MaxFiles 单次最多上传文件数
func (s *UploadService) MaxFiles() int {
	return s.config.MaxFiles
}

// UploadFile 上传单个图片
func (s *UploadService) UploadFile(file *multipart.FileHeader) (*UploadedFile, error) {
	uploaded, err := s.save(file)
	s.metrics.ObserveUpload(err == nil)
	if err != nil {
		return nil, err
	}
	s.log.Info("photo uploaded", zap.String("filename", uploaded.Filename), zap.Int64("size", uploaded.Size))
	return uploaded, nil
}

// UploadFiles 上传多个图片，任一文件不合法时已保存的文件会被删除
func (s *UploadService) UploadFiles(files []*multipart.FileHeader) ([]UploadedFile, error) {
	if err := NewValidator().
		Check(len(files) > 0, "no files uploaded").
		Check(len(files) <= s.config.MaxFiles, fmt.Sprintf("at most %d files can be uploaded at once", s.config.MaxFiles)).
		Validate(); err != nil {
		return nil, err
	}

	out := make([]UploadedFile, 0, len(files))
	for _, fh := range files {
		uploaded, err := s.UploadFile(fh)
		if err != nil {
			for _, done := range out {
				_ = os.Remove(filepath.Join(s.config.Dir, done.Filename))
			}
			return nil, err
		}
		out = append(out, *uploaded)
	}
	return out, nil
}

func (s *UploadService) save(file *multipart.FileHeader) (*UploadedFile, error) {
	if err := NewValidator().FileSize(file.Size, "file", s.config.MaxSize).Validate(); err != nil {
		return nil, err
	}

	// 打开源文件
	src, err := file.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer src.Close()

	// 按内容识别类型
	mtype, err := mimetype.DetectReader(src)
	if err != nil {
		return nil, fmt.Errorf("failed to detect file type: %w", err)
	}
	if !mimetype.EqualsAny(mtype.String(), allowedImageTypes...) {
		return nil, ValidationError("only image files can be uploaded (jpg, jpeg, png, gif, webp)")
	}
	if _, err := src.Seek(0, io.SeekStart); err != nil {
		return nil, fmt.Errorf("failed to rewind file: %w", err)
	}

	// 生成唯一文件名
	// 扩展名取自识别出的类型，静态服务按扩展名决定Content-Type
	ext := mtype.Extension()
	base := sanitizeBase(strings.TrimSuffix(filepath.Base(file.Filename), filepath.Ext(file.Filename)))
	filename := fmt.Sprintf("%s-%s%s", base, uuid.New().String(), ext)

	// 创建目标文件
	dstPath := filepath.Join(s.config.Dir, filename)
	dst, err := os.Create(dstPath)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	defer dst.Close()

	// 复制文件内容，限制实际写入大小
	n, err := io.Copy(dst, io.LimitReader(src, s.config.MaxSize+1))
	if err != nil {
		_ = os.Remove(dstPath)
		return nil, fmt.Errorf("failed to copy file: %w", err)
	}
	if n > s.config.MaxSize {
		_ = os.Remove(dstPath)
		return nil, ValidationError(fmt.Sprintf("file must be smaller than %d bytes", s.config.MaxSize))
	}

	return &UploadedFile{
		Filename:     filename,
		OriginalName: file.Filename,
		Path:         s.GetFileURL(filename),
		Size:         n,
		MimeType:     mtype.String(),
		Created:      time.Now(),
	}, nil
}

// List 列出已上传的文件，新的在前
func (s *UploadService) List() ([]UploadedFile, error) {
	entries, err := os.ReadDir(s.config.Dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read upload directory: %w", err)
	}

	files := make([]UploadedFile, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}
		files = append(files, UploadedFile{
			Filename: e.Name(),
			Path:     s.GetFileURL(e.Name()),
			Size:     info.Size(),
			Created:  info.ModTime(),
		})
	}
	sort.Slice(files, func(i, j int) bool { return files[i].Created.After(files[j].Created) })
	return files, nil
}

// DeleteFile 删除文件
func (s *UploadService) DeleteFile(filename string) error {
	if filename == "" || filepath.Base(filename) != filename || strings.HasPrefix(filename, ".") {
		return ValidationError("invalid filename")
	}
	err := os.Remove(filepath.Join(s.config.Dir, filename))
	if errors.Is(err, os.ErrNotExist) {
		return NotFoundError("file not found")
	}
	if err != nil {
		return NewError(ErrInternal, "failed to delete file", err)
	}
	s.log.Info("photo deleted", zap.String("filename", filename))
	return nil
}

// GetFileURL 获取文件URL
func (s *UploadService) GetFileURL(filename string) string {
	return fmt.Sprintf("/uploads/%s", filename)
}

// sanitizeBase 文件名主体只保留字母、数字、下划线和连字符
func sanitizeBase(name string) string {
	var sb strings.Builder
	for _, r := range name {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' {
			sb.WriteRune(r)
		}
		if sb.Len() >= 64 {
			break
		}
	}
	if sb.Len() == 0 {
		return "photo"
	}
	return sb.String()
}
