package storagefactory

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"papaya/internal/config"
)

func localConfig(t *testing.T) *config.StorageConfig {
	t.Helper()
	return &config.StorageConfig{
		Type: "local",
		Local: &config.LocalConfig{
			BasePath:      t.TempDir(),
			BaseURL:       "http://localhost:8080/storage",
			PresignExpiry: 3600,
		},
	}
}

func TestNewStorage(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     *config.StorageConfig
		wantErr bool
	}{
		{
			name:    "valid local storage config",
			cfg:     localConfig(t),
			wantErr: false,
		},
		{
			name: "missing local config",
			cfg: &config.StorageConfig{
				Type:  "local",
				Local: nil,
			},
			wantErr: true,
		},
		{
			name: "unsupported storage type",
			cfg: &config.StorageConfig{
				Type: "invalid",
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			store, err := NewStorage(ctx, tt.cfg)

			if tt.wantErr {
				if err == nil {
					t.Errorf("NewStorage() expected error, got nil")
				}
				return
			}

			if err != nil {
				t.Errorf("NewStorage() unexpected error: %v", err)
				return
			}
			if store == nil {
				t.Errorf("NewStorage() expected storage instance, got nil")
				return
			}
			if store.GetStorageType() != "local" {
				t.Errorf("GetStorageType() = %v, want local", store.GetStorageType())
			}
		})
	}
}

func TestLocalStorage_Operations(t *testing.T) {
	ctx := context.Background()
	cfg := localConfig(t)

	store, err := NewStorage(ctx, cfg)
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	// 测试上传
	testKey := "test/test.txt"
	testContent := "Hello, World! This is a test file."

	url, err := store.Upload(ctx, testKey, strings.NewReader(testContent), "text/plain")
	if err != nil {
		t.Fatalf("Upload() error = %v", err)
	}
	if !strings.Contains(url, testKey) {
		t.Errorf("Upload() url = %v, should contain key %v", url, testKey)
	}

	// 验证文件是否存在
	exists, err := store.Exists(ctx, testKey)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if !exists {
		t.Errorf("Exists() = false, want true")
	}

	// 测试下载
	reader, err := store.Download(ctx, testKey)
	if err != nil {
		t.Fatalf("Download() error = %v", err)
	}
	defer reader.Close()

	downloadedContent, err := io.ReadAll(reader)
	if err != nil {
		t.Fatalf("ReadAll() error = %v", err)
	}
	if string(downloadedContent) != testContent {
		t.Errorf("Download() content = %v, want %v", string(downloadedContent), testContent)
	}

	// 测试获取文件信息
	fileInfo, err := store.GetFileInfo(ctx, testKey)
	if err != nil {
		t.Fatalf("GetFileInfo() error = %v", err)
	}
	if fileInfo.Key != testKey {
		t.Errorf("GetFileInfo() Key = %v, want %v", fileInfo.Key, testKey)
	}
	if fileInfo.Size != int64(len(testContent)) {
		t.Errorf("GetFileInfo() Size = %v, want %v", fileInfo.Size, len(testContent))
	}

	// 测试预签名下载URL
	presignedURL, err := store.GetPresignedDownloadURL(ctx, testKey, time.Hour)
	if err != nil {
		t.Fatalf("GetPresignedDownloadURL() error = %v", err)
	}
	if !strings.Contains(presignedURL, cfg.Local.BaseURL) {
		t.Errorf("GetPresignedDownloadURL() url = %v, should contain %v", presignedURL, cfg.Local.BaseURL)
	}

	// 测试删除
	if err := store.Delete(ctx, testKey); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	exists, err = store.Exists(ctx, testKey)
	if err != nil {
		t.Fatalf("Exists() error = %v", err)
	}
	if exists {
		t.Errorf("Exists() = true, want false (file should be deleted)")
	}
}

func TestLocalStorage_NonExistentFile(t *testing.T) {
	ctx := context.Background()

	store, err := NewStorage(ctx, localConfig(t))
	if err != nil {
		t.Fatalf("Failed to create storage: %v", err)
	}

	nonExistentKey := "nonexistent/file.txt"

	if _, err := store.Download(ctx, nonExistentKey); err == nil {
		t.Errorf("Download() expected error for non-existent file, got nil")
	}
	if _, err := store.GetFileInfo(ctx, nonExistentKey); err == nil {
		t.Errorf("GetFileInfo() expected error for non-existent file, got nil")
	}
}
