// Package assets renders table QR codes and stores them where the static
// /uploads route can serve them.
package assets

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/skip2/go-qrcode"
	"github.com/yeremiapane/restaurant-floor/utils"
)

const qrSize = 256

// LocalQRProvisioner writes PNGs under UploadDir/Folder and returns their
// public URL below BaseURL/uploads.
type LocalQRProvisioner struct {
	UploadDir string
	Folder    string
	BaseURL   string
}

func NewLocalQRProvisioner(uploadDir, folder, baseURL string) *LocalQRProvisioner {
	return &LocalQRProvisioner{
		UploadDir: uploadDir,
		Folder:    folder,
		BaseURL:   strings.TrimRight(baseURL, "/"),
	}
}

// Provision renders payload and stores the image. The file name is random so
// re-creating a table never overwrites an image still referenced elsewhere.
func (p *LocalQRProvisioner) Provision(ctx context.Context, payload string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	png, err := qrcode.Encode(payload, qrcode.Medium, qrSize)
	if err != nil {
		return "", fmt.Errorf("render qr code: %w", err)
	}

	dir := filepath.Join(p.UploadDir, p.Folder)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("create qr folder: %w", err)
	}

	filename := uuid.NewString() + ".png"
	if err := os.WriteFile(filepath.Join(dir, filename), png, 0644); err != nil {
		return "", fmt.Errorf("write qr image: %w", err)
	}

	return fmt.Sprintf("%s/uploads/%s/%s", p.BaseURL, p.Folder, filename), nil
}

// Remove deletes an image previously returned by Provision. Unknown URLs are
// ignored.
func (p *LocalQRProvisioner) Remove(url string) {
	prefix := fmt.Sprintf("%s/uploads/%s/", p.BaseURL, p.Folder)
	if !strings.HasPrefix(url, prefix) {
		return
	}
	name := filepath.Base(strings.TrimPrefix(url, prefix))
	if err := os.Remove(filepath.Join(p.UploadDir, p.Folder, name)); err != nil && !os.IsNotExist(err) {
		utils.ErrorLogger.WithError(err).WithField("url", url).Warn("failed to remove qr image")
	}
}
