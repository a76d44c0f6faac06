package document

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"image"
	_ "image/png"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
)

const (
	logoFile      = "logo.png"
	signatureFile = "signature.png"
)

// Image is a decoded-once PNG with its pixel size.
type Image struct {
	Data   []byte
	Width  int
	Height int
}

// Assets are the optional images embedded in every rendered agreement.
type Assets struct {
	Logo      *Image
	Signature *Image
}

// AssetConfig names where assets come from. Dir wins over the base64 values.
type AssetConfig struct {
	Dir             string
	LogoBase64      string
	SignatureBase64 string
}

// LoadAssets reads the logo and signature images. A missing or undecodable asset is
// logged and left nil; rendering then falls back to text only.
func LoadAssets(cfg AssetConfig, logger *slog.Logger) Assets {
	if logger == nil {
		logger = slog.Default()
	}
	return Assets{
		Logo:      loadAsset(cfg.Dir, logoFile, cfg.LogoBase64, logger),
		Signature: loadAsset(cfg.Dir, signatureFile, cfg.SignatureBase64, logger),
	}
}

func loadAsset(dir, name, encoded string, logger *slog.Logger) *Image {
	var data []byte
	source := ""
	if dir != "" {
		path := filepath.Join(dir, name)
		b, err := os.ReadFile(path)
		switch {
		case err == nil:
			data, source = b, path
		case os.IsNotExist(err):
			logger.Debug("asset file not found", "asset", name, "path", path)
		default:
			logger.Warn("failed to read asset file", "asset", name, "path", path, "error", err)
		}
	}
	if data == nil && strings.TrimSpace(encoded) != "" {
		b, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
		if err != nil {
			logger.Warn("failed to decode base64 asset", "asset", name, "error", err)
			return nil
		}
		data, source = b, "env"
	}
	if data == nil {
		return nil
	}
	img, err := decodeImage(data)
	if err != nil {
		logger.Warn("ignoring unreadable asset", "asset", name, "source", source, "error", err)
		return nil
	}
	logger.Info("asset loaded", "asset", name, "source", source, "width", img.Width, "height", img.Height)
	return img
}

func decodeImage(data []byte) (*Image, error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	if format != "png" {
		return nil, fmt.Errorf("unsupported image format %q", format)
	}
	if cfg.Width == 0 || cfg.Height == 0 {
		return nil, fmt.Errorf("empty image")
	}
	return &Image{Data: data, Width: cfg.Width, Height: cfg.Height}, nil
}
