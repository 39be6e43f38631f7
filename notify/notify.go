package notify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"time"

	"TFLiteExport/config"
	"TFLiteExport/logger"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Report describes one successful export.
type Report struct {
	Id          string `json:"id"`
	Weights     string `json:"weights"`
	Artifact    string `json:"artifact"`
	Destination string `json:"destination"`
	ImgSize     int    `json:"imgsz"`
	Int8        bool   `json:"int8"`
	Bytes       int64  `json:"bytes"`
	SHA256      string `json:"sha256"`
	DurationMs  int64  `json:"durationMs"`
	TimeStamp   int64  `json:"timestamp"`
}

type Client struct {
	url     string
	headers map[string]string
	client  *resty.Client
}

// New returns nil when no URL is configured.
func New(cfg config.NotifyConfig) *Client {
	if cfg.URL == "" {
		return nil
	}
	timeout := cfg.TimeoutSeconds
	if timeout <= 0 {
		timeout = config.DefaultNotifyTimeoutSeconds
	}
	return &Client{
		url:     cfg.URL,
		headers: cfg.Headers,
		client:  resty.New().SetTimeout(time.Duration(timeout) * time.Second),
	}
}

func (c *Client) Send(ctx context.Context, report Report) error {
	resp, err := c.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetHeaders(c.headers).
		SetBody(report).
		Post(c.url)
	if err != nil {
		return fmt.Errorf("notify request failed: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("notify server returned %s, body: %s", resp.Status(), resp.String())
	}
	logger.Log().Debug("export reported", zap.String("url", c.url), zap.String("id", report.Id))
	return nil
}

// FileDigest returns the size and hex SHA-256 of the file at path.
func FileDigest(path string) (int64, string, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, "", err
	}
	defer f.Close()
	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return 0, "", err
	}
	return n, hex.EncodeToString(h.Sum(nil)), nil
}
