package services

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// OCREngine forwards stored files to an external recognition service
// (tesseract-server / PaddleOCR style HTTP endpoint) and extracts the
// recognized text from its response.
type OCREngine struct {
	Endpoint string
	Client   *http.Client
}

func NewOCREngine(endpoint string, timeout time.Duration) *OCREngine {
	return &OCREngine{
		Endpoint: endpoint,
		Client:   &http.Client{Timeout: timeout},
	}
}

func (e *OCREngine) Recognize(path string) (string, error) {
	if strings.TrimSpace(e.Endpoint) == "" {
		return "", ErrUnavailable("OCRエンジンが設定されていません")
	}
	file, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer file.Close()

	var body bytes.Buffer
	writer := multipart.NewWriter(&body)
	part, err := writer.CreateFormFile("file", filepath.Base(path))
	if err != nil {
		return "", err
	}
	if _, err := io.Copy(part, file); err != nil {
		return "", err
	}
	if err := writer.Close(); err != nil {
		return "", err
	}

	req, err := http.NewRequest(http.MethodPost, e.Endpoint, &body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	resp, err := e.Client.Do(req)
	if err != nil {
		return "", ErrBadGateway("OCR処理に失敗しました")
	}
	defer resp.Body.Close()
	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", ErrBadGateway("OCR処理に失敗しました")
	}
	if resp.StatusCode >= 300 {
		return "", ErrBadGateway(fmt.Sprintf("OCRエンジンがエラーを返しました (%d)", resp.StatusCode))
	}
	text, err := parseOCRResponse(raw)
	if err != nil {
		return "", ErrBadGateway("OCRエンジンの応答を解釈できませんでした")
	}
	return text, nil
}

// parseOCRResponse accepts the common engine shapes: a plain
// {"text": "..."} object, or a Paddle-style array of result items whose
// entries carry the recognized strings.
func parseOCRResponse(raw []byte) (string, error) {
	var obj struct {
		Text *string `json:"text"`
	}
	if err := json.Unmarshal(raw, &obj); err == nil && obj.Text != nil {
		return *obj.Text, nil
	}

	var items []map[string]interface{}
	if err := json.Unmarshal(raw, &items); err == nil {
		var texts []string
		for _, item := range items {
			res, ok := item["res"]
			if !ok {
				res = item["data"]
			}
			list, _ := res.([]interface{})
			for _, entry := range list {
				parts, ok := entry.([]interface{})
				if !ok {
					continue
				}
				for _, part := range parts {
					if s, ok := part.(string); ok && s != "" {
						texts = append(texts, s)
					}
				}
			}
		}
		if len(texts) > 0 {
			return strings.Join(texts, "\n"), nil
		}
	}
	return "", fmt.Errorf("unrecognized OCR response")
}
