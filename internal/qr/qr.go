// Package qr renders the scan URL for an issued token into a PNG QR code.
// The core never deals in images; this sits on the presentation side.
package qr

import (
	"fmt"
	"net/url"
	"strconv"

	qrcode "github.com/skip2/go-qrcode"
)

const pngSize = 320

// ScanURL builds the URL a student's phone opens after scanning:
// {base}/scan?tid={tokenID}&secret={secret}.
func ScanURL(baseURL string, tokenID int64, secret string) string {
	q := url.Values{}
	q.Set("tid", strconv.FormatInt(tokenID, 10))
	q.Set("secret", secret)
	return fmt.Sprintf("%s/scan?%s", baseURL, q.Encode())
}

// EncodePNG renders the scan URL as a PNG image.
func EncodePNG(baseURL string, tokenID int64, secret string) ([]byte, error) {
	png, err := qrcode.Encode(ScanURL(baseURL, tokenID, secret), qrcode.Medium, pngSize)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
