// Package png renders a fiscal QR verification URL as a PNG image.
package png

import "github.com/skip2/go-qrcode"

// Qr encodes the verification URL into a 300x300 PNG. Medium error
// correction keeps the code readable on printed vouchers.
func Qr(content string) ([]byte, error) {
	return qrcode.Encode(content, qrcode.Medium, 300)
}
