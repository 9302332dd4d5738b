// Package qr renders the registration and check-in QR codes handed out by
// event owners. The encoded target is the public URL of the corresponding
// event page.
package qr

import (
	"fmt"

	"github.com/skip2/go-qrcode"
)

const (
	TypeRegister = "register"
	TypeCheckin  = "ci"

	SizeSmall = "small"
	SizeLarge = "large"
)

// Generate returns a PNG QR code pointing at the event's register or
// check-in page. Large codes are meant for print: more pixels, lighter error
// correction; small ones carry high correction for on-screen scanning.
func Generate(publicUrl, eventUid, qrType, size string) ([]byte, error) {
	if qrType != TypeRegister && qrType != TypeCheckin {
		return nil, fmt.Errorf("unknown qr type %q", qrType)
	}
	target := fmt.Sprintf("%s/events/%s/%s", publicUrl, qrType, eventUid)

	level := qrcode.High
	pixels := 256
	if size == SizeLarge {
		level = qrcode.Low
		pixels = 512
	} else if size != SizeSmall {
		return nil, fmt.Errorf("unknown qr size %q", size)
	}
	png, err := qrcode.Encode(target, level, pixels)
	if err != nil {
		return nil, fmt.Errorf("encode qr: %w", err)
	}
	return png, nil
}
