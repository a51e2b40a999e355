package hud

import (
	"encoding/base64"
	"fmt"
	"image"

	"gocv.io/x/gocv"
)

// EncodeCameraFrame resizes a frame to targetWidth px wide (preserving aspect
// ratio) and JPEG-encodes it at the given quality, for the HUD camera channel.
func EncodeCameraFrame(frame *gocv.Mat, targetWidth, quality int) (CameraMessage, error) {
	if frame.Empty() {
		return CameraMessage{}, fmt.Errorf("hud: empty frame")
	}

	resized := gocv.NewMat()
	defer resized.Close()

	srcW, srcH := frame.Cols(), frame.Rows()
	dstW := targetWidth
	dstH := srcH
	if srcW > 0 {
		dstH = srcH * targetWidth / srcW
	}
	gocv.Resize(*frame, &resized, image.Pt(dstW, dstH), 0, 0, gocv.InterpolationLinear)

	params := []int{gocv.IMWriteJpegQuality, quality}
	buf, err := gocv.IMEncodeWithParams(".jpg", resized, params)
	if err != nil {
		return CameraMessage{}, fmt.Errorf("encode camera frame: %w", err)
	}
	defer buf.Close()

	return CameraMessage{
		Frame:  base64.StdEncoding.EncodeToString(buf.GetBytes()),
		Width:  dstW,
		Height: dstH,
	}, nil
}
