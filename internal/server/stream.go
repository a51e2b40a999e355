// Package server provides the HTTP server for the Kuchipudi scroll pipeline.
package server

import (
	"fmt"
	"image"
	"image/color"
	"net/http"
	"time"

	"github.com/ayusman/kuchipudi/internal/app"
	"github.com/ayusman/kuchipudi/internal/capture"
	"gocv.io/x/gocv"
)

// StreamHandler serves MJPEG frames from the camera, annotated with the
// pipeline's current touch/scroll state for debugging.
type StreamHandler struct {
	camera  capture.Camera
	overlay *app.App
}

// NewStreamHandler creates a new StreamHandler with the given camera. overlay
// is optional; when nil, frames are streamed unannotated.
func NewStreamHandler(camera capture.Camera, overlay *app.App) *StreamHandler {
	return &StreamHandler{camera: camera, overlay: overlay}
}

// ServeHTTP streams MJPEG frames to connected clients.
func (h *StreamHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	w.Header().Set("Content-Type", "multipart/x-mixed-replace; boundary=frame")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	for {
		select {
		case <-r.Context().Done():
			return
		default:
		}

		frame, err := h.camera.ReadFrame()
		if err != nil {
			time.Sleep(100 * time.Millisecond)
			continue
		}

		h.annotate(frame)

		// Encode as JPEG
		buf, err := gocv.IMEncode(".jpg", *frame)
		frame.Close()
		if err != nil {
			continue
		}

		// Write MJPEG frame
		fmt.Fprintf(w, "--frame\r\n")
		fmt.Fprintf(w, "Content-Type: image/jpeg\r\n")
		fmt.Fprintf(w, "Content-Length: %d\r\n\r\n", buf.Len())
		w.Write(buf.GetBytes())
		fmt.Fprintf(w, "\r\n")
		buf.Close()

		if f, ok := w.(http.Flusher); ok {
			f.Flush()
		}

		time.Sleep(66 * time.Millisecond) // ~15 FPS
	}
}

// annotate draws the pipeline's current touch/scroll status onto frame:
// a filled circle (green while touching, gray otherwise), the hand count,
// and the last dispatched vertical velocity.
func (h *StreamHandler) annotate(frame *gocv.Mat) {
	if h.overlay == nil {
		return
	}

	o := h.overlay.Overlay()

	dot := color.RGBA{R: 120, G: 120, B: 120, A: 255}
	if o.Touching {
		dot = color.RGBA{G: 220, A: 255}
	}
	gocv.Circle(frame, image.Pt(20, 20), 10, dot, -1)

	label := fmt.Sprintf("hands=%d vy=%.2f", o.Hands, o.VY)
	gocv.PutText(frame, label, image.Pt(40, 28), gocv.FontHersheyPlain, 1.2,
		color.RGBA{R: 255, G: 255, B: 255, A: 255}, 1)
}
