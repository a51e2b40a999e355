package app

import (
	"image"
	"log"
	"time"

	"github.com/ayusman/kuchipudi/internal/align"
	"github.com/ayusman/kuchipudi/internal/detector"
	"github.com/ayusman/kuchipudi/internal/kinematics"
	"github.com/ayusman/kuchipudi/internal/pose"
	"github.com/ayusman/kuchipudi/internal/velocity"
	"gocv.io/x/gocv"
)

// runPipeline is the frame-thread loop: capture -> landmarks (external) ->
// HandAligner -> Kinematics -> (conditional) OpticalFlowProbe -> TouchProofDetector
// -> VelocityTracker -> VelocityController -> VelocityDispatcher.
//
// It also manages the idle/active FPS switch: idle at IdleFPS until motion is
// detected, active at ActiveFPS until IdleTimeoutMs of no motion.
func (a *App) runPipeline() {
	activeMode := false
	lastMotionTime := time.Now()

	frameInterval := time.Second / time.Duration(IdleFPS)
	ticker := time.NewTicker(frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-a.stopCh:
			return
		case <-ticker.C:
			if !a.IsEnabled() {
				continue
			}

			frame, err := a.camera.ReadFrame()
			if err != nil {
				log.Printf("Error reading frame: %v", err)
				continue
			}

			motionDetected, _ := a.motion.Detect(frame)

			if motionDetected {
				lastMotionTime = time.Now()
				if !activeMode {
					activeMode = true
					a.camera.SetFPS(ActiveFPS)
					frameInterval = time.Second / time.Duration(ActiveFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to active mode")
				}
			} else if activeMode {
				if time.Since(lastMotionTime) > time.Duration(IdleTimeoutMs)*time.Millisecond {
					activeMode = false
					a.camera.SetFPS(IdleFPS)
					frameInterval = time.Second / time.Duration(IdleFPS)
					ticker.Reset(frameInterval)
					log.Println("Switched to idle mode")
				}
			}

			if !activeMode || a.detector == nil {
				frame.Close()
				continue
			}

			a.processFrame(frame)
		}
	}
}

// processFrame runs one frame through the perception-to-scroll chain. frame is
// closed before returning.
func (a *App) processFrame(frame *gocv.Mat) {
	defer frame.Close()

	tMs := time.Now().UnixMilli()

	hands, found, err := a.detector.Detect(frame, tMs)
	if err != nil {
		log.Printf("Error detecting hands: %v", err)
		return
	}

	if !found || len(hands) == 0 {
		a.handleNoHand(tMs)
		return
	}

	nHands := len(hands)
	hand := &hands[0]
	a.lastHandSeenMs = tMs
	a.haveLastHand = true

	frm, err := align.New(hand, frame.Cols(), frame.Rows())
	if err != nil {
		// Degenerate frame: drop this frame, hold state.
		a.dispatchHold(tMs, nHands)
		return
	}

	midX, midY := align.FingertipMidpointImage(hand)
	a.kinBuf.Append(kinematics.Sample{
		TMs:          tMs,
		MidpointImg:  align.Point2D{X: midX, Y: midY},
		MidpointHand: frm.FingertipMidpointHand(),
	})

	normalizedDist := frm.NormalizedFingertipDistance()
	angleDeg, angleErr := frm.FingertipAngleDeg()
	if angleErr != nil {
		a.dispatchHold(tMs, nHands)
		return
	}
	distanceFactor := frm.DistanceFactor()

	var visA *float64
	if hand.Points[detector.IndexTip].Visibility != nil && hand.Points[detector.MiddleTip].Visibility != nil {
		d := absf(*hand.Points[detector.IndexTip].Visibility - *hand.Points[detector.MiddleTip].Visibility)
		visA = &d
	}

	proximityScore := a.previewProximityScore(normalizedDist, distanceFactor)
	angleScore := a.previewAngleScore(angleDeg, distanceFactor)

	var mfcScore float64
	mfcEvaluated := false
	if a.touchprf.NeedsMFC(proximityScore, angleScore, distanceFactor) {
		imgW, imgH := frame.Cols(), frame.Rows()
		indexPx := image.Pt(int(hand.Points[detector.IndexTip].X*float64(imgW)), int(hand.Points[detector.IndexTip].Y*float64(imgH)))
		middlePx := image.Pt(int(hand.Points[detector.MiddleTip].X*float64(imgW)), int(hand.Points[detector.MiddleTip].Y*float64(imgH)))

		gray := gocv.NewMat()
		if frame.Channels() > 1 {
			gocv.CvtColor(*frame, &gray, gocv.ColorBGRToGray)
		} else {
			frame.CopyTo(&gray)
		}

		if flowErr := a.flowProbe.Update(&gray, indexPx, middlePx); flowErr == nil {
			mfcScore = a.flowProbe.Score(a.cfg.TouchProof.MFCCorrWeight, a.cfg.TouchProof.MFCMagWeight, a.cfg.TouchProof.MFCMagRatioMin)
			mfcEvaluated = true
		}
		gray.Close()
	}

	signals := a.touchprf.Update(normalizedDist, angleDeg, distanceFactor, visA, mfcScore, mfcEvaluated)

	v := a.velTracker.Update(a.kinBuf)
	highFive := pose.IsHighFive(frm, pose.Config{HighFiveMargin: a.cfg.Pose.HighFiveMargin})

	state, outV, transition := a.controller.Update(signals.IsTouching, true, highFive, v, tMs)
	if transition == velocity.TransitionEnd {
		a.velTracker.Reset()
		a.kinBuf.Reset()
		a.flowProbe.Reset()
	}

	a.setOverlay(OverlayState{Hands: nHands, Touching: signals.IsTouching, VY: outV.VY})
	if err := a.dispatcher.Dispatch(state, outV, transition, tMs, nHands); err != nil {
		log.Printf("scroll dispatch error: %v", err)
	}
}

// handleNoHand applies the hand-loss grace period: hold state while within grace, otherwise force the controller to IDLE.
func (a *App) handleNoHand(tMs int64) {
	withinGrace := a.haveLastHand && tMs-a.lastHandSeenMs <= int64(a.cfg.HandLossGraceMs)

	signals := a.touchprf.HoldLastTouching()
	v := a.velTracker.Update(a.kinBuf)

	state, outV, transition := a.controller.Update(signals.IsTouching, withinGrace, false, v, tMs)
	if transition == velocity.TransitionEnd {
		a.touchprf.Reset()
		a.velTracker.Reset()
		a.kinBuf.Reset()
		a.flowProbe.Reset()
	}

	a.setOverlay(OverlayState{Hands: 0, Touching: signals.IsTouching, VY: outV.VY})
	if err := a.dispatcher.Dispatch(state, outV, transition, tMs, 0); err != nil {
		log.Printf("scroll dispatch error: %v", err)
	}
}

// dispatchHold handles a degenerate-frame result: hold is_touching, advance
// nothing else, and still let the controller and dispatcher observe a non-event.
func (a *App) dispatchHold(tMs int64, hands int) {
	signals := a.touchprf.HoldLastTouching()
	v := a.velTracker.Update(a.kinBuf)

	state, outV, transition := a.controller.Update(signals.IsTouching, true, false, v, tMs)
	a.setOverlay(OverlayState{Hands: hands, Touching: signals.IsTouching, VY: outV.VY})
	if err := a.dispatcher.Dispatch(state, outV, transition, tMs, hands); err != nil {
		log.Printf("scroll dispatch error: %v", err)
	}
}

// previewProximityScore and previewAngleScore compute the same piecewise-linear
// scores TouchProofDetector.Update will (re)compute internally, used only to
// decide whether MFC gating is needed this frame.
func (a *App) previewProximityScore(normalizedDist, distanceFactor float64) float64 {
	enter := a.cfg.TouchProof.ProximityEnter * (1 + a.cfg.TouchProof.DistanceK*distanceFactor)
	exit := a.cfg.TouchProof.ProximityExit * (1 + a.cfg.TouchProof.DistanceK*distanceFactor)
	return pieceLinearDesc(normalizedDist, enter, exit)
}

func (a *App) previewAngleScore(angleDeg, distanceFactor float64) float64 {
	enter := a.cfg.TouchProof.AngleEnterDeg - a.cfg.TouchProof.AngleK*(1-distanceFactor)
	exit := a.cfg.TouchProof.AngleExitDeg - a.cfg.TouchProof.AngleK*(1-distanceFactor)
	return pieceLinearDesc(angleDeg, enter, exit)
}

func pieceLinearDesc(v, enter, exit float64) float64 {
	if v <= enter {
		return 1
	}
	if v >= exit {
		return 0
	}
	if exit == enter {
		return 0
	}
	return 1 - (v-enter)/(exit-enter)
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
