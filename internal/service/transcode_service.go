package service

import (
	"bufio"
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"

	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/internal/model"
	"cuerpofit_backend/internal/repository"
	"cuerpofit_backend/internal/util"
	"cuerpofit_backend/pkg/logger"
	"cuerpofit_backend/pkg/monitoring"

	ffmpeg "github.com/u2takey/ffmpeg-go"
	"go.uber.org/zap"
)

const (
	msgNotAVideo = "El archivo seleccionado no es un video válido."
)

// Converter turns the input file into the output file according to the
// plan, reporting progress as a 0..1 fraction. Implementations must
// honor context cancellation.
type Converter interface {
	Convert(ctx context.Context, inputPath, outputPath string, plan TranscodePlan, duration float64, progress func(float64)) error
}

// TranscodeJobView is the status snapshot returned to the HTTP layer.
type TranscodeJobView struct {
	SessionID            string                         `json:"sessionId"`
	QuestionID           string                         `json:"questionId"`
	Status               model.TranscodeStatus          `json:"status"`
	Progress             float64                        `json:"progress"`
	ApproxRealtimeFactor float64                        `json:"approxRealtimeFactor,omitempty"`
	Error                string                         `json:"error,omitempty"`
	Payload              *model.VideoCompressionPayload `json:"payload,omitempty"`
}

type transcodeJob struct {
	sessionID  string
	questionID string

	status   model.TranscodeStatus
	progress float64
	realtime float64
	errMsg   string
	payload  *model.VideoCompressionPayload

	inputPath string
	inputName string
	inputSize int64
	mimeType  string
	duration  float64
	startedAt time.Time

	cancel context.CancelFunc
	done   chan struct{}
	mu     sync.Mutex
}

func (j *transcodeJob) view() *TranscodeJobView {
	j.mu.Lock()
	defer j.mu.Unlock()
	return &TranscodeJobView{
		SessionID:            j.sessionID,
		QuestionID:           j.questionID,
		Status:               j.status,
		Progress:             j.progress,
		ApproxRealtimeFactor: j.realtime,
		Error:                j.errMsg,
		Payload:              j.payload,
	}
}

// TranscodeService runs at most one compression job per upload field,
// keyed by session and question. Starting a new job for a field that
// already has one cancels the old run first.
type TranscodeService struct {
	cfg           config.TranscodeConfig
	converter     Converter
	appRepo       *repository.ApplicationRepository
	questionnaire *QuestionnaireService

	mu   sync.Mutex
	jobs map[string]*transcodeJob
}

func NewTranscodeService(cfg config.TranscodeConfig, converter Converter, appRepo *repository.ApplicationRepository, questionnaire *QuestionnaireService) *TranscodeService {
	if converter == nil {
		converter = &ffmpegConverter{}
	}
	return &TranscodeService{
		cfg:           cfg,
		converter:     converter,
		appRepo:       appRepo,
		questionnaire: questionnaire,
		jobs:          make(map[string]*transcodeJob),
	}
}

func jobKey(sessionID, questionID string) string {
	return sessionID + ":" + questionID
}

// Start launches a compression run for an already-saved upload. Files
// that do not look like video fail immediately; everything else goes
// through the background pipeline.
func (s *TranscodeService) Start(sessionID, questionID, inputPath, originalName, mimeType string) (*TranscodeJobView, error) {
	info, err := os.Stat(inputPath)
	if err != nil {
		return nil, fmt.Errorf("uploaded file unavailable: %w", err)
	}

	key := jobKey(sessionID, questionID)

	s.mu.Lock()
	if old, ok := s.jobs[key]; ok {
		old.mu.Lock()
		running := old.status == model.TranscodePreparing || old.status == model.TranscodeCompressing
		cancel := old.cancel
		old.mu.Unlock()
		if running && cancel != nil {
			cancel()
			<-old.done
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	job := &transcodeJob{
		sessionID:  sessionID,
		questionID: questionID,
		status:     model.TranscodePreparing,
		inputPath:  inputPath,
		inputName:  originalName,
		inputSize:  info.Size(),
		mimeType:   mimeType,
		startedAt:  time.Now(),
		cancel:     cancel,
		done:       make(chan struct{}),
	}
	s.jobs[key] = job
	s.mu.Unlock()

	if !util.LooksLikeVideo(originalName, mimeType) {
		cancel()
		close(job.done)
		s.finishError(job, msgNotAVideo)
		return job.view(), nil
	}

	go s.run(ctx, job)
	return job.view(), nil
}

// Status reports the current state of the field's job.
func (s *TranscodeService) Status(sessionID, questionID string) (*TranscodeJobView, error) {
	s.mu.Lock()
	job, ok := s.jobs[jobKey(sessionID, questionID)]
	s.mu.Unlock()
	if !ok {
		return nil, util.ErrJobNotFound
	}
	return job.view(), nil
}

// Cancel stops the field's job cooperatively. Cancelling a finished or
// unknown job is a no-op.
func (s *TranscodeService) Cancel(sessionID, questionID string) (*TranscodeJobView, error) {
	s.mu.Lock()
	job, ok := s.jobs[jobKey(sessionID, questionID)]
	s.mu.Unlock()
	if !ok {
		return nil, util.ErrJobNotFound
	}

	job.mu.Lock()
	running := job.status == model.TranscodePreparing || job.status == model.TranscodeCompressing
	cancel := job.cancel
	job.mu.Unlock()
	if running && cancel != nil {
		cancel()
		<-job.done
	}
	return job.view(), nil
}

// Shutdown cancels every in-flight job and waits for them to wind down.
func (s *TranscodeService) Shutdown() {
	s.mu.Lock()
	jobs := make([]*transcodeJob, 0, len(s.jobs))
	for _, job := range s.jobs {
		jobs = append(jobs, job)
	}
	s.mu.Unlock()

	for _, job := range jobs {
		job.mu.Lock()
		running := job.status == model.TranscodePreparing || job.status == model.TranscodeCompressing
		cancel := job.cancel
		job.mu.Unlock()
		if running && cancel != nil {
			cancel()
			<-job.done
		}
	}
}

func (s *TranscodeService) run(ctx context.Context, job *transcodeJob) {
	defer close(job.done)

	var duration float64
	var sourceWidth int
	if info, err := util.GetVideoInfo(job.inputPath); err == nil {
		duration = info.Duration
		sourceWidth = info.Width
	} else {
		logger.Log.Debug("video probe failed, falling back to duration-only probe",
			zap.String("file", job.inputName), zap.Error(err))
		duration = util.ProbeDuration(job.inputPath)
	}
	job.mu.Lock()
	job.duration = duration
	job.mu.Unlock()

	if ctx.Err() != nil {
		s.finishCancelled(job)
		return
	}

	plan := ComputePlan(job.inputSize, duration, sourceWidth, s.cfg)

	// Outputs are namespaced per session: identical camera-default
	// filenames from different applicants must never share a path.
	outputDir := filepath.Join(s.workDir(), job.sessionID)
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		s.fallback(job, err)
		return
	}
	outputPath := filepath.Join(outputDir, util.CompressedFileName(job.inputName))

	job.mu.Lock()
	job.status = model.TranscodeCompressing
	job.progress = 0
	job.mu.Unlock()

	err := s.converter.Convert(ctx, job.inputPath, outputPath, plan, duration, func(fraction float64) {
		job.mu.Lock()
		if fraction > job.progress {
			job.progress = fraction
		}
		elapsed := time.Since(job.startedAt).Seconds()
		if job.duration > 0 && job.progress > 0 && elapsed > 0 {
			job.realtime = job.duration / (elapsed / job.progress)
		}
		job.mu.Unlock()
	})

	if ctx.Err() != nil {
		os.Remove(outputPath)
		s.finishCancelled(job)
		return
	}

	if err != nil {
		os.Remove(outputPath)
		s.fallback(job, err)
		return
	}

	outInfo, statErr := os.Stat(outputPath)
	if statErr != nil {
		s.fallback(job, statErr)
		return
	}

	percent := 100.0
	if job.inputSize > 0 {
		percent = float64(outInfo.Size()) / float64(job.inputSize) * 100
	}
	compressed := model.FileRef{
		Name:        util.CompressedFileName(job.inputName),
		Size:        outInfo.Size(),
		Path:        outputPath,
		ContentType: "video/mp4",
	}
	original := model.FileRef{
		Name:        job.inputName,
		Size:        job.inputSize,
		Path:        job.inputPath,
		ContentType: job.mimeType,
	}
	s.finishSuccess(job, compressed, original, percent)
}

// fallback applies the degradation policy when compression itself
// failed: valid videos under the size limit pass through untouched,
// everything else surfaces an error.
func (s *TranscodeService) fallback(job *transcodeJob, cause error) {
	logger.Log.Warn("video compression failed, evaluating passthrough",
		zap.String("session", job.sessionID),
		zap.String("file", job.inputName),
		zap.Error(cause))

	if job.inputSize > s.cfg.FallbackMaxSize {
		limitMB := float64(s.cfg.FallbackMaxSize) / (1024 * 1024)
		sizeMB := float64(job.inputSize) / (1024 * 1024)
		s.finishError(job, fmt.Sprintf("El video pesa %.1f MB y no pudimos comprimirlo. El límite es %.0f MB.", sizeMB, limitMB))
		return
	}

	ref := model.FileRef{
		Name:        job.inputName,
		Size:        job.inputSize,
		Path:        job.inputPath,
		ContentType: job.mimeType,
	}
	s.finishSuccess(job, ref, ref, 100)
}

func (s *TranscodeService) finishSuccess(job *transcodeJob, file, original model.FileRef, percent float64) {
	job.mu.Lock()
	job.status = model.TranscodeSuccess
	job.progress = 1
	now := time.Now()
	payload := &model.VideoCompressionPayload{
		File:         file,
		OriginalFile: original,
		Metadata: model.VideoCompressionMetadata{
			OriginalName:         job.inputName,
			OriginalSize:         job.inputSize,
			CompressedSize:       file.Size,
			CompressionPercent:   percent,
			DurationSeconds:      job.duration,
			MimeType:             job.mimeType,
			ApproxRealtimeFactor: job.realtime,
			StartedAt:            job.startedAt,
			FinishedAt:           now,
		},
	}
	job.payload = payload
	job.errMsg = ""
	started := job.startedAt
	job.mu.Unlock()

	monitoring.TranscodeOutcomes.WithLabelValues(string(model.TranscodeSuccess)).Inc()
	monitoring.TranscodeDuration.Observe(now.Sub(started).Seconds())
	s.record(job, string(model.TranscodeSuccess), "")

	if s.questionnaire != nil {
		if _, err := s.questionnaire.AttachVideoPayload(context.Background(), job.sessionID, job.questionID, payload); err != nil {
			logger.Log.Warn("could not attach compressed video to session",
				zap.String("session", job.sessionID), zap.Error(err))
		}
	}
}

func (s *TranscodeService) finishError(job *transcodeJob, msg string) {
	job.mu.Lock()
	job.status = model.TranscodeError
	job.errMsg = msg
	job.progress = 0
	job.mu.Unlock()
	monitoring.TranscodeOutcomes.WithLabelValues(string(model.TranscodeError)).Inc()
	s.record(job, string(model.TranscodeError), msg)
}

func (s *TranscodeService) finishCancelled(job *transcodeJob) {
	job.mu.Lock()
	job.status = model.TranscodeCancelled
	job.errMsg = ""
	job.progress = 0
	job.mu.Unlock()
	monitoring.TranscodeOutcomes.WithLabelValues(string(model.TranscodeCancelled)).Inc()
	s.record(job, string(model.TranscodeCancelled), "")
}

// record writes the audit row; failures only log.
func (s *TranscodeService) record(job *transcodeJob, state, detail string) {
	if s.appRepo == nil {
		return
	}
	job.mu.Lock()
	rec := &model.TranscodeRecord{
		SessionID:       job.sessionID,
		QuestionID:      job.questionID,
		OriginalName:    job.inputName,
		OriginalSize:    job.inputSize,
		DurationSeconds: job.duration,
		State:           state,
		Detail:          detail,
	}
	if job.payload != nil {
		rec.CompressedSize = job.payload.Metadata.CompressedSize
		rec.CompressionPercent = job.payload.Metadata.CompressionPercent
	}
	job.mu.Unlock()
	if err := s.appRepo.SaveTranscodeRecord(rec); err != nil {
		logger.Log.Warn("could not persist transcode record", zap.Error(err))
	}
}

func (s *TranscodeService) workDir() string {
	if s.cfg.WorkDir != "" {
		return s.cfg.WorkDir
	}
	return os.TempDir()
}

// ffmpegConverter runs the actual encode through ffmpeg-go, with
// progress read from ffmpeg's -progress stream over a local socket.
type ffmpegConverter struct{}

func (c *ffmpegConverter) Convert(ctx context.Context, inputPath, outputPath string, plan TranscodePlan, duration float64, progress func(float64)) error {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return fmt.Errorf("progress listener: %w", err)
	}
	defer listener.Close()

	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		scanner := bufio.NewScanner(conn)
		for scanner.Scan() {
			line := strings.TrimSpace(scanner.Text())
			if !strings.HasPrefix(line, "out_time_ms=") {
				continue
			}
			us, err := strconv.ParseInt(strings.TrimPrefix(line, "out_time_ms="), 10, 64)
			if err != nil || duration <= 0 {
				continue
			}
			fraction := float64(us) / 1_000_000 / duration
			if fraction > 1 {
				fraction = 1
			}
			if fraction > 0 {
				progress(fraction)
			}
		}
	}()

	cmd := ffmpeg.Input(inputPath).
		Output(outputPath, ffmpeg.KwArgs{
			"c:v": "libx264",
			"b:v": strconv.Itoa(plan.VideoBitrate),
			"c:a": "aac",
			"b:a": strconv.Itoa(plan.AudioBitrate),
			"vf":  fmt.Sprintf("scale=%d:-2", plan.TargetWidth),
			"movflags": "+faststart",
			"preset":   "veryfast",
		}).
		GlobalArgs("-progress", "tcp://"+listener.Addr().String()).
		OverWriteOutput().
		Silent(true).
		Compile()

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("start ffmpeg: %w", err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		// Kill rather than signal: ffmpeg may ignore SIGINT mid-mux.
		_ = cmd.Process.Kill()
		<-done
		return ctx.Err()
	case err := <-done:
		if err != nil {
			return fmt.Errorf("ffmpeg: %w", err)
		}
		return nil
	}
}
