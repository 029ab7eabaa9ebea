package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"cuerpofit_backend/internal/config"
	"cuerpofit_backend/internal/model"
	"cuerpofit_backend/internal/repository"
	"cuerpofit_backend/pkg/logger"

	"go.uber.org/zap"
)

const msgSubmitFailed = "No pudimos enviar tu formulario. Por favor intentá nuevamente."

// IntakeService submits completed questionnaires to the upstream CRM,
// mirrors them to the test backend when enabled and keeps a local copy.
type IntakeService struct {
	mu      sync.RWMutex
	cfg     config.IntakeConfig
	client  *http.Client
	appRepo *repository.ApplicationRepository
	storage *StorageService
}

func NewIntakeService(cfg config.IntakeConfig, appRepo *repository.ApplicationRepository, storage *StorageService) *IntakeService {
	return &IntakeService{
		cfg:     cfg,
		client:  &http.Client{Timeout: 2 * time.Minute},
		appRepo: appRepo,
		storage: storage,
	}
}

// UpdateConfig swaps the endpoint configuration on hot reload.
func (s *IntakeService) UpdateConfig(cfg config.IntakeConfig) {
	s.mu.Lock()
	s.cfg = cfg
	s.mu.Unlock()
}

func (s *IntakeService) config() config.IntakeConfig {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.cfg
}

// Complete is the questionnaire engine's completion callback: map the
// result, push it upstream and return the WhatsApp contact number.
func (s *IntakeService) Complete(ctx context.Context, sessionID string, result *model.Result) (string, error) {
	dto, video, err := MapResultToForm(result)
	if err != nil {
		return "", err
	}

	cfg := s.config()
	whatsapp, err := s.submit(ctx, cfg.SubmitURL, dto, video)
	if err != nil {
		return "", err
	}
	if whatsapp == "" {
		whatsapp = cfg.FallbackWhatsapp
	}

	if cfg.MirrorEnabled && cfg.MirrorURL != "" {
		go s.mirror(cfg.MirrorURL, dto)
	}

	if video != nil && s.storage != nil {
		if url, err := s.storage.Archive(ctx, sessionID, *video); err != nil {
			logger.Log.Warn("video archive failed", zap.String("session", sessionID), zap.Error(err))
		} else {
			video.URL = url
		}
	}

	s.saveApplication(sessionID, dto, video, whatsapp)

	if s.storage != nil {
		s.storage.CleanupSession(sessionID)
	}
	return whatsapp, nil
}

type submitResponse struct {
	Whatsapp string `json:"whatsapp"`
}

func (s *IntakeService) submit(ctx context.Context, submitURL string, dto *model.FormCuerpoFit, video *model.FileRef) (string, error) {
	body, contentType, err := buildForm(dto, video)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, submitURL, body)
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Log.Warn("upstream submission failed", zap.Error(err))
		return "", errors.New(msgSubmitFailed)
	}
	defer resp.Body.Close()

	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		message := strings.TrimSpace(string(raw))
		logger.Log.Warn("upstream rejected submission",
			zap.Int("status", resp.StatusCode), zap.String("body", message))
		if message == "" {
			message = msgSubmitFailed
		}
		return "", errors.New(message)
	}

	var parsed submitResponse
	if err := json.Unmarshal(raw, &parsed); err != nil {
		// Upstream answered 2xx with a non-JSON body; the submission
		// still went through.
		logger.Log.Debug("unparseable upstream response", zap.ByteString("body", raw))
		return "", nil
	}
	return parsed.Whatsapp, nil
}

// mirror re-sends the form (without the video part) to the test
// backend. Mirror failures never affect the user-facing outcome.
func (s *IntakeService) mirror(mirrorURL string, dto *model.FormCuerpoFit) {
	body, contentType, err := buildForm(dto, nil)
	if err != nil {
		logger.Log.Debug("mirror form build failed", zap.Error(err))
		return
	}
	req, err := http.NewRequest(http.MethodPost, mirrorURL, body)
	if err != nil {
		return
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := s.client.Do(req)
	if err != nil {
		logger.Log.Debug("mirror submission failed", zap.Error(err))
		return
	}
	defer resp.Body.Close()
	io.Copy(io.Discard, resp.Body)
	if resp.StatusCode >= 300 {
		logger.Log.Debug("mirror rejected submission", zap.Int("status", resp.StatusCode))
	}
}

func (s *IntakeService) saveApplication(sessionID string, dto *model.FormCuerpoFit, video *model.FileRef, whatsapp string) {
	if s.appRepo == nil {
		return
	}
	payload, err := json.Marshal(dto)
	if err != nil {
		logger.Log.Warn("could not marshal application payload", zap.Error(err))
		return
	}
	app := &model.Application{
		SessionID: sessionID,
		Email:     dto.Email,
		FullName:  strings.TrimSpace(dto.Name + " " + dto.LastName),
		Phone:     dto.Phone.FullNumber,
		Country:   dto.Country,
		Payload:   payload,
		Whatsapp:  whatsapp,
		Status:    "submitted",
	}
	if video != nil {
		app.VideoURL = video.URL
		if app.VideoURL == "" {
			app.VideoURL = video.Path
		}
	}
	if err := s.appRepo.Create(app); err != nil {
		logger.Log.Warn("could not persist application", zap.String("session", sessionID), zap.Error(err))
	}
}

// buildForm writes the multipart body the cuerpo-fit endpoint expects:
// scalar fields stringified, dates in RFC 3339, booleans as
// "true"/"false", the phone as its three dotted sub-keys and the video
// as a file part.
func buildForm(dto *model.FormCuerpoFit, video *model.FileRef) (*bytes.Buffer, string, error) {
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)

	field := func(key, value string) {
		if value != "" {
			w.WriteField(key, value)
		}
	}
	boolField := func(key string, value bool) {
		w.WriteField(key, strconv.FormatBool(value))
	}

	field("email", dto.Email)
	field("name", dto.Name)
	field("lastName", dto.LastName)
	field("sex", string(dto.Sex))
	field("dob", dto.Dob.UTC().Format(time.RFC3339))
	field("height", formatNumber(dto.Height))
	field("weight", formatNumber(dto.Weight))
	field("work", dto.Work)
	field("goal", dto.Goal)
	field("whyGoal", dto.WhyGoal)
	boolField("weighingScale", dto.WeighingScale)
	boolField("foodScale", dto.FoodScale)
	boolField("cookingSpray", dto.CookingSpray)
	boolField("stepCountingApp", dto.StepCountingApp)
	boolField("eatsJunkFoodMoreThan4PerWeek", dto.EatsJunkFoodMoreThan4PerWeek)
	boolField("drinkEnoughWaterPerDay", dto.DrinkEnoughWaterPerDay)
	field("addiction", dto.Addiction)
	if dto.AddictionAmount != nil {
		field("addictionAmount", formatNumber(*dto.AddictionAmount))
	}
	field("addictionFrequency", string(dto.AddictionFrequency))
	field("requireTreatmentCondition", strings.Join(dto.RequireTreatmentCondition, ","))
	field("condition", dto.Condition)
	field("sleepProblem", strings.Join(dto.SleepProblem, ","))
	field("getUpTime", string(dto.GetUpTime))
	boolField("screenBeforeSleep", dto.ScreenBeforeSleep)
	field("workoutConsistency", strconv.Itoa(dto.WorkoutConsistency))
	field("placeToWorkOut", string(dto.PlaceToWorkOut))
	field("supplement", dto.Supplement)
	field("supplementUnit", string(dto.SupplementUnit))
	if dto.SupplementHowMany != nil {
		field("supplementHowMany", formatNumber(*dto.SupplementHowMany))
	}
	field("supplementHowOften", string(dto.SupplementHowOften))
	field("userRecordVideo", string(dto.UserRecordVideo))
	field("country", dto.Country)
	field("city", dto.City)
	field("howDidUserEndUpHere", dto.HowDidUserEndUpHere)
	field("recaptchaToken", dto.VerificationKey)
	field("instagramUser", dto.InstagramUser)
	field("phone.countryCode", dto.Phone.CountryCode)
	field("phone.number", dto.Phone.Number)
	field("phone.fullNumber", dto.Phone.FullNumber)
	field("lastComment", dto.LastComment)

	if video != nil && video.Path != "" {
		f, err := os.Open(video.Path)
		if err != nil {
			return nil, "", fmt.Errorf("open video for submission: %w", err)
		}
		defer f.Close()
		part, err := w.CreateFormFile("video", video.Name)
		if err != nil {
			return nil, "", err
		}
		if _, err := io.Copy(part, f); err != nil {
			return nil, "", fmt.Errorf("copy video into form: %w", err)
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return buf, w.FormDataContentType(), nil
}
