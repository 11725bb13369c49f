package service

import (
	"context"
	"net/http"
	"time"

	"github.com/student-ai-platform/internal/apiclient"
	"github.com/student-ai-platform/internal/models"
	"github.com/student-ai-platform/internal/notify"
	"github.com/student-ai-platform/internal/types"
)

// Generation defaults; zero-valued request fields are replaced by these
const (
	ArtSteps    = 70
	ArtGuidance = 5.0

	VideoFrames   = 32
	VideoGuidance = 1.0
	VideoSteps    = 4

	StreamingSteps = 2

	DefaultImageSize = 512
)

// AI server model identifiers accepted by /models/load and /models/unload
const (
	ModelGenerativeArt       = "generative_art"
	ModelGenerativeVideo     = "generative_video"
	ModelStreamingGenerative = "streaming_generative"
	ModelBlockchain          = "blockchain"
	ModelStudyChat           = "study_chat"
)

// ModelID maps a generation model type to its AI server identifier
func ModelID(t types.ModelType) string {
	switch t {
	case types.ModelArt:
		return ModelGenerativeArt
	case types.ModelVideo:
		return ModelGenerativeVideo
	case types.ModelStreaming:
		return ModelStreamingGenerative
	default:
		return string(t)
	}
}

// AICollectionsService drives the generative models of the AI server
type AICollectionsService struct {
	ai           *apiclient.Client
	notifier     *notify.Publisher
	videoTimeout time.Duration
}

// NewAICollectionsService creates a new AI collections service.
// Video generation gets its own, longer timeout.
func NewAICollectionsService(ai *apiclient.Client, notifier *notify.Publisher, videoTimeout time.Duration) *AICollectionsService {
	if notifier == nil {
		notifier = notify.NewPublisher(nil, nil)
	}
	return &AICollectionsService{ai: ai, notifier: notifier, videoTimeout: videoTimeout}
}

func orInt(v, fallback int) int {
	if v == 0 {
		return fallback
	}
	return v
}

func orFloat(v, fallback float64) float64 {
	if v == 0 {
		return fallback
	}
	return v
}

// generate posts req silently and maps both transport errors and success=false bodies
func (s *AICollectionsService) generate(ctx context.Context, req apiclient.Request, rejected, fallback string, toast bool) (*models.GenerationResult, error) {
	req.Silent = true
	var result models.GenerationResult
	err := s.ai.Do(ctx, req, &result)
	if err == nil && !result.Success {
		err = fail(orDefault(result.Message, rejected), nil)
	}
	if err != nil {
		f := asFailure(err, fallback)
		if toast {
			s.notifier.Raw(ctx, notify.LevelError, f.Text)
		}
		return nil, f
	}
	return &result, nil
}

// asFailure keeps an existing Failure and otherwise derives the AI error text
func asFailure(err error, fallback string) *Failure {
	if f, ok := err.(*Failure); ok {
		return f
	}
	return fail(aiErrorText(err, fallback), err)
}

// GenerateArt renders a still image from prompt
func (s *AICollectionsService) GenerateArt(ctx context.Context, req models.ArtRequest) (*models.GenerationResult, error) {
	req.Steps = orInt(req.Steps, ArtSteps)
	req.Guidance = orFloat(req.Guidance, ArtGuidance)
	req.Width = orInt(req.Width, DefaultImageSize)
	req.Height = orInt(req.Height, DefaultImageSize)

	return s.generate(ctx, apiclient.Request{Method: http.MethodPost, Path: "/generate-art", Body: req},
		"Art generation failed", "Không thể tạo hình ảnh", true)
}

// GenerateVideo renders a short clip from prompt
func (s *AICollectionsService) GenerateVideo(ctx context.Context, req models.VideoRequest) (*models.GenerationResult, error) {
	req.Frames = orInt(req.Frames, VideoFrames)
	req.Guidance = orFloat(req.Guidance, VideoGuidance)
	req.Steps = orInt(req.Steps, VideoSteps)
	req.Width = orInt(req.Width, DefaultImageSize)
	req.Height = orInt(req.Height, DefaultImageSize)

	return s.generate(ctx, apiclient.Request{
		Method:  http.MethodPost,
		Path:    "/generate-video",
		Body:    req,
		Timeout: s.videoTimeout,
	}, "Video generation failed", "Không thể tạo video", true)
}

// GenerateStreaming renders a fast preview image. Failures are returned, not notified.
func (s *AICollectionsService) GenerateStreaming(ctx context.Context, req models.StreamingRequest) (*models.GenerationResult, error) {
	req.Steps = orInt(req.Steps, StreamingSteps)
	req.Width = orInt(req.Width, DefaultImageSize)
	req.Height = orInt(req.Height, DefaultImageSize)

	return s.generate(ctx, apiclient.Request{Method: http.MethodPost, Path: "/generate-streaming", Body: req},
		"Streaming generation failed", "Không thể tạo ảnh streaming", false)
}

// LoadModel loads modelType into memory; force reloads a resident model
func (s *AICollectionsService) LoadModel(ctx context.Context, modelType string, force bool) (*models.ModelLoadResult, error) {
	var result models.ModelLoadResult
	err := s.ai.Do(ctx, apiclient.Request{
		Method: http.MethodPost,
		Path:   "/models/load",
		Body:   map[string]interface{}{"model_type": modelType, "force_reload": force},
		Silent: true,
	}, &result)
	if err == nil && !result.Loaded {
		err = fail(orDefault(result.Error, "Model loading failed"), nil)
	}
	if err != nil {
		f := asFailure(err, "Không thể tải model")
		s.notifier.Raw(ctx, notify.LevelError, f.Text)
		return nil, f
	}
	return &result, nil
}

func (s *AICollectionsService) operation(ctx context.Context, path string, body interface{}, rejected, fallback string) (*models.OperationResult, error) {
	var result models.OperationResult
	err := s.ai.Do(ctx, apiclient.Request{Method: http.MethodPost, Path: path, Body: body, Silent: true}, &result)
	if err == nil && !result.Success {
		err = fail(orDefault(result.Message, rejected), nil)
	}
	if err != nil {
		f := asFailure(err, fallback)
		s.notifier.Raw(ctx, notify.LevelError, f.Text)
		return nil, f
	}
	return &result, nil
}

// UnloadModel frees the memory held by modelType
func (s *AICollectionsService) UnloadModel(ctx context.Context, modelType string) (*models.OperationResult, error) {
	return s.operation(ctx, "/models/unload", map[string]string{"model_type": modelType},
		"Model unloading failed", "Không thể gỡ bỏ model")
}

// ClearAll unloads every model and releases GPU memory
func (s *AICollectionsService) ClearAll(ctx context.Context) (*models.OperationResult, error) {
	return s.operation(ctx, "/models/clear-all", nil, "Failed to clear models", "Không thể clear models")
}

// ManagerStatus returns the model manager report. Failures are not notified.
func (s *AICollectionsService) ManagerStatus(ctx context.Context) (models.ModelStatus, error) {
	var result struct {
		Success bool               `json:"success"`
		Data    models.ModelStatus `json:"data"`
	}
	err := s.ai.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/models/manager-status", Silent: true}, &result)
	if err == nil && !result.Success {
		err = fail("Failed to get model status", nil)
	}
	if err != nil {
		return nil, asFailure(err, "Không thể lấy trạng thái model")
	}
	return result.Data, nil
}

// ModelStatus returns the raw per-model status document. Failures are not notified.
func (s *AICollectionsService) ModelStatus(ctx context.Context) (models.ModelStatus, error) {
	var result models.ModelStatus
	err := s.ai.Do(ctx, apiclient.Request{Method: http.MethodGet, Path: "/models/status", Silent: true}, &result)
	if err != nil {
		return nil, asFailure(err, "Không thể lấy trạng thái models")
	}
	return result, nil
}
