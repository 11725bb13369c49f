package models

// ArtRequest asks the AI server for a still image
type ArtRequest struct {
	Prompt   string  `json:"prompt"`
	Steps    int     `json:"num_inference_steps"`
	Guidance float64 `json:"guidance_scale"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// VideoRequest asks the AI server for a short clip
type VideoRequest struct {
	Prompt   string  `json:"prompt"`
	Frames   int     `json:"num_frames"`
	Guidance float64 `json:"guidance_scale"`
	Steps    int     `json:"num_inference_steps"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// StreamingRequest asks the AI server for a fast preview image
type StreamingRequest struct {
	Prompt   string  `json:"prompt"`
	Steps    int     `json:"num_inference_steps"`
	Guidance float64 `json:"guidance_scale"`
	Width    int     `json:"width"`
	Height   int     `json:"height"`
}

// GenerationResult is returned by every generation endpoint
type GenerationResult struct {
	Success        bool    `json:"success"`
	Message        string  `json:"message,omitempty"`
	ImageBase64    string  `json:"image_base64,omitempty"`
	VideoFilename  string  `json:"video_filename,omitempty"`
	VideoURL       string  `json:"video_url,omitempty"`
	PromptUsed     string  `json:"prompt_used,omitempty"`
	ProcessingTime float64 `json:"processing_time,omitempty"`
	NumFrames      int     `json:"num_frames,omitempty"`
	FPS            int     `json:"fps,omitempty"`
	ModelUsed      string  `json:"model_used,omitempty"`
}

// ModelLoadResult reports a model load
type ModelLoadResult struct {
	Success       bool    `json:"success"`
	Message       string  `json:"message,omitempty"`
	ModelType     string  `json:"model_type"`
	Loaded        bool    `json:"loaded"`
	LoadingTime   float64 `json:"loading_time,omitempty"`
	MemoryUsageMB float64 `json:"memory_usage_mb,omitempty"`
	Error         string  `json:"error,omitempty"`
}

// OperationResult is the plain acknowledgement of the model manager
type OperationResult struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ModelStatus is the raw model status document of the AI server
type ModelStatus map[string]interface{}
