// Package docs builds the swagger document served next to the API.
package docs

import (
	"github.com/go-swagno/swagno"
	"github.com/go-swagno/swagno/components/endpoint"
	"github.com/go-swagno/swagno/components/http/response"
	"github.com/go-swagno/swagno/components/mime"
)

// FrameData is one captured frame in an enrollment request.
type FrameData struct {
	Pose  string `json:"pose" example:"front"`
	Image string `json:"image" example:"data:image/jpeg;base64,/9j/4AAQ..."`
}

// EnrollRequestBody is the POST /enroll body.
type EnrollRequestBody struct {
	Frames []FrameData `json:"frames"`
}

// VerifyRequestBody is the POST /verify body.
type VerifyRequestBody struct {
	Image string `json:"image" example:"data:image/jpeg;base64,/9j/4AAQ..."`
}

// FrameMetadataData describes one accepted frame.
type FrameMetadataData struct {
	Pose       string  `json:"pose" example:"front"`
	Timestamp  string  `json:"timestamp" example:"2026-01-01T00:00:00Z"`
	Confidence float64 `json:"confidence" example:"0.31"`
	FaceRatio  float64 `json:"face_ratio" example:"0.31"`
}

// EnrollResponseData is the successful enrollment response.
type EnrollResponseData struct {
	Message         string              `json:"message" example:"Successfully enrolled 5 face embeddings"`
	EmbeddingsCount int                 `json:"embeddings_count" example:"5"`
	Frames          []FrameMetadataData `json:"frames"`
	Errors          []string            `json:"errors,omitempty"`
}

// VerifyResponseData is the verification response.
type VerifyResponseData struct {
	Verified   bool    `json:"verified" example:"true"`
	Similarity float64 `json:"similarity" example:"0.7421"`
	Threshold  float64 `json:"threshold" example:"0.6"`
	Message    string  `json:"message" example:"Face verified with similarity: 0.7421"`
	LatencyMs  int64   `json:"latency_ms" example:"180"`
}

// StatusMetadataData summarizes the stored metadata.
type StatusMetadataData struct {
	Version   string `json:"version" example:"1.0"`
	Timestamp string `json:"timestamp" example:"2026-01-01T00:00:00Z"`
	Count     int    `json:"count" example:"5"`
}

// StatusResponseData is the enrollment status response.
type StatusResponseData struct {
	Enrolled        bool                `json:"enrolled" example:"true"`
	EmbeddingsCount int                 `json:"embeddings_count,omitempty" example:"5"`
	Metadata        *StatusMetadataData `json:"metadata,omitempty"`
}

// HealthResponseData is the health and readiness response.
type HealthResponseData struct {
	Status  string `json:"status" example:"ok"`
	Version string `json:"version,omitempty" example:"1.0.0"`
}

// ErrorResponse is the standard error envelope.
type ErrorResponse struct {
	Code    string `json:"code" example:"NOT_ENROLLED"`
	Message string `json:"message" example:"No enrollment found. Please enroll a face first"`
}

// EmptyResponse represents a 204 response.
type EmptyResponse struct{}

func NewSwagger() *swagno.Swagger {
	sw := swagno.New(swagno.Config{
		Title:       "Rosto Face Verification API",
		Version:     "v1.0.0",
		Description: "Single-identity face enrollment and verification over gated webcam frames",
		Host:        "localhost:8000",
		Path:        "/",
	})

	endpoints := []*endpoint.EndPoint{
		endpoint.New(
			endpoint.POST,
			"/enroll",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Enroll a face from multiple frames"),
			endpoint.WithDescription("Gates every submitted frame and stores the surviving embeddings. Requires at least 5 frames that pass the quality gates; a new enrollment replaces the previous one."),
			endpoint.WithBody(EnrollRequestBody{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EnrollResponseData{}, "200", "Enrollment saved"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "BAD_REQUEST", Message: "Invalid request"}, "400", "Bad Request"),
				response.New(ErrorResponse{Code: "INSUFFICIENT_EMBEDDINGS", Message: "insufficient valid embeddings: 3 valid out of 7 frames"}, "400", "Too few frames survived the gates"),
				response.New(ErrorResponse{Code: "STORE_WRITE_ERROR", Message: "Failed to persist enrollment data"}, "500", "Internal Server Error"),
			}),
		),

		endpoint.New(
			endpoint.POST,
			"/verify",
			endpoint.WithTags("Verification"),
			endpoint.WithSummary("Verify an image against the enrolled face"),
			endpoint.WithDescription("Gates the probe image, compares its embedding against every stored embedding and reports the best cosine similarity. A probe that fails the gates is a non-match, not an error."),
			endpoint.WithBody(VerifyRequestBody{}),
			endpoint.WithConsume([]mime.MIME{mime.JSON}),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(VerifyResponseData{}, "200", "Verification completed"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NOT_ENROLLED", Message: "No enrollment found. Please enroll a face first"}, "400", "Nothing enrolled"),
				response.New(ErrorResponse{Code: "STORE_READ_ERROR", Message: "Enrollment data exists but could not be read"}, "500", "Internal Server Error"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/status",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Enrollment status"),
			endpoint.WithDescription("Reports whether an enrollment exists and, when it does, how many embeddings it holds."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(StatusResponseData{}, "200", "Status retrieved"),
			}),
		),

		endpoint.New(
			endpoint.DELETE,
			"/enrollment",
			endpoint.WithTags("Enrollment"),
			endpoint.WithSummary("Delete the stored enrollment"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(EmptyResponse{}, "204", "Enrollment cleared"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(ErrorResponse{Code: "NOT_ENROLLED", Message: "No enrollment found to delete"}, "404", "Nothing to delete"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/health",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Liveness probe"),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponseData{}, "200", "Service is up"),
			}),
		),

		endpoint.New(
			endpoint.GET,
			"/ready",
			endpoint.WithTags("Health"),
			endpoint.WithSummary("Readiness probe"),
			endpoint.WithDescription("503 until the extractor warm-up completes."),
			endpoint.WithProduce([]mime.MIME{mime.JSON}),
			endpoint.WithSuccessfulReturns([]response.Response{
				response.New(HealthResponseData{}, "200", "Ready for traffic"),
			}),
			endpoint.WithErrors([]response.Response{
				response.New(HealthResponseData{Status: "warming up"}, "503", "Extractor not warm yet"),
			}),
		),
	}

	sw.AddEndpoints(endpoints)
	return sw
}
