package domain

import (
	"fmt"
	"strings"
)

type AppError struct {
	Code       string `json:"code"`
	Message    string `json:"message"`
	StatusCode int    `json:"-"`
	Err        error  `json:"-"`
}

func (e *AppError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *AppError) Unwrap() error {
	return e.Err
}

func (e *AppError) WithError(err error) *AppError {
	return &AppError{
		Code:       e.Code,
		Message:    e.Message,
		StatusCode: e.StatusCode,
		Err:        err,
	}
}

// Pre-defined errors
var (
	ErrInternal = &AppError{
		Code:       "INTERNAL_ERROR",
		Message:    "An unexpected error occurred",
		StatusCode: 500,
	}

	ErrBadRequest = &AppError{
		Code:       "BAD_REQUEST",
		Message:    "Invalid request",
		StatusCode: 400,
	}

	ErrNotFound = &AppError{
		Code:       "NOT_FOUND",
		Message:    "Resource not found",
		StatusCode: 404,
	}

	ErrValidationFailed = &AppError{
		Code:       "VALIDATION_FAILED",
		Message:    "Request validation failed",
		StatusCode: 422,
	}

	// Per-frame quality gate errors. These never abort an enrollment by
	// themselves: the caller collects them and keeps processing frames.
	ErrImageDecode = &AppError{
		Code:       "DECODE_ERROR",
		Message:    "Failed to decode image",
		StatusCode: 422,
	}

	ErrImageTooSmall = &AppError{
		Code:       "IMAGE_TOO_SMALL",
		Message:    "Image below minimum resolution",
		StatusCode: 422,
	}

	ErrDetectionFailed = &AppError{
		Code:       "DETECTION_FAILED",
		Message:    "No face detected in image",
		StatusCode: 422,
	}

	ErrMultipleFaces = &AppError{
		Code:       "MULTIPLE_FACES",
		Message:    "Multiple faces detected, exactly 1 face required",
		StatusCode: 422,
	}

	ErrFaceTooSmall = &AppError{
		Code:       "FACE_TOO_SMALL",
		Message:    "Detected face too small relative to the frame",
		StatusCode: 422,
	}

	ErrNotEnrolled = &AppError{
		Code:       "NOT_ENROLLED",
		Message:    "No enrollment found. Please enroll a face first",
		StatusCode: 400,
	}

	ErrNothingToDelete = &AppError{
		Code:       "NOT_ENROLLED",
		Message:    "No enrollment found to delete",
		StatusCode: 404,
	}

	ErrStoreRead = &AppError{
		Code:       "STORE_READ_ERROR",
		Message:    "Enrollment data exists but could not be read",
		StatusCode: 500,
	}

	ErrStoreWrite = &AppError{
		Code:       "STORE_WRITE_ERROR",
		Message:    "Failed to persist enrollment data",
		StatusCode: 500,
	}

	ErrRateLimitExceeded = &AppError{
		Code:       "RATE_LIMIT_EXCEEDED",
		Message:    "Rate limit exceeded, please try again later",
		StatusCode: 429,
	}
)

// InsufficientEmbeddingsError reports an enrollment that did not reach the
// minimum number of valid frames. FrameErrors carries at most the first five
// per-frame error messages for diagnostics.
type InsufficientEmbeddingsError struct {
	Valid       int
	Total       int
	FrameErrors []string
}

func (e *InsufficientEmbeddingsError) Error() string {
	msg := fmt.Sprintf("insufficient valid embeddings: %d valid out of %d frames", e.Valid, e.Total)
	if len(e.FrameErrors) > 0 {
		msg += ". Errors: " + strings.Join(e.FrameErrors, "; ")
	}
	return msg
}
