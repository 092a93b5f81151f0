/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package errors

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
)

type ErrorType string

const (
	ErrorTypeNotFound    ErrorType = "NotFound"
	ErrorTypeServerError ErrorType = "ServerError"
	ErrorTypeDBError     ErrorType = "DBError"
	ErrorTypeConflict    ErrorType = "Conflict"
	ErrorTypeBadRequest  ErrorType = "BadRequest"
	ErrorTypeMandatory   ErrorType = "Mandatory"
	ErrorTypeUnknown     ErrorType = "Unknown"
	ErrorTypeConfig      ErrorType = "ConfigurationError"

	// analysis engine failures
	ErrorTypeInsufficientTrainingData ErrorType = "InsufficientTrainingData"
	ErrorTypeTrainingQuality          ErrorType = "TrainingQualityError"
	ErrorTypeDimensionMismatch        ErrorType = "DimensionMismatch"
	ErrorTypeModelNotTrained          ErrorType = "ModelNotTrained"
	ErrorTypeSerialization            ErrorType = "SerializationError"
)

type CommonHedgeError struct {
	errorType ErrorType
	message   string
}

type HedgeError interface {
	ErrorType() ErrorType
	Message() string
	IsErrorType(errorType ErrorType) bool
	Error() string
	ConvertToHTTPError() *echo.HTTPError
}

func (h CommonHedgeError) ErrorType() ErrorType {
	return h.errorType
}

func (h CommonHedgeError) Message() string {
	return h.message
}

func (h CommonHedgeError) Error() string {
	return h.message
}

func (h CommonHedgeError) IsErrorType(errorType ErrorType) bool {
	return errorType == h.errorType
}

func (h CommonHedgeError) ConvertToHTTPError() *echo.HTTPError {
	return echo.NewHTTPError(errorTypeToCode(h.ErrorType()), h.Message())
}

func NewCommonHedgeError(errorType ErrorType, message string) CommonHedgeError {
	return CommonHedgeError{errorType, message}
}

// IsErrorType reports whether err, or any error it wraps, is a HedgeError of the given type
func IsErrorType(err error, errorType ErrorType) bool {
	var hedgeErr HedgeError
	if errors.As(err, &hedgeErr) {
		return hedgeErr.IsErrorType(errorType)
	}
	return false
}

// ToHTTPError converts any error to an echo error, keeping the status of HedgeErrors
func ToHTTPError(err error) *echo.HTTPError {
	var hedgeErr HedgeError
	if errors.As(err, &hedgeErr) {
		return hedgeErr.ConvertToHTTPError()
	}
	return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
}

func errorTypeToCode(status ErrorType) int {
	switch status {
	case ErrorTypeServerError:
		return http.StatusInternalServerError
	case ErrorTypeNotFound:
		return http.StatusNotFound
	case ErrorTypeConflict, ErrorTypeDimensionMismatch:
		return http.StatusConflict
	case ErrorTypeBadRequest, ErrorTypeMandatory, ErrorTypeInsufficientTrainingData:
		return http.StatusBadRequest
	case ErrorTypeTrainingQuality:
		return http.StatusUnprocessableEntity
	case ErrorTypeModelNotTrained:
		return http.StatusPreconditionFailed
	case ErrorTypeDBError, ErrorTypeUnknown, ErrorTypeSerialization, ErrorTypeConfig:
		return http.StatusInternalServerError
	default:
		return http.StatusInternalServerError
	}
}
