/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package errors

import (
	"fmt"
	"net/http"
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHedgeError_Error(t *testing.T) {
	type fields struct {
		errorType ErrorType
		message   string
	}
	tests := []struct {
		name   string
		fields fields
		want   string
	}{
		{
			name: "errorType and message is filled out", fields: fields{errorType: ErrorTypeConflict, message: "error message"}, want: "error message",
		},
		{
			name: "message is empty", fields: fields{errorType: ErrorTypeConflict, message: ""}, want: "",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := CommonHedgeError{
				errorType: tt.fields.errorType,
				message:   tt.fields.message,
			}
			if got := h.Error(); got != tt.want {
				t.Errorf("Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestNewHedgeError(t *testing.T) {
	want := CommonHedgeError{errorType: ErrorTypeTrainingQuality, message: "Too many constant features: 7"}
	got := NewCommonHedgeError(ErrorTypeTrainingQuality, "Too many constant features: 7")
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NewCommonHedgeError() = %v, want %v", got, want)
	}
}

func TestConvertToHTTPError(t *testing.T) {
	tests := []struct {
		errorType ErrorType
		want      int
	}{
		{ErrorTypeNotFound, http.StatusNotFound},
		{ErrorTypeBadRequest, http.StatusBadRequest},
		{ErrorTypeInsufficientTrainingData, http.StatusBadRequest},
		{ErrorTypeTrainingQuality, http.StatusUnprocessableEntity},
		{ErrorTypeDimensionMismatch, http.StatusConflict},
		{ErrorTypeModelNotTrained, http.StatusPreconditionFailed},
		{ErrorTypeSerialization, http.StatusInternalServerError},
		{ErrorType("Other"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(string(tt.errorType), func(t *testing.T) {
			httpErr := NewCommonHedgeError(tt.errorType, "msg").ConvertToHTTPError()
			assert.Equal(t, tt.want, httpErr.Code)
			assert.Equal(t, "msg", httpErr.Message)
		})
	}
}

func TestIsErrorType(t *testing.T) {
	t.Run("IsErrorType - Passed (wrapped hedge error)", func(t *testing.T) {
		err := fmt.Errorf("load failed: %w", NewCommonHedgeError(ErrorTypeSerialization, "bad json"))
		assert.True(t, IsErrorType(err, ErrorTypeSerialization))
		assert.False(t, IsErrorType(err, ErrorTypeNotFound))
	})
	t.Run("IsErrorType - Failed (plain error)", func(t *testing.T) {
		assert.False(t, IsErrorType(fmt.Errorf("plain"), ErrorTypeSerialization))
	})
}

func TestToHTTPError(t *testing.T) {
	assert.Equal(t, http.StatusConflict, ToHTTPError(NewCommonHedgeError(ErrorTypeDimensionMismatch, "x")).Code)
	assert.Equal(t, http.StatusInternalServerError, ToHTTPError(fmt.Errorf("boom")).Code)
}
