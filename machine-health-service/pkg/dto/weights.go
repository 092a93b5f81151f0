/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package dto

// HealthWeights tunes how component scores are combined
type HealthWeights struct {
	AnomalyDetection  float64 `json:"anomaly_detection" validate:"gte=0,lte=1"`
	AxisAnalysis      float64 `json:"axis_analysis" validate:"gte=0,lte=1"`
	VibrationWeight   float64 `json:"vibration_weight" validate:"gte=0,lte=1"`
	TemperatureWeight float64 `json:"temperature_weight" validate:"gte=0,lte=1"`

	TempMeanWeight float64 `json:"temp_mean_weight" validate:"gte=0"`
	TempMaxWeight  float64 `json:"temp_max_weight" validate:"gte=0"`
	TempRiseWeight float64 `json:"temp_rise_weight" validate:"gte=0"`

	// FaultSensitivity divides the fault energy thresholds, higher is more sensitive
	FaultSensitivity float64 `json:"fault_sensitivity" validate:"gt=0"`

	TempNormalMultiplier   float64 `json:"temp_normal_multiplier" validate:"gt=0"`
	TempWarningMultiplier  float64 `json:"temp_warning_multiplier" validate:"gt=0"`
	TempCriticalMultiplier float64 `json:"temp_critical_multiplier" validate:"gt=0"`
}

func DefaultHealthWeights() HealthWeights {
	return HealthWeights{
		AnomalyDetection:       0.4,
		AxisAnalysis:           0.6,
		VibrationWeight:        0.7,
		TemperatureWeight:      0.3,
		TempMeanWeight:         0.4,
		TempMaxWeight:          0.3,
		TempRiseWeight:         0.3,
		FaultSensitivity:       1.0,
		TempNormalMultiplier:   1.0,
		TempWarningMultiplier:  1.0,
		TempCriticalMultiplier: 1.0,
	}
}
