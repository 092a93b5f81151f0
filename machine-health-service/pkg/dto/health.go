/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.
 
* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package dto

type HealthStatus string

const (
	StatusHealthy  HealthStatus = "HEALTHY"
	StatusWarning  HealthStatus = "WARNING"
	StatusCritical HealthStatus = "CRITICAL"
	StatusNoData   HealthStatus = "NO_DATA"

	// NoDataScore is reported for a channel that carried no samples
	NoDataScore = 50.0
	// NeutralScore is used wherever nothing is known
	NeutralScore = 50.0
)

// StatusForScore applies the fixed 80/60 cut points
func StatusForScore(score float64) HealthStatus {
	switch {
	case score >= 80:
		return StatusHealthy
	case score >= 60:
		return StatusWarning
	default:
		return StatusCritical
	}
}

// Severity orders statuses for alerting, NO_DATA ranks below HEALTHY
func (s HealthStatus) Severity() int {
	switch s {
	case StatusHealthy:
		return 1
	case StatusWarning:
		return 2
	case StatusCritical:
		return 3
	default:
		return 0
	}
}

type FaultIndicators struct {
	BearingFault  float64 `json:"bearing_fault"`
	Imbalance     float64 `json:"imbalance"`
	Misalignment  float64 `json:"misalignment"`
	OverallEnergy float64 `json:"overall_energy"`
}

type FaultThresholds struct {
	Bearing      float64 `json:"bearing"`
	Imbalance    float64 `json:"imbalance"`
	Misalignment float64 `json:"misalignment"`
}

type AxisHealth struct {
	Axis              Channel            `json:"axis"`
	RMS               float64            `json:"rms"`
	Peak              float64            `json:"peak"`
	CrestFactor       float64            `json:"crest_factor"`
	DominantFreq      float64            `json:"dominant_freq"`
	DominantMagnitude float64            `json:"dominant_magnitude"`
	Faults            FaultIndicators    `json:"fault_indicators"`
	RMSScore          float64            `json:"rms_score"`
	CrestScore        float64            `json:"crest_score"`
	FaultPenalty      float64            `json:"fault_penalty"`
	FaultSeverity     map[string]float64 `json:"fault_severity,omitempty"`
	ThresholdsUsed    FaultThresholds    `json:"thresholds_used"`
	Score             float64            `json:"health_score"`
	Status            HealthStatus       `json:"health_status"`
	Recommendations   []string           `json:"recommendations"`
}

type TempHealth struct {
	MeanTemp        float64        `json:"mean_temp"`
	MaxTemp         float64        `json:"max_temp"`
	MinTemp         float64        `json:"min_temp"`
	RiseRate        float64        `json:"temp_rise_rate"`
	MeanScore       float64        `json:"mean_score"`
	MaxScore        float64        `json:"max_score"`
	RiseScore       float64        `json:"rise_score"`
	ThresholdsUsed  TempThresholds `json:"thresholds_used"`
	Score           float64        `json:"health_score"`
	Status          HealthStatus   `json:"health_status"`
	Recommendations []string       `json:"recommendations"`
}

// Validation carries advisory findings about a live batch. Notices are informational and never penalized.
type Validation struct {
	Valid    bool     `json:"valid"`
	Warnings []string `json:"warnings"`
	Notices  []string `json:"notices,omitempty"`
}

type AnomalyResult struct {
	Trained    bool    `json:"trained"`
	Score      float64 `json:"anomaly_score"`
	IsAnomaly  bool    `json:"is_anomaly"`
	Health     float64 `json:"anomaly_health"`
	Confidence float64 `json:"confidence"`
}

type IntegratedHealth struct {
	DeviceName        string                 `json:"device_name,omitempty"`
	OverallHealth     float64                `json:"overall_health"`
	Status            HealthStatus           `json:"status"`
	Anomaly           bool                   `json:"anomaly"`
	Confidence        float64                `json:"confidence"`
	AnomalyHealth     float64                `json:"anomaly_health"`
	AnomalyScore      float64                `json:"anomaly_score"`
	AxisHealth        float64                `json:"axis_health"`
	ValidationPenalty float64                `json:"validation_penalty"`
	Axes              map[Channel]AxisHealth `json:"axes"`
	Temperature       *TempHealth            `json:"temperature,omitempty"`
	Validation        Validation             `json:"validation"`
	Features          []float64              `json:"features,omitempty"`
	Trained           bool                   `json:"trained"`
	Timestamp         int64                  `json:"timestamp"`
}

// ClampScore bounds a score to [0, 100], NaN maps to 0
func ClampScore(score float64) float64 {
	switch {
	case score != score:
		return 0
	case score < 0:
		return 0
	case score > 100:
		return 100
	default:
		return score
	}
}
