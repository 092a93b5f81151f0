/*******************************************************************************
* Contributors: BMC Helix, Inc.
*
* (c) Copyright 2020-2025 BMC Helix, Inc.

* SPDX-License-Identifier: Apache-2.0
*******************************************************************************/

package utils

import (
	"strings"

	"github.com/edgexfoundry/go-mod-core-contracts/v3/common"
	"github.com/pkg/errors"
	"github.com/spf13/cast"
	"golang.org/x/exp/slices"
)

var numericArrayTypes = []string{
	common.ValueTypeFloat64Array, common.ValueTypeFloat32Array,
	common.ValueTypeInt8Array, common.ValueTypeInt16Array, common.ValueTypeInt32Array, common.ValueTypeInt64Array,
	common.ValueTypeUint8Array, common.ValueTypeUint16Array, common.ValueTypeUint32Array, common.ValueTypeUint64Array,
}

var numericScalarTypes = []string{
	common.ValueTypeFloat64, common.ValueTypeFloat32,
	common.ValueTypeInt8, common.ValueTypeInt16, common.ValueTypeInt32, common.ValueTypeInt64,
	common.ValueTypeUint8, common.ValueTypeUint16, common.ValueTypeUint32, common.ValueTypeUint64,
}

func IsNumericValueType(valueType string) bool {
	return slices.Contains(numericArrayTypes, valueType) || slices.Contains(numericScalarTypes, valueType)
}

// ParseReadingValue decodes the string value of a simple reading into samples.
// Arrays use the "[v1, v2, ...]" form of EdgeX simple readings, scalars yield one sample.
func ParseReadingValue(valueType string, value string) ([]float64, error) {
	switch {
	case slices.Contains(numericArrayTypes, valueType):
		return parseArray(value)
	case slices.Contains(numericScalarTypes, valueType):
		v, err := cast.ToFloat64E(strings.TrimSpace(value))
		if err != nil {
			return nil, errors.Wrapf(err, "parsing %s value", valueType)
		}
		return []float64{v}, nil
	default:
		return nil, errors.Errorf("value type %s is not numeric", valueType)
	}
}

func parseArray(value string) ([]float64, error) {
	trimmed := strings.TrimSpace(value)
	if !strings.HasPrefix(trimmed, "[") || !strings.HasSuffix(trimmed, "]") {
		return nil, errors.Errorf("array value %.32q is not bracketed", value)
	}
	trimmed = strings.TrimSpace(trimmed[1 : len(trimmed)-1])
	if trimmed == "" {
		return []float64{}, nil
	}
	fields := strings.FieldsFunc(trimmed, func(r rune) bool { return r == ',' || r == ' ' })
	out := make([]float64, 0, len(fields))
	for i, f := range fields {
		v, err := cast.ToFloat64E(f)
		if err != nil {
			return nil, errors.Wrapf(err, "array element %d", i)
		}
		out = append(out, v)
	}
	return out, nil
}
