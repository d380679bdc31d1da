package vectorstore

import (
	"encoding/json"
	"fmt"
)

func encodeFloatJSON(vec []float32) (string, error) {
	data, err := json.Marshal(vec)
	if err != nil {
		return "", fmt.Errorf("marshal vector: %w", err)
	}
	return string(data), nil
}

func decodeFloatJSON(data string) ([]float32, error) {
	var vec []float32
	if err := json.Unmarshal([]byte(data), &vec); err != nil {
		return nil, fmt.Errorf("unmarshal vector: %w", err)
	}
	return vec, nil
}
