// Package queue defines the message transport between pipeline stages and
// the envelope decoding for the event shapes the hosting runtime delivers.
package queue

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/gdaskalakis/troy/internal/models"
)

// ErrEmptyEvent is returned for an event with no payload at all.
var ErrEmptyEvent = errors.New("empty event body")

// pushEnvelope is the wrapper shape some delivery systems put around a
// message: {"message": {"data": "<base64>"}} or the minimal {"data": ...}.
type pushEnvelope struct {
	Data    string `json:"data"`
	Message *struct {
		Data string `json:"data"`
	} `json:"message"`
}

// DecodeEnvelope extracts the inner JSON payload from an event body. It
// accepts several shapes:
//   - {"data": "<base64-encoded JSON>"}: minimal queue delivery
//   - {"data": "<plain JSON string>"}: same field, not base64
//   - {"message": {"data": "<base64>"}}: push wrapper
//   - a bare JSON object: direct invocation and local testing
func DecodeEnvelope(body []byte) (json.RawMessage, error) {
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		return nil, ErrEmptyEvent
	}

	var env pushEnvelope
	if err := json.Unmarshal([]byte(trimmed), &env); err != nil {
		return nil, fmt.Errorf("event body is not valid JSON: %w", err)
	}

	data := env.Data
	if data == "" && env.Message != nil {
		data = env.Message.Data
	}

	if data == "" {
		// Already a plain payload object.
		return json.RawMessage(trimmed), nil
	}

	if decoded, err := base64.StdEncoding.DecodeString(data); err == nil && json.Valid(decoded) {
		return decoded, nil
	}
	if json.Valid([]byte(data)) {
		return []byte(data), nil
	}
	return nil, fmt.Errorf("unable to decode event data field")
}

// DecodeTask decodes a scanner task message from an event body.
func DecodeTask(body []byte) (models.Task, error) {
	payload, err := DecodeEnvelope(body)
	if err != nil {
		return models.Task{}, err
	}

	var task models.Task
	if err := json.Unmarshal(payload, &task); err != nil {
		return models.Task{}, fmt.Errorf("decoding task: %w", err)
	}
	if task.FileID == "" {
		return models.Task{}, errors.New("task is missing fileId")
	}
	return task, nil
}

// DecodeGradingPayload decodes a processor result message from an event body.
func DecodeGradingPayload(body []byte) (models.GradingPayload, error) {
	payload, err := DecodeEnvelope(body)
	if err != nil {
		return models.GradingPayload{}, err
	}

	var gp models.GradingPayload
	if err := json.Unmarshal(payload, &gp); err != nil {
		return models.GradingPayload{}, fmt.Errorf("decoding grading payload: %w", err)
	}
	if gp.FileID == "" {
		return models.GradingPayload{}, errors.New("grading payload is missing fileId")
	}
	return gp, nil
}
