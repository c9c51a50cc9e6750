package service

import (
	"encoding/json"
	"errors"
	"reflect"
	"time"

	"project-tracker/internal/domain"
	"project-tracker/internal/metrics"

	log "github.com/sirupsen/logrus"
)

var errNotAnObject = errors.New("entity does not encode to an object")

// buildPayload flattens snapshot into a payload and stamps the capture
// metadata. A nil snapshot yields an empty payload without metadata.
func buildPayload(snapshot interface{}, capturedAt time.Time) domain.Payload {
	if isNil(snapshot) {
		return domain.Payload{}
	}

	entityClass := entityClassName(snapshot)

	payload, err := flatten(snapshot)
	if err != nil {
		log.WithError(err).WithField("entity_class", entityClass).Warn("Failed to serialize entity to payload")
		metrics.AuditPayloadFallbacks.Inc()
		return domain.Payload{
			domain.PayloadEntityClass: entityClass,
			domain.PayloadError:       domain.SerializationFailureMessage,
			domain.PayloadCaptureTime: capturedAt,
		}
	}

	payload[domain.PayloadEntityClass] = entityClass
	payload[domain.PayloadCaptureTime] = capturedAt
	return payload
}

func flatten(snapshot interface{}) (domain.Payload, error) {
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return nil, err
	}

	var payload domain.Payload
	if err := json.Unmarshal(raw, &payload); err != nil {
		return nil, errNotAnObject
	}
	if payload == nil {
		return nil, errNotAnObject
	}
	return payload, nil
}

func entityClassName(v interface{}) string {
	t := reflect.TypeOf(v)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() != "" {
		return t.Name()
	}
	return t.String()
}

func isNil(v interface{}) bool {
	if v == nil {
		return true
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer, reflect.Map, reflect.Slice, reflect.Interface:
		return rv.IsNil()
	}
	return false
}
