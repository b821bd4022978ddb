package domain

import "encoding/json"

// StorageEvent identifies a source blob to process.
type StorageEvent struct {
	Bucket string
	Key    string
}

// storageChangeShape is the event-bus envelope:
// {"detail": {"bucket": {"name": ...}, "object": {"key": ...}}}.
type storageChangeShape struct {
	Detail *struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"detail"`
}

// nativeShape is the direct object-store notification:
// {"Records": [{"s3": {"bucket": {"name": ...}, "object": {"key": ...}}}]}.
type nativeShape struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// ParseStorageEvent normalizes a notification body into a StorageEvent.
// Both the event-bus envelope and the native storage-change shape are
// recognized; anything else returns ErrUnrecognizedEvent.
func ParseStorageEvent(body []byte) (StorageEvent, error) {
	var wrapped storageChangeShape
	if err := json.Unmarshal(body, &wrapped); err == nil && wrapped.Detail != nil {
		ev := StorageEvent{
			Bucket: wrapped.Detail.Bucket.Name,
			Key:    wrapped.Detail.Object.Key,
		}
		if ev.Bucket != "" && ev.Key != "" {
			return ev, nil
		}
	}

	var native nativeShape
	if err := json.Unmarshal(body, &native); err == nil && len(native.Records) > 0 {
		ev := StorageEvent{
			Bucket: native.Records[0].S3.Bucket.Name,
			Key:    native.Records[0].S3.Object.Key,
		}
		if ev.Bucket != "" && ev.Key != "" {
			return ev, nil
		}
	}

	return StorageEvent{}, ErrUnrecognizedEvent
}

// DocID returns the deterministic document identifier for the event's blob.
func (e StorageEvent) DocID() string {
	return DocID(e.Bucket, e.Key)
}

// DocID derives the unique identifier for a processed document from its
// source location. Bucket names cannot contain "/", so the concatenation
// is unambiguous even when keys contain slashes.
func DocID(bucket, key string) string {
	return bucket + "/" + key
}
