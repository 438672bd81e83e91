package queue

import (
	"errors"
	"fmt"
)

const (
	TaskIngest  = "ingest"
	TaskCleanup = "cleanup"
)

var ErrMalformedTask = errors.New("malformed task")

// Task is one stream entry. Ingest tasks carry the asset to verify; cleanup
// tasks carry no asset.
type Task struct {
	Type    string
	AssetID string
	Bucket  string
	Object  string
	Format  string
}

func (t Task) Values() map[string]any {
	values := map[string]any{"type": t.Type}
	if t.AssetID != "" {
		values["assetId"] = t.AssetID
		values["bucket"] = t.Bucket
		values["object"] = t.Object
		values["format"] = t.Format
	}
	return values
}

// DecodeTask reads a task from stream entry values. Redis returns every
// field as a string.
func DecodeTask(values map[string]any) (Task, error) {
	str := func(key string) string {
		if v, ok := values[key].(string); ok {
			return v
		}
		return ""
	}

	task := Task{
		Type:    str("type"),
		AssetID: str("assetId"),
		Bucket:  str("bucket"),
		Object:  str("object"),
		Format:  str("format"),
	}
	if task.Type == "" {
		return Task{}, fmt.Errorf("%w: missing type", ErrMalformedTask)
	}
	if task.Type == TaskIngest && (task.AssetID == "" || task.Object == "") {
		return Task{}, fmt.Errorf("%w: ingest without asset", ErrMalformedTask)
	}
	return task, nil
}
