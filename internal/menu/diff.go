package menu

import (
	"encoding/base64"
	"encoding/json"

	"github.com/menupress/menupress/internal/model"
)

// jsonEqual reports whether two values serialize to the same JSON. It is
// the equality used by the update diff, so 12 and 12.0 compare equal and
// field order inside structs is stable.
func jsonEqual(a, b any) bool {
	ja, errA := json.Marshal(a)
	jb, errB := json.Marshal(b)
	if errA != nil || errB != nil {
		return false
	}
	return string(ja) == string(jb)
}

// blobDataURI renders an image blob in the data-URI form used for audit
// snapshots and public responses. Nil blobs render as nil so a cleared
// image diffs against an empty "after".
func blobDataURI(b *model.ImageBlob) any {
	if b == nil || len(b.Data) == 0 {
		return nil
	}
	return "data:" + b.ContentType + ";base64," + base64.StdEncoding.EncodeToString(b.Data)
}

// recordChange appends a before/after pair when the values differ under
// JSON equality and returns whether it did.
func recordChange(changes map[string]model.FieldChange, field string, before, after any) bool {
	if jsonEqual(before, after) {
		return false
	}
	changes[field] = model.FieldChange{Before: before, After: after}
	return true
}
